package discord

import (
	"context"
	"fmt"
	"runtime/debug"

	"github.com/bwmarrin/discordgo"

	"github.com/john/guildlog/internal/event"
	"github.com/john/guildlog/internal/logging"
)

// Intents covers the sixteen subscribed event kinds
const Intents = discordgo.IntentsGuilds |
	discordgo.IntentsGuildMembers |
	discordgo.IntentsGuildBans |
	discordgo.IntentsGuildMessages |
	discordgo.IntentsMessageContent |
	discordgo.IntentsGuildVoiceStates

// Processor consumes normalized events
type Processor interface {
	Process(ctx context.Context, ev event.Event)
}

// Connector manages the gateway session for the monitored guild
type Connector struct {
	guildID   string
	session   *discordgo.Session
	snapshots *snapshots
}

// New creates the session without opening it. maxMessages sizes the message
// cache that edits and deletions read prior content from.
func New(token, guildID string, maxMessages int) (*Connector, error) {
	dg, err := discordgo.New("Bot " + token)
	if err != nil {
		return nil, fmt.Errorf("create Discord session: %w", err)
	}
	dg.Identify.Intents = Intents
	dg.State.MaxMessageCount = maxMessages
	dg.State.TrackVoice = true

	return &Connector{
		guildID:   guildID,
		session:   dg,
		snapshots: newSnapshots(),
	}, nil
}

// Session returns the underlying discordgo session
func (c *Connector) Session() *discordgo.Session {
	return c.session
}

// Start registers handlers, opens the gateway and blocks until ctx is done
func (c *Connector) Start(ctx context.Context, proc Processor) error {
	c.registerHandlers(ctx, proc)

	if err := c.session.Open(); err != nil {
		return fmt.Errorf("open Discord connection: %w", err)
	}
	logging.Info("Connected to Discord gateway, monitoring guild %s", c.guildID)

	<-ctx.Done()

	logging.Info("Disconnecting from Discord...")
	if err := c.session.Close(); err != nil {
		logging.Warn("Error closing Discord session: %v", err)
	}
	return ctx.Err()
}

// forward normalizes inside a recover so a malformed payload cannot take down the handler goroutine
func forward(ctx context.Context, proc Processor, normalize func() event.Event) {
	defer func() {
		if r := recover(); r != nil {
			logging.Critical("normalize panic: %v\n%s", r, debug.Stack())
		}
	}()
	proc.Process(ctx, normalize())
}

func (c *Connector) registerHandlers(ctx context.Context, proc Processor) {
	s := c.session

	s.AddHandler(func(_ *discordgo.Session, r *discordgo.Ready) {
		logging.Info("Logged in as %s", r.User.String())
	})

	s.AddHandler(func(_ *discordgo.Session, g *discordgo.GuildCreate) {
		if g.ID != c.guildID {
			return
		}
		c.snapshots.seed(g.Guild)
		logging.Info("Loaded guild %s (%s) with %d roles and %d channels", g.Name, g.ID, len(g.Roles), len(g.Channels))
	})

	s.AddHandler(func(_ *discordgo.Session, m *discordgo.MessageCreate) {
		forward(ctx, proc, func() event.Event { return normalizeMessageCreate(m) })
	})
	s.AddHandler(func(_ *discordgo.Session, m *discordgo.MessageUpdate) {
		forward(ctx, proc, func() event.Event { return normalizeMessageUpdate(m) })
	})
	s.AddHandler(func(_ *discordgo.Session, m *discordgo.MessageDelete) {
		forward(ctx, proc, func() event.Event { return normalizeMessageDelete(m) })
	})

	s.AddHandler(func(_ *discordgo.Session, m *discordgo.GuildMemberAdd) {
		forward(ctx, proc, func() event.Event { return normalizeMemberAdd(m) })
	})
	s.AddHandler(func(_ *discordgo.Session, m *discordgo.GuildMemberRemove) {
		forward(ctx, proc, func() event.Event { return normalizeMemberRemove(m) })
	})
	s.AddHandler(func(_ *discordgo.Session, m *discordgo.GuildMemberUpdate) {
		forward(ctx, proc, func() event.Event { return normalizeMemberUpdate(m) })
	})
	s.AddHandler(func(_ *discordgo.Session, b *discordgo.GuildBanAdd) {
		forward(ctx, proc, func() event.Event { return normalizeBanAdd(b) })
	})
	s.AddHandler(func(_ *discordgo.Session, b *discordgo.GuildBanRemove) {
		forward(ctx, proc, func() event.Event { return normalizeBanRemove(b) })
	})

	s.AddHandler(func(_ *discordgo.Session, g *discordgo.GuildUpdate) {
		forward(ctx, proc, func() event.Event {
			var before event.GuildSnapshot
			if g.ID == c.guildID {
				before = c.snapshots.swapGuild(g.Guild)
			}
			return normalizeGuildUpdate(g, before)
		})
	})

	s.AddHandler(func(_ *discordgo.Session, ch *discordgo.ChannelCreate) {
		forward(ctx, proc, func() event.Event {
			if ch.GuildID == c.guildID {
				c.snapshots.putChannel(ch.Channel)
			}
			return normalizeChannelCreate(ch)
		})
	})
	s.AddHandler(func(_ *discordgo.Session, ch *discordgo.ChannelDelete) {
		forward(ctx, proc, func() event.Event {
			if ch.GuildID == c.guildID {
				c.snapshots.dropChannel(ch.ID)
			}
			return normalizeChannelDelete(ch)
		})
	})
	s.AddHandler(func(_ *discordgo.Session, ch *discordgo.ChannelUpdate) {
		forward(ctx, proc, func() event.Event {
			before := channelSnapshot(ch.Channel)
			if ch.GuildID == c.guildID {
				before = c.snapshots.swapChannel(ch.Channel)
			}
			return normalizeChannelUpdate(ch, before)
		})
	})

	s.AddHandler(func(_ *discordgo.Session, r *discordgo.GuildRoleCreate) {
		forward(ctx, proc, func() event.Event {
			if r.GuildID == c.guildID {
				c.snapshots.putRole(r.Role)
			}
			return normalizeRoleCreate(r)
		})
	})
	s.AddHandler(func(_ *discordgo.Session, r *discordgo.GuildRoleUpdate) {
		forward(ctx, proc, func() event.Event {
			var before event.RoleSnapshot
			if r.GuildID == c.guildID {
				before = c.snapshots.swapRole(r.Role)
			}
			return normalizeRoleUpdate(r, before)
		})
	})
	s.AddHandler(func(_ *discordgo.Session, r *discordgo.GuildRoleDelete) {
		forward(ctx, proc, func() event.Event {
			var known event.RoleSnapshot
			if r.GuildID == c.guildID {
				known = c.snapshots.dropRole(r.RoleID)
			}
			return normalizeRoleDelete(r, known)
		})
	})

	s.AddHandler(func(_ *discordgo.Session, v *discordgo.VoiceStateUpdate) {
		forward(ctx, proc, func() event.Event {
			member := v.Member
			if member == nil && v.VoiceState != nil {
				if cached, err := s.State.Member(v.GuildID, v.UserID); err == nil {
					member = cached
				}
			}
			return normalizeVoiceState(v, member)
		})
	})

	logging.Info("Discord event handlers configured")
}
