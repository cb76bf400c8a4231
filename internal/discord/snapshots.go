package discord

import (
	"sync"

	"github.com/bwmarrin/discordgo"

	"github.com/john/guildlog/internal/event"
)

// snapshots remembers guild, role and channel state for the monitored guild.
// The gateway sends only the new state on those updates, and the discordgo
// state cache is already overwritten by the time handlers run.
type snapshots struct {
	mu       sync.Mutex
	guild    event.GuildSnapshot
	roles    map[string]event.RoleSnapshot
	channels map[string]event.ChannelSnapshot
}

func newSnapshots() *snapshots {
	return &snapshots{
		roles:    make(map[string]event.RoleSnapshot),
		channels: make(map[string]event.ChannelSnapshot),
	}
}

func (s *snapshots) seed(g *discordgo.Guild) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.guild = event.GuildSnapshot{ID: g.ID, Name: g.Name}
	s.roles = make(map[string]event.RoleSnapshot, len(g.Roles))
	for _, r := range g.Roles {
		s.roles[r.ID] = roleSnapshot(r)
	}
	s.channels = make(map[string]event.ChannelSnapshot, len(g.Channels))
	for _, ch := range g.Channels {
		s.channels[ch.ID] = channelSnapshot(ch)
	}
}

// swapGuild stores the new guild state and returns the previous one
func (s *snapshots) swapGuild(g *discordgo.Guild) event.GuildSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	before := s.guild
	if before.ID == "" {
		before = event.GuildSnapshot{ID: g.ID, Name: g.Name}
	}
	s.guild = event.GuildSnapshot{ID: g.ID, Name: g.Name}
	return before
}

func (s *snapshots) putRole(r *discordgo.Role) {
	if r == nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.roles[r.ID] = roleSnapshot(r)
}

// swapRole stores the new role state and returns the previous one. An
// unseen role yields a snapshot with only its ID so every watched field
// reads as changed.
func (s *snapshots) swapRole(r *discordgo.Role) event.RoleSnapshot {
	if r == nil {
		return event.RoleSnapshot{}
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	before, ok := s.roles[r.ID]
	if !ok {
		before = event.RoleSnapshot{ID: r.ID}
	}
	s.roles[r.ID] = roleSnapshot(r)
	return before
}

func (s *snapshots) dropRole(id string) event.RoleSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	known := s.roles[id]
	delete(s.roles, id)
	return known
}

func (s *snapshots) putChannel(ch *discordgo.Channel) {
	if ch == nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.channels[ch.ID] = channelSnapshot(ch)
}

// swapChannel stores the new channel state and returns the previous one.
// An unseen channel yields a snapshot with only its ID.
func (s *snapshots) swapChannel(ch *discordgo.Channel) event.ChannelSnapshot {
	if ch == nil {
		return event.ChannelSnapshot{}
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	before, ok := s.channels[ch.ID]
	if !ok {
		before = event.ChannelSnapshot{ID: ch.ID}
	}
	s.channels[ch.ID] = channelSnapshot(ch)
	return before
}

func (s *snapshots) dropChannel(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.channels, id)
}
