package discord

import (
	"github.com/bwmarrin/discordgo"

	"github.com/john/guildlog/internal/event"
)

func toUser(u *discordgo.User) *event.User {
	if u == nil {
		return nil
	}
	out := &event.User{
		ID:            u.ID,
		Username:      u.Username,
		Discriminator: u.Discriminator,
		Bot:           u.Bot,
	}
	if created, err := discordgo.SnowflakeTimestamp(u.ID); err == nil {
		out.CreatedAt = created.UTC()
	}
	return out
}

func userOrEmpty(u *discordgo.User) event.User {
	if converted := toUser(u); converted != nil {
		return *converted
	}
	return event.User{}
}

func channelSnapshot(ch *discordgo.Channel) event.ChannelSnapshot {
	if ch == nil {
		return event.ChannelSnapshot{}
	}
	return event.ChannelSnapshot{ID: ch.ID, Name: ch.Name, Position: ch.Position}
}

func roleSnapshot(r *discordgo.Role) event.RoleSnapshot {
	if r == nil {
		return event.RoleSnapshot{}
	}
	return event.RoleSnapshot{ID: r.ID, Name: r.Name, Color: r.Color}
}

func voiceSnapshot(vs *discordgo.VoiceState) event.VoiceSnapshot {
	if vs == nil {
		return event.VoiceSnapshot{}
	}
	return event.VoiceSnapshot{
		ChannelID:      vs.ChannelID,
		Muted:          vs.SelfMute,
		Deafened:       vs.SelfDeaf,
		ServerMuted:    vs.Mute,
		ServerDeafened: vs.Deaf,
	}
}

func normalizeMessageCreate(m *discordgo.MessageCreate) event.Event {
	return event.New(event.MessageCreated, m.GuildID, event.Message{
		MessageID: m.ID,
		ChannelID: m.ChannelID,
		Author:    toUser(m.Author),
		Content:   m.Content,
	})
}

func normalizeMessageUpdate(m *discordgo.MessageUpdate) event.Event {
	p := event.MessageEdit{
		MessageID: m.ID,
		ChannelID: m.ChannelID,
		Author:    toUser(m.Author),
		After:     m.Content,
		Edited:    m.EditedTimestamp != nil,
	}
	if m.BeforeUpdate != nil {
		before := m.BeforeUpdate.Content
		p.Before = &before
		if p.Author == nil {
			p.Author = toUser(m.BeforeUpdate.Author)
		}
	}
	return event.New(event.MessageEdited, m.GuildID, p)
}

// normalizeMessageDelete relies on the state cache; without it author and text are unknown
func normalizeMessageDelete(m *discordgo.MessageDelete) event.Event {
	p := event.Message{
		MessageID: m.ID,
		ChannelID: m.ChannelID,
	}
	if m.BeforeDelete != nil {
		p.Author = toUser(m.BeforeDelete.Author)
		p.Content = m.BeforeDelete.Content
	}
	return event.New(event.MessageDeleted, m.GuildID, p)
}

func normalizeMemberAdd(m *discordgo.GuildMemberAdd) event.Event {
	return event.New(event.MemberJoined, m.GuildID, event.Member{User: userOrEmpty(m.User)})
}

func normalizeMemberRemove(m *discordgo.GuildMemberRemove) event.Event {
	return event.New(event.MemberLeft, m.GuildID, event.Member{User: userOrEmpty(m.User)})
}

func normalizeMemberUpdate(m *discordgo.GuildMemberUpdate) event.Event {
	p := event.MemberUpdate{
		User:  userOrEmpty(m.User),
		After: event.MemberSnapshot{Nickname: m.Nick},
	}
	if m.BeforeUpdate != nil {
		p.Before = event.MemberSnapshot{Nickname: m.BeforeUpdate.Nick}
	} else {
		// Unknown prior state reads as unchanged
		p.Before = p.After
	}
	return event.New(event.MemberUpdated, m.GuildID, p)
}

func normalizeBanAdd(b *discordgo.GuildBanAdd) event.Event {
	return event.New(event.MemberBanned, b.GuildID, event.Member{User: userOrEmpty(b.User)})
}

func normalizeBanRemove(b *discordgo.GuildBanRemove) event.Event {
	return event.New(event.MemberUnbanned, b.GuildID, event.Member{User: userOrEmpty(b.User)})
}

func normalizeGuildUpdate(g *discordgo.GuildUpdate, before event.GuildSnapshot) event.Event {
	after := event.GuildSnapshot{ID: g.ID, Name: g.Name}
	return event.New(event.GuildMetadataChanged, g.ID, event.Guild{Before: before, After: after})
}

func normalizeChannelCreate(c *discordgo.ChannelCreate) event.Event {
	return event.New(event.ChannelCreated, c.GuildID, event.Channel{Channel: channelSnapshot(c.Channel)})
}

func normalizeChannelDelete(c *discordgo.ChannelDelete) event.Event {
	return event.New(event.ChannelDeleted, c.GuildID, event.Channel{Channel: channelSnapshot(c.Channel)})
}

func normalizeChannelUpdate(c *discordgo.ChannelUpdate, before event.ChannelSnapshot) event.Event {
	return event.New(event.ChannelUpdated, c.GuildID, event.ChannelUpdate{Before: before, After: channelSnapshot(c.Channel)})
}

func normalizeRoleCreate(r *discordgo.GuildRoleCreate) event.Event {
	return event.New(event.RoleCreated, r.GuildID, event.Role{Role: roleSnapshot(r.Role)})
}

func normalizeRoleUpdate(r *discordgo.GuildRoleUpdate, before event.RoleSnapshot) event.Event {
	return event.New(event.RoleUpdated, r.GuildID, event.RoleUpdate{Before: before, After: roleSnapshot(r.Role)})
}

func normalizeRoleDelete(r *discordgo.GuildRoleDelete, known event.RoleSnapshot) event.Event {
	known.ID = r.RoleID
	return event.New(event.RoleDeleted, r.GuildID, event.Role{Role: known})
}

// normalizeVoiceState takes the member from the payload or the state cache.
// Without either only the user ID is known.
func normalizeVoiceState(v *discordgo.VoiceStateUpdate, member *discordgo.Member) event.Event {
	p := event.VoiceState{
		Before: voiceSnapshot(v.BeforeUpdate),
		After:  voiceSnapshot(v.VoiceState),
	}
	if member != nil && member.User != nil {
		p.User = userOrEmpty(member.User)
	} else {
		p.User = event.User{ID: v.UserID}
		if created, err := discordgo.SnowflakeTimestamp(v.UserID); err == nil {
			p.User.CreatedAt = created.UTC()
		}
	}
	return event.New(event.VoiceStateChanged, v.GuildID, p)
}
