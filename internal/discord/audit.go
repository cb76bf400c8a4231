package discord

import (
	"context"
	"fmt"

	"github.com/bwmarrin/discordgo"

	"github.com/john/guildlog/internal/event"
)

var auditActions = map[event.Kind]discordgo.AuditLogAction{
	event.MemberBanned:         discordgo.AuditLogActionMemberBanAdd,
	event.MemberUnbanned:       discordgo.AuditLogActionMemberBanRemove,
	event.MemberUpdated:        discordgo.AuditLogActionMemberUpdate,
	event.GuildMetadataChanged: discordgo.AuditLogActionGuildUpdate,
	event.ChannelCreated:       discordgo.AuditLogActionChannelCreate,
	event.ChannelDeleted:       discordgo.AuditLogActionChannelDelete,
	event.ChannelUpdated:       discordgo.AuditLogActionChannelUpdate,
	event.RoleCreated:          discordgo.AuditLogActionRoleCreate,
	event.RoleDeleted:          discordgo.AuditLogActionRoleDelete,
	event.RoleUpdated:          discordgo.AuditLogActionRoleUpdate,
}

// auditLogReader is the audit log call of *discordgo.Session
type auditLogReader interface {
	GuildAuditLog(guildID, userID, beforeID string, actionType, limit int, options ...discordgo.RequestOption) (*discordgo.GuildAuditLog, error)
}

// AuditTrail reads the most recent audit log entry for an action
type AuditTrail struct {
	reader auditLogReader
}

// NewAuditTrail wraps a session for actor lookups
func NewAuditTrail(reader auditLogReader) *AuditTrail {
	return &AuditTrail{reader: reader}
}

// LatestActor returns the executor of the newest entry for kind, or nil if none
func (a *AuditTrail) LatestActor(ctx context.Context, guildID string, kind event.Kind) (*event.User, error) {
	action, ok := auditActions[kind]
	if !ok {
		return nil, fmt.Errorf("no audit log action for %s", kind)
	}

	audit, err := a.reader.GuildAuditLog(guildID, "", "", int(action), 1, discordgo.WithContext(ctx))
	if err != nil {
		return nil, fmt.Errorf("fetch audit log: %w", err)
	}
	if audit == nil || len(audit.AuditLogEntries) == 0 {
		return nil, nil
	}

	entry := audit.AuditLogEntries[0]
	if entry == nil || entry.UserID == "" {
		return nil, nil
	}
	for _, u := range audit.Users {
		if u != nil && u.ID == entry.UserID {
			return toUser(u), nil
		}
	}
	return &event.User{ID: entry.UserID, Username: entry.UserID}, nil
}
