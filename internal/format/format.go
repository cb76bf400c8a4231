package format

import (
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/john/guildlog/internal/event"
	"github.com/john/guildlog/internal/filter"
	"github.com/john/guildlog/internal/record"
)

// MaxFieldLength is the hard limit for a field value on the notification channel
const MaxFieldLength = 1024

// ActorPlaceholder is shown when the audit trail could not name the actor
const ActorPlaceholder = "Could not retrieve."

const actorFieldName = "Moderator"

const unknownUser = "Unknown User"

var (
	// ErrUnknownKind means the adapter produced a kind this formatter does not know
	ErrUnknownKind = errors.New("unknown event kind")
	// ErrPayloadMismatch means the payload variant does not belong to the kind
	ErrPayloadMismatch = errors.New("payload does not match event kind")
)

// Format builds the display record for an event. ok is false when the event
// turns out to describe nothing worth reporting. A non-nil error is always a
// programming error in the caller.
func Format(ev event.Event, changes []filter.Change, actor *event.User) (rec record.Record, ok bool, err error) {
	rec = record.Record{Timestamp: ev.OccurredAt.UTC()}

	switch ev.Kind {
	case event.MessageCreated:
		p, valid := ev.Payload.(event.Message)
		if !valid {
			return mismatch(ev)
		}
		rec.Title = "Message Sent"
		rec.Tag = record.TagMessage
		rec.Description = channelLine(p.ChannelID)
		rec.Fields = []record.Field{authorField(p.Author), contentField("Message Content", p.Content)}

	case event.MessageEdited:
		p, valid := ev.Payload.(event.MessageEdit)
		if !valid {
			return mismatch(ev)
		}
		before := "*Original content was not cached.*"
		if p.Before != nil {
			before = *p.Before
		}
		rec.Title = "Message Edited"
		rec.Tag = record.TagChanged
		rec.Description = channelLine(p.ChannelID)
		rec.Fields = []record.Field{
			authorField(p.Author),
			contentField("Before", before),
			contentField("After", p.After),
		}

	case event.MessageDeleted:
		p, valid := ev.Payload.(event.Message)
		if !valid {
			return mismatch(ev)
		}
		rec.Title = "Message Deleted"
		rec.Tag = record.TagRemoved
		rec.Description = channelLine(p.ChannelID)
		rec.Fields = []record.Field{authorField(p.Author), contentField("Deleted Content", p.Content)}

	case event.MemberJoined, event.MemberLeft:
		p, valid := ev.Payload.(event.Member)
		if !valid {
			return mismatch(ev)
		}
		rec.Title, rec.Tag = "Member Joined", record.TagCreated
		if ev.Kind == event.MemberLeft {
			rec.Title, rec.Tag = "Member Left", record.TagRemoved
		}
		rec.Fields = []record.Field{userField(p.User)}

	case event.MemberBanned, event.MemberUnbanned:
		p, valid := ev.Payload.(event.Member)
		if !valid {
			return mismatch(ev)
		}
		rec.Title = "Member Banned"
		if ev.Kind == event.MemberUnbanned {
			rec.Title = "Member Unbanned"
		}
		rec.Tag = record.TagModeration
		rec.Fields = []record.Field{userField(p.User), actorField(actor)}

	case event.MemberUpdated:
		p, valid := ev.Payload.(event.MemberUpdate)
		if !valid {
			return mismatch(ev)
		}
		rec.Title = "Member Updated"
		rec.Tag = record.TagChanged
		rec.Description = changeLines(changes)
		rec.Fields = []record.Field{userField(p.User), actorField(actor)}

	case event.GuildMetadataChanged:
		p, valid := ev.Payload.(event.Guild)
		if !valid {
			return mismatch(ev)
		}
		rec.Title = "Server Updated"
		rec.Tag = record.TagChanged
		rec.Description = changeLines(changes)
		rec.Fields = []record.Field{idField("Server ID", p.After.ID), actorField(actor)}

	case event.ChannelCreated, event.ChannelDeleted:
		p, valid := ev.Payload.(event.Channel)
		if !valid {
			return mismatch(ev)
		}
		rec.Title, rec.Tag = "Channel Created", record.TagCreated
		if ev.Kind == event.ChannelDeleted {
			rec.Title, rec.Tag = "Channel Deleted", record.TagRemoved
		}
		rec.Description = "**Channel:** " + p.Channel.Name
		rec.Fields = []record.Field{idField("Channel ID", p.Channel.ID), actorField(actor)}

	case event.ChannelUpdated:
		p, valid := ev.Payload.(event.ChannelUpdate)
		if !valid {
			return mismatch(ev)
		}
		rec.Title = "Channel Updated"
		rec.Tag = record.TagChanged
		rec.Description = changeLines(changes)
		rec.Fields = []record.Field{idField("Channel ID", p.After.ID), actorField(actor)}

	case event.RoleCreated, event.RoleDeleted:
		p, valid := ev.Payload.(event.Role)
		if !valid {
			return mismatch(ev)
		}
		rec.Title, rec.Tag = "Role Created", record.TagCreated
		if ev.Kind == event.RoleDeleted {
			rec.Title, rec.Tag = "Role Deleted", record.TagRemoved
		}
		rec.Description = "**Role:** " + p.Role.Name
		rec.Fields = []record.Field{idField("Role ID", p.Role.ID), actorField(actor)}

	case event.RoleUpdated:
		p, valid := ev.Payload.(event.RoleUpdate)
		if !valid {
			return mismatch(ev)
		}
		rec.Title = "Role Updated"
		rec.Tag = record.TagChanged
		rec.Description = changeLines(changes)
		rec.Fields = []record.Field{idField("Role ID", p.After.ID), actorField(actor)}

	case event.VoiceStateChanged:
		p, valid := ev.Payload.(event.VoiceState)
		if !valid {
			return mismatch(ev)
		}
		transition, found := classifyVoice(p.Before, p.After)
		if !found {
			return record.Record{}, false, nil
		}
		rec.Title = transition.title
		rec.Tag = record.TagVoice
		rec.Description = transition.describe(p.Before, p.After)
		rec.Fields = []record.Field{userField(p.User)}

	default:
		return record.Record{}, false, fmt.Errorf("%w: %s", ErrUnknownKind, ev.Kind)
	}

	return rec, true, nil
}

func mismatch(ev event.Event) (record.Record, bool, error) {
	return record.Record{}, false, fmt.Errorf("%w: %s carries %T", ErrPayloadMismatch, ev.Kind, ev.Payload)
}

// Truncate cuts s to at most max runes
func Truncate(s string, max int) string {
	if utf8.RuneCountInString(s) <= max {
		return s
	}
	runes := []rune(s)
	return string(runes[:max])
}

func userValue(u event.User) string {
	created := "Unknown"
	if !u.CreatedAt.IsZero() {
		created = u.CreatedAt.UTC().Format("2006-01-02 15:04:05 UTC")
	}
	return fmt.Sprintf("**User ID:** %s\n**Created At:** %s", orUnknown(u.ID), created)
}

// userField is the identity block: tag as the name, id and account age as the value.
// The name is never empty; the channel rejects embeds with a blank field name.
func userField(u event.User) record.Field {
	name := u.Tag()
	if name == "" {
		name = unknownUser
	}
	return record.Field{Name: name, Value: userValue(u)}
}

func orUnknown(s string) string {
	if s == "" {
		return "Unknown"
	}
	return s
}

func authorField(u *event.User) record.Field {
	if u == nil {
		return record.Field{Name: "Author", Value: "Unknown"}
	}
	return userField(*u)
}

func actorField(actor *event.User) record.Field {
	if actor == nil {
		return record.Field{Name: actorFieldName, Value: ActorPlaceholder}
	}
	tag := actor.Tag()
	if tag == "" {
		tag = unknownUser
	}
	return record.Field{Name: actorFieldName, Value: tag + "\n" + userValue(*actor)}
}

func idField(name, id string) record.Field {
	return record.Field{Name: name, Value: id, Inline: true}
}

func contentField(name, content string) record.Field {
	if strings.TrimSpace(content) == "" {
		content = "*No text content*"
	}
	return record.Field{Name: name, Value: Truncate(content, MaxFieldLength)}
}

func channelLine(channelID string) string {
	return fmt.Sprintf("**Channel:** <#%s>", channelID)
}

func changeLines(changes []filter.Change) string {
	lines := make([]string, 0, len(changes))
	for _, c := range changes {
		lines = append(lines, c.String())
	}
	return strings.Join(lines, "\n")
}
