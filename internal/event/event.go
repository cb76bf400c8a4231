package event

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Kind identifies which gateway event an Event was normalized from
type Kind uint8

const (
	KindUnknown Kind = iota
	MessageCreated
	MessageEdited
	MessageDeleted
	MemberJoined
	MemberLeft
	MemberUpdated
	MemberBanned
	MemberUnbanned
	GuildMetadataChanged
	ChannelCreated
	ChannelDeleted
	ChannelUpdated
	RoleCreated
	RoleDeleted
	RoleUpdated
	VoiceStateChanged
)

// AllKinds lists every kind the source adapter produces
var AllKinds = []Kind{
	MessageCreated, MessageEdited, MessageDeleted,
	MemberJoined, MemberLeft, MemberUpdated, MemberBanned, MemberUnbanned,
	GuildMetadataChanged,
	ChannelCreated, ChannelDeleted, ChannelUpdated,
	RoleCreated, RoleDeleted, RoleUpdated,
	VoiceStateChanged,
}

var kindNames = map[Kind]string{
	MessageCreated:       "message_created",
	MessageEdited:        "message_edited",
	MessageDeleted:       "message_deleted",
	MemberJoined:         "member_joined",
	MemberLeft:           "member_left",
	MemberUpdated:        "member_updated",
	MemberBanned:         "member_banned",
	MemberUnbanned:       "member_unbanned",
	GuildMetadataChanged: "guild_metadata_changed",
	ChannelCreated:       "channel_created",
	ChannelDeleted:       "channel_deleted",
	ChannelUpdated:       "channel_updated",
	RoleCreated:          "role_created",
	RoleDeleted:          "role_deleted",
	RoleUpdated:          "role_updated",
	VoiceStateChanged:    "voice_state_changed",
}

// String returns the snake_case name used in logs and metric labels
func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("kind(%d)", uint8(k))
}

// IsMessage reports whether the kind is about a chat message
func (k Kind) IsMessage() bool {
	return k == MessageCreated || k == MessageEdited || k == MessageDeleted
}

// Event is the pipeline's unit of work. It is owned by the pipeline run that
// created it and never shared between runs.
type Event struct {
	ID         string    // correlates log lines of one pipeline run
	Kind       Kind
	GuildID    string
	OccurredAt time.Time // processing time when the gateway gives none
	Payload    Payload
}

// New builds an event stamped with a fresh ID and the current time
func New(kind Kind, guildID string, payload Payload) Event {
	return Event{
		ID:         uuid.NewString(),
		Kind:       kind,
		GuildID:    guildID,
		OccurredAt: time.Now().UTC(),
		Payload:    payload,
	}
}
