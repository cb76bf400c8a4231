package event

import (
	"time"
)

// Payload is implemented only by the variant types in this file
type Payload interface {
	payload()
}

// User is the identity block shown for authors, members and moderators
type User struct {
	ID            string
	Username      string
	Discriminator string
	Bot           bool
	CreatedAt     time.Time
}

// Tag returns "name#1234", or just the name for accounts without a
// discriminator. An unresolved account falls back to its ID.
func (u User) Tag() string {
	if u.Username == "" {
		return u.ID
	}
	if u.Discriminator == "" || u.Discriminator == "0" {
		return u.Username
	}
	return u.Username + "#" + u.Discriminator
}

// Message carries MessageCreated and MessageDeleted.
// Author is nil when the platform could not tell who wrote the message.
type Message struct {
	MessageID string
	ChannelID string
	Author    *User
	Content   string
}

// MessageEdit carries MessageEdited. Before is nil when the prior text was not cached.
// Edited is false for updates that carry no edit timestamp (pins, link unfurls).
type MessageEdit struct {
	MessageID string
	ChannelID string
	Author    *User
	Before    *string
	After     string
	Edited    bool
}

// Member carries MemberJoined, MemberLeft, MemberBanned and MemberUnbanned
type Member struct {
	User User
}

// MemberSnapshot holds the watched member fields
type MemberSnapshot struct {
	Nickname string
}

// MemberUpdate carries MemberUpdated
type MemberUpdate struct {
	User   User
	Before MemberSnapshot
	After  MemberSnapshot
}

// GuildSnapshot holds the watched guild fields
type GuildSnapshot struct {
	ID     string
	Name   string
	Region string // deprecated upstream, usually empty
}

// Guild carries GuildMetadataChanged
type Guild struct {
	Before GuildSnapshot
	After  GuildSnapshot
}

// ChannelSnapshot holds the watched channel fields
type ChannelSnapshot struct {
	ID       string
	Name     string
	Position int
}

// Channel carries ChannelCreated and ChannelDeleted
type Channel struct {
	Channel ChannelSnapshot
}

// ChannelUpdate carries ChannelUpdated
type ChannelUpdate struct {
	Before ChannelSnapshot
	After  ChannelSnapshot
}

// RoleSnapshot holds the watched role fields
type RoleSnapshot struct {
	ID    string
	Name  string
	Color int
}

// Role carries RoleCreated and RoleDeleted
type Role struct {
	Role RoleSnapshot
}

// RoleUpdate carries RoleUpdated
type RoleUpdate struct {
	Before RoleSnapshot
	After  RoleSnapshot
}

// VoiceSnapshot is one side of a voice state transition. An empty
// ChannelID means the user was not connected. Muted and Deafened are the
// user's own toggles; the Server flags are set by moderators.
type VoiceSnapshot struct {
	ChannelID      string
	Muted          bool
	Deafened       bool
	ServerMuted    bool
	ServerDeafened bool
}

// VoiceState carries VoiceStateChanged
type VoiceState struct {
	User   User
	Before VoiceSnapshot
	After  VoiceSnapshot
}

func (Message) payload()       {}
func (MessageEdit) payload()   {}
func (Member) payload()        {}
func (MemberUpdate) payload()  {}
func (Guild) payload()         {}
func (Channel) payload()       {}
func (ChannelUpdate) payload() {}
func (Role) payload()          {}
func (RoleUpdate) payload()    {}
func (VoiceState) payload()    {}
