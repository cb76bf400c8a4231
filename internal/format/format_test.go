package format

import (
	"errors"
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/john/guildlog/internal/event"
	"github.com/john/guildlog/internal/filter"
	"github.com/john/guildlog/internal/record"
)

var created = time.Date(2020, 5, 1, 12, 0, 0, 0, time.UTC)

func alice() event.User {
	return event.User{ID: "7", Username: "Alice", Discriminator: "0", CreatedAt: created}
}

// samplePayloads holds one well-formed payload per kind
func samplePayloads() map[event.Kind]event.Payload {
	u := alice()
	before := "old"
	return map[event.Kind]event.Payload{
		event.MessageCreated:       event.Message{MessageID: "1", ChannelID: "2", Author: &u, Content: "hi"},
		event.MessageEdited:        event.MessageEdit{MessageID: "1", ChannelID: "2", Author: &u, Before: &before, After: "new", Edited: true},
		event.MessageDeleted:       event.Message{MessageID: "1", ChannelID: "2", Author: &u, Content: "bye"},
		event.MemberJoined:         event.Member{User: u},
		event.MemberLeft:           event.Member{User: u},
		event.MemberUpdated:        event.MemberUpdate{User: u, After: event.MemberSnapshot{Nickname: "Al"}},
		event.MemberBanned:         event.Member{User: u},
		event.MemberUnbanned:       event.Member{User: u},
		event.GuildMetadataChanged: event.Guild{Before: event.GuildSnapshot{ID: "100", Name: "a"}, After: event.GuildSnapshot{ID: "100", Name: "b"}},
		event.ChannelCreated:       event.Channel{Channel: event.ChannelSnapshot{ID: "3", Name: "general"}},
		event.ChannelDeleted:       event.Channel{Channel: event.ChannelSnapshot{ID: "3", Name: "general"}},
		event.ChannelUpdated:       event.ChannelUpdate{Before: event.ChannelSnapshot{ID: "3", Name: "a"}, After: event.ChannelSnapshot{ID: "3", Name: "b"}},
		event.RoleCreated:          event.Role{Role: event.RoleSnapshot{ID: "4", Name: "Mod"}},
		event.RoleDeleted:          event.Role{Role: event.RoleSnapshot{ID: "4", Name: "Mod"}},
		event.RoleUpdated:          event.RoleUpdate{Before: event.RoleSnapshot{ID: "4", Name: "Mod"}, After: event.RoleSnapshot{ID: "4", Name: "Admin"}},
		event.VoiceStateChanged:    event.VoiceState{User: u, After: event.VoiceSnapshot{ChannelID: "9"}},
	}
}

func TestEveryKindFormats(t *testing.T) {
	payloads := samplePayloads()
	for _, kind := range event.AllKinds {
		p, ok := payloads[kind]
		if !ok {
			t.Fatalf("no sample payload for %s", kind)
		}
		rec, ok, err := Format(event.New(kind, "100", p), nil, nil)
		if err != nil {
			t.Errorf("%s: %v", kind, err)
			continue
		}
		if !ok {
			t.Errorf("%s: produced no record", kind)
			continue
		}
		if rec.Title == "" || rec.Tag == "" || rec.Timestamp.IsZero() {
			t.Errorf("%s: incomplete record %+v", kind, rec)
		}
		for i, f := range rec.Fields {
			if f.Name == "" {
				t.Errorf("%s: field %d has empty name", kind, i)
			}
		}
	}
}

func TestUnknownKindIsProgrammingError(t *testing.T) {
	_, ok, err := Format(event.New(event.KindUnknown, "100", event.Member{}), nil, nil)
	if ok || !errors.Is(err, ErrUnknownKind) {
		t.Fatalf("ok = %v err = %v, want ErrUnknownKind", ok, err)
	}

	_, ok, err = Format(event.New(event.RoleUpdated, "100", event.Member{}), nil, nil)
	if ok || !errors.Is(err, ErrPayloadMismatch) {
		t.Fatalf("ok = %v err = %v, want ErrPayloadMismatch", ok, err)
	}
}

func TestMemberJoined(t *testing.T) {
	rec, ok, err := Format(event.New(event.MemberJoined, "100", event.Member{User: alice()}), nil, nil)
	if err != nil || !ok {
		t.Fatalf("Format: ok=%v err=%v", ok, err)
	}
	if rec.Title != "Member Joined" {
		t.Errorf("Title = %q, want Member Joined", rec.Title)
	}
	if len(rec.Fields) != 1 {
		t.Fatalf("len(Fields) = %d, want 1", len(rec.Fields))
	}
	f := rec.Fields[0]
	if f.Name != "Alice" || !strings.Contains(f.Value, "**User ID:** 7") || !strings.Contains(f.Value, "2020-05-01 12:00:00 UTC") {
		t.Errorf("identity field = %+v", f)
	}
}

func TestRoleRenameWithActor(t *testing.T) {
	p := event.RoleUpdate{
		Before: event.RoleSnapshot{ID: "4", Name: "Mod"},
		After:  event.RoleSnapshot{ID: "4", Name: "Admin"},
	}
	changes := []filter.Change{{Field: "Name", Old: "Mod", New: "Admin"}}
	actor := alice()

	rec, ok, err := Format(event.New(event.RoleUpdated, "100", p), changes, &actor)
	if err != nil || !ok {
		t.Fatalf("Format: ok=%v err=%v", ok, err)
	}
	if !strings.Contains(rec.Description, "Name: Mod → Admin") {
		t.Errorf("Description = %q", rec.Description)
	}
	if len(rec.Fields) != 2 {
		t.Fatalf("Fields = %+v", rec.Fields)
	}
	if rec.Fields[0].Name != "Role ID" || rec.Fields[0].Value != "4" {
		t.Errorf("Fields[0] = %+v, want Role ID 4", rec.Fields[0])
	}
	if rec.Fields[1].Name != "Moderator" || !strings.HasPrefix(rec.Fields[1].Value, "Alice\n") {
		t.Errorf("Fields[1] = %+v, want Moderator Alice", rec.Fields[1])
	}
}

func TestMissingActorUsesPlaceholder(t *testing.T) {
	for _, kind := range []event.Kind{event.MemberBanned, event.MemberUnbanned, event.ChannelCreated, event.RoleDeleted, event.GuildMetadataChanged} {
		rec, ok, err := Format(event.New(kind, "100", samplePayloads()[kind]), nil, nil)
		if err != nil || !ok {
			t.Fatalf("%s: ok=%v err=%v", kind, ok, err)
		}
		var found bool
		for _, f := range rec.Fields {
			if f.Name == "Moderator" {
				found = true
				if f.Value != "Could not retrieve." {
					t.Errorf("%s: Moderator = %q", kind, f.Value)
				}
			}
		}
		if !found {
			t.Errorf("%s: no Moderator field", kind)
		}
	}
}

func TestContentTruncation(t *testing.T) {
	long := strings.Repeat("é", 3000)
	u := alice()

	cases := map[event.Kind]event.Payload{
		event.MessageCreated: event.Message{Author: &u, Content: long},
		event.MessageDeleted: event.Message{Author: &u, Content: long},
		event.MessageEdited:  event.MessageEdit{Author: &u, Before: &long, After: long + "!", Edited: true},
	}
	for kind, p := range cases {
		rec, _, err := Format(event.New(kind, "100", p), nil, nil)
		if err != nil {
			t.Fatalf("%s: %v", kind, err)
		}
		for _, f := range rec.Fields[1:] {
			if n := utf8.RuneCountInString(f.Value); n != MaxFieldLength {
				t.Errorf("%s: field %q length = %d, want %d", kind, f.Name, n, MaxFieldLength)
			}
		}
	}

	short := "short"
	rec, _, _ := Format(event.New(event.MessageCreated, "100", event.Message{Author: &u, Content: short}), nil, nil)
	if rec.Fields[1].Value != short {
		t.Errorf("short content altered: %q", rec.Fields[1].Value)
	}
}

func TestVoicePriority(t *testing.T) {
	u := alice()
	cases := []struct {
		name   string
		before event.VoiceSnapshot
		after  event.VoiceSnapshot
		title  string
	}{
		{"join wins over mute", event.VoiceSnapshot{}, event.VoiceSnapshot{ChannelID: "1", Muted: true}, "Voice Channel Joined"},
		{"leave wins over deaf", event.VoiceSnapshot{ChannelID: "1", Deafened: true}, event.VoiceSnapshot{}, "Voice Channel Left"},
		{"move wins over mute", event.VoiceSnapshot{ChannelID: "1"}, event.VoiceSnapshot{ChannelID: "2", Muted: true}, "Voice Channel Moved"},
		{"mute wins over deaf", event.VoiceSnapshot{ChannelID: "1"}, event.VoiceSnapshot{ChannelID: "1", Muted: true, Deafened: true}, "Voice Mute Changed"},
		{"deaf alone", event.VoiceSnapshot{ChannelID: "1", Deafened: true}, event.VoiceSnapshot{ChannelID: "1"}, "Voice Deafen Changed"},
		{"server mute while self muted", event.VoiceSnapshot{ChannelID: "1", Muted: true}, event.VoiceSnapshot{ChannelID: "1", Muted: true, ServerMuted: true}, "Voice Mute Changed"},
		{"server deafen while self deafened", event.VoiceSnapshot{ChannelID: "1", Deafened: true}, event.VoiceSnapshot{ChannelID: "1", Deafened: true, ServerDeafened: true}, "Voice Deafen Changed"},
	}
	for _, tc := range cases {
		rec, ok, err := Format(event.New(event.VoiceStateChanged, "100", event.VoiceState{User: u, Before: tc.before, After: tc.after}), nil, nil)
		if err != nil || !ok {
			t.Fatalf("%s: ok=%v err=%v", tc.name, ok, err)
		}
		if rec.Title != tc.title {
			t.Errorf("%s: Title = %q, want %q", tc.name, rec.Title, tc.title)
		}
		if rec.Tag != record.TagVoice {
			t.Errorf("%s: Tag = %q", tc.name, rec.Tag)
		}
	}
}

func TestVoiceNoopProducesNoRecord(t *testing.T) {
	same := event.VoiceSnapshot{ChannelID: "1", Muted: true}
	_, ok, err := Format(event.New(event.VoiceStateChanged, "100", event.VoiceState{User: alice(), Before: same, After: same}), nil, nil)
	if err != nil {
		t.Fatalf("Format: %v", err)
	}
	if ok {
		t.Fatal("no-op voice update produced a record")
	}
}

func TestUnresolvedUserFieldHasName(t *testing.T) {
	voice := event.VoiceState{User: event.User{ID: "5"}, After: event.VoiceSnapshot{ChannelID: "9"}}
	rec, ok, err := Format(event.New(event.VoiceStateChanged, "100", voice), nil, nil)
	if err != nil || !ok {
		t.Fatalf("Format: ok=%v err=%v", ok, err)
	}
	if len(rec.Fields) != 1 || rec.Fields[0].Name != "5" {
		t.Errorf("Fields = %+v, want the user ID as the name", rec.Fields)
	}

	rec, ok, err = Format(event.New(event.MemberLeft, "100", event.Member{}), nil, nil)
	if err != nil || !ok {
		t.Fatalf("Format: ok=%v err=%v", ok, err)
	}
	for _, f := range rec.Fields {
		if f.Name == "" {
			t.Errorf("empty field name in %+v", rec.Fields)
		}
	}
	if rec.Fields[0].Name != unknownUser {
		t.Errorf("Name = %q, want %q", rec.Fields[0].Name, unknownUser)
	}
}
