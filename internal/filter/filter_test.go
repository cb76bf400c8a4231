package filter

import (
	"testing"

	"github.com/john/guildlog/internal/event"
)

const guild = "100"

func human() *event.User {
	return &event.User{ID: "1", Username: "alice"}
}

func strPtr(s string) *string { return &s }

func TestRejectsOtherGuilds(t *testing.T) {
	g := New(guild)
	payloads := map[event.Kind]event.Payload{
		event.MessageCreated:       event.Message{Author: human(), Content: "hi"},
		event.MemberJoined:         event.Member{User: *human()},
		event.MemberBanned:         event.Member{User: *human()},
		event.RoleUpdated:          event.RoleUpdate{Before: event.RoleSnapshot{Name: "a"}, After: event.RoleSnapshot{Name: "b"}},
		event.GuildMetadataChanged: event.Guild{Before: event.GuildSnapshot{Name: "a"}, After: event.GuildSnapshot{Name: "b"}},
		event.VoiceStateChanged:    event.VoiceState{After: event.VoiceSnapshot{ChannelID: "9"}},
	}
	for kind, p := range payloads {
		for _, other := range []string{"", "200"} {
			if _, ok := g.Accept(event.New(kind, other, p)); ok {
				t.Errorf("%s from guild %q accepted", kind, other)
			}
		}
		if _, ok := g.Accept(event.New(kind, guild, p)); !ok {
			t.Errorf("%s from monitored guild rejected", kind)
		}
	}
}

func TestRejectsBotAndUnknownAuthors(t *testing.T) {
	g := New(guild)
	bot := &event.User{ID: "2", Username: "helper", Bot: true}

	for _, author := range []*event.User{bot, nil} {
		if _, ok := g.Accept(event.New(event.MessageCreated, guild, event.Message{Author: author, Content: "x"})); ok {
			t.Errorf("message by %+v accepted", author)
		}
		if _, ok := g.Accept(event.New(event.MessageDeleted, guild, event.Message{Author: author})); ok {
			t.Errorf("deletion by %+v accepted", author)
		}
		edit := event.MessageEdit{Author: author, Before: strPtr("a"), After: "b", Edited: true}
		if _, ok := g.Accept(event.New(event.MessageEdited, guild, edit)); ok {
			t.Errorf("edit by %+v accepted", author)
		}
	}
}

func TestMessageEditIdenticalTextDropped(t *testing.T) {
	g := New(guild)
	for _, tc := range []struct {
		before *string
		after  string
		want   bool
	}{
		{strPtr("hello"), "hello", false},
		{strPtr("hello"), "  hello\n", false},
		{strPtr("hello"), "hello!", true},
		{nil, "", false},
		{nil, "new text", true},
	} {
		ev := event.New(event.MessageEdited, guild, event.MessageEdit{Author: human(), Before: tc.before, After: tc.after, Edited: true})
		changes, ok := g.Accept(ev)
		if ok != tc.want {
			t.Errorf("before=%v after=%q: ok = %v, want %v", tc.before, tc.after, ok, tc.want)
			continue
		}
		if ok && (len(changes) != 1 || changes[0].Field != "Content") {
			t.Errorf("changes = %+v, want single Content change", changes)
		}
	}
}

func TestMessageUpdateWithoutEditDropped(t *testing.T) {
	g := New(guild)
	// A pin or link unfurl on an uncached message: full text, no edit timestamp
	unfurl := event.MessageEdit{Author: human(), After: "see https://example.com"}
	if _, ok := g.Accept(event.New(event.MessageEdited, guild, unfurl)); ok {
		t.Error("update without an edit timestamp accepted")
	}

	unfurl.Before = strPtr("see")
	if _, ok := g.Accept(event.New(event.MessageEdited, guild, unfurl)); ok {
		t.Error("cached update without an edit timestamp accepted")
	}

	unfurl.Edited = true
	if _, ok := g.Accept(event.New(event.MessageEdited, guild, unfurl)); !ok {
		t.Error("real edit rejected")
	}
}

func TestRoleWatchList(t *testing.T) {
	g := New(guild)

	// Unwatched field (ID) differs, watched fields equal
	same := event.RoleUpdate{
		Before: event.RoleSnapshot{ID: "1", Name: "Mod", Color: 0xff0000},
		After:  event.RoleSnapshot{ID: "2", Name: "Mod", Color: 0xff0000},
	}
	if _, ok := g.Accept(event.New(event.RoleUpdated, guild, same)); ok {
		t.Error("role update without watched changes accepted")
	}

	renamed := event.RoleUpdate{
		Before: event.RoleSnapshot{ID: "1", Name: "Mod", Color: 0},
		After:  event.RoleSnapshot{ID: "1", Name: "Admin", Color: 0x00ff00},
	}
	changes, ok := g.Accept(event.New(event.RoleUpdated, guild, renamed))
	if !ok {
		t.Fatal("renamed role rejected")
	}
	if len(changes) != 2 {
		t.Fatalf("len(changes) = %d, want 2", len(changes))
	}
	if got := changes[0].String(); got != "Name: Mod → Admin" {
		t.Errorf("changes[0] = %q, want %q", got, "Name: Mod → Admin")
	}
	if got := changes[1].String(); got != "Color: Default → #00FF00" {
		t.Errorf("changes[1] = %q", got)
	}
}

func TestChannelWatchList(t *testing.T) {
	g := New(guild)
	moved := event.ChannelUpdate{
		Before: event.ChannelSnapshot{ID: "5", Name: "general", Position: 1},
		After:  event.ChannelSnapshot{ID: "5", Name: "general", Position: 3},
	}
	changes, ok := g.Accept(event.New(event.ChannelUpdated, guild, moved))
	if !ok || len(changes) != 1 || changes[0].String() != "Position: 1 → 3" {
		t.Fatalf("changes = %+v ok = %v", changes, ok)
	}

	unchanged := event.ChannelUpdate{Before: moved.Before, After: moved.Before}
	if _, ok := g.Accept(event.New(event.ChannelUpdated, guild, unchanged)); ok {
		t.Error("unchanged channel accepted")
	}
}

func TestGuildRegionIgnored(t *testing.T) {
	g := New(guild)
	p := event.Guild{
		Before: event.GuildSnapshot{Name: "Home", Region: "us-east"},
		After:  event.GuildSnapshot{Name: "Home", Region: "europe"},
	}
	if _, ok := g.Accept(event.New(event.GuildMetadataChanged, guild, p)); ok {
		t.Error("region-only change accepted")
	}
}

func TestMemberNicknameChange(t *testing.T) {
	g := New(guild)
	p := event.MemberUpdate{User: *human(), Before: event.MemberSnapshot{}, After: event.MemberSnapshot{Nickname: "Ally"}}
	changes, ok := g.Accept(event.New(event.MemberUpdated, guild, p))
	if !ok || len(changes) != 1 || changes[0].String() != "Nickname: None → Ally" {
		t.Fatalf("changes = %+v ok = %v", changes, ok)
	}
}
