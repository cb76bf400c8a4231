package notifier

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/bwmarrin/discordgo"

	"github.com/john/guildlog/internal/record"
)

type fakeSession struct {
	channelErr error
	sendErr    error

	lookups int
	sent    []*discordgo.MessageEmbed
	sentTo  []string
}

func (f *fakeSession) Channel(channelID string, _ ...discordgo.RequestOption) (*discordgo.Channel, error) {
	f.lookups++
	if f.channelErr != nil {
		return nil, f.channelErr
	}
	return &discordgo.Channel{ID: channelID}, nil
}

func (f *fakeSession) ChannelMessageSendEmbed(channelID string, embed *discordgo.MessageEmbed, _ ...discordgo.RequestOption) (*discordgo.Message, error) {
	if f.sendErr != nil {
		return nil, f.sendErr
	}
	f.sent = append(f.sent, embed)
	f.sentTo = append(f.sentTo, channelID)
	return &discordgo.Message{}, nil
}

type fakeCache struct {
	channels map[string]*discordgo.Channel
	reads    int
}

func (f *fakeCache) Channel(channelID string) (*discordgo.Channel, error) {
	f.reads++
	if ch, ok := f.channels[channelID]; ok {
		return ch, nil
	}
	return nil, discordgo.ErrStateNotFound
}

func sampleRecord() record.Record {
	return record.Record{
		Title:       "Role Updated",
		Tag:         record.TagChanged,
		Description: "Name: Mod → Admin",
		Fields: []record.Field{
			{Name: "Role ID", Value: "4", Inline: true},
			{Name: "Moderator", Value: "alice"},
		},
		Timestamp: time.Date(2026, 4, 2, 10, 0, 0, 0, time.UTC),
	}
}

func TestEmbedKeepsFieldOrder(t *testing.T) {
	e := Embed(sampleRecord())
	if e.Title != "Role Updated" || e.Description != "Name: Mod → Admin" {
		t.Errorf("embed = %+v", e)
	}
	if e.Color != tagColors[record.TagChanged] {
		t.Errorf("Color = %#x", e.Color)
	}
	if e.Timestamp != "2026-04-02T10:00:00Z" {
		t.Errorf("Timestamp = %q", e.Timestamp)
	}
	if len(e.Fields) != 2 || e.Fields[0].Name != "Role ID" || !e.Fields[0].Inline || e.Fields[1].Name != "Moderator" {
		t.Errorf("Fields out of order: %+v %+v", e.Fields[0], e.Fields[1])
	}

	if got := Embed(record.Record{Tag: "bogus"}).Color; got != defaultColor {
		t.Errorf("unknown tag color = %#x", got)
	}
}

func TestSendCachesChannel(t *testing.T) {
	sess := &fakeSession{}
	n := New(NewDeliveryContext(sess, nil, "555"), time.Second)

	for i := 0; i < 3; i++ {
		if err := n.Send(context.Background(), sampleRecord()); err != nil {
			t.Fatalf("Send: %v", err)
		}
	}
	if sess.lookups != 1 {
		t.Errorf("channel lookups = %d, want 1", sess.lookups)
	}
	if len(sess.sent) != 3 || sess.sentTo[0] != "555" {
		t.Errorf("sent %d embeds to %v", len(sess.sent), sess.sentTo)
	}
}

func TestSendUnresolvableChannel(t *testing.T) {
	sess := &fakeSession{channelErr: errors.New("404 Unknown Channel")}
	n := New(NewDeliveryContext(sess, nil, "555"), time.Second)

	err := n.Send(context.Background(), sampleRecord())
	if !errors.Is(err, ErrChannelUnavailable) {
		t.Fatalf("err = %v, want ErrChannelUnavailable", err)
	}
	if len(sess.sent) != 0 {
		t.Error("embed sent without a channel")
	}

	n = New(NewDeliveryContext(nil, nil, ""), time.Second)
	if err := n.Send(context.Background(), sampleRecord()); !errors.Is(err, ErrChannelUnavailable) {
		t.Fatalf("err = %v, want ErrChannelUnavailable", err)
	}
}

func TestSendRejected(t *testing.T) {
	sess := &fakeSession{sendErr: errors.New("HTTP 403 Forbidden")}
	n := New(NewDeliveryContext(sess, nil, "555"), time.Second)
	if err := n.Send(context.Background(), sampleRecord()); err == nil {
		t.Fatal("Send succeeded on a rejected request")
	}
}

func TestChannelPrefersStateCache(t *testing.T) {
	sess := &fakeSession{}
	cache := &fakeCache{channels: map[string]*discordgo.Channel{"555": {ID: "555", Name: "mod-log"}}}
	delivery := NewDeliveryContext(sess, cache, "555")

	ch, err := delivery.Channel(context.Background())
	if err != nil || ch.Name != "mod-log" {
		t.Fatalf("Channel = %+v, %v", ch, err)
	}
	if sess.lookups != 0 {
		t.Errorf("REST lookups = %d, want 0 on a cache hit", sess.lookups)
	}

	// Cache miss falls back to one REST fetch
	delivery = NewDeliveryContext(sess, &fakeCache{}, "777")
	for i := 0; i < 2; i++ {
		if _, err := delivery.Channel(context.Background()); err != nil {
			t.Fatalf("Channel: %v", err)
		}
	}
	if sess.lookups != 1 {
		t.Errorf("REST lookups = %d, want 1", sess.lookups)
	}
}
