package notifier

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/bwmarrin/discordgo"

	"github.com/john/guildlog/internal/record"
)

// ErrChannelUnavailable is returned when the log channel handle cannot be resolved
var ErrChannelUnavailable = errors.New("log channel not found")

var tagColors = map[record.Tag]int{
	record.TagMessage:    0x98FB98,
	record.TagCreated:    0x57F287,
	record.TagRemoved:    0xED4245,
	record.TagChanged:    0xFEE75C,
	record.TagModeration: 0xEB459E,
	record.TagVoice:      0x5865F2,
}

const defaultColor = 0x99AAB5

// Session is the part of *discordgo.Session the notifier uses
type Session interface {
	Channel(channelID string, options ...discordgo.RequestOption) (*discordgo.Channel, error)
	ChannelMessageSendEmbed(channelID string, embed *discordgo.MessageEmbed, options ...discordgo.RequestOption) (*discordgo.Message, error)
}

// ChannelCache is the part of *discordgo.State the delivery context reads
type ChannelCache interface {
	Channel(channelID string) (*discordgo.Channel, error)
}

// DeliveryContext holds the resolved delivery handles. It is built once at
// startup and passed to the notifier instead of living in a global.
type DeliveryContext struct {
	session   Session
	cache     ChannelCache
	channelID string

	mu      sync.Mutex
	channel *discordgo.Channel
}

// NewDeliveryContext creates a delivery context for the given log channel.
// cache may be nil, in which case the channel is always fetched over REST.
func NewDeliveryContext(session Session, cache ChannelCache, channelID string) *DeliveryContext {
	return &DeliveryContext{
		session:   session,
		cache:     cache,
		channelID: channelID,
	}
}

// Channel returns the cached log channel handle, resolving it on first use
// from the state cache and then with one REST fetch. A failed resolution is
// not cached so a later event can try again.
func (d *DeliveryContext) Channel(ctx context.Context) (*discordgo.Channel, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.channel != nil {
		return d.channel, nil
	}
	if d.session == nil || d.channelID == "" {
		return nil, ErrChannelUnavailable
	}

	if d.cache != nil {
		if ch, err := d.cache.Channel(d.channelID); err == nil && ch != nil {
			d.channel = ch
			return ch, nil
		}
	}

	ch, err := d.session.Channel(d.channelID, discordgo.WithContext(ctx))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrChannelUnavailable, err)
	}
	if ch == nil {
		return nil, ErrChannelUnavailable
	}
	d.channel = ch
	return ch, nil
}

// Notifier sends records to the log channel as embeds
type Notifier struct {
	delivery *DeliveryContext
	timeout  time.Duration
}

// New creates a new notifier
func New(delivery *DeliveryContext, timeout time.Duration) *Notifier {
	return &Notifier{
		delivery: delivery,
		timeout:  timeout,
	}
}

// Send delivers one record. It does not retry.
func (n *Notifier) Send(ctx context.Context, rec record.Record) error {
	ctx, cancel := context.WithTimeout(ctx, n.timeout)
	defer cancel()

	ch, err := n.delivery.Channel(ctx)
	if err != nil {
		return err
	}

	if _, err := n.delivery.session.ChannelMessageSendEmbed(ch.ID, Embed(rec), discordgo.WithContext(ctx)); err != nil {
		return fmt.Errorf("send embed: %w", err)
	}
	return nil
}

// Embed converts a record to a Discord embed, keeping field order
func Embed(rec record.Record) *discordgo.MessageEmbed {
	color, ok := tagColors[rec.Tag]
	if !ok {
		color = defaultColor
	}

	fields := make([]*discordgo.MessageEmbedField, 0, len(rec.Fields))
	for _, f := range rec.Fields {
		fields = append(fields, &discordgo.MessageEmbedField{
			Name:   f.Name,
			Value:  f.Value,
			Inline: f.Inline,
		})
	}

	return &discordgo.MessageEmbed{
		Title:       rec.Title,
		Description: rec.Description,
		Color:       color,
		Fields:      fields,
		Timestamp:   rec.Timestamp.UTC().Format(time.RFC3339),
	}
}
