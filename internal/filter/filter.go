package filter

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/john/guildlog/internal/event"
)

// Change is one watched field that differs between the before and after state
type Change struct {
	Field string
	Old   string
	New   string
}

// String renders "Field: old → new"
func (c Change) String() string {
	return fmt.Sprintf("%s: %s → %s", c.Field, orNone(c.Old), orNone(c.New))
}

func orNone(s string) string {
	if s == "" {
		return "None"
	}
	return s
}

// Gate decides whether an event is in scope and worth reporting
type Gate struct {
	guildID string
}

// New creates a gate for the single monitored guild
func New(guildID string) *Gate {
	return &Gate{guildID: guildID}
}

// Accept returns the watched changes for updated kinds and whether the event
// should continue down the pipeline. It has no side effects.
func (g *Gate) Accept(ev event.Event) ([]Change, bool) {
	if !g.InScope(ev) {
		return nil, false
	}

	switch p := ev.Payload.(type) {
	case event.MessageEdit:
		return messageChanges(p)

	case event.MemberUpdate:
		return nonEmpty([]Change{
			diff("Nickname", p.Before.Nickname, p.After.Nickname),
		})

	case event.Guild:
		// Region is deprecated upstream and not watched
		return nonEmpty([]Change{
			diff("Name", p.Before.Name, p.After.Name),
		})

	case event.ChannelUpdate:
		return nonEmpty([]Change{
			diff("Name", p.Before.Name, p.After.Name),
			diff("Position", strconv.Itoa(p.Before.Position), strconv.Itoa(p.After.Position)),
		})

	case event.RoleUpdate:
		return nonEmpty([]Change{
			diff("Name", p.Before.Name, p.After.Name),
			diff("Color", ColorHex(p.Before.Color), ColorHex(p.After.Color)),
		})
	}

	// Remaining kinds carry no diff; the formatter rejects unknown payloads
	return nil, true
}

// InScope checks the guild and, for message kinds, that a known human wrote it
func (g *Gate) InScope(ev event.Event) bool {
	if ev.GuildID == "" || ev.GuildID != g.guildID {
		return false
	}
	switch p := ev.Payload.(type) {
	case event.Message:
		return humanAuthor(p.Author)
	case event.MessageEdit:
		return humanAuthor(p.Author)
	}
	return true
}

func humanAuthor(u *event.User) bool {
	return u != nil && !u.Bot
}

// messageChanges drops updates Discord sends without an edit timestamp
// (pins, link unfurls) before comparing text
func messageChanges(p event.MessageEdit) ([]Change, bool) {
	if !p.Edited {
		return nil, false
	}
	after := strings.TrimSpace(p.After)
	if p.Before == nil {
		// Prior text was not cached. An empty edit is an embed-only update.
		if after == "" {
			return nil, false
		}
		return []Change{{Field: "Content", New: p.After}}, true
	}
	if strings.TrimSpace(*p.Before) == after {
		return nil, false
	}
	return []Change{{Field: "Content", Old: *p.Before, New: p.After}}, true
}

// diff returns a zero Change when the values match
func diff(field, old, new string) Change {
	if old == new {
		return Change{}
	}
	return Change{Field: field, Old: old, New: new}
}

func nonEmpty(changes []Change) ([]Change, bool) {
	out := changes[:0]
	for _, c := range changes {
		if c.Field != "" {
			out = append(out, c)
		}
	}
	if len(out) == 0 {
		return nil, false
	}
	return out, true
}

// ColorHex renders a 24-bit role color
func ColorHex(c int) string {
	if c == 0 {
		return "Default"
	}
	return fmt.Sprintf("#%06X", c&0xFFFFFF)
}
