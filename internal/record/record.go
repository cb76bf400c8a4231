package record

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// Tag is the semantic category of a record. The notifier maps it to a color.
type Tag string

const (
	TagMessage    Tag = "message"
	TagCreated    Tag = "created"
	TagRemoved    Tag = "removed"
	TagChanged    Tag = "changed"
	TagModeration Tag = "moderation"
	TagVoice      Tag = "voice"
)

// Field is a named value; records render fields in slice order
type Field struct {
	Name   string `json:"name"`
	Value  string `json:"value"`
	Inline bool   `json:"inline,omitempty"`
}

// Record is the canonical display form of one event. Treat it as immutable
// once built.
type Record struct {
	Title       string    `json:"title"`
	Tag         Tag       `json:"tag"`
	Description string    `json:"description,omitempty"`
	Fields      []Field   `json:"fields"`
	Timestamp   time.Time `json:"timestamp"`
}

// EncodeLine renders a log entry: "[<RFC3339 UTC>] <json>\n"
func EncodeLine(at time.Time, rec Record) ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('[')
	buf.WriteString(at.UTC().Format(time.RFC3339Nano))
	buf.WriteString("] ")

	// Encode terminates the line; channel mentions stay readable without HTML escaping
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(rec); err != nil {
		return nil, fmt.Errorf("marshal record: %w", err)
	}
	return buf.Bytes(), nil
}

// ParseLine reverses EncodeLine
func ParseLine(line string) (time.Time, Record, error) {
	line = strings.TrimRight(line, "\r\n")
	if !strings.HasPrefix(line, "[") {
		return time.Time{}, Record{}, fmt.Errorf("missing timestamp prefix")
	}
	end := strings.Index(line, "] ")
	if end < 0 {
		return time.Time{}, Record{}, fmt.Errorf("unterminated timestamp prefix")
	}

	at, err := time.Parse(time.RFC3339Nano, line[1:end])
	if err != nil {
		return time.Time{}, Record{}, fmt.Errorf("parse timestamp: %w", err)
	}

	var rec Record
	if err := json.Unmarshal([]byte(line[end+2:]), &rec); err != nil {
		return time.Time{}, Record{}, fmt.Errorf("parse record: %w", err)
	}
	return at, rec, nil
}
