package logging

import (
	"bytes"
	"os"
	"strings"
	"testing"
)

func TestLevelsAndFiltering(t *testing.T) {
	var buf bytes.Buffer
	SetOutput(&buf)
	SetLevel(LevelWarn)
	t.Cleanup(func() {
		SetOutput(os.Stderr)
		SetLevel(LevelInfo)
	})

	Info("hidden %d", 1)
	Warn("lookup failed for %s", "g1")
	Critical("unknown kind %d", 99)

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Errorf("info line not filtered: %q", out)
	}
	if !strings.Contains(out, "[WARN] lookup failed for g1") {
		t.Errorf("missing warn line: %q", out)
	}
	if !strings.Contains(out, "[CRITICAL] unknown kind 99") {
		t.Errorf("missing critical line: %q", out)
	}
}

func TestParseLevel(t *testing.T) {
	cases := map[string]Level{
		"debug":   LevelDebug,
		"info":    LevelInfo,
		"warning": LevelWarn,
		"error":   LevelError,
		"":        LevelInfo,
	}
	for in, want := range cases {
		if got := ParseLevel(in); got != want {
			t.Errorf("ParseLevel(%q) = %s, want %s", in, got, want)
		}
	}
}
