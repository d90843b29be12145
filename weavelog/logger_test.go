package weavelog

import (
	"bytes"
	"strings"
	"testing"
)

func TestLoggerLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	l := New(WithLevel(WARN))
	l.stdout = &buf

	l.Debug("should be dropped")
	l.Info("should also be dropped")
	l.Warn("kept", "addr", "127.0.0.1:8080")

	out := buf.String()
	if strings.Contains(out, "dropped") {
		t.Fatalf("expected sub-WARN lines to be filtered, got: %q", out)
	}
	if !strings.Contains(out, "[WARN] kept addr=127.0.0.1:8080") {
		t.Fatalf("expected WARN line with kv pair, got: %q", out)
	}
}

func TestParseLevel(t *testing.T) {
	cases := map[string]Level{
		"debug":   DEBUG,
		"INFO":    INFO,
		"Warning": WARN,
		"error":   ERROR,
		"bogus":   INFO,
	}
	for in, want := range cases {
		if got := ParseLevel(in); got != want {
			t.Errorf("ParseLevel(%q) = %v, want %v", in, got, want)
		}
	}
}
