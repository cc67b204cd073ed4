package logger

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"
)

type stringer string

func (s stringer) String() string { return string(s) }

func TestTruncate(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"empty", "", ""},
		{"short", "hello", "hello"},
		{"exactly max", strings.Repeat("a", MaxAttrLen), strings.Repeat("a", MaxAttrLen)},
		{"over max", strings.Repeat("b", MaxAttrLen+1), strings.Repeat("b", MaxAttrLen) + "...(65 bytes)"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Truncate(tt.input); got != tt.want {
				t.Errorf("Truncate() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestTruncateBulky(t *testing.T) {
	long := strings.Repeat("x", 200)

	tests := []struct {
		name string
		attr slog.Attr
		want string
	}{
		{"value key truncated", slog.String("value", long), Truncate(long)},
		{"args key truncated", slog.String("args", long), Truncate(long)},
		{"stringer args truncated", slog.Any("args", stringer(long)), Truncate(long)},
		{"other key kept", slog.String("conn", long), long},
		{"short value kept", slog.String("value", "v"), "v"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := truncateBulky(tt.attr)
			if got.Value.String() != tt.want {
				t.Errorf("truncateBulky() = %q, want %q", got.Value.String(), tt.want)
			}
		})
	}
}

func TestTruncateBulky_Group(t *testing.T) {
	long := strings.Repeat("y", 100)
	got := truncateBulky(slog.Group("req", slog.String("args", long), slog.Int("n", 1)))

	attrs := got.Value.Group()
	if len(attrs) != 2 {
		t.Fatalf("group has %d attrs, want 2", len(attrs))
	}
	if attrs[0].Value.String() != Truncate(long) {
		t.Errorf("nested args = %q, want truncated", attrs[0].Value.String())
	}
	if attrs[1].Value.Int64() != 1 {
		t.Errorf("nested n = %v, want 1", attrs[1].Value)
	}
}

func TestLogger_TruncatesRequestArgs(t *testing.T) {
	var buf bytes.Buffer
	l, err := New(Config{Level: "debug", Format: "json", Output: &buf})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	payload := "[SET k " + strings.Repeat("z", 1000) + "]"
	l.Debug("request received", "conn", "01ARZ3NDEKTSV4RRFFQ69G5FAV", "args", payload)

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("Failed to parse JSON log: %v", err)
	}
	args, _ := entry["args"].(string)
	if len(args) >= len(payload) {
		t.Errorf("args should be truncated, got %d bytes", len(args))
	}
	if !strings.HasPrefix(args, "[SET k zzz") {
		t.Errorf("args = %q, want the payload prefix", args)
	}
	if entry["conn"] != "01ARZ3NDEKTSV4RRFFQ69G5FAV" {
		t.Errorf("conn = %v", entry["conn"])
	}
}
