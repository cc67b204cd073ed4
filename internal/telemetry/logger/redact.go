package logger

import (
	"log/slog"
	"strconv"
)

// MaxAttrLen is the longest value logged verbatim for bulky keys.
const MaxAttrLen = 64

// bulkyKeys are attribute keys that may carry client payloads.
var bulkyKeys = map[string]bool{
	"value": true,
	"args":  true,
}

// truncateBulky shortens client payloads so a large SET does not flood
// the log. Groups are walked recursively.
func truncateBulky(a slog.Attr) slog.Attr {
	switch a.Value.Kind() {
	case slog.KindString:
		if bulkyKeys[a.Key] {
			return slog.String(a.Key, Truncate(a.Value.String()))
		}
	case slog.KindAny:
		if s, ok := a.Value.Any().(interface{ String() string }); ok && bulkyKeys[a.Key] {
			return slog.String(a.Key, Truncate(s.String()))
		}
	case slog.KindGroup:
		attrs := a.Value.Group()
		out := make([]slog.Attr, len(attrs))
		for i, attr := range attrs {
			out[i] = truncateBulky(attr)
		}
		return slog.Attr{Key: a.Key, Value: slog.GroupValue(out...)}
	}
	return a
}

// Truncate cuts s to MaxAttrLen bytes and notes the original length.
func Truncate(s string) string {
	if len(s) <= MaxAttrLen {
		return s
	}
	return s[:MaxAttrLen] + "...(" + strconv.Itoa(len(s)) + " bytes)"
}
