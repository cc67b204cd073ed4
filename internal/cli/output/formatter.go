package output

import (
	"fmt"
	"io"

	"github.com/yndnr/vedis-go/internal/core/domain"
)

// Format represents the output format.
type Format string

const (
	FormatRaw  Format = "raw"
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// Formatter formats data for output.
type Formatter interface {
	Format(w io.Writer, data any) error
}

// ParseFormat validates a format name. Empty means raw.
func ParseFormat(s string) (Format, error) {
	switch Format(s) {
	case "", FormatRaw:
		return FormatRaw, nil
	case FormatJSON:
		return FormatJSON, nil
	case FormatYAML:
		return FormatYAML, nil
	default:
		return "", fmt.Errorf("unknown output format %q (want raw, json or yaml)", s)
	}
}

// NewFormatter creates a formatter for the given format.
func NewFormatter(format Format) Formatter {
	switch format {
	case FormatJSON:
		return &JSONFormatter{}
	case FormatYAML:
		return &YAMLFormatter{}
	default:
		return &RawFormatter{}
	}
}

// ReplyError is how an error reply is rendered in structured output.
type ReplyError struct {
	Error string `json:"error" yaml:"error"`
}

// Value converts a reply into plain data for structured encoders.
func Value(r domain.Reply) any {
	switch r.Kind {
	case domain.KindSimple:
		return r.Str
	case domain.KindError:
		return ReplyError{Error: r.Str}
	case domain.KindInteger:
		return r.Int
	case domain.KindBulk:
		if r.Null {
			return nil
		}
		return r.Str
	case domain.KindArray:
		if r.Null {
			return nil
		}
		out := make([]any, len(r.Elems))
		for i, e := range r.Elems {
			out[i] = Value(e)
		}
		return out
	default:
		return nil
	}
}

// plain unwraps replies so encoders see plain data.
func plain(data any) any {
	if r, ok := data.(domain.Reply); ok {
		return Value(r)
	}
	return data
}
