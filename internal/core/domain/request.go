package domain

import "strings"

// Arg is one request argument: a string or an explicit null marker.
// The zero value is null.
type Arg struct {
	Value string
	Valid bool
}

// String returns a non-null argument.
func String(s string) Arg {
	return Arg{Value: s, Valid: true}
}

// Null returns a null argument.
func Null() Arg {
	return Arg{}
}

// IsNull reports whether the argument is the null marker.
func (a Arg) IsNull() bool {
	return !a.Valid
}

// Request is a decoded client request. Args[0] is the command name.
type Request struct {
	Args []Arg
}

// NewRequest builds a request from plain strings; handy for tests and clients.
func NewRequest(args ...string) Request {
	out := make([]Arg, len(args))
	for i, a := range args {
		out[i] = String(a)
	}
	return Request{Args: out}
}

// Name returns the command name, or "" when the request has no usable name.
func (r Request) Name() string {
	if len(r.Args) == 0 || r.Args[0].IsNull() {
		return ""
	}
	return r.Args[0].Value
}

// Len returns the number of arguments including the command name.
func (r Request) Len() int {
	return len(r.Args)
}

// Validate checks the shape every request must have before command lookup:
// at least one argument and a non-null command name.
func (r Request) Validate() error {
	if len(r.Args) == 0 || r.Args[0].IsNull() {
		return ErrMalformedRequest
	}
	return nil
}

// String renders the request for log lines, e.g. [SET k <nil>].
func (r Request) String() string {
	var b strings.Builder
	b.WriteByte('[')
	for i, a := range r.Args {
		if i > 0 {
			b.WriteByte(' ')
		}
		if a.IsNull() {
			b.WriteString("<nil>")
			continue
		}
		b.WriteString(a.Value)
	}
	b.WriteByte(']')
	return b.String()
}
