package domain

import "strconv"

// Kind identifies the variant held by a Reply.
type Kind uint8

// Reply kinds.
const (
	KindSimple Kind = iota + 1
	KindBulk
	KindInteger
	KindError
	KindArray
)

// String returns the kind name.
func (k Kind) String() string {
	switch k {
	case KindSimple:
		return "simple"
	case KindBulk:
		return "bulk"
	case KindInteger:
		return "integer"
	case KindError:
		return "error"
	case KindArray:
		return "array"
	default:
		return "unknown"
	}
}

// Reply is a typed reply value. Only the fields matching Kind are meaningful:
//
//   - KindSimple, KindError: Str
//   - KindBulk: Str, or Null for the null bulk string
//   - KindInteger: Int
//   - KindArray: Elems, or Null for the null array
type Reply struct {
	Kind  Kind
	Str   string
	Int   int64
	Null  bool
	Elems []Reply
}

// Simple returns a simple string reply.
func Simple(s string) Reply {
	return Reply{Kind: KindSimple, Str: s}
}

// Bulk returns a non-null bulk string reply.
func Bulk(s string) Reply {
	return Reply{Kind: KindBulk, Str: s}
}

// NullBulk returns the null bulk string reply.
func NullBulk() Reply {
	return Reply{Kind: KindBulk, Null: true}
}

// OptionalBulk returns Bulk(s) when ok, NullBulk otherwise.
func OptionalBulk(s string, ok bool) Reply {
	if !ok {
		return NullBulk()
	}
	return Bulk(s)
}

// Integer returns an integer reply.
func Integer(n int64) Reply {
	return Reply{Kind: KindInteger, Int: n}
}

// ErrorReply returns an error reply carrying msg verbatim.
func ErrorReply(msg string) Reply {
	return Reply{Kind: KindError, Str: msg}
}

// Array returns an array reply. Array() is the empty array.
func Array(elems ...Reply) Reply {
	if elems == nil {
		elems = []Reply{}
	}
	return Reply{Kind: KindArray, Elems: elems}
}

// NullArray returns the null array reply.
func NullArray() Reply {
	return Reply{Kind: KindArray, Null: true}
}

// IsError reports whether the reply is an error reply.
func (r Reply) IsError() bool {
	return r.Kind == KindError
}

// String renders the reply the way redis-cli does, for logs and the CLI.
func (r Reply) String() string {
	switch r.Kind {
	case KindSimple:
		return r.Str
	case KindError:
		return "(error) " + r.Str
	case KindInteger:
		return "(integer) " + strconv.FormatInt(r.Int, 10)
	case KindBulk:
		if r.Null {
			return "(nil)"
		}
		return strconv.Quote(r.Str)
	case KindArray:
		if r.Null {
			return "(nil)"
		}
		if len(r.Elems) == 0 {
			return "(empty array)"
		}
		s := ""
		for i, e := range r.Elems {
			if i > 0 {
				s += "\n"
			}
			s += strconv.Itoa(i+1) + ") " + e.String()
		}
		return s
	default:
		return "(unknown)"
	}
}
