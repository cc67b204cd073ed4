package redisserver

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/yndnr/vedis-go/internal/core/domain"
)

// Protocol limits to prevent DoS attacks.
const (
	// MaxArrayLen limits the number of elements in a RESP array.
	MaxArrayLen = 64 * 1024

	// MaxBulkLen limits the size of a single bulk string (64MB).
	MaxBulkLen = 64 * 1024 * 1024

	// MaxInlineLen limits simple string, error and inline line length (64KB).
	MaxInlineLen = 64 * 1024

	// MaxDepth limits array nesting.
	MaxDepth = 8
)

var (
	ErrProtocol      = errors.New("resp: protocol error")
	ErrLimitExceeded = errors.New("resp: limit exceeded")
)

// Codec converts between the byte stream and request/reply values.
//
// Decode returns domain.ErrMalformedRequest when it read a complete value
// that is not an array of bulk strings; the stream is still in sync and
// the session may continue. Any other error leaves the stream unusable.
type Codec interface {
	Decode(r *bufio.Reader) (domain.Request, error)
	Encode(w *bufio.Writer, reply domain.Reply) error
}

// RESP2 is the RESP2 Codec.
type RESP2 struct{}

var _ Codec = RESP2{}

// Decode reads one request.
func (RESP2) Decode(r *bufio.Reader) (domain.Request, error) {
	return ReadRequest(r)
}

// Encode writes one reply. It does not flush.
func (RESP2) Encode(w *bufio.Writer, reply domain.Reply) error {
	return WriteReply(w, reply)
}

// ReadRequest reads one RESP value and converts it to a Request.
func ReadRequest(r *bufio.Reader) (domain.Request, error) {
	v, err := ReadValue(r)
	if err != nil {
		return domain.Request{}, err
	}
	if v.Kind != domain.KindArray || v.Null {
		return domain.Request{}, domain.ErrMalformedRequest
	}

	args := make([]domain.Arg, 0, len(v.Elems))
	for _, e := range v.Elems {
		if e.Kind != domain.KindBulk {
			return domain.Request{}, domain.ErrMalformedRequest
		}
		if e.Null {
			args = append(args, domain.Null())
			continue
		}
		args = append(args, domain.String(e.Str))
	}
	return domain.Request{Args: args}, nil
}

// ReadValue reads one RESP2 value of any type.
//
// A line that does not start with a RESP type byte is an inline command;
// it is returned as a simple string so callers see a non-array value.
// Blank inline lines are skipped.
func ReadValue(r *bufio.Reader) (domain.Reply, error) {
	return readValue(r, 0)
}

func readValue(r *bufio.Reader, depth int) (domain.Reply, error) {
	for {
		b, err := r.Peek(1)
		if err != nil {
			return domain.Reply{}, err
		}

		switch b[0] {
		case '+':
			line, err := readLine(r, MaxInlineLen)
			if err != nil {
				return domain.Reply{}, err
			}
			return domain.Simple(line[1:]), nil
		case '-':
			line, err := readLine(r, MaxInlineLen)
			if err != nil {
				return domain.Reply{}, err
			}
			return domain.ErrorReply(line[1:]), nil
		case ':':
			line, err := readLine(r, 64)
			if err != nil {
				return domain.Reply{}, err
			}
			n, err := strconv.ParseInt(line[1:], 10, 64)
			if err != nil {
				return domain.Reply{}, fmt.Errorf("%w: invalid integer", ErrProtocol)
			}
			return domain.Integer(n), nil
		case '$':
			return readBulkString(r)
		case '*':
			return readArray(r, depth)
		default:
			// Inline command (rare, but used by telnet users): "PING\r\n"
			line, err := readLine(r, MaxInlineLen)
			if err != nil {
				return domain.Reply{}, err
			}
			if strings.TrimSpace(line) == "" {
				continue
			}
			return domain.Simple(line), nil
		}
	}
}

func readArray(r *bufio.Reader, depth int) (domain.Reply, error) {
	if depth >= MaxDepth {
		return domain.Reply{}, fmt.Errorf("%w: nesting depth exceeds limit %d", ErrLimitExceeded, MaxDepth)
	}

	// "*<n>\r\n"
	n, err := readLength(r)
	if err != nil {
		return domain.Reply{}, err
	}
	if n == -1 {
		return domain.NullArray(), nil
	}
	if n < 0 {
		return domain.Reply{}, fmt.Errorf("%w: invalid array length", ErrProtocol)
	}
	if n > MaxArrayLen {
		return domain.Reply{}, fmt.Errorf("%w: array length %d exceeds limit %d", ErrLimitExceeded, n, MaxArrayLen)
	}

	elems := make([]domain.Reply, 0, n)
	for i := 0; i < n; i++ {
		v, err := readValue(r, depth+1)
		if err != nil {
			return domain.Reply{}, err
		}
		elems = append(elems, v)
	}
	return domain.Array(elems...), nil
}

func readBulkString(r *bufio.Reader) (domain.Reply, error) {
	// "$<n>\r\n<bytes>\r\n"
	n, err := readLength(r)
	if err != nil {
		return domain.Reply{}, err
	}
	if n == -1 {
		return domain.NullBulk(), nil
	}
	if n < 0 {
		return domain.Reply{}, fmt.Errorf("%w: invalid bulk length", ErrProtocol)
	}
	if n > MaxBulkLen {
		return domain.Reply{}, fmt.Errorf("%w: bulk length %d exceeds limit %d", ErrLimitExceeded, n, MaxBulkLen)
	}

	buf := make([]byte, n+2)
	if _, err := io.ReadFull(r, buf); err != nil {
		return domain.Reply{}, err
	}
	if !bytes.HasSuffix(buf, []byte("\r\n")) {
		return domain.Reply{}, fmt.Errorf("%w: invalid bulk terminator", ErrProtocol)
	}
	return domain.Bulk(string(buf[:n])), nil
}

// readLength reads a "*<n>" or "$<n>" header line and returns n.
func readLength(r *bufio.Reader) (int, error) {
	line, err := readLine(r, 64)
	if err != nil {
		return 0, err
	}
	if len(line) < 2 {
		return 0, fmt.Errorf("%w: missing length", ErrProtocol)
	}
	n, err := strconv.Atoi(line[1:])
	if err != nil {
		return 0, fmt.Errorf("%w: invalid length", ErrProtocol)
	}
	return n, nil
}

func readLine(r *bufio.Reader, maxLen int) (string, error) {
	if maxLen <= 0 {
		return "", fmt.Errorf("%w: invalid maxLen", ErrProtocol)
	}

	var buf []byte
	for {
		frag, err := r.ReadSlice('\n')
		if err == nil {
			buf = append(buf, frag...)
			break
		}
		if errors.Is(err, bufio.ErrBufferFull) {
			buf = append(buf, frag...)
			if len(buf) > maxLen {
				return "", fmt.Errorf("%w: line length exceeds limit %d", ErrLimitExceeded, maxLen)
			}
			continue
		}
		return "", err
	}

	if len(buf) > maxLen {
		return "", fmt.Errorf("%w: line length exceeds limit %d", ErrLimitExceeded, maxLen)
	}
	if len(buf) < 2 || !bytes.HasSuffix(buf, []byte("\r\n")) {
		return "", fmt.Errorf("%w: missing CRLF", ErrProtocol)
	}

	buf = bytes.TrimSuffix(buf, []byte("\r\n"))
	return string(buf), nil
}

// WriteReply writes a reply of any kind. It does not flush.
func WriteReply(w *bufio.Writer, reply domain.Reply) error {
	switch reply.Kind {
	case domain.KindSimple:
		return WriteSimpleString(w, reply.Str)
	case domain.KindError:
		return WriteError(w, reply.Str)
	case domain.KindInteger:
		return WriteInteger(w, reply.Int)
	case domain.KindBulk:
		if reply.Null {
			return WriteNullBulk(w)
		}
		return WriteBulkString(w, reply.Str)
	case domain.KindArray:
		if reply.Null {
			return WriteNullArray(w)
		}
		if err := WriteArrayHeader(w, len(reply.Elems)); err != nil {
			return err
		}
		for _, e := range reply.Elems {
			if err := WriteReply(w, e); err != nil {
				return err
			}
		}
		return nil
	default:
		return fmt.Errorf("%w: unknown reply kind %d", ErrProtocol, reply.Kind)
	}
}

// WriteRequest writes args as an array of bulk strings, the way clients
// send commands. It does not flush.
func WriteRequest(w *bufio.Writer, args []string) error {
	if err := WriteArrayHeader(w, len(args)); err != nil {
		return err
	}
	for _, a := range args {
		if err := WriteBulkString(w, a); err != nil {
			return err
		}
	}
	return nil
}

func WriteSimpleString(w *bufio.Writer, s string) error {
	_, err := w.WriteString("+" + singleLine(s) + "\r\n")
	return err
}

func WriteError(w *bufio.Writer, s string) error {
	_, err := w.WriteString("-" + singleLine(s) + "\r\n")
	return err
}

func WriteInteger(w *bufio.Writer, n int64) error {
	_, err := w.WriteString(":" + strconv.FormatInt(n, 10) + "\r\n")
	return err
}

func WriteNullBulk(w *bufio.Writer) error {
	_, err := w.WriteString("$-1\r\n")
	return err
}

func WriteNullArray(w *bufio.Writer) error {
	_, err := w.WriteString("*-1\r\n")
	return err
}

func WriteBulkString(w *bufio.Writer, s string) error {
	if _, err := w.WriteString("$" + strconv.Itoa(len(s)) + "\r\n"); err != nil {
		return err
	}
	if _, err := w.WriteString(s); err != nil {
		return err
	}
	_, err := w.WriteString("\r\n")
	return err
}

func WriteArrayHeader(w *bufio.Writer, n int) error {
	_, err := w.WriteString("*" + strconv.Itoa(n) + "\r\n")
	return err
}

// singleLine replaces CR and LF, which would break simple string framing.
func singleLine(s string) string {
	if !strings.ContainsAny(s, "\r\n") {
		return s
	}
	return strings.NewReplacer("\r", " ", "\n", " ").Replace(s)
}
