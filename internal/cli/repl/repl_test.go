package repl

import (
	"bytes"
	"context"
	"errors"
	"reflect"
	"strings"
	"testing"

	"github.com/yndnr/vedis-go/internal/cli/output"
	"github.com/yndnr/vedis-go/internal/core/domain"
)

// fakeDoer records requests and answers from a fixed table.
type fakeDoer struct {
	calls   [][]string
	replies map[string]domain.Reply
	err     error
}

func (f *fakeDoer) Do(_ context.Context, args ...string) (domain.Reply, error) {
	f.calls = append(f.calls, args)
	if f.err != nil {
		return domain.Reply{}, f.err
	}
	if r, ok := f.replies[args[0]]; ok {
		return r, nil
	}
	return domain.Simple("OK"), nil
}

func newTestREPL(input string, doer Doer) (*REPL, *bytes.Buffer) {
	out := &bytes.Buffer{}
	return New(doer, strings.NewReader(input), out, nil, nil), out
}

func TestNew(t *testing.T) {
	r, _ := newTestREPL("", &fakeDoer{})
	if r.completer == nil {
		t.Error("completer should be initialized")
	}
	if r.history == nil {
		t.Error("history should be initialized")
	}
	if _, ok := r.formatter.(*output.RawFormatter); !ok {
		t.Errorf("default formatter = %T, want *output.RawFormatter", r.formatter)
	}
}

func TestREPL_Run_Exit(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"exit command", "exit\n"},
		{"quit command", "quit\n"},
		{"EOF", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doer := &fakeDoer{}
			r, _ := newTestREPL(tt.input, doer)
			if err := r.Run(context.Background()); err != nil {
				t.Errorf("Run() returned error: %v", err)
			}
			if len(doer.calls) != 0 {
				t.Errorf("no request expected, got %v", doer.calls)
			}
		})
	}
}

func TestREPL_Run_Commands(t *testing.T) {
	doer := &fakeDoer{replies: map[string]domain.Reply{
		"GET":    domain.Bulk("v"),
		"DBSIZE": domain.Integer(1),
	}}
	r, out := newTestREPL("\n\nSET k v\nGET k\nDBSIZE\nexit\n", doer)

	if err := r.Run(context.Background()); err != nil {
		t.Fatalf("Run() error: %v", err)
	}

	want := [][]string{{"SET", "k", "v"}, {"GET", "k"}, {"DBSIZE"}}
	if !reflect.DeepEqual(doer.calls, want) {
		t.Errorf("calls = %v, want %v", doer.calls, want)
	}
	for _, s := range []string{"OK\n", "\"v\"\n", "(integer) 1\n", Prompt} {
		if !strings.Contains(out.String(), s) {
			t.Errorf("output %q missing %q", out.String(), s)
		}
	}
	if r.history.Len() != 4 {
		t.Errorf("history len = %d, want 4", r.history.Len())
	}
}

func TestREPL_Run_LastLineWithoutNewline(t *testing.T) {
	doer := &fakeDoer{}
	r, _ := newTestREPL("PING", doer)

	if err := r.Run(context.Background()); err != nil {
		t.Fatalf("Run() error: %v", err)
	}
	if len(doer.calls) != 1 {
		t.Errorf("calls = %v, want one PING", doer.calls)
	}
}

func TestREPL_Run_QuitEndsSession(t *testing.T) {
	for _, cmd := range []string{"QUIT", "SHUTDOWN"} {
		t.Run(cmd, func(t *testing.T) {
			doer := &fakeDoer{}
			r, _ := newTestREPL(cmd+"\nGET k\n", doer)

			if err := r.Run(context.Background()); err != nil {
				t.Fatalf("Run() error: %v", err)
			}
			if len(doer.calls) != 1 {
				t.Errorf("calls = %v, want only %s", doer.calls, cmd)
			}
		})
	}
}

func TestREPL_Run_Help(t *testing.T) {
	doer := &fakeDoer{}
	r, out := newTestREPL("help d\nhelpme\nexit\n", doer)

	if err := r.Run(context.Background()); err != nil {
		t.Fatalf("Run() error: %v", err)
	}
	if !strings.Contains(out.String(), "DBSIZE DEL\n") {
		t.Errorf("output = %q, want command list", out.String())
	}
	if len(doer.calls) != 1 || doer.calls[0][0] != "helpme" {
		t.Errorf("calls = %v, want only helpme sent to the server", doer.calls)
	}
}

func TestREPL_Run_ErrorsKeepGoing(t *testing.T) {
	doer := &fakeDoer{err: errors.New("connection reset")}
	r, out := newTestREPL("GET k\nSET \"a\nexit\n", doer)

	if err := r.Run(context.Background()); err != nil {
		t.Fatalf("Run() error: %v", err)
	}
	if !strings.Contains(out.String(), "Error: connection reset") {
		t.Errorf("output %q missing transport error", out.String())
	}
	if !strings.Contains(out.String(), "Error: unbalanced quotes") {
		t.Errorf("output %q missing parse error", out.String())
	}
	if len(doer.calls) != 1 {
		t.Errorf("calls = %v, want 1", doer.calls)
	}
}

func TestSplitLine(t *testing.T) {
	tests := []struct {
		line    string
		want    []string
		wantErr bool
	}{
		{"", nil, false},
		{"   ", nil, false},
		{"GET k", []string{"GET", "k"}, false},
		{"  SET  k\tv ", []string{"SET", "k", "v"}, false},
		{`SET k "hello world"`, []string{"SET", "k", "hello world"}, false},
		{`SET k 'it''s'`, []string{"SET", "k", "its"}, false},
		{`SET k ""`, []string{"SET", "k", ""}, false},
		{`SET k "a\"b\n"`, []string{"SET", "k", "a\"b\n"}, false},
		{`SET k 'a\n'`, []string{"SET", "k", `a\n`}, false},
		{`SET k "open`, nil, true},
		{`SET k "trailing\`, nil, true},
	}

	for _, tt := range tests {
		t.Run(tt.line, func(t *testing.T) {
			got, err := SplitLine(tt.line)
			if (err != nil) != tt.wantErr {
				t.Fatalf("SplitLine(%q) error = %v, wantErr %v", tt.line, err, tt.wantErr)
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("SplitLine(%q) = %q, want %q", tt.line, got, tt.want)
			}
		})
	}
}
