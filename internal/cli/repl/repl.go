package repl

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/yndnr/vedis-go/internal/cli/output"
	"github.com/yndnr/vedis-go/internal/core/domain"
)

// Prompt is printed before each line is read.
const Prompt = "vedis> "

// Doer sends one request and returns its reply.
type Doer interface {
	Do(ctx context.Context, args ...string) (domain.Reply, error)
}

// REPL represents the Read-Eval-Print Loop.
type REPL struct {
	input     io.Reader
	output    io.Writer
	client    Doer
	formatter output.Formatter
	completer *Completer
	history   *History
}

// New creates a new REPL instance reading from in and writing to out.
func New(client Doer, in io.Reader, out io.Writer, formatter output.Formatter, history *History) *REPL {
	if formatter == nil {
		formatter = output.NewFormatter(output.FormatRaw)
	}
	if history == nil {
		history = NewHistory("")
	}
	return &REPL{
		input:     in,
		output:    out,
		client:    client,
		formatter: formatter,
		completer: NewCompleter(),
		history:   history,
	}
}

// Run starts the REPL loop. It returns nil on EOF, exit, quit, or once
// the server closes the connection after QUIT or SHUTDOWN. "help [prefix]"
// lists matching commands without contacting the server.
func (r *REPL) Run(ctx context.Context) error {
	reader := bufio.NewReader(r.input)

	for {
		fmt.Fprint(r.output, Prompt)

		line, err := reader.ReadString('\n')
		if err != nil && !errors.Is(err, io.EOF) {
			return err
		}
		eof := errors.Is(err, io.EOF)

		line = strings.TrimSpace(line)
		if line == "" {
			if eof {
				fmt.Fprintln(r.output)
				return nil
			}
			continue
		}

		r.history.Add(line)

		if line == "exit" || line == "quit" {
			return nil
		}
		if prefix, ok := strings.CutPrefix(line, "help"); ok && (prefix == "" || prefix[0] == ' ') {
			fmt.Fprintln(r.output, strings.Join(r.completer.Complete(strings.TrimSpace(prefix)), " "))
			if eof {
				return nil
			}
			continue
		}

		done, err := r.execute(ctx, line)
		if err != nil {
			fmt.Fprintf(r.output, "Error: %v\n", err)
		}
		if done || eof {
			return nil
		}
	}
}

// execute sends one line and prints the reply. done reports that the
// session is over.
func (r *REPL) execute(ctx context.Context, line string) (done bool, err error) {
	args, err := SplitLine(line)
	if err != nil {
		return false, err
	}
	if len(args) == 0 {
		return false, nil
	}

	reply, err := r.client.Do(ctx, args...)
	if err != nil {
		return false, err
	}
	if err := r.formatter.Format(r.output, reply); err != nil {
		return false, err
	}

	switch strings.ToUpper(args[0]) {
	case "QUIT", "SHUTDOWN":
		return !reply.IsError(), nil
	}
	return false, nil
}

// SplitLine splits a line into arguments. Double quotes allow \" \\ \n
// \r \t escapes; single quotes are literal.
func SplitLine(line string) ([]string, error) {
	var (
		args    []string
		cur     strings.Builder
		inArg   bool
		quote   rune
		escaped bool
	)

	for _, ch := range line {
		switch {
		case escaped:
			switch ch {
			case 'n':
				cur.WriteRune('\n')
			case 'r':
				cur.WriteRune('\r')
			case 't':
				cur.WriteRune('\t')
			default:
				cur.WriteRune(ch)
			}
			escaped = false
		case quote == '"' && ch == '\\':
			escaped = true
		case quote != 0 && ch == quote:
			quote = 0
		case quote != 0:
			cur.WriteRune(ch)
		case ch == '"' || ch == '\'':
			quote = ch
			inArg = true
		case ch == ' ' || ch == '\t':
			if inArg {
				args = append(args, cur.String())
				cur.Reset()
				inArg = false
			}
		default:
			cur.WriteRune(ch)
			inArg = true
		}
	}

	if quote != 0 || escaped {
		return nil, errors.New("unbalanced quotes")
	}
	if inArg {
		args = append(args, cur.String())
	}
	return args, nil
}
