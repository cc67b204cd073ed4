package service

import (
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/yndnr/vedis-go/internal/core/domain"
	"github.com/yndnr/vedis-go/internal/storage"
)

// Outcome is the result of dispatching one request.
type Outcome struct {
	// Reply is sent to the client.
	Reply domain.Reply

	// Close asks the session to close the connection once Reply is flushed.
	Close bool

	// AfterReply, when set, runs after Reply has been flushed and, if Close
	// is set, after the connection has been closed.
	AfterReply func()
}

// Trigger is fired by SHUTDOWN. shutdown.Latch satisfies it.
type Trigger interface {
	Fire() bool
}

// Observer receives one call per dispatched request.
// result is "ok", "error" (error reply), or "internal".
type Observer interface {
	ObserveCommand(command, result string, elapsed time.Duration)
}

// Command result labels passed to Observer.
const (
	ResultOK       = "ok"
	ResultError    = "error"
	ResultInternal = "internal"
)

// unknownCommand is the observer label for names missing from the table.
const unknownCommand = "unknown"

type commandFunc func(args []domain.Arg) (Outcome, error)

// Dispatcher routes requests to command handlers.
type Dispatcher struct {
	store    storage.Store
	trigger  Trigger
	observer Observer
	logger   *slog.Logger
	commands map[string]commandFunc
}

// Option configures a Dispatcher.
type Option func(*Dispatcher)

// WithTrigger sets the signal fired by SHUTDOWN.
func WithTrigger(t Trigger) Option {
	return func(d *Dispatcher) {
		d.trigger = t
	}
}

// WithObserver sets the per-command observer (metrics).
func WithObserver(o Observer) Option {
	return func(d *Dispatcher) {
		d.observer = o
	}
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(d *Dispatcher) {
		d.logger = l
	}
}

// NewDispatcher creates a Dispatcher over store.
func NewDispatcher(store storage.Store, opts ...Option) *Dispatcher {
	d := &Dispatcher{
		store:  store,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(d)
	}

	d.commands = map[string]commandFunc{
		"COMMAND":  d.handleCommand,
		"GET":      d.handleGet,
		"SET":      d.handleSet,
		"DEL":      d.handleDel,
		"SHUTDOWN": d.handleShutdown,
		"PING":     d.handlePing,
		"QUIT":     d.handleQuit,
		"EXISTS":   d.handleExists,
		"DBSIZE":   d.handleDBSize,
	}

	return d
}

// Commands returns the supported command names, sorted.
func (d *Dispatcher) Commands() []string {
	names := make([]string, 0, len(d.commands))
	for name := range d.commands {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Dispatch handles one request and returns its outcome.
//
// A non-nil error is always an internal fault (domain.KindInternal); the
// Outcome is then empty and the caller should close the connection.
func (d *Dispatcher) Dispatch(req domain.Request) (out Outcome, err error) {
	start := time.Now()
	label := unknownCommand

	defer func() {
		if r := recover(); r != nil {
			out = Outcome{}
			err = domain.Internal(fmt.Errorf("panic in %s: %v", label, r))
		}
		d.observe(label, out, err, start)
	}()

	if err := req.Validate(); err != nil {
		return replyError(err)
	}

	name := req.Name()
	fn, ok := d.commands[name]
	if !ok {
		return replyError(domain.ErrUnsupportedCommand)
	}
	label = name

	out, err = fn(req.Args[1:])
	if err != nil {
		return replyError(err)
	}
	return out, nil
}

// replyError turns a user-facing error into an error reply and lets
// internal faults through.
func replyError(err error) (Outcome, error) {
	var de *domain.Error
	if errors.As(err, &de) && de.Kind != domain.KindInternal {
		return Outcome{Reply: de.Reply()}, nil
	}
	if de == nil {
		err = domain.Internal(err)
	}
	return Outcome{}, err
}

func (d *Dispatcher) observe(command string, out Outcome, err error, start time.Time) {
	if d.observer == nil {
		return
	}
	result := ResultOK
	switch {
	case err != nil:
		result = ResultInternal
	case out.Reply.IsError():
		result = ResultError
	}
	d.observer.ObserveCommand(command, result, time.Since(start))
}

func reply(r domain.Reply) (Outcome, error) {
	return Outcome{Reply: r}, nil
}
