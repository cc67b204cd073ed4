package redisserver

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"github.com/yndnr/vedis-go/internal/core/domain"
	"github.com/yndnr/vedis-go/internal/core/service"
	"github.com/yndnr/vedis-go/pkg/cmap"
)

// Config holds the Redis server configuration.
type Config struct {
	// Address is the TCP listen address (default: ":6379").
	Address string
	// ReadTimeout bounds reading the rest of a command once its first
	// byte has arrived (default: 30s). Helps prevent slowloris attacks.
	ReadTimeout time.Duration
	// WriteTimeout bounds writing a reply (default: 30s).
	WriteTimeout time.Duration
	// IdleTimeout closes connections idle between commands.
	// Zero keeps idle connections open forever.
	IdleTimeout time.Duration
	// RateLimit is the maximum number of commands per second per connection.
	// Set to 0 to disable rate limiting.
	RateLimit int
	// MaxClients caps concurrent connections. Set to 0 for no limit.
	MaxClients int
	// Codec is the wire codec (default: RESP2).
	Codec Codec
	// TLS, when set, serves the protocol over TLS.
	TLS *tls.Config
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Address:      ":6379",
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		Codec:        RESP2{},
	}
}

// Dispatcher executes decoded requests. *service.Dispatcher satisfies it.
type Dispatcher interface {
	Dispatch(req domain.Request) (service.Outcome, error)
}

// ConnObserver is notified about connection lifecycle events (metrics).
type ConnObserver interface {
	ConnOpened()
	ConnClosed()
	ConnRejected()
}

// Server represents the Redis protocol server.
type Server struct {
	cfg        *Config
	dispatcher Dispatcher
	logger     *slog.Logger
	observer   ConnObserver
	stop       <-chan struct{}

	ln      net.Listener
	running atomic.Bool
	conns   *cmap.Map[*Conn]
	wg      sync.WaitGroup
}

// Option configures a Server.
type Option func(*Server)

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Server) {
		s.logger = l
	}
}

// WithConnObserver sets the connection observer.
func WithConnObserver(o ConnObserver) Option {
	return func(s *Server) {
		s.observer = o
	}
}

// WithStopSignal makes the server stop servicing requests, on every
// connection, once ch is closed. Requests already dispatched complete.
func WithStopSignal(ch <-chan struct{}) Option {
	return func(s *Server) {
		s.stop = ch
	}
}

// New creates a new Redis protocol server.
func New(cfg *Config, dispatcher Dispatcher, opts ...Option) *Server {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if cfg.Codec == nil {
		cfg.Codec = RESP2{}
	}

	s := &Server{
		cfg:        cfg,
		dispatcher: dispatcher,
		logger:     slog.Default(),
		conns:      cmap.New[*Conn](),
	}
	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Start binds the listener and accepts connections in the background.
// Listen errors are returned synchronously.
func (s *Server) Start(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.cfg.Address)
	if err != nil {
		return fmt.Errorf("listen %s: %w", s.cfg.Address, err)
	}
	if s.cfg.TLS != nil {
		ln = tls.NewListener(ln, s.cfg.TLS)
	}
	s.Serve(ctx, ln)
	return nil
}

// Serve accepts connections from ln in the background. The server takes
// ownership of ln.
func (s *Server) Serve(ctx context.Context, ln net.Listener) {
	s.ln = ln
	s.running.Store(true)
	s.logger.Info("redis server listening", "address", ln.Addr().String(), "tls", s.cfg.TLS != nil)

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		if err := s.acceptLoop(ctx, ln); err != nil && s.running.Load() {
			s.logger.Error("redis server error", "error", err)
		}
	}()
}

// Addr returns the listener address, or nil before Start.
func (s *Server) Addr() net.Addr {
	if s.ln == nil {
		return nil
	}
	return s.ln.Addr()
}

// ActiveConnections returns the number of open client connections.
func (s *Server) ActiveConnections() int {
	return s.conns.Count()
}

// Shutdown stops accepting, closes every open connection and waits for
// the session goroutines to exit.
func (s *Server) Shutdown(ctx context.Context) error {
	s.running.Store(false)

	var firstErr error

	// Close listener to break the accept loop.
	if s.ln != nil {
		if err := s.ln.Close(); err != nil && !errors.Is(err, net.ErrClosed) {
			firstErr = err
		}
	}

	// Close open sessions; their goroutines unblock on the read error.
	s.conns.Range(func(_ string, c *Conn) bool {
		_ = c.Close()
		return true
	})

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-ctx.Done():
		return ctx.Err()
	}

	return firstErr
}

func (s *Server) stopped() bool {
	if s.stop == nil {
		return false
	}
	select {
	case <-s.stop:
		return true
	default:
		return false
	}
}

func (s *Server) acceptLoop(ctx context.Context, ln net.Listener) error {
	for {
		c, err := ln.Accept()
		if err != nil {
			if !s.running.Load() {
				return nil
			}
			if errors.Is(err, net.ErrClosed) {
				return nil
			}
			select {
			case <-ctx.Done():
				return nil
			default:
			}
			var netErr net.Error
			if errors.As(err, &netErr) && netErr.Timeout() {
				continue
			}
			return err
		}

		if s.stopped() {
			_ = c.Close()
			continue
		}

		conn := newConn(c, s.cfg.RateLimit)
		if s.cfg.MaxClients > 0 && s.conns.Count() >= s.cfg.MaxClients {
			s.reject(conn, "ERR max number of clients reached")
			continue
		}

		s.conns.Set(conn.id, conn)
		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			s.serveConn(conn)
		}()
	}
}

func (s *Server) reject(c *Conn, msg string) {
	s.logger.Warn("rejecting connection", "remote", c.RemoteAddr(), "reason", msg)
	if s.observer != nil {
		s.observer.ConnRejected()
	}
	_ = c.netConn.SetWriteDeadline(time.Now().Add(s.writeTimeout()))
	_ = WriteError(c.bw, msg)
	_ = c.bw.Flush()
	_ = c.Close()
}

func (s *Server) readTimeout() time.Duration {
	if s.cfg.ReadTimeout == 0 {
		return 30 * time.Second
	}
	return s.cfg.ReadTimeout
}

func (s *Server) writeTimeout() time.Duration {
	if s.cfg.WriteTimeout == 0 {
		return 30 * time.Second
	}
	return s.cfg.WriteTimeout
}

func (s *Server) serveConn(c *Conn) {
	log := s.logger.With("conn", c.id, "remote", c.RemoteAddr())
	if s.observer != nil {
		s.observer.ConnOpened()
	}
	log.Debug("connection opened")

	defer func() {
		s.conns.Delete(c.id)
		_ = c.Close()
		if s.observer != nil {
			s.observer.ConnClosed()
		}
		log.Debug("connection closed", "duration", time.Since(c.opened))
	}()

	// Unexpected faults close this connection only.
	defer func() {
		if r := recover(); r != nil {
			log.Error("unexpected fault handling connection", "panic", r)
		}
	}()

	for {
		if err := s.serveOne(c, log); err != nil {
			if !errors.Is(err, errSessionDone) {
				log.Debug("closing connection", "error", err)
			}
			return
		}
	}
}

// errSessionDone ends a session without further logging.
var errSessionDone = errors.New("session done")

// serveOne reads, dispatches and answers one request. A non-nil error
// ends the session.
func (s *Server) serveOne(c *Conn, log *slog.Logger) error {
	// First byte: allow idle timeout (connection can stay idle between commands).
	var idleDeadline time.Time
	if s.cfg.IdleTimeout > 0 {
		idleDeadline = time.Now().Add(s.cfg.IdleTimeout)
	}
	if err := c.netConn.SetReadDeadline(idleDeadline); err != nil {
		return errSessionDone
	}
	if _, err := c.br.Peek(1); err != nil {
		if isQuietClose(err) || c.Closed() {
			return errSessionDone
		}
		return err
	}

	// After first byte: tighten to per-command read timeout (slowloris protection).
	if err := c.netConn.SetReadDeadline(time.Now().Add(s.readTimeout())); err != nil {
		return errSessionDone
	}

	req, err := s.cfg.Codec.Decode(c.br)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrMalformedRequest):
			return s.write(c, domain.ErrMalformedRequest.Reply())
		case isQuietClose(err):
			return errSessionDone
		case errors.Is(err, ErrLimitExceeded):
			log.Warn("protocol limit exceeded", "error", err)
			_ = s.write(c, domain.ErrorReply("ERR protocol limit exceeded"))
			return errSessionDone
		case errors.Is(err, ErrProtocol):
			log.Debug("protocol error", "error", err)
			_ = s.write(c, domain.ErrorReply("ERR protocol error"))
			return errSessionDone
		default:
			return err
		}
	}

	if s.stopped() {
		return errSessionDone
	}

	if !c.allow() {
		return s.write(c, domain.ErrorReply("ERR rate limit exceeded"))
	}

	log.Debug("request received", "args", req.String())

	out, err := s.dispatcher.Dispatch(req)
	if err != nil {
		log.Error("internal fault handling request", "command", req.Name(), "error", err)
		return errSessionDone
	}

	// A dispatched command completes even when its reply cannot be
	// delivered: the connection is closed and AfterReply still runs.
	werr := s.write(c, out.Reply)
	if out.Close || werr != nil {
		_ = c.Close()
	}
	if out.AfterReply != nil {
		out.AfterReply()
	}
	if werr != nil {
		return werr
	}
	if out.Close {
		return errSessionDone
	}
	return nil
}

// write encodes reply and flushes it to the socket.
func (s *Server) write(c *Conn, reply domain.Reply) error {
	if err := c.netConn.SetWriteDeadline(time.Now().Add(s.writeTimeout())); err != nil {
		return err
	}
	if err := s.cfg.Codec.Encode(c.bw, reply); err != nil {
		return err
	}
	return c.bw.Flush()
}

// isQuietClose reports errors that end a session without being a fault:
// EOF, a closed socket, or a read timeout.
func isQuietClose(err error) bool {
	if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) || errors.Is(err, net.ErrClosed) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}
