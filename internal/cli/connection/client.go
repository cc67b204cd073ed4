package connection

import (
	"bufio"
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"net"
	"strings"
	"sync"
	"time"

	"github.com/yndnr/vedis-go/internal/core/domain"
	"github.com/yndnr/vedis-go/internal/server/redisserver"
)

// DefaultTimeout bounds dialing and each round trip.
const DefaultTimeout = 10 * time.Second

// ErrClosed is returned by Do after Close.
var ErrClosed = errors.New("connection: client is closed")

// Client is a RESP client for a single server connection. It is safe for
// concurrent use; requests are serialized.
type Client struct {
	addr      string
	timeout   time.Duration
	tlsConfig *tls.Config

	mu     sync.Mutex
	conn   net.Conn
	br     *bufio.Reader
	bw     *bufio.Writer
	closed bool
}

// Option configures a Client.
type Option func(*Client)

// WithTimeout sets the dial and per-request timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.timeout = d
		}
	}
}

// WithTLS makes the client speak TLS using cfg.
func WithTLS(cfg *tls.Config) Option {
	return func(c *Client) {
		c.tlsConfig = cfg
	}
}

// Dial connects to the server at addr, a TCP host:port or a Unix socket
// given as "unix:/path" or an absolute path.
func Dial(ctx context.Context, addr string, opts ...Option) (*Client, error) {
	c := &Client{
		addr:    addr,
		timeout: DefaultTimeout,
	}
	for _, opt := range opts {
		opt(c)
	}

	d := &net.Dialer{Timeout: c.timeout}
	var (
		conn net.Conn
		err  error
	)
	network, address := splitAddr(addr)
	if c.tlsConfig != nil {
		td := &tls.Dialer{NetDialer: d, Config: c.tlsConfig}
		conn, err = td.DialContext(ctx, network, address)
	} else {
		conn, err = d.DialContext(ctx, network, address)
	}
	if err != nil {
		return nil, fmt.Errorf("connect %s: %w", addr, err)
	}

	c.conn = conn
	c.br = bufio.NewReader(conn)
	c.bw = bufio.NewWriter(conn)
	return c, nil
}

// splitAddr maps "unix:/path" and absolute paths to a Unix socket and
// anything else to TCP host:port.
func splitAddr(addr string) (network, address string) {
	switch {
	case strings.HasPrefix(addr, "unix:"):
		return "unix", strings.TrimPrefix(addr, "unix:")
	case strings.HasPrefix(addr, "/"):
		return "unix", addr
	default:
		return "tcp", addr
	}
}

// Addr returns the server address.
func (c *Client) Addr() string {
	return c.addr
}

// Do sends one request and waits for its reply.
func (c *Client) Do(ctx context.Context, args ...string) (domain.Reply, error) {
	if len(args) == 0 {
		return domain.Reply{}, errors.New("connection: empty command")
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return domain.Reply{}, ErrClosed
	}

	deadline := time.Now().Add(c.timeout)
	if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
		deadline = d
	}
	if err := c.conn.SetDeadline(deadline); err != nil {
		return domain.Reply{}, err
	}

	if err := redisserver.WriteRequest(c.bw, args); err != nil {
		return domain.Reply{}, fmt.Errorf("send %s: %w", args[0], err)
	}
	if err := c.bw.Flush(); err != nil {
		return domain.Reply{}, fmt.Errorf("send %s: %w", args[0], err)
	}

	reply, err := redisserver.ReadValue(c.br)
	if err != nil {
		return domain.Reply{}, fmt.Errorf("read reply: %w", err)
	}
	return reply, nil
}

// Close closes the connection.
func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return nil
	}
	c.closed = true
	return c.conn.Close()
}
