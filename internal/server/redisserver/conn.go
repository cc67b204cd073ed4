package redisserver

import (
	"bufio"
	"net"
	"sync/atomic"
	"time"

	"github.com/oklog/ulid/v2"
	"golang.org/x/time/rate"
)

// Conn represents a single Redis client connection.
type Conn struct {
	id      string
	netConn net.Conn
	br      *bufio.Reader
	bw      *bufio.Writer
	limiter *rate.Limiter
	opened  time.Time

	closed atomic.Bool
}

// newConn wraps c. commandsPerSecond <= 0 disables rate limiting.
func newConn(c net.Conn, commandsPerSecond int) *Conn {
	conn := &Conn{
		id:      ulid.Make().String(),
		netConn: c,
		br:      bufio.NewReader(c),
		bw:      bufio.NewWriter(c),
		opened:  time.Now(),
	}
	if commandsPerSecond > 0 {
		conn.limiter = rate.NewLimiter(rate.Limit(commandsPerSecond), commandsPerSecond)
	}
	return conn
}

// ID returns the connection id, a ULID assigned at accept time.
func (c *Conn) ID() string {
	return c.id
}

// Close closes the underlying connection. It is safe to call more than once.
func (c *Conn) Close() error {
	if !c.closed.CompareAndSwap(false, true) {
		return nil
	}
	return c.netConn.Close()
}

// Closed reports whether Close has been called.
func (c *Conn) Closed() bool {
	return c.closed.Load()
}

func (c *Conn) RemoteAddr() net.Addr {
	return c.netConn.RemoteAddr()
}

// allow reports whether the next command fits the rate limit.
func (c *Conn) allow() bool {
	return c.limiter == nil || c.limiter.Allow()
}
