package localserver

import (
	"errors"
	"fmt"
	"net"
	"os"
	"strconv"
	"time"
)

// DefaultPerm restricts the socket to its owner.
const DefaultPerm os.FileMode = 0o700

// ErrInUse is returned when another process is serving the socket path.
var ErrInUse = errors.New("localserver: socket is in use")

// Listen listens on the Unix socket at path with the given permissions.
// The socket file is removed when the listener is closed.
func Listen(path string, perm os.FileMode) (net.Listener, error) {
	if err := removeStale(path); err != nil {
		return nil, err
	}

	ln, err := net.Listen("unix", path)
	if err != nil {
		return nil, fmt.Errorf("localserver: listen %s: %w", path, err)
	}
	if err := os.Chmod(path, perm); err != nil {
		ln.Close()
		return nil, fmt.Errorf("localserver: chmod %s: %w", path, err)
	}
	return ln, nil
}

// removeStale deletes a leftover socket at path that nobody listens on.
func removeStale(path string) error {
	info, err := os.Lstat(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("localserver: %w", err)
	}
	if info.Mode()&os.ModeSocket == 0 {
		return fmt.Errorf("localserver: %s exists and is not a socket", path)
	}

	conn, err := net.DialTimeout("unix", path, time.Second)
	if err == nil {
		conn.Close()
		return fmt.Errorf("%w: %s", ErrInUse, path)
	}
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("localserver: remove stale socket: %w", err)
	}
	return nil
}

// ParsePerm parses an octal permission string such as "0700" or "770".
// An empty string yields DefaultPerm.
func ParsePerm(s string) (os.FileMode, error) {
	if s == "" {
		return DefaultPerm, nil
	}
	n, err := strconv.ParseUint(s, 8, 32)
	if err != nil || n > 0o777 {
		return 0, fmt.Errorf("localserver: invalid permission %q", s)
	}
	return os.FileMode(n), nil
}
