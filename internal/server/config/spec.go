package config

import "time"

// ServerConfig is the root configuration for vedis-server.
type ServerConfig struct {
	Server  ServerSection  `koanf:"server"`
	Storage StorageSection `koanf:"storage"`
	Log     LogSection     `koanf:"log"`
}

// ServerSection configures server endpoints.
type ServerSection struct {
	Redis   RedisConfig   `koanf:"redis"`
	Metrics MetricsConfig `koanf:"metrics"`

	// ShutdownTimeout bounds graceful shutdown once it begins.
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`
}

// RedisConfig configures the Redis protocol server.
type RedisConfig struct {
	Addr string `koanf:"addr"`

	// ReadTimeout bounds reading one command after its first byte arrived.
	ReadTimeout time.Duration `koanf:"read_timeout"`
	// WriteTimeout bounds writing one reply.
	WriteTimeout time.Duration `koanf:"write_timeout"`
	// IdleTimeout closes connections idle between commands. 0 = never.
	IdleTimeout time.Duration `koanf:"idle_timeout"`

	// RateLimit is commands per second per connection. 0 = unlimited.
	RateLimit int `koanf:"rate_limit"`
	// MaxClients caps concurrent connections. 0 = unlimited.
	MaxClients int `koanf:"max_clients"`

	// UnixSocket, when set, also serves the protocol on this socket path.
	UnixSocket string `koanf:"unix_socket"`
	// UnixSocketPerm is the octal mode of the socket file (default 0700).
	UnixSocketPerm string `koanf:"unix_socket_perm"`

	TLS TLSConfig `koanf:"tls"`
}

// TLSConfig enables TLS on the Redis listener when CertFile is set.
type TLSConfig struct {
	CertFile string `koanf:"cert_file"`
	KeyFile  string `koanf:"key_file"`
	// ClientCAFile, when set, requires client certificates signed by it.
	ClientCAFile string `koanf:"client_ca_file"`
}

// Enabled reports whether TLS is configured.
func (c TLSConfig) Enabled() bool {
	return c.CertFile != ""
}

// MetricsConfig configures the Prometheus endpoint.
type MetricsConfig struct {
	// Addr is the HTTP listen address for /metrics. Empty disables it.
	Addr string `koanf:"addr"`
}

// StorageSection configures the in-memory store.
type StorageSection struct {
	// Shards is the number of map shards; must be a power of two.
	Shards int `koanf:"shards"`
}

// LogSection configures logging.
type LogSection struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
}
