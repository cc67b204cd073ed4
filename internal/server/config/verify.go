package config

import (
	"errors"
	"fmt"
	"net"
	"strconv"
	"strings"
)

// Verify validates the configuration.
func Verify(cfg *ServerConfig) error {
	if cfg == nil {
		return errors.New("config is nil")
	}
	if err := verifyServer(&cfg.Server); err != nil {
		return err
	}
	if err := verifyStorage(&cfg.Storage); err != nil {
		return err
	}
	return verifyLog(&cfg.Log)
}

func verifyServer(cfg *ServerSection) error {
	if err := verifyAddr("server.redis.addr", cfg.Redis.Addr); err != nil {
		return err
	}
	if cfg.Metrics.Addr != "" {
		if err := verifyAddr("server.metrics.addr", cfg.Metrics.Addr); err != nil {
			return err
		}
		if cfg.Metrics.Addr == cfg.Redis.Addr {
			return errors.New("server.metrics.addr must differ from server.redis.addr")
		}
	}

	if cfg.Redis.ReadTimeout < 0 || cfg.Redis.WriteTimeout < 0 || cfg.Redis.IdleTimeout < 0 {
		return errors.New("server.redis timeouts must not be negative")
	}
	if cfg.Redis.RateLimit < 0 {
		return errors.New("server.redis.rate_limit must not be negative")
	}
	if cfg.Redis.MaxClients < 0 {
		return errors.New("server.redis.max_clients must not be negative")
	}
	if (cfg.Redis.TLS.CertFile == "") != (cfg.Redis.TLS.KeyFile == "") {
		return errors.New("server.redis.tls.cert_file and key_file must be set together")
	}
	if cfg.Redis.TLS.ClientCAFile != "" && !cfg.Redis.TLS.Enabled() {
		return errors.New("server.redis.tls.client_ca_file requires cert_file and key_file")
	}
	if cfg.Redis.UnixSocketPerm != "" {
		if n, err := strconv.ParseUint(cfg.Redis.UnixSocketPerm, 8, 32); err != nil || n > 0o777 {
			return fmt.Errorf("server.redis.unix_socket_perm: invalid octal mode %q", cfg.Redis.UnixSocketPerm)
		}
	}
	if cfg.ShutdownTimeout <= 0 {
		return errors.New("server.shutdown_timeout must be positive")
	}
	return nil
}

func verifyAddr(key, addr string) error {
	if addr == "" {
		return fmt.Errorf("%s is required", key)
	}
	if _, _, err := net.SplitHostPort(addr); err != nil {
		return fmt.Errorf("%s: invalid address %q: %w", key, addr, err)
	}
	return nil
}

func verifyStorage(cfg *StorageSection) error {
	if cfg.Shards <= 0 || cfg.Shards&(cfg.Shards-1) != 0 {
		return fmt.Errorf("storage.shards must be a positive power of two, got %d", cfg.Shards)
	}
	return nil
}

func verifyLog(cfg *LogSection) error {
	switch strings.ToLower(cfg.Level) {
	case "", "debug", "info", "warn", "warning", "error":
	default:
		return fmt.Errorf("log.level: unknown level %q", cfg.Level)
	}
	switch strings.ToLower(cfg.Format) {
	case "", "json", "text":
	default:
		return fmt.Errorf("log.format: unknown format %q", cfg.Format)
	}
	return nil
}
