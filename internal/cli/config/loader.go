package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"go.yaml.in/yaml/v3"
)

// Environment variables read by Merge.
const (
	EnvServer  = "VEDIS_SERVER"
	EnvOutput  = "VEDIS_OUTPUT"
	EnvTimeout = "VEDIS_TIMEOUT"
)

// Dir returns the per-user vedis directory.
func Dir() string {
	homeDir, _ := os.UserHomeDir()
	return filepath.Join(homeDir, ".vedis")
}

// DefaultConfigPath returns the default CLI config file path.
func DefaultConfigPath() string {
	return filepath.Join(Dir(), "cli.yaml")
}

// DefaultHistoryPath returns the default REPL history file path.
func DefaultHistoryPath() string {
	return filepath.Join(Dir(), "history")
}

// Load loads CLI configuration from file. A missing file yields defaults.
func Load(path string) (*CLIConfig, error) {
	if path == "" {
		path = DefaultConfigPath()
	}

	cfg := Default()
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return cfg, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return cfg, nil
}

// Save saves CLI configuration to file with 0600 permissions.
func Save(cfg *CLIConfig, path string) error {
	if path == "" {
		path = DefaultConfigPath()
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return err
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0600)
}

// Merge overlays environment variables and then flags onto cfg.
// Empty values are ignored. Flag keys are "server", "output", "timeout",
// and for TLS "tls", "insecure" ("true" to set), "cacert", "cert", "key".
func Merge(cfg *CLIConfig, env map[string]string, flags map[string]string) (*CLIConfig, error) {
	out := *cfg
	apply := func(server, output, timeout string) error {
		if server != "" {
			out.Server = server
		}
		if output != "" {
			out.Output = output
		}
		if timeout != "" {
			d, err := time.ParseDuration(timeout)
			if err != nil {
				return fmt.Errorf("invalid timeout %q: %w", timeout, err)
			}
			out.Timeout = d
		}
		return nil
	}

	if err := apply(env[EnvServer], env[EnvOutput], env[EnvTimeout]); err != nil {
		return nil, err
	}
	if err := apply(flags["server"], flags["output"], flags["timeout"]); err != nil {
		return nil, err
	}

	if flags["tls"] == "true" {
		out.TLS.Enabled = true
	}
	if flags["insecure"] == "true" {
		out.TLS.Insecure = true
	}
	if v := flags["cacert"]; v != "" {
		out.TLS.CAFile = v
	}
	if v := flags["cert"]; v != "" {
		out.TLS.CertFile = v
	}
	if v := flags["key"]; v != "" {
		out.TLS.KeyFile = v
	}
	return &out, nil
}
