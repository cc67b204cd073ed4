package config

import "time"

// CLIConfig is the configuration for vedis-cli.
type CLIConfig struct {
	Server  string        `yaml:"server"`
	Output  string        `yaml:"output"` // raw, json, yaml
	Timeout time.Duration `yaml:"timeout"`
	History string        `yaml:"history,omitempty"`
	TLS     TLSConfig     `yaml:"tls,omitempty"`
}

// TLSConfig configures TLS to the server. TLS is used when Enabled is
// true or any file is set.
type TLSConfig struct {
	Enabled  bool   `yaml:"enabled,omitempty"`
	CAFile   string `yaml:"ca_file,omitempty"`
	CertFile string `yaml:"cert_file,omitempty"`
	KeyFile  string `yaml:"key_file,omitempty"`
	Insecure bool   `yaml:"insecure,omitempty"`
}

// Active reports whether the client should speak TLS.
func (c TLSConfig) Active() bool {
	return c.Enabled || c.CAFile != "" || c.CertFile != "" || c.Insecure
}

// Default returns the default CLI configuration.
func Default() *CLIConfig {
	return &CLIConfig{
		Server:  "localhost:6379",
		Output:  "raw",
		Timeout: 10 * time.Second,
	}
}
