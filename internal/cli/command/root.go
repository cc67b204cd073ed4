package command

import (
	"fmt"
	"os"

	"github.com/urfave/cli/v2"

	"github.com/yndnr/vedis-go/internal/cli/config"
	"github.com/yndnr/vedis-go/internal/cli/connection"
	"github.com/yndnr/vedis-go/internal/cli/output"
	"github.com/yndnr/vedis-go/internal/core/domain"
	"github.com/yndnr/vedis-go/internal/infra/buildinfo"
	"github.com/yndnr/vedis-go/internal/infra/tlsroots"
)

const metadataConfig = "config"

// App creates the CLI application.
func App() *cli.App {
	return &cli.App{
		Name:    "vedis-cli",
		Usage:   "vedis command-line client",
		Version: buildinfo.String(),
		Flags:   globalFlags(),
		Commands: []*cli.Command{
			GetCommand(),
			SetCommand(),
			DelCommand(),
			ExistsCommand(),
			PingCommand(),
			DBSizeCommand(),
			ShutdownCommand(),
			RawCommand(),
			REPLCommand(),
			VersionCommand(),
		},
		Before:   resolveConfig,
		Action:   runREPL,
		Metadata: map[string]any{},
	}
}

// globalFlags returns the global CLI flags. Environment variables are
// applied by config.Merge so that flags always win.
func globalFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:  "config",
			Usage: "CLI config file (default ~/.vedis/cli.yaml)",
		},
		&cli.StringFlag{
			Name:    "server",
			Aliases: []string{"s"},
			Usage:   "vedis server address, env " + config.EnvServer + " (default localhost:6379)",
		},
		&cli.StringFlag{
			Name:    "output",
			Aliases: []string{"o"},
			Usage:   "Output format: raw, json, yaml, env " + config.EnvOutput,
		},
		&cli.DurationFlag{
			Name:    "timeout",
			Aliases: []string{"t"},
			Usage:   "Dial and request timeout, env " + config.EnvTimeout,
		},
		&cli.BoolFlag{
			Name:  "tls",
			Usage: "Connect using TLS",
		},
		&cli.StringFlag{
			Name:  "cacert",
			Usage: "CA certificate file to verify the server",
		},
		&cli.StringFlag{
			Name:  "cert",
			Usage: "Client certificate file",
		},
		&cli.StringFlag{
			Name:  "key",
			Usage: "Client private key file",
		},
		&cli.BoolFlag{
			Name:  "insecure",
			Usage: "Skip server certificate verification",
		},
	}
}

// resolveConfig layers file, environment and flags and stores the
// result in the app metadata.
func resolveConfig(c *cli.Context) error {
	cfg, err := config.Load(c.String("config"))
	if err != nil {
		return err
	}

	env := make(map[string]string)
	for _, name := range []string{config.EnvServer, config.EnvOutput, config.EnvTimeout} {
		if v, ok := os.LookupEnv(name); ok {
			env[name] = v
		}
	}
	flags := make(map[string]string)
	for _, name := range []string{"server", "output", "cacert", "cert", "key"} {
		if c.IsSet(name) {
			flags[name] = c.String(name)
		}
	}
	for _, name := range []string{"tls", "insecure"} {
		if c.Bool(name) {
			flags[name] = "true"
		}
	}
	if c.IsSet("timeout") {
		flags["timeout"] = c.Duration("timeout").String()
	}

	cfg, err = config.Merge(cfg, env, flags)
	if err != nil {
		return err
	}
	if _, err := output.ParseFormat(cfg.Output); err != nil {
		return err
	}

	if c.App.Metadata == nil {
		c.App.Metadata = map[string]any{}
	}
	c.App.Metadata[metadataConfig] = cfg
	return nil
}

// GetConfig retrieves the resolved configuration from context.
func GetConfig(c *cli.Context) *config.CLIConfig {
	if cfg, ok := c.App.Metadata[metadataConfig].(*config.CLIConfig); ok {
		return cfg
	}
	return config.Default()
}

// Formatter returns the formatter selected for this invocation.
func Formatter(c *cli.Context) output.Formatter {
	format, _ := output.ParseFormat(GetConfig(c).Output)
	return output.NewFormatter(format)
}

// dial connects to the configured server.
func dial(c *cli.Context) (*connection.Client, error) {
	cfg := GetConfig(c)
	opts := []connection.Option{connection.WithTimeout(cfg.Timeout)}

	if cfg.TLS.Active() {
		tlsConfig, err := tlsroots.ClientConfig(tlsroots.ClientOptions{
			CAFile:             cfg.TLS.CAFile,
			CertFile:           cfg.TLS.CertFile,
			KeyFile:            cfg.TLS.KeyFile,
			InsecureSkipVerify: cfg.TLS.Insecure,
		})
		if err != nil {
			return nil, err
		}
		opts = append(opts, connection.WithTLS(tlsConfig))
	}
	return connection.Dial(c.Context, cfg.Server, opts...)
}

// send dials, sends one request and prints the reply. Error replies are
// printed like any other reply, as redis-cli does.
func send(c *cli.Context, args ...string) error {
	client, err := dial(c)
	if err != nil {
		return err
	}
	defer client.Close()

	reply, err := client.Do(c.Context, args...)
	if err != nil {
		return err
	}
	return printReply(c, reply)
}

func printReply(c *cli.Context, reply domain.Reply) error {
	return Formatter(c).Format(c.App.Writer, reply)
}

// requireArgs returns a usage error unless c has between lo and hi
// positional arguments. hi < 0 means unbounded.
func requireArgs(c *cli.Context, lo, hi int) error {
	n := c.NArg()
	if n < lo || (hi >= 0 && n > hi) {
		return fmt.Errorf("usage: %s %s %s", c.App.Name, c.Command.Name, c.Command.ArgsUsage)
	}
	return nil
}
