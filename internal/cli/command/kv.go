package command

import (
	"github.com/urfave/cli/v2"

	"github.com/yndnr/vedis-go/internal/infra/buildinfo"
)

// GetCommand returns the get command.
func GetCommand() *cli.Command {
	return &cli.Command{
		Name:      "get",
		Usage:     "Get the value of a key",
		ArgsUsage: "<key>",
		Action: func(c *cli.Context) error {
			if err := requireArgs(c, 1, 1); err != nil {
				return err
			}
			return send(c, "GET", c.Args().First())
		},
	}
}

// SetCommand returns the set command.
func SetCommand() *cli.Command {
	return &cli.Command{
		Name:      "set",
		Usage:     "Set the value of a key",
		ArgsUsage: "<key> <value>",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "get",
				Usage: "Print the value that was replaced instead of OK",
			},
		},
		Action: func(c *cli.Context) error {
			if err := requireArgs(c, 2, 2); err != nil {
				return err
			}
			args := []string{"SET", c.Args().Get(0), c.Args().Get(1)}
			if c.Bool("get") {
				args = append(args, "GET")
			}
			return send(c, args...)
		},
	}
}

// DelCommand returns the del command.
func DelCommand() *cli.Command {
	return &cli.Command{
		Name:      "del",
		Usage:     "Delete keys and print how many were removed",
		ArgsUsage: "<key> [key ...]",
		Action: func(c *cli.Context) error {
			if err := requireArgs(c, 1, -1); err != nil {
				return err
			}
			return send(c, append([]string{"DEL"}, c.Args().Slice()...)...)
		},
	}
}

// ExistsCommand returns the exists command.
func ExistsCommand() *cli.Command {
	return &cli.Command{
		Name:      "exists",
		Usage:     "Count how many of the given keys exist",
		ArgsUsage: "<key> [key ...]",
		Action: func(c *cli.Context) error {
			if err := requireArgs(c, 1, -1); err != nil {
				return err
			}
			return send(c, append([]string{"EXISTS"}, c.Args().Slice()...)...)
		},
	}
}

// PingCommand returns the ping command.
func PingCommand() *cli.Command {
	return &cli.Command{
		Name:      "ping",
		Usage:     "Check the server is alive",
		ArgsUsage: "[message]",
		Action: func(c *cli.Context) error {
			if err := requireArgs(c, 0, 1); err != nil {
				return err
			}
			return send(c, append([]string{"PING"}, c.Args().Slice()...)...)
		},
	}
}

// DBSizeCommand returns the dbsize command.
func DBSizeCommand() *cli.Command {
	return &cli.Command{
		Name:  "dbsize",
		Usage: "Print the number of keys",
		Action: func(c *cli.Context) error {
			if err := requireArgs(c, 0, 0); err != nil {
				return err
			}
			return send(c, "DBSIZE")
		},
	}
}

// ShutdownCommand returns the shutdown command.
func ShutdownCommand() *cli.Command {
	return &cli.Command{
		Name:  "shutdown",
		Usage: "Ask the server to shut down",
		Action: func(c *cli.Context) error {
			if err := requireArgs(c, 0, 0); err != nil {
				return err
			}
			return send(c, "SHUTDOWN")
		},
	}
}

// RawCommand returns the raw command, which sends its arguments verbatim.
func RawCommand() *cli.Command {
	return &cli.Command{
		Name:            "raw",
		Usage:           "Send an arbitrary command",
		ArgsUsage:       "<command> [arg ...]",
		SkipFlagParsing: true,
		Action: func(c *cli.Context) error {
			if err := requireArgs(c, 1, -1); err != nil {
				return err
			}
			return send(c, c.Args().Slice()...)
		},
	}
}

// VersionCommand returns the version command.
func VersionCommand() *cli.Command {
	return &cli.Command{
		Name:  "version",
		Usage: "Print build information",
		Action: func(c *cli.Context) error {
			return Formatter(c).Format(c.App.Writer, buildinfo.Get())
		},
	}
}
