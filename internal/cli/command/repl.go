package command

import (
	"fmt"

	"github.com/urfave/cli/v2"

	"github.com/yndnr/vedis-go/internal/cli/config"
	"github.com/yndnr/vedis-go/internal/cli/repl"
)

// REPLCommand returns the repl command.
func REPLCommand() *cli.Command {
	return &cli.Command{
		Name:   "repl",
		Usage:  "Start an interactive session",
		Action: runREPL,
	}
}

func runREPL(c *cli.Context) error {
	if c.NArg() > 0 {
		return fmt.Errorf("unknown command %q", c.Args().First())
	}

	client, err := dial(c)
	if err != nil {
		return err
	}
	defer client.Close()

	historyPath := GetConfig(c).History
	if historyPath == "" {
		historyPath = config.DefaultHistoryPath()
	}
	history := repl.NewHistory(historyPath)
	if err := history.Load(); err != nil {
		fmt.Fprintf(c.App.ErrWriter, "warning: load history: %v\n", err)
	}

	r := repl.New(client, c.App.Reader, c.App.Writer, Formatter(c), history)
	runErr := r.Run(c.Context)

	if err := history.Save(); err != nil {
		fmt.Fprintf(c.App.ErrWriter, "warning: save history: %v\n", err)
	}
	return runErr
}
