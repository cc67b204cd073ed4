package repl

import (
	"sort"
	"strings"
)

// Completer provides command completion for the REPL.
type Completer struct {
	commands []string
}

// NewCompleter creates a new Completer.
func NewCompleter() *Completer {
	commands := []string{
		"GET", "SET", "DEL", "EXISTS", "PING", "DBSIZE",
		"COMMAND", "QUIT", "SHUTDOWN",
		"exit", "help", "quit",
	}
	sort.Strings(commands)
	return &Completer{commands: commands}
}

// Complete returns completion suggestions for the given prefix. Server
// commands match case-insensitively but are suggested in upper case.
func (c *Completer) Complete(prefix string) []string {
	var suggestions []string
	upper := strings.ToUpper(prefix)
	for _, cmd := range c.commands {
		if strings.HasPrefix(cmd, prefix) || strings.HasPrefix(cmd, upper) {
			suggestions = append(suggestions, cmd)
		}
	}
	return suggestions
}
