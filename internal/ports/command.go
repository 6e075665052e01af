// Package ports defines the interfaces courseboot uses to reach the outside
// world: shell commands, the file system, and structured logging.
package ports

import (
	"context"
	"strings"
)

// CommandResult is the captured outcome of one external command invocation.
type CommandResult struct {
	ExitCode int
	Stdout   string
	Stderr   string
}

// Success returns true if the command exited with code 0.
func (r CommandResult) Success() bool {
	return r.ExitCode == 0
}

// CommandCall records a single command invocation for inspection in tests.
type CommandCall struct {
	Command string
	Args    []string
}

// String renders the call the way it would appear on a shell line.
func (c CommandCall) String() string {
	if len(c.Args) == 0 {
		return c.Command
	}
	return c.Command + " " + strings.Join(c.Args, " ")
}

// CommandRunner executes external commands. Every interaction with conda,
// pip, apt, brew and friends goes through this interface so tests can
// substitute a recording fake.
type CommandRunner interface {
	Run(ctx context.Context, command string, args ...string) (CommandResult, error)
}
