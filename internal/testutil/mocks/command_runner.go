// Package mocks provides test doubles for the ports interfaces.
package mocks

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/felixgeelhaar/courseboot/internal/ports"
)

// CommandRunner is a thread-safe test double for ports.CommandRunner.
// Results are registered per command line; every invocation is recorded
// so tests can assert on exactly which external calls were made.
type CommandRunner struct {
	mu      sync.RWMutex
	results map[string]ports.CommandResult
	queues  map[string][]ports.CommandResult
	errors  map[string]error
	calls   []ports.CommandCall
}

// NewCommandRunner creates a new CommandRunner mock.
func NewCommandRunner() *CommandRunner {
	return &CommandRunner{
		results: make(map[string]ports.CommandResult),
		queues:  make(map[string][]ports.CommandResult),
		errors:  make(map[string]error),
		calls:   make([]ports.CommandCall, 0),
	}
}

// AddResult registers an expected command and its result.
func (m *CommandRunner) AddResult(command string, args []string, result ports.CommandResult) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.results[buildKey(command, args)] = result
}

// AddResultSequence registers successive results for repeated invocations of
// the same command. Each invocation consumes one result; the last one sticks
// once the queue is drained.
func (m *CommandRunner) AddResultSequence(command string, args []string, results ...ports.CommandResult) {
	m.mu.Lock()
	defer m.mu.Unlock()
	key := buildKey(command, args)
	m.queues[key] = append(m.queues[key], results...)
}

// AddError registers an expected command that should return an error.
func (m *CommandRunner) AddError(command string, args []string, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.errors[buildKey(command, args)] = err
}

// Run executes a mock command.
func (m *CommandRunner) Run(_ context.Context, command string, args ...string) (ports.CommandResult, error) {
	m.mu.Lock()
	m.calls = append(m.calls, ports.CommandCall{
		Command: command,
		Args:    args,
	})
	m.mu.Unlock()

	m.mu.Lock()
	defer m.mu.Unlock()

	key := buildKey(command, args)

	if err, ok := m.errors[key]; ok {
		return ports.CommandResult{}, err
	}

	if queue, ok := m.queues[key]; ok && len(queue) > 0 {
		result := queue[0]
		if len(queue) > 1 {
			m.queues[key] = queue[1:]
		}
		return result, nil
	}

	if result, ok := m.results[key]; ok {
		return result, nil
	}

	return ports.CommandResult{}, fmt.Errorf("no mock result for command: %s %v", command, args)
}

// Calls returns all recorded command invocations.
func (m *CommandRunner) Calls() []ports.CommandCall {
	m.mu.RLock()
	defer m.mu.RUnlock()

	calls := make([]ports.CommandCall, len(m.calls))
	copy(calls, m.calls)
	return calls
}

// CalledWith reports whether any recorded invocation starts with the given
// command and argument prefix.
func (m *CommandRunner) CalledWith(command string, args ...string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, call := range m.calls {
		if call.Command != command || len(call.Args) < len(args) {
			continue
		}
		match := true
		for i, a := range args {
			if call.Args[i] != a {
				match = false
				break
			}
		}
		if match {
			return true
		}
	}
	return false
}

// ClearCalls forgets recorded invocations but keeps registered results, so a
// test can run the same scenario twice and assert on the second run alone.
func (m *CommandRunner) ClearCalls() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = make([]ports.CommandCall, 0)
}

// Reset clears all registered results, errors, and recorded calls.
func (m *CommandRunner) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.results = make(map[string]ports.CommandResult)
	m.queues = make(map[string][]ports.CommandResult)
	m.errors = make(map[string]error)
	m.calls = make([]ports.CommandCall, 0)
}

func buildKey(command string, args []string) string {
	if len(args) == 0 {
		return command
	}
	return command + " " + strings.Join(args, " ")
}

// Ensure CommandRunner implements ports.CommandRunner.
var _ ports.CommandRunner = (*CommandRunner)(nil)
