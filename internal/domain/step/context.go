package step

import "context"

// Toolchain holds resolved host facts steps rely on. It is computed once at
// startup and immutable thereafter, rather than read from ambient shell state
// (exported PATH, sourced profiles) at each step.
type Toolchain struct {
	// HomeDir is the user's home directory.
	HomeDir string
	// CondaBin is the resolved conda executable. Empty until the runtime is
	// installed; steps that need conda after the install step may assume the
	// default install prefix when this is empty.
	CondaBin string
	// CondaPrefix is the directory conda is (or will be) installed under.
	CondaPrefix string
}

// RunContext provides context for step execution (Probe and Apply).
type RunContext struct {
	ctx    context.Context
	dryRun bool
	tools  Toolchain
}

// NewRunContext creates a new RunContext with the given context.
func NewRunContext(ctx context.Context) RunContext {
	return RunContext{ctx: ctx}
}

// Context returns the underlying context.Context.
func (r RunContext) Context() context.Context {
	return r.ctx
}

// DryRun returns whether this is a dry-run execution.
func (r RunContext) DryRun() bool {
	return r.dryRun
}

// WithDryRun returns a new RunContext with the dry-run flag set.
func (r RunContext) WithDryRun(dryRun bool) RunContext {
	r.dryRun = dryRun
	return r
}

// Tools returns the resolved toolchain.
func (r RunContext) Tools() Toolchain {
	return r.tools
}

// WithTools returns a new RunContext with the toolchain set.
func (r RunContext) WithTools(tools Toolchain) RunContext {
	r.tools = tools
	return r
}
