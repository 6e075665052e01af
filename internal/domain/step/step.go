// Package step defines the idempotent unit of work the bootstrap sequence is
// built from. Each step can probe its target state, describe what applying it
// would do, and perform the mutation.
package step

// Step represents one idempotent unit of the bootstrap sequence.
type Step interface {
	// ID returns the unique identifier for this step.
	ID() ID

	// Optional reports whether a failure of this step should downgrade to a
	// warning instead of aborting the sequence.
	Optional() bool

	// Probe determines whether the step's target state already holds.
	// It must be read-only: probing never mutates the system.
	Probe(ctx RunContext) (Status, error)

	// Describe returns a human-readable statement of what Apply would do.
	Describe() string

	// Apply performs the mutating action. It must be safe to re-run: a
	// partially applied step is re-probed and retried on the next invocation.
	Apply(ctx RunContext) error
}

// SkippableStep extends Step with an environment-driven disable switch.
// A disabled step is skipped without being marked failed.
type SkippableStep interface {
	Step

	// Disabled reports whether the step has been switched off for this run.
	Disabled() bool
}

// IsDisabled reports whether the step implements SkippableStep and is
// currently switched off.
func IsDisabled(s Step) bool {
	if sk, ok := s.(SkippableStep); ok {
		return sk.Disabled()
	}
	return false
}
