// Package execution orchestrates the ordered bootstrap sequence: probing,
// confirmation, apply, and the final run summary.
package execution

import (
	"time"

	"github.com/felixgeelhaar/courseboot/internal/domain/step"
)

// Outcome classifies what happened to a single step during a run.
type Outcome string

const (
	// OutcomeSkipped means the probe found the target state already holds.
	OutcomeSkipped Outcome = "skipped"
	// OutcomeApplied means the mutation was performed successfully.
	OutcomeApplied Outcome = "applied"
	// OutcomeSimulated means the step was described instead of applied (dry-run).
	OutcomeSimulated Outcome = "simulated"
	// OutcomeFailed means the apply returned an error.
	OutcomeFailed Outcome = "failed"
)

// String returns the string representation of the outcome.
func (o Outcome) String() string {
	return string(o)
}

// StepResult captures the outcome of executing a single step.
type StepResult struct {
	stepID      step.ID
	outcome     Outcome
	optional    bool
	description string
	err         error
	duration    time.Duration
}

// NewStepResult creates a new StepResult.
func NewStepResult(stepID step.ID, outcome Outcome, err error) StepResult {
	return StepResult{
		stepID:  stepID,
		outcome: outcome,
		err:     err,
	}
}

// StepID returns the ID of the step that was executed.
func (r StepResult) StepID() step.ID {
	return r.stepID
}

// Outcome returns the final outcome of the step.
func (r StepResult) Outcome() Outcome {
	return r.outcome
}

// Optional reports whether the step was tagged optional.
func (r StepResult) Optional() bool {
	return r.optional
}

// Description returns the human-readable statement printed for the step.
func (r StepResult) Description() string {
	return r.description
}

// Error returns any error that occurred during execution.
func (r StepResult) Error() error {
	return r.err
}

// Duration returns how long the step took to execute.
func (r StepResult) Duration() time.Duration {
	return r.duration
}

// Failed reports whether the step failed.
func (r StepResult) Failed() bool {
	return r.outcome == OutcomeFailed
}

// WithDuration returns a new StepResult with duration set.
func (r StepResult) WithDuration(d time.Duration) StepResult {
	r.duration = d
	return r
}

// WithDescription returns a new StepResult with the description set.
func (r StepResult) WithDescription(desc string) StepResult {
	r.description = desc
	return r
}

// WithOptional returns a new StepResult with the optional tag set.
func (r StepResult) WithOptional(optional bool) StepResult {
	r.optional = optional
	return r
}
