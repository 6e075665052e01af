package execution

import (
	"context"
	"time"

	"github.com/felixgeelhaar/courseboot/internal/domain/step"
)

// Executor runs steps from a Plan in strict order. A failed required step
// halts the sequence immediately; a failed optional step is recorded and the
// sequence continues.
type Executor struct {
	mode       Mode
	onStart    func(step.ID)
	onFinished func(StepResult)
}

// NewExecutor creates a new Executor in Normal mode.
func NewExecutor() *Executor {
	return &Executor{}
}

// WithMode returns an Executor using the given mode.
func (e *Executor) WithMode(mode Mode) *Executor {
	clone := *e
	clone.mode = mode
	return &clone
}

// WithOnStepStart returns an Executor that calls fn before each entry runs.
func (e *Executor) WithOnStepStart(fn func(step.ID)) *Executor {
	clone := *e
	clone.onStart = fn
	return &clone
}

// WithOnStepFinished returns an Executor that calls fn after each entry ran.
func (e *Executor) WithOnStepFinished(fn func(StepResult)) *Executor {
	clone := *e
	clone.onFinished = fn
	return &clone
}

// ExecuteResult contains the ordered results of an execution.
type ExecuteResult struct {
	Results []StepResult
	// Aborted is true when a required step failed and the remaining
	// sequence was not executed.
	Aborted bool
	// AbortedAt is the ID of the step whose failure halted the run.
	AbortedAt step.ID
}

// Warnings returns the number of failed optional steps.
func (r ExecuteResult) Warnings() int {
	count := 0
	for i := range r.Results {
		if r.Results[i].Failed() && r.Results[i].Optional() {
			count++
		}
	}
	return count
}

// Succeeded reports whether the run completed without a required failure.
// Optional failures still count as success (completed with warnings).
func (r ExecuteResult) Succeeded() bool {
	return !r.Aborted
}

// Execute runs all plan entries in order, honoring the executor's mode.
// Steps whose probe was already satisfied are skipped; in dry-run mode
// unsatisfied steps are simulated using their description.
func (e *Executor) Execute(ctx context.Context, plan *Plan, tools step.Toolchain) ExecuteResult {
	results := make([]StepResult, 0, plan.Len())
	runCtx := step.NewRunContext(ctx).WithDryRun(e.mode.IsDryRun()).WithTools(tools)

	for _, entry := range plan.Entries() {
		select {
		case <-ctx.Done():
			return ExecuteResult{Results: results, Aborted: true}
		default:
		}

		if e.onStart != nil {
			e.onStart(entry.Step().ID())
		}

		result := e.executeEntry(entry, runCtx)
		results = append(results, result)

		if e.onFinished != nil {
			e.onFinished(result)
		}

		if result.Failed() && !result.Optional() {
			return ExecuteResult{
				Results:   results,
				Aborted:   true,
				AbortedAt: result.StepID(),
			}
		}
	}

	return ExecuteResult{Results: results}
}

// executeEntry executes a single plan entry.
func (e *Executor) executeEntry(entry PlanEntry, ctx step.RunContext) StepResult {
	s := entry.Step()
	optional := s.Optional()

	// Disabled steps are skipped without being marked failed.
	if entry.Disabled() {
		return NewStepResult(s.ID(), OutcomeSkipped, nil).WithOptional(optional)
	}

	// Probe already satisfied: no action needed.
	if !entry.Status().NeedsAction() {
		return NewStepResult(s.ID(), OutcomeSkipped, nil).WithOptional(optional)
	}

	// Dry run: report what would happen, perform no side effects.
	if ctx.DryRun() {
		return NewStepResult(s.ID(), OutcomeSimulated, nil).
			WithOptional(optional).
			WithDescription(entry.Description())
	}

	start := time.Now()
	err := s.Apply(ctx)
	duration := time.Since(start)

	if err != nil {
		return NewStepResult(s.ID(), OutcomeFailed, err).
			WithOptional(optional).
			WithDuration(duration)
	}

	return NewStepResult(s.ID(), OutcomeApplied, nil).
		WithOptional(optional).
		WithDescription(entry.Description()).
		WithDuration(duration)
}
