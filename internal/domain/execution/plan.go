package execution

import (
	"github.com/felixgeelhaar/courseboot/internal/domain/step"
)

// PlanEntry represents a single step's probed state ahead of execution.
type PlanEntry struct {
	step        step.Step
	status      step.Status
	description string
	disabled    bool
}

// NewPlanEntry creates a new PlanEntry.
func NewPlanEntry(s step.Step, status step.Status, description string) PlanEntry {
	return PlanEntry{
		step:        s,
		status:      status,
		description: description,
	}
}

// WithDisabled returns a copy of the entry marked as disabled for this run.
func (e PlanEntry) WithDisabled(disabled bool) PlanEntry {
	e.disabled = disabled
	return e
}

// Step returns the step to be executed.
func (e PlanEntry) Step() step.Step {
	return e.step
}

// Status returns the probed status of the step.
func (e PlanEntry) Status() step.Status {
	return e.status
}

// Description returns what applying the step would do.
func (e PlanEntry) Description() string {
	return e.description
}

// Disabled reports whether the step has been switched off for this run.
func (e PlanEntry) Disabled() bool {
	return e.disabled
}

// PlanSummary provides aggregate statistics about the plan.
type PlanSummary struct {
	Total      int
	NeedsApply int
	Satisfied  int
	Disabled   int
}

// Plan is the ordered list of probed steps for one run.
type Plan struct {
	entries []PlanEntry
}

// NewPlan creates an empty Plan.
func NewPlan() *Plan {
	return &Plan{
		entries: make([]PlanEntry, 0),
	}
}

// Add appends a plan entry. Order is execution order.
func (p *Plan) Add(entry PlanEntry) {
	p.entries = append(p.entries, entry)
}

// Len returns the number of entries.
func (p *Plan) Len() int {
	return len(p.entries)
}

// IsEmpty returns true if there are no entries.
func (p *Plan) IsEmpty() bool {
	return len(p.entries) == 0
}

// Entries returns all plan entries in execution order.
func (p *Plan) Entries() []PlanEntry {
	return p.entries
}

// HasChanges returns true if any enabled step needs to be applied.
func (p *Plan) HasChanges() bool {
	for _, e := range p.entries {
		if e.disabled {
			continue
		}
		if e.status.NeedsAction() {
			return true
		}
	}
	return false
}

// Summary returns aggregate statistics.
func (p *Plan) Summary() PlanSummary {
	summary := PlanSummary{Total: len(p.entries)}
	for _, e := range p.entries {
		if e.disabled {
			summary.Disabled++
			continue
		}
		if e.status.NeedsAction() {
			summary.NeedsApply++
		} else {
			summary.Satisfied++
		}
	}
	return summary
}
