package execution

import (
	"context"
	"fmt"

	"github.com/felixgeelhaar/courseboot/internal/domain/step"
)

// Planner probes each step's current state and produces a Plan.
// Planning is read-only regardless of mode.
type Planner struct{}

// NewPlanner creates a new Planner.
func NewPlanner() *Planner {
	return &Planner{}
}

// Plan probes the given steps in order and records their status.
func (p *Planner) Plan(ctx context.Context, steps []step.Step, tools step.Toolchain) (*Plan, error) {
	plan := NewPlan()
	runCtx := step.NewRunContext(ctx).WithTools(tools)

	for _, s := range steps {
		entry, err := p.planStep(s, runCtx)
		if err != nil {
			return nil, fmt.Errorf("failed to plan step %q: %w", s.ID().String(), err)
		}
		plan.Add(entry)
	}

	return plan, nil
}

// planStep probes a single step and generates a PlanEntry.
func (p *Planner) planStep(s step.Step, ctx step.RunContext) (PlanEntry, error) {
	if step.IsDisabled(s) {
		return NewPlanEntry(s, step.StatusSatisfied, s.Describe()).WithDisabled(true), nil
	}

	status, err := s.Probe(ctx)
	if err != nil {
		return PlanEntry{}, fmt.Errorf("probe failed: %w", err)
	}

	return NewPlanEntry(s, status, s.Describe()), nil
}
