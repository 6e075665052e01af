package tui

import (
	"fmt"
	"strings"

	"github.com/felixgeelhaar/courseboot/internal/domain/execution"
	"github.com/felixgeelhaar/courseboot/internal/domain/step"
	"github.com/felixgeelhaar/courseboot/internal/domain/verify"
)

// Renderer formats plans, results, and reports for the terminal.
type Renderer struct {
	styles Styles
}

// NewRenderer creates a Renderer with the default colored styles.
func NewRenderer() *Renderer {
	return &Renderer{styles: DefaultStyles()}
}

// Plain returns a Renderer without colors.
func (r *Renderer) Plain() *Renderer {
	return &Renderer{styles: PlainStyles()}
}

// RenderPlan formats the probed plan.
func (r *Renderer) RenderPlan(plan *execution.Plan, mode execution.Mode) string {
	var b strings.Builder

	title := "Plan"
	if mode.IsDryRun() {
		title = "Plan (dry run)"
	}
	b.WriteString(r.styles.Title.Render(title))
	b.WriteString("\n\n")

	for _, entry := range plan.Entries() {
		b.WriteString(r.planLine(entry))
		b.WriteString("\n")
	}

	summary := plan.Summary()
	b.WriteString("\n")
	b.WriteString(r.styles.Muted.Render(fmt.Sprintf(
		"%d steps: %d to apply, %d satisfied, %d disabled",
		summary.Total, summary.NeedsApply, summary.Satisfied, summary.Disabled)))
	b.WriteString("\n")

	return b.String()
}

func (r *Renderer) planLine(entry execution.PlanEntry) string {
	id := entry.Step().ID().String()

	switch {
	case entry.Disabled():
		return r.styles.Muted.Render("  - " + id + "  (disabled)")
	case entry.Status() == step.StatusSatisfied:
		return r.styles.Success.Render("  ✓ "+id) + r.styles.Muted.Render("  (satisfied)")
	default:
		return r.styles.Step.Render("  → "+id) + "  " + r.styles.Muted.Render(entry.Description())
	}
}

// RenderResults formats the per-step outcomes of a finished run.
func (r *Renderer) RenderResults(result execution.ExecuteResult) string {
	var b strings.Builder

	for _, sr := range result.Results {
		b.WriteString(r.resultLine(sr))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	switch {
	case result.Aborted:
		b.WriteString(r.styles.Error.Render(
			fmt.Sprintf("Aborted: step %s failed", result.AbortedAt)))
	case result.Warnings() > 0:
		b.WriteString(r.styles.Warning.Render(
			fmt.Sprintf("Completed with %d warning(s)", result.Warnings())))
	default:
		b.WriteString(r.styles.Success.Render("Completed"))
	}
	b.WriteString("\n")

	return b.String()
}

func (r *Renderer) resultLine(sr execution.StepResult) string {
	id := sr.StepID().String()

	switch sr.Outcome() {
	case execution.OutcomeApplied:
		return r.styles.Success.Render("  ✓ "+id) + r.styles.Muted.Render("  applied")
	case execution.OutcomeSkipped:
		return r.styles.Muted.Render("  - " + id + "  skipped")
	case execution.OutcomeSimulated:
		return r.styles.Step.Render("  → "+id) + "  " + r.styles.Muted.Render("would: "+sr.Description())
	case execution.OutcomeFailed:
		line := "  ✗ " + id + "  " + sr.Error().Error()
		if sr.Optional() {
			return r.styles.Warning.Render(line + "  (optional)")
		}
		return r.styles.Error.Render(line)
	default:
		return r.styles.Step.Render("  ? " + id)
	}
}

// RenderReport formats a verification report.
func (r *Renderer) RenderReport(report verify.Report) string {
	var b strings.Builder

	b.WriteString(r.styles.Title.Render("Verification"))
	b.WriteString("\n\n")

	for _, c := range report.Checks {
		switch {
		case c.OK:
			b.WriteString(r.styles.Success.Render("  ✓ " + c.Name))
		case c.Optional:
			b.WriteString(r.styles.Warning.Render("  ! " + c.Name))
		default:
			b.WriteString(r.styles.Error.Render("  ✗ " + c.Name))
		}
		if c.Detail != "" {
			b.WriteString(r.styles.Muted.Render("  " + c.Detail))
		}
		b.WriteString("\n")
	}

	b.WriteString("\n")
	if report.Passed() {
		if report.Warnings() > 0 {
			b.WriteString(r.styles.Warning.Render(
				fmt.Sprintf("All required checks passed, %d warning(s)", report.Warnings())))
		} else {
			b.WriteString(r.styles.Success.Render("All checks passed"))
		}
	} else {
		b.WriteString(r.styles.Error.Render("Verification failed"))
	}
	b.WriteString("\n")

	return b.String()
}
