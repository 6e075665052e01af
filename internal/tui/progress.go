package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/felixgeelhaar/courseboot/internal/domain/execution"
	"github.com/felixgeelhaar/courseboot/internal/domain/step"
)

// StepStartMsg is sent when a step starts executing.
type StepStartMsg struct {
	StepID step.ID
}

// StepCompleteMsg is sent when a step finishes.
type StepCompleteMsg struct {
	Result execution.StepResult
}

// AllCompleteMsg is sent when the whole sequence has finished.
type AllCompleteMsg struct {
	Result execution.ExecuteResult
}

// ProgressModel is the Bubble Tea model showing live apply progress.
type ProgressModel struct {
	spinner   spinner.Model
	styles    Styles
	total     int
	completed int
	failed    int
	current   step.ID
	done      bool
	cancelled bool
}

// NewProgressModel creates a progress model for a run with the given number
// of steps needing action.
func NewProgressModel(total int) ProgressModel {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = DefaultStyles().Progress

	return ProgressModel{
		spinner: s,
		styles:  DefaultStyles(),
		total:   total,
	}
}

// Cancelled reports whether the user interrupted the run.
func (m ProgressModel) Cancelled() bool {
	return m.cancelled
}

// Init starts the spinner.
func (m ProgressModel) Init() tea.Cmd {
	return m.spinner.Tick
}

// Update handles progress messages and spinner ticks.
func (m ProgressModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC {
			m.cancelled = true
			return m, tea.Quit
		}
		return m, nil

	case StepStartMsg:
		m.current = msg.StepID
		return m, nil

	case StepCompleteMsg:
		m.completed++
		if msg.Result.Failed() {
			m.failed++
		}
		return m, nil

	case AllCompleteMsg:
		m.done = true
		return m, tea.Quit

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}

	return m, nil
}

// View renders the current progress line.
func (m ProgressModel) View() string {
	if m.done {
		return ""
	}

	var b strings.Builder
	b.WriteString(m.spinner.View())
	b.WriteString(" ")

	if m.current.IsZero() {
		b.WriteString(m.styles.Muted.Render("preparing..."))
	} else {
		b.WriteString(m.styles.Step.Render(m.current.String()))
	}

	b.WriteString(m.styles.Muted.Render(fmt.Sprintf("  [%d/%d]", m.completed, m.total)))
	if m.failed > 0 {
		b.WriteString(m.styles.Warning.Render(fmt.Sprintf("  %d failed", m.failed)))
	}
	b.WriteString("\n")

	return b.String()
}
