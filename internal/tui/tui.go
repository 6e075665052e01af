package tui

import (
	"context"
	"fmt"
	"io"

	tea "github.com/charmbracelet/bubbletea"
)

// RunWithProgress displays live progress while fn executes. fn receives a
// send function for StepStartMsg / StepCompleteMsg and must finish by
// sending AllCompleteMsg. It reports whether the user cancelled the run.
func RunWithProgress(ctx context.Context, out io.Writer, total int, fn func(send func(tea.Msg))) (bool, error) {
	model := NewProgressModel(total)

	p := tea.NewProgram(model, tea.WithContext(ctx), tea.WithOutput(out))
	go fn(p.Send)

	finalModel, err := p.Run()
	if err != nil {
		return false, fmt.Errorf("progress display failed: %w", err)
	}

	m, ok := finalModel.(ProgressModel)
	if !ok {
		return false, fmt.Errorf("unexpected model type %T", finalModel)
	}
	return m.Cancelled(), nil
}
