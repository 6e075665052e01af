package browser

import (
	"context"
	"testing"

	"github.com/felixgeelhaar/courseboot/internal/domain/course"
	"github.com/felixgeelhaar/courseboot/internal/domain/step"
	"github.com/felixgeelhaar/courseboot/internal/ports"
	"github.com/felixgeelhaar/courseboot/internal/testutil/mocks"
)

const condaBin = "/home/u/miniconda3/bin/conda"

func testRunContext() step.RunContext {
	return step.NewRunContext(context.Background()).WithTools(step.Toolchain{
		HomeDir:     "/home/u",
		CondaBin:    condaBin,
		CondaPrefix: "/home/u/miniconda3",
	})
}

func newStep(install bool, runner *mocks.CommandRunner, fs *mocks.FileSystem) *PlaywrightStep {
	return NewPlaywrightStep("course", course.Browser{Install: install}, runner, fs)
}

func TestPlaywrightStepDisabled(t *testing.T) {
	t.Run("enabled by default", func(t *testing.T) {
		s := newStep(true, mocks.NewCommandRunner(), mocks.NewFileSystem())
		if s.Disabled() {
			t.Error("Disabled() = true, want false")
		}
	})

	t.Run("disabled by config", func(t *testing.T) {
		s := newStep(false, mocks.NewCommandRunner(), mocks.NewFileSystem())
		if !s.Disabled() {
			t.Error("Disabled() = false, want true when config disables install")
		}
	})

	t.Run("disabled by environment variable", func(t *testing.T) {
		t.Setenv(EnvNoBrowser, "1")
		s := newStep(true, mocks.NewCommandRunner(), mocks.NewFileSystem())
		if !s.Disabled() {
			t.Error("Disabled() = false, want true when COURSEBOOT_NO_BROWSER is set")
		}
	})
}

func TestPlaywrightStepProbe(t *testing.T) {
	t.Run("satisfied when cache exists", func(t *testing.T) {
		fs := mocks.NewFileSystem()
		_ = fs.MkdirAll("/home/u/.cache/ms-playwright", 0o755)
		s := newStep(true, mocks.NewCommandRunner(), fs)

		status, err := s.Probe(testRunContext())
		if err != nil {
			t.Fatalf("Probe() error = %v", err)
		}
		if status != step.StatusSatisfied {
			t.Errorf("Probe() = %v, want %v", status, step.StatusSatisfied)
		}
	})

	t.Run("needs apply when cache missing", func(t *testing.T) {
		s := newStep(true, mocks.NewCommandRunner(), mocks.NewFileSystem())

		status, err := s.Probe(testRunContext())
		if err != nil {
			t.Fatalf("Probe() error = %v", err)
		}
		if status != step.StatusNeedsApply {
			t.Errorf("Probe() = %v, want %v", status, step.StatusNeedsApply)
		}
	})
}

func TestPlaywrightStepApply(t *testing.T) {
	runner := mocks.NewCommandRunner()
	runner.AddResult(condaBin,
		[]string{"run", "-n", "course", "playwright", "install", "chromium"},
		ports.CommandResult{ExitCode: 0})
	s := newStep(true, runner, mocks.NewFileSystem())

	if err := s.Apply(testRunContext()); err != nil {
		t.Fatalf("Apply() error = %v", err)
	}
}

func TestPlaywrightStepApplyFailure(t *testing.T) {
	runner := mocks.NewCommandRunner()
	runner.AddResult(condaBin,
		[]string{"run", "-n", "course", "playwright", "install", "chromium"},
		ports.CommandResult{ExitCode: 1, Stderr: "Failed to download chromium"})
	s := newStep(true, runner, mocks.NewFileSystem())

	if err := s.Apply(testRunContext()); err == nil {
		t.Error("Apply() expected error")
	}
	if !s.Optional() {
		t.Error("PlaywrightStep must be optional")
	}
}
