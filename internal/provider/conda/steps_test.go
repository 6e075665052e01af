package conda

import (
	"context"
	"errors"
	"testing"

	"github.com/felixgeelhaar/courseboot/internal/domain/course"
	"github.com/felixgeelhaar/courseboot/internal/domain/platform"
	"github.com/felixgeelhaar/courseboot/internal/domain/step"
	"github.com/felixgeelhaar/courseboot/internal/ports"
	"github.com/felixgeelhaar/courseboot/internal/testutil/mocks"
)

func testRunContext() step.RunContext {
	return step.NewRunContext(context.Background()).WithTools(step.Toolchain{
		HomeDir:     "/home/u",
		CondaBin:    "/home/u/miniconda3/bin/conda",
		CondaPrefix: "/home/u/miniconda3",
	})
}

func TestInstallStepProbe(t *testing.T) {
	p := platform.New(platform.FamilyDebian, "amd64", "ubuntu")
	runner := mocks.NewCommandRunner()

	t.Run("satisfied when binary exists", func(t *testing.T) {
		fs := mocks.NewFileSystem()
		_ = fs.WriteFile("/home/u/miniconda3/bin/conda", []byte("bin"), 0o755)
		s := NewInstallStep(p, runner, fs)

		status, err := s.Probe(testRunContext())
		if err != nil {
			t.Fatalf("Probe() error = %v", err)
		}
		if status != step.StatusSatisfied {
			t.Errorf("Probe() = %v, want %v", status, step.StatusSatisfied)
		}
	})

	t.Run("needs apply when missing", func(t *testing.T) {
		s := NewInstallStep(p, runner, mocks.NewFileSystem())

		status, err := s.Probe(testRunContext())
		if err != nil {
			t.Fatalf("Probe() error = %v", err)
		}
		if status != step.StatusNeedsApply {
			t.Errorf("Probe() = %v, want %v", status, step.StatusNeedsApply)
		}
	})
}

func TestInstallStepApply(t *testing.T) {
	p := platform.New(platform.FamilyDebian, "amd64", "ubuntu")
	url := InstallerURL(p)
	installer := "/home/u/.cache/courseboot/miniconda.sh"

	runner := mocks.NewCommandRunner()
	runner.AddResult("curl", []string{"-fsSL", "-o", installer, url}, ports.CommandResult{ExitCode: 0})
	runner.AddResult("bash", []string{installer, "-b", "-p", "/home/u/miniconda3"}, ports.CommandResult{ExitCode: 0})

	fs := mocks.NewFileSystem()
	_ = fs.WriteFile(installer, []byte("#!/bin/sh"), 0o644)
	s := NewInstallStep(p, runner, fs)

	if err := s.Apply(testRunContext()); err != nil {
		t.Fatalf("Apply() error = %v", err)
	}
	if !runner.CalledWith("bash", installer, "-b", "-p") {
		t.Error("expected batch-mode installer invocation")
	}
	if fs.Exists(installer) {
		t.Error("expected installer script to be removed after install")
	}
}

func TestInstallStepApplyDownloadFailure(t *testing.T) {
	p := platform.New(platform.FamilyMacOS, "arm64", "")
	installer := "/home/u/.cache/courseboot/miniconda.sh"

	runner := mocks.NewCommandRunner()
	runner.AddResult("curl", []string{"-fsSL", "-o", installer, InstallerURL(p)},
		ports.CommandResult{ExitCode: 22, Stderr: "curl: (22) 404"})
	s := NewInstallStep(p, runner, mocks.NewFileSystem())

	if err := s.Apply(testRunContext()); err == nil {
		t.Error("Apply() expected error when download fails")
	}
	if runner.CalledWith("bash") {
		t.Error("installer must not run after a failed download")
	}
}

func TestEnvStepProbe(t *testing.T) {
	env := course.Environment{Name: "course", Python: "3.11"}

	t.Run("satisfied when env listed", func(t *testing.T) {
		runner := mocks.NewCommandRunner()
		runner.AddResult("/home/u/miniconda3/bin/conda", []string{"env", "list", "--json"},
			ports.CommandResult{ExitCode: 0, Stdout: `{"envs": ["/home/u/miniconda3", "/home/u/miniconda3/envs/course"]}`})
		s := NewEnvStep(env, runner)

		status, err := s.Probe(testRunContext())
		if err != nil {
			t.Fatalf("Probe() error = %v", err)
		}
		if status != step.StatusSatisfied {
			t.Errorf("Probe() = %v, want %v", status, step.StatusSatisfied)
		}
	})

	t.Run("needs apply when env absent", func(t *testing.T) {
		runner := mocks.NewCommandRunner()
		runner.AddResult("/home/u/miniconda3/bin/conda", []string{"env", "list", "--json"},
			ports.CommandResult{ExitCode: 0, Stdout: `{"envs": ["/home/u/miniconda3"]}`})
		s := NewEnvStep(env, runner)

		status, err := s.Probe(testRunContext())
		if err != nil {
			t.Fatalf("Probe() error = %v", err)
		}
		if status != step.StatusNeedsApply {
			t.Errorf("Probe() = %v, want %v", status, step.StatusNeedsApply)
		}
	})

	t.Run("needs apply when conda unreachable", func(t *testing.T) {
		runner := mocks.NewCommandRunner()
		runner.AddError("/home/u/miniconda3/bin/conda", []string{"env", "list", "--json"},
			errors.New("exec: not found"))
		s := NewEnvStep(env, runner)

		status, err := s.Probe(testRunContext())
		if err != nil {
			t.Fatalf("Probe() error = %v", err)
		}
		if status != step.StatusNeedsApply {
			t.Errorf("Probe() = %v, want %v", status, step.StatusNeedsApply)
		}
	})
}

func TestEnvStepApply(t *testing.T) {
	env := course.Environment{Name: "course", Python: "3.11"}
	runner := mocks.NewCommandRunner()
	runner.AddResult("/home/u/miniconda3/bin/conda",
		[]string{"create", "-n", "course", "python=3.11", "-y"},
		ports.CommandResult{ExitCode: 0})
	s := NewEnvStep(env, runner)

	if err := s.Apply(testRunContext()); err != nil {
		t.Fatalf("Apply() error = %v", err)
	}
	if !runner.CalledWith("/home/u/miniconda3/bin/conda", "create", "-n", "course") {
		t.Error("expected conda create invocation")
	}
}

func loadTestManifest(t *testing.T, content string) *course.Manifest {
	t.Helper()
	fs := mocks.NewFileSystem()
	_ = fs.WriteFile("/course/requirements.txt", []byte(content), 0o644)
	m, err := course.LoadManifest(fs, "/course/requirements.txt")
	if err != nil {
		t.Fatalf("LoadManifest() error = %v", err)
	}
	return m
}

func TestPackagesStepProbe(t *testing.T) {
	manifest := loadTestManifest(t, "numpy>=1.26\npandas\n")

	t.Run("satisfied when all installed", func(t *testing.T) {
		runner := mocks.NewCommandRunner()
		runner.AddResult("/home/u/miniconda3/bin/conda",
			[]string{"run", "-n", "course", "pip", "list", "--format=json"},
			ports.CommandResult{ExitCode: 0, Stdout: `[{"name":"numpy","version":"1.26.4"},{"name":"pandas","version":"2.2.0"}]`})
		s := NewPackagesStep("course", manifest, runner)

		status, err := s.Probe(testRunContext())
		if err != nil {
			t.Fatalf("Probe() error = %v", err)
		}
		if status != step.StatusSatisfied {
			t.Errorf("Probe() = %v, want %v", status, step.StatusSatisfied)
		}
	})

	t.Run("needs apply when one missing", func(t *testing.T) {
		runner := mocks.NewCommandRunner()
		runner.AddResult("/home/u/miniconda3/bin/conda",
			[]string{"run", "-n", "course", "pip", "list", "--format=json"},
			ports.CommandResult{ExitCode: 0, Stdout: `[{"name":"numpy","version":"1.26.4"}]`})
		s := NewPackagesStep("course", manifest, runner)

		status, err := s.Probe(testRunContext())
		if err != nil {
			t.Fatalf("Probe() error = %v", err)
		}
		if status != step.StatusNeedsApply {
			t.Errorf("Probe() = %v, want %v", status, step.StatusNeedsApply)
		}
	})

	t.Run("needs apply when env missing", func(t *testing.T) {
		runner := mocks.NewCommandRunner()
		runner.AddResult("/home/u/miniconda3/bin/conda",
			[]string{"run", "-n", "course", "pip", "list", "--format=json"},
			ports.CommandResult{ExitCode: 1, Stderr: "EnvironmentNameNotFound"})
		s := NewPackagesStep("course", manifest, runner)

		status, err := s.Probe(testRunContext())
		if err != nil {
			t.Fatalf("Probe() error = %v", err)
		}
		if status != step.StatusNeedsApply {
			t.Errorf("Probe() = %v, want %v", status, step.StatusNeedsApply)
		}
	})
}

func TestPackagesStepApply(t *testing.T) {
	manifest := loadTestManifest(t, "numpy\n")
	runner := mocks.NewCommandRunner()
	runner.AddResult("/home/u/miniconda3/bin/conda",
		[]string{"run", "-n", "course", "pip", "install", "-r", "/course/requirements.txt"},
		ports.CommandResult{ExitCode: 0})
	s := NewPackagesStep("course", manifest, runner)

	if err := s.Apply(testRunContext()); err != nil {
		t.Fatalf("Apply() error = %v", err)
	}
}

func TestPackagesStepApplyFailure(t *testing.T) {
	manifest := loadTestManifest(t, "no-such-distribution\n")
	runner := mocks.NewCommandRunner()
	runner.AddResult("/home/u/miniconda3/bin/conda",
		[]string{"run", "-n", "course", "pip", "install", "-r", "/course/requirements.txt"},
		ports.CommandResult{ExitCode: 1, Stderr: "ERROR: No matching distribution found\nsecond line"})
	s := NewPackagesStep("course", manifest, runner)

	err := s.Apply(testRunContext())
	if err == nil {
		t.Fatal("Apply() expected error")
	}
	if got := err.Error(); got != "pip install -r /course/requirements.txt failed: ERROR: No matching distribution found" {
		t.Errorf("Apply() error = %q, want first stderr line only", got)
	}
}
