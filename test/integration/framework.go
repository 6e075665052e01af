// Package integration exercises the full bootstrap flow end to end against
// mocked command and file-system ports.
package integration

import (
	"bytes"
	"context"
	"testing"

	"github.com/felixgeelhaar/courseboot/internal/adapters/logging"
	"github.com/felixgeelhaar/courseboot/internal/app"
	"github.com/felixgeelhaar/courseboot/internal/domain/execution"
	"github.com/felixgeelhaar/courseboot/internal/domain/platform"
	"github.com/felixgeelhaar/courseboot/internal/domain/step"
	"github.com/felixgeelhaar/courseboot/internal/ports"
	"github.com/felixgeelhaar/courseboot/internal/testutil/mocks"
)

// CondaBin is where the mocked toolchain resolves conda.
const CondaBin = "/home/student/miniconda3/bin/conda"

const configTOML = `
[course]
name = "Intro to Data Science"
semester = "2026S"

[environment]
name = "course"
python = "3.11"

[channels]
priority = "strict"
list = ["conda-forge"]

[browser]
install = true
`

// Harness wires an App against mocks for one scenario.
type Harness struct {
	t      *testing.T
	Runner *mocks.CommandRunner
	FS     *mocks.FileSystem
	Out    *bytes.Buffer
	App    *app.App
}

// NewHarness creates a debian-host harness with the course files on disk.
func NewHarness(t *testing.T) *Harness {
	t.Helper()

	runner := mocks.NewCommandRunner()
	fs := mocks.NewFileSystem()
	out := &bytes.Buffer{}

	if err := fs.WriteFile("courseboot.toml", []byte(configTOML), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := fs.WriteFile("requirements.txt", []byte("numpy>=1.26\npandas\njupyter\nipykernel\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	tools := step.Toolchain{
		HomeDir:     "/home/student",
		CondaPrefix: "/home/student/miniconda3",
	}
	plat := platform.New(platform.FamilyDebian, "amd64", "ubuntu")
	a := app.NewWithPorts(runner, fs, logging.NewNopLogger(), plat, tools, out)

	return &Harness{t: t, Runner: runner, FS: fs, Out: out, App: a}
}

// Up runs the full sequence in the given mode.
func (h *Harness) Up(mode execution.Mode, confirm func(string) (bool, error)) error {
	return h.App.Up(context.Background(), app.Options{
		Mode:        mode,
		Plain:       true,
		HistoryPath: "/home/student/history.yaml",
		Confirm:     confirm,
	})
}

// Output returns everything rendered so far.
func (h *Harness) Output() string {
	return h.Out.String()
}

// History returns the recorded runs.
func (h *Harness) History() []execution.Record {
	records, err := execution.NewHistory(h.FS, "/home/student/history.yaml").List()
	if err != nil {
		h.t.Fatalf("reading history: %v", err)
	}
	return records
}

// StubAptInstalled marks the system prerequisites as present.
func (h *Harness) StubAptInstalled() {
	for _, pkg := range []string{"wget", "bzip2", "ca-certificates"} {
		h.Runner.AddResult("dpkg-query", []string{"-W", "-f=${db:Status-Status}", pkg},
			ports.CommandResult{ExitCode: 0, Stdout: "installed"})
	}
}

// StubHealthyHost makes every probe read as satisfied and every verification
// check pass.
func (h *Harness) StubHealthyHost() {
	h.StubAptInstalled()

	if err := h.FS.WriteFile(CondaBin, []byte("bin"), 0o755); err != nil {
		h.t.Fatal(err)
	}
	if err := h.FS.WriteFile("/home/student/.condarc",
		[]byte("channels:\n  - conda-forge\nchannel_priority: strict\n"), 0o644); err != nil {
		h.t.Fatal(err)
	}
	if err := h.FS.MkdirAll("/home/student/.cache/ms-playwright", 0o755); err != nil {
		h.t.Fatal(err)
	}

	h.Runner.AddResult(CondaBin, []string{"env", "list", "--json"},
		ports.CommandResult{ExitCode: 0, Stdout: `{"envs": ["/home/student/miniconda3", "/home/student/miniconda3/envs/course"]}`})
	h.Runner.AddResult(CondaBin, []string{"run", "-n", "course", "pip", "list", "--format=json"},
		ports.CommandResult{ExitCode: 0, Stdout: healthyPipList})
	h.Runner.AddResult(CondaBin, []string{"run", "-n", "course", "jupyter", "kernelspec", "list", "--json"},
		ports.CommandResult{ExitCode: 0, Stdout: `{"kernelspecs": {"course": {}}}`})
	h.Runner.AddResult(CondaBin, []string{"--version"},
		ports.CommandResult{ExitCode: 0, Stdout: "conda 24.1.2\n"})
	h.Runner.AddResult(CondaBin, []string{"run", "-n", "course", "python", "--version"},
		ports.CommandResult{ExitCode: 0, Stdout: "Python 3.11.8\n"})
}

const healthyPipList = `[
  {"name":"numpy","version":"1.26.4"},
  {"name":"pandas","version":"2.2.0"},
  {"name":"jupyter","version":"1.0.0"},
  {"name":"ipykernel","version":"6.29.0"}
]`

// StubFullBootstrap sets up a bare host where every apply succeeds and the
// verification probes afterwards read healthy. Probes answered before the
// applies (planning) report the missing state.
func (h *Harness) StubFullBootstrap() {
	h.StubAptInstalled()

	installer := "/home/student/.cache/courseboot/miniconda.sh"
	url := "https://repo.anaconda.com/miniconda/Miniconda3-latest-Linux-x86_64.sh"
	h.Runner.AddResult("curl", []string{"-fsSL", "-o", installer, url}, ports.CommandResult{ExitCode: 0})
	h.Runner.AddResult("bash", []string{installer, "-b", "-p", "/home/student/miniconda3"},
		ports.CommandResult{ExitCode: 0})

	// Plan probe sees no environment; nothing calls env list after that.
	h.Runner.AddResult(CondaBin, []string{"env", "list", "--json"},
		ports.CommandResult{ExitCode: 1, Stderr: "conda not initialized"})
	h.Runner.AddResult(CondaBin, []string{"create", "-n", "course", "python=3.11", "-y"},
		ports.CommandResult{ExitCode: 0})

	// First pip list answers the plan probe, the second the verification.
	h.Runner.AddResultSequence(CondaBin, []string{"run", "-n", "course", "pip", "list", "--format=json"},
		ports.CommandResult{ExitCode: 1, Stderr: "EnvironmentNameNotFound"},
		ports.CommandResult{ExitCode: 0, Stdout: healthyPipList})
	h.Runner.AddResult(CondaBin, []string{"run", "-n", "course", "pip", "install", "-r", "requirements.txt"},
		ports.CommandResult{ExitCode: 0})

	h.Runner.AddResultSequence(CondaBin, []string{"run", "-n", "course", "jupyter", "kernelspec", "list", "--json"},
		ports.CommandResult{ExitCode: 1, Stderr: "jupyter not found"},
		ports.CommandResult{ExitCode: 0, Stdout: `{"kernelspecs": {"course": {}}}`})
	h.Runner.AddResult(CondaBin,
		[]string{"run", "-n", "course", "python", "-m", "ipykernel", "install", "--user", "--name", "course"},
		ports.CommandResult{ExitCode: 0})

	h.Runner.AddResult(CondaBin, []string{"run", "-n", "course", "playwright", "install", "chromium"},
		ports.CommandResult{ExitCode: 0})

	// Verification-only probes.
	h.Runner.AddResult(CondaBin, []string{"--version"},
		ports.CommandResult{ExitCode: 0, Stdout: "conda 24.1.2\n"})
	h.Runner.AddResult(CondaBin, []string{"run", "-n", "course", "python", "--version"},
		ports.CommandResult{ExitCode: 0, Stdout: "Python 3.11.8\n"})
}

// MutatingCalls returns recorded calls that would change the system.
func (h *Harness) MutatingCalls() []string {
	var mutating []string
	for _, call := range h.Runner.Calls() {
		switch call.Command {
		case "curl", "bash", "sudo":
			mutating = append(mutating, call.String())
			continue
		}
		for _, arg := range call.Args {
			if arg == "create" || arg == "install" {
				mutating = append(mutating, call.String())
				break
			}
		}
	}
	return mutating
}
