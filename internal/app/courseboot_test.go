package app

import (
	"bytes"
	"context"
	"errors"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/felixgeelhaar/courseboot/internal/adapters/logging"
	"github.com/felixgeelhaar/courseboot/internal/domain/course"
	"github.com/felixgeelhaar/courseboot/internal/domain/execution"
	"github.com/felixgeelhaar/courseboot/internal/domain/platform"
	"github.com/felixgeelhaar/courseboot/internal/domain/step"
	"github.com/felixgeelhaar/courseboot/internal/ports"
	"github.com/felixgeelhaar/courseboot/internal/testutil/mocks"
)

const condaBin = "/home/u/miniconda3/bin/conda"

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

func testTools() step.Toolchain {
	return step.Toolchain{
		HomeDir:     "/home/u",
		CondaPrefix: "/home/u/miniconda3",
	}
}

// newTestApp wires mocks for a debian host with config and manifest on disk.
func newTestApp(runner *mocks.CommandRunner, fs *mocks.FileSystem, out *bytes.Buffer) *App {
	_ = fs.WriteFile("courseboot.toml", []byte(configTOML), 0o644)
	_ = fs.WriteFile("requirements.txt", []byte("numpy\npandas\n"), 0o644)
	plat := platform.New(platform.FamilyDebian, "amd64", "ubuntu")
	return NewWithPorts(runner, fs, logging.NewNopLogger(), plat, testTools(), out)
}

// registerBareHostProbes registers the probes a host without conda answers.
func registerBareHostProbes(runner *mocks.CommandRunner) {
	for _, pkg := range []string{"wget", "bzip2", "ca-certificates"} {
		runner.AddResult("dpkg-query", []string{"-W", "-f=${db:Status-Status}", pkg},
			ports.CommandResult{ExitCode: 0, Stdout: "installed"})
	}
	// conda, pip, jupyter probes hit the unregistered-command error path and
	// read as needs-apply.
}

// registerHealthyHostProbes registers every probe a bootstrapped host answers.
func registerHealthyHostProbes(runner *mocks.CommandRunner, fs *mocks.FileSystem) {
	registerBareHostProbes(runner)
	_ = fs.WriteFile(condaBin, []byte("bin"), 0o755)
	_ = fs.WriteFile("/home/u/.condarc", []byte("channels:\n  - conda-forge\nchannel_priority: strict\n"), 0o644)
	_ = fs.MkdirAll("/home/u/.cache/ms-playwright", 0o755)

	runner.AddResult(condaBin, []string{"env", "list", "--json"},
		ports.CommandResult{ExitCode: 0, Stdout: `{"envs": ["/home/u/miniconda3", "/home/u/miniconda3/envs/course"]}`})
	runner.AddResult(condaBin, []string{"run", "-n", "course", "pip", "list", "--format=json"},
		ports.CommandResult{ExitCode: 0, Stdout: `[{"name":"numpy","version":"1.26.4"},{"name":"pandas","version":"2.2.0"}]`})
	runner.AddResult(condaBin, []string{"run", "-n", "course", "jupyter", "kernelspec", "list", "--json"},
		ports.CommandResult{ExitCode: 0, Stdout: `{"kernelspecs": {"course": {}}}`})
	runner.AddResult(condaBin, []string{"--version"},
		ports.CommandResult{ExitCode: 0, Stdout: "conda 24.1.2\n"})
	runner.AddResult(condaBin, []string{"run", "-n", "course", "python", "--version"},
		ports.CommandResult{ExitCode: 0, Stdout: "Python 3.11.8\n"})
}

// assertNoMutations fails if any recorded call is a mutating command.
func assertNoMutations(t *testing.T, runner *mocks.CommandRunner) {
	t.Helper()
	for _, call := range runner.Calls() {
		line := call.String()
		for _, forbidden := range []string{"install", "create", "curl", "bash"} {
			if strings.Contains(line, forbidden) {
				t.Errorf("mutating call recorded: %s", line)
			}
		}
	}
}

func TestUpDryRunPerformsNoMutations(t *testing.T) {
	runner := mocks.NewCommandRunner()
	fs := mocks.NewFileSystem()
	var out bytes.Buffer
	a := newTestApp(runner, fs, &out)
	registerBareHostProbes(runner)

	err := a.Up(context.Background(), Options{
		Mode:        execution.ModeDryRun,
		Plain:       true,
		HistoryPath: "/home/u/history.yaml",
	})

	require.NoError(t, err, "dry run on a bare host must exit cleanly")
	assertNoMutations(t, runner)
	assert.Contains(t, out.String(), "would: Download and install Miniconda")
	assert.Contains(t, out.String(), "Verification")
}

func TestUpDeclinedConfirmationAborts(t *testing.T) {
	runner := mocks.NewCommandRunner()
	fs := mocks.NewFileSystem()
	var out bytes.Buffer
	a := newTestApp(runner, fs, &out)
	registerBareHostProbes(runner)

	err := a.Up(context.Background(), Options{
		Mode:        execution.ModeNormal,
		Plain:       true,
		HistoryPath: "/home/u/history.yaml",
		Confirm:     func(string) (bool, error) { return false, nil },
	})

	require.Error(t, err)
	var uerr *course.UserError
	require.ErrorAs(t, err, &uerr)
	assert.Equal(t, course.ErrCodeUserCancelled, uerr.Code)
	assertNoMutations(t, runner)
}

func TestUpAutoConfirmSatisfiedHost(t *testing.T) {
	runner := mocks.NewCommandRunner()
	fs := mocks.NewFileSystem()
	var out bytes.Buffer
	a := newTestApp(runner, fs, &out)
	registerHealthyHostProbes(runner, fs)

	err := a.Up(context.Background(), Options{
		Mode:        execution.ModeAutoConfirm,
		Plain:       true,
		HistoryPath: "/home/u/history.yaml",
	})

	require.NoError(t, err)
	assertNoMutations(t, runner)
	assert.Contains(t, out.String(), "All checks passed")

	records, err := execution.NewHistory(fs, "/home/u/history.yaml").List()
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "done", records[0].State)
	assert.Zero(t, records[0].Applied)
}

func TestUpRequiredFailureAborts(t *testing.T) {
	runner := mocks.NewCommandRunner()
	fs := mocks.NewFileSystem()
	var out bytes.Buffer
	a := newTestApp(runner, fs, &out)
	registerHealthyHostProbes(runner, fs)

	// Ghost package: manifest wants a distribution pip cannot provide.
	_ = fs.WriteFile("requirements.txt", []byte("numpy\nno-such-distribution\n"), 0o644)
	runner.AddResult(condaBin, []string{"run", "-n", "course", "pip", "install", "-r", "requirements.txt"},
		ports.CommandResult{ExitCode: 1, Stderr: "ERROR: No matching distribution found for no-such-distribution"})

	err := a.Up(context.Background(), Options{
		Mode:        execution.ModeAutoConfirm,
		Plain:       true,
		HistoryPath: "/home/u/history.yaml",
	})

	require.Error(t, err)
	var uerr *course.UserError
	require.ErrorAs(t, err, &uerr)
	assert.Equal(t, course.ErrCodeStepFailed, uerr.Code)
	// The verification phase must not run after a required failure.
	assert.NotContains(t, out.String(), "Verification")
	// Kernel registration comes after the failed install and must not run.
	assert.False(t, runner.CalledWith(condaBin, "run", "-n", "course", "python", "-m", "ipykernel"))
}

func TestUpOptionalFailureCompletesWithWarnings(t *testing.T) {
	runner := mocks.NewCommandRunner()
	fs := mocks.NewFileSystem()
	var out bytes.Buffer
	a := newTestApp(runner, fs, &out)
	registerHealthyHostProbes(runner, fs)

	// Browser cache absent, download fails. Optional step: run continues.
	_ = fs.Remove("/home/u/.cache/ms-playwright")
	runner.AddResult(condaBin, []string{"run", "-n", "course", "playwright", "install", "chromium"},
		ports.CommandResult{ExitCode: 1, Stderr: "Failed to download chromium"})

	err := a.Up(context.Background(), Options{
		Mode:        execution.ModeAutoConfirm,
		Plain:       true,
		HistoryPath: "/home/u/history.yaml",
	})

	require.NoError(t, err, "optional failure must not fail the run")
	assert.Contains(t, out.String(), "Completed with 1 warning(s)")
}

func TestUpUnsupportedPlatform(t *testing.T) {
	runner := mocks.NewCommandRunner()
	fs := mocks.NewFileSystem()
	_ = fs.WriteFile("courseboot.toml", []byte(configTOML), 0o644)
	_ = fs.WriteFile("requirements.txt", []byte("numpy\n"), 0o644)
	plat := platform.New(platform.FamilyUnsupported, "amd64", "")
	a := NewWithPorts(runner, fs, logging.NewNopLogger(), plat, testTools(), &bytes.Buffer{})

	err := a.Up(context.Background(), Options{Mode: execution.ModeDryRun, Plain: true})

	require.Error(t, err)
	var uerr *course.UserError
	require.ErrorAs(t, err, &uerr)
	assert.Equal(t, course.ErrCodeUnsupportedPlatform, uerr.Code)
}

func TestUpMissingConfig(t *testing.T) {
	a := NewWithPorts(mocks.NewCommandRunner(), mocks.NewFileSystem(), logging.NewNopLogger(),
		platform.New(platform.FamilyDebian, "amd64", "debian"), testTools(), &bytes.Buffer{})

	err := a.Up(context.Background(), Options{Mode: execution.ModeDryRun, Plain: true})

	var uerr *course.UserError
	require.ErrorAs(t, err, &uerr)
	assert.Equal(t, course.ErrCodeConfigNotFound, uerr.Code)
}

func TestExecuteWaitsForExecutorWhenDisplayExits(t *testing.T) {
	runner := mocks.NewCommandRunner()
	fs := mocks.NewFileSystem()
	var out bytes.Buffer
	a := newTestApp(runner, fs, &out)
	registerBareHostProbes(runner)

	cfg, manifest, err := a.LoadCourse(Options{})
	require.NoError(t, err)
	steps, err := a.BuildSteps(cfg, manifest)
	require.NoError(t, err)
	plan, err := execution.NewPlanner().Plan(context.Background(), steps, testTools())
	require.NoError(t, err)
	require.True(t, plan.HasChanges())

	// A cancelled context kills the progress display immediately; execute
	// must still return only after the executor goroutine has finished.
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	result := a.execute(ctx, plan, Options{Mode: execution.ModeNormal})

	assert.True(t, result.Aborted)
	assertNoMutations(t, runner)
}

func TestUpEnvNameWithSpace(t *testing.T) {
	fs := mocks.NewFileSystem()
	_ = fs.WriteFile("courseboot.toml",
		[]byte("[environment]\nname = \"my course\"\npython = \"3.11\"\n"), 0o644)
	_ = fs.WriteFile("requirements.txt", []byte("numpy\n"), 0o644)
	a := NewWithPorts(mocks.NewCommandRunner(), fs, logging.NewNopLogger(),
		platform.New(platform.FamilyDebian, "amd64", "debian"), testTools(), &bytes.Buffer{})

	err := a.Up(context.Background(), Options{Mode: execution.ModeDryRun, Plain: true})

	var uerr *course.UserError
	require.ErrorAs(t, err, &uerr)
	assert.Equal(t, course.ErrCodeConfigInvalid, uerr.Code)
}

func TestLoadCourseLegacyMakeConfig(t *testing.T) {
	fs := mocks.NewFileSystem()
	_ = fs.WriteFile("config.mk", []byte("ENV_NAME := ds101\nPYTHON_VERSION := 3.12\nCOURSE_NAME := Data Science 101\n"), 0o644)
	_ = fs.WriteFile("requirements.txt", []byte("numpy\n"), 0o644)
	a := NewWithPorts(mocks.NewCommandRunner(), fs, logging.NewNopLogger(),
		platform.New(platform.FamilyDebian, "amd64", "debian"), testTools(), &bytes.Buffer{})

	cfg, manifest, err := a.LoadCourse(Options{})

	require.NoError(t, err)
	assert.Equal(t, "ds101", cfg.Environment.Name)
	assert.Equal(t, "3.12", cfg.Environment.Python)
	assert.Equal(t, 1, manifest.Len())
}

func TestBuildStepsOrder(t *testing.T) {
	runner := mocks.NewCommandRunner()
	fs := mocks.NewFileSystem()
	a := newTestApp(runner, fs, &bytes.Buffer{})

	cfg, manifest, err := a.LoadCourse(Options{})
	require.NoError(t, err)
	cfg.Pip.IndexURL = "https://mirror.campus.edu/pypi/simple"

	steps, err := a.BuildSteps(cfg, manifest)
	require.NoError(t, err)

	ids := make([]string, len(steps))
	for i, s := range steps {
		ids[i] = s.ID().String()
	}
	assert.Equal(t, []string{
		"sysdeps:apt:prerequisites",
		"conda:install:miniconda",
		"channels:condarc:write",
		"conda:create:course",
		"pipconf:index-url:set",
		"conda:packages:course",
		"kernel:register:course",
		"browser:install:chromium",
	}, ids)
}

func TestDoctor(t *testing.T) {
	t.Run("healthy host passes", func(t *testing.T) {
		runner := mocks.NewCommandRunner()
		fs := mocks.NewFileSystem()
		var out bytes.Buffer
		a := newTestApp(runner, fs, &out)
		registerHealthyHostProbes(runner, fs)

		err := a.Doctor(context.Background(), Options{Plain: true})

		require.NoError(t, err)
		assert.Contains(t, out.String(), "All checks passed")
		assertNoMutations(t, runner)
	})

	t.Run("bare host fails", func(t *testing.T) {
		runner := mocks.NewCommandRunner()
		fs := mocks.NewFileSystem()
		a := newTestApp(runner, fs, &bytes.Buffer{})
		registerBareHostProbes(runner)

		err := a.Doctor(context.Background(), Options{Plain: true})

		var uerr *course.UserError
		require.ErrorAs(t, err, &uerr)
		assert.Equal(t, course.ErrCodeStepFailed, uerr.Code)
	})
}

func TestPlan(t *testing.T) {
	runner := mocks.NewCommandRunner()
	fs := mocks.NewFileSystem()
	var out bytes.Buffer
	a := newTestApp(runner, fs, &out)
	registerBareHostProbes(runner)

	err := a.Plan(context.Background(), Options{Mode: execution.ModeNormal, Plain: true})

	require.NoError(t, err)
	assert.Contains(t, out.String(), "conda:install:miniconda")
	assertNoMutations(t, runner)
}

func TestUpConfirmError(t *testing.T) {
	runner := mocks.NewCommandRunner()
	fs := mocks.NewFileSystem()
	a := newTestApp(runner, fs, &bytes.Buffer{})
	registerBareHostProbes(runner)

	wantErr := errors.New("stdin closed")
	err := a.Up(context.Background(), Options{
		Mode:    execution.ModeNormal,
		Plain:   true,
		Confirm: func(string) (bool, error) { return false, wantErr },
	})

	require.ErrorIs(t, err, wantErr)
}

// warnRecorder captures warning messages; everything else is a no-op.
type warnRecorder struct {
	*logging.NopLogger
	warnings []string
}

func (w *warnRecorder) Warn(_ context.Context, msg string, _ ...ports.Field) {
	w.warnings = append(w.warnings, msg)
}

// mkdirFailFS refuses directory creation, as on a read-only filesystem.
type mkdirFailFS struct {
	*mocks.FileSystem
}

func (f *mkdirFailFS) MkdirAll(string, os.FileMode) error {
	return errors.New("read-only file system")
}

func TestAppendHistoryLogsDirectoryFailure(t *testing.T) {
	fs := &mkdirFailFS{FileSystem: mocks.NewFileSystem()}
	logger := &warnRecorder{NopLogger: logging.NewNopLogger()}
	a := NewWithPorts(mocks.NewCommandRunner(), fs, logger, platform.New(platform.FamilyDebian, "amd64", "debian"), testTools(), &bytes.Buffer{})

	run, err := execution.NewRun(execution.ModeNormal)
	require.NoError(t, err)
	a.appendHistory(Options{HistoryPath: "/home/u/history.yaml"}, run, time.Now(), execution.ExecuteResult{})

	require.NotEmpty(t, logger.warnings, "mkdir failure must be logged, not swallowed")
	assert.Contains(t, logger.warnings[0], "history directory")
}
