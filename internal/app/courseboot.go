// Package app wires the adapters, providers, and execution domain into the
// operations the CLI exposes: plan, up, and doctor.
package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/felixgeelhaar/courseboot/internal/adapters/command"
	"github.com/felixgeelhaar/courseboot/internal/adapters/filesystem"
	"github.com/felixgeelhaar/courseboot/internal/domain/course"
	"github.com/felixgeelhaar/courseboot/internal/domain/execution"
	"github.com/felixgeelhaar/courseboot/internal/domain/platform"
	"github.com/felixgeelhaar/courseboot/internal/domain/step"
	"github.com/felixgeelhaar/courseboot/internal/domain/verify"
	"github.com/felixgeelhaar/courseboot/internal/ports"
	"github.com/felixgeelhaar/courseboot/internal/provider/browser"
	"github.com/felixgeelhaar/courseboot/internal/provider/channels"
	"github.com/felixgeelhaar/courseboot/internal/provider/conda"
	"github.com/felixgeelhaar/courseboot/internal/provider/kernel"
	"github.com/felixgeelhaar/courseboot/internal/provider/pipconf"
	"github.com/felixgeelhaar/courseboot/internal/provider/sysdeps"
	"github.com/felixgeelhaar/courseboot/internal/tui"
)

// DefaultConfigPath is where the course configuration is looked up.
const DefaultConfigPath = "courseboot.toml"

// DefaultRequirementsPath is where the package manifest is looked up.
const DefaultRequirementsPath = "requirements.txt"

// LegacyConfigPath is the Make-style configuration older course repos carry.
const LegacyConfigPath = "config.mk"

// Options controls a single CLI operation.
type Options struct {
	// ConfigPath overrides the course configuration location.
	ConfigPath string
	// RequirementsPath overrides the package manifest location.
	RequirementsPath string
	// Mode is the execution mode, fixed per invocation.
	Mode execution.Mode
	// Plain disables colors and the live progress display.
	Plain bool
	// HistoryPath overrides where run records are appended.
	HistoryPath string
	// Confirm is the interactive gate asked before the first mutating step
	// in Normal mode. Nil means the caller handles confirmation elsewhere.
	Confirm func(summary string) (bool, error)
}

func (o Options) configPath() string {
	if o.ConfigPath != "" {
		return o.ConfigPath
	}
	return DefaultConfigPath
}

func (o Options) requirementsPath() string {
	if o.RequirementsPath != "" {
		return o.RequirementsPath
	}
	return DefaultRequirementsPath
}

// App bundles the wired collaborators behind the CLI operations.
type App struct {
	runner ports.CommandRunner
	fs     ports.FileSystem
	logger ports.Logger
	plat   *platform.Platform
	tools  step.Toolchain
	out    io.Writer
}

// New creates an App against the real host.
func New(out io.Writer, logger ports.Logger) *App {
	home, err := os.UserHomeDir()
	if err != nil {
		home = "."
	}

	tools := step.Toolchain{
		HomeDir:     home,
		CondaPrefix: filepath.Join(home, conda.DefaultPrefix),
	}
	if path, err := exec.LookPath("conda"); err == nil {
		tools.CondaBin = path
	}

	return &App{
		runner: command.NewRealRunner(),
		fs:     filesystem.NewRealFileSystem(),
		logger: logger,
		plat:   platform.Detect(),
		tools:  tools,
		out:    out,
	}
}

// NewWithPorts creates an App with injected collaborators, for tests.
func NewWithPorts(runner ports.CommandRunner, fs ports.FileSystem, logger ports.Logger, plat *platform.Platform, tools step.Toolchain, out io.Writer) *App {
	return &App{
		runner: runner,
		fs:     fs,
		logger: logger,
		plat:   plat,
		tools:  tools,
		out:    out,
	}
}

// Toolchain returns the resolved host toolchain.
func (a *App) Toolchain() step.Toolchain {
	return a.tools
}

// LoadCourse loads the configuration and manifest. When courseboot.toml is
// absent but a legacy config.mk sits next to it, the legacy file is imported
// instead.
func (a *App) LoadCourse(opts Options) (course.Config, *course.Manifest, error) {
	cfg, err := course.LoadConfig(a.fs, opts.configPath())
	if err != nil {
		var uerr *course.UserError
		legacy := filepath.Join(filepath.Dir(opts.configPath()), LegacyConfigPath)
		if errors.As(err, &uerr) && uerr.Code == course.ErrCodeConfigNotFound && a.fs.Exists(legacy) {
			assignments, perr := course.ParseMakeConfig(a.fs, legacy)
			if perr != nil {
				return course.Config{}, nil, perr
			}
			cfg, perr = course.ConfigFromMake(assignments)
			if perr != nil {
				return course.Config{}, nil, perr
			}
		} else {
			return course.Config{}, nil, err
		}
	}

	manifest, err := course.LoadManifest(a.fs, opts.requirementsPath())
	if err != nil {
		return course.Config{}, nil, err
	}
	return cfg, manifest, nil
}

// BuildSteps assembles the ordered bootstrap sequence for the detected
// platform. The channel file is written before the environment exists so
// conda resolves against the right channels from the first solve.
func (a *App) BuildSteps(cfg course.Config, manifest *course.Manifest) ([]step.Step, error) {
	if !a.plat.IsSupported() {
		return nil, course.NewUserError(course.ErrCodeUnsupportedPlatform,
			"this platform is not supported").
			WithContext(a.plat.String()).
			WithSuggestion("courseboot supports macOS and Debian-family Linux")
	}

	steps := make([]step.Step, 0, 8)
	switch {
	case a.plat.IsDebian():
		steps = append(steps, sysdeps.NewAptPackagesStep(sysdeps.DefaultAptPackages(), a.runner))
	case a.plat.IsMacOS():
		steps = append(steps, sysdeps.NewBrewCheckStep(a.runner))
	}

	steps = append(steps,
		conda.NewInstallStep(a.plat, a.runner, a.fs),
		channels.NewCondarcStep(cfg.Channels, a.fs),
		conda.NewEnvStep(cfg.Environment, a.runner),
	)
	if cfg.Pip.IndexURL != "" {
		steps = append(steps, pipconf.NewIndexURLStep(cfg.Pip.IndexURL, a.fs))
	}
	steps = append(steps,
		conda.NewPackagesStep(cfg.Environment.Name, manifest, a.runner),
		kernel.NewRegisterStep(cfg.Environment.Name, a.runner),
		browser.NewPlaywrightStep(cfg.Environment.Name, cfg.Browser, a.runner, a.fs),
	)
	return steps, nil
}

func (a *App) renderer(opts Options) *tui.Renderer {
	r := tui.NewRenderer()
	if opts.Plain {
		return r.Plain()
	}
	return r
}

// Plan probes all steps and prints what up would do. Nothing is mutated.
func (a *App) Plan(ctx context.Context, opts Options) error {
	cfg, manifest, err := a.LoadCourse(opts)
	if err != nil {
		return err
	}
	steps, err := a.BuildSteps(cfg, manifest)
	if err != nil {
		return err
	}

	plan, err := execution.NewPlanner().Plan(ctx, steps, a.tools)
	if err != nil {
		return err
	}

	fmt.Fprint(a.out, a.renderer(opts).RenderPlan(plan, opts.Mode))
	return nil
}

// Up runs the full bootstrap sequence: probe, confirm, apply, verify.
func (a *App) Up(ctx context.Context, opts Options) error {
	cfg, manifest, err := a.LoadCourse(opts)
	if err != nil {
		return err
	}
	steps, err := a.BuildSteps(cfg, manifest)
	if err != nil {
		return err
	}

	run, err := execution.NewRun(opts.Mode)
	if err != nil {
		return err
	}
	startedAt := time.Now()
	a.logger.Info(ctx, "run started",
		ports.F("run_id", run.ID()), ports.F("mode", opts.Mode.String()))

	plan, err := execution.NewPlanner().Plan(ctx, steps, a.tools)
	if err != nil {
		return err
	}
	run.PlanReady()

	renderer := a.renderer(opts)
	fmt.Fprint(a.out, renderer.RenderPlan(plan, opts.Mode))

	if plan.HasChanges() && opts.Mode.NeedsConfirmation() && opts.Confirm != nil {
		summary := plan.Summary()
		ok, err := opts.Confirm(fmt.Sprintf("Apply %d step(s)?", summary.NeedsApply))
		if err != nil {
			return err
		}
		if !ok {
			run.Decline()
			a.appendHistory(opts, run, startedAt, execution.ExecuteResult{})
			return course.NewUserError(course.ErrCodeUserCancelled, "aborted")
		}
	}
	run.Confirm()

	result := a.execute(ctx, plan, opts)
	fmt.Fprint(a.out, renderer.RenderResults(result))

	if result.Aborted {
		run.StepFailed()
		a.appendHistory(opts, run, startedAt, result)
		if result.AbortedAt.IsZero() {
			return course.NewUserError(course.ErrCodeUserCancelled, "aborted")
		}
		return course.NewUserError(course.ErrCodeStepFailed,
			fmt.Sprintf("step %s failed", result.AbortedAt))
	}
	run.StepsDone()

	// Verification runs its real probes in every mode, dry-run included.
	report := verify.NewChecker(a.runner, a.fs, cfg, manifest, a.tools).Check(ctx)
	fmt.Fprint(a.out, renderer.RenderReport(report))
	run.Verified()

	a.appendHistory(opts, run, startedAt, result)
	a.logger.Info(ctx, "run finished",
		ports.F("run_id", run.ID()), ports.F("state", string(run.State())),
		ports.F("warnings", result.Warnings()))

	// In dry-run nothing was applied, so a failing report is expected output,
	// not an error.
	if !report.Passed() && !opts.Mode.IsDryRun() {
		return course.NewUserError(course.ErrCodeStepFailed, "verification failed")
	}
	return nil
}

// execute runs the plan, with a live progress display unless plain or dry-run.
func (a *App) execute(ctx context.Context, plan *execution.Plan, opts Options) execution.ExecuteResult {
	executor := execution.NewExecutor().WithMode(opts.Mode)

	if opts.Plain || opts.Mode.IsDryRun() || !plan.HasChanges() {
		return executor.Execute(ctx, plan, a.tools)
	}

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	var result execution.ExecuteResult
	done := make(chan struct{})
	cancelled, err := tui.RunWithProgress(ctx, a.out, plan.Summary().NeedsApply, func(send func(tea.Msg)) {
		defer close(done)
		result = executor.
			WithOnStepStart(func(id step.ID) { send(tui.StepStartMsg{StepID: id}) }).
			WithOnStepFinished(func(r execution.StepResult) { send(tui.StepCompleteMsg{Result: r}) }).
			Execute(runCtx, plan, a.tools)
		send(tui.AllCompleteMsg{Result: result})
	})
	if err != nil {
		a.logger.Warn(ctx, "progress display unavailable", ports.F("error", err.Error()))
	}
	// When the display exits early (ctrl-C, terminal failure) the executor is
	// still running; stop it and wait before reading result.
	cancel()
	<-done
	if cancelled {
		result.Aborted = true
	}
	return result
}

// Doctor runs only the read-only verification pass.
func (a *App) Doctor(ctx context.Context, opts Options) error {
	cfg, manifest, err := a.LoadCourse(opts)
	if err != nil {
		return err
	}
	if !a.plat.IsSupported() {
		return course.NewUserError(course.ErrCodeUnsupportedPlatform,
			"this platform is not supported").
			WithContext(a.plat.String())
	}

	report := verify.NewChecker(a.runner, a.fs, cfg, manifest, a.tools).Check(ctx)
	fmt.Fprint(a.out, a.renderer(opts).RenderReport(report))

	if !report.Passed() {
		return course.NewUserError(course.ErrCodeStepFailed, "verification failed").
			WithSuggestion("run courseboot up to repair the environment")
	}
	return nil
}

// HistoryPath returns the default run-history location.
func (a *App) HistoryPath() string {
	return filepath.Join(a.tools.HomeDir, ".local", "state", "courseboot", "history.yaml")
}

func (a *App) appendHistory(opts Options, run *execution.Run, startedAt time.Time, result execution.ExecuteResult) {
	path := opts.HistoryPath
	if path == "" {
		path = a.HistoryPath()
	}
	if err := a.fs.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		a.logger.Warn(context.Background(), "failed to create history directory",
			ports.F("path", path), ports.F("error", err.Error()))
		return
	}

	rec := execution.NewRecord(run, startedAt, result)
	if err := execution.NewHistory(a.fs, path).Append(rec); err != nil {
		a.logger.Warn(context.Background(), "failed to record run history",
			ports.F("path", path), ports.F("error", err.Error()))
	}
}
