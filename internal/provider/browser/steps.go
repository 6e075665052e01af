// Package browser installs the optional headless Chromium used for exporting
// notebooks to PDF. The whole step can be switched off per course config or
// with an environment variable, and never fails the run.
package browser

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/felixgeelhaar/courseboot/internal/domain/course"
	"github.com/felixgeelhaar/courseboot/internal/domain/step"
	"github.com/felixgeelhaar/courseboot/internal/ports"
	"github.com/felixgeelhaar/courseboot/internal/provider/conda"
)

// EnvNoBrowser disables the browser step for a run when set to any value.
const EnvNoBrowser = "COURSEBOOT_NO_BROWSER"

// CacheDir returns where Playwright stores downloaded browsers.
func CacheDir(homeDir string) string {
	return filepath.Join(homeDir, ".cache", "ms-playwright")
}

// PlaywrightStep installs Chromium through the environment's Playwright.
type PlaywrightStep struct {
	id      step.ID
	envName string
	cfg     course.Browser
	runner  ports.CommandRunner
	fs      ports.FileSystem
}

// NewPlaywrightStep creates the browser installation step.
func NewPlaywrightStep(envName string, cfg course.Browser, runner ports.CommandRunner, fs ports.FileSystem) *PlaywrightStep {
	return &PlaywrightStep{
		id:      step.MustNewID("browser:install:chromium"),
		envName: envName,
		cfg:     cfg,
		runner:  runner,
		fs:      fs,
	}
}

// ID returns the step identifier.
func (s *PlaywrightStep) ID() step.ID {
	return s.id
}

// Optional reports that a failed browser install downgrades to a warning.
func (s *PlaywrightStep) Optional() bool {
	return true
}

// Disabled reports whether the step is switched off for this run, either by
// course configuration or by the environment variable.
func (s *PlaywrightStep) Disabled() bool {
	if !s.cfg.Install {
		return true
	}
	return os.Getenv(EnvNoBrowser) != ""
}

// Probe checks whether Playwright's browser cache is already populated.
func (s *PlaywrightStep) Probe(ctx step.RunContext) (step.Status, error) {
	if s.fs.IsDir(CacheDir(ctx.Tools().HomeDir)) {
		return step.StatusSatisfied, nil
	}
	return step.StatusNeedsApply, nil
}

// Describe returns what Apply would do.
func (s *PlaywrightStep) Describe() string {
	return "Install headless Chromium for notebook PDF export"
}

// Apply downloads Chromium via the environment's playwright CLI.
func (s *PlaywrightStep) Apply(ctx step.RunContext) error {
	result, err := s.runner.Run(ctx.Context(), conda.Bin(ctx.Tools()),
		"run", "-n", s.envName, "playwright", "install", "chromium")
	if err != nil {
		return err
	}
	if !result.Success() {
		return fmt.Errorf("playwright install chromium failed: %s", result.Stderr)
	}
	return nil
}

// Ensure PlaywrightStep implements the disable switch.
var _ step.SkippableStep = (*PlaywrightStep)(nil)
