// Package sysdeps provides the platform-prerequisite steps that run before
// the Python toolchain is touched: apt packages on Debian-family hosts and a
// Homebrew presence check on macOS.
package sysdeps

import (
	"fmt"
	"strings"

	"github.com/felixgeelhaar/courseboot/internal/domain/step"
	"github.com/felixgeelhaar/courseboot/internal/ports"
)

// DefaultAptPackages are the system packages the installer scripts depend on.
func DefaultAptPackages() []string {
	return []string{"wget", "bzip2", "ca-certificates"}
}

// AptPackagesStep installs required apt packages on Debian-family hosts.
type AptPackagesStep struct {
	id       step.ID
	packages []string
	runner   ports.CommandRunner
}

// NewAptPackagesStep creates the apt prerequisite step.
func NewAptPackagesStep(packages []string, runner ports.CommandRunner) *AptPackagesStep {
	return &AptPackagesStep{
		id:       step.MustNewID("sysdeps:apt:prerequisites"),
		packages: packages,
		runner:   runner,
	}
}

// ID returns the step identifier.
func (s *AptPackagesStep) ID() step.ID {
	return s.id
}

// Optional reports that missing system packages abort the sequence.
func (s *AptPackagesStep) Optional() bool {
	return false
}

// Probe checks each package's dpkg status.
func (s *AptPackagesStep) Probe(ctx step.RunContext) (step.Status, error) {
	for _, pkg := range s.packages {
		result, err := s.runner.Run(ctx.Context(), "dpkg-query", "-W", "-f=${db:Status-Status}", pkg)
		if err != nil {
			return step.StatusUnknown, err
		}
		// dpkg-query exits 1 for unknown packages.
		if !result.Success() || !strings.Contains(result.Stdout, "installed") {
			return step.StatusNeedsApply, nil
		}
	}
	return step.StatusSatisfied, nil
}

// Describe returns what Apply would do.
func (s *AptPackagesStep) Describe() string {
	return "Install system packages: " + strings.Join(s.packages, ", ")
}

// Apply installs all listed packages in one apt-get invocation.
func (s *AptPackagesStep) Apply(ctx step.RunContext) error {
	args := append([]string{"apt-get", "install", "-y"}, s.packages...)
	result, err := s.runner.Run(ctx.Context(), "sudo", args...)
	if err != nil {
		return err
	}
	if !result.Success() {
		return fmt.Errorf("apt-get install failed: %s", result.Stderr)
	}
	return nil
}

// BrewCheckStep verifies Homebrew is present on macOS. courseboot does not
// install Homebrew itself; a missing installation is surfaced as a warning
// with instructions.
type BrewCheckStep struct {
	id     step.ID
	runner ports.CommandRunner
}

// NewBrewCheckStep creates the Homebrew presence check.
func NewBrewCheckStep(runner ports.CommandRunner) *BrewCheckStep {
	return &BrewCheckStep{
		id:     step.MustNewID("sysdeps:brew:present"),
		runner: runner,
	}
}

// ID returns the step identifier.
func (s *BrewCheckStep) ID() step.ID {
	return s.id
}

// Optional reports that a missing Homebrew downgrades to a warning.
func (s *BrewCheckStep) Optional() bool {
	return true
}

// Probe checks whether brew responds.
func (s *BrewCheckStep) Probe(ctx step.RunContext) (step.Status, error) {
	result, err := s.runner.Run(ctx.Context(), "brew", "--version")
	if err != nil {
		// exec failure means brew is not on PATH.
		return step.StatusNeedsApply, nil
	}
	if result.Success() {
		return step.StatusSatisfied, nil
	}
	return step.StatusNeedsApply, nil
}

// Describe returns what Apply would do.
func (s *BrewCheckStep) Describe() string {
	return "Verify Homebrew is installed"
}

// Apply cannot install Homebrew non-interactively; it reports how to.
func (s *BrewCheckStep) Apply(_ step.RunContext) error {
	return fmt.Errorf("Homebrew is not installed; install it from https://brew.sh and re-run")
}
