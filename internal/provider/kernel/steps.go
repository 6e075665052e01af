// Package kernel registers the course environment as a Jupyter kernel so
// notebooks pick up the right interpreter.
package kernel

import (
	"encoding/json"
	"fmt"

	"github.com/felixgeelhaar/courseboot/internal/domain/step"
	"github.com/felixgeelhaar/courseboot/internal/ports"
	"github.com/felixgeelhaar/courseboot/internal/provider/conda"
)

// kernelspecList is the JSON shape of `jupyter kernelspec list --json`.
type kernelspecList struct {
	Kernelspecs map[string]json.RawMessage `json:"kernelspecs"`
}

// ParseKernelspecs extracts registered kernel names from
// `jupyter kernelspec list --json` output.
func ParseKernelspecs(stdout string) ([]string, error) {
	var parsed kernelspecList
	if err := json.Unmarshal([]byte(stdout), &parsed); err != nil {
		return nil, fmt.Errorf("unexpected kernelspec list output: %w", err)
	}
	names := make([]string, 0, len(parsed.Kernelspecs))
	for name := range parsed.Kernelspecs {
		names = append(names, name)
	}
	return names, nil
}

// RegisterStep installs the environment's ipykernel spec for the user.
type RegisterStep struct {
	id      step.ID
	envName string
	runner  ports.CommandRunner
}

// NewRegisterStep creates the kernel registration step.
func NewRegisterStep(envName string, runner ports.CommandRunner) *RegisterStep {
	return &RegisterStep{
		id:      step.MustNewID("kernel:register:" + envName),
		envName: envName,
		runner:  runner,
	}
}

// ID returns the step identifier.
func (s *RegisterStep) ID() step.ID {
	return s.id
}

// Optional reports that the kernel registration is required.
func (s *RegisterStep) Optional() bool {
	return false
}

// Probe checks whether a kernelspec with the environment name is registered.
func (s *RegisterStep) Probe(ctx step.RunContext) (step.Status, error) {
	result, err := s.runner.Run(ctx.Context(), conda.Bin(ctx.Tools()),
		"run", "-n", s.envName, "jupyter", "kernelspec", "list", "--json")
	if err != nil || !result.Success() {
		// jupyter not installed yet; the packages step runs first.
		return step.StatusNeedsApply, nil
	}

	names, err := ParseKernelspecs(result.Stdout)
	if err != nil {
		return step.StatusUnknown, err
	}
	for _, name := range names {
		if name == s.envName {
			return step.StatusSatisfied, nil
		}
	}
	return step.StatusNeedsApply, nil
}

// Describe returns what Apply would do.
func (s *RegisterStep) Describe() string {
	return fmt.Sprintf("Register Jupyter kernel %q", s.envName)
}

// Apply registers the environment's interpreter as a user kernelspec.
func (s *RegisterStep) Apply(ctx step.RunContext) error {
	result, err := s.runner.Run(ctx.Context(), conda.Bin(ctx.Tools()),
		"run", "-n", s.envName, "python", "-m", "ipykernel", "install",
		"--user", "--name", s.envName)
	if err != nil {
		return err
	}
	if !result.Success() {
		return fmt.Errorf("ipykernel install failed: %s", result.Stderr)
	}
	return nil
}
