package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/felixgeelhaar/courseboot/internal/app"
	"github.com/felixgeelhaar/courseboot/internal/domain/execution"
)

var upCmd = &cobra.Command{
	Use:   "up",
	Short: "Install or repair the course environment",
	Long: `Up runs the full bootstrap sequence:

1. Probes every step to see what is missing
2. Shows the plan and asks for confirmation
3. Applies the missing steps in order
4. Verifies the finished environment

Use --dry-run to see what would happen without changing anything.`,
	RunE: runUp,
}

var (
	upConfigPath       string
	upRequirementsPath string
	upDryRun           bool
	upPlain            bool
)

func init() {
	rootCmd.AddCommand(upCmd)

	upCmd.Flags().StringVarP(&upConfigPath, "config", "c", "", "path to courseboot.toml (default: ./courseboot.toml)")
	upCmd.Flags().StringVarP(&upRequirementsPath, "requirements", "r", "", "path to requirements.txt (default: ./requirements.txt)")
	upCmd.Flags().BoolVar(&upDryRun, "dry-run", false, "show what would be done without making changes")
	upCmd.Flags().BoolVar(&upPlain, "plain", false, "no colors or live progress")
}

func runUp(_ *cobra.Command, _ []string) error {
	ctx, cancel := signalContext()
	defer cancel()

	mode := execution.ModeNormal
	switch {
	case upDryRun:
		mode = execution.ModeDryRun
	case yesFlag:
		mode = execution.ModeAutoConfirm
	}

	client := newApp(os.Stdout)
	return client.Up(ctx, app.Options{
		ConfigPath:       upConfigPath,
		RequirementsPath: upRequirementsPath,
		Mode:             mode,
		Plain:            upPlain,
		Confirm:          confirmApply,
	})
}
