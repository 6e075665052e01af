package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/felixgeelhaar/courseboot/internal/app"
	"github.com/felixgeelhaar/courseboot/internal/domain/execution"
)

var planCmd = &cobra.Command{
	Use:   "plan",
	Short: "Show what up would do without changing anything",
	RunE:  runPlan,
}

var (
	planConfigPath       string
	planRequirementsPath string
	planPlain            bool
)

func init() {
	rootCmd.AddCommand(planCmd)

	planCmd.Flags().StringVarP(&planConfigPath, "config", "c", "", "path to courseboot.toml (default: ./courseboot.toml)")
	planCmd.Flags().StringVarP(&planRequirementsPath, "requirements", "r", "", "path to requirements.txt (default: ./requirements.txt)")
	planCmd.Flags().BoolVar(&planPlain, "plain", false, "no colors")
}

func runPlan(_ *cobra.Command, _ []string) error {
	ctx, cancel := signalContext()
	defer cancel()

	client := newApp(os.Stdout)
	return client.Plan(ctx, app.Options{
		ConfigPath:       planConfigPath,
		RequirementsPath: planRequirementsPath,
		Mode:             execution.ModeDryRun,
		Plain:            planPlain,
	})
}
