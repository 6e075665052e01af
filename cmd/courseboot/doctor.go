package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/felixgeelhaar/courseboot/internal/app"
)

var doctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "Verify the course environment without changing it",
	Long: `Doctor runs only the read-only verification pass: conda runtime,
environment interpreter, course packages, channel preferences, Jupyter
kernel, and the optional headless browser.`,
	RunE: runDoctor,
}

var (
	doctorConfigPath       string
	doctorRequirementsPath string
	doctorPlain            bool
)

func init() {
	rootCmd.AddCommand(doctorCmd)

	doctorCmd.Flags().StringVarP(&doctorConfigPath, "config", "c", "", "path to courseboot.toml (default: ./courseboot.toml)")
	doctorCmd.Flags().StringVarP(&doctorRequirementsPath, "requirements", "r", "", "path to requirements.txt (default: ./requirements.txt)")
	doctorCmd.Flags().BoolVar(&doctorPlain, "plain", false, "no colors")
}

func runDoctor(_ *cobra.Command, _ []string) error {
	ctx, cancel := signalContext()
	defer cancel()

	client := newApp(os.Stdout)
	return client.Doctor(ctx, app.Options{
		ConfigPath:       doctorConfigPath,
		RequirementsPath: doctorRequirementsPath,
		Plain:            doctorPlain,
	})
}
