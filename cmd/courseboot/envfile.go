package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/felixgeelhaar/courseboot/internal/adapters/filesystem"
	"github.com/felixgeelhaar/courseboot/internal/domain/course"
)

var envfileCmd = &cobra.Command{
	Use:   "envfile",
	Short: "Render a bash config.env from a Make-style config.mk",
	Long: `Envfile converts the course's Make-style configuration (VAR := value,
with $(VAR) references) into a bash-sourceable config.env so shell scripts
and Makefiles share one set of course variables.`,
	RunE: runEnvfile,
}

var (
	envfileInput  string
	envfileOutput string
)

func init() {
	rootCmd.AddCommand(envfileCmd)

	envfileCmd.Flags().StringVarP(&envfileInput, "input", "i", "config.mk", "Make-style config to read")
	envfileCmd.Flags().StringVarP(&envfileOutput, "output", "o", "config.env", `file to write ("-" for stdout)`)
}

func runEnvfile(_ *cobra.Command, _ []string) error {
	fs := filesystem.NewRealFileSystem()

	assignments, err := course.ParseMakeConfig(fs, envfileInput)
	if err != nil {
		return err
	}
	rendered := course.RenderEnvFile(assignments)

	if envfileOutput == "-" {
		fmt.Print(rendered)
		return nil
	}
	if err := fs.WriteFile(envfileOutput, []byte(rendered), 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", envfileOutput, err)
	}
	fmt.Fprintf(os.Stdout, "Wrote %s (%d variables)\n", envfileOutput, len(assignments))
	return nil
}
