package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	"github.com/felixgeelhaar/courseboot/internal/adapters/logging"
	"github.com/felixgeelhaar/courseboot/internal/app"
	"github.com/felixgeelhaar/courseboot/internal/domain/course"
	"github.com/felixgeelhaar/courseboot/internal/ports"
)

// Global flags.
var (
	verbose bool
	yesFlag bool
)

var rootCmd = &cobra.Command{
	Use:   "courseboot",
	Short: "Bootstrap a reproducible Python course environment",
	Long: `Courseboot sets up everything a course machine needs: a conda runtime,
a named environment with a pinned interpreter, the course package manifest,
channel preferences, a Jupyter kernel, and (optionally) a headless browser
for notebook PDF export.

Every step is idempotent: re-running courseboot only applies what is missing.`,
	SilenceErrors: true, // We handle error formatting ourselves
	SilenceUsage:  true, // Don't show usage on error
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
	rootCmd.PersistentFlags().BoolVarP(&yesFlag, "yes", "y", false, "auto-confirm all prompts")

	rootCmd.AddCommand(versionCmd)
}

// coursebootClient is the surface the commands need from the app layer,
// narrow so tests can substitute it.
type coursebootClient interface {
	Plan(ctx context.Context, opts app.Options) error
	Up(ctx context.Context, opts app.Options) error
	Doctor(ctx context.Context, opts app.Options) error
}

var newApp = func(out io.Writer) coursebootClient {
	level := ports.LevelWarn
	if verbose {
		level = ports.LevelDebug
	}
	logger := logging.NewConsoleLogger(
		logging.WithOutput(os.Stderr),
		logging.WithLevel(level),
	)
	return app.New(out, logger)
}

// signalContext returns a context cancelled on interrupt, so an in-flight
// external command is killed rather than orphaned.
func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt)
}

// formatError returns a user-friendly error message.
// With verbose=false: shows only the user message and suggestion.
// With verbose=true: also shows the underlying technical error.
func formatError(err error) string {
	var userErr *course.UserError
	if errors.As(err, &userErr) {
		msg := userErr.Message
		if userErr.Context != "" {
			msg += fmt.Sprintf(" (at %s)", userErr.Context)
		}
		if userErr.Suggestion != "" {
			msg += fmt.Sprintf("\n\nSuggestion: %s", userErr.Suggestion)
		}
		if verbose && userErr.Underlying != nil {
			msg += fmt.Sprintf("\n\nTechnical details: %v", userErr.Underlying)
		}
		return msg
	}
	return err.Error()
}

// printError prints an error message to stderr with proper formatting.
func printError(err error) {
	printErrorTo(os.Stderr, err)
}

// printErrorTo prints an error message to the given writer.
func printErrorTo(w io.Writer, err error) {
	_, _ = fmt.Fprintf(w, "Error: %s\n", formatError(err))
}
