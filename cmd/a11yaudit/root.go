package main

import (
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/nao1215/a11yaudit/internal/log"
)

// NewRootCmd creates the root command for a11yaudit.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "a11yaudit",
		Short: "Accessibility audit for built websites",
		Long: `a11yaudit audits a built website for WCAG accessibility violations.

Pages come from a local build directory (served on a loopback port) or from
a sitemap. Every page is loaded in headless Chrome, optionally in light and
dark themes, and analyzed with axe-core. The run writes a report and exits
with status 1 when any violation is found.`,
		Version:       getVersion(),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	// Global flags that apply to all commands
	cmd.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose logging")

	cmd.AddCommand(NewAuditCmd())
	cmd.AddCommand(NewHistoryCmd())
	cmd.AddCommand(NewInitCmd())
	cmd.AddCommand(NewVersionCmd())

	return cmd
}

// Execute runs the root command.
// A run that found violations has already reported them, so it exits 1
// without printing the error again.
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		if !errors.Is(err, ErrViolationsFound) {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		}
		os.Exit(1)
	}
}

// getVerboseFlag retrieves the verbose flag from the command or its parent.
func getVerboseFlag(cmd *cobra.Command) bool {
	verbose, err := cmd.Flags().GetBool("verbose")
	if err != nil {
		verbose, err = cmd.Root().PersistentFlags().GetBool("verbose")
		if err != nil {
			return false
		}
	}
	return verbose
}

// setupLogger creates the stderr logger and installs it as the default.
func setupLogger(cmd *cobra.Command) *slog.Logger {
	logger := log.NewSecureLogger(cmd.ErrOrStderr(), getVerboseFlag(cmd))
	slog.SetDefault(logger)
	return logger
}
