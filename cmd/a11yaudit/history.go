package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/nao1215/a11yaudit/internal/config"
	"github.com/nao1215/a11yaudit/internal/database"
	"github.com/nao1215/a11yaudit/internal/report"
)

// defaultHistoryLimit is the number of runs listed by default.
const defaultHistoryLimit = 20

// NewHistoryCmd creates the history command.
func NewHistoryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "List recorded audit runs",
		Long: `History lists the audit runs recorded in the local history database
(` + config.XDGDataDir() + `).

Examples:
  # List the 20 most recent runs
  a11yaudit history

  # Print a stored report as Markdown (full ID or unique prefix)
  a11yaudit history --show 3f2a9c1e

  # Print a stored report as JSON
  a11yaudit history --show 3f2a9c1e --format json

  # Print a stored report and also save it to a file
  a11yaudit history --show 3f2a9c1e --format text -o old-report.txt

  # Delete runs older than 30 days
  a11yaudit history --prune 720h`,
		Args: cobra.NoArgs,
		RunE: runHistoryCmd,
	}

	cmd.Flags().IntP("limit", "n", defaultHistoryLimit, "Number of runs to list (0 = all)")
	cmd.Flags().String("show", "", "Print the report of the run with this ID or ID prefix")
	cmd.Flags().StringP("format", "f", string(report.FormatMarkdown), "Format for --show: markdown, json, text")
	cmd.Flags().StringP("output", "o", "", "With --show, also write the report to this file")
	cmd.Flags().Duration("prune", 0, "Delete runs older than this duration")
	cmd.Flags().String("db-dir", config.XDGDataDir(), "History database directory")

	return cmd
}

// runHistoryCmd executes the history command.
func runHistoryCmd(cmd *cobra.Command, _ []string) error {
	logger := setupLogger(cmd)

	flags := cmd.Flags()
	limit, err := flags.GetInt("limit")
	if err != nil {
		return err
	}
	show, err := flags.GetString("show")
	if err != nil {
		return err
	}
	formatName, err := flags.GetString("format")
	if err != nil {
		return err
	}
	outputPath, err := flags.GetString("output")
	if err != nil {
		return err
	}
	prune, err := flags.GetDuration("prune")
	if err != nil {
		return err
	}
	dbDir, err := flags.GetString("db-dir")
	if err != nil {
		return err
	}

	format, err := report.ParseFormat(formatName)
	if err != nil {
		return err
	}

	db, err := database.Open(dbDir, database.Options{CreateIfNotExists: false, EnableWAL: true})
	if err != nil {
		return fmt.Errorf("no audit history yet (run 'a11yaudit audit' first): %w", err)
	}
	defer db.Close()
	logger.Debug("history database opened", "path", db.Path())

	ctx := cmd.Context()
	out := cmd.OutOrStdout()

	switch {
	case prune > 0:
		return pruneRuns(ctx, out, db, time.Now().Add(-prune))
	case show != "":
		return showRun(ctx, out, db, show, format, outputPath, getVerboseFlag(cmd))
	default:
		return listRuns(ctx, out, db, limit)
	}
}

// listRuns prints the most recent runs.
func listRuns(ctx context.Context, out io.Writer, db *database.RunDB, limit int) error {
	records, err := db.ListRuns(ctx, limit)
	if err != nil {
		return err
	}

	if len(records) == 0 {
		fmt.Fprintln(out, "No audit runs recorded.")
		return nil
	}

	pass := color.New(color.FgGreen)
	fail := color.New(color.FgRed)

	fmt.Fprintf(out, "Audit runs (%d):\n\n", len(records))
	fmt.Fprintf(out, "  %-8s  %-20s  %-9s  %-6s  %7s  %10s  %s\n",
		"ID", "Date", "Standard", "Result", "Pages", "Violations", "Source")
	for _, r := range records {
		result := pass.Sprintf("%-6s", "PASS")
		if r.TotalViolations > 0 {
			result = fail.Sprintf("%-6s", "FAIL")
		}
		fmt.Fprintf(out, "  %-8s  %-20s  %-9s  %s  %7d  %10d  %s\n",
			r.ShortID(),
			r.Timestamp.Local().Format("2006-01-02 15:04:05"),
			r.Standard,
			result,
			r.TotalResults,
			r.TotalViolations,
			r.Source,
		)
	}

	return nil
}

// showRun renders a stored report to out and, when outputPath is set,
// to that file as well.
func showRun(
	ctx context.Context,
	out io.Writer,
	db *database.RunDB,
	id string,
	format report.Format,
	outputPath string,
	verbose bool,
) error {
	rep, err := db.GetRun(ctx, id)
	if err != nil {
		return err
	}

	if outputPath == "" {
		_, err = report.NewWriter(format, out, verbose).Write(rep)
		return err
	}

	file, err := os.OpenFile(filepath.Clean(outputPath), os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o600)
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}

	w := report.NewMultiWriter(
		report.NewWriter(format, out, verbose),
		report.NewWriter(format, file, verbose),
	)
	if _, err := w.Write(rep); err != nil {
		_ = file.Close()
		return fmt.Errorf("failed to write report: %w", err)
	}
	if err := file.Close(); err != nil {
		return fmt.Errorf("failed to close output file: %w", err)
	}
	return nil
}

// pruneRuns deletes runs older than cutoff.
func pruneRuns(ctx context.Context, out io.Writer, db *database.RunDB, cutoff time.Time) error {
	deleted, err := db.DeleteRunsBefore(ctx, cutoff)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "Deleted %d run(s) recorded before %s\n", deleted, cutoff.Format(time.RFC3339))
	return nil
}
