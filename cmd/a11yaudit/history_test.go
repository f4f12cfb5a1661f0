package main

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/nao1215/a11yaudit/internal/database"
	"github.com/nao1215/a11yaudit/internal/model"
)

// seedHistory records one failing and one passing run and returns the
// database directory and the failing run's ID.
func seedHistory(t *testing.T) (string, string) {
	t.Helper()

	dir := t.TempDir()
	db, err := database.Open(dir, database.DefaultOptions())
	if err != nil {
		t.Fatal(err)
	}
	defer db.Close()

	home := model.NewLocalPage("/")
	failing := model.NewReport(model.ReportMeta{
		GeneratedAt: time.Now().Add(-48 * time.Hour),
		Standard:    model.StandardWCAG21AA,
		Themes:      []model.Theme{model.ThemeLight},
		Source:      "_site",
	}, []model.AuditResult{{
		PageLabel:  home.Label(model.ThemeLight),
		Theme:      model.ThemeLight,
		Violations: imageAlt(1),
		Incomplete: []model.Violation{},
	}})
	passing := model.NewReport(model.ReportMeta{
		GeneratedAt: time.Now(),
		Standard:    model.StandardWCAG21AA,
		Themes:      []model.Theme{model.ThemeLight, model.ThemeDark},
		Source:      "https://example.com/sitemap.xml",
	}, []model.AuditResult{{
		PageLabel:  home.Label(model.ThemeLight),
		Theme:      model.ThemeLight,
		Violations: []model.Violation{},
		Incomplete: []model.Violation{},
	}})

	record, err := db.SaveRun(context.Background(), failing)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := db.SaveRun(context.Background(), passing); err != nil {
		t.Fatal(err)
	}

	return dir, record.ID
}

// runHistory executes the history command and returns its stdout.
func runHistory(t *testing.T, args ...string) (string, error) {
	t.Helper()

	cmd := NewHistoryCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(io.Discard)
	cmd.SetArgs(args)

	err := cmd.Execute()
	return out.String(), err
}

func TestHistoryCmd(t *testing.T) {
	t.Parallel()

	t.Run("lists runs newest first", func(t *testing.T) {
		t.Parallel()

		dir, _ := seedHistory(t)
		out, err := runHistory(t, "--db-dir", dir)
		if err != nil {
			t.Fatalf("history failed: %v", err)
		}

		if !strings.Contains(out, "Audit runs (2)") {
			t.Errorf("unexpected header:\n%s", out)
		}
		sitemap := strings.Index(out, "https://example.com/sitemap.xml")
		local := strings.Index(out, "_site")
		if sitemap < 0 || local < 0 || sitemap > local {
			t.Errorf("expected newest run first:\n%s", out)
		}
		if !strings.Contains(out, "PASS") || !strings.Contains(out, "FAIL") {
			t.Errorf("expected PASS and FAIL results:\n%s", out)
		}
	})

	t.Run("limit", func(t *testing.T) {
		t.Parallel()

		dir, _ := seedHistory(t)
		out, err := runHistory(t, "--db-dir", dir, "-n", "1")
		if err != nil {
			t.Fatalf("history failed: %v", err)
		}
		if !strings.Contains(out, "Audit runs (1)") {
			t.Errorf("expected one run:\n%s", out)
		}
	})

	t.Run("show by prefix as JSON", func(t *testing.T) {
		t.Parallel()

		dir, id := seedHistory(t)
		out, err := runHistory(t, "--db-dir", dir, "--show", id[:8], "--format", "json")
		if err != nil {
			t.Fatalf("history --show failed: %v", err)
		}

		var decoded map[string]any
		if err := json.Unmarshal([]byte(out), &decoded); err != nil {
			t.Fatalf("output is not JSON: %v\n%s", err, out)
		}
		if !strings.Contains(out, "image-alt") {
			t.Errorf("expected stored violation in output:\n%s", out)
		}
	})

	t.Run("show writes to stdout and output file", func(t *testing.T) {
		t.Parallel()

		dir, id := seedHistory(t)
		outputPath := filepath.Join(t.TempDir(), "old-report.txt")

		out, err := runHistory(t, "--db-dir", dir, "--show", id, "--format", "text", "-o", outputPath)
		if err != nil {
			t.Fatalf("history --show -o failed: %v", err)
		}

		saved, err := os.ReadFile(outputPath)
		if err != nil {
			t.Fatalf("report file not written: %v", err)
		}
		if string(saved) != out {
			t.Errorf("file and stdout differ:\nfile:\n%s\nstdout:\n%s", saved, out)
		}
		if !strings.Contains(out, "ACCESSIBILITY TEST REPORT") {
			t.Errorf("expected text report:\n%s", out)
		}
	})

	t.Run("show unknown run", func(t *testing.T) {
		t.Parallel()

		dir, _ := seedHistory(t)
		if _, err := runHistory(t, "--db-dir", dir, "--show", "ffffffff"); err == nil {
			t.Error("expected error for unknown run")
		}
	})

	t.Run("prune old runs", func(t *testing.T) {
		t.Parallel()

		dir, _ := seedHistory(t)
		out, err := runHistory(t, "--db-dir", dir, "--prune", "24h")
		if err != nil {
			t.Fatalf("history --prune failed: %v", err)
		}
		if !strings.Contains(out, "Deleted 1 run(s)") {
			t.Errorf("unexpected prune output:\n%s", out)
		}

		out, err = runHistory(t, "--db-dir", dir)
		if err != nil {
			t.Fatal(err)
		}
		if !strings.Contains(out, "Audit runs (1)") {
			t.Errorf("expected one remaining run:\n%s", out)
		}
	})

	t.Run("missing database", func(t *testing.T) {
		t.Parallel()

		_, err := runHistory(t, "--db-dir", t.TempDir())
		if err == nil || !strings.Contains(err.Error(), "no audit history yet") {
			t.Errorf("expected missing history error, got %v", err)
		}
	})

	t.Run("invalid format", func(t *testing.T) {
		t.Parallel()

		dir, _ := seedHistory(t)
		if _, err := runHistory(t, "--db-dir", dir, "--format", "pdf"); err == nil {
			t.Error("expected error for invalid format")
		}
	})
}
