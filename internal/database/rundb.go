package database

import (
	"context"
	"database/sql"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/sha3"
	_ "modernc.org/sqlite" // SQLite driver

	"github.com/nao1215/a11yaudit/internal/model"
)

// DBFileName is the history database file name.
const DBFileName = "a11yaudit.db"

// timestampLayout is fixed-width so timestamps sort chronologically as text.
const timestampLayout = "2006-01-02T15:04:05.000000000Z07:00"

// History lookup errors.
var (
	// ErrRunNotFound is returned when no run matches an ID.
	ErrRunNotFound = errors.New("run not found")

	// ErrAmbiguousRunID is returned when an ID prefix matches several runs.
	ErrAmbiguousRunID = errors.New("run ID prefix matches more than one run")

	// ErrCorruptRun is returned when a stored report no longer matches
	// the digest recorded when it was saved.
	ErrCorruptRun = errors.New("stored report does not match its digest")
)

// RunDB stores the reports of past audit runs.
//
// Design decision: We store the complete report JSON next to a handful of
// summary columns. Listing runs reads only the columns, and any stored
// report can be rendered again in every output format.
type RunDB struct {
	// db is the underlying SQL database connection.
	db *sql.DB

	// dbPath is the path to the SQLite database file.
	dbPath string
}

// Options configures RunDB behavior.
type Options struct {
	// CreateIfNotExists creates the database file if it doesn't exist.
	CreateIfNotExists bool

	// EnableWAL enables Write-Ahead Logging for better concurrent performance.
	EnableWAL bool
}

// DefaultOptions returns the default database options.
func DefaultOptions() Options {
	return Options{
		CreateIfNotExists: true,
		EnableWAL:         true,
	}
}

// Open opens or creates a RunDB in dbDir.
// If CreateIfNotExists is false and the database doesn't exist, an error is returned.
func Open(dbDir string, opts Options) (*RunDB, error) {
	dbPath := filepath.Join(dbDir, DBFileName)

	if !opts.CreateIfNotExists {
		if _, err := os.Stat(dbPath); os.IsNotExist(err) {
			return nil, fmt.Errorf("database not found at %s", dbPath)
		} else if err != nil {
			return nil, fmt.Errorf("failed to check database path: %w", err)
		}
	} else {
		if err := os.MkdirAll(dbDir, 0750); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	// mode=rw refuses to create a new file, mode=rwc allows it.
	dsn := dbPath + "?mode=rw"
	if opts.CreateIfNotExists {
		dsn = dbPath + "?mode=rwc"
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db.SetMaxOpenConns(1) // SQLite only supports one writer
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(time.Hour)

	rdb := &RunDB{
		db:     db,
		dbPath: dbPath,
	}

	if opts.EnableWAL {
		if _, err := db.ExecContext(context.Background(), "PRAGMA journal_mode=WAL"); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
		}
	}

	if err := rdb.createTables(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}

	return rdb, nil
}

// Path returns the database file path.
func (rdb *RunDB) Path() string {
	return rdb.dbPath
}

// Close closes the database connection.
func (rdb *RunDB) Close() error {
	return rdb.db.Close()
}

// createTables creates the database schema if it doesn't exist.
func (rdb *RunDB) createTables() error {
	schema := `
	CREATE TABLE IF NOT EXISTS runs (
		id TEXT PRIMARY KEY,
		timestamp TEXT NOT NULL,
		standard TEXT NOT NULL,
		themes TEXT NOT NULL,
		source TEXT,
		total_results INTEGER NOT NULL,
		total_violations INTEGER NOT NULL,
		pages_with_issues INTEGER NOT NULL,
		clean_pages INTEGER NOT NULL,
		errored_pages INTEGER NOT NULL,
		report_json TEXT NOT NULL,
		report_hash TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_runs_timestamp ON runs(timestamp);
	`

	_, err := rdb.db.ExecContext(context.Background(), schema)
	return err
}

// RunRecord summarizes one stored run.
type RunRecord struct {
	// ID is the run's UUID.
	ID string

	// Timestamp is when the report was generated.
	Timestamp time.Time

	// Standard is the tested WCAG level.
	Standard model.Standard

	// Themes lists the audited themes.
	Themes []model.Theme

	// Source is the site directory or sitemap URL.
	Source string

	// TotalResults is the number of page×theme audits.
	TotalResults int

	// TotalViolations is the number of violation instances.
	TotalViolations int

	// PagesWithIssues, CleanPages and ErroredPages partition TotalResults.
	PagesWithIssues int
	CleanPages      int
	ErroredPages    int

	// ReportHash is the hex SHA3-256 digest of the stored report JSON.
	ReportHash string
}

// ShortID returns the first eight characters of the run ID.
func (r RunRecord) ShortID() string {
	if len(r.ID) <= 8 {
		return r.ID
	}
	return r.ID[:8]
}

// Digest returns the hex SHA3-256 digest of data.
func Digest(data []byte) string {
	sum := sha3.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// SaveRun stores a report and returns its record.
func (rdb *RunDB) SaveRun(ctx context.Context, report *model.Report) (*RunRecord, error) {
	reportJSON, err := json.Marshal(report)
	if err != nil {
		return nil, fmt.Errorf("failed to serialize report: %w", err)
	}

	themes := make([]string, len(report.Themes))
	for i, t := range report.Themes {
		themes[i] = t.String()
	}

	record := &RunRecord{
		ID:              uuid.NewString(),
		Timestamp:       report.GeneratedAt.UTC(),
		Standard:        report.Standard,
		Themes:          report.Themes,
		Source:          report.Source,
		TotalResults:    report.TotalResults,
		TotalViolations: report.TotalViolations,
		PagesWithIssues: report.PagesWithIssues,
		CleanPages:      report.CleanPages,
		ErroredPages:    report.ErroredPages,
		ReportHash:      Digest(reportJSON),
	}

	query := `
	INSERT INTO runs (id, timestamp, standard, themes, source, total_results, total_violations,
		pages_with_issues, clean_pages, errored_pages, report_json, report_hash)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err = rdb.db.ExecContext(ctx, query,
		record.ID,
		record.Timestamp.Format(timestampLayout),
		string(record.Standard),
		strings.Join(themes, ","),
		record.Source,
		record.TotalResults,
		record.TotalViolations,
		record.PagesWithIssues,
		record.CleanPages,
		record.ErroredPages,
		string(reportJSON),
		record.ReportHash,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to save run: %w", err)
	}

	return record, nil
}

// ListRuns returns the most recent runs first. limit <= 0 returns all runs.
func (rdb *RunDB) ListRuns(ctx context.Context, limit int) ([]RunRecord, error) {
	query := `
	SELECT id, timestamp, standard, themes, source, total_results, total_violations,
		pages_with_issues, clean_pages, errored_pages, report_hash
	FROM runs
	ORDER BY timestamp DESC, rowid DESC
	`
	args := []any{}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := rdb.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	defer rows.Close()

	records := make([]RunRecord, 0)
	for rows.Next() {
		var (
			record    RunRecord
			timestamp string
			standard  string
			themes    string
			source    sql.NullString
		)
		if err := rows.Scan(
			&record.ID,
			&timestamp,
			&standard,
			&themes,
			&source,
			&record.TotalResults,
			&record.TotalViolations,
			&record.PagesWithIssues,
			&record.CleanPages,
			&record.ErroredPages,
			&record.ReportHash,
		); err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}

		record.Timestamp = parseTimestamp(timestamp)
		record.Standard = model.Standard(standard)
		record.Themes = splitThemes(themes)
		record.Source = source.String
		records = append(records, record)
	}

	return records, rows.Err()
}

// GetRun loads the report of a run by full ID or unique ID prefix.
// The stored JSON is checked against its digest before decoding.
func (rdb *RunDB) GetRun(ctx context.Context, id string) (*model.Report, error) {
	id = strings.TrimSpace(id)
	if id == "" || strings.ContainsAny(id, "%_") {
		return nil, fmt.Errorf("%w: %q", ErrRunNotFound, id)
	}

	query := `
	SELECT report_json, report_hash FROM runs
	WHERE id LIKE ? || '%'
	LIMIT 2
	`

	rows, err := rdb.db.QueryContext(ctx, query, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get run: %w", err)
	}
	defer rows.Close()

	type stored struct {
		json string
		hash string
	}
	matches := make([]stored, 0, 2)
	for rows.Next() {
		var s stored
		if err := rows.Scan(&s.json, &s.hash); err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		matches = append(matches, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to get run: %w", err)
	}

	switch len(matches) {
	case 0:
		return nil, fmt.Errorf("%w: %s", ErrRunNotFound, id)
	case 1:
	default:
		return nil, fmt.Errorf("%w: %s", ErrAmbiguousRunID, id)
	}

	if Digest([]byte(matches[0].json)) != matches[0].hash {
		return nil, fmt.Errorf("%w: %s", ErrCorruptRun, id)
	}

	var report model.Report
	if err := json.Unmarshal([]byte(matches[0].json), &report); err != nil {
		return nil, fmt.Errorf("failed to parse report: %w", err)
	}

	return &report, nil
}

// DeleteRunsBefore removes runs generated before cutoff and returns how
// many were deleted.
func (rdb *RunDB) DeleteRunsBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := rdb.db.ExecContext(ctx,
		`DELETE FROM runs WHERE timestamp < ?`,
		cutoff.UTC().Format(timestampLayout),
	)
	if err != nil {
		return 0, fmt.Errorf("failed to prune runs: %w", err)
	}
	return res.RowsAffected()
}

// splitThemes parses the comma-separated themes column.
func splitThemes(s string) []model.Theme {
	if s == "" {
		return []model.Theme{}
	}
	parts := strings.Split(s, ",")
	themes := make([]model.Theme, len(parts))
	for i, p := range parts {
		themes[i] = model.Theme(p)
	}
	return themes
}

// timestampFormats contains the timestamp formats that SQLite may return.
// The order matters: more specific formats should come first.
var timestampFormats = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02 15:04:05",     // SQLite default datetime format
	"2006-01-02T15:04:05",     // ISO 8601 without timezone
	"2006-01-02 15:04:05.999", // SQLite with milliseconds
}

// parseTimestamp attempts to parse a timestamp string using multiple formats.
// If parsing fails with all formats, returns zero time.
func parseTimestamp(s string) time.Time {
	for _, format := range timestampFormats {
		if t, err := time.Parse(format, s); err == nil {
			return t
		}
	}
	return time.Time{}
}
