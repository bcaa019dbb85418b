package journal

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"
)

// FileName is the database file created inside the checkpoint directory.
const FileName = "history.db"

// Entry is one journaled operation.
type Entry struct {
	ID         int64
	RunID      string
	Operation  string
	Checkpoint string
	Outcome    string
	Files      int
	Detail     string
	CreatedAt  time.Time
}

// Journal is the operation history store.
type Journal struct {
	db   *sql.DB
	path string
}

// Open connects to (creating if needed) the journal inside dir and applies
// migrations.
func Open(ctx context.Context, dir string) (*Journal, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("ensure journal directory: %w", err)
	}

	dbPath := filepath.Join(dir, FileName)
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.ExecContext(ctx, pragma); execErr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}

	j := &Journal{db: db, path: dbPath}
	if err := j.applyMigrations(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return j, nil
}

// Path returns the database location.
func (j *Journal) Path() string { return j.path }

// Close closes the underlying database connection.
func (j *Journal) Close() error {
	if j == nil || j.db == nil {
		return nil
	}
	return j.db.Close()
}

// Record appends an entry and returns it with ID and timestamp assigned.
func (j *Journal) Record(ctx context.Context, entry Entry) (Entry, error) {
	if strings.TrimSpace(entry.Operation) == "" {
		return Entry{}, errors.New("journal entry requires an operation")
	}
	if strings.TrimSpace(entry.Outcome) == "" {
		entry.Outcome = "ok"
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}

	res, err := j.db.ExecContext(
		ctx,
		`INSERT INTO operations (run_id, operation, checkpoint, outcome, files, detail, created_at)
         VALUES (?, ?, ?, ?, ?, ?, ?)`,
		entry.RunID,
		entry.Operation,
		nullableString(entry.Checkpoint),
		entry.Outcome,
		entry.Files,
		nullableString(entry.Detail),
		entry.CreatedAt.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return Entry{}, fmt.Errorf("insert operation: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return Entry{}, fmt.Errorf("last insert id: %w", err)
	}
	entry.ID = id
	return entry, nil
}

// List returns the most recent entries, newest first. A limit of zero or less
// returns every entry.
func (j *Journal) List(ctx context.Context, limit int) ([]Entry, error) {
	query := `SELECT ` + entryColumns + ` FROM operations ORDER BY id DESC`
	args := []any{}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}
	return j.query(ctx, query, args...)
}

// ForCheckpoint returns the entries naming checkpoint, oldest first.
func (j *Journal) ForCheckpoint(ctx context.Context, checkpoint string) ([]Entry, error) {
	return j.query(ctx, `SELECT `+entryColumns+` FROM operations WHERE checkpoint = ? ORDER BY id`, checkpoint)
}

const entryColumns = `id, run_id, operation, checkpoint, outcome, files, detail, created_at`

func (j *Journal) query(ctx context.Context, query string, args ...any) ([]Entry, error) {
	rows, err := j.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query operations: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var (
			entry      Entry
			checkpoint sql.NullString
			detail     sql.NullString
			createdAt  string
		)
		if err := rows.Scan(&entry.ID, &entry.RunID, &entry.Operation, &checkpoint, &entry.Outcome, &entry.Files, &detail, &createdAt); err != nil {
			return nil, fmt.Errorf("scan operation: %w", err)
		}
		entry.Checkpoint = checkpoint.String
		entry.Detail = detail.String
		if ts, err := time.Parse(time.RFC3339Nano, createdAt); err == nil {
			entry.CreatedAt = ts
		}
		entries = append(entries, entry)
	}
	return entries, rows.Err()
}

func nullableString(value string) any {
	if strings.TrimSpace(value) == "" {
		return nil
	}
	return value
}
