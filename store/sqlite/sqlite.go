/*
Package sqlite persists pipeline run history.

PURPOSE:
  Every pipeline run leaves an audit trail: stage counts, verdict, the full
  findings list, and the report summary. Operators query this history to see
  what each monthly run did and why records were excluded or rejected.

KEY TABLES:
  runs: One row per pipeline run. Append-only: runs are never updated or
        deleted; a re-run is a new row.

WAL MODE:
  SQLite is opened with WAL (Write-Ahead Logging) so history reads do not
  block the writer appending a new run.

USAGE:
  store, err := sqlite.New("./data/voucher.db")
  if err != nil {
      log.Fatal(err)
  }
  defer store.Close()
  id, err := store.SaveRun(ctx, out)

SEE ALSO:
  - pipeline/coordinator.go: produces the RunOutput persisted here
  - api/handlers.go: exposes the history over HTTP
*/
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/goccy/go-json"
	_ "github.com/mattn/go-sqlite3"

	"github.com/warp/voucher-engine/benefit"
	"github.com/warp/voucher-engine/pipeline"
)

// RunRecord is one persisted pipeline run.
type RunRecord struct {
	ID         int64
	CreatedAt  time.Time
	Competence string
	Verdict    benefit.Verdict
	Counts     pipeline.StageCounts
	Findings   []benefit.Finding
	Validation []benefit.Finding
	Summary    *benefit.ReportSummary // nil when the run failed validation
}

// Store is the SQLite-backed run history.
type Store struct {
	db *sql.DB
	mu sync.RWMutex
}

// New opens (or creates) the run-history database.
// Use ":memory:" for an in-memory database.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}
	return store, nil
}

// Close closes the database connection.
func (s *Store) Close() error { return s.db.Close() }

func (s *Store) migrate() error {
	schema := `
	-- Pipeline runs (append-only history)
	CREATE TABLE IF NOT EXISTS runs (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		created_at TEXT NOT NULL,
		competence TEXT NOT NULL,
		verdict TEXT NOT NULL,
		consolidated INTEGER NOT NULL,
		eligible INTEGER NOT NULL,
		calculated INTEGER NOT NULL,
		rejected INTEGER NOT NULL,
		excluded_json TEXT NOT NULL,
		findings_json TEXT NOT NULL,
		validation_json TEXT NOT NULL,
		summary_json TEXT
	);

	CREATE INDEX IF NOT EXISTS idx_runs_competence ON runs(competence);
	CREATE INDEX IF NOT EXISTS idx_runs_created_at ON runs(created_at DESC);
	`
	_, err := s.db.Exec(schema)
	return err
}

// SaveRun appends one run to the history and returns its ID.
func (s *Store) SaveRun(ctx context.Context, out *pipeline.RunOutput) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	excludedJSON, err := json.Marshal(out.Counts.ExcludedByReason)
	if err != nil {
		return 0, fmt.Errorf("encode excluded counts: %w", err)
	}
	findingsJSON, err := json.Marshal(out.Findings)
	if err != nil {
		return 0, fmt.Errorf("encode findings: %w", err)
	}
	validationJSON, err := json.Marshal(out.Validation.Findings)
	if err != nil {
		return 0, fmt.Errorf("encode validation findings: %w", err)
	}

	var summaryJSON sql.NullString
	if out.Report != nil {
		b, err := json.Marshal(out.Report.Summary)
		if err != nil {
			return 0, fmt.Errorf("encode summary: %w", err)
		}
		summaryJSON = sql.NullString{String: string(b), Valid: true}
	}

	res, err := s.db.ExecContext(ctx, `
		INSERT INTO runs (created_at, competence, verdict, consolidated, eligible,
			calculated, rejected, excluded_json, findings_json, validation_json, summary_json)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		time.Now().UTC().Format(time.RFC3339),
		out.Period.Competence(),
		string(out.Validation.Verdict),
		out.Counts.Consolidated,
		out.Counts.Eligible,
		out.Counts.Calculated,
		out.Counts.Rejected,
		string(excludedJSON),
		string(findingsJSON),
		string(validationJSON),
		summaryJSON,
	)
	if err != nil {
		return 0, fmt.Errorf("insert run: %w", err)
	}
	return res.LastInsertId()
}

// GetRun loads one run by ID.
func (s *Store) GetRun(ctx context.Context, id int64) (*RunRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	row := s.db.QueryRowContext(ctx, `
		SELECT id, created_at, competence, verdict, consolidated, eligible,
			calculated, rejected, excluded_json, findings_json, validation_json, summary_json
		FROM runs WHERE id = ?`, id)

	rec, err := scanRun(row)
	if err != nil && errors.Is(err, sql.ErrNoRows) {
		return nil, benefit.ErrRunNotFound
	}
	return rec, err
}

// ListRuns returns the most recent runs, newest first.
func (s *Store) ListRuns(ctx context.Context, limit int) ([]RunRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, created_at, competence, verdict, consolidated, eligible,
			calculated, rejected, excluded_json, findings_json, validation_json, summary_json
		FROM runs ORDER BY id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()

	var out []RunRecord
	for rows.Next() {
		rec, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *rec)
	}
	return out, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRun(row scanner) (*RunRecord, error) {
	var (
		rec            RunRecord
		createdAt      string
		verdict        string
		excludedJSON   string
		findingsJSON   string
		validationJSON string
		summaryJSON    sql.NullString
	)
	err := row.Scan(&rec.ID, &createdAt, &rec.Competence, &verdict,
		&rec.Counts.Consolidated, &rec.Counts.Eligible, &rec.Counts.Calculated,
		&rec.Counts.Rejected, &excludedJSON, &findingsJSON, &validationJSON, &summaryJSON)
	if err != nil {
		return nil, err
	}

	rec.Verdict = benefit.Verdict(verdict)
	if t, err := time.Parse(time.RFC3339, createdAt); err == nil {
		rec.CreatedAt = t
	}
	if err := json.Unmarshal([]byte(excludedJSON), &rec.Counts.ExcludedByReason); err != nil {
		return nil, fmt.Errorf("decode excluded counts: %w", err)
	}
	if err := json.Unmarshal([]byte(findingsJSON), &rec.Findings); err != nil {
		return nil, fmt.Errorf("decode findings: %w", err)
	}
	if err := json.Unmarshal([]byte(validationJSON), &rec.Validation); err != nil {
		return nil, fmt.Errorf("decode validation findings: %w", err)
	}
	if summaryJSON.Valid {
		var summary benefit.ReportSummary
		if err := json.Unmarshal([]byte(summaryJSON.String), &summary); err != nil {
			return nil, fmt.Errorf("decode summary: %w", err)
		}
		rec.Summary = &summary
	}
	return &rec, nil
}
