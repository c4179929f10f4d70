/*
Package sqlite provides a SQLite-backed implementation of generic.Store.

PURPOSE:
  Staging database for benefit runs. Each run keeps its metadata, the
  audit line of every stage and the frozen per-employee table, so runs can
  be listed, re-exported and augmented by assist statements later.

KEY TABLES:
  runs:    One row per run; stage reports and summary stored as JSON
  records: Final per-employee rows, keyed by (run_id, position)

REPLACE SEMANTICS:
  SaveRecords deletes and re-inserts a run's rows inside one SQL
  transaction. Readers see either the old table or the new one.

CONCURRENCY:
  Uses sync.RWMutex around writes. ":memory:" databases are pinned to a
  single connection, otherwise each pooled connection would see its own
  empty database.

WAL MODE:
  File databases are opened with WAL: readers don't block the single writer.

USAGE:
  store, err := sqlite.New("./data/benefit.db")
  if err != nil {
      log.Fatal(err)
  }
  defer store.Close()

MIGRATION:
  Schema is auto-migrated on New().

SEE ALSO:
  - generic/store.go: Interface definition
  - generic/store/memory.go: In-memory implementation for testing
*/
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/shopspring/decimal"

	"github.com/warp/benefit-engine/generic"
)

// timeLayout has fixed-width fractions so stored timestamps sort as text.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// Store implements generic.Store using SQLite.
type Store struct {
	db *sql.DB
	mu sync.RWMutex
}

// New creates a new SQLite store with the given database path.
// Use ":memory:" for an in-memory database.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if dbPath == ":memory:" {
		db.SetMaxOpenConns(1)
	}

	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return store, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// migrate creates the database schema.
func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS runs (
		id TEXT PRIMARY KEY,
		competence TEXT NOT NULL,
		period_start TEXT NOT NULL,
		period_end TEXT NOT NULL,
		status TEXT NOT NULL DEFAULT 'pending',
		stages_json TEXT NOT NULL DEFAULT '[]',
		summary_json TEXT NOT NULL DEFAULT '{}',
		error TEXT,
		created_at TEXT NOT NULL,
		completed_at TEXT
	);

	CREATE INDEX IF NOT EXISTS idx_runs_created_at
		ON runs(created_at DESC);

	CREATE TABLE IF NOT EXISTS records (
		run_id TEXT NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
		position INTEGER NOT NULL,
		employee_id TEXT NOT NULL,
		role TEXT,
		status TEXT,
		union_name TEXT,
		region TEXT,
		admission_date TEXT,
		termination_date TEXT,
		termination_ack INTEGER,
		termination_state TEXT NOT NULL,
		vacation_days INTEGER NOT NULL DEFAULT 0,
		baseline_days INTEGER NOT NULL DEFAULT 0,
		entitled_days INTEGER NOT NULL DEFAULT 0,
		daily_rate TEXT NOT NULL,
		total TEXT NOT NULL,
		employer_cost TEXT NOT NULL,
		employee_cost TEXT NOT NULL,
		status_note TEXT,
		PRIMARY KEY (run_id, position)
	);

	-- An employee appears at most once per run
	CREATE UNIQUE INDEX IF NOT EXISTS idx_records_run_employee
		ON records(run_id, employee_id);
	`

	_, err := s.db.Exec(schema)
	return err
}

// =============================================================================
// RUNS
// =============================================================================

// SaveRun inserts or updates run metadata.
func (s *Store) SaveRun(ctx context.Context, run generic.Run) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	stagesJSON, err := json.Marshal(run.Stages)
	if err != nil {
		return fmt.Errorf("failed to encode stages: %w", err)
	}
	summaryJSON, err := json.Marshal(run.Summary)
	if err != nil {
		return fmt.Errorf("failed to encode summary: %w", err)
	}

	query := `
		INSERT INTO runs
		(id, competence, period_start, period_end, status, stages_json, summary_json,
		 error, created_at, completed_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			competence = excluded.competence,
			period_start = excluded.period_start,
			period_end = excluded.period_end,
			status = excluded.status,
			stages_json = excluded.stages_json,
			summary_json = excluded.summary_json,
			error = excluded.error,
			completed_at = excluded.completed_at
	`

	var completedAt *string
	if run.CompletedAt != nil {
		t := run.CompletedAt.UTC().Format(timeLayout)
		completedAt = &t
	}
	createdAt := run.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}

	_, err = s.db.ExecContext(ctx, query,
		run.ID,
		run.Competence,
		run.Period.Start.String(),
		run.Period.End.String(),
		string(run.Status),
		string(stagesJSON),
		string(summaryJSON),
		nullString(run.Error),
		createdAt.UTC().Format(timeLayout),
		completedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to save run: %w", err)
	}
	return nil
}

const runColumns = `id, competence, period_start, period_end, status, stages_json,
	summary_json, error, created_at, completed_at`

// GetRun returns generic.ErrRunNotFound for unknown ids.
func (s *Store) GetRun(ctx context.Context, id string) (*generic.Run, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	row := s.db.QueryRowContext(ctx, `SELECT `+runColumns+` FROM runs WHERE id = ?`, id)
	run, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, generic.ErrRunNotFound
	}
	if err != nil {
		return nil, err
	}
	return &run, nil
}

// ListRuns returns runs newest first.
func (s *Store) ListRuns(ctx context.Context) ([]generic.Run, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `SELECT `+runColumns+` FROM runs ORDER BY created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	defer rows.Close()

	var runs []generic.Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRun(row scanner) (generic.Run, error) {
	var (
		run                     generic.Run
		start, end, status      string
		stagesJSON, summaryJSON string
		runErr, completedAt     sql.NullString
		createdAt               string
	)
	err := row.Scan(&run.ID, &run.Competence, &start, &end, &status,
		&stagesJSON, &summaryJSON, &runErr, &createdAt, &completedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return run, err
		}
		return run, fmt.Errorf("failed to scan run: %w", err)
	}

	run.Status = generic.RunStatus(status)
	run.Error = runErr.String
	run.Period.Start, _ = generic.ParseISODate(start)
	run.Period.End, _ = generic.ParseISODate(end)
	run.CreatedAt, _ = time.Parse(timeLayout, createdAt)
	if completedAt.Valid {
		t, _ := time.Parse(timeLayout, completedAt.String)
		run.CompletedAt = &t
	}
	if err := json.Unmarshal([]byte(stagesJSON), &run.Stages); err != nil {
		return run, fmt.Errorf("failed to decode stages: %w", err)
	}
	if err := json.Unmarshal([]byte(summaryJSON), &run.Summary); err != nil {
		return run, fmt.Errorf("failed to decode summary: %w", err)
	}
	return run, nil
}

// =============================================================================
// RECORDS
// =============================================================================

// SaveRecords atomically replaces the records of a run.
func (s *Store) SaveRecords(ctx context.Context, runID string, records []generic.EmployeeRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sqlTx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer sqlTx.Rollback()

	if err := requireRun(ctx, sqlTx, runID); err != nil {
		return err
	}
	if _, err := sqlTx.ExecContext(ctx, `DELETE FROM records WHERE run_id = ?`, runID); err != nil {
		return fmt.Errorf("failed to clear records: %w", err)
	}

	stmt, err := sqlTx.PrepareContext(ctx, `
		INSERT INTO records
		(run_id, position, employee_id, role, status, union_name, region,
		 admission_date, termination_date, termination_ack, termination_state,
		 vacation_days, baseline_days, entitled_days,
		 daily_rate, total, employer_cost, employee_cost, status_note)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare insert: %w", err)
	}
	defer stmt.Close()

	for i, r := range records {
		_, err := stmt.ExecContext(ctx,
			runID, i, string(r.ID), r.Role, r.Status, r.UnionName, string(r.Region),
			dateString(r.AdmissionDate), dateString(r.TerminationDate), ackValue(r.TerminationAck),
			string(r.Termination),
			r.VacationDays, r.BaselineDays, r.EntitledDays,
			r.DailyRate.String(), r.Total.String(), r.EmployerCost.String(), r.EmployeeCost.String(),
			string(r.StatusNote),
		)
		if err != nil {
			return fmt.Errorf("failed to insert record %s: %w", r.ID, err)
		}
	}

	return sqlTx.Commit()
}

// LoadRecords returns records in the order they were saved.
func (s *Store) LoadRecords(ctx context.Context, runID string) ([]generic.EmployeeRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if err := requireRun(ctx, s.db, runID); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT employee_id, role, status, union_name, region,
		       admission_date, termination_date, termination_ack, termination_state,
		       vacation_days, baseline_days, entitled_days,
		       daily_rate, total, employer_cost, employee_cost, status_note
		FROM records WHERE run_id = ? ORDER BY position
	`, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to query records: %w", err)
	}
	defer rows.Close()

	records := []generic.EmployeeRecord{}
	for rows.Next() {
		r, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, r)
	}
	return records, rows.Err()
}

func scanRecord(rows *sql.Rows) (generic.EmployeeRecord, error) {
	var (
		r                                       generic.EmployeeRecord
		id, region, state                       string
		role, status, union, note               sql.NullString
		admission, termination                  sql.NullString
		ack                                     sql.NullInt64
		rate, total, employerCost, employeeCost string
	)
	err := rows.Scan(&id, &role, &status, &union, &region,
		&admission, &termination, &ack, &state,
		&r.VacationDays, &r.BaselineDays, &r.EntitledDays,
		&rate, &total, &employerCost, &employeeCost, &note)
	if err != nil {
		return r, fmt.Errorf("failed to scan record: %w", err)
	}

	r.ID = generic.EmployeeID(id)
	r.Role = role.String
	r.Status = status.String
	r.UnionName = union.String
	r.Region = generic.Region(region)
	r.AdmissionDate = parseDate(admission)
	r.TerminationDate = parseDate(termination)
	if ack.Valid {
		b := ack.Int64 == 1
		r.TerminationAck = &b
	}
	r.Termination = generic.TerminationState(state)
	r.StatusNote = generic.StatusNote(note.String)

	for _, m := range []struct {
		dst *decimal.Decimal
		src string
	}{
		{&r.DailyRate, rate},
		{&r.Total, total},
		{&r.EmployerCost, employerCost},
		{&r.EmployeeCost, employeeCost},
	} {
		d, err := decimal.NewFromString(m.src)
		if err != nil {
			return r, fmt.Errorf("record %s: invalid amount %q: %w", id, m.src, err)
		}
		*m.dst = d
	}
	return r, nil
}

// =============================================================================
// HELPERS
// =============================================================================

type queryer interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func requireRun(ctx context.Context, db queryer, runID string) error {
	var one int
	err := db.QueryRowContext(ctx, `SELECT 1 FROM runs WHERE id = ?`, runID).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return generic.ErrRunNotFound
	}
	if err != nil {
		return fmt.Errorf("failed to look up run: %w", err)
	}
	return nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func dateString(d *generic.Date) sql.NullString {
	if d == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: d.String(), Valid: true}
}

func parseDate(s sql.NullString) *generic.Date {
	if !s.Valid {
		return nil
	}
	d, err := generic.ParseISODate(s.String)
	if err != nil {
		return nil
	}
	return &d
}

func ackValue(b *bool) sql.NullInt64 {
	if b == nil {
		return sql.NullInt64{}
	}
	if *b {
		return sql.NullInt64{Int64: 1, Valid: true}
	}
	return sql.NullInt64{Int64: 0, Valid: true}
}

// Reset clears all data. Useful for testing.
func (s *Store) Reset(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx, `DELETE FROM records; DELETE FROM runs;`)
	return err
}

var _ generic.Store = (*Store)(nil)
