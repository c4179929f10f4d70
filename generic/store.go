/*
store.go - Persistence interface for runs and their final tables

PURPOSE:
  Defines the interface between the pipeline and the staging database.
  The engine itself never touches a store: it threads an immutable table
  through its stages. Only the orchestrator (api, cmd/vrcalc) persists the
  outcome of a run so that it can be listed, re-exported and augmented.

KEY INTERFACES:
  Store: run metadata + final per-employee records

REPLACE SEMANTICS:
  SaveRecords replaces the full record set of a run in one transaction.
  A run's table is either the previous version or the new one, never a mix.

IMPLEMENTATIONS:
  - store/sqlite/sqlite.go: SQLite staging store
  - generic/store/memory.go: In-memory for testing

SEE ALSO:
  - run.go: Run and StageReport types
*/
package generic

import "context"

// Store persists runs and their frozen tables.
type Store interface {
	// SaveRun inserts or updates run metadata.
	SaveRun(ctx context.Context, run Run) error

	// GetRun returns ErrRunNotFound for unknown ids.
	GetRun(ctx context.Context, id string) (*Run, error)

	// ListRuns returns runs newest first.
	ListRuns(ctx context.Context) ([]Run, error)

	// SaveRecords atomically replaces the records of a run.
	SaveRecords(ctx context.Context, runID string, records []EmployeeRecord) error

	// LoadRecords returns records in the order they were saved.
	LoadRecords(ctx context.Context, runID string) ([]EmployeeRecord, error)
}
