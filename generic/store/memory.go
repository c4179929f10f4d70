// Package store provides Store implementations.
package store

import (
	"context"
	"sort"
	"sync"

	"github.com/warp/benefit-engine/generic"
)

// =============================================================================
// MEMORY STORE - In-memory implementation (for testing/dev)
// =============================================================================

type Memory struct {
	mu      sync.RWMutex
	runs    map[string]generic.Run
	records map[string][]generic.EmployeeRecord
}

func NewMemory() *Memory {
	return &Memory{
		runs:    make(map[string]generic.Run),
		records: make(map[string][]generic.EmployeeRecord),
	}
}

func (m *Memory) SaveRun(_ context.Context, run generic.Run) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.runs[run.ID] = run
	return nil
}

func (m *Memory) GetRun(_ context.Context, id string) (*generic.Run, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	run, ok := m.runs[id]
	if !ok {
		return nil, generic.ErrRunNotFound
	}
	return &run, nil
}

func (m *Memory) ListRuns(_ context.Context) ([]generic.Run, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	result := make([]generic.Run, 0, len(m.runs))
	for _, run := range m.runs {
		result = append(result, run)
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].CreatedAt.After(result[j].CreatedAt)
	})
	return result, nil
}

// SaveRecords replaces the run's records. Records are cloned so callers
// cannot mutate stored state.
func (m *Memory) SaveRecords(_ context.Context, runID string, records []generic.EmployeeRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.runs[runID]; !ok {
		return generic.ErrRunNotFound
	}
	m.records[runID] = cloneAll(records)
	return nil
}

func (m *Memory) LoadRecords(_ context.Context, runID string) ([]generic.EmployeeRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if _, ok := m.runs[runID]; !ok {
		return nil, generic.ErrRunNotFound
	}
	return cloneAll(m.records[runID]), nil
}

func cloneAll(records []generic.EmployeeRecord) []generic.EmployeeRecord {
	out := make([]generic.EmployeeRecord, len(records))
	for i, r := range records {
		out[i] = r.Clone()
	}
	return out
}

var _ generic.Store = (*Memory)(nil)
