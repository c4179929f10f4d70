package sqlite_test

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/benefit-engine/generic"
	"github.com/warp/benefit-engine/store/sqlite"
)

func newStore(t *testing.T) *sqlite.Store {
	t.Helper()
	s, err := sqlite.New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func newRun(id string, created time.Time) generic.Run {
	return generic.Run{
		ID:         id,
		Competence: "05/2025",
		Period: generic.Period{
			Start: generic.NewDate(2025, time.April, 15),
			End:   generic.NewDate(2025, time.May, 15),
		},
		Status:    generic.RunPending,
		CreatedAt: created,
	}
}

func TestStore_RunRoundTrip(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)

	// GIVEN a completed run with stage reports
	run := newRun("r1", time.Date(2025, 5, 20, 10, 0, 0, 0, time.UTC))
	done := run.CreatedAt.Add(time.Minute)
	run.Status = generic.RunCompleted
	run.CompletedAt = &done
	run.Stages = []generic.StageReport{
		{Stage: generic.StageExclusions, Removed: map[string]int{"interns": 2, "terminations": 1}},
		{Stage: generic.StageAdmissions, Merged: 3, Created: 1},
	}
	run.Summary = generic.Summary{
		Employees:    1,
		Total:        decimal.RequireFromString("375"),
		EmployerCost: decimal.RequireFromString("300"),
		EmployeeCost: decimal.RequireFromString("75"),
	}

	// WHEN
	require.NoError(t, s.SaveRun(ctx, run))
	got, err := s.GetRun(ctx, "r1")

	// THEN
	require.NoError(t, err)
	assert.Equal(t, generic.RunCompleted, got.Status)
	assert.True(t, got.Period.Start.Equal(run.Period.Start))
	assert.True(t, got.Period.End.Equal(run.Period.End))
	require.NotNil(t, got.CompletedAt)
	assert.True(t, got.CompletedAt.Equal(done))
	require.Len(t, got.Stages, 2)
	assert.Equal(t, 3, got.Stages[0].TotalRemoved())
	assert.Equal(t, 3, got.Stages[1].Merged)
	assert.True(t, got.Summary.Total.Equal(decimal.RequireFromString("375")))
}

func TestStore_SaveRunUpdates(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)

	run := newRun("r1", time.Now())
	require.NoError(t, s.SaveRun(ctx, run))

	run.Status = generic.RunFailed
	run.Error = "active roster: required source missing"
	require.NoError(t, s.SaveRun(ctx, run))

	got, err := s.GetRun(ctx, "r1")
	require.NoError(t, err)
	assert.Equal(t, generic.RunFailed, got.Status)
	assert.Equal(t, run.Error, got.Error)

	runs, err := s.ListRuns(ctx)
	require.NoError(t, err)
	assert.Len(t, runs, 1)
}

func TestStore_ListRunsNewestFirst(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)
	base := time.Date(2025, 5, 20, 10, 0, 0, 0, time.UTC)

	require.NoError(t, s.SaveRun(ctx, newRun("old", base)))
	require.NoError(t, s.SaveRun(ctx, newRun("new", base.Add(1500*time.Millisecond))))
	require.NoError(t, s.SaveRun(ctx, newRun("mid", base.Add(100*time.Millisecond))))

	runs, err := s.ListRuns(ctx)

	require.NoError(t, err)
	require.Len(t, runs, 3)
	assert.Equal(t, []string{"new", "mid", "old"}, []string{runs[0].ID, runs[1].ID, runs[2].ID})
}

func TestStore_GetRunNotFound(t *testing.T) {
	_, err := newStore(t).GetRun(context.Background(), "missing")

	assert.ErrorIs(t, err, generic.ErrRunNotFound)
	assert.True(t, generic.IsNotFound(err))
}

func TestStore_RecordsReplace(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)
	require.NoError(t, s.SaveRun(ctx, newRun("r1", time.Now())))

	// GIVEN a record with every optional field populated
	ack := true
	a := generic.NewEmployeeRecord("100")
	a.UnionName = "SINDPD SP"
	a.Region = "SP"
	a.AdmissionDate = generic.DatePtr(generic.NewDate(2025, time.May, 2))
	a.TerminationDate = generic.DatePtr(generic.NewDate(2025, time.May, 20))
	a.TerminationAck = &ack
	a.Termination = generic.TerminationPostCutoff
	a.BaselineDays = 22
	a.EntitledDays = 10
	a.DailyRate = decimal.RequireFromString("37.50")
	a.Total = decimal.RequireFromString("375.00")
	a.StatusNote = generic.NoteAdmissionInMonth

	b := generic.NewEmployeeRecord("200")

	// WHEN
	require.NoError(t, s.SaveRecords(ctx, "r1", []generic.EmployeeRecord{a, b}))
	got, err := s.LoadRecords(ctx, "r1")

	// THEN order and fields survive
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, generic.EmployeeID("100"), got[0].ID)
	assert.Equal(t, generic.EmployeeID("200"), got[1].ID)
	require.NotNil(t, got[0].AdmissionDate)
	assert.Equal(t, "2025-05-02", got[0].AdmissionDate.String())
	require.NotNil(t, got[0].TerminationAck)
	assert.True(t, *got[0].TerminationAck)
	assert.Equal(t, generic.TerminationPostCutoff, got[0].Termination)
	assert.True(t, got[0].DailyRate.Equal(decimal.RequireFromString("37.5")))
	assert.Nil(t, got[1].AdmissionDate)
	assert.Nil(t, got[1].TerminationAck)

	// AND a second save replaces instead of appending
	b.StatusNote = "reviewed"
	require.NoError(t, s.SaveRecords(ctx, "r1", []generic.EmployeeRecord{b}))
	got, err = s.LoadRecords(ctx, "r1")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, generic.StatusNote("reviewed"), got[0].StatusNote)
}

func TestStore_RecordsDuplicateRollsBack(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)
	require.NoError(t, s.SaveRun(ctx, newRun("r1", time.Now())))
	require.NoError(t, s.SaveRecords(ctx, "r1", []generic.EmployeeRecord{generic.NewEmployeeRecord("1")}))

	// WHEN the replacement violates the one-row-per-employee index
	dup := generic.NewEmployeeRecord("2")
	err := s.SaveRecords(ctx, "r1", []generic.EmployeeRecord{dup, dup})

	// THEN the previous table is intact
	require.Error(t, err)
	got, err := s.LoadRecords(ctx, "r1")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, generic.EmployeeID("1"), got[0].ID)
}

func TestStore_RecordsUnknownRun(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)

	assert.ErrorIs(t, s.SaveRecords(ctx, "nope", nil), generic.ErrRunNotFound)
	_, err := s.LoadRecords(ctx, "nope")
	assert.ErrorIs(t, err, generic.ErrRunNotFound)
}

func TestStore_Reset(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)
	require.NoError(t, s.SaveRun(ctx, newRun("r1", time.Now())))

	require.NoError(t, s.Reset(ctx))

	runs, err := s.ListRuns(ctx)
	require.NoError(t, err)
	assert.Empty(t, runs)
}
