package benefit_test

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/benefit-engine/benefit"
	"github.com/warp/benefit-engine/factory"
	"github.com/warp/benefit-engine/generic"
	"github.com/warp/benefit-engine/region"
	"github.com/warp/benefit-engine/source"
)

// =============================================================================
// TEST HELPERS
// =============================================================================

const (
	unionSP = "SINDPD SP - SIND.TRAB.EM PROC DADOS E EMPR.EMPRESAS PROC DADOS ESTADO DE SP"
	unionRJ = "SINDPD RJ - SINDICATO PROFISSIONAIS DE PROC DADOS DO RIO DE JANEIRO"
)

// aprilMay is the 2025-04-15..2025-05-15 competence period.
func aprilMay() generic.Period {
	return generic.Period{
		Start: generic.NewDate(2025, time.April, 15),
		End:   generic.NewDate(2025, time.May, 15),
	}
}

// regions is the default preset with Labour Day as a national holiday, so
// the period has 22 business days everywhere.
func regions() *region.Table {
	t := factory.DefaultTable()
	t.AddHoliday(generic.Unresolved, generic.NewDate(2025, time.May, 1), "Dia do Trabalho")
	return t
}

func date(month time.Month, day int) *generic.Date {
	d := generic.NewDate(2025, month, day)
	return &d
}

func yes() *bool { b := true; return &b }

func active(id, role, union string) source.ActiveRow {
	return source.ActiveRow{ID: generic.EmployeeID(id), Role: role, Status: "Trabalhando", Union: union}
}

func run(t *testing.T, b *source.Batches) *benefit.Result {
	t.Helper()
	e := benefit.NewEngine(benefit.DefaultRules(aprilMay()), regions())
	res, err := e.Run(context.Background(), b)
	require.NoError(t, err)
	return res
}

func find(res *benefit.Result, id string) (generic.EmployeeRecord, bool) {
	for _, r := range res.Records {
		if r.ID == generic.EmployeeID(id) {
			return r, true
		}
	}
	return generic.EmployeeRecord{}, false
}

func money(s string) decimal.Decimal { return decimal.RequireFromString(s) }

// =============================================================================
// SCENARIOS
// =============================================================================

func TestEngine_AdmittedMidPeriod(t *testing.T) {
	// GIVEN: SP (22 days, R$ 37,50), hired May 2nd -> 10 of 22 business days
	b := &source.Batches{
		Active:     []source.ActiveRow{active("1001", "ANALISTA", unionSP)},
		Admissions: []source.AdmissionRow{{ID: "1001", Date: date(time.May, 2), Role: "ANALISTA"}},
	}

	// WHEN: Running the pipeline
	res := run(t, b)

	// THEN: 10 days, R$ 375,00 split 300/75
	rec, ok := find(res, "1001")
	require.True(t, ok)
	assert.Equal(t, generic.Region("SP"), rec.Region)
	assert.Equal(t, 22, rec.BaselineDays)
	assert.Equal(t, 10, rec.EntitledDays)
	assert.True(t, rec.Total.Equal(money("375.00")), rec.Total.String())
	assert.True(t, rec.EmployerCost.Equal(money("300.00")))
	assert.True(t, rec.EmployeeCost.Equal(money("75.00")))
	assert.Equal(t, generic.NoteAdmissionInMonth, rec.StatusNote)
}

func TestEngine_FullMonthActive(t *testing.T) {
	res := run(t, &source.Batches{Active: []source.ActiveRow{active("1", "ANALISTA", unionRJ)}})

	rec, ok := find(res, "1")
	require.True(t, ok)
	assert.Equal(t, 21, rec.EntitledDays)
	assert.True(t, rec.Total.Equal(money("735")))
	assert.Equal(t, generic.NoteActive, rec.StatusNote)
	assert.Equal(t, 1, res.Summary.Employees)
	assert.True(t, res.Summary.Total.Equal(money("735")))
}

func TestEngine_TerminatedBeforeCutoffWithAckIsRemoved(t *testing.T) {
	// GIVEN: Terminated on the 10th with acknowledgment "OK"
	b := &source.Batches{
		Active:       []source.ActiveRow{active("1", "ANALISTA", unionSP), active("2", "ANALISTA", unionSP)},
		Terminations: []source.TerminationRow{{ID: "1", Date: date(time.May, 10), Ack: source.ParseAck("OK")}},
	}

	res := run(t, b)

	// THEN: Removed from the output entirely
	_, ok := find(res, "1")
	assert.False(t, ok)
	assert.Len(t, res.Records, 1)
	assert.Equal(t, 1, stage(res, generic.StageExclusions).Removed[benefit.StepTerminations])
}

func TestEngine_TerminatedAfterCutoffIsRetained(t *testing.T) {
	// GIVEN: Terminated on April 20th
	b := &source.Batches{
		Active:       []source.ActiveRow{active("1", "ANALISTA", unionSP)},
		Terminations: []source.TerminationRow{{ID: "1", Date: date(time.April, 20), Ack: yes()}},
	}

	res := run(t, b)

	// THEN: Retained, window ends on the termination date (Apr 15-18 = 4 days)
	rec, ok := find(res, "1")
	require.True(t, ok)
	assert.Equal(t, generic.TerminationPostCutoff, rec.Termination)
	assert.Equal(t, "2025-04-20", rec.TerminationDate.String())
	assert.Equal(t, 4, rec.EntitledDays)
	assert.Equal(t, generic.NoteTerminationPostCutoff, rec.StatusNote)
	assert.Contains(t, string(rec.StatusNote), "settlement-time proportional adjustment")
}

func TestEngine_TerminatedBeforeCutoffWithoutAck(t *testing.T) {
	b := &source.Batches{
		Active:       []source.ActiveRow{active("1", "ANALISTA", unionSP)},
		Terminations: []source.TerminationRow{{ID: "1", Date: date(time.May, 12)}},
	}

	res := run(t, b)

	rec, ok := find(res, "1")
	require.True(t, ok)
	assert.Equal(t, generic.TerminationPendingAck, rec.Termination)
	assert.Equal(t, generic.NoteTerminationPendingAck, rec.StatusNote)
	// Apr 15 .. May 12 without May 1st = 19 business days
	assert.Equal(t, 19, rec.EntitledDays)
}

func TestEngine_UnresolvedUnionIsRetainedAtZero(t *testing.T) {
	res := run(t, &source.Batches{Active: []source.ActiveRow{active("1", "ANALISTA", "Local 99 Unknown")}})

	rec, ok := find(res, "1")
	require.True(t, ok)
	assert.False(t, rec.Region.Resolved())
	assert.True(t, rec.DailyRate.IsZero())
	assert.True(t, rec.Total.IsZero())
	assert.Equal(t, 0, rec.EntitledDays)

	// AND: No note rule matches, so the default note applies; the consolidate
	// stage carries the unresolved-region warning instead
	assert.Equal(t, generic.NoteActive, rec.StatusNote)
	assert.Contains(t, stage(res, generic.StageConsolidate).Warnings, "unresolved region for 1: Local 99 Unknown")
}

func TestEngine_InternListBeatsRoleText(t *testing.T) {
	// GIVEN: An intern whose roster role is a generic title
	b := &source.Batches{
		Active:  []source.ActiveRow{active("1", "ANALISTA", unionSP), active("2", "ANALISTA", unionSP)},
		Interns: source.IDSet{"1": {}},
	}

	res := run(t, b)

	_, ok := find(res, "1")
	assert.False(t, ok)
	report := stage(res, generic.StageExclusions)
	assert.Equal(t, 1, report.Removed[benefit.StepInterns])
	assert.Equal(t, 0, report.Removed[benefit.StepRoles])
}

func TestEngine_CascadeOrderAndCounts(t *testing.T) {
	b := &source.Batches{
		Active: []source.ActiveRow{
			active("1", "ANALISTA", unionSP),
			active("2", "ANALISTA", unionSP),
			active("3", "ANALISTA", unionSP),
			active("4", "ANALISTA", unionSP),
			active("5", "DIRETOR COMERCIAL", unionSP),
			active("6", "ANALISTA", unionSP),
			active("7", "ANALISTA", unionSP),
			{ID: "8", Role: "ANALISTA", Status: "Licença Maternidade", Union: unionSP},
		},
		Apprentices: source.IDSet{"2": {}},
		Overseas:    source.IDSet{"3": {}},
		Leave:       source.IDSet{"4": {}},
		Vacations:   []source.VacationRow{{ID: "6", Start: date(time.April, 1), End: date(time.May, 31)}},
	}

	res := run(t, b)

	require.Len(t, res.Records, 2)
	assert.Equal(t, generic.EmployeeID("1"), res.Records[0].ID)
	assert.Equal(t, generic.EmployeeID("7"), res.Records[1].ID)

	assert.Equal(t, 1, stage(res, generic.StageConsolidate).Removed[benefit.StepStatus])
	report := stage(res, generic.StageExclusions)
	assert.Equal(t, map[string]int{
		benefit.StepInterns:      0,
		benefit.StepApprentices:  1,
		benefit.StepOverseas:     1,
		benefit.StepTerminations: 0,
		benefit.StepLeave:        1,
		benefit.StepRoles:        1,
		benefit.StepFullVacation: 1,
	}, report.Removed)
}

func TestEngine_VacationClampsAtZero(t *testing.T) {
	// GIVEN: RJ (baseline 21) with 21 vacation days, fewer than the 22 period days
	b := &source.Batches{
		Active:    []source.ActiveRow{active("1", "ANALISTA", unionRJ)},
		Vacations: []source.VacationRow{{ID: "1", Days: 21}},
	}

	res := run(t, b)

	rec, ok := find(res, "1")
	require.True(t, ok)
	assert.Equal(t, 21, rec.VacationDays)
	assert.Equal(t, 0, rec.EntitledDays)
	assert.True(t, rec.Total.IsZero())
	assert.Equal(t, generic.NoteVacation, rec.StatusNote)
}

func TestEngine_VacationDayCountCoveringPeriodIsRetained(t *testing.T) {
	// GIVEN: SP (baseline 22) with day counts at and above the 22 period days
	b := &source.Batches{
		Active: []source.ActiveRow{
			active("1", "ANALISTA", unionSP),
			active("2", "ANALISTA", unionSP),
		},
		Vacations: []source.VacationRow{{ID: "1", Days: 22}, {ID: "2", Days: 30}},
	}

	// WHEN: The engine runs
	res := run(t, b)

	// THEN: Both stay in the output with nothing owed
	for _, id := range []string{"1", "2"} {
		rec, ok := find(res, id)
		require.True(t, ok, "employee %s must be retained", id)
		assert.Equal(t, 22, rec.VacationDays)
		assert.Equal(t, 0, rec.EntitledDays)
		assert.True(t, rec.Total.IsZero())
	}

	// AND: A bare day count never triggers the full-period exclusion
	assert.Equal(t, 0, stage(res, generic.StageExclusions).Removed[benefit.StepFullVacation])
}

func TestEngine_PartialVacation(t *testing.T) {
	// GIVEN: A one-week vacation (May 5-9) duplicated in the batch
	week := source.VacationRow{ID: "1", Start: date(time.May, 5), End: date(time.May, 9)}
	b := &source.Batches{
		Active:    []source.ActiveRow{active("1", "ANALISTA", unionSP)},
		Vacations: []source.VacationRow{week, week},
	}

	res := run(t, b)

	rec, _ := find(res, "1")
	assert.Equal(t, 5, rec.VacationDays)
	assert.Equal(t, 17, rec.EntitledDays)
	assert.Equal(t, generic.NoteVacation, rec.StatusNote)
}

func TestEngine_ReferenceOverrides(t *testing.T) {
	// GIVEN: A union baseline of 20 and a São Paulo rate of R$ 40,00
	b := &source.Batches{
		Active:       []source.ActiveRow{active("1", "ANALISTA", unionSP), active("2", "ANALISTA", unionRJ)},
		BusinessDays: []source.BusinessDayRow{{Union: unionSP, Days: 20}},
		Rates:        []source.RateRow{{Region: "São Paulo", Rate: money("40")}, {Region: "Atlantis", Rate: money("99")}},
	}

	res := run(t, b)

	rec, _ := find(res, "1")
	assert.Equal(t, 20, rec.BaselineDays)
	assert.True(t, rec.Total.Equal(money("800")))

	rj, _ := find(res, "2")
	assert.True(t, rj.DailyRate.Equal(money("35")))

	ref := stage(res, generic.StageReference)
	assert.Equal(t, 1, ref.Skipped)
	assert.Contains(t, ref.Warnings, "rate for unknown region: Atlantis")
}

func TestEngine_NewHireInheritsRegion(t *testing.T) {
	// GIVEN: A hire absent from the roster and without a union
	b := &source.Batches{
		Active: []source.ActiveRow{active("1", "ANALISTA", unionRJ)},
		Admissions: []source.AdmissionRow{
			{ID: "9", Date: date(time.May, 2), Role: "DESENVOLVEDOR"},
			{ID: "10", Date: date(time.May, 2), Role: "DIRETOR"},
		},
	}

	res := run(t, b)

	// THEN: It inherits the last priced record's union; the director is ignored
	rec, ok := find(res, "9")
	require.True(t, ok)
	assert.Equal(t, generic.Region("RJ"), rec.Region)
	assert.Equal(t, unionRJ, rec.UnionName)
	_, ok = find(res, "10")
	assert.False(t, ok)
	assert.Equal(t, 1, stage(res, generic.StageAdmissions).Created)
}

// =============================================================================
// ORCHESTRATION
// =============================================================================

type recordingObserver struct{ stages []string }

func (o *recordingObserver) StageCompleted(r generic.StageReport) { o.stages = append(o.stages, r.Stage) }

func TestEngine_StageOrder(t *testing.T) {
	obs := &recordingObserver{}
	e := benefit.NewEngine(benefit.DefaultRules(aprilMay()), regions(), benefit.WithObserver(obs), benefit.WithLogger(nil))

	_, err := e.Run(context.Background(), &source.Batches{Active: []source.ActiveRow{active("1", "ANALISTA", unionSP)}})
	require.NoError(t, err)

	assert.Equal(t, []string{
		generic.StageReference,
		generic.StageConsolidate,
		generic.StageAdmissions,
		generic.StageExclusions,
		generic.StageVacations,
		generic.StageProration,
		generic.StageBenefit,
	}, obs.stages)
}

func TestEngine_FatalErrors(t *testing.T) {
	e := benefit.NewEngine(benefit.DefaultRules(aprilMay()), regions())

	_, err := e.Run(context.Background(), &source.Batches{})
	assert.ErrorIs(t, err, generic.ErrMissingSource)

	bad := benefit.DefaultRules(generic.Period{Start: aprilMay().End, End: aprilMay().Start})
	_, err = benefit.NewEngine(bad, regions()).Run(context.Background(), &source.Batches{Active: []source.ActiveRow{}})
	assert.ErrorIs(t, err, generic.ErrInvalidPeriod)
}

func TestEngine_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	e := benefit.NewEngine(benefit.DefaultRules(aprilMay()), regions())
	_, err := e.Run(ctx, &source.Batches{Active: []source.ActiveRow{active("1", "ANALISTA", unionSP)}})

	assert.ErrorIs(t, err, context.Canceled)
}

func stage(res *benefit.Result, name string) generic.StageReport {
	for _, s := range res.Stages {
		if s.Stage == name {
			return s
		}
	}
	return generic.StageReport{}
}
