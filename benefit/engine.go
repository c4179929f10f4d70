package benefit

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/warp/benefit-engine/generic"
	"github.com/warp/benefit-engine/region"
	"github.com/warp/benefit-engine/source"
)

// =============================================================================
// ENGINE - Sequential pipeline over one competence month
// =============================================================================

// Observer is notified after every stage. Metrics hook in here.
type Observer interface {
	StageCompleted(report generic.StageReport)
}

type Option func(*Engine)

// WithLogger sets the engine logger. A nil logger disables logging.
func WithLogger(l *zap.Logger) Option {
	return func(e *Engine) {
		if l != nil {
			e.logger = l
		}
	}
}

func WithObserver(o Observer) Option {
	return func(e *Engine) { e.observer = o }
}

// Engine runs the pipeline. It holds no per-run state and may be shared.
type Engine struct {
	rules    Rules
	regions  *region.Table
	logger   *zap.Logger
	observer Observer
}

func NewEngine(rules Rules, regions *region.Table, opts ...Option) *Engine {
	e := &Engine{rules: rules, regions: regions, logger: zap.NewNop()}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

func (e *Engine) Rules() Rules { return e.rules }

// Result is the frozen output of a run.
type Result struct {
	Records []generic.EmployeeRecord
	Stages  []generic.StageReport
	Summary generic.Summary
	Regions *region.Table
}

// Run executes every stage in order. It stops at the first fatal error or
// when ctx is cancelled between stages; the partial table is discarded.
func (e *Engine) Run(ctx context.Context, b *source.Batches) (*Result, error) {
	if err := e.rules.Validate(); err != nil {
		return nil, err
	}
	if b == nil || b.Active == nil {
		return nil, fmt.Errorf("%w: active roster", generic.ErrMissingSource)
	}

	res := &Result{}
	record := func(report generic.StageReport) error {
		e.logStage(report)
		if e.observer != nil {
			e.observer.StageCompleted(report)
		}
		res.Stages = append(res.Stages, report)
		return ctx.Err()
	}

	regions, report := ApplyReference(e.regions, b.BusinessDays, b.Rates)
	report.Warnings = append(report.Warnings, e.missingSources(b)...)
	if err := record(report); err != nil {
		return nil, err
	}

	t, report := Consolidate(b.Active, e.rules, regions)
	if err := record(report); err != nil {
		return nil, err
	}

	if b.Admissions != nil {
		t, report = MergeAdmissions(t, b.Admissions, e.rules, regions)
	} else {
		report = skippedStage(generic.StageAdmissions, source.KindAdmissions)
	}
	if err := record(report); err != nil {
		return nil, err
	}

	t, report = Exclude(t, CascadeInputOf(b), e.rules, regions)
	if err := record(report); err != nil {
		return nil, err
	}

	t, report = ApplyVacations(t, b.Vacations, e.rules, regions)
	if err := record(report); err != nil {
		return nil, err
	}

	t, report = Prorate(t, e.rules, regions)
	if err := record(report); err != nil {
		return nil, err
	}

	t, report = Calculate(t, e.rules, regions)
	if err := record(report); err != nil {
		return nil, err
	}

	res.Records = t.Records()
	res.Summary = generic.Summarize(res.Records)
	res.Regions = regions

	e.logger.Info("benefit run completed",
		zap.Int("employees", res.Summary.Employees),
		zap.String("total", res.Summary.Total.StringFixed(2)),
		zap.String("competence", e.rules.Period.CompetenceLabel()),
	)
	return res, nil
}

func (e *Engine) logStage(report generic.StageReport) {
	e.logger.Info("stage completed",
		zap.String("stage", report.Stage),
		zap.Int("removed", report.TotalRemoved()),
		zap.Any("removed_by_step", report.Removed),
		zap.Int("merged", report.Merged),
		zap.Int("created", report.Created),
		zap.Int("skipped", report.Skipped),
	)
	for _, w := range report.Warnings {
		e.logger.Warn("stage warning", zap.String("stage", report.Stage), zap.String("warning", w))
	}
}

func (e *Engine) missingSources(b *source.Batches) []string {
	present := map[source.Kind]bool{
		source.KindAdmissions:   b.Admissions != nil,
		source.KindTerminations: b.Terminations != nil,
		source.KindVacations:    b.Vacations != nil,
		source.KindLeave:        b.Leave != nil,
		source.KindInterns:      b.Interns != nil,
		source.KindApprentices:  b.Apprentices != nil,
		source.KindOverseas:     b.Overseas != nil,
		source.KindBusinessDays: b.BusinessDays != nil,
		source.KindRates:        b.Rates != nil,
	}
	var warnings []string
	for _, kind := range source.Kinds {
		if ok, tracked := present[kind]; tracked && !ok {
			e.logger.Warn("optional source missing", zap.String("source", kind.String()))
			warnings = append(warnings, "source not supplied: "+kind.String())
		}
	}
	return warnings
}

func skippedStage(stage string, kind source.Kind) generic.StageReport {
	return generic.StageReport{
		Stage:    stage,
		Warnings: []string{"source not supplied: " + kind.String()},
	}
}
