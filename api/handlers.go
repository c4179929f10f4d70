/*
handlers.go - HTTP API handlers for benefit runs

PURPOSE:
  Exposes the benefit engine via REST API. Handles HTTP request/response,
  JSON serialization, and delegates to the engine, the store and the
  assist boundary.

ENDPOINTS:
  Runs:
    POST   /api/runs                       Upload sources and execute a run
    GET    /api/runs                       List runs, newest first
    GET    /api/runs/{id}                  Run metadata with stage audit
    GET    /api/runs/{id}/records          Final per-employee table
    GET    /api/runs/{id}/report.xlsx      Distributable workbook

  Assist:
    GET    /api/runs/{id}/assist/context   Schema and sample rows
    POST   /api/runs/{id}/assist           Apply UPDATE statements

  Regions:
    GET    /api/regions                    Active region table

UPLOAD FORMAT:
  multipart/form-data. Each file part is named after its dataset kind
  (active, admissions, terminations, ...) or anything else to detect the
  kind from the file name. Optional fields: period_start, period_end
  (YYYY-MM-DD) and competence (MM/YYYY). Without them the configured
  period is used.

ERROR HANDLING:
  Errors are returned as JSON with appropriate HTTP status:
  - 400: Missing source/column, bad period, rejected input
  - 404: Unknown run
  - 409: Run not in a state that allows the operation
  - 500: Internal errors

SEE ALSO:
  - dto.go: Request/response data structures
  - server.go: Router setup and middleware
*/
package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sort"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/warp/benefit-engine/assist"
	"github.com/warp/benefit-engine/benefit"
	"github.com/warp/benefit-engine/config"
	"github.com/warp/benefit-engine/factory"
	"github.com/warp/benefit-engine/generic"
	"github.com/warp/benefit-engine/logging"
	"github.com/warp/benefit-engine/metrics"
	"github.com/warp/benefit-engine/region"
	"github.com/warp/benefit-engine/report"
	"github.com/warp/benefit-engine/source"
)

const maxUploadBytes = 64 << 20

// =============================================================================
// HANDLER CONTEXT
// =============================================================================

// Handler holds all dependencies for HTTP handlers.
type Handler struct {
	store    generic.Store
	cfg      *config.Config
	regions  *region.Table
	metrics  *metrics.Metrics
	gatherer prometheus.Gatherer
	logger   *zap.Logger
	now      func() time.Time
}

type HandlerOption func(*Handler)

// WithMetrics records runs on m and serves g on /metrics.
func WithMetrics(m *metrics.Metrics, g prometheus.Gatherer) HandlerOption {
	return func(h *Handler) {
		h.metrics = m
		h.gatherer = g
	}
}

func WithLogger(l *zap.Logger) HandlerOption {
	return func(h *Handler) {
		if l != nil {
			h.logger = l
		}
	}
}

// WithClock overrides time.Now, for tests.
func WithClock(now func() time.Time) HandlerOption {
	return func(h *Handler) { h.now = now }
}

// NewHandler creates a new handler.
func NewHandler(store generic.Store, cfg *config.Config, regions *region.Table, opts ...HandlerOption) *Handler {
	if cfg == nil {
		cfg = config.Default()
	}
	h := &Handler{
		store:   store,
		cfg:     cfg,
		regions: regions,
		logger:  zap.NewNop(),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// =============================================================================
// RUN HANDLERS
// =============================================================================

// CreateRun ingests uploaded sources and executes the pipeline.
func (h *Handler) CreateRun(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid multipart upload", err)
		return
	}

	period, err := h.periodOf(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid period", err)
		return
	}
	competence := r.FormValue("competence")
	if competence == "" {
		competence = h.cfg.Competence(period)
	}

	bundle, err := bundleOf(r)
	if err != nil {
		writeError(w, statusFor(err), "Invalid source file", err)
		return
	}

	run := generic.Run{
		ID:         uuid.NewString(),
		Competence: competence,
		Period:     period,
		Status:     generic.RunPending,
		CreatedAt:  h.now().UTC(),
	}
	log := logging.WithRun(logging.FromContext(ctx), run.ID, competence)
	if err := h.store.SaveRun(ctx, run); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to save run", err)
		return
	}

	result, err := h.execute(r, run, bundle, log)
	if err != nil {
		h.fail(r, &run, err, log)
		writeJSON(w, statusFor(err), ErrorResponse{Error: "Run failed", Details: err.Error(), RunID: run.ID})
		return
	}

	if err := h.store.SaveRecords(ctx, run.ID, result.Records); err != nil {
		h.fail(r, &run, err, log)
		writeError(w, http.StatusInternalServerError, "Failed to save records", err)
		return
	}
	done := h.now().UTC()
	run.Status = generic.RunCompleted
	run.Stages = result.Stages
	run.Summary = result.Summary
	run.CompletedAt = &done
	if err := h.store.SaveRun(ctx, run); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to save run", err)
		return
	}
	h.metrics.RunFinished(run.Status, run.Summary)

	dto := toRunDTO(run, true)
	dto.Files = bundle.Files()
	writeJSON(w, http.StatusCreated, dto)
}

func (h *Handler) execute(r *http.Request, run generic.Run, bundle *source.Bundle, log *zap.Logger) (*benefit.Result, error) {
	batches, err := bundle.Batches()
	if err != nil {
		return nil, err
	}
	for kind, n := range batches.Coerced {
		log.Warn("values coerced to defaults", zap.String("source", kind), zap.Int("count", n))
	}

	engine := benefit.NewEngine(h.cfg.Rules(run.Period), h.regions,
		benefit.WithLogger(log),
		benefit.WithObserver(h.metrics),
	)
	return engine.Run(r.Context(), batches)
}

func (h *Handler) fail(r *http.Request, run *generic.Run, cause error, log *zap.Logger) {
	done := h.now().UTC()
	run.Status = generic.RunFailed
	run.Error = cause.Error()
	run.CompletedAt = &done
	log.Error("benefit run failed", zap.Error(cause))
	if err := h.store.SaveRun(r.Context(), *run); err != nil {
		log.Error("failed to record run failure", zap.Error(err))
	}
	h.metrics.RunFinished(run.Status, run.Summary)
}

func (h *Handler) periodOf(r *http.Request) (generic.Period, error) {
	start, end := r.FormValue("period_start"), r.FormValue("period_end")
	if start == "" && end == "" {
		p, ok, err := h.cfg.Period()
		if err != nil {
			return generic.Period{}, err
		}
		if !ok {
			return generic.Period{}, fmt.Errorf("%w: period_start and period_end are required", generic.ErrInvalidPeriod)
		}
		return p, nil
	}
	s, err := generic.ParseISODate(start)
	if err != nil {
		return generic.Period{}, fmt.Errorf("%w: period_start %q", generic.ErrInvalidPeriod, start)
	}
	e, err := generic.ParseISODate(end)
	if err != nil {
		return generic.Period{}, fmt.Errorf("%w: period_end %q", generic.ErrInvalidPeriod, end)
	}
	return generic.NewPeriod(s, e)
}

// bundleOf reads every uploaded file, in field-name order.
func bundleOf(r *http.Request) (*source.Bundle, error) {
	bundle := source.NewBundle()
	if r.MultipartForm == nil {
		return bundle, nil
	}
	fields := make([]string, 0, len(r.MultipartForm.File))
	for field := range r.MultipartForm.File {
		fields = append(fields, field)
	}
	sort.Strings(fields)

	for _, field := range fields {
		for _, fh := range r.MultipartForm.File[field] {
			f, err := fh.Open()
			if err != nil {
				return nil, err
			}
			_, err = bundle.AddReader(source.ParseKind(field), fh.Filename, f)
			f.Close()
			if err != nil {
				return nil, fmt.Errorf("%w: %w", errInvalidUpload, err)
			}
		}
	}
	return bundle, nil
}

var errInvalidUpload = errors.New("invalid upload")

// ListRuns returns all runs, newest first.
func (h *Handler) ListRuns(w http.ResponseWriter, r *http.Request) {
	runs, err := h.store.ListRuns(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list runs", err)
		return
	}
	dtos := make([]RunDTO, len(runs))
	for i, run := range runs {
		dtos[i] = toRunDTO(run, false)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// GetRun returns one run with its stage audit.
func (h *Handler) GetRun(w http.ResponseWriter, r *http.Request) {
	run, err := h.store.GetRun(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, statusFor(err), "Run not found", err)
		return
	}
	writeJSON(w, http.StatusOK, toRunDTO(*run, true))
}

// GetRecords returns the final table of a run.
func (h *Handler) GetRecords(w http.ResponseWriter, r *http.Request) {
	records, err := h.store.LoadRecords(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, statusFor(err), "Failed to load records", err)
		return
	}
	dtos := make([]RecordDTO, len(records))
	for i, rec := range records {
		dtos[i] = toRecordDTO(rec)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// GetReport streams the xlsx workbook of a completed run.
func (h *Handler) GetReport(w http.ResponseWriter, r *http.Request) {
	run, records, ok := h.completedRun(w, r)
	if !ok {
		return
	}

	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", report.SlugFileName(run.Competence)))
	if err := report.Write(w, records, run.Competence); err != nil {
		logging.FromContext(r.Context()).Error("failed to write workbook", zap.Error(err))
	}
}

// completedRun loads a run and its records, writing the error response
// itself when the run is unknown or not completed.
func (h *Handler) completedRun(w http.ResponseWriter, r *http.Request) (*generic.Run, []generic.EmployeeRecord, bool) {
	ctx := r.Context()
	run, err := h.store.GetRun(ctx, chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, statusFor(err), "Run not found", err)
		return nil, nil, false
	}
	if run.Status != generic.RunCompleted {
		writeError(w, http.StatusConflict, "Run is not completed", fmt.Errorf("status %s", run.Status))
		return nil, nil, false
	}
	records, err := h.store.LoadRecords(ctx, run.ID)
	if err != nil {
		writeError(w, statusFor(err), "Failed to load records", err)
		return nil, nil, false
	}
	return run, records, true
}

// =============================================================================
// ASSIST HANDLERS
// =============================================================================

// GetAssistContext returns the table description a model is shown.
func (h *Handler) GetAssistContext(w http.ResponseWriter, r *http.Request) {
	_, records, ok := h.completedRun(w, r)
	if !ok {
		return
	}
	n := h.cfg.Assist.SampleSize
	if v := r.URL.Query().Get("sample"); v != "" {
		parsed, err := strconv.Atoi(v)
		if err != nil || parsed < 0 {
			writeError(w, http.StatusBadRequest, "Invalid sample size", err)
			return
		}
		n = parsed
	}
	writeJSON(w, http.StatusOK, assist.NewContext(records, n))
}

// ApplyAssist validates and applies UPDATE statements to a run's table.
func (h *Handler) ApplyAssist(w http.ResponseWriter, r *http.Request) {
	run, records, ok := h.completedRun(w, r)
	if !ok {
		return
	}

	var req AssistRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON", err)
		return
	}
	statements := append(assist.Extract(req.Text), req.Statements...)
	if len(statements) == 0 {
		writeError(w, http.StatusBadRequest, "No UPDATE statements found", generic.ErrStatementRejected)
		return
	}

	out := assist.Apply(records, statements)
	ctx := r.Context()
	if len(out.Applied) > 0 {
		if err := h.store.SaveRecords(ctx, run.ID, out.Records); err != nil {
			writeError(w, http.StatusInternalServerError, "Failed to save records", err)
			return
		}
	}
	run.Stages = append(run.Stages, out.Report())
	run.Summary = generic.Summarize(out.Records)
	if err := h.store.SaveRun(ctx, *run); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to save run", err)
		return
	}

	logging.FromContext(ctx).Info("assist statements applied",
		zap.String("run_id", run.ID),
		zap.Int("applied", len(out.Applied)),
		zap.Int("rejected", len(out.Rejected)),
		zap.Int("rows", out.Rows),
	)
	rejected := out.Rejected
	if rejected == nil {
		rejected = []assist.Rejection{}
	}
	writeJSON(w, http.StatusOK, AssistResponse{Applied: len(out.Applied), Rows: out.Rows, Rejected: rejected})
}

// =============================================================================
// REGION HANDLERS
// =============================================================================

// GetRegions returns the region table new runs start from.
func (h *Handler) GetRegions(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, factory.ToJSON(h.regions))
}

// =============================================================================
// HELPERS
// =============================================================================

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string, err error) {
	resp := ErrorResponse{Error: message}
	if err != nil {
		resp.Details = err.Error()
	}
	writeJSON(w, status, resp)
}

// statusFor maps domain errors to HTTP status codes.
func statusFor(err error) int {
	switch {
	case generic.IsNotFound(err):
		return http.StatusNotFound
	case generic.IsClientError(err), errors.Is(err, errInvalidUpload):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}
