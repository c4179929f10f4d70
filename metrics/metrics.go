// Package metrics exposes Prometheus instruments for benefit runs.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/warp/benefit-engine/generic"
)

// Metrics captures run outcomes and per-stage exclusion counts.
type Metrics struct {
	runs         *prometheus.CounterVec
	stageRemoved *prometheus.CounterVec
	stageSkipped *prometheus.CounterVec
	entitled     prometheus.Gauge
	totalAmount  prometheus.Gauge
}

// New registers the instruments on registerer. A nil registerer uses the
// default Prometheus registry.
func New(registerer prometheus.Registerer) *Metrics {
	if registerer == nil {
		registerer = prometheus.DefaultRegisterer
	}

	m := &Metrics{
		runs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "benefit_runs_total",
			Help: "Benefit runs by final status.",
		}, []string{"status"}),
		stageRemoved: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "benefit_stage_removed_total",
			Help: "Employees removed from the working table, by stage.",
		}, []string{"stage"}),
		stageSkipped: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "benefit_stage_skipped_total",
			Help: "Source rows a stage ignored, by stage.",
		}, []string{"stage"}),
		entitled: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "benefit_entitled_employees",
			Help: "Employees in the final table of the latest completed run.",
		}),
		totalAmount: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "benefit_run_total_amount",
			Help: "Total benefit value of the latest completed run.",
		}),
	}
	registerer.MustRegister(m.runs, m.stageRemoved, m.stageSkipped, m.entitled, m.totalAmount)
	return m
}

// StageCompleted satisfies benefit.Observer.
func (m *Metrics) StageCompleted(rep generic.StageReport) {
	if m == nil {
		return
	}
	m.stageRemoved.WithLabelValues(rep.Stage).Add(float64(rep.TotalRemoved()))
	m.stageSkipped.WithLabelValues(rep.Stage).Add(float64(rep.Skipped))
}

// RunFinished records the outcome of a run.
func (m *Metrics) RunFinished(status generic.RunStatus, summary generic.Summary) {
	if m == nil {
		return
	}
	m.runs.WithLabelValues(string(status)).Inc()
	if status != generic.RunCompleted {
		return
	}
	m.entitled.Set(float64(summary.Employees))
	m.totalAmount.Set(summary.Total.InexactFloat64())
}
