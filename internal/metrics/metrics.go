// Package metrics defines the prometheus instrumentation for triaged.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds every counter the pipeline reports. A single instance is
// created at startup and passed to the components that record into it.
type Metrics struct {
	EventsCreated    prometheus.Counter
	CasesCreated     prometheus.Counter
	CompletionCalls  prometheus.Counter
	CompletionErrors prometheus.Counter
	ScanRuns         prometheus.Counter
	ScanFailures     prometheus.Counter
}

// New creates and registers the metrics on the given registerer.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		EventsCreated: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "triaged_events_created_total",
			Help: "Events registered in the ledger.",
		}),
		CasesCreated: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "triaged_cases_created_total",
			Help: "Case records persisted by the routing engine.",
		}),
		CompletionCalls: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "triaged_completion_calls_total",
			Help: "Text-completion service calls attempted.",
		}),
		CompletionErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "triaged_completion_errors_total",
			Help: "Text-completion calls that failed after retries.",
		}),
		ScanRuns: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "triaged_scan_runs_total",
			Help: "Orchestration passes started.",
		}),
		ScanFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "triaged_scan_failures_total",
			Help: "Orchestration passes that ended with critical errors.",
		}),
	}
	if reg != nil {
		reg.MustRegister(
			m.EventsCreated,
			m.CasesCreated,
			m.CompletionCalls,
			m.CompletionErrors,
			m.ScanRuns,
			m.ScanFailures,
		)
	}
	return m
}

// Nop returns unregistered metrics for tests.
func Nop() *Metrics {
	return New(nil)
}
