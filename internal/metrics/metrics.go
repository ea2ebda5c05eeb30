package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"
)

var (
	registry     *prometheus.Registry
	registryOnce sync.Once

	// Client-side violation logger
	ViolationsDispatched = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "interview_violations_dispatched_total",
			Help: "Violations handed to the persistence sink",
		},
		[]string{"type"},
	)
	ViolationsSuppressed = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "interview_violations_suppressed_total",
			Help: "Violations dropped by the per-type cooldown",
		},
		[]string{"type"},
	)
	ViolationWriteErrors = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "interview_violation_write_errors_total",
			Help: "Violation writes that failed and were dropped",
		},
		[]string{"type"},
	)

	// Server-side ingestion
	ViolationsIngested = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "interview_violations_ingested_total",
			Help: "Violation events appended to the proctor log",
		},
		[]string{"type"},
	)
	CallReports = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "interview_call_reports_total",
			Help: "Call reports received by outcome",
		},
		[]string{"outcome"},
	)
	Decisions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "interview_decisions_total",
			Help: "Admin selection decisions",
		},
		[]string{"status"},
	)
	SessionTransitions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "interview_session_transitions_total",
			Help: "Client session state transitions",
		},
		[]string{"from", "to"},
	)
)

// Registry returns the process registry with every collector registered.
func Registry(logger *logrus.Logger) *prometheus.Registry {
	registryOnce.Do(func() {
		registry = prometheus.NewRegistry()
		registry.MustRegister(
			ViolationsDispatched,
			ViolationsSuppressed,
			ViolationWriteErrors,
			ViolationsIngested,
			CallReports,
			Decisions,
			SessionTransitions,
		)
		if logger != nil {
			logger.Info("Metrics registry initialized")
		}
	})
	return registry
}
