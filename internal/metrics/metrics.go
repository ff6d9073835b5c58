// Package metrics records export run outcomes as Prometheus collectors and
// writes them in text exposition format for a node-exporter textfile collector.
package metrics

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/rileycx/granola-export/internal/domain/meeting"
)

const namespace = "granola_export"

// Metrics holds the collectors for export runs on a private registry.
type Metrics struct {
	registry *prometheus.Registry

	Runs            *prometheus.CounterVec
	MeetingsNew     prometheus.Counter
	RecordsSkipped  *prometheus.CounterVec
	Warnings        *prometheus.CounterVec
	Syncs           *prometheus.CounterVec
	IndexMeetings   prometheus.Gauge
	RunDuration     prometheus.Gauge
	LastRunUnixTime prometheus.Gauge
}

// New creates and registers the collectors.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		Runs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "runs_total",
			Help:      "Export runs by final status",
		}, []string{"status"}),
		MeetingsNew: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "meetings_exported_total",
			Help:      "Meetings newly exported",
		}),
		RecordsSkipped: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "records_skipped_total",
			Help:      "Cache records not exported, by reason",
		}, []string{"reason"}),
		Warnings: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "warnings_total",
			Help:      "Non-fatal anomalies recorded during runs, by kind",
		}, []string{"kind"}),
		Syncs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "syncs_total",
			Help:      "Post-export sync attempts by status",
		}, []string{"status"}),
		IndexMeetings: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "index_meetings",
			Help:      "Meetings listed in the index after the last run",
		}),
		RunDuration: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "last_run_duration_seconds",
			Help:      "Wall time of the last run",
		}),
		LastRunUnixTime: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "last_run_timestamp_seconds",
			Help:      "Unix time the last run finished",
		}),
	}

	m.registry.MustRegister(
		m.Runs, m.MeetingsNew, m.RecordsSkipped, m.Warnings, m.Syncs,
		m.IndexMeetings, m.RunDuration, m.LastRunUnixTime,
	)
	return m
}

// Registry exposes the private registry, e.g. for tests.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// ObserveRun folds one run summary into the collectors.
func (m *Metrics) ObserveRun(s *meeting.RunSummary) {
	if m == nil || s == nil {
		return
	}
	m.Runs.WithLabelValues(string(s.Status)).Inc()
	m.MeetingsNew.Add(float64(len(s.NewIDs)))
	m.RecordsSkipped.WithLabelValues("already_exported").Add(float64(s.AlreadyExported))
	m.RecordsSkipped.WithLabelValues("no_transcript").Add(float64(s.SkippedNoTranscript))
	for _, w := range s.Warnings {
		m.Warnings.WithLabelValues(string(w.Kind)).Inc()
	}
	if s.Sync != nil {
		m.Syncs.WithLabelValues(string(s.Sync.Status)).Inc()
	}
	if !s.Status.Fatal() {
		m.IndexMeetings.Set(float64(s.TotalInIndex))
	}
	m.RunDuration.Set(s.Duration.Seconds())
	m.LastRunUnixTime.SetToCurrentTime()
}

// WriteTextfile writes all collectors to path in text exposition format.
func (m *Metrics) WriteTextfile(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating metrics dir: %w", err)
	}
	if err := prometheus.WriteToTextfile(path, m.registry); err != nil {
		return fmt.Errorf("writing metrics textfile: %w", err)
	}
	return nil
}
