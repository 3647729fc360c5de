package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	NodesExecuted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "nodeflow_nodes_executed_total",
		Help: "Total number of graph nodes executed.",
	})

	RunsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "nodeflow_runs_total",
		Help: "Total number of graph runs, labelled by outcome (ok, error, cycle).",
	}, []string{"status"})

	RunDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "nodeflow_run_duration_ms",
		Help:    "Full-run execution latency in milliseconds.",
		Buckets: []float64{1, 5, 10, 25, 50, 100, 250, 500, 1000, 2500},
	})

	HistoryEntries = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "nodeflow_history_entries",
		Help: "Current number of undo stack entries across open documents.",
	})

	DocumentsOpen = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "nodeflow_documents_open",
		Help: "Number of documents currently open in the session manager.",
	})

	DocumentsSaved = promauto.NewCounter(prometheus.CounterOpts{
		Name: "nodeflow_documents_saved_total",
		Help: "Total number of documents persisted to the store.",
	})

	DocumentsLoaded = promauto.NewCounter(prometheus.CounterOpts{
		Name: "nodeflow_documents_loaded_total",
		Help: "Total number of documents loaded from the store.",
	})

	ClipboardPastes = promauto.NewCounter(prometheus.CounterOpts{
		Name: "nodeflow_clipboard_pastes_total",
		Help: "Total number of clipboard paste operations.",
	})
)
