package telemetry

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics collects per-run counters into a private registry that is flushed
// to a node_exporter textfile after each run.
type Metrics struct {
	registry             *prometheus.Registry
	runsTotal            *prometheus.CounterVec
	runDuration          *prometheus.HistogramVec
	filesTotal           prometheus.Counter
	skippedTotal         prometheus.Counter
	cacheHitsTotal       prometheus.Counter
	sourceBytesTotal     prometheus.Counter
	outputBytesTotal     prometheus.Counter
	pixelsProcessedTotal prometheus.Counter
	bytesSavedTotal      prometheus.Counter
}

// RunStats summarizes one run for ObserveRun.
type RunStats struct {
	Format          string
	Status          string
	Duration        time.Duration
	Files           int
	Skipped         int
	CacheHits       int
	SourceBytes     int64
	OutputBytes     int64
	PixelsProcessed int64
	BytesSaved      int64
}

func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		runsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "photocompress_runs_total",
			Help: "Total compression runs by output format and final status.",
		}, []string{"format", "status"}),
		runDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "photocompress_run_duration_seconds",
			Help:    "Wall time of each compression run.",
			Buckets: prometheus.DefBuckets,
		}, []string{"format", "status"}),
		filesTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "photocompress_files_total",
			Help: "Total images transcoded.",
		}),
		skippedTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "photocompress_skipped_files_total",
			Help: "Total selected files skipped because they were not images.",
		}),
		cacheHitsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "photocompress_cache_hits_total",
			Help: "Total images served from the transcode cache.",
		}),
		sourceBytesTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "photocompress_source_bytes_total",
			Help: "Total bytes read from source images.",
		}),
		outputBytesTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "photocompress_output_bytes_total",
			Help: "Total bytes of transcoded images.",
		}),
		pixelsProcessedTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "photocompress_pixels_processed_total",
			Help: "Total output pixels produced across successful runs.",
		}),
		bytesSavedTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "photocompress_bytes_saved_total",
			Help: "Total bytes saved across successful runs.",
		}),
	}

	m.registry.MustRegister(
		m.runsTotal,
		m.runDuration,
		m.filesTotal,
		m.skippedTotal,
		m.cacheHitsTotal,
		m.sourceBytesTotal,
		m.outputBytesTotal,
		m.pixelsProcessedTotal,
		m.bytesSavedTotal,
	)
	return m
}

func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

func (m *Metrics) ObserveRun(stats RunStats) {
	format := stats.Format
	if format == "" {
		format = "unknown"
	}

	m.runsTotal.WithLabelValues(format, stats.Status).Inc()
	m.runDuration.WithLabelValues(format, stats.Status).Observe(stats.Duration.Seconds())
	m.skippedTotal.Add(float64(stats.Skipped))

	if stats.Status != "succeeded" {
		return
	}
	m.filesTotal.Add(float64(stats.Files))
	m.cacheHitsTotal.Add(float64(stats.CacheHits))
	m.sourceBytesTotal.Add(float64(stats.SourceBytes))
	m.outputBytesTotal.Add(float64(stats.OutputBytes))
	m.pixelsProcessedTotal.Add(float64(stats.PixelsProcessed))
	m.bytesSavedTotal.Add(float64(stats.BytesSaved))
}

// WriteTextfile writes the registry in the text exposition format. Empty path
// is a no-op.
func (m *Metrics) WriteTextfile(path string) error {
	if path == "" {
		return nil
	}
	if err := prometheus.WriteToTextfile(path, m.registry); err != nil {
		return fmt.Errorf("write metrics textfile: %w", err)
	}
	return nil
}
