package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "opsd_rpp"

// Metrics holds the Prometheus counters, histograms, and gauges for the pipeline.
type Metrics struct {
	RecordsExtracted         *prometheus.CounterVec // labels: country, data_source
	Georeferenced            *prometheus.CounterVec // labels: strategy={original,utm,postcode,municipality_code,none}
	RecordsWithoutCoordinate *prometheus.GaugeVec   // labels: data_source, energy_source
	ValidationFlags          *prometheus.CounterVec // labels: rule
	TranslationMisses        *prometheus.CounterVec // labels: kind={column,value}, country
	FetchRequests            *prometheus.CounterVec // labels: outcome={cached,downloaded,error}
	RecordsPublished         prometheus.Counter

	RunDuration     prometheus.Histogram
	PipelineRunning prometheus.Gauge
	LastRunSuccess  prometheus.Gauge
}

func newMetrics() *Metrics {
	return &Metrics{
		RecordsExtracted: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "records_extracted_total",
			Help:      "Records produced by the source adapters.",
		}, []string{"country", "data_source"}),
		Georeferenced: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "georeference_total",
			Help:      "Records by the strategy that supplied their coordinates.",
		}, []string{"strategy"}),
		RecordsWithoutCoordinate: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "records_without_coordinates",
			Help:      "Records of the last run left without coordinates.",
		}, []string{"data_source", "energy_source"}),
		ValidationFlags: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "validation_flags_total",
			Help:      "Validation tags attached, by rule.",
		}, []string{"rule"}),
		TranslationMisses: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "translation_misses_total",
			Help:      "Distinct column names and values missing from the translation tables.",
		}, []string{"kind", "country"}),
		FetchRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "fetch_requests_total",
			Help:      "Input downloads by outcome.",
		}, []string{"outcome"}),
		RecordsPublished: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "records_published_total",
			Help:      "Master records written to the sink topic.",
		}),
		RunDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "run_duration_seconds",
			Help:      "Duration of a complete pipeline run.",
			Buckets:   []float64{1, 5, 10, 30, 60, 120, 300, 600, 1800},
		}),
		PipelineRunning: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "pipeline_running",
			Help:      "1 while a run is in progress, 0 otherwise.",
		}),
		LastRunSuccess: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "last_run_success",
			Help:      "1 when the last run completed, 0 when it failed.",
		}),
	}
}

func (m *Metrics) collectors() []prometheus.Collector {
	return []prometheus.Collector{
		m.RecordsExtracted,
		m.Georeferenced,
		m.RecordsWithoutCoordinate,
		m.ValidationFlags,
		m.TranslationMisses,
		m.FetchRequests,
		m.RecordsPublished,
		m.RunDuration,
		m.PipelineRunning,
		m.LastRunSuccess,
	}
}

// NewMetrics creates and registers all pipeline metrics with the default Prometheus registry.
func NewMetrics() *Metrics {
	m := newMetrics()
	prometheus.MustRegister(m.collectors()...)
	return m
}

// NewMetricsForTesting creates Metrics with a fresh registry to avoid
// "already registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	m := newMetrics()
	prometheus.NewRegistry().MustRegister(m.collectors()...)
	return m
}
