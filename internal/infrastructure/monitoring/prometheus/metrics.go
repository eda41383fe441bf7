// Package prometheus exposes the platform's metrics collector.  Components
// depend on the Collector interface; the prometheus-backed implementation is
// registered once at startup.
package prometheus

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Collector records the platform's operational metrics.
type Collector interface {
	// ObserveExtraction records one completed pipeline run: which source won
	// the merge ("rules" or "model"), how many drugs were retained, and how
	// long the run took.
	ObserveExtraction(source string, drugs int, seconds float64)

	// IncAlert counts one emitted alert by cause.
	IncAlert(cause string)

	// IncIntake counts one appended intake log by status.
	IncIntake(status string)

	// ObserveModelInference records one NER model call.
	ObserveModelInference(success bool, seconds float64)
}

type promCollector struct {
	extractions      *prometheus.HistogramVec
	extractedDrugs   *prometheus.CounterVec
	alerts           *prometheus.CounterVec
	intakes          *prometheus.CounterVec
	modelInferences  *prometheus.HistogramVec
}

// NewCollector constructs a prometheus-backed Collector and registers its
// metrics with reg.  Pass prometheus.DefaultRegisterer in production.
func NewCollector(reg prometheus.Registerer) Collector {
	c := &promCollector{
		extractions: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "medrx",
			Subsystem: "extraction",
			Name:      "duration_seconds",
			Help:      "Duration of full extraction pipeline runs.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"source"}),
		extractedDrugs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "medrx",
			Subsystem: "extraction",
			Name:      "drugs_total",
			Help:      "Total drug mentions retained after merge.",
		}, []string{"source"}),
		alerts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "medrx",
			Subsystem: "extraction",
			Name:      "alerts_total",
			Help:      "Total validation alerts and interaction warnings by cause.",
		}, []string{"cause"}),
		intakes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "medrx",
			Subsystem: "medication",
			Name:      "intake_logs_total",
			Help:      "Total intake logs appended by status.",
		}, []string{"status"}),
		modelInferences: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "medrx",
			Subsystem: "ner",
			Name:      "inference_duration_seconds",
			Help:      "Duration of NER model inference calls.",
			Buckets:   []float64{.05, .1, .25, .5, 1, 2, 5, 10},
		}, []string{"success"}),
	}
	reg.MustRegister(c.extractions, c.extractedDrugs, c.alerts, c.intakes, c.modelInferences)
	return c
}

func (c *promCollector) ObserveExtraction(source string, drugs int, seconds float64) {
	c.extractions.WithLabelValues(source).Observe(seconds)
	c.extractedDrugs.WithLabelValues(source).Add(float64(drugs))
}

func (c *promCollector) IncAlert(cause string) {
	c.alerts.WithLabelValues(cause).Inc()
}

func (c *promCollector) IncIntake(status string) {
	c.intakes.WithLabelValues(status).Inc()
}

func (c *promCollector) ObserveModelInference(success bool, seconds float64) {
	label := "false"
	if success {
		label = "true"
	}
	c.modelInferences.WithLabelValues(label).Observe(seconds)
}

type nopCollector struct{}

func (nopCollector) ObserveExtraction(string, int, float64)  {}
func (nopCollector) IncAlert(string)                         {}
func (nopCollector) IncIntake(string)                        {}
func (nopCollector) ObserveModelInference(bool, float64)     {}

// NewNopCollector returns a Collector that records nothing.  Intended for
// tests and CLI runs where a metrics endpoint makes no sense.
func NewNopCollector() Collector { return nopCollector{} }
