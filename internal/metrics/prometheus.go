package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Negotiation metrics
	NegotiationOutcomes = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "hermes_negotiation_outcomes_total",
			Help: "Total number of finished negotiations by outcome",
		},
		[]string{"outcome"}, // outcome: deal|no_deal|walk_away
	)

	NegotiationRounds = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "hermes_negotiation_rounds",
			Help:    "Rounds used per negotiation",
			Buckets: []float64{1, 2, 3, 5, 8, 10, 15, 20, 30, 50},
		},
	)

	NegotiationDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "hermes_negotiation_duration_seconds",
			Help:    "Wall-clock duration of a negotiation run",
			Buckets: []float64{0.001, 0.01, 0.1, 0.5, 1, 5, 15, 60},
		},
	)

	OffersClamped = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "hermes_offers_clamped_total",
			Help: "Offers clamped to honor a reservation threshold or monotonicity",
		},
		[]string{"actor"}, // actor: buyer|seller
	)

	// Advice metrics
	AdviceCalls = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "hermes_advice_calls_total",
			Help: "Total number of advice provider calls",
		},
		[]string{"model", "status"}, // status: success|error
	)

	AdviceLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "hermes_advice_latency_seconds",
			Help:    "Advice provider call latency in seconds",
			Buckets: []float64{0.1, 0.25, 0.5, 1, 2, 5, 10, 20},
		},
		[]string{"model"},
	)

	// Batch metrics
	BatchRuns = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "hermes_batch_runs_total",
			Help: "Negotiations executed by the batch runner",
		},
		[]string{"status"}, // status: success|error
	)
)

// Init registers all metrics with Prometheus
func Init() {
	prometheus.MustRegister(NegotiationOutcomes)
	prometheus.MustRegister(NegotiationRounds)
	prometheus.MustRegister(NegotiationDuration)
	prometheus.MustRegister(OffersClamped)

	prometheus.MustRegister(AdviceCalls)
	prometheus.MustRegister(AdviceLatency)

	prometheus.MustRegister(BatchRuns)
}

// Handler returns Prometheus HTTP handler
func Handler() http.Handler {
	return promhttp.Handler()
}

// RecordNegotiation records one finished negotiation run
func RecordNegotiation(outcome string, rounds int, duration time.Duration) {
	NegotiationOutcomes.WithLabelValues(outcome).Inc()
	NegotiationRounds.Observe(float64(rounds))
	NegotiationDuration.Observe(duration.Seconds())
}

// RecordClampedOffer records an offer pulled back to a valid value
func RecordClampedOffer(actor string) {
	OffersClamped.WithLabelValues(actor).Inc()
}

// RecordAdviceCall records an advice provider invocation
func RecordAdviceCall(model string, latency time.Duration, err error) {
	status := "success"
	if err != nil {
		status = "error"
	}
	AdviceCalls.WithLabelValues(model, status).Inc()
	AdviceLatency.WithLabelValues(model).Observe(latency.Seconds())
}

// RecordBatchRun records one batch runner execution
func RecordBatchRun(err error) {
	status := "success"
	if err != nil {
		status = "error"
	}
	BatchRuns.WithLabelValues(status).Inc()
}
