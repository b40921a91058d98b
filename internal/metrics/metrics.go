package metrics

import (
	"errors"
	"strconv"
	"sync/atomic"

	"github.com/prometheus/client_golang/prometheus"
)

// Package-level Prometheus collectors. They are registered via Register.
var (
	regOK atomic.Bool

	recordsDecoded = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "sharex_purge",
			Subsystem: "history",
			Name:      "records_decoded_total",
			Help:      "Number of history records decoded from the log.",
		},
	)
	endpointsSelected = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "sharex_purge",
			Subsystem: "history",
			Name:      "endpoints_selected_total",
			Help:      "Number of deletion endpoints selected for a host.",
		}, []string{"host"},
	)
	deletions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "sharex_purge",
			Subsystem: "delete",
			Name:      "requests_total",
			Help:      "Number of deletion requests by result.",
		}, []string{"host", "result"},
	)
	batchesRejected = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "sharex_purge",
			Subsystem: "delete",
			Name:      "batches_rejected_total",
			Help:      "Number of batches refused for exceeding the batch limit.",
		}, []string{"host"},
	)
	rateRemaining = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: "sharex_purge",
			Subsystem: "delete",
			Name:      "rate_limit_remaining",
			Help:      "Remaining request quota last reported by the host.",
		}, []string{"host"},
	)
	runDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "sharex_purge",
			Subsystem: "run",
			Name:      "duration_seconds",
			Help:      "Wall time of a purge run.",
			Buckets:   prometheus.DefBuckets,
		},
	)
)

// Register registers all metrics with the provided registerer. Every
// registerer passed in receives the collectors; registering twice with the
// same one is a no-op.
func Register(r prometheus.Registerer) error {
	cs := []prometheus.Collector{recordsDecoded, endpointsSelected, deletions, batchesRejected, rateRemaining, runDuration}
	for _, c := range cs {
		if err := r.Register(c); err != nil {
			var are prometheus.AlreadyRegisteredError
			if errors.As(err, &are) {
				continue
			}
			return err
		}
	}
	regOK.Store(true)
	return nil
}

// WriteTextfile dumps g in the node-exporter textfile format. A one-shot
// run has no scrape endpoint, so this is how its metrics leave the process.
func WriteTextfile(path string, g prometheus.Gatherer) error {
	return prometheus.WriteToTextfile(path, g)
}

// Below are lightweight helpers used by internal packages to record metrics.
// They no-op if Register hasn't been called.

// AddDecoded counts records decoded from a history log.
func AddDecoded(n int) {
	if regOK.Load() {
		recordsDecoded.Add(float64(n))
	}
}

// AddSelected counts endpoints selected for deletion on host.
func AddSelected(host string, n int) {
	if regOK.Load() {
		endpointsSelected.WithLabelValues(host).Add(float64(n))
	}
}

// IncDeletion counts one deletion request against host by its result.
func IncDeletion(host string, succeeded bool) {
	if regOK.Load() {
		result := "failed"
		if succeeded {
			result = "succeeded"
		}
		deletions.WithLabelValues(host, result).Inc()
	}
}

// IncBatchRejected counts a batch refused for exceeding the limit.
func IncBatchRejected(host string) {
	if regOK.Load() {
		batchesRejected.WithLabelValues(host).Inc()
	}
}

// SetRateRemaining records the remaining quota when the header is numeric.
func SetRateRemaining(host, remaining string) {
	if !regOK.Load() {
		return
	}
	n, err := strconv.ParseFloat(remaining, 64)
	if err != nil {
		return
	}
	rateRemaining.WithLabelValues(host).Set(n)
}

// ObserveRun records the wall time of one purge run.
func ObserveRun(seconds float64) {
	if regOK.Load() {
		runDuration.Observe(seconds)
	}
}
