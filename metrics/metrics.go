// Package metrics instruments a cilq run with Prometheus collectors. There
// is no HTTP server here — cilq is a batch CLI, not a long-running
// service — so metrics are gathered straight out of the default registry
// and rendered as text when the --metrics flag is passed.
package metrics

import (
	"bytes"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/common/expfmt"
)

var (
	// RefreshDuration tracks how long refreshing one file takes: the stat and
	// freshness check, plus parse, normalize and UpsertFile for a stale file.
	RefreshDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "cilq_refresh_duration_seconds",
		Help:    "Time to parse, normalize, and persist one CIL file.",
		Buckets: prometheus.DefBuckets,
	})

	// QueryResults tracks result-set size by search mode (te, attr,
	// resolveattr); from-diff runs are not recorded.
	QueryResults = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "cilq_query_results",
		Help:    "Number of records returned by a query, by search mode.",
		Buckets: []float64{0, 1, 2, 5, 10, 25, 100, 1000},
	}, []string{"mode"})

	// StoreBusyTotal counts lock-acquisition timeouts surfaced as
	// StoreBusy.
	StoreBusyTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "cilq_store_busy_total",
		Help: "Number of UpsertFile calls that exhausted their lock-acquisition timeout.",
	})
)

// Dump renders every collector registered on the default registry in
// Prometheus text exposition format, for the --metrics flag.
func Dump() (string, error) {
	families, err := prometheus.DefaultGatherer.Gather()
	if err != nil {
		return "", err
	}
	var buf bytes.Buffer
	for _, mf := range families {
		if _, err := expfmt.MetricFamilyToText(&buf, mf); err != nil {
			return "", err
		}
	}
	return buf.String(), nil
}
