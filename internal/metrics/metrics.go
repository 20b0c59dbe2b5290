package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	AggregationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pivotd_aggregations_total",
			Help: "Total number of pivot aggregations",
		},
		[]string{"source", "status"},
	)

	AggregationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "pivotd_aggregation_duration_seconds",
			Help:    "Duration of pivot aggregations, query time excluded",
			Buckets: prometheus.ExponentialBuckets(0.0001, 2, 14), // 0.1ms to ~0.8s
		},
		[]string{"source"},
	)

	QueryDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "pivotd_query_duration_seconds",
			Help:    "Duration of dataset group-by queries",
			Buckets: prometheus.ExponentialBuckets(0.001, 2, 12), // 0.001s to ~4.1s
		},
	)

	CacheLookups = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pivotd_query_cache_lookups_total",
			Help: "Query cache lookups by result",
		},
		[]string{"result"},
	)

	DatasetRows = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "pivotd_dataset_rows",
			Help: "Rows in the loaded dataset",
		},
	)

	DatasetSkippedRows = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "pivotd_dataset_skipped_rows",
			Help: "Dataset lines skipped while loading",
		},
	)

	DatasetLoadDuration = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "pivotd_dataset_load_duration_seconds",
			Help: "Duration of the last dataset load",
		},
	)

	MalformedFieldsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "pivotd_malformed_fields_total",
			Help: "Fields skipped by the aggregator because they were neither measures nor attributes",
		},
	)
)
