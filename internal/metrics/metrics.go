package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	authEvents = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "baseball_auth_events_total",
		Help: "Authentication attempts by operation and outcome",
	}, []string{"operation", "outcome"})

	ingestRecords = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "baseball_ingest_records_total",
		Help: "Ingested records by source and outcome",
	}, []string{"source", "outcome"})

	ingestFieldRejections = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "baseball_ingest_field_rejections_total",
		Help: "Fields dropped during ingestion, by canonical field",
	}, []string{"field"})

	ingestBatchDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "baseball_ingest_batch_duration_seconds",
		Help:    "Wall time of ingestion batches",
		Buckets: prometheus.DefBuckets,
	}, []string{"source", "status"})
)

func AuthEvent(operation, outcome string) {
	authEvents.WithLabelValues(operation, outcome).Inc()
}

func IngestRecord(source, outcome string) {
	ingestRecords.WithLabelValues(source, outcome).Inc()
}

func IngestFieldRejected(field string) {
	ingestFieldRejections.WithLabelValues(field).Inc()
}

func IngestBatch(source, status string, d time.Duration) {
	ingestBatchDuration.WithLabelValues(source, status).Observe(d.Seconds())
}

func Handler() http.Handler {
	return promhttp.Handler()
}
