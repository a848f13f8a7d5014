// Package observability provides OpenTelemetry instrumentation for tracing
// and metrics.
package observability

import (
	"context"
	"fmt"
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/prometheus"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
)

// InitMetrics initializes the OpenTelemetry metrics provider with a
// Prometheus exporter. It returns the HTTP handler for the /metrics endpoint
// and a shutdown function for application exit.
func InitMetrics() (http.Handler, func(context.Context) error, error) {
	exporter, err := prometheus.New()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create prometheus exporter: %w", err)
	}

	provider := sdkmetric.NewMeterProvider(
		sdkmetric.WithReader(exporter),
	)

	otel.SetMeterProvider(provider)

	return promhttp.Handler(), provider.Shutdown, nil
}

// PipelineMetrics holds the import pipeline instruments.
type PipelineMetrics struct {
	JobsCompleted metric.Int64Counter
	JobsFailed    metric.Int64Counter
	RowsImported  metric.Int64Counter
	RowsRejected  metric.Int64Counter
}

// NewPipelineMetrics registers the pipeline instruments on the global meter
// and an observable gauge reporting the queue backlog.
func NewPipelineMetrics(queueDepth func() int) (*PipelineMetrics, error) {
	meter := otel.Meter("debtorbatch/importer")

	jobsCompleted, err := meter.Int64Counter("import_jobs_completed_total",
		metric.WithDescription("Import jobs finished in COMPLETED state"))
	if err != nil {
		return nil, err
	}
	jobsFailed, err := meter.Int64Counter("import_jobs_failed_total",
		metric.WithDescription("Import jobs finished in FAILED state"))
	if err != nil {
		return nil, err
	}
	rowsImported, err := meter.Int64Counter("import_rows_imported_total",
		metric.WithDescription("Debtor rows accepted by Core"))
	if err != nil {
		return nil, err
	}
	rowsRejected, err := meter.Int64Counter("import_rows_rejected_total",
		metric.WithDescription("Debtor rows rejected by validation or Core"))
	if err != nil {
		return nil, err
	}

	_, err = meter.Int64ObservableGauge("import_queue_depth",
		metric.WithDescription("Import jobs waiting in the queue"),
		metric.WithInt64Callback(func(_ context.Context, o metric.Int64Observer) error {
			o.Observe(int64(queueDepth()))
			return nil
		}),
	)
	if err != nil {
		return nil, err
	}

	return &PipelineMetrics{
		JobsCompleted: jobsCompleted,
		JobsFailed:    jobsFailed,
		RowsImported:  rowsImported,
		RowsRejected:  rowsRejected,
	}, nil
}
