package metrics

import (
	"log"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
)

// AppMetrics holds the application's metric instruments.
type AppMetrics struct {
	UploadsTotal           metric.Int64Counter
	UploadBytesTotal       metric.Int64Counter
	DownloadsTotal         metric.Int64Counter
	SoftDeletesTotal       metric.Int64Counter
	ReclamationsTotal      metric.Int64Counter
	LoginAttemptsTotal     metric.Int64Counter
	DbQueryDurationSeconds metric.Float64Histogram
	DbQueryErrorsTotal     metric.Int64Counter
}

var (
	appMetrics *AppMetrics
	once       sync.Once
)

// InitAppMetrics creates the instruments once from the global MeterProvider.
// Instruments created before the provider is installed are delegated to it
// once it is.
func InitAppMetrics() {
	once.Do(func() {
		meter := otel.GetMeterProvider().Meter("CemeteryRegistry")
		m := &AppMetrics{
			UploadsTotal: counter(meter, "file_uploads_total",
				"Total number of stored file uploads", "{file}"),
			UploadBytesTotal: counter(meter, "file_upload_bytes_total",
				"Total bytes written by uploads", "By"),
			DownloadsTotal: counter(meter, "file_downloads_total",
				"Total number of served downloads", "{file}"),
			SoftDeletesTotal: counter(meter, "soft_deletes_total",
				"Total number of rows marked deleted", "{row}"),
			ReclamationsTotal: counter(meter, "identity_reclamations_total",
				"Total number of soft-deleted identities restored", "{row}"),
			LoginAttemptsTotal: counter(meter, "login_attempts_total",
				"Total number of login attempts", "{request}"),
			DbQueryErrorsTotal: counter(meter, "db_query_errors_total",
				"Total number of database query errors", "{error}"),
		}

		var err error
		m.DbQueryDurationSeconds, err = meter.Float64Histogram(
			"db_query_duration_seconds",
			metric.WithDescription("Duration of database queries in seconds"),
			metric.WithUnit("s"),
		)
		if err != nil {
			log.Fatalf("Metrics: Failed to create db_query_duration_seconds: %v", err)
		}

		appMetrics = m
	})
}

func counter(meter metric.Meter, name, desc, unit string) metric.Int64Counter {
	c, err := meter.Int64Counter(name, metric.WithDescription(desc), metric.WithUnit(unit))
	if err != nil {
		log.Fatalf("Metrics: Failed to create %s: %v", name, err)
	}
	return c
}

// Get returns the instruments, creating them on first use.
func Get() *AppMetrics {
	InitAppMetrics()
	return appMetrics
}
