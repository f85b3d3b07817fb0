package transport

import "time"

// MetricsCollector receives one observation per request sent by the resty
// transport.
type MetricsCollector interface {
	RecordRequestDuration(method, path string, statusCode int, duration time.Duration)
	RecordRequestCount(method, path string, statusCode int)
	RecordRequestError(method, path string)
}

// NoopMetricsCollector is a metrics collector that does nothing
type NoopMetricsCollector struct{}

func (NoopMetricsCollector) RecordRequestDuration(method, path string, statusCode int, duration time.Duration) {
}
func (NoopMetricsCollector) RecordRequestCount(method, path string, statusCode int) {}
func (NoopMetricsCollector) RecordRequestError(method, path string)                 {}
