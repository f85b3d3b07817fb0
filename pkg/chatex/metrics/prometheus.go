// Package metrics exposes request metrics of the Chatex transport to
// Prometheus.
package metrics

import (
	"fmt"
	"net/http"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Collector implements transport.MetricsCollector.
type Collector struct {
	duration *prometheus.HistogramVec
	requests *prometheus.CounterVec
	errors   *prometheus.CounterVec
}

// NewCollector creates the instruments under namespace and registers them
// with reg.
func NewCollector(reg prometheus.Registerer, namespace string) (*Collector, error) {
	c := &Collector{
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http_client",
			Name:      "request_duration_seconds",
			Help:      "Duration of Chatex API requests.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "path", "status"}),
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http_client",
			Name:      "requests_total",
			Help:      "Chatex API requests that received a response.",
		}, []string{"method", "path", "status"}),
		errors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http_client",
			Name:      "request_errors_total",
			Help:      "Chatex API requests that failed without a response.",
		}, []string{"method", "path"}),
	}

	for _, col := range []prometheus.Collector{c.duration, c.requests, c.errors} {
		if err := reg.Register(col); err != nil {
			return nil, fmt.Errorf("register metrics: %w", err)
		}
	}
	return c, nil
}

func (c *Collector) RecordRequestDuration(method, path string, statusCode int, duration time.Duration) {
	c.duration.WithLabelValues(method, NormalizePath(path), strconv.Itoa(statusCode)).Observe(duration.Seconds())
}

func (c *Collector) RecordRequestCount(method, path string, statusCode int) {
	c.requests.WithLabelValues(method, NormalizePath(path), strconv.Itoa(statusCode)).Inc()
}

func (c *Collector) RecordRequestError(method, path string) {
	c.errors.WithLabelValues(method, NormalizePath(path)).Inc()
}

var idSegment = regexp.MustCompile(`^([0-9]+|[0-9a-fA-F]{8}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{12})$`)

// NormalizePath replaces numeric and UUID path segments with ":id" so label
// cardinality stays bounded.
func NormalizePath(path string) string {
	segs := strings.Split(path, "/")
	for i, s := range segs {
		if idSegment.MatchString(s) {
			segs[i] = ":id"
		}
	}
	return strings.Join(segs, "/")
}

// Handler serves the metrics gathered by g.
func Handler(g prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(g, promhttp.HandlerOpts{})
}
