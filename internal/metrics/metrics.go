// Package metrics holds the service's prometheus collectors.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// DegradedReads counts lenient reads that returned an empty result
	// because the store failed.
	DegradedReads = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "crm",
		Subsystem: "docstore",
		Name:      "degraded_reads_total",
		Help:      "Reads served empty because the document store failed.",
	}, []string{"collection", "reason"})

	TransactionRetries = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "crm",
		Subsystem: "docstore",
		Name:      "transaction_retries_total",
		Help:      "Transactions re-run after a write conflict.",
	})

	HTTPRequests = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "crm",
		Subsystem: "http",
		Name:      "requests_total",
		Help:      "HTTP requests by route template, method and status.",
	}, []string{"route", "method", "code"})

	HTTPDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "crm",
		Subsystem: "http",
		Name:      "request_duration_seconds",
		Help:      "HTTP request latency by route template.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"route"})

	EventsPublished = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "crm",
		Subsystem: "events",
		Name:      "published_total",
		Help:      "Change signals published on the in-process bus.",
	}, []string{"topic"})
)

// Registry is the registry the /metrics endpoint serves.
var Registry = prometheus.NewRegistry()

func init() {
	Registry.MustRegister(
		DegradedReads,
		TransactionRetries,
		HTTPRequests,
		HTTPDuration,
		EventsPublished,
		prometheus.NewGoCollector(),
		prometheus.NewProcessCollector(prometheus.ProcessCollectorOpts{}),
	)
}

// Handler serves Registry in the prometheus exposition format.
func Handler() http.Handler {
	return promhttp.HandlerFor(Registry, promhttp.HandlerOpts{})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

// Flush keeps streaming handlers working behind the recorder.
func (r *statusRecorder) Flush() {
	if f, ok := r.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

// Middleware records request counts and latency, labelled by the mux route
// template so ids do not explode cardinality.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)

		route := "unmatched"
		if current := mux.CurrentRoute(r); current != nil {
			if tpl, err := current.GetPathTemplate(); err == nil {
				route = tpl
			}
		}
		HTTPRequests.WithLabelValues(route, r.Method, strconv.Itoa(rec.status)).Inc()
		HTTPDuration.WithLabelValues(route).Observe(time.Since(start).Seconds())
	})
}
