package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var HttpRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "http_requests_total",
	Help: "Total number of requests labelled by path and status",
}, []string{"path", "status"})

var LLMRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "llm_requests_total",
	Help: "Chat completion calls labelled by outcome",
}, []string{"status"})

var indexBuildDuration = promauto.NewHistogram(prometheus.HistogramOpts{
	Name:    "index_build_duration_seconds",
	Help:    "Time spent embedding and indexing all chunks",
	Buckets: prometheus.ExponentialBuckets(0.5, 2, 10),
})

var indexedChunks = promauto.NewGauge(prometheus.GaugeOpts{
	Name: "indexed_chunks",
	Help: "Number of chunks held by the vector index",
})

// HttpStatusRecorder remembers the status code written by a handler.
type HttpStatusRecorder struct {
	http.ResponseWriter
	Status int
}

func (r *HttpStatusRecorder) WriteHeader(code int) {
	r.Status = code
	r.ResponseWriter.WriteHeader(code)
}

func ObserveIndexBuild(d time.Duration, chunks int) {
	indexBuildDuration.Observe(d.Seconds())
	indexedChunks.Set(float64(chunks))
}

func ObserveLLMCall(err error) {
	if err != nil {
		LLMRequestsTotal.WithLabelValues("error").Inc()
		return
	}
	LLMRequestsTotal.WithLabelValues("ok").Inc()
}

func Handler() http.Handler {
	return promhttp.Handler()
}
