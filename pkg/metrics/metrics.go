package metrics

import (
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "healthcare"

// Recorder is nil-safe so components can run without metrics wired.
type Recorder struct {
	agentCalls    *prometheus.CounterVec
	fallbacks     *prometheus.CounterVec
	knowledgeTier *prometheus.CounterVec
	bookings      *prometheus.CounterVec
	httpDuration  *prometheus.HistogramVec
	gatherer      prometheus.Gatherer
}

var (
	defaultRecorder     *Recorder
	defaultRecorderOnce sync.Once
)

func Default() *Recorder {
	defaultRecorderOnce.Do(func() {
		defaultRecorder = newRecorder(prometheus.DefaultRegisterer, prometheus.DefaultGatherer)
	})
	return defaultRecorder
}

// NewWithRegistry binds a recorder to a dedicated registry.
func NewWithRegistry(reg *prometheus.Registry) *Recorder {
	return newRecorder(reg, reg)
}

func newRecorder(reg prometheus.Registerer, gatherer prometheus.Gatherer) *Recorder {
	factory := promauto.With(reg)
	return &Recorder{
		agentCalls: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "orchestrator",
			Name:      "agent_calls_total",
			Help:      "Specialized agent calls by agent and result status",
		}, []string{"agent", "status"}),
		fallbacks: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "fallbacks_total",
			Help:      "Deterministic fallback substitutions by component",
		}, []string{"component"}),
		knowledgeTier: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "knowledge",
			Name:      "retrievals_total",
			Help:      "Knowledge searches by the retrieval tier that produced the result",
		}, []string{"tier"}),
		bookings: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "booking",
			Name:      "requests_total",
			Help:      "Appointment requests by flow and outcome",
		}, []string{"flow", "outcome"}),
		httpDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request latency by route and status",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route", "status"}),
		gatherer: gatherer,
	}
}

func (r *Recorder) AgentCall(agent, status string) {
	if r == nil {
		return
	}
	r.agentCalls.WithLabelValues(agent, status).Inc()
}

func (r *Recorder) Fallback(component string) {
	if r == nil {
		return
	}
	r.fallbacks.WithLabelValues(component).Inc()
}

func (r *Recorder) KnowledgeTier(tier string) {
	if r == nil {
		return
	}
	r.knowledgeTier.WithLabelValues(tier).Inc()
}

func (r *Recorder) Booking(flow, outcome string) {
	if r == nil {
		return
	}
	r.bookings.WithLabelValues(flow, outcome).Inc()
}

// Middleware records request latency labelled by the matched chi route.
func (r *Recorder) Middleware(next http.Handler) http.Handler {
	if r == nil {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, req.ProtoMajor)
		next.ServeHTTP(ww, req)

		route := req.URL.Path
		if rctx := chi.RouteContext(req.Context()); rctx != nil {
			if p := rctx.RoutePattern(); p != "" {
				route = p
			}
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		r.httpDuration.WithLabelValues(req.Method, route, strconv.Itoa(status)).Observe(time.Since(start).Seconds())
	})
}

func (r *Recorder) Handler() http.Handler {
	if r == nil {
		return promhttp.Handler()
	}
	return promhttp.HandlerFor(r.gatherer, promhttp.HandlerOpts{})
}
