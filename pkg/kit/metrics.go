package kit

import (
	"crypto/subtle"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
)

var (
	requestLabels = []string{"service", "method", "path", "status"}
	latencyLabels = []string{"service", "method", "path"}
	eventLabels   = []string{"event", "outcome"}
)

// Metrics holds the request collectors and the storefront command counter.
type Metrics struct {
	Requests *prometheus.CounterVec
	Latency  *prometheus.HistogramVec
	Events   *prometheus.CounterVec
}

func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		Requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "HTTP requests by route and status.",
		}, requestLabels),
		Latency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request latency by route.",
			Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5},
		}, latencyLabels),
		Events: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "storefront_events_total",
			Help: "Storefront commands by outcome.",
		}, eventLabels),
	}

	reg.MustRegister(m.Requests, m.Latency, m.Events)
	return m
}

// Event counts one storefront command. Safe on a nil *Metrics.
func (m *Metrics) Event(event, outcome string) {
	if m == nil {
		return
	}
	m.Events.WithLabelValues(event, outcome).Inc()
}

func (m *Metrics) Middleware(service string, pathLabel func(*http.Request) string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()

			next.ServeHTTP(ww, r)

			status := ww.Status()
			if status == 0 {
				status = http.StatusOK
			}

			path := pathLabel(r)
			m.Latency.WithLabelValues(service, r.Method, path).Observe(time.Since(start).Seconds())
			m.Requests.WithLabelValues(service, r.Method, path, strconv.Itoa(status)).Inc()
		})
	}
}

// ChiRoutePatternOrPath labels requests by route pattern. Unrouted requests
// (static files, 404s) share one label to keep cardinality bounded.
func ChiRoutePatternOrPath(r *http.Request) string {
	if rc := chi.RouteContext(r.Context()); rc != nil {
		if rp := rc.RoutePattern(); rp != "" && rp != "/*" {
			return rp
		}
	}
	return "static"
}

// MetricsAuth guards the scrape endpoint with a static bearer token. An empty
// token locks the endpoint.
func MetricsAuth(token string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			got, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
			if token == "" || !ok || subtle.ConstantTimeCompare([]byte(got), []byte(token)) != 1 {
				WriteError(w, r, http.StatusForbidden, "forbidden", nil)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
