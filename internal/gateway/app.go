package gateway

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"Gragolf/internal/account"
	"Gragolf/internal/cart"
	"Gragolf/internal/catalog"
	"Gragolf/internal/kv"
	"Gragolf/internal/order"
	"Gragolf/internal/origin"
	"Gragolf/pkg/kit"
)

type HTTPDeps struct {
	Log      *zap.Logger
	Service  string
	Registry *prometheus.Registry

	MetricsEnabled bool
	MetricsToken   string
}

type Limits struct {
	Window   time.Duration
	Origins  int
	Login    int
	Register int
}

type Deps struct {
	Store  *kv.Store
	Tokens *origin.TokenMaker
	Site   http.Handler
	Limits Limits
	Now    func() time.Time
}

const readyTimeout = 2 * time.Second

func NewHandler(deps Deps, httpDeps HTTPDeps) http.Handler {
	r := chi.NewRouter()
	setupMiddleware(r, httpDeps)
	metrics := setupMetrics(r, httpDeps)

	r.Get("/healthz", healthz)
	r.Get("/readyz", readyz(deps.Store, httpDeps.Log))

	r.With(limiter(deps.Limits.Origins, deps.Limits.Window)).
		Post("/origins", origin.Handler(deps.Tokens))
	r.Get("/search", search)

	catalogSrv := &catalog.Server{Log: httpDeps.Log}
	cartSrv := &cart.Server{Log: httpDeps.Log, Metrics: metrics}
	accountSrv := &account.Server{
		Log:             httpDeps.Log,
		Metrics:         metrics,
		LoginLimiter:    newLimiter(deps.Limits.Login, deps.Limits.Window),
		RegisterLimiter: newLimiter(deps.Limits.Register, deps.Limits.Window),
	}
	orderSrv := &order.Server{Log: httpDeps.Log, Metrics: metrics, Now: deps.Now}

	serializer := origin.NewSerializer()
	r.Route("/api", func(api chi.Router) {
		api.Use(origin.AuthJWT(deps.Tokens, deps.Store))
		api.Use(serializer.Middleware)

		api.Mount("/products", catalogSrv.Routes())
		api.Get("/catalogue", catalogSrv.SearchHandler())
		api.Mount("/cart", cartSrv.Routes())
		api.Mount("/account", accountSrv.Routes())
		api.Mount("/orders", orderSrv.Routes())
	})

	if deps.Site != nil {
		r.Handle("/*", deps.Site)
	}

	return r
}

func setupMiddleware(r *chi.Mux, deps HTTPDeps) {
	r.Use(chimw.RequestID)
	r.Use(kit.Recoverer(deps.Log))
	r.Use(kit.Logging(deps.Log))
}

func setupMetrics(r *chi.Mux, deps HTTPDeps) *kit.Metrics {
	if deps.Registry == nil {
		return nil
	}

	metrics := kit.NewMetrics(deps.Registry)
	r.Use(metrics.Middleware(deps.Service, kit.ChiRoutePatternOrPath))

	if deps.MetricsEnabled {
		r.With(kit.MetricsAuth(deps.MetricsToken)).
			Handle("/metrics", promhttp.HandlerFor(deps.Registry, promhttp.HandlerOpts{}))
	}
	return metrics
}

func newLimiter(limit int, window time.Duration) *kit.IPRateLimiter {
	if limit <= 0 || window <= 0 {
		return nil
	}
	return kit.NewIPRateLimiter(limit, window)
}

func limiter(limit int, window time.Duration) func(http.Handler) http.Handler {
	l := newLimiter(limit, window)
	if l == nil {
		return func(next http.Handler) http.Handler { return next }
	}
	return l.Middleware
}

func healthz(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
}

func readyz(st *kv.Store, log *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), readyTimeout)
		defer cancel()

		if err := st.Ping(ctx); err != nil {
			if log != nil {
				log.Warn("readyz failed: store", zap.Error(err))
			}
			kit.WriteError(w, r, http.StatusServiceUnavailable, "store not ready", nil)
			return
		}
		w.WriteHeader(http.StatusOK)
	}
}

// search is the target of the site-wide search form.
func search(w http.ResponseWriter, r *http.Request) {
	http.Redirect(w, r, "/"+catalog.SearchLocation(r.URL.Query().Get("q")), http.StatusSeeOther)
}
