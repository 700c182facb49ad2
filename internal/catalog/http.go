package catalog

import (
	"net/http"
	"net/url"
	"strconv"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"Gragolf/internal/origin"
	"Gragolf/pkg/kit"
)

type Server struct {
	Log *zap.Logger
}

func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()

	r.Get("/", s.list)
	r.Get("/suggest", s.suggest)
	r.Get("/{name}", s.get)

	return r
}

// SearchHandler serves the catalogue page state for ?q=.
func (s *Server) SearchHandler() http.HandlerFunc {
	return s.search
}

func (s *Server) load(w http.ResponseWriter, r *http.Request) ([]Product, bool) {
	st, ok := origin.Store(w, r)
	if !ok {
		return nil, false
	}

	products, err := NewRepository(st).Load(r.Context())
	if err != nil {
		if s.Log != nil {
			s.Log.Error("load catalogue failed", zap.Error(err))
		}
		kit.WriteError(w, r, http.StatusInternalServerError, "server error", nil)
		return nil, false
	}
	return products, true
}

func (s *Server) list(w http.ResponseWriter, r *http.Request) {
	products, ok := s.load(w, r)
	if !ok {
		return
	}
	kit.WriteJSON(w, http.StatusOK, Listing(products))
}

func (s *Server) get(w http.ResponseWriter, r *http.Request) {
	name, ok := productName(r)
	if !ok {
		kit.WriteError(w, r, http.StatusBadRequest, "bad product name", nil)
		return
	}

	products, ok := s.load(w, r)
	if !ok {
		return
	}

	p, found := FindByName(products, name)
	if !found {
		kit.WriteError(w, r, http.StatusNotFound, "not found", map[string]any{"name": name})
		return
	}
	kit.WriteJSON(w, http.StatusOK, Listing([]Product{p})[0])
}

func (s *Server) suggest(w http.ResponseWriter, r *http.Request) {
	limit := DefaultSuggestLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			kit.WriteError(w, r, http.StatusBadRequest, "bad limit", map[string]any{"limit": raw})
			return
		}
		limit = n
	}

	products, ok := s.load(w, r)
	if !ok {
		return
	}
	kit.WriteJSON(w, http.StatusOK, Suggest(r.URL.Query().Get("q"), products, limit))
}

func (s *Server) search(w http.ResponseWriter, r *http.Request) {
	products, ok := s.load(w, r)
	if !ok {
		return
	}
	kit.WriteJSON(w, http.StatusOK, ApplySearch(r.URL.Query().Get("q"), products))
}

// productName returns the decoded {name} param. chi routes on RawPath when the
// request carries one, and only then is the param still escaped.
func productName(r *http.Request) (string, bool) {
	name := chi.URLParam(r, "name")
	if r.URL.RawPath == "" {
		return name, true
	}
	name, err := url.PathUnescape(name)
	return name, err == nil
}
