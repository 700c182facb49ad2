package order

import (
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"Gragolf/internal/account"
	"Gragolf/internal/cart"
	"Gragolf/internal/catalog"
	"Gragolf/internal/origin"
	"Gragolf/pkg/kit"
)

type Server struct {
	Log     *zap.Logger
	Metrics *kit.Metrics
	Now     func() time.Time
}

func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()

	r.Post("/", s.create)
	r.Get("/", s.history)

	return r
}

func (s *Server) create(w http.ResponseWriter, r *http.Request) {
	st, ok := origin.Store(w, r)
	if !ok {
		return
	}

	wf := &Workflow{
		Catalog:  catalog.NewRepository(st),
		Cart:     cart.NewRepository(st),
		Accounts: account.NewService(account.NewRepository(st)),
		Now:      s.Now,
	}

	o, err := wf.Place(r.Context())
	if err != nil {
		s.writeCreateError(w, r, err)
		return
	}

	s.Metrics.Event("order", "placed")
	kit.WriteJSON(w, http.StatusCreated, o)
}

func (s *Server) history(w http.ResponseWriter, r *http.Request) {
	st, ok := origin.Store(w, r)
	if !ok {
		return
	}

	a, found, err := account.NewService(account.NewRepository(st)).Current(r.Context())
	if err != nil {
		if s.Log != nil {
			s.Log.Error("load history failed", zap.Error(err))
		}
		kit.WriteError(w, r, http.StatusInternalServerError, "server error", nil)
		return
	}
	if !found {
		kit.WriteError(w, r, http.StatusUnauthorized, "not logged in", nil)
		return
	}

	h := a.History
	if h == nil {
		h = []account.Order{}
	}
	kit.WriteJSON(w, http.StatusOK, h)
}

func (s *Server) writeCreateError(w http.ResponseWriter, r *http.Request, err error) {
	var stock *catalog.StockError

	switch {
	case errors.Is(err, ErrNotAuthenticated):
		s.Metrics.Event("order", "not_authenticated")
		kit.WriteError(w, r, http.StatusUnauthorized, "please login first", nil)
	case errors.Is(err, ErrEmptyCart):
		s.Metrics.Event("order", "empty_cart")
		kit.WriteError(w, r, http.StatusConflict, "cart is empty", nil)
	case errors.Is(err, ErrInvalidQuantity):
		s.Metrics.Event("order", "invalid_quantity")
		kit.WriteError(w, r, http.StatusConflict, "invalid quantity in cart", nil)
	case errors.As(err, &stock):
		s.Metrics.Event("order", "insufficient_stock")
		kit.WriteError(w, r, http.StatusConflict, stock.Error(), map[string]any{
			"name":      stock.Name,
			"available": stock.Available,
		})
	case errors.Is(err, account.ErrUserNotFound):
		s.Metrics.Event("order", "user_not_found")
		kit.WriteError(w, r, http.StatusUnauthorized, "user not found, please re-login", nil)
	default:
		if s.Log != nil {
			s.Log.Error("place order failed", zap.Error(err))
		}
		kit.WriteError(w, r, http.StatusInternalServerError, "server error", nil)
	}
}
