package cart

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"Gragolf/internal/catalog"
	"Gragolf/internal/origin"
	"Gragolf/pkg/kit"
)

type Server struct {
	Log     *zap.Logger
	Metrics *kit.Metrics
}

func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()

	r.Get("/", s.view)
	r.Delete("/", s.clear)
	r.Post("/items", s.add)
	r.Patch("/items/{productID}", s.update)
	r.Delete("/items/{productID}", s.remove)

	return r
}

type addReq struct {
	ProductID string           `json:"productId" validate:"omitempty,max=128"`
	Name      string           `json:"name" validate:"required,max=256"`
	Price     *decimal.Decimal `json:"price"`
	Quantity  int              `json:"quantity" validate:"omitempty,min=1,max=10000"`
	Image     string           `json:"image" validate:"omitempty,max=2048"`
}

type updateReq struct {
	Quantity int `json:"quantity" validate:"max=10000"`
}

func (s *Server) engine(w http.ResponseWriter, r *http.Request) (*Engine, bool) {
	st, ok := origin.Store(w, r)
	if !ok {
		return nil, false
	}
	return NewEngine(NewRepository(st), catalog.NewRepository(st)), true
}

func (s *Server) view(w http.ResponseWriter, r *http.Request) {
	e, ok := s.engine(w, r)
	if !ok {
		return
	}
	v, err := e.View(r.Context())
	if err != nil {
		s.writeError(w, r, "view", err)
		return
	}
	kit.WriteJSON(w, http.StatusOK, v)
}

func (s *Server) add(w http.ResponseWriter, r *http.Request) {
	var req addReq
	if !kit.DecodeJSON(w, r, &req) {
		return
	}
	if req.Price != nil && req.Price.IsNegative() {
		kit.WriteError(w, r, http.StatusBadRequest, "validation failed", map[string]string{"price": "min"})
		return
	}

	e, ok := s.engine(w, r)
	if !ok {
		return
	}

	in := AddRequest{
		ProductID: req.ProductID,
		Name:      req.Name,
		Price:     req.Price,
		Quantity:  req.Quantity,
		Image:     req.Image,
	}

	items, err := e.AddItem(r.Context(), in)
	if err != nil {
		s.writeError(w, r, "cart_add", err)
		return
	}
	s.Metrics.Event("cart_add", "ok")
	kit.WriteJSON(w, http.StatusOK, NewView(items))
}

func (s *Server) update(w http.ResponseWriter, r *http.Request) {
	var req updateReq
	if !kit.DecodeJSON(w, r, &req) {
		return
	}
	e, ok := s.engine(w, r)
	if !ok {
		return
	}

	items, err := e.UpdateQuantity(r.Context(), chi.URLParam(r, "productID"), req.Quantity)
	if err != nil {
		s.writeError(w, r, "cart_update", err)
		return
	}
	kit.WriteJSON(w, http.StatusOK, NewView(items))
}

func (s *Server) remove(w http.ResponseWriter, r *http.Request) {
	e, ok := s.engine(w, r)
	if !ok {
		return
	}

	items, err := e.RemoveItem(r.Context(), chi.URLParam(r, "productID"))
	if err != nil {
		s.writeError(w, r, "cart_remove", err)
		return
	}
	kit.WriteJSON(w, http.StatusOK, NewView(items))
}

func (s *Server) clear(w http.ResponseWriter, r *http.Request) {
	e, ok := s.engine(w, r)
	if !ok {
		return
	}
	if err := e.Clear(r.Context()); err != nil {
		s.writeError(w, r, "cart_clear", err)
		return
	}
	kit.WriteJSON(w, http.StatusOK, NewView(nil))
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, event string, err error) {
	var stock *catalog.StockError

	switch {
	case errors.As(err, &stock):
		s.Metrics.Event(event, "insufficient_stock")
		kit.WriteError(w, r, http.StatusConflict, "not enough stock", map[string]any{
			"name":      stock.Name,
			"available": stock.Available,
		})
	case errors.Is(err, catalog.ErrOutOfStock):
		s.Metrics.Event(event, "out_of_stock")
		kit.WriteError(w, r, http.StatusConflict, "out of stock", nil)
	case errors.Is(err, ErrItemNotFound):
		kit.WriteError(w, r, http.StatusNotFound, "not found", map[string]any{"productId": chi.URLParam(r, "productID")})
	default:
		if s.Log != nil {
			s.Log.Error("cart command failed", zap.String("event", event), zap.Error(err))
		}
		kit.WriteError(w, r, http.StatusInternalServerError, "server error", nil)
	}
}
