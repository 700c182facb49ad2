package account

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"Gragolf/internal/origin"
	"Gragolf/pkg/kit"
)

type Server struct {
	Log     *zap.Logger
	Metrics *kit.Metrics

	LoginLimiter    *kit.IPRateLimiter
	RegisterLimiter *kit.IPRateLimiter
}

func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()

	r.With(limit(s.RegisterLimiter)).Post("/register", s.handleRegister)
	r.With(limit(s.LoginLimiter)).Post("/login", s.handleLogin)
	r.Post("/logout", s.handleLogout)
	r.Get("/", s.handleCurrent)
	r.Put("/settings", s.handleSettings)

	return r
}

func limit(l *kit.IPRateLimiter) func(http.Handler) http.Handler {
	if l == nil {
		return func(next http.Handler) http.Handler { return next }
	}
	return l.Middleware
}

type registerReq struct {
	Username        string `json:"username" validate:"required,max=64"`
	Email           string `json:"email" validate:"required,max=254"`
	Password        string `json:"password" validate:"required,max=256"`
	ConfirmPassword string `json:"confirm_password" validate:"required,eqfield=Password"`
}

type loginReq struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type settingsReq struct {
	Email           string `json:"email" validate:"max=254"`
	CurrentPassword string `json:"current_password"`
	NewPassword     string `json:"new_password" validate:"max=256"`
	ConfirmPassword string `json:"confirm_password"`
}

type accountResp struct {
	Username string       `json:"username"`
	Email    string       `json:"email"`
	History  []Order      `json:"history"`
	Rows     []HistoryRow `json:"history_rows"`
}

func newAccountResp(a Account) accountResp {
	h := a.History
	if h == nil {
		h = []Order{}
	}
	return accountResp{
		Username: a.Username,
		Email:    a.Email,
		History:  h,
		Rows:     HistoryRows(h),
	}
}

func (s *Server) service(w http.ResponseWriter, r *http.Request) (*Service, bool) {
	st, ok := origin.Store(w, r)
	if !ok {
		return nil, false
	}
	return NewService(NewRepository(st)), true
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req registerReq
	if !kit.DecodeJSON(w, r, &req) {
		return
	}
	svc, ok := s.service(w, r)
	if !ok {
		return
	}

	a, err := svc.Register(r.Context(), req.Username, req.Email, req.Password)
	if err != nil {
		s.writeError(w, r, "register", err)
		return
	}
	s.Metrics.Event("register", "ok")
	kit.WriteJSON(w, http.StatusCreated, newAccountResp(a))
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginReq
	if !kit.DecodeJSON(w, r, &req) {
		return
	}
	svc, ok := s.service(w, r)
	if !ok {
		return
	}

	a, err := svc.Login(r.Context(), req.Username, req.Password)
	if err != nil {
		s.writeError(w, r, "login", err)
		return
	}
	s.Metrics.Event("login", "ok")
	kit.WriteJSON(w, http.StatusOK, newAccountResp(a))
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	svc, ok := s.service(w, r)
	if !ok {
		return
	}
	if err := svc.Logout(r.Context()); err != nil {
		s.writeError(w, r, "logout", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleCurrent(w http.ResponseWriter, r *http.Request) {
	svc, ok := s.service(w, r)
	if !ok {
		return
	}

	a, found, err := svc.Current(r.Context())
	if err != nil {
		s.writeError(w, r, "account", err)
		return
	}
	if !found {
		kit.WriteError(w, r, http.StatusUnauthorized, "not logged in", nil)
		return
	}
	kit.WriteJSON(w, http.StatusOK, newAccountResp(a))
}

func (s *Server) handleSettings(w http.ResponseWriter, r *http.Request) {
	var req settingsReq
	if !kit.DecodeJSON(w, r, &req) {
		return
	}
	svc, ok := s.service(w, r)
	if !ok {
		return
	}

	cur, found, err := svc.Current(r.Context())
	if err != nil {
		s.writeError(w, r, "settings", err)
		return
	}
	if !found {
		kit.WriteError(w, r, http.StatusUnauthorized, "not logged in", nil)
		return
	}

	a, err := svc.UpdateSettings(r.Context(), cur.Username, Settings{
		Email:           req.Email,
		CurrentPassword: req.CurrentPassword,
		NewPassword:     req.NewPassword,
		ConfirmPassword: req.ConfirmPassword,
	})
	if err != nil {
		s.writeError(w, r, "settings", err)
		return
	}
	s.Metrics.Event("settings", "ok")
	kit.WriteJSON(w, http.StatusOK, newAccountResp(a))
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, event string, err error) {
	status, msg := http.StatusInternalServerError, "server error"

	switch {
	case errors.Is(err, ErrFieldsRequired), errors.Is(err, ErrEmailRequired), errors.Is(err, ErrPasswordMismatch):
		status, msg = http.StatusBadRequest, err.Error()
	case errors.Is(err, ErrEmailTaken), errors.Is(err, ErrUsernameTaken):
		status, msg = http.StatusConflict, err.Error()
	case errors.Is(err, ErrUserNotFound):
		status, msg = http.StatusNotFound, err.Error()
	case errors.Is(err, ErrInvalidCredentials):
		status, msg = http.StatusUnauthorized, err.Error()
	case errors.Is(err, ErrWrongCurrentPassword):
		status, msg = http.StatusForbidden, err.Error()
	default:
		if s.Log != nil {
			s.Log.Error("account command failed", zap.String("event", event), zap.Error(err))
		}
		kit.WriteError(w, r, status, msg, nil)
		return
	}

	s.Metrics.Event(event, "rejected")
	kit.WriteError(w, r, status, msg, nil)
}
