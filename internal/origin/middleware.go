package origin

import (
	"context"
	"net/http"
	"strings"
	"sync"

	"Gragolf/internal/kv"
	"Gragolf/pkg/kit"
)

type ctxKey string

const (
	originIDKey ctxKey = "origin_id"
	storeKey    ctxKey = "origin_store"
)

func IDFromContext(ctx context.Context) (string, bool) {
	v, ok := ctx.Value(originIDKey).(string)
	return v, ok && v != ""
}

func StoreFromContext(ctx context.Context) (*kv.Store, bool) {
	s, ok := ctx.Value(storeKey).(*kv.Store)
	return s, ok && s != nil
}

// WithStore attaches an origin-scoped store to ctx.
func WithStore(ctx context.Context, id string, st *kv.Store) context.Context {
	ctx = context.WithValue(ctx, originIDKey, id)
	return context.WithValue(ctx, storeKey, st)
}

// Store returns the request's origin store, writing a 401 when there is none.
func Store(w http.ResponseWriter, r *http.Request) (*kv.Store, bool) {
	st, ok := StoreFromContext(r.Context())
	if !ok {
		kit.WriteError(w, r, http.StatusUnauthorized, "no origin", nil)
		return nil, false
	}
	return st, true
}

// AuthJWT resolves the bearer origin token and scopes root to that origin.
func AuthJWT(tokens *TokenMaker, root *kv.Store) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
			if !ok || raw == "" {
				kit.WriteError(w, r, http.StatusUnauthorized, "missing token", nil)
				return
			}

			claims, err := tokens.Parse(raw)
			if err != nil {
				kit.WriteError(w, r, http.StatusUnauthorized, "invalid token", nil)
				return
			}

			ctx := WithStore(r.Context(), claims.OriginID, root.Namespace(claims.OriginID))
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// Serializer runs requests of the same origin one at a time, the way a single
// browser tab processes one UI event before the next.
type Serializer struct {
	mu    sync.Mutex
	locks map[string]*originLock
}

type originLock struct {
	mu   sync.Mutex
	refs int
}

func NewSerializer() *Serializer {
	return &Serializer{locks: make(map[string]*originLock)}
}

func (s *Serializer) Lock(id string) (unlock func()) {
	s.mu.Lock()
	l, ok := s.locks[id]
	if !ok {
		l = &originLock{}
		s.locks[id] = l
	}
	l.refs++
	s.mu.Unlock()

	l.mu.Lock()
	return func() {
		l.mu.Unlock()

		s.mu.Lock()
		l.refs--
		if l.refs == 0 {
			delete(s.locks, id)
		}
		s.mu.Unlock()
	}
}

func (s *Serializer) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id, ok := IDFromContext(r.Context())
		if !ok {
			next.ServeHTTP(w, r)
			return
		}
		unlock := s.Lock(id)
		defer unlock()
		next.ServeHTTP(w, r)
	})
}

// Handler issues new origins.
func Handler(tokens *TokenMaker) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		tok, id, err := tokens.Issue()
		if err != nil {
			kit.WriteError(w, r, http.StatusInternalServerError, "server error", nil)
			return
		}
		kit.WriteJSON(w, http.StatusCreated, map[string]string{
			"origin_id": id,
			"token":     tok,
		})
	}
}
