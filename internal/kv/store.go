package kv

import (
	"context"
	"encoding/json"
	"fmt"

	"go.uber.org/zap"
)

// Logical keys of the per-origin state.
const (
	KeyCart        = "cart"
	KeyCartCount   = "cartCount"
	KeyCatalogue   = "productCatalogue"
	KeyUsers       = "users"
	KeyCurrentUser = "currentUser"
)

// Backend is a synchronous whole-value key-value store.
type Backend interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
	Ping(ctx context.Context) error
}

// Store is a namespaced view over a Backend. Callers read and write whole
// values; there are no partial updates and no cross-key transactions.
type Store struct {
	backend Backend
	prefix  string
	log     *zap.Logger
}

func NewStore(b Backend, log *zap.Logger) *Store {
	if log == nil {
		log = zap.NewNop()
	}
	return &Store{backend: b, log: log}
}

func (s *Store) Namespace(id string) *Store {
	return &Store{
		backend: s.backend,
		prefix:  s.prefix + "origin:" + id + ":",
		log:     s.log,
	}
}

func (s *Store) Ping(ctx context.Context) error {
	return s.backend.Ping(ctx)
}

func (s *Store) Delete(ctx context.Context, key string) error {
	if err := s.backend.Delete(ctx, s.prefix+key); err != nil {
		return fmt.Errorf("kv delete %s: %w", key, err)
	}
	return nil
}

func (s *Store) key(k string) string { return s.prefix + k }

// Get returns the decoded value under key, or def when the key is absent or
// the stored text does not parse. Only backend failures are returned.
func Get[T any](ctx context.Context, s *Store, key string, def T) (T, error) {
	raw, ok, err := s.backend.Get(ctx, s.key(key))
	if err != nil {
		return def, fmt.Errorf("kv get %s: %w", key, err)
	}
	if !ok {
		return def, nil
	}

	var v T
	if err := json.Unmarshal(raw, &v); err != nil {
		s.log.Warn("corrupt stored value, using default",
			zap.String("key", s.key(key)),
			zap.Error(err),
		)
		return def, nil
	}
	return v, nil
}

// Set encodes v and replaces whatever was stored under key.
func Set[T any](ctx context.Context, s *Store, key string, v T) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("kv encode %s: %w", key, err)
	}
	if err := s.backend.Set(ctx, s.key(key), raw); err != nil {
		return fmt.Errorf("kv set %s: %w", key, err)
	}
	return nil
}
