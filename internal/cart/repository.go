package cart

import (
	"context"

	"Gragolf/internal/kv"
)

type Repository struct {
	store *kv.Store
}

func NewRepository(st *kv.Store) *Repository {
	return &Repository{store: st}
}

func (r *Repository) Load(ctx context.Context) ([]LineItem, error) {
	return kv.Get(ctx, r.store, kv.KeyCart, []LineItem{})
}

// Save replaces the cart and refreshes the cached item count.
func (r *Repository) Save(ctx context.Context, items []LineItem) error {
	if items == nil {
		items = []LineItem{}
	}
	if err := kv.Set(ctx, r.store, kv.KeyCart, items); err != nil {
		return err
	}
	return kv.Set(ctx, r.store, kv.KeyCartCount, ItemCount(items))
}

func (r *Repository) Clear(ctx context.Context) error {
	return r.Save(ctx, nil)
}

// Count reads the cached item count only.
func (r *Repository) Count(ctx context.Context) (int, error) {
	return kv.Get(ctx, r.store, kv.KeyCartCount, 0)
}
