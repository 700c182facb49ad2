package catalog

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

// Load returns the stored catalogue, persisting the seed on first use. A
// missing or unreadable value counts as first use.
func (r *Repository) Load(ctx context.Context) ([]Product, error) {
	products, err := kv.Get[[]Product](ctx, r.store, kv.KeyCatalogue, nil)
	if err != nil {
		return nil, err
	}
	if products != nil {
		return products, nil
	}

	products = Seed()
	if err := r.Save(ctx, products); err != nil {
		return nil, err
	}
	return products, nil
}

func (r *Repository) Save(ctx context.Context, products []Product) error {
	if products == nil {
		products = []Product{}
	}
	return kv.Set(ctx, r.store, kv.KeyCatalogue, products)
}
