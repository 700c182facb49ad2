package account

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

func (r *Repository) Load(ctx context.Context) ([]Account, error) {
	return kv.Get(ctx, r.store, kv.KeyUsers, []Account{})
}

func (r *Repository) Save(ctx context.Context, users []Account) error {
	if users == nil {
		users = []Account{}
	}
	return kv.Set(ctx, r.store, kv.KeyUsers, users)
}

// Session returns the logged-in username, or "" when nobody is logged in.
func (r *Repository) Session(ctx context.Context) (string, error) {
	return kv.Get(ctx, r.store, kv.KeyCurrentUser, "")
}

func (r *Repository) SetSession(ctx context.Context, username string) error {
	return kv.Set(ctx, r.store, kv.KeyCurrentUser, username)
}

func (r *Repository) ClearSession(ctx context.Context) error {
	return r.store.Delete(ctx, kv.KeyCurrentUser)
}
