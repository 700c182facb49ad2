package catalog

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"Gragolf/internal/kv"
)

func newTestStore() (*kv.Store, *kv.MemStore) {
	mem := kv.NewMemStore()
	return kv.NewStore(mem, zap.NewNop()).Namespace("test"), mem
}

func TestSeed_Defaults(t *testing.T) {
	seed := Seed()
	require.Len(t, seed, 6)
	for _, p := range seed {
		assert.Equal(t, 10, p.Inventory, p.Name)
		assert.NotEmpty(t, p.Href, p.Name)
	}

	p, ok := FindByName(seed, "Gragas Driver")
	require.True(t, ok)
	assert.True(t, decimal.RequireFromString("199.99").Equal(p.Price))

	// callers own the returned slice
	seed[0].Inventory = 0
	assert.Equal(t, 10, Seed()[0].Inventory)
}

func TestFindByName_IsExactAndCaseSensitive(t *testing.T) {
	seed := Seed()

	_, ok := FindByName(seed, "gragas driver")
	assert.False(t, ok)

	_, ok = FindByName(seed, "Gragas")
	assert.False(t, ok)

	assert.Equal(t, 1, IndexByName(seed, "Barrel Iron"))
	assert.Equal(t, -1, IndexByName(seed, "Nope"))
}

func TestRepository_LoadSeedsAndPersists(t *testing.T) {
	ctx := context.Background()
	st, mem := newTestStore()
	repo := NewRepository(st)

	products, err := repo.Load(ctx)
	require.NoError(t, err)
	assert.Len(t, products, 6)

	_, ok, err := mem.Get(ctx, "origin:test:"+kv.KeyCatalogue)
	require.NoError(t, err)
	assert.True(t, ok, "seed must be persisted")
}

func TestRepository_SaveReplacesCatalogue(t *testing.T) {
	ctx := context.Background()
	st, _ := newTestStore()
	repo := NewRepository(st)

	products, err := repo.Load(ctx)
	require.NoError(t, err)
	products[0].Inventory = 3
	require.NoError(t, repo.Save(ctx, products))

	again, err := repo.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, again[0].Inventory)
}

func TestRepository_CorruptValueFallsBackToSeed(t *testing.T) {
	ctx := context.Background()
	st, mem := newTestStore()
	require.NoError(t, mem.Set(ctx, "origin:test:"+kv.KeyCatalogue, []byte("][")))

	products, err := NewRepository(st).Load(ctx)
	require.NoError(t, err)
	assert.Len(t, products, 6)
}

func TestRepository_EmptyStoredCatalogueIsKept(t *testing.T) {
	ctx := context.Background()
	st, _ := newTestStore()
	repo := NewRepository(st)
	require.NoError(t, repo.Save(ctx, nil))

	products, err := repo.Load(ctx)
	require.NoError(t, err)
	assert.Empty(t, products)
}

func TestThumbnail_Fallbacks(t *testing.T) {
	assert.Equal(t, "custom.png", Thumbnail("Gragas Cap", "custom.png"))
	assert.Equal(t, "GragasCap.png", Thumbnail("Gragas Cap", ""))
	assert.Equal(t, PlaceholderImage, Thumbnail("Mystery Wedge", ""))
}

func TestListing_StockState(t *testing.T) {
	products := Seed()
	products[2].Inventory = 0

	entries := Listing(products)
	require.Len(t, entries, 6)
	assert.True(t, entries[0].InStock)
	assert.Equal(t, "In Stock: 10", entries[0].StockLabel)
	assert.False(t, entries[2].InStock)
	assert.Equal(t, "In Stock: 0", entries[2].StockLabel)
	assert.Equal(t, "https://via.placeholder.com/150", entries[4].Thumbnail)
}

func TestStockError_MatchesSentinel(t *testing.T) {
	var err error = &StockError{Name: "Barrel Iron", Available: 2}
	assert.ErrorIs(t, err, ErrInsufficientStock)
	assert.NotErrorIs(t, err, ErrOutOfStock)
	assert.Equal(t, "not enough stock for Barrel Iron: only 2 left", err.Error())
}
