package order

import (
	"context"
	"math"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"Gragolf/internal/account"
	"Gragolf/internal/cart"
	"Gragolf/internal/catalog"
	"Gragolf/internal/kv"
)

type fixture struct {
	wf     *Workflow
	engine *cart.Engine
}

func newFixture(t *testing.T) fixture {
	t.Helper()

	st := kv.NewStore(kv.NewMemStore(), zap.NewNop()).Namespace("t")
	products := catalog.NewRepository(st)
	carts := cart.NewRepository(st)

	return fixture{
		wf: &Workflow{
			Catalog:  products,
			Cart:     carts,
			Accounts: account.NewService(account.NewRepository(st)),
			Now:      func() time.Time { return time.Date(2026, 10, 17, 23, 30, 0, 0, time.FixedZone("X", -5*3600)) },
		},
		engine: cart.NewEngine(carts, products),
	}
}

func (f fixture) add(t *testing.T, name string, qty int) {
	t.Helper()
	_, err := f.engine.AddItem(context.Background(), cart.AddRequest{Name: name, Quantity: qty})
	require.NoError(t, err)
}

func (f fixture) inventory(t *testing.T) map[string]int {
	t.Helper()
	products, err := f.wf.Catalog.Load(context.Background())
	require.NoError(t, err)
	out := map[string]int{}
	for _, p := range products {
		out[p.Name] = p.Inventory
	}
	return out
}

func (f fixture) cartLen(t *testing.T) int {
	t.Helper()
	items, err := f.wf.Cart.Load(context.Background())
	require.NoError(t, err)
	return len(items)
}

func TestPlace_GuestIsRejected(t *testing.T) {
	f := newFixture(t)
	f.add(t, "Gragas Driver", 2)
	before := f.inventory(t)

	_, err := f.wf.Place(context.Background())
	require.ErrorIs(t, err, ErrNotAuthenticated)

	assert.Equal(t, 1, f.cartLen(t))
	assert.Equal(t, before, f.inventory(t))
}

func TestPlace_EmptyCart(t *testing.T) {
	f := newFixture(t)
	_, err := f.wf.Accounts.Register(context.Background(), "alice", "a@example.com", "pw")
	require.NoError(t, err)

	_, err = f.wf.Place(context.Background())
	assert.ErrorIs(t, err, ErrEmptyCart)
}

func TestPlace_Success(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	_, err := f.wf.Accounts.Register(ctx, "alice", "a@example.com", "pw")
	require.NoError(t, err)

	f.add(t, "Gragas Driver", 3)
	f.add(t, "League Socks", 2)

	o, err := f.wf.Place(ctx)
	require.NoError(t, err)

	assert.Equal(t, "2026-10-18", o.Date, "UTC day")
	assert.Equal(t, account.StatusProcessing, o.Status)
	assert.True(t, decimal.RequireFromString("639.95").Equal(o.Amount), o.Amount.String())
	require.Len(t, o.Items, 2)
	assert.Equal(t, "Gragas Driver", o.Items[0].Name)
	assert.Equal(t, 3, o.Items[0].Quantity)
	assert.True(t, decimal.RequireFromString("199.99").Equal(o.Items[0].Price))

	assert.Equal(t, 0, f.cartLen(t))
	n, err := f.wf.Cart.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, n)

	inv := f.inventory(t)
	assert.Equal(t, 7, inv["Gragas Driver"])
	assert.Equal(t, 8, inv["League Socks"])
	assert.Equal(t, 10, inv["Barrel Iron"])

	cur, ok, err := f.wf.Accounts.Current(ctx)
	require.NoError(t, err)
	require.True(t, ok)
	require.Len(t, cur.History, 1)
	assert.Equal(t, o.Date, cur.History[0].Date)

	f.add(t, "Gragas Cap", 1)
	second, err := f.wf.Place(ctx)
	require.NoError(t, err)

	cur, _, err = f.wf.Accounts.Current(ctx)
	require.NoError(t, err)
	require.Len(t, cur.History, 2)
	assert.Equal(t, second.Items[0].Name, cur.History[0].Items[0].Name)
}

func TestPlace_InsufficientStockIsAllOrNothing(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	_, err := f.wf.Accounts.Register(ctx, "alice", "a@example.com", "pw")
	require.NoError(t, err)

	f.add(t, "Gragas Driver", 2)
	f.add(t, "Barrel Iron", 5)

	// another writer drains the iron after it was carted
	products, err := f.wf.Catalog.Load(ctx)
	require.NoError(t, err)
	products[catalog.IndexByName(products, "Barrel Iron")].Inventory = 4
	require.NoError(t, f.wf.Catalog.Save(ctx, products))
	before := f.inventory(t)

	_, err = f.wf.Place(ctx)
	require.ErrorIs(t, err, catalog.ErrInsufficientStock)

	var stock *catalog.StockError
	require.ErrorAs(t, err, &stock)
	assert.Equal(t, "Barrel Iron", stock.Name)
	assert.Equal(t, 4, stock.Available)

	assert.Equal(t, before, f.inventory(t))
	assert.Equal(t, 2, f.cartLen(t))

	cur, _, err := f.wf.Accounts.Current(ctx)
	require.NoError(t, err)
	assert.Empty(t, cur.History)
}

func TestPlace_QuantityRaisedPastStockIsCaughtAtOrderTime(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	_, err := f.wf.Accounts.Register(ctx, "alice", "a@example.com", "pw")
	require.NoError(t, err)

	f.add(t, "Gragas Cap", 1)
	_, err = f.engine.UpdateQuantity(ctx, "gragas-cap", 11)
	require.NoError(t, err)

	_, err = f.wf.Place(ctx)
	assert.ErrorIs(t, err, catalog.ErrInsufficientStock)
	assert.Equal(t, 10, f.inventory(t)["Gragas Cap"])
}

func TestPlace_StaleSessionChangesNothing(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.add(t, "Gragas Driver", 1)
	require.NoError(t, f.wf.Accounts.Repo.SetSession(ctx, "ghost"))
	before := f.inventory(t)

	_, err := f.wf.Place(ctx)
	require.ErrorIs(t, err, account.ErrUserNotFound)
	assert.Equal(t, before, f.inventory(t))
	assert.Equal(t, 1, f.cartLen(t))
}

func TestPlace_HistoryKeepsPurchasePrice(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	_, err := f.wf.Accounts.Register(ctx, "alice", "a@example.com", "pw")
	require.NoError(t, err)
	f.add(t, "League Socks", 1)

	_, err = f.wf.Place(ctx)
	require.NoError(t, err)

	products, err := f.wf.Catalog.Load(ctx)
	require.NoError(t, err)
	products[catalog.IndexByName(products, "League Socks")].Price = decimal.RequireFromString("99.00")
	require.NoError(t, f.wf.Catalog.Save(ctx, products))

	cur, _, err := f.wf.Accounts.Current(ctx)
	require.NoError(t, err)
	assert.True(t, decimal.RequireFromString("19.99").Equal(cur.History[0].Items[0].Price))
}

func TestReserve_AggregatesLinesPerProduct(t *testing.T) {
	items := []cart.LineItem{
		{ProductID: "a", Name: "Gragas Cap", Quantity: 6},
		{ProductID: "b", Name: "Gragas Cap", Quantity: 5},
	}
	seed := catalog.Seed()

	_, err := Reserve(seed, items)
	assert.ErrorIs(t, err, catalog.ErrInsufficientStock)

	items[1].Quantity = 4
	next, err := Reserve(seed, items)
	require.NoError(t, err)
	assert.Equal(t, 0, next[catalog.IndexByName(next, "Gragas Cap")].Inventory)
	assert.Equal(t, 10, seed[catalog.IndexByName(seed, "Gragas Cap")].Inventory)
}

func TestReserve_MissingProduct(t *testing.T) {
	_, err := Reserve(catalog.Seed(), []cart.LineItem{{Name: "Discontinued", Quantity: 1}})

	var stock *catalog.StockError
	require.ErrorAs(t, err, &stock)
	assert.Equal(t, 0, stock.Available)
}

func TestReserve_HugeQuantitiesCannotWrapPastStock(t *testing.T) {
	items := []cart.LineItem{
		{ProductID: "a", Name: "Gragas Driver", Quantity: math.MaxInt},
		{ProductID: "b", Name: "Gragas Driver", Quantity: math.MaxInt},
	}
	seed := catalog.Seed()

	next, err := Reserve(seed, items)
	var stock *catalog.StockError
	require.ErrorAs(t, err, &stock)
	assert.Equal(t, 10, stock.Available)
	assert.Nil(t, next)

	_, err = Reserve(seed, []cart.LineItem{
		{ProductID: "a", Name: "Gragas Driver", Quantity: 10},
		{ProductID: "b", Name: "Gragas Driver", Quantity: math.MaxInt},
	})
	assert.ErrorIs(t, err, catalog.ErrInsufficientStock)
}

func TestReserve_RejectsNonPositiveQuantity(t *testing.T) {
	for _, q := range []int{0, -1, math.MinInt} {
		_, err := Reserve(catalog.Seed(), []cart.LineItem{{Name: "Gragas Cap", Quantity: q}})
		assert.ErrorIs(t, err, ErrInvalidQuantity, "quantity %d", q)
	}
}

func TestPlace_HugeQuantityLeavesInventoryAlone(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	_, err := f.wf.Accounts.Register(ctx, "alice", "a@example.com", "pw")
	require.NoError(t, err)

	f.add(t, "Gragas Driver", 1)
	_, err = f.engine.UpdateQuantity(ctx, "gragas-driver", math.MaxInt)
	require.NoError(t, err)

	_, err = f.wf.Place(ctx)
	require.ErrorIs(t, err, catalog.ErrInsufficientStock)
	assert.Equal(t, 10, f.inventory(t)["Gragas Driver"])
	assert.Equal(t, 1, f.cartLen(t))

	cur, _, err := f.wf.Accounts.Current(ctx)
	require.NoError(t, err)
	assert.Empty(t, cur.History)
}
