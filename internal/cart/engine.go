package cart

import (
	"context"

	"github.com/shopspring/decimal"

	"Gragolf/internal/catalog"
)

type Engine struct {
	Cart    *Repository
	Catalog *catalog.Repository
}

func NewEngine(carts *Repository, products *catalog.Repository) *Engine {
	return &Engine{Cart: carts, Catalog: products}
}

func (e *Engine) AddItem(ctx context.Context, req AddRequest) ([]LineItem, error) {
	products, err := e.Catalog.Load(ctx)
	if err != nil {
		return nil, err
	}
	items, err := e.Cart.Load(ctx)
	if err != nil {
		return nil, err
	}

	next, err := Add(items, products, req)
	if err != nil {
		return items, err
	}
	return next, e.Cart.Save(ctx, next)
}

func (e *Engine) UpdateQuantity(ctx context.Context, productID string, quantity int) ([]LineItem, error) {
	return e.mutate(ctx, func(items []LineItem) ([]LineItem, error) {
		return SetQuantity(items, productID, quantity)
	})
}

func (e *Engine) RemoveItem(ctx context.Context, productID string) ([]LineItem, error) {
	return e.mutate(ctx, func(items []LineItem) ([]LineItem, error) {
		return Remove(items, productID)
	})
}

func (e *Engine) Clear(ctx context.Context) error {
	return e.Cart.Clear(ctx)
}

func (e *Engine) mutate(ctx context.Context, fn func([]LineItem) ([]LineItem, error)) ([]LineItem, error) {
	items, err := e.Cart.Load(ctx)
	if err != nil {
		return nil, err
	}
	next, err := fn(items)
	if err != nil {
		return items, err
	}
	return next, e.Cart.Save(ctx, next)
}

type ViewLine struct {
	LineItem
	Thumbnail string          `json:"thumbnail"`
	LineTotal decimal.Decimal `json:"lineTotal"`
}

// View is what the mini-cart and the cart page render.
type View struct {
	Items    []ViewLine      `json:"items"`
	Subtotal decimal.Decimal `json:"subtotal"`
	Display  string          `json:"subtotalDisplay"`
	Count    int             `json:"count"`
}

func NewView(items []LineItem) View {
	v := View{
		Items:    make([]ViewLine, 0, len(items)),
		Subtotal: Subtotal(items).Round(2),
		Count:    ItemCount(items),
	}
	v.Display = v.Subtotal.StringFixed(2)
	for _, it := range items {
		v.Items = append(v.Items, ViewLine{
			LineItem:  it,
			Thumbnail: catalog.Thumbnail(it.Name, it.Image),
			LineTotal: it.LineTotal().Round(2),
		})
	}
	return v
}

func (e *Engine) View(ctx context.Context) (View, error) {
	items, err := e.Cart.Load(ctx)
	if err != nil {
		return View{}, err
	}
	return NewView(items), nil
}
