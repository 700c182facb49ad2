package order

import (
	"context"
	"errors"
	"fmt"
	"time"

	"Gragolf/internal/account"
	"Gragolf/internal/cart"
	"Gragolf/internal/catalog"
)

const dateLayout = "2006-01-02"

var (
	ErrNotAuthenticated = errors.New("not authenticated")
	ErrEmptyCart        = errors.New("cart is empty")
	ErrInvalidQuantity  = errors.New("invalid line quantity")
)

// Workflow places orders. It is the only operation that writes across the
// catalogue, account and cart keys; it validates everything first and only
// then writes catalogue, history and cart in that order.
type Workflow struct {
	Catalog  *catalog.Repository
	Cart     *cart.Repository
	Accounts *account.Service
	Now      func() time.Time
}

func (wf *Workflow) Place(ctx context.Context) (account.Order, error) {
	username, err := wf.Accounts.Repo.Session(ctx)
	if err != nil {
		return account.Order{}, err
	}
	if username == "" {
		return account.Order{}, ErrNotAuthenticated
	}

	items, err := wf.Cart.Load(ctx)
	if err != nil {
		return account.Order{}, err
	}
	if len(items) == 0 {
		return account.Order{}, ErrEmptyCart
	}

	products, err := wf.Catalog.Load(ctx)
	if err != nil {
		return account.Order{}, err
	}
	next, err := Reserve(products, items)
	if err != nil {
		return account.Order{}, err
	}

	ok, err := wf.Accounts.Exists(ctx, username)
	if err != nil {
		return account.Order{}, err
	}
	if !ok {
		return account.Order{}, account.ErrUserNotFound
	}

	o := NewOrder(items, wf.now())

	if err := wf.Catalog.Save(ctx, next); err != nil {
		return account.Order{}, err
	}
	if err := wf.Accounts.AppendOrder(ctx, username, o); err != nil {
		return account.Order{}, err
	}
	if err := wf.Cart.Clear(ctx); err != nil {
		return account.Order{}, err
	}
	return o, nil
}

// Reserve checks every line against live inventory and, only if all pass,
// returns a copy of products with the quantities deducted.
func Reserve(products []catalog.Product, items []cart.LineItem) ([]catalog.Product, error) {
	want := make(map[string]int, len(items))
	for _, it := range items {
		if it.Quantity <= 0 {
			return nil, fmt.Errorf("%w: %s x%d", ErrInvalidQuantity, it.Name, it.Quantity)
		}
		p, ok := catalog.FindByName(products, it.Name)
		if !ok {
			return nil, &catalog.StockError{Name: it.Name, Available: 0}
		}
		// want[name] never exceeds p.Inventory, so the subtraction cannot overflow.
		if it.Quantity > p.Inventory-want[it.Name] {
			return nil, &catalog.StockError{Name: it.Name, Available: p.Inventory}
		}
		want[it.Name] += it.Quantity
	}

	out := make([]catalog.Product, len(products))
	copy(out, products)
	for name, qty := range want {
		out[catalog.IndexByName(out, name)].Inventory -= qty
	}
	return out, nil
}

// NewOrder snapshots the cart lines at purchase time.
func NewOrder(items []cart.LineItem, now time.Time) account.Order {
	o := account.Order{
		Date:   now.UTC().Format(dateLayout),
		Items:  make([]account.OrderItem, 0, len(items)),
		Amount: cart.Subtotal(items),
		Status: account.StatusProcessing,
	}
	for _, it := range items {
		o.Items = append(o.Items, account.OrderItem{
			Name:     it.Name,
			Quantity: it.Quantity,
			Price:    it.Price,
		})
	}
	return o
}

func (wf *Workflow) now() time.Time {
	if wf.Now != nil {
		return wf.Now()
	}
	return time.Now()
}
