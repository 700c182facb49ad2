package cart

import (
	"errors"
	"strings"

	"github.com/shopspring/decimal"

	"Gragolf/internal/catalog"
)

var ErrItemNotFound = errors.New("cart item not found")

type LineItem struct {
	ProductID string          `json:"productId"`
	Name      string          `json:"name"`
	Price     decimal.Decimal `json:"price"`
	Quantity  int             `json:"quantity"`
	Image     string          `json:"image,omitempty"`
}

// AddRequest describes one add-to-cart action. A nil Price means the caller
// sent none and the catalogue price applies.
type AddRequest struct {
	ProductID string
	Name      string
	Price     *decimal.Decimal
	Quantity  int
	Image     string
}

// ProductID derives the identity used for a product's line item.
func ProductID(name string) string {
	return strings.Join(strings.Fields(strings.ToLower(name)), "-")
}

// Add merges req into items. Stock is checked against the live catalogue entry
// with the same name; on any failure items is returned untouched.
func Add(items []LineItem, products []catalog.Product, req AddRequest) ([]LineItem, error) {
	if req.Quantity <= 0 {
		req.Quantity = 1
	}
	if req.ProductID == "" {
		req.ProductID = ProductID(req.Name)
	}

	prod, ok := catalog.FindByName(products, req.Name)
	if !ok || prod.Inventory < req.Quantity {
		return items, catalog.ErrOutOfStock
	}
	price := prod.Price
	if req.Price != nil {
		price = *req.Price
	}

	image := catalog.Thumbnail(req.Name, req.Image)

	out := clone(items)
	if i := indexOf(out, req.ProductID); i >= 0 {
		existing := &out[i]
		if existing.Quantity > prod.Inventory-req.Quantity {
			return items, &catalog.StockError{Name: prod.Name, Available: prod.Inventory}
		}
		existing.Quantity += req.Quantity
		if existing.Image == "" {
			existing.Image = image
		}
		return out, nil
	}

	return append(out, LineItem{
		ProductID: req.ProductID,
		Name:      req.Name,
		Price:     price,
		Quantity:  req.Quantity,
		Image:     image,
	}), nil
}

// SetQuantity clamps quantity to at least 1. Stock is only re-checked when
// the order is placed.
func SetQuantity(items []LineItem, productID string, quantity int) ([]LineItem, error) {
	i := indexOf(items, productID)
	if i < 0 {
		return items, ErrItemNotFound
	}
	out := clone(items)
	out[i].Quantity = max(1, quantity)
	return out, nil
}

func Remove(items []LineItem, productID string) ([]LineItem, error) {
	i := indexOf(items, productID)
	if i < 0 {
		return items, ErrItemNotFound
	}
	out := make([]LineItem, 0, len(items)-1)
	out = append(out, items[:i]...)
	return append(out, items[i+1:]...), nil
}

func Subtotal(items []LineItem) decimal.Decimal {
	total := decimal.Zero
	for _, it := range items {
		total = total.Add(it.LineTotal())
	}
	return total
}

func ItemCount(items []LineItem) int {
	n := 0
	for _, it := range items {
		n += it.Quantity
	}
	return n
}

func (it LineItem) LineTotal() decimal.Decimal {
	return it.Price.Mul(decimal.NewFromInt(int64(it.Quantity)))
}

func indexOf(items []LineItem, productID string) int {
	for i := range items {
		if items[i].ProductID == productID {
			return i
		}
	}
	return -1
}

func clone(items []LineItem) []LineItem {
	out := make([]LineItem, len(items), len(items)+1)
	copy(out, items)
	return out
}
