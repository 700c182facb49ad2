package catalog

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

const (
	CategoryClubs   = "clubs"
	CategoryApparel = "apparel"

	seedInventory = 10
)

var (
	ErrOutOfStock        = errors.New("out of stock")
	ErrInsufficientStock = errors.New("insufficient stock")
)

// StockError reports how many units of a product are left. It matches
// ErrInsufficientStock under errors.Is.
type StockError struct {
	Name      string
	Available int
}

func (e *StockError) Error() string {
	return fmt.Sprintf("not enough stock for %s: only %d left", e.Name, e.Available)
}

func (e *StockError) Is(target error) bool { return target == ErrInsufficientStock }

// Product is keyed by Name.
type Product struct {
	Name      string          `json:"name"`
	Price     decimal.Decimal `json:"price"`
	Image     string          `json:"image"`
	Href      string          `json:"href"`
	Inventory int             `json:"inventory"`
	Category  string          `json:"category,omitempty"`
}

// Seed returns a fresh copy of the default catalogue.
func Seed() []Product {
	return []Product{
		{Name: "Gragas Driver", Price: decimal.RequireFromString("199.99"), Image: "GragasDriver.png", Href: "item-clubs-1.html", Inventory: seedInventory, Category: CategoryClubs},
		{Name: "Barrel Iron", Price: decimal.RequireFromString("149.99"), Image: "GragasIron.png", Href: "item-clubs-2.html", Inventory: seedInventory, Category: CategoryClubs},
		{Name: "Explosive Putter", Price: decimal.RequireFromString("129.99"), Image: "GragasPutter.png", Href: "item-clubs-3.html", Inventory: seedInventory, Category: CategoryClubs},
		{Name: "Barrel Polo Shirt", Price: decimal.RequireFromString("49.99"), Image: "GragasPolo.png", Href: "item-apparel-1.html", Inventory: seedInventory, Category: CategoryApparel},
		{Name: "Gragas Cap", Price: decimal.RequireFromString("29.99"), Image: "https://via.placeholder.com/150", Href: "item-apparel-2.html", Inventory: seedInventory, Category: CategoryApparel},
		{Name: "League Socks", Price: decimal.RequireFromString("19.99"), Image: "GragasSocks.png", Href: "item-apparel-3.html", Inventory: seedInventory, Category: CategoryApparel},
	}
}

// FindByName is an exact, case-sensitive lookup. A miss is not an error.
func FindByName(products []Product, name string) (Product, bool) {
	i := IndexByName(products, name)
	if i < 0 {
		return Product{}, false
	}
	return products[i], true
}

func IndexByName(products []Product, name string) int {
	for i := range products {
		if products[i].Name == name {
			return i
		}
	}
	return -1
}
