package catalog

import "fmt"

const PlaceholderImage = "https://via.placeholder.com/40"

var knownImages = map[string]string{
	"Gragas Driver":     "GragasDriver.png",
	"Barrel Iron":       "GragasIron.png",
	"Explosive Putter":  "GragasPutter.png",
	"Barrel Polo Shirt": "GragasPolo.png",
	"Gragas Cap":        "GragasCap.png",
	"League Socks":      "GragasSocks.png",
}

// Thumbnail resolves a displayable image: the provided one, then the
// known-name table, then the placeholder.
func Thumbnail(name, provided string) string {
	if provided != "" {
		return provided
	}
	if img, ok := knownImages[name]; ok {
		return img
	}
	return PlaceholderImage
}

type Entry struct {
	Product
	Thumbnail  string `json:"thumbnail"`
	InStock    bool   `json:"in_stock"`
	StockLabel string `json:"stock_label"`
}

// Listing is the catalogue page view: every product with its stock state.
func Listing(products []Product) []Entry {
	out := make([]Entry, 0, len(products))
	for _, p := range products {
		out = append(out, Entry{
			Product:    p,
			Thumbnail:  Thumbnail(p.Name, p.Image),
			InStock:    p.Inventory > 0,
			StockLabel: fmt.Sprintf("In Stock: %d", p.Inventory),
		})
	}
	return out
}
