package catalog

import (
	"fmt"
	"net/url"
	"sort"
	"strings"
)

const (
	DefaultSuggestLimit = 8
	cataloguePage       = "catalogue.html"
)

// Suggest ranks products whose name contains query (case-insensitive) by the
// position of the first match, then by name. A blank query matches nothing.
func Suggest(query string, products []Product, limit int) []Product {
	q := normalize(query)
	if q == "" {
		return []Product{}
	}
	if limit <= 0 {
		limit = DefaultSuggestLimit
	}

	type hit struct {
		p   Product
		pos int
	}
	hits := make([]hit, 0, len(products))
	for _, p := range products {
		if pos := strings.Index(strings.ToLower(p.Name), q); pos >= 0 {
			hits = append(hits, hit{p: p, pos: pos})
		}
	}

	sort.SliceStable(hits, func(i, j int) bool {
		if hits[i].pos != hits[j].pos {
			return hits[i].pos < hits[j].pos
		}
		return hits[i].p.Name < hits[j].p.Name
	})

	if len(hits) > limit {
		hits = hits[:limit]
	}
	out := make([]Product, len(hits))
	for i, h := range hits {
		out[i] = h.p
	}
	return out
}

type SearchEntry struct {
	Name     string `json:"name"`
	Category string `json:"category,omitempty"`
	Visible  bool   `json:"visible"`
}

type SearchResult struct {
	Term     string          `json:"term"`
	Entries  []SearchEntry   `json:"entries"`
	Sections map[string]bool `json:"sections"`
	Count    int             `json:"count"`
	Banner   string          `json:"banner"`
}

// ApplySearch filters the rendered catalogue in place: same predicate as
// Suggest, no ranking. A blank term shows everything and clears the banner.
func ApplySearch(term string, products []Product) SearchResult {
	q := normalize(term)
	res := SearchResult{
		Term:     strings.TrimSpace(term),
		Entries:  make([]SearchEntry, 0, len(products)),
		Sections: map[string]bool{},
	}

	for _, p := range products {
		visible := q == "" || strings.Contains(strings.ToLower(p.Name), q)
		res.Entries = append(res.Entries, SearchEntry{Name: p.Name, Category: p.Category, Visible: visible})
		if visible {
			res.Count++
		}
		if p.Category != "" {
			res.Sections[p.Category] = res.Sections[p.Category] || visible
		}
	}

	if q != "" {
		suffix := "s"
		if res.Count == 1 {
			suffix = ""
		}
		res.Banner = fmt.Sprintf("Results for \"%s\": %d item%s", res.Term, res.Count, suffix)
	}
	return res
}

// SearchLocation is where a search submitted outside the catalogue page leads.
func SearchLocation(term string) string {
	term = strings.TrimSpace(term)
	if term == "" {
		return cataloguePage
	}
	return cataloguePage + "?" + url.Values{"q": {term}}.Encode()
}

func normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
