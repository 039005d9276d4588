package catalog

import (
	"context"
	"errors"
	"net/url"
	"regexp"
	"strings"
)

var ErrNoNames = errors.New("names must be a non-empty list")

var whitespaceRun = regexp.MustCompile(`\s+`)

// ProductLink is the client-facing shape of a name lookup hit.
type ProductLink struct {
	Name  string `json:"name"`
	ID    string `json:"id"`
	URL   string `json:"url"`
	Image string `json:"image"`
}

// Resolver turns free-text names into one disjunctive name filter and shapes
// the matches into links to the storefront detail view.
type Resolver struct {
	Store Store

	// BaseURL is the detail view root, e.g. http://localhost:5173/product.
	BaseURL string
}

func (r *Resolver) Resolve(ctx context.Context, names []string) ([]ProductLink, error) {
	if len(names) == 0 {
		return nil, ErrNoNames
	}

	products, err := r.Store.FindByNamePatterns(ctx, NamePatterns(UniqueNames(names)))
	if err != nil {
		return nil, err
	}

	links := make([]ProductLink, 0, len(products))
	for _, p := range products {
		links = append(links, ProductLink{
			Name:  p.Name,
			ID:    p.ID,
			URL:   r.DetailURL(p.ID),
			Image: p.ImageURL,
		})
	}
	return links, nil
}

func (r *Resolver) DetailURL(id string) string {
	return strings.TrimRight(r.BaseURL, "/") + "/" + url.PathEscape(id)
}

// UniqueNames drops exact duplicates, keeping first-occurrence order.
func UniqueNames(names []string) []string {
	seen := make(map[string]struct{}, len(names))
	out := make([]string, 0, len(names))
	for _, n := range names {
		if _, dup := seen[n]; dup {
			continue
		}
		seen[n] = struct{}{}
		out = append(out, n)
	}
	return out
}

// NamePattern builds an unanchored pattern where every whitespace run is a
// wildcard: "brake pad" matches "Brake XYZ Pad". Literal segments are quoted,
// so "M8+" only matches a literal plus sign.
func NamePattern(name string) string {
	parts := whitespaceRun.Split(name, -1)
	for i, p := range parts {
		parts[i] = regexp.QuoteMeta(p)
	}
	return strings.Join(parts, ".*")
}

func NamePatterns(names []string) []string {
	out := make([]string, 0, len(names))
	for _, n := range names {
		out = append(out, NamePattern(n))
	}
	return out
}
