package catalog

import (
	"context"
	"errors"
	"time"
)

var (
	ErrNotFound          = errors.New("product not found")
	ErrInsufficientStock = errors.New("insufficient stock")
)

const (
	pingTimeout  = 1 * time.Second
	queryTimeout = 3 * time.Second

	// DefaultStock is applied when a create request omits stock.
	DefaultStock = 0
)

type Product struct {
	ID          string  `json:"id"`
	Name        string  `json:"name"`
	Price       float64 `json:"price"`
	Stock       int     `json:"stock"`
	ImageURL    string  `json:"image_url,omitempty"`
	Description string  `json:"description,omitempty"`
}

// TextQuery is a fuzzy full-text lookup over product names.
type TextQuery struct {
	Query        string
	MaxEdits     int
	PrefixLength int
}

// DefaultTextQuery tolerates two edits after an exact three-character prefix.
func DefaultTextQuery(q string) TextQuery {
	return TextQuery{Query: q, MaxEdits: 2, PrefixLength: 3}
}

type Store interface {
	Ping(ctx context.Context) error
	Get(ctx context.Context, id string) (Product, bool, error)
	List(ctx context.Context) ([]Product, error)
	Create(ctx context.Context, p Product) (Product, error)
	Delete(ctx context.Context, id string) (bool, error)

	// DecrementStock takes one unit only when stock is positive. It returns
	// ErrNotFound or ErrInsufficientStock without touching the record.
	DecrementStock(ctx context.Context, id string) (Product, error)

	// FindByNamePatterns matches any of the case-insensitive regular
	// expressions against the name. Only ID, Name and ImageURL are filled.
	FindByNamePatterns(ctx context.Context, patterns []string) ([]Product, error)

	// SearchText fills ID, Name, Description and Price only.
	SearchText(ctx context.Context, q TextQuery) ([]Product, error)
}

func withTimeout(parent context.Context, d time.Duration, fn func(ctx context.Context) error) error {
	ctx, cancel := context.WithTimeout(parent, d)
	defer cancel()
	return fn(ctx)
}
