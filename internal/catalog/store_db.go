package catalog

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/google/uuid"
	_ "github.com/jackc/pgx/v5/stdlib"
)

const productColumns = `id, name, price, stock, COALESCE(image_url, ''), COALESCE(description, '')`

const schemaSQL = `
	CREATE TABLE IF NOT EXISTS products (
		id          TEXT PRIMARY KEY,
		name        TEXT NOT NULL,
		price       DOUBLE PRECISION NOT NULL,
		stock       INTEGER NOT NULL DEFAULT 0 CHECK (stock >= 0),
		image_url   TEXT,
		description TEXT
	)
`

type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func OpenPostgres(dsn string) (*sql.DB, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	return db, nil
}

func (s *PostgresStore) Migrate(ctx context.Context) error {
	return withTimeout(ctx, queryTimeout, func(ctx context.Context) error {
		_, err := s.db.ExecContext(ctx, schemaSQL)
		return err
	})
}

func (s *PostgresStore) Ping(ctx context.Context) error {
	return withTimeout(ctx, pingTimeout, func(ctx context.Context) error {
		return s.db.PingContext(ctx)
	})
}

func (s *PostgresStore) Get(ctx context.Context, id string) (Product, bool, error) {
	var p Product
	err := withTimeout(ctx, queryTimeout, func(ctx context.Context) error {
		return scanProduct(s.db.QueryRowContext(ctx, `
			SELECT `+productColumns+`
			FROM products
			WHERE id = $1
		`, id), &p)
	})

	if errors.Is(err, sql.ErrNoRows) {
		return Product{}, false, nil
	}
	if err != nil {
		return Product{}, false, err
	}
	return p, true, nil
}

func (s *PostgresStore) List(ctx context.Context) ([]Product, error) {
	var out []Product

	err := withTimeout(ctx, queryTimeout, func(ctx context.Context) error {
		rows, err := s.db.QueryContext(ctx, `
			SELECT `+productColumns+`
			FROM products
			ORDER BY id ASC
		`)
		if err != nil {
			return err
		}
		defer rows.Close()

		out = make([]Product, 0, 16)
		for rows.Next() {
			var p Product
			if err := scanProduct(rows, &p); err != nil {
				return err
			}
			out = append(out, p)
		}
		return rows.Err()
	})

	if err != nil {
		return nil, err
	}
	return out, nil
}

func (s *PostgresStore) Create(ctx context.Context, p Product) (Product, error) {
	p.ID = uuid.NewString()

	err := withTimeout(ctx, queryTimeout, func(ctx context.Context) error {
		_, err := s.db.ExecContext(ctx, `
			INSERT INTO products (id, name, price, stock, image_url, description)
			VALUES ($1, $2, $3, $4, NULLIF($5, ''), NULLIF($6, ''))
		`, p.ID, p.Name, p.Price, p.Stock, p.ImageURL, p.Description)
		return err
	})
	if err != nil {
		return Product{}, err
	}
	return p, nil
}

func (s *PostgresStore) Delete(ctx context.Context, id string) (bool, error) {
	var n int64
	err := withTimeout(ctx, queryTimeout, func(ctx context.Context) error {
		res, err := s.db.ExecContext(ctx, `DELETE FROM products WHERE id = $1`, id)
		if err != nil {
			return err
		}
		n, err = res.RowsAffected()
		return err
	})
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (s *PostgresStore) DecrementStock(ctx context.Context, id string) (Product, error) {
	var p Product
	err := withTimeout(ctx, queryTimeout, func(ctx context.Context) error {
		err := scanProduct(s.db.QueryRowContext(ctx, `
			UPDATE products
			SET stock = stock - 1
			WHERE id = $1 AND stock > 0
			RETURNING `+productColumns, id), &p)
		if !errors.Is(err, sql.ErrNoRows) {
			return err
		}

		var exists bool
		if err := s.db.QueryRowContext(ctx,
			`SELECT EXISTS (SELECT 1 FROM products WHERE id = $1)`, id,
		).Scan(&exists); err != nil {
			return err
		}
		if !exists {
			return ErrNotFound
		}
		return ErrInsufficientStock
	})
	if err != nil {
		return Product{}, err
	}
	return p, nil
}

func (s *PostgresStore) FindByNamePatterns(ctx context.Context, patterns []string) ([]Product, error) {
	if len(patterns) == 0 {
		return []Product{}, nil
	}

	where, args := namePatternWhere(patterns)

	out := make([]Product, 0)
	err := withTimeout(ctx, queryTimeout, func(ctx context.Context) error {
		rows, err := s.db.QueryContext(ctx, `
			SELECT id, name, COALESCE(image_url, '')
			FROM products
			WHERE `+where+`
			ORDER BY id ASC
		`, args...)
		if err != nil {
			return err
		}
		defer rows.Close()

		for rows.Next() {
			var p Product
			if err := rows.Scan(&p.ID, &p.Name, &p.ImageURL); err != nil {
				return err
			}
			out = append(out, p)
		}
		return rows.Err()
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// SearchText narrows candidates to names with a word sharing a query term's
// exact prefix, then applies edit-distance matching in process.
func (s *PostgresStore) SearchText(ctx context.Context, q TextQuery) ([]Product, error) {
	prefix, ok := wordPrefixPattern(q)
	if !ok {
		return []Product{}, nil
	}

	candidates := make([]Product, 0)
	err := withTimeout(ctx, queryTimeout, func(ctx context.Context) error {
		rows, err := s.db.QueryContext(ctx, `
			SELECT `+productColumns+`
			FROM products
			WHERE name ~* $1
		`, prefix)
		if err != nil {
			return err
		}
		defer rows.Close()

		for rows.Next() {
			var p Product
			if err := scanProduct(rows, &p); err != nil {
				return err
			}
			candidates = append(candidates, p)
		}
		return rows.Err()
	})
	if err != nil {
		return nil, err
	}
	return rankText(q, candidates), nil
}

func namePatternWhere(patterns []string) (string, []any) {
	conds := make([]string, 0, len(patterns))
	args := make([]any, 0, len(patterns))
	for i, p := range patterns {
		conds = append(conds, fmt.Sprintf("name ~* $%d", i+1))
		args = append(args, p)
	}
	return strings.Join(conds, " OR "), args
}

// wordPrefixPattern matches names with a word starting with the exact prefix
// of any query term.
func wordPrefixPattern(q TextQuery) (string, bool) {
	terms := tokenize(q.Query)
	if len(terms) == 0 {
		return "", false
	}

	prefixes := make([]string, 0, len(terms))
	for _, t := range terms {
		r := []rune(t)
		prefixes = append(prefixes, regexp.QuoteMeta(string(r[:min(q.PrefixLength, len(r))])))
	}
	return `\m(` + strings.Join(prefixes, "|") + `)`, true
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanProduct(row rowScanner, p *Product) error {
	return row.Scan(&p.ID, &p.Name, &p.Price, &p.Stock, &p.ImageURL, &p.Description)
}
