package catalog

import (
	"context"
	"fmt"
	"regexp"
	"sort"
	"sync"

	"github.com/google/uuid"
)

type MemStore struct {
	mu sync.RWMutex
	m  map[string]Product
}

func NewMemStore(seed ...Product) *MemStore {
	s := &MemStore{m: make(map[string]Product, len(seed))}
	for _, p := range seed {
		if p.ID == "" {
			p.ID = uuid.NewString()
		}
		s.m[p.ID] = p
	}
	return s
}

func (s *MemStore) Ping(ctx context.Context) error { return nil }

func (s *MemStore) Get(ctx context.Context, id string) (Product, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.m[id]
	return p, ok, nil
}

func (s *MemStore) List(ctx context.Context) ([]Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.sortedLocked(), nil
}

func (s *MemStore) Create(ctx context.Context, p Product) (Product, error) {
	p.ID = uuid.NewString()

	s.mu.Lock()
	defer s.mu.Unlock()

	s.m[p.ID] = p
	return p, nil
}

func (s *MemStore) Delete(ctx context.Context, id string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.m[id]; !ok {
		return false, nil
	}
	delete(s.m, id)
	return true, nil
}

func (s *MemStore) DecrementStock(ctx context.Context, id string) (Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.m[id]
	if !ok {
		return Product{}, ErrNotFound
	}
	if p.Stock <= 0 {
		return Product{}, ErrInsufficientStock
	}
	p.Stock--
	s.m[id] = p
	return p, nil
}

func (s *MemStore) FindByNamePatterns(ctx context.Context, patterns []string) ([]Product, error) {
	res := make([]*regexp.Regexp, 0, len(patterns))
	for _, p := range patterns {
		re, err := regexp.Compile("(?i)" + p)
		if err != nil {
			return nil, fmt.Errorf("compile name pattern %q: %w", p, err)
		}
		res = append(res, re)
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]Product, 0)
	for _, p := range s.sortedLocked() {
		for _, re := range res {
			if re.MatchString(p.Name) {
				out = append(out, Product{ID: p.ID, Name: p.Name, ImageURL: p.ImageURL})
				break
			}
		}
	}
	return out, nil
}

func (s *MemStore) SearchText(ctx context.Context, q TextQuery) ([]Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return rankText(q, s.sortedLocked()), nil
}

func (s *MemStore) sortedLocked() []Product {
	out := make([]Product, 0, len(s.m))
	for _, p := range s.m {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}
