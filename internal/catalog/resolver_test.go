package catalog

import (
	"context"
	"errors"
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNamePattern(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"pad", "pad"},
		{"brake pad", "brake.*pad"},
		{"brake \t  pad", "brake.*pad"},
		{" rotor", ".*rotor"},
		{"M8+ bolt", `M8\+.*bolt`},
		{"(oil) filter", `\(oil\).*filter`},
	}

	for _, tc := range cases {
		assert.Equal(t, tc.want, NamePattern(tc.in), "input %q", tc.in)
	}
}

func TestNamePattern_MatchesLoosely(t *testing.T) {
	re := regexp.MustCompile("(?i)" + NamePattern("brake pad"))

	assert.True(t, re.MatchString("Brake XYZ Pad"))
	assert.True(t, re.MatchString("front BRAKE PAD set"))
	assert.False(t, re.MatchString("Pad for brake"))
}

func TestUniqueNames(t *testing.T) {
	assert.Equal(t, []string{"pad", "rotor", "Pad"}, UniqueNames([]string{"pad", "rotor", "pad", "Pad"}))
	assert.Empty(t, UniqueNames(nil))
}

func seededStore() *MemStore {
	return NewMemStore(
		Product{ID: "p1", Name: "Brake XYZ Pad", Price: 25, Stock: 3, ImageURL: "https://img.example/pad.png"},
		Product{ID: "p2", Name: "Oil Filter", Price: 9.5, Stock: 10},
		Product{ID: "p3", Name: "Spark Plug M8+", Price: 4, Stock: 0},
	)
}

func TestResolver_Resolve(t *testing.T) {
	r := &Resolver{Store: seededStore(), BaseURL: "http://localhost:5173/product/"}

	links, err := r.Resolve(context.Background(), []string{"brake pad"})
	require.NoError(t, err)
	require.Len(t, links, 1)

	assert.Equal(t, ProductLink{
		Name:  "Brake XYZ Pad",
		ID:    "p1",
		URL:   "http://localhost:5173/product/p1",
		Image: "https://img.example/pad.png",
	}, links[0])
}

func TestResolver_DuplicatesDoNotChangeResult(t *testing.T) {
	r := &Resolver{Store: seededStore(), BaseURL: "http://shop/product"}

	once, err := r.Resolve(context.Background(), []string{"pad"})
	require.NoError(t, err)
	twice, err := r.Resolve(context.Background(), []string{"pad", "pad"})
	require.NoError(t, err)

	assert.Equal(t, once, twice)
}

func TestResolver_Disjunction(t *testing.T) {
	r := &Resolver{Store: seededStore(), BaseURL: "http://shop/product"}

	links, err := r.Resolve(context.Background(), []string{"filter", "brake"})
	require.NoError(t, err)

	ids := make([]string, 0, len(links))
	for _, l := range links {
		ids = append(ids, l.ID)
	}
	assert.ElementsMatch(t, []string{"p1", "p2"}, ids)
}

func TestResolver_SymbolsMatchLiterally(t *testing.T) {
	r := &Resolver{Store: seededStore(), BaseURL: "http://shop/product"}

	links, err := r.Resolve(context.Background(), []string{"M8+"})
	require.NoError(t, err)
	require.Len(t, links, 1)
	assert.Equal(t, "p3", links[0].ID)

	links, err = r.Resolve(context.Background(), []string{"M+"})
	require.NoError(t, err)
	assert.Empty(t, links)
}

func TestResolver_NoMatch(t *testing.T) {
	r := &Resolver{Store: seededStore(), BaseURL: "http://shop/product"}

	links, err := r.Resolve(context.Background(), []string{"zzz_nonexistent"})
	require.NoError(t, err)
	assert.Empty(t, links)
}

func TestResolver_EmptyInput(t *testing.T) {
	r := &Resolver{Store: seededStore()}

	_, err := r.Resolve(context.Background(), nil)
	assert.ErrorIs(t, err, ErrNoNames)
}

type failingStore struct {
	Store
	err error
}

func (f failingStore) FindByNamePatterns(context.Context, []string) ([]Product, error) {
	return nil, f.err
}

func TestResolver_StoreError(t *testing.T) {
	boom := errors.New("boom")
	r := &Resolver{Store: failingStore{Store: NewMemStore(), err: boom}}

	_, err := r.Resolve(context.Background(), []string{"pad"})
	assert.ErrorIs(t, err, boom)
}

func TestResolver_DetailURLEscapesID(t *testing.T) {
	r := &Resolver{BaseURL: "http://shop/product"}
	assert.Equal(t, "http://shop/product/a%2Fb", r.DetailURL("a/b"))
}
