package catalog

import (
	"cmp"
	"slices"
	"strings"
	"unicode"
)

// Fuzzy term matching for backends without a text-search index. A query term
// matches a name term when they share the first PrefixLength runes exactly and
// are within MaxEdits edits of each other, where swapping two adjacent runes
// counts as one edit.

func tokenize(s string) []string {
	return strings.FieldsFunc(strings.ToLower(s), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}

// textDistance reports the smallest edit distance between any query term and
// any name term, and whether any pair matched at all.
func textDistance(q TextQuery, name string) (int, bool) {
	best, matched := 0, false
	nameTerms := tokenize(name)
	for _, qt := range tokenize(q.Query) {
		for _, nt := range nameTerms {
			d, ok := termDistance([]rune(qt), []rune(nt), q.MaxEdits, q.PrefixLength)
			if ok && (!matched || d < best) {
				best, matched = d, true
			}
		}
	}
	return best, matched
}

func termDistance(q, t []rune, maxEdits, prefixLen int) (int, bool) {
	p := min(prefixLen, len(q))
	if len(t) < p || string(q[:p]) != string(t[:p]) {
		return 0, false
	}
	d := editDistance(q[p:], t[p:])
	return d, d <= maxEdits
}

// editDistance is the optimal string alignment distance: insertions,
// deletions, substitutions and adjacent transpositions each cost one.
func editDistance(a, b []rune) int {
	if len(a) == 0 {
		return len(b)
	}
	if len(b) == 0 {
		return len(a)
	}

	// three rolling rows: i-2, i-1, i
	prev2 := make([]int, len(b)+1)
	prev := make([]int, len(b)+1)
	cur := make([]int, len(b)+1)
	for j := range prev {
		prev[j] = j
	}

	for i := 1; i <= len(a); i++ {
		cur[0] = i
		for j := 1; j <= len(b); j++ {
			cost := 1
			if a[i-1] == b[j-1] {
				cost = 0
			}
			cur[j] = min(prev[j]+1, cur[j-1]+1, prev[j-1]+cost)
			if i > 1 && j > 1 && a[i-1] == b[j-2] && a[i-2] == b[j-1] {
				cur[j] = min(cur[j], prev2[j-2]+1)
			}
		}
		prev2, prev, cur = prev, cur, prev2
	}
	return prev[len(b)]
}

// rankText keeps the products whose name matches q, closest first, and
// projects them down to the text search fields.
func rankText(q TextQuery, products []Product) []Product {
	type hit struct {
		p    Product
		dist int
	}

	hits := make([]hit, 0, len(products))
	for _, p := range products {
		if d, ok := textDistance(q, p.Name); ok {
			hits = append(hits, hit{p: p, dist: d})
		}
	}

	slices.SortStableFunc(hits, func(a, b hit) int {
		if c := cmp.Compare(a.dist, b.dist); c != 0 {
			return c
		}
		return cmp.Compare(a.p.Name, b.p.Name)
	})

	out := make([]Product, 0, len(hits))
	for _, h := range hits {
		out = append(out, Product{
			ID:          h.p.ID,
			Name:        h.p.Name,
			Description: h.p.Description,
			Price:       h.p.Price,
		})
	}
	return out
}
