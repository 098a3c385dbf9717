package engine

import (
	"strings"

	"github.com/luketherose/gym-diary-ios-swiftui-sub000/pkg/catalog"
)

// Search returns the archetypes whose searchable text, primary muscle,
// secondary muscles or subgroups contain the trimmed, lowercased query.
// An empty query returns every archetype. Catalog order is preserved.
func (e *Engine) Search(query string) []catalog.Archetype {
	q := strings.ToLower(strings.TrimSpace(query))
	all := e.catalog.Archetypes()
	if q == "" {
		return all
	}

	matched := make([]catalog.Archetype, 0, len(all))
	for _, a := range all {
		if matchesQuery(a, q) {
			matched = append(matched, a)
		}
	}
	return matched
}

// Filter is Search restricted to archetypes whose primary group is group.
// An empty group applies no restriction.
func (e *Engine) Filter(query, group string) []catalog.Archetype {
	results := e.Search(query)
	if group == "" {
		return results
	}

	filtered := results[:0]
	for _, a := range results {
		if a.PrimaryGroup == group {
			filtered = append(filtered, a)
		}
	}
	return filtered
}

func matchesQuery(a catalog.Archetype, q string) bool {
	if strings.Contains(a.SearchText(), q) {
		return true
	}
	if strings.Contains(strings.ToLower(a.PrimaryMuscle), q) {
		return true
	}
	for _, list := range [][]string{a.SecondaryMuscles, a.PrimarySubgroups, a.SecondarySubgroups} {
		for _, item := range list {
			if strings.Contains(strings.ToLower(item), q) {
				return true
			}
		}
	}
	return false
}
