package engine

import (
	"sort"

	"github.com/luketherose/gym-diary-ios-swiftui-sub000/pkg/catalog"
)

// AllowedValues returns the values of attrKey still permitted given the
// current partial selection, sorted lexicographically.
//
// The working set starts as every declared value. Global rules targeting
// attrKey apply first, then rules scoped to archetype (when non-nil), each
// group in declaration order. A rule whose condition holds intersects the
// set with its allow list and then subtracts its deny list. Unknown
// attributes and attributes without declared values yield an empty slice.
func (e *Engine) AllowedValues(attrKey string, archetype *catalog.Archetype, current catalog.Attributes) []string {
	def, ok := e.catalog.Attribute(attrKey)
	if !ok || def.Values == nil {
		return []string{}
	}

	working := make(map[string]struct{}, len(def.Values))
	for _, v := range def.Values {
		working[v] = struct{}{}
	}

	narrow(working, attrKey, e.globalByTarget[attrKey], current)
	if archetype != nil {
		narrow(working, attrKey, e.scopedByTarget[archetype.Key][attrKey], current)
	}

	out := make([]string, 0, len(working))
	for v := range working {
		out = append(out, v)
	}
	sort.Strings(out)
	return out
}

func narrow(working map[string]struct{}, attrKey string, rules []catalog.RuleClause, current catalog.Attributes) {
	for _, r := range rules {
		if !IsConditionSatisfied(r.If, current) {
			continue
		}
		if allow, ok := r.Allow.Values(attrKey); ok {
			keep := make(map[string]struct{}, len(allow))
			for _, v := range allow {
				keep[v] = struct{}{}
			}
			for v := range working {
				if _, ok := keep[v]; !ok {
					delete(working, v)
				}
			}
		}
		if deny, ok := r.Deny.Values(attrKey); ok {
			for _, v := range deny {
				delete(working, v)
			}
		}
	}
}

// IsConditionSatisfied reports whether every key of cond is present in
// current with a value whose string form is listed for that key. A key
// missing from current fails the condition. An empty condition holds.
func IsConditionSatisfied(cond catalog.ValueSets, current catalog.Attributes) bool {
	for key := range cond {
		v, ok := current[key]
		if !ok {
			return false
		}
		if !cond.Contains(key, v.String()) {
			return false
		}
	}
	return true
}
