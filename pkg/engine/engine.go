// Package engine answers catalog queries: archetype search, allowed
// attribute values under partial selections, combination validation and
// display-name synthesis.
//
// Every Engine method is a pure function of the injected catalog and its
// arguments. The catalog is never mutated, so one Engine can serve any
// number of goroutines without locking.
package engine

import (
	"github.com/luketherose/gym-diary-ios-swiftui-sub000/pkg/catalog"
)

// Engine evaluates queries against one immutable catalog.
type Engine struct {
	catalog *catalog.Catalog

	// global rules by target, declaration order
	globalByTarget map[string][]catalog.RuleClause
	// archetype-scoped rules by archetype then target, declaration order
	scopedByTarget map[string]map[string][]catalog.RuleClause
	// targeted rules (global or scoped) that apply to each archetype, declaration order
	applicable map[string][]catalog.RuleClause
	// archetype-scoped require clauses per archetype, declaration order
	requires map[string][]catalog.RuleClause
}

// New indexes the catalog's rules. A nil catalog is treated as empty.
func New(c *catalog.Catalog) *Engine {
	if c == nil {
		c = catalog.Empty()
	}
	e := &Engine{
		catalog:        c,
		globalByTarget: make(map[string][]catalog.RuleClause),
		scopedByTarget: make(map[string]map[string][]catalog.RuleClause),
		applicable:     make(map[string][]catalog.RuleClause),
		requires:       make(map[string][]catalog.RuleClause),
	}

	archetypes := c.Archetypes()
	for _, r := range c.Rules() {
		key, scoped := r.Scope.Archetype()

		if scoped && len(r.Require) > 0 {
			e.requires[key] = append(e.requires[key], r)
		}
		if !r.HasTarget() {
			continue
		}

		if !scoped {
			e.globalByTarget[r.Target] = append(e.globalByTarget[r.Target], r)
			for _, a := range archetypes {
				e.applicable[a.Key] = append(e.applicable[a.Key], r)
			}
			continue
		}

		byTarget, ok := e.scopedByTarget[key]
		if !ok {
			byTarget = make(map[string][]catalog.RuleClause)
			e.scopedByTarget[key] = byTarget
		}
		byTarget[r.Target] = append(byTarget[r.Target], r)
		e.applicable[key] = append(e.applicable[key], r)
	}

	return e
}

// Catalog exposes the read-only catalog accessors.
func (e *Engine) Catalog() *catalog.Catalog {
	return e.catalog
}

// MuscleGroups lists the taxonomy groups in catalog order.
func (e *Engine) MuscleGroups() []string {
	return e.catalog.MuscleGroups()
}

// Attributes lists the attribute definitions in catalog order.
func (e *Engine) Attributes() []catalog.AttributeDefinition {
	return e.catalog.Attributes()
}

// Archetypes lists every archetype in catalog order.
func (e *Engine) Archetypes() []catalog.Archetype {
	return e.catalog.Archetypes()
}
