package engine

import (
	"fmt"

	"github.com/luketherose/gym-diary-ios-swiftui-sub000/pkg/catalog"
)

// ReasonInvalidArchetype is the single reason reported for an unknown archetype key.
const ReasonInvalidArchetype = "Invalid archetype"

// Validation is the outcome of IsCombinationValid. Reasons hold the
// canonical templated violations. Messages is parallel to Reasons and
// substitutes a rule's errorMessage where the catalog provides one.
type Validation struct {
	OK       bool     `json:"ok" yaml:"ok"`
	Reasons  []string `json:"reasons" yaml:"reasons"`
	Messages []string `json:"messages" yaml:"messages"`
}

func (v *Validation) add(reason, message string) {
	if message == "" {
		message = reason
	}
	v.Reasons = append(v.Reasons, reason)
	v.Messages = append(v.Messages, message)
}

// IsCombinationValid checks a complete selection and collects every
// violation:
//   - attributes not in the archetype's allowedAttributes, in key order
//   - attributes required by the archetype's rules but absent
//   - values outside a firing rule's allow list or inside its deny list,
//     walking global and archetype rules in declaration order
//
// The selection is valid iff no reason is reported.
func (e *Engine) IsCombinationValid(archetypeKey string, attrs catalog.Attributes) Validation {
	archetype, ok := e.catalog.Archetype(archetypeKey)
	if !ok {
		return Validation{
			OK:       false,
			Reasons:  []string{ReasonInvalidArchetype},
			Messages: []string{ReasonInvalidArchetype},
		}
	}

	v := Validation{Reasons: []string{}, Messages: []string{}}

	for _, key := range attrs.Keys() {
		if !archetype.AllowsAttribute(key) {
			v.add(fmt.Sprintf("Attribute '%s' is not allowed for %s", key, archetype.DisplayName), "")
		}
	}

	for _, r := range e.requires[archetypeKey] {
		for _, key := range r.Require {
			if _, present := attrs[key]; !present {
				v.add(fmt.Sprintf("Required attribute '%s' is missing", key), r.ErrorMessage)
			}
		}
	}

	for _, r := range e.applicable[archetypeKey] {
		current, present := attrs[r.Target]
		if !present || !IsConditionSatisfied(r.If, attrs) {
			continue
		}
		value := current.String()
		if _, ok := r.Allow.Values(r.Target); ok && !r.Allow.Contains(r.Target, value) {
			v.add(fmt.Sprintf("Value '%s' for '%s' is not allowed", value, r.Target), r.ErrorMessage)
		}
		if r.Deny.Contains(r.Target, value) {
			v.add(fmt.Sprintf("Value '%s' for '%s' is denied", value, r.Target), r.ErrorMessage)
		}
	}

	v.OK = len(v.Reasons) == 0
	return v
}
