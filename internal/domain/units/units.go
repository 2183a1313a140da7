// Package units holds the immutable vocabulary of permissible units per
// attribute.
package units

import (
	"sort"
	"strings"
)

// Vocabulary maps attribute names to their permissible unit strings.
// A Vocabulary is immutable once built; accessors return copies.
type Vocabulary struct {
	byEntity map[string][]string
	allowed  map[string]struct{}
}

// New builds a Vocabulary from entity -> units. Units are lowercased,
// trimmed, deduplicated and sorted; blank entries are dropped.
func New(entries map[string][]string) Vocabulary {
	v := Vocabulary{
		byEntity: make(map[string][]string, len(entries)),
		allowed:  make(map[string]struct{}),
	}
	for entity, list := range entries {
		entity = strings.TrimSpace(entity)
		if entity == "" {
			continue
		}
		seen := make(map[string]struct{}, len(list))
		units := make([]string, 0, len(list))
		for _, u := range list {
			u = strings.ToLower(strings.TrimSpace(u))
			if u == "" {
				continue
			}
			if _, dup := seen[u]; dup {
				continue
			}
			seen[u] = struct{}{}
			units = append(units, u)
			v.allowed[u] = struct{}{}
		}
		sort.Strings(units)
		v.byEntity[entity] = units
	}
	return v
}

// Default returns the vocabulary of the product attribute extraction task.
func Default() Vocabulary {
	length := []string{"centimetre", "foot", "inch", "metre", "millimetre", "yard"}
	weight := []string{"gram", "kilogram", "microgram", "milligram", "ounce", "pound", "ton"}
	return New(map[string][]string{
		"width":                         length,
		"depth":                         length,
		"height":                        length,
		"item_weight":                   weight,
		"maximum_weight_recommendation": weight,
		"voltage":                       {"kilovolt", "millivolt", "volt"},
		"wattage":                       {"kilowatt", "watt"},
		"item_volume": {
			"centilitre", "cubic foot", "cubic inch", "cup", "decilitre",
			"fluid ounce", "gallon", "imperial gallon", "litre", "microlitre",
			"millilitre", "pint", "quart",
		},
	})
}

// Units returns the sorted units permitted for entity, or nil when unknown.
func (v Vocabulary) Units(entity string) []string {
	units, ok := v.byEntity[entity]
	if !ok {
		return nil
	}
	out := make([]string, len(units))
	copy(out, units)
	return out
}

// Entities returns the sorted attribute names.
func (v Vocabulary) Entities() []string {
	out := make([]string, 0, len(v.byEntity))
	for e := range v.byEntity {
		out = append(out, e)
	}
	sort.Strings(out)
	return out
}

// Allowed reports whether unit is permitted for any attribute.
func (v Vocabulary) Allowed(unit string) bool {
	_, ok := v.allowed[unit]
	return ok
}

// AllowedUnits returns the sorted union of all units.
func (v Vocabulary) AllowedUnits() []string {
	out := make([]string, 0, len(v.allowed))
	for u := range v.allowed {
		out = append(out, u)
	}
	sort.Strings(out)
	return out
}

// Canonical fixes common spelling slips ("meter" for "metre", "feet" for
// "foot") when the fixed form is allowed. Otherwise unit is returned as is.
func (v Vocabulary) Canonical(unit string) string {
	if v.Allowed(unit) {
		return unit
	}
	if fixed := strings.ReplaceAll(unit, "ter", "tre"); v.Allowed(fixed) {
		return fixed
	}
	if fixed := strings.ReplaceAll(unit, "feet", "foot"); v.Allowed(fixed) {
		return fixed
	}
	return unit
}

// Len returns the number of attributes.
func (v Vocabulary) Len() int {
	return len(v.byEntity)
}
