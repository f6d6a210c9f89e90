// Package matrix turns option groups into a reconciled grid of product variants.
//
// Every exported operation takes a session value and returns a new one; nothing
// here performs I/O. The usecase layer loads a session, applies an Action and
// stores the result.
package matrix

import (
	"sort"
	"strings"

	"atelier-admin/internal/domain"

	"github.com/goccy/go-json"
)

// Combination is one value per axis, in axis order.
type Combination []domain.OptionPair

// Map returns the combination as a name -> value map.
func (c Combination) Map() map[string]string {
	m := make(map[string]string, len(c))
	for _, p := range c {
		m[p.Name] = p.Value
	}
	return m
}

// Key returns the canonical key of the combination.
func (c Combination) Key() string {
	return CanonicalKey(c)
}

// EffectiveAxes returns the groups that take part in combination generation:
// enabled, named, with at least one value. Groups sharing a name are merged
// into one axis at the position of the first one.
func EffectiveAxes(groups []domain.OptionGroup) []domain.OptionSchema {
	var axes []domain.OptionSchema
	pos := make(map[string]int)
	for _, g := range groups {
		name := strings.TrimSpace(g.Name)
		if !g.Enabled || name == "" {
			continue
		}
		values := NormalizeValues(g.Values)
		if len(values) == 0 {
			continue
		}
		if i, ok := pos[name]; ok {
			axes[i].Values = NormalizeValues(append(axes[i].Values, values...))
			continue
		}
		pos[name] = len(axes)
		axes = append(axes, domain.OptionSchema{Name: name, Values: values})
	}
	return axes
}

// Combinations computes the Cartesian product of the axes. The first axis
// varies slowest. No axes means no combinations.
func Combinations(axes []domain.OptionSchema) []Combination {
	if len(axes) == 0 {
		return nil
	}
	out := []Combination{{}}
	for _, axis := range axes {
		next := make([]Combination, 0, len(out)*len(axis.Values))
		for _, prefix := range out {
			for _, v := range axis.Values {
				c := make(Combination, len(prefix), len(prefix)+1)
				copy(c, prefix)
				next = append(next, append(c, domain.OptionPair{Name: axis.Name, Value: v}))
			}
		}
		out = next
	}
	return out
}

// CanonicalKey serializes pairs as a JSON object with names sorted, so two
// combinations with the same assignments share a key whatever their order.
// A repeated name keeps its last value.
func CanonicalKey(pairs []domain.OptionPair) string {
	m := make(map[string]string, len(pairs))
	for _, p := range pairs {
		m[p.Name] = p.Value
	}
	names := make([]string, 0, len(m))
	for name := range m {
		names = append(names, name)
	}
	sort.Strings(names)

	var b strings.Builder
	b.WriteByte('{')
	for i, name := range names {
		if i > 0 {
			b.WriteByte(',')
		}
		b.Write(quote(name))
		b.WriteByte(':')
		b.Write(quote(m[name]))
	}
	b.WriteByte('}')
	return b.String()
}

func quote(s string) []byte {
	out, _ := json.Marshal(s)
	return out
}

// NormalizeValues trims values, drops blanks and removes duplicates keeping
// the first occurrence.
func NormalizeValues(values []string) []string {
	out := make([]string, 0, len(values))
	seen := make(map[string]bool, len(values))
	for _, v := range values {
		v = strings.TrimSpace(v)
		if v == "" || seen[v] {
			continue
		}
		seen[v] = true
		out = append(out, v)
	}
	return out
}
