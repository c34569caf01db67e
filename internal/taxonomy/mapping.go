package taxonomy

import (
	"sort"
	"strings"

	"github.com/marche-ricette/recipe-connector/pkg/cms"
)

// Mapping is a read-only, case-insensitive name to category id lookup.
type Mapping struct {
	entries map[string]entry
	order   []string
}

type entry struct {
	name string
	id   int64
}

func newMapping() *Mapping {
	return &Mapping{entries: make(map[string]entry)}
}

// BuildMapping maps each category's normalized name (last write wins) and,
// when no case-insensitively equal key exists yet, its original name
// (first write wins).
//
// NOTE: the two keys resolve name collisions differently. Two categories
// normalizing to the same key leave the later id under the normalized key
// and the earlier one under the original name.
func BuildMapping(categories []cms.Category) *Mapping {
	m := newMapping()
	for _, c := range categories {
		m.set(Normalize(c.Name), c.ID)
		m.setIfAbsent(c.Name, c.ID)
	}
	return m
}

// set stores id under name, replacing any id stored under a
// case-insensitively equal name. The first spelling of the key is kept.
func (m *Mapping) set(name string, id int64) {
	k := strings.ToLower(name)
	if e, ok := m.entries[k]; ok {
		e.id = id
		m.entries[k] = e
		return
	}
	m.entries[k] = entry{name: name, id: id}
	m.order = append(m.order, k)
}

// setIfAbsent stores id under name only when no case-insensitively equal
// key exists yet.
func (m *Mapping) setIfAbsent(name string, id int64) {
	if _, ok := m.entries[strings.ToLower(name)]; ok {
		return
	}
	m.set(name, id)
}

// Lookup returns the category id for name, ignoring case.
func (m *Mapping) Lookup(name string) (int64, bool) {
	if m == nil {
		return 0, false
	}
	e, ok := m.entries[strings.ToLower(name)]
	return e.id, ok
}

// Len returns the number of keys.
func (m *Mapping) Len() int {
	if m == nil {
		return 0
	}
	return len(m.entries)
}

// Entries returns a copy of the mapping keyed by the first spelling of
// each key.
func (m *Mapping) Entries() map[string]int64 {
	out := make(map[string]int64, m.Len())
	if m == nil {
		return out
	}
	for _, e := range m.entries {
		out[e.name] = e.id
	}
	return out
}

// Keys returns the keys in insertion order.
func (m *Mapping) Keys() []string {
	if m == nil {
		return nil
	}
	keys := make([]string, 0, len(m.order))
	for _, k := range m.order {
		keys = append(keys, m.entries[k].name)
	}
	return keys
}

// SortedKeys returns the keys sorted alphabetically.
func (m *Mapping) SortedKeys() []string {
	keys := m.Keys()
	sort.Strings(keys)
	return keys
}
