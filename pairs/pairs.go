// Package pairs stores relations between unordered pairs of names in a sparse
// triangular table: each pair is written in one direction only and read in
// either.
package pairs

import "fmt"

// Table maps a first key to a second key to a value. Keys are expected to be
// canonical names; the table does not fold them itself.
type Table[V any] map[string]map[string]V

// New returns an empty table.
func New[V any]() Table[V] {
	return make(Table[V])
}

// Lookup resolves the relation for (a, b) regardless of argument order.
// A miss means "no documented relation", never "documented as safe".
// Self-pairs are not short-circuited here; callers handle the diagonal.
func Lookup[V any](t Table[V], a, b string) (V, bool) {
	if row, ok := t[a]; ok {
		if v, ok := row[b]; ok {
			return v, true
		}
	}
	if row, ok := t[b]; ok {
		if v, ok := row[a]; ok {
			return v, true
		}
	}
	var zero V
	return zero, false
}

// Lookup is the method form of the package-level Lookup.
func (t Table[V]) Lookup(a, b string) (V, bool) {
	return Lookup(t, a, b)
}

// Set stores v under (a, b). It refuses to write a pair that is already
// present in either direction so the table stays triangular.
func (t Table[V]) Set(a, b string, v V) error {
	if a == b {
		return fmt.Errorf("self-pair %q cannot be stored", a)
	}
	if _, exists := Lookup(t, a, b); exists {
		return fmt.Errorf("pair (%q, %q) is already defined", a, b)
	}
	row, ok := t[a]
	if !ok {
		row = make(map[string]V)
		t[a] = row
	}
	row[b] = v
	return nil
}

// Len returns the number of stored pairs.
func (t Table[V]) Len() int {
	n := 0
	for _, row := range t {
		n += len(row)
	}
	return n
}
