// Package attrs implements the ordered, duplicate-tolerant key/value
// metadata attached to every Ark entry.
package attrs

// Pair is a single (name, value) attribute.
type Pair struct {
	Name  string
	Value string
}

// Attrs is an ordered sequence of Pairs. Duplicate names are legal;
// equality (Equal) is element-wise including order. The zero value is an
// empty Attrs, ready to use.
type Attrs struct {
	items []Pair
}

// New returns an empty Attrs.
func New() Attrs {
	return Attrs{}
}

// Of builds an Attrs from a flat name, value, name, value... list. Meant
// for tests and literal construction, mirroring the teacher corpus's
// small builder helpers.
func Of(pairs ...string) Attrs {
	if len(pairs)%2 != 0 {
		panic("attrs.Of: odd number of arguments")
	}
	a := New()
	for i := 0; i < len(pairs); i += 2 {
		a = a.Append(pairs[i], pairs[i+1])
	}
	return a
}

// Append pushes a new (name, value) pair, regardless of whether name is
// already present. Returns a new Attrs; the receiver is never mutated.
func (a Attrs) Append(name, value string) Attrs {
	items := make([]Pair, len(a.items), len(a.items)+1)
	copy(items, a.items)
	items = append(items, Pair{Name: name, Value: value})
	return Attrs{items: items}
}

// Delete removes every pair with the given name.
func (a Attrs) Delete(name string) Attrs {
	items := make([]Pair, 0, len(a.items))
	for _, p := range a.items {
		if p.Name != name {
			items = append(items, p)
		}
	}
	return Attrs{items: items}
}

// Set is shorthand for Delete(name).Append(name, value).
func (a Attrs) Set(name, value string) Attrs {
	return a.Delete(name).Append(name, value)
}

// Get returns the value of the last pair with the given name, if any.
// Since Append always pushes to the end, "last" is also "most recently
// set" for ordinary set/append usage.
func (a Attrs) Get(name string) (string, bool) {
	for i := len(a.items) - 1; i >= 0; i-- {
		if a.items[i].Name == name {
			return a.items[i].Value, true
		}
	}
	return "", false
}

// Items returns the underlying pairs in order. Callers must not mutate
// the returned slice.
func (a Attrs) Items() []Pair {
	return a.items
}

// Len reports the number of pairs, including duplicates.
func (a Attrs) Len() int {
	return len(a.items)
}

// Equal compares two Attrs element-wise, including order.
func (a Attrs) Equal(other Attrs) bool {
	if len(a.items) != len(other.items) {
		return false
	}
	for i := range a.items {
		if a.items[i] != other.items[i] {
			return false
		}
	}
	return true
}

// Clone returns an Attrs with an independent backing array, sharing no
// memory with the receiver so downstream mutation helpers never alias.
func (a Attrs) Clone() Attrs {
	items := make([]Pair, len(a.items))
	copy(items, a.items)
	return Attrs{items: items}
}
