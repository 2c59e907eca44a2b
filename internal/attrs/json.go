package attrs

import (
	"encoding/json"
	"fmt"
)

// MarshalJSON renders Attrs as an array of ["name","value"] pairs, matching
// the archive codec schema in spec.md §6.
func (a Attrs) MarshalJSON() ([]byte, error) {
	out := make([][2]string, len(a.items))
	for i, p := range a.items {
		out[i] = [2]string{p.Name, p.Value}
	}
	return json.Marshal(out)
}

// UnmarshalJSON parses the ["name","value"] array form.
func (a *Attrs) UnmarshalJSON(data []byte) error {
	var raw [][2]string
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("attrs: %w", err)
	}
	items := make([]Pair, len(raw))
	for i, pair := range raw {
		items[i] = Pair{Name: pair[0], Value: pair[1]}
	}
	*a = Attrs{items: items}
	return nil
}
