// Package symbols holds the positional name tables used to decode event codes
// and bitmask fields into symbolic names.
package symbols

// Table maps a position (bit index or event code) to a name. An empty string
// marks a position without a name. Tables are built once at package init and
// never mutated.
type Table struct {
	names []string
}

// NewTable returns a table whose positions are the indexes of names.
func NewTable(names ...string) Table {
	cp := make([]string, len(names))
	copy(cp, names)
	return Table{names: cp}
}

// Lookup returns the name at position i. Positions outside the table and
// unnamed slots report false.
func (t Table) Lookup(i int) (string, bool) {
	if i < 0 || i >= len(t.names) {
		return "", false
	}
	name := t.names[i]
	return name, name != ""
}

// Len is the number of slots, named or not.
func (t Table) Len() int { return len(t.names) }

// Known is the number of leading named slots. Decoding stops at this
// position even if a later slot carries a name.
func (t Table) Known() int {
	for i, name := range t.names {
		if name == "" {
			return i
		}
	}
	return len(t.names)
}
