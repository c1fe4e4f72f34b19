package core

import "sort"

// Entry is one field of a logic map with its postfix expression.
// An empty Tokens list marks the field as real.
type Entry struct {
	Field  string
	Tokens []string
}

// Real reports whether the entry is supplied by the store rather than computed.
func (e Entry) Real() bool {
	return len(e.Tokens) == 0
}

// Logic is an insertion-ordered mapping from field name to postfix
// expression. Field names are unique; setting an existing field replaces
// its expression in place.
type Logic struct {
	entries []Entry
	index   map[string]int
}

// NewLogic creates an empty logic map.
func NewLogic() *Logic {
	return &Logic{index: make(map[string]int)}
}

// LogicFromMap builds a Logic from a Go map. Map iteration order is
// undefined, so fields are inserted in sorted order.
func LogicFromMap(m map[string][]string) *Logic {
	names := make([]string, 0, len(m))
	for name := range m {
		names = append(names, name)
	}
	sort.Strings(names)

	l := NewLogic()
	for _, name := range names {
		l.Set(name, m[name]...)
	}
	return l
}

// Set adds or replaces the expression of field and returns l for chaining.
func (l *Logic) Set(field string, tokens ...string) *Logic {
	toks := make([]string, len(tokens))
	copy(toks, tokens)

	if i, ok := l.index[field]; ok {
		l.entries[i].Tokens = toks
		return l
	}
	l.index[field] = len(l.entries)
	l.entries = append(l.entries, Entry{Field: field, Tokens: toks})
	return l
}

// Get returns the expression of field.
func (l *Logic) Get(field string) ([]string, bool) {
	i, ok := l.index[field]
	if !ok {
		return nil, false
	}
	return l.entries[i].Tokens, true
}

// Has reports whether field has an entry.
func (l *Logic) Has(field string) bool {
	_, ok := l.index[field]
	return ok
}

// Len returns the number of entries.
func (l *Logic) Len() int {
	return len(l.entries)
}

// Fields returns field names in insertion order.
func (l *Logic) Fields() []string {
	out := make([]string, len(l.entries))
	for i, e := range l.entries {
		out[i] = e.Field
	}
	return out
}

// Entries returns the entries in insertion order. The slice is a copy but
// token lists are shared; callers must not modify them.
func (l *Logic) Entries() []Entry {
	out := make([]Entry, len(l.entries))
	copy(out, l.entries)
	return out
}

// Clone returns a deep copy of l.
func (l *Logic) Clone() *Logic {
	c := NewLogic()
	for _, e := range l.entries {
		c.Set(e.Field, e.Tokens...)
	}
	return c
}
