package request

import "strings"

// Pair is a single name/value entry.
type Pair struct {
	Name  string
	Value string
}

// Headers is an ordered list of header pairs. Duplicates are kept in the
// order they were received. Name lookups ignore case.
type Headers []Pair

// Query is an ordered list of query parameters. Name lookups are exact.
type Query []Pair

// Get returns the first value for name, or "" if absent.
func (h Headers) Get(name string) string {
	v, _ := first(h, name, strings.EqualFold)
	return v
}

// Lookup is like Get but also reports whether name was present.
func (h Headers) Lookup(name string) (string, bool) {
	return first(h, name, strings.EqualFold)
}

// Last returns the last value for name, or "" if absent.
func (h Headers) Last(name string) string {
	return last(h, name, strings.EqualFold)
}

// Values returns every value for name in order.
func (h Headers) Values(name string) []string {
	return values(h, name, strings.EqualFold)
}

// Has reports whether name is present.
func (h Headers) Has(name string) bool {
	_, ok := first(h, name, strings.EqualFold)
	return ok
}

// Map returns a name to value mapping where later duplicates win.
func (h Headers) Map() map[string]string {
	return toMap(h)
}

// With returns a copy of h with name=value appended.
func (h Headers) With(name, value string) Headers {
	out := make(Headers, 0, len(h)+1)
	out = append(out, h...)
	return append(out, Pair{Name: name, Value: value})
}

// Merge returns h followed by other. Entries of h whose name also appears in
// other are dropped, so other overrides on collision.
func (h Headers) Merge(other Headers) Headers {
	out := make(Headers, 0, len(h)+len(other))
	for _, p := range h {
		if !other.Has(p.Name) {
			out = append(out, p)
		}
	}
	return append(out, other...)
}

// Get returns the first value for name, or "" if absent.
func (q Query) Get(name string) string {
	v, _ := first(q, name, exact)
	return v
}

// Lookup is like Get but also reports whether name was present.
func (q Query) Lookup(name string) (string, bool) {
	return first(q, name, exact)
}

// Last returns the last value for name, or "" if absent.
func (q Query) Last(name string) string {
	return last(q, name, exact)
}

// Values returns every value for name in order.
func (q Query) Values(name string) []string {
	return values(q, name, exact)
}

// Has reports whether name is present.
func (q Query) Has(name string) bool {
	_, ok := first(q, name, exact)
	return ok
}

// Map returns a name to value mapping where later duplicates win.
func (q Query) Map() map[string]string {
	return toMap(q)
}

func exact(a, b string) bool { return a == b }

func first[P ~[]Pair](pairs P, name string, eq func(a, b string) bool) (string, bool) {
	for _, p := range pairs {
		if eq(p.Name, name) {
			return p.Value, true
		}
	}
	return "", false
}

func last[P ~[]Pair](pairs P, name string, eq func(a, b string) bool) string {
	for i := len(pairs) - 1; i >= 0; i-- {
		if eq(pairs[i].Name, name) {
			return pairs[i].Value
		}
	}
	return ""
}

func values[P ~[]Pair](pairs P, name string, eq func(a, b string) bool) []string {
	var out []string
	for _, p := range pairs {
		if eq(p.Name, name) {
			out = append(out, p.Value)
		}
	}
	return out
}

func toMap[P ~[]Pair](pairs P) map[string]string {
	m := make(map[string]string, len(pairs))
	for _, p := range pairs {
		m[p.Name] = p.Value
	}
	return m
}

// Len returns the number of pairs, duplicates included.
func (h Headers) Len() int { return len(h) }

// Len returns the number of pairs, duplicates included.
func (q Query) Len() int { return len(q) }
