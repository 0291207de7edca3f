package frozen

import (
	"sort"

	"github.com/foremast/foremast/pkg/node"
)

// Set is an immutable, unordered collection of distinct nodes.
type Set struct {
	items map[string]node.Node
}

// NewSet builds a Set from items, dropping duplicates.
func NewSet(items ...node.Node) *Set {
	s := &Set{items: make(map[string]node.Node, len(items))}
	for _, item := range items {
		s.items[item.Key()] = item
	}
	return s
}

func (*Set) frozen() {}

// Len returns the number of distinct elements.
func (s *Set) Len() int {
	return len(s.items)
}

// Contains reports whether n is an element of the set.
func (s *Set) Contains(n node.Node) bool {
	_, ok := s.items[n.Key()]
	return ok
}

// ContainsString reports whether the string str is an element of the set.
func (s *Set) ContainsString(str string) bool {
	return s.Contains(node.String(str))
}

// Items returns the elements in canonical key order.
func (s *Set) Items() []node.Node {
	keys := make([]string, 0, len(s.items))
	for k := range s.items {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	out := make([]node.Node, len(keys))
	for i, k := range keys {
		out[i] = s.items[k]
	}
	return out
}

// Strings returns the string elements, sorted. Other elements are skipped.
func (s *Set) Strings() []string {
	out := make([]string, 0, len(s.items))
	for _, item := range s.items {
		if str, ok := item.Str(); ok {
			out = append(out, str)
		}
	}
	sort.Strings(out)
	return out
}

// Equal reports whether s and other hold the same elements.
func (s *Set) Equal(other *Set) bool {
	if s.Len() != other.Len() {
		return false
	}
	for k := range s.items {
		if _, ok := other.items[k]; !ok {
			return false
		}
	}
	return true
}

// Node returns the elements as a sequence in canonical key order.
func (s *Set) Node() node.Node {
	return node.Sequence(s.Items()...)
}

// MarshalYAML renders the set as a sequence.
func (s *Set) MarshalYAML() (any, error) {
	return s.Node().MarshalYAML()
}
