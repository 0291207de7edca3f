// Package frozen provides a read-only view over a merged configuration tree.
//
// Reads freeze lazily: the first read of a nested mapping wraps it in a new
// Map and the first read of a sequence converts it into a Set. The frozen
// value replaces the raw one, so later reads of the same key return the same
// instance. Converting a sequence into a Set drops its order and collapses
// duplicates; this cannot be undone.
package frozen

import (
	"errors"
	"fmt"
	"sync"

	"github.com/foremast/foremast/pkg/node"
)

var (
	// ErrImmutable is matched by every ImmutableError.
	ErrImmutable = errors.New("frozen configuration does not support item assignment")

	// ErrKeyNotFound indicates a read of a key that is not present.
	ErrKeyNotFound = errors.New("configuration key not found")

	// ErrNotMapping indicates an attempt to wrap a node that is not a
	// mapping or a section.
	ErrNotMapping = errors.New("frozen map requires a mapping node")

	// ErrWrongKind indicates a typed read of a value of another kind.
	ErrWrongKind = errors.New("configuration value has a different kind")
)

// ImmutableError reports an attempted write to a frozen Map.
type ImmutableError struct {
	Key string
}

// Error implements the error interface.
func (e *ImmutableError) Error() string {
	return fmt.Sprintf("%s: refusing to set %q", ErrImmutable, e.Key)
}

// Is implements error equality checking for errors.Is.
func (e *ImmutableError) Is(target error) bool {
	return target == ErrImmutable
}

// Value is a frozen configuration value: *Map, *Set or Scalar.
type Value interface {
	// Node returns an unfrozen snapshot of the value.
	Node() node.Node
	frozen()
}

// Scalar is a frozen scalar value.
type Scalar struct {
	n node.Node
}

// Node returns the wrapped node.
func (s Scalar) Node() node.Node { return s.n }

// Kind returns the kind of the wrapped node.
func (s Scalar) Kind() node.Kind { return s.n.Kind() }

func (Scalar) frozen() {}

// Freeze converts n into its frozen form.
func Freeze(n node.Node) Value {
	switch n.Kind() {
	case node.KindMapping, node.KindSection:
		return newMap(n)
	case node.KindSequence:
		return NewSet(n.Items()...)
	}
	return Scalar{n: n}
}

type entry struct {
	raw    node.Node
	frozen Value
}

// Map is a read-only mapping whose nested values are frozen on first read.
// It is safe for concurrent use.
type Map struct {
	mu      sync.Mutex
	entries map[string]*entry
	keys    []string
}

// New wraps a mapping or section node.
func New(n node.Node) (*Map, error) {
	if !n.IsKeyed() {
		return nil, fmt.Errorf("%w: got %s", ErrNotMapping, n.Kind())
	}
	return newMap(n), nil
}

func newMap(n node.Node) *Map {
	raw := n.Entries()
	entries := make(map[string]*entry, len(raw))
	for k, v := range raw {
		entries[k] = &entry{raw: v}
	}
	return &Map{entries: entries, keys: n.Keys()}
}

func (*Map) frozen() {}

// Get returns the frozen value stored under key.
func (m *Map) Get(key string) (Value, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	e, ok := m.entries[key]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrKeyNotFound, key)
	}
	if e.frozen != nil {
		return e.frozen, nil
	}

	switch e.raw.Kind() {
	case node.KindMapping, node.KindSection, node.KindSequence:
		e.frozen = Freeze(e.raw)
		return e.frozen, nil
	}
	return Scalar{n: e.raw}, nil
}

// Set always fails: a frozen Map cannot be modified.
func (m *Map) Set(key string, _ any) error {
	return &ImmutableError{Key: key}
}

// Has reports whether key is present.
func (m *Map) Has(key string) bool {
	_, ok := m.entries[key]
	return ok
}

// Keys returns the sorted keys of the map.
func (m *Map) Keys() []string {
	return append([]string(nil), m.keys...)
}

// Len returns the number of keys.
func (m *Map) Len() int {
	return len(m.keys)
}

// Map returns the nested Map stored under key.
func (m *Map) Map(key string) (*Map, error) {
	v, err := m.Get(key)
	if err != nil {
		return nil, err
	}
	nested, ok := v.(*Map)
	if !ok {
		return nil, kindError(key, "mapping", v)
	}
	return nested, nil
}

// SetOf returns the Set stored under key.
func (m *Map) SetOf(key string) (*Set, error) {
	v, err := m.Get(key)
	if err != nil {
		return nil, err
	}
	set, ok := v.(*Set)
	if !ok {
		return nil, kindError(key, "sequence", v)
	}
	return set, nil
}

// String returns the string stored under key. Null reads as "".
func (m *Map) String(key string) (string, error) {
	v, err := m.Get(key)
	if err != nil {
		return "", err
	}
	n := v.Node()
	if n.IsNull() {
		return "", nil
	}
	s, ok := n.Str()
	if !ok {
		return "", kindError(key, "string", v)
	}
	return s, nil
}

// Int returns the integer stored under key.
func (m *Map) Int(key string) (int64, error) {
	v, err := m.Get(key)
	if err != nil {
		return 0, err
	}
	i, ok := v.Node().Int()
	if !ok {
		return 0, kindError(key, "int", v)
	}
	return i, nil
}

// Node returns an unfrozen snapshot of the map. Sequences that have already
// been read come back in their frozen, sorted and deduplicated form.
func (m *Map) Node() node.Node {
	m.mu.Lock()
	defer m.mu.Unlock()

	entries := make(map[string]node.Node, len(m.entries))
	for k, e := range m.entries {
		if e.frozen != nil {
			entries[k] = e.frozen.Node()
			continue
		}
		entries[k] = e.raw
	}
	return node.Mapping(entries)
}

// Snapshot reads v completely, freezing every nested value on the way, and
// returns the result as a node. Unlike Node, every sequence comes back as a
// sorted, deduplicated set.
func Snapshot(v Value) node.Node {
	m, ok := v.(*Map)
	if !ok {
		return v.Node()
	}

	keys := m.Keys()
	entries := make(map[string]node.Node, len(keys))
	for _, k := range keys {
		child, err := m.Get(k)
		if err != nil {
			continue
		}
		entries[k] = Snapshot(child)
	}
	return node.Mapping(entries)
}

// MarshalYAML renders the map with sorted keys.
func (m *Map) MarshalYAML() (any, error) {
	return m.Node().MarshalYAML()
}

func kindError(key, want string, got Value) error {
	return fmt.Errorf("%w: %q is %s, want %s", ErrWrongKind, key, got.Node().Kind(), want)
}
