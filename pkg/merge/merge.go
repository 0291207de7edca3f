// Package merge combines configuration trees with a type-directed algorithm.
//
// At every position of the tree the Merger applies, most specific first:
//
//  1. mapping + mapping: union of keys, recursing on shared keys
//  2. sequence + sequence: base followed by incoming, duplicates kept
//  3. anything else: the ordered strategy chain, first match wins
//  4. the fallback strategy (equality by default)
//
// When nothing resolves a pair the merge fails with an
// [UnresolvedConflictError] naming the key path and both values.
package merge

import (
	"strings"

	"github.com/foremast/foremast/pkg/node"
)

// Path locates a value inside the configuration tree.
type Path []string

// Child returns a new path extended by key. The receiver is not modified.
func (p Path) Child(key string) Path {
	child := make(Path, len(p), len(p)+1)
	copy(child, p)
	return append(child, key)
}

// String joins the path with dots. The root path renders as "<root>".
func (p Path) String() string {
	if len(p) == 0 {
		return "<root>"
	}
	return strings.Join(p, ".")
}

// Observer is notified about strategy decisions made during a merge.
type Observer interface {
	StrategyResolved(strategy, path string)
	ConflictUnresolved(path string)
}

// Merger merges configuration trees. A Merger is immutable after New and
// safe for concurrent use.
type Merger struct {
	chain    []Strategy
	fallback Strategy
	observer Observer
}

// Option configures a Merger.
type Option func(*Merger)

// WithStrategies replaces the strategy chain.
func WithStrategies(strategies ...Strategy) Option {
	return func(m *Merger) {
		m.chain = append([]Strategy(nil), strategies...)
	}
}

// WithFallback replaces the fallback strategy.
func WithFallback(s Strategy) Option {
	return func(m *Merger) {
		m.fallback = s
	}
}

// WithObserver registers an observer for strategy decisions.
func WithObserver(o Observer) Option {
	return func(m *Merger) {
		m.observer = o
	}
}

// New creates a Merger with the default strategy chain and the equality
// fallback.
func New(opts ...Option) *Merger {
	m := &Merger{
		chain:    DefaultStrategies(),
		fallback: Equality,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Strategies returns the names of the configured chain in evaluation order.
func (m *Merger) Strategies() []string {
	names := make([]string, len(m.chain))
	for i, s := range m.chain {
		names[i] = s.Name
	}
	return names
}

// Merge merges incoming into base and returns the result. Neither input is
// modified.
func (m *Merger) Merge(base, incoming node.Node) (node.Node, error) {
	return m.MergeAt(nil, base, incoming)
}

// MergeAt merges incoming into base, reporting conflicts relative to path.
func (m *Merger) MergeAt(path Path, base, incoming node.Node) (node.Node, error) {
	switch {
	case base.Kind() == node.KindMapping && incoming.Kind() == node.KindMapping:
		return m.mergeMappings(path, base, incoming)
	case base.Kind() == node.KindSequence && incoming.Kind() == node.KindSequence:
		return node.Sequence(append(base.Items(), incoming.Items()...)...), nil
	}

	for _, s := range m.chain {
		value, ok, err := s.apply(m, path, base, incoming)
		if err != nil {
			return node.Node{}, err
		}
		if ok {
			m.resolved(s.Name, path)
			return value, nil
		}
	}

	value, ok, err := m.fallback.apply(m, path, base, incoming)
	if err != nil {
		return node.Node{}, err
	}
	if ok {
		m.resolved(m.fallback.Name, path)
		return value, nil
	}

	if m.observer != nil {
		m.observer.ConflictUnresolved(path.String())
	}
	return node.Node{}, &UnresolvedConflictError{
		Path:     append(Path(nil), path...),
		Base:     base,
		Incoming: incoming,
	}
}

func (m *Merger) mergeMappings(path Path, base, incoming node.Node) (node.Node, error) {
	merged := base.Entries()
	for _, key := range incoming.Keys() {
		next, _ := incoming.Lookup(key)
		current, exists := merged[key]
		if !exists {
			merged[key] = next
			continue
		}

		value, err := m.MergeAt(path.Child(key), current, next)
		if err != nil {
			return node.Node{}, err
		}
		merged[key] = value
	}
	return node.Mapping(merged), nil
}

func (m *Merger) resolved(strategy string, path Path) {
	if m.observer != nil {
		m.observer.StrategyResolved(strategy, path.String())
	}
}
