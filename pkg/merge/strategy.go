package merge

import (
	"errors"
	"strconv"
	"strings"

	"github.com/goccy/go-json"

	"github.com/foremast/foremast/pkg/node"
)

var errNotJSON = errors.New("not a JSON document")

// SecurityGroupsFallbackKey holds the comma separated groups of a security
// group setting that is not valid JSON. The groups apply to every
// environment.
const SecurityGroupsFallbackKey = "all_envs"

// ResolveFunc resolves a conflicting pair of values. It returns false when
// the strategy makes no decision for the pair.
type ResolveFunc func(m *Merger, path Path, base, incoming node.Node) (node.Node, bool, error)

// MatchFunc reports whether a strategy applies to a pair of kinds.
type MatchFunc func(base, incoming node.Kind) bool

// Strategy is a named conflict resolution rule.
type Strategy struct {
	// Name identifies the strategy in logs and metrics.
	Name string

	// Match guards Resolve by the kinds involved. A nil Match accepts
	// every pair.
	Match MatchFunc

	// Resolve produces the merged value.
	Resolve ResolveFunc
}

func (s Strategy) apply(m *Merger, path Path, base, incoming node.Node) (node.Node, bool, error) {
	if s.Match != nil && !s.Match(base.Kind(), incoming.Kind()) {
		return node.Node{}, false, nil
	}
	return s.Resolve(m, path, base, incoming)
}

// KindPair is an ordered pair of kinds: base first, incoming second.
type KindPair struct {
	Base     node.Kind
	Incoming node.Kind
}

// Pairs matches any of the listed kind pairs.
func Pairs(pairs ...KindPair) MatchFunc {
	return func(base, incoming node.Kind) bool {
		for _, p := range pairs {
			if p.Base == base && p.Incoming == incoming {
				return true
			}
		}
		return false
	}
}

// Either matches pairs where at least one side has kind k.
func Either(k node.Kind) MatchFunc {
	return func(base, incoming node.Kind) bool {
		return base == k || incoming == k
	}
}

// Strategies shipped with the package.
var (
	// CommaSplitAppend splits a comma separated string and concatenates it
	// with a sequence, keeping base before incoming.
	CommaSplitAppend = Strategy{
		Name: "comma-split-append",
		Match: Pairs(
			KindPair{node.KindString, node.KindSequence},
			KindPair{node.KindSequence, node.KindString},
		),
		Resolve: resolveCommaSplitAppend,
	}

	// JSONSecurityGroups decodes a JSON string and merges it into a mapping.
	// Strings that are not JSON become a mapping from
	// SecurityGroupsFallbackKey to the comma separated groups.
	JSONSecurityGroups = Strategy{
		Name:    "json-security-groups",
		Match:   Pairs(KindPair{node.KindMapping, node.KindString}),
		Resolve: resolveJSONSecurityGroups,
	}

	// NotEmpty keeps whichever side is not empty.
	NotEmpty = Strategy{
		Name:    "not-empty",
		Resolve: resolveNotEmpty,
	}

	// INISection converts an ini section into a plain mapping and merges
	// again.
	INISection = Strategy{
		Name:    "ini-section",
		Match:   Either(node.KindSection),
		Resolve: resolveINISection,
	}

	// OverrideStrToInt replaces an integer with a numeric string parsed as
	// an integer.
	OverrideStrToInt = Strategy{
		Name:    "override-str-to-int",
		Match:   Pairs(KindPair{node.KindInt, node.KindString}),
		Resolve: resolveOverrideStrToInt,
	}

	// Equality keeps the value when both sides are equal. It is the default
	// fallback.
	Equality = Strategy{
		Name:    "equality",
		Resolve: resolveEquality,
	}

	// Override always keeps incoming. It is not part of the default chain;
	// install it with WithStrategies or WithFallback to let sources replace
	// scalar defaults of the same kind.
	Override = Strategy{
		Name: "override",
		Resolve: func(_ *Merger, _ Path, _, incoming node.Node) (node.Node, bool, error) {
			return incoming, true, nil
		},
	}
)

// DefaultStrategies returns the default chain in evaluation order.
func DefaultStrategies() []Strategy {
	return []Strategy{
		CommaSplitAppend,
		JSONSecurityGroups,
		NotEmpty,
		INISection,
		OverrideStrToInt,
	}
}

func splitComma(s string) []node.Node {
	parts := strings.Split(s, ",")
	items := make([]node.Node, len(parts))
	for i, part := range parts {
		items[i] = node.String(part)
	}
	return items
}

func resolveCommaSplitAppend(_ *Merger, _ Path, base, incoming node.Node) (node.Node, bool, error) {
	if s, ok := base.Str(); ok {
		return node.Sequence(append(splitComma(s), incoming.Items()...)...), true, nil
	}
	s, _ := incoming.Str()
	return node.Sequence(append(base.Items(), splitComma(s)...)...), true, nil
}

func resolveJSONSecurityGroups(m *Merger, path Path, base, incoming node.Node) (node.Node, bool, error) {
	s, _ := incoming.Str()

	decoded, err := decodeJSON(s)
	if err != nil {
		decoded = node.Mapping(map[string]node.Node{
			SecurityGroupsFallbackKey: node.Sequence(splitComma(s)...),
		})
	}

	merged, err := m.MergeAt(path, base, decoded)
	if err != nil {
		return node.Node{}, false, err
	}
	return merged, true, nil
}

func decodeJSON(s string) (node.Node, error) {
	if !json.Valid([]byte(s)) {
		return node.Node{}, errNotJSON
	}

	dec := json.NewDecoder(strings.NewReader(s))
	dec.UseNumber()

	var v any
	if err := dec.Decode(&v); err != nil {
		return node.Node{}, err
	}
	return node.FromAny(v)
}

func resolveNotEmpty(_ *Merger, _ Path, base, incoming node.Node) (node.Node, bool, error) {
	switch {
	case base.IsEmpty() && !incoming.IsEmpty():
		return incoming, true, nil
	case !base.IsEmpty() && incoming.IsEmpty():
		return base, true, nil
	}
	return node.Node{}, false, nil
}

func resolveINISection(m *Merger, path Path, base, incoming node.Node) (node.Node, bool, error) {
	var (
		merged node.Node
		err    error
	)
	if base.Kind() == node.KindSection {
		merged, err = m.MergeAt(path, base.AsMapping(), incoming)
	} else {
		merged, err = m.MergeAt(path, base, incoming.AsMapping())
	}
	if err != nil {
		return node.Node{}, false, err
	}
	return merged, true, nil
}

func resolveOverrideStrToInt(_ *Merger, _ Path, _, incoming node.Node) (node.Node, bool, error) {
	s, _ := incoming.Str()
	i, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	if err != nil {
		return node.Node{}, false, nil
	}
	return node.Int(i), true, nil
}

func resolveEquality(_ *Merger, _ Path, base, incoming node.Node) (node.Node, bool, error) {
	if node.Equal(base, incoming) {
		return base, true, nil
	}
	return node.Node{}, false, nil
}
