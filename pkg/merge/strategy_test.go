package merge

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/foremast/foremast/pkg/node"
)

func TestDefaultStrategiesOrder(t *testing.T) {
	assert.Equal(t, []string{
		"comma-split-append",
		"json-security-groups",
		"not-empty",
		"ini-section",
		"override-str-to-int",
	}, New().Strategies())
}

func TestStrategies(t *testing.T) {
	tests := []struct {
		name     string
		base     node.Node
		incoming node.Node
		want     node.Node
	}{
		{
			name:     "comma split string base",
			base:     node.String("a,b"),
			incoming: node.Strings("c"),
			want:     node.Strings("a", "b", "c"),
		},
		{
			name:     "comma split string incoming",
			base:     node.Strings("a"),
			incoming: node.String("b,c"),
			want:     node.Strings("a", "b", "c"),
		},
		{
			name:     "comma split keeps whitespace and empties",
			base:     node.Strings(),
			incoming: node.String("a, b,"),
			want:     node.Strings("a", " b", ""),
		},
		{
			name:     "json object merges into mapping",
			base:     mapping(),
			incoming: node.String(`{"prod":["sg-1"]}`),
			want:     mapping("prod", []any{"sg-1"}),
		},
		{
			name:     "json object merges with existing keys",
			base:     mapping("prod", []any{"sg-0"}, "dev", []any{"sg-9"}),
			incoming: node.String(`{"prod":["sg-1"]}`),
			want:     mapping("prod", []any{"sg-0", "sg-1"}, "dev", []any{"sg-9"}),
		},
		{
			name:     "json numbers keep integer kind",
			base:     mapping(),
			incoming: node.String(`{"ports":[80, 443]}`),
			want:     mapping("ports", []any{80, 443}),
		},
		{
			name:     "invalid json falls back to all envs",
			base:     mapping(),
			incoming: node.String("not-json"),
			want:     mapping(SecurityGroupsFallbackKey, []any{"not-json"}),
		},
		{
			name:     "comma separated groups fall back to all envs",
			base:     mapping(),
			incoming: node.String("sg-1,sg-2"),
			want:     mapping(SecurityGroupsFallbackKey, []any{"sg-1", "sg-2"}),
		},
		{
			name:     "empty string is not json",
			base:     mapping(),
			incoming: node.String(""),
			want:     mapping(SecurityGroupsFallbackKey, []any{""}),
		},
		{
			name:     "not empty takes incoming",
			base:     node.String(""),
			incoming: node.String("x"),
			want:     node.String("x"),
		},
		{
			name:     "not empty keeps base",
			base:     node.String("x"),
			incoming: node.String(""),
			want:     node.String("x"),
		},
		{
			name:     "both empty fall through to equality",
			base:     node.String(""),
			incoming: node.String(""),
			want:     node.String(""),
		},
		{
			name:     "null base takes incoming",
			base:     node.Null(),
			incoming: node.String("https://gate.example.com"),
			want:     node.String("https://gate.example.com"),
		},
		{
			name:     "empty mapping takes section",
			base:     mapping(),
			incoming: node.Section(map[string]string{"a": "b"}),
			want:     node.Section(map[string]string{"a": "b"}),
		},
		{
			name:     "ini section converts to mapping",
			base:     mapping("gate_api_url", "", "envs", []any{}),
			incoming: node.Section(map[string]string{"gate_api_url": "https://gate", "envs": "dev,prod"}),
			want:     mapping("gate_api_url", "https://gate", "envs", []any{"dev", "prod"}),
		},
		{
			name:     "ini section as base converts to mapping",
			base:     node.Section(map[string]string{"a": "1"}),
			incoming: mapping("b", "2"),
			want:     mapping("a", "1", "b", "2"),
		},
		{
			name:     "numeric string overrides integer",
			base:     node.Int(5),
			incoming: node.String("7"),
			want:     node.Int(7),
		},
		{
			name:     "equal integers",
			base:     node.Int(120),
			incoming: node.Int(120),
			want:     node.Int(120),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := New().Merge(tt.base, tt.incoming)
			require.NoError(t, err)
			assertNode(t, tt.want, got)
		})
	}
}

func TestStrategies_Unresolved(t *testing.T) {
	tests := []struct {
		name     string
		base     node.Node
		incoming node.Node
	}{
		{"int and mapping", node.Int(5), mapping("a", 1)},
		{"non numeric string over int", node.Int(5), node.String("five")},
		{"different strings", node.String("example.com"), node.String("example.org")},
		{"json scalar into mapping", mapping("a", 1), node.String("5")},
		{"different booleans", node.Bool(true), node.Bool(false)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New().Merge(tt.base, tt.incoming)
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrUnresolvedConflict)
		})
	}
}

func TestStrategyMatchers(t *testing.T) {
	pairs := Pairs(KindPair{node.KindInt, node.KindString})
	assert.True(t, pairs(node.KindInt, node.KindString))
	assert.False(t, pairs(node.KindString, node.KindInt))

	either := Either(node.KindSection)
	assert.True(t, either(node.KindSection, node.KindMapping))
	assert.True(t, either(node.KindMapping, node.KindSection))
	assert.False(t, either(node.KindMapping, node.KindMapping))
}
