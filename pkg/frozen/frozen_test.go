package frozen

import (
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/foremast/foremast/pkg/node"
)

func sample(t *testing.T) *Map {
	t.Helper()
	m, err := New(node.MustFromAny(map[string]any{
		"base": map[string]any{
			"domain":  "example.com",
			"regions": []any{"us-east-1", "us-west-2", "us-east-1"},
		},
		"task_timeouts": map[string]any{"default": 120},
		"types":         []any{3, 1, 2, 1},
		"ami_json_url":  nil,
	}))
	require.NoError(t, err)
	return m
}

func TestNew_RejectsNonMapping(t *testing.T) {
	_, err := New(node.Strings("a"))
	assert.ErrorIs(t, err, ErrNotMapping)

	m, err := New(node.Section(map[string]string{"a": "b"}))
	require.NoError(t, err)
	assert.Equal(t, []string{"a"}, m.Keys())
}

func TestGet_MemoizesMappings(t *testing.T) {
	m := sample(t)

	first, err := m.Get("base")
	require.NoError(t, err)
	second, err := m.Get("base")
	require.NoError(t, err)

	require.IsType(t, &Map{}, first)
	assert.Same(t, first, second)
}

func TestGet_MemoizesSets(t *testing.T) {
	m := sample(t)

	first, err := m.SetOf("types")
	require.NoError(t, err)
	second, err := m.SetOf("types")
	require.NoError(t, err)

	assert.Same(t, first, second)
}

func TestGet_SequenceBecomesSet(t *testing.T) {
	m := sample(t)

	set, err := m.SetOf("types")
	require.NoError(t, err)

	want := NewSet(node.Int(1), node.Int(2), node.Int(3))
	assert.True(t, want.Equal(set))
	assert.Equal(t, 3, set.Len())
	assert.True(t, set.Contains(node.Int(2)))
	assert.False(t, set.Contains(node.Int(4)))
}

func TestGet_NestedSequences(t *testing.T) {
	m := sample(t)

	base, err := m.Map("base")
	require.NoError(t, err)
	regions, err := base.SetOf("regions")
	require.NoError(t, err)

	assert.Equal(t, []string{"us-east-1", "us-west-2"}, regions.Strings())
	assert.True(t, regions.ContainsString("us-west-2"))
}

func TestGet_Scalars(t *testing.T) {
	m := sample(t)

	timeouts, err := m.Map("task_timeouts")
	require.NoError(t, err)
	timeout, err := timeouts.Int("default")
	require.NoError(t, err)
	assert.Equal(t, int64(120), timeout)

	url, err := m.String("ami_json_url")
	require.NoError(t, err)
	assert.Empty(t, url)

	v, err := m.Get("ami_json_url")
	require.NoError(t, err)
	require.IsType(t, Scalar{}, v)
	assert.Equal(t, node.KindNull, v.(Scalar).Kind())
}

func TestGet_Errors(t *testing.T) {
	m := sample(t)

	_, err := m.Get("missing")
	assert.ErrorIs(t, err, ErrKeyNotFound)

	_, err = m.Map("types")
	assert.ErrorIs(t, err, ErrWrongKind)

	_, err = m.SetOf("base")
	assert.ErrorIs(t, err, ErrWrongKind)

	_, err = m.String("types")
	assert.ErrorIs(t, err, ErrWrongKind)
}

func TestSet_AlwaysFails(t *testing.T) {
	m := sample(t)

	for _, key := range []string{"base", "missing", ""} {
		err := m.Set(key, "value")
		require.Error(t, err)
		assert.True(t, errors.Is(err, ErrImmutable))

		var immutable *ImmutableError
		require.ErrorAs(t, err, &immutable)
		assert.Equal(t, key, immutable.Key)
	}

	base, err := m.Map("base")
	require.NoError(t, err)
	assert.ErrorIs(t, base.Set("domain", "example.org"), ErrImmutable)

	domain, err := base.String("domain")
	require.NoError(t, err)
	assert.Equal(t, "example.com", domain)
}

func TestFreeze_IsLossy(t *testing.T) {
	a := Freeze(node.MustFromAny([]any{3, 1, 2, 1}))
	b := Freeze(node.MustFromAny([]any{1, 2, 3}))

	require.IsType(t, &Set{}, a)
	assert.True(t, a.(*Set).Equal(b.(*Set)))
	assert.True(t, node.Equal(node.MustFromAny([]any{1, 2, 3}), a.Node()))
}

func TestNode_Snapshot(t *testing.T) {
	m := sample(t)

	_, err := m.SetOf("types")
	require.NoError(t, err)

	snapshot := m.Node()
	types, ok := snapshot.Lookup("types")
	require.True(t, ok)
	assert.Equal(t, 3, types.Len())

	base, ok := snapshot.Lookup("base")
	require.True(t, ok)
	regions, ok := base.Lookup("regions")
	require.True(t, ok)
	assert.Equal(t, 3, regions.Len(), "unread sequences keep duplicates")
}

func TestSnapshot_FreezesEverything(t *testing.T) {
	m := sample(t)

	snapshot := Snapshot(m)

	base, ok := snapshot.Lookup("base")
	require.True(t, ok)
	regions, ok := base.Lookup("regions")
	require.True(t, ok)
	assert.Equal(t, []any{"us-east-1", "us-west-2"}, regions.ToAny())

	nested, err := m.Map("base")
	require.NoError(t, err)
	first, err := nested.Get("regions")
	require.NoError(t, err)
	second, err := nested.Get("regions")
	require.NoError(t, err)
	assert.Same(t, first, second)

	assert.Equal(t, node.KindInt, Snapshot(Freeze(node.Int(7))).Kind())
}

func TestGet_ConcurrentReadsShareInstance(t *testing.T) {
	m := sample(t)

	const readers = 16
	results := make([]Value, readers)

	var wg sync.WaitGroup
	for i := 0; i < readers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			v, err := m.Get("base")
			if err == nil {
				results[i] = v
			}
		}(i)
	}
	wg.Wait()

	for _, v := range results {
		assert.Same(t, results[0], v)
	}
}
