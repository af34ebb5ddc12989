package lotusPackages

import (
	"testing"

	"github.com/goopsie/lotusExtract/lotusPackages/lotustest"
	"github.com/goopsie/lotusExtract/pkgText"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newStore(t *testing.T, b *lotustest.Builder, cacheSize int) *Store {
	t.Helper()
	c, err := Decode(b.Bytes())
	require.NoError(t, err)
	s, err := NewStore(c, cacheSize)
	require.NoError(t, err)
	return s
}

func intField(t *testing.T, m *pkgText.Map, key string) int64 {
	t.Helper()
	v, ok := m.Get(key)
	require.True(t, ok, "missing %s", key)
	n, ok := v.AsInt()
	require.True(t, ok, "%s is %s", key, v.Kind())
	return n
}

func TestResolveMergesChain(t *testing.T) {
	b := (&lotustest.Builder{}).
		Add("/T/", "A", "", "x=1\ny=2\n").
		Add("/T/", "B", "A", "y=3\nz=4\n").
		Add("/T/", "C", "B", "z=5\n")

	// cache size 1 forces evictions in the middle of the walk
	for _, size := range []int{0, 1} {
		s := newStore(t, b, size)
		for i := 0; i < 2; i++ {
			m, err := s.Resolve("/T/C")
			require.NoError(t, err)
			assert.Equal(t, []string{"x", "y", "z"}, m.Keys())
			assert.Equal(t, int64(1), intField(t, m, "x"))
			assert.Equal(t, int64(3), intField(t, m, "y"))
			assert.Equal(t, int64(5), intField(t, m, "z"))
		}
	}
}

func TestResolveRootIsOwnContent(t *testing.T) {
	s := newStore(t, (&lotustest.Builder{}).Add("/T/", "A", "", "x=1\nn={a=1}\n"), 0)

	resolved, err := s.Resolve("/T/A")
	require.NoError(t, err)
	own, err := s.Content("/T/A")
	require.NoError(t, err)
	assert.Equal(t, own.Interface(), resolved.Interface())
}

func TestResolveMissingParentDegrades(t *testing.T) {
	s := newStore(t, (&lotustest.Builder{}).Add("/T/", "B", "Gone", "y=3\nz=4\n"), 0)

	m, err := s.Resolve("/T/B")
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"y": int64(3), "z": int64(4)}, m.Interface())
}

func TestResolveNotFound(t *testing.T) {
	s := newStore(t, &lotustest.Builder{}, 0)

	_, err := s.Resolve("/Nope")
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = s.Content("/Nope")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestResolveCycle(t *testing.T) {
	s := newStore(t, (&lotustest.Builder{}).
		Add("/T/", "A", "C", "a=1").
		Add("/T/", "B", "A", "b=1").
		Add("/T/", "C", "B", "c=1").
		Add("/T/", "Self", "Self", "s=1"), 0)

	for _, p := range []string{"/T/A", "/T/B", "/T/C", "/T/Self"} {
		_, err := s.Resolve(p)
		assert.ErrorIs(t, err, ErrCycleDetected, p)
	}
}

func TestResolveDecodeError(t *testing.T) {
	s := newStore(t, (&lotustest.Builder{}).
		Add("/T/", "Bad", "", "this is not a field").
		Add("/T/", "Child", "Bad", "ok=1"), 0)

	_, err := s.Resolve("/T/Child")
	var decodeErr *pkgText.DecodeError
	assert.ErrorAs(t, err, &decodeErr)
}

func TestResolveReturnsPrivateCopy(t *testing.T) {
	s := newStore(t, (&lotustest.Builder{}).
		Add("/T/", "A", "", "n={a=1}\n").
		Add("/T/", "B", "A", "b=2\n"), 0)

	first, err := s.Resolve("/T/B")
	require.NoError(t, err)
	first.Delete("b")
	nested, _ := first.Get("n")
	nm, _ := nested.AsMap()
	nm.Set("poison", pkgText.Int(1))

	second, err := s.Resolve("/T/B")
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"n": map[string]any{"a": int64(1)}, "b": int64(2)}, second.Interface())
}

func TestPathsSorted(t *testing.T) {
	s := newStore(t, (&lotustest.Builder{}).Add("/T/", "B", "", "").Add("/T/", "A", "", ""), 0)

	assert.Equal(t, []string{"/T/A", "/T/B"}, s.Paths())
	assert.Equal(t, 2, s.Len())
	rec, ok := s.Lookup("/T/A")
	require.True(t, ok)
	assert.Equal(t, "", rec.ParentPath)
}
