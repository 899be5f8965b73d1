package nimsforestscope

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAttributesFloat(t *testing.T) {
	attrs := Attributes{
		"int":    3,
		"int64":  int64(-4),
		"uint8":  uint8(5),
		"f32":    float32(1.5),
		"f64":    2.25,
		"number": json.Number("7.5"),
		"bad":    json.Number("x"),
		"string": "12",
		"nil":    nil,
	}

	cases := []struct {
		key  string
		want float64
		ok   bool
	}{
		{"int", 3, true},
		{"int64", -4, true},
		{"uint8", 5, true},
		{"f32", 1.5, true},
		{"f64", 2.25, true},
		{"number", 7.5, true},
		{"bad", 0, false},
		{"string", 0, false},
		{"nil", 0, false},
		{"missing", 0, false},
	}
	for _, tc := range cases {
		t.Run(tc.key, func(t *testing.T) {
			got, ok := attrs.Float(tc.key)
			assert.Equal(t, tc.ok, ok)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestAttributesText(t *testing.T) {
	attrs := Attributes{"n": 3.0, "s": "left", "i": 0, "nil": nil}
	assert.Equal(t, "3", attrs.Text("n"))
	assert.Equal(t, "left", attrs.Text("s"))
	assert.Equal(t, "0", attrs.Text("i"))
	assert.Equal(t, "", attrs.Text("nil"))
	assert.Equal(t, "", attrs.Text("missing"))
}

func TestAttributeStoreLifecycle(t *testing.T) {
	var s AttributeStore
	_, ok := s.Current()
	assert.False(t, ok)

	assert.True(t, s.Replace(Attributes{"a": 1, "b": 2}))
	refresh, err := s.Merge(Attributes{"b": 3, "c": 4})
	require.NoError(t, err)
	assert.True(t, refresh)

	got, ok := s.Current()
	require.True(t, ok)
	assert.Equal(t, Attributes{"a": 1, "b": 3, "c": 4}, got)

	s.Clear()
	_, ok = s.Current()
	assert.False(t, ok)
}

func TestAttributeStoreMergeDoesNotMutatePrevious(t *testing.T) {
	var s AttributeStore
	s.Replace(Attributes{"a": 1})
	before, _ := s.Current()

	_, err := s.Merge(Attributes{"a": 2})
	require.NoError(t, err)

	assert.Equal(t, 1, before["a"])
	after, _ := s.Current()
	assert.Equal(t, 2, after["a"])
}

func TestAttributeStoreMergeNilPartial(t *testing.T) {
	var s AttributeStore
	s.Replace(Attributes{"a": 1})

	_, err := s.Merge(nil)
	require.NoError(t, err)

	got, _ := s.Current()
	assert.Equal(t, Attributes{"a": 1}, got)
}

func TestAttributeStoreMergeReplacesNestedMaps(t *testing.T) {
	var s AttributeStore
	nested := map[string]any{"k": 1, "j": 2}
	s.Replace(Attributes{"n": nested, "a": 1})

	_, err := s.Merge(Attributes{"n": map[string]any{"k": 9}})
	require.NoError(t, err)

	got, _ := s.Current()
	assert.Equal(t, Attributes{"n": map[string]any{"k": 9}, "a": 1}, got)
	assert.Equal(t, map[string]any{"k": 1, "j": 2}, nested)
}
