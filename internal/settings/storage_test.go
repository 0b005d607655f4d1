package settings

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTypedLoaders_Defaults(t *testing.T) {
	s := NewMemoryStorage(nil)

	assert.False(t, LoadBool(s, "missing", false))
	assert.True(t, LoadBool(s, "missing", true))
	assert.Equal(t, 7, LoadInt(s, "missing", 7))
	assert.Equal(t, uint16(8080), LoadUint16(s, "missing", 8080))
	assert.Equal(t, "0.0.0.0", LoadString(s, "missing", "0.0.0.0"))
}

func TestTypedLoaders_Conversions(t *testing.T) {
	s := NewMemoryStorage(map[string]any{
		"bool-string": "true",
		"int-string":  "3",
		"port-int":    3128,
		"str-int":     1234,
	})

	assert.True(t, LoadBool(s, "bool-string", false))
	assert.Equal(t, 3, LoadInt(s, "int-string", 0))
	assert.Equal(t, uint16(3128), LoadUint16(s, "port-int", 0))
	assert.Equal(t, "1234", LoadString(s, "str-int", ""))
}

func TestTypedLoaders_MalformedFallsBack(t *testing.T) {
	s := NewMemoryStorage(map[string]any{
		"bool": "maybe",
		"int":  "three",
		"port": "http",
		"str":  []string{"a"},
	})

	assert.True(t, LoadBool(s, "bool", true))
	assert.Equal(t, 5, LoadInt(s, "int", 5))
	assert.Equal(t, uint16(8080), LoadUint16(s, "port", 8080))
	assert.Equal(t, "fallback", LoadString(s, "str", "fallback"))
}

func TestLoadUint16_Wraps(t *testing.T) {
	s := NewMemoryStorage(map[string]any{
		"negative": -1,
		"large":    70000,
		"string":   "65536",
	})

	assert.Equal(t, uint16(65535), LoadUint16(s, "negative", 8080))
	assert.Equal(t, uint16(4464), LoadUint16(s, "large", 8080))
	assert.Equal(t, uint16(0), LoadUint16(s, "string", 8080))
}

func TestMemoryStorage_CountsEveryWrite(t *testing.T) {
	s := NewMemoryStorage(nil)

	s.StoreValue("k", 1)
	s.StoreValue("k", 1)

	assert.Equal(t, 2, s.Writes())
	assert.Equal(t, 1, s.LoadValue("k", 0))
}

func TestSameValue(t *testing.T) {
	tests := []struct {
		name string
		a, b any
		want bool
	}{
		{"uint16 vs int", uint16(8080), 8080, true},
		{"different ints", 1, 2, false},
		{"int vs string", 1, "1", false},
		{"strings", "a", "a", true},
		{"bools", true, false, false},
		{"slices", []any{"a"}, []any{"a"}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, sameValue(tt.a, tt.b))
		})
	}
}
