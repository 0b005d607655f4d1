// Package settings provides the key-value settings storage that proxyconf
// persists its state in.
package settings

import (
	"reflect"

	"github.com/spf13/cast"
)

// Storage is a string-keyed value store. LoadValue returns def when key
// is absent.
type Storage interface {
	LoadValue(key string, def any) any
	StoreValue(key string, value any)
}

// LoadBool loads key as a bool, falling back to def on absent or
// malformed values.
func LoadBool(s Storage, key string, def bool) bool {
	v, err := cast.ToBoolE(s.LoadValue(key, def))
	if err != nil {
		return def
	}
	return v
}

// LoadInt loads key as an int, falling back to def on absent or
// malformed values.
func LoadInt(s Storage, key string, def int) int {
	v, err := cast.ToIntE(s.LoadValue(key, def))
	if err != nil {
		return def
	}
	return v
}

// LoadUint16 loads key as a uint16, falling back to def on absent or
// non-numeric values. Out-of-range numbers wrap to 16 bits, so -1 loads
// as 65535.
func LoadUint16(s Storage, key string, def uint16) uint16 {
	v, err := cast.ToInt64E(s.LoadValue(key, def))
	if err != nil {
		return def
	}
	return uint16(v) //nolint:gosec // G115: truncation is intended
}

// LoadString loads key as a string, falling back to def on absent or
// malformed values.
func LoadString(s Storage, key string, def string) string {
	v, err := cast.ToStringE(s.LoadValue(key, def))
	if err != nil {
		return def
	}
	return v
}

// sameValue reports whether two stored values are equal once integer
// widths are ignored, so that uint16(8080) matches the int 8080 decoded
// from disk.
func sameValue(a, b any) bool {
	na, aInt := normalizeInt(a)
	nb, bInt := normalizeInt(b)
	if aInt || bInt {
		return aInt && bInt && na == nb
	}
	return reflect.DeepEqual(a, b)
}

func normalizeInt(v any) (int64, bool) {
	switch n := v.(type) {
	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64:
		return cast.ToInt64(n), true
	default:
		return 0, false
	}
}
