// Package jsonsafe prepares values for JSON encoding so that integers which a
// float64 cannot represent exactly reach the client as strings.
//
// JSON clients commonly decode numbers as IEEE-754 doubles. An integer above
// 2^53-1 silently loses precision on that path, so arbitrary-precision values
// (*big.Int) are always rendered as decimal strings, and fixed-width integers
// or json.Number values outside the safe range are rendered the same way.
// Conversion is recursive through maps and slices.
package jsonsafe

import (
	"encoding/json"
	"math/big"
	"reflect"
	"strconv"
	"strings"
)

const (
	// MaxSafeInteger is the largest integer a float64 holds exactly.
	MaxSafeInteger = 1<<53 - 1
	// MinSafeInteger is the smallest integer a float64 holds exactly.
	MinSafeInteger = -MaxSafeInteger
)

var bigIntType = reflect.TypeFor[big.Int]()

// Marshal normalizes v and encodes it as JSON.
func Marshal(v any) ([]byte, error) {
	return json.Marshal(Normalize(v))
}

// Normalize returns a copy of v in which every big integer has been replaced
// by its decimal string. Maps and slices are copied, other values are
// returned as they are. Struct fields are left to their own JSON encoding.
func Normalize(v any) any {
	switch val := v.(type) {
	case nil:
		return nil
	case *big.Int:
		if val == nil {
			return nil
		}
		return val.String()
	case big.Int:
		return val.String()
	case json.Number:
		return normalizeNumber(val)
	case int:
		return normalizeInt(int64(val))
	case int64:
		return normalizeInt(val)
	case uint:
		return normalizeUint(uint64(val))
	case uint64:
		return normalizeUint(val)
	case map[string]any:
		out := make(map[string]any, len(val))
		for k, item := range val {
			out[k] = Normalize(item)
		}
		return out
	case []any:
		out := make([]any, len(val))
		for i, item := range val {
			out[i] = Normalize(item)
		}
		return out
	case string, bool, float64, float32, int8, int16, int32, uint8, uint16, uint32, json.RawMessage:
		return v
	}

	return normalizeReflect(reflect.ValueOf(v))
}

func normalizeReflect(rv reflect.Value) any {
	switch rv.Kind() {
	case reflect.Pointer:
		if rv.IsNil() {
			return nil
		}
		if rv.Type().Elem() == bigIntType {
			return rv.Interface().(*big.Int).String()
		}
		return rv.Interface()
	case reflect.Slice:
		if rv.IsNil() || rv.Type().Elem().Kind() == reflect.Uint8 {
			// byte slices keep their base64 encoding
			return rv.Interface()
		}
		fallthrough
	case reflect.Array:
		out := make([]any, rv.Len())
		for i := range rv.Len() {
			out[i] = Normalize(rv.Index(i).Interface())
		}
		return out
	case reflect.Map:
		if rv.IsNil() || rv.Type().Key().Kind() != reflect.String {
			return rv.Interface()
		}
		out := make(map[string]any, rv.Len())
		iter := rv.MapRange()
		for iter.Next() {
			out[iter.Key().String()] = Normalize(iter.Value().Interface())
		}
		return out
	default:
		return rv.Interface()
	}
}

func normalizeInt(i int64) any {
	if i > MaxSafeInteger || i < MinSafeInteger {
		return strconv.FormatInt(i, 10)
	}
	return i
}

func normalizeUint(u uint64) any {
	if u > MaxSafeInteger {
		return strconv.FormatUint(u, 10)
	}
	return u
}

func normalizeNumber(n json.Number) any {
	s := n.String()
	if strings.ContainsAny(s, ".eE") {
		return n
	}
	i, ok := new(big.Int).SetString(s, 10)
	if !ok {
		return n
	}
	if i.IsInt64() && i.Int64() <= MaxSafeInteger && i.Int64() >= MinSafeInteger {
		return n
	}
	return i.String()
}
