package graph

import (
	"fmt"
	"strconv"
)

// Vector is a three component value as stored in node payloads.
type Vector struct {
	X, Y, Z float64
}

// AsString converts a payload value to a string.
func AsString(v any) (string, bool) {
	switch val := v.(type) {
	case string:
		return val, true
	case fmt.Stringer:
		return val.String(), true
	case nil:
		return "", false
	default:
		return fmt.Sprintf("%v", val), true
	}
}

// AsFloat converts a numeric payload value. Numbers decoded from JSON are
// float64; msgpack and YAML produce sized integers.
func AsFloat(v any) (float64, bool) {
	switch val := v.(type) {
	case float64:
		return val, true
	case float32:
		return float64(val), true
	case int:
		return float64(val), true
	case int8:
		return float64(val), true
	case int16:
		return float64(val), true
	case int32:
		return float64(val), true
	case int64:
		return float64(val), true
	case uint:
		return float64(val), true
	case uint8:
		return float64(val), true
	case uint16:
		return float64(val), true
	case uint32:
		return float64(val), true
	case uint64:
		return float64(val), true
	case string:
		f, err := strconv.ParseFloat(val, 64)
		return f, err == nil
	}
	return 0, false
}

// AsBool converts a payload value to a bool.
func AsBool(v any) (bool, bool) {
	switch val := v.(type) {
	case bool:
		return val, true
	case string:
		b, err := strconv.ParseBool(val)
		return b, err == nil
	}
	if f, ok := AsFloat(v); ok {
		return f != 0, true
	}
	return false, false
}

// AsVector accepts {x,y,z} maps and three element lists.
func AsVector(v any) (Vector, bool) {
	switch val := v.(type) {
	case Vector:
		return val, true
	case map[string]any:
		x, okX := AsFloat(val["x"])
		y, okY := AsFloat(val["y"])
		z, okZ := AsFloat(val["z"])
		return Vector{x, y, z}, okX || okY || okZ
	case []any:
		if len(val) != 3 {
			return Vector{}, false
		}
		var out [3]float64
		for i, c := range val {
			f, ok := AsFloat(c)
			if !ok {
				return Vector{}, false
			}
			out[i] = f
		}
		return Vector{out[0], out[1], out[2]}, true
	}
	return Vector{}, false
}

// AsList returns v as a list of values.
func AsList(v any) ([]any, bool) {
	switch val := v.(type) {
	case []any:
		return val, true
	case []string:
		out := make([]any, len(val))
		for i, s := range val {
			out[i] = s
		}
		return out, true
	case []float64:
		out := make([]any, len(val))
		for i, f := range val {
			out[i] = f
		}
		return out, true
	case []int:
		out := make([]any, len(val))
		for i, n := range val {
			out[i] = n
		}
		return out, true
	}
	return nil, false
}

// DataString reads a string field from a node payload.
func (n *Node) DataString(key string) string {
	if n.Data == nil {
		return ""
	}
	s, _ := AsString(n.Data[key])
	return s
}

// DataValue reads a raw payload field.
func (n *Node) DataValue(key string) (any, bool) {
	if n.Data == nil {
		return nil, false
	}
	v, ok := n.Data[key]
	return v, ok
}
