package codegen

import (
	"fmt"
	"math"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/r5vforge/r5vforge/graph"
)

var identRe = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// IsIdent reports whether s is a valid script identifier.
func IsIdent(s string) bool { return identRe.MatchString(s) }

// Ident turns s into an identifier by replacing every invalid character
// with an underscore.
func Ident(s string) string {
	var sb strings.Builder
	for i, r := range s {
		switch {
		case r == '_' || (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z'):
			sb.WriteRune(r)
		case r >= '0' && r <= '9':
			if i == 0 {
				sb.WriteByte('_')
			}
			sb.WriteRune(r)
		default:
			sb.WriteByte('_')
		}
	}
	return sb.String()
}

// TypeKeyword maps a port value type to the keyword used in declarations.
func TypeKeyword(t graph.ValueType) string {
	switch t {
	case graph.TypeInt, graph.TypeFloat, graph.TypeBool, graph.TypeString,
		graph.TypeVector, graph.TypeEntity, graph.TypeArray, graph.TypeTable:
		return string(t)
	default:
		return "var"
	}
}

// ZeroValue is the literal used for an unconnected input with no payload.
func ZeroValue(t graph.ValueType) string {
	switch t {
	case graph.TypeInt:
		return "0"
	case graph.TypeFloat:
		return "0.0"
	case graph.TypeBool:
		return "false"
	case graph.TypeString:
		return `""`
	case graph.TypeVector:
		return "< 0, 0, 0 >"
	case graph.TypeArray:
		return "[]"
	case graph.TypeTable:
		return "{}"
	default:
		return "null"
	}
}

// Quote renders s as a string literal.
func Quote(s string) string {
	var sb strings.Builder
	sb.WriteByte('"')
	for _, r := range s {
		switch r {
		case '\\':
			sb.WriteString(`\\`)
		case '"':
			sb.WriteString(`\"`)
		case '\n':
			sb.WriteString(`\n`)
		case '\r':
			sb.WriteString(`\r`)
		case '\t':
			sb.WriteString(`\t`)
		default:
			sb.WriteRune(r)
		}
	}
	sb.WriteByte('"')
	return sb.String()
}

// Literal renders a payload value as a literal of type t. TypeAny infers
// the literal from the Go value.
func Literal(t graph.ValueType, v any) (string, error) {
	if v == nil {
		return ZeroValue(t), nil
	}
	switch t {
	case graph.TypeInt:
		f, ok := graph.AsFloat(v)
		if !ok {
			return "", fmt.Errorf("%v is not a valid int", v)
		}
		return strconv.FormatInt(int64(math.Trunc(f)), 10), nil
	case graph.TypeFloat:
		f, ok := graph.AsFloat(v)
		if !ok {
			return "", fmt.Errorf("%v is not a valid float", v)
		}
		return formatFloat(f), nil
	case graph.TypeBool:
		b, ok := graph.AsBool(v)
		if !ok {
			return "", fmt.Errorf("%v is not a valid bool", v)
		}
		return strconv.FormatBool(b), nil
	case graph.TypeString:
		s, _ := graph.AsString(v)
		return Quote(s), nil
	case graph.TypeVector:
		vec, ok := graph.AsVector(v)
		if !ok {
			return "", fmt.Errorf("%v is not a valid vector", v)
		}
		return formatVector(vec), nil
	default:
		return inferLiteral(v)
	}
}

func inferLiteral(v any) (string, error) {
	switch val := v.(type) {
	case nil:
		return "null", nil
	case string:
		return Quote(val), nil
	case bool:
		return strconv.FormatBool(val), nil
	case float32, float64:
		// JSON decodes every number as float64; integral values stay ints.
		f, _ := graph.AsFloat(val)
		if f == math.Trunc(f) && math.Abs(f) < 1e15 {
			return strconv.FormatInt(int64(f), 10), nil
		}
		return formatFloat(f), nil
	case graph.Vector:
		return formatVector(val), nil
	case map[string]any:
		if vec, ok := graph.AsVector(val); ok && len(val) == 3 {
			return formatVector(vec), nil
		}
		keys := make([]string, 0, len(val))
		for k := range val {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		parts := make([]string, 0, len(keys))
		for _, k := range keys {
			lit, err := inferLiteral(val[k])
			if err != nil {
				return "", err
			}
			parts = append(parts, fmt.Sprintf("%s = %s", Ident(k), lit))
		}
		if len(parts) == 0 {
			return "{}", nil
		}
		return "{ " + strings.Join(parts, ", ") + " }", nil
	}
	if f, ok := graph.AsFloat(v); ok {
		return strconv.FormatInt(int64(f), 10), nil
	}
	if list, ok := graph.AsList(v); ok {
		parts := make([]string, 0, len(list))
		for _, item := range list {
			lit, err := inferLiteral(item)
			if err != nil {
				return "", err
			}
			parts = append(parts, lit)
		}
		if len(parts) == 0 {
			return "[]", nil
		}
		return "[ " + strings.Join(parts, ", ") + " ]", nil
	}
	return "", fmt.Errorf("cannot render %T as a literal", v)
}

func formatFloat(f float64) string {
	s := strconv.FormatFloat(f, 'f', -1, 64)
	if !strings.ContainsAny(s, ".eE") {
		s += ".0"
	}
	return s
}

func formatVector(v graph.Vector) string {
	c := func(f float64) string { return strconv.FormatFloat(f, 'f', -1, 64) }
	return fmt.Sprintf("< %s, %s, %s >", c(v.X), c(v.Y), c(v.Z))
}
