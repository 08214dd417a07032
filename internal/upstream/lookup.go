package upstream

import (
	"fmt"
	"strconv"
	"strings"
)

// lookup walks a dotted path through nested JSON objects.
func lookup(m map[string]any, path string) (any, bool) {
	var cur any = m
	for _, key := range strings.Split(path, ".") {
		obj, ok := cur.(map[string]any)
		if !ok {
			return nil, false
		}
		cur, ok = obj[key]
		if !ok || cur == nil {
			return nil, false
		}
	}
	return cur, true
}

// firstString returns the first alias holding a non-blank scalar.
func firstString(m map[string]any, aliases []string) string {
	for _, a := range aliases {
		if v, ok := lookup(m, a); ok {
			if s := scalarString(v); s != "" {
				return s
			}
		}
	}
	return ""
}

// firstValue returns the first alias that is present, even if empty.
func firstValue(m map[string]any, aliases []string) (any, bool) {
	for _, a := range aliases {
		if v, ok := lookup(m, a); ok {
			return v, true
		}
	}
	return nil, false
}

func firstArray(m map[string]any, aliases []string) []any {
	for _, a := range aliases {
		if v, ok := lookup(m, a); ok {
			if arr, ok := v.([]any); ok {
				return arr
			}
		}
	}
	return nil
}

func scalarString(v any) string {
	switch x := v.(type) {
	case string:
		return strings.TrimSpace(x)
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(x)
	case nil:
		return ""
	case map[string]any, []any:
		return ""
	default:
		return strings.TrimSpace(fmt.Sprint(x))
	}
}
