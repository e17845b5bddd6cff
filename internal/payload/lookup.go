package payload

import (
	"strings"
)

// Lookup walks a dotted path through nested map[string]any values and
// returns the value at the end of the path. The second return is false when
// any segment is missing, not a mapping, or the final value is nil.
func Lookup(tree map[string]any, path string) (any, bool) {
	if tree == nil || path == "" {
		return nil, false
	}

	segments := strings.Split(path, ".")
	current := any(tree)

	for _, segment := range segments {
		node, ok := current.(map[string]any)
		if !ok {
			return nil, false
		}
		current, ok = node[segment]
		if !ok || current == nil {
			return nil, false
		}
	}

	return current, true
}

// FirstString resolves the ordered list of candidate paths and returns the
// first non-blank string value. The path order encodes provider payload
// version priority: earlier paths belong to newer payload shapes.
func FirstString(tree map[string]any, paths []string) string {
	for _, path := range paths {
		value, ok := Lookup(tree, path)
		if !ok {
			continue
		}
		s, ok := value.(string)
		if !ok {
			continue
		}
		if strings.TrimSpace(s) == "" {
			continue
		}
		return s
	}
	return ""
}

// FirstNumber resolves the ordered candidate paths and returns the first
// numeric value. JSON decoding yields float64 for all numbers, but integer
// values that arrive through typed producers are accepted too.
func FirstNumber(tree map[string]any, paths []string) (float64, bool) {
	for _, path := range paths {
		value, ok := Lookup(tree, path)
		if !ok {
			continue
		}
		switch n := value.(type) {
		case float64:
			return n, true
		case int:
			return float64(n), true
		case int64:
			return float64(n), true
		}
	}
	return 0, false
}

// FirstMap resolves the ordered candidate paths and returns the first
// non-empty mapping value.
func FirstMap(tree map[string]any, paths []string) map[string]any {
	for _, path := range paths {
		value, ok := Lookup(tree, path)
		if !ok {
			continue
		}
		m, ok := value.(map[string]any)
		if !ok || len(m) == 0 {
			continue
		}
		return m
	}
	return nil
}
