package safemap

import (
	"strconv"
	"strings"
)

// Value is a fail-soft handle into a nested map[string]any tree.
// A Value is either present (wrapping some node of the tree) or absent.
// Field access on an absent Value yields another absent Value, so lookup
// chains of any depth never panic and never need presence checks.
type Value struct {
	raw     any
	missing bool
}

// Wrap makes the root Value for a tree.
func Wrap(m map[string]any) Value {
	return Value{raw: m}
}

// Absent returns the absent marker.
func Absent() Value {
	return Value{missing: true}
}

// Ok reports whether the Value carries a usable payload. Empty-like
// payloads (empty string, zero, false, empty map/list) count as absent:
// callers read defaults through StringOr/IntOr, and "explicitly empty"
// must fall through to defaults the same way "not specified" does.
func (v Value) Ok() bool {
	return !v.missing && !emptyLike(v.raw)
}

// Field steps into a child key. Missing keys, non-map nodes and
// empty-like children all yield the absent marker.
func (v Value) Field(name string) Value {
	if !v.Ok() {
		return Absent()
	}
	m, ok := v.raw.(map[string]any)
	if !ok {
		return Absent()
	}
	child, ok := m[name]
	if !ok || emptyLike(child) {
		return Absent()
	}
	return Value{raw: child}
}

// Raw returns the wrapped payload, nil when absent.
func (v Value) Raw() any {
	if v.missing {
		return nil
	}
	return v.raw
}

// Str returns the payload as a string, or "" when absent or not a string.
func (v Value) Str() string {
	s, _ := v.raw.(string)
	if v.missing {
		return ""
	}
	return s
}

// StringOr returns the string payload, or def when absent.
func (v Value) StringOr(def string) string {
	if !v.Ok() {
		return def
	}
	if s, ok := v.raw.(string); ok {
		return s
	}
	return def
}

// IntOr returns the payload as an int, or def when absent or unparseable.
// Numeric strings are accepted so values sourced from query parameters
// and from typed flags read the same way.
func (v Value) IntOr(def int) int {
	if !v.Ok() {
		return def
	}
	switch x := v.raw.(type) {
	case int:
		return x
	case int64:
		return int(x)
	case float64:
		return int(x)
	case string:
		if n, err := strconv.Atoi(x); err == nil {
			return n
		}
	}
	return def
}

// GetPath walks a dotted key sequence through plain maps and returns the
// node it lands on, or def the moment a segment is missing or the current
// node is not a map. Unlike Field, present-but-empty values are returned
// verbatim.
func (v Value) GetPath(path string, def any) any {
	if v.missing {
		return def
	}
	cur := v.raw
	for _, part := range strings.Split(path, ".") {
		m, ok := cur.(map[string]any)
		if !ok {
			return def
		}
		next, ok := m[part]
		if !ok {
			return def
		}
		cur = next
	}
	return cur
}

// emptyLike is the explicit or-default predicate: values a query string
// or settings file can produce that mean "nothing here".
func emptyLike(v any) bool {
	switch x := v.(type) {
	case nil:
		return true
	case string:
		return x == ""
	case bool:
		return !x
	case int:
		return x == 0
	case int64:
		return x == 0
	case float64:
		return x == 0
	case map[string]any:
		return len(x) == 0
	case []any:
		return len(x) == 0
	}
	return false
}
