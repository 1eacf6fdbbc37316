package simplemeta

import "strings"

// ReduceScope walks a dotted handle ("entry.hero.title") into nested scopes
// for as long as the next segment names a scope, and returns the deepest
// scope together with the remaining handle.
func ReduceScope(scope any, handle string) (any, string) {
	for {
		head, rest, found := strings.Cut(handle, ".")
		if !found {
			return scope, handle
		}
		next, ok := lookupIn(scope, head)
		if !ok || !isScope(next) {
			return scope, handle
		}
		scope, handle = next, rest
	}
}

// PropertyValue reads handle from scope (after dotted reduction) and coerces
// it to t. It returns Null when the handle is absent or its value is empty.
func PropertyValue(scope any, handle string, t FieldType) Value {
	scope, handle = ReduceScope(scope, handle)
	raw, ok := lookupIn(scope, handle)
	if !ok {
		return Null
	}
	return coerce(raw, t)
}

// cascade returns the first candidate with a non-null value, or "".
func cascade(scope any, candidates []string, t FieldType) Value {
	for _, handle := range candidates {
		if v := PropertyValue(scope, handle, t); !v.IsNull() {
			return v
		}
	}
	return String("")
}

func lookupIn(scope any, handle string) (any, bool) {
	switch s := scope.(type) {
	case nil:
		return nil, false
	case Scope:
		return s.Lookup(handle)
	case map[string]any:
		v, ok := s[handle]
		return v, ok
	case map[string]string:
		v, ok := s[handle]
		return v, ok
	}
	return nil, false
}

func isScope(v any) bool {
	switch s := v.(type) {
	case nil:
		return false
	case Scope:
		return s != nil
	case map[string]any, map[string]string:
		return true
	}
	return false
}
