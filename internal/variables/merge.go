// Package variables builds the merged variable mapping for a template job
// from its layered sources: global includes, global vars, local includes,
// local vars, in that order.
package variables

// Merge recursively merges overlay into base and returns a new map.
// Keys present in both sides merge recursively when both values are
// mappings; every other combination is replaced wholesale by the overlay
// value. A type conflict (mapping on one side, scalar or sequence on the
// other) therefore replaces silently rather than erroring; that is
// documented behavior, not an oversight to fix here.
func Merge(base, overlay map[string]any) map[string]any {
	result := copyMap(base)

	for key, overlayValue := range overlay {
		if baseValue, exists := result[key]; exists {
			baseMap, baseIsMap := baseValue.(map[string]any)
			overlayMap, overlayIsMap := overlayValue.(map[string]any)
			if baseIsMap && overlayIsMap {
				result[key] = Merge(baseMap, overlayMap)
				continue
			}
		}
		result[key] = deepCopy(overlayValue)
	}

	return result
}

// copyMap creates a shallow copy of a map.
func copyMap(m map[string]any) map[string]any {
	if m == nil {
		return make(map[string]any)
	}
	result := make(map[string]any, len(m))
	for k, v := range m {
		result[k] = v
	}
	return result
}

// deepCopy creates a deep copy of any value.
func deepCopy(value any) any {
	switch v := value.(type) {
	case map[string]any:
		result := make(map[string]any, len(v))
		for k, val := range v {
			result[k] = deepCopy(val)
		}
		return result
	case []any:
		result := make([]any, len(v))
		for i, val := range v {
			result[i] = deepCopy(val)
		}
		return result
	case []string:
		result := make([]string, len(v))
		copy(result, v)
		return result
	default:
		// Primitive types are immutable, return as-is
		return value
	}
}
