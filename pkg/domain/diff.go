package domain

import (
	"reflect"
	"sort"
)

// DiffContext calculates the property values that changed between two contexts.
// Added or modified keys carry their new value; deleted keys are present with a nil value.
// If old is nil, every key of next is part of the delta (initial render).
func DiffContext(old, next Context) map[string]any {
	delta := make(map[string]any)

	if old == nil {
		for k, v := range next {
			delta[k] = v
		}
		return delta
	}

	// Added or Modified
	for k, newVal := range next {
		oldVal, exists := old[k]
		if !exists || !reflect.DeepEqual(oldVal, newVal) {
			delta[k] = newVal
		}
	}

	// Deletions
	for k := range old {
		if _, exists := next[k]; !exists {
			delta[k] = nil
		}
	}

	if len(delta) == 0 {
		return nil
	}
	return delta
}

// ChangedKeys returns the sorted ids of properties that differ between two contexts.
func ChangedKeys(old, next Context) []string {
	delta := DiffContext(old, next)
	if len(delta) == 0 {
		return nil
	}
	keys := make([]string, 0, len(delta))
	for k := range delta {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
