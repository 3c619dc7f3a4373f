package nolead

import (
	"fmt"
	"sort"
	"strings"
)

// Params maps parameter names to values. Two parameter sets are equal iff
// their canonical sorted-by-key serialization is equal, so values must have a
// stable fmt representation: types whose %v form depends on identity
// (pointers, unsorted maps) break memoization.
type Params map[string]any

// merged returns overrides applied over defaults, override wins per key.
// Both inputs are left untouched.
func (p Params) merged(defaults Params) Params {
	if len(p) == 0 && len(defaults) == 0 {
		return nil
	}
	out := make(Params, len(defaults)+len(p))
	for k, v := range defaults {
		out[k] = v
	}
	for k, v := range p {
		out[k] = v
	}
	return out
}

// memoKey derives the cache key for a task invocation. An empty parameter set
// keys on the bare task name; otherwise the key is "name(k=v,...)" with keys
// sorted. This serialized form is exposed verbatim through CacheKeys.
func memoKey(name string, params Params) string {
	if len(params) == 0 {
		return name
	}

	keys := make([]string, 0, len(params))
	for k := range params {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	b.WriteString(name)
	b.WriteByte('(')
	for i, k := range keys {
		if i > 0 {
			b.WriteByte(',')
		}
		fmt.Fprintf(&b, "%s=%v", k, params[k])
	}
	b.WriteByte(')')
	return b.String()
}
