// Package dedupe removes repeated items by a caller-supplied key.
package dedupe

// Items returns items with later duplicates of a key dropped. Order of first
// occurrences is preserved and the input slice is not modified.
func Items[T any, K comparable](items []T, key func(T) K) []T {
	if len(items) == 0 {
		return items
	}
	seen := make(map[K]struct{}, len(items))
	out := make([]T, 0, len(items))
	for _, it := range items {
		k := key(it)
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, it)
	}
	return out
}
