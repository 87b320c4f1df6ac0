package common

// Merge returns a new map holding defaults overridden by display. The override
// is shallow: a display key replaces the default value whole, nested maps are
// never merged.
func Merge(defaults, display map[string]any) map[string]any {
	out := make(map[string]any, len(defaults)+len(display))
	for k, v := range defaults {
		out[k] = v
	}
	for k, v := range display {
		out[k] = v
	}
	return out
}

// CopyMap returns a shallow copy of m, or an empty map when m is not a map.
func CopyMap(m any) map[string]any {
	src, _ := m.(map[string]any)
	out := make(map[string]any, len(src))
	for k, v := range src {
		out[k] = v
	}
	return out
}
