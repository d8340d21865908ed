package template

// MergeVars overlays variable sets left to right; later sets win. The
// inputs are never mutated.
func MergeVars(sets ...map[string]any) map[string]any {
	merged := make(map[string]any)
	for _, set := range sets {
		for name, value := range set {
			merged[name] = value
		}
	}
	return merged
}

// CloneVars returns a shallow copy of one variable set.
func CloneVars(vars map[string]any) map[string]any {
	return MergeVars(vars)
}
