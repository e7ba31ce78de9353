package prefs

// Merge overlays later trees onto earlier ones. Nested objects merge key by
// key; any other value in a later tree replaces the earlier one at that exact
// path. Keys present only in earlier trees are kept. Inputs are not modified.
func Merge(trees ...map[string]any) map[string]any {
	out := map[string]any{}
	for _, t := range trees {
		mergeInto(out, t)
	}
	return out
}

func mergeInto(dst, src map[string]any) {
	for k, v := range src {
		srcObj, srcIsObj := v.(map[string]any)
		dstObj, dstIsObj := dst[k].(map[string]any)
		if srcIsObj && dstIsObj {
			merged := cloneTree(dstObj)
			mergeInto(merged, srcObj)
			dst[k] = merged
			continue
		}
		dst[k] = cloneValue(v)
	}
}

func cloneTree(t map[string]any) map[string]any {
	if t == nil {
		return nil
	}
	out := make(map[string]any, len(t))
	for k, v := range t {
		out[k] = cloneValue(v)
	}
	return out
}

func cloneValue(v any) any {
	switch x := v.(type) {
	case map[string]any:
		return cloneTree(x)
	case []any:
		out := make([]any, len(x))
		for i, e := range x {
			out[i] = cloneValue(e)
		}
		return out
	default:
		return v
	}
}
