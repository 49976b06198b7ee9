package provider

// listKeys are the wrapper fields that may hold the record list, in priority order.
var listKeys = []string{"articles", "items", "documents"}

// Extract locates the list of article records inside a decoded JSON payload.
// It never fails; unknown shapes yield an empty slice.
func Extract(payload any) []any {
	switch v := payload.(type) {
	case []any:
		if len(v) > 0 {
			if _, nested := v[0].([]any); nested {
				return flatten(v)
			}
		}
		return v
	case map[string]any:
		for _, key := range listKeys {
			if list, ok := v[key].([]any); ok {
				return list
			}
		}
	}
	return []any{}
}

func flatten(v []any) []any {
	out := make([]any, 0, len(v))
	for _, item := range v {
		if inner, ok := item.([]any); ok {
			out = append(out, inner...)
			continue
		}
		out = append(out, item)
	}
	return out
}
