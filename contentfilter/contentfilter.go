// Package contentfilter removes dosage, preparation and administration-route
// fields from collaborator JSON before it reaches the rest of the service.
package contentfilter

import (
	"encoding/json"
	"fmt"
	"strings"
)

// restrictedFragments match field names case-insensitively by substring.
var restrictedFragments = []string{
	"dose",
	"dosage",
	"prepar",
	"administration",
	"route",
}

// restrictedExact are short field names that cannot be matched by substring.
var restrictedExact = map[string]bool{
	"roa":           true,
	"roas":          true,
	"formatted_roa": true,
}

// nameKeyedFields hold objects keyed by substance name. Their keys are data,
// not field names, and are never stripped.
var nameKeyedFields = map[string]bool{
	"combos": true,
}

// IsRestricted reports whether a JSON field name must be stripped.
func IsRestricted(field string) bool {
	f := strings.ToLower(field)
	if restrictedExact[f] {
		return true
	}
	for _, frag := range restrictedFragments {
		if strings.Contains(f, frag) {
			return true
		}
	}
	return false
}

// Strip decodes a JSON document, removes restricted fields at any depth and
// re-encodes it.
func Strip(body []byte) ([]byte, error) {
	var doc any
	if err := json.Unmarshal(body, &doc); err != nil {
		return nil, fmt.Errorf("malformed JSON: %w", err)
	}

	out, err := json.Marshal(StripValue(doc))
	if err != nil {
		return nil, fmt.Errorf("failed to re-encode filtered JSON: %w", err)
	}
	return out, nil
}

// StripValue removes restricted fields from a decoded JSON value in place and
// returns it.
func StripValue(v any) any {
	switch t := v.(type) {
	case map[string]any:
		for k, child := range t {
			if IsRestricted(k) {
				delete(t, k)
				continue
			}
			if nameKeyedFields[strings.ToLower(k)] {
				t[k] = stripEntries(child)
				continue
			}
			t[k] = StripValue(child)
		}
	case []any:
		for i, child := range t {
			t[i] = StripValue(child)
		}
	}
	return v
}

// stripEntries filters the values of a name-keyed object but keeps its keys.
func stripEntries(v any) any {
	entries, ok := v.(map[string]any)
	if !ok {
		return StripValue(v)
	}
	for name, entry := range entries {
		entries[name] = StripValue(entry)
	}
	return entries
}
