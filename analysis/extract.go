package analysis

import (
	"sort"
	"strings"
)

// DefaultFields are the label fields projected from an analysis document.
var DefaultFields = []string{"Categories", "Name", "Parents"}

// nameKeys are the keys whose string value stands for an object nested under a projected field.
var nameKeys = []string{"Name", "name"}

// ExtractStrings collects every string found under any of fields at any depth
// of tree. Lists are flattened and objects under a field contribute their name.
// Each field's values are deduplicated, sorted and joined with ", ".
// Fields with no values are left out.
func ExtractStrings(tree any, fields []string) map[string]string {
	wanted := make(map[string]struct{}, len(fields))
	for _, f := range fields {
		wanted[f] = struct{}{}
	}

	found := make(map[string]map[string]struct{})
	walk(tree, wanted, found)

	out := make(map[string]string, len(found))
	for field, set := range found {
		values := make([]string, 0, len(set))
		for v := range set {
			values = append(values, v)
		}
		sort.Strings(values)
		out[field] = strings.Join(values, ", ")
	}
	return out
}

func walk(node any, wanted map[string]struct{}, found map[string]map[string]struct{}) {
	switch v := node.(type) {
	case map[string]any:
		for key, child := range v {
			if _, ok := wanted[key]; ok {
				for _, s := range collect(child) {
					if found[key] == nil {
						found[key] = make(map[string]struct{})
					}
					found[key][s] = struct{}{}
				}
			}
			walk(child, wanted, found)
		}
	case []any:
		for _, child := range v {
			walk(child, wanted, found)
		}
	}
}

// collect returns the strings a projected field's value contributes directly.
func collect(value any) []string {
	switch v := value.(type) {
	case string:
		if v == "" {
			return nil
		}
		return []string{v}
	case []any:
		var out []string
		for _, item := range v {
			out = append(out, collect(item)...)
		}
		return out
	case map[string]any:
		for _, k := range nameKeys {
			if s, ok := v[k].(string); ok && s != "" {
				return []string{s}
			}
		}
	}
	return nil
}
