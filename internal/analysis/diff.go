package analysis

import "sort"

// DiffEntities reports, per category, the values present only in b
// (additions) and only in a (removals). Categories with no change are left
// out. Value order follows each bag's own order.
func DiffEntities(a, b EntityBag) map[string]CategoryDiff {
	out := make(map[string]CategoryDiff)
	for _, cat := range unionCategories(a, b) {
		additions := difference(b[cat], a[cat])
		removals := difference(a[cat], b[cat])
		if len(additions) == 0 && len(removals) == 0 {
			continue
		}
		out[cat] = CategoryDiff{Additions: additions, Removals: removals}
	}
	return out
}

// difference returns the distinct values of from that do not occur in other.
func difference(from, other []string) []string {
	exclude := make(map[string]struct{}, len(other))
	for _, v := range other {
		exclude[v] = struct{}{}
	}
	out := make([]string, 0)
	seen := make(map[string]struct{}, len(from))
	for _, v := range from {
		if _, ok := exclude[v]; ok {
			continue
		}
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}

// unionCategories lists the known entity categories first, then any other
// category in lexical order.
func unionCategories(a, b EntityBag) []string {
	present := make(map[string]struct{}, len(a)+len(b))
	for k := range a {
		present[k] = struct{}{}
	}
	for k := range b {
		present[k] = struct{}{}
	}

	out := make([]string, 0, len(present))
	for _, cat := range EntityCategories {
		if _, ok := present[cat]; ok {
			out = append(out, cat)
			delete(present, cat)
		}
	}
	extra := make([]string, 0, len(present))
	for k := range present {
		extra = append(extra, k)
	}
	sort.Strings(extra)
	return append(out, extra...)
}
