package scope

import (
	"sort"
	"strings"

	"gonarrative/domain/narrative"
)

// Resolve classifies an already-filtered dataset into a ViewContext.
//
// single_group requires both exactly one distinct group in the data and an
// explicit filter naming that group; a subset that happens to contain one
// group stays "subset". No active filters means all_groups. An empty dataset
// is always a subset with zero groups.
func Resolve(ds narrative.Dataset, groupBy string, filters narrative.FilterState) narrative.ViewContext {
	vc := narrative.ViewContext{
		Scope:   narrative.ScopeSubset,
		Filters: filters.Clone(),
		GroupBy: groupBy,
	}
	if ds.Len() == 0 {
		return vc
	}

	groups := DistinctGroups(ds, groupBy)
	vc.NGroups = len(groups)
	active := filters.Active()

	if len(groups) == 1 {
		if selected, ok := active[groupBy]; ok && strings.EqualFold(selected, groups[0]) {
			vc.Scope = narrative.ScopeSingleGroup
			vc.Group = groups[0]
			return vc
		}
	}

	if len(active) == 0 {
		vc.Scope = narrative.ScopeAllGroups
	}
	return vc
}

// DistinctGroups returns the sorted distinct non-missing values of groupBy
func DistinctGroups(ds narrative.Dataset, groupBy string) []string {
	if groupBy == "" {
		return nil
	}
	seen := make(map[string]struct{})
	for _, r := range ds {
		g, ok := r.Text(groupBy)
		if !ok {
			continue
		}
		g = strings.TrimSpace(g)
		if g == "" {
			continue
		}
		seen[g] = struct{}{}
	}
	out := make([]string, 0, len(seen))
	for g := range seen {
		out = append(out, g)
	}
	sort.Strings(out)
	return out
}
