package narrative

import (
	"sort"
	"strings"
)

// Scope classifies what the current view is looking at
type Scope string

const (
	ScopeAllGroups   Scope = "all_groups"
	ScopeSingleGroup Scope = "single_group"
	ScopeSubset      Scope = "subset"
)

// FilterState maps a field to the selected value. "" and "all" are no-op selectors.
type FilterState map[string]string

// IsNoop reports whether a selector value selects everything
func IsNoop(value string) bool {
	v := strings.TrimSpace(value)
	return v == "" || strings.EqualFold(v, "all")
}

// Active returns the filters that actually narrow the data, sorted by field
func (f FilterState) Active() FilterState {
	out := FilterState{}
	for k, v := range f {
		if !IsNoop(v) {
			out[k] = strings.TrimSpace(v)
		}
	}
	return out
}

// Keys returns field names in sorted order
func (f FilterState) Keys() []string {
	keys := make([]string, 0, len(f))
	for k := range f {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Clone returns an independent copy
func (f FilterState) Clone() FilterState {
	out := make(FilterState, len(f))
	for k, v := range f {
		out[k] = v
	}
	return out
}

// Matches reports whether a record satisfies every active selector
func (f FilterState) Matches(r Record) bool {
	for field, want := range f {
		if IsNoop(want) {
			continue
		}
		got, ok := r.Text(field)
		if !ok || !strings.EqualFold(strings.TrimSpace(got), strings.TrimSpace(want)) {
			return false
		}
	}
	return true
}

// ViewContext is derived fresh per invocation and never mutated
type ViewContext struct {
	Scope   Scope       `json:"scope"`
	NGroups int         `json:"n_groups"`
	Group   string      `json:"group,omitempty"` // set only for ScopeSingleGroup
	Filters FilterState `json:"filters"`
	GroupBy string      `json:"group_by"`
}

// IsComparative reports whether the view can support cross-group comparisons
func (vc ViewContext) IsComparative() bool {
	return vc.Scope != ScopeSingleGroup && vc.NGroups >= 2
}
