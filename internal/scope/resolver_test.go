package scope

import (
	"testing"

	"gonarrative/domain/narrative"

	"github.com/stretchr/testify/assert"
)

func regions(names ...string) narrative.Dataset {
	ds := make(narrative.Dataset, 0, len(names))
	for _, n := range names {
		ds = append(ds, narrative.Record{"region": narrative.NewText(n), "v": narrative.NewNumber(1)})
	}
	return ds
}

func TestResolve(t *testing.T) {
	tests := []struct {
		name      string
		ds        narrative.Dataset
		filters   narrative.FilterState
		wantScope narrative.Scope
		wantN     int
		wantGroup string
	}{
		{
			name:      "no filters is all groups",
			ds:        regions("North", "South", "North"),
			filters:   nil,
			wantScope: narrative.ScopeAllGroups,
			wantN:     2,
		},
		{
			name:      "all selector is a no-op",
			ds:        regions("North", "South"),
			filters:   narrative.FilterState{"region": "All", "area_type": ""},
			wantScope: narrative.ScopeAllGroups,
			wantN:     2,
		},
		{
			name:      "named group resolves to single group",
			ds:        regions("North", "North"),
			filters:   narrative.FilterState{"region": "north"},
			wantScope: narrative.ScopeSingleGroup,
			wantN:     1,
			wantGroup: "North",
		},
		{
			name:      "singleton from another filter stays subset",
			ds:        regions("North"),
			filters:   narrative.FilterState{"area_type": "rural"},
			wantScope: narrative.ScopeSubset,
			wantN:     1,
		},
		{
			name:      "singleton without filters is all groups",
			ds:        regions("North"),
			wantScope: narrative.ScopeAllGroups,
			wantN:     1,
		},
		{
			name:      "named group not present stays subset",
			ds:        regions("South"),
			filters:   narrative.FilterState{"region": "North"},
			wantScope: narrative.ScopeSubset,
			wantN:     1,
		},
		{
			name:      "category filter over many groups is subset",
			ds:        regions("North", "South", "East"),
			filters:   narrative.FilterState{"area_type": "urban"},
			wantScope: narrative.ScopeSubset,
			wantN:     3,
		},
		{
			name:      "empty dataset",
			ds:        narrative.Dataset{},
			wantScope: narrative.ScopeSubset,
			wantN:     0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			vc := Resolve(tt.ds, "region", tt.filters)
			assert.Equal(t, tt.wantScope, vc.Scope)
			assert.Equal(t, tt.wantN, vc.NGroups)
			assert.Equal(t, tt.wantGroup, vc.Group)
			assert.Equal(t, "region", vc.GroupBy)
		})
	}
}

func TestResolve_EchoesFiltersWithoutAliasing(t *testing.T) {
	filters := narrative.FilterState{"region": "North"}
	vc := Resolve(regions("North"), "region", filters)

	assert.Equal(t, filters, vc.Filters)
	vc.Filters["region"] = "South"
	assert.Equal(t, "North", filters["region"])
}

func TestDistinctGroups_SkipsMissing(t *testing.T) {
	ds := regions("b", "a", "b")
	ds = append(ds, narrative.Record{"region": narrative.NewMissing()})
	assert.Equal(t, []string{"a", "b"}, DistinctGroups(ds, "region"))
	assert.Nil(t, DistinctGroups(ds, ""))
}
