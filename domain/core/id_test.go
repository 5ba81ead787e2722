package core

import (
	"testing"
)

// TestNewIDUniqueness tests that NewID generates unique identifiers
func TestNewIDUniqueness(t *testing.T) {
	const numIDs = 10000

	ids := make(map[ID]bool, numIDs)
	for i := 0; i < numIDs; i++ {
		id := NewID()
		if id.IsEmpty() {
			t.Errorf("Generated empty ID at iteration %d", i)
		}
		if ids[id] {
			t.Errorf("Generated duplicate ID: %s", id)
		}
		ids[id] = true
	}
}

// TestParseRequestID tests request ID parsing
func TestParseRequestID(t *testing.T) {
	minted := NewRequestID()
	parsed, err := ParseRequestID(" " + minted.String() + " ")
	if err != nil {
		t.Fatalf("Expected minted request ID to parse, got %v", err)
	}
	if parsed != minted {
		t.Errorf("Expected %s, got %s", minted, parsed)
	}

	if _, err := ParseRequestID("not-a-uuid"); err == nil {
		t.Error("Expected error for non-UUID request ID")
	}
}

// TestParseSectionID tests section ID validation
func TestParseSectionID(t *testing.T) {
	tests := []struct {
		input   string
		wantErr bool
	}{
		{"bus_stops", false},
		{"  ev_chargers ", false},
		{"", true},
		{"   ", true},
		{"bus stops", true},
		{"a/b", true},
	}

	for _, tt := range tests {
		_, err := ParseSectionID(tt.input)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseSectionID(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
		}
	}
}

// TestNarrativeKeyCanonical tests that filter order and value case do not change the key
func TestNarrativeKeyCanonical(t *testing.T) {
	ds := ComputeDatasetHash([]map[string]string{{"region": "North", "population": "1200"}})

	a := ComputeNarrativeKey("bus_stops", map[string]string{"region": "North", "area_type": "urban"}, ds, "v1")
	b := ComputeNarrativeKey("bus_stops", map[string]string{"area_type": "URBAN", "region": " north"}, ds, "v1")
	if a != b {
		t.Errorf("Expected equal keys, got %s and %s", a, b)
	}

	if c := ComputeNarrativeKey("bus_stops", map[string]string{"region": "South"}, ds, "v1"); c == a {
		t.Error("Expected different filters to change the key")
	}
	if d := ComputeNarrativeKey("bus_stops", map[string]string{"region": "North", "area_type": "urban"}, ds, "v2"); d == a {
		t.Error("Expected a policy version change to change the key")
	}
	if len(Hash(a).Short()) != 12 {
		t.Errorf("Expected 12-character short hash, got %q", Hash(a).Short())
	}
}

// TestDatasetHashOrder tests that field order is irrelevant but row order is not
func TestDatasetHashOrder(t *testing.T) {
	r1 := map[string]string{"a": "1", "b": "2"}
	r2 := map[string]string{"a": "3", "b": "4"}

	if ComputeDatasetHash([]map[string]string{r1, r2}) == ComputeDatasetHash([]map[string]string{r2, r1}) {
		t.Error("Expected row order to change the hash")
	}
	if ComputeDatasetHash([]map[string]string{r1}) != ComputeDatasetHash([]map[string]string{{"b": "2", "a": "1"}}) {
		t.Error("Expected field order not to change the hash")
	}
}
