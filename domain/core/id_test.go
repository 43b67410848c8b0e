package core

import (
	"testing"
)

// TestNewIDUniqueness tests that NewID generates unique identifiers
func TestNewIDUniqueness(t *testing.T) {
	const numIDs = 1000

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

func TestNewRunID(t *testing.T) {
	a, b := NewRunID(), NewRunID()
	if a == b {
		t.Errorf("Expected distinct run IDs, got %s twice", a)
	}
}

func TestParseRunID(t *testing.T) {
	id := NewRunID()
	got, err := ParseRunID(" " + id.String() + " ")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != id {
		t.Errorf("ParseRunID = %q, want %q", got, id)
	}

	for _, bad := range []string{"", "   ", "not-a-uuid", "12345"} {
		if _, err := ParseRunID(bad); err == nil {
			t.Errorf("ParseRunID(%q) should fail", bad)
		}
	}
}

// TestParseProteinID tests quote stripping and empty rejection
func TestParseProteinID(t *testing.T) {
	tests := []struct {
		input   string
		want    ProteinID
		wantErr bool
	}{
		{`hsa:1234`, "hsa:1234", false},
		{`"hsa:1234"`, "hsa:1234", false},
		{`  'P1'  `, "P1", false},
		{`""`, "", true},
		{"   ", "", true},
	}

	for _, tt := range tests {
		got, err := ParseProteinID(tt.input)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseProteinID(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseProteinID(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}

func TestParseDrugID(t *testing.T) {
	got, err := ParseDrugID(`"D00001"`)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "D00001" {
		t.Errorf("Expected D00001, got %s", got)
	}
	if _, err := ParseDrugID(""); err == nil {
		t.Error("Expected error for empty drug ID")
	}
}

func TestPairKeyOrdering(t *testing.T) {
	a := PairKey{Protein: "p1", Drug: "d2"}
	b := PairKey{Protein: "p1", Drug: "d3"}
	c := PairKey{Protein: "p2", Drug: "d1"}

	if !a.Less(b) || !b.Less(c) || c.Less(a) {
		t.Error("PairKey ordering should be protein-major, drug-minor")
	}
	if a.String() != "p1|d2" {
		t.Errorf("Expected p1|d2, got %s", a.String())
	}
}
