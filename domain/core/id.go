package core

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// ID represents a domain identifier
type ID string

// NewID creates a new unique identifier using UUID v7 for time-ordered generation
func NewID() ID {
	id, err := uuid.NewV7()
	if err != nil {
		id = uuid.New()
	}
	return ID(id.String())
}

// String returns the string representation
func (id ID) String() string {
	return string(id)
}

// IsEmpty checks if the ID is empty
func (id ID) IsEmpty() bool {
	return id == ""
}

// Domain-specific ID types. Protein and drug identifiers are opaque tokens:
// nothing beyond equality and ordering is done with them.
type (
	RunID     ID
	ProteinID ID
	DrugID    ID
)

func (id RunID) String() string     { return ID(id).String() }
func (id ProteinID) String() string { return ID(id).String() }
func (id DrugID) String() string    { return ID(id).String() }

// NewRunID creates a fresh run identifier
func NewRunID() RunID {
	return RunID(NewID())
}

// PairKey identifies one observed (protein, drug) combination
type PairKey struct {
	Protein ProteinID `json:"protein"`
	Drug    DrugID    `json:"drug"`
}

func (k PairKey) String() string {
	return k.Protein.String() + "|" + k.Drug.String()
}

// Less orders pair keys by protein, then drug
func (k PairKey) Less(other PairKey) bool {
	if k.Protein != other.Protein {
		return k.Protein < other.Protein
	}
	return k.Drug < other.Drug
}

func cleanToken(s string) string {
	return strings.Trim(strings.TrimSpace(s), `"'`)
}

// ParseProteinID parses a string into ProteinID, stripping surrounding quotes
func ParseProteinID(s string) (ProteinID, error) {
	v := cleanToken(s)
	if v == "" {
		return "", fmt.Errorf("protein ID cannot be empty")
	}
	return ProteinID(v), nil
}

// ParseDrugID parses a string into DrugID, stripping surrounding quotes
func ParseDrugID(s string) (DrugID, error) {
	v := cleanToken(s)
	if v == "" {
		return "", fmt.Errorf("drug ID cannot be empty")
	}
	return DrugID(v), nil
}

// ParseRunID parses a string into RunID. Run IDs are UUIDs.
func ParseRunID(s string) (RunID, error) {
	v := strings.TrimSpace(s)
	if v == "" {
		return "", fmt.Errorf("run ID cannot be empty")
	}
	id, err := uuid.Parse(v)
	if err != nil {
		return "", fmt.Errorf("invalid run ID %q: %w", v, err)
	}
	return RunID(id.String()), nil
}
