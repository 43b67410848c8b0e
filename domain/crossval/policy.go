package crossval

import (
	"fmt"
	"strings"

	"goconcord/domain/core"
	"goconcord/domain/dataset"
)

// Policy is a leave-out cross-validation regime
type Policy string

const (
	// LODO holds out every row of one drug
	LODO Policy = "LODO"
	// LOPO holds out every row of one protein
	LOPO Policy = "LOPO"
	// LOOPD holds out one observed pair and drops rows sharing either key
	LOOPD Policy = "LOOPD"
)

// AllPolicies lists the policies in report order
func AllPolicies() []Policy {
	return []Policy{LODO, LOPO, LOOPD}
}

// ParsePolicy accepts the policy name case-insensitively, with or without a "-CV" suffix
func ParsePolicy(s string) (Policy, error) {
	name := strings.ToUpper(strings.TrimSpace(s))
	name = strings.TrimSuffix(name, "-CV")
	switch Policy(name) {
	case LODO, LOPO, LOOPD:
		return Policy(name), nil
	}
	return "", fmt.Errorf("unknown cross-validation policy %q", s)
}

func (p Policy) String() string { return string(p) }

// Side says where a row goes in a fold
type Side int

const (
	SideExcluded Side = iota
	SideTrain
	SideTest
)

// HeldOut is the key withheld by one fold. Only the fields relevant to the
// policy are set.
type HeldOut struct {
	Policy  Policy         `json:"policy"`
	Protein core.ProteinID `json:"protein,omitempty"`
	Drug    core.DrugID    `json:"drug,omitempty"`
}

// Key renders the held-out key, e.g. "drug=D1" or "pair=P1|D1"
func (h HeldOut) Key() string {
	switch h.Policy {
	case LODO:
		return "drug=" + h.Drug.String()
	case LOPO:
		return "protein=" + h.Protein.String()
	default:
		return "pair=" + core.PairKey{Protein: h.Protein, Drug: h.Drug}.String()
	}
}

// Classify assigns a pairing row to test, train or neither for this key
func (h HeldOut) Classify(row dataset.Pairing) Side {
	switch h.Policy {
	case LODO:
		if row.Drug == h.Drug {
			return SideTest
		}
		return SideTrain
	case LOPO:
		if row.Protein == h.Protein {
			return SideTest
		}
		return SideTrain
	case LOOPD:
		sameProtein := row.Protein == h.Protein
		sameDrug := row.Drug == h.Drug
		switch {
		case sameProtein && sameDrug:
			return SideTest
		case !sameProtein && !sameDrug:
			return SideTrain
		}
	}
	return SideExcluded
}

// HeldOutKeys enumerates one key per fold of the policy, in sorted order
func HeldOutKeys(table dataset.PairingTable, policy Policy) []HeldOut {
	var keys []HeldOut
	switch policy {
	case LODO:
		for _, d := range table.Drugs() {
			keys = append(keys, HeldOut{Policy: LODO, Drug: d})
		}
	case LOPO:
		for _, p := range table.Proteins() {
			keys = append(keys, HeldOut{Policy: LOPO, Protein: p})
		}
	case LOOPD:
		for _, k := range table.ObservedPairs() {
			keys = append(keys, HeldOut{Policy: LOOPD, Protein: k.Protein, Drug: k.Drug})
		}
	}
	return keys
}

// ExpectedFoldCount is the number of distinct drugs, proteins or observed pairs
func ExpectedFoldCount(table dataset.PairingTable, policy Policy) int {
	switch policy {
	case LODO:
		return len(table.Drugs())
	case LOPO:
		return len(table.Proteins())
	case LOOPD:
		return len(table.ObservedPairs())
	}
	return 0
}
