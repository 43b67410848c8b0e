package crossval

import (
	"fmt"

	"goconcord/domain/dataset"
	"goconcord/internal/errors"
)

// Fold is one train/test split. Indices refer to rows of the pairing table.
type Fold struct {
	HeldOut HeldOut `json:"held_out"`
	Train   []int   `json:"train"`
	Test    []int   `json:"test"`
}

// Key is the held-out key of the fold
func (f Fold) Key() string {
	return f.HeldOut.Key()
}

// Excluded is the number of rows in neither train nor test
func (f Fold) Excluded(total int) int {
	return total - len(f.Train) - len(f.Test)
}

// Partition splits the table by classify. All three policies go through here.
func Partition(table dataset.PairingTable, classify func(dataset.Pairing) Side) (train, test []int) {
	train = make([]int, 0, len(table))
	test = make([]int, 0)
	for i, row := range table {
		switch classify(row) {
		case SideTest:
			test = append(test, i)
		case SideTrain:
			train = append(train, i)
		}
	}
	return train, test
}

// FoldFor builds the fold for one held-out key
func FoldFor(table dataset.PairingTable, heldOut HeldOut) Fold {
	train, test := Partition(table, heldOut.Classify)
	return Fold{HeldOut: heldOut, Train: train, Test: test}
}

// Folds generates every fold of the policy in sorted key order
func Folds(table dataset.PairingTable, policy Policy) []Fold {
	keys := HeldOutKeys(table, policy)
	folds := make([]Fold, 0, len(keys))
	for _, k := range keys {
		folds = append(folds, FoldFor(table, k))
	}
	return folds
}

// CheckFold verifies the independence invariants of a fold: a non-empty
// test set, disjoint train and test, and no held-out key in train. For LOOPD
// neither the held-out protein nor the held-out drug may appear in train.
func CheckFold(table dataset.PairingTable, fold Fold) error {
	key := fold.Key()
	if len(fold.Test) == 0 {
		return errors.PartitionLeak(fmt.Sprintf("%s: empty test set", key))
	}

	inTest := make(map[int]struct{}, len(fold.Test))
	for _, i := range fold.Test {
		if i < 0 || i >= len(table) {
			return errors.ShapeMismatch(fmt.Sprintf("%s: test index %d out of range", key, i))
		}
		inTest[i] = struct{}{}
	}

	h := fold.HeldOut
	for _, i := range fold.Train {
		if i < 0 || i >= len(table) {
			return errors.ShapeMismatch(fmt.Sprintf("%s: train index %d out of range", key, i))
		}
		if _, ok := inTest[i]; ok {
			return errors.PartitionLeak(fmt.Sprintf("%s: row %d is in both train and test", key, i))
		}
		row := table[i]
		switch h.Policy {
		case LODO:
			if row.Drug == h.Drug {
				return errors.PartitionLeak(fmt.Sprintf("LODO: test drug %s found in training row %d", h.Drug, i))
			}
		case LOPO:
			if row.Protein == h.Protein {
				return errors.PartitionLeak(fmt.Sprintf("LOPO: test protein %s found in training row %d", h.Protein, i))
			}
		case LOOPD:
			if row.Protein == h.Protein {
				return errors.PartitionLeak(fmt.Sprintf("LOOPD: test protein %s found in training row %d", h.Protein, i))
			}
			if row.Drug == h.Drug {
				return errors.PartitionLeak(fmt.Sprintf("LOOPD: test drug %s found in training row %d", h.Drug, i))
			}
		}
	}
	return nil
}

// CheckFolds runs CheckFold over every fold and also verifies the fold count
func CheckFolds(table dataset.PairingTable, policy Policy, folds []Fold) error {
	if want := ExpectedFoldCount(table, policy); len(folds) != want {
		return errors.ValidationError(fmt.Sprintf("%s should have %d folds, got %d", policy, want, len(folds)))
	}
	for _, f := range folds {
		if err := CheckFold(table, f); err != nil {
			return err
		}
	}
	return nil
}
