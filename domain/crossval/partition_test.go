package crossval

import (
	"fmt"
	"testing"

	"goconcord/domain/core"
	"goconcord/domain/dataset"
	"goconcord/internal/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func table(rows ...string) dataset.PairingTable {
	t := make(dataset.PairingTable, 0, len(rows)/2)
	for i := 0; i+1 < len(rows); i += 2 {
		t = append(t, dataset.Pairing{Protein: core.ProteinID(rows[i]), Drug: core.DrugID(rows[i+1])})
	}
	return t
}

func TestParsePolicy(t *testing.T) {
	for in, want := range map[string]Policy{"lodo": LODO, "LOPO-CV": LOPO, " loopd-cv ": LOOPD} {
		got, err := ParsePolicy(in)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}
	_, err := ParsePolicy("kfold")
	assert.Error(t, err)
}

func TestLODO_HoldsOutOneDrug(t *testing.T) {
	tbl := table("p1", "A", "p2", "B", "p1", "C", "p3", "A", "p2", "C")

	fold := FoldFor(tbl, HeldOut{Policy: LODO, Drug: "A"})
	assert.Equal(t, []int{0, 3}, fold.Test)
	assert.Equal(t, []int{1, 2, 4}, fold.Train)
	for _, i := range fold.Train {
		assert.NotEqual(t, core.DrugID("A"), tbl[i].Drug)
	}
	assert.NoError(t, CheckFold(tbl, fold))
	assert.Equal(t, "drug=A", fold.Key())
}

func TestLOPO_HoldsOutOneProtein(t *testing.T) {
	tbl := table("p1", "A", "p2", "B", "p1", "C")

	fold := FoldFor(tbl, HeldOut{Policy: LOPO, Protein: "p1"})
	assert.Equal(t, []int{0, 2}, fold.Test)
	assert.Equal(t, []int{1}, fold.Train)
	assert.NoError(t, CheckFold(tbl, fold))
}

func TestLOOPD_StrictExclusion(t *testing.T) {
	tbl := table("p1", "d1", "p1", "d2", "p2", "d1", "p2", "d2")

	fold := FoldFor(tbl, HeldOut{Policy: LOOPD, Protein: "p1", Drug: "d1"})
	assert.Equal(t, []int{0}, fold.Test)
	assert.Equal(t, []int{3}, fold.Train)
	assert.Equal(t, 2, fold.Excluded(len(tbl)))
	assert.NoError(t, CheckFold(tbl, fold))
	assert.Equal(t, "pair=p1|d1", fold.Key())
}

func TestFoldCounts(t *testing.T) {
	tbl := make(dataset.PairingTable, 0, 400)
	for i := 0; i < 400; i++ {
		tbl = append(tbl, dataset.Pairing{
			Protein: core.ProteinID(fmt.Sprintf("P%02d", i%59)),
			Drug:    core.DrugID(fmt.Sprintf("D%02d", i%77)),
		})
	}

	lodo := Folds(tbl, LODO)
	lopo := Folds(tbl, LOPO)
	loopd := Folds(tbl, LOOPD)

	assert.Len(t, lodo, 77)
	assert.Len(t, lopo, 59)
	assert.Len(t, loopd, len(tbl.ObservedPairs()))

	for _, p := range AllPolicies() {
		require.NoError(t, CheckFolds(tbl, p, Folds(tbl, p)), "policy %s", p)
	}
}

func TestFolds_SortedKeys(t *testing.T) {
	tbl := table("p2", "B", "p1", "A", "p1", "B")
	folds := Folds(tbl, LODO)
	require.Len(t, folds, 2)
	assert.Equal(t, "drug=A", folds[0].Key())
	assert.Equal(t, "drug=B", folds[1].Key())
}

func TestCheckFold_DetectsLeaks(t *testing.T) {
	tbl := table("p1", "d1", "p1", "d2", "p2", "d1", "p2", "d2")

	cases := map[string]Fold{
		"lodo drug in train": {
			HeldOut: HeldOut{Policy: LODO, Drug: "d1"},
			Test:    []int{0},
			Train:   []int{2, 3},
		},
		"lopo protein in train": {
			HeldOut: HeldOut{Policy: LOPO, Protein: "p1"},
			Test:    []int{0},
			Train:   []int{1},
		},
		"loopd naive pair exclusion": {
			HeldOut: HeldOut{Policy: LOOPD, Protein: "p1", Drug: "d1"},
			Test:    []int{0},
			Train:   []int{1, 2, 3},
		},
		"overlap": {
			HeldOut: HeldOut{Policy: LOPO, Protein: "p1"},
			Test:    []int{0, 1},
			Train:   []int{1, 2},
		},
		"empty test": {
			HeldOut: HeldOut{Policy: LODO, Drug: "d9"},
			Train:   []int{0, 1, 2, 3},
		},
	}
	for name, fold := range cases {
		t.Run(name, func(t *testing.T) {
			err := CheckFold(tbl, fold)
			require.Error(t, err)
			assert.True(t, errors.IsPartitionLeak(err), err.Error())
		})
	}
}

func TestCheckFold_OutOfRange(t *testing.T) {
	tbl := table("p1", "d1")
	err := CheckFold(tbl, Fold{HeldOut: HeldOut{Policy: LODO, Drug: "d1"}, Test: []int{0}, Train: []int{5}})
	require.Error(t, err)
	assert.True(t, errors.IsShapeMismatch(err))
}

func TestCheckFolds_WrongCount(t *testing.T) {
	tbl := table("p1", "d1", "p2", "d2")
	err := CheckFolds(tbl, LODO, Folds(tbl, LODO)[:1])
	require.Error(t, err)
	assert.Contains(t, err.Error(), "should have 2 folds, got 1")
}
