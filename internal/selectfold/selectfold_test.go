package selectfold_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arvidh/loom/internal/collective"
	"github.com/arvidh/loom/internal/hlo"
	"github.com/arvidh/loom/internal/selectfold"
	"github.com/arvidh/loom/internal/testutil"
)

func TestFold_UniformTrue_NotEqual(t *testing.T) {
	// partition-id != 0, all sources are non-zero: predicate is true for
	// every sender, the collective reads the on-true branch.
	m, h := testutil.BuildSelectPermute(testutil.SelectPermuteSpec{
		Identity:  hlo.OpPartitionID,
		Direction: hlo.DirectionNe,
		Constant:  0,
		Pairs: []hlo.SourceTargetPair{
			{Source: 1, Target: 0}, {Source: 2, Target: 1}, {Source: 3, Target: 2},
		},
		ChannelID: testutil.Int64(1),
	})

	result, err := selectfold.Fold(m)
	require.NoError(t, err)

	assert.True(t, result.Changed)
	assert.Equal(t, h.TrueOp, h.Comp.Instr(h.Permute).Operand(0))
	require.Len(t, result.Rewrites, 1)
	assert.Equal(t, selectfold.Rewrite{
		Computation: "main",
		Instruction: "cp",
		Select:      "sel",
		Predicate:   true,
		NewOperand:  "fwd",
	}, result.Rewrites[0])
	assert.NoError(t, hlo.Validate(m))
}

func TestFold_UniformTrue_Equal(t *testing.T) {
	// partition-id == 0 with every source equal to 0.
	m, h := testutil.BuildSelectPermute(testutil.SelectPermuteSpec{
		Identity:  hlo.OpPartitionID,
		Direction: hlo.DirectionEq,
		Constant:  0,
		Pairs: []hlo.SourceTargetPair{
			{Source: 0, Target: 1}, {Source: 0, Target: 2},
		},
		ChannelID: testutil.Int64(1),
	})

	result, err := selectfold.Fold(m)
	require.NoError(t, err)

	assert.True(t, result.Changed)
	assert.Equal(t, h.TrueOp, h.Comp.Instr(h.Permute).Operand(0))
}

func TestFold_UniformFalse_Equal(t *testing.T) {
	// partition-id == 0 with no source equal to 0: predicate is false for
	// every sender, the collective reads the on-false branch.
	m, h := testutil.BuildSelectPermute(testutil.SelectPermuteSpec{
		Identity:  hlo.OpPartitionID,
		Direction: hlo.DirectionEq,
		Constant:  0,
		Pairs: []hlo.SourceTargetPair{
			{Source: 1, Target: 0}, {Source: 2, Target: 1},
		},
		ChannelID: testutil.Int64(1),
	})

	result, err := selectfold.Fold(m)
	require.NoError(t, err)

	assert.True(t, result.Changed)
	assert.Equal(t, h.FalseOp, h.Comp.Instr(h.Permute).Operand(0))
	require.Len(t, result.Rewrites, 1)
	assert.False(t, result.Rewrites[0].Predicate)
}

func TestFold_MixedSources_NoFold(t *testing.T) {
	// Source 0 satisfies partition-id == 0, source 1 does not; the
	// predicate is not uniform, so nothing may change.
	m, h := testutil.BuildSelectPermute(testutil.SelectPermuteSpec{
		Identity:  hlo.OpPartitionID,
		Direction: hlo.DirectionEq,
		Constant:  0,
		Pairs: []hlo.SourceTargetPair{
			{Source: 0, Target: 1}, {Source: 1, Target: 2},
		},
		ChannelID: testutil.Int64(1),
	})
	before := hlo.Fingerprint(m)

	result, err := selectfold.Fold(m)
	require.NoError(t, err)

	assert.False(t, result.Changed)
	assert.Empty(t, result.Rewrites)
	assert.Equal(t, h.Select, h.Comp.Instr(h.Permute).Operand(0))
	assert.Equal(t, before, hlo.Fingerprint(m), "module must be untouched")
}

func TestFold_EmptyRoutingTable_NoFold(t *testing.T) {
	m, _ := testutil.BuildSelectPermute(testutil.SelectPermuteSpec{
		Identity:  hlo.OpPartitionID,
		Direction: hlo.DirectionNe,
		Constant:  0,
		Pairs:     nil,
		ChannelID: testutil.Int64(1),
	})

	changed, err := selectfold.Run(m)
	require.NoError(t, err)
	assert.False(t, changed)
}

func TestFold_GroupModeMismatch_NoFold(t *testing.T) {
	// The predicate reads replica-id, but the channel id puts the
	// collective in cross-partition mode. Replica and partition numbering
	// spaces are never interchangeable.
	m, _ := testutil.BuildSelectPermute(testutil.SelectPermuteSpec{
		Identity:  hlo.OpReplicaID,
		Direction: hlo.DirectionNe,
		Constant:  0,
		Pairs:     []hlo.SourceTargetPair{{Source: 1, Target: 0}},
		ChannelID: testutil.Int64(1),
	})

	changed, err := selectfold.Run(m)
	require.NoError(t, err)
	assert.False(t, changed)
}

func TestFold_CrossReplicaMode_Folds(t *testing.T) {
	// No channel id: the collective is cross-replica, matching a
	// replica-id predicate.
	m, h := testutil.BuildSelectPermute(testutil.SelectPermuteSpec{
		Identity:  hlo.OpReplicaID,
		Direction: hlo.DirectionNe,
		Constant:  0,
		Pairs:     []hlo.SourceTargetPair{{Source: 1, Target: 0}, {Source: 2, Target: 0}},
	})

	result, err := selectfold.Fold(m)
	require.NoError(t, err)

	assert.True(t, result.Changed)
	assert.Equal(t, h.TrueOp, h.Comp.Instr(h.Permute).Operand(0))
}

func TestFold_DerivedModeNeverImplied_NoFold(t *testing.T) {
	tests := []struct {
		name string
		spec testutil.SelectPermuteSpec
	}{
		{
			// channel + flag false derives cross-replica-and-partition
			"cross replica and partition",
			testutil.SelectPermuteSpec{
				Identity:     hlo.OpReplicaID,
				Direction:    hlo.DirectionNe,
				Constant:     0,
				Pairs:        []hlo.SourceTargetPair{{Source: 1, Target: 0}},
				ChannelID:    testutil.Int64(1),
				UseGlobalIDs: testutil.Bool(false),
			},
		},
		{
			// channel + flag true derives flattened-id
			"flattened id",
			testutil.SelectPermuteSpec{
				Identity:     hlo.OpPartitionID,
				Direction:    hlo.DirectionNe,
				Constant:     0,
				Pairs:        []hlo.SourceTargetPair{{Source: 1, Target: 0}},
				ChannelID:    testutil.Int64(1),
				UseGlobalIDs: testutil.Bool(true),
			},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			m, _ := testutil.BuildSelectPermute(tc.spec)
			changed, err := selectfold.Run(m)
			require.NoError(t, err)
			assert.False(t, changed)
		})
	}
}

func TestFold_ContradictoryCollectiveConfig_HardError(t *testing.T) {
	// use_global_ids without a channel id is malformed IR: the pass must
	// abort, not skip.
	m, h := testutil.BuildSelectPermute(testutil.SelectPermuteSpec{
		Identity:     hlo.OpPartitionID,
		Direction:    hlo.DirectionNe,
		Constant:     0,
		Pairs:        []hlo.SourceTargetPair{{Source: 1, Target: 0}},
		UseGlobalIDs: testutil.Bool(true),
	})

	changed, err := selectfold.Run(m)
	require.Error(t, err)
	assert.True(t, collective.IsModeError(err))
	assert.Contains(t, err.Error(), `"cp"`)
	assert.False(t, changed)
	assert.Equal(t, h.Select, h.Comp.Instr(h.Permute).Operand(0))
}

func TestFold_HardErrorStopsLaterRewrites(t *testing.T) {
	m := hlo.NewModule("broken_then_foldable")

	// First computation holds the malformed collective.
	broken := m.NewComputation("broken")
	{
		fwd := broken.AddParameter("fwd")
		alt := broken.AddParameter("alt")
		zero := broken.AddConstant("zero", hlo.IntLiteral(0))
		pid := broken.AddPartitionID("pid")
		pred := broken.AddCompare("pred", hlo.DirectionNe, pid, zero)
		sel := broken.AddSelect("sel", pred, fwd, alt)
		override := true
		broken.AddCollectivePermute("cp", sel,
			[]hlo.SourceTargetPair{{Source: 1, Target: 0}},
			hlo.CollectiveConfig{GlobalIDsOverride: &override})
	}

	// Second computation holds a site that would fold.
	foldable := m.NewComputation("foldable")
	var sel, cp hlo.InstrID
	{
		fwd := foldable.AddParameter("fwd")
		alt := foldable.AddParameter("alt")
		zero := foldable.AddConstant("zero", hlo.IntLiteral(0))
		pid := foldable.AddPartitionID("pid")
		pred := foldable.AddCompare("pred", hlo.DirectionNe, pid, zero)
		sel = foldable.AddSelect("sel", pred, fwd, alt)
		ch := int64(1)
		cp = foldable.AddCollectivePermute("cp", sel,
			[]hlo.SourceTargetPair{{Source: 1, Target: 0}},
			hlo.CollectiveConfig{ChannelID: &ch})
	}

	changed, err := selectfold.Run(m)
	require.Error(t, err)
	assert.False(t, changed)
	assert.Equal(t, sel, foldable.Instr(cp).Operand(0),
		"no rewrites may happen after the hard error")
}

func TestFold_SelectLeftInPlace(t *testing.T) {
	m, h := testutil.BuildSelectPermute(testutil.SelectPermuteSpec{
		Identity:  hlo.OpPartitionID,
		Direction: hlo.DirectionNe,
		Constant:  0,
		Pairs:     []hlo.SourceTargetPair{{Source: 1, Target: 0}},
		ChannelID: testutil.Int64(1),
	})

	_, err := selectfold.Fold(m)
	require.NoError(t, err)

	// The select survives with its operands intact; only its use by the
	// collective-permute is gone. Reclaiming it is dead-code elimination's
	// job, not this pass'.
	sel := h.Comp.Instr(h.Select)
	assert.Equal(t, hlo.OpSelect, sel.Op())
	assert.Equal(t, 3, sel.NumOperands())
	assert.NotContains(t, sel.Users(), h.Permute)
	assert.Contains(t, h.Comp.Instr(h.TrueOp).Users(), h.Permute)
	assert.NoError(t, hlo.Validate(m))
}

func TestFold_Idempotent(t *testing.T) {
	m, _ := testutil.BuildSelectPermute(testutil.SelectPermuteSpec{
		Identity:  hlo.OpPartitionID,
		Direction: hlo.DirectionNe,
		Constant:  0,
		Pairs: []hlo.SourceTargetPair{
			{Source: 1, Target: 0}, {Source: 2, Target: 1},
		},
		ChannelID: testutil.Int64(1),
	})

	changed, err := selectfold.Run(m)
	require.NoError(t, err)
	require.True(t, changed)
	after := hlo.Fingerprint(m)

	changed, err = selectfold.Run(m)
	require.NoError(t, err)
	assert.False(t, changed, "second application must be a no-op")
	assert.Equal(t, after, hlo.Fingerprint(m))
}

func TestFold_MultipleSitesAggregateChanged(t *testing.T) {
	m := hlo.NewModule("two_sites")
	comp := m.NewComputation("main")

	fwd := comp.AddParameter("fwd")
	alt := comp.AddParameter("alt")
	zero := comp.AddConstant("zero", hlo.IntLiteral(0))
	pid := comp.AddPartitionID("pid")
	pred := comp.AddCompare("pred", hlo.DirectionNe, pid, zero)
	sel := comp.AddSelect("sel", pred, fwd, alt)

	ch1, ch2 := int64(1), int64(2)
	// Folds: uniform predicate across sources {1, 2}.
	cpA := comp.AddCollectivePermute("cp_a", sel,
		[]hlo.SourceTargetPair{{Source: 1, Target: 0}, {Source: 2, Target: 1}},
		hlo.CollectiveConfig{ChannelID: &ch1})
	// Does not fold: sources {0, 1} disagree.
	cpB := comp.AddCollectivePermute("cp_b", sel,
		[]hlo.SourceTargetPair{{Source: 0, Target: 1}, {Source: 1, Target: 2}},
		hlo.CollectiveConfig{ChannelID: &ch2})
	comp.AddTuple("out", cpA, cpB)

	result, err := selectfold.Fold(m)
	require.NoError(t, err)

	assert.True(t, result.Changed)
	require.Len(t, result.Rewrites, 1)
	assert.Equal(t, "cp_a", result.Rewrites[0].Instruction)
	assert.Equal(t, fwd, comp.Instr(cpA).Operand(0))
	assert.Equal(t, sel, comp.Instr(cpB).Operand(0))
	assert.NoError(t, hlo.Validate(m))
}
