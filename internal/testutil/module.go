// Package testutil provides shared module-construction helpers for tests.
package testutil

import (
	"github.com/arvidh/loom/internal/hlo"
)

// Int64 returns a pointer to v, for optional channel ids.
func Int64(v int64) *int64 { return &v }

// Bool returns a pointer to v, for optional override flags.
func Bool(v bool) *bool { return &v }

// SelectPermuteSpec describes the canonical select-feeds-collective-permute
// graph that selectfold tests exercise:
//
//	%fwd  = parameter()
//	%alt  = parameter()
//	%c    = constant(s64 <Constant>)
//	%id   = partition-id() | replica-id()
//	%pred = compare(%id, %c), direction=<Direction>
//	%sel  = select(%pred, %fwd, %alt)       // pred optionally broadcast
//	%cp   = collective-permute(%sel), ...
type SelectPermuteSpec struct {
	Identity      hlo.Opcode // OpPartitionID or OpReplicaID
	Direction     hlo.Direction
	Constant      int64
	BroadcastPred bool
	SwapCompare   bool // emit compare(%c, %id) instead of compare(%id, %c)

	Pairs        []hlo.SourceTargetPair
	ChannelID    *int64
	UseGlobalIDs *bool
}

// SelectPermuteHandles exposes the interesting handles of a built graph.
type SelectPermuteHandles struct {
	Comp    *hlo.Computation
	TrueOp  hlo.InstrID // %fwd
	FalseOp hlo.InstrID // %alt
	Select  hlo.InstrID
	Permute hlo.InstrID
}

// BuildSelectPermute builds a single-computation module from the spec and
// returns it with handles into the graph.
func BuildSelectPermute(spec SelectPermuteSpec) (*hlo.Module, SelectPermuteHandles) {
	m := hlo.NewModule("select_permute_test")
	comp := m.NewComputation("main")

	fwd := comp.AddParameter("fwd")
	alt := comp.AddParameter("alt")
	c := comp.AddConstant("c", hlo.IntLiteral(spec.Constant))

	var id hlo.InstrID
	if spec.Identity == hlo.OpReplicaID {
		id = comp.AddReplicaID("id")
	} else {
		id = comp.AddPartitionID("id")
	}

	lhs, rhs := id, c
	if spec.SwapCompare {
		lhs, rhs = c, id
	}
	pred := comp.AddCompare("pred", spec.Direction, lhs, rhs)
	if spec.BroadcastPred {
		pred = comp.AddBroadcast("pred_b", pred)
	}

	sel := comp.AddSelect("sel", pred, fwd, alt)
	cp := comp.AddCollectivePermute("cp", sel, spec.Pairs, hlo.CollectiveConfig{
		ChannelID:         spec.ChannelID,
		GlobalIDsOverride: spec.UseGlobalIDs,
	})
	comp.SetRoot(cp)

	return m, SelectPermuteHandles{
		Comp:    comp,
		TrueOp:  fwd,
		FalseOp: alt,
		Select:  sel,
		Permute: cp,
	}
}
