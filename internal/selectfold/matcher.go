package selectfold

import (
	"github.com/arvidh/loom/internal/collective"
	"github.com/arvidh/loom/internal/hlo"
)

// foldableSelect is the transient match record for one candidate site. It
// borrows handles into the computation under inspection and owns nothing;
// it must not outlive the pass invocation.
type foldableSelect struct {
	selectID  hlo.InstrID
	direction hlo.Direction // DirectionEq or DirectionNe only
	constant  int64
	mode      collective.GroupMode // implied by the identity operand
	trueOp    hlo.InstrID
	falseOp   hlo.InstrID
}

// matchFoldableSelect matches select ops whose predicate this pass can
// analyse and returns handles to the branches. Matches, e.g.,
//
//	select(broadcast(compare(partition-id(), constant)), on_true, on_false)
//
// or
//
//	select(compare(partition-id(), constant), on_true, on_false)
//
// The predicate may be wrapped in at most one broadcast. The compare's
// identity and constant operands are accepted in either order: only EQ and
// NE comparisons are foldable and both are symmetric, so the match does
// not depend on upstream operand canonicalization.
//
// A nil return means no match. That is the expected outcome for almost
// every instruction; the whole check is a handful of local reads.
func matchFoldableSelect(comp *hlo.Computation, id hlo.InstrID) *foldableSelect {
	sel := comp.Instr(id)
	if sel == nil || sel.Op() != hlo.OpSelect {
		return nil
	}

	// Unwrap a single broadcast around the predicate.
	pred := comp.Instr(sel.Operand(0))
	if pred.Op() == hlo.OpBroadcast {
		pred = comp.Instr(pred.Operand(0))
	}
	if pred.Op() != hlo.OpCompare {
		return nil
	}
	dir := pred.Direction()
	if dir != hlo.DirectionEq && dir != hlo.DirectionNe {
		return nil
	}

	for _, operands := range [][2]hlo.InstrID{
		{pred.Operand(0), pred.Operand(1)},
		{pred.Operand(1), pred.Operand(0)},
	} {
		idOp := comp.Instr(operands[0])
		constOp := comp.Instr(operands[1])

		var mode collective.GroupMode
		switch idOp.Op() {
		case hlo.OpReplicaID:
			mode = collective.CrossReplica
		case hlo.OpPartitionID:
			mode = collective.CrossPartition
		default:
			continue
		}

		lit, ok := constOp.Literal()
		if !ok {
			continue
		}
		constant, ok := lit.FirstInteger()
		if !ok {
			continue
		}

		return &foldableSelect{
			selectID:  id,
			direction: dir,
			constant:  constant,
			mode:      mode,
			trueOp:    sel.Operand(1),
			falseOp:   sel.Operand(2),
		}
	}
	return nil
}
