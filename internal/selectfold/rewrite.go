package selectfold

import (
	"fmt"

	"github.com/arvidh/loom/internal/hlo"
)

// foldOperand redirects the collective-permute's data operand to the branch
// selected by the evaluated predicate. The select itself is left untouched;
// it may become unreachable, and reclaiming it belongs to a dead-code pass.
func foldOperand(comp *hlo.Computation, cp *hlo.Instruction, match *foldableSelect, predicate bool) (hlo.InstrID, error) {
	chosen := match.falseOp
	if predicate {
		chosen = match.trueOp
	}
	if err := comp.ReplaceOperand(cp.ID(), 0, chosen); err != nil {
		return hlo.InvalidInstr, fmt.Errorf("fold %s %q: %w", cp.Op(), cp.Name(), err)
	}
	return chosen, nil
}
