package store

import (
	"context"
	"fmt"

	"github.com/arvidh/loom/internal/hlo"
	"github.com/arvidh/loom/internal/selectfold"
)

// Outcome values recorded for a decision row.
const (
	OutcomeFolded    = "folded"
	OutcomeUnchanged = "unchanged"
)

// PassSelectFold is the pass name recorded for selectfold runs.
const PassSelectFold = "selectfold"

// RecordRun appends one row per committed rewrite of a selectfold run,
// keyed by the module's id and its post-run fingerprint. A run that
// changed nothing gets a single "unchanged" marker row so that no-op runs
// are still visible in the trace.
func (s *Store) RecordRun(ctx context.Context, m *hlo.Module, result selectfold.Result) error {
	fingerprint := hlo.Fingerprint(m)

	if !result.Changed {
		return s.insertDecision(ctx, Decision{
			ModuleID:          m.ID(),
			ModuleFingerprint: fingerprint,
			Pass:              PassSelectFold,
			Outcome:           OutcomeUnchanged,
		})
	}

	for _, rw := range result.Rewrites {
		predicate := "false"
		if rw.Predicate {
			predicate = "true"
		}
		err := s.insertDecision(ctx, Decision{
			ModuleID:          m.ID(),
			ModuleFingerprint: fingerprint,
			Pass:              PassSelectFold,
			Computation:       rw.Computation,
			Instruction:       rw.Instruction,
			Outcome:           OutcomeFolded,
			Detail:            fmt.Sprintf("select %s evaluated %s, operand now %s", rw.Select, predicate, rw.NewOperand),
		})
		if err != nil {
			return err
		}
	}
	return nil
}

func (s *Store) insertDecision(ctx context.Context, d Decision) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO fold_decisions
		(module_id, module_fingerprint, pass, computation, instruction, outcome, detail)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`,
		d.ModuleID,
		d.ModuleFingerprint,
		d.Pass,
		d.Computation,
		d.Instruction,
		d.Outcome,
		d.Detail,
	)
	if err != nil {
		return fmt.Errorf("write decision: %w", err)
	}
	return nil
}
