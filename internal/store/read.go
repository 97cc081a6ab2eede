package store

import (
	"context"
	"fmt"
)

// Decision is one recorded pass decision.
type Decision struct {
	Seq               int64  `json:"seq"`
	ModuleID          string `json:"module_id"`
	ModuleFingerprint string `json:"module_fingerprint"`
	Pass              string `json:"pass"`
	Computation       string `json:"computation,omitempty"`
	Instruction       string `json:"instruction,omitempty"`
	Outcome           string `json:"outcome"`
	Detail            string `json:"detail,omitempty"`
}

// ListDecisions returns recorded decisions in insertion order. When
// moduleID is non-empty, only that module's decisions are returned.
// Returns an empty slice (not nil) when nothing matches.
func (s *Store) ListDecisions(ctx context.Context, moduleID string) ([]Decision, error) {
	query := `
		SELECT seq, module_id, module_fingerprint, pass, computation, instruction, outcome, detail
		FROM fold_decisions
	`
	var args []any
	if moduleID != "" {
		query += " WHERE module_id = ?"
		args = append(args, moduleID)
	}
	query += " ORDER BY seq ASC"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query decisions: %w", err)
	}
	defer rows.Close()

	decisions := []Decision{}
	for rows.Next() {
		var d Decision
		err := rows.Scan(
			&d.Seq,
			&d.ModuleID,
			&d.ModuleFingerprint,
			&d.Pass,
			&d.Computation,
			&d.Instruction,
			&d.Outcome,
			&d.Detail,
		)
		if err != nil {
			return nil, fmt.Errorf("scan decision: %w", err)
		}
		decisions = append(decisions, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate decisions: %w", err)
	}
	return decisions, nil
}
