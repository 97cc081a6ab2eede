package selectfold

import (
	"fmt"

	"github.com/arvidh/loom/internal/collective"
	"github.com/arvidh/loom/internal/hlo"
)

// Rewrite records one committed fold for diagnostics and the trace store.
type Rewrite struct {
	Computation string `json:"computation"`
	Instruction string `json:"instruction"` // the collective-permute
	Select      string `json:"select"`      // the bypassed select
	Predicate   bool   `json:"predicate"`   // the statically evaluated value
	NewOperand  string `json:"new_operand"` // the branch now feeding the collective
}

// Result is the outcome of one pass invocation.
type Result struct {
	Changed  bool      `json:"changed"`
	Rewrites []Rewrite `json:"rewrites,omitempty"`
}

// Run applies the pass to the module and reports whether anything changed.
// This is the contract the pass scheduler calls; use Fold when the per-site
// rewrite records are wanted.
func Run(m *hlo.Module) (bool, error) {
	result, err := Fold(m)
	return result.Changed, err
}

// Fold applies the pass to every instruction of every computation, exactly
// once each. Rewrite sites are independent: a fold consumes the select, it
// never creates a new candidate, so a single sweep suffices and a second
// invocation on the output is a no-op.
//
// A hard error (a collective whose channel metadata is self-contradictory)
// aborts the invocation immediately. Rewrites committed earlier in the same
// invocation remain; per-site evaluation always precedes per-site mutation,
// so no individual site is left half-rewritten.
func Fold(m *hlo.Module) (Result, error) {
	var result Result
	for _, comp := range m.Computations() {
		for _, in := range comp.Instructions() {
			rewrite, err := tryFold(comp, in)
			if err != nil {
				return result, err
			}
			if rewrite != nil {
				result.Changed = true
				result.Rewrites = append(result.Rewrites, *rewrite)
			}
		}
	}
	return result, nil
}

// tryFold attempts the match-guard-evaluate-rewrite sequence on a single
// candidate. A nil, nil return means no match.
func tryFold(comp *hlo.Computation, in *hlo.Instruction) (*Rewrite, error) {
	// The candidate must be a collective-permute whose data operand is a
	// foldable select.
	if in.Op() != hlo.OpCollectivePermute {
		return nil, nil
	}
	match := matchFoldableSelect(comp, in.Operand(0))
	if match == nil {
		return nil, nil
	}

	// The predicate reads a partition or replica id; the fold is only
	// sound when the collective addresses the same numbering space.
	_, hasChannel := in.ChannelID()
	var override *bool
	if v, ok := in.GlobalIDsOverride(); ok {
		override = &v
	}
	mode, err := collective.GroupModeFor(hasChannel, override)
	if err != nil {
		return nil, fmt.Errorf("%s %q: %w", in.Op(), in.Name(), err)
	}
	if mode != match.mode {
		return nil, nil
	}

	// Fold only when the predicate evaluates to one value for every
	// source id in this collective's table.
	predicate, ok := evaluatePredicate(match, in.SourceTargetPairs())
	if !ok {
		return nil, nil
	}

	chosen, err := foldOperand(comp, in, match, predicate)
	if err != nil {
		return nil, err
	}
	return &Rewrite{
		Computation: comp.Name(),
		Instruction: in.Name(),
		Select:      comp.Instr(match.selectID).Name(),
		Predicate:   predicate,
		NewOperand:  comp.Instr(chosen).Name(),
	}, nil
}
