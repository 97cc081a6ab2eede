package selectfold

import "github.com/arvidh/loom/internal/hlo"

// evaluatePredicate statically evaluates the match's predicate at every
// source id of the routing table. The second return is false when the
// predicate is undefined for this collective: the table is empty, or the
// truth value differs between sources.
func evaluatePredicate(match *foldableSelect, pairs []hlo.SourceTargetPair) (bool, bool) {
	if len(pairs) == 0 {
		return false, false
	}

	at := func(p hlo.SourceTargetPair) bool {
		if match.direction == hlo.DirectionEq {
			return p.Source == match.constant
		}
		return p.Source != match.constant
	}

	candidate := at(pairs[0])
	for _, p := range pairs[1:] {
		if at(p) != candidate {
			return false, false
		}
	}
	return candidate, true
}
