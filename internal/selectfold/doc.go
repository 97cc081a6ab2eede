// Package selectfold folds a select feeding a collective-permute when the
// select's predicate is provably constant for every process that acts as a
// source in that collective's routing table.
//
// The predicate of a matched select is a comparison of the executing
// process's replica or partition id against an integer constant. A given
// select instance is only ever evaluated by the processes that appear as
// sources in the downstream collective-permute's routing table; when the
// comparison has the same truth value for all of those sources, the select
// resolves at compile time and the collective-permute can read the chosen
// branch directly.
//
// The pass visits every instruction exactly once, rewires at most one
// operand slot per match, and leaves the bypassed select in place for a
// later dead-code pass. It holds no state across invocations and is
// idempotent: a folded collective-permute no longer has a select operand,
// so it can never match again.
package selectfold
