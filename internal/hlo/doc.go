// Package hlo provides the instruction-graph intermediate representation
// that loom's optimization passes operate on.
//
// This package is the foundational layer: passes, the compiler, the store,
// and the CLI all import hlo; hlo imports nothing internal. This keeps the
// IR free of circular dependencies.
//
// Key design constraints:
//   - Instructions live in a per-computation arena and are addressed by
//     stable InstrID handles, never by aliased pointers
//   - Operand lists store handles; mutation goes through
//     Computation.ReplaceOperand, which maintains reverse-use edges
//   - The opcode set is a closed enumeration with fixed arity per opcode
//   - All integer payloads are int64 (process ids, literal elements)
package hlo
