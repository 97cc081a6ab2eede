package hlo

import "fmt"

// ValidationError describes a structural violation found in a module.
type ValidationError struct {
	Computation string
	Instruction string // empty for computation-level violations
	Message     string
}

func (e *ValidationError) Error() string {
	if e.Instruction != "" {
		return fmt.Sprintf("%s/%s: %s", e.Computation, e.Instruction, e.Message)
	}
	if e.Computation != "" {
		return fmt.Sprintf("%s: %s", e.Computation, e.Message)
	}
	return e.Message
}

// Validate checks a module's structural invariants:
//
//  1. Computation and instruction names are unique
//  2. Operand handles resolve inside the owning arena
//  3. Operands precede their users (arena order is topological, so the
//     graph is acyclic)
//  4. Operand counts match each opcode's fixed arity
//  5. Reverse-use edges agree with operand lists
//  6. A computation's root, when set, resolves inside its arena
//
// Returns the first violation found, or nil.
func Validate(m *Module) error {
	compNames := make(map[string]bool)
	for _, comp := range m.Computations() {
		if compNames[comp.Name()] {
			return &ValidationError{Computation: comp.Name(), Message: "duplicate computation name"}
		}
		compNames[comp.Name()] = true
		if err := validateComputation(comp); err != nil {
			return err
		}
	}
	return nil
}

func validateComputation(comp *Computation) error {
	instrNames := make(map[string]bool)
	for _, in := range comp.Instructions() {
		if instrNames[in.Name()] {
			return &ValidationError{Computation: comp.Name(), Instruction: in.Name(), Message: "duplicate instruction name"}
		}
		instrNames[in.Name()] = true

		if arity := in.Op().Arity(); arity >= 0 && in.NumOperands() != arity {
			return &ValidationError{
				Computation: comp.Name(),
				Instruction: in.Name(),
				Message:     fmt.Sprintf("%s takes %d operand(s), has %d", in.Op(), arity, in.NumOperands()),
			}
		}

		for i := 0; i < in.NumOperands(); i++ {
			opnd := in.Operand(i)
			target := comp.Instr(opnd)
			if target == nil {
				return &ValidationError{
					Computation: comp.Name(),
					Instruction: in.Name(),
					Message:     fmt.Sprintf("operand %d: handle %d outside arena", i, opnd),
				}
			}
			if opnd >= in.ID() {
				return &ValidationError{
					Computation: comp.Name(),
					Instruction: in.Name(),
					Message:     fmt.Sprintf("operand %d: %q does not precede its user", i, target.Name()),
				}
			}
			if !usesInstruction(target, in.ID()) {
				return &ValidationError{
					Computation: comp.Name(),
					Instruction: in.Name(),
					Message:     fmt.Sprintf("operand %d: %q is missing the reverse-use edge", i, target.Name()),
				}
			}
		}
	}

	// Reverse-use edges must all be backed by an operand slot.
	for _, in := range comp.Instructions() {
		for _, user := range in.Users() {
			u := comp.Instr(user)
			if u == nil {
				return &ValidationError{
					Computation: comp.Name(),
					Instruction: in.Name(),
					Message:     fmt.Sprintf("use list references handle %d outside arena", user),
				}
			}
			found := false
			for i := 0; i < u.NumOperands(); i++ {
				if u.Operand(i) == in.ID() {
					found = true
					break
				}
			}
			if !found {
				return &ValidationError{
					Computation: comp.Name(),
					Instruction: in.Name(),
					Message:     fmt.Sprintf("use list references %q, which has no such operand", u.Name()),
				}
			}
		}
	}

	if root := comp.Root(); root != InvalidInstr && comp.Instr(root) == nil {
		return &ValidationError{Computation: comp.Name(), Message: fmt.Sprintf("root handle %d outside arena", root)}
	}
	return nil
}

func usesInstruction(in *Instruction, user InstrID) bool {
	for _, u := range in.Users() {
		if u == user {
			return true
		}
	}
	return false
}
