package hlo

import "fmt"

// Computation is an arena of instructions forming a directed acyclic
// dataflow graph. Instructions are appended, never removed; a rewrite pass
// rewires operand slots and leaves unreachable instructions for a later
// dead-code pass to reclaim.
type Computation struct {
	name   string
	instrs []*Instruction
	root   InstrID
}

// NewComputation creates an empty computation with the given name.
func NewComputation(name string) *Computation {
	return &Computation{name: name, root: InvalidInstr}
}

// Name returns the computation's name.
func (c *Computation) Name() string { return c.name }

// NumInstructions returns the arena size.
func (c *Computation) NumInstructions() int { return len(c.instrs) }

// Instr resolves a handle to its instruction. Returns nil for handles
// outside the arena.
func (c *Computation) Instr(id InstrID) *Instruction {
	if id < 0 || int(id) >= len(c.instrs) {
		return nil
	}
	return c.instrs[id]
}

// Instructions returns the arena in insertion order. The slice is shared;
// callers must not modify it.
func (c *Computation) Instructions() []*Instruction { return c.instrs }

// Root returns the computation's root instruction handle, or InvalidInstr
// when unset.
func (c *Computation) Root() InstrID { return c.root }

// SetRoot marks the computation's result instruction. Panics on a handle
// outside the arena.
func (c *Computation) SetRoot(id InstrID) {
	c.mustResolve(id)
	c.root = id
}

// add appends an instruction, wiring use edges for its operands. Operand
// handles must already be in the arena; violating that is a construction
// bug, reported by panic like an out-of-range index.
func (c *Computation) add(in *Instruction) InstrID {
	if arity := in.op.Arity(); arity >= 0 && len(in.operands) != arity {
		panic(fmt.Sprintf("hlo: %s takes %d operand(s), got %d", in.op, arity, len(in.operands)))
	}
	for _, opnd := range in.operands {
		c.mustResolve(opnd)
	}
	in.id = InstrID(len(c.instrs))
	c.instrs = append(c.instrs, in)
	for _, opnd := range in.operands {
		c.addUser(opnd, in.id)
	}
	return in.id
}

func (c *Computation) mustResolve(id InstrID) *Instruction {
	in := c.Instr(id)
	if in == nil {
		panic(fmt.Sprintf("hlo: handle %d outside arena of computation %q (size %d)", id, c.name, len(c.instrs)))
	}
	return in
}

// AddParameter appends a parameter instruction.
func (c *Computation) AddParameter(name string) InstrID {
	return c.add(&Instruction{name: name, op: OpParameter})
}

// AddConstant appends a constant instruction carrying lit.
func (c *Computation) AddConstant(name string, lit Literal) InstrID {
	return c.add(&Instruction{name: name, op: OpConstant, literal: lit})
}

// AddReplicaID appends a replica-id instruction.
func (c *Computation) AddReplicaID(name string) InstrID {
	return c.add(&Instruction{name: name, op: OpReplicaID})
}

// AddPartitionID appends a partition-id instruction.
func (c *Computation) AddPartitionID(name string) InstrID {
	return c.add(&Instruction{name: name, op: OpPartitionID})
}

// AddBroadcast appends a broadcast of x.
func (c *Computation) AddBroadcast(name string, x InstrID) InstrID {
	return c.add(&Instruction{name: name, op: OpBroadcast, operands: []InstrID{x}})
}

// AddCompare appends a comparison of lhs and rhs.
func (c *Computation) AddCompare(name string, dir Direction, lhs, rhs InstrID) InstrID {
	return c.add(&Instruction{name: name, op: OpCompare, direction: dir, operands: []InstrID{lhs, rhs}})
}

// AddSelect appends a select with the given predicate and branches.
func (c *Computation) AddSelect(name string, pred, onTrue, onFalse InstrID) InstrID {
	return c.add(&Instruction{name: name, op: OpSelect, operands: []InstrID{pred, onTrue, onFalse}})
}

// AddAdd appends an element-wise addition.
func (c *Computation) AddAdd(name string, lhs, rhs InstrID) InstrID {
	return c.add(&Instruction{name: name, op: OpAdd, operands: []InstrID{lhs, rhs}})
}

// AddTuple appends a tuple of the given elements.
func (c *Computation) AddTuple(name string, elems ...InstrID) InstrID {
	operands := make([]InstrID, len(elems))
	copy(operands, elems)
	return c.add(&Instruction{name: name, op: OpTuple, operands: operands})
}

// AddCollectivePermute appends a collective-permute of data with the given
// routing table and channel configuration.
func (c *Computation) AddCollectivePermute(name string, data InstrID, pairs []SourceTargetPair, cfg CollectiveConfig) InstrID {
	table := make([]SourceTargetPair, len(pairs))
	copy(table, pairs)
	return c.add(&Instruction{
		name:     name,
		op:       OpCollectivePermute,
		operands: []InstrID{data},
		pairs:    table,
		config:   cfg,
	})
}

// ReplaceOperand redirects operand slot i of user to target, updating
// reverse-use edges on both the old and the new operand. Both handles must
// be inside this computation's arena; the graph stays acyclic because
// target already exists in the arena and arena order is a topological
// order (operands always precede their users).
func (c *Computation) ReplaceOperand(user InstrID, i int, target InstrID) error {
	u := c.Instr(user)
	if u == nil {
		return fmt.Errorf("replace operand: user handle %d outside arena of %q", user, c.name)
	}
	if i < 0 || i >= len(u.operands) {
		return fmt.Errorf("replace operand: %s %q has %d operand(s), no slot %d", u.op, u.name, len(u.operands), i)
	}
	if c.Instr(target) == nil {
		return fmt.Errorf("replace operand: target handle %d outside arena of %q", target, c.name)
	}
	if target >= user {
		return fmt.Errorf("replace operand: target %d does not precede user %d, rewiring would break topological arena order", target, user)
	}

	old := u.operands[i]
	if old == target {
		return nil
	}
	u.operands[i] = target

	// Drop the use edge from the old operand unless another slot of the
	// same user still references it.
	stillUsed := false
	for _, opnd := range u.operands {
		if opnd == old {
			stillUsed = true
			break
		}
	}
	if !stillUsed {
		c.removeUser(old, user)
	}
	c.addUser(target, user)
	return nil
}

// addUser records user in id's use list, once per using instruction.
func (c *Computation) addUser(id, user InstrID) {
	in := c.instrs[id]
	for _, u := range in.users {
		if u == user {
			return
		}
	}
	in.users = append(in.users, user)
}

func (c *Computation) removeUser(id, user InstrID) {
	in := c.instrs[id]
	for i, u := range in.users {
		if u == user {
			in.users = append(in.users[:i], in.users[i+1:]...)
			return
		}
	}
}
