package hlo

import "fmt"

// Opcode identifies an instruction kind. The set is closed: every switch
// over Opcode in this module lists all cases so that adding an opcode
// surfaces every dispatch site.
type Opcode int

const (
	// OpParameter is a computation input. Zero operands.
	OpParameter Opcode = iota

	// OpConstant carries a Literal payload. Zero operands.
	OpConstant

	// OpBroadcast expands a scalar to a larger shape. One operand.
	OpBroadcast

	// OpCompare evaluates an element-wise comparison. Two operands and a
	// Direction payload.
	OpCompare

	// OpSelect chooses between two values. Operands: predicate, on-true,
	// on-false.
	OpSelect

	// OpReplicaID yields the executing process's id in the replica
	// numbering space. Zero operands.
	OpReplicaID

	// OpPartitionID yields the executing process's id in the partition
	// numbering space. Zero operands.
	OpPartitionID

	// OpCollectivePermute routes data between processes according to a
	// source-target pair table. One data operand plus routing metadata.
	OpCollectivePermute

	// OpAdd is element-wise addition. Two operands.
	OpAdd

	// OpTuple groups values. Variadic.
	OpTuple
)

// String returns the lower-case mnemonic used by the text printer.
func (op Opcode) String() string {
	switch op {
	case OpParameter:
		return "parameter"
	case OpConstant:
		return "constant"
	case OpBroadcast:
		return "broadcast"
	case OpCompare:
		return "compare"
	case OpSelect:
		return "select"
	case OpReplicaID:
		return "replica-id"
	case OpPartitionID:
		return "partition-id"
	case OpCollectivePermute:
		return "collective-permute"
	case OpAdd:
		return "add"
	case OpTuple:
		return "tuple"
	}
	return fmt.Sprintf("opcode(%d)", int(op))
}

// OpcodeFromString maps a mnemonic back to its Opcode. Returns false for
// unknown mnemonics.
func OpcodeFromString(s string) (Opcode, bool) {
	for _, op := range []Opcode{
		OpParameter, OpConstant, OpBroadcast, OpCompare, OpSelect,
		OpReplicaID, OpPartitionID, OpCollectivePermute, OpAdd, OpTuple,
	} {
		if op.String() == s {
			return op, true
		}
	}
	return 0, false
}

// Arity returns the fixed operand count for an opcode, or -1 for variadic
// opcodes (OpTuple).
func (op Opcode) Arity() int {
	switch op {
	case OpParameter, OpConstant, OpReplicaID, OpPartitionID:
		return 0
	case OpBroadcast, OpCollectivePermute:
		return 1
	case OpCompare, OpAdd:
		return 2
	case OpSelect:
		return 3
	case OpTuple:
		return -1
	}
	return -1
}

// Direction is the comparison kind carried by an OpCompare instruction.
type Direction int

const (
	DirectionEq Direction = iota
	DirectionNe
	DirectionLt
	DirectionLe
	DirectionGt
	DirectionGe
)

// String returns the printer mnemonic (EQ, NE, ...).
func (d Direction) String() string {
	switch d {
	case DirectionEq:
		return "EQ"
	case DirectionNe:
		return "NE"
	case DirectionLt:
		return "LT"
	case DirectionLe:
		return "LE"
	case DirectionGt:
		return "GT"
	case DirectionGe:
		return "GE"
	}
	return fmt.Sprintf("direction(%d)", int(d))
}

// DirectionFromString maps a mnemonic back to its Direction. Returns false
// for unknown mnemonics.
func DirectionFromString(s string) (Direction, bool) {
	for _, d := range []Direction{
		DirectionEq, DirectionNe, DirectionLt, DirectionLe, DirectionGt, DirectionGe,
	} {
		if d.String() == s {
			return d, true
		}
	}
	return 0, false
}
