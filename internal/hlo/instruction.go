package hlo

// InstrID is a stable handle to an instruction within its computation's
// arena. Handles are dense indices; they remain valid for the lifetime of
// the computation (instructions are never removed, only rewired).
type InstrID int

// InvalidInstr is the zero-value-adjacent sentinel for "no instruction".
const InvalidInstr InstrID = -1

// SourceTargetPair is one routing entry of a collective-permute: the
// process with id Source sends its data to the process with id Target.
type SourceTargetPair struct {
	Source int64 `json:"source"`
	Target int64 `json:"target"`
}

// CollectiveConfig is the routing metadata attached to a collective-permute
// instruction. ChannelID and GlobalIDsOverride are optional; nil means
// unset. The combination (GlobalIDsOverride=true, no ChannelID) is
// malformed and is rejected when the collective's group mode is derived,
// not at construction time.
type CollectiveConfig struct {
	ChannelID         *int64
	GlobalIDsOverride *bool
}

// Instruction is one node of the dataflow graph. All fields are package
// private; mutation goes through Computation methods so that reverse-use
// bookkeeping cannot be bypassed.
type Instruction struct {
	id       InstrID
	name     string
	op       Opcode
	operands []InstrID
	users    []InstrID

	// Opcode-specific payload. Only the fields relevant to op are set.
	literal   Literal            // OpConstant
	direction Direction          // OpCompare
	pairs     []SourceTargetPair // OpCollectivePermute
	config    CollectiveConfig   // OpCollectivePermute
}

// ID returns the instruction's handle in its computation's arena.
func (in *Instruction) ID() InstrID { return in.id }

// Name returns the instruction's unique name within its computation.
func (in *Instruction) Name() string { return in.name }

// Op returns the instruction's opcode.
func (in *Instruction) Op() Opcode { return in.op }

// NumOperands returns the operand count.
func (in *Instruction) NumOperands() int { return len(in.operands) }

// Operand returns the handle in operand slot i.
func (in *Instruction) Operand(i int) InstrID { return in.operands[i] }

// Operands returns a copy of the operand list.
func (in *Instruction) Operands() []InstrID {
	out := make([]InstrID, len(in.operands))
	copy(out, in.operands)
	return out
}

// Users returns a copy of the handles of instructions that use this one as
// an operand. Order follows first use.
func (in *Instruction) Users() []InstrID {
	out := make([]InstrID, len(in.users))
	copy(out, in.users)
	return out
}

// Literal returns the constant payload. The second return is false unless
// the opcode is OpConstant.
func (in *Instruction) Literal() (Literal, bool) {
	if in.op != OpConstant {
		return Literal{}, false
	}
	return in.literal, true
}

// Direction returns the comparison direction of an OpCompare instruction.
// Meaningful only when Op() == OpCompare.
func (in *Instruction) Direction() Direction { return in.direction }

// SourceTargetPairs returns a copy of the routing table of an
// OpCollectivePermute instruction. Empty for every other opcode.
func (in *Instruction) SourceTargetPairs() []SourceTargetPair {
	out := make([]SourceTargetPair, len(in.pairs))
	copy(out, in.pairs)
	return out
}

// ChannelID returns the collective's channel id. The second return is false
// when no channel id is set.
func (in *Instruction) ChannelID() (int64, bool) {
	if in.config.ChannelID == nil {
		return 0, false
	}
	return *in.config.ChannelID, true
}

// GlobalIDsOverride returns the collective's global-ids override flag. The
// second return is false when the flag is unset.
func (in *Instruction) GlobalIDsOverride() (bool, bool) {
	if in.config.GlobalIDsOverride == nil {
		return false, false
	}
	return *in.config.GlobalIDsOverride, true
}
