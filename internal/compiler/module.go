// Package compiler builds hlo modules from declarative CUE descriptions.
//
// The CUE surface exists for the CLI and for fixture-heavy tests; passes
// themselves only ever see the in-memory hlo graph.
package compiler

import (
	"fmt"
	"os"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"cuelang.org/go/cue/errors"
	"cuelang.org/go/cue/token"

	"github.com/arvidh/loom/internal/hlo"
)

// moduleSpec mirrors the CUE shape of a module description:
//
//	module: {
//		name: "fold_uniform"
//		computations: [{
//			name: "main"
//			instructions: [
//				{name: "data", op: "parameter"},
//				{name: "zero", op: "constant", value: 0},
//				{name: "pid",  op: "partition-id"},
//				{name: "pred", op: "compare", direction: "NE", operands: ["pid", "zero"]},
//				{name: "sel",  op: "select", operands: ["pred", "data", "zero"]},
//				{name: "cp",   op: "collective-permute", operands: ["sel"],
//					source_target_pairs: [[1, 0], [2, 1]], channel_id: 1},
//			]
//			root: "cp"
//		}]
//	}
type moduleSpec struct {
	Name         string            `json:"name"`
	Computations []computationSpec `json:"computations"`
}

type computationSpec struct {
	Name         string            `json:"name"`
	Instructions []instructionSpec `json:"instructions"`
	Root         string            `json:"root,omitempty"`
}

type instructionSpec struct {
	Name     string   `json:"name"`
	Op       string   `json:"op"`
	Operands []string `json:"operands,omitempty"`

	// Opcode-specific payload.
	Direction         string       `json:"direction,omitempty"`
	Value             *int64       `json:"value,omitempty"` // scalar s64 constant shorthand
	Literal           *literalSpec `json:"literal,omitempty"`
	SourceTargetPairs [][2]int64   `json:"source_target_pairs,omitempty"`
	ChannelID         *int64       `json:"channel_id,omitempty"`
	UseGlobalIDs      *bool        `json:"use_global_ids,omitempty"`
}

type literalSpec struct {
	Type  string  `json:"type"`
	Ints  []int64 `json:"ints,omitempty"`
	Preds []bool  `json:"preds,omitempty"`
}

// CompileFile reads a CUE file and compiles the module it describes.
func CompileFile(path string) (*hlo.Module, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("compile module: %w", err)
	}
	return CompileString(string(src), path)
}

// CompileString compiles CUE source text into an hlo module. The filename
// is used for error positions only.
func CompileString(src, filename string) (*hlo.Module, error) {
	ctx := cuecontext.New()
	v := ctx.CompileString(src, cue.Filename(filename))
	if err := v.Err(); err != nil {
		return nil, formatCUEError(err)
	}
	return CompileModule(v.LookupPath(cue.ParsePath("module")))
}

// CompileModule parses a CUE value into an hlo module. Uses CUE SDK's Go
// API directly (not a CLI subprocess). The value should be the module
// struct itself.
func CompileModule(v cue.Value) (*hlo.Module, error) {
	if !v.Exists() {
		return nil, &CompileError{Field: "module", Message: "module struct is required", Pos: v.Pos()}
	}
	if err := v.Err(); err != nil {
		return nil, formatCUEError(err)
	}

	var spec moduleSpec
	if err := v.Decode(&spec); err != nil {
		return nil, formatCUEError(err)
	}
	if spec.Name == "" {
		return nil, &CompileError{Field: "module.name", Message: "name is required", Pos: v.Pos()}
	}

	m := hlo.NewModule(spec.Name)
	for _, compSpec := range spec.Computations {
		if err := buildComputation(m, compSpec, v.Pos()); err != nil {
			return nil, err
		}
	}

	if err := hlo.Validate(m); err != nil {
		return nil, &CompileError{Field: "module", Message: err.Error(), Pos: v.Pos()}
	}
	return m, nil
}

func buildComputation(m *hlo.Module, spec computationSpec, pos token.Pos) error {
	if spec.Name == "" {
		return &CompileError{Field: "computation.name", Message: "name is required", Pos: pos}
	}
	comp := m.NewComputation(spec.Name)

	byName := make(map[string]hlo.InstrID, len(spec.Instructions))
	for _, inSpec := range spec.Instructions {
		id, err := buildInstruction(comp, inSpec, byName, pos)
		if err != nil {
			return err
		}
		byName[inSpec.Name] = id
	}

	if spec.Root != "" {
		root, ok := byName[spec.Root]
		if !ok {
			return &CompileError{
				Field:   field(spec.Name, "root"),
				Message: fmt.Sprintf("unknown instruction %q", spec.Root),
				Pos:     pos,
			}
		}
		comp.SetRoot(root)
	}
	return nil
}

func buildInstruction(comp *hlo.Computation, spec instructionSpec, byName map[string]hlo.InstrID, pos token.Pos) (hlo.InstrID, error) {
	if spec.Name == "" {
		return hlo.InvalidInstr, &CompileError{Field: field(comp.Name(), "instruction"), Message: "name is required", Pos: pos}
	}
	if _, exists := byName[spec.Name]; exists {
		return hlo.InvalidInstr, &CompileError{
			Field:   field(comp.Name(), spec.Name),
			Message: "duplicate instruction name",
			Pos:     pos,
		}
	}

	op, ok := hlo.OpcodeFromString(spec.Op)
	if !ok {
		return hlo.InvalidInstr, &CompileError{
			Field:   field(comp.Name(), spec.Name),
			Message: fmt.Sprintf("unknown op %q", spec.Op),
			Pos:     pos,
		}
	}

	operands := make([]hlo.InstrID, len(spec.Operands))
	for i, name := range spec.Operands {
		id, ok := byName[name]
		if !ok {
			return hlo.InvalidInstr, &CompileError{
				Field:   field(comp.Name(), spec.Name),
				Message: fmt.Sprintf("operand %d references unknown instruction %q (operands must be defined earlier)", i, name),
				Pos:     pos,
			}
		}
		operands[i] = id
	}
	if arity := op.Arity(); arity >= 0 && len(operands) != arity {
		return hlo.InvalidInstr, &CompileError{
			Field:   field(comp.Name(), spec.Name),
			Message: fmt.Sprintf("%s takes %d operand(s), got %d", op, arity, len(operands)),
			Pos:     pos,
		}
	}

	switch op {
	case hlo.OpParameter:
		return comp.AddParameter(spec.Name), nil

	case hlo.OpConstant:
		lit, err := buildLiteral(comp.Name(), spec, pos)
		if err != nil {
			return hlo.InvalidInstr, err
		}
		return comp.AddConstant(spec.Name, lit), nil

	case hlo.OpReplicaID:
		return comp.AddReplicaID(spec.Name), nil

	case hlo.OpPartitionID:
		return comp.AddPartitionID(spec.Name), nil

	case hlo.OpBroadcast:
		return comp.AddBroadcast(spec.Name, operands[0]), nil

	case hlo.OpCompare:
		dir, ok := hlo.DirectionFromString(spec.Direction)
		if !ok {
			return hlo.InvalidInstr, &CompileError{
				Field:   field(comp.Name(), spec.Name),
				Message: fmt.Sprintf("compare requires a direction, got %q", spec.Direction),
				Pos:     pos,
			}
		}
		return comp.AddCompare(spec.Name, dir, operands[0], operands[1]), nil

	case hlo.OpSelect:
		return comp.AddSelect(spec.Name, operands[0], operands[1], operands[2]), nil

	case hlo.OpAdd:
		return comp.AddAdd(spec.Name, operands[0], operands[1]), nil

	case hlo.OpTuple:
		return comp.AddTuple(spec.Name, operands...), nil

	case hlo.OpCollectivePermute:
		pairs := make([]hlo.SourceTargetPair, len(spec.SourceTargetPairs))
		for i, p := range spec.SourceTargetPairs {
			pairs[i] = hlo.SourceTargetPair{Source: p[0], Target: p[1]}
		}
		return comp.AddCollectivePermute(spec.Name, operands[0], pairs, hlo.CollectiveConfig{
			ChannelID:         spec.ChannelID,
			GlobalIDsOverride: spec.UseGlobalIDs,
		}), nil
	}

	return hlo.InvalidInstr, &CompileError{
		Field:   field(comp.Name(), spec.Name),
		Message: fmt.Sprintf("op %q has no builder", spec.Op),
		Pos:     pos,
	}
}

func buildLiteral(compName string, spec instructionSpec, pos token.Pos) (hlo.Literal, error) {
	switch {
	case spec.Value != nil && spec.Literal != nil:
		return hlo.Literal{}, &CompileError{
			Field:   field(compName, spec.Name),
			Message: "value and literal are mutually exclusive",
			Pos:     pos,
		}
	case spec.Value != nil:
		return hlo.IntLiteral(*spec.Value), nil
	case spec.Literal != nil:
		switch spec.Literal.Type {
		case "s64":
			return hlo.IntLiteral(spec.Literal.Ints...), nil
		case "pred":
			return hlo.PredLiteral(spec.Literal.Preds...), nil
		default:
			return hlo.Literal{}, &CompileError{
				Field:   field(compName, spec.Name),
				Message: fmt.Sprintf("unknown literal type %q", spec.Literal.Type),
				Pos:     pos,
			}
		}
	default:
		return hlo.Literal{}, &CompileError{
			Field:   field(compName, spec.Name),
			Message: "constant requires a value or literal",
			Pos:     pos,
		}
	}
}

func field(parts ...string) string {
	out := parts[0]
	for _, p := range parts[1:] {
		out += "." + p
	}
	return out
}

// CompileError represents a compilation error with source position.
type CompileError struct {
	Field   string
	Message string
	Pos     token.Pos
}

func (e *CompileError) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: %s: %s",
			e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(),
			e.Field, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// formatCUEError extracts position info from CUE errors.
func formatCUEError(err error) error {
	if err == nil {
		return nil
	}

	// CUE errors may contain multiple errors
	errs := errors.Errors(err)
	if len(errs) == 0 {
		return err
	}

	firstErr := errs[0]
	positions := errors.Positions(firstErr)
	if len(positions) > 0 {
		return &CompileError{
			Field:   "cue",
			Message: firstErr.Error(),
			Pos:     positions[0],
		}
	}
	return err
}
