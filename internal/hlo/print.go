package hlo

import (
	"fmt"
	"strings"
)

// Print renders the module as deterministic text. The rendering is stable
// across runs for structurally identical modules (the generated module id
// is deliberately excluded), which makes it usable for golden files and
// for fingerprinting.
//
// Example:
//
//	module fold_uniform
//
//	computation main {
//	  %data = parameter()
//	  %zero = constant(s64 0)
//	  %pid = partition-id()
//	  %pred = compare(%pid, %zero), direction=NE
//	  %sel = select(%pred, %data, %zero)
//	  %cp = collective-permute(%sel), source_target_pairs={{1,0}, {2,1}}, channel_id=1
//	  root %cp
//	}
func Print(m *Module) string {
	var b strings.Builder
	fmt.Fprintf(&b, "module %s\n", m.Name())
	for _, comp := range m.Computations() {
		b.WriteString("\n")
		fmt.Fprintf(&b, "computation %s {\n", comp.Name())
		for _, in := range comp.Instructions() {
			fmt.Fprintf(&b, "  %s\n", printInstruction(comp, in))
		}
		if root := comp.Root(); root != InvalidInstr {
			fmt.Fprintf(&b, "  root %%%s\n", comp.Instr(root).Name())
		}
		b.WriteString("}\n")
	}
	return b.String()
}

func printInstruction(comp *Computation, in *Instruction) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%%%s = %s(", in.Name(), in.Op())

	switch in.Op() {
	case OpConstant:
		lit, _ := in.Literal()
		b.WriteString(lit.String())
	default:
		names := make([]string, in.NumOperands())
		for i := range names {
			names[i] = "%" + comp.Instr(in.Operand(i)).Name()
		}
		b.WriteString(strings.Join(names, ", "))
	}
	b.WriteString(")")

	if in.Op() == OpCompare {
		fmt.Fprintf(&b, ", direction=%s", in.Direction())
	}
	if in.Op() == OpCollectivePermute {
		fmt.Fprintf(&b, ", source_target_pairs=%s", printPairs(in.SourceTargetPairs()))
		if ch, ok := in.ChannelID(); ok {
			fmt.Fprintf(&b, ", channel_id=%d", ch)
		}
		if override, ok := in.GlobalIDsOverride(); ok {
			fmt.Fprintf(&b, ", use_global_ids=%t", override)
		}
	}
	return b.String()
}

func printPairs(pairs []SourceTargetPair) string {
	elems := make([]string, len(pairs))
	for i, p := range pairs {
		elems[i] = fmt.Sprintf("{%d,%d}", p.Source, p.Target)
	}
	return "{" + strings.Join(elems, ", ") + "}"
}
