package hlo

import (
	"fmt"
	"strings"
)

// ElementType is the scalar type of a literal's elements.
type ElementType int

const (
	ElementS64 ElementType = iota
	ElementPred
)

// String returns the printer mnemonic.
func (t ElementType) String() string {
	switch t {
	case ElementS64:
		return "s64"
	case ElementPred:
		return "pred"
	}
	return fmt.Sprintf("element(%d)", int(t))
}

// Literal is the constant payload of an OpConstant instruction: an element
// type plus flat element data. A scalar literal has exactly one element.
type Literal struct {
	Type  ElementType
	Ints  []int64 // populated when Type == ElementS64
	Preds []bool  // populated when Type == ElementPred
}

// IntLiteral builds an s64 literal from the given elements.
func IntLiteral(elems ...int64) Literal {
	return Literal{Type: ElementS64, Ints: elems}
}

// PredLiteral builds a pred literal from the given elements.
func PredLiteral(elems ...bool) Literal {
	return Literal{Type: ElementPred, Preds: elems}
}

// FirstInteger returns the literal's first element as an integer. The second
// return is false when the literal is empty or not integer-typed.
func (l Literal) FirstInteger() (int64, bool) {
	if l.Type != ElementS64 || len(l.Ints) == 0 {
		return 0, false
	}
	return l.Ints[0], true
}

// String renders the literal in printer form, e.g. "s64 0" or "s64 {1, 2}".
func (l Literal) String() string {
	var elems []string
	switch l.Type {
	case ElementS64:
		for _, v := range l.Ints {
			elems = append(elems, fmt.Sprintf("%d", v))
		}
	case ElementPred:
		for _, v := range l.Preds {
			elems = append(elems, fmt.Sprintf("%t", v))
		}
	}
	if len(elems) == 1 {
		return fmt.Sprintf("%s %s", l.Type, elems[0])
	}
	return fmt.Sprintf("%s {%s}", l.Type, strings.Join(elems, ", "))
}
