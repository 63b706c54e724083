package vm

import (
	"fmt"
	"strings"
)

// CompiledBlock is a block body compiled separately from the program that
// references it (component default/inverse blocks). OpPushBlock and
// OpInvokeStatic refer to blocks by index into CompiledProgram.Blocks.
type CompiledBlock struct {
	Code       []byte `cbor:"1,keyasint"`
	ParamSlots []int  `cbor:"2,keyasint,omitempty"`
}

// CompiledProgram is the output of linking: bytecode plus the literal pool
// and block table it indexes into.
//
// Literals hold strings (text, tag and attribute names, helper names),
// []string name lists (argument names), and component definition handles.
type CompiledProgram struct {
	Code        []byte           `cbor:"1,keyasint"`
	Literals    []any            `cbor:"2,keyasint"`
	Blocks      []*CompiledBlock `cbor:"3,keyasint,omitempty"`
	Symbols     []string         `cbor:"4,keyasint,omitempty"` // slot-1 -> symbol name; slot 0 is self
	LocalCount  int              `cbor:"5,keyasint"`           // frame size, symbols and locals included
	HasPartials bool             `cbor:"6,keyasint,omitempty"`
}

// Literal returns the literal at index i.
func (p *CompiledProgram) Literal(i int) (any, error) {
	if i < 0 || i >= len(p.Literals) {
		return nil, fmt.Errorf("literal index %d out of range (%d literals)", i, len(p.Literals))
	}
	return p.Literals[i], nil
}

// Instructions decodes the program's top-level bytecode.
func (p *CompiledProgram) Instructions() ([]Instruction, error) {
	return Decode(p.Code)
}

// Disassemble renders the program, its literal pool and its blocks.
func (p *CompiledProgram) Disassemble() string {
	var sb strings.Builder
	sb.WriteString("; literals\n")
	for i, lit := range p.Literals {
		fmt.Fprintf(&sb, ";   %d: %#v\n", i, lit)
	}
	fmt.Fprintf(&sb, "; frame size %d\n", p.LocalCount)
	sb.WriteString(Disassemble(p.Code))
	sb.WriteString("\n")
	for i, blk := range p.Blocks {
		fmt.Fprintf(&sb, "\n; block %d params %v\n", i, blk.ParamSlots)
		sb.WriteString(Disassemble(blk.Code))
		sb.WriteString("\n")
	}
	return sb.String()
}

// DefinitionRef is a component definition resolved at compile time, stored in
// the literal pool and referenced by OpInvokeStatic.
type DefinitionRef struct {
	Name   string `cbor:"1,keyasint"`
	Handle uint32 `cbor:"2,keyasint"`
}

func (d DefinitionRef) String() string {
	return fmt.Sprintf("<component %s#%d>", d.Name, d.Handle)
}
