package vm

import (
	"encoding/binary"
	"fmt"
	"strings"
)

// ---------------------------------------------------------------------------
// Opcode definitions
// ---------------------------------------------------------------------------

// Opcode represents a single rendering VM instruction.
type Opcode byte

// Push Constants
const (
	OpPushLiteral Opcode = 0x10 // push literal (16-bit index)
	OpPushNull    Opcode = 0x11 // push null reference
)

// Variable Operations
const (
	OpGetLocal    Opcode = 0x20 // push symbol/local slot (16-bit slot)
	OpSetLocal    Opcode = 0x21 // pop into symbol/local slot (16-bit slot)
	OpGetProperty Opcode = 0x22 // pop ref, push ref.key (16-bit key literal)
	OpHasBlock    Opcode = 0x23 // push whether block slot is bound (16-bit slot)
)

// Expressions
const (
	OpHelper           Opcode = 0x30 // call helper (16-bit name literal, 8-bit positional, 16-bit names literal)
	OpConcat           Opcode = 0x31 // concatenate N references (8-bit count)
	OpClientExpression Opcode = 0x32 // client-side expression extension (16-bit name literal, 8-bit argc)
)

// Element Construction
const (
	OpText               Opcode = 0x40 // append static text (16-bit literal)
	OpComment            Opcode = 0x41 // append comment (16-bit literal)
	OpAppend             Opcode = 0x42 // pop ref, append content (8-bit trusted flag)
	OpOpenElement        Opcode = 0x43 // open element with literal tag (16-bit literal)
	OpOpenDynamicElement Opcode = 0x44 // pop tag ref, open element
	OpStaticAttr         Opcode = 0x45 // static attribute (16-bit name, 16-bit value, 16-bit namespace)
	OpDynamicAttr        Opcode = 0x46 // pop ref, dynamic attribute (16-bit name, 16-bit namespace, 8-bit trusted)
	OpFlushElement       Opcode = 0x47 // end of attribute-writing phase
	OpCloseElement       Opcode = 0x48 // close current element
	OpModifier           Opcode = 0x49 // install element modifier (16-bit name literal, 8-bit positional, 16-bit names literal)
)

// Control Flow
const (
	OpJump       Opcode = 0x60 // unconditional jump (16-bit offset)
	OpJumpUnless Opcode = 0x62 // pop condition, jump if false (16-bit offset)
	OpTest       Opcode = 0x63 // pop ref, push condition (8-bit test kind)
)

// Blocks
const (
	OpPushBlock           Opcode = 0x70 // push block handle (16-bit block index, NoBlock for none)
	OpYield               Opcode = 0x71 // invoke block in slot (16-bit slot, 8-bit argc)
	OpClientSideStatement Opcode = 0x72 // client-side statement extension (16-bit name literal, 8-bit argc)
	OpInvokePartial       Opcode = 0x73 // pop name, render partial (16-bit owner, 16-bit local names, 16-bit local slots)
)

// Components
const (
	OpInvokeStatic                Opcode = 0x80 // invoke resolved component (16-bit def, 8-bit positional, 16-bit names, 16-bit default, 16-bit inverse)
	OpPushDynamicComponentManager Opcode = 0x81 // pop definition, push manager + definition
	OpSetComponentState           Opcode = 0x82 // pop into component state slot (16-bit slot)
	OpPushArgs                    Opcode = 0x83 // pack arguments (8-bit named count, 8-bit positional, 16-bit names literal)
	OpCreateComponent             Opcode = 0x84 // create instance (8-bit flags, 16-bit state slot)
	OpRegisterDestructor          Opcode = 0x85 // register instance destructor (16-bit state slot)
	OpBeginTransaction            Opcode = 0x86 // begin component render transaction
	OpGetComponentSelf            Opcode = 0x87 // push instance self (16-bit state slot)
	OpGetComponentLayout          Opcode = 0x88 // push instance layout (16-bit state slot)
	OpInvokeDynamicLayout         Opcode = 0x89 // invoke layout binding named args (16-bit names literal)
	OpDidCreateElement            Opcode = 0x8A // element-created hook (16-bit state slot)
	OpDidRenderLayout             Opcode = 0x8B // layout-rendered hook (16-bit state slot)
	OpCommitTransaction           Opcode = 0x8C // commit component render transaction
)

// Scopes
const (
	OpPushDynamicScope Opcode = 0x90 // push dynamic-scope frame
	OpPopDynamicScope  Opcode = 0x91 // pop dynamic-scope frame
	OpPopScope         Opcode = 0x92 // pop lexical scope
)

// Returns
const (
	OpReturn Opcode = 0xF0 // end of program or block
)

// NoBlock is the OpPushBlock / OpInvokeStatic operand for an absent block.
const NoBlock = 0xFFFF

// TestKind selects the truthiness test applied by OpTest.
type TestKind uint8

const (
	// TestSimple treats null, undefined, false and the empty string as false.
	TestSimple TestKind = 0
)

// Component creation flags (OpCreateComponent).
const (
	FlagDynamicInvocation   uint8 = 1 << 0
	FlagSplattributesTarget uint8 = 1 << 1
)

// ---------------------------------------------------------------------------
// Opcode metadata
// ---------------------------------------------------------------------------

// OpcodeInfo holds metadata about an opcode.
type OpcodeInfo struct {
	Name        string // human-readable name
	Operands    []int  // byte width of each operand, in order
	StackEffect int    // net effect on stack (-1 = variable)
}

// OperandBytes returns the total operand width.
func (i OpcodeInfo) OperandBytes() int {
	n := 0
	for _, w := range i.Operands {
		n += w
	}
	return n
}

var (
	none = []int{}
	u8   = []int{1}
	u16  = []int{2}
)

// opcodeTable maps opcodes to their metadata.
var opcodeTable = map[Opcode]OpcodeInfo{
	// Push constants
	OpPushLiteral: {"PUSH_LITERAL", u16, 1},
	OpPushNull:    {"PUSH_NULL", none, 1},

	// Variables
	OpGetLocal:    {"GET_LOCAL", u16, 1},
	OpSetLocal:    {"SET_LOCAL", u16, -1},
	OpGetProperty: {"GET_PROPERTY", u16, 0},
	OpHasBlock:    {"HAS_BLOCK", u16, 1},

	// Expressions
	OpHelper:           {"HELPER", []int{2, 1, 2}, -1}, // pops args, pushes 1
	OpConcat:           {"CONCAT", u8, -1},
	OpClientExpression: {"CLIENT_SIDE_EXPRESSION", []int{2, 1}, -1},

	// Elements
	OpText:               {"TEXT", u16, 0},
	OpComment:            {"COMMENT", u16, 0},
	OpAppend:             {"APPEND", u8, -1},
	OpOpenElement:        {"OPEN_ELEMENT", u16, 0},
	OpOpenDynamicElement: {"OPEN_DYNAMIC_ELEMENT", none, -1},
	OpStaticAttr:         {"STATIC_ATTR", []int{2, 2, 2}, 0},
	OpDynamicAttr:        {"DYNAMIC_ATTR", []int{2, 2, 1}, -1},
	OpFlushElement:       {"FLUSH_ELEMENT", none, 0},
	OpCloseElement:       {"CLOSE_ELEMENT", none, 0},
	OpModifier:           {"MODIFIER", []int{2, 1, 2}, -1},

	// Control flow
	OpJump:       {"JUMP", u16, 0},
	OpJumpUnless: {"JUMP_UNLESS", u16, -1},
	OpTest:       {"TEST", u8, 0},

	// Blocks
	OpPushBlock:           {"PUSH_BLOCK", u16, 1},
	OpYield:               {"YIELD", []int{2, 1}, -1},
	OpClientSideStatement: {"CLIENT_SIDE_STATEMENT", []int{2, 1}, -1},
	OpInvokePartial:       {"INVOKE_PARTIAL", []int{2, 2, 2}, -1},

	// Components
	OpInvokeStatic:                {"INVOKE_STATIC", []int{2, 1, 2, 2, 2}, -1},
	OpPushDynamicComponentManager: {"PUSH_DYNAMIC_COMPONENT_MANAGER", none, 1},
	OpSetComponentState:           {"SET_COMPONENT_STATE", u16, -1},
	OpPushArgs:                    {"PUSH_ARGS", []int{1, 1, 2}, -1},
	OpCreateComponent:             {"CREATE_COMPONENT", []int{1, 2}, -1},
	OpRegisterDestructor:          {"REGISTER_COMPONENT_DESTRUCTOR", u16, 0},
	OpBeginTransaction:            {"BEGIN_COMPONENT_TRANSACTION", none, 0},
	OpGetComponentSelf:            {"GET_COMPONENT_SELF", u16, 1},
	OpGetComponentLayout:          {"GET_COMPONENT_LAYOUT", u16, 1},
	OpInvokeDynamicLayout:         {"INVOKE_DYNAMIC_LAYOUT", u16, -2},
	OpDidCreateElement:            {"DID_CREATE_ELEMENT", u16, 0},
	OpDidRenderLayout:             {"DID_RENDER_LAYOUT", u16, 0},
	OpCommitTransaction:           {"COMMIT_COMPONENT_TRANSACTION", none, 0},

	// Scopes
	OpPushDynamicScope: {"PUSH_DYNAMIC_SCOPE", none, 0},
	OpPopDynamicScope:  {"POP_DYNAMIC_SCOPE", none, 0},
	OpPopScope:         {"POP_SCOPE", none, 0},

	// Returns
	OpReturn: {"RETURN", none, 0},
}

// Info returns the metadata for an opcode.
func (op Opcode) Info() OpcodeInfo {
	if info, ok := opcodeTable[op]; ok {
		return info
	}
	return OpcodeInfo{Name: fmt.Sprintf("UNKNOWN_%02X", byte(op)), Operands: none}
}

// Known reports whether op belongs to the instruction set.
func (op Opcode) Known() bool {
	_, ok := opcodeTable[op]
	return ok
}

// Name returns the human-readable name for an opcode.
func (op Opcode) Name() string {
	return op.Info().Name
}

// OperandBytes returns the number of operand bytes for an opcode.
func (op Opcode) OperandBytes() int {
	return op.Info().OperandBytes()
}

// IsJump reports whether op carries a relative jump offset.
func (op Opcode) IsJump() bool {
	return op == OpJump || op == OpJumpUnless
}

// String implements the Stringer interface.
func (op Opcode) String() string {
	return op.Name()
}

// ---------------------------------------------------------------------------
// BytecodeBuilder: Helper for constructing bytecode
// ---------------------------------------------------------------------------

// BytecodeBuilder helps construct bytecode sequences.
type BytecodeBuilder struct {
	bytes   []byte
	pending int
}

// NewBytecodeBuilder creates a new bytecode builder.
func NewBytecodeBuilder() *BytecodeBuilder {
	return &BytecodeBuilder{
		bytes: make([]byte, 0, 64),
	}
}

// Bytes returns the constructed bytecode.
func (b *BytecodeBuilder) Bytes() []byte {
	return b.bytes
}

// Len returns the current length.
func (b *BytecodeBuilder) Len() int {
	return len(b.bytes)
}

// Emit appends an opcode followed by its operands, each encoded at the width
// the opcode table declares for it (little-endian). Passing the wrong number
// of operands is a programming error and panics.
func (b *BytecodeBuilder) Emit(op Opcode, operands ...int) {
	info, ok := opcodeTable[op]
	if !ok {
		panic(fmt.Sprintf("emit: unknown opcode 0x%02X", byte(op)))
	}
	if op.IsJump() {
		panic(fmt.Sprintf("emit: %s must be emitted with EmitJump", info.Name))
	}
	if len(operands) != len(info.Operands) {
		panic(fmt.Sprintf("emit: %s takes %d operands, got %d", info.Name, len(info.Operands), len(operands)))
	}
	b.bytes = append(b.bytes, byte(op))
	for i, w := range info.Operands {
		b.appendOperand(w, operands[i])
	}
}

func (b *BytecodeBuilder) appendOperand(width, v int) {
	switch width {
	case 1:
		if v < 0 || v > 0xFF {
			panic(fmt.Sprintf("emit: operand %d does not fit in 8 bits", v))
		}
		b.bytes = append(b.bytes, byte(v))
	case 2:
		if v < 0 || v > 0xFFFF {
			panic(fmt.Sprintf("emit: operand %d does not fit in 16 bits", v))
		}
		b.bytes = append(b.bytes, byte(v), byte(v>>8))
	default:
		panic(fmt.Sprintf("emit: unsupported operand width %d", width))
	}
}

// ---------------------------------------------------------------------------
// Label management for jumps
// ---------------------------------------------------------------------------

// Label represents a forward reference in bytecode.
type Label struct {
	resolved bool
	position int   // target position once resolved
	refs     []int // operand positions that reference this label
}

// Resolved reports whether the label has been marked.
func (l *Label) Resolved() bool {
	return l.resolved
}

// NewLabel creates an unresolved label.
func (b *BytecodeBuilder) NewLabel() *Label {
	return &Label{resolved: false, refs: make([]int, 0, 2)}
}

// Mark resolves a label to the current position.
func (b *BytecodeBuilder) Mark(label *Label) {
	if label.resolved {
		panic("label already resolved")
	}
	label.resolved = true
	label.position = len(b.bytes)

	// Patch all forward references
	for _, ref := range label.refs {
		offset := label.position - (ref + 2) // offset from after the operand
		b.bytes[ref] = byte(offset)
		b.bytes[ref+1] = byte(offset >> 8)
	}
	b.pending -= len(label.refs)
	label.refs = nil
}

// EmitJump emits a jump instruction with a label.
func (b *BytecodeBuilder) EmitJump(op Opcode, label *Label) {
	if !op.IsJump() {
		panic(fmt.Sprintf("emit: %s is not a jump", op))
	}
	b.bytes = append(b.bytes, byte(op))
	if label.resolved {
		// Backward jump: calculate offset
		offset := label.position - (len(b.bytes) + 2)
		b.bytes = append(b.bytes, byte(offset), byte(offset>>8))
	} else {
		// Forward jump: record position for later patching
		label.refs = append(label.refs, len(b.bytes))
		b.bytes = append(b.bytes, 0, 0) // placeholder
		b.pending++
	}
}

// Pending returns the number of forward jump operands still waiting for
// their label to be marked. A finished program must have none.
func (b *BytecodeBuilder) Pending() int {
	return b.pending
}

// ---------------------------------------------------------------------------
// Bytecode reader for decoding and disassembly
// ---------------------------------------------------------------------------

// BytecodeReader reads bytecode for interpretation or disassembly.
type BytecodeReader struct {
	bytes []byte
	pos   int
}

// NewBytecodeReader creates a reader for bytecode.
func NewBytecodeReader(bc []byte) *BytecodeReader {
	return &BytecodeReader{bytes: bc, pos: 0}
}

// Position returns the current read position.
func (r *BytecodeReader) Position() int {
	return r.pos
}

// HasMore returns true if there are more bytes to read.
func (r *BytecodeReader) HasMore() bool {
	return r.pos < len(r.bytes)
}

// Remaining returns the number of unread bytes.
func (r *BytecodeReader) Remaining() int {
	return len(r.bytes) - r.pos
}

// ReadOpcode reads and returns the next opcode.
func (r *BytecodeReader) ReadOpcode() Opcode {
	if r.pos >= len(r.bytes) {
		panic("bytecode underflow")
	}
	op := Opcode(r.bytes[r.pos])
	r.pos++
	return op
}

// ReadByte reads a single byte operand.
func (r *BytecodeReader) ReadByte() byte {
	if r.pos >= len(r.bytes) {
		panic("bytecode underflow")
	}
	b := r.bytes[r.pos]
	r.pos++
	return b
}

// ReadUint16 reads a 16-bit operand (little-endian).
func (r *BytecodeReader) ReadUint16() uint16 {
	if r.pos+2 > len(r.bytes) {
		panic("bytecode underflow")
	}
	v := binary.LittleEndian.Uint16(r.bytes[r.pos:])
	r.pos += 2
	return v
}

// ReadInt16 reads a signed 16-bit operand (little-endian).
func (r *BytecodeReader) ReadInt16() int16 {
	return int16(r.ReadUint16())
}

// Skip advances the position by n bytes.
func (r *BytecodeReader) Skip(n int) {
	r.pos += n
}

// ---------------------------------------------------------------------------
// Decoding
// ---------------------------------------------------------------------------

// Instruction is one decoded instruction.
type Instruction struct {
	Pos      int
	Op       Opcode
	Operands []int
}

// Target returns the absolute jump target of a jump instruction.
func (in Instruction) Target() int {
	return in.Pos + 3 + in.Operands[0]
}

// Decode splits bytecode into instructions. It fails on unknown opcodes and
// on truncated operands rather than panicking.
func Decode(bc []byte) ([]Instruction, error) {
	r := NewBytecodeReader(bc)
	var out []Instruction
	for r.HasMore() {
		pos := r.Position()
		op := r.ReadOpcode()
		if !op.Known() {
			return nil, fmt.Errorf("decode: unknown opcode 0x%02X at %d", byte(op), pos)
		}
		info := op.Info()
		if r.Remaining() < info.OperandBytes() {
			return nil, fmt.Errorf("decode: truncated %s at %d", info.Name, pos)
		}
		in := Instruction{Pos: pos, Op: op, Operands: make([]int, len(info.Operands))}
		for i, w := range info.Operands {
			switch {
			case op.IsJump():
				in.Operands[i] = int(r.ReadInt16())
			case w == 1:
				in.Operands[i] = int(r.ReadByte())
			default:
				in.Operands[i] = int(r.ReadUint16())
			}
		}
		out = append(out, in)
	}
	return out, nil
}

// ---------------------------------------------------------------------------
// Disassembly
// ---------------------------------------------------------------------------

// DisassembleInstruction formats a single decoded instruction.
func DisassembleInstruction(in Instruction) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "%04d  %s", in.Pos, in.Op.Name())
	if in.Op.IsJump() {
		fmt.Fprintf(&sb, " %d (-> %04d)", in.Operands[0], in.Target())
		return sb.String()
	}
	for _, v := range in.Operands {
		fmt.Fprintf(&sb, " %d", v)
	}
	return sb.String()
}

// Disassemble returns a full disassembly of bytecode.
func Disassemble(bc []byte) string {
	ins, err := Decode(bc)
	if err != nil {
		return "; " + err.Error()
	}
	lines := make([]string, len(ins))
	for i, in := range ins {
		lines[i] = DisassembleInstruction(in)
	}
	return strings.Join(lines, "\n")
}
