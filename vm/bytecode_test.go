package vm

import (
	"strings"
	"testing"
)

// ---------------------------------------------------------------------------
// Opcode metadata tests
// ---------------------------------------------------------------------------

func TestOpcodeInfo(t *testing.T) {
	tests := []struct {
		op           Opcode
		name         string
		operandBytes int
	}{
		{OpPushLiteral, "PUSH_LITERAL", 2},
		{OpPushNull, "PUSH_NULL", 0},
		{OpGetLocal, "GET_LOCAL", 2},
		{OpSetLocal, "SET_LOCAL", 2},
		{OpHelper, "HELPER", 5},
		{OpConcat, "CONCAT", 1},
		{OpText, "TEXT", 2},
		{OpAppend, "APPEND", 1},
		{OpOpenElement, "OPEN_ELEMENT", 2},
		{OpOpenDynamicElement, "OPEN_DYNAMIC_ELEMENT", 0},
		{OpStaticAttr, "STATIC_ATTR", 6},
		{OpDynamicAttr, "DYNAMIC_ATTR", 5},
		{OpFlushElement, "FLUSH_ELEMENT", 0},
		{OpCloseElement, "CLOSE_ELEMENT", 0},
		{OpModifier, "MODIFIER", 5},
		{OpJump, "JUMP", 2},
		{OpJumpUnless, "JUMP_UNLESS", 2},
		{OpTest, "TEST", 1},
		{OpYield, "YIELD", 3},
		{OpInvokePartial, "INVOKE_PARTIAL", 6},
		{OpInvokeStatic, "INVOKE_STATIC", 9},
		{OpPushArgs, "PUSH_ARGS", 4},
		{OpCreateComponent, "CREATE_COMPONENT", 3},
		{OpRegisterDestructor, "REGISTER_COMPONENT_DESTRUCTOR", 2},
		{OpCommitTransaction, "COMMIT_COMPONENT_TRANSACTION", 0},
		{OpReturn, "RETURN", 0},
	}

	for _, tt := range tests {
		info := tt.op.Info()
		if info.Name != tt.name {
			t.Errorf("%s: Name = %q, want %q", tt.op, info.Name, tt.name)
		}
		if info.OperandBytes() != tt.operandBytes {
			t.Errorf("%s: OperandBytes = %d, want %d", tt.op, info.OperandBytes(), tt.operandBytes)
		}
	}
}

func TestOpcodeNamesUnique(t *testing.T) {
	seen := make(map[string]Opcode)
	for op, info := range opcodeTable {
		if prev, ok := seen[info.Name]; ok {
			t.Errorf("opcodes 0x%02X and 0x%02X share name %s", byte(prev), byte(op), info.Name)
		}
		seen[info.Name] = op
	}
}

func TestOpcodeString(t *testing.T) {
	if OpFlushElement.String() != "FLUSH_ELEMENT" {
		t.Errorf("String() = %q, want %q", OpFlushElement.String(), "FLUSH_ELEMENT")
	}
}

func TestUnknownOpcode(t *testing.T) {
	op := Opcode(0xFF)
	if op.Known() {
		t.Fatal("0xFF should not be a known opcode")
	}
	info := op.Info()
	if !strings.HasPrefix(info.Name, "UNKNOWN_") {
		t.Errorf("unknown opcode should have UNKNOWN_ prefix, got %q", info.Name)
	}
}

func TestOpcodeSetIsClosed(t *testing.T) {
	// Every opcode the compiler can emit, and nothing else.
	want := []Opcode{
		OpPushLiteral, OpPushNull,
		OpGetLocal, OpSetLocal, OpGetProperty, OpHasBlock,
		OpHelper, OpConcat, OpClientExpression,
		OpText, OpComment, OpAppend, OpOpenElement, OpOpenDynamicElement,
		OpStaticAttr, OpDynamicAttr, OpFlushElement, OpCloseElement, OpModifier,
		OpJump, OpJumpUnless, OpTest,
		OpPushBlock, OpYield, OpClientSideStatement, OpInvokePartial,
		OpInvokeStatic, OpPushDynamicComponentManager, OpSetComponentState,
		OpPushArgs, OpCreateComponent, OpRegisterDestructor, OpBeginTransaction,
		OpGetComponentSelf, OpGetComponentLayout, OpInvokeDynamicLayout,
		OpDidCreateElement, OpDidRenderLayout, OpCommitTransaction,
		OpPushDynamicScope, OpPopDynamicScope, OpPopScope,
		OpReturn,
	}
	if len(opcodeTable) != len(want) {
		t.Errorf("opcode table has %d entries, want %d", len(opcodeTable), len(want))
	}
	for _, op := range want {
		if !op.Known() {
			t.Errorf("0x%02X missing from the opcode table", byte(op))
		}
	}
	for _, b := range []byte{0x00, 0x01, 0x02, 0x61} {
		if Opcode(b).Known() {
			t.Errorf("0x%02X should not be an opcode", b)
		}
	}
}

// ---------------------------------------------------------------------------
// BytecodeBuilder tests
// ---------------------------------------------------------------------------

func TestBytecodeBuilderEmit(t *testing.T) {
	b := NewBytecodeBuilder()
	b.Emit(OpFlushElement)
	b.Emit(OpCloseElement)
	b.Emit(OpReturn)

	bytes := b.Bytes()
	if len(bytes) != 3 {
		t.Fatalf("len = %d, want 3", len(bytes))
	}
	if Opcode(bytes[0]) != OpFlushElement {
		t.Error("byte 0 should be FLUSH_ELEMENT")
	}
	if Opcode(bytes[1]) != OpCloseElement {
		t.Error("byte 1 should be CLOSE_ELEMENT")
	}
	if Opcode(bytes[2]) != OpReturn {
		t.Error("byte 2 should be RETURN")
	}
}

func TestBytecodeBuilderEmitUint16(t *testing.T) {
	b := NewBytecodeBuilder()
	b.Emit(OpPushLiteral, 0x1234)

	bytes := b.Bytes()
	if len(bytes) != 3 {
		t.Fatalf("len = %d, want 3", len(bytes))
	}
	// Little-endian
	if bytes[1] != 0x34 || bytes[2] != 0x12 {
		t.Errorf("operand bytes = [%02X, %02X], want [34, 12]", bytes[1], bytes[2])
	}
}

func TestBytecodeBuilderEmitMixedWidths(t *testing.T) {
	b := NewBytecodeBuilder()
	b.Emit(OpHelper, 300, 2, 7)

	want := []byte{byte(OpHelper), 0x2C, 0x01, 2, 7, 0}
	got := b.Bytes()
	if len(got) != len(want) {
		t.Fatalf("len = %d, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("byte %d = %02X, want %02X", i, got[i], want[i])
		}
	}
}

func TestBytecodeBuilderEmitPanics(t *testing.T) {
	tests := []struct {
		name string
		emit func(b *BytecodeBuilder)
	}{
		{"unknown opcode", func(b *BytecodeBuilder) { b.Emit(Opcode(0xFF)) }},
		{"jump via Emit", func(b *BytecodeBuilder) { b.Emit(OpJump, 0) }},
		{"missing operand", func(b *BytecodeBuilder) { b.Emit(OpText) }},
		{"extra operand", func(b *BytecodeBuilder) { b.Emit(OpFlushElement, 1) }},
		{"u8 overflow", func(b *BytecodeBuilder) { b.Emit(OpConcat, 256) }},
		{"u16 overflow", func(b *BytecodeBuilder) { b.Emit(OpText, 0x10000) }},
		{"negative", func(b *BytecodeBuilder) { b.Emit(OpGetLocal, -1) }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			defer func() {
				if r := recover(); r == nil {
					t.Error("expected panic")
				}
			}()
			tt.emit(NewBytecodeBuilder())
		})
	}
}

func TestBytecodeBuilderLen(t *testing.T) {
	b := NewBytecodeBuilder()
	if b.Len() != 0 {
		t.Errorf("initial Len() = %d, want 0", b.Len())
	}
	b.Emit(OpFlushElement)
	b.Emit(OpText, 1)
	if b.Len() != 4 {
		t.Errorf("Len() = %d, want 4", b.Len())
	}
}

// ---------------------------------------------------------------------------
// Label tests
// ---------------------------------------------------------------------------

func TestLabelForwardJump(t *testing.T) {
	b := NewBytecodeBuilder()
	label := b.NewLabel()

	// Emit a forward jump
	b.EmitJump(OpJumpUnless, label) // 3 bytes: op + 2 byte offset
	b.Emit(OpFlushElement)          // 1 byte (position 3)
	b.Emit(OpCloseElement)          // 1 byte (position 4)
	if b.Pending() != 1 {
		t.Errorf("Pending() = %d before mark, want 1", b.Pending())
	}
	b.Mark(label) // Target position 5
	b.Emit(OpReturn)

	bytes := b.Bytes()
	// The jump offset should be 2 (from position 3 to position 5)
	offset := int16(bytes[1]) | (int16(bytes[2]) << 8)
	if offset != 2 {
		t.Errorf("forward jump offset = %d, want 2", offset)
	}
	if b.Pending() != 0 {
		t.Errorf("Pending() = %d after mark, want 0", b.Pending())
	}
	if !label.Resolved() {
		t.Error("label should be resolved")
	}
}

func TestLabelBackwardJump(t *testing.T) {
	b := NewBytecodeBuilder()
	label := b.NewLabel()

	b.Mark(label)             // Target position 0
	b.Emit(OpFlushElement)    // 1 byte (position 0)
	b.Emit(OpCloseElement)    // 1 byte (position 1)
	b.EmitJump(OpJump, label) // 3 bytes at position 2

	bytes := b.Bytes()
	// The jump should go back 5 bytes (from position 5 to position 0)
	offset := int16(bytes[3]) | (int16(bytes[4]) << 8)
	if offset != -5 {
		t.Errorf("backward jump offset = %d, want -5", offset)
	}
	if b.Pending() != 0 {
		t.Errorf("backward jumps should not be pending, got %d", b.Pending())
	}
}

func TestLabelDoubleMark(t *testing.T) {
	defer func() {
		if r := recover(); r == nil {
			t.Error("double mark should panic")
		}
	}()

	b := NewBytecodeBuilder()
	label := b.NewLabel()
	b.Mark(label)
	b.Mark(label) // Should panic
}

func TestEmitJumpRejectsNonJump(t *testing.T) {
	defer func() {
		if r := recover(); r == nil {
			t.Error("EmitJump with a non-jump opcode should panic")
		}
	}()
	b := NewBytecodeBuilder()
	b.EmitJump(OpText, b.NewLabel())
}

// ---------------------------------------------------------------------------
// BytecodeReader tests
// ---------------------------------------------------------------------------

func TestBytecodeReader(t *testing.T) {
	bc := []byte{byte(OpText), 0x34, 0x12, byte(OpAppend), 1, byte(OpJump), 0xFE, 0xFF}
	r := NewBytecodeReader(bc)

	if op := r.ReadOpcode(); op != OpText {
		t.Fatalf("op = %s, want TEXT", op)
	}
	if v := r.ReadUint16(); v != 0x1234 {
		t.Errorf("uint16 = %04X, want 1234", v)
	}
	if op := r.ReadOpcode(); op != OpAppend {
		t.Fatalf("op = %s, want APPEND", op)
	}
	if v := r.ReadByte(); v != 1 {
		t.Errorf("byte = %d, want 1", v)
	}
	if r.Remaining() != 3 {
		t.Errorf("Remaining() = %d, want 3", r.Remaining())
	}
	r.Skip(1)
	if v := r.ReadInt16(); v != -2 {
		t.Errorf("int16 = %d, want -2", v)
	}
	if r.HasMore() {
		t.Error("reader should be exhausted")
	}
}

func TestBytecodeReaderUnderflow(t *testing.T) {
	defer func() {
		if r := recover(); r == nil {
			t.Error("reading past the end should panic")
		}
	}()
	r := NewBytecodeReader([]byte{byte(OpText), 0x01})
	r.ReadOpcode()
	r.ReadUint16()
}

// ---------------------------------------------------------------------------
// Decode / disassembly tests
// ---------------------------------------------------------------------------

func TestDecode(t *testing.T) {
	b := NewBytecodeBuilder()
	end := b.NewLabel()
	b.Emit(OpGetLocal, 3)
	b.Emit(OpTest, int(TestSimple))
	b.EmitJump(OpJumpUnless, end)
	b.Emit(OpStaticAttr, 1, 2, 0)
	b.Mark(end)
	b.Emit(OpReturn)

	ins, err := Decode(b.Bytes())
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	wantOps := []Opcode{OpGetLocal, OpTest, OpJumpUnless, OpStaticAttr, OpReturn}
	if len(ins) != len(wantOps) {
		t.Fatalf("decoded %d instructions, want %d", len(ins), len(wantOps))
	}
	for i, op := range wantOps {
		if ins[i].Op != op {
			t.Errorf("instruction %d = %s, want %s", i, ins[i].Op, op)
		}
	}
	if got := ins[2].Target(); got != ins[4].Pos {
		t.Errorf("jump target = %d, want %d", got, ins[4].Pos)
	}
	if ins[3].Operands[0] != 1 || ins[3].Operands[1] != 2 || ins[3].Operands[2] != 0 {
		t.Errorf("STATIC_ATTR operands = %v, want [1 2 0]", ins[3].Operands)
	}
}

func TestDecodeErrors(t *testing.T) {
	if _, err := Decode([]byte{0xFF}); err == nil {
		t.Error("expected error for unknown opcode")
	}
	if _, err := Decode([]byte{byte(OpText), 0x01}); err == nil {
		t.Error("expected error for truncated operand")
	}
}

func TestDisassemble(t *testing.T) {
	b := NewBytecodeBuilder()
	end := b.NewLabel()
	b.EmitJump(OpJump, end)
	b.Emit(OpOpenElement, 0)
	b.Mark(end)
	b.Emit(OpReturn)

	out := Disassemble(b.Bytes())
	for _, want := range []string{"0000  JUMP 3 (-> 0006)", "0003  OPEN_ELEMENT 0", "0006  RETURN"} {
		if !strings.Contains(out, want) {
			t.Errorf("disassembly missing %q:\n%s", want, out)
		}
	}

	if got := Disassemble([]byte{0xFF}); !strings.HasPrefix(got, ";") {
		t.Errorf("bad bytecode should disassemble to a comment, got %q", got)
	}
}
