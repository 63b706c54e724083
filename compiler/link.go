package compiler

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/chazu/layoutc/vm"
	"github.com/chazu/layoutc/wire"
)

// maxCodeLen bounds a single code buffer so every jump offset fits in its
// signed 16-bit operand.
const maxCodeLen = 0x7FFF

// linkState is shared by the program and every block compiled while linking
// it: one literal pool, one block table, one frame.
type linkState struct {
	env  Environment
	meta wire.Meta
	opts Options

	literals     []any
	literalIndex map[string]int
	blocks       []*vm.CompiledBlock
	nextLocal    int

	err error
}

// fail records the first error; later ones are consequences of it.
func (s *linkState) fail(err error) {
	if s.err == nil {
		s.err = err
	}
}

// literalKey identifies pool entries. Integral numbers share one key whatever
// their Go type, so a template decoded from JSON (float64) and from CBOR
// (uint64, int64) links to the same pool.
func literalKey(v any) string {
	if n, ok := integral(v); ok {
		return fmt.Sprintf("i:%d", n)
	}
	switch v := v.(type) {
	case string:
		return "s:" + v
	case []string:
		return fmt.Sprintf("n:%d:", len(v)) + strings.Join(v, "\x00")
	case vm.DefinitionRef:
		return fmt.Sprintf("d:%d:%s", v.Handle, v.Name)
	default:
		return fmt.Sprintf("%T:%#v", v, v)
	}
}

func integral(v any) (int64, bool) {
	switch n := v.(type) {
	case int:
		return int64(n), true
	case int64:
		return n, true
	case uint64:
		if n <= math.MaxInt64 {
			return int64(n), true
		}
	case float64:
		if n == math.Trunc(n) && math.Abs(n) < 1<<53 {
			return int64(n), true
		}
	}
	return 0, false
}

// literal interns v in the literal pool and returns its index.
func (s *linkState) literal(v any) int {
	if names, ok := v.([]string); ok {
		v = append([]string{}, names...)
	}
	key := literalKey(v)
	if i, ok := s.literalIndex[key]; ok {
		return i
	}
	i := len(s.literals)
	if i > 0xFFFF {
		s.fail(fmt.Errorf("%w: more than %d literals", ErrTooLarge, 0x10000))
		return 0
	}
	s.literals = append(s.literals, v)
	s.literalIndex[key] = i
	return i
}

// opBuilder lowers statements into one code buffer. It implements
// OpcodeBuilder; errors are recorded on the shared state instead of being
// returned from every call.
type opBuilder struct {
	st   *linkState
	code *vm.BytecodeBuilder
}

var _ OpcodeBuilder = (*opBuilder)(nil)

func newOpBuilder(st *linkState) *opBuilder {
	return &opBuilder{st: st, code: vm.NewBytecodeBuilder()}
}

func (b *opBuilder) emit(op vm.Opcode, operands ...int) {
	if b.st.err != nil {
		return
	}
	for i, w := range op.Info().Operands {
		if i < len(operands) && (operands[i] < 0 || operands[i] >= 1<<(8*w)) {
			b.st.fail(fmt.Errorf("%w: %s operand %d", ErrTooLarge, op, operands[i]))
			return
		}
	}
	b.code.Emit(op, operands...)
}

func flag(v bool) int {
	if v {
		return 1
	}
	return 0
}

// finish checks the buffer once its last instruction has been emitted.
func (b *opBuilder) finish() {
	if b.st.err != nil {
		return
	}
	if n := b.code.Pending(); n != 0 {
		b.st.fail(fmt.Errorf("%d jumps to unmarked labels", n))
		return
	}
	if b.code.Len() > maxCodeLen {
		b.st.fail(fmt.Errorf("%w: %d bytes of code", ErrTooLarge, b.code.Len()))
	}
}

// ---------------------------------------------------------------------------
// Statements
// ---------------------------------------------------------------------------

func (b *opBuilder) statements(stmts []wire.Statement) {
	for _, s := range stmts {
		if b.st.err != nil {
			return
		}
		b.statement(s)
	}
}

func (b *opBuilder) statement(s wire.Statement) {
	switch s.Kind {
	case wire.StmtText:
		b.emit(vm.OpText, b.st.literal(s.Value))
	case wire.StmtComment:
		if !b.st.opts.StripComments {
			b.emit(vm.OpComment, b.st.literal(s.Value))
		}
	case wire.StmtAppend:
		b.exprPtr(s.Expr)
		b.emit(vm.OpAppend, flag(s.Trusted))
	case wire.StmtOpenElement:
		b.emit(vm.OpOpenElement, b.st.literal(s.Name))
	case wire.StmtOpenDynamicElement:
		b.exprPtr(s.Expr)
		b.emit(vm.OpOpenDynamicElement)
	case wire.StmtStaticAttr:
		b.emit(vm.OpStaticAttr, b.st.literal(s.Name), b.st.literal(s.Value), b.st.literal(s.Namespace))
	case wire.StmtDynamicAttr:
		b.exprPtr(s.Expr)
		b.emit(vm.OpDynamicAttr, b.st.literal(s.Name), b.st.literal(s.Namespace), flag(s.Trusted))
	case wire.StmtFlushElement:
		b.emit(vm.OpFlushElement)
	case wire.StmtCloseElement:
		b.emit(vm.OpCloseElement)
	case wire.StmtLet:
		b.exprPtr(s.Expr)
		b.SetLocal(s.Slot)
	case wire.StmtBlock:
		b.conditional(s)
	case wire.StmtYield:
		for _, p := range s.Params {
			b.Expr(p)
		}
		b.emit(vm.OpYield, s.Slot, len(s.Params))
	case wire.StmtComponent:
		def, ok := b.lookup(s.Name)
		if !ok {
			b.st.fail(fmt.Errorf("%w: %q", ErrUnknownComponent, s.Name))
			return
		}
		b.invoke(ComponentInvocation{
			Args:       Args{Params: s.Params, Hash: s.Hash, Default: s.Default, Inverse: s.Inverse},
			Definition: &def,
		})
	case wire.StmtDynamicComponent:
		resolver := s.Name
		if resolver == "" {
			resolver = b.st.opts.resolver()
		}
		b.invoke(ComponentInvocation{
			Args:    Args{Hash: s.Hash, Default: s.Default, Inverse: s.Inverse},
			Dynamic: &DynamicRecipe{Helper: resolver, DefinitionArgs: s.Params},
		})
	case wire.StmtClientSide:
		for _, p := range s.Params {
			b.Expr(p)
		}
		b.emit(vm.OpClientSideStatement, b.st.literal(s.Name), len(s.Params))
	case wire.StmtModifier:
		names := b.CompileArgs(s.Params, s.Hash)
		b.emit(vm.OpModifier, b.st.literal(s.Name), len(s.Params), b.st.literal(names))
	case wire.StmtPartial:
		b.exprPtr(s.Expr)
		b.emit(vm.OpInvokePartial, b.st.literal(b.st.meta.Owner), b.st.literal(s.Locals), b.st.literal(s.LocalSlots))
	default:
		b.st.fail(fmt.Errorf("%w: %d", ErrUnknownStatement, s.Kind))
	}
}

func (b *opBuilder) lookup(name string) (vm.DefinitionRef, bool) {
	if b.st.env == nil {
		return vm.DefinitionRef{}, false
	}
	return b.st.env.LookupComponent(name, b.st.meta)
}

func (b *opBuilder) invoke(inv ComponentInvocation) {
	if err := CompileComponent(b, inv); err != nil {
		b.st.fail(err)
	}
}

// conditional lowers an inline block:
//
//	<cond> TEST JUMP_UNLESS else <default> [JUMP end] else: [<inverse>] end:
func (b *opBuilder) conditional(s wire.Statement) {
	elseLabel := b.NewLabel()
	b.exprPtr(s.Expr)
	b.Test(vm.TestSimple)
	b.JumpUnless(elseLabel)
	if s.Default != nil {
		b.statements(s.Default.Statements)
	}
	if s.Inverse == nil {
		b.Mark(elseLabel)
		return
	}
	end := b.NewLabel()
	b.code.EmitJump(vm.OpJump, end)
	b.Mark(elseLabel)
	b.statements(s.Inverse.Statements)
	b.Mark(end)
}

// block compiles blk into the shared block table and returns its index.
func (b *opBuilder) block(blk *wire.Block) int {
	if blk == nil || b.st.err != nil {
		return vm.NoBlock
	}
	idx := len(b.st.blocks)
	if idx >= vm.NoBlock {
		b.st.fail(fmt.Errorf("%w: more than %d blocks", ErrTooLarge, vm.NoBlock))
		return vm.NoBlock
	}
	b.st.blocks = append(b.st.blocks, nil)

	nested := newOpBuilder(b.st)
	nested.statements(blk.Statements)
	nested.emit(vm.OpReturn)
	nested.finish()
	b.st.blocks[idx] = &vm.CompiledBlock{Code: nested.code.Bytes(), ParamSlots: blk.Slots}
	return idx
}

// ---------------------------------------------------------------------------
// Expressions
// ---------------------------------------------------------------------------

func (b *opBuilder) exprPtr(e *wire.Expression) {
	if e == nil {
		b.emit(vm.OpPushNull)
		return
	}
	b.Expr(*e)
}

func (b *opBuilder) Expr(e wire.Expression) {
	switch e.Kind {
	case wire.ExprLiteral:
		if e.Value == nil {
			b.emit(vm.OpPushNull)
			return
		}
		b.emit(vm.OpPushLiteral, b.st.literal(e.Value))
	case wire.ExprGet:
		b.GetLocal(e.Slot)
		for _, key := range e.Path {
			b.emit(vm.OpGetProperty, b.st.literal(key))
		}
	case wire.ExprHelper:
		b.Helper(e.Name, e.Params, e.Hash)
	case wire.ExprConcat:
		for _, p := range e.Params {
			b.Expr(p)
		}
		b.emit(vm.OpConcat, len(e.Params))
	case wire.ExprHasBlock:
		b.emit(vm.OpHasBlock, e.Slot)
	case wire.ExprClientSide:
		for _, p := range e.Params {
			b.Expr(p)
		}
		b.emit(vm.OpClientExpression, b.st.literal(e.Name), len(e.Params))
	default:
		b.st.fail(fmt.Errorf("%w: %d", ErrUnknownExpression, e.Kind))
	}
}

// ---------------------------------------------------------------------------
// OpcodeBuilder
// ---------------------------------------------------------------------------

func (b *opBuilder) AllocateLocal() int {
	slot := b.st.nextLocal
	b.st.nextLocal++
	return slot
}

func (b *opBuilder) GetLocal(slot int)         { b.emit(vm.OpGetLocal, slot) }
func (b *opBuilder) SetLocal(slot int)         { b.emit(vm.OpSetLocal, slot) }
func (b *opBuilder) Test(kind vm.TestKind)     { b.emit(vm.OpTest, int(kind)) }
func (b *opBuilder) NewLabel() *vm.Label       { return b.code.NewLabel() }
func (b *opBuilder) Mark(l *vm.Label)          { b.code.Mark(l) }
func (b *opBuilder) JumpUnless(l *vm.Label)    { b.code.EmitJump(vm.OpJumpUnless, l) }
func (b *opBuilder) PushBlock(blk *wire.Block) { b.emit(vm.OpPushBlock, b.block(blk)) }

func (b *opBuilder) Helper(name string, params []wire.Expression, hash []wire.HashPair) {
	names := b.CompileArgs(params, hash)
	b.emit(vm.OpHelper, b.st.literal(name), len(params), b.st.literal(names))
}

func (b *opBuilder) CompileArgs(params []wire.Expression, hash []wire.HashPair) []string {
	for _, p := range params {
		b.Expr(p)
	}
	names := make([]string, len(hash))
	for i, pair := range hash {
		b.Expr(pair.Value)
		names[i] = pair.Key
	}
	return names
}

func (b *opBuilder) PushArgs(names []string, positional int) {
	b.emit(vm.OpPushArgs, len(names), positional, b.st.literal(names))
}

func (b *opBuilder) InvokeStatic(def vm.DefinitionRef, positional int, names []string, block, inverse *wire.Block) {
	defIdx := b.st.literal(def)
	namesIdx := b.st.literal(names)
	blockIdx := b.block(block)
	inverseIdx := b.block(inverse)
	b.emit(vm.OpInvokeStatic, defIdx, positional, namesIdx, blockIdx, inverseIdx)
}

func (b *opBuilder) PushDynamicComponentManager() { b.emit(vm.OpPushDynamicComponentManager) }
func (b *opBuilder) SetComponentState(slot int)   { b.emit(vm.OpSetComponentState, slot) }

func (b *opBuilder) CreateComponent(flags uint8, state int) {
	b.emit(vm.OpCreateComponent, int(flags), state)
}

func (b *opBuilder) RegisterDestructor(state int) { b.emit(vm.OpRegisterDestructor, state) }
func (b *opBuilder) BeginTransaction()            { b.emit(vm.OpBeginTransaction) }
func (b *opBuilder) GetComponentSelf(state int)   { b.emit(vm.OpGetComponentSelf, state) }
func (b *opBuilder) GetComponentLayout(state int) { b.emit(vm.OpGetComponentLayout, state) }
func (b *opBuilder) DidCreateElement(state int)   { b.emit(vm.OpDidCreateElement, state) }
func (b *opBuilder) DidRenderLayout(state int)    { b.emit(vm.OpDidRenderLayout, state) }
func (b *opBuilder) CommitTransaction()           { b.emit(vm.OpCommitTransaction) }
func (b *opBuilder) PushDynamicScope()            { b.emit(vm.OpPushDynamicScope) }
func (b *opBuilder) PopDynamicScope()             { b.emit(vm.OpPopDynamicScope) }
func (b *opBuilder) PopScope()                    { b.emit(vm.OpPopScope) }

func (b *opBuilder) InvokeDynamicLayout(names []string) {
	b.emit(vm.OpInvokeDynamicLayout, b.st.literal(names))
}

// ---------------------------------------------------------------------------
// Link
// ---------------------------------------------------------------------------

// Link lowers a scanned Program into a CompiledProgram. Static component
// invocations are resolved against env. No partial program is returned on
// error.
func Link(p *Program, env Environment, opts Options) (*vm.CompiledProgram, error) {
	if p == nil || p.Symbols == nil {
		return nil, errors.New("link: nil program")
	}
	st := &linkState{
		env:          env,
		meta:         p.Meta,
		opts:         opts,
		literalIndex: make(map[string]int),
		nextLocal:    p.Symbols.Size(),
	}

	b := newOpBuilder(st)
	b.statements(p.Statements)
	b.emit(vm.OpReturn)
	b.finish()
	if st.err != nil {
		return nil, fmt.Errorf("link %q: %w", p.Meta.ModuleName, st.err)
	}

	log.Debugf("linked %q: %d bytes, %d literals, %d blocks, frame %d",
		p.Meta.ModuleName, b.code.Len(), len(st.literals), len(st.blocks), st.nextLocal)

	return &vm.CompiledProgram{
		Code:        b.code.Bytes(),
		Literals:    st.literals,
		Blocks:      st.blocks,
		Symbols:     p.Symbols.Symbols(),
		LocalCount:  st.nextLocal,
		HasPartials: p.Symbols.HasPartials(),
	}, nil
}
