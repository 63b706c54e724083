package compiler

import (
	"github.com/chazu/layoutc/vm"
	"github.com/chazu/layoutc/wire"
)

// OpcodeBuilder is the emission capability the component invocation
// compiler is written against. The linker's builder implements it; the
// compiler never touches the instruction buffer directly.
type OpcodeBuilder interface {
	AllocateLocal() int
	Expr(e wire.Expression)
	GetLocal(slot int)
	SetLocal(slot int)
	Test(kind vm.TestKind)
	NewLabel() *vm.Label
	Mark(l *vm.Label)
	JumpUnless(l *vm.Label)

	Helper(name string, params []wire.Expression, hash []wire.HashPair)
	PushBlock(b *wire.Block)
	// CompileArgs pushes positional then named argument values and returns
	// the argument names in push order.
	CompileArgs(params []wire.Expression, hash []wire.HashPair) []string
	PushArgs(names []string, positional int)
	InvokeStatic(def vm.DefinitionRef, positional int, names []string, block, inverse *wire.Block)

	PushDynamicComponentManager()
	SetComponentState(slot int)
	CreateComponent(flags uint8, state int)
	RegisterDestructor(state int)
	BeginTransaction()
	GetComponentSelf(state int)
	GetComponentLayout(state int)
	InvokeDynamicLayout(names []string)
	DidCreateElement(state int)
	DidRenderLayout(state int)
	CommitTransaction()

	PushDynamicScope()
	PopDynamicScope()
	PopScope()
}

// Args are the arguments at a component use site.
type Args struct {
	Params  []wire.Expression
	Hash    []wire.HashPair
	Default *wire.Block
	Inverse *wire.Block
}

// DynamicRecipe resolves a component definition at render time by calling
// Helper with DefinitionArgs. An empty Helper means DefaultComponentResolver.
type DynamicRecipe struct {
	Helper         string
	DefinitionArgs []wire.Expression
}

// ComponentInvocation describes one component use site. Exactly one of
// Definition and Dynamic is set.
type ComponentInvocation struct {
	Args       Args
	Definition *vm.DefinitionRef
	Dynamic    *DynamicRecipe
}

// CompileComponent emits the opcodes for one component invocation. Invalid
// invocations fail before anything is emitted.
func CompileComponent(b OpcodeBuilder, inv ComponentInvocation) error {
	switch {
	case (inv.Definition == nil) == (inv.Dynamic == nil):
		return ErrInvocationTarget
	case inv.Definition != nil:
		compileStaticComponent(b, *inv.Definition, inv.Args)
		return nil
	default:
		if len(inv.Dynamic.DefinitionArgs) == 0 {
			return ErrNoDefinitionArgs
		}
		recipe := *inv.Dynamic
		if recipe.Helper == "" {
			recipe.Helper = DefaultComponentResolver
		}
		d := &dynamicInvocation{recipe: recipe, args: inv.Args}
		for _, step := range dynamicInvocationSteps {
			d.lower(b, step)
		}
		return nil
	}
}

func compileStaticComponent(b OpcodeBuilder, def vm.DefinitionRef, args Args) {
	names := b.CompileArgs(args.Params, args.Hash)
	b.InvokeStatic(def, len(args.Params), names, args.Default, args.Inverse)
}

// protocolStep is one stage of the dynamic invocation protocol.
type protocolStep uint8

const (
	stepAllocateLocals protocolStep = iota
	stepResolveDefinition
	stepTestDefinition
	stepAcquireManager
	stepPushBlocks
	stepCompileArgs
	stepPushDynamicScope
	stepPushArgs
	stepCreateComponent
	stepRegisterDestructor
	stepBeginTransaction
	stepFetchSelfAndLayout
	stepInvokeLayout
	stepDidCreateElement
	stepDidRenderLayout
	stepPopScope
	stepPopDynamicScope
	stepCommitTransaction
	stepEnd
)

var protocolStepNames = [...]string{
	stepAllocateLocals:     "allocate-locals",
	stepResolveDefinition:  "resolve-definition",
	stepTestDefinition:     "test-definition",
	stepAcquireManager:     "acquire-manager",
	stepPushBlocks:         "push-blocks",
	stepCompileArgs:        "compile-args",
	stepPushDynamicScope:   "push-dynamic-scope",
	stepPushArgs:           "push-args",
	stepCreateComponent:    "create-component",
	stepRegisterDestructor: "register-destructor",
	stepBeginTransaction:   "begin-transaction",
	stepFetchSelfAndLayout: "fetch-self-and-layout",
	stepInvokeLayout:       "invoke-layout",
	stepDidCreateElement:   "did-create-element",
	stepDidRenderLayout:    "did-render-layout",
	stepPopScope:           "pop-scope",
	stepPopDynamicScope:    "pop-dynamic-scope",
	stepCommitTransaction:  "commit-transaction",
	stepEnd:                "end",
}

func (s protocolStep) String() string {
	if int(s) < len(protocolStepNames) {
		return protocolStepNames[s]
	}
	return "unknown-step"
}

// dynamicInvocationSteps is the order the protocol is emitted in. The
// destructor is registered straight after creation so that a failure
// anywhere later still tears the instance down; commit comes last.
var dynamicInvocationSteps = []protocolStep{
	stepAllocateLocals,
	stepResolveDefinition,
	stepTestDefinition,
	stepAcquireManager,
	stepPushBlocks,
	stepCompileArgs,
	stepPushDynamicScope,
	stepPushArgs,
	stepCreateComponent,
	stepRegisterDestructor,
	stepBeginTransaction,
	stepFetchSelfAndLayout,
	stepInvokeLayout,
	stepDidCreateElement,
	stepDidRenderLayout,
	stepPopScope,
	stepPopDynamicScope,
	stepCommitTransaction,
	stepEnd,
}

// dynamicInvocation carries state between protocol steps.
type dynamicInvocation struct {
	recipe DynamicRecipe
	args   Args

	definition int
	state      int
	end        *vm.Label
	names      []string
}

func (d *dynamicInvocation) lower(b OpcodeBuilder, step protocolStep) {
	switch step {
	case stepAllocateLocals:
		d.definition = b.AllocateLocal()
		d.state = b.AllocateLocal()
		d.end = b.NewLabel()
	case stepResolveDefinition:
		b.Helper(d.recipe.Helper, d.recipe.DefinitionArgs, nil)
		b.SetLocal(d.definition)
	case stepTestDefinition:
		b.GetLocal(d.definition)
		b.Test(vm.TestSimple)
		b.JumpUnless(d.end)
	case stepAcquireManager:
		b.GetLocal(d.definition)
		b.PushDynamicComponentManager()
		b.SetComponentState(d.state)
	case stepPushBlocks:
		b.PushBlock(d.args.Default)
		b.PushBlock(d.args.Inverse)
	case stepCompileArgs:
		d.names = b.CompileArgs(d.args.Params, d.args.Hash)
	case stepPushDynamicScope:
		b.PushDynamicScope()
	case stepPushArgs:
		b.PushArgs(d.names, len(d.args.Params))
	case stepCreateComponent:
		b.CreateComponent(vm.FlagDynamicInvocation, d.state)
	case stepRegisterDestructor:
		b.RegisterDestructor(d.state)
	case stepBeginTransaction:
		b.BeginTransaction()
	case stepFetchSelfAndLayout:
		b.GetComponentSelf(d.state)
		b.GetComponentLayout(d.state)
	case stepInvokeLayout:
		b.InvokeDynamicLayout(d.names)
	case stepDidCreateElement:
		b.DidCreateElement(d.state)
	case stepDidRenderLayout:
		b.DidRenderLayout(d.state)
	case stepPopScope:
		b.PopScope()
	case stepPopDynamicScope:
		b.PopDynamicScope()
	case stepCommitTransaction:
		b.CommitTransaction()
	case stepEnd:
		b.Mark(d.end)
	}
}
