package compiler

import (
	"testing"

	"github.com/chazu/layoutc/vm"
	"github.com/chazu/layoutc/wire"
)

func tpl(stmts ...wire.Statement) *wire.SerializedTemplate {
	return &wire.SerializedTemplate{Block: wire.Block{Statements: stmts}}
}

func exprPtr(e wire.Expression) *wire.Expression { return &e }

func mustCompile(t *testing.T, c Compilable, env Environment, opts Options) *vm.CompiledProgram {
	t.Helper()
	p, err := CompileLayout(c, env, opts)
	if err != nil {
		t.Fatalf("CompileLayout: %v", err)
	}
	return p
}

func decode(t *testing.T, code []byte) []vm.Instruction {
	t.Helper()
	ins, err := vm.Decode(code)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	return ins
}

func opsOf(ins []vm.Instruction) []vm.Opcode {
	ops := make([]vm.Opcode, len(ins))
	for i, in := range ins {
		ops[i] = in.Op
	}
	return ops
}

func count(ins []vm.Instruction, op vm.Opcode) int {
	n := 0
	for _, in := range ins {
		if in.Op == op {
			n++
		}
	}
	return n
}

func indexOf(ins []vm.Instruction, op vm.Opcode) int {
	for i, in := range ins {
		if in.Op == op {
			return i
		}
	}
	return -1
}

// literalString resolves a literal operand that must be a string.
func literalString(t *testing.T, p *vm.CompiledProgram, i int) string {
	t.Helper()
	lit, err := p.Literal(i)
	if err != nil {
		t.Fatal(err)
	}
	s, ok := lit.(string)
	if !ok {
		t.Fatalf("literal %d = %T, want string", i, lit)
	}
	return s
}
