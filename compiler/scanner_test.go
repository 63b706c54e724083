package compiler

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/chazu/layoutc/wire"
)

func scan(t *testing.T, block wire.Block) (*Program, error) {
	t.Helper()
	symbols := NewProgramSymbols(wire.Meta{}, block.Named, block.Yields, block.HasPartials)
	return BlockScanner{}.Scan(block, symbols)
}

func TestScanResolvesNames(t *testing.T) {
	block := wire.Block{
		Named: []string{"@title"},
		Statements: []wire.Statement{
			wire.Let("greeting", wire.Concat(wire.Literal("hi "), wire.Get("@title"))),
			wire.Append(wire.Get("greeting"), false),
			wire.Append(wire.Get("this", "name"), false),
			wire.Append(wire.Get("@subtitle"), false),
		},
	}

	p, err := scan(t, block)
	if err != nil {
		t.Fatalf("Scan: %v", err)
	}

	let := p.Statements[0]
	if let.Expr.Params[1].Slot != 1 {
		t.Errorf("@title slot = %d, want 1", let.Expr.Params[1].Slot)
	}
	if let.Slot != 2 {
		t.Errorf("let slot = %d, want 2", let.Slot)
	}
	if got := p.Statements[1].Expr.Slot; got != 2 {
		t.Errorf("greeting read from slot %d, want 2", got)
	}
	if got := p.Statements[2].Expr.Slot; got != 0 {
		t.Errorf("this read from slot %d, want 0", got)
	}
	if got := p.Statements[3].Expr.Slot; got != 3 {
		t.Errorf("undeclared named arg slot = %d, want 3", got)
	}

	if block.Statements[1].Expr.Slot != 0 {
		t.Error("scanning modified the input statements")
	}
}

func TestScanLetSeesOuterBinding(t *testing.T) {
	block := wire.Block{Statements: []wire.Statement{
		wire.Let("x", wire.Literal(1)),
		wire.Let("x", wire.Helper("inc", []wire.Expression{wire.Get("x")}, nil)),
	}}
	p, err := scan(t, block)
	if err != nil {
		t.Fatalf("Scan: %v", err)
	}
	second := p.Statements[1]
	if second.Expr.Params[0].Slot != p.Statements[0].Slot {
		t.Errorf("rebinding let read slot %d, want the earlier binding %d", second.Expr.Params[0].Slot, p.Statements[0].Slot)
	}
	if second.Slot == p.Statements[0].Slot {
		t.Error("rebinding should allocate a fresh slot")
	}
}

func TestScanComponentBlockParams(t *testing.T) {
	body := &wire.Block{
		Params:     []string{"item"},
		Statements: []wire.Statement{wire.Append(wire.Get("item"), false)},
	}
	block := wire.Block{Statements: []wire.Statement{
		wire.Component("List", nil, nil, body, nil),
		wire.Append(wire.HasBlock("default"), false),
	}}
	p, err := scan(t, block)
	if err != nil {
		t.Fatalf("Scan: %v", err)
	}
	def := p.Statements[0].Default
	if len(def.Slots) != 1 || def.Slots[0] != 1 {
		t.Fatalf("block param slots = %v, want [1]", def.Slots)
	}
	if def.Statements[0].Expr.Slot != 1 {
		t.Errorf("block param read from slot %d, want 1", def.Statements[0].Expr.Slot)
	}
	if got := p.Statements[1].Expr.Slot; got != 2 {
		t.Errorf("has-block slot = %d, want 2", got)
	}
	if body.Slots != nil {
		t.Error("scanning modified the input block")
	}
}

func TestScanHeadPlacement(t *testing.T) {
	block := wire.Block{
		Prelude: []wire.Statement{wire.Comment("first")},
		Head:    []wire.Statement{wire.StaticAttr("class", "x")},
		Statements: []wire.Statement{
			wire.Text("\n"),
			wire.OpenElement("div"),
			wire.FlushElement(),
			wire.OpenElement("span"),
			wire.FlushElement(),
			wire.CloseElement(),
			wire.CloseElement(),
		},
	}
	p, err := scan(t, block)
	if err != nil {
		t.Fatalf("Scan: %v", err)
	}
	kinds := make([]wire.StatementKind, len(p.Statements))
	for i, s := range p.Statements {
		kinds[i] = s.Kind
	}
	want := []wire.StatementKind{
		wire.StmtComment, wire.StmtText, wire.StmtOpenElement, wire.StmtStaticAttr,
		wire.StmtFlushElement, wire.StmtOpenElement, wire.StmtFlushElement,
		wire.StmtCloseElement, wire.StmtCloseElement,
	}
	if len(kinds) != len(want) {
		t.Fatalf("kinds = %v, want %v", kinds, want)
	}
	for i := range want {
		if kinds[i] != want[i] {
			t.Errorf("statement %d = %s, want %s", i, kinds[i], want[i])
		}
	}
}

func TestScanPartialCapturesLocals(t *testing.T) {
	p, err := scan(t, wire.Block{
		HasPartials: true,
		Statements: []wire.Statement{
			wire.Partial(wire.Literal("header")),
			wire.Let("b", wire.Literal(1)),
			wire.Let("a", wire.Literal(2)),
			wire.Partial(wire.Literal("footer")),
		},
	})
	if err != nil {
		t.Fatal(err)
	}
	first, last := p.Statements[0], p.Statements[3]
	if len(first.Locals) != 0 || len(first.LocalSlots) != 0 {
		t.Errorf("partial before any let sees %v %v", first.Locals, first.LocalSlots)
	}
	if diff := cmp.Diff([]string{"a", "b"}, last.Locals); diff != "" {
		t.Errorf("locals mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]int{2, 1}, last.LocalSlots); diff != "" {
		t.Errorf("slots mismatch (-want +got):\n%s", diff)
	}
}

func TestScanErrors(t *testing.T) {
	tests := []struct {
		name  string
		block wire.Block
		want  error
	}{
		{
			name:  "unresolved local",
			block: wire.Block{Statements: []wire.Statement{wire.Append(wire.Get("missing"), false)}},
			want:  ErrUnresolvedSymbol,
		},
		{
			name:  "undeclared yield",
			block: wire.Block{Statements: []wire.Statement{wire.Yield("default")}},
			want:  ErrUnknownYield,
		},
		{
			name: "head without root element",
			block: wire.Block{
				Head:       []wire.Statement{wire.StaticAttr("class", "x")},
				Statements: []wire.Statement{wire.Text("hi")},
			},
			want: ErrNoRootElement,
		},
		{
			name: "conditional with params",
			block: wire.Block{Statements: []wire.Statement{{
				Kind:    wire.StmtBlock,
				Expr:    exprPtr(wire.Literal(true)),
				Default: &wire.Block{Params: []string{"x"}},
			}}},
			want: ErrBlockParams,
		},
		{
			name:  "unknown statement",
			block: wire.Block{Statements: []wire.Statement{{Kind: 99}}},
			want:  ErrUnknownStatement,
		},
		{
			name:  "unknown expression",
			block: wire.Block{Statements: []wire.Statement{wire.Append(wire.Expression{Kind: 99}, false)}},
			want:  ErrUnknownExpression,
		},
		{
			name: "block param out of scope",
			block: wire.Block{Statements: []wire.Statement{
				wire.Component("List", nil, nil, &wire.Block{Params: []string{"item"}}, nil),
				wire.Append(wire.Get("item"), false),
			}},
			want: ErrUnresolvedSymbol,
		},
		{
			name:  "partial without declaration",
			block: wire.Block{Statements: []wire.Statement{wire.Partial(wire.Literal("footer"))}},
			want:  ErrPartialsDisabled,
		},
		{
			name: "modifier argument",
			block: wire.Block{Statements: []wire.Statement{
				wire.OpenElement("div"),
				wire.Modifier("on", nil, []wire.HashPair{wire.Pair("handler", wire.Get("missing"))}),
			}},
			want: ErrUnresolvedSymbol,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := scan(t, tt.block)
			if !errors.Is(err, tt.want) {
				t.Fatalf("error = %v, want %v", err, tt.want)
			}
			if p != nil {
				t.Error("failed scan returned a program")
			}
		})
	}
}
