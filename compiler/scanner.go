package compiler

import (
	"fmt"
	"strings"

	"github.com/chazu/layoutc/wire"
)

// Program is a layout's statement list with every name resolved to a frame
// slot. It is consumed once, by Link.
type Program struct {
	Meta       wire.Meta
	Statements []wire.Statement
	Symbols    *SymbolTable
}

// Scanner resolves a layout block against its symbol table.
type Scanner interface {
	Scan(block wire.Block, symbols *SymbolTable) (*Program, error)
}

// BlockScanner is the default Scanner. It copies the statement tree while
// resolving it, so the input template is never modified.
//
// Prelude statements come first. A non-empty head is placed directly after
// the first top-level open-element statement, i.e. on the layout's root
// element.
type BlockScanner struct{}

func (BlockScanner) Scan(block wire.Block, symbols *SymbolTable) (*Program, error) {
	stmts := block.Statements
	if len(block.Head) > 0 {
		root := -1
		for i, s := range stmts {
			if s.Kind == wire.StmtOpenElement || s.Kind == wire.StmtOpenDynamicElement {
				root = i
				break
			}
		}
		if root < 0 {
			return nil, ErrNoRootElement
		}
		spliced := make([]wire.Statement, 0, len(stmts)+len(block.Head))
		spliced = append(spliced, stmts[:root+1]...)
		spliced = append(spliced, block.Head...)
		spliced = append(spliced, stmts[root+1:]...)
		stmts = spliced
	}
	if len(block.Prelude) > 0 {
		stmts = append(append([]wire.Statement(nil), block.Prelude...), stmts...)
	}

	out, err := scanStatements(stmts, symbols)
	if err != nil {
		return nil, err
	}
	return &Program{Meta: symbols.Meta(), Statements: out, Symbols: symbols}, nil
}

func scanStatements(stmts []wire.Statement, scope *SymbolTable) ([]wire.Statement, error) {
	out := make([]wire.Statement, 0, len(stmts))
	for i, s := range stmts {
		r, err := scanStatement(s, scope)
		if err != nil {
			return nil, fmt.Errorf("statement %d (%s): %w", i, s.Kind, err)
		}
		out = append(out, r)
	}
	return out, nil
}

func scanStatement(s wire.Statement, scope *SymbolTable) (wire.Statement, error) {
	var err error
	switch s.Kind {
	case wire.StmtText, wire.StmtComment, wire.StmtOpenElement, wire.StmtStaticAttr,
		wire.StmtFlushElement, wire.StmtCloseElement:
		return s, nil

	case wire.StmtAppend, wire.StmtOpenDynamicElement, wire.StmtDynamicAttr:
		s.Expr, err = scanExprPtr(s.Expr, scope)
		return s, err

	case wire.StmtLet:
		// The value is resolved before the name is bound, so a let can
		// refer to an outer binding of the same name.
		if s.Expr, err = scanExprPtr(s.Expr, scope); err != nil {
			return s, err
		}
		s.Slot = scope.Bind(s.Name)
		return s, nil

	case wire.StmtBlock:
		if s.Expr, err = scanExprPtr(s.Expr, scope); err != nil {
			return s, err
		}
		if s.Default, err = scanInlineBlock(s.Default, scope); err != nil {
			return s, err
		}
		s.Inverse, err = scanInlineBlock(s.Inverse, scope)
		return s, err

	case wire.StmtYield:
		slot, ok := scope.Block(s.Name)
		if !ok {
			return s, fmt.Errorf("%w: %q", ErrUnknownYield, s.Name)
		}
		s.Slot = slot
		s.Params, err = scanExprs(s.Params, scope)
		return s, err

	case wire.StmtComponent, wire.StmtDynamicComponent:
		if s.Params, err = scanExprs(s.Params, scope); err != nil {
			return s, err
		}
		if s.Hash, err = scanHash(s.Hash, scope); err != nil {
			return s, err
		}
		if s.Default, err = scanChildBlock(s.Default, scope); err != nil {
			return s, err
		}
		s.Inverse, err = scanChildBlock(s.Inverse, scope)
		return s, err

	case wire.StmtClientSide:
		s.Params, err = scanExprs(s.Params, scope)
		return s, err

	case wire.StmtModifier:
		if s.Params, err = scanExprs(s.Params, scope); err != nil {
			return s, err
		}
		s.Hash, err = scanHash(s.Hash, scope)
		return s, err

	case wire.StmtPartial:
		if !scope.HasPartials() {
			return s, ErrPartialsDisabled
		}
		if s.Expr, err = scanExprPtr(s.Expr, scope); err != nil {
			return s, err
		}
		s.Locals, s.LocalSlots = scope.EvalInfo()
		return s, nil

	default:
		return s, fmt.Errorf("%w: %d", ErrUnknownStatement, s.Kind)
	}
}

// scanInlineBlock resolves the body of a conditional, which is lowered in
// place and so cannot bind params.
func scanInlineBlock(b *wire.Block, scope *SymbolTable) (*wire.Block, error) {
	if b == nil {
		return nil, nil
	}
	if len(b.Params) > 0 {
		return nil, fmt.Errorf("%w: %s", ErrBlockParams, strings.Join(b.Params, ", "))
	}
	child, _ := scope.Child(nil)
	stmts, err := scanStatements(b.Statements, child)
	if err != nil {
		return nil, err
	}
	out := *b
	out.Statements = stmts
	return &out, nil
}

// scanChildBlock resolves a block passed to a component, binding its params
// to fresh slots.
func scanChildBlock(b *wire.Block, scope *SymbolTable) (*wire.Block, error) {
	if b == nil {
		return nil, nil
	}
	child, slots := scope.Child(b.Params)
	stmts, err := scanStatements(b.Statements, child)
	if err != nil {
		return nil, err
	}
	out := *b
	out.Statements = stmts
	out.Slots = slots
	return &out, nil
}

func scanExprPtr(e *wire.Expression, scope *SymbolTable) (*wire.Expression, error) {
	if e == nil {
		return nil, nil
	}
	r, err := scanExpr(*e, scope)
	if err != nil {
		return nil, err
	}
	return &r, nil
}

func scanExprs(es []wire.Expression, scope *SymbolTable) ([]wire.Expression, error) {
	if es == nil {
		return nil, nil
	}
	out := make([]wire.Expression, len(es))
	for i, e := range es {
		r, err := scanExpr(e, scope)
		if err != nil {
			return nil, err
		}
		out[i] = r
	}
	return out, nil
}

func scanHash(hash []wire.HashPair, scope *SymbolTable) ([]wire.HashPair, error) {
	if hash == nil {
		return nil, nil
	}
	out := make([]wire.HashPair, len(hash))
	for i, p := range hash {
		v, err := scanExpr(p.Value, scope)
		if err != nil {
			return nil, fmt.Errorf("argument %s: %w", p.Key, err)
		}
		out[i] = wire.HashPair{Key: p.Key, Value: v}
	}
	return out, nil
}

func scanExpr(e wire.Expression, scope *SymbolTable) (wire.Expression, error) {
	var err error
	switch e.Kind {
	case wire.ExprLiteral:
		return e, nil

	case wire.ExprGet:
		switch {
		case e.Name == "this":
			e.Slot = 0
		case strings.HasPrefix(e.Name, "@"):
			e.Slot = scope.AllocateNamed(e.Name)
		default:
			slot, ok := scope.Get(e.Name)
			if !ok {
				return e, fmt.Errorf("%w: %q", ErrUnresolvedSymbol, e.Name)
			}
			e.Slot = slot
		}
		return e, nil

	case wire.ExprHelper:
		if e.Params, err = scanExprs(e.Params, scope); err != nil {
			return e, err
		}
		e.Hash, err = scanHash(e.Hash, scope)
		return e, err

	case wire.ExprConcat, wire.ExprClientSide:
		e.Params, err = scanExprs(e.Params, scope)
		return e, err

	case wire.ExprHasBlock:
		e.Slot = scope.AllocateBlock(e.Name)
		return e, nil

	default:
		return e, fmt.Errorf("%w: %d", ErrUnknownExpression, e.Kind)
	}
}
