package compiler

import (
	"fmt"

	"github.com/chazu/layoutc/vm"
	"github.com/chazu/layoutc/wire"
)

// Compilable is anything that can describe its layout to a LayoutBuilder:
// bind a strategy, set the tag and contribute attributes.
type Compilable interface {
	Compile(b *LayoutBuilder) error
}

// Layout is a plain Compilable for callers that already know everything
// about the component up front.
type Layout struct {
	Template *wire.SerializedTemplate

	// Wrapped selects the wrapped strategy; exactly one of StaticTag and
	// DynamicTag should then be set.
	Wrapped    bool
	StaticTag  string
	DynamicTag *wire.Expression

	// Attrs are appended to the attribute buffer in order. Only
	// StmtStaticAttr and StmtDynamicAttr are accepted.
	Attrs []wire.Statement
}

func (l *Layout) Compile(b *LayoutBuilder) error {
	if l.Wrapped {
		if err := b.Wrapped(l.Template); err != nil {
			return err
		}
		tag, err := b.Tag()
		if err != nil {
			return err
		}
		switch {
		case l.DynamicTag != nil:
			tag.Dynamic(*l.DynamicTag)
		case l.StaticTag != "":
			tag.Static(l.StaticTag)
		}
	} else if err := b.Unwrapped(l.Template); err != nil {
		return err
	}

	attrs, err := b.Attrs()
	if err != nil {
		return err
	}
	for i, a := range l.Attrs {
		switch a.Kind {
		case wire.StmtStaticAttr:
			attrs.Static(a.Name, a.Value)
		case wire.StmtDynamicAttr:
			if a.Expr == nil {
				return fmt.Errorf("attribute %d (%s): missing value", i, a.Name)
			}
			attrs.Dynamic(a.Name, *a.Expr)
		default:
			return fmt.Errorf("attribute %d: %s is not an attribute", i, a.Kind)
		}
	}
	return nil
}

// CompileLayout runs the whole pipeline for one component: the Compilable
// configures a fresh LayoutBuilder, the bound strategy produces a Program,
// and Link turns it into a CompiledProgram.
func CompileLayout(c Compilable, env Environment, opts Options) (*vm.CompiledProgram, error) {
	b := NewLayoutBuilder(env, opts)
	if err := c.Compile(b); err != nil {
		return nil, err
	}
	program, err := b.Compile()
	if err != nil {
		return nil, err
	}
	return Link(program, env, opts)
}
