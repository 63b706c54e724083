package compiler

import (
	"fmt"

	"github.com/chazu/layoutc/wire"
	"github.com/tliron/commonlog"
)

var log = commonlog.GetLogger("layoutc.compiler")

// DefaultComponentResolver is the helper dynamic component invocations call
// to turn their definition arguments into a component definition.
const DefaultComponentResolver = "-dynamic-component"

// Options configures a compilation.
type Options struct {
	// AllowRebind lets Wrapped/Unwrapped replace an already bound strategy
	// instead of failing with ErrAlreadyBound.
	AllowRebind bool

	// ComponentResolver overrides DefaultComponentResolver.
	ComponentResolver string

	// StripComments drops comment statements while linking.
	StripComments bool

	// Scanner resolves statements into a Program. Nil selects BlockScanner.
	Scanner Scanner
}

func (o Options) resolver() string {
	if o.ComponentResolver != "" {
		return o.ComponentResolver
	}
	return DefaultComponentResolver
}

func (o Options) scanner() Scanner {
	if o.Scanner != nil {
		return o.Scanner
	}
	return BlockScanner{}
}

// layoutStrategy is either *wrappedLayout or *unwrappedLayout. Only the
// wrapped variant carries a tag.
type layoutStrategy interface {
	template() *wire.SerializedTemplate
	attributes() *ComponentAttrsBuilder
}

type wrappedLayout struct {
	layout *wire.SerializedTemplate
	tag    ComponentTagBuilder
	attrs  ComponentAttrsBuilder
}

func (w *wrappedLayout) template() *wire.SerializedTemplate { return w.layout }
func (w *wrappedLayout) attributes() *ComponentAttrsBuilder { return &w.attrs }

// block weaves the wrapper element into the layout's statements.
func (w *wrappedLayout) block() (wire.Block, error) {
	if expr, ok := w.tag.GetDynamic(); ok {
		return wrapDynamic(expr, w.attrs.Buffer(), w.layout.Block), nil
	}
	if name, ok := w.tag.GetStatic(); ok {
		return wrapStatic(name, w.attrs.Buffer(), w.layout.Block), nil
	}
	return wire.Block{}, ErrMissingTag
}

type unwrappedLayout struct {
	layout *wire.SerializedTemplate
	attrs  ComponentAttrsBuilder
}

func (u *unwrappedLayout) template() *wire.SerializedTemplate { return u.layout }
func (u *unwrappedLayout) attributes() *ComponentAttrsBuilder { return &u.attrs }

func (u *unwrappedLayout) block() wire.Block {
	return unwrap(u.attrs.Buffer(), u.layout.Block)
}

// LayoutBuilder is handed to a Compilable so it can choose how its root
// element is represented and contribute attributes. It starts unbound;
// Wrapped or Unwrapped binds exactly one strategy.
type LayoutBuilder struct {
	env      Environment
	opts     Options
	strategy layoutStrategy
}

// NewLayoutBuilder returns an unbound builder.
func NewLayoutBuilder(env Environment, opts Options) *LayoutBuilder {
	return &LayoutBuilder{env: env, opts: opts}
}

// Env returns the environment the layout is compiled against.
func (b *LayoutBuilder) Env() Environment {
	return b.env
}

// Wrapped binds the strategy that synthesizes a root element around the
// layout's body.
func (b *LayoutBuilder) Wrapped(layout *wire.SerializedTemplate) error {
	return b.bind(&wrappedLayout{layout: layout})
}

// Unwrapped binds the strategy for layouts that provide their own root
// element.
func (b *LayoutBuilder) Unwrapped(layout *wire.SerializedTemplate) error {
	return b.bind(&unwrappedLayout{layout: layout})
}

func (b *LayoutBuilder) bind(s layoutStrategy) error {
	if s.template() == nil {
		return fmt.Errorf("bind layout: nil template")
	}
	if b.strategy != nil {
		if !b.opts.AllowRebind {
			return ErrAlreadyBound
		}
		log.Debugf("replacing bound %T with %T", b.strategy, s)
	}
	b.strategy = s
	return nil
}

// Tag returns the tag descriptor of a wrapped layout.
func (b *LayoutBuilder) Tag() (*ComponentTagBuilder, error) {
	switch s := b.strategy.(type) {
	case nil:
		return nil, ErrUnbound
	case *wrappedLayout:
		return &s.tag, nil
	case *unwrappedLayout:
		return nil, ErrNoTag
	default:
		return nil, fmt.Errorf("unexpected layout strategy %T", s)
	}
}

// Attrs returns the attribute buffer of the bound strategy.
func (b *LayoutBuilder) Attrs() (*ComponentAttrsBuilder, error) {
	if b.strategy == nil {
		return nil, ErrUnbound
	}
	return b.strategy.attributes(), nil
}

// Compile lowers the bound layout to a statement list and scans it into a
// Program.
func (b *LayoutBuilder) Compile() (*Program, error) {
	var block wire.Block
	switch s := b.strategy.(type) {
	case nil:
		return nil, ErrUnbound
	case *wrappedLayout:
		var err error
		if block, err = s.block(); err != nil {
			return nil, err
		}
	case *unwrappedLayout:
		block = s.block()
	default:
		return nil, fmt.Errorf("unexpected layout strategy %T", s)
	}

	meta := b.strategy.template().Meta
	log.Debugf("compiling %T layout %q: %d statements, %d head", b.strategy, meta.ModuleName, len(block.Statements), len(block.Head))

	symbols := NewProgramSymbols(meta, block.Named, block.Yields, block.HasPartials)
	program, err := b.opts.scanner().Scan(block, symbols)
	if err != nil {
		return nil, fmt.Errorf("scan layout %q: %w", meta.ModuleName, err)
	}
	return program, nil
}
