package compiler

import "github.com/chazu/layoutc/wire"

const (
	// AttrsBlock is the reserved yield through which callers splice
	// attributes the component did not declare into a dynamically tagged
	// wrapper element.
	AttrsBlock = "%attrs"

	// tagLocal holds the evaluated dynamic tag. The '%' keeps it out of the
	// template's own identifier space.
	tagLocal = "%tag"
)

// wrapDynamic lowers a wrapper element whose tag is only known at render
// time. The tag is evaluated once into tagLocal; two conditional blocks read
// that local, one guarding the open sequence before the body and one
// guarding the close after it, so open and close always balance.
func wrapDynamic(tag wire.Expression, attrs []wire.Statement, block wire.Block) wire.Block {
	open := make([]wire.Statement, 0, len(attrs)+len(block.Head)+3)
	open = append(open, wire.OpenDynamicElement(wire.Get(tagLocal)), wire.Yield(AttrsBlock))
	open = append(open, attrs...)
	open = append(open, block.Head...)
	open = append(open, wire.FlushElement())

	stmts := make([]wire.Statement, 0, len(block.Prelude)+len(block.Statements)+3)
	stmts = append(stmts, block.Prelude...)
	stmts = append(stmts,
		wire.Let(tagLocal, tag),
		wire.If(wire.Get(tagLocal), open, nil),
	)
	stmts = append(stmts, block.Statements...)
	stmts = append(stmts, wire.If(wire.Get(tagLocal), []wire.Statement{wire.CloseElement()}, nil))

	out := block
	out.Statements = stmts
	out.Prelude = nil
	out.Head = nil
	out.Yields = append(append([]string(nil), block.Yields...), AttrsBlock)
	return out
}

// wrapStatic lowers a wrapper element with a literal tag. Caller attributes
// are spliced in front of the layout's head at compile time; nothing
// branches at render time.
func wrapStatic(tag string, attrs []wire.Statement, block wire.Block) wire.Block {
	stmts := make([]wire.Statement, 0, len(block.Prelude)+len(attrs)+len(block.Head)+len(block.Statements)+3)
	stmts = append(stmts, block.Prelude...)
	stmts = append(stmts, wire.OpenElement(tag))
	stmts = append(stmts, attrs...)
	stmts = append(stmts, block.Head...)
	stmts = append(stmts, wire.FlushElement())
	stmts = append(stmts, block.Statements...)
	stmts = append(stmts, wire.CloseElement())

	out := block
	out.Statements = stmts
	out.Prelude = nil
	out.Head = nil
	return out
}

// unwrap prepends caller attributes to the layout's head. Scanning places
// the head on the layout's own root element.
func unwrap(attrs []wire.Statement, block wire.Block) wire.Block {
	head := make([]wire.Statement, 0, len(attrs)+len(block.Head))
	head = append(head, attrs...)
	head = append(head, block.Head...)

	out := block
	out.Head = head
	return out
}
