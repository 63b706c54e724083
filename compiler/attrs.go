package compiler

import "github.com/chazu/layoutc/wire"

// ComponentAttrsBuilder accumulates the attributes a caller contributes to a
// component's root element. Entries keep call order and are emitted ahead of
// the layout's own head attributes. There is no removal.
type ComponentAttrsBuilder struct {
	buffer []wire.Statement
}

// Static appends a literal attribute.
func (a *ComponentAttrsBuilder) Static(name, value string) {
	a.buffer = append(a.buffer, wire.StaticAttr(name, value))
}

// Dynamic appends an attribute whose value is computed at render time.
func (a *ComponentAttrsBuilder) Dynamic(name string, value wire.Expression) {
	a.buffer = append(a.buffer, wire.DynamicAttr(name, value))
}

// Buffer returns a copy of the accumulated attribute statements.
func (a *ComponentAttrsBuilder) Buffer() []wire.Statement {
	return append([]wire.Statement(nil), a.buffer...)
}

// Len returns the number of buffered attributes.
func (a *ComponentAttrsBuilder) Len() int {
	return len(a.buffer)
}
