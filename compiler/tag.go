package compiler

import "github.com/chazu/layoutc/wire"

// ComponentTagBuilder records the root-element tag policy of a wrapped
// layout: a literal tag, a tag computed at render time, or neither.
// Setting one kind clears the other. Tag names are not validated.
type ComponentTagBuilder struct {
	isStatic   bool
	isDynamic  bool
	staticName string
	dynamic    wire.Expression
}

// Static records a literal tag name.
func (t *ComponentTagBuilder) Static(name string) {
	t.isStatic = true
	t.isDynamic = false
	t.staticName = name
}

// Dynamic records an expression that yields the tag name at render time.
// An empty result at render time means "no wrapper element".
func (t *ComponentTagBuilder) Dynamic(expr wire.Expression) {
	t.isDynamic = true
	t.isStatic = false
	t.dynamic = expr
}

// GetStatic returns the literal tag if one is set.
func (t *ComponentTagBuilder) GetStatic() (string, bool) {
	if !t.isStatic {
		return "", false
	}
	return t.staticName, true
}

// GetDynamic returns the tag expression if one is set.
func (t *ComponentTagBuilder) GetDynamic() (wire.Expression, bool) {
	if !t.isDynamic {
		return wire.Expression{}, false
	}
	return t.dynamic, true
}
