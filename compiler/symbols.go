package compiler

import (
	"sort"

	"github.com/chazu/layoutc/wire"
)

// SymbolTable maps template names to frame slots.
//
// The program table owns the frame: slot 0 is self, named arguments ("@x")
// and blocks ("&x") are allocated once each and memoized. Block tables
// created with Child add block params and let-bound locals on top of their
// parent and delegate allocation to the program table, so every slot in a
// compiled layout indexes one flat frame.
type SymbolTable struct {
	parent *SymbolTable
	locals map[string]int

	// program table only
	meta        wire.Meta
	symbols     []string
	size        int
	named       map[string]int
	blocks      map[string]int
	hasPartials bool
}

// NewProgramSymbols builds the top-level table for a layout from its
// metadata, declared named parameters and yields.
func NewProgramSymbols(meta wire.Meta, named, yields []string, hasPartials bool) *SymbolTable {
	t := &SymbolTable{
		locals:      make(map[string]int),
		meta:        meta,
		size:        1,
		named:       make(map[string]int),
		blocks:      make(map[string]int),
		hasPartials: hasPartials,
	}
	for _, n := range named {
		t.AllocateNamed(n)
	}
	for _, y := range yields {
		t.AllocateBlock(y)
	}
	return t
}

func (t *SymbolTable) root() *SymbolTable {
	for t.parent != nil {
		t = t.parent
	}
	return t
}

// Child returns a block table binding params to fresh slots.
func (t *SymbolTable) Child(params []string) (*SymbolTable, []int) {
	c := &SymbolTable{parent: t, locals: make(map[string]int)}
	slots := make([]int, len(params))
	for i, p := range params {
		slots[i] = c.Bind(p)
	}
	return c, slots
}

// Bind allocates a new slot for a local visible in this table and its
// children. Rebinding a name shadows the earlier slot.
func (t *SymbolTable) Bind(name string) int {
	slot := t.root().allocate(name)
	t.locals[name] = slot
	return slot
}

// Has reports whether name is a local in this table or an enclosing one.
func (t *SymbolTable) Has(name string) bool {
	_, ok := t.Get(name)
	return ok
}

// Get resolves a local name to its slot.
func (t *SymbolTable) Get(name string) (int, bool) {
	for s := t; s != nil; s = s.parent {
		if slot, ok := s.locals[name]; ok {
			return slot, true
		}
	}
	return 0, false
}

// LocalsMap returns every local visible from this table, innermost binding
// winning. Partials use it to look names up at render time.
func (t *SymbolTable) LocalsMap() map[string]int {
	var dict map[string]int
	if t.parent != nil {
		dict = t.parent.LocalsMap()
	} else {
		dict = make(map[string]int)
	}
	for name, slot := range t.locals {
		dict[name] = slot
	}
	return dict
}

// EvalInfo flattens LocalsMap into parallel name and slot lists sorted by
// name. A partial carries it so the runtime can resolve the partial's names
// against the caller's frame.
func (t *SymbolTable) EvalInfo() ([]string, []int) {
	locals := t.LocalsMap()
	names := make([]string, 0, len(locals))
	for name := range locals {
		names = append(names, name)
	}
	sort.Strings(names)
	slots := make([]int, len(names))
	for i, name := range names {
		slots[i] = locals[name]
	}
	return names, slots
}

// AllocateNamed returns the slot of a named argument, allocating it on
// first use. The leading '@' is optional.
func (t *SymbolTable) AllocateNamed(name string) int {
	r := t.root()
	if name == "" || name[0] != '@' {
		name = "@" + name
	}
	if slot, ok := r.named[name]; ok {
		return slot
	}
	slot := r.allocate(name)
	r.named[name] = slot
	return slot
}

// AllocateBlock returns the slot of a block symbol, allocating it on first
// use.
func (t *SymbolTable) AllocateBlock(name string) int {
	r := t.root()
	if slot, ok := r.blocks[name]; ok {
		return slot
	}
	slot := r.allocate("&" + name)
	r.blocks[name] = slot
	return slot
}

// Block returns the slot of a declared block.
func (t *SymbolTable) Block(name string) (int, bool) {
	slot, ok := t.root().blocks[name]
	return slot, ok
}

func (t *SymbolTable) allocate(identifier string) int {
	t.symbols = append(t.symbols, identifier)
	slot := t.size
	t.size++
	return slot
}

// Size returns the number of frame slots allocated so far, self included.
func (t *SymbolTable) Size() int {
	return t.root().size
}

// Symbols returns the identifier of every allocated slot; element i names
// slot i+1.
func (t *SymbolTable) Symbols() []string {
	return append([]string(nil), t.root().symbols...)
}

// Meta returns the template metadata the table was built for.
func (t *SymbolTable) Meta() wire.Meta {
	return t.root().meta
}

// HasPartials reports whether the layout may evaluate partials at runtime.
func (t *SymbolTable) HasPartials() bool {
	return t.root().hasPartials
}
