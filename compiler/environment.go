package compiler

import (
	"sort"

	"github.com/chazu/layoutc/vm"
	"github.com/chazu/layoutc/wire"
)

// Environment resolves component names the compiler can see statically.
// Helpers, including the dynamic component resolver, are referenced by name
// in the emitted program and resolved by the runtime, not here.
type Environment interface {
	LookupComponent(name string, meta wire.Meta) (vm.DefinitionRef, bool)
}

// MapEnvironment is an Environment backed by a registry of component names.
// A component may be registered for a single module; module-scoped entries
// win over global ones for templates from that module.
type MapEnvironment struct {
	components map[string]vm.DefinitionRef
	next       uint32
}

// NewMapEnvironment returns an empty registry.
func NewMapEnvironment() *MapEnvironment {
	return &MapEnvironment{components: make(map[string]vm.DefinitionRef), next: 1}
}

func scopedKey(module, name string) string {
	if module == "" {
		return name
	}
	return module + "::" + name
}

// Register adds a component visible to every module and returns its handle.
func (e *MapEnvironment) Register(name string) vm.DefinitionRef {
	return e.RegisterIn("", name)
}

// RegisterIn adds a component visible only to templates of module.
// Registering the same key twice returns the existing definition.
func (e *MapEnvironment) RegisterIn(module, name string) vm.DefinitionRef {
	key := scopedKey(module, name)
	if def, ok := e.components[key]; ok {
		return def
	}
	def := vm.DefinitionRef{Name: name, Handle: e.next}
	e.next++
	e.components[key] = def
	return def
}

func (e *MapEnvironment) LookupComponent(name string, meta wire.Meta) (vm.DefinitionRef, bool) {
	if meta.ModuleName != "" {
		if def, ok := e.components[scopedKey(meta.ModuleName, name)]; ok {
			return def, true
		}
	}
	def, ok := e.components[name]
	return def, ok
}

// Names returns the registered keys in sorted order.
func (e *MapEnvironment) Names() []string {
	names := make([]string, 0, len(e.components))
	for k := range e.components {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}
