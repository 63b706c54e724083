package compiler

import (
	"errors"
	"testing"

	"github.com/chazu/layoutc/wire"
)

func TestLayoutBuilderUnbound(t *testing.T) {
	b := NewLayoutBuilder(nil, Options{})
	if _, err := b.Tag(); !errors.Is(err, ErrUnbound) {
		t.Errorf("Tag() error = %v, want ErrUnbound", err)
	}
	if _, err := b.Attrs(); !errors.Is(err, ErrUnbound) {
		t.Errorf("Attrs() error = %v, want ErrUnbound", err)
	}
	if _, err := b.Compile(); !errors.Is(err, ErrUnbound) {
		t.Errorf("Compile() error = %v, want ErrUnbound", err)
	}
}

func TestLayoutBuilderUnwrappedHasNoTag(t *testing.T) {
	b := NewLayoutBuilder(nil, Options{})
	if err := b.Unwrapped(tpl(wire.Text("hi"))); err != nil {
		t.Fatal(err)
	}
	if _, err := b.Tag(); !errors.Is(err, ErrNoTag) {
		t.Errorf("Tag() error = %v, want ErrNoTag", err)
	}
	if _, err := b.Attrs(); err != nil {
		t.Errorf("Attrs() error = %v", err)
	}
}

func TestLayoutBuilderRebind(t *testing.T) {
	b := NewLayoutBuilder(nil, Options{})
	if err := b.Wrapped(tpl()); err != nil {
		t.Fatal(err)
	}
	if err := b.Unwrapped(tpl()); !errors.Is(err, ErrAlreadyBound) {
		t.Fatalf("second bind error = %v, want ErrAlreadyBound", err)
	}
	if _, err := b.Tag(); err != nil {
		t.Errorf("failed rebind should keep the first strategy, Tag() = %v", err)
	}

	permissive := NewLayoutBuilder(nil, Options{AllowRebind: true})
	if err := permissive.Wrapped(tpl()); err != nil {
		t.Fatal(err)
	}
	if err := permissive.Unwrapped(tpl()); err != nil {
		t.Fatalf("AllowRebind: %v", err)
	}
	if _, err := permissive.Tag(); !errors.Is(err, ErrNoTag) {
		t.Errorf("rebind should replace the strategy, Tag() = %v", err)
	}
}

func TestLayoutBuilderNilTemplate(t *testing.T) {
	b := NewLayoutBuilder(nil, Options{})
	if err := b.Wrapped(nil); err == nil {
		t.Error("Wrapped(nil) should fail")
	}
	if _, err := b.Attrs(); !errors.Is(err, ErrUnbound) {
		t.Errorf("failed bind should leave the builder unbound, got %v", err)
	}
}

func TestLayoutBuilderMissingTag(t *testing.T) {
	b := NewLayoutBuilder(nil, Options{})
	if err := b.Wrapped(tpl(wire.Text("hi"))); err != nil {
		t.Fatal(err)
	}
	if _, err := b.Compile(); !errors.Is(err, ErrMissingTag) {
		t.Errorf("Compile() error = %v, want ErrMissingTag", err)
	}
}

func TestLayoutBuilderCompile(t *testing.T) {
	b := NewLayoutBuilder(nil, Options{})
	if err := b.Wrapped(tpl(wire.Text("hi"))); err != nil {
		t.Fatal(err)
	}
	tag, err := b.Tag()
	if err != nil {
		t.Fatal(err)
	}
	tag.Static("p")

	p, err := b.Compile()
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}
	if len(p.Statements) != 4 {
		t.Fatalf("statements = %d, want 4", len(p.Statements))
	}
	if p.Statements[0].Kind != wire.StmtOpenElement || p.Statements[0].Name != "p" {
		t.Errorf("first statement = %s %q, want open-element p", p.Statements[0].Kind, p.Statements[0].Name)
	}
	if p.Symbols.Size() != 1 {
		t.Errorf("frame size = %d, want 1", p.Symbols.Size())
	}
}
