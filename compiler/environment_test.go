package compiler

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/chazu/layoutc/vm"
	"github.com/chazu/layoutc/wire"
)

func TestMapEnvironment(t *testing.T) {
	env := NewMapEnvironment()
	button := env.Register("Button")
	adminButton := env.RegisterIn("admin", "Button")
	chart := env.RegisterIn("admin", "Chart")

	if button.Handle == adminButton.Handle || adminButton.Handle == chart.Handle {
		t.Fatalf("handles not unique: %v %v %v", button, adminButton, chart)
	}
	if again := env.Register("Button"); again != button {
		t.Errorf("re-register = %v, want %v", again, button)
	}

	tests := []struct {
		name   string
		module string
		want   vm.DefinitionRef
		found  bool
	}{
		{"Button", "", button, true},
		{"Button", "site", button, true},
		{"Button", "admin", adminButton, true},
		{"Chart", "admin", chart, true},
		{"Chart", "site", vm.DefinitionRef{}, false},
		{"Missing", "admin", vm.DefinitionRef{}, false},
	}
	for _, tt := range tests {
		got, ok := env.LookupComponent(tt.name, wire.Meta{ModuleName: tt.module})
		if ok != tt.found || got != tt.want {
			t.Errorf("LookupComponent(%q, %q) = %v, %v; want %v, %v", tt.name, tt.module, got, ok, tt.want, tt.found)
		}
	}

	if diff := cmp.Diff([]string{"Button", "admin::Button", "admin::Chart"}, env.Names()); diff != "" {
		t.Errorf("names mismatch (-want +got):\n%s", diff)
	}
}
