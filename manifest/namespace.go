package manifest

import (
	"fmt"
	"strings"
)

// SplitComponentName splits "module::Name" into its module and bare name.
// Only the first "::" separates: "admin::forms::Field" is module "admin",
// name "forms::Field".
func SplitComponentName(s string) (module, name string) {
	if idx := strings.Index(s, "::"); idx >= 0 {
		return s[:idx], s[idx+2:]
	}
	return "", s
}

// reservedNames cannot name a component.
var reservedNames = map[string]bool{
	"this": true,
}

// reservedPrefixes start names that templates already give another meaning:
// named arguments, block symbols, internal locals and helpers such as the
// dynamic component resolver.
var reservedPrefixes = []string{"@", "&", "%", "-"}

// IsReservedName reports whether name is unavailable as a component name.
func IsReservedName(name string) bool {
	if reservedNames[name] {
		return true
	}
	for _, p := range reservedPrefixes {
		if strings.HasPrefix(name, p) {
			return true
		}
	}
	return false
}

// ValidateComponentName checks a bare component name.
func ValidateComponentName(name string) error {
	if name == "" {
		return fmt.Errorf("empty component name")
	}
	if IsReservedName(name) {
		return fmt.Errorf("component name %q is reserved", name)
	}
	if strings.ContainsAny(name, " \t\n") {
		return fmt.Errorf("component name %q contains whitespace", name)
	}
	return nil
}
