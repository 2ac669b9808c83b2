package types

import (
	"fmt"
	"strings"
)

// FunctionID is a fully qualified Move function identifier,
// e.g. 0x3::address_mapping::resolve_or_generate.
type FunctionID struct {
	Address  Address
	Module   string
	Function string
}

// ParseFunctionID parses "<address>::<module>::<function>".
func ParseFunctionID(s string) (FunctionID, error) {
	parts := strings.Split(s, "::")
	if len(parts) != 3 {
		return FunctionID{}, fmt.Errorf("function id %q: expected <address>::<module>::<function>", s)
	}
	addr, err := ParseAddress(parts[0])
	if err != nil {
		return FunctionID{}, fmt.Errorf("function id %q: %w", s, err)
	}
	if !isIdentifier(parts[1]) {
		return FunctionID{}, fmt.Errorf("function id %q: invalid module name %q", s, parts[1])
	}
	if !isIdentifier(parts[2]) {
		return FunctionID{}, fmt.Errorf("function id %q: invalid function name %q", s, parts[2])
	}
	return FunctionID{Address: addr, Module: parts[1], Function: parts[2]}, nil
}

// String returns the short-address form used on the wire.
func (f FunctionID) String() string {
	return f.Address.ShortString() + "::" + f.Module + "::" + f.Function
}

// isIdentifier reports whether s is a valid Move identifier.
func isIdentifier(s string) bool {
	if s == "" {
		return false
	}
	for i, c := range s {
		switch {
		case c == '_':
		case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z':
		case c >= '0' && c <= '9' && i > 0:
		default:
			return false
		}
	}
	return true
}
