package typeddata

import (
	"fmt"
	"sort"
	"strings"

	"github.com/ethereum/go-ethereum/crypto"
)

// TypeDefinition is one field of an EIP-712 struct type.
type TypeDefinition struct {
	Name string `json:"name"`
	Type string `json:"type"`
}

// TypeMap maps a struct type name to its ordered field list. Field order is
// significant: it determines encoding order.
type TypeMap map[string][]TypeDefinition

// baseType strips array suffixes, e.g. "Person[2][]" -> "Person".
func baseType(typ string) string {
	if idx := strings.Index(typ, "["); idx >= 0 {
		return typ[:idx]
	}
	return typ
}

// isArray reports whether typ is an array type.
func isArray(typ string) bool {
	return strings.HasSuffix(typ, "]")
}

// elemType strips the outermost array suffix, e.g. "uint256[4][]" -> "uint256[4]".
func elemType(typ string) string {
	return typ[:strings.LastIndex(typ, "[")]
}

// dependencies collects the set of struct type names referenced directly or
// transitively by typeName, including typeName itself. Depth-first with a
// visited set, so cyclic references terminate.
func (t TypeMap) dependencies(typeName string, found map[string]bool) {
	if found[typeName] {
		return
	}
	if _, ok := t[typeName]; !ok {
		return
	}
	found[typeName] = true
	for _, field := range t[typeName] {
		t.dependencies(baseType(field.Type), found)
	}
}

// TypeString builds the canonical encoding of a type: the primary type first,
// then every transitively referenced struct type in alphabetical order. This
// ordering must match the consuming ecosystem bit-for-bit.
func (t TypeMap) TypeString(primary string) string {
	found := map[string]bool{}
	t.dependencies(primary, found)
	delete(found, primary)

	deps := make([]string, 0, len(found))
	for name := range found {
		deps = append(deps, name)
	}
	sort.Strings(deps)

	var sb strings.Builder
	for _, name := range append([]string{primary}, deps...) {
		parts := make([]string, 0, len(t[name]))
		for _, field := range t[name] {
			parts = append(parts, fmt.Sprintf("%s %s", field.Type, field.Name))
		}
		sb.WriteString(fmt.Sprintf("%s(%s)", name, strings.Join(parts, ",")))
	}
	return sb.String()
}

// TypeHash is keccak256 of the canonical type string.
func (t TypeMap) TypeHash(primary string) []byte {
	return crypto.Keccak256([]byte(t.TypeString(primary)))
}
