package runtime

import (
	_ "embed"

	"github.com/sergev/sour/check"
)

//go:embed builtin.sour
var builtinSource string

// BuiltinSource returns the definitions of the standard library.
func BuiltinSource() string {
	return builtinSource
}

// NewRegistry loads the standard library definitions into a fresh registry.
// Callers may load more definitions into it before sharing it.
func NewRegistry() (*check.Registry, error) {
	return check.LoadRegistry(builtinSource)
}
