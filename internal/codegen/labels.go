package codegen

import (
	"fmt"
	"math"
)

// LabelGen issues globally unique jump labels of the form .L_<KIND>_<n>.
// A single monotone counter is shared across all kinds, so two labels can
// never collide no matter how constructs nest or repeat. The generator is
// per-compilation state, not a process global, which keeps repeated runs
// over the same program byte-identical.
type LabelGen struct {
	n uint64
}

// Next returns a fresh label for the given construct kind. The counter
// starts at 1 and never repeats a value.
func (g *LabelGen) Next(kind string) (string, error) {
	if g.n == math.MaxUint64 {
		return "", errorf(EmissionInternal, noPos, "label counter exhausted")
	}
	g.n++
	return fmt.Sprintf(".L_%s_%d", kind, g.n), nil
}
