//go:build soldebug

package invariant

import "fmt"

// Enabled reports whether invariant checks are compiled in.
const Enabled = true

// Check panics with msg when cond is false.
func Check(cond bool, msg string, args ...any) {
	if !cond {
		panic("invariant violated: " + fmt.Sprintf(msg, args...))
	}
}
