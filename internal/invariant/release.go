//go:build !soldebug

package invariant

// Enabled reports whether invariant checks are compiled in.
const Enabled = false

// Check is a no-op in release builds.
func Check(cond bool, msg string, args ...any) {}
