// Package invariant checks internal consistency conditions.
//
// Checks panic when built with the soldebug tag and compile to nothing
// otherwise. A failed check means a logic defect in the caller, never bad input.
package invariant
