package common

import "fmt"

// Assert checks a condition and panics if it is false.
//
// WHY USE THIS INSTEAD OF RETURNING ERROR?
// In idiomatic Go, you are encouraged to return error values for conditions that might reasonably happen
// (e.g., "file not found" or "network timeout"). However, complex system engineering often relies on invariants:
//
//	truths about the system state that must always be valid. Assertions are useful for the following cases:
//	1. Fail Fast: If internal logic is broken (e.g., a routing table lost a chunk),
//	   continuing execution is dangerous. Misrouted documents are silent data corruption.
//	2. Documentation: An Assert tells other developers: "I guarantee this condition is true here."
//	3. Debugging: The panic provides a stack trace immediately pointing to the logic error.
//
// WHEN TO USE:
// - Checking for "impossible" conditions (e.g., switch default cases that shouldn't be reached).
// - Verifying internal data structure integrity (e.g., chunk bounds arity matches the key pattern).
//
// WHEN NOT TO USE:
// - Validating user input (return an error instead).
// - Handling I/O failures like "disk full" (return an error instead).
func Assert(cond bool, format string, args ...any) {
	if !cond {
		panic(fmt.Sprintf(format, args...))
	}
}
