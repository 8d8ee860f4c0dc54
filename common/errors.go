package common

import "fmt"

type GoShardErrorCode int

const (
	// NamespaceNotFound indicates that the database containing a referenced
	// namespace does not exist. Note that a missing collection inside an
	// existing database is NOT this error; a write stage is free to create
	// the collection itself, so callers treat that case as an ordinary
	// negative answer rather than a failure.
	NamespaceNotFound GoShardErrorCode = iota
	// DuplicateNamespaceError indicates an attempt to create a database or
	// collection that already exists in the catalog.
	DuplicateNamespaceError
	// InvalidRoutingTableError indicates a chunk distribution that does not
	// form a gapless, non-overlapping cover of the key space.
	InvalidRoutingTableError
	// NamespaceNotShardedError indicates a sharding operation against a
	// collection with no shard key.
	NamespaceNotShardedError
)

func (ec GoShardErrorCode) String() string {
	switch ec {
	case NamespaceNotFound:
		return "NamespaceNotFound"
	case DuplicateNamespaceError:
		return "DuplicateNamespaceError"
	case InvalidRoutingTableError:
		return "InvalidRoutingTableError"
	case NamespaceNotShardedError:
		return "NamespaceNotShardedError"
	}
	return "unknown"
}

// GoShardError is the custom error type for the sharding layer.
// It wraps a specific GoShardErrorCode with a detailed message.
//
// By implementing the built-in 'error' interface, it integrates seamlessly
// with Go's error handling while carrying enough metadata for callers to
// branch on the failure kind (e.g. distinguishing a materially broken
// namespace reference from a transient catalog fault).
type GoShardError struct {
	Code      GoShardErrorCode
	ErrString string
}

func (e GoShardError) Error() string {
	return fmt.Sprintf("err: %s; msg: %s", e.Code.String(), e.ErrString)
}

// HasCode reports whether err is a GoShardError with the given code.
func HasCode(err error, code GoShardErrorCode) bool {
	gse, ok := err.(GoShardError)
	return ok && gse.Code == code
}
