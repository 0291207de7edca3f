package merge

import (
	"errors"
	"fmt"

	"github.com/foremast/foremast/pkg/node"
)

// ErrUnresolvedConflict is matched by every UnresolvedConflictError.
var ErrUnresolvedConflict = errors.New("unresolved merge conflict")

// UnresolvedConflictError reports a pair of values that no strategy could
// reconcile. It always indicates an authoring error in the default schema or
// in a configuration source.
type UnresolvedConflictError struct {
	// Path is the key path of the conflicting values.
	Path Path

	// Base is the value already present.
	Base node.Node

	// Incoming is the value that could not be merged into Base.
	Incoming node.Node
}

// Error implements the error interface.
func (e *UnresolvedConflictError) Error() string {
	return fmt.Sprintf("%s at %s: cannot merge %s %s with %s %s",
		ErrUnresolvedConflict, e.Path,
		e.Base.Kind(), e.Base, e.Incoming.Kind(), e.Incoming)
}

// Is implements error equality checking for errors.Is.
func (e *UnresolvedConflictError) Is(target error) bool {
	return target == ErrUnresolvedConflict
}
