package graph

import "errors"

// END routes out of the graph. A node whose edge points at END finishes the
// invocation with its returned state.
const END = "END"

// DefaultMaxSteps bounds an invocation unless SetMaxSteps says otherwise.
const DefaultMaxSteps = 100

// Compile and Invoke errors. Callers match them with errors.Is.
var (
	ErrEntryPointNotSet = errors.New("entry point not set")
	ErrNodeNotFound     = errors.New("node not found")
	ErrNoOutgoingEdge   = errors.New("no outgoing edge found for node")
	ErrMaxStepsExceeded = errors.New("max steps exceeded")
)

// edge is a static transition.
type edge struct {
	from, to string
}
