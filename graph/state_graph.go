package graph

import (
	"context"
	"fmt"
	"sync"
)

// StateGraph is a typed graph of nodes operating on a state value of type S.
type StateGraph[S any] struct {
	// nodes is a map of node names to their corresponding Node objects
	nodes map[string]TypedNode[S]

	// edges holds the static connections between nodes
	edges []edge

	// conditionalEdges maps a "From" node to a router choosing the next node at runtime
	conditionalEdges map[string]func(ctx context.Context, state S) string

	// entryPoint is the name of the entry point node in the graph
	entryPoint string

	maxSteps int
}

// TypedNode represents a typed node in the graph.
type TypedNode[S any] struct {
	Name        string
	Description string
	Function    func(ctx context.Context, state S) (S, error)
}

// NewStateGraph creates a new instance of StateGraph.
func NewStateGraph[S any]() *StateGraph[S] {
	return &StateGraph[S]{
		nodes:            make(map[string]TypedNode[S]),
		conditionalEdges: make(map[string]func(ctx context.Context, state S) string),
		maxSteps:         DefaultMaxSteps,
	}
}

// AddNode adds a node with the given name, description and function.
// Adding a node under an existing name replaces it.
func (g *StateGraph[S]) AddNode(name string, description string, fn func(ctx context.Context, state S) (S, error)) {
	g.nodes[name] = TypedNode[S]{
		Name:        name,
		Description: description,
		Function:    fn,
	}
}

// AddEdge adds a static edge between the "from" and "to" nodes.
func (g *StateGraph[S]) AddEdge(from, to string) {
	g.edges = append(g.edges, edge{
		from: from,
		to:   to,
	})
}

// AddConditionalEdge adds an edge whose target is chosen by condition after
// from has run. A conditional edge takes precedence over static edges of the
// same node.
func (g *StateGraph[S]) AddConditionalEdge(from string, condition func(ctx context.Context, state S) string) {
	g.conditionalEdges[from] = condition
}

// SetEntryPoint sets the entry point node name for the state graph.
func (g *StateGraph[S]) SetEntryPoint(name string) {
	g.entryPoint = name
}

// SetMaxSteps sets the maximum number of node executions per Invoke.
// Non-positive values restore DefaultMaxSteps.
func (g *StateGraph[S]) SetMaxSteps(n int) {
	if n <= 0 {
		n = DefaultMaxSteps
	}
	g.maxSteps = n
}

// Nodes returns the node names in no particular order.
func (g *StateGraph[S]) Nodes() []string {
	names := make([]string, 0, len(g.nodes))
	for name := range g.nodes {
		names = append(names, name)
	}
	return names
}

// Compile validates the graph and returns a StateRunnable instance.
func (g *StateGraph[S]) Compile() (*StateRunnable[S], error) {
	if g.entryPoint == "" {
		return nil, ErrEntryPointNotSet
	}
	if _, ok := g.nodes[g.entryPoint]; !ok {
		return nil, fmt.Errorf("%w: entry point %s", ErrNodeNotFound, g.entryPoint)
	}

	for _, e := range g.edges {
		if _, ok := g.nodes[e.from]; !ok {
			return nil, fmt.Errorf("%w: edge source %s", ErrNodeNotFound, e.from)
		}
		if e.to == END {
			continue
		}
		if _, ok := g.nodes[e.to]; !ok {
			return nil, fmt.Errorf("%w: edge target %s", ErrNodeNotFound, e.to)
		}
	}
	for from := range g.conditionalEdges {
		if _, ok := g.nodes[from]; !ok {
			return nil, fmt.Errorf("%w: conditional edge source %s", ErrNodeNotFound, from)
		}
	}
	for name := range g.nodes {
		if _, ok := g.conditionalEdges[name]; ok {
			continue
		}
		if g.staticTarget(name) == "" {
			return nil, fmt.Errorf("%w: %s", ErrNoOutgoingEdge, name)
		}
	}

	return &StateRunnable[S]{graph: g}, nil
}

func (g *StateGraph[S]) staticTarget(from string) string {
	for _, e := range g.edges {
		if e.from == from {
			return e.to
		}
	}
	return ""
}

// StateRunnable represents a compiled state graph that can be invoked.
type StateRunnable[S any] struct {
	graph *StateGraph[S]

	mu        sync.RWMutex
	listeners []NodeListener[S]
}

// AddListener registers a listener for node events and returns the runnable for chaining.
func (r *StateRunnable[S]) AddListener(l NodeListener[S]) *StateRunnable[S] {
	r.mu.Lock()
	r.listeners = append(r.listeners, l)
	r.mu.Unlock()
	return r
}

// Invoke executes the graph from the entry point until a node routes to END.
// On failure the last successfully produced state is returned with the error.
func (r *StateRunnable[S]) Invoke(ctx context.Context, initialState S) (S, error) {
	state := initialState
	current := r.graph.entryPoint

	for steps := 0; current != END; steps++ {
		if err := ctx.Err(); err != nil {
			return state, err
		}
		if steps >= r.graph.maxSteps {
			return state, fmt.Errorf("%w: %d", ErrMaxStepsExceeded, r.graph.maxSteps)
		}

		node, ok := r.graph.nodes[current]
		if !ok {
			return state, fmt.Errorf("%w: %s", ErrNodeNotFound, current)
		}

		next, err := r.execute(ctx, node, state)
		if err != nil {
			return state, fmt.Errorf("error in node %s: %w", node.Name, err)
		}
		state = next

		current, err = r.route(ctx, node.Name, state)
		if err != nil {
			return state, err
		}
	}

	return state, nil
}

func (r *StateRunnable[S]) execute(ctx context.Context, node TypedNode[S], state S) (result S, err error) {
	r.notify(ctx, NodeEventStart, node.Name, state, nil)

	defer func() {
		if p := recover(); p != nil {
			result = state
			err = fmt.Errorf("panic in node %s: %v", node.Name, p)
		}
		if err != nil {
			r.notify(ctx, NodeEventError, node.Name, state, err)
			return
		}
		r.notify(ctx, NodeEventComplete, node.Name, result, nil)
	}()

	return node.Function(ctx, state)
}

func (r *StateRunnable[S]) route(ctx context.Context, from string, state S) (string, error) {
	if cond, ok := r.graph.conditionalEdges[from]; ok {
		next := cond(ctx, state)
		if next == "" {
			return "", fmt.Errorf("conditional edge returned empty next node from %s", from)
		}
		if next != END {
			if _, ok := r.graph.nodes[next]; !ok {
				return "", fmt.Errorf("%w: %s (routed from %s)", ErrNodeNotFound, next, from)
			}
		}
		return next, nil
	}

	if next := r.graph.staticTarget(from); next != "" {
		return next, nil
	}
	return "", fmt.Errorf("%w: %s", ErrNoOutgoingEdge, from)
}
