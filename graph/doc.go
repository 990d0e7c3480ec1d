// Package graph implements a small typed state machine used to drive the
// per-objective investigation loop.
//
// A StateGraph[S] holds named nodes, static edges and conditional edges. Exactly
// one node is active at a time: a node receives the current state, returns the
// next state, and the outgoing edge (static or conditional) names the next node.
// Routing to END stops execution.
//
//	g := graph.NewStateGraph[Counter]()
//	g.AddNode("inc", "increment", func(ctx context.Context, c Counter) (Counter, error) {
//		c.N++
//		return c, nil
//	})
//	g.AddConditionalEdge("inc", func(ctx context.Context, c Counter) string {
//		if c.N < 3 {
//			return "inc"
//		}
//		return graph.END
//	})
//	g.SetEntryPoint("inc")
//
//	runnable, err := g.Compile()
//	if err != nil {
//		return err
//	}
//	final, err := runnable.Invoke(ctx, Counter{})
//
// Compile validates the topology. Invoke checks the context before every step,
// enforces a step ceiling (SetMaxSteps) so that a faulty router cannot spin
// forever, converts node panics into errors, and reports start, complete and
// error events to registered NodeListener values in execution order.
package graph
