package graph

import (
	"context"

	"github.com/smallnest/researchdeck/log"
)

// NodeEvent represents different types of node events
type NodeEvent string

const (
	// NodeEventStart indicates a node has started execution
	NodeEventStart NodeEvent = "start"

	// NodeEventComplete indicates a node has completed successfully
	NodeEventComplete NodeEvent = "complete"

	// NodeEventError indicates a node encountered an error
	NodeEventError NodeEvent = "error"
)

// NodeListener receives node events. Listeners are called synchronously in
// execution order; a panicking listener is ignored.
type NodeListener[S any] interface {
	OnNodeEvent(ctx context.Context, event NodeEvent, nodeName string, state S, err error)
}

// NodeListenerFunc is a function adapter for NodeListener
type NodeListenerFunc[S any] func(ctx context.Context, event NodeEvent, nodeName string, state S, err error)

// OnNodeEvent implements the NodeListener interface
func (f NodeListenerFunc[S]) OnNodeEvent(ctx context.Context, event NodeEvent, nodeName string, state S, err error) {
	f(ctx, event, nodeName, state, err)
}

// LoggingListener writes node events to a logger.
type LoggingListener[S any] struct {
	logger log.Logger
	prefix string
}

// NewLoggingListener creates a listener logging through logger. A nil logger
// uses the package default.
func NewLoggingListener[S any](logger log.Logger, prefix string) *LoggingListener[S] {
	if logger == nil {
		logger = log.GetDefaultLogger()
	}
	return &LoggingListener[S]{logger: logger, prefix: prefix}
}

// OnNodeEvent implements NodeListener.
func (l *LoggingListener[S]) OnNodeEvent(_ context.Context, event NodeEvent, nodeName string, _ S, err error) {
	switch event {
	case NodeEventError:
		l.logger.Warn("%snode %s failed: %v", l.prefix, nodeName, err)
	default:
		l.logger.Debug("%snode %s %s", l.prefix, nodeName, event)
	}
}

func (r *StateRunnable[S]) notify(ctx context.Context, event NodeEvent, nodeName string, state S, err error) {
	r.mu.RLock()
	listeners := make([]NodeListener[S], len(r.listeners))
	copy(listeners, r.listeners)
	r.mu.RUnlock()

	for _, l := range listeners {
		func() {
			defer func() { _ = recover() }()
			l.OnNodeEvent(ctx, event, nodeName, state, err)
		}()
	}
}
