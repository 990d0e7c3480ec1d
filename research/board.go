package research

import (
	"fmt"
	"sync"
)

// Observer receives a consistent snapshot of all objectives after every
// observable change. Snapshots are private copies. Observers must not call
// Board.Update.
type Observer interface {
	OnSnapshot(objectives []Objective)
}

// ObserverFunc adapts a function to Observer.
type ObserverFunc func(objectives []Objective)

// OnSnapshot implements Observer.
func (f ObserverFunc) OnSnapshot(objectives []Objective) { f(objectives) }

// Board is the ordered objective list shared by the pipeline stages. Every
// change replaces the whole list, so readers never see a partial update.
type Board struct {
	mu         sync.RWMutex
	objectives []Objective

	notifyMu  sync.Mutex
	observers []Observer
}

// NewBoard creates a board holding copies of objectives.
func NewBoard(objectives []Objective, observers ...Observer) *Board {
	b := &Board{observers: observers}
	b.objectives = cloneAll(objectives)
	return b
}

// Subscribe adds an observer.
func (b *Board) Subscribe(obs Observer) {
	b.notifyMu.Lock()
	b.observers = append(b.observers, obs)
	b.notifyMu.Unlock()
}

// Snapshot returns a deep copy of all objectives in order.
func (b *Board) Snapshot() []Objective {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return cloneAll(b.objectives)
}

// Get returns a copy of the objective with id.
func (b *Board) Get(id string) (Objective, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	for _, o := range b.objectives {
		if o.ID == id {
			return o.Clone(), true
		}
	}
	return Objective{}, false
}

// Update applies fn to a copy of the objective with id, installs a new list
// containing it and notifies observers. It returns the updated objective.
func (b *Board) Update(id string, fn func(o *Objective)) (Objective, error) {
	b.mu.Lock()
	idx := -1
	for i, o := range b.objectives {
		if o.ID == id {
			idx = i
			break
		}
	}
	if idx < 0 {
		b.mu.Unlock()
		return Objective{}, fmt.Errorf("%w: %s", ErrObjectiveNotFound, id)
	}

	next := make([]Objective, len(b.objectives))
	copy(next, b.objectives)
	updated := next[idx].Clone()
	fn(&updated)
	next[idx] = updated
	b.objectives = next

	// Take the notify lock before releasing the list lock so observers see
	// snapshots in the order the updates happened.
	b.notifyMu.Lock()
	b.mu.Unlock()
	observers := b.observers
	for _, obs := range observers {
		obs.OnSnapshot(cloneAll(next))
	}
	b.notifyMu.Unlock()

	return updated.Clone(), nil
}

func cloneAll(objectives []Objective) []Objective {
	out := make([]Objective, len(objectives))
	for i, o := range objectives {
		out[i] = o.Clone()
	}
	return out
}
