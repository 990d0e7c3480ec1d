package research

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBoard_CopyOnWrite(t *testing.T) {
	b := NewBoard([]Objective{{ID: "a", Title: "A"}, {ID: "b", Title: "B"}})

	before := b.Snapshot()
	updated, err := b.Update("a", func(o *Objective) {
		o.Sources = append(o.Sources, Source{Title: "s", URI: "u"})
	})
	require.NoError(t, err)

	assert.Len(t, updated.Sources, 1)
	assert.Empty(t, before[0].Sources, "earlier snapshots are not affected")

	updated.Sources[0].Title = "mutated"
	got, _ := b.Get("a")
	assert.Equal(t, "s", got.Sources[0].Title, "returned copies do not alias board state")
}

func TestBoard_UnknownObjective(t *testing.T) {
	b := NewBoard(nil)
	_, err := b.Update("x", func(o *Objective) {})
	assert.ErrorIs(t, err, ErrObjectiveNotFound)
}

func TestBoard_ObserversSeeOrderedSnapshots(t *testing.T) {
	var mu sync.Mutex
	var counts []int
	b := NewBoard([]Objective{{ID: "a"}}, ObserverFunc(func(objs []Objective) {
		mu.Lock()
		counts = append(counts, len(objs[0].FindingsHistory))
		mu.Unlock()
	}))

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = b.Update("a", func(o *Objective) {
				o.FindingsHistory = append(o.FindingsHistory, "x")
			})
		}()
	}
	wg.Wait()

	require.Len(t, counts, 20)
	for i, c := range counts {
		assert.Equal(t, i+1, c)
	}
}
