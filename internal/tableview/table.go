package tableview

import (
	"context"
	"sync"

	"github.com/phillip-england/cineadmin/internal/tablesort"
)

// View is what a page renders: rows in display order plus the flags that
// decide between the loading, empty and data states.
type View[R any, K ~string] struct {
	Rows    []R
	Loading bool
	Empty   bool
	Err     error
	Sort    tablesort.State[K]
	// Fetched is false until the first refresh has been issued.
	Fetched bool
}

// Table pairs a Store with the sort state chosen by header clicks. It keeps
// the view for the latest snapshot, re-sorting when the store publishes or
// the sort changes, so a refresh keeps the current ordering.
type Table[R tablesort.Sortable[K], K ~string, P any] struct {
	store *Store[R, P]

	mu   sync.Mutex
	sort tablesort.State[K]
	snap Snapshot[R]
	view View[R, K]
}

func NewTable[R tablesort.Sortable[K], K ~string, P any](store *Store[R, P]) *Table[R, K, P] {
	t := &Table[R, K, P]{store: store}
	store.Subscribe(t.apply)
	t.apply(store.Snapshot())
	return t
}

// apply keeps snap unless the table already holds a newer one.
func (t *Table[R, K, P]) apply(snap Snapshot[R]) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if snap.Version < t.snap.Version {
		return
	}
	t.snap = snap
	t.view = ViewOf(snap, t.sort)
}

func (t *Table[R, K, P]) Store() *Store[R, P] { return t.store }

func (t *Table[R, K, P]) Refresh(ctx context.Context, params P) {
	t.store.Refresh(ctx, params)
}

func (t *Table[R, K, P]) Reload(ctx context.Context) {
	t.store.Reload(ctx)
}

// Begin marks a refresh for params as loading and returns the fetch that
// completes it.
func (t *Table[R, K, P]) Begin(params P) func(ctx context.Context) {
	return t.complete(t.store.Begin(params))
}

// BeginReload is Begin with the most recent params.
func (t *Table[R, K, P]) BeginReload() func(ctx context.Context) {
	return t.complete(t.store.BeginReload())
}

func (t *Table[R, K, P]) complete(req Request[P]) func(ctx context.Context) {
	return func(ctx context.Context) { t.store.Complete(ctx, req) }
}

// ToggleSort applies a header click on key.
func (t *Table[R, K, P]) ToggleSort(key K) tablesort.State[K] {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.sort = t.sort.Toggle(key)
	t.view = ViewOf(t.snap, t.sort)
	return t.sort
}

func (t *Table[R, K, P]) SortState() tablesort.State[K] {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.sort
}

// View returns the rendered view of the latest snapshot. Rows is shared and
// must not be modified.
func (t *Table[R, K, P]) View() View[R, K] {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.view
}

// ViewOf derives the rendered view for one snapshot.
func ViewOf[R tablesort.Sortable[K], K ~string](snap Snapshot[R], state tablesort.State[K]) View[R, K] {
	rows := tablesort.Sort(snap.Records, state)
	return View[R, K]{
		Rows:    rows,
		Loading: snap.Loading,
		Empty:   len(rows) == 0 && !snap.Loading,
		Err:     snap.Err,
		Sort:    state,
		Fetched: snap.Version > 0,
	}
}
