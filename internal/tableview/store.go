// Package tableview holds fetched table rows and derives the sorted view the
// admin pages render.
package tableview

import (
	"context"
	"log/slog"
	"sync"
)

// Fetcher loads the full record set for params.
type Fetcher[R, P any] func(ctx context.Context, params P) ([]R, error)

// Snapshot is an immutable copy of the store state. Records is in fetch order
// and must not be modified by receivers.
type Snapshot[R any] struct {
	Records []R
	Loading bool
	Err     error
	Version uint64
}

// Store keeps the last fetched record sequence. Each refresh is numbered when
// it starts and a result is dropped once a later refresh has been applied, so
// the most recently issued refresh wins. With CompletionOrder the store
// instead keeps whichever refresh resolves last.
type Store[R, P any] struct {
	fetch           Fetcher[R, P]
	log             *slog.Logger
	name            string
	completionOrder bool

	mu         sync.Mutex
	snap       Snapshot[R]
	inflight   int
	issued     uint64
	applied    uint64
	lastParams P
	hasParams  bool
	subs       map[int]func(Snapshot[R])
	nextSub    int

	// publishing is held while subscribers run so they see snapshots in
	// the order the store produced them.
	publishing sync.Mutex
}

type StoreOption func(*storeOptions)

type storeOptions struct {
	log             *slog.Logger
	name            string
	completionOrder bool
}

func WithLogger(log *slog.Logger) StoreOption {
	return func(o *storeOptions) { o.log = log }
}

// WithName labels log lines for this store.
func WithName(name string) StoreOption {
	return func(o *storeOptions) { o.name = name }
}

// CompletionOrder disables stale-result dropping: every completed refresh
// overwrites the records, even one issued before the refresh already shown.
func CompletionOrder(enabled bool) StoreOption {
	return func(o *storeOptions) { o.completionOrder = enabled }
}

func NewStore[R, P any](fetch Fetcher[R, P], opts ...StoreOption) *Store[R, P] {
	o := storeOptions{log: slog.Default(), name: "table"}
	for _, opt := range opts {
		opt(&o)
	}
	return &Store[R, P]{
		fetch:           fetch,
		log:             o.log,
		name:            o.name,
		completionOrder: o.completionOrder,
		subs:            make(map[int]func(Snapshot[R])),
	}
}

func (s *Store[R, P]) Snapshot() Snapshot[R] {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snap
}

// Subscribe registers fn for every new snapshot. fn must not call back into
// the store synchronously.
func (s *Store[R, P]) Subscribe(fn func(Snapshot[R])) (unsubscribe func()) {
	s.mu.Lock()
	id := s.nextSub
	s.nextSub++
	s.subs[id] = fn
	s.mu.Unlock()

	return func() {
		s.mu.Lock()
		delete(s.subs, id)
		s.mu.Unlock()
	}
}

// Params reports the params of the most recent refresh.
func (s *Store[R, P]) Params() (P, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastParams, s.hasParams
}

// Request is a refresh that has been issued but not fetched yet.
type Request[P any] struct {
	seq    uint64
	params P
}

func (r Request[P]) Params() P { return r.params }

// Begin issues a refresh for params without fetching. From here on the store
// reports Loading and Params returns params, so a page rendered before the
// fetch runs already shows the new query. Every Request must be passed to
// Complete exactly once or the store stays loading.
func (s *Store[R, P]) Begin(params P) Request[P] {
	s.mu.Lock()
	s.issued++
	req := Request[P]{seq: s.issued, params: params}
	s.inflight++
	s.lastParams = params
	s.hasParams = true
	s.snap.Loading = true
	s.publishLocked()
	return req
}

// BeginReload issues a refresh that repeats the most recent params; with no
// prior refresh it uses the zero params.
func (s *Store[R, P]) BeginReload() Request[P] {
	params, _ := s.Params()
	return s.Begin(params)
}

// Complete fetches req and replaces the stored records unless a later
// request has already been applied. Any failure leaves the store empty.
func (s *Store[R, P]) Complete(ctx context.Context, req Request[P]) Snapshot[R] {
	rows, err := s.fetch(ctx, req.params)

	s.mu.Lock()
	s.inflight--
	stale := !s.completionOrder && req.seq < s.applied
	if !stale {
		s.applied = req.seq
		if err != nil {
			s.log.Warn("table refresh failed", "table", s.name, "err", err)
			rows = nil
		}
		if rows == nil {
			rows = []R{}
		}
		s.snap.Records = rows
		s.snap.Err = err
	} else {
		s.log.Debug("dropping stale table refresh", "table", s.name, "seq", req.seq, "applied", s.applied)
	}
	s.snap.Loading = s.inflight > 0
	return s.publishLocked()
}

// Refresh fetches with params and replaces the stored records.
func (s *Store[R, P]) Refresh(ctx context.Context, params P) Snapshot[R] {
	return s.Complete(ctx, s.Begin(params))
}

// Reload repeats the most recent refresh.
func (s *Store[R, P]) Reload(ctx context.Context) Snapshot[R] {
	return s.Complete(ctx, s.BeginReload())
}

// publishLocked bumps the version, releases mu and notifies subscribers.
func (s *Store[R, P]) publishLocked() Snapshot[R] {
	s.snap.Version++
	snap := s.snap
	subs := make([]func(Snapshot[R]), 0, len(s.subs))
	for _, fn := range s.subs {
		subs = append(subs, fn)
	}
	s.publishing.Lock()
	s.mu.Unlock()
	defer s.publishing.Unlock()
	for _, fn := range subs {
		fn(snap)
	}
	return snap
}
