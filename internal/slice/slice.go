package slice

import (
	"context"
	"io"
	"log"
	"net/url"
	"strings"
	"sync"

	"storefront/internal/notify"
)

// Status is the fetch state of a slice.
type Status string

const (
	StatusIdle      Status = "idle"
	StatusLoading   Status = "loading"
	StatusSucceeded Status = "succeeded"
	StatusFailed    Status = "failed"
)

// Entity is anything cached by id.
type Entity interface {
	EntityID() string
}

// Gateway is the remote side of a slice. remote.Collection implements it.
type Gateway[T any] interface {
	List(ctx context.Context, query url.Values) ([]T, error)
	Get(ctx context.Context, id string) (T, error)
	Create(ctx context.Context, in T) (T, error)
	Replace(ctx context.Context, id string, in T) (T, error)
	Patch(ctx context.Context, id string, fields any) (T, error)
	Delete(ctx context.Context, id string) error
}

// State is an immutable snapshot of a slice. Error is set only when Status
// is StatusFailed.
type State[T any] struct {
	Items  []T
	Status Status
	Error  string
}

// Slice is a cached mirror of one remote collection. Every operation moves
// the status to loading and then to succeeded or failed; the cache changes
// only after the server confirms. Results are applied in the order they
// resolve, so the last response wins.
type Slice[T Entity] struct {
	name    string
	gateway Gateway[T]
	logger  *log.Logger

	mu      sync.Mutex
	state   State[T]
	version uint64
	subs    *notify.Broadcaster[State[T]]
}

func New[T Entity](name string, gateway Gateway[T], logger *log.Logger) *Slice[T] {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	return &Slice[T]{
		name:    name,
		gateway: gateway,
		logger:  logger,
		state:   State[T]{Items: []T{}, Status: StatusIdle},
		subs:    notify.New[State[T]](),
	}
}

// State returns a copy of the current state.
func (s *Slice[T]) State() State[T] {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

func (s *Slice[T]) Items() []T { return s.State().Items }

func (s *Slice[T]) Status() Status { return s.State().Status }

// Subscribe registers fn to receive new states in the order they were
// applied. A state superseded before it could be delivered is skipped, so
// the last state fn sees always matches State. The returned func removes
// the subscription.
func (s *Slice[T]) Subscribe(fn func(State[T])) func() {
	return s.subs.Subscribe(fn)
}

// FetchAll replaces the cache with the server's collection.
func (s *Slice[T]) FetchAll(ctx context.Context) error {
	return s.load(ctx, "fetch", nil)
}

// Search replaces the cache with the server's matches for query. A blank
// query behaves like FetchAll.
func (s *Slice[T]) Search(ctx context.Context, query string) error {
	query = strings.TrimSpace(query)
	if query == "" {
		return s.FetchAll(ctx)
	}
	return s.load(ctx, "search", url.Values{"q": {query}})
}

// Fetch loads one entity. A cached entry with the same id is refreshed.
func (s *Slice[T]) Fetch(ctx context.Context, id string) (T, error) {
	s.begin()
	item, err := s.gateway.Get(ctx, id)
	if err != nil {
		s.fail("get", err)
		return item, err
	}
	s.succeed(func(items []T) []T { return replaceByID(items, item) })
	s.logger.Printf("%s slice: get id=%s", s.name, id)
	return item, nil
}

// Create sends in without an id and appends the server's entity.
func (s *Slice[T]) Create(ctx context.Context, in T) (T, error) {
	s.begin()
	created, err := s.gateway.Create(ctx, in)
	if err != nil {
		s.fail("create", err)
		return created, err
	}
	s.succeed(func(items []T) []T { return append(items, created) })
	s.logger.Printf("%s slice: created id=%s", s.name, created.EntityID())
	return created, nil
}

// Update replaces the entity on the server and then the cached entry with
// the same id. A missing cache entry is left missing.
func (s *Slice[T]) Update(ctx context.Context, entity T) (T, error) {
	s.begin()
	updated, err := s.gateway.Replace(ctx, entity.EntityID(), entity)
	if err != nil {
		s.fail("update", err)
		return updated, err
	}
	s.succeed(func(items []T) []T { return replaceByID(items, updated) })
	s.logger.Printf("%s slice: updated id=%s", s.name, updated.EntityID())
	return updated, nil
}

// Patch applies a partial update and refreshes the cached entry.
func (s *Slice[T]) Patch(ctx context.Context, id string, fields any) (T, error) {
	s.begin()
	patched, err := s.gateway.Patch(ctx, id, fields)
	if err != nil {
		s.fail("patch", err)
		return patched, err
	}
	s.succeed(func(items []T) []T { return replaceByID(items, patched) })
	s.logger.Printf("%s slice: patched id=%s", s.name, id)
	return patched, nil
}

// Delete removes the entity on the server and then from the cache.
func (s *Slice[T]) Delete(ctx context.Context, id string) error {
	s.begin()
	if err := s.gateway.Delete(ctx, id); err != nil {
		s.fail("delete", err)
		return err
	}
	s.succeed(func(items []T) []T {
		out := items[:0]
		for _, it := range items {
			if it.EntityID() != id {
				out = append(out, it)
			}
		}
		return out
	})
	s.logger.Printf("%s slice: deleted id=%s", s.name, id)
	return nil
}

func (s *Slice[T]) load(ctx context.Context, op string, query url.Values) error {
	s.begin()
	items, err := s.gateway.List(ctx, query)
	if err != nil {
		s.fail(op, err)
		return err
	}
	s.succeed(func([]T) []T { return items })
	s.logger.Printf("%s slice: %s count=%d", s.name, op, len(items))
	return nil
}

func (s *Slice[T]) begin() {
	s.apply(func(st *State[T]) {
		st.Status = StatusLoading
		st.Error = ""
	})
}

func (s *Slice[T]) succeed(mutate func([]T) []T) {
	s.apply(func(st *State[T]) {
		st.Items = mutate(st.Items)
		st.Status = StatusSucceeded
		st.Error = ""
	})
}

func (s *Slice[T]) fail(op string, err error) {
	s.logger.Printf("%s slice: %s error=%v", s.name, op, err)
	s.apply(func(st *State[T]) {
		st.Status = StatusFailed
		st.Error = err.Error()
	})
}

// apply runs mutate on a private copy of the items so snapshots handed out
// earlier never change underneath their holders.
func (s *Slice[T]) apply(mutate func(*State[T])) {
	s.mu.Lock()
	next := s.snapshotLocked()
	mutate(&next)
	if next.Items == nil {
		next.Items = []T{}
	}
	s.state = next
	s.version++
	version := s.version
	snap := s.snapshotLocked()
	s.mu.Unlock()

	s.subs.Publish(version, snap)
}

func (s *Slice[T]) snapshotLocked() State[T] {
	items := make([]T, len(s.state.Items))
	copy(items, s.state.Items)
	return State[T]{Items: items, Status: s.state.Status, Error: s.state.Error}
}

func replaceByID[T Entity](items []T, entity T) []T {
	for i := range items {
		if items[i].EntityID() == entity.EntityID() {
			items[i] = entity
			break
		}
	}
	return items
}
