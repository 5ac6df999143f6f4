package slice

import (
	"context"
	"errors"
	"net/url"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type item struct {
	ID   string
	Name string
}

func (i item) EntityID() string { return i.ID }

type stubGateway struct {
	mu         sync.Mutex
	listFn     func(ctx context.Context, query url.Values) ([]item, error)
	listItems  []item
	listErr    error
	lastQuery  url.Values
	listCalls  int
	createErr  error
	createdIn  item
	nextID     string
	replaceOut *item
	replaceErr error
	patchOut   item
	patchErr   error
	lastPatch  any
	deleteErr  error
	deletedID  string
	getOut     item
	getErr     error
}

func (g *stubGateway) List(ctx context.Context, query url.Values) ([]item, error) {
	g.mu.Lock()
	g.listCalls++
	g.lastQuery = query
	fn := g.listFn
	g.mu.Unlock()
	if fn != nil {
		return fn(ctx, query)
	}
	return g.listItems, g.listErr
}

func (g *stubGateway) Get(_ context.Context, _ string) (item, error) {
	return g.getOut, g.getErr
}

func (g *stubGateway) Create(_ context.Context, in item) (item, error) {
	g.createdIn = in
	if g.createErr != nil {
		return item{}, g.createErr
	}
	in.ID = g.nextID
	return in, nil
}

func (g *stubGateway) Replace(_ context.Context, _ string, in item) (item, error) {
	if g.replaceErr != nil {
		return item{}, g.replaceErr
	}
	if g.replaceOut != nil {
		return *g.replaceOut, nil
	}
	return in, nil
}

func (g *stubGateway) Patch(_ context.Context, _ string, fields any) (item, error) {
	g.lastPatch = fields
	return g.patchOut, g.patchErr
}

func (g *stubGateway) Delete(_ context.Context, id string) error {
	g.deletedID = id
	return g.deleteErr
}

func TestSliceStartsIdle(t *testing.T) {
	s := New[item]("items", &stubGateway{}, nil)
	st := s.State()
	assert.Equal(t, StatusIdle, st.Status)
	assert.Empty(t, st.Items)
	assert.Empty(t, st.Error)
}

func TestFetchAllReplacesCache(t *testing.T) {
	gw := &stubGateway{listItems: []item{{ID: "1"}, {ID: "2"}}}
	s := New[item]("items", gw, nil)

	require.NoError(t, s.FetchAll(context.Background()))
	assert.Len(t, s.Items(), 2)

	gw.listItems = []item{{ID: "3"}}
	require.NoError(t, s.FetchAll(context.Background()))
	assert.Equal(t, []item{{ID: "3"}}, s.Items())
	assert.Equal(t, StatusSucceeded, s.Status())
}

func TestFetchAllThenCreateUsesServerID(t *testing.T) {
	gw := &stubGateway{listItems: []item{{ID: "1"}}, nextID: "srv-42"}
	s := New[item]("items", gw, nil)

	require.NoError(t, s.FetchAll(context.Background()))
	created, err := s.Create(context.Background(), item{ID: "client-chosen", Name: "x"})
	require.NoError(t, err)

	assert.Equal(t, "srv-42", created.ID)
	items := s.Items()
	require.Len(t, items, 2)
	assert.Equal(t, item{ID: "srv-42", Name: "x"}, items[1])
	for _, it := range items {
		assert.NotEqual(t, "client-chosen", it.ID)
	}
}

func TestSearchBlankQueryFallsBackToFetchAll(t *testing.T) {
	gw := &stubGateway{listItems: []item{{ID: "1"}}}
	s := New[item]("items", gw, nil)

	require.NoError(t, s.Search(context.Background(), "   "))
	assert.Nil(t, gw.lastQuery)
	assert.Len(t, s.Items(), 1)

	require.NoError(t, s.Search(context.Background(), "lamp"))
	assert.Equal(t, "lamp", gw.lastQuery.Get("q"))
}

func TestFailureKeepsItemsAndRecordsError(t *testing.T) {
	gw := &stubGateway{listItems: []item{{ID: "1"}}}
	s := New[item]("items", gw, nil)
	require.NoError(t, s.FetchAll(context.Background()))

	gw.listItems, gw.listErr = nil, errors.New("Network Error")
	err := s.FetchAll(context.Background())
	require.Error(t, err)

	st := s.State()
	assert.Equal(t, StatusFailed, st.Status)
	assert.Equal(t, "Network Error", st.Error)
	assert.Equal(t, []item{{ID: "1"}}, st.Items)

	gw.createErr = errors.New("boom")
	_, err = s.Create(context.Background(), item{Name: "x"})
	require.Error(t, err)
	assert.Equal(t, []item{{ID: "1"}}, s.Items())

	gw.listErr = nil
	gw.listItems = []item{{ID: "9"}}
	require.NoError(t, s.FetchAll(context.Background()))
	assert.Equal(t, StatusSucceeded, s.Status())
	assert.Empty(t, s.State().Error)
}

func TestUpdateReplacesByIDAndIgnoresMiss(t *testing.T) {
	gw := &stubGateway{listItems: []item{{ID: "1", Name: "a"}, {ID: "2", Name: "b"}}}
	s := New[item]("items", gw, nil)
	require.NoError(t, s.FetchAll(context.Background()))

	_, err := s.Update(context.Background(), item{ID: "2", Name: "b2"})
	require.NoError(t, err)
	assert.Equal(t, []item{{ID: "1", Name: "a"}, {ID: "2", Name: "b2"}}, s.Items())

	_, err = s.Update(context.Background(), item{ID: "404", Name: "ghost"})
	require.NoError(t, err)
	assert.Equal(t, []item{{ID: "1", Name: "a"}, {ID: "2", Name: "b2"}}, s.Items())
	assert.Equal(t, StatusSucceeded, s.Status())
}

func TestPatchRefreshesCachedEntry(t *testing.T) {
	gw := &stubGateway{listItems: []item{{ID: "1", Name: "old"}}, patchOut: item{ID: "1", Name: "new"}}
	s := New[item]("items", gw, nil)
	require.NoError(t, s.FetchAll(context.Background()))

	got, err := s.Patch(context.Background(), "1", map[string]string{"name": "new"})
	require.NoError(t, err)
	assert.Equal(t, "new", got.Name)
	assert.Equal(t, []item{{ID: "1", Name: "new"}}, s.Items())
}

func TestDeleteRemovesByIDRegardlessOfPosition(t *testing.T) {
	gw := &stubGateway{listItems: []item{{ID: "1"}, {ID: "2"}, {ID: "3"}}}
	s := New[item]("items", gw, nil)
	require.NoError(t, s.FetchAll(context.Background()))

	require.NoError(t, s.Delete(context.Background(), "2"))
	assert.Equal(t, "2", gw.deletedID)
	assert.Equal(t, []item{{ID: "1"}, {ID: "3"}}, s.Items())

	gw.deleteErr = errors.New("nope")
	require.Error(t, s.Delete(context.Background(), "1"))
	assert.Equal(t, []item{{ID: "1"}, {ID: "3"}}, s.Items())
}

func TestFetchRefreshesOnlyCachedEntry(t *testing.T) {
	gw := &stubGateway{listItems: []item{{ID: "1", Name: "a"}}, getOut: item{ID: "1", Name: "fresh"}}
	s := New[item]("items", gw, nil)
	require.NoError(t, s.FetchAll(context.Background()))

	got, err := s.Fetch(context.Background(), "1")
	require.NoError(t, err)
	assert.Equal(t, "fresh", got.Name)
	assert.Equal(t, []item{{ID: "1", Name: "fresh"}}, s.Items())

	gw.getOut = item{ID: "2", Name: "other"}
	_, err = s.Fetch(context.Background(), "2")
	require.NoError(t, err)
	assert.Len(t, s.Items(), 1)
}

func TestSubscribersSeeTransitions(t *testing.T) {
	gw := &stubGateway{listItems: []item{{ID: "1"}}}
	s := New[item]("items", gw, nil)

	var seen []Status
	unsubscribe := s.Subscribe(func(st State[item]) { seen = append(seen, st.Status) })
	require.NoError(t, s.FetchAll(context.Background()))
	assert.Equal(t, []Status{StatusLoading, StatusSucceeded}, seen)

	unsubscribe()
	require.NoError(t, s.FetchAll(context.Background()))
	assert.Len(t, seen, 2)
}

func TestSnapshotsAreIsolated(t *testing.T) {
	gw := &stubGateway{listItems: []item{{ID: "1", Name: "a"}}}
	s := New[item]("items", gw, nil)
	require.NoError(t, s.FetchAll(context.Background()))

	items := s.Items()
	items[0].Name = "mutated"
	assert.Equal(t, "a", s.Items()[0].Name)
}

func TestLastResponseToResolveWins(t *testing.T) {
	release := map[string]chan struct{}{"slow": make(chan struct{}), "fast": make(chan struct{})}
	gw := &stubGateway{listFn: func(_ context.Context, q url.Values) ([]item, error) {
		term := q.Get("q")
		<-release[term]
		return []item{{ID: term}}, nil
	}}
	s := New[item]("items", gw, nil)

	var wg sync.WaitGroup
	wg.Add(2)
	go func() { defer wg.Done(); _ = s.Search(context.Background(), "slow") }()
	go func() { defer wg.Done(); _ = s.Search(context.Background(), "fast") }()

	close(release["fast"])
	require.Eventually(t, func() bool {
		items := s.Items()
		return len(items) == 1 && items[0].ID == "fast"
	}, time.Second, 5*time.Millisecond)

	close(release["slow"])
	wg.Wait()
	assert.Equal(t, []item{{ID: "slow"}}, s.Items())
	assert.Equal(t, StatusSucceeded, s.Status())
}

func TestSlowSubscriberEndsOnLatestState(t *testing.T) {
	fetching := make(chan struct{})
	releaseFetch := make(chan struct{})
	gw := &stubGateway{listFn: func(_ context.Context, q url.Values) ([]item, error) {
		if q.Get("q") == "old" {
			return []item{{ID: "old"}}, nil
		}
		close(fetching)
		<-releaseFetch
		return []item{{ID: "new"}}, nil
	}}
	s := New[item]("items", gw, nil)

	sawOld := make(chan struct{})
	releaseSub := make(chan struct{})
	var once sync.Once
	var mu sync.Mutex
	var last State[item]
	s.Subscribe(func(st State[item]) {
		if st.Status == StatusSucceeded && len(st.Items) == 1 && st.Items[0].ID == "old" {
			once.Do(func() { close(sawOld) })
			<-releaseSub
		}
		mu.Lock()
		last = st
		mu.Unlock()
	})

	var wg sync.WaitGroup
	wg.Add(2)
	go func() { defer wg.Done(); _ = s.FetchAll(context.Background()) }()
	<-fetching
	go func() { defer wg.Done(); _ = s.Search(context.Background(), "old") }()
	<-sawOld

	close(releaseFetch)
	require.Eventually(t, func() bool {
		items := s.Items()
		return len(items) == 1 && items[0].ID == "new"
	}, time.Second, 5*time.Millisecond)

	close(releaseSub)
	wg.Wait()

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, s.State(), last)
	assert.Equal(t, []item{{ID: "new"}}, last.Items)
}
