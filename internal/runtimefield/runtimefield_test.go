package runtimefield_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gordysc/Foundatio.Parsers/internal/runtimefield"
	"github.com/gordysc/Foundatio.Parsers/internal/testutil"
)

func TestSet_FindCaseInsensitive(t *testing.T) {
	set := runtimefield.NewSet(
		runtimefield.Field{Name: "fullName", Type: "keyword"},
		runtimefield.Field{Name: "Straße", Type: "keyword"},
	)

	f, ok := set.Find("FULLNAME")
	require.True(t, ok)
	assert.Equal(t, "fullName", f.Name)

	f, ok = set.Find("STRASSE")
	require.True(t, ok, "full case folding")
	assert.Equal(t, "Straße", f.Name)

	_, ok = set.Find("missing")
	assert.False(t, ok)
}

func TestSet_AddIsAppendOnly(t *testing.T) {
	set := runtimefield.NewSet()

	stored, added := set.Add(runtimefield.Field{Name: "total", Type: "long"})
	require.True(t, added)
	assert.Equal(t, "long", stored.Type)

	stored, added = set.Add(runtimefield.Field{Name: "TOTAL", Type: "double"})
	assert.False(t, added, "equal names are not appended twice")
	assert.Equal(t, "total", stored.Name)
	assert.Equal(t, "long", stored.Type, "existing entries are never overwritten")

	set.Add(runtimefield.Field{Name: "avg"})
	assert.Equal(t, []runtimefield.Field{
		{Name: "total", Type: "long"},
		{Name: "avg"},
	}, set.Fields())
	assert.Equal(t, 2, set.Len())
}

func TestSet_FieldsIsSnapshot(t *testing.T) {
	set := runtimefield.NewSet(runtimefield.Field{Name: "a"})
	snapshot := set.Fields()
	snapshot[0].Name = "changed"

	f, ok := set.Find("a")
	require.True(t, ok)
	assert.Equal(t, "a", f.Name)
}

func TestSet_ZeroValueUsable(t *testing.T) {
	var set runtimefield.Set
	_, added := set.Add(runtimefield.Field{Name: "a"})
	assert.True(t, added)
	assert.Equal(t, 1, set.Len())
}

func TestSet_NilReads(t *testing.T) {
	var set *runtimefield.Set
	assert.Equal(t, 0, set.Len())
	assert.Nil(t, set.Fields())
	_, ok := set.Find("a")
	assert.False(t, ok)
}

func TestFindOrDiscover_AppendsDiscoveredField(t *testing.T) {
	set := runtimefield.NewSet()
	discover := testutil.NewCountingResolver(map[string]runtimefield.Field{
		"X": {Name: "x"},
	})

	f, added, err := set.FindOrDiscover(context.Background(), "X", discover.Resolve)
	require.NoError(t, err)
	require.NotNil(t, f)
	assert.True(t, added)
	assert.Equal(t, "x", f.Name)
	assert.Equal(t, []runtimefield.Field{{Name: "x"}}, set.Fields())

	// Second lookup is served from the set.
	f, added, err = set.FindOrDiscover(context.Background(), "X", discover.Resolve)
	require.NoError(t, err)
	assert.False(t, added)
	assert.Equal(t, "x", f.Name)
	assert.Equal(t, 1, discover.Calls("X"))
}

func TestFindOrDiscover_NotDiscoverable(t *testing.T) {
	set := runtimefield.NewSet()
	discover := testutil.NewCountingResolver(nil)

	f, added, err := set.FindOrDiscover(context.Background(), "nope", discover.Resolve)
	require.NoError(t, err)
	assert.Nil(t, f)
	assert.False(t, added)
	assert.Equal(t, 0, set.Len())
}

func TestFindOrDiscover_PropagatesError(t *testing.T) {
	boom := errors.New("boom")
	set := runtimefield.NewSet()

	_, _, err := set.FindOrDiscover(context.Background(), "a", func(context.Context, string) (*runtimefield.Field, error) {
		return nil, boom
	})
	assert.Same(t, boom, err, "errors are returned unchanged")
	assert.Equal(t, 0, set.Len())
}

func TestFindOrDiscover_ConcurrentCallersShareOneDiscovery(t *testing.T) {
	set := runtimefield.NewSet()
	discover := testutil.NewCountingResolver(map[string]runtimefield.Field{
		"X": {Name: "x"},
	})
	discover.Gate = make(chan struct{})

	const callers = 20
	var wg sync.WaitGroup
	results := make([]*runtimefield.Field, callers)
	errs := make([]error, callers)
	added := make([]bool, callers)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], added[i], errs[i] = set.FindOrDiscover(context.Background(), "X", discover.Resolve)
		}(i)
	}

	// Release the discovery once the first caller is inside it. Callers that
	// arrive after it completes find the field in the set.
	require.Eventually(t, func() bool { return discover.Total() >= 1 }, timeout, tick)
	close(discover.Gate)
	wg.Wait()

	for i := 0; i < callers; i++ {
		require.NoError(t, errs[i])
		require.NotNil(t, results[i])
		assert.Equal(t, "x", results[i].Name)
	}
	assert.Equal(t, 1, discover.Calls("X"), "one discovery for one name")
	assert.Equal(t, 1, set.Len())

	appended := 0
	for _, a := range added {
		if a {
			appended++
		}
	}
	assert.Equal(t, 1, appended, "only the caller that ran the discovery reports the append")
}

type discoverResult struct {
	field *runtimefield.Field
	added bool
	err   error
}

func findOrDiscoverAsync(ctx context.Context, set *runtimefield.Set, name string, discover runtimefield.ResolverFunc) <-chan discoverResult {
	out := make(chan discoverResult, 1)
	go func() {
		f, added, err := set.FindOrDiscover(ctx, name, discover)
		out <- discoverResult{f, added, err}
	}()
	return out
}

func receive(t *testing.T, ch <-chan discoverResult) discoverResult {
	t.Helper()
	select {
	case r := <-ch:
		return r
	case <-time.After(timeout):
		t.Fatal("FindOrDiscover did not return")
		return discoverResult{}
	}
}

func TestFindOrDiscover_CancelledCallerDoesNotFailOthers(t *testing.T) {
	set := runtimefield.NewSet()
	discover := testutil.NewCountingResolver(map[string]runtimefield.Field{
		"X": {Name: "x"},
	})
	discover.Gate = make(chan struct{})

	firstCtx, cancelFirst := context.WithCancel(context.Background())
	defer cancelFirst()
	first := findOrDiscoverAsync(firstCtx, set, "X", discover.Resolve)
	require.Eventually(t, func() bool { return discover.Total() == 1 }, timeout, tick)

	second := findOrDiscoverAsync(context.Background(), set, "X", discover.Resolve)
	// Give the second caller time to join the discovery in flight.
	time.Sleep(20 * time.Millisecond)

	cancelFirst()
	r := receive(t, first)
	assert.ErrorIs(t, r.err, context.Canceled)
	assert.Nil(t, r.field)

	close(discover.Gate)
	r = receive(t, second)
	require.NoError(t, r.err, "another caller's cancellation is not this caller's error")
	require.NotNil(t, r.field)
	assert.Equal(t, "x", r.field.Name)
	assert.Equal(t, 1, discover.Calls("X"))
	assert.Equal(t, 1, set.Len(), "the discovery completes after its first caller left")
}

func TestFindOrDiscover_WaiterStopsAtOwnDeadline(t *testing.T) {
	set := runtimefield.NewSet()
	discover := testutil.NewCountingResolver(map[string]runtimefield.Field{
		"X": {Name: "x"},
	})
	discover.Gate = make(chan struct{})

	first := findOrDiscoverAsync(context.Background(), set, "X", discover.Resolve)
	require.Eventually(t, func() bool { return discover.Total() == 1 }, timeout, tick)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	r := receive(t, findOrDiscoverAsync(ctx, set, "X", discover.Resolve))
	assert.ErrorIs(t, r.err, context.DeadlineExceeded)
	assert.Nil(t, r.field)

	close(discover.Gate)
	r = receive(t, first)
	require.NoError(t, r.err)
	assert.True(t, r.added)
	assert.Equal(t, 1, discover.Calls("X"))
}

func TestFindOrDiscover_CancelledBeforeCallSkipsDiscovery(t *testing.T) {
	set := runtimefield.NewSet()
	discover := testutil.NewCountingResolver(map[string]runtimefield.Field{
		"X": {Name: "x"},
	})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, _, err := set.FindOrDiscover(ctx, "X", discover.Resolve)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 0, discover.Total())
}
