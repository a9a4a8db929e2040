package testutil

import (
	"context"
	"sync"

	"github.com/gordysc/Foundatio.Parsers/internal/runtimefield"
)

// CountingResolver is a discovery callback backed by a fixed table that
// counts how often each name is requested.
//
// Lookups in the table are exact: a test decides which typed spellings are
// discoverable and what canonical field each one yields.
//
// Thread-safety: all methods are safe for concurrent use via internal mutex.
type CountingResolver struct {
	mu     sync.Mutex
	fields map[string]runtimefield.Field
	calls  map[string]int
	total  int

	// Err, when set, is returned by every call after it is counted.
	Err error

	// Gate, when set, is received from before answering. Tests use it to
	// hold discoveries in flight.
	Gate chan struct{}
}

// NewCountingResolver creates a resolver that maps typed names to fields.
func NewCountingResolver(fields map[string]runtimefield.Field) *CountingResolver {
	if fields == nil {
		fields = map[string]runtimefield.Field{}
	}
	return &CountingResolver{
		fields: fields,
		calls:  make(map[string]int),
	}
}

// Resolve implements runtimefield.ResolverFunc.
func (r *CountingResolver) Resolve(ctx context.Context, name string) (*runtimefield.Field, error) {
	r.mu.Lock()
	r.calls[name]++
	r.total++
	err := r.Err
	f, ok := r.fields[name]
	gate := r.Gate
	r.mu.Unlock()

	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, nil
	}
	return &f, nil
}

// Calls returns how often name was requested.
func (r *CountingResolver) Calls(name string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.calls[name]
}

// CallCounts returns a copy of the per-name request counts.
func (r *CountingResolver) CallCounts() map[string]int {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make(map[string]int, len(r.calls))
	for name, n := range r.calls {
		out[name] = n
	}
	return out
}

// Total returns the number of requests across all names.
func (r *CountingResolver) Total() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.total
}
