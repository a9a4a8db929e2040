// Package runtimefield holds fields that are not part of the static schema
// but are declared or discovered for the duration of a resolution session.
package runtimefield

import (
	"context"
	"sync"
	"sync/atomic"

	"golang.org/x/sync/singleflight"
	"golang.org/x/text/cases"
)

// Field describes a runtime field.
type Field struct {
	// Name is the canonical field name. Lookups compare it case-insensitively.
	Name string `yaml:"name" json:"name"`

	// Type is the value type the field produces (keyword, long, date, ...).
	Type string `yaml:"type,omitempty" json:"type,omitempty"`

	// Script computes the field value, when the search engine needs one.
	Script string `yaml:"script,omitempty" json:"script,omitempty"`
}

// ResolverFunc discovers a runtime field by the name a user typed.
//
// It returns (nil, nil) when no such field can be discovered. It may perform
// I/O; timeouts and retries are its own concern.
type ResolverFunc func(ctx context.Context, name string) (*Field, error)

// Set is the append-only, ordered collection of runtime fields known to a
// resolution session. A Set may be shared across sessions by a caller that
// wants discoveries memoized between requests.
//
// Thread-safety: all methods are safe for concurrent use.
type Set struct {
	mu     sync.Mutex
	fields []*Field
	byFold map[string]*Field

	inflight singleflight.Group
}

// NewSet creates a set holding the given fields. Fields whose name is
// already present are skipped.
func NewSet(fields ...Field) *Set {
	s := &Set{byFold: make(map[string]*Field)}
	for _, f := range fields {
		s.Add(f)
	}
	return s
}

// Len returns the number of fields in the set.
func (s *Set) Len() int {
	if s == nil {
		return 0
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.fields)
}

// Find returns the field whose name equals name case-insensitively.
func (s *Set) Find(name string) (*Field, bool) {
	if s == nil {
		return nil, false
	}
	key := fold(name)
	s.mu.Lock()
	defer s.mu.Unlock()
	f, ok := s.byFold[key]
	return f, ok
}

// Add appends f unless a field with an equal name is already present.
// It returns the field held by the set and whether f was appended.
func (s *Set) Add(f Field) (*Field, bool) {
	key := fold(f.Name)
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.addLocked(key, f)
}

func (s *Set) addLocked(key string, f Field) (*Field, bool) {
	if s.byFold == nil {
		s.byFold = make(map[string]*Field)
	}
	if existing, ok := s.byFold[key]; ok {
		return existing, false
	}
	stored := &f
	s.fields = append(s.fields, stored)
	s.byFold[key] = stored
	return stored, true
}

// Fields returns a snapshot of the fields in insertion order.
func (s *Set) Fields() []Field {
	if s == nil {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Field, len(s.fields))
	for i, f := range s.fields {
		out[i] = *f
	}
	return out
}

// FindOrDiscover returns the field matching name, calling discover only when
// the set has no match.
//
// The check and the insert are atomic with respect to other callers: for any
// one folded name at most one discover call is in flight, and concurrent
// callers share its result. A discovered field is appended to the set before
// any caller receives it.
//
// The discover call is not cancelled by any one caller's ctx, since other
// callers may be waiting on it; it receives ctx's values only. Each caller
// stops waiting when its own ctx is done and returns ctx.Err().
//
// The returned bool is true for at most one caller that received a newly
// appended field; every other caller gets false.
func (s *Set) FindOrDiscover(ctx context.Context, name string, discover ResolverFunc) (*Field, bool, error) {
	if f, ok := s.Find(name); ok {
		return f, false, nil
	}
	if err := ctx.Err(); err != nil {
		return nil, false, err
	}

	detached := context.WithoutCancel(ctx)
	ch := s.inflight.DoChan(fold(name), func() (any, error) {
		// Another flight for this key may have finished between Find and DoChan.
		if f, ok := s.Find(name); ok {
			return &flight{field: f}, nil
		}
		discovered, err := discover(detached, name)
		if err != nil || discovered == nil {
			return &flight{}, err
		}
		stored, added := s.Add(*discovered)
		return &flight{field: stored, added: added}, nil
	})

	select {
	case <-ctx.Done():
		return nil, false, ctx.Err()
	case r := <-ch:
		if r.Err != nil {
			return nil, false, r.Err
		}
		f := r.Val.(*flight)
		return f.field, f.claim(), nil
	}
}

// flight is the shared result of one discover call.
type flight struct {
	field   *Field
	added   bool
	claimed atomic.Bool
}

// claim reports whether the caller is the first to take an appended field.
func (f *flight) claim() bool {
	return f.added && f.claimed.CompareAndSwap(false, true)
}

// fold returns the case-folded form of name. A Caser is stateful, so one is
// created per call.
func fold(name string) string {
	return cases.Fold().String(name)
}
