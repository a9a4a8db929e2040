package resolver

import (
	"context"
	"log/slog"
	"sync"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"github.com/gordysc/Foundatio.Parsers/internal/mapping"
	"github.com/gordysc/Foundatio.Parsers/internal/querynode"
	"github.com/gordysc/Foundatio.Parsers/internal/runtimefield"
)

// Source identifies which step of the chain resolved a field.
type Source string

const (
	SourceMapping      Source = "mapping"
	SourceRuntimeField Source = "runtime_field"
	SourceDiscovery    Source = "discovery"
)

// Visitor resolves field references in query trees.
//
// A Visitor holds no per-session state and may be reused across sessions
// and goroutines.
type Visitor struct {
	logger      *slog.Logger
	parallelism int
}

// Option configures a Visitor.
type Option func(*Visitor)

// WithLogger sets the logger. Default: slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(v *Visitor) {
		v.logger = logger
	}
}

// WithParallelism resolves up to n subtrees of the root concurrently.
//
// Each subtree is still walked in pre-order. Discoveries stay serialized per
// field name through the runtime field set. n <= 1 means sequential.
func WithParallelism(n int) Option {
	return func(v *Visitor) {
		v.parallelism = n
	}
}

// New creates a Visitor.
func New(opts ...Option) *Visitor {
	v := &Visitor{parallelism: 1}
	for _, opt := range opts {
		opt(v)
	}
	if v.logger == nil {
		v.logger = slog.Default()
	}
	return v
}

// Run resolves the tree rooted at root in a new session over m, using
// discover as the discovery callback.
func Run(ctx context.Context, root querynode.Node, m mapping.Resolver, discover runtimefield.ResolverFunc) (querynode.Node, error) {
	return New().Accept(ctx, root, NewSessionContext(m, WithDiscovery(discover)))
}

// Accept resolves every field-bearing node below root in place and returns
// root.
//
// vctx must implement Context with a mapping resolver and a runtime field
// set; otherwise a *ConfigError is returned and the tree is not touched.
func (v *Visitor) Accept(ctx context.Context, root querynode.Node, vctx querynode.VisitorContext) (querynode.Node, error) {
	_, err := v.AcceptWithStats(ctx, root, vctx)
	return root, err
}

// AcceptWithStats is Accept, also reporting what the session did. Stats
// are valid even when an error stops the session early.
func (v *Visitor) AcceptWithStats(ctx context.Context, root querynode.Node, vctx querynode.VisitorContext) (Stats, error) {
	rc, ok := vctx.(Context)
	if !ok {
		return Stats{}, incompatibleContext("context %T does not provide field resolution capabilities", vctx)
	}
	if rc.MappingResolver() == nil {
		return Stats{}, incompatibleContext("context has no mapping resolver")
	}
	if rc.RuntimeFields() == nil {
		return Stats{}, incompatibleContext("context has no runtime field set")
	}

	s := &session{
		ctx:    rc,
		logger: v.logger.With("session", rc.SessionID()),
		misses: make(map[string]struct{}),
	}

	var err error
	if v.parallelism > 1 {
		err = s.walkParallel(ctx, root, v.parallelism)
	} else {
		err = querynode.Walk(ctx, root, s)
	}

	stats := s.snapshot()
	if err != nil {
		s.logger.Warn("field resolution aborted",
			"error", err,
			"visited", stats.Visited,
			"rewritten", stats.Rewritten)
		return stats, err
	}
	s.logger.Debug("field resolution complete",
		"visited", stats.Visited,
		"rewritten", stats.Rewritten,
		"discovered", stats.Discovered,
		"unresolved", stats.Unresolved)
	return stats, nil
}

// Stats counts what happened during one session.
type Stats struct {
	Visited    int `json:"visited"`    // field-bearing nodes passed through the chain
	Rewritten  int `json:"rewritten"`
	Discovered int `json:"discovered"` // fields appended to the runtime field set
	Unresolved int `json:"unresolved"`
}

// session is the state of one Accept call.
type session struct {
	ctx    Context
	logger *slog.Logger

	lookups singleflight.Group

	mu     sync.Mutex
	misses map[string]struct{} // names discovery already failed to find
	stats  Stats
}

func (s *session) walkParallel(ctx context.Context, root querynode.Node, limit int) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := s.Visit(ctx, root); err != nil {
		return err
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(limit)
	for _, child := range querynode.Children(root) {
		g.Go(func() error {
			return querynode.Walk(gctx, child, s)
		})
	}
	return g.Wait()
}

// Visit implements querynode.Visitor.
func (s *session) Visit(ctx context.Context, n querynode.Node) error {
	var fn querynode.FieldNode
	switch node := n.(type) {
	case *querynode.GroupNode:
		fn = node
	case *querynode.TermNode:
		fn = node
	case *querynode.TermRangeNode:
		fn = node
	case *querynode.ExistsNode:
		fn = node
	case *querynode.MissingNode:
		fn = node
	case *querynode.MatchAllNode:
		return nil
	default:
		return nil
	}

	if querynode.IsRoot(fn) || !fn.HasField() {
		return nil
	}
	return s.resolve(ctx, fn)
}

func (s *session) resolve(ctx context.Context, n querynode.FieldNode) error {
	field := n.Field()
	s.count(func(st *Stats) { st.Visited++ })

	m, err := s.ctx.MappingResolver().GetMapping(field)
	if err != nil {
		s.logger.Error("mapping lookup failed", "field", field, "error", err)
		return err
	}
	if m.Found {
		s.rewrite(n, field, m.FullPath, SourceMapping)
		return nil
	}

	fields := s.ctx.RuntimeFields()
	if fields.Len() > 0 {
		if f, ok := fields.Find(field); ok {
			s.rewrite(n, field, f.Name, SourceRuntimeField)
			return nil
		}
	}

	discover := s.ctx.RuntimeFieldResolver()
	if enabled := s.ctx.RuntimeFieldResolverEnabled(); discover == nil || (enabled != nil && !*enabled) {
		s.unresolved(field)
		return nil
	}
	f, err := s.discover(ctx, fields, field, discover)
	if err != nil {
		s.logger.Error("runtime field discovery failed", "field", field, "error", err)
		return err
	}
	if f == nil {
		s.unresolved(field)
		return nil
	}
	s.rewrite(n, field, f.Name, SourceDiscovery)
	return nil
}

// discover runs the discovery step for field at most once per session,
// returning nil when the field cannot be discovered. Concurrent visits of the
// same field share one lookup, and a miss is recorded before any of them
// returns.
func (s *session) discover(ctx context.Context, fields *runtimefield.Set, field string, discover runtimefield.ResolverFunc) (*runtimefield.Field, error) {
	v, err, _ := s.lookups.Do(field, func() (any, error) {
		if s.missed(field) {
			return (*runtimefield.Field)(nil), nil
		}
		f, added, err := fields.FindOrDiscover(ctx, field, discover)
		if err != nil {
			return nil, err
		}
		if f == nil {
			s.mu.Lock()
			s.misses[field] = struct{}{}
			s.mu.Unlock()
			return (*runtimefield.Field)(nil), nil
		}
		if added {
			s.count(func(st *Stats) { st.Discovered++ })
			s.logger.Debug("runtime field discovered", "field", field, "name", f.Name, "type", f.Type)
		}
		return f, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*runtimefield.Field), nil
}

// rewrite replaces the node's field with canonical when they differ.
func (s *session) rewrite(n querynode.FieldNode, field, canonical string, source Source) {
	if canonical == field {
		return
	}
	n.SetOriginalField(field)
	n.SetField(canonical)
	s.count(func(st *Stats) { st.Rewritten++ })
	s.logger.Debug("field resolved", "field", field, "resolved", canonical, "source", string(source))
}

func (s *session) unresolved(field string) {
	s.count(func(st *Stats) { st.Unresolved++ })
	s.logger.Debug("field unresolved", "field", field)
}

func (s *session) missed(field string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.misses[field]
	return ok
}

func (s *session) count(fn func(*Stats)) {
	s.mu.Lock()
	fn(&s.stats)
	s.mu.Unlock()
}

func (s *session) snapshot() Stats {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stats
}
