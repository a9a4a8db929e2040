package resolver

import (
	"sync"

	"github.com/google/uuid"

	"github.com/gordysc/Foundatio.Parsers/internal/mapping"
	"github.com/gordysc/Foundatio.Parsers/internal/querynode"
	"github.com/gordysc/Foundatio.Parsers/internal/runtimefield"
)

// Context is the capability set field resolution requires from a visitor
// context.
type Context interface {
	querynode.VisitorContext

	// MappingResolver returns the static schema. Required.
	MappingResolver() mapping.Resolver

	// RuntimeFields returns the session's runtime field set. Required.
	RuntimeFields() *runtimefield.Set

	// RuntimeFieldResolver returns the discovery callback, or nil.
	RuntimeFieldResolver() runtimefield.ResolverFunc

	// RuntimeFieldResolverEnabled returns the discovery switch. Nil means
	// enabled.
	RuntimeFieldResolverEnabled() *bool
}

// SessionIDGenerator generates resolution session ids for log correlation.
type SessionIDGenerator interface {
	Generate() string
}

// UUIDv7Generator generates time-sortable UUIDv7 session ids.
type UUIDv7Generator struct{}

// Generate returns a new UUIDv7 as a hyphenated string.
func (UUIDv7Generator) Generate() string {
	return uuid.Must(uuid.NewV7()).String()
}

// SessionContext is the per-request state of one resolution session.
//
// Fields may be shared between sessions by passing the same set; whether to
// do so is the caller's decision.
type SessionContext struct {
	ID              string
	Mapping         mapping.Resolver
	Fields          *runtimefield.Set
	Discover        runtimefield.ResolverFunc
	EnableDiscovery *bool

	idGen SessionIDGenerator
	once  sync.Once
}

// SessionOption configures a SessionContext.
type SessionOption func(*SessionContext)

// WithRuntimeFields uses set as the session's runtime fields.
func WithRuntimeFields(set *runtimefield.Set) SessionOption {
	return func(c *SessionContext) {
		c.Fields = set
	}
}

// WithDiscovery sets the discovery callback.
func WithDiscovery(fn runtimefield.ResolverFunc) SessionOption {
	return func(c *SessionContext) {
		c.Discover = fn
	}
}

// WithDiscoveryEnabled explicitly enables or disables the discovery callback.
func WithDiscoveryEnabled(enabled bool) SessionOption {
	return func(c *SessionContext) {
		c.EnableDiscovery = &enabled
	}
}

// WithSessionID sets the session id instead of generating one.
func WithSessionID(id string) SessionOption {
	return func(c *SessionContext) {
		c.ID = id
	}
}

// WithSessionIDGenerator generates the session id with gen.
func WithSessionIDGenerator(gen SessionIDGenerator) SessionOption {
	return func(c *SessionContext) {
		c.idGen = gen
	}
}

// NewSessionContext creates a session over m with an empty runtime field set
// and a UUIDv7 session id, unless options say otherwise.
func NewSessionContext(m mapping.Resolver, opts ...SessionOption) *SessionContext {
	c := &SessionContext{Mapping: m}
	for _, opt := range opts {
		opt(c)
	}
	if c.ID == "" {
		gen := c.idGen
		if gen == nil {
			gen = UUIDv7Generator{}
		}
		c.ID = gen.Generate()
	}
	c.RuntimeFields()
	return c
}

// SessionID implements querynode.VisitorContext.
func (c *SessionContext) SessionID() string { return c.ID }

// MappingResolver implements Context.
func (c *SessionContext) MappingResolver() mapping.Resolver { return c.Mapping }

// RuntimeFields implements Context. A session created without a set gets an
// empty one on first use.
func (c *SessionContext) RuntimeFields() *runtimefield.Set {
	c.once.Do(func() {
		if c.Fields == nil {
			c.Fields = runtimefield.NewSet()
		}
	})
	return c.Fields
}

// RuntimeFieldResolver implements Context.
func (c *SessionContext) RuntimeFieldResolver() runtimefield.ResolverFunc { return c.Discover }

// RuntimeFieldResolverEnabled implements Context.
func (c *SessionContext) RuntimeFieldResolverEnabled() *bool { return c.EnableDiscovery }
