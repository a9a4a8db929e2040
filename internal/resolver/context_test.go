package resolver

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gordysc/Foundatio.Parsers/internal/runtimefield"
	"github.com/gordysc/Foundatio.Parsers/internal/testutil"
)

func TestNewSessionContext_Defaults(t *testing.T) {
	sctx := NewSessionContext(ordersSchema(t))

	id, err := uuid.Parse(sctx.SessionID())
	require.NoError(t, err)
	assert.Equal(t, uuid.Version(7), id.Version())

	require.NotNil(t, sctx.RuntimeFields())
	assert.Equal(t, 0, sctx.RuntimeFields().Len())
	assert.Nil(t, sctx.RuntimeFieldResolver())
	assert.Nil(t, sctx.RuntimeFieldResolverEnabled(), "discovery switch is unset by default")
}

func TestNewSessionContext_Options(t *testing.T) {
	set := runtimefield.NewSet(runtimefield.Field{Name: "a"})
	discover := testutil.NewCountingResolver(nil)

	sctx := NewSessionContext(ordersSchema(t),
		WithRuntimeFields(set),
		WithDiscovery(discover.Resolve),
		WithDiscoveryEnabled(false),
		WithSessionIDGenerator(testutil.NewFixedSessionGenerator("fixed")),
	)

	assert.Equal(t, "fixed", sctx.SessionID())
	assert.Same(t, set, sctx.RuntimeFields())
	assert.NotNil(t, sctx.RuntimeFieldResolver())
	require.NotNil(t, sctx.RuntimeFieldResolverEnabled())
	assert.False(t, *sctx.RuntimeFieldResolverEnabled())
}

func TestSessionContext_ZeroValueGetsFieldSet(t *testing.T) {
	var sctx SessionContext
	set := sctx.RuntimeFields()
	require.NotNil(t, set)
	assert.Same(t, set, sctx.RuntimeFields())
}

func TestUUIDv7Generator_Unique(t *testing.T) {
	gen := UUIDv7Generator{}
	assert.NotEqual(t, gen.Generate(), gen.Generate())
}

func TestConfigError(t *testing.T) {
	err := incompatibleContext("missing %s", "thing")
	assert.Equal(t, "INCOMPATIBLE_CONTEXT: missing thing", err.Error())
	assert.Equal(t, "INCOMPATIBLE_CONTEXT", ErrIncompatibleContext.Error())
	assert.ErrorIs(t, err, ErrIncompatibleContext)
	assert.False(t, IsConfigError(nil))
}
