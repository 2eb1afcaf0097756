package cache

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerationWithoutRedis(t *testing.T) {
	ctx := context.Background()

	var g *Generation
	n, err := g.Current(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)
	assert.NoError(t, g.Bump(ctx))

	g = NewGeneration(nil, "")
	assert.Equal(t, "cache:gen", g.key)
	assert.NoError(t, g.Bump(ctx))
	n, err = g.Current(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)
}
