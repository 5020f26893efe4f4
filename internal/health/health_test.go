package health

import (
	"context"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
)

func TestChecker_RunAll(t *testing.T) {
	c := NewChecker(zerolog.Nop())
	c.Register("answer", func(ctx context.Context) Status { return StatusOK })
	c.Register("directory", func(ctx context.Context) Status { return StatusDegraded })

	results := c.RunAll(context.Background())
	assert.Equal(t, StatusOK, results["answer"])
	assert.Equal(t, StatusDegraded, results["directory"])
}

func TestChecker_IsReady(t *testing.T) {
	c := NewChecker(zerolog.Nop())
	c.Register("answer", func(ctx context.Context) Status { return StatusOK })
	assert.True(t, c.IsReady(context.Background()))

	c.Register("directory", func(ctx context.Context) Status { return StatusDown })
	assert.False(t, c.IsReady(context.Background()))
}

func TestChecker_DegradedIsStillReady(t *testing.T) {
	c := NewChecker(zerolog.Nop())
	c.Register("answer", func(ctx context.Context) Status { return StatusDegraded })
	assert.True(t, c.IsReady(context.Background()))
}

func TestChecker_CachedReflectsLastRun(t *testing.T) {
	c := NewChecker(zerolog.Nop())
	assert.Empty(t, c.Cached())

	c.Register("answer", func(ctx context.Context) Status { return StatusOK })
	c.RunAll(context.Background())
	assert.Equal(t, StatusOK, c.Cached()["answer"])
}
