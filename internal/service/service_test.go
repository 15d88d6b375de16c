package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/febluxury/storefront/pkg/logger"
)

func TestDetach_IgnoresParentCancellation(t *testing.T) {
	parent, cancel := context.WithCancel(logger.WithCorrelationID(context.Background(), "corr-1"))
	cancel()

	ctx, done := detach(parent, time.Minute)
	defer done()

	assert.NoError(t, ctx.Err())
	assert.Equal(t, "corr-1", logger.CorrelationIDFromContext(ctx))

	deadline, ok := ctx.Deadline()
	assert.True(t, ok)
	assert.WithinDuration(t, time.Now().Add(time.Minute), deadline, 5*time.Second)
}

func TestDetach_DefaultTimeout(t *testing.T) {
	ctx, done := detach(context.Background(), 0)
	defer done()

	deadline, ok := ctx.Deadline()
	assert.True(t, ok)
	assert.WithinDuration(t, time.Now().Add(DefaultWriteTimeout), deadline, 5*time.Second)
}
