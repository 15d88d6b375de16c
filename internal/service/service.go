// Package service holds the catalog and review business logic.
package service

import (
	"context"
	"time"
)

// DefaultWriteTimeout bounds a detached write when none is configured.
const DefaultWriteTimeout = 10 * time.Second

// detach returns a context that keeps ctx's values but not its
// cancellation, bounded by timeout. Writes and their rating side effects
// run on it so a client disconnect cannot leave them half done.
func detach(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if timeout <= 0 {
		timeout = DefaultWriteTimeout
	}
	return context.WithTimeout(context.WithoutCancel(ctx), timeout)
}
