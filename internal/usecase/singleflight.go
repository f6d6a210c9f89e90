package usecase

import (
	"context"

	"golang.org/x/sync/singleflight"
)

// shared runs fn once per key for concurrent callers. The call itself is
// detached from the first caller's cancellation; each caller still stops
// waiting when its own ctx is done.
func shared(ctx context.Context, group *singleflight.Group, key string, fn func(context.Context) (interface{}, error)) (interface{}, error, bool) {
	detached := context.WithoutCancel(ctx)
	resultChan := group.DoChan(key, func() (interface{}, error) {
		return fn(detached)
	})
	select {
	case <-ctx.Done():
		return nil, ctx.Err(), false
	case res := <-resultChan:
		return res.Val, res.Err, res.Shared
	}
}
