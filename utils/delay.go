package utils

import (
	"context"
	"math/rand"
	"time"
)

// Settle pauses for d in place of a real readiness signal after a page
// transition. It returns early when ctx is done.
func Settle(ctx context.Context, d time.Duration) {
	if d <= 0 {
		return
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-t.C:
	}
}

// RandomDelay settles for a random duration in [min, max).
// When max <= min it settles for exactly min.
func RandomDelay(ctx context.Context, min, max time.Duration) {
	diff := max - min
	if diff <= 0 {
		Settle(ctx, min)
		return
	}
	Settle(ctx, min+time.Duration(rand.Int63n(int64(diff))))
}
