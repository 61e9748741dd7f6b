package discovery

import (
	"context"
	"sync/atomic"
)

// callBudget caps the external calls made on behalf of one request.
type callBudget struct {
	remaining atomic.Int64
}

type budgetKey struct{}

// WithCallBudget attaches a budget of n external calls to ctx. Discovery and
// enrichment running under the returned context share it.
func WithCallBudget(ctx context.Context, n int) context.Context {
	b := &callBudget{}
	b.remaining.Store(int64(n))
	return context.WithValue(ctx, budgetKey{}, b)
}

func withDefaultBudget(ctx context.Context, n int) context.Context {
	if _, ok := ctx.Value(budgetKey{}).(*callBudget); ok {
		return ctx
	}
	return WithCallBudget(ctx, n)
}

// budgetFrom returns the budget on ctx, or nil for unlimited.
func budgetFrom(ctx context.Context) *callBudget {
	b, _ := ctx.Value(budgetKey{}).(*callBudget)
	return b
}

// take consumes one call, reporting false when none remain.
func (b *callBudget) take() bool {
	if b == nil {
		return true
	}
	return b.remaining.Add(-1) >= 0
}

func (b *callBudget) exhausted() bool {
	return b != nil && b.remaining.Load() <= 0
}

// RemainingCalls reports the budget left on ctx, or -1 when unlimited.
func RemainingCalls(ctx context.Context) int {
	b := budgetFrom(ctx)
	if b == nil {
		return -1
	}
	return int(max(b.remaining.Load(), 0))
}
