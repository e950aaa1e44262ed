package testutil

import (
	"context"
	"sync"
	"sync/atomic"

	dErrors "opsgate/pkg/domain-errors"
)

// ConcurrentResult tracks outcomes of concurrent test operations.
type ConcurrentResult struct {
	Successes int32
	Rejected  int32
	Errors    int32
}

// Total returns the total number of operations executed.
func (r *ConcurrentResult) Total() int32 {
	return r.Successes + r.Rejected + r.Errors
}

// rejectionCodes are the domain codes a gate returns when it refuses a
// request, as opposed to failing.
var rejectionCodes = []dErrors.Code{
	dErrors.CodeRateLimitExceeded,
	dErrors.CodeKillSwitchActive,
	dErrors.CodeBudgetExceeded,
	dErrors.CodeCredentialMissing,
	dErrors.CodeCredentialInvalid,
}

// RunConcurrent executes fn in parallel goroutines and collects results.
// Errors carrying a gate rejection code count as Rejected; any other error
// counts as Errors.
func RunConcurrent(goroutines int, fn func(idx int) error) *ConcurrentResult {
	var wg sync.WaitGroup
	var successes, rejected, errs atomic.Int32

	start := make(chan struct{})
	for i := 0; i < goroutines; i++ {
		wg.Add(1)
		go func(idx int) {
			defer wg.Done()
			<-start
			err := fn(idx)
			switch {
			case err == nil:
				successes.Add(1)
			case isRejection(err):
				rejected.Add(1)
			default:
				errs.Add(1)
			}
		}(i)
	}
	close(start)
	wg.Wait()

	return &ConcurrentResult{
		Successes: successes.Load(),
		Rejected:  rejected.Load(),
		Errors:    errs.Load(),
	}
}

// RunConcurrentCtx executes fn in parallel goroutines with context support.
func RunConcurrentCtx(ctx context.Context, goroutines int, fn func(ctx context.Context, idx int) error) *ConcurrentResult {
	return RunConcurrent(goroutines, func(idx int) error {
		return fn(ctx, idx)
	})
}

func isRejection(err error) bool {
	code := dErrors.CodeOf(err)
	for _, c := range rejectionCodes {
		if code == c {
			return true
		}
	}
	return false
}
