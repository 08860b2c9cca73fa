// Package ratelimit admits requests against dual per-minute budgets: a
// request count and an estimated-token count, each a continuously refilling
// token bucket behind one mutex.
//
// A call is admitted only when both buckets can cover it at the same
// instant; otherwise the caller sleeps until the earliest time both could
// and re-checks. There is no waiter queue and no fairness guarantee, and
// nothing is refunded after admission.
//
//	limiter := ratelimit.New(ratelimit.Config{
//	    RequestsPerMinute: 60,
//	    TokensPerMinute:   90000,
//	}, nil)
//
//	if err := limiter.Acquire(ctx, estimated); err != nil {
//	    return err // ctx ended, or the estimate can never fit
//	}
package ratelimit
