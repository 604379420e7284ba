package jsonrpc

import (
	"context"
	"encoding/json"
	"time"

	"github.com/avast/retry-go/v4"
	"github.com/ethereum/go-ethereum/log"
)

// RetryPolicy configures Retry. The transport itself never retries; callers
// opt in per operation.
type RetryPolicy struct {
	Attempts uint
	Delay    time.Duration
	// Backoff doubles the delay after every attempt.
	Backoff bool
}

func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{Attempts: 3, Delay: 500 * time.Millisecond}
}

// Retry runs fn until it succeeds, returns an error other than a
// *TransportError, the attempts are used up, or ctx is done. Node error
// responses and correlation failures are returned immediately.
func Retry(ctx context.Context, policy RetryPolicy, fn func(ctx context.Context) error) error {
	attempts := policy.Attempts
	if attempts == 0 {
		attempts = 1
	}
	delayType := retry.FixedDelay
	if policy.Backoff {
		delayType = retry.BackOffDelay
	}

	return retry.Do(
		func() error {
			return fn(ctx)
		},
		retry.Context(ctx),
		retry.Attempts(attempts),
		retry.Delay(policy.Delay),
		retry.DelayType(delayType),
		retry.LastErrorOnly(true),
		retry.RetryIf(IsTransportError),
		retry.OnRetry(func(n uint, err error) {
			log.Debug("Retrying JSON-RPC call", "attempt", n+1, "err", err)
		}),
	)
}

// RetryCall is Retry around a single Transport.Call.
func (t *Transport) RetryCall(ctx context.Context, policy RetryPolicy, method string, params ...interface{}) (json.RawMessage, error) {
	var result json.RawMessage
	err := Retry(ctx, policy, func(ctx context.Context) error {
		raw, err := t.Call(ctx, method, params...)
		if err != nil {
			return err
		}
		result = raw
		return nil
	})
	return result, err
}
