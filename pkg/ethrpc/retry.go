package ethrpc

import (
	"context"
	"encoding/json"

	"github.com/nando-os/ghost-rpc/pkg/jsonrpc"
)

// submitMethods are never retried: a timed out submission may already have
// reached the node.
var submitMethods = map[string]bool{
	"eth_sendRawTransaction": true,
	"eth_sendTransaction":    true,
}

type retryingCaller struct {
	caller Caller
	policy jsonrpc.RetryPolicy
}

// WithRetry wraps caller so that read calls failing with a transport error
// are repeated according to policy.
func WithRetry(caller Caller, policy jsonrpc.RetryPolicy) Caller {
	return &retryingCaller{caller: caller, policy: policy}
}

func (r *retryingCaller) CallContext(ctx context.Context, result interface{}, method string, args ...interface{}) error {
	if submitMethods[method] {
		return r.caller.CallContext(ctx, result, method, args...)
	}
	// Decode into a scratch value so a failed attempt cannot leave a
	// partial result behind.
	var raw json.RawMessage
	err := jsonrpc.Retry(ctx, r.policy, func(ctx context.Context) error {
		return r.caller.CallContext(ctx, &raw, method, args...)
	})
	if err != nil {
		return err
	}
	if result == nil {
		return nil
	}
	return json.Unmarshal(raw, result)
}

func (r *retryingCaller) BatchCall(ctx context.Context, batch []jsonrpc.BatchElem) error {
	bc, ok := r.caller.(BatchCaller)
	if !ok {
		return ErrBatchUnsupported
	}
	return bc.BatchCall(ctx, batch)
}
