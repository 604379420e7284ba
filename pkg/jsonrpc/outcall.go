package jsonrpc

import "context"

// OutcallRequest is one single-shot outbound HTTP request.
type OutcallRequest struct {
	URL     string
	Method  string
	Headers map[string]string
	Body    []byte

	// MaxResponseBytes bounds the response body; zero means the host default.
	MaxResponseBytes uint64
}

type OutcallResponse struct {
	Status  int
	Headers map[string]string
	Body    []byte
}

// Outcaller performs a single request/response exchange on behalf of the
// transport. It is the only point where a call blocks, and it is invoked at
// most once per Call.
type Outcaller interface {
	Outcall(ctx context.Context, req OutcallRequest) (*OutcallResponse, error)
}

// OutcallFunc adapts a function to the Outcaller interface.
type OutcallFunc func(ctx context.Context, req OutcallRequest) (*OutcallResponse, error)

func (f OutcallFunc) Outcall(ctx context.Context, req OutcallRequest) (*OutcallResponse, error) {
	return f(ctx, req)
}
