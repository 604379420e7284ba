package jsonrpc

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/ethereum/go-ethereum/rpc"
)

var (
	// ErrRPC matches every *RPCError.
	ErrRPC = errors.New("json-rpc error response")
	// ErrCorrelation matches every *CorrelationError.
	ErrCorrelation = errors.New("json-rpc correlation error")
	// ErrTransport matches every *TransportError.
	ErrTransport = errors.New("json-rpc transport error")
)

var (
	_ rpc.Error     = (*RPCError)(nil)
	_ rpc.DataError = (*RPCError)(nil)
)

// RPCError is an error member returned by the node. The call reached the node
// and was rejected; retrying it unchanged will not help.
type RPCError struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data,omitempty"`
}

func (e *RPCError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("json-rpc error %d", e.Code)
	}
	return e.Message
}

func (e *RPCError) ErrorCode() int { return e.Code }

func (e *RPCError) ErrorData() interface{} {
	if len(e.Data) == 0 {
		return nil
	}
	var data interface{}
	if err := json.Unmarshal(e.Data, &data); err != nil {
		return string(e.Data)
	}
	return data
}

func (e *RPCError) Is(target error) bool { return target == ErrRPC }

// CorrelationError is returned when a response cannot be matched to the
// outstanding request.
type CorrelationError struct {
	Method   string
	Expected uint64
	// Got is the raw id member of the response, empty when it was missing.
	Got    json.RawMessage
	Reason string
}

func (e *CorrelationError) Error() string {
	got := string(e.Got)
	if got == "" {
		got = "<missing>"
	}
	return fmt.Sprintf("%s: response id %s for request id %d: %s", e.Method, got, e.Expected, e.Reason)
}

func (e *CorrelationError) Is(target error) bool { return target == ErrCorrelation }

// TransportError is returned when no usable JSON-RPC response was obtained:
// the outcall failed or timed out, or the body was not a JSON-RPC response.
type TransportError struct {
	Method  string
	Status  int
	Timeout bool
	Err     error
}

func (e *TransportError) Error() string {
	switch {
	case e.Timeout:
		return fmt.Sprintf("%s: outcall timed out: %v", e.Method, e.Err)
	case e.Status != 0:
		return fmt.Sprintf("%s: http status %d: %v", e.Method, e.Status, e.Err)
	}
	return fmt.Sprintf("%s: outcall failed: %v", e.Method, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

func (e *TransportError) Is(target error) bool { return target == ErrTransport }

// IsTransportError reports whether err is, or wraps, a *TransportError.
func IsTransportError(err error) bool {
	var te *TransportError
	return errors.As(err, &te)
}
