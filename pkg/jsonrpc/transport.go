// Package jsonrpc maps JSON-RPC 2.0 calls onto single-shot outcalls. Every
// call is one request and one response, correlated by a fresh numeric id; no
// connection state outlives a call.
package jsonrpc

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/ethereum/go-ethereum/log"
)

const (
	// DefaultMaxResponseBytes bounds responses when no limit is configured.
	DefaultMaxResponseBytes uint64 = 2 << 20

	contentType = "application/json"
)

// callState tracks one call through
// Idle -> RequestSent -> ResponseReceived | TransportFailed | Timeout -> Terminal.
type callState uint8

const (
	stateIdle callState = iota
	stateRequestSent
	stateResponseReceived
	stateTransportFailed
	stateTimeout
	stateTerminal
)

func (s callState) String() string {
	switch s {
	case stateIdle:
		return "idle"
	case stateRequestSent:
		return "request-sent"
	case stateResponseReceived:
		return "response-received"
	case stateTransportFailed:
		return "transport-failed"
	case stateTimeout:
		return "timeout"
	case stateTerminal:
		return "terminal"
	}
	return "unknown"
}

// pendingCall is the correlation state of one in-flight call. It lives in the
// stack frame of the call.
type pendingCall struct {
	id      uint64
	method  string
	state   callState
	started time.Time
}

func (c *pendingCall) transition(to callState) {
	log.Debug("JSON-RPC call state", "id", c.id, "method", c.method, "from", c.state, "to", to)
	c.state = to
}

// ResponseTransform rewrites a successful response body before it is parsed.
type ResponseTransform func(body []byte) ([]byte, error)

// Transport issues JSON-RPC calls against one endpoint. It is safe for
// concurrent use; the id counter is the only shared state.
type Transport struct {
	url              string
	outcaller        Outcaller
	headers          map[string]string
	maxResponseBytes uint64
	transform        ResponseTransform
	metrics          *Metrics

	nextID atomic.Uint64
}

type Option func(*Transport)

// WithHeader adds a header to every outcall.
func WithHeader(key, value string) Option {
	return func(t *Transport) { t.headers[key] = value }
}

func WithMaxResponseBytes(n uint64) Option {
	return func(t *Transport) { t.maxResponseBytes = n }
}

// WithResponseTransform installs a rewrite applied to every 2xx body.
func WithResponseTransform(fn ResponseTransform) Option {
	return func(t *Transport) { t.transform = fn }
}

func WithMetrics(m *Metrics) Option {
	return func(t *Transport) { t.metrics = m }
}

func NewTransport(url string, outcaller Outcaller, opts ...Option) *Transport {
	t := &Transport{
		url:              url,
		outcaller:        outcaller,
		headers:          map[string]string{"Content-Type": contentType},
		maxResponseBytes: DefaultMaxResponseBytes,
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

func (t *Transport) URL() string { return t.url }

// Call invokes method and returns the raw result member. The result may be
// the JSON literal null.
func (t *Transport) Call(ctx context.Context, method string, params ...interface{}) (json.RawMessage, error) {
	call := &pendingCall{id: t.nextID.Add(1), method: method, started: time.Now()}

	req, err := newRequest(call.id, method, params)
	if err != nil {
		return nil, err
	}
	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("failed to encode request %s: %w", method, err)
	}

	resp, err := t.send(ctx, call, body)
	if err != nil {
		t.metrics.observe(method, outcomeOf(err), time.Since(call.started), 0)
		return nil, err
	}

	result, err := t.correlate(call, resp)
	t.metrics.observe(method, outcomeOf(err), time.Since(call.started), len(resp.Body))
	if err != nil {
		return nil, err
	}
	return result, nil
}

// CallContext invokes method and decodes the result into result, which must
// be a pointer. A null result leaves result untouched.
func (t *Transport) CallContext(ctx context.Context, result interface{}, method string, args ...interface{}) error {
	raw, err := t.Call(ctx, method, args...)
	if err != nil {
		return err
	}
	if result == nil {
		return nil
	}
	if err := json.Unmarshal(raw, result); err != nil {
		return fmt.Errorf("failed to decode %s result: %w", method, err)
	}
	return nil
}

// RawCall forwards a caller-prepared JSON-RPC request body and returns the
// response body without correlation. Transport failures are still reported
// as *TransportError.
func (t *Transport) RawCall(ctx context.Context, body []byte) ([]byte, error) {
	call := &pendingCall{method: "raw", started: time.Now()}
	resp, err := t.send(ctx, call, body)
	if err != nil {
		t.metrics.observe(call.method, outcomeOf(err), time.Since(call.started), 0)
		return nil, err
	}
	call.transition(stateTerminal)
	t.metrics.observe(call.method, outcomeOK, time.Since(call.started), len(resp.Body))
	return resp.Body, nil
}

// send performs the single outcall of a call. On success the call is in
// ResponseReceived and the body has been transformed and size checked.
func (t *Transport) send(ctx context.Context, call *pendingCall, body []byte) (*OutcallResponse, error) {
	if err := ctx.Err(); err != nil {
		return nil, t.fail(call, 0, err)
	}

	headers := make(map[string]string, len(t.headers))
	for k, v := range t.headers {
		headers[k] = v
	}
	req := OutcallRequest{
		URL:              t.url,
		Method:           "POST",
		Headers:          headers,
		Body:             body,
		MaxResponseBytes: t.maxResponseBytes,
	}

	call.transition(stateRequestSent)
	resp, err := t.outcaller.Outcall(ctx, req)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil && !errors.Is(err, ctxErr) {
			err = fmt.Errorf("%w: %v", ctxErr, err)
		}
		return nil, t.fail(call, 0, err)
	}
	if resp == nil {
		return nil, t.fail(call, 0, errors.New("outcaller returned no response"))
	}
	if t.maxResponseBytes > 0 && uint64(len(resp.Body)) > t.maxResponseBytes {
		return nil, t.fail(call, resp.Status, fmt.Errorf("response of %d bytes exceeds limit of %d", len(resp.Body), t.maxResponseBytes))
	}
	call.transition(stateResponseReceived)

	if t.transform != nil && isSuccess(resp.Status) {
		transformed, err := t.transform(resp.Body)
		if err != nil {
			return nil, t.fail(call, resp.Status, fmt.Errorf("response transform: %w", err))
		}
		resp = &OutcallResponse{Status: resp.Status, Headers: resp.Headers, Body: transformed}
	}
	return resp, nil
}

// fail moves the call to TransportFailed or Timeout and then Terminal.
func (t *Transport) fail(call *pendingCall, status int, err error) error {
	timeout := isTimeout(err)
	if timeout {
		call.transition(stateTimeout)
	} else {
		call.transition(stateTransportFailed)
	}
	call.transition(stateTerminal)
	log.Debug("JSON-RPC outcall failed", "id", call.id, "method", call.method, "status", status, "timeout", timeout, "err", err)
	return &TransportError{Method: call.method, Status: status, Timeout: timeout, Err: err}
}

// correlate turns a received response into the call's outcome.
func (t *Transport) correlate(call *pendingCall, resp *OutcallResponse) (json.RawMessage, error) {
	defer call.transition(stateTerminal)

	var msg responseMessage
	if err := json.Unmarshal(resp.Body, &msg); err != nil {
		return nil, t.badResponse(call, resp, fmt.Errorf("invalid response body: %w", err))
	}
	if err := msg.wellFormed(); err != nil {
		return nil, t.badResponse(call, resp, err)
	}

	id, reason, ok := msg.numericID()
	if !ok {
		return nil, &CorrelationError{Method: call.method, Expected: call.id, Got: msg.ID, Reason: reason}
	}
	if id != call.id {
		return nil, &CorrelationError{Method: call.method, Expected: call.id, Got: msg.ID, Reason: "unexpected response id"}
	}

	if msg.Error != nil {
		return nil, msg.Error
	}
	return msg.Result, nil
}

func (t *Transport) badResponse(call *pendingCall, resp *OutcallResponse, err error) error {
	if !isSuccess(resp.Status) {
		err = fmt.Errorf("%s: %w", truncate(resp.Body, 256), err)
	}
	return &TransportError{Method: call.method, Status: resp.Status, Err: err}
}

func isSuccess(status int) bool { return status >= 200 && status < 300 }

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var te interface{ Timeout() bool }
	return errors.As(err, &te) && te.Timeout()
}

func truncate(b []byte, n int) string {
	if len(b) <= n {
		return string(b)
	}
	return string(b[:n]) + "..."
}
