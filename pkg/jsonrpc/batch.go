package jsonrpc

import (
	"context"
	"encoding/json"
	"fmt"
	"time"
)

// BatchElem is one call of a batch. After BatchCall returns, Error holds the
// element's own failure, if any, and Result has been filled on success.
type BatchElem struct {
	Method string
	Args   []interface{}
	// Result must be a pointer or nil.
	Result interface{}
	Error  error
}

// BatchCall sends all elements in one envelope array using one outcall and
// correlates every response by id. The returned error covers the batch as a
// whole: transport failures, a node that rejected the whole batch, and
// responses that cannot be correlated (unknown or duplicate ids).
func (t *Transport) BatchCall(ctx context.Context, batch []BatchElem) error {
	if len(batch) == 0 {
		return nil
	}
	call := &pendingCall{method: "batch", started: time.Now()}

	reqs := make([]*requestMessage, len(batch))
	index := make(map[uint64]int, len(batch))
	for i := range batch {
		id := t.nextID.Add(1)
		req, err := newRequest(id, batch[i].Method, batch[i].Args)
		if err != nil {
			return err
		}
		reqs[i] = req
		index[id] = i
	}
	call.id = reqs[0].ID
	body, err := json.Marshal(reqs)
	if err != nil {
		return fmt.Errorf("failed to encode batch: %w", err)
	}

	resp, err := t.send(ctx, call, body)
	if err != nil {
		t.metrics.observe(call.method, outcomeOf(err), time.Since(call.started), 0)
		return err
	}
	err = t.correlateBatch(call, resp, batch, reqs, index)
	t.metrics.observe(call.method, outcomeOf(err), time.Since(call.started), len(resp.Body))
	return err
}

func (t *Transport) correlateBatch(call *pendingCall, resp *OutcallResponse, batch []BatchElem, reqs []*requestMessage, index map[uint64]int) error {
	defer call.transition(stateTerminal)

	if !isBatch(resp.Body) {
		// A single object answers the batch as a whole, typically with an error.
		var msg responseMessage
		if err := json.Unmarshal(resp.Body, &msg); err != nil {
			return t.badResponse(call, resp, fmt.Errorf("invalid batch response: %w", err))
		}
		if msg.Version != vsn {
			return t.badResponse(call, resp, fmt.Errorf("unsupported jsonrpc version %q", msg.Version))
		}
		if msg.Error != nil {
			return msg.Error
		}
		return t.badResponse(call, resp, fmt.Errorf("batch answered with a single non-error response"))
	}

	var msgs []responseMessage
	if err := json.Unmarshal(resp.Body, &msgs); err != nil {
		return t.badResponse(call, resp, fmt.Errorf("invalid batch response: %w", err))
	}

	seen := make([]bool, len(batch))
	for _, msg := range msgs {
		id, reason, ok := msg.numericID()
		if !ok {
			return &CorrelationError{Method: call.method, Expected: call.id, Got: msg.ID, Reason: reason}
		}
		i, known := index[id]
		if !known {
			return &CorrelationError{Method: call.method, Expected: call.id, Got: msg.ID, Reason: "unexpected response id in batch"}
		}
		if seen[i] {
			return &CorrelationError{Method: call.method, Expected: id, Got: msg.ID, Reason: "duplicate response id in batch"}
		}
		seen[i] = true

		elem := &batch[i]
		if err := msg.wellFormed(); err != nil {
			elem.Error = &TransportError{Method: elem.Method, Status: resp.Status, Err: err}
			continue
		}
		if msg.Error != nil {
			elem.Error = msg.Error
			continue
		}
		if elem.Result != nil && string(msg.Result) != "null" {
			if err := json.Unmarshal(msg.Result, elem.Result); err != nil {
				elem.Error = fmt.Errorf("failed to decode %s result: %w", elem.Method, err)
			}
		}
	}

	for i := range batch {
		if !seen[i] {
			batch[i].Error = &CorrelationError{Method: batch[i].Method, Expected: reqs[i].ID, Reason: "no response in batch"}
		}
	}
	return nil
}
