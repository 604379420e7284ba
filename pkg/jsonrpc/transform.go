package jsonrpc

import (
	"encoding/json"
	"fmt"
)

// NormalizeOptions selects the volatile fields NormalizeResponse overwrites.
type NormalizeOptions struct {
	TransactionIndex bool
	LogIndex         bool
}

var zeroQuantity = json.RawMessage(`"0x0"`)

// NormalizeResponse sets the selected index fields of an object result, or of
// every object in an array result, to "0x0". Replicated hosts that fetch the
// same receipt or logs from different nodes then observe identical bodies.
// A batch body is normalized envelope by envelope. Non-object results and
// null are left alone. Object keys are re-emitted in sorted order.
func NormalizeResponse(body []byte, opts NormalizeOptions) ([]byte, error) {
	if !isBatch(body) {
		return normalizeEnvelope(body, opts)
	}
	var envelopes []json.RawMessage
	if err := json.Unmarshal(body, &envelopes); err != nil {
		return nil, fmt.Errorf("invalid batch response body: %w", err)
	}
	for i, env := range envelopes {
		normalized, err := normalizeEnvelope(env, opts)
		if err != nil {
			return nil, fmt.Errorf("batch element %d: %w", i, err)
		}
		envelopes[i] = normalized
	}
	return json.Marshal(envelopes)
}

func normalizeEnvelope(body []byte, opts NormalizeOptions) ([]byte, error) {
	var envelope map[string]json.RawMessage
	if err := json.Unmarshal(body, &envelope); err != nil {
		return nil, fmt.Errorf("invalid response body: %w", err)
	}
	result, ok := envelope["result"]
	if !ok || len(result) == 0 {
		return body, nil
	}

	var normalized json.RawMessage
	switch result[0] {
	case '{':
		obj, err := normalizeObject(result, opts)
		if err != nil {
			return nil, err
		}
		normalized = obj
	case '[':
		var elems []json.RawMessage
		if err := json.Unmarshal(result, &elems); err != nil {
			return nil, fmt.Errorf("invalid result array: %w", err)
		}
		for i, elem := range elems {
			if len(elem) == 0 || elem[0] != '{' {
				continue
			}
			obj, err := normalizeObject(elem, opts)
			if err != nil {
				return nil, err
			}
			elems[i] = obj
		}
		arr, err := json.Marshal(elems)
		if err != nil {
			return nil, err
		}
		normalized = arr
	default:
		return body, nil
	}

	envelope["result"] = normalized
	return json.Marshal(envelope)
}

// NormalizeTransform adapts NormalizeResponse for WithResponseTransform.
func NormalizeTransform(opts NormalizeOptions) ResponseTransform {
	return func(body []byte) ([]byte, error) {
		return NormalizeResponse(body, opts)
	}
}

func normalizeObject(raw json.RawMessage, opts NormalizeOptions) (json.RawMessage, error) {
	var obj map[string]json.RawMessage
	if err := json.Unmarshal(raw, &obj); err != nil {
		return nil, fmt.Errorf("invalid result object: %w", err)
	}
	if opts.TransactionIndex {
		obj["transactionIndex"] = zeroQuantity
	}
	if opts.LogIndex {
		obj["logIndex"] = zeroQuantity
	}
	return json.Marshal(obj)
}
