package jsonrpc

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
)

const vsn = "2.0"

type requestMessage struct {
	Version string          `json:"jsonrpc"`
	ID      uint64          `json:"id"`
	Method  string          `json:"method"`
	Params  json.RawMessage `json:"params"`
}

// responseMessage keeps result raw so that a missing member (empty) can be
// told apart from an explicit null.
type responseMessage struct {
	Version string          `json:"jsonrpc,omitempty"`
	ID      json.RawMessage `json:"id,omitempty"`
	Result  json.RawMessage `json:"result,omitempty"`
	Error   *RPCError       `json:"error,omitempty"`
}

func newRequest(id uint64, method string, params []interface{}) (*requestMessage, error) {
	msg := &requestMessage{Version: vsn, ID: id, Method: method}
	if len(params) == 0 {
		msg.Params = json.RawMessage("[]")
		return msg, nil
	}
	encoded, err := json.Marshal(params)
	if err != nil {
		return nil, fmt.Errorf("failed to encode params of %s: %w", method, err)
	}
	msg.Params = encoded
	return msg, nil
}

// wellFormed reports whether the message is a 2.0 envelope carrying exactly
// one of result and error.
func (m *responseMessage) wellFormed() error {
	if m.Version != vsn {
		return fmt.Errorf("unsupported jsonrpc version %q", m.Version)
	}
	hasResult := len(m.Result) > 0
	hasError := m.Error != nil
	switch {
	case hasResult && hasError:
		return fmt.Errorf("response has both result and error")
	case !hasResult && !hasError:
		return fmt.Errorf("response has neither result nor error")
	}
	return nil
}

// numericID parses the id member as an unsigned integer.
func (m *responseMessage) numericID() (uint64, string, bool) {
	raw := bytes.TrimSpace(m.ID)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return 0, "id is missing", false
	}
	id, err := strconv.ParseUint(string(raw), 10, 64)
	if err != nil {
		return 0, "id is not an unsigned integer", false
	}
	return id, "", true
}

// isBatch reports whether body looks like a JSON array.
func isBatch(body []byte) bool {
	for _, c := range body {
		switch c {
		case ' ', '\t', '\r', '\n':
			continue
		case '[':
			return true
		}
		return false
	}
	return false
}
