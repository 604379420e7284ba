// Package outcall provides an HTTP implementation of jsonrpc.Outcaller for
// hosts that can make ordinary outbound requests.
package outcall

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"math"
	"net/http"
	"time"

	"github.com/ethereum/go-ethereum/log"

	"github.com/nando-os/ghost-rpc/pkg/jsonrpc"
)

const DefaultTimeout = 30 * time.Second

// HTTPOutcaller performs each outcall as one HTTP request. Proxies from
// HTTP_PROXY / HTTPS_PROXY are honoured through the default transport.
type HTTPOutcaller struct {
	client *http.Client
}

var _ jsonrpc.Outcaller = (*HTTPOutcaller)(nil)

// NewHTTPOutcaller returns an outcaller using client, or a client with
// DefaultTimeout when client is nil.
func NewHTTPOutcaller(client *http.Client) *HTTPOutcaller {
	if client == nil {
		client = &http.Client{Timeout: DefaultTimeout}
	}
	return &HTTPOutcaller{client: client}
}

func (o *HTTPOutcaller) Outcall(ctx context.Context, req jsonrpc.OutcallRequest) (*jsonrpc.OutcallResponse, error) {
	method := req.Method
	if method == "" {
		method = http.MethodPost
	}
	httpReq, err := http.NewRequestWithContext(ctx, method, req.URL, bytes.NewReader(req.Body))
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	for k, v := range req.Headers {
		httpReq.Header.Set(k, v)
	}

	resp, err := o.client.Do(httpReq)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	limit := req.MaxResponseBytes
	if limit == 0 {
		limit = jsonrpc.DefaultMaxResponseBytes
	}
	if limit > math.MaxInt64-1 {
		limit = math.MaxInt64 - 1
	}
	// Read one byte past the limit to detect oversized bodies.
	body, err := io.ReadAll(io.LimitReader(resp.Body, int64(limit)+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}
	if uint64(len(body)) > limit {
		log.Warn("Outcall response exceeds limit", "url", req.URL, "limit", limit)
		return nil, fmt.Errorf("response body exceeds %d bytes", limit)
	}

	headers := make(map[string]string, len(resp.Header))
	for k := range resp.Header {
		headers[k] = resp.Header.Get(k)
	}
	return &jsonrpc.OutcallResponse{Status: resp.StatusCode, Headers: headers, Body: body}, nil
}
