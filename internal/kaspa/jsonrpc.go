package kaspa

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

const (
	jsonRPCVersion = "1.0"
	jsonRPCID      = "kaspa-mcp"

	// maxErrorBody caps how much of a failed response body is kept.
	maxErrorBody = 64 << 10
)

var defaultHTTPClient = &http.Client{
	Timeout: 90 * time.Second,
}

type rpcRequest struct {
	JSONRPC string `json:"jsonrpc"`
	ID      string `json:"id"`
	Method  Method `json:"method"`
	Params  any    `json:"params"`
}

type rpcResponse struct {
	Result json.RawMessage `json:"result"`
	Error  json.RawMessage `json:"error"`
}

// HTTPTransport posts JSON-RPC envelopes to a node over HTTP.
type HTTPTransport struct {
	url    string
	client *http.Client
}

// NewHTTPTransport creates a transport for ep. A nil client uses a shared
// default with a generous timeout; per-call deadlines come from the context.
func NewHTTPTransport(ep Endpoint, client *http.Client) *HTTPTransport {
	if client == nil {
		client = defaultHTTPClient
	}
	return &HTTPTransport{url: ep.URL(), client: client}
}

// URL returns the address requests are posted to.
func (t *HTTPTransport) URL() string { return t.url }

// Call sends one JSON-RPC request and unwraps its result.
func (t *HTTPTransport) Call(ctx context.Context, method Method, params any) (map[string]any, error) {
	if !method.Valid() {
		return nil, fmt.Errorf("unknown method %q", method)
	}
	if params == nil {
		params = []any{}
	}

	body, err := json.Marshal(rpcRequest{
		JSONRPC: jsonRPCVersion,
		ID:      jsonRPCID,
		Method:  method,
		Params:  params,
	})
	if err != nil {
		return nil, fmt.Errorf("marshal %s: %w", method, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, t.url, bytes.NewReader(body))
	if err != nil {
		return nil, &TransportError{Op: "RPC call", Err: err}
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := t.client.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, &TransportError{Op: "RPC call", Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		text, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return nil, &TransportError{Op: "RPC call", StatusCode: resp.StatusCode, Body: string(text)}
	}

	var env rpcResponse
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		return nil, &TransportError{Op: "decode RPC response", Err: err}
	}

	if payload := decodeRaw(env.Error); !isEmpty(payload) {
		return nil, &RPCError{Method: method, Payload: payload}
	}

	return asMapping(decodeRaw(env.Result)), nil
}

// Close is a no-op; the HTTP client is shared.
func (t *HTTPTransport) Close() error { return nil }

// decodeRaw decodes a raw JSON value, keeping numbers exact. Undecodable
// input is returned as its text so it can still be reported.
func decodeRaw(raw json.RawMessage) any {
	if len(raw) == 0 {
		return nil
	}
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return string(raw)
	}
	return v
}

// isEmpty mirrors JSON truthiness: null, false, zero, "" and empty
// containers carry no error.
func isEmpty(v any) bool {
	switch x := v.(type) {
	case nil:
		return true
	case bool:
		return !x
	case string:
		return x == ""
	case json.Number:
		f, err := x.Float64()
		return err == nil && f == 0
	case map[string]any:
		return len(x) == 0
	case []any:
		return len(x) == 0
	}
	return false
}

// asMapping normalises a result so callers always get a non-nil mapping.
func asMapping(v any) map[string]any {
	switch x := v.(type) {
	case nil:
		return map[string]any{}
	case map[string]any:
		return x
	default:
		return map[string]any{"value": x}
	}
}
