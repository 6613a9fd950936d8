package kaspa

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

// capturedRequest is what the fake node saw.
type capturedRequest struct {
	JSONRPC     string          `json:"jsonrpc"`
	ID          string          `json:"id"`
	Method      string          `json:"method"`
	Params      json.RawMessage `json:"params"`
	ContentType string          `json:"-"`
}

// mockNode serves a fixed response body and records the last request.
func mockNode(t *testing.T, status int, body string, seen *capturedRequest) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("method = %s, want POST", r.Method)
		}
		if seen != nil {
			json.NewDecoder(r.Body).Decode(seen)
			seen.ContentType = r.Header.Get("Content-Type")
		}
		w.WriteHeader(status)
		w.Write([]byte(body))
	}))
}

func transportFor(t *testing.T, srv *httptest.Server) *HTTPTransport {
	t.Helper()
	ep, err := ParseEndpoint(srv.URL)
	if err != nil {
		t.Fatalf("ParseEndpoint(%s): %v", srv.URL, err)
	}
	return NewHTTPTransport(ep, srv.Client())
}

func TestHTTPTransport_Envelope(t *testing.T) {
	var seen capturedRequest
	srv := mockNode(t, 200, `{"result":{"serverVersion":"0.12.22"}}`, &seen)
	defer srv.Close()

	res, err := transportFor(t, srv).Call(context.Background(), MethodGetInfo, nil)
	if err != nil {
		t.Fatalf("Call: %v", err)
	}
	if res["serverVersion"] != "0.12.22" {
		t.Errorf("serverVersion = %v", res["serverVersion"])
	}

	if seen.JSONRPC != "1.0" {
		t.Errorf("jsonrpc = %q, want 1.0", seen.JSONRPC)
	}
	if seen.ID != "kaspa-mcp" {
		t.Errorf("id = %q, want kaspa-mcp", seen.ID)
	}
	if seen.Method != "getInfoRequest" {
		t.Errorf("method = %q", seen.Method)
	}
	if string(seen.Params) != "[]" {
		t.Errorf("params = %s, want []", seen.Params)
	}
	if seen.ContentType != "application/json" {
		t.Errorf("content-type = %q", seen.ContentType)
	}
}

func TestHTTPTransport_Params(t *testing.T) {
	var seen capturedRequest
	srv := mockNode(t, 200, `{"result":{}}`, &seen)
	defer srv.Close()

	params := MempoolByAddressesParams{
		Addresses:     []string{"kaspa:a"},
		MempoolFilter: MempoolFilter{IncludeOrphanPool: true},
	}
	if _, err := transportFor(t, srv).Call(context.Background(), MethodGetMempoolEntriesByAddresses, params); err != nil {
		t.Fatalf("Call: %v", err)
	}

	var got map[string]any
	if err := json.Unmarshal(seen.Params, &got); err != nil {
		t.Fatalf("params not an object: %s", seen.Params)
	}
	if got["includeOrphanPool"] != true || got["filterTransactionPool"] != false {
		t.Errorf("flags not flattened: %s", seen.Params)
	}
	if addrs, _ := got["addresses"].([]any); len(addrs) != 1 {
		t.Errorf("addresses = %v", got["addresses"])
	}
}

func TestHTTPTransport_MissingResultIsEmptyMapping(t *testing.T) {
	for _, body := range []string{`{}`, `{"result":null}`, `{"result":null,"error":null}`} {
		srv := mockNode(t, 200, body, nil)
		res, err := transportFor(t, srv).Call(context.Background(), MethodGetBlockDagInfo, nil)
		srv.Close()
		if err != nil {
			t.Fatalf("body %s: %v", body, err)
		}
		if res == nil || len(res) != 0 {
			t.Errorf("body %s: result = %v, want empty mapping", body, res)
		}
	}
}

func TestHTTPTransport_RPCError(t *testing.T) {
	for _, body := range []string{
		`{"result":{"x":1},"error":{"message":"block not found"}}`,
		`{"error":"boom"}`,
		`{"error":{"code":-1,"message":"bad"}}`,
	} {
		srv := mockNode(t, 200, body, nil)
		res, err := transportFor(t, srv).Call(context.Background(), MethodGetBlock, BlockParams{Hash: "00"})
		srv.Close()

		var rpcErr *RPCError
		if !errors.As(err, &rpcErr) {
			t.Fatalf("body %s: err = %v, want RPCError", body, err)
		}
		if res != nil {
			t.Errorf("body %s: got result %v alongside error", body, res)
		}
		if rpcErr.Method != MethodGetBlock {
			t.Errorf("method = %s", rpcErr.Method)
		}
	}
}

func TestHTTPTransport_RPCErrorVerbatim(t *testing.T) {
	srv := mockNode(t, 200, `{"error":{"message":"block not found"}}`, nil)
	defer srv.Close()

	_, err := transportFor(t, srv).Call(context.Background(), MethodGetBlock, BlockParams{})
	if err == nil || !strings.Contains(err.Error(), `"message":"block not found"`) {
		t.Errorf("err = %v, want payload included", err)
	}
}

func TestHTTPTransport_EmptyErrorIsSuccess(t *testing.T) {
	for _, errField := range []string{`""`, `{}`, `[]`, `false`, `0`} {
		srv := mockNode(t, 200, `{"result":{"ok":true},"error":`+errField+`}`, nil)
		res, err := transportFor(t, srv).Call(context.Background(), MethodGetInfo, nil)
		srv.Close()
		if err != nil {
			t.Errorf("error=%s: %v", errField, err)
			continue
		}
		if res["ok"] != true {
			t.Errorf("error=%s: result = %v", errField, res)
		}
	}
}

func TestHTTPTransport_StatusError(t *testing.T) {
	srv := mockNode(t, 503, "node syncing", nil)
	defer srv.Close()

	_, err := transportFor(t, srv).Call(context.Background(), MethodGetInfo, nil)
	var te *TransportError
	if !errors.As(err, &te) {
		t.Fatalf("err = %v, want TransportError", err)
	}
	if te.StatusCode != 503 || te.Body != "node syncing" {
		t.Errorf("TransportError = %+v", te)
	}
	if !strings.Contains(err.Error(), "status 503: node syncing") {
		t.Errorf("message = %q", err.Error())
	}
}

func TestHTTPTransport_ConnectionRefused(t *testing.T) {
	srv := mockNode(t, 200, `{}`, nil)
	tr := transportFor(t, srv)
	srv.Close()

	_, err := tr.Call(context.Background(), MethodGetInfo, nil)
	var te *TransportError
	if !errors.As(err, &te) {
		t.Fatalf("err = %v, want TransportError", err)
	}
}

func TestHTTPTransport_MalformedBody(t *testing.T) {
	srv := mockNode(t, 200, `not json`, nil)
	defer srv.Close()

	_, err := transportFor(t, srv).Call(context.Background(), MethodGetInfo, nil)
	var te *TransportError
	if !errors.As(err, &te) {
		t.Fatalf("err = %v, want TransportError", err)
	}
}

func TestHTTPTransport_UnknownMethod(t *testing.T) {
	srv := mockNode(t, 200, `{}`, nil)
	defer srv.Close()

	if _, err := transportFor(t, srv).Call(context.Background(), Method("submitBlockRequest"), nil); err == nil {
		t.Error("expected error for method outside the closed set")
	}
}

func TestHTTPTransport_NumbersKeptExact(t *testing.T) {
	srv := mockNode(t, 200, `{"result":{"virtualDaaScore":18446744073709551615}}`, nil)
	defer srv.Close()

	res, err := transportFor(t, srv).Call(context.Background(), MethodGetBlockDagInfo, nil)
	if err != nil {
		t.Fatalf("Call: %v", err)
	}
	n, ok := res["virtualDaaScore"].(json.Number)
	if !ok || n.String() != "18446744073709551615" {
		t.Errorf("virtualDaaScore = %#v", res["virtualDaaScore"])
	}
}
