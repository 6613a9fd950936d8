package kaspa

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"
)

// fakeTransport records calls and answers from a per-method table.
type fakeTransport struct {
	mu          sync.Mutex
	calls       []Method
	params      []any
	results     map[Method]map[string]any
	errs        map[Method]error
	unsupported map[Method]bool
	block       bool
}

func (f *fakeTransport) Call(ctx context.Context, m Method, params any) (map[string]any, error) {
	f.mu.Lock()
	f.calls = append(f.calls, m)
	f.params = append(f.params, params)
	f.mu.Unlock()

	if f.block {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	if err := f.errs[m]; err != nil {
		return nil, err
	}
	return f.results[m], nil
}

func (f *fakeTransport) Close() error { return nil }

// partialTransport is a fakeTransport that reports unsupported methods.
type partialTransport struct{ *fakeTransport }

func (p partialTransport) Supports(m Method) bool { return !p.unsupported[m] }

func TestBridge_NilResultBecomesEmptyMapping(t *testing.T) {
	b := NewBridge(&fakeTransport{})
	res, err := b.GetInfo(context.Background())
	if err != nil {
		t.Fatalf("GetInfo: %v", err)
	}
	if res == nil {
		t.Fatal("GetInfo returned nil mapping")
	}
}

func TestBridge_MethodPerOperation(t *testing.T) {
	ft := &fakeTransport{}
	b := NewBridge(ft)
	ctx := context.Background()
	f := DefaultMempoolFilter()
	addrs := []string{"kaspa:x"}

	b.GetInfo(ctx)
	b.GetBlock(ctx, "abc", true)
	b.GetBlockDagInfo(ctx)
	b.GetVirtualSelectedParentBlueScore(ctx)
	b.GetBalanceByAddress(ctx, "kaspa:x")
	b.GetBalancesByAddresses(ctx, addrs)
	b.GetUtxosByAddresses(ctx, addrs)
	b.GetMempoolEntriesByAddresses(ctx, addrs, f)
	b.GetMempoolEntries(ctx, f)
	b.GetMempoolEntry(ctx, "tx", f)

	if len(ft.calls) != len(Methods) {
		t.Fatalf("calls = %v, want one per method", ft.calls)
	}
	for i, m := range Methods {
		if ft.calls[i] != m {
			t.Errorf("call %d = %s, want %s", i, ft.calls[i], m)
		}
	}

	if p, ok := ft.params[1].(BlockParams); !ok || p.Hash != "abc" || !p.IncludeTransactions {
		t.Errorf("GetBlock params = %#v", ft.params[1])
	}
	if p, ok := ft.params[9].(MempoolEntryParams); !ok || p.TxID != "tx" || !p.IncludeOrphanPool {
		t.Errorf("GetMempoolEntry params = %#v", ft.params[9])
	}
	if ft.params[0] != nil {
		t.Errorf("GetInfo params = %#v, want nil", ft.params[0])
	}
}

func TestBridge_DerivedBlueScore(t *testing.T) {
	ft := &fakeTransport{
		results: map[Method]map[string]any{
			MethodGetBlockDagInfo: {"virtualDaaScore": json.Number("84123456"), "networkName": "kaspa-mainnet"},
		},
		unsupported: map[Method]bool{MethodGetVirtualSelectedParentBlueScore: true},
	}
	b := NewBridge(partialTransport{ft})

	res, err := b.GetVirtualSelectedParentBlueScore(context.Background())
	if err != nil {
		t.Fatalf("GetVirtualSelectedParentBlueScore: %v", err)
	}

	dag, _ := b.GetBlockDagInfo(context.Background())
	if res["blueScore"] != dag["virtualDaaScore"] {
		t.Errorf("blueScore = %v, want %v", res["blueScore"], dag["virtualDaaScore"])
	}
	if len(res) != 1 {
		t.Errorf("derived result = %v, want only blueScore", res)
	}
	for _, m := range ft.calls {
		if m == MethodGetVirtualSelectedParentBlueScore {
			t.Error("unsupported method was called")
		}
	}
}

func TestBridge_DirectBlueScore(t *testing.T) {
	ft := &fakeTransport{
		results: map[Method]map[string]any{
			MethodGetVirtualSelectedParentBlueScore: {"blueScore": json.Number("99")},
		},
	}
	b := NewBridge(partialTransport{ft})

	res, err := b.GetVirtualSelectedParentBlueScore(context.Background())
	if err != nil {
		t.Fatalf("GetVirtualSelectedParentBlueScore: %v", err)
	}
	if res["blueScore"] != json.Number("99") {
		t.Errorf("blueScore = %v", res["blueScore"])
	}
	if len(ft.calls) != 1 || ft.calls[0] != MethodGetVirtualSelectedParentBlueScore {
		t.Errorf("calls = %v", ft.calls)
	}
}

func TestBridge_DerivedBlueScorePropagatesError(t *testing.T) {
	ft := &fakeTransport{
		errs:        map[Method]error{MethodGetBlockDagInfo: &RPCError{Payload: "down"}},
		unsupported: map[Method]bool{MethodGetVirtualSelectedParentBlueScore: true},
	}
	b := NewBridge(partialTransport{ft})

	var rpcErr *RPCError
	if _, err := b.GetVirtualSelectedParentBlueScore(context.Background()); !errors.As(err, &rpcErr) {
		t.Errorf("err = %v, want RPCError", err)
	}
}

func TestBridge_ErrorsWrapMethod(t *testing.T) {
	ft := &fakeTransport{errs: map[Method]error{MethodGetInfo: &TransportError{Op: "RPC call", Err: errors.New("refused")}}}
	b := NewBridge(ft)

	_, err := b.GetInfo(context.Background())
	var te *TransportError
	if !errors.As(err, &te) {
		t.Fatalf("err = %v, want TransportError", err)
	}
	if want := "getInfoRequest: RPC call: refused"; err.Error() != want {
		t.Errorf("err = %q, want %q", err.Error(), want)
	}
}

func TestBridge_Timeout(t *testing.T) {
	b := NewBridge(&fakeTransport{block: true}, WithTimeout(20*time.Millisecond))

	start := time.Now()
	_, err := b.GetBlockDagInfo(context.Background())
	if time.Since(start) > 2*time.Second {
		t.Fatal("call not aborted by timeout")
	}

	var te *TimeoutError
	if !errors.As(err, &te) {
		t.Fatalf("err = %v, want TimeoutError", err)
	}
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Error("TimeoutError does not match context.DeadlineExceeded")
	}
	if te.After != 20*time.Millisecond {
		t.Errorf("After = %v", te.After)
	}
}

func TestBridge_CallerCancel(t *testing.T) {
	b := NewBridge(&fakeTransport{block: true})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := b.GetInfo(ctx)
	if !errors.Is(err, context.Canceled) {
		t.Errorf("err = %v, want context.Canceled", err)
	}
	var te *TimeoutError
	if errors.As(err, &te) {
		t.Error("cancellation reported as timeout")
	}
}

func TestBridge_DefaultTimeout(t *testing.T) {
	if got := NewBridge(&fakeTransport{}).Timeout(); got != DefaultTimeout {
		t.Errorf("Timeout() = %v, want %v", got, DefaultTimeout)
	}
	if got := NewBridge(&fakeTransport{}, WithTimeout(0)).Timeout(); got != DefaultTimeout {
		t.Errorf("WithTimeout(0) = %v, want default", got)
	}
}

func TestBridge_HTTPTimeout(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()
	defer close(release)

	ep, _ := ParseEndpoint(srv.URL)
	b := NewBridge(NewHTTPTransport(ep, srv.Client()), WithTimeout(50*time.Millisecond))

	var te *TimeoutError
	if _, err := b.GetInfo(context.Background()); !errors.As(err, &te) {
		t.Errorf("err = %v, want TimeoutError", err)
	}
}

func TestBridge_ErrorEnvelopeNeverSucceeds(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"result":{"blueScore":1},"error":{"message":"nope"}}`))
	}))
	defer srv.Close()

	ep, _ := ParseEndpoint(srv.URL)
	b := NewBridge(NewHTTPTransport(ep, srv.Client()))

	res, err := b.GetVirtualSelectedParentBlueScore(context.Background())
	if err == nil {
		t.Fatalf("got success %v for error envelope", res)
	}
}
