// Package kaspad adapts kaspad's gRPC RPC client to the bridge Transport
// interface, so the bridge can talk to a node natively instead of through a
// JSON-RPC proxy.
package kaspad

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/kaspanet/kaspad/app/appmessage"
	"github.com/kaspanet/kaspad/infrastructure/network/rpcclient"

	"github.com/b0ase/path402/apps/kaspa-mcp/internal/kaspa"
)

// nodeClient is the subset of *rpcclient.RPCClient the transport uses.
type nodeClient interface {
	GetInfo() (*appmessage.GetInfoResponseMessage, error)
	GetBlock(hash string, includeTransactions bool) (*appmessage.GetBlockResponseMessage, error)
	GetBlockDAGInfo() (*appmessage.GetBlockDAGInfoResponseMessage, error)
	GetVirtualSelectedParentBlueScore() (*appmessage.GetVirtualSelectedParentBlueScoreResponseMessage, error)
	GetBalanceByAddress(address string) (*appmessage.GetBalanceByAddressResponseMessage, error)
	GetBalancesByAddresses(addresses []string) (*appmessage.GetBalancesByAddressesResponseMessage, error)
	GetUTXOsByAddresses(addresses []string) (*appmessage.GetUTXOsByAddressesResponseMessage, error)
	GetMempoolEntriesByAddresses(addresses []string, includeOrphanPool bool, filterTransactionPool bool) (*appmessage.GetMempoolEntriesByAddressesResponseMessage, error)
	GetMempoolEntries(includeOrphanPool bool, filterTransactionPool bool) (*appmessage.GetMempoolEntriesResponseMessage, error)
	GetMempoolEntry(txID string, includeOrphanPool bool, filterTransactionPool bool) (*appmessage.GetMempoolEntryResponseMessage, error)
	Close() error
}

// rpcErrorMarker is how rpcclient prefixes errors reported by the node.
const rpcErrorMarker = "error response from RPC"

// Transport forwards bridge requests over a kaspad gRPC connection.
type Transport struct {
	// rpcclient routes replies by message type, so concurrent requests of
	// the same type could swap responses. mu serialises them.
	mu     sync.Mutex
	client nodeClient
	dial   func() (nodeClient, error)
}

// Lazy returns a transport that connects on first use. A failed dial is
// retried by the next call.
func Lazy(ep kaspa.Endpoint, timeout time.Duration) *Transport {
	return &Transport{dial: func() (nodeClient, error) {
		client, err := rpcclient.NewRPCClient(ep.Addr())
		if err != nil {
			return nil, &kaspa.TransportError{Op: "dial " + ep.Addr(), Err: err}
		}
		if timeout > 0 {
			client.SetTimeout(timeout)
		}
		return client, nil
	}}
}

func newTransport(client nodeClient) *Transport {
	return &Transport{client: client}
}

type reply struct {
	msg any
	err error
}

// Call runs one request. rpcclient calls block without a context, so the
// request runs in its own goroutine and Call returns as soon as ctx ends.
func (t *Transport) Call(ctx context.Context, method kaspa.Method, params any) (map[string]any, error) {
	if !method.Valid() {
		return nil, fmt.Errorf("unknown method %q", method)
	}

	ch := make(chan reply, 1)
	go func() {
		t.mu.Lock()
		defer t.mu.Unlock()
		if t.client == nil {
			client, err := t.dial()
			if err != nil {
				ch <- reply{err: err}
				return
			}
			t.client = client
		}
		msg, err := t.invoke(method, params)
		ch <- reply{msg: msg, err: err}
	}()

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case r := <-ch:
		if r.err != nil {
			return nil, classify(method, r.err)
		}
		return normalize(r.msg)
	}
}

// Close shuts down the gRPC connection, if one was made.
func (t *Transport) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.client == nil {
		return nil
	}
	err := t.client.Close()
	t.client = nil
	return err
}

func (t *Transport) invoke(method kaspa.Method, params any) (any, error) {
	switch method {
	case kaspa.MethodGetInfo:
		return t.client.GetInfo()
	case kaspa.MethodGetBlock:
		p, err := paramsAs[kaspa.BlockParams](method, params)
		if err != nil {
			return nil, err
		}
		return t.client.GetBlock(p.Hash, p.IncludeTransactions)
	case kaspa.MethodGetBlockDagInfo:
		return t.client.GetBlockDAGInfo()
	case kaspa.MethodGetVirtualSelectedParentBlueScore:
		return t.client.GetVirtualSelectedParentBlueScore()
	case kaspa.MethodGetBalanceByAddress:
		p, err := paramsAs[kaspa.AddressParams](method, params)
		if err != nil {
			return nil, err
		}
		return t.client.GetBalanceByAddress(p.Address)
	case kaspa.MethodGetBalancesByAddresses:
		p, err := paramsAs[kaspa.AddressesParams](method, params)
		if err != nil {
			return nil, err
		}
		return t.client.GetBalancesByAddresses(p.Addresses)
	case kaspa.MethodGetUtxosByAddresses:
		p, err := paramsAs[kaspa.AddressesParams](method, params)
		if err != nil {
			return nil, err
		}
		return t.client.GetUTXOsByAddresses(p.Addresses)
	case kaspa.MethodGetMempoolEntriesByAddresses:
		p, err := paramsAs[kaspa.MempoolByAddressesParams](method, params)
		if err != nil {
			return nil, err
		}
		return t.client.GetMempoolEntriesByAddresses(p.Addresses, p.IncludeOrphanPool, p.FilterTransactionPool)
	case kaspa.MethodGetMempoolEntries:
		p, err := paramsAs[kaspa.MempoolFilter](method, params)
		if err != nil {
			return nil, err
		}
		return t.client.GetMempoolEntries(p.IncludeOrphanPool, p.FilterTransactionPool)
	case kaspa.MethodGetMempoolEntry:
		p, err := paramsAs[kaspa.MempoolEntryParams](method, params)
		if err != nil {
			return nil, err
		}
		return t.client.GetMempoolEntry(p.TxID, p.IncludeOrphanPool, p.FilterTransactionPool)
	}
	return nil, fmt.Errorf("unknown method %q", method)
}

func paramsAs[T any](method kaspa.Method, params any) (T, error) {
	p, ok := params.(T)
	if !ok {
		var zero T
		return zero, fmt.Errorf("%s: unexpected params type %T", method, params)
	}
	return p, nil
}

// classify splits rpcclient errors into node-side and transport failures.
func classify(method kaspa.Method, err error) error {
	var te *kaspa.TransportError
	if errors.As(err, &te) {
		return err
	}
	msg := err.Error()
	if i := strings.Index(msg, rpcErrorMarker); i >= 0 {
		detail := strings.TrimSpace(strings.TrimPrefix(msg[i+len(rpcErrorMarker):], ":"))
		return &kaspa.RPCError{Method: method, Payload: map[string]any{"message": detail}}
	}
	return &kaspa.TransportError{Op: "gRPC call", Err: err}
}

// normalize turns an appmessage response into the camelCase mapping the
// JSON-RPC transport would have produced.
func normalize(msg any) (map[string]any, error) {
	raw, err := json.Marshal(msg)
	if err != nil {
		return nil, fmt.Errorf("encode response: %w", err)
	}
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}

	m, ok := camelize(v).(map[string]any)
	if !ok {
		return map[string]any{}, nil
	}
	delete(m, "error")
	return m, nil
}
