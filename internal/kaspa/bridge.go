// Package kaspa forwards a fixed set of Kaspa node operations to a node and
// normalises the replies.
//
// A Bridge owns one Transport (JSON-RPC over HTTP, or a native client) and
// exposes one method per node operation. Each method issues exactly one
// request, bounded by the bridge timeout, and returns the unwrapped result
// mapping. Nothing is retried or cached.
package kaspa

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"
)

// DefaultTimeout bounds every bridge operation unless overridden.
const DefaultTimeout = 60 * time.Second

// Bridge translates domain operations into node requests.
type Bridge struct {
	transport Transport
	timeout   time.Duration
	debug     bool
}

// Option configures a Bridge.
type Option func(*Bridge)

// WithTimeout sets the per-operation deadline. Non-positive values keep the
// default.
func WithTimeout(d time.Duration) Option {
	return func(b *Bridge) {
		if d > 0 {
			b.timeout = d
		}
	}
}

// WithDebug logs every request and its latency.
func WithDebug(debug bool) Option {
	return func(b *Bridge) { b.debug = debug }
}

// NewBridge creates a bridge over t.
func NewBridge(t Transport, opts ...Option) *Bridge {
	b := &Bridge{transport: t, timeout: DefaultTimeout}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Timeout returns the per-operation deadline.
func (b *Bridge) Timeout() time.Duration { return b.timeout }

// Close releases the underlying transport.
func (b *Bridge) Close() error { return b.transport.Close() }

func (b *Bridge) call(ctx context.Context, method Method, params any) (map[string]any, error) {
	ctx, cancel := context.WithTimeout(ctx, b.timeout)
	defer cancel()

	start := time.Now()
	result, err := b.transport.Call(ctx, method, params)
	if b.debug {
		log.Printf("[rpc] %s took %s (err=%v)", method, time.Since(start).Round(time.Millisecond), err)
	}
	if err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return nil, &TimeoutError{Op: string(method), After: b.timeout}
		}
		return nil, fmt.Errorf("%s: %w", method, err)
	}
	if result == nil {
		result = map[string]any{}
	}
	return result, nil
}

// GetInfo returns general node information.
func (b *Bridge) GetInfo(ctx context.Context) (map[string]any, error) {
	return b.call(ctx, MethodGetInfo, nil)
}

// GetBlock returns the block with the given hash.
func (b *Bridge) GetBlock(ctx context.Context, hash string, includeTransactions bool) (map[string]any, error) {
	return b.call(ctx, MethodGetBlock, BlockParams{Hash: hash, IncludeTransactions: includeTransactions})
}

// GetBlockDagInfo returns the current BlockDAG state.
func (b *Bridge) GetBlockDagInfo(ctx context.Context) (map[string]any, error) {
	return b.call(ctx, MethodGetBlockDagInfo, nil)
}

// GetVirtualSelectedParentBlueScore returns {"blueScore": ...}. Transports
// without a dedicated call get the value from the BlockDAG info's
// virtualDaaScore instead.
func (b *Bridge) GetVirtualSelectedParentBlueScore(ctx context.Context) (map[string]any, error) {
	if supports(b.transport, MethodGetVirtualSelectedParentBlueScore) {
		return b.call(ctx, MethodGetVirtualSelectedParentBlueScore, nil)
	}

	dag, err := b.GetBlockDagInfo(ctx)
	if err != nil {
		return nil, err
	}
	return map[string]any{"blueScore": dag["virtualDaaScore"]}, nil
}

// GetBalanceByAddress returns the balance of one address.
func (b *Bridge) GetBalanceByAddress(ctx context.Context, address string) (map[string]any, error) {
	return b.call(ctx, MethodGetBalanceByAddress, AddressParams{Address: address})
}

// GetBalancesByAddresses returns balances for several addresses.
func (b *Bridge) GetBalancesByAddresses(ctx context.Context, addresses []string) (map[string]any, error) {
	return b.call(ctx, MethodGetBalancesByAddresses, AddressesParams{Addresses: addresses})
}

// GetUtxosByAddresses returns the UTXOs held by the given addresses.
func (b *Bridge) GetUtxosByAddresses(ctx context.Context, addresses []string) (map[string]any, error) {
	return b.call(ctx, MethodGetUtxosByAddresses, AddressesParams{Addresses: addresses})
}

// GetMempoolEntriesByAddresses returns mempool entries touching the given
// addresses.
func (b *Bridge) GetMempoolEntriesByAddresses(ctx context.Context, addresses []string, filter MempoolFilter) (map[string]any, error) {
	return b.call(ctx, MethodGetMempoolEntriesByAddresses, MempoolByAddressesParams{Addresses: addresses, MempoolFilter: filter})
}

// GetMempoolEntries returns every mempool entry.
func (b *Bridge) GetMempoolEntries(ctx context.Context, filter MempoolFilter) (map[string]any, error) {
	return b.call(ctx, MethodGetMempoolEntries, filter)
}

// GetMempoolEntry returns the mempool entry for one transaction.
func (b *Bridge) GetMempoolEntry(ctx context.Context, txID string, filter MempoolFilter) (map[string]any, error) {
	return b.call(ctx, MethodGetMempoolEntry, MempoolEntryParams{TxID: txID, MempoolFilter: filter})
}
