package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/b0ase/path402/apps/kaspa-mcp/internal/address"
	"github.com/b0ase/path402/apps/kaspa-mcp/internal/kasfyi"
	"github.com/b0ase/path402/apps/kaspa-mcp/internal/kaspa"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// --- Input types ---

type emptyInput struct{}

type blockInput struct {
	BlockHash           string `json:"block_hash" jsonschema:"block hash (64 hex characters)"`
	IncludeTransactions bool   `json:"include_transactions,omitempty" jsonschema:"include full transaction data"`
}

type addressInput struct {
	Address string `json:"address" jsonschema:"Kaspa address, e.g. kaspa:qr..."`
}

type addressesInput struct {
	Addresses []string `json:"addresses" jsonschema:"list of Kaspa addresses"`
}

type mempoolInput struct {
	Addresses             []string `json:"addresses" jsonschema:"list of Kaspa addresses"`
	IncludeOrphanPool     *bool    `json:"include_orphan_pool,omitempty" jsonschema:"include orphan pool transactions (default true)"`
	FilterTransactionPool *bool    `json:"filter_transaction_pool,omitempty" jsonschema:"filter the transaction pool (default true)"`
}

type mempoolFlagsInput struct {
	IncludeOrphanPool     *bool `json:"include_orphan_pool,omitempty" jsonschema:"include orphan pool transactions (default true)"`
	FilterTransactionPool *bool `json:"filter_transaction_pool,omitempty" jsonschema:"filter the transaction pool (default true)"`
}

type mempoolEntryInput struct {
	TxID                  string `json:"tx_id" jsonschema:"transaction id"`
	IncludeOrphanPool     *bool  `json:"include_orphan_pool,omitempty" jsonschema:"include orphan pool transactions (default true)"`
	FilterTransactionPool *bool  `json:"filter_transaction_pool,omitempty" jsonschema:"filter the transaction pool (default true)"`
}

type blueScoreRangeInput struct {
	Start               uint64 `json:"start" jsonschema:"first blue score of the window"`
	End                 uint64 `json:"end" jsonschema:"last blue score of the window, at most start+100"`
	ChainBlocksOnly     bool   `json:"chain_blocks_only,omitempty" jsonschema:"only return selected-chain blocks"`
	IncludeTransactions bool   `json:"include_transactions,omitempty" jsonschema:"include transactions"`
	IncludePayload      bool   `json:"include_payload,omitempty" jsonschema:"include raw payloads"`
}

func addTool[In any](s *MCPServer, name, description string, h mcp.ToolHandlerFor[In, any]) {
	mcp.AddTool(s.server, &mcp.Tool{Name: name, Description: description}, h)
	s.tools = append(s.tools, toolDoc{name: name, description: description})
}

// registerTools adds all Kaspa MCP tools to the server.
func (s *MCPServer) registerTools() {
	addTool(s, "get_node_info", "Node information and status", s.handleNodeInfo)
	addTool(s, "get_block_by_hash", "Get block details by hash", s.handleBlockByHash)
	addTool(s, "get_latest_daa", "Get latest DAA score", s.handleLatestDAA)
	addTool(s, "get_block_dag_info", "Get BlockDAG information", s.handleBlockDagInfo)
	addTool(s, "validate_address", "Validate Kaspa address format", s.handleValidateAddress)
	addTool(s, "get_address_balance", "Get balance for specific address", s.handleAddressBalance)
	addTool(s, "get_addresses_balances", "Get balances for several addresses", s.handleAddressesBalances)
	addTool(s, "get_address_utxos", "Get UTXOs for addresses", s.handleAddressUtxos)
	addTool(s, "get_mempool_transactions", "Get mempool transactions by address", s.handleMempoolTransactions)
	addTool(s, "get_mempool_entries", "Get all mempool entries", s.handleMempoolEntries)
	addTool(s, "get_mempool_entry", "Get a single mempool entry by transaction id", s.handleMempoolEntry)
	addTool(s, "get_blocks_by_blue_score", "Historical blocks in a blue score window (kas.fyi, max 100)", s.handleBlocksByBlueScore)
}

// --- Handlers ---

func (s *MCPServer) handleNodeInfo(ctx context.Context, _ *mcp.CallToolRequest, _ emptyInput) (*mcp.CallToolResult, any, error) {
	info, err := s.node.GetInfo(ctx)
	if err != nil {
		return s.failed("get_node_info", err), nil, nil
	}
	return s.success(payload{"node_info": info}), nil, nil
}

func (s *MCPServer) handleBlockByHash(ctx context.Context, _ *mcp.CallToolRequest, input blockInput) (*mcp.CallToolResult, any, error) {
	if input.BlockHash == "" {
		return s.errResult("block_hash is required", nil), nil, nil
	}
	block, err := s.node.GetBlock(ctx, input.BlockHash, input.IncludeTransactions)
	if err != nil {
		return s.failed("get_block_by_hash", err), nil, nil
	}
	return s.success(payload{"block_hash": input.BlockHash, "block": block}), nil, nil
}

func (s *MCPServer) handleLatestDAA(ctx context.Context, _ *mcp.CallToolRequest, _ emptyInput) (*mcp.CallToolResult, any, error) {
	res, err := s.node.GetVirtualSelectedParentBlueScore(ctx)
	if err != nil {
		return s.failed("get_latest_daa", err), nil, nil
	}
	return s.success(payload{"blue_score": res["blueScore"]}), nil, nil
}

func (s *MCPServer) handleBlockDagInfo(ctx context.Context, _ *mcp.CallToolRequest, _ emptyInput) (*mcp.CallToolResult, any, error) {
	info, err := s.node.GetBlockDagInfo(ctx)
	if err != nil {
		return s.failed("get_block_dag_info", err), nil, nil
	}
	return s.success(payload{"dag_info": info}), nil, nil
}

func (s *MCPServer) handleValidateAddress(_ context.Context, _ *mcp.CallToolRequest, input addressInput) (*mcp.CallToolResult, any, error) {
	if input.Address == "" {
		return s.errResult("address is required", nil), nil, nil
	}
	return s.success(payload{"validation": address.Validate(input.Address)}), nil, nil
}

func (s *MCPServer) handleAddressBalance(ctx context.Context, _ *mcp.CallToolRequest, input addressInput) (*mcp.CallToolResult, any, error) {
	if input.Address == "" {
		return s.errResult("address is required", nil), nil, nil
	}
	if v := address.Validate(input.Address); !v.Valid {
		return s.errResult("Invalid address: "+v.Error, nil), nil, nil
	}
	balance, err := s.node.GetBalanceByAddress(ctx, input.Address)
	if err != nil {
		return s.failed("get_address_balance", err), nil, nil
	}
	return s.success(payload{"address": input.Address, "balance": balance}), nil, nil
}

func (s *MCPServer) handleAddressesBalances(ctx context.Context, _ *mcp.CallToolRequest, input addressesInput) (*mcp.CallToolResult, any, error) {
	if res := s.checkAddresses(input.Addresses); res != nil {
		return res, nil, nil
	}
	balances, err := s.node.GetBalancesByAddresses(ctx, input.Addresses)
	if err != nil {
		return s.failed("get_addresses_balances", err), nil, nil
	}
	return s.success(payload{"addresses": input.Addresses, "balances": balances}), nil, nil
}

func (s *MCPServer) handleAddressUtxos(ctx context.Context, _ *mcp.CallToolRequest, input addressesInput) (*mcp.CallToolResult, any, error) {
	if res := s.checkAddresses(input.Addresses); res != nil {
		return res, nil, nil
	}
	utxos, err := s.node.GetUtxosByAddresses(ctx, input.Addresses)
	if err != nil {
		return s.failed("get_address_utxos", err), nil, nil
	}
	return s.success(payload{"addresses": input.Addresses, "utxos": utxos}), nil, nil
}

func (s *MCPServer) handleMempoolTransactions(ctx context.Context, _ *mcp.CallToolRequest, input mempoolInput) (*mcp.CallToolResult, any, error) {
	if res := s.checkAddresses(input.Addresses); res != nil {
		return res, nil, nil
	}
	filter := mempoolFilter(input.IncludeOrphanPool, input.FilterTransactionPool)
	entries, err := s.node.GetMempoolEntriesByAddresses(ctx, input.Addresses, filter)
	if err != nil {
		return s.failed("get_mempool_transactions", err), nil, nil
	}
	return s.success(payload{"addresses": input.Addresses, "mempool_transactions": entries}), nil, nil
}

func (s *MCPServer) handleMempoolEntries(ctx context.Context, _ *mcp.CallToolRequest, input mempoolFlagsInput) (*mcp.CallToolResult, any, error) {
	filter := mempoolFilter(input.IncludeOrphanPool, input.FilterTransactionPool)
	entries, err := s.node.GetMempoolEntries(ctx, filter)
	if err != nil {
		return s.failed("get_mempool_entries", err), nil, nil
	}
	return s.success(payload{"mempool_entries": entries}), nil, nil
}

func (s *MCPServer) handleMempoolEntry(ctx context.Context, _ *mcp.CallToolRequest, input mempoolEntryInput) (*mcp.CallToolResult, any, error) {
	if input.TxID == "" {
		return s.errResult("tx_id is required", nil), nil, nil
	}
	filter := mempoolFilter(input.IncludeOrphanPool, input.FilterTransactionPool)
	entry, err := s.node.GetMempoolEntry(ctx, input.TxID, filter)
	if err != nil {
		return s.failed("get_mempool_entry", err), nil, nil
	}
	return s.success(payload{"tx_id": input.TxID, "entry": entry}), nil, nil
}

func (s *MCPServer) handleBlocksByBlueScore(ctx context.Context, _ *mcp.CallToolRequest, input blueScoreRangeInput) (*mcp.CallToolResult, any, error) {
	if s.archive == nil {
		err := &kaspa.ConfigurationError{Setting: "KASFYI_API_KEY", Message: "kas.fyi API key is not configured"}
		return s.failed("get_blocks_by_blue_score", err), nil, nil
	}
	blocks, err := s.archive.BlocksByBlueScore(ctx, kasfyi.Range{
		Start:               input.Start,
		End:                 input.End,
		ChainBlocksOnly:     input.ChainBlocksOnly,
		IncludeTransactions: input.IncludeTransactions,
		IncludePayload:      input.IncludePayload,
	})
	if err != nil {
		return s.failed("get_blocks_by_blue_score", err), nil, nil
	}
	return s.success(payload{"start": input.Start, "end": input.End, "blocks": blocks}), nil, nil
}

// --- Helpers ---

type payload map[string]any

// checkAddresses returns an error result when the list is empty or any
// entry fails validation, nil otherwise.
func (s *MCPServer) checkAddresses(addrs []string) *mcp.CallToolResult {
	if len(addrs) == 0 {
		return s.errResult("addresses list is required", nil)
	}
	var invalid []string
	for _, a := range addrs {
		if v := address.Validate(a); !v.Valid {
			invalid = append(invalid, fmt.Sprintf("%s: %s", a, v.Error))
		}
	}
	if len(invalid) > 0 {
		return s.errResult("Invalid addresses found", payload{"invalid_addresses": invalid})
	}
	return nil
}

func mempoolFilter(includeOrphan, filterPool *bool) kaspa.MempoolFilter {
	f := kaspa.DefaultMempoolFilter()
	if includeOrphan != nil {
		f.IncludeOrphanPool = *includeOrphan
	}
	if filterPool != nil {
		f.FilterTransactionPool = *filterPool
	}
	return f
}

func (s *MCPServer) stamp(p payload, status string) payload {
	p["status"] = status
	p["timestamp"] = s.now().UTC().Format(time.RFC3339Nano)
	return p
}

func (s *MCPServer) success(p payload) *mcp.CallToolResult {
	return textResult(marshal(s.stamp(p, "success")))
}

func (s *MCPServer) failed(tool string, err error) *mcp.CallToolResult {
	log.Printf("[mcp] %s failed: %v", tool, err)
	return s.errResult(err.Error(), nil)
}

func (s *MCPServer) errResult(msg string, extra payload) *mcp.CallToolResult {
	p := payload{"message": msg}
	for k, v := range extra {
		p[k] = v
	}
	return errResult(marshal(s.stamp(p, "error")))
}

func marshal(p payload) string {
	data, err := json.MarshalIndent(p, "", "  ")
	if err != nil {
		data, _ = json.MarshalIndent(payload{
			"status":  "error",
			"message": fmt.Sprintf("encode result: %v", err),
		}, "", "  ")
	}
	return string(data)
}

func textResult(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: text}},
	}
}

func errResult(msg string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: msg}},
		IsError: true,
	}
}
