package mcpserver

import (
	"context"
	"fmt"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

const (
	statusURI   = "kaspa://status"
	examplesURI = "kaspa://docs/examples"
)

func (s *MCPServer) registerResources() {
	s.server.AddResource(&mcp.Resource{
		URI:         statusURI,
		Name:        "Server Status",
		Description: "Current server status and configuration",
		MIMEType:    "text/markdown",
	}, s.readStatus)

	s.server.AddResource(&mcp.Resource{
		URI:         examplesURI,
		Name:        "Usage Examples",
		Description: "Examples of how to use the Kaspa MCP server",
		MIMEType:    "text/markdown",
	}, s.readExamples)
}

func (s *MCPServer) readStatus(_ context.Context, req *mcp.ReadResourceRequest) (*mcp.ReadResourceResult, error) {
	var b strings.Builder
	fmt.Fprintf(&b, "# Kaspa MCP Server Status\n\n")
	fmt.Fprintf(&b, "**Status:** Running\n")
	fmt.Fprintf(&b, "**Version:** %s\n", s.info.Version)
	fmt.Fprintf(&b, "**Kaspa RPC:** %s\n\n", s.info.RPCURL)

	fmt.Fprintf(&b, "## Available Tools\n")
	for _, t := range s.tools {
		fmt.Fprintf(&b, "- `%s` - %s\n", t.name, t.description)
	}

	fmt.Fprintf(&b, "\n## Configuration\n")
	fmt.Fprintf(&b, "- Debug mode: %s\n", onOff(s.info.Debug))
	fmt.Fprintf(&b, "- RPC transport: %s\n", s.info.Transport)
	fmt.Fprintf(&b, "- Kaspa RPC URL: %s\n", s.info.RPCURL)
	fmt.Fprintf(&b, "- kas.fyi: %s\n", onOff(s.archive != nil && s.archive.Configured()))

	return markdown(req, b.String()), nil
}

func (s *MCPServer) readExamples(_ context.Context, req *mcp.ReadResourceRequest) (*mcp.ReadResourceResult, error) {
	return markdown(req, examplesDoc), nil
}

func markdown(req *mcp.ReadResourceRequest, text string) *mcp.ReadResourceResult {
	return &mcp.ReadResourceResult{
		Contents: []*mcp.ResourceContents{{
			URI:      req.Params.URI,
			MIMEType: "text/markdown",
			Text:     text,
		}},
	}
}

func onOff(v bool) string {
	if v {
		return "enabled"
	}
	return "disabled"
}

const examplesDoc = "# Kaspa MCP Server - Usage Examples\n\n" +
	"## 1. Check Node Status\n```\nget_node_info()\n```\n\n" +
	"## 2. Get Block by Hash\n```\nget_block_by_hash(block_hash=\"0000000000000000000000000000000000000000000000000000000000000000\")\n```\n\n" +
	"## 3. Get Latest DAA Score\n```\nget_latest_daa()\n```\n\n" +
	"## 4. Get BlockDAG Information\n```\nget_block_dag_info()\n```\n\n" +
	"## 5. Validate an Address\n```\nvalidate_address(address=\"kaspa:qpauqsvk7yf9unexwmxsnmg547mhyga37csh0kj53q6xxgl24ydxjsgzthw5j\")\n```\n\n" +
	"## 6. Balances and UTXOs\n```\nget_address_balance(address=\"kaspa:...\")\nget_addresses_balances(addresses=[\"kaspa:...\", \"kaspa:...\"])\nget_address_utxos(addresses=[\"kaspa:...\"])\n```\n\n" +
	"## 7. Mempool\n```\nget_mempool_transactions(addresses=[\"kaspa:...\"], include_orphan_pool=true)\nget_mempool_entries(filter_transaction_pool=false)\nget_mempool_entry(tx_id=\"...\")\n```\n\n" +
	"## 8. Historical Blocks (requires KASFYI_API_KEY)\n```\nget_blocks_by_blue_score(start=1000, end=1100, chain_blocks_only=true)\n```\n"
