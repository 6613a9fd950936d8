package mcpserver

import (
	"context"
	"time"

	"github.com/b0ase/path402/apps/kaspa-mcp/internal/kasfyi"
	"github.com/b0ase/path402/apps/kaspa-mcp/internal/kaspa"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// Node is the set of node operations exposed as tools.
type Node interface {
	GetInfo(ctx context.Context) (map[string]any, error)
	GetBlock(ctx context.Context, hash string, includeTransactions bool) (map[string]any, error)
	GetBlockDagInfo(ctx context.Context) (map[string]any, error)
	GetVirtualSelectedParentBlueScore(ctx context.Context) (map[string]any, error)
	GetBalanceByAddress(ctx context.Context, address string) (map[string]any, error)
	GetBalancesByAddresses(ctx context.Context, addresses []string) (map[string]any, error)
	GetUtxosByAddresses(ctx context.Context, addresses []string) (map[string]any, error)
	GetMempoolEntriesByAddresses(ctx context.Context, addresses []string, filter kaspa.MempoolFilter) (map[string]any, error)
	GetMempoolEntries(ctx context.Context, filter kaspa.MempoolFilter) (map[string]any, error)
	GetMempoolEntry(ctx context.Context, txID string, filter kaspa.MempoolFilter) (map[string]any, error)
}

// BlockArchive serves historical block ranges by blue score.
type BlockArchive interface {
	Configured() bool
	BlocksByBlueScore(ctx context.Context, r kasfyi.Range) (any, error)
}

// Info describes the running server for the status resource.
type Info struct {
	Version   string
	RPCURL    string
	Transport string
	Debug     bool
}

type toolDoc struct {
	name        string
	description string
}

// MCPServer wraps the MCP protocol server with Kaspa tools.
type MCPServer struct {
	server  *mcp.Server
	node    Node
	archive BlockArchive
	info    Info
	tools   []toolDoc
	now     func() time.Time
}

// New creates an MCP server with all Kaspa tools and resources registered.
// archive may be nil, in which case block range lookups report a
// configuration error.
func New(info Info, node Node, archive BlockArchive) *MCPServer {
	s := &MCPServer{
		node:    node,
		archive: archive,
		info:    info,
		now:     time.Now,
		server: mcp.NewServer(
			&mcp.Implementation{
				Name:    "kaspa-mcp",
				Version: info.Version,
			},
			&mcp.ServerOptions{
				Instructions: "Kaspa node bridge. Provides tools to query node info, blocks, BlockDAG state, DAA score, balances, UTXOs and mempool entries, and to validate Kaspa addresses.",
			},
		),
	}
	s.registerTools()
	s.registerResources()
	return s
}

// Server returns the underlying MCP server for HTTP transports.
func (s *MCPServer) Server() *mcp.Server { return s.server }

// Run starts the MCP server on stdio, blocking until the client disconnects.
func (s *MCPServer) Run(ctx context.Context) error {
	return s.server.Run(ctx, &mcp.StdioTransport{})
}
