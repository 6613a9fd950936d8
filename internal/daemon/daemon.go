package daemon

import (
	"context"
	"fmt"
	"log"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/b0ase/path402/apps/kaspa-mcp/internal/config"
	"github.com/b0ase/path402/apps/kaspa-mcp/internal/kasfyi"
	"github.com/b0ase/path402/apps/kaspa-mcp/internal/kaspa"
	"github.com/b0ase/path402/apps/kaspa-mcp/internal/kaspad"
	"github.com/b0ase/path402/apps/kaspa-mcp/internal/mcpserver"
	"github.com/b0ase/path402/apps/kaspa-mcp/internal/server"
)

// StatusInterval is how often the daemon logs node state while serving.
const StatusInterval = 60 * time.Second

// Daemon wires the bridge, the kas.fyi client and the MCP server together and
// runs the configured MCP transport.
type Daemon struct {
	cfg       *config.Config
	version   string
	endpoint  kaspa.Endpoint
	startTime time.Time
	bridge    *kaspa.Bridge
	archive   *kasfyi.Client
	mcp       *mcpserver.MCPServer
	httpSrv   *server.Server
}

// New validates cfg and builds every subsystem. No network I/O happens here.
func New(cfg *config.Config, version string) (*Daemon, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	ep, err := kaspa.ParseEndpoint(cfg.RPC.URL)
	if err != nil {
		return nil, fmt.Errorf("rpc endpoint: %w", err)
	}

	d := &Daemon{cfg: cfg, version: version, endpoint: ep}

	var transport kaspa.Transport
	switch cfg.RPC.Transport {
	case config.TransportGRPC:
		transport = kaspad.Lazy(ep, cfg.RPC.Timeout)
	default:
		transport = kaspa.NewHTTPTransport(ep, nil)
	}
	d.bridge = kaspa.NewBridge(transport,
		kaspa.WithTimeout(cfg.RPC.Timeout),
		kaspa.WithDebug(cfg.Log.Debug),
	)

	d.archive = kasfyi.New(kasfyi.Config{
		APIKey:    cfg.KasFYI.APIKey,
		BaseURL:   cfg.KasFYI.BaseURL,
		RateLimit: cfg.KasFYI.RateLimit,
	})

	d.mcp = mcpserver.New(mcpserver.Info{
		Version:   version,
		RPCURL:    d.RPCURL(),
		Transport: cfg.RPC.Transport,
		Debug:     cfg.Log.Debug,
	}, d.bridge, d.archive)

	if cfg.MCP.Transport != config.MCPStdio {
		d.httpSrv = server.New(cfg.MCP.Bind, cfg.MCP.Port, version, d.mcp.Server(), d.bridge)
	}
	return d, nil
}

// Bridge returns the node bridge.
func (d *Daemon) Bridge() *kaspa.Bridge { return d.bridge }

// RPCURL is the node address as shown to users.
func (d *Daemon) RPCURL() string {
	if d.cfg.RPC.Transport == config.TransportGRPC {
		return "grpc://" + d.endpoint.Addr()
	}
	return d.endpoint.URL()
}

// Uptime reports how long Run has been serving.
func (d *Daemon) Uptime() time.Duration { return time.Since(d.startTime) }

// Probe asks the node for its info. Used at startup and by the check command.
func (d *Daemon) Probe(ctx context.Context) (map[string]any, error) {
	return d.bridge.GetInfo(ctx)
}

// Run probes the node, then serves MCP until ctx is cancelled or, on stdio,
// the client disconnects. A failed probe is logged and serving continues.
func (d *Daemon) Run(ctx context.Context) error {
	d.startTime = time.Now()

	log.Printf("[daemon] Kaspa RPC: %s (%s)", d.RPCURL(), d.cfg.RPC.Transport)
	if d.cfg.Log.Debug {
		log.Println("[daemon] Debug mode enabled")
	}
	if d.archive.Configured() {
		log.Printf("[daemon] kas.fyi enabled (%.2f req/s)", d.cfg.KasFYI.RateLimit)
	}

	if info, err := d.Probe(ctx); err != nil {
		log.Printf("[daemon] WARNING: Kaspa RPC probe failed: %v (tools will report errors until the node is reachable)", err)
	} else {
		log.Printf("[daemon] Kaspa RPC connected (version %v, synced %v)", info["serverVersion"], info["isSynced"])
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		defer cancel()
		return d.serve(gctx)
	})
	g.Go(func() error {
		d.statusLoop(gctx)
		return nil
	})
	return g.Wait()
}

func (d *Daemon) serve(ctx context.Context) error {
	if d.httpSrv == nil {
		log.Println("[daemon] Serving MCP on stdio")
		if err := d.mcp.Run(ctx); err != nil && ctx.Err() == nil {
			return fmt.Errorf("mcp stdio: %w", err)
		}
		return nil
	}

	port, err := d.httpSrv.Start()
	if err != nil {
		return fmt.Errorf("mcp http: %w", err)
	}
	log.Printf("[daemon] Serving MCP over %s on port %d", d.cfg.MCP.Transport, port)
	<-ctx.Done()
	d.httpSrv.Stop()
	return nil
}

func (d *Daemon) statusLoop(ctx context.Context) {
	ticker := time.NewTicker(StatusInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			dag, err := d.bridge.GetBlockDagInfo(ctx)
			if err != nil {
				if ctx.Err() == nil {
					log.Printf("[daemon] Node unreachable: %v", err)
				}
				continue
			}
			log.Printf("[daemon] Uptime: %s | Network: %v | DAA: %v | Blocks: %v",
				d.Uptime().Round(time.Second), dag["networkName"], dag["virtualDaaScore"], dag["blockCount"])
		}
	}
}

// Stop releases the node connection.
func (d *Daemon) Stop() {
	log.Println("[daemon] Shutting down...")
	if err := d.bridge.Close(); err != nil {
		log.Printf("[daemon] Close RPC transport: %v", err)
	}
	log.Println("[daemon] Shutdown complete")
}
