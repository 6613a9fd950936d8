package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/b0ase/path402/apps/kaspa-mcp/internal/config"
	"github.com/b0ase/path402/apps/kaspa-mcp/internal/daemon"
)

var version = "0.1.0"

const banner = `
  _                                                    
 | | ____ _ ___ _ __   __ _       _ __ ___   ___ _ __  
 | |/ / _' / __| '_ \ / _' |_____| '_ ' _ \ / __| '_ \ 
 |   < (_| \__ \ |_) | (_| |_____| | | | | | (__| |_) |
 |_|\_\__,_|___/ .__/ \__,_|     |_| |_| |_|\___| .__/ 
               |_|                              |_|    
`

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var cfgPath string

	serve := newServeCmd(&cfgPath)
	root := &cobra.Command{
		Use:   "kaspa-mcp",
		Short: "Kaspa node tools for MCP clients",
		Long: `kaspa-mcp exposes a Kaspa node over the Model Context Protocol.

Without a subcommand it runs "serve" on stdio, which is what MCP hosts
expect when they launch the binary.`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          serve.RunE,
	}
	root.PersistentFlags().StringVar(&cfgPath, "config", "", "path to config.yaml (default ~/.kaspa-mcp/config.yaml)")
	root.Flags().AddFlagSet(serve.Flags())

	root.AddCommand(serve, newCheckCmd(&cfgPath), newValidateCmd())
	return root
}

func newServeCmd(cfgPath *string) *cobra.Command {
	var transport string
	var port int

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the MCP server",
		Long: `Run the MCP server.

Transports:
  stdio  JSON-RPC over stdin/stdout (default)
  sse    Server-sent events at /sse
  http   Streamable HTTP at /mcp

Examples:
  kaspa-mcp serve
  KASPA_RPC_URL=http://node:16110 kaspa-mcp serve --transport http --port 8000`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(*cfgPath)
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("transport") {
				cfg.MCP.Transport = transport
			}
			if cmd.Flags().Changed("port") {
				cfg.MCP.Port = port
			}

			color.New(color.FgCyan).Fprint(os.Stderr, banner)
			color.New(color.FgHiBlack).Fprintf(os.Stderr, "  Kaspa MCP bridge  v%s\n\n", version)

			d, err := daemon.New(cfg, version)
			if err != nil {
				return fmt.Errorf("create daemon: %w", err)
			}
			defer d.Stop()

			if err := d.Run(cmd.Context()); err != nil {
				return err
			}
			log.Println("[main] Goodbye.")
			return nil
		},
	}
	cmd.Flags().StringVar(&transport, "transport", config.MCPStdio, "MCP transport: stdio, sse or http")
	cmd.Flags().IntVar(&port, "port", 8000, "HTTP port for sse and http transports")
	return cmd
}

// loadConfig reads the config file and sets up logging to match it.
func loadConfig(path string) (*config.Config, error) {
	if path == "" {
		path = config.DefaultPath()
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	// stdout carries the stdio transport, so logs go to stderr.
	log.SetOutput(os.Stderr)
	if cfg.Log.Debug {
		log.SetFlags(log.LstdFlags | log.Lshortfile)
	}
	return cfg, nil
}
