package main

import (
	"context"
	"fmt"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/b0ase/path402/apps/kaspa-mcp/internal/daemon"
)

type probeResult struct {
	name    string
	detail  string
	err     error
	elapsed time.Duration
}

func newCheckCmd(cfgPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "check",
		Short: "Check connectivity to the Kaspa node",
		Long: `Query the configured node for its info, BlockDAG state and virtual
blue score concurrently, and report each result.

Exits non-zero if any query fails.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(*cfgPath)
			if err != nil {
				return err
			}
			d, err := daemon.New(cfg, version)
			if err != nil {
				return fmt.Errorf("create daemon: %w", err)
			}
			defer d.Bridge().Close()

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Kaspa RPC: %s (%s)\n\n", d.RPCURL(), cfg.RPC.Transport)

			results := runProbes(cmd.Context(), d)

			green := color.New(color.FgGreen)
			red := color.New(color.FgRed)
			gray := color.New(color.FgHiBlack)
			failed := 0
			for _, r := range results {
				if r.err != nil {
					failed++
					red.Fprint(out, "  ✘ ")
					fmt.Fprintf(out, "%-20s %v\n", r.name, r.err)
					continue
				}
				green.Fprint(out, "  ✔ ")
				fmt.Fprintf(out, "%-20s %s", r.name, r.detail)
				gray.Fprintf(out, " (%s)\n", r.elapsed.Round(time.Millisecond))
			}

			if cfg.KasFYI.APIKey != "" {
				fmt.Fprintf(out, "\nkas.fyi: configured (%s)\n", cfg.KasFYI.BaseURL)
			} else {
				fmt.Fprintln(out, "\nkas.fyi: not configured")
			}

			if failed > 0 {
				return fmt.Errorf("%d of %d checks failed", failed, len(results))
			}
			return nil
		},
	}
}

// runProbes issues the three node queries in parallel. Each probe records
// its own outcome, so one failure does not cancel the others.
func runProbes(ctx context.Context, d *daemon.Daemon) []probeResult {
	b := d.Bridge()
	probes := []struct {
		name string
		run  func(context.Context) (string, error)
	}{
		{"getInfo", func(ctx context.Context) (string, error) {
			info, err := b.GetInfo(ctx)
			if err != nil {
				return "", err
			}
			return fmt.Sprintf("version %v, synced %v", info["serverVersion"], info["isSynced"]), nil
		}},
		{"getBlockDagInfo", func(ctx context.Context) (string, error) {
			dag, err := b.GetBlockDagInfo(ctx)
			if err != nil {
				return "", err
			}
			return fmt.Sprintf("network %v, blocks %v", dag["networkName"], dag["blockCount"]), nil
		}},
		{"blueScore", func(ctx context.Context) (string, error) {
			res, err := b.GetVirtualSelectedParentBlueScore(ctx)
			if err != nil {
				return "", err
			}
			return fmt.Sprintf("%v", res["blueScore"]), nil
		}},
	}

	results := make([]probeResult, len(probes))
	var g errgroup.Group
	for i, p := range probes {
		g.Go(func() error {
			start := time.Now()
			detail, err := p.run(ctx)
			results[i] = probeResult{name: p.name, detail: detail, err: err, elapsed: time.Since(start)}
			return nil
		})
	}
	g.Wait()
	return results
}
