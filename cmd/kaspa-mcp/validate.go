package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/b0ase/path402/apps/kaspa-mcp/internal/address"
)

type validation struct {
	Address string `json:"address"`
	address.Result
}

func newValidateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "validate <address>...",
		Short: "Validate Kaspa addresses offline",
		Long: `Validate one or more Kaspa addresses without contacting a node and print
the results as JSON.

Exits non-zero if any address is invalid.

Examples:
  kaspa-mcp validate kaspa:qpauqsvk7yf9unexwmxsnmg547mhyga37csh0kj53q6xxgl24ydxjsgzthw5j`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			results := make([]validation, 0, len(args))
			invalid := 0
			for _, a := range args {
				res := address.Validate(a)
				if !res.Valid {
					invalid++
				}
				results = append(results, validation{Address: a, Result: res})
			}

			data, err := json.MarshalIndent(results, "", "  ")
			if err != nil {
				return fmt.Errorf("encode results: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), string(data))

			if invalid > 0 {
				return fmt.Errorf("%d of %d addresses invalid", invalid, len(args))
			}
			return nil
		},
	}
}
