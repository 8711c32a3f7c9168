package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/ecodyn/popmatrix/sensitivity"
)

func newEquilibriumCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "equilibrium",
		Short: "Scan the covariate grid for near-equilibrium combinations",
		Long: `Evaluate the growth rate over a regular grid spanning the historical
range of each covariate and report the combinations where lambda stays
within the configured tolerance of 1.

The grid axes come from the sensitivity.grid_over list in the
configuration (default: every covariate in the series); resolution from
sensitivity.resolution. An empty result means the grid holds no
near-equilibrium dynamics, which is itself an answer.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, run, err := loadRun(cmd)
			if err != nil {
				return err
			}

			over := cfg.Sensitivity.GridOver
			if len(over) == 0 {
				over = run.Series.Names()
			}
			grid, err := run.Series.Grid(cfg.Sensitivity.GridResolution(), over...)
			if err != nil {
				return err
			}

			engine, err := sensitivity.NewEngine(run.Models, run.Topology, run.Series, run.Input, run.Options)
			if err != nil {
				return err
			}
			kept, failures, err := engine.FindEquilibrium(grid)
			if err != nil {
				return err
			}

			names := run.Series.Names()
			w := newTableWriter(cmd)
			w.header(append(names, "lambda"))
			for _, comb := range kept {
				row := make([]string, 0, len(names)+1)
				for _, n := range names {
					row = append(row, fmt.Sprintf("%.4f", comb[n]))
				}
				lambda, err := engine.Lambda(comb)
				if err != nil {
					return err
				}
				row = append(row, fmt.Sprintf("%.6f", lambda))
				w.row(row)
			}
			if err := w.flush(); err != nil {
				return err
			}

			fmt.Fprintf(os.Stderr, "%d of %d grid points within tolerance\n", len(kept), grid.Len())
			for _, f := range failures {
				fmt.Fprintf(os.Stderr, "grid point %d failed: %v\n", f.Index, f.Err)
			}

			return nil
		},
	}
}
