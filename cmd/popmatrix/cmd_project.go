package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"golang.org/x/exp/rand"

	"github.com/ecodyn/popmatrix/simulate"
)

func newProjectCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "project",
		Short: "Project the population forward through the covariate series",
		Long: `Project the stage-structured population year by year through the
historical covariate series, starting from the stage vector in the
configuration's simulation block.

Stochastic terms (year effect, immigration) are driven by the configured
seed, so a run is reproducible; --seed overrides it.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, run, err := loadRun(cmd)
			if err != nil {
				return err
			}
			if cfg.Simulation == nil {
				return fmt.Errorf("configuration has no simulation block")
			}

			simCfg, err := cfg.SimulateConfig(run)
			if err != nil {
				return err
			}

			seed := cfg.Simulation.Seed
			if cmd.Flags().Changed("seed") {
				seed, _ = cmd.Flags().GetUint64("seed")
			}
			var src rand.Source
			if simCfg.YearEffectStd > 0 || (simCfg.Immigration != nil && simCfg.Immigration.Std > 0) {
				src = rand.NewSource(seed)
			}

			traj, err := simulate.Project(simCfg, run.Series, cfg.Simulation.Start, cfg.Simulation.Years, src)
			if err != nil {
				return err
			}

			w := newTableWriter(cmd)
			header := []string{"year", "total", "growth"}
			for s := 0; s < run.Topology.Stages; s++ {
				header = append(header, fmt.Sprintf("stage%d", s))
			}
			w.header(header)
			for t := range traj.Stages {
				growth := ""
				if t < len(traj.Growth) {
					growth = fmt.Sprintf("%.4f", traj.Growth[t])
				}
				row := []string{
					fmt.Sprintf("%d", t),
					fmt.Sprintf("%.2f", traj.Total[t]),
					growth,
				}
				for _, v := range traj.Stages[t] {
					row = append(row, fmt.Sprintf("%.2f", v))
				}
				w.row(row)
			}

			return w.flush()
		},
	}
	cmd.Flags().Uint64("seed", 0, "Override the configured random seed")

	return cmd
}
