package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/ecodyn/popmatrix/runconfig"
)

var version = "0.1.0-dev"

func main() {
	rootCmd := &cobra.Command{
		Use:   "popmatrix",
		Short: "Demographic sensitivity analysis for stage-structured populations",
		Long: `popmatrix predicts vital rates from environmental covariates, assembles
stage-structured projection matrices, and measures how the population
growth rate responds to covariate perturbations.

All commands read the same YAML run configuration: the life-cycle
topology, the fitted coefficient tables, and the historical covariate
series.`,
	}

	rootCmd.PersistentFlags().StringP("config", "c", "popmatrix.yaml", "Run configuration file")
	rootCmd.PersistentFlags().Bool("csv", false, "Tabular output as CSV instead of aligned text")

	rootCmd.AddCommand(
		newVersionCmd(),
		newLambdaCmd(),
		newEquilibriumCmd(),
		newSensitivityCmd(),
		newProjectCmd(),
	)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("popmatrix version %s\n", version)
		},
	}
}

// loadRun loads the configuration named by --config and builds the live
// run objects every subcommand starts from.
func loadRun(cmd *cobra.Command) (*runconfig.Config, *runconfig.Run, error) {
	path, _ := cmd.Flags().GetString("config")
	cfg, err := runconfig.Load(path)
	if err != nil {
		return nil, nil, err
	}
	run, err := cfg.Build()
	if err != nil {
		return nil, nil, err
	}

	return cfg, run, nil
}
