// Command pricewatch reconstructs daily commodity price series, reconciles
// them with the official daily index and forecasts the next months.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// Global flags
type globalFlags struct {
	configFile string
	workbook   string
	dailyIndex string
	workers    int
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	flags := &globalFlags{}

	rootCmd := &cobra.Command{
		Use:   "pricewatch",
		Short: "Gap filling and forecasting of daily commodity prices",
		Long: `Fills the gaps of daily commodity price series, overrides them with the
official daily price index and projects each item forward.

Outputs go below the data directory: cleaned series CSVs, a reconciled
workbook, forecast CSVs, the mobile JSON files and a Prometheus textfile.`,
		SilenceUsage: true,
	}

	rootCmd.PersistentFlags().StringVarP(&flags.configFile, "config", "c", "", "YAML config file")
	rootCmd.PersistentFlags().StringVar(&flags.workbook, "workbook", "", "price workbook (.xlsx) or long-format CSV")
	rootCmd.PersistentFlags().StringVar(&flags.dailyIndex, "daily-index", "", "directory of daily price index bulletins")
	rootCmd.PersistentFlags().IntVar(&flags.workers, "workers", 0, "items processed concurrently (0 keeps the config value)")

	rootCmd.AddCommand(imputeCmd(flags))
	rootCmd.AddCommand(forecastCmd(flags))
	rootCmd.AddCommand(syncCmd(flags))
	rootCmd.AddCommand(summaryCmd(flags))
	rootCmd.AddCommand(compareCmd(flags))
	rootCmd.AddCommand(itemCmd(flags))
	rootCmd.AddCommand(yearCmd(flags))
	rootCmd.AddCommand(serveCmd(flags))

	return rootCmd
}
