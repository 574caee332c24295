package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/praetorian-inc/patternkit/pkg/store"
	"github.com/spf13/cobra"
)

var (
	reportDB     string
	reportFormat string
)

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Print results saved by scan --db",
	Long:  "Read matches from a results database and print them in the scan output formats",
	Args:  cobra.NoArgs,
	RunE:  runReport,
}

func init() {
	reportCmd.Flags().StringVar(&reportDB, "db", "patternkit.db", "Path to the results database")
	reportCmd.Flags().StringVar(&reportFormat, "format", "human", "Output format: human, json, sarif")
}

func runReport(cmd *cobra.Command, args []string) error {
	if reportFormat != "human" && reportFormat != "json" && reportFormat != "sarif" {
		return fmt.Errorf("unknown output format: %s", reportFormat)
	}

	// Opening a missing path would create an empty database.
	if _, err := os.Stat(reportDB); err != nil {
		return fmt.Errorf("results database: %w", err)
	}

	st, err := store.New(store.Config{Path: reportDB})
	if err != nil {
		return fmt.Errorf("opening %s: %w", reportDB, err)
	}
	defer st.Close()

	batch, err := store.LoadBatch(st)
	if err != nil {
		return fmt.Errorf("loading results: %w", err)
	}

	switch reportFormat {
	case "json":
		encoder := json.NewEncoder(cmd.OutOrStdout())
		encoder.SetIndent("", "  ")
		return encoder.Encode(batch)
	case "sarif":
		presets, err := st.GetPresets()
		if err != nil {
			return fmt.Errorf("loading presets: %w", err)
		}
		return outputScanSARIF(cmd.OutOrStdout(), presets, batch)
	default:
		sty, err := stylesFor(colorMode)
		if err != nil {
			return err
		}
		return outputScanHuman(cmd.OutOrStdout(), sty, batch)
	}
}
