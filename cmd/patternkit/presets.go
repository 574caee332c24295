package main

import (
	"encoding/json"
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/praetorian-inc/patternkit/pkg/engine"
	"github.com/praetorian-inc/patternkit/pkg/preset"
	"github.com/praetorian-inc/patternkit/pkg/strategy"
	"github.com/praetorian-inc/patternkit/pkg/types"
	"github.com/spf13/cobra"
)

var presetsFormat string

var presetsCmd = &cobra.Command{
	Use:   "presets",
	Short: "Inspect the preset catalogue",
	Long:  "Commands for listing and checking catalogue presets",
}

var presetsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List available presets",
	Long:  "Display every catalogue preset with its ID, name and pattern",
	RunE:  runPresetsList,
}

var presetsCheckCmd = &cobra.Command{
	Use:   "check",
	Short: "Check presets against their examples",
	Long: `Compile every catalogue preset and confirm that each example contains a
match and no negative example does. Preset sets are checked for unknown and
duplicate references.`,
	RunE: runPresetsCheck,
}

func init() {
	presetsCmd.AddCommand(presetsListCmd)
	presetsCmd.AddCommand(presetsCheckCmd)
	presetsListCmd.Flags().StringVar(&presetsFormat, "format", "table", "Output format: table, json")
}

func runPresetsList(cmd *cobra.Command, args []string) error {
	presets, _, err := loadCatalogue()
	if err != nil {
		return err
	}

	switch presetsFormat {
	case "json":
		return outputPresetsJSON(cmd, presets)
	case "table":
		return outputPresetsTable(cmd, presets)
	default:
		return fmt.Errorf("unknown output format: %s", presetsFormat)
	}
}

func runPresetsCheck(cmd *cobra.Command, args []string) error {
	e, err := engine.Lookup(engineName)
	if err != nil {
		return err
	}
	st, err := stylesFor(colorMode)
	if err != nil {
		return err
	}

	presets, sets, err := loadCatalogue()
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	failed := 0
	known := make(map[string]bool, len(presets))
	for _, p := range presets {
		known[p.ID] = true
		if err := preset.ValidatePreset(p, strategy.WithEngine(e)); err != nil {
			failed++
			fmt.Fprintf(out, "%s %s: %v\n", st.fail.Sprint("FAIL"), p.ID, err)
			continue
		}
		fmt.Fprintf(out, "%s %s\n", st.ok.Sprint("ok"), p.ID)
	}
	for _, s := range sets {
		if err := preset.ValidatePresetSet(s, known); err != nil {
			failed++
			fmt.Fprintf(out, "%s %s: %v\n", st.fail.Sprint("FAIL"), s.ID, err)
			continue
		}
		fmt.Fprintf(out, "%s %s\n", st.ok.Sprint("ok"), s.ID)
	}

	if failed > 0 {
		return fmt.Errorf("%d of %d catalogue entries failed", failed, len(presets)+len(sets))
	}
	return nil
}

// =============================================================================
// HELPERS
// =============================================================================

func outputPresetsJSON(cmd *cobra.Command, presets []*types.Preset) error {
	encoder := json.NewEncoder(cmd.OutOrStdout())
	encoder.SetIndent("", "  ")
	return encoder.Encode(presets)
}

func outputPresetsTable(cmd *cobra.Command, presets []*types.Preset) error {
	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	defer w.Flush()

	fmt.Fprintf(w, "ID\tName\tKeywords\tPattern\n")
	fmt.Fprintf(w, "--\t----\t--------\t-------\n")

	for _, p := range presets {
		keywords := "-"
		if len(p.Keywords) > 0 {
			keywords = strings.Join(p.Keywords, " ")
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", p.ID, p.Name, keywords, p.Pattern)
	}

	return nil
}
