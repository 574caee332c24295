package main

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"sync"

	"github.com/praetorian-inc/patternkit/pkg/engine"
	"github.com/praetorian-inc/patternkit/pkg/enum"
	"github.com/praetorian-inc/patternkit/pkg/preset"
	"github.com/praetorian-inc/patternkit/pkg/sarif"
	"github.com/praetorian-inc/patternkit/pkg/scanner"
	"github.com/praetorian-inc/patternkit/pkg/store"
	"github.com/praetorian-inc/patternkit/pkg/types"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	scanFormat   string
	scanInclude  string
	scanExclude  string
	scanTolerant bool
	scanWorkers  int
	scanContext  int

	scanIncludeHidden bool
	scanMaxFileSize   int64
	scanDB            string
)

var scanCmd = &cobra.Command{
	Use:   "scan [path...]",
	Short: "Find every catalogue preset in text",
	Long: `Run catalogue presets over each file, every text file under each directory,
or stdin when no path is given, and report every match with its line and
column. Presets are all built-ins unless narrowed with --preset, --set,
--include or --exclude.`,
	RunE: runScan,
}

func init() {
	scanCmd.Flags().StringVar(&scanFormat, "format", "human", "Output format: human, json, sarif")
	scanCmd.Flags().StringVar(&scanInclude, "include", "", "Include presets whose ID matches a pattern (comma-separated)")
	scanCmd.Flags().StringVar(&scanExclude, "exclude", "", "Exclude presets whose ID matches a pattern (comma-separated)")
	scanCmd.Flags().BoolVar(&scanTolerant, "tolerant", false, "Skip presets that fail instead of aborting")
	scanCmd.Flags().IntVar(&scanWorkers, "workers", 1, "Presets searched concurrently")
	scanCmd.Flags().IntVar(&scanContext, "context", scanner.DefaultSnippetContext, "Characters of context on each side of a match")
	scanCmd.Flags().BoolVar(&scanIncludeHidden, "include-hidden", false, "Include hidden files and directories")
	scanCmd.Flags().StringVar(&scanDB, "db", "", "Also save results to a SQLite database for later reports")
	scanCmd.Flags().Int64Var(&scanMaxFileSize, "max-file-size", 10*1024*1024, "Maximum file size to scan (bytes)")
}

func runScan(cmd *cobra.Command, args []string) error {
	logger := newLogger()
	defer func() { _ = logger.Sync() }()

	if scanFormat != "human" && scanFormat != "json" && scanFormat != "sarif" {
		return fmt.Errorf("unknown output format: %s", scanFormat)
	}

	presets, err := scanPresets()
	if err != nil {
		return err
	}

	e, err := engine.Lookup(engineName)
	if err != nil {
		return err
	}

	s, err := scanner.New(presets,
		scanner.WithEngine(e),
		scanner.WithLogger(logger),
		scanner.WithTolerant(scanTolerant),
		scanner.WithWorkers(scanWorkers),
		scanner.WithSnippetContext(scanContext),
	)
	if err != nil {
		return fmt.Errorf("creating scanner: %w", err)
	}

	items, err := scanItems(cmd, args)
	if err != nil {
		return err
	}

	batch, err := s.ScanBatch(items)
	if err != nil {
		return err
	}

	if scanDB != "" {
		if err := saveResults(scanDB, s.Presets(), items, batch); err != nil {
			return err
		}
		logger.Debug("results saved", zap.String("db", scanDB), zap.Int("matches", batch.Total))
	}

	switch scanFormat {
	case "json":
		encoder := json.NewEncoder(cmd.OutOrStdout())
		encoder.SetIndent("", "  ")
		return encoder.Encode(batch)
	case "sarif":
		return outputScanSARIF(cmd.OutOrStdout(), presets, batch)
	default:
		st, err := stylesFor(colorMode)
		if err != nil {
			return err
		}
		return outputScanHuman(cmd.OutOrStdout(), st, batch)
	}
}

// scanPresets applies --presets, --preset, --set, --include and --exclude.
func scanPresets() ([]*types.Preset, error) {
	presets, sets, err := loadCatalogue()
	if err != nil {
		return nil, err
	}

	if len(presetNames) > 0 || setName != "" {
		if presets, err = selectPresets(presets, sets); err != nil {
			return nil, err
		}
	}

	presets, err = preset.Filter(presets, preset.FilterConfig{
		Include: preset.ParsePatterns(scanInclude),
		Exclude: preset.ParsePatterns(scanExclude),
	})
	if err != nil {
		return nil, fmt.Errorf("filtering presets: %w", err)
	}
	if len(presets) == 0 {
		return nil, fmt.Errorf("no presets selected")
	}
	return presets, nil
}

func scanItems(cmd *cobra.Command, args []string) ([]scanner.ContentItem, error) {
	if len(args) == 0 {
		data, err := io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return nil, fmt.Errorf("reading stdin: %w", err)
		}
		return []scanner.ContentItem{{Source: "stdin", Content: string(data)}}, nil
	}

	var (
		mu    sync.Mutex
		items []scanner.ContentItem
	)
	for _, target := range args {
		enumerator := enum.NewFilesystemEnumerator(enum.Config{
			Root:          target,
			IncludeHidden: scanIncludeHidden,
			MaxFileSize:   scanMaxFileSize,
		})
		err := enumerator.Enumerate(cmd.Context(), func(item scanner.ContentItem) error {
			mu.Lock()
			items = append(items, item)
			mu.Unlock()
			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("reading %s: %w", target, err)
		}
	}

	sort.Slice(items, func(i, j int) bool { return items[i].Source < items[j].Source })
	return items, nil
}

func saveResults(path string, presets []*types.Preset, items []scanner.ContentItem, batch *scanner.BatchScanResult) error {
	st, err := store.New(store.Config{Path: path})
	if err != nil {
		return fmt.Errorf("opening %s: %w", path, err)
	}
	defer st.Close()

	if err := store.SaveBatch(st, presets, items, batch); err != nil {
		return fmt.Errorf("saving results: %w", err)
	}
	return nil
}

func outputScanSARIF(out io.Writer, presets []*types.Preset, batch *scanner.BatchScanResult) error {
	report := sarif.NewReport(version)
	for _, p := range presets {
		report.AddPreset(p)
	}
	report.AddBatch(batch)

	data, err := report.ToJSON()
	if err != nil {
		return fmt.Errorf("encoding SARIF: %w", err)
	}
	_, err = fmt.Fprintln(out, string(data))
	return err
}

func outputScanHuman(out io.Writer, st *styles, batch *scanner.BatchScanResult) error {
	for _, result := range batch.Results {
		for _, m := range result.Matches {
			pos := m.Location.Source.Start
			fmt.Fprintf(out, "%s:%d:%d: %s\n",
				result.Source, pos.Line, pos.Column, st.preset.Sprint(m.PresetName))
			fmt.Fprintf(out, "    %s%s%s\n",
				st.context.Sprint(m.Snippet.Before),
				st.match.Sprint(m.Snippet.Matching),
				st.context.Sprint(m.Snippet.After))
		}
	}

	fmt.Fprintln(out, st.heading.Sprintf("%d match(es) in %d input(s)", batch.Total, len(batch.Results)))
	return nil
}
