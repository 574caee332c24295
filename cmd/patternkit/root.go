package main

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/praetorian-inc/patternkit/pkg/engine"
	"github.com/praetorian-inc/patternkit/pkg/preset"
	"github.com/praetorian-inc/patternkit/pkg/strategy"
	"github.com/praetorian-inc/patternkit/pkg/types"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// errNoMatch makes the process exit with status 1 without printing an error,
// the way grep reports "nothing found".
var errNoMatch = errors.New("no match")

var (
	patterns    []string
	presetNames []string
	setName     string
	presetsPath string
	engineName  string
	verbose     bool
	colorMode   string
)

var rootCmd = &cobra.Command{
	Use:   "patternkit",
	Short: "patternkit - composable regular-expression matching",
	Long: `patternkit runs matching strategies over text: full and partial matching,
extraction, removal, replacement, and positional search.

A strategy is built from --pattern/-e texts, --preset/-p catalogue entries and
a --set, all joined into one alternation in that order. Input is the
positional argument, or stdin when none is given.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.StringArrayVarP(&patterns, "pattern", "e", nil, "Pattern text (repeatable, joined with |)")
	flags.StringArrayVarP(&presetNames, "preset", "p", nil, "Catalogue preset ID or short name, e.g. email (repeatable)")
	flags.StringVar(&setName, "set", "", "Catalogue preset set ID or short name, e.g. contact")
	flags.StringVar(&presetsPath, "presets", "", "Path to a YAML presets file to use instead of the built-in catalogue")
	flags.StringVar(&engineName, "engine", engine.NameRegexp2, "Regex backend: "+strings.Join(engine.Names(), ", "))
	flags.BoolVarP(&verbose, "verbose", "v", false, "Verbose diagnostics on stderr")
	flags.StringVar(&colorMode, "color", "auto", "Colorize output: auto, always, never")

	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(presetsCmd)
	rootCmd.AddCommand(scanCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(reportCmd)
	for _, c := range opCommands() {
		rootCmd.AddCommand(c)
	}
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

// newLogger returns a development logger when --verbose is set.
func newLogger() *zap.Logger {
	if !verbose {
		return zap.NewNop()
	}
	logger, err := zap.NewDevelopment()
	if err != nil {
		return zap.NewNop()
	}
	return logger
}

// loadCatalogue returns the presets and sets selected by --presets.
func loadCatalogue() ([]*types.Preset, []*types.PresetSet, error) {
	loader := preset.NewLoader()

	if presetsPath != "" {
		presets, err := loader.LoadPresetFile(presetsPath)
		if err != nil {
			return nil, nil, fmt.Errorf("loading presets from %s: %w", presetsPath, err)
		}
		return presets, nil, nil
	}

	presets, err := loader.LoadBuiltinPresets()
	if err != nil {
		return nil, nil, fmt.Errorf("loading builtin presets: %w", err)
	}
	sets, err := loader.LoadBuiltinPresetSets()
	if err != nil {
		return nil, nil, fmt.Errorf("loading builtin preset sets: %w", err)
	}
	return presets, sets, nil
}

// selectPresets resolves --preset and --set to catalogue entries, in order
// and without repeats.
func selectPresets(presets []*types.Preset, sets []*types.PresetSet) ([]*types.Preset, error) {
	var selected []*types.Preset
	seen := make(map[string]bool)
	add := func(p *types.Preset) {
		if !seen[p.ID] {
			seen[p.ID] = true
			selected = append(selected, p)
		}
	}

	for _, name := range presetNames {
		p, ok := preset.Find(presets, name)
		if !ok {
			return nil, fmt.Errorf("unknown preset %q", name)
		}
		add(p)
	}

	if setName != "" {
		set, ok := preset.FindSet(sets, setName)
		if !ok {
			return nil, fmt.Errorf("unknown preset set %q", setName)
		}
		byID := preset.IndexByID(presets)
		for _, id := range set.PresetIDs {
			p, ok := byID[id]
			if !ok {
				return nil, fmt.Errorf("preset set %s references unknown preset ID: %s", set.ID, id)
			}
			add(p)
		}
	}

	return selected, nil
}

// resolveStrategy folds --pattern, --preset and --set into one strategy.
func resolveStrategy(logger *zap.Logger) (strategy.Strategy, error) {
	e, err := engine.Lookup(engineName)
	if err != nil {
		return strategy.Strategy{}, err
	}

	var parts []strategy.Strategy
	for _, pattern := range patterns {
		s, err := strategy.FromPattern(pattern, strategy.WithEngine(e))
		if err != nil {
			return strategy.Strategy{}, err
		}
		parts = append(parts, s)
	}

	if len(presetNames) > 0 || setName != "" {
		presets, sets, err := loadCatalogue()
		if err != nil {
			return strategy.Strategy{}, err
		}
		selected, err := selectPresets(presets, sets)
		if err != nil {
			return strategy.Strategy{}, err
		}
		for _, p := range selected {
			s, err := preset.Strategy(p, strategy.WithEngine(e))
			if err != nil {
				return strategy.Strategy{}, err
			}
			parts = append(parts, s)
		}
	}

	if len(parts) == 0 {
		return strategy.Strategy{}, fmt.Errorf("no pattern given: use --pattern, --preset or --set")
	}

	s, err := strategy.Any(parts...)
	if err != nil {
		return strategy.Strategy{}, err
	}
	logger.Debug("strategy resolved",
		zap.String("pattern", s.Pattern()),
		zap.String("engine", e.Name()),
		zap.Bool("combined", s.Combined()))
	return s, nil
}

// readInput returns the positional argument, or stdin with one trailing
// line break removed.
func readInput(cmd *cobra.Command, args []string) (string, error) {
	if len(args) > 0 {
		return args[0], nil
	}
	data, err := io.ReadAll(cmd.InOrStdin())
	if err != nil {
		return "", fmt.Errorf("reading stdin: %w", err)
	}
	text := string(data)
	text = strings.TrimSuffix(text, "\n")
	text = strings.TrimSuffix(text, "\r")
	return text, nil
}
