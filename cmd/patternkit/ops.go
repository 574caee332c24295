package main

import (
	"fmt"
	"strings"

	"github.com/praetorian-inc/patternkit/pkg/strategy"
	"github.com/spf13/cobra"
)

var (
	firstGroup   int
	allGroup     int
	indexStart   int
	indicesStart int
	countStart   int
)

var testCmd = &cobra.Command{
	Use:   "test [text]",
	Short: "Report whether the whole text matches",
	Long:  "Print true when the entire input matches the strategy, false otherwise (exit status 1)",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runTest,
}

var anyCmd = &cobra.Command{
	Use:   "any [text]",
	Short: "Report whether any part of the text matches",
	Long:  "Print true when at least one occurrence exists, false otherwise (exit status 1)",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runAny,
}

var firstCmd = &cobra.Command{
	Use:   "first [text]",
	Short: "Print the first occurrence",
	Long:  "Print the text of a capture group of the first occurrence (exit status 1 when there is none)",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runFirst,
}

var allCmd = &cobra.Command{
	Use:   "all [text]",
	Short: "Print every occurrence",
	Long:  "Print the text of a capture group of every occurrence, one per line",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runAll,
}

var indexCmd = &cobra.Command{
	Use:   "index [text]",
	Short: "Print the character offset of the first occurrence",
	Long:  "Print the start offset, in characters, of the first occurrence at or after --start, or -1 (exit status 1)",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runIndex,
}

var indicesCmd = &cobra.Command{
	Use:   "indices [text]",
	Short: "Print the character offset of every occurrence",
	Long:  "Print the start offset, in characters, of every occurrence at or after --start, one per line",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runIndices,
}

var countCmd = &cobra.Command{
	Use:   "count [text]",
	Short: "Count occurrences",
	Long:  "Print the number of occurrences at or after --start",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runCount,
}

var removeCmd = &cobra.Command{
	Use:   "remove [text]",
	Short: "Delete every occurrence",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runRemove,
}

var replaceCmd = &cobra.Command{
	Use:   "replace <template> [text]",
	Short: "Replace every occurrence with a template",
	Long: `Replace every occurrence with a template. The template syntax is the
backend's: $1 or ${1} for numbered groups, ${name} for named groups, $$ for a
literal dollar sign.`,
	Args: cobra.RangeArgs(1, 2),
	RunE: runReplace,
}

var upperCmd = &cobra.Command{
	Use:   "upper [text]",
	Short: "Upper-case every occurrence",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runUpper,
}

var lowerCmd = &cobra.Command{
	Use:   "lower [text]",
	Short: "Lower-case every occurrence",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runLower,
}

func init() {
	firstCmd.Flags().IntVarP(&firstGroup, "group", "g", 0, "Capture group to print (0 is the whole match)")
	allCmd.Flags().IntVarP(&allGroup, "group", "g", 0, "Capture group to print (0 is the whole match)")
	indexCmd.Flags().IntVarP(&indexStart, "start", "s", 0, "Character offset to search from")
	indicesCmd.Flags().IntVarP(&indicesStart, "start", "s", 0, "Character offset to search from")
	countCmd.Flags().IntVarP(&countStart, "start", "s", 0, "Character offset to search from")
}

func opCommands() []*cobra.Command {
	return []*cobra.Command{
		testCmd, anyCmd, firstCmd, allCmd,
		indexCmd, indicesCmd, countCmd,
		removeCmd, replaceCmd, upperCmd, lowerCmd,
	}
}

// setup resolves the strategy and the input text shared by every operation.
func setup(cmd *cobra.Command, args []string) (strategy.Strategy, string, error) {
	s, err := resolveStrategy(newLogger())
	if err != nil {
		return strategy.Strategy{}, "", err
	}
	text, err := readInput(cmd, args)
	if err != nil {
		return strategy.Strategy{}, "", err
	}
	return s, text, nil
}

func runTest(cmd *cobra.Command, args []string) error {
	s, text, err := setup(cmd, args)
	if err != nil {
		return err
	}
	ok, err := s.MatchesAllOf(text)
	if err != nil {
		return err
	}
	return printBool(cmd, ok)
}

func runAny(cmd *cobra.Command, args []string) error {
	s, text, err := setup(cmd, args)
	if err != nil {
		return err
	}
	ok, err := s.MatchesAnyOf(text)
	if err != nil {
		return err
	}
	return printBool(cmd, ok)
}

func runFirst(cmd *cobra.Command, args []string) error {
	s, text, err := setup(cmd, args)
	if err != nil {
		return err
	}
	match, ok, err := s.FirstMatch(text, firstGroup)
	if err != nil {
		return err
	}
	if !ok {
		return errNoMatch
	}
	fmt.Fprintln(cmd.OutOrStdout(), match)
	return nil
}

func runAll(cmd *cobra.Command, args []string) error {
	s, text, err := setup(cmd, args)
	if err != nil {
		return err
	}
	matches, err := s.AllMatches(text, allGroup)
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	for _, m := range matches {
		fmt.Fprintln(out, m)
	}
	return nil
}

func runIndex(cmd *cobra.Command, args []string) error {
	s, text, err := setup(cmd, args)
	if err != nil {
		return err
	}
	i, err := s.FirstIndexOf(text, indexStart)
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), i)
	if i == strategy.NotFound {
		return errNoMatch
	}
	return nil
}

func runIndices(cmd *cobra.Command, args []string) error {
	s, text, err := setup(cmd, args)
	if err != nil {
		return err
	}
	indices, err := s.AllIndicesOf(text, indicesStart)
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	for _, i := range indices {
		fmt.Fprintln(out, i)
	}
	return nil
}

func runCount(cmd *cobra.Command, args []string) error {
	s, text, err := setup(cmd, args)
	if err != nil {
		return err
	}
	n, err := s.CountMatches(text, countStart)
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), n)
	return nil
}

func runRemove(cmd *cobra.Command, args []string) error {
	s, text, err := setup(cmd, args)
	if err != nil {
		return err
	}
	return printResult(cmd)(s.RemoveAllMatches(text))
}

func runReplace(cmd *cobra.Command, args []string) error {
	s, text, err := setup(cmd, args[1:])
	if err != nil {
		return err
	}
	return printResult(cmd)(s.ReplaceAllMatches(text, args[0]))
}

func runUpper(cmd *cobra.Command, args []string) error {
	s, text, err := setup(cmd, args)
	if err != nil {
		return err
	}
	return printResult(cmd)(s.ReplaceAllMatchesFunc(text, strings.ToUpper))
}

func runLower(cmd *cobra.Command, args []string) error {
	s, text, err := setup(cmd, args)
	if err != nil {
		return err
	}
	return printResult(cmd)(s.ReplaceAllMatchesFunc(text, strings.ToLower))
}

// =============================================================================
// HELPERS
// =============================================================================

func printBool(cmd *cobra.Command, ok bool) error {
	fmt.Fprintln(cmd.OutOrStdout(), ok)
	if !ok {
		return errNoMatch
	}
	return nil
}

func printResult(cmd *cobra.Command) func(string, error) error {
	return func(result string, err error) error {
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), result)
		return nil
	}
}
