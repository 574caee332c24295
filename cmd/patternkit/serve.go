package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/praetorian-inc/patternkit/pkg/engine"
	"github.com/praetorian-inc/patternkit/pkg/scanner"
	"github.com/praetorian-inc/patternkit/pkg/serve"
	"github.com/praetorian-inc/patternkit/pkg/strategy"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Answer scan and matching requests over NDJSON on stdin/stdout",
	Long: `Run patternkit as a long-lived process that reads one JSON request per line
on stdin and writes one JSON response per line on stdout.

Request types are "scan", "scan_batch", "op" and "close". The catalogue is
loaded once at startup (narrowed by --preset or --set when given). The
process exits when stdin closes, on "close", or on SIGINT/SIGTERM.`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
	logger := newLogger()
	defer func() { _ = logger.Sync() }()

	presets, sets, err := loadCatalogue()
	if err != nil {
		return err
	}
	if len(presetNames) > 0 || setName != "" {
		if presets, err = selectPresets(presets, sets); err != nil {
			return err
		}
	}

	e, err := engine.Lookup(engineName)
	if err != nil {
		return err
	}

	sc, err := scanner.New(presets, scanner.WithEngine(e), scanner.WithLogger(logger))
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGTERM, os.Interrupt)
	defer stop()

	logger.Debug("serving", zap.Int("presets", len(sc.Presets())), zap.String("engine", e.Name()))

	srv := serve.NewServer(sc, cmd.InOrStdin(), cmd.OutOrStdout(),
		serve.WithLogger(logger),
		serve.WithStrategyOptions(strategy.WithEngine(e)),
	)
	if err := srv.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}
