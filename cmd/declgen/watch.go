package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"declgen/internal/config"
	"declgen/internal/emission"
	"declgen/internal/observability"
	"declgen/internal/watcher"
)

var watchCmd = &cobra.Command{
	Use:   "watch [files...]",
	Short: "Regenerate whenever an input file changes",
	RunE:  runWatch,
}

func init() {
	addGenerateFlags(watchCmd)
}

func runWatch(cmd *cobra.Command, args []string) error {
	cfg, log, err := prepare(cmd, applyGenerateFlags(cmd, args))
	if err != nil {
		return err
	}
	defer log.Sync()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, err := emission.NewDirStore(cfg.Output.Dir)
	if err != nil {
		return err
	}
	metrics := observability.NewMetrics()

	regenerate(ctx, cfg, store, log, metrics)

	w, err := watcher.New(cfg.Watch.Debounce, cfg.Watch.Ignore, func(changed []string) {
		log.Infow("Inputs changed, regenerating", "files", changed)
		regenerate(ctx, cfg, store, log, metrics)
	}, log)
	if err != nil {
		return err
	}
	defer w.Close()

	if err := w.Add(cfg.Input.Files...); err != nil {
		return err
	}

	log.Infow("Watching inputs", "files", cfg.Input.Files, "debounce", cfg.Watch.Debounce)
	if err := w.Run(ctx); err != nil && ctx.Err() == nil {
		return err
	}
	return nil
}

// regenerate logs failures instead of returning them so that a broken edit
// does not stop the watch loop.
func regenerate(ctx context.Context, cfg *config.Config, store emission.Store, log *zap.SugaredLogger, metrics *observability.Metrics) {
	reports, err := runGeneration(ctx, cfg, store, log, metrics)
	summarize(reports, log)
	if err != nil {
		log.Errorw("Generation failed", "error", err)
	}
}
