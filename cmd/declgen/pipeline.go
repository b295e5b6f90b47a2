package main

import (
	"context"

	"github.com/cockroachdb/errors"
	"go.uber.org/zap"

	"declgen/internal/config"
	"declgen/internal/emission"
	"declgen/internal/generation"
	"declgen/internal/metadata"
	"declgen/internal/observability"
	"declgen/internal/resolution"
)

func loadIndex(files []string, log *zap.SugaredLogger) (*resolution.Index, error) {
	if len(files) == 0 {
		return nil, errors.WithHint(errors.New("no input files"), "pass files as arguments or set input.files")
	}

	forests := make([]*metadata.Forest, 0, len(files))
	for _, file := range files {
		forest, stats, err := metadata.ReadFile(file)
		if err != nil {
			return nil, err
		}
		if stats.SyntaxErrors > 0 {
			log.Warnw("Input has syntax errors, reading best-effort", "file", file, "errors", stats.SyntaxErrors)
		}
		if len(stats.Skipped) > 0 {
			log.Warnw("Skipped declarations that could not be decoded", "file", file, "count", len(stats.Skipped), "first", stats.Skipped[0])
		}
		forests = append(forests, forest)
	}

	index := resolution.Build(forests...)
	log.Infow("Declarations indexed", "files", len(files), "declarations", index.Len())
	return index, nil
}

func newEmitter(cfg *config.Config, store emission.Store, log *zap.SugaredLogger) (*emission.Emitter, error) {
	mapper, err := emission.MapperFor(cfg.Output.Target)
	if err != nil {
		return nil, err
	}

	var renderer emission.Renderer
	if cfg.Output.Template == emission.GoStructTemplate {
		renderer = emission.NewGoStructRenderer(cfg.Output.GoPackage)
	} else {
		renderer, err = emission.NewTemplateRenderer(cfg.Output.TemplatesDir)
		if err != nil {
			return nil, err
		}
	}

	settings := emission.Settings{
		Template:      cfg.Output.Template,
		RootNamespace: cfg.Output.RootNamespace,
		Naming:        cfg.Output.Naming,
		Extension:     cfg.Output.Extension,
	}
	return emission.NewEmitter(renderer, store, mapper, settings, log), nil
}

// runGeneration reads the inputs, expands the roots and generates each root
// into store.
func runGeneration(ctx context.Context, cfg *config.Config, store emission.Store, log *zap.SugaredLogger, metrics *observability.Metrics) ([]*generation.Report, error) {
	index, err := loadIndex(cfg.Input.Files, log)
	if err != nil {
		return nil, err
	}

	roots, err := generation.MatchRoots(index, cfg.Generate.Roots)
	if err != nil {
		return nil, err
	}
	if len(roots) == 0 {
		return nil, errors.WithHint(errors.New("no root declarations selected"), "pass --root or set generate.roots")
	}

	resolver := resolution.NewResolver(index,
		resolution.WithKeepUnresolved(cfg.Generate.KeepUnresolved),
		resolution.WithLogger(log))

	emitter, err := newEmitter(cfg, store, log)
	if err != nil {
		return nil, err
	}

	generator := generation.NewGenerator(index, resolver, emitter,
		generation.WithLogger(log),
		generation.WithMetrics(metrics))

	reports, err := generator.GenerateAll(ctx, roots, cfg.Generate.Parallelism)

	if cfg.Metrics.File != "" && metrics != nil {
		if writeErr := metrics.WriteTextfile(cfg.Metrics.File); writeErr != nil {
			log.Errorw("Could not write metrics", "file", cfg.Metrics.File, "error", writeErr)
		}
	}
	return reports, err
}

func summarize(reports []*generation.Report, log *zap.SugaredLogger) {
	emitted, dropped, failed := 0, 0, 0
	for _, report := range reports {
		if report == nil {
			continue
		}
		emitted += len(report.Emitted)
		dropped += len(report.Dropped)
		failed += len(report.Failed)
	}
	log.Infow("Generation summary", "roots", len(reports), "emitted", emitted, "dropped", dropped, "failed", failed)
}
