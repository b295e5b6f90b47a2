package generation

import (
	"context"
	"sort"
	"sync"

	"github.com/cockroachdb/errors"
	"github.com/gobwas/glob"
	"go.uber.org/multierr"
	"golang.org/x/sync/errgroup"

	"declgen/internal/resolution"
)

// MatchRoots expands root patterns against the index. Patterns use glob
// syntax with '.' as the namespace separator, so "Crypto.*" matches direct
// members of Crypto and "Crypto.**" everything below it. Plain names are kept
// as given even when they are not indexed.
func MatchRoots(index *resolution.Index, patterns []string) ([]string, error) {
	selected := make(map[string]bool)
	for _, pattern := range patterns {
		if pattern == "" {
			continue
		}
		if glob.QuoteMeta(pattern) == pattern {
			selected[pattern] = true
			continue
		}

		matcher, err := glob.Compile(pattern, '.')
		if err != nil {
			return nil, errors.Wrapf(err, "invalid root pattern %q", pattern)
		}
		for _, name := range index.Names() {
			if matcher.Match(name) {
				selected[name] = true
			}
		}
	}

	roots := make([]string, 0, len(selected))
	for root := range selected {
		roots = append(roots, root)
	}
	sort.Strings(roots)
	return roots, nil
}

// GenerateAll runs Generate for every root, each with its own run context.
// Reports are returned in the order of roots. Entities reachable from more
// than one root are emitted once per root that reaches them.
func (generator *Generator) GenerateAll(ctx context.Context, roots []string, parallelism int) ([]*Report, error) {
	if parallelism < 1 {
		parallelism = 1
	}

	reports := make([]*Report, len(roots))
	var (
		mu   sync.Mutex
		errs error
	)

	group, groupCtx := errgroup.WithContext(ctx)
	group.SetLimit(parallelism)
	for i, root := range roots {
		group.Go(func() error {
			if err := groupCtx.Err(); err != nil {
				return err
			}
			report, err := generator.Generate(root)
			reports[i] = report
			if err != nil {
				mu.Lock()
				errs = multierr.Append(errs, errors.Wrapf(err, "root %s", root))
				mu.Unlock()
			}
			return nil
		})
	}

	if err := group.Wait(); err != nil {
		return reports, err
	}
	return reports, errs
}
