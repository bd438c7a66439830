// Package engine orchestrates lineage extraction over pipeline snapshots.
// Packages are independent of one another, so they propagate concurrently
// under a bounded errgroup; each package gets its own propagator because
// resolver state is instance-scoped.
package engine

import (
	"context"
	"fmt"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"github.com/tracelens-labs/tracelens/pkg/dataflow"
	"github.com/tracelens-labs/tracelens/pkg/sqlprov"
)

// Config holds engine configuration.
type Config struct {
	// Parallelism bounds how many packages propagate concurrently.
	// Zero or negative means one at a time.
	Parallelism int

	// MaxDepth and MaxSpans are forwarded to each package's resolver.
	// Zero keeps the resolver's built-in ceilings.
	MaxDepth int
	MaxSpans int

	// CacheSize caps each resolver's statement memo. Zero or negative
	// leaves the memo unbounded.
	CacheSize int

	// Vars resolves @[Namespace::Name] references in component queries.
	// It is consulted before each package's own variables, so it can
	// override values baked into a snapshot.
	Vars sqlprov.VarResolver

	// Logger is the structured logger (optional, uses discard if nil)
	Logger *slog.Logger
}

// Engine runs lineage extraction.
type Engine struct {
	cfg    Config
	logger *slog.Logger
}

// New creates an engine.
func New(cfg Config) *Engine {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	if cfg.Parallelism <= 0 {
		cfg.Parallelism = 1
	}
	return &Engine{cfg: cfg, logger: logger}
}

// Extract propagates every package and returns results in snapshot order.
// Task failures are collected on their package's Result and logged;
// extraction itself only fails on context cancellation.
func (e *Engine) Extract(ctx context.Context, pkgs []*dataflow.Package) ([]*dataflow.Result, error) {
	results := make([]*dataflow.Result, len(pkgs))

	eg, ctx := errgroup.WithContext(ctx)
	eg.SetLimit(e.cfg.Parallelism)

	for i, pkg := range pkgs {
		eg.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}

			e.logger.Debug("propagating package",
				slog.String("package", pkg.Name),
				slog.Int("tasks", len(pkg.Tasks)))

			res := e.newPropagator(pkg).Package(pkg)
			for _, te := range res.Errors {
				e.logger.Warn("task failed",
					slog.String("package", pkg.Name),
					slog.String("task", te.Task),
					slog.String("error", te.Error()))
			}
			e.logger.Debug("package propagated",
				slog.String("package", pkg.Name),
				slog.Int("rows", len(res.Rows)),
				slog.Float64("score", res.Summary.Score))

			results[i] = res
			return nil
		})
	}

	if err := eg.Wait(); err != nil {
		return nil, fmt.Errorf("failed to propagate packages: %w", err)
	}
	return results, nil
}

// newPropagator builds a package-scoped propagator. Neither the
// propagator nor its resolver is safe to share across goroutines.
func (e *Engine) newPropagator(pkg *dataflow.Package) *dataflow.Propagator {
	vars := e.varsFor(pkg)
	var cache sqlprov.Cache
	if e.cfg.CacheSize > 0 {
		cache = newBoundedCache(e.cfg.CacheSize)
	}
	r := sqlprov.NewResolver(sqlprov.Options{
		Cache:    cache,
		Vars:     vars,
		MaxDepth: e.cfg.MaxDepth,
		MaxSpans: e.cfg.MaxSpans,
	})
	return dataflow.NewPropagator(dataflow.Options{Resolver: r, Vars: vars})
}

// varsFor layers the engine-level resolver over the package's own
// variables.
func (e *Engine) varsFor(pkg *dataflow.Package) sqlprov.VarResolver {
	pkgVars := sqlprov.MapVars(pkg.Variables)
	if e.cfg.Vars == nil {
		return pkgVars
	}
	override := e.cfg.Vars
	return func(namespace, name string) (string, bool) {
		if v, ok := override(namespace, name); ok {
			return v, true
		}
		return pkgVars(namespace, name)
	}
}
