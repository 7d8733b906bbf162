// Package builder runs the generator pipeline: the OpenAPI document is
// resolved, its endpoints are extracted and merged with the user overrides,
// and the resulting context is rendered by the selected template.
package builder

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/pagopa/opex-dashboard/internal/config"
	"github.com/pagopa/opex-dashboard/internal/merge"
	"github.com/pagopa/opex-dashboard/internal/models"
	"github.com/pagopa/opex-dashboard/internal/parser"
	"github.com/pagopa/opex-dashboard/internal/stats"
	"github.com/pagopa/opex-dashboard/internal/storage"
)

// Builder turns a configuration into artifacts
type Builder struct {
	resolver *parser.Resolver
	storage  storage.Storage
	output   io.Writer
	logger   *slog.Logger
	stats    *stats.Collector
}

// Option configures a Builder
type Option func(*Builder)

// WithResolver sets the OpenAPI resolver
func WithResolver(r *parser.Resolver) Option {
	return func(b *Builder) {
		b.resolver = r
	}
}

// WithStorage sets where artifacts are packaged. Without a storage the
// primary artifact is printed to the output writer.
func WithStorage(s storage.Storage) Option {
	return func(b *Builder) {
		b.storage = s
	}
}

// WithOutput sets the writer used when no storage is configured
func WithOutput(w io.Writer) Option {
	return func(b *Builder) {
		b.output = w
	}
}

// WithLogger sets the logger
func WithLogger(logger *slog.Logger) Option {
	return func(b *Builder) {
		b.logger = logger
	}
}

// WithStats sets the collector receiving the build counters
func WithStats(c *stats.Collector) Option {
	return func(b *Builder) {
		b.stats = c
	}
}

// New creates a builder
func New(opts ...Option) *Builder {
	b := &Builder{output: os.Stdout}
	for _, opt := range opts {
		opt(b)
	}
	if b.logger == nil {
		b.logger = slog.New(slog.DiscardHandler)
	}
	if b.resolver == nil {
		b.resolver = parser.NewResolver(parser.WithLogger(b.logger))
	}
	if b.stats == nil {
		b.stats = stats.NewCollector()
	}
	return b
}

// Context validates cfg, resolves its OpenAPI document and returns the
// merged template context.
func (b *Builder) Context(ctx context.Context, cfg *config.Config) (*models.TemplateContext, error) {
	done := b.stats.Track("validate")
	err := cfg.Validate()
	done()
	if err != nil {
		return nil, err
	}

	done = b.stats.Track("resolve")
	spec, err := b.resolver.Resolve(ctx, cfg.OA3Spec)
	done()
	if err != nil {
		return nil, err
	}
	b.logger.Debug("specification resolved",
		"title", spec.Title, "version", spec.Version, "paths", len(spec.Paths))

	done = b.stats.Track("extract")
	base := cfg.BaseContext()
	extraction, err := parser.NewExtractor(b.logger).Extract(spec, base.Defaults)
	done()
	if err != nil {
		return nil, err
	}
	base.Hosts = append(base.Hosts, extraction.Hosts...)
	base.Endpoints = extraction.Endpoints
	base.BasePath = extraction.BasePath
	b.logger.Debug("endpoints extracted",
		"hosts", len(base.Hosts), "endpoints", base.Endpoints.Len(), "base_path", base.BasePath)

	done = b.stats.Track("merge")
	overrides := cfg.ToOverrides()
	for _, key := range merge.UnknownEndpoints(base, overrides) {
		b.logger.Warn("override for a path missing from the specification, adding endpoint", "key", key)
	}
	merged, err := merge.Merge(base, overrides)
	done()
	if err != nil {
		return nil, err
	}
	if len(merged.Hosts) == 0 {
		b.logger.Warn("no hosts to monitor, queries will match nothing")
	}

	b.stats.SetScope(len(merged.Hosts), merged.Endpoints.Len())
	return &merged, nil
}

// Build runs the whole pipeline with the named template and returns the
// build summary.
func (b *Builder) Build(ctx context.Context, cfg *config.Config, templateName string) (*models.BuildStats, error) {
	tmpl, err := Lookup(templateName)
	if err != nil {
		return nil, err
	}
	b.stats.SetTemplate(templateName)

	tctx, err := b.Context(ctx, cfg)
	if err != nil {
		return nil, err
	}

	if err := tmpl.build(b, tctx, cfg); err != nil {
		return nil, fmt.Errorf("%s: %w", templateName, err)
	}

	summary := b.stats.Summary()
	b.logger.Info("build complete",
		"template", summary.Template,
		"endpoints", summary.Endpoints,
		"queries", summary.Queries,
		"alerts", summary.Alerts,
		"files", len(summary.Files),
		"bytes", summary.TotalBytes,
		"duration", summary.Duration)
	return summary, nil
}
