package builder

import (
	"fmt"
	"sort"
	"strings"

	"github.com/pagopa/opex-dashboard/internal/config"
	"github.com/pagopa/opex-dashboard/internal/dashboard"
	"github.com/pagopa/opex-dashboard/internal/kusto"
	"github.com/pagopa/opex-dashboard/internal/models"
	"github.com/pagopa/opex-dashboard/internal/packager"
	"github.com/pagopa/opex-dashboard/internal/storage"
	"github.com/pagopa/opex-dashboard/internal/terraform"
)

// Template names
const (
	TemplateDashboardRaw = "azure-dashboard-raw"
	TemplateDashboard    = "azure-dashboard"
)

// Template renders a merged context and packages the result
type Template struct {
	Name        string
	Description string
	build       func(b *Builder, ctx *models.TemplateContext, cfg *config.Config) error
}

var registry = map[string]Template{
	TemplateDashboardRaw: {
		Name:        TemplateDashboardRaw,
		Description: "Azure Portal dashboard as ARM JSON",
		build:       buildRaw,
	},
	TemplateDashboard: {
		Name:        TemplateDashboard,
		Description: "Terraform module with the dashboard and scheduled query alerts",
		build:       buildTerraform,
	},
}

// Lookup returns the template registered under name
func Lookup(name string) (Template, error) {
	t, ok := registry[name]
	if !ok {
		return Template{}, models.NewConfigError("template_name",
			fmt.Sprintf("unknown template %q, expected one of [%s]", name, strings.Join(Names(), " ")), nil)
	}
	return t, nil
}

// Names returns the registered template names sorted
func Names() []string {
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func buildRaw(b *Builder, ctx *models.TemplateContext, _ *config.Config) error {
	gen, err := kusto.NewGenerator(ctx.ResourceType)
	if err != nil {
		return err
	}

	done := b.stats.Track("render")
	raw, err := dashboard.NewRenderer(gen).Render(ctx)
	done()
	if err != nil {
		return err
	}
	b.recordDashboard(ctx)

	if b.storage == nil {
		if _, err := b.output.Write(raw); err != nil {
			return fmt.Errorf("write dashboard: %w", err)
		}
		return nil
	}

	done = b.stats.Track("package")
	defer done()
	p := packager.New(b.storage, b.logger)
	if err := p.Dashboard(raw); err != nil {
		return err
	}
	b.recordFiles(p)
	return nil
}

// buildTerraform writes the module to the configured storage. Without one
// the module is built in memory and only opex.tf is printed.
func buildTerraform(b *Builder, ctx *models.TemplateContext, cfg *config.Config) error {
	gen, err := kusto.NewGenerator(ctx.ResourceType)
	if err != nil {
		return err
	}
	r, err := terraform.NewRenderer(gen)
	if err != nil {
		return err
	}

	store := b.storage
	if store == nil {
		store = storage.NewMemoryStorage()
	}

	done := b.stats.Track("render")
	p := packager.New(store, b.logger)
	err = p.Terraform(r, ctx, cfg.Terraform)
	done()
	if err != nil {
		return err
	}

	b.recordDashboard(ctx)
	for range ctx.Endpoints.Len() * terraform.AlertsPerEndpoint {
		b.stats.RecordQuery()
		b.stats.RecordAlert()
	}

	if b.storage != nil {
		b.recordFiles(p)
		return nil
	}

	opex, err := store.Read(terraform.OpexFile)
	if err != nil {
		return err
	}
	if _, err := b.output.Write(opex); err != nil {
		return fmt.Errorf("write %s: %w", terraform.OpexFile, err)
	}
	return nil
}

func (b *Builder) recordDashboard(ctx *models.TemplateContext) {
	parts := ctx.Endpoints.Len() * dashboard.PartsPerEndpoint
	for range parts {
		b.stats.RecordQuery()
	}
	b.stats.RecordParts(parts)
}

func (b *Builder) recordFiles(p *packager.Packager) {
	for _, f := range p.Written() {
		b.stats.RecordFile(f.Path, int(f.Bytes))
		b.logger.Info("artifact written", "path", f.Path, "bytes", f.Bytes)
	}
}
