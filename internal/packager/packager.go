// Package packager lays rendered artifacts out on a storage: the dashboard
// JSON, or a Terraform module with optional per-environment variables.
package packager

import (
	"fmt"
	"log/slog"
	"path"

	"github.com/pagopa/opex-dashboard/internal/config"
	"github.com/pagopa/opex-dashboard/internal/models"
	"github.com/pagopa/opex-dashboard/internal/storage"
	"github.com/pagopa/opex-dashboard/internal/terraform"
)

// DashboardFile is the raw dashboard artifact name
const DashboardFile = "dashboard.json"

// EnvDir holds per-environment variable files
const EnvDir = "env"

// Packager writes artifacts to a storage
type Packager struct {
	storage storage.Storage
	logger  *slog.Logger
	written []models.FileStat
}

// New creates a packager writing to store
func New(store storage.Storage, logger *slog.Logger) *Packager {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Packager{storage: store, logger: logger}
}

// Written returns the artifacts written so far
func (p *Packager) Written() []models.FileStat {
	out := make([]models.FileStat, len(p.written))
	copy(out, p.written)
	return out
}

// Dashboard writes the raw dashboard JSON
func (p *Packager) Dashboard(raw []byte) error {
	return p.write(DashboardFile, raw)
}

// Terraform writes opex.tf, main.tf and variables.tf, then the tfvars files
// described by tf. A nil tf writes the module files only.
func (p *Packager) Terraform(r *terraform.Renderer, ctx *models.TemplateContext, tf *config.TerraformConfig) error {
	opex, err := r.Render(ctx)
	if err != nil {
		return err
	}
	if err := p.write(terraform.OpexFile, opex); err != nil {
		return err
	}

	mainTF, err := r.RenderMain(hasBackend(tf))
	if err != nil {
		return err
	}
	if err := p.write(terraform.MainFile, mainTF); err != nil {
		return err
	}

	variables, err := r.RenderVariables()
	if err != nil {
		return err
	}
	if err := p.write(terraform.VariablesFile, variables); err != nil {
		return err
	}

	if tf == nil {
		return nil
	}

	if tf.Environments != nil {
		for _, env := range tf.Environments.List() {
			dir := path.Join(EnvDir, env.Name)
			vars := terraform.Vars{Prefix: env.Config.Prefix, EnvShort: env.Config.EnvShort, Environment: env.Name}
			if err := p.variables(r, dir, vars, env.Config.Backend); err != nil {
				return err
			}
		}
		return nil
	}

	return p.variables(r, "", terraform.Vars{Prefix: tf.Prefix, EnvShort: tf.EnvShort}, tf.Backend)
}

// variables writes terraform.tfvars and, when backend is set, backend.tfvars into dir
func (p *Packager) variables(r *terraform.Renderer, dir string, vars terraform.Vars, backend *config.BackendConfig) error {
	tfvars, err := r.RenderVars(vars)
	if err != nil {
		return err
	}
	if err := p.write(path.Join(dir, terraform.TFVarsFile), tfvars); err != nil {
		return err
	}

	if backend == nil {
		return nil
	}

	data, err := r.RenderBackend(terraform.Backend{
		ResourceGroupName:  backend.ResourceGroupName,
		StorageAccountName: backend.StorageAccountName,
		ContainerName:      backend.ContainerName,
		Key:                backend.Key,
	})
	if err != nil {
		return err
	}
	return p.write(path.Join(dir, terraform.BackendFile), data)
}

func (p *Packager) write(name string, data []byte) error {
	if err := p.storage.Write(name, data); err != nil {
		return fmt.Errorf("write %s: %w", name, err)
	}
	p.written = append(p.written, models.FileStat{Path: name, Bytes: int64(len(data))})
	p.logger.Debug("artifact written", "path", name, "bytes", len(data))
	return nil
}

func hasBackend(tf *config.TerraformConfig) bool {
	if tf == nil {
		return false
	}
	if tf.Backend != nil {
		return true
	}
	for _, env := range tf.Environments.List() {
		if env.Config.Backend != nil {
			return true
		}
	}
	return false
}
