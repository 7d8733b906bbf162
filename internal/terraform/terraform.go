// Package terraform renders the Terraform module that deploys the dashboard
// and its scheduled query rule alerts.
package terraform

import (
	"embed"
	"fmt"
	"strings"

	"github.com/hashicorp/hcl/v2/hclwrite"
	"github.com/tidwall/gjson"
	"github.com/tidwall/pretty"

	"github.com/pagopa/opex-dashboard/internal/dashboard"
	"github.com/pagopa/opex-dashboard/internal/kusto"
	"github.com/pagopa/opex-dashboard/internal/models"
	"github.com/pagopa/opex-dashboard/internal/template"
)

//go:embed templates/*.tmpl
var templatesFS embed.FS

// Generated file names
const (
	OpexFile      = "opex.tf"
	MainFile      = "main.tf"
	VariablesFile = "variables.tf"
	TFVarsFile    = "terraform.tfvars"
	BackendFile   = "backend.tfvars"
)

// AlertsPerEndpoint is the number of alert rules rendered per endpoint
const AlertsPerEndpoint = 2

// heredocIndent is the indentation of heredoc bodies inside resources
const heredocIndent = 4

// Vars are the values of one terraform.tfvars file
type Vars struct {
	Prefix      string
	EnvShort    string
	Environment string // empty for the flat layout
}

// Backend holds the azurerm backend settings of one backend.tfvars file
type Backend struct {
	ResourceGroupName  string
	StorageAccountName string
	ContainerName      string
	Key                string
}

type alert struct {
	Label            string
	Metric           string
	Endpoint         string
	Description      string
	Query            string
	Severity         int
	Frequency        int
	TimeWindow       int
	EventOccurrences int
}

type opexData struct {
	Name                string
	DataSourceID        string
	ActionGroups        []string
	DashboardProperties string
	Alerts              []alert
}

// Renderer renders Terraform files
type Renderer struct {
	engine    *template.Engine
	generator *kusto.Generator
	dashboard *dashboard.Renderer
}

// NewRenderer creates a Terraform renderer using generator for alert queries
func NewRenderer(generator *kusto.Generator) (*Renderer, error) {
	engine, err := template.NewEngine(templatesFS, "templates/*.tmpl")
	if err != nil {
		return nil, err
	}
	return &Renderer{
		engine:    engine,
		generator: generator,
		dashboard: dashboard.NewRenderer(generator),
	}, nil
}

// Render returns opex.tf: the dashboard plus two alerts per endpoint
func (r *Renderer) Render(ctx *models.TemplateContext) ([]byte, error) {
	raw, err := r.dashboard.Render(ctx)
	if err != nil {
		return nil, err
	}

	properties := gjson.GetBytes(raw, "properties")
	if !properties.Exists() {
		return nil, fmt.Errorf("rendered dashboard has no properties")
	}
	props := pretty.PrettyOptions([]byte(properties.Raw), &pretty.Options{
		Width:    80,
		Indent:   "  ",
		SortKeys: false,
	})

	data := opexData{
		Name:                ctx.Name,
		DataSourceID:        ctx.DataSourceID,
		ActionGroups:        ctx.ActionGroupsIDs,
		DashboardProperties: heredoc(string(props)),
	}
	if data.ActionGroups == nil {
		data.ActionGroups = []string{}
	}

	for i, endpoint := range ctx.Endpoints.Values() {
		alerts, err := r.alerts(ctx, i, endpoint)
		if err != nil {
			return nil, err
		}
		data.Alerts = append(data.Alerts, alerts...)
	}

	return r.render("opex.tf.tmpl", data)
}

func (r *Renderer) alerts(ctx *models.TemplateContext, index int, endpoint models.EndpointConfig) ([]alert, error) {
	availability, err := r.generator.Generate(kusto.Availability, ctx, endpoint, true)
	if err != nil {
		return nil, err
	}
	responseTime, err := r.generator.Generate(kusto.ResponseTime, ctx, endpoint, true)
	if err != nil {
		return nil, err
	}

	label := endpoint.Label()
	name := template.SanitizePath(endpoint.Path)

	return []alert{
		{
			Label:    fmt.Sprintf("alarm_availability_%d", index),
			Metric:   "availability",
			Endpoint: name,
			Description: fmt.Sprintf("Availability for %s is less than or equal to %s%%",
				label, template.Percent(endpoint.Availability.Threshold)),
			Query:            heredoc(availability),
			Severity:         1,
			Frequency:        endpoint.Availability.EvaluationFrequency,
			TimeWindow:       endpoint.Availability.EvaluationTimeWindow,
			EventOccurrences: endpoint.Availability.EventOccurrences,
		},
		{
			Label:    fmt.Sprintf("alarm_time_%d", index),
			Metric:   "responsetime",
			Endpoint: name,
			Description: fmt.Sprintf("Response time for %s is greater than %ss",
				label, template.FormatNumber(endpoint.ResponseTime.Threshold)),
			Query:            heredoc(responseTime),
			Severity:         1,
			Frequency:        endpoint.ResponseTime.EvaluationFrequency,
			TimeWindow:       endpoint.ResponseTime.EvaluationTimeWindow,
			EventOccurrences: endpoint.ResponseTime.EventOccurrences,
		},
	}, nil
}

// RenderMain returns main.tf; withBackend adds an empty azurerm backend
// block configured at init time from backend.tfvars.
func (r *Renderer) RenderMain(withBackend bool) ([]byte, error) {
	return r.render("main.tf.tmpl", map[string]any{"Backend": withBackend})
}

// RenderVariables returns variables.tf
func (r *Renderer) RenderVariables() ([]byte, error) {
	return r.render("variables.tf.tmpl", nil)
}

// RenderVars returns a terraform.tfvars file
func (r *Renderer) RenderVars(vars Vars) ([]byte, error) {
	return r.render("terraform.tfvars.tmpl", vars)
}

// RenderBackend returns a backend.tfvars file
func (r *Renderer) RenderBackend(backend Backend) ([]byte, error) {
	return r.render("backend.tfvars.tmpl", backend)
}

// render executes name and normalizes the result with the HCL formatter
func (r *Renderer) render(name string, data any) ([]byte, error) {
	out, err := r.engine.Render(name, data)
	if err != nil {
		return nil, err
	}
	return hclwrite.Format(out), nil
}

// heredoc indents s as a heredoc body and escapes template sequences
func heredoc(s string) string {
	s = strings.TrimRight(s, "\n")
	return template.Indent(heredocIndent, template.EscapeHeredoc(s))
}
