// Package dashboard renders the Azure Portal dashboard resource (ARM JSON)
// with one row of log tiles per monitored endpoint.
package dashboard

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/google/uuid"

	"github.com/pagopa/opex-dashboard/internal/kusto"
	"github.com/pagopa/opex-dashboard/internal/models"
)

// ARM resource constants
const (
	ResourceType = "Microsoft.Portal/dashboards"
	APIVersion   = "2015-08-01-preview"

	logsPartType = "Extension/Microsoft_OperationsManagementSuite_Workspace/PartType/LogsDashboardPart"
)

// partNamespace seeds the deterministic part ids
var partNamespace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("https://github.com/pagopa/opex-dashboard"))

// Dashboard is the ARM dashboard resource
type Dashboard struct {
	Properties Properties        `json:"properties"`
	Name       string            `json:"name"`
	Type       string            `json:"type"`
	Location   string            `json:"location"`
	Tags       map[string]string `json:"tags"`
	APIVersion string            `json:"apiVersion"`
}

// Properties holds the lenses and the dashboard-wide filters
type Properties struct {
	Lenses   map[string]Lens `json:"lenses"`
	Metadata Metadata        `json:"metadata"`
}

// Lens is a page of parts
type Lens struct {
	Order int   `json:"order"`
	Parts Parts `json:"parts"`
}

// Parts holds the tiles indexed by PartKey. It encodes as an object keyed
// by that index in numeric order.
type Parts []Part

// MarshalJSON writes {"0": ..., "1": ..., "10": ...} in slice order
func (p Parts) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, part := range p {
		if i > 0 {
			buf.WriteByte(',')
		}
		buf.WriteString(strconv.Quote(strconv.Itoa(i)))
		buf.WriteByte(':')

		// Encoder appends a newline which the enclosing encoder compacts away
		enc := json.NewEncoder(&buf)
		enc.SetEscapeHTML(false)
		if err := enc.Encode(part); err != nil {
			return nil, err
		}
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// Part is a single dashboard tile
type Part struct {
	Position Position     `json:"position"`
	Metadata PartMetadata `json:"metadata"`
}

// PartMetadata describes what a tile shows
type PartMetadata struct {
	Inputs   []Input        `json:"inputs"`
	Type     string         `json:"type"`
	Settings map[string]any `json:"settings"`
}

// Input is one named part input
type Input struct {
	Name       string `json:"name"`
	Value      any    `json:"value"`
	IsOptional bool   `json:"isOptional"`
}

// Metadata holds the dashboard model
type Metadata struct {
	Model Model `json:"model"`
}

// Model holds time range and filter settings
type Model struct {
	TimeRange    TimeRange    `json:"timeRange"`
	FilterLocale FilterLocale `json:"filterLocale"`
	Filters      Filters      `json:"filters"`
}

// TimeRange is the default dashboard time range
type TimeRange struct {
	Value struct {
		Relative struct {
			Duration int `json:"duration"`
			TimeUnit int `json:"timeUnit"`
		} `json:"relative"`
	} `json:"value"`
	Type string `json:"type"`
}

// FilterLocale sets the locale of filter labels
type FilterLocale struct {
	Value string `json:"value"`
}

// Filters binds the time range filter to parts
type Filters struct {
	Value struct {
		TimeRange TimeRangeFilter `json:"MsPortalFx_TimeRange"`
	} `json:"value"`
}

// TimeRangeFilter is the portal time range filter
type TimeRangeFilter struct {
	Model struct {
		Format      string `json:"format"`
		Granularity string `json:"granularity"`
		Relative    string `json:"relative"`
	} `json:"model"`
	DisplayCache struct {
		Name  string `json:"name"`
		Value string `json:"value"`
	} `json:"displayCache"`
	FilteredPartIDs []string `json:"filteredPartIds"`
}

// tile describes the part rendered at one column offset
type tile struct {
	kind  kusto.Kind
	title string
	chart string
}

var tiles = [PartsPerEndpoint]tile{
	{kind: kusto.Availability, title: "Availability", chart: "Line"},
	{kind: kusto.ResponseCodes, title: "Response Codes", chart: "StackedArea"},
	{kind: kusto.ResponseTime, title: "Percentile Response Time", chart: "Line"},
}

// Renderer builds dashboards from a template context
type Renderer struct {
	generator *kusto.Generator
}

// NewRenderer creates a dashboard renderer using generator for tile queries
func NewRenderer(generator *kusto.Generator) *Renderer {
	return &Renderer{generator: generator}
}

// Build returns the dashboard resource for ctx
func (r *Renderer) Build(ctx *models.TemplateContext) (*Dashboard, error) {
	endpoints := ctx.Endpoints.Values()
	parts := make(Parts, len(endpoints)*PartsPerEndpoint)

	for index, endpoint := range endpoints {
		for offset, t := range tiles {
			query, err := r.generator.Generate(t.kind, ctx, endpoint, false)
			if err != nil {
				return nil, fmt.Errorf("%s query for %s: %w", t.kind, endpoint.Label(), err)
			}
			parts[PartKey(index, offset)] = r.part(ctx, endpoint, index, offset, t, query)
		}
	}

	d := &Dashboard{
		Properties: Properties{
			Lenses: map[string]Lens{
				"0": {Order: 0, Parts: parts},
			},
			Metadata: newMetadata(),
		},
		Name:       ctx.Name,
		Type:       ResourceType,
		Location:   ctx.Location,
		Tags:       map[string]string{"hidden-title": ctx.Name},
		APIVersion: APIVersion,
	}
	return d, nil
}

// Render returns the dashboard as indented JSON
func (r *Renderer) Render(ctx *models.TemplateContext) ([]byte, error) {
	d, err := r.Build(ctx)
	if err != nil {
		return nil, err
	}
	return Encode(d)
}

// Encode serializes d with two-space indentation and no HTML escaping
func Encode(d *Dashboard) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(d); err != nil {
		return nil, fmt.Errorf("encode dashboard: %w", err)
	}
	return buf.Bytes(), nil
}

func (r *Renderer) part(ctx *models.TemplateContext, endpoint models.EndpointConfig, index, offset int, t tile, query string) Part {
	title := fmt.Sprintf("%s (%s)", t.title, ctx.Timespan)
	partID := uuid.NewSHA1(partNamespace, []byte(fmt.Sprintf("%s|%s|%s", ctx.Name, endpoint.Label(), t.kind)))

	return Part{
		Position: Layout(index, offset),
		Metadata: PartMetadata{
			Inputs: []Input{
				{Name: "resourceTypeMode", Value: "Workspace", IsOptional: true},
				{Name: "ComponentId", Value: nil, IsOptional: true},
				{Name: "Scope", Value: map[string]any{"resourceIds": []string{ctx.DataSourceID}}, IsOptional: true},
				{Name: "PartId", Value: partID.String(), IsOptional: true},
				{Name: "Version", Value: "2.0", IsOptional: true},
				{Name: "TimeRange", Value: "PT4H", IsOptional: true},
				{Name: "DashboardId", Value: nil, IsOptional: true},
				{Name: "DraftRequestParameters", Value: nil, IsOptional: true},
				{Name: "Query", Value: query, IsOptional: true},
				{Name: "ControlType", Value: "FrameControlChart", IsOptional: true},
				{Name: "SpecificChart", Value: t.chart, IsOptional: true},
				{Name: "PartTitle", Value: title, IsOptional: true},
				{Name: "PartSubTitle", Value: endpoint.Label(), IsOptional: true},
				{Name: "Dimensions", Value: nil, IsOptional: true},
				{Name: "LegendOptions", Value: map[string]any{"isEnabled": true, "position": "Bottom"}, IsOptional: true},
				{Name: "IsQueryContainTimeRange", Value: false, IsOptional: true},
			},
			Type: logsPartType,
			Settings: map[string]any{
				"content": map[string]any{
					"Query":     query,
					"PartTitle": title,
				},
			},
		},
	}
}

func newMetadata() Metadata {
	var m Metadata
	m.Model.TimeRange.Value.Relative.Duration = 24
	m.Model.TimeRange.Value.Relative.TimeUnit = 1
	m.Model.TimeRange.Type = "MsPortalFx.Composition.Configuration.ValueTypes.TimeRange"
	m.Model.FilterLocale.Value = "en-us"

	f := &m.Model.Filters.Value.TimeRange
	f.Model.Format = "local"
	f.Model.Granularity = "auto"
	f.Model.Relative = "48h"
	f.DisplayCache.Name = "Local Time"
	f.DisplayCache.Value = "Past 48 hours"
	f.FilteredPartIDs = FilteredPartIDs()
	return m
}
