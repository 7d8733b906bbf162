// Package kusto generates the Log Analytics queries behind dashboard tiles
// and scheduled query rule alerts.
package kusto

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/pagopa/opex-dashboard/internal/models"
)

// Kind is the metric a query computes
type Kind string

// Supported query kinds
const (
	Availability  Kind = "availability"
	ResponseCodes Kind = "responseCodes"
	ResponseTime  Kind = "responseTime"
)

// Kinds lists every query kind in dashboard tile order
var Kinds = []Kind{Availability, ResponseCodes, ResponseTime}

// ErrNotAlertable is returned when alarm mode is requested for a
// dashboard-only query kind.
var ErrNotAlertable = errors.New("query kind has no alarm mode")

// Generator renders queries for one resource family
type Generator struct {
	schema Schema
}

// NewGenerator selects the schema for resourceType once
func NewGenerator(resourceType models.ResourceType) (*Generator, error) {
	schema, err := SchemaFor(resourceType)
	if err != nil {
		return nil, err
	}
	return &Generator{schema: schema}, nil
}

// Generate renders the query of kind for endpoint. Alarm queries end with a
// threshold filter and feed an alert rule; dashboard queries end with a
// chart directive.
func (g *Generator) Generate(kind Kind, ctx *models.TemplateContext, endpoint models.EndpointConfig, alarm bool) (string, error) {
	switch kind {
	case Availability:
		return g.Availability(ctx, endpoint, alarm), nil
	case ResponseCodes:
		if alarm {
			return "", fmt.Errorf("%s: %w", kind, ErrNotAlertable)
		}
		return g.ResponseCodes(ctx, endpoint), nil
	case ResponseTime:
		return g.ResponseTime(ctx, endpoint, alarm), nil
	default:
		return "", fmt.Errorf("unknown query kind %q", kind)
	}
}

// Availability computes the share of requests answered with status < 500
func (g *Generator) Availability(ctx *models.TemplateContext, endpoint models.EndpointConfig, alarm bool) string {
	q := g.begin(ctx, endpoint, endpoint.Availability.Threshold, true)
	status := g.schema.StatusColumn()

	q.line("| summarize")
	q.line("  Total=count(),")
	q.line(fmt.Sprintf("  Success=countif(%s < 500) by bin(TimeGenerated, %s)", status, ctx.Timespan))
	q.line("| extend availability=toreal(Success) / Total")

	if alarm {
		q.line("| where availability < threshold")
	} else {
		q.line("| project TimeGenerated, availability, watermark=threshold")
		q.line(`| render timechart with (xtitle = "time", ytitle= "availability(%)")`)
	}
	return q.String()
}

// ResponseCodes buckets responses by status class
func (g *Generator) ResponseCodes(ctx *models.TemplateContext, endpoint models.EndpointConfig) string {
	q := g.begin(ctx, endpoint, 0, false)
	status := g.schema.StatusColumn()

	q.line("| extend HTTPStatus = case(")
	for _, category := range ctx.Queries.StatusCodeCategories {
		low, high, ok := statusRange(category)
		if !ok {
			continue
		}
		q.line(fmt.Sprintf("  %s between (%d .. %d), %q,", status, low, high, category))
	}
	q.line(`  "Other"`)
	q.line("  )")
	q.line(fmt.Sprintf("| summarize count() by HTTPStatus, bin(TimeGenerated, %s)", ctx.Timespan))
	q.line(`| render areachart with (xtitle = "time", ytitle= "count")`)
	return q.String()
}

// ResponseTime computes the configured duration percentile in seconds
func (g *Generator) ResponseTime(ctx *models.TemplateContext, endpoint models.EndpointConfig, alarm bool) string {
	q := g.begin(ctx, endpoint, endpoint.ResponseTime.Threshold, true)
	percentile := ctx.Queries.ResponseTimePercentile
	column := fmt.Sprintf("duration_percentile_%d", percentile)

	q.line("| summarize")
	q.line(fmt.Sprintf("  %s=percentile(%s, %d) by bin(TimeGenerated, %s)",
		column, g.schema.Duration(), percentile, ctx.Timespan))

	if alarm {
		q.line(fmt.Sprintf("| where %s > threshold", column))
	} else {
		q.line("| extend watermark=threshold")
		q.line(`| render timechart with (xtitle = "time", ytitle= "response time(s)")`)
	}
	return q.String()
}

// begin writes the let statements and every filter up to aggregation. The
// method predicate always directly follows the URI predicate.
func (g *Generator) begin(ctx *models.TemplateContext, endpoint models.EndpointConfig, threshold float64, withThreshold bool) *query {
	q := &query{}

	q.line(fmt.Sprintf("let api_hosts = datatable (name: string) [%s];", hostList(ctx.Hosts)))
	if withThreshold {
		q.line(fmt.Sprintf("let threshold = %s;", FormatNumber(threshold)))
	}

	for _, l := range g.schema.Source() {
		q.line(l)
	}
	q.line(g.schema.URIPredicate(endpoint.Path))
	if endpoint.Method != "" {
		q.line(fmt.Sprintf("| where %s == %s", g.schema.MethodColumn(), StringLiteral(strings.ToUpper(endpoint.Method))))
	}
	for _, l := range g.schema.PostFilters() {
		q.line(l)
	}
	return q
}

// FormatNumber renders v with the fewest digits that round-trip: 1, 0.95
func FormatNumber(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func hostList(hosts []string) string {
	quoted := make([]string, len(hosts))
	for i, h := range hosts {
		quoted[i] = StringLiteral(h)
	}
	return strings.Join(quoted, ", ")
}

// statusRange maps "4XX" to 400..499
func statusRange(category string) (int, int, bool) {
	if len(category) != 3 || category[1:] != "XX" || category[0] < '1' || category[0] > '5' {
		return 0, 0, false
	}
	base := int(category[0]-'0') * 100
	return base, base + 99, true
}

type query struct {
	lines []string
}

func (q *query) line(s string) {
	q.lines = append(q.lines, s)
}

func (q *query) String() string {
	return strings.Join(q.lines, "\n") + "\n"
}
