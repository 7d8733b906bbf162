package kusto

import (
	"fmt"

	"github.com/pagopa/opex-dashboard/internal/models"
)

// Schema describes how one Azure resource family logs HTTP requests
type Schema interface {
	// Source returns the table and the filters that precede URI matching
	Source() []string
	// URIPredicate returns the filter matching requests to path
	URIPredicate(path string) string
	// MethodColumn holds the request HTTP method
	MethodColumn() string
	// PostFilters run after the endpoint filters and before aggregation
	PostFilters() []string
	// StatusColumn holds the numeric response status
	StatusColumn() string
	// Duration is an expression for the request duration in seconds
	Duration() string
}

// SchemaFor returns the schema of resourceType
func SchemaFor(resourceType models.ResourceType) (Schema, error) {
	switch resourceType {
	case models.ResourceAppGateway:
		return appGateway{}, nil
	case models.ResourceAPIManagement:
		return apiManagement{}, nil
	default:
		return nil, models.NewConfigError("resource_type",
			fmt.Sprintf("unsupported resource type %q", resourceType), nil)
	}
}

// appGateway reads Application Gateway access logs
type appGateway struct{}

func (appGateway) Source() []string {
	return []string{
		"AzureDiagnostics",
		"| where originalHost_s in (api_hosts)",
	}
}

// requestUri_s carries the query string, so it is allowed after the path
func (appGateway) URIPredicate(path string) string {
	return "| where requestUri_s matches regex " + Verbatim(URIPattern(path, true))
}

func (appGateway) MethodColumn() string  { return "httpMethod_s" }
func (appGateway) PostFilters() []string { return nil }
func (appGateway) StatusColumn() string  { return "httpStatus_d" }
func (appGateway) Duration() string      { return "timeTaken_d" }

// apiManagement reads API Management gateway logs. A zero response code
// means the request never completed and is not counted.
type apiManagement struct{}

func (apiManagement) Source() []string {
	return []string{
		"AzureDiagnostics",
		`| where Category == "GatewayLogs"`,
		"| extend host_s = tostring(parse_url(url_s).Host), path_s = tostring(parse_url(url_s).Path)",
		"| where host_s in (api_hosts)",
	}
}

func (apiManagement) URIPredicate(path string) string {
	return "| where path_s matches regex " + Verbatim(URIPattern(path, false))
}

func (apiManagement) MethodColumn() string { return "method_s" }

func (apiManagement) PostFilters() []string {
	return []string{"| where responseCode_d != 0"}
}

func (apiManagement) StatusColumn() string { return "responseCode_d" }
func (apiManagement) Duration() string     { return "DurationMs / 1000.0" }
