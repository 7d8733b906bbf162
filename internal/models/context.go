package models

// ResourceType identifies the Azure resource whose diagnostics are queried
type ResourceType string

// Supported resource types
const (
	ResourceAppGateway    ResourceType = "app-gateway"
	ResourceAPIManagement ResourceType = "api-management"
)

// ValidResourceTypes returns all supported resource types
func ValidResourceTypes() []ResourceType {
	return []ResourceType{ResourceAppGateway, ResourceAPIManagement}
}

// QueryConfig tunes the generated Kusto queries
type QueryConfig struct {
	ResponseTimePercentile int      `json:"responseTimePercentile"`
	StatusCodeCategories   []string `json:"statusCodeCategories"`
}

// TemplateContext is everything the query generator and renderers need.
// It is built once per run and treated as immutable: Merge returns a new one.
type TemplateContext struct {
	Name            string       `json:"name"`
	Location        string       `json:"location"`
	ResourceType    ResourceType `json:"resourceType"`
	DataSourceID    string       `json:"dataSourceId"`
	Hosts           []string     `json:"hosts"`
	Endpoints       Endpoints    `json:"endpoints"`
	Timespan        string       `json:"timespan"`
	ActionGroupsIDs []string     `json:"actionGroupsIds"`
	BasePath        string       `json:"basePath"`
	Queries         QueryConfig  `json:"queries"`

	// Defaults seeds endpoints that only exist in overrides
	Defaults EndpointConfig `json:"-"`
}

// Clone returns a deep copy of the context
func (c TemplateContext) Clone() TemplateContext {
	out := c
	out.Hosts = cloneStrings(c.Hosts)
	out.ActionGroupsIDs = cloneStrings(c.ActionGroupsIDs)
	out.Queries.StatusCodeCategories = cloneStrings(c.Queries.StatusCodeCategories)
	out.Endpoints = c.Endpoints.Clone()
	return out
}

// EndpointOverride is one partial endpoint override in document order.
// Values uses the internal camelCase shape, e.g. {"availability": {"threshold": 0.95}}.
type EndpointOverride struct {
	Key    string
	Values map[string]any
}

// Overrides are user supplied adjustments merged once over the base context
type Overrides struct {
	Hosts     []string // nil keeps the extracted hosts
	Endpoints []EndpointOverride
	Queries   map[string]any // partial QueryConfig, camelCase keys
}

// IsEmpty reports whether applying o would change nothing
func (o Overrides) IsEmpty() bool {
	return o.Hosts == nil && len(o.Endpoints) == 0 && len(o.Queries) == 0
}

func cloneStrings(in []string) []string {
	if in == nil {
		return nil
	}
	out := make([]string, len(in))
	copy(out, in)
	return out
}
