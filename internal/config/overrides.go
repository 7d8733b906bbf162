package config

import (
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/pagopa/opex-dashboard/internal/models"
)

// EndpointOverride is one entry of overrides.endpoints. Key is either
// "/path" or "METHOD /path"; unset fields fall back to the global defaults.
type EndpointOverride struct {
	Key string `yaml:"-" validate:"required,endpointkey"`

	AvailabilityThreshold            *float64 `yaml:"availability_threshold,omitempty" validate:"omitempty,gt=0,lte=1"`
	AvailabilityEvaluationFrequency  *int     `yaml:"availability_evaluation_frequency,omitempty" validate:"omitempty,gt=0"`
	AvailabilityEvaluationTimeWindow *int     `yaml:"availability_evaluation_time_window,omitempty" validate:"omitempty,gt=0"`
	AvailabilityEventOccurrences     *int     `yaml:"availability_event_occurrences,omitempty" validate:"omitempty,gt=0"`
	ResponseTimeThreshold            *float64 `yaml:"response_time_threshold,omitempty" validate:"omitempty,gt=0"`
	ResponseTimeEvaluationFrequency  *int     `yaml:"response_time_evaluation_frequency,omitempty" validate:"omitempty,gt=0"`
	ResponseTimeEvaluationTimeWindow *int     `yaml:"response_time_evaluation_time_window,omitempty" validate:"omitempty,gt=0"`
	ResponseTimeEventOccurrences     *int     `yaml:"response_time_event_occurrences,omitempty" validate:"omitempty,gt=0"`
}

// endpointOverrideFields lists the keys accepted inside an endpoint override
var endpointOverrideFields = map[string]bool{
	"availability_threshold":               true,
	"availability_evaluation_frequency":    true,
	"availability_evaluation_time_window":  true,
	"availability_event_occurrences":       true,
	"response_time_threshold":              true,
	"response_time_evaluation_frequency":   true,
	"response_time_evaluation_time_window": true,
	"response_time_event_occurrences":      true,
}

// EndpointOverrides keeps overrides in document order so that when two keys
// resolve to the same path the later one deterministically wins.
type EndpointOverrides []EndpointOverride

// UnmarshalYAML decodes a mapping node preserving key order
func (e *EndpointOverrides) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.MappingNode {
		return fmt.Errorf("line %d: overrides.endpoints must be a mapping", node.Line)
	}

	out := make(EndpointOverrides, 0, len(node.Content)/2)
	for i := 0; i+1 < len(node.Content); i += 2 {
		keyNode, valueNode := node.Content[i], node.Content[i+1]

		if valueNode.Kind == yaml.MappingNode {
			for j := 0; j+1 < len(valueNode.Content); j += 2 {
				field := valueNode.Content[j].Value
				if !endpointOverrideFields[field] {
					return fmt.Errorf("line %d: unknown endpoint override field %q for %q",
						valueNode.Content[j].Line, field, keyNode.Value)
				}
			}
		}

		var override EndpointOverride
		if err := valueNode.Decode(&override); err != nil {
			return fmt.Errorf("overrides.endpoints[%s]: %w", keyNode.Value, err)
		}
		override.Key = keyNode.Value
		out = append(out, override)
	}

	*e = out
	return nil
}

// MarshalYAML encodes the overrides as a mapping in slice order
func (e EndpointOverrides) MarshalYAML() (any, error) {
	node := &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}
	for _, o := range e {
		var value yaml.Node
		if err := value.Encode(o); err != nil {
			return nil, fmt.Errorf("overrides.endpoints[%s]: %w", o.Key, err)
		}
		node.Content = append(node.Content,
			&yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: o.Key},
			&value)
	}
	return node, nil
}

// values converts the override into the internal camelCase nested shape,
// omitting everything the user did not set.
func (o EndpointOverride) values() map[string]any {
	availability := make(map[string]any)
	if o.AvailabilityThreshold != nil {
		availability["threshold"] = *o.AvailabilityThreshold
	}
	if o.AvailabilityEvaluationFrequency != nil {
		availability["evaluationFrequency"] = *o.AvailabilityEvaluationFrequency
	}
	if o.AvailabilityEvaluationTimeWindow != nil {
		availability["evaluationTimeWindow"] = *o.AvailabilityEvaluationTimeWindow
	}
	if o.AvailabilityEventOccurrences != nil {
		availability["eventOccurrences"] = *o.AvailabilityEventOccurrences
	}

	responseTime := make(map[string]any)
	if o.ResponseTimeThreshold != nil {
		responseTime["threshold"] = *o.ResponseTimeThreshold
	}
	if o.ResponseTimeEvaluationFrequency != nil {
		responseTime["evaluationFrequency"] = *o.ResponseTimeEvaluationFrequency
	}
	if o.ResponseTimeEvaluationTimeWindow != nil {
		responseTime["evaluationTimeWindow"] = *o.ResponseTimeEvaluationTimeWindow
	}
	if o.ResponseTimeEventOccurrences != nil {
		responseTime["eventOccurrences"] = *o.ResponseTimeEventOccurrences
	}

	values := make(map[string]any)
	if len(availability) > 0 {
		values["availability"] = availability
	}
	if len(responseTime) > 0 {
		values["responseTime"] = responseTime
	}
	return values
}

// ToOverrides converts the user overrides into models.Overrides
func (c *Config) ToOverrides() models.Overrides {
	var out models.Overrides

	if c.Overrides.Hosts != nil {
		out.Hosts = append([]string{}, c.Overrides.Hosts...)
	}

	for _, o := range c.Overrides.Endpoints {
		out.Endpoints = append(out.Endpoints, models.EndpointOverride{
			Key:    o.Key,
			Values: o.values(),
		})
	}

	if q := c.Overrides.Queries; q != nil {
		queries := make(map[string]any)
		if q.ResponseTimePercentile != nil {
			queries["responseTimePercentile"] = *q.ResponseTimePercentile
		}
		if q.StatusCodeCategories != nil {
			cats := make([]any, len(q.StatusCodeCategories))
			for i, c := range q.StatusCodeCategories {
				cats[i] = c
			}
			queries["statusCodeCategories"] = cats
		}
		if len(queries) > 0 {
			out.Queries = queries
		}
	}

	return out
}

// EndpointDefaults returns the evaluation defaults applied to every endpoint
func (c *Config) EndpointDefaults() models.EndpointConfig {
	return models.EndpointConfig{
		Availability: models.EvaluationConfig{
			Threshold:            c.AvailabilityThreshold,
			EvaluationFrequency:  c.EvaluationFrequency,
			EvaluationTimeWindow: c.EvaluationTimeWindow,
			EventOccurrences:     c.EventOccurrences,
		},
		ResponseTime: models.EvaluationConfig{
			Threshold:            c.ResponseTimeThreshold,
			EvaluationFrequency:  c.EvaluationFrequency,
			EvaluationTimeWindow: c.EvaluationTimeWindow,
			EventOccurrences:     c.EventOccurrences,
		},
	}
}

// BaseContext returns the template context derived from the global settings.
// Hosts, endpoints and base path are filled in by endpoint extraction.
func (c *Config) BaseContext() models.TemplateContext {
	return models.TemplateContext{
		Name:            c.Name,
		Location:        c.Location,
		ResourceType:    models.ResourceType(c.ResourceType),
		DataSourceID:    c.DataSource,
		Hosts:           []string{},
		Endpoints:       models.NewEndpoints(),
		Timespan:        c.Timespan,
		ActionGroupsIDs: append([]string{}, c.ActionGroups...),
		Queries: models.QueryConfig{
			ResponseTimePercentile: c.Queries.ResponseTimePercentile,
			StatusCodeCategories:   append([]string{}, c.Queries.StatusCodeCategories...),
		},
		Defaults: c.EndpointDefaults(),
	}
}
