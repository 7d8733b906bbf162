package merge

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pagopa/opex-dashboard/internal/models"
)

func defaults() models.EndpointConfig {
	return models.EndpointConfig{
		Availability: models.EvaluationConfig{Threshold: 0.99, EvaluationFrequency: 10, EvaluationTimeWindow: 20, EventOccurrences: 1},
		ResponseTime: models.EvaluationConfig{Threshold: 1, EvaluationFrequency: 10, EvaluationTimeWindow: 20, EventOccurrences: 1},
	}
}

func baseContext() models.TemplateContext {
	eps := models.NewEndpoints()
	for _, p := range []string{"/api/v1/services", "/api/v1/services/{service_id}"} {
		cfg := defaults()
		cfg.Path = p
		eps.Set(p, cfg)
	}
	return models.TemplateContext{
		Name:         "opex",
		ResourceType: models.ResourceAppGateway,
		Hosts:        []string{"api.example.com"},
		Endpoints:    eps,
		Timespan:     "5m",
		Queries: models.QueryConfig{
			ResponseTimePercentile: 95,
			StatusCodeCategories:   []string{"1XX", "2XX", "3XX", "4XX", "5XX"},
		},
		Defaults: defaults(),
	}
}

func TestDeepMerge(t *testing.T) {
	tests := []struct {
		name     string
		base     map[string]any
		override map[string]any
		expected map[string]any
	}{
		{
			name:     "objects merge recursively",
			base:     map[string]any{"a": map[string]any{"x": 1, "y": 2}},
			override: map[string]any{"a": map[string]any{"y": 3}},
			expected: map[string]any{"a": map[string]any{"x": 1, "y": 3}},
		},
		{
			name:     "arrays replace",
			base:     map[string]any{"a": []any{1, 2, 3}},
			override: map[string]any{"a": []any{4}},
			expected: map[string]any{"a": []any{4}},
		},
		{
			name:     "nil replaces",
			base:     map[string]any{"a": map[string]any{"x": 1}},
			override: map[string]any{"a": nil},
			expected: map[string]any{"a": nil},
		},
		{
			name:     "scalar replaces object",
			base:     map[string]any{"a": map[string]any{"x": 1}},
			override: map[string]any{"a": "flat"},
			expected: map[string]any{"a": "flat"},
		},
		{
			name:     "new keys are added",
			base:     map[string]any{"a": 1},
			override: map[string]any{"b": 2},
			expected: map[string]any{"a": 1, "b": 2},
		},
		{
			name:     "empty override",
			base:     map[string]any{"a": 1},
			override: map[string]any{},
			expected: map[string]any{"a": 1},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, DeepMerge(tt.base, tt.override))
		})
	}
}

func TestDeepMerge_DoesNotMutateInputs(t *testing.T) {
	base := map[string]any{"a": map[string]any{"x": 1}, "list": []any{1}}
	override := map[string]any{"a": map[string]any{"y": 2}}

	merged := DeepMerge(base, override)
	merged["a"].(map[string]any)["x"] = 100
	merged["list"].([]any)[0] = 100

	assert.Equal(t, map[string]any{"a": map[string]any{"x": 1}, "list": []any{1}}, base)
	assert.Equal(t, map[string]any{"a": map[string]any{"y": 2}}, override)
}

func TestParseEndpointKey(t *testing.T) {
	tests := []struct {
		key      string
		expected models.EndpointKey
	}{
		{"GET /users", models.EndpointKey{Method: "GET", Path: "/users"}},
		{"get /users", models.EndpointKey{Method: "GET", Path: "/users"}},
		{"/users", models.EndpointKey{Path: "/users"}},
		{"", models.EndpointKey{}},
		{"  POST   /users/{id} ", models.EndpointKey{Method: "POST", Path: "/users/{id}"}},
		{"/users/", models.EndpointKey{Path: "/users"}},
		{"//users", models.EndpointKey{Path: "/users"}},
		{"GET /api//users/./{id}/", models.EndpointKey{Method: "GET", Path: "/api/users/{id}"}},
	}

	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			assert.Equal(t, tt.expected, ParseEndpointKey(tt.key))
		})
	}
}

func TestMerge_EmptyOverridesKeepsBase(t *testing.T) {
	base := baseContext()

	merged, err := Merge(base, models.Overrides{})
	require.NoError(t, err)
	assert.Equal(t, base, merged)
}

func TestMerge_EndpointThreshold(t *testing.T) {
	base := baseContext()

	merged, err := Merge(base, models.Overrides{
		Endpoints: []models.EndpointOverride{
			{Key: "/api/v1/services/{service_id}", Values: map[string]any{
				"availability": map[string]any{"threshold": 0.95},
			}},
		},
	})
	require.NoError(t, err)

	overridden, ok := merged.Endpoints.Get("/api/v1/services/{service_id}")
	require.True(t, ok)
	assert.Equal(t, 0.95, overridden.Availability.Threshold)
	// omitted fields keep the defaults
	assert.Equal(t, 10, overridden.Availability.EvaluationFrequency)
	assert.Equal(t, 20, overridden.Availability.EvaluationTimeWindow)
	assert.Equal(t, 1, overridden.Availability.EventOccurrences)
	assert.Equal(t, 1.0, overridden.ResponseTime.Threshold)
	assert.Empty(t, overridden.Method)

	untouched, _ := merged.Endpoints.Get("/api/v1/services")
	assert.Equal(t, 0.99, untouched.Availability.Threshold)

	// input untouched
	original, _ := base.Endpoints.Get("/api/v1/services/{service_id}")
	assert.Equal(t, 0.99, original.Availability.Threshold)
}

func TestMerge_MethodQualifiedKey(t *testing.T) {
	merged, err := Merge(baseContext(), models.Overrides{
		Endpoints: []models.EndpointOverride{
			{Key: "get /api/v1/services", Values: map[string]any{
				"responseTime": map[string]any{"threshold": 2.5},
			}},
		},
	})
	require.NoError(t, err)

	ep, _ := merged.Endpoints.Get("/api/v1/services")
	assert.Equal(t, "GET", ep.Method)
	assert.Equal(t, "/api/v1/services", ep.Path)
	assert.Equal(t, 2.5, ep.ResponseTime.Threshold)
	assert.Equal(t, 2, merged.Endpoints.Len())
}

func TestMerge_LastWriteWins(t *testing.T) {
	merged, err := Merge(baseContext(), models.Overrides{
		Endpoints: []models.EndpointOverride{
			{Key: "GET /api/v1/services", Values: map[string]any{
				"availability": map[string]any{"threshold": 0.9},
			}},
			{Key: "/api/v1/services", Values: map[string]any{
				"availability": map[string]any{"eventOccurrences": 3},
			}},
		},
	})
	require.NoError(t, err)

	ep, _ := merged.Endpoints.Get("/api/v1/services")
	// the path-only key came last and clears the method
	assert.Empty(t, ep.Method)
	assert.Equal(t, 3, ep.Availability.EventOccurrences)
	// earlier values stay since they merged into the same endpoint
	assert.Equal(t, 0.9, ep.Availability.Threshold)
}

func TestMerge_UnknownPathAddsEndpoint(t *testing.T) {
	base := baseContext()
	overrides := models.Overrides{
		Endpoints: []models.EndpointOverride{
			{Key: "POST /api/v1/extra", Values: map[string]any{}},
		},
	}

	assert.Equal(t, []string{"POST /api/v1/extra"}, UnknownEndpoints(base, overrides))

	merged, err := Merge(base, overrides)
	require.NoError(t, err)
	require.Equal(t, 3, merged.Endpoints.Len())
	assert.Equal(t, "/api/v1/extra", merged.Endpoints.Keys()[2])

	ep, _ := merged.Endpoints.Get("/api/v1/extra")
	assert.Equal(t, "POST", ep.Method)
	assert.Equal(t, 0.99, ep.Availability.Threshold)
}

func TestMerge_KeysMatchNormalizedPaths(t *testing.T) {
	tests := []struct {
		key    string
		method string
	}{
		{"/api/v1/services/", ""},
		{"//api/v1/services", ""},
		{"GET /api/v1//services", "GET"},
	}

	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			base := baseContext()
			overrides := models.Overrides{
				Endpoints: []models.EndpointOverride{
					{Key: tt.key, Values: map[string]any{
						"availability": map[string]any{"threshold": 0.9},
					}},
				},
			}

			assert.Empty(t, UnknownEndpoints(base, overrides))

			merged, err := Merge(base, overrides)
			require.NoError(t, err)
			assert.Equal(t, []string{"/api/v1/services", "/api/v1/services/{service_id}"}, merged.Endpoints.Keys())

			ep, ok := merged.Endpoints.Get("/api/v1/services")
			require.True(t, ok)
			assert.Equal(t, "/api/v1/services", ep.Path)
			assert.Equal(t, tt.method, ep.Method)
			assert.Equal(t, 0.9, ep.Availability.Threshold)
		})
	}
}

func TestMerge_HostsAndQueries(t *testing.T) {
	base := baseContext()

	merged, err := Merge(base, models.Overrides{
		Hosts:   []string{"a.example.com", "b.example.com"},
		Queries: map[string]any{"responseTimePercentile": 99},
	})
	require.NoError(t, err)

	assert.Equal(t, []string{"a.example.com", "b.example.com"}, merged.Hosts)
	assert.Equal(t, 99, merged.Queries.ResponseTimePercentile)
	assert.Equal(t, base.Queries.StatusCodeCategories, merged.Queries.StatusCodeCategories)
	assert.Equal(t, []string{"api.example.com"}, base.Hosts)
}

func TestMerge_InvalidValue(t *testing.T) {
	_, err := Merge(baseContext(), models.Overrides{
		Endpoints: []models.EndpointOverride{
			{Key: "/api/v1/services", Values: map[string]any{
				"availability": map[string]any{"threshold": "high"},
			}},
		},
	})
	require.Error(t, err)
	assert.True(t, models.IsConfigError(err))
}

func TestMerge_EmptyKey(t *testing.T) {
	_, err := Merge(baseContext(), models.Overrides{
		Endpoints: []models.EndpointOverride{{Key: "", Values: map[string]any{}}},
	})
	require.Error(t, err)
	assert.True(t, models.IsConfigError(err))
}
