// Package merge folds user overrides into a template context.
//
// Precedence is explicit: defaults seed every endpoint, the global config
// replaces defaults, and endpoint overrides are applied in document order so
// that the last override resolving to a path wins.
package merge

import (
	"encoding/json"
	"fmt"
	"path"
	"strings"

	"github.com/pagopa/opex-dashboard/internal/models"
)

// DeepMerge returns a new map holding override merged over base. Nested
// objects merge key by key; arrays, scalars and nil replace the base value.
// Neither input is modified.
func DeepMerge(base, override map[string]any) map[string]any {
	out := make(map[string]any, len(base)+len(override))
	for k, v := range base {
		out[k] = copyValue(v)
	}

	for k, v := range override {
		overrideMap, isMap := v.(map[string]any)
		baseMap, baseIsMap := out[k].(map[string]any)
		if isMap && baseIsMap {
			out[k] = DeepMerge(baseMap, overrideMap)
			continue
		}
		out[k] = copyValue(v)
	}

	return out
}

func copyValue(v any) any {
	switch val := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(val))
		for k, item := range val {
			out[k] = copyValue(item)
		}
		return out
	case []any:
		out := make([]any, len(val))
		for i, item := range val {
			out[i] = copyValue(item)
		}
		return out
	case []string:
		out := make([]string, len(val))
		copy(out, val)
		return out
	default:
		return val
	}
}

// ParseEndpointKey splits "METHOD /path" into an uppercased method and a
// path. A key without a method ("/path") matches every method. The path is
// normalized the same way extracted endpoints are, so "/a//b/" targets "/a/b".
func ParseEndpointKey(key string) models.EndpointKey {
	key = strings.TrimSpace(key)
	if method, p, found := strings.Cut(key, " "); found {
		return models.EndpointKey{
			Method: strings.ToUpper(strings.TrimSpace(method)),
			Path:   normalizePath(strings.TrimSpace(p)),
		}
	}
	return models.EndpointKey{Path: normalizePath(key)}
}

// normalizePath cleans p into a rooted path; "" stays empty
func normalizePath(p string) string {
	if p == "" {
		return ""
	}
	return path.Join("/", p)
}

// Merge applies overrides to ctx and returns the result. ctx is not modified.
func Merge(ctx models.TemplateContext, overrides models.Overrides) (models.TemplateContext, error) {
	out := ctx.Clone()
	if overrides.IsEmpty() {
		return out, nil
	}

	if overrides.Hosts != nil {
		out.Hosts = append([]string{}, overrides.Hosts...)
	}

	if len(overrides.Queries) > 0 {
		var queries models.QueryConfig
		if err := mergeInto(out.Queries, overrides.Queries, &queries); err != nil {
			return models.TemplateContext{}, models.NewConfigError("overrides.queries", "cannot apply override", err)
		}
		out.Queries = queries
	}

	for _, override := range overrides.Endpoints {
		key := ParseEndpointKey(override.Key)
		if key.Path == "" {
			return models.TemplateContext{}, models.NewConfigError("overrides.endpoints", "empty endpoint key", nil)
		}

		base, ok := out.Endpoints.Get(key.Path)
		if !ok {
			base = ctx.Defaults
		}

		values := DeepMerge(override.Values, map[string]any{
			"path":   key.Path,
			"method": nil,
		})
		if key.Method != "" {
			values["method"] = key.Method
		}

		var merged models.EndpointConfig
		if err := mergeInto(base, values, &merged); err != nil {
			return models.TemplateContext{}, models.NewConfigError(
				"overrides.endpoints."+override.Key, "cannot apply override", err)
		}
		out.Endpoints.Set(key.Path, merged)
	}

	return out, nil
}

// UnknownEndpoints returns the override keys whose path is not monitored in ctx
func UnknownEndpoints(ctx models.TemplateContext, overrides models.Overrides) []string {
	var unknown []string
	for _, override := range overrides.Endpoints {
		if !ctx.Endpoints.Has(ParseEndpointKey(override.Key).Path) {
			unknown = append(unknown, override.Key)
		}
	}
	return unknown
}

// mergeInto round-trips base through its JSON object form, deep-merges
// override over it and decodes the result into dst.
func mergeInto(base any, override map[string]any, dst any) error {
	raw, err := json.Marshal(base)
	if err != nil {
		return fmt.Errorf("encode base: %w", err)
	}

	var baseMap map[string]any
	if err := json.Unmarshal(raw, &baseMap); err != nil {
		return fmt.Errorf("decode base: %w", err)
	}

	merged, err := json.Marshal(DeepMerge(baseMap, override))
	if err != nil {
		return fmt.Errorf("encode merged: %w", err)
	}

	if err := json.Unmarshal(merged, dst); err != nil {
		return fmt.Errorf("decode merged: %w", err)
	}
	return nil
}
