package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"gopkg.in/yaml.v3"
)

// Config holds the generator input as written by the user (snake_case keys)
type Config struct {
	OA3Spec               string           `yaml:"oa3_spec" validate:"required"`
	Name                  string           `yaml:"name" validate:"required"`
	Location              string           `yaml:"location" validate:"required"`
	DataSource            string           `yaml:"data_source" validate:"required"`
	ResourceType          string           `yaml:"resource_type" validate:"required,oneof=app-gateway api-management"`
	ActionGroups          []string         `yaml:"action_groups,omitempty" validate:"omitempty,dive,required"`
	Timespan              string           `yaml:"timespan" validate:"required,timespan"`
	EvaluationFrequency   int              `yaml:"evaluation_frequency" validate:"gt=0"`
	EvaluationTimeWindow  int              `yaml:"evaluation_time_window" validate:"gt=0"`
	EventOccurrences      int              `yaml:"event_occurrences" validate:"gt=0"`
	AvailabilityThreshold float64          `yaml:"availability_threshold" validate:"gt=0,lte=1"`
	ResponseTimeThreshold float64          `yaml:"response_time_threshold" validate:"gt=0"`
	Queries               QueriesConfig    `yaml:"queries"`
	Overrides             OverridesConfig  `yaml:"overrides,omitempty"`
	Terraform             *TerraformConfig `yaml:"terraform,omitempty"`
}

// QueriesConfig tunes the generated queries
type QueriesConfig struct {
	ResponseTimePercentile int      `yaml:"response_time_percentile" validate:"gt=0,lt=100"`
	StatusCodeCategories   []string `yaml:"status_code_categories" validate:"min=1,dive,statuscategory"`
}

// OverridesConfig holds user adjustments applied after endpoint extraction
type OverridesConfig struct {
	Hosts     []string          `yaml:"hosts,omitempty" validate:"omitempty,dive,required"`
	Endpoints EndpointOverrides `yaml:"endpoints,omitempty" validate:"dive"`
	Queries   *QueriesOverride  `yaml:"queries,omitempty"`
}

// QueriesOverride is a partial QueriesConfig
type QueriesOverride struct {
	ResponseTimePercentile *int     `yaml:"response_time_percentile,omitempty" validate:"omitempty,gt=0,lt=100"`
	StatusCodeCategories   []string `yaml:"status_code_categories,omitempty" validate:"omitempty,dive,statuscategory"`
}

// TerraformConfig configures the Terraform package. Either Environments or
// the flat Prefix/EnvShort pair must be set.
type TerraformConfig struct {
	Environments *Environments  `yaml:"environments,omitempty"`
	Prefix       string         `yaml:"prefix,omitempty" validate:"required_without=Environments,max=6"`
	EnvShort     string         `yaml:"env_short,omitempty" validate:"required_without=Environments,max=1"`
	Backend      *BackendConfig `yaml:"backend,omitempty"`
}

// Environments holds per-environment settings; unset environments are skipped
type Environments struct {
	Dev  *EnvironmentConfig `yaml:"dev,omitempty"`
	Uat  *EnvironmentConfig `yaml:"uat,omitempty"`
	Prod *EnvironmentConfig `yaml:"prod,omitempty"`
}

// EnvironmentConfig holds the variables of one deployment environment
type EnvironmentConfig struct {
	Prefix   string         `yaml:"prefix" validate:"required,max=6"`
	EnvShort string         `yaml:"env_short" validate:"required,len=1"`
	Backend  *BackendConfig `yaml:"backend,omitempty"`
}

// BackendConfig configures the azurerm Terraform state backend
type BackendConfig struct {
	ResourceGroupName  string `yaml:"resource_group_name" validate:"required"`
	StorageAccountName string `yaml:"storage_account_name" validate:"required"`
	ContainerName      string `yaml:"container_name" validate:"required"`
	Key                string `yaml:"key" validate:"required"`
}

// NamedEnvironment pairs an environment name with its settings
type NamedEnvironment struct {
	Name   string
	Config *EnvironmentConfig
}

// List returns the configured environments in dev, uat, prod order
func (e *Environments) List() []NamedEnvironment {
	if e == nil {
		return nil
	}
	var out []NamedEnvironment
	for _, env := range []NamedEnvironment{
		{Name: "dev", Config: e.Dev},
		{Name: "uat", Config: e.Uat},
		{Name: "prod", Config: e.Prod},
	} {
		if env.Config != nil {
			out = append(out, env)
		}
	}
	return out
}

// Default returns the default configuration
func Default() *Config {
	return &Config{
		ResourceType:          "app-gateway",
		Timespan:              "5m",
		EvaluationFrequency:   10,
		EvaluationTimeWindow:  20,
		EventOccurrences:      1,
		AvailabilityThreshold: 0.99,
		ResponseTimeThreshold: 1,
		Queries: QueriesConfig{
			ResponseTimePercentile: 95,
			StatusCodeCategories:   []string{"1XX", "2XX", "3XX", "4XX", "5XX"},
		},
	}
}

// Load reads configuration from a YAML (or JSON) file on top of Default()
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("config file %s not found: %w", path, err)
		}
		return nil, fmt.Errorf("read config: %w", err)
	}
	return Parse(data)
}

// Parse decodes configuration bytes on top of Default()
func Parse(data []byte) (*Config, error) {
	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	return cfg, nil
}
