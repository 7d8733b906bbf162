package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/pagopa/opex-dashboard/internal/config"
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a sample configuration file",
	Long: `Creates a commented sample configuration (config.yaml) with the default
thresholds, one endpoint override and a dev environment for the Terraform
package.

If config.yaml already exists, it will not be overwritten unless --force is used.`,
	Args: cobra.NoArgs,
	RunE: runInit,
}

var (
	initForce bool
	initPath  string
)

func init() {
	initCmd.Flags().BoolVarP(&initForce, "force", "f", false, "Overwrite existing config file")
	initCmd.Flags().StringVar(&initPath, "path", ".", "Directory where config.yaml is created")
}

// sampleComments documents the top-level keys of the sample config
var sampleComments = map[string]string{
	"oa3_spec":                "# OpenAPI 2 or 3 specification: a file path or an http(s) URL",
	"resource_type":           "# app-gateway or api-management",
	"data_source":             "# Log Analytics source queried by the dashboard and the alerts",
	"timespan":                "# Kusto bin size for the dashboard charts",
	"evaluation_frequency":    "# Alert evaluation defaults, in minutes",
	"availability_threshold":  "# Ratio of requests answered with status < 500",
	"response_time_threshold": "# Seconds",
	"overrides":               "# Optional per-endpoint settings, keyed by \"/path\" or \"METHOD /path\"",
	"terraform":               "# Variables written next to the Terraform module",
}

func runInit(cmd *cobra.Command, args []string) error {
	// Resolve path to absolute
	absPath, err := filepath.Abs(initPath)
	if err != nil {
		return fmt.Errorf("failed to resolve path: %w", err)
	}

	configFile := filepath.Join(absPath, "config.yaml")
	if err := writeSampleConfig(configFile, initForce); err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Created config file: %s\n", configFile)
	fmt.Fprintln(out)
	fmt.Fprintln(out, "Edit oa3_spec, data_source and action_groups, then run:")
	fmt.Fprintln(out)
	fmt.Fprintf(out, "  opex generate -c %s -p ./opex\n", configFile)
	fmt.Fprintln(out)
	return nil
}

// writeSampleConfig writes the commented sample to path. An existing file is
// kept unless force is set.
func writeSampleConfig(path string, force bool) error {
	if _, err := os.Stat(path); err == nil && !force {
		return fmt.Errorf("%s already exists. Use --force to overwrite", filepath.Base(path))
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", filepath.Dir(path), err)
	}

	data, err := sampleConfig()
	if err != nil {
		return fmt.Errorf("failed to generate config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

func sampleConfig() ([]byte, error) {
	threshold := 0.95

	cfg := config.Default()
	cfg.OA3Spec = "./openapi.yaml"
	cfg.Name = "my-api"
	cfg.Location = "West Europe"
	cfg.DataSource = "/subscriptions/<subscription>/resourceGroups/<rg>/providers/Microsoft.Network/applicationGateways/<gateway>"
	cfg.ActionGroups = []string{
		"/subscriptions/<subscription>/resourceGroups/<rg>/providers/microsoft.insights/actionGroups/<group>",
	}
	cfg.Overrides.Endpoints = config.EndpointOverrides{
		{Key: "GET /api/v1/services/{service_id}", AvailabilityThreshold: &threshold},
	}
	cfg.Terraform = &config.TerraformConfig{
		Environments: &config.Environments{
			Dev: &config.EnvironmentConfig{Prefix: "opex", EnvShort: "d"},
		},
	}

	var doc yaml.Node
	if err := doc.Encode(cfg); err != nil {
		return nil, err
	}
	for i := 0; i+1 < len(doc.Content); i += 2 {
		if comment, ok := sampleComments[doc.Content[i].Value]; ok {
			doc.Content[i].HeadComment = comment
		}
	}

	data, err := yaml.Marshal(&doc)
	if err != nil {
		return nil, err
	}

	header := `# Opex dashboard configuration
# See https://github.com/pagopa/opex-dashboard

`
	return append([]byte(header), data...), nil
}
