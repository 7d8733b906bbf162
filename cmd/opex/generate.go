package main

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pagopa/opex-dashboard/internal/builder"
	"github.com/pagopa/opex-dashboard/internal/stats"
	"github.com/pagopa/opex-dashboard/internal/storage"
)

var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Generate the dashboard and alerts for an OpenAPI specification",
	Long: `Generates monitoring artifacts from the configuration file.

Templates:
  azure-dashboard      Terraform module (opex.tf, main.tf, variables.tf and tfvars)
  azure-dashboard-raw  Azure Portal dashboard as ARM JSON (dashboard.json)

Without --package the main artifact is printed to standard output.`,
	Args: cobra.NoArgs,
	RunE: runGenerate,
}

func init() {
	generateCmd.Flags().StringP("template-name", "t", builder.TemplateDashboard, "template to render")
	generateCmd.Flags().StringP("package", "p", "", "directory where artifacts are written")

	// Bind flags to viper
	_ = viper.BindPFlag("template-name", generateCmd.Flags().Lookup("template-name"))
	_ = viper.BindPFlag("package", generateCmd.Flags().Lookup("package"))
}

func runGenerate(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	opts := []builder.Option{
		builder.WithResolver(newResolver()),
		builder.WithLogger(logger),
		builder.WithStats(stats.NewCollector()),
		builder.WithOutput(cmd.OutOrStdout()),
	}

	if dir := viper.GetString("package"); dir != "" {
		absPath, err := filepath.Abs(dir)
		if err != nil {
			return fmt.Errorf("failed to resolve package path: %w", err)
		}
		store, err := storage.NewFileStorage(absPath)
		if err != nil {
			return err
		}
		defer store.Close()

		logger.Info("packaging artifacts", "dir", absPath)
		opts = append(opts, builder.WithStorage(store))
	}

	_, err = builder.New(opts...).Build(cmd.Context(), cfg, viper.GetString("template-name"))
	return err
}
