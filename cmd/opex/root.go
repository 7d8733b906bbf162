package main

import (
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pagopa/opex-dashboard/internal/config"
	"github.com/pagopa/opex-dashboard/internal/logging"
	"github.com/pagopa/opex-dashboard/internal/parser"
)

var (
	logger  *slog.Logger
	rootCmd = &cobra.Command{
		Use:   "opex",
		Short: "Opex - generate Azure dashboards and alerts from OpenAPI specs",
		Long: `Opex reads an OpenAPI 2 or 3 specification and generates operational
monitoring for every endpoint: an Azure Portal dashboard with availability,
response code and response time tiles, and scheduled query alerts packaged
as a Terraform module.

Settings can also be provided through OPEX_ environment variables,
e.g. OPEX_LOG_LEVEL=debug.`,
		SilenceUsage:      true,
		PersistentPreRunE: setupLogger,
	}
)

// Execute runs the root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	// Global flags
	rootCmd.PersistentFlags().StringP("config-file", "c", "config.yaml", "generator configuration file")
	rootCmd.PersistentFlags().String("log-level", "info", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().String("log-format", "text", "log format (text, json)")
	rootCmd.PersistentFlags().Duration("http-timeout", parser.DefaultHTTPTimeout, "timeout for fetching remote specifications")
	rootCmd.PersistentFlags().Bool("validate-spec", false, "validate the OpenAPI document before generating")

	// Bind flags to viper
	for _, name := range []string{"config-file", "log-level", "log-format", "http-timeout", "validate-spec"} {
		_ = viper.BindPFlag(name, rootCmd.PersistentFlags().Lookup(name))
	}

	// Add subcommands
	rootCmd.AddCommand(generateCmd)
	rootCmd.AddCommand(validateCmd)
	rootCmd.AddCommand(initCmd)
}

// initConfig reads settings from the environment
func initConfig() {
	viper.SetEnvPrefix("OPEX")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()

	setDefaults()
}

// setDefaults sets the default CLI settings
func setDefaults() {
	viper.SetDefault("config-file", "config.yaml")
	viper.SetDefault("log-level", "info")
	viper.SetDefault("log-format", "text")
	viper.SetDefault("http-timeout", parser.DefaultHTTPTimeout)
	viper.SetDefault("validate-spec", false)
	viper.SetDefault("template-name", "azure-dashboard")
	viper.SetDefault("package", "")
}

func setupLogger(cmd *cobra.Command, args []string) error {
	l, err := logging.NewLogger(os.Stderr, viper.GetString("log-level"), viper.GetString("log-format"))
	if err != nil {
		return err
	}
	logger = l
	return nil
}

// loadConfig reads the generator configuration named by --config-file
func loadConfig() (*config.Config, error) {
	path := viper.GetString("config-file")
	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}
	logger.Debug("configuration loaded", "path", path)
	return cfg, nil
}

// newResolver builds the spec resolver from the CLI settings
func newResolver() *parser.Resolver {
	return parser.NewResolver(
		parser.WithHTTPTimeout(durationSetting("http-timeout")),
		parser.WithValidation(viper.GetBool("validate-spec")),
		parser.WithLogger(logger),
	)
}

func durationSetting(key string) time.Duration {
	d := viper.GetDuration(key)
	if d <= 0 {
		return parser.DefaultHTTPTimeout
	}
	return d
}
