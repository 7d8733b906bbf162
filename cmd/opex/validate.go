package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/pagopa/opex-dashboard/internal/builder"
	"github.com/pagopa/opex-dashboard/internal/kusto"
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Check the configuration and list the monitored endpoints",
	Long: `Validates the configuration file, resolves the OpenAPI specification and
prints the hosts and endpoints that would be monitored, with their alert
thresholds after overrides are applied. Nothing is written.`,
	Args: cobra.NoArgs,
	RunE: runValidate,
}

func runValidate(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	ctx, err := builder.New(
		builder.WithResolver(newResolver()),
		builder.WithLogger(logger),
	).Context(cmd.Context(), cfg)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "%s (%s)\n", ctx.Name, ctx.ResourceType)
	for _, host := range ctx.Hosts {
		fmt.Fprintf(out, "host: %s\n", host)
	}
	fmt.Fprintln(out)

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ENDPOINT\tAVAILABILITY\tRESPONSE TIME (s)")
	for _, ep := range ctx.Endpoints.Values() {
		fmt.Fprintf(w, "%s\t%s\t%s\n",
			ep.Label(),
			kusto.FormatNumber(ep.Availability.Threshold),
			kusto.FormatNumber(ep.ResponseTime.Threshold))
	}
	if err := w.Flush(); err != nil {
		return err
	}

	fmt.Fprintf(out, "\n%d endpoint(s) OK\n", ctx.Endpoints.Len())
	return nil
}
