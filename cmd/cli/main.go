package main

import (
	"fmt"
	"os"

	"github.com/de-tools/cost-lens/pkg/runtime/terminal"
	"github.com/de-tools/cost-lens/pkg/services/config"
	"github.com/de-tools/cost-lens/pkg/services/report"
	"github.com/de-tools/cost-lens/pkg/services/report/aggregate"
	"github.com/de-tools/cost-lens/pkg/services/snapshot"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

var (
	cfgPath      string
	registryPath string
	snapshotFile string
	topResources int
)

func main() {
	var rootCmd = &cobra.Command{
		Use:   "cost-lens",
		Short: "Print a one-shot cost report to the terminal",
		RunE:  runReport,
	}

	rootCmd.Flags().StringVarP(&cfgPath, "config", "c", "cost-lens.yaml",
		"Path to the report config file")
	rootCmd.Flags().StringVarP(&registryPath, "registry", "r", "cost-lens.ini",
		"Path to the cost source registry file")
	rootCmd.Flags().StringVarP(&snapshotFile, "snapshot", "s", "",
		"Path to a JSON snapshot file (skips provider collection)")
	rootCmd.Flags().IntVarP(&topResources, "top", "t", 10,
		"How many resources to print")

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func runReport(cmd *cobra.Command, _ []string) error {
	// .env is optional for the one-shot report
	_ = godotenv.Load()

	logger := zerolog.New(os.Stderr).With().Timestamp().Logger()
	ctx := logger.WithContext(cmd.Context())

	opts := snapshot.Options{FilePath: snapshotFile}
	if snapshotFile == "" {
		reportCfg, err := config.LoadReportConfig(cfgPath)
		if err != nil {
			return fmt.Errorf("failed to load report config: %w", err)
		}
		registry, err := config.NewRegistry(registryPath)
		if err != nil {
			return fmt.Errorf("failed to create config registry: %w", err)
		}
		opts.Report = reportCfg
		opts.Registry = registry
	}

	records, err := snapshot.Load(ctx, opts)
	if err != nil {
		return fmt.Errorf("failed to load snapshot: %w", err)
	}

	session := report.NewSession(ctx, records)
	active := session.ActiveRowIDs()

	resources := aggregate.GroupByResource(session.Table(), active)
	if len(resources) > topResources {
		resources = resources[:topResources]
	}

	reporter := terminal.NewReporter(os.Stdout)
	return reporter.Handle(&terminal.Report{
		Summary:    session.Summary(),
		Categories: aggregate.GroupByCategory(session.Table(), active),
		Resources:  resources,
		Trend:      session.Trend(),
	})
}
