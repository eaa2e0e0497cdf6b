package main

import (
	"fmt"
	"os"

	"github.com/de-tools/cost-lens/pkg/server"
	"github.com/de-tools/cost-lens/pkg/services/config"
	"github.com/de-tools/cost-lens/pkg/services/report"
	"github.com/de-tools/cost-lens/pkg/services/snapshot"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

var (
	cfgPath      string
	registryPath string
	snapshotFile string
	addr         string
)

func main() {
	var rootCmd = &cobra.Command{
		Use:   "web",
		Short: "Serve the interactive cost report API",
		RunE:  runServer,
	}

	rootCmd.Flags().StringVarP(&cfgPath, "config", "c", "cost-lens.yaml",
		"Path to the report config file")
	rootCmd.Flags().StringVarP(&registryPath, "registry", "r", "cost-lens.ini",
		"Path to the cost source registry file")
	rootCmd.Flags().StringVarP(&snapshotFile, "snapshot", "s", "",
		"Path to a JSON snapshot file (skips provider collection)")
	rootCmd.Flags().StringVarP(&addr, "addr", "a", ":8080", "Listen address")

	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func runServer(cmd *cobra.Command, _ []string) error {
	if err := godotenv.Load(); err != nil {
		fmt.Printf("Error loading .env file: %v\n", err)
	}

	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()
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
	logger.Info().Int("records", len(records)).Msg("snapshot loaded")

	session := report.NewSession(ctx, records)

	webAPI := server.NewWebAPI(logger, server.Config{
		Addr: addr,
		Dependencies: server.Dependencies{
			Session: session,
		},
	})

	return webAPI.Start()
}
