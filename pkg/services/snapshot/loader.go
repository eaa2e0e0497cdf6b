package snapshot

import (
	"context"
	"fmt"

	"github.com/de-tools/cost-lens/pkg/models/domain"
	"github.com/de-tools/cost-lens/pkg/services/collect"
	"github.com/de-tools/cost-lens/pkg/services/collect/awsce"
	"github.com/de-tools/cost-lens/pkg/services/collect/azure"
	"github.com/de-tools/cost-lens/pkg/services/collect/databricks"
	"github.com/de-tools/cost-lens/pkg/services/collect/snowflake"
	"github.com/de-tools/cost-lens/pkg/services/config"
	"github.com/de-tools/cost-lens/pkg/store/duckdb"
	duckdbsnapshot "github.com/de-tools/cost-lens/pkg/store/duckdb/snapshot"
	"github.com/de-tools/cost-lens/pkg/store/file"
	"github.com/rs/zerolog"
)

// Options selects where a report snapshot comes from. FilePath wins when set;
// otherwise the duckdb cache is tried, and a provider collection runs (and
// refreshes the cache) when the cache has nothing.
type Options struct {
	FilePath     string
	Registry     config.Registry
	Report       *config.ReportConfig
	UseCacheOnly bool
}

// Load resolves the raw records for one report session.
func Load(ctx context.Context, opts Options) ([]domain.RawUsageRecord, error) {
	logger := zerolog.Ctx(ctx)

	if opts.FilePath != "" {
		return file.Load(opts.FilePath)
	}
	if opts.Report == nil {
		return nil, fmt.Errorf("no snapshot source configured")
	}

	cachePath := opts.Report.CachePath
	if cachePath == "" {
		cachePath = "cost-lens.db"
	}
	db, err := duckdb.NewDB(duckdb.Settings{DbPath: cachePath})
	if err != nil {
		return nil, fmt.Errorf("failed to open snapshot cache: %w", err)
	}
	defer func() { _ = db.Close() }()

	store := duckdbsnapshot.NewStore(db)
	cached, err := store.Load(ctx, opts.Report.SnapshotName)
	if err != nil {
		return nil, err
	}
	if len(cached) > 0 || opts.UseCacheOnly {
		logger.Info().
			Int("records", len(cached)).
			Str("snapshot", opts.Report.SnapshotName).
			Msg("loaded cached snapshot")
		return cached, nil
	}

	collector, err := buildCollector(ctx, opts.Registry, opts.Report.Profile)
	if err != nil {
		return nil, err
	}
	records, err := collector.Collect(ctx, opts.Report.LookbackDays)
	if err != nil {
		return nil, fmt.Errorf("failed to collect cost records: %w", err)
	}

	if err := store.Save(ctx, opts.Report.SnapshotName, records); err != nil {
		logger.Warn().Err(err).Msg("failed to cache snapshot")
	}
	return records, nil
}

func buildCollector(ctx context.Context, registry config.Registry, name string) (collect.Collector, error) {
	if registry == nil {
		return nil, fmt.Errorf("no profile registry configured")
	}
	profile, err := registry.GetProfile(ctx, name)
	if err != nil {
		return nil, err
	}

	switch profile.Provider {
	case "azure":
		return azure.NewCollector(azure.Config{
			SubscriptionID:   profile.SubscriptionID,
			SubscriptionName: profile.SubscriptionName,
		})
	case "aws":
		return awsce.NewCollector(ctx, awsce.Config{
			Profile:     profile.AWSProfile,
			AccountID:   profile.AccountID,
			AccountName: profile.AccountName,
		})
	case "databricks":
		dbxCfg, err := registry.GetDatabricksConfig(ctx, name)
		if err != nil {
			return nil, err
		}
		return databricks.NewCollector(dbxCfg, databricks.Config{
			WorkspaceID:   profile.WorkspaceID,
			WorkspaceName: profile.WorkspaceName,
			HTTPPath:      profile.HTTPPath,
			DBURate:       profile.DBURate,
		})
	case "snowflake":
		sfCfg, err := registry.GetSnowflakeConfig(ctx, name)
		if err != nil {
			return nil, err
		}
		return snowflake.NewCollector(sfCfg, snowflake.Config{
			AccountID:   profile.AccountID,
			AccountName: profile.AccountName,
			CreditRate:  profile.CreditRate,
		})
	default:
		return nil, fmt.Errorf("unsupported provider: %s", profile.Provider)
	}
}
