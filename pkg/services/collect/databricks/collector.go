package databricks

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	dbxconfig "github.com/databricks/databricks-sdk-go/config"
	_ "github.com/databricks/databricks-sql-go"
	"github.com/de-tools/cost-lens/pkg/models/domain"
	"github.com/de-tools/cost-lens/pkg/services/collect"
	"github.com/rs/zerolog"
)

// defaultDBURate is the list price per DBU used when the profile does not
// override it.
const defaultDBURate = 0.22

type Config struct {
	WorkspaceID   string
	WorkspaceName string
	HTTPPath      string
	DBURate       float64
}

type collector struct {
	db     *sql.DB
	config Config
}

// NewCollector builds a Databricks billing collector over the workspace's
// system.billing.usage table. The workspace maps onto the fact model's
// subscription; billing products and SKUs map onto the meter taxonomy.
func NewCollector(cfg *dbxconfig.Config, config Config) (collect.Collector, error) {
	if cfg.Host == "" || cfg.Token == "" {
		return nil, fmt.Errorf("databricks host and token are required")
	}
	if config.HTTPPath == "" {
		return nil, fmt.Errorf("databricks http_path is required")
	}

	dsn := fmt.Sprintf("token:%s@%s%s", cfg.Token, cfg.Host, config.HTTPPath)
	db, err := sql.Open("databricks", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to databricks: %w", err)
	}

	return newCollector(db, config), nil
}

func newCollector(db *sql.DB, config Config) *collector {
	if config.DBURate == 0 {
		config.DBURate = defaultDBURate
	}
	return &collector{db: db, config: config}
}

func (c *collector) Collect(ctx context.Context, days int) ([]domain.RawUsageRecord, error) {
	logger := zerolog.Ctx(ctx)

	query := `
		SELECT
			COALESCE(usage_metadata.warehouse_id, usage_metadata.cluster_id, usage_metadata.job_id, '') AS id,
			(
				CASE
					WHEN usage_metadata.warehouse_id IS NOT NULL THEN 'SQL Warehouse'
					WHEN usage_metadata.cluster_id IS NOT NULL THEN 'Cluster'
					WHEN usage_metadata.job_id IS NOT NULL THEN 'Job'
					ELSE 'Workspace'
				END
			) AS resource_type,
			billing_origin_product,
			usage_start_time,
			usage_quantity,
			sku_name
		FROM system.billing.usage
		WHERE usage_start_time >= date_sub(current_timestamp(), ?)
		ORDER BY usage_start_time DESC
	`

	rows, err := c.db.QueryContext(ctx, query, days)
	if err != nil {
		return nil, fmt.Errorf("billing usage query failed: %w", err)
	}
	defer func() {
		if err := rows.Close(); err != nil {
			logger.Warn().Err(err).Msg("failed to close usage query rows")
		}
	}()

	var records []domain.RawUsageRecord
	for rows.Next() {
		var (
			id, resourceType, product, sku string
			start                          time.Time
			qty                            float64
		)
		if err := rows.Scan(&id, &resourceType, &product, &start, &qty, &sku); err != nil {
			return nil, fmt.Errorf("failed to scan usage row: %w", err)
		}

		cost := qty * c.config.DBURate
		records = append(records, domain.RawUsageRecord{
			Date:             start,
			SubscriptionID:   c.config.WorkspaceID,
			SubscriptionName: c.config.WorkspaceName,
			ResourceID:       id, // blank for workspace-level usage
			ResourceName:     id,
			ResourceGroup:    resourceType,
			MeterCategory:    product,
			MeterSubcategory: resourceType,
			MeterName:        sku,
			CostLocal:        cost,
			CostUSD:          cost,
			Currency:         "USD",
		})
	}

	return records, rows.Err()
}
