package snowflake

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/de-tools/cost-lens/pkg/models/domain"
	"github.com/de-tools/cost-lens/pkg/services/collect"
	"github.com/rs/zerolog"
	sf "github.com/snowflakedb/gosnowflake"
)

// defaultCreditRate is the list price per compute credit used when the
// profile does not override it.
const defaultCreditRate = 3.0

type Config struct {
	AccountID   string
	AccountName string
	CreditRate  float64
}

type collector struct {
	db     *sql.DB
	config Config
}

// NewCollector builds a Snowflake metering collector. The account maps onto
// the fact model's subscription; warehouses surface as named resources under
// a single compute meter.
func NewCollector(cfg *sf.Config, config Config) (collect.Collector, error) {
	dsn, err := sf.DSN(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to build snowflake dsn: %w", err)
	}

	db, err := sql.Open("snowflake", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to snowflake: %w", err)
	}

	return newCollector(db, config), nil
}

func newCollector(db *sql.DB, config Config) *collector {
	if config.CreditRate == 0 {
		config.CreditRate = defaultCreditRate
	}
	return &collector{db: db, config: config}
}

func (c *collector) Collect(ctx context.Context, days int) ([]domain.RawUsageRecord, error) {
	logger := zerolog.Ctx(ctx)

	query := `
		SELECT
			warehouse_name,
			credits_used,
			start_time
		FROM snowflake.account_usage.warehouse_metering_history
		WHERE start_time >= dateadd(day, ?, current_timestamp())
		ORDER BY start_time DESC
	`

	rows, err := c.db.QueryContext(ctx, query, -days)
	if err != nil {
		return nil, fmt.Errorf("warehouse metering query failed: %w", err)
	}
	defer func() {
		if err := rows.Close(); err != nil {
			logger.Warn().Err(err).Msg("failed to close metering query rows")
		}
	}()

	var records []domain.RawUsageRecord
	for rows.Next() {
		var (
			name    string
			credits float64
			start   time.Time
		)
		if err := rows.Scan(&name, &credits, &start); err != nil {
			return nil, fmt.Errorf("failed to scan metering row: %w", err)
		}

		cost := credits * c.config.CreditRate
		records = append(records, domain.RawUsageRecord{
			Date:             start,
			SubscriptionID:   c.config.AccountID,
			SubscriptionName: c.config.AccountName,
			ResourceName:     name,
			MeterCategory:    "Compute",
			MeterSubcategory: "Warehouse",
			MeterName:        "Compute Credits",
			CostLocal:        cost,
			CostUSD:          cost,
			Currency:         "USD",
		})
	}

	return records, rows.Err()
}
