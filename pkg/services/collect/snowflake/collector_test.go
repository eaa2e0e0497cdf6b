package snowflake

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/de-tools/cost-lens/pkg/services/report/facts"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCollect_MapsWarehouseMetering(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer func() { _ = db.Close() }()

	start := time.Date(2024, 1, 1, 8, 0, 0, 0, time.UTC)
	rows := sqlmock.NewRows([]string{"warehouse_name", "credits_used", "start_time"}).
		AddRow("REPORTING_WH", 2.5, start).
		AddRow("ETL_WH", 1.0, start)

	mock.ExpectQuery("FROM snowflake.account_usage.warehouse_metering_history").
		WithArgs(-7).
		WillReturnRows(rows)

	c := newCollector(db, Config{AccountID: "acct-1", AccountName: "Data Platform", CreditRate: 2.0})
	records, err := c.Collect(context.Background(), 7)
	require.NoError(t, err)
	require.Len(t, records, 2)

	assert.Equal(t, "acct-1", records[0].SubscriptionID)
	assert.Equal(t, "Data Platform", records[0].SubscriptionName)
	assert.Equal(t, "REPORTING_WH", records[0].ResourceName)
	assert.Equal(t, "Compute", records[0].MeterCategory)
	assert.Equal(t, "Warehouse", records[0].MeterSubcategory)
	assert.Equal(t, 5.0, records[0].CostLocal)
	assert.Equal(t, "USD", records[0].Currency)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCollect_RecordsNormalize(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer func() { _ = db.Close() }()

	start := time.Date(2024, 1, 3, 0, 0, 0, 0, time.UTC)
	rows := sqlmock.NewRows([]string{"warehouse_name", "credits_used", "start_time"}).
		AddRow("REPORTING_WH", 4.0, start)

	mock.ExpectQuery("FROM snowflake.account_usage.warehouse_metering_history").
		WithArgs(-30).
		WillReturnRows(rows)

	c := newCollector(db, Config{AccountID: "acct-1", AccountName: "Data Platform"})
	records, err := c.Collect(context.Background(), 30)
	require.NoError(t, err)

	table := facts.Normalize(context.Background(), records)
	require.Equal(t, 1, table.Len())
	assert.Equal(t, "2024-01-03", table.Rows[0].Day)
	// Warehouses carry no true resource id; the composite key keeps them
	// distinct per account.
	assert.False(t, table.Rows[0].HasResourceID())
	assert.Equal(t, "acct-1|N/A|REPORTING_WH", table.Rows[0].ResourceKey)
	assert.Equal(t, 4.0*defaultCreditRate, table.Rows[0].CostLocal)
}

func TestCollect_QueryError(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer func() { _ = db.Close() }()

	mock.ExpectQuery("FROM snowflake.account_usage.warehouse_metering_history").
		WillReturnError(assert.AnError)

	c := newCollector(db, Config{AccountID: "acct-1"})
	_, err = c.Collect(context.Background(), 7)
	assert.Error(t, err)
}
