package snapshot

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/de-tools/cost-lens/pkg/models/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStore_SaveReplacesSnapshot(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer func() { _ = db.Close() }()

	records := []domain.RawUsageRecord{
		{
			Date:             float64(1704067200000), // epoch ms, must round-trip as digits
			SubscriptionID:   "sub-1",
			SubscriptionName: "Prod",
			MeterCategory:    "Compute",
			MeterSubcategory: "VM",
			MeterName:        "D2",
			CostLocal:        10,
			CostUSD:          12,
			Currency:         "EUR",
		},
	}

	mock.ExpectBegin()
	mock.ExpectExec("DELETE FROM cost_lines").
		WithArgs("latest").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec("INSERT INTO cost_lines").
		WithArgs("latest", "1704067200000", "sub-1", "Prod",
			"", "", "", "Compute", "VM", "D2", 10.0, 12.0, "EUR").
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	store := NewStore(db)
	require.NoError(t, store.Save(context.Background(), "latest", records))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStore_SaveRollsBackOnInsertError(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer func() { _ = db.Close() }()

	mock.ExpectBegin()
	mock.ExpectExec("DELETE FROM cost_lines").
		WithArgs("latest").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec("INSERT INTO cost_lines").
		WillReturnError(assert.AnError)
	mock.ExpectRollback()

	store := NewStore(db)
	err = store.Save(context.Background(), "latest", []domain.RawUsageRecord{{Date: "2024-01-01"}})
	assert.Error(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStore_Load(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer func() { _ = db.Close() }()

	rows := sqlmock.NewRows([]string{
		"usage_date", "subscription_id", "subscription_name",
		"resource_id", "resource_name", "resource_group",
		"meter_category", "meter_subcategory", "meter_name",
		"cost_local", "cost_usd", "currency",
	}).AddRow("2024-01-01", "sub-1", "Prod", "res-a", "vm-a", "rg",
		"Compute", "VM", "D2", 10.0, 12.0, "EUR")

	mock.ExpectQuery("FROM cost_lines").
		WithArgs("latest").
		WillReturnRows(rows)

	store := NewStore(db)
	records, err := store.Load(context.Background(), "latest")
	require.NoError(t, err)
	require.Len(t, records, 1)

	assert.Equal(t, "2024-01-01", records[0].Date)
	assert.Equal(t, "sub-1", records[0].SubscriptionID)
	assert.Equal(t, 10.0, records[0].CostLocal)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDateText(t *testing.T) {
	assert.Equal(t, "2024-01-01", dateText("2024-01-01"))
	assert.Equal(t, "1704067200000", dateText(float64(1704067200000)))
	assert.Equal(t, "1704067200000", dateText(int64(1704067200000)))
	assert.Equal(t, "2024-01-01", dateText(time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)))
}
