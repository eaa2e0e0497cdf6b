package snapshot

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"time"

	"github.com/de-tools/cost-lens/pkg/models/domain"
)

// Store caches raw collector records per named snapshot, so a report can be
// reopened without re-querying the provider. Dates are stored as text; the
// normalizer accepts the textual encodings on reload.
type Store struct {
	db *sql.DB
}

func NewStore(db *sql.DB) *Store {
	return &Store{db: db}
}

// Save replaces the named snapshot with the given records.
func (s *Store) Save(ctx context.Context, name string, records []domain.RawUsageRecord) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin snapshot tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `DELETE FROM cost_lines WHERE snapshot = ?`, name); err != nil {
		return fmt.Errorf("failed to clear snapshot %s: %w", name, err)
	}

	const insert = `
		INSERT INTO cost_lines (
			snapshot, usage_date, subscription_id, subscription_name,
			resource_id, resource_name, resource_group,
			meter_category, meter_subcategory, meter_name,
			cost_local, cost_usd, currency
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	for _, rec := range records {
		_, err := tx.ExecContext(ctx, insert,
			name, dateText(rec.Date), rec.SubscriptionID, rec.SubscriptionName,
			rec.ResourceID, rec.ResourceName, rec.ResourceGroup,
			rec.MeterCategory, rec.MeterSubcategory, rec.MeterName,
			rec.CostLocal, rec.CostUSD, rec.Currency,
		)
		if err != nil {
			return fmt.Errorf("failed to insert cost line: %w", err)
		}
	}

	return tx.Commit()
}

// Load reads the named snapshot back.
func (s *Store) Load(ctx context.Context, name string) ([]domain.RawUsageRecord, error) {
	const query = `
		SELECT usage_date, subscription_id, subscription_name,
			resource_id, resource_name, resource_group,
			meter_category, meter_subcategory, meter_name,
			cost_local, cost_usd, currency
		FROM cost_lines
		WHERE snapshot = ?`

	rows, err := s.db.QueryContext(ctx, query, name)
	if err != nil {
		return nil, fmt.Errorf("failed to load snapshot %s: %w", name, err)
	}
	defer func() { _ = rows.Close() }()

	var records []domain.RawUsageRecord
	for rows.Next() {
		var rec domain.RawUsageRecord
		var date string
		err := rows.Scan(
			&date, &rec.SubscriptionID, &rec.SubscriptionName,
			&rec.ResourceID, &rec.ResourceName, &rec.ResourceGroup,
			&rec.MeterCategory, &rec.MeterSubcategory, &rec.MeterName,
			&rec.CostLocal, &rec.CostUSD, &rec.Currency,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan cost line: %w", err)
		}
		rec.Date = date
		records = append(records, rec)
	}
	return records, rows.Err()
}

// dateText renders any accepted date encoding as text. Epoch-millisecond
// numbers must not pick up an exponent, or they stop parsing on reload.
func dateText(v any) string {
	switch d := v.(type) {
	case string:
		return d
	case float64:
		return strconv.FormatInt(int64(d), 10)
	case int64:
		return strconv.FormatInt(d, 10)
	case int:
		return strconv.Itoa(d)
	case time.Time:
		return d.UTC().Format("2006-01-02")
	default:
		return fmt.Sprintf("%v", v)
	}
}
