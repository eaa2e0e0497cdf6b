package facts

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/de-tools/cost-lens/pkg/models/domain"
	"github.com/rs/zerolog"
)

// Sentinels substituted for missing dimension values so every group-by stays
// total downstream.
const (
	UnknownSubscription = "Unknown"
	UnknownMeter        = "N/A"
	NoResourceName      = "(no resource)"
)

// Table is the normalized fact table. Rows never mutate after Normalize.
type Table struct {
	Rows []domain.FactRow
}

func (t *Table) Len() int {
	return len(t.Rows)
}

// AllRowIDs returns the full row-id set, one entry per row.
func (t *Table) AllRowIDs() map[int]struct{} {
	ids := make(map[int]struct{}, len(t.Rows))
	for i := range t.Rows {
		ids[i] = struct{}{}
	}
	return ids
}

// Normalize converts raw collector records into fact rows. Records whose date
// cannot be resolved under any supported encoding are skipped with a warning;
// all other missing fields fall back to sentinels.
func Normalize(ctx context.Context, records []domain.RawUsageRecord) *Table {
	logger := zerolog.Ctx(ctx)

	rows := make([]domain.FactRow, 0, len(records))
	for i, rec := range records {
		day, ok := parseDay(rec.Date)
		if !ok {
			logger.Warn().
				Int("record", i).
				Interface("date", rec.Date).
				Msg("skipping cost record with unparseable date")
			continue
		}
		rows = append(rows, normalizeRecord(rec, day))
	}

	return &Table{Rows: rows}
}

func normalizeRecord(rec domain.RawUsageRecord, day string) domain.FactRow {
	subID := strings.TrimSpace(rec.SubscriptionID)
	if subID == "" {
		subID = UnknownSubscription
	}
	subName := strings.TrimSpace(rec.SubscriptionName)
	if subName == "" {
		subName = UnknownSubscription
	}

	resourceID := strings.TrimSpace(rec.ResourceID)
	resourceName := strings.TrimSpace(rec.ResourceName)
	if resourceName == "" {
		if resourceID != "" {
			resourceName = lastPathSegment(resourceID)
		} else {
			resourceName = NoResourceName
		}
	}
	resourceGroup := strings.TrimSpace(rec.ResourceGroup)
	if resourceGroup == "" {
		resourceGroup = UnknownMeter
	}

	category := defaultMeter(rec.MeterCategory)
	subcategory := defaultMeter(rec.MeterSubcategory)
	meter := defaultMeter(rec.MeterName)

	return domain.FactRow{
		Day:              day,
		SubscriptionID:   subID,
		SubscriptionName: subName,
		ResourceID:       resourceID,
		ResourceName:     resourceName,
		ResourceGroup:    resourceGroup,
		ResourceKey:      resourceKey(resourceID, subID, resourceGroup, resourceName),
		MeterCategory:    category,
		MeterSubcategory: subcategory,
		MeterName:        meter,
		MeterKey:         MeterKey(category, subcategory, meter),
		CostLocal:        rec.CostLocal,
		CostUSD:          rec.CostUSD,
		Currency:         rec.Currency,
	}
}

// lastPathSegment extracts a display name from an ARM-style resource id.
func lastPathSegment(resourceID string) string {
	trimmed := strings.Trim(resourceID, "/")
	if idx := strings.LastIndex(trimmed, "/"); idx >= 0 {
		return trimmed[idx+1:]
	}
	return trimmed
}

func defaultMeter(v string) string {
	if v = strings.TrimSpace(v); v == "" {
		return UnknownMeter
	}
	return v
}

// resourceKey derives the canonical resource identity: the resource id when
// one exists, otherwise a composite so non-resource-attributed costs still
// aggregate under a stable key.
func resourceKey(resourceID, subID, resourceGroup, resourceName string) string {
	if resourceID != "" {
		return resourceID
	}
	return fmt.Sprintf("%s|%s|%s", subID, resourceGroup, resourceName)
}

// MeterKey builds the normalized matching key for a meter triple. Display
// names keep their original casing; this key does not.
func MeterKey(category, subcategory, meter string) string {
	parts := []string{category, subcategory, meter}
	for i, p := range parts {
		parts[i] = strings.Join(strings.Fields(strings.ToLower(p)), " ")
	}
	return strings.Join(parts, "|")
}

// SubcategoryScopedKey is the per-subscription subcategory lookup key.
func SubcategoryScopedKey(subID, category, subcategory string) string {
	return subID + "|" + category + "|" + subcategory
}

// SubcategoryGlobalKey is the subscription-independent subcategory lookup key.
func SubcategoryGlobalKey(category, subcategory string) string {
	return category + "|" + subcategory
}

const dayFormat = "2006-01-02"

// parseDay resolves the three accepted date encodings to an ISO day key.
func parseDay(v any) (string, bool) {
	switch d := v.(type) {
	case time.Time:
		return d.UTC().Format(dayFormat), true
	case string:
		return parseDayString(d)
	case float64:
		return epochMillisDay(int64(d)), true
	case int64:
		return epochMillisDay(d), true
	case int:
		return epochMillisDay(int64(d)), true
	case json.Number:
		if ms, err := d.Int64(); err == nil {
			return epochMillisDay(ms), true
		}
		return parseDayString(d.String())
	default:
		return "", false
	}
}

func parseDayString(s string) (string, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", false
	}
	for _, layout := range []string{dayFormat, time.RFC3339, "2006-01-02T15:04:05", "20060102"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC().Format(dayFormat), true
		}
	}
	// Epoch milliseconds wrapped in text.
	if ms, err := strconv.ParseInt(s, 10, 64); err == nil {
		return epochMillisDay(ms), true
	}
	return "", false
}

func epochMillisDay(ms int64) string {
	return time.UnixMilli(ms).UTC().Format(dayFormat)
}
