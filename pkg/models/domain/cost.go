package domain

// RawUsageRecord is one cost line as delivered by a collector. Fields are
// optional; Date carries one of three encodings (RFC3339/ISO string, epoch
// milliseconds as a number, or epoch milliseconds wrapped in a string) and is
// resolved during normalization.
type RawUsageRecord struct {
	Date             any     `json:"date"`
	SubscriptionID   string  `json:"subscription_id"`
	SubscriptionName string  `json:"subscription_name"`
	ResourceID       string  `json:"resource_id"`
	ResourceName     string  `json:"resource_name"`
	ResourceGroup    string  `json:"resource_group"`
	MeterCategory    string  `json:"meter_category"`
	MeterSubcategory string  `json:"meter_subcategory"`
	MeterName        string  `json:"meter_name"`
	CostLocal        float64 `json:"cost_local"`
	CostUSD          float64 `json:"cost_usd"`
	Currency         string  `json:"currency"`
}

// FactRow is one normalized cost line item. Immutable after load.
type FactRow struct {
	Day              string // ISO YYYY-MM-DD, lexicographically sortable
	SubscriptionID   string
	SubscriptionName string
	ResourceID       string // empty for non-resource-attributed costs
	ResourceName     string
	ResourceGroup    string
	ResourceKey      string // canonical resource identity, never blank
	MeterCategory    string
	MeterSubcategory string
	MeterName        string
	MeterKey         string // normalized category|subcategory|meter
	CostLocal        float64
	CostUSD          float64
	Currency         string
}

// HasResourceID reports whether the row is attributed to a concrete resource.
// Rows without one still count toward totals but are not resource-pickable.
func (r FactRow) HasResourceID() bool {
	return r.ResourceID != ""
}

// CostAmount is a cost in both currencies of a report.
type CostAmount struct {
	Local float64
	USD   float64
}

// TrendPoint is one day of a cost trend.
type TrendPoint struct {
	Day   string
	Local float64
	USD   float64
}

// GroupTotal is one entity of a group-by result.
type GroupTotal struct {
	Key       string // canonical key, sorting tie-break
	Label     string // display name
	Local     float64
	USD       float64
	ItemCount int
}

// ChartSeries is one entity's per-day values. Values aligns with the Days
// slice of the owning ChartData.
type ChartSeries struct {
	Key    string
	Label  string
	Values []float64
	Total  float64
	Other  bool
}

// ChartData is the ordered chart payload: day labels plus one series per
// entity, largest total first, the synthetic "Other" remainder always last.
type ChartData struct {
	Days   []string
	Series []ChartSeries
}

// Summary backs the report's summary cards.
type Summary struct {
	TotalLocal        float64
	TotalUSD          float64
	Currency          string
	SubscriptionCount int
	CategoryCount     int
	TrendPercent      float64
	TrendDirection    TrendDirection
}

type TrendDirection string

const (
	TrendUp   TrendDirection = "up"
	TrendDown TrendDirection = "down"
	TrendFlat TrendDirection = "flat"
)

// DrilldownNode is one level of the category → subcategory → meter → resource
// tree. Children are sorted by local cost descending.
type DrilldownNode struct {
	Key       string
	Label     string
	CostLocal float64
	CostUSD   float64
	ItemCount int
	Pickable  bool
	Children  []DrilldownNode
}

// Subscription is one selectable subscription of a loaded snapshot.
type Subscription struct {
	ID   string
	Name string
}
