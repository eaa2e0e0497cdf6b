package report

import (
	"context"
	"sort"

	"github.com/de-tools/cost-lens/pkg/models/domain"
	"github.com/de-tools/cost-lens/pkg/services/report/aggregate"
	"github.com/de-tools/cost-lens/pkg/services/report/breakdown"
	"github.com/de-tools/cost-lens/pkg/services/report/facts"
	"github.com/de-tools/cost-lens/pkg/services/report/selection"
)

// Session owns one loaded cost snapshot: the immutable fact table and
// indices, plus the only mutable piece, the selection state. One session per
// report view; callers mutate selection through State() and read derived
// aggregates back, one discrete action at a time.
type Session struct {
	table    *facts.Table
	index    *facts.Index
	state    *selection.State
	builder  *breakdown.Builder
	currency string
}

// NewSession normalizes the raw records and builds the dimension indices.
func NewSession(ctx context.Context, records []domain.RawUsageRecord) *Session {
	table := facts.Normalize(ctx, records)
	index := facts.BuildIndex(table)

	currency := "USD"
	for _, row := range table.Rows {
		if row.Currency != "" {
			currency = row.Currency
			break
		}
	}

	return &Session{
		table:    table,
		index:    index,
		state:    selection.NewState(table, index),
		builder:  breakdown.NewBuilder(table, index),
		currency: currency,
	}
}

func (s *Session) Table() *facts.Table            { return s.table }
func (s *Session) Index() *facts.Index            { return s.index }
func (s *Session) State() *selection.State        { return s.state }
func (s *Session) ActiveRowIDs() map[int]struct{} { return s.state.ActiveRowIDs() }
func (s *Session) ScopeRowIDs() map[int]struct{}  { return s.state.ScopeRowIDs() }

// Summary derives the summary-card aggregates from the active row set.
func (s *Session) Summary() domain.Summary {
	active := s.state.ActiveRowIDs()
	costs := aggregate.SumCosts(s.table, active)

	subs := map[string]struct{}{}
	categories := map[string]struct{}{}
	for id := range active {
		row := s.table.Rows[id]
		subs[row.SubscriptionID] = struct{}{}
		categories[row.MeterCategory] = struct{}{}
	}

	percent, direction := trendChange(aggregate.TrendByDay(s.table, active))

	return domain.Summary{
		TotalLocal:        costs.Local,
		TotalUSD:          costs.USD,
		Currency:          s.currency,
		SubscriptionCount: len(subs),
		CategoryCount:     len(categories),
		TrendPercent:      percent,
		TrendDirection:    direction,
	}
}

// trendChange compares the second chronological half of the trend against the
// first. A zero first half is a neutral 0% change, not an error.
func trendChange(trend []domain.TrendPoint) (float64, domain.TrendDirection) {
	if len(trend) < 2 {
		return 0, domain.TrendFlat
	}

	half := len(trend) / 2
	var first, second float64
	for _, p := range trend[:half] {
		first += p.Local
	}
	for _, p := range trend[half:] {
		second += p.Local
	}

	if first == 0 {
		return 0, domain.TrendFlat
	}
	percent := (second - first) / first * 100
	switch {
	case percent > 0:
		return percent, domain.TrendUp
	case percent < 0:
		return percent, domain.TrendDown
	default:
		return 0, domain.TrendFlat
	}
}

// Chart builds the requested breakdown dataset over the active row set.
func (s *Session) Chart(kind breakdown.ViewKind) (domain.ChartData, error) {
	return s.builder.Build(kind, s.state.ActiveRowIDs())
}

// Trend returns the active per-day cost trend.
func (s *Session) Trend() []domain.TrendPoint {
	return aggregate.TrendByDay(s.table, s.state.ActiveRowIDs())
}

// SumCosts totals the active row set.
func (s *Session) SumCosts() domain.CostAmount {
	return aggregate.SumCosts(s.table, s.state.ActiveRowIDs())
}

// AvailableSubscriptions lists every subscription in the snapshot, sorted by
// display name then id, for the scope checkboxes.
func (s *Session) AvailableSubscriptions() []domain.Subscription {
	byID := map[string]string{}
	for _, row := range s.table.Rows {
		byID[row.SubscriptionID] = row.SubscriptionName
	}
	subs := make([]domain.Subscription, 0, len(byID))
	for id, name := range byID {
		subs = append(subs, domain.Subscription{ID: id, Name: name})
	}
	sort.Slice(subs, func(i, j int) bool {
		if subs[i].Name != subs[j].Name {
			return subs[i].Name < subs[j].Name
		}
		return subs[i].ID < subs[j].ID
	})
	return subs
}

// SubcategoryRows resolves a subcategory through either of its two valid key
// forms, intersected with the scope row set. scopedSub selects the
// per-subscription composite path; empty selects the global path. Both paths
// yield the same rows when scoped identically.
func (s *Session) SubcategoryRows(scopedSub, category, subcategory string) map[int]struct{} {
	var bucket []int
	if scopedSub != "" {
		bucket = s.index.SubcategoryScoped[facts.SubcategoryScopedKey(scopedSub, category, subcategory)]
	} else {
		bucket = s.index.SubcategoryGlobal[facts.SubcategoryGlobalKey(category, subcategory)]
	}
	return aggregate.Intersect(s.state.ScopeRowIDs(), bucket)
}
