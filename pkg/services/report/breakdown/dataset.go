package breakdown

import (
	"fmt"
	"sort"

	"github.com/de-tools/cost-lens/pkg/models/domain"
	"github.com/de-tools/cost-lens/pkg/services/report/aggregate"
	"github.com/de-tools/cost-lens/pkg/services/report/facts"
)

// ViewKind is the closed set of breakdown views a chart can render.
type ViewKind string

const (
	ViewByCategory     ViewKind = "category"
	ViewBySubscription ViewKind = "subscription"
	ViewByMeter        ViewKind = "meter"
	ViewByResource     ViewKind = "resource"
	ViewTotal          ViewKind = "total"
)

// TopSeries is how many entities get their own series before the remainder
// folds into "Other".
const TopSeries = 15

const (
	OtherLabel  = "Other"
	NoDataLabel = "No data"

	// otherEpsilon suppresses an all-zero "Other" series left over from
	// floating-point rounding.
	otherEpsilon = 1e-9
)

// view binds a kind to its canonical key, display label, and the dimension
// index bucket its per-day series are intersected against. One bucket per
// entity is the single lookup path, so a row's cost enters at most one series
// exactly once per day.
type view struct {
	keyOf   func(domain.FactRow) (key, label string)
	buckets func(*facts.Index) map[string][]int
}

var views = map[ViewKind]view{
	ViewByCategory: {
		keyOf:   func(r domain.FactRow) (string, string) { return r.MeterCategory, r.MeterCategory },
		buckets: func(idx *facts.Index) map[string][]int { return idx.Category },
	},
	ViewBySubscription: {
		keyOf:   func(r domain.FactRow) (string, string) { return r.SubscriptionID, r.SubscriptionName },
		buckets: func(idx *facts.Index) map[string][]int { return idx.SubscriptionID },
	},
	ViewByMeter: {
		keyOf:   func(r domain.FactRow) (string, string) { return r.MeterName, r.MeterName },
		buckets: func(idx *facts.Index) map[string][]int { return idx.Meter },
	},
	ViewByResource: {
		keyOf:   func(r domain.FactRow) (string, string) { return r.ResourceKey, r.ResourceName },
		buckets: func(idx *facts.Index) map[string][]int { return idx.ResourceKey },
	},
}

// ParseViewKind validates a view name coming from the presentation layer.
func ParseViewKind(s string) (ViewKind, error) {
	switch ViewKind(s) {
	case ViewByCategory, ViewBySubscription, ViewByMeter, ViewByResource, ViewTotal:
		return ViewKind(s), nil
	}
	return "", fmt.Errorf("unknown breakdown view: %q", s)
}

// Builder turns an active row set into chart datasets.
type Builder struct {
	table *facts.Table
	index *facts.Index
}

func NewBuilder(table *facts.Table, index *facts.Index) *Builder {
	return &Builder{table: table, index: index}
}

// Build produces the per-day stacked series for a breakdown view: top
// entities by total cost, remainder folded into a trailing "Other" series.
func (b *Builder) Build(kind ViewKind, active map[int]struct{}) (domain.ChartData, error) {
	if kind != ViewTotal {
		if _, ok := views[kind]; !ok {
			return domain.ChartData{}, fmt.Errorf("unknown breakdown view: %q", kind)
		}
	}

	trend := aggregate.TrendByDay(b.table, active)
	if len(trend) == 0 {
		return domain.ChartData{
			Series: []domain.ChartSeries{{Key: "no-data", Label: NoDataLabel}},
		}, nil
	}

	days := make([]string, len(trend))
	dayTotals := make([]float64, len(trend))
	dayAt := make(map[string]int, len(trend))
	for i, p := range trend {
		days[i] = p.Day
		dayTotals[i] = p.Local
		dayAt[p.Day] = i
	}

	if kind == ViewTotal {
		return domain.ChartData{
			Days: days,
			Series: []domain.ChartSeries{{
				Key:    "total",
				Label:  "Total",
				Values: dayTotals,
				Total:  sum(dayTotals),
			}},
		}, nil
	}

	v := views[kind]
	groups := b.groupTotals(v, active)

	top := groups
	if len(top) > TopSeries {
		top = top[:TopSeries]
	}

	buckets := v.buckets(b.index)
	series := make([]domain.ChartSeries, 0, len(top)+1)
	topSums := make([]float64, len(days))
	for _, g := range top {
		values := make([]float64, len(days))
		for id := range aggregate.Intersect(active, buckets[g.Key]) {
			row := b.table.Rows[id]
			values[dayAt[row.Day]] += row.CostLocal
		}
		for i, val := range values {
			topSums[i] += val
		}
		series = append(series, domain.ChartSeries{
			Key:    g.Key,
			Label:  g.Label,
			Values: values,
			Total:  sum(values),
		})
	}

	if other := otherSeries(dayTotals, topSums); other != nil {
		series = append(series, *other)
	}

	sortSeries(series)
	disambiguateLabels(series)

	return domain.ChartData{Days: days, Series: series}, nil
}

func (b *Builder) groupTotals(v view, active map[int]struct{}) []domain.GroupTotal {
	byKey := map[string]*domain.GroupTotal{}
	for id := range active {
		row := b.table.Rows[id]
		key, label := v.keyOf(row)
		g, ok := byKey[key]
		if !ok {
			g = &domain.GroupTotal{Key: key, Label: label}
			byKey[key] = g
		}
		g.Local += row.CostLocal
		g.USD += row.CostUSD
		g.ItemCount++
	}
	groups := make([]domain.GroupTotal, 0, len(byKey))
	for _, g := range byKey {
		groups = append(groups, *g)
	}
	aggregate.SortGroups(groups)
	return groups
}

// otherSeries is the clamped per-day remainder. The clamp absorbs
// floating-point noise; the output never goes negative.
func otherSeries(dayTotals, topSums []float64) *domain.ChartSeries {
	values := make([]float64, len(dayTotals))
	var total float64
	for i := range dayTotals {
		rest := dayTotals[i] - topSums[i]
		if rest < 0 {
			rest = 0
		}
		values[i] = rest
		total += rest
	}
	if total < otherEpsilon {
		return nil
	}
	return &domain.ChartSeries{
		Key:    "other",
		Label:  OtherLabel,
		Values: values,
		Total:  total,
		Other:  true,
	}
}

// sortSeries orders largest total first so the biggest contributor sits at
// the base of a stacked chart, then moves "Other" to the very end whatever
// its magnitude.
func sortSeries(series []domain.ChartSeries) {
	sort.Slice(series, func(i, j int) bool {
		if series[i].Total != series[j].Total {
			return series[i].Total > series[j].Total
		}
		return series[i].Key < series[j].Key
	})
	for i, s := range series {
		if s.Other && i != len(series)-1 {
			other := series[i]
			copy(series[i:], series[i+1:])
			series[len(series)-1] = other
			break
		}
	}
}

// disambiguateLabels suffixes a counter when distinct keys share a display
// name; the first occurrence keeps the bare name.
func disambiguateLabels(series []domain.ChartSeries) {
	seen := map[string]int{}
	for i := range series {
		seen[series[i].Label]++
		if n := seen[series[i].Label]; n > 1 {
			series[i].Label = fmt.Sprintf("%s (%d)", series[i].Label, n)
		}
	}
}

func sum(values []float64) float64 {
	var total float64
	for _, v := range values {
		total += v
	}
	return total
}
