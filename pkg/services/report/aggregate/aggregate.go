package aggregate

import (
	"sort"

	"github.com/de-tools/cost-lens/pkg/models/domain"
	"github.com/de-tools/cost-lens/pkg/services/report/facts"
)

// Pure functions over a row-id set and the fact table. An empty set always
// yields zero-valued results, never an error. Every group-by satisfies the
// consistency contract: its totals sum to SumCosts of the same row set.

// SumCosts accumulates both currencies over a row set.
func SumCosts(table *facts.Table, rowIDs map[int]struct{}) domain.CostAmount {
	var sum domain.CostAmount
	for id := range rowIDs {
		row := table.Rows[id]
		sum.Local += row.CostLocal
		sum.USD += row.CostUSD
	}
	return sum
}

// TrendByDay groups a row set by day, ascending. The ISO day format is
// fixed-width and zero-padded, so string comparison orders correctly.
func TrendByDay(table *facts.Table, rowIDs map[int]struct{}) []domain.TrendPoint {
	byDay := map[string]*domain.TrendPoint{}
	for id := range rowIDs {
		row := table.Rows[id]
		p, ok := byDay[row.Day]
		if !ok {
			p = &domain.TrendPoint{Day: row.Day}
			byDay[row.Day] = p
		}
		p.Local += row.CostLocal
		p.USD += row.CostUSD
	}

	trend := make([]domain.TrendPoint, 0, len(byDay))
	for _, p := range byDay {
		trend = append(trend, *p)
	}
	sort.Slice(trend, func(i, j int) bool { return trend[i].Day < trend[j].Day })
	return trend
}

// GroupByCategory groups by meter category.
func GroupByCategory(table *facts.Table, rowIDs map[int]struct{}) []domain.GroupTotal {
	return groupBy(table, rowIDs, func(row domain.FactRow) (string, string) {
		return row.MeterCategory, row.MeterCategory
	})
}

// GroupByMeter groups by meter name.
func GroupByMeter(table *facts.Table, rowIDs map[int]struct{}) []domain.GroupTotal {
	return groupBy(table, rowIDs, func(row domain.FactRow) (string, string) {
		return row.MeterName, row.MeterName
	})
}

// GroupByResource groups by canonical resource key; labels use the display
// resource name.
func GroupByResource(table *facts.Table, rowIDs map[int]struct{}) []domain.GroupTotal {
	return groupBy(table, rowIDs, func(row domain.FactRow) (string, string) {
		return row.ResourceKey, row.ResourceName
	})
}

// GroupBySubscription groups by subscription id; labels use the display name.
func GroupBySubscription(table *facts.Table, rowIDs map[int]struct{}) []domain.GroupTotal {
	return groupBy(table, rowIDs, func(row domain.FactRow) (string, string) {
		return row.SubscriptionID, row.SubscriptionName
	})
}

func groupBy(table *facts.Table, rowIDs map[int]struct{}, keyOf func(domain.FactRow) (key, label string)) []domain.GroupTotal {
	byKey := map[string]*domain.GroupTotal{}
	for id := range rowIDs {
		row := table.Rows[id]
		key, label := keyOf(row)
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
	SortGroups(groups)
	return groups
}

// SortGroups orders groups by local cost descending, breaking ties on the
// canonical key so repeated runs order identically even when display names
// collide.
func SortGroups(groups []domain.GroupTotal) {
	sort.Slice(groups, func(i, j int) bool {
		if groups[i].Local != groups[j].Local {
			return groups[i].Local > groups[j].Local
		}
		return groups[i].Key < groups[j].Key
	})
}

// Intersect returns the rows present in the set and the index bucket,
// iterating whichever side is smaller.
func Intersect(set map[int]struct{}, bucket []int) map[int]struct{} {
	out := map[int]struct{}{}
	if len(bucket) <= len(set) {
		for _, id := range bucket {
			if _, ok := set[id]; ok {
				out[id] = struct{}{}
			}
		}
		return out
	}
	// Buckets are built in ascending row order, so the smaller set side can
	// probe them with a binary search.
	for id := range set {
		at := sort.SearchInts(bucket, id)
		if at < len(bucket) && bucket[at] == id {
			out[id] = struct{}{}
		}
	}
	return out
}
