package facts

// Index holds the inverted dimension indices: dimension value → row indices
// carrying that value. Built in one pass and read-only afterwards; buckets are
// ascending because rows are visited in order.
//
// Subcategories are indexed twice on purpose: the scoped form
// (subscription|category|subcategory) serves per-subscription drill-downs, the
// global form (category|subcategory) serves snapshot-wide breakdowns. Both
// resolve to the same rows when scoped identically.
type Index struct {
	SubscriptionID    map[string][]int
	SubscriptionName  map[string][]int
	Category          map[string][]int
	SubcategoryScoped map[string][]int
	SubcategoryGlobal map[string][]int
	Meter             map[string][]int
	ResourceID        map[string][]int
	ResourceKey       map[string][]int
	ResourceName      map[string][]int
	ResourceGroup     map[string][]int
	Day               map[string][]int
}

// BuildIndex indexes every dimension of the fact table in a single pass.
func BuildIndex(table *Table) *Index {
	idx := &Index{
		SubscriptionID:    map[string][]int{},
		SubscriptionName:  map[string][]int{},
		Category:          map[string][]int{},
		SubcategoryScoped: map[string][]int{},
		SubcategoryGlobal: map[string][]int{},
		Meter:             map[string][]int{},
		ResourceID:        map[string][]int{},
		ResourceKey:       map[string][]int{},
		ResourceName:      map[string][]int{},
		ResourceGroup:     map[string][]int{},
		Day:               map[string][]int{},
	}

	for i, row := range table.Rows {
		idx.SubscriptionID[row.SubscriptionID] = append(idx.SubscriptionID[row.SubscriptionID], i)
		idx.SubscriptionName[row.SubscriptionName] = append(idx.SubscriptionName[row.SubscriptionName], i)
		idx.Category[row.MeterCategory] = append(idx.Category[row.MeterCategory], i)

		scoped := SubcategoryScopedKey(row.SubscriptionID, row.MeterCategory, row.MeterSubcategory)
		global := SubcategoryGlobalKey(row.MeterCategory, row.MeterSubcategory)
		idx.SubcategoryScoped[scoped] = append(idx.SubcategoryScoped[scoped], i)
		idx.SubcategoryGlobal[global] = append(idx.SubcategoryGlobal[global], i)

		idx.Meter[row.MeterName] = append(idx.Meter[row.MeterName], i)

		if row.HasResourceID() {
			idx.ResourceID[row.ResourceID] = append(idx.ResourceID[row.ResourceID], i)
		}
		idx.ResourceKey[row.ResourceKey] = append(idx.ResourceKey[row.ResourceKey], i)
		idx.ResourceName[row.ResourceName] = append(idx.ResourceName[row.ResourceName], i)
		idx.ResourceGroup[row.ResourceGroup] = append(idx.ResourceGroup[row.ResourceGroup], i)
		idx.Day[row.Day] = append(idx.Day[row.Day], i)
	}

	return idx
}
