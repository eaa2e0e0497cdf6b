package facts

import (
	"context"
	"testing"

	"github.com/de-tools/cost-lens/pkg/models/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testTable(t *testing.T) *Table {
	t.Helper()
	table := Normalize(context.Background(), []domain.RawUsageRecord{
		{Date: "2024-01-01", SubscriptionID: "sub-1", MeterCategory: "Compute", MeterSubcategory: "VM", MeterName: "D2", ResourceID: "res-a", CostLocal: 10},
		{Date: "2024-01-01", SubscriptionID: "sub-2", MeterCategory: "Compute", MeterSubcategory: "VM", MeterName: "D4", ResourceID: "res-b", CostLocal: 5},
		{Date: "2024-01-02", SubscriptionID: "sub-1", MeterCategory: "Storage", MeterSubcategory: "Blob", MeterName: "LRS", CostLocal: 2},
	})
	require.Equal(t, 3, table.Len())
	return table
}

func TestBuildIndex_Buckets(t *testing.T) {
	idx := BuildIndex(testTable(t))

	assert.Equal(t, []int{0, 2}, idx.SubscriptionID["sub-1"])
	assert.Equal(t, []int{1}, idx.SubscriptionID["sub-2"])
	assert.Equal(t, []int{0, 1}, idx.Category["Compute"])
	assert.Equal(t, []int{0, 1}, idx.Day["2024-01-01"])
	assert.Equal(t, []int{0}, idx.ResourceID["res-a"])
	assert.Empty(t, idx.ResourceID["sub-1|N/A|(no resource)"], "composite keys are not resource-id pickable")
	assert.Equal(t, []int{2}, idx.ResourceKey["sub-1|N/A|(no resource)"])
}

func TestBuildIndex_DualSubcategoryKeys(t *testing.T) {
	idx := BuildIndex(testTable(t))

	// The global bucket unions the scoped buckets of the same subcategory.
	global := idx.SubcategoryGlobal[SubcategoryGlobalKey("Compute", "VM")]
	assert.Equal(t, []int{0, 1}, global)

	scopedSub1 := idx.SubcategoryScoped[SubcategoryScopedKey("sub-1", "Compute", "VM")]
	scopedSub2 := idx.SubcategoryScoped[SubcategoryScopedKey("sub-2", "Compute", "VM")]
	assert.Equal(t, []int{0}, scopedSub1)
	assert.Equal(t, []int{1}, scopedSub2)
	assert.ElementsMatch(t, global, append(append([]int{}, scopedSub1...), scopedSub2...))
}
