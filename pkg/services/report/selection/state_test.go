package selection

import (
	"context"
	"testing"

	"github.com/de-tools/cost-lens/pkg/models/domain"
	"github.com/de-tools/cost-lens/pkg/services/report/facts"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testState(t *testing.T) (*State, *facts.Table) {
	t.Helper()
	table := facts.Normalize(context.Background(), []domain.RawUsageRecord{
		{Date: "2024-01-01", SubscriptionID: "sub-1", MeterCategory: "Compute", MeterName: "VM-Hours", ResourceID: "res-a", CostLocal: 10},
		{Date: "2024-01-01", SubscriptionID: "sub-1", MeterCategory: "Storage", MeterName: "Blob-GB", ResourceID: "res-b", CostLocal: 5},
		{Date: "2024-01-02", SubscriptionID: "sub-2", MeterCategory: "Compute", MeterName: "VM-Hours", ResourceID: "res-c", CostLocal: 8},
		{Date: "2024-01-03", SubscriptionID: "sub-2", MeterCategory: "Network", MeterName: "Egress-GB", CostLocal: 2},
	})
	require.Equal(t, 4, table.Len())
	return NewState(table, facts.BuildIndex(table)), table
}

func rowIDs(set map[int]struct{}) []int {
	ids := make([]int, 0, len(set))
	for id := range set {
		ids = append(ids, id)
	}
	return ids
}

func TestScopeRowIDs_EmptyScopeReturnsEveryRow(t *testing.T) {
	state, table := testState(t)
	scope := state.ScopeRowIDs()
	assert.Len(t, scope, table.Len())
}

func TestScopeRowIDs_SubscriptionAndDayRangeIntersect(t *testing.T) {
	state, _ := testState(t)

	state.SetScopeSubscriptions([]string{"sub-2"})
	assert.ElementsMatch(t, []int{2, 3}, rowIDs(state.ScopeRowIDs()))

	state.SetScopeDayRange("2024-01-01", "2024-01-02")
	assert.ElementsMatch(t, []int{2}, rowIDs(state.ScopeRowIDs()))
}

func TestScopeRowIDs_NarrowScopeNotWidened(t *testing.T) {
	state, _ := testState(t)

	state.SetScopeSubscriptions([]string{"sub-1"})
	state.SetScopeDayRange("2024-02-01", "2024-02-28")
	assert.Empty(t, state.ScopeRowIDs(), "a scope matching nothing stays empty")
}

func TestSetScopeSubscriptions_FullSetNormalizesToEmpty(t *testing.T) {
	state, table := testState(t)

	state.SetScopeSubscriptions([]string{"sub-1", "sub-2"})
	assert.Empty(t, state.ScopedSubscriptions())
	assert.Len(t, state.ScopeRowIDs(), table.Len())
}

func TestActiveRowIDs_PicksUnionAcrossDimensions(t *testing.T) {
	state, _ := testState(t)

	// The resource dimensions share an exclusivity group, so both sets can be
	// non-empty at once; the active set is the union of all non-empty sets.
	require.NoError(t, state.TogglePick(DimResourceKey, "res-a", ModeToggle))
	require.NoError(t, state.TogglePick(DimResourceID, "res-c", ModeAdd))

	assert.ElementsMatch(t, []int{0, 2}, rowIDs(state.ActiveRowIDs()))
}

func TestActiveRowIDs_ScopeIntersectsPicks(t *testing.T) {
	state, _ := testState(t)

	state.SetScopeSubscriptions([]string{"sub-1"})
	require.NoError(t, state.TogglePick(DimCategory, "Compute", ModeReplace))

	assert.ElementsMatch(t, []int{0}, rowIDs(state.ActiveRowIDs()))
}

func TestTogglePick_CrossDimensionExclusivity(t *testing.T) {
	state, _ := testState(t)

	require.NoError(t, state.TogglePick(DimCategory, "Compute", ModeReplace))
	require.NoError(t, state.TogglePick(DimSubcategory, "Compute|N/A", ModeAdd))
	require.NoError(t, state.TogglePick(DimResourceKey, "res-a", ModeReplace))

	assert.Empty(t, state.Picks(DimCategory))
	assert.Empty(t, state.Picks(DimSubcategory))
	assert.Equal(t, []string{"res-a"}, state.Picks(DimResourceKey))
}

func TestTogglePick_ResourceDimensionsShareAGroup(t *testing.T) {
	state, _ := testState(t)

	require.NoError(t, state.TogglePick(DimResourceKey, "res-a", ModeToggle))
	require.NoError(t, state.TogglePick(DimResourceGroup, "N/A", ModeToggle))

	// Legacy resource dimensions do not clear the canonical one.
	assert.Equal(t, []string{"res-a"}, state.Picks(DimResourceKey))
	assert.Equal(t, []string{"N/A"}, state.Picks(DimResourceGroup))
}

func TestTogglePick_Modes(t *testing.T) {
	state, _ := testState(t)

	require.NoError(t, state.TogglePick(DimMeter, "VM-Hours", ModeToggle))
	require.NoError(t, state.TogglePick(DimMeter, "Blob-GB", ModeToggle))
	assert.Equal(t, []string{"Blob-GB", "VM-Hours"}, state.Picks(DimMeter))

	require.NoError(t, state.TogglePick(DimMeter, "VM-Hours", ModeToggle))
	assert.Equal(t, []string{"Blob-GB"}, state.Picks(DimMeter))

	require.NoError(t, state.TogglePick(DimMeter, "Egress-GB", ModeReplace))
	assert.Equal(t, []string{"Egress-GB"}, state.Picks(DimMeter))

	require.NoError(t, state.TogglePick(DimMeter, "Egress-GB", ModeRemove))
	assert.Empty(t, state.Picks(DimMeter))
	assert.False(t, state.HasPicks())
}

func TestTogglePick_Errors(t *testing.T) {
	state, _ := testState(t)

	assert.Error(t, state.TogglePick(Dimension("bogus"), "x", ModeToggle))
	assert.Error(t, state.TogglePick(DimMeter, "x", PickMode("bogus")))
}

func TestActiveRowIDs_Idempotent(t *testing.T) {
	state, _ := testState(t)

	state.SetScopeSubscriptions([]string{"sub-1"})
	require.NoError(t, state.TogglePick(DimCategory, "Compute", ModeToggle))

	first := rowIDs(state.ActiveRowIDs())
	second := rowIDs(state.ActiveRowIDs())
	assert.ElementsMatch(t, first, second)
}

func TestClearPicksAndScope(t *testing.T) {
	state, table := testState(t)

	state.SetScopeSubscriptions([]string{"sub-1"})
	require.NoError(t, state.TogglePick(DimCategory, "Compute", ModeToggle))

	state.ClearPicks()
	assert.False(t, state.HasPicks())
	assert.ElementsMatch(t, []int{0, 1}, rowIDs(state.ActiveRowIDs()))

	state.ClearScope()
	assert.Len(t, state.ActiveRowIDs(), table.Len())
}
