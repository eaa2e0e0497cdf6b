package server

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/de-tools/cost-lens/pkg/models/api"
	"github.com/de-tools/cost-lens/pkg/models/domain"
	"github.com/de-tools/cost-lens/pkg/services/report"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testAPI(t *testing.T) *WebAPI {
	t.Helper()
	session := report.NewSession(context.Background(), []domain.RawUsageRecord{
		{Date: "2024-01-01", SubscriptionID: "sub-1", SubscriptionName: "Prod", MeterCategory: "Compute", MeterName: "D2", ResourceID: "res-a", CostLocal: 10, CostUSD: 10, Currency: "USD"},
		{Date: "2024-01-01", SubscriptionID: "sub-2", SubscriptionName: "Dev", MeterCategory: "Storage", MeterName: "LRS", ResourceID: "res-b", CostLocal: 5, CostUSD: 5, Currency: "USD"},
		{Date: "2024-01-02", SubscriptionID: "sub-1", SubscriptionName: "Prod", MeterCategory: "Compute", MeterName: "D2", ResourceID: "res-a", CostLocal: 8, CostUSD: 8, Currency: "USD"},
	})

	logger := zerolog.New(zerolog.NewTestWriter(t))
	return NewWebAPI(logger, Config{
		Addr: ":0",
		Dependencies: Dependencies{
			Session: session,
		},
	})
}

func doJSON(t *testing.T, router http.Handler, method, path string, body any, out any) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(payload)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if out != nil && rec.Code == http.StatusOK {
		require.NoError(t, json.NewDecoder(rec.Body).Decode(out))
	}
	return rec
}

func TestReportAPI_Summary(t *testing.T) {
	webAPI := testAPI(t)

	var summary api.Summary
	rec := doJSON(t, webAPI.Router(), http.MethodGet, "/api/v1/report/summary", nil, &summary)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 23.0, summary.TotalLocal)
	assert.Equal(t, 2, summary.SubscriptionCount)
	assert.Equal(t, 2, summary.CategoryCount)
}

func TestReportAPI_ChartDefaultsToCategory(t *testing.T) {
	webAPI := testAPI(t)

	var chart api.ChartData
	rec := doJSON(t, webAPI.Router(), http.MethodGet, "/api/v1/report/chart", nil, &chart)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []string{"2024-01-01", "2024-01-02"}, chart.Days)
	require.Len(t, chart.Series, 2)
	assert.Equal(t, "Compute", chart.Series[0].Label)
}

func TestReportAPI_ChartRejectsUnknownView(t *testing.T) {
	webAPI := testAPI(t)

	rec := doJSON(t, webAPI.Router(), http.MethodGet, "/api/v1/report/chart?view=pie", nil, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestReportAPI_PickNarrowsSummary(t *testing.T) {
	webAPI := testAPI(t)
	router := webAPI.Router()

	var summary api.Summary
	rec := doJSON(t, router, http.MethodPost, "/api/v1/selection/pick",
		api.PickRequest{Dimension: "category", Value: "Storage", Mode: "replace"}, &summary)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 5.0, summary.TotalLocal)

	// Re-clicking the sole selection toggles it off.
	rec = doJSON(t, router, http.MethodPost, "/api/v1/selection/pick",
		api.PickRequest{Dimension: "category", Value: "Storage", Mode: "replace"}, &summary)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 23.0, summary.TotalLocal)
}

func TestReportAPI_PickRejectsUnknownDimension(t *testing.T) {
	webAPI := testAPI(t)

	rec := doJSON(t, webAPI.Router(), http.MethodPost, "/api/v1/selection/pick",
		api.PickRequest{Dimension: "bogus", Value: "x"}, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestReportAPI_ScopeAndClear(t *testing.T) {
	webAPI := testAPI(t)
	router := webAPI.Router()

	var summary api.Summary
	rec := doJSON(t, router, http.MethodPut, "/api/v1/selection/scope",
		api.ScopeRequest{SubscriptionIDs: []string{"sub-2"}}, &summary)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 5.0, summary.TotalLocal)

	var subs []api.Subscription
	rec = doJSON(t, router, http.MethodGet, "/api/v1/report/subscriptions", nil, &subs)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Len(t, subs, 2)
	for _, sub := range subs {
		assert.Equal(t, sub.ID == "sub-2", sub.Scoped)
	}

	rec = doJSON(t, router, http.MethodPut, "/api/v1/selection/scope", api.ScopeRequest{}, &summary)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 23.0, summary.TotalLocal)
}

func TestReportAPI_DrilldownAndClearPicks(t *testing.T) {
	webAPI := testAPI(t)
	router := webAPI.Router()

	var summary api.Summary
	rec := doJSON(t, router, http.MethodPost, "/api/v1/selection/pick",
		api.PickRequest{Dimension: "meter", Value: "D2", Mode: "toggle"}, &summary)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 18.0, summary.TotalLocal)

	var tree []api.DrilldownNode
	rec = doJSON(t, router, http.MethodGet, "/api/v1/report/drilldown", nil, &tree)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, tree, 2, "drill-down stays scope-wide while a pick is active")

	rec = doJSON(t, router, http.MethodDelete, "/api/v1/selection/picks", nil, &summary)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 23.0, summary.TotalLocal)
}
