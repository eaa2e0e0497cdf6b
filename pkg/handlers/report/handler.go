package report

import (
	"encoding/json"
	"net/http"
	"sync"

	"github.com/de-tools/cost-lens/pkg/models/api"
	"github.com/de-tools/cost-lens/pkg/models/domain"
	"github.com/de-tools/cost-lens/pkg/services/report"
	"github.com/de-tools/cost-lens/pkg/services/report/breakdown"
	"github.com/de-tools/cost-lens/pkg/services/report/selection"
	"github.com/rs/zerolog"
)

// Handler is the presentation-sync surface over one report session. The
// engine expects one fully-processed user action at a time, so the handler
// serializes access with a mutex; the session itself stays single-threaded.
type Handler struct {
	mu      sync.Mutex
	session *report.Session
}

func NewHandler(session *report.Session) *Handler {
	return &Handler{session: session}
}

func (h *Handler) GetSummary(w http.ResponseWriter, r *http.Request) {
	h.mu.Lock()
	summary := h.session.Summary()
	h.mu.Unlock()

	writeJSON(r, w, api.Summary{
		TotalLocal:        summary.TotalLocal,
		TotalUSD:          summary.TotalUSD,
		Currency:          summary.Currency,
		SubscriptionCount: summary.SubscriptionCount,
		CategoryCount:     summary.CategoryCount,
		TrendPercent:      summary.TrendPercent,
		TrendDirection:    string(summary.TrendDirection),
	})
}

func (h *Handler) GetChart(w http.ResponseWriter, r *http.Request) {
	view := r.URL.Query().Get("view")
	if view == "" {
		view = string(breakdown.ViewByCategory)
	}
	kind, err := breakdown.ParseViewKind(view)
	if err != nil {
		writeError(r, w, http.StatusBadRequest, err)
		return
	}

	h.mu.Lock()
	chart, err := h.session.Chart(kind)
	h.mu.Unlock()
	if err != nil {
		writeError(r, w, http.StatusBadRequest, err)
		return
	}

	response := api.ChartData{Days: chart.Days}
	for _, s := range chart.Series {
		response.Series = append(response.Series, api.ChartSeries{
			Key:    s.Key,
			Label:  s.Label,
			Values: s.Values,
			Total:  s.Total,
			Other:  s.Other,
		})
	}
	writeJSON(r, w, response)
}

func (h *Handler) GetDrilldown(w http.ResponseWriter, r *http.Request) {
	h.mu.Lock()
	tree := h.session.Drilldown()
	h.mu.Unlock()

	writeJSON(r, w, toAPINodes(tree))
}

func (h *Handler) GetSubscriptions(w http.ResponseWriter, r *http.Request) {
	h.mu.Lock()
	subs := h.session.AvailableSubscriptions()
	scoped := h.session.State().ScopedSubscriptions()
	h.mu.Unlock()

	response := make([]api.Subscription, 0, len(subs))
	for _, sub := range subs {
		_, inScope := scoped[sub.ID]
		response = append(response, api.Subscription{
			ID:     sub.ID,
			Name:   sub.Name,
			Scoped: inScope || len(scoped) == 0,
		})
	}
	writeJSON(r, w, response)
}

func (h *Handler) PutScope(w http.ResponseWriter, r *http.Request) {
	var req api.ScopeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(r, w, http.StatusBadRequest, err)
		return
	}

	h.mu.Lock()
	state := h.session.State()
	state.SetScopeSubscriptions(req.SubscriptionIDs)
	state.SetScopeDayRange(req.From, req.To)
	h.mu.Unlock()

	h.GetSummary(w, r)
}

func (h *Handler) PostPick(w http.ResponseWriter, r *http.Request) {
	var req api.PickRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(r, w, http.StatusBadRequest, err)
		return
	}

	dim := selection.Dimension(req.Dimension)
	mode := selection.PickMode(req.Mode)
	if mode == "" {
		mode = selection.ModeReplace
	}

	h.mu.Lock()
	state := h.session.State()
	// Re-clicking the sole replace-selection toggles it off.
	if mode == selection.ModeReplace {
		if picks := state.Picks(dim); len(picks) == 1 && picks[0] == req.Value {
			mode = selection.ModeToggle
		}
	}
	err := state.TogglePick(dim, req.Value, mode)
	h.mu.Unlock()
	if err != nil {
		writeError(r, w, http.StatusBadRequest, err)
		return
	}

	h.GetSummary(w, r)
}

func (h *Handler) DeletePicks(w http.ResponseWriter, r *http.Request) {
	h.mu.Lock()
	h.session.State().ClearPicks()
	h.mu.Unlock()

	h.GetSummary(w, r)
}

func toAPINodes(nodes []domain.DrilldownNode) []api.DrilldownNode {
	out := make([]api.DrilldownNode, 0, len(nodes))
	for _, n := range nodes {
		out = append(out, api.DrilldownNode{
			Key:       n.Key,
			Label:     n.Label,
			CostLocal: n.CostLocal,
			CostUSD:   n.CostUSD,
			ItemCount: n.ItemCount,
			Pickable:  n.Pickable,
			Children:  toAPINodes(n.Children),
		})
	}
	return out
}

func writeJSON(r *http.Request, w http.ResponseWriter, payload any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		zerolog.Ctx(r.Context()).Error().Err(err).Msg("failed to encode response")
	}
}

func writeError(r *http.Request, w http.ResponseWriter, status int, err error) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if encErr := json.NewEncoder(w).Encode(api.Error{Error: err.Error()}); encErr != nil {
		zerolog.Ctx(r.Context()).Error().Err(encErr).Msg("failed to encode error response")
	}
}
