package api

type Summary struct {
	TotalLocal        float64 `json:"total_local"`
	TotalUSD          float64 `json:"total_usd"`
	Currency          string  `json:"currency"`
	SubscriptionCount int     `json:"subscription_count"`
	CategoryCount     int     `json:"category_count"`
	TrendPercent      float64 `json:"trend_percent"`
	TrendDirection    string  `json:"trend_direction"`
}

type ChartSeries struct {
	Key    string    `json:"key"`
	Label  string    `json:"label"`
	Values []float64 `json:"values"`
	Total  float64   `json:"total"`
	Other  bool      `json:"other,omitempty"`
}

type ChartData struct {
	Days   []string      `json:"days"`
	Series []ChartSeries `json:"series"`
}

type DrilldownNode struct {
	Key       string          `json:"key"`
	Label     string          `json:"label"`
	CostLocal float64         `json:"cost_local"`
	CostUSD   float64         `json:"cost_usd"`
	ItemCount int             `json:"item_count"`
	Pickable  bool            `json:"pickable"`
	Children  []DrilldownNode `json:"children,omitempty"`
}

type Subscription struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Scoped bool   `json:"scoped"`
}

type ScopeRequest struct {
	SubscriptionIDs []string `json:"subscription_ids"`
	From            string   `json:"from,omitempty"`
	To              string   `json:"to,omitempty"`
}

type PickRequest struct {
	Dimension string `json:"dimension"`
	Value     string `json:"value"`
	Mode      string `json:"mode"`
}

type Error struct {
	Error string `json:"error"`
}
