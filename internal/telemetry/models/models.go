// Package models holds the usage and spend types read from and written to
// the telemetry store and the agent event log.
package models

import "time"

// Window is the time range of a spend aggregate.
type Window string

const (
	WindowToday Window = "today"
	WindowMonth Window = "month"
)

func (w Window) IsValid() bool {
	return w == WindowToday || w == WindowMonth
}

// Tag selects rows by source or endpoint.
type Tag struct {
	Source   string
	Endpoint string
}

// TagTestRuns matches rows written by the self-test routine.
var TagTestRuns = Tag{Source: "test", Endpoint: "run-tests"}

// Aggregate is a spend total. TotalUSD is always finite.
type Aggregate struct {
	Window     Window    `json:"window,omitempty"`
	TotalUSD   float64   `json:"total_usd"`
	ComputedAt time.Time `json:"computed_at"`
}

// DailyUsage is today's request and token volume.
type DailyUsage struct {
	Tokens   int64
	Requests int64
}

// LLMMetrics is the dashboard summary served by /metrics/llm.
type LLMMetrics struct {
	CostTodayUSD  float64 `json:"cost_today_usd"`
	CostMonthUSD  float64 `json:"cost_month_usd"`
	TokensToday   int64   `json:"tokens_today"`
	RequestsToday int64   `json:"requests_today"`
	MostUsedModel string  `json:"most_used_model"`
	Source        string  `json:"source"`
}

// Usage is one row for the telemetry store.
type Usage struct {
	Source    string
	Endpoint  string
	Operation string
	Model     string
	Agent     string
	Tokens    int64
	CostUSD   float64
}

// EventSummary is built from the agent event log when the store is
// unavailable.
type EventSummary struct {
	Source        string           `json:"source"`
	TotalEvents   int              `json:"total_events"`
	EventsByActor map[string]int   `json:"events_by_actor"`
	Recent        []map[string]any `json:"recent_events"`
	Skipped       int              `json:"skipped_lines"`
}
