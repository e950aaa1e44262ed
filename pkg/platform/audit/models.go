package audit

import (
	"context"
	"time"
)

// Event is one line of the append-only system event log. The JSON shape is
// shared with the agent event log that the telemetry fallback reads.
type Event struct {
	Timestamp time.Time      `json:"timestamp"`
	Actor     string         `json:"actor,omitempty"`
	Action    string         `json:"action"`
	Status    string         `json:"status"`
	Level     string         `json:"level,omitempty"`
	RequestID string         `json:"request_id,omitempty"`
	Metadata  map[string]any `json:"metadata,omitempty"`
}

// Store persists events. Implementations must be safe for concurrent use.
type Store interface {
	Append(ctx context.Context, event Event) error
}

type Action string

const (
	ActionRequest          Action = "request"
	ActionAuthReject       Action = "auth_reject"
	ActionRateLimitBlock   Action = "rate_limit_block"
	ActionKillSwitchBlock  Action = "kill_switch_block"
	ActionKillSwitchUpdate Action = "kill_switch_update"
	ActionCostGuardBlock   Action = "cost_guard_block"
	ActionSystemStatus     Action = "system_status"
	ActionRunTests         Action = "run_tests"
	ActionMetricsLLM       Action = "metrics_llm"
)

const (
	StatusOK       = "ok"
	StatusReceived = "received"
	StatusBlocked  = "blocked"
	StatusError    = "error"
)
