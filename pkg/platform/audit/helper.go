package audit

import (
	"context"
	"log/slog"
	"time"

	"opsgate/pkg/requestcontext"
)

// Emitter is the interface for audit event emission.
// Satisfied by publisher.Publisher.
type Emitter interface {
	Emit(ctx context.Context, event Event) error
}

// Logger writes an audit entry to the text log and, when an emitter is
// configured, to the event log.
type Logger struct {
	textLogger *slog.Logger
	emitter    Emitter
}

// NewLogger creates an audit logger. emitter may be nil.
func NewLogger(textLogger *slog.Logger, emitter Emitter) *Logger {
	return &Logger{
		textLogger: textLogger,
		emitter:    emitter,
	}
}

// Log records action with status and metadata. The request id from ctx is
// attached to both sinks.
//
// Usage:
//
//	l.Log(ctx, audit.ActionKillSwitchUpdate, audit.StatusOK, map[string]any{"enabled": true})
func (l *Logger) Log(ctx context.Context, action Action, status string, metadata map[string]any) {
	l.LogAs(ctx, "", action, status, metadata)
}

// LogAs is Log with an explicit actor recorded on the event.
func (l *Logger) LogAs(ctx context.Context, actor string, action Action, status string, metadata map[string]any) {
	if l == nil {
		return
	}
	requestID := requestcontext.RequestID(ctx)

	if l.textLogger != nil {
		l.textLogger.InfoContext(ctx, string(action),
			"status", status,
			"actor", actor,
			"request_id", requestID,
			"metadata", metadata,
			"log_type", "audit",
		)
	}

	if l.emitter == nil {
		return
	}
	event := Event{
		Timestamp: time.Now().UTC(),
		Actor:     actor,
		Action:    string(action),
		Status:    status,
		RequestID: requestID,
		Metadata:  metadata,
	}
	if status == StatusError {
		event.Level = "error"
	}
	if err := l.emitter.Emit(ctx, event); err != nil && l.textLogger != nil {
		l.textLogger.ErrorContext(ctx, "failed to emit audit event",
			"error", err,
			"action", action,
		)
	}
}
