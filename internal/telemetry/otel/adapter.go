package otel

import (
	"context"

	otellog "go.opentelemetry.io/otel/log"
	sdklog "go.opentelemetry.io/otel/sdk/log"

	"session-gate/internal/telemetry"
)

// NewEventEmitter returns an EventEmitter that sends auth events as OTel log
// records via the given LoggerProvider. If provider is nil, returns a no-op
// emitter.
func NewEventEmitter(provider *sdklog.LoggerProvider) telemetry.EventEmitter {
	if provider == nil {
		return telemetry.Noop{}
	}
	return &otelEmitter{logger: provider.Logger("session-gate.auth")}
}

type otelEmitter struct {
	logger otellog.Logger
}

// Emit converts the event to an OTel log record and emits it. Best-effort.
func (e *otelEmitter) Emit(ctx context.Context, ev telemetry.Event) {
	rec := otellog.Record{}
	if !ev.CreatedAt.IsZero() {
		rec.SetTimestamp(ev.CreatedAt)
	}
	rec.SetBody(otellog.StringValue(ev.Action))
	rec.AddAttributes(otellog.String("action", ev.Action))
	if ev.AccountID != "" {
		rec.AddAttributes(otellog.String("account_id", ev.AccountID))
	}
	if ev.SessionID != "" {
		rec.AddAttributes(otellog.String("session_id", ev.SessionID))
	}
	if ev.Outcome != "" {
		rec.AddAttributes(otellog.String("outcome", ev.Outcome))
	}
	e.logger.Emit(ctx, rec)
}
