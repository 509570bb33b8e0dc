package notify

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/hibiken/asynq"

	"refund-backend/internal/shared"
	"refund-backend/pkg/logger"
)

// ================================================
// EVENT DELIVERY JOB HANDLER
// ================================================

// Sink receives dispatched events on the worker side. Webhook and email
// deliveries plug in here.
type Sink interface {
	Deliver(ctx context.Context, event shared.Event) error
}

// LogSink writes events to the structured log. It is the default sink and
// the audit trail when no external delivery target is configured.
type LogSink struct{}

func (LogSink) Deliver(ctx context.Context, event shared.Event) error {
	logger.Info("Event delivered", map[string]interface{}{
		"event_id":    event.ID,
		"event_name":  event.Name,
		"tenant_id":   event.TenantID,
		"occurred_at": event.OccurredAt,
		"payload":     event.Payload,
	})
	return nil
}

type DispatchEventHandler struct {
	sinks []Sink
}

func NewDispatchEventHandler(sinks ...Sink) *DispatchEventHandler {
	if len(sinks) == 0 {
		sinks = []Sink{LogSink{}}
	}
	return &DispatchEventHandler{sinks: sinks}
}

func (h *DispatchEventHandler) ProcessTask(ctx context.Context, t *asynq.Task) error {
	var event shared.Event
	if err := json.Unmarshal(t.Payload(), &event); err != nil {
		return fmt.Errorf("unmarshal event payload: %w", err)
	}

	for _, sink := range h.sinks {
		if err := sink.Deliver(ctx, event); err != nil {
			return fmt.Errorf("deliver event %s to sink: %w", event.Name, err)
		}
	}

	return nil
}
