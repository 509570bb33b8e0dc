package notify

import (
	"context"
	"encoding/json"
	"time"

	"github.com/hibiken/asynq"

	"refund-backend/internal/shared"
	"refund-backend/pkg/logger"
)

// =====================================================
// EVENT DISPATCHER
// =====================================================

// Dispatcher delivers the outbound events a state transition produced.
// Services call it after their transaction commits; a delivery failure is
// logged and dropped, it never fails the transition.
type Dispatcher interface {
	Dispatch(ctx context.Context, events ...shared.Event)
}

type asynqDispatcher struct {
	client *asynq.Client
}

func NewAsynqDispatcher(client *asynq.Client) Dispatcher {
	return &asynqDispatcher{client: client}
}

func (d *asynqDispatcher) Dispatch(ctx context.Context, events ...shared.Event) {
	for _, event := range events {
		payload, err := json.Marshal(event)
		if err != nil {
			logger.Error("Failed to marshal event "+event.Name, err)
			continue
		}

		task := asynq.NewTask(shared.TypeDispatchEvent, payload)

		_, err = d.client.EnqueueContext(ctx, task,
			asynq.Queue(shared.QueueNotification),
			asynq.MaxRetry(5),
			asynq.Timeout(30*time.Second),
		)
		if err != nil {
			logger.Error("Failed to enqueue event "+event.Name, err)
		}
	}
}

// NopDispatcher drops all events. Used in tests and tools that do not run a
// queue.
type NopDispatcher struct{}

func (NopDispatcher) Dispatch(ctx context.Context, events ...shared.Event) {}
