package notify

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/hibiken/asynq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"refund-backend/internal/shared"
)

type recordingSink struct {
	events []shared.Event
	err    error
}

func (s *recordingSink) Deliver(ctx context.Context, event shared.Event) error {
	if s.err != nil {
		return s.err
	}
	s.events = append(s.events, event)
	return nil
}

func eventTask(t *testing.T, event shared.Event) *asynq.Task {
	t.Helper()
	payload, err := json.Marshal(event)
	require.NoError(t, err)
	return asynq.NewTask(shared.TypeDispatchEvent, payload)
}

func TestDispatchEventHandler_DeliversToAllSinks(t *testing.T) {
	first := &recordingSink{}
	second := &recordingSink{}
	handler := NewDispatchEventHandler(first, second)

	event := shared.NewEvent(shared.EventRefundCompleted, "tenant-1", map[string]interface{}{
		"refund_id": "abc",
	})

	err := handler.ProcessTask(context.Background(), eventTask(t, event))
	require.NoError(t, err)

	require.Len(t, first.events, 1)
	require.Len(t, second.events, 1)
	assert.Equal(t, event.ID, first.events[0].ID)
	assert.Equal(t, shared.EventRefundCompleted, first.events[0].Name)
	assert.Equal(t, "tenant-1", first.events[0].TenantID)
}

func TestDispatchEventHandler_SinkFailureReturnsError(t *testing.T) {
	failing := &recordingSink{err: errors.New("webhook down")}
	handler := NewDispatchEventHandler(failing)

	event := shared.NewEvent(shared.EventStepEscalated, "tenant-1", nil)
	err := handler.ProcessTask(context.Background(), eventTask(t, event))
	assert.Error(t, err, "a failed delivery must surface so asynq retries the task")
}

func TestDispatchEventHandler_RejectsMalformedPayload(t *testing.T) {
	handler := NewDispatchEventHandler(&recordingSink{})
	task := asynq.NewTask(shared.TypeDispatchEvent, []byte("{not json"))
	assert.Error(t, handler.ProcessTask(context.Background(), task))
}

func TestNewDispatchEventHandler_DefaultsToLogSink(t *testing.T) {
	handler := NewDispatchEventHandler()
	require.Len(t, handler.sinks, 1)
	assert.IsType(t, LogSink{}, handler.sinks[0])
}
