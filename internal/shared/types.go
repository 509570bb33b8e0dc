package shared

import (
	"time"

	"github.com/google/uuid"
	"github.com/rs/xid"
)

// =====================================================
// ASYNQ QUEUES AND TASK TYPES
// =====================================================

const (
	QueueCritical     = "critical"
	QueueDefault      = "default"
	QueueNotification = "notification"
)

const (
	TypeDispatchEvent         = "event:dispatch"
	TypeSweepOverdueSteps     = "workflow:sweep_overdue_steps"
	TypeSweepOverdueLiability = "liability:sweep_overdue_claims"
)

// =====================================================
// OUTBOUND EVENTS
// =====================================================

// Event is an outbound side effect produced by a state transition. Services
// return events instead of firing notifications inline; the dispatcher
// enqueues them after the transaction commits, so a dispatch failure never
// rolls back the transition that produced it.
type Event struct {
	ID         string                 `json:"id"`
	Name       string                 `json:"name"`
	TenantID   string                 `json:"tenant_id"`
	OccurredAt time.Time              `json:"occurred_at"`
	Payload    map[string]interface{} `json:"payload,omitempty"`
}

// NewEvent stamps an event with a fresh id and the current time.
func NewEvent(name, tenantID string, payload map[string]interface{}) Event {
	return Event{
		ID:         xid.New().String(),
		Name:       name,
		TenantID:   tenantID,
		OccurredAt: time.Now().UTC(),
		Payload:    payload,
	}
}

// Event names, one per notification point.
const (
	EventRefundRequested = "refund.requested"
	EventRefundApproved  = "refund.approved"
	EventRefundRejected  = "refund.rejected"
	EventRefundCompleted = "refund.completed"
	EventRefundFailed    = "refund.failed"
	EventRefundCancelled = "refund.cancelled"

	EventStepAssigned  = "workflow.step_assigned"
	EventStepEscalated = "workflow.step_escalated"

	EventDisputeCreated   = "dispute.created"
	EventDisputeResolved  = "dispute.resolved"
	EventDisputeEscalated = "dispute.escalated"

	EventLiabilityOverdue = "liability.overdue"
	EventFundLowBalance   = "insurance_fund.low_balance"
)

// SweepPayload bounds a periodic sweep run.
type SweepPayload struct {
	Limit int `json:"limit"`
}

// Actor identifies who performs an operation. Extracted from the access
// token by the auth middleware and passed explicitly into every service
// call that mutates state.
type Actor struct {
	UserID uuid.UUID
	Role   string
}
