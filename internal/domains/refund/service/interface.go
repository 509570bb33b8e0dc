package service

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"refund-backend/internal/domains/refund/model"
	"refund-backend/internal/shared"
)

// =====================================================
// SERVICE INTERFACES
// =====================================================

// RefundServiceInterface owns the request lifecycle outside of approval and
// gateway processing: intake, cancellation, evidence, manual settlement and
// reporting.
type RefundServiceInterface interface {
	Create(ctx context.Context, tenantID uuid.UUID, actor shared.Actor, req model.CreateRefundRequest) (*model.RefundRequest, error)
	Get(ctx context.Context, tenantID, id uuid.UUID) (*model.RefundRequest, error)
	List(ctx context.Context, tenantID uuid.UUID, query model.ListRefundsQuery) ([]*model.RefundRequest, int, error)
	Cancel(ctx context.Context, tenantID, id uuid.UUID, actor shared.Actor, req model.CancelRefundRequest) (*model.RefundRequest, error)
	AttachEvidence(ctx context.Context, tenantID, id uuid.UUID, actor shared.Actor, req model.AttachEvidenceRequest) error
	// CompleteManual settles a manual-method refund that an operator paid
	// out of band, recording the external disbursement reference.
	CompleteManual(ctx context.Context, tenantID, id uuid.UUID, actor shared.Actor, req model.ManualCompleteRequest) (*model.RefundRequest, error)
	Stats(ctx context.Context, tenantID uuid.UUID) (*model.Stats, error)
}

// ApprovalServiceInterface runs the step-by-step approval workflow.
type ApprovalServiceInterface interface {
	// InitializeWithTx derives the required steps for a refund, persists
	// them inside the caller's transaction and returns the refund status
	// matching the first step. A refund that needs no approval gets no
	// steps and comes back approved.
	InitializeWithTx(ctx context.Context, tx pgx.Tx, refund *model.RefundRequest, actor shared.Actor) (string, []shared.Event, error)

	// Decide records the actor's decision on the refund's current step and
	// either advances the workflow or finalizes the refund.
	Decide(ctx context.Context, tenantID, refundID uuid.UUID, actor shared.Actor, req model.DecideStepRequest) (*model.WorkflowStep, error)
	Escalate(ctx context.Context, tenantID, refundID uuid.UUID, actor shared.Actor, req model.EscalateStepRequest) (*model.WorkflowStep, error)

	ListSteps(ctx context.Context, tenantID, refundID uuid.UUID) ([]*model.WorkflowStep, error)

	// SweepOverdue flags steps past their due time and auto-escalates the
	// ones past the grace window. Returns how many steps were touched.
	SweepOverdue(ctx context.Context, limit int) (int, error)
}

// ProcessingServiceInterface pushes approved refunds through a gateway
// adapter and applies the outcome.
type ProcessingServiceInterface interface {
	Process(ctx context.Context, tenantID, refundID uuid.UUID, actor shared.Actor) (*model.RefundRequest, error)
	Retry(ctx context.Context, tenantID, refundID uuid.UUID, actor shared.Actor) (*model.RefundRequest, error)
}

// =====================================================
// CROSS-DOMAIN COLLABORATORS
// =====================================================

// LiabilityParams is what the liability tracker needs to open a claim when a
// vendor-fault refund is created.
type LiabilityParams struct {
	TenantID       uuid.UUID
	RefundID       uuid.UUID
	OrderID        uuid.UUID
	VendorID       uuid.UUID
	Amount         int64
	ReasonCategory string
}

// LiabilityRecorder is implemented by the vendor liability service.
type LiabilityRecorder interface {
	CreateForRefundWithTx(ctx context.Context, tx pgx.Tx, params LiabilityParams) error
}

// InsuranceFund is implemented by the insurance fund service. Withdraw runs
// in the completion transaction so the ledger never diverges from refund
// state.
type InsuranceFund interface {
	WithdrawWithTx(ctx context.Context, tx pgx.Tx, tenantID, refundID uuid.UUID, amount int64) ([]shared.Event, error)
}
