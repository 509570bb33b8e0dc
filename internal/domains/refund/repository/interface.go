package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"refund-backend/internal/domains/refund/model"
)

// =====================================================
// REPOSITORY INTERFACES
// =====================================================
// Services depend on these interfaces so the workflow logic is testable
// with in-memory fakes. The WithTx variants run inside a caller-owned
// transaction; the rest manage their own connection.

type RefundRepoInterface interface {
	CreateWithTx(ctx context.Context, tx pgx.Tx, refund *model.RefundRequest) error

	GetByID(ctx context.Context, tenantID, id uuid.UUID) (*model.RefundRequest, error)
	// GetByIDForUpdate locks the row for the duration of tx, serializing
	// concurrent transitions on the same refund.
	GetByIDForUpdate(ctx context.Context, tx pgx.Tx, tenantID, id uuid.UUID) (*model.RefundRequest, error)
	// LockByID is GetByIDForUpdate without the tenant filter, for sweeps
	// that run across all tenants.
	LockByID(ctx context.Context, tx pgx.Tx, id uuid.UUID) (*model.RefundRequest, error)

	ReferenceExists(ctx context.Context, tenantID uuid.UUID, reference string) (bool, error)

	// SumForOrderWithTx returns the completed total and the total of
	// refunds still in flight (pending-ish, approved, processing) for an
	// order, read inside tx so eligibility checks see a consistent view.
	SumForOrderWithTx(ctx context.Context, tx pgx.Tx, orderID uuid.UUID) (completed, pending int64, err error)

	UpdateStatusWithTx(ctx context.Context, tx pgx.Tx, id uuid.UUID, status string) error
	MarkApprovedWithTx(ctx context.Context, tx pgx.Tx, id, approvedBy uuid.UUID) error
	MarkRejectedWithTx(ctx context.Context, tx pgx.Tx, id, rejectedBy uuid.UUID) error
	CancelWithTx(ctx context.Context, tx pgx.Tx, id uuid.UUID) error
	SetDisputedWithTx(ctx context.Context, tx pgx.Tx, id uuid.UUID, disputed bool) error
	// UpdateAmountForResolutionWithTx applies a dispute's final amount with
	// its recomputed fee and pushes the refund back to approved.
	UpdateAmountForResolutionWithTx(ctx context.Context, tx pgx.Tx, id uuid.UUID, finalAmount, processingFee int64) error

	// MarkProcessing is a compare-and-swap: approved -> processing. It runs
	// outside any caller transaction so the gateway call that follows never
	// holds a database transaction open.
	MarkProcessing(ctx context.Context, id uuid.UUID) error
	CompleteWithTx(ctx context.Context, tx pgx.Tx, id uuid.UUID, gatewayRefundID string, response map[string]interface{}, finalAmount int64) error
	FailWithTx(ctx context.Context, tx pgx.Tx, id uuid.UUID, errorCode, errorMessage string, response map[string]interface{}) error
	// ResetForRetry is a compare-and-swap: failed -> approved with the
	// retry counter incremented.
	ResetForRetry(ctx context.Context, id uuid.UUID) error

	AppendEvidence(ctx context.Context, tenantID, id uuid.UUID, objectRef string) error

	List(ctx context.Context, tenantID uuid.UUID, query model.ListRefundsQuery) ([]*model.RefundRequest, int, error)
	Stats(ctx context.Context, tenantID uuid.UUID) (*model.Stats, error)
}

type WorkflowRepoInterface interface {
	CreateBatchWithTx(ctx context.Context, tx pgx.Tx, steps []*model.WorkflowStep) error

	GetByID(ctx context.Context, id uuid.UUID) (*model.WorkflowStep, error)
	// GetCurrentForUpdate locks the current undecided step of a refund.
	GetCurrentForUpdate(ctx context.Context, tx pgx.Tx, refundID uuid.UUID) (*model.WorkflowStep, error)
	// NextPendingWithTx finds the first undecided step after the given
	// step number.
	NextPendingWithTx(ctx context.Context, tx pgx.Tx, refundID uuid.UUID, afterNumber int) (*model.WorkflowStep, error)

	DecideWithTx(ctx context.Context, tx pgx.Tx, id uuid.UUID, decision string, decidedBy uuid.UUID, reason *string) error
	ActivateWithTx(ctx context.Context, tx pgx.Tx, id uuid.UUID, dueAt time.Time) error
	EscalateWithTx(ctx context.Context, tx pgx.Tx, id, newAssignee uuid.UUID, newRole, reason string, dueAt time.Time) error

	ListByRefund(ctx context.Context, refundID uuid.UUID) ([]*model.WorkflowStep, error)
	// ListOverdue returns current, undecided steps past their due time.
	ListOverdue(ctx context.Context, limit int) ([]*model.WorkflowStep, error)
	MarkOverdue(ctx context.Context, id uuid.UUID) error
}

type TransactionRepoInterface interface {
	GetByID(ctx context.Context, tenantID, id uuid.UUID) (*model.Transaction, error)
}
