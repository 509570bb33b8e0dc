package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"refund-backend/internal/domains/dispute/model"
)

type DisputeRepoInterface interface {
	CreateWithTx(ctx context.Context, tx pgx.Tx, dispute *model.Dispute) error

	GetByID(ctx context.Context, tenantID, id uuid.UUID) (*model.Dispute, error)
	GetByIDForUpdate(ctx context.Context, tx pgx.Tx, tenantID, id uuid.UUID) (*model.Dispute, error)
	// HasActiveForRefundWithTx enforces the one-active-dispute rule inside
	// the creating transaction.
	HasActiveForRefundWithTx(ctx context.Context, tx pgx.Tx, refundID uuid.UUID) (bool, error)

	RespondWithTx(ctx context.Context, tx pgx.Tx, id, respondedBy uuid.UUID, response string) error
	EscalateWithTx(ctx context.Context, tx pgx.Tx, id uuid.UUID) error
	ResolveWithTx(ctx context.Context, tx pgx.Tx, id, resolvedBy uuid.UUID, resolutionType string, finalAmount *int64, notes string) error

	List(ctx context.Context, tenantID uuid.UUID, query model.ListDisputesQuery) ([]*model.Dispute, int, error)
}
