package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"refund-backend/internal/domains/liability/model"
)

type LiabilityRepoInterface interface {
	CreateWithTx(ctx context.Context, tx pgx.Tx, liability *model.VendorLiability) error

	GetByID(ctx context.Context, tenantID, id uuid.UUID) (*model.VendorLiability, error)
	GetByIDForUpdate(ctx context.Context, tx pgx.Tx, tenantID, id uuid.UUID) (*model.VendorLiability, error)

	AcknowledgeWithTx(ctx context.Context, tx pgx.Tx, id uuid.UUID) error
	DisputeWithTx(ctx context.Context, tx pgx.Tx, id uuid.UUID, reason string) error
	// ApplyRecoveryWithTx adds to recovered_amount and sets the status the
	// service computed (partially_recovered or recovered).
	ApplyRecoveryWithTx(ctx context.Context, tx pgx.Tx, id uuid.UUID, amount int64, newStatus string) error
	WriteOffWithTx(ctx context.Context, tx pgx.Tx, id uuid.UUID, reason string) error
	WaiveWithTx(ctx context.Context, tx pgx.Tx, id uuid.UUID, reason string) error

	List(ctx context.Context, tenantID uuid.UUID, query model.ListLiabilitiesQuery) ([]*model.VendorLiability, int, error)
	// VendorAggregates feeds the risk score.
	VendorAggregates(ctx context.Context, tenantID, vendorID uuid.UUID) (*model.VendorAggregates, error)

	// ListOverdue returns open claims past their follow-up window.
	ListOverdue(ctx context.Context, limit int) ([]*model.VendorLiability, error)
	MarkOverdue(ctx context.Context, id uuid.UUID) error
}
