package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"refund-backend/internal/domains/order/model"
)

type OrderRepoInterface interface {
	GetByID(ctx context.Context, tenantID, id uuid.UUID) (*model.Order, error)
	GetByIDWithTx(ctx context.Context, tx pgx.Tx, tenantID, id uuid.UUID) (*model.Order, error)
	UpdatePaymentStatusWithTx(ctx context.Context, tx pgx.Tx, id uuid.UUID, status string) error
}
