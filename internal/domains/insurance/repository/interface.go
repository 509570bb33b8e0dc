package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"refund-backend/internal/domains/insurance/model"
)

type FundRepoInterface interface {
	// BalanceForUpdateWithTx locks the tenant's balance row, creating it
	// at zero on first use. Serializes concurrent ledger writes.
	BalanceForUpdateWithTx(ctx context.Context, tx pgx.Tx, tenantID uuid.UUID) (int64, error)
	SetBalanceWithTx(ctx context.Context, tx pgx.Tx, tenantID uuid.UUID, balance int64) error
	InsertEntryWithTx(ctx context.Context, tx pgx.Tx, entry *model.FundEntry) error

	Balance(ctx context.Context, tenantID uuid.UUID) (int64, error)
	ListEntries(ctx context.Context, tenantID uuid.UUID, query model.ListEntriesQuery) ([]*model.FundEntry, int, error)
	Stats(ctx context.Context, tenantID uuid.UUID) (*model.FundStats, error)
}
