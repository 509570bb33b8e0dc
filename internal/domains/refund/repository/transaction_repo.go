package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"refund-backend/internal/domains/refund/model"
)

// =====================================================
// SOURCE TRANSACTION REPOSITORY IMPLEMENTATION
// =====================================================
// Read-only view over the payment ledger; the refund engine never writes
// payment transactions.

type transactionRepository struct {
	pool *pgxpool.Pool
}

func NewTransactionRepository(pool *pgxpool.Pool) TransactionRepoInterface {
	return &transactionRepository{pool: pool}
}

func (r *transactionRepository) GetByID(ctx context.Context, tenantID, id uuid.UUID) (*model.Transaction, error) {
	query := `
		SELECT
			id, tenant_id, order_id, reference, gateway,
			amount, currency, status, metadata, created_at
		FROM payment_transactions
		WHERE id = $1 AND tenant_id = $2
	`

	txn := &model.Transaction{}
	var metadataJSON []byte

	err := r.pool.QueryRow(ctx, query, id, tenantID).Scan(
		&txn.ID,
		&txn.TenantID,
		&txn.OrderID,
		&txn.Reference,
		&txn.Gateway,
		&txn.Amount,
		&txn.Currency,
		&txn.Status,
		&metadataJSON,
		&txn.CreatedAt,
	)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, model.ErrTransactionNotFound
		}
		return nil, fmt.Errorf("failed to get transaction: %w", err)
	}

	if metadataJSON != nil {
		if err := json.Unmarshal(metadataJSON, &txn.Metadata); err != nil {
			return nil, fmt.Errorf("failed to unmarshal transaction metadata: %w", err)
		}
	}

	return txn, nil
}
