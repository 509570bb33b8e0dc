package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"refund-backend/internal/domains/order/model"
)

type orderRepository struct {
	pool *pgxpool.Pool
}

func NewOrderRepository(pool *pgxpool.Pool) OrderRepoInterface {
	return &orderRepository{pool: pool}
}

const orderColumns = `
	id, tenant_id, vendor_id, total_amount, payment_status,
	created_at, updated_at`

func (r *orderRepository) scanOrder(row pgx.Row) (*model.Order, error) {
	order := &model.Order{}
	err := row.Scan(
		&order.ID,
		&order.TenantID,
		&order.VendorID,
		&order.TotalAmount,
		&order.PaymentStatus,
		&order.CreatedAt,
		&order.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, model.ErrOrderNotFound
		}
		return nil, fmt.Errorf("failed to get order: %w", err)
	}
	return order, nil
}

func (r *orderRepository) GetByID(ctx context.Context, tenantID, id uuid.UUID) (*model.Order, error) {
	query := `SELECT` + orderColumns + ` FROM orders WHERE id = $1 AND tenant_id = $2`
	return r.scanOrder(r.pool.QueryRow(ctx, query, id, tenantID))
}

func (r *orderRepository) GetByIDWithTx(ctx context.Context, tx pgx.Tx, tenantID, id uuid.UUID) (*model.Order, error) {
	query := `SELECT` + orderColumns + ` FROM orders WHERE id = $1 AND tenant_id = $2`
	return r.scanOrder(tx.QueryRow(ctx, query, id, tenantID))
}

func (r *orderRepository) UpdatePaymentStatusWithTx(ctx context.Context, tx pgx.Tx, id uuid.UUID, status string) error {
	query := `
		UPDATE orders
		SET payment_status = $2,
			updated_at = NOW()
		WHERE id = $1
	`

	result, err := tx.Exec(ctx, query, id, status)
	if err != nil {
		return fmt.Errorf("failed to update order payment status: %w", err)
	}

	if result.RowsAffected() == 0 {
		return model.ErrOrderNotFound
	}

	return nil
}
