package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"refund-backend/internal/domains/liability/model"
)

// =====================================================
// VENDOR LIABILITY REPOSITORY IMPLEMENTATION
// =====================================================

type liabilityRepository struct {
	pool *pgxpool.Pool
}

func NewLiabilityRepository(pool *pgxpool.Pool) LiabilityRepoInterface {
	return &liabilityRepository{pool: pool}
}

const liabilityColumns = `
	id, tenant_id, vendor_id, refund_id, order_id,
	amount, recovered_amount, reason_category, status, is_overdue, notes,
	claimed_at, due_at, acknowledged_at, recovered_at, written_off_at,
	created_at, updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanLiability(row rowScanner) (*model.VendorLiability, error) {
	liability := &model.VendorLiability{}

	err := row.Scan(
		&liability.ID,
		&liability.TenantID,
		&liability.VendorID,
		&liability.RefundID,
		&liability.OrderID,
		&liability.Amount,
		&liability.RecoveredAmount,
		&liability.ReasonCategory,
		&liability.Status,
		&liability.IsOverdue,
		&liability.Notes,
		&liability.ClaimedAt,
		&liability.DueAt,
		&liability.AcknowledgedAt,
		&liability.RecoveredAt,
		&liability.WrittenOffAt,
		&liability.CreatedAt,
		&liability.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	return liability, nil
}

func (r *liabilityRepository) CreateWithTx(ctx context.Context, tx pgx.Tx, liability *model.VendorLiability) error {
	query := `
		INSERT INTO vendor_liabilities (
			id, tenant_id, vendor_id, refund_id, order_id,
			amount, recovered_amount, reason_category, status,
			claimed_at, due_at
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11
		)
		RETURNING created_at, updated_at
	`

	err := tx.QueryRow(ctx, query,
		liability.ID,
		liability.TenantID,
		liability.VendorID,
		liability.RefundID,
		liability.OrderID,
		liability.Amount,
		liability.RecoveredAmount,
		liability.ReasonCategory,
		liability.Status,
		liability.ClaimedAt,
		liability.DueAt,
	).Scan(&liability.CreatedAt, &liability.UpdatedAt)

	if err != nil {
		return fmt.Errorf("failed to create vendor liability: %w", err)
	}

	return nil
}

func (r *liabilityRepository) GetByID(ctx context.Context, tenantID, id uuid.UUID) (*model.VendorLiability, error) {
	query := `SELECT` + liabilityColumns + `
		FROM vendor_liabilities
		WHERE id = $1 AND tenant_id = $2
	`

	liability, err := scanLiability(r.pool.QueryRow(ctx, query, id, tenantID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, model.ErrLiabilityNotFound
		}
		return nil, fmt.Errorf("failed to get vendor liability: %w", err)
	}

	return liability, nil
}

func (r *liabilityRepository) GetByIDForUpdate(ctx context.Context, tx pgx.Tx, tenantID, id uuid.UUID) (*model.VendorLiability, error) {
	query := `SELECT` + liabilityColumns + `
		FROM vendor_liabilities
		WHERE id = $1 AND tenant_id = $2
		FOR UPDATE
	`

	liability, err := scanLiability(tx.QueryRow(ctx, query, id, tenantID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, model.ErrLiabilityNotFound
		}
		return nil, fmt.Errorf("failed to lock vendor liability: %w", err)
	}

	return liability, nil
}

func (r *liabilityRepository) AcknowledgeWithTx(ctx context.Context, tx pgx.Tx, id uuid.UUID) error {
	query := `
		UPDATE vendor_liabilities
		SET status = 'acknowledged',
			acknowledged_at = NOW(),
			updated_at = NOW()
		WHERE id = $1
		AND status = 'pending'
	`

	result, err := tx.Exec(ctx, query, id)
	if err != nil {
		return fmt.Errorf("failed to acknowledge vendor liability: %w", err)
	}

	if result.RowsAffected() == 0 {
		return r.stateCheckWithTx(ctx, tx, id, "acknowledge")
	}

	return nil
}

func (r *liabilityRepository) DisputeWithTx(ctx context.Context, tx pgx.Tx, id uuid.UUID, reason string) error {
	query := `
		UPDATE vendor_liabilities
		SET status = 'disputed',
			notes = $2,
			updated_at = NOW()
		WHERE id = $1
		AND status IN ('pending', 'acknowledged')
	`

	result, err := tx.Exec(ctx, query, id, reason)
	if err != nil {
		return fmt.Errorf("failed to dispute vendor liability: %w", err)
	}

	if result.RowsAffected() == 0 {
		return r.stateCheckWithTx(ctx, tx, id, "dispute")
	}

	return nil
}

func (r *liabilityRepository) ApplyRecoveryWithTx(ctx context.Context, tx pgx.Tx, id uuid.UUID, amount int64, newStatus string) error {
	query := `
		UPDATE vendor_liabilities
		SET recovered_amount = recovered_amount + $2,
			status = $3,
			recovered_at = CASE WHEN $3 = 'recovered' THEN NOW() ELSE recovered_at END,
			updated_at = NOW()
		WHERE id = $1
		AND status IN ('pending', 'acknowledged', 'disputed', 'partially_recovered')
		AND recovered_amount + $2 <= amount
	`

	result, err := tx.Exec(ctx, query, id, amount, newStatus)
	if err != nil {
		return fmt.Errorf("failed to apply recovery: %w", err)
	}

	if result.RowsAffected() == 0 {
		return r.stateCheckWithTx(ctx, tx, id, "record recovery on")
	}

	return nil
}

func (r *liabilityRepository) WriteOffWithTx(ctx context.Context, tx pgx.Tx, id uuid.UUID, reason string) error {
	query := `
		UPDATE vendor_liabilities
		SET status = 'written_off',
			notes = $2,
			written_off_at = NOW(),
			updated_at = NOW()
		WHERE id = $1
		AND status IN ('pending', 'acknowledged', 'disputed', 'partially_recovered')
	`

	result, err := tx.Exec(ctx, query, id, reason)
	if err != nil {
		return fmt.Errorf("failed to write off vendor liability: %w", err)
	}

	if result.RowsAffected() == 0 {
		return r.stateCheckWithTx(ctx, tx, id, "write off")
	}

	return nil
}

func (r *liabilityRepository) WaiveWithTx(ctx context.Context, tx pgx.Tx, id uuid.UUID, reason string) error {
	query := `
		UPDATE vendor_liabilities
		SET status = 'waived',
			notes = $2,
			updated_at = NOW()
		WHERE id = $1
		AND status IN ('pending', 'acknowledged')
	`

	result, err := tx.Exec(ctx, query, id, reason)
	if err != nil {
		return fmt.Errorf("failed to waive vendor liability: %w", err)
	}

	if result.RowsAffected() == 0 {
		return r.stateCheckWithTx(ctx, tx, id, "waive")
	}

	return nil
}

func (r *liabilityRepository) List(ctx context.Context, tenantID uuid.UUID, q model.ListLiabilitiesQuery) ([]*model.VendorLiability, int, error) {
	query := `SELECT` + liabilityColumns + `
		FROM vendor_liabilities
		WHERE tenant_id = $1
	`

	args := []interface{}{tenantID}
	argIndex := 2

	if q.VendorID != "" {
		query += fmt.Sprintf(" AND vendor_id = $%d", argIndex)
		args = append(args, q.VendorID)
		argIndex++
	}

	if q.Status != "" {
		query += fmt.Sprintf(" AND status = $%d", argIndex)
		args = append(args, q.Status)
		argIndex++
	}

	countQuery := "SELECT COUNT(*) FROM (" + query + ") AS count_query"
	var total int
	if err := r.pool.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count vendor liabilities: %w", err)
	}

	query += " ORDER BY claimed_at DESC"
	query += fmt.Sprintf(" LIMIT $%d OFFSET $%d", argIndex, argIndex+1)
	args = append(args, q.Limit, (q.Page-1)*q.Limit)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list vendor liabilities: %w", err)
	}
	defer rows.Close()

	var liabilities []*model.VendorLiability
	for rows.Next() {
		liability, err := scanLiability(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to scan vendor liability: %w", err)
		}
		liabilities = append(liabilities, liability)
	}

	return liabilities, total, nil
}

func (r *liabilityRepository) VendorAggregates(ctx context.Context, tenantID, vendorID uuid.UUID) (*model.VendorAggregates, error) {
	query := `
		SELECT
			COUNT(*),
			COALESCE(SUM(amount), 0),
			COALESCE(SUM(recovered_amount), 0),
			COUNT(*) FILTER (WHERE status = 'written_off')
		FROM vendor_liabilities
		WHERE tenant_id = $1 AND vendor_id = $2
	`

	agg := &model.VendorAggregates{}
	err := r.pool.QueryRow(ctx, query, tenantID, vendorID).Scan(
		&agg.ClaimCount,
		&agg.TotalAmount,
		&agg.RecoveredAmount,
		&agg.WrittenOffCount,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate vendor liabilities: %w", err)
	}

	return agg, nil
}

func (r *liabilityRepository) ListOverdue(ctx context.Context, limit int) ([]*model.VendorLiability, error) {
	query := `SELECT` + liabilityColumns + `
		FROM vendor_liabilities
		WHERE status IN ('pending', 'acknowledged', 'disputed', 'partially_recovered')
		AND due_at < NOW()
		AND is_overdue = false
		ORDER BY due_at ASC
		LIMIT $1
	`

	rows, err := r.pool.Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list overdue liabilities: %w", err)
	}
	defer rows.Close()

	var liabilities []*model.VendorLiability
	for rows.Next() {
		liability, err := scanLiability(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan vendor liability: %w", err)
		}
		liabilities = append(liabilities, liability)
	}

	return liabilities, nil
}

func (r *liabilityRepository) MarkOverdue(ctx context.Context, id uuid.UUID) error {
	query := `
		UPDATE vendor_liabilities
		SET is_overdue = true,
			updated_at = NOW()
		WHERE id = $1
		AND is_overdue = false
	`

	if _, err := r.pool.Exec(ctx, query, id); err != nil {
		return fmt.Errorf("failed to mark liability overdue: %w", err)
	}

	return nil
}

func (r *liabilityRepository) stateCheckWithTx(ctx context.Context, tx pgx.Tx, id uuid.UUID, operation string) error {
	var currentStatus string
	err := tx.QueryRow(ctx, `SELECT status FROM vendor_liabilities WHERE id = $1`, id).Scan(&currentStatus)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.ErrLiabilityNotFound
		}
		return fmt.Errorf("failed to check liability status: %w", err)
	}

	return model.NewInvalidStateError(operation, currentStatus)
}
