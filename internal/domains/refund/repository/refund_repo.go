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
// REFUND REQUEST REPOSITORY IMPLEMENTATION
// =====================================================

type refundRepository struct {
	pool *pgxpool.Pool
}

func NewRefundRepository(pool *pgxpool.Pool) RefundRepoInterface {
	return &refundRepository{pool: pool}
}

const refundColumns = `
	id, tenant_id, reference, order_id, transaction_id, vendor_id,
	requested_by, amount, currency, method, reason_category, reason,
	processing_fee, is_full_refund, vendor_liable, is_disputed, status,
	approved_by, approved_at, rejected_by, rejected_at,
	gateway_refund_id, gateway_response, final_amount,
	error_code, error_message, retry_count, evidence_refs,
	requested_at, processing_at, completed_at, failed_at,
	created_at, updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRefund(row rowScanner) (*model.RefundRequest, error) {
	refund := &model.RefundRequest{}
	var gatewayResponseJSON, evidenceJSON []byte

	err := row.Scan(
		&refund.ID,
		&refund.TenantID,
		&refund.Reference,
		&refund.OrderID,
		&refund.TransactionID,
		&refund.VendorID,
		&refund.RequestedBy,
		&refund.Amount,
		&refund.Currency,
		&refund.Method,
		&refund.ReasonCategory,
		&refund.Reason,
		&refund.ProcessingFee,
		&refund.IsFullRefund,
		&refund.VendorLiable,
		&refund.IsDisputed,
		&refund.Status,
		&refund.ApprovedBy,
		&refund.ApprovedAt,
		&refund.RejectedBy,
		&refund.RejectedAt,
		&refund.GatewayRefundID,
		&gatewayResponseJSON,
		&refund.FinalAmount,
		&refund.ErrorCode,
		&refund.ErrorMessage,
		&refund.RetryCount,
		&evidenceJSON,
		&refund.RequestedAt,
		&refund.ProcessingAt,
		&refund.CompletedAt,
		&refund.FailedAt,
		&refund.CreatedAt,
		&refund.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if gatewayResponseJSON != nil {
		if err := json.Unmarshal(gatewayResponseJSON, &refund.GatewayResponse); err != nil {
			return nil, fmt.Errorf("failed to unmarshal gateway_response: %w", err)
		}
	}
	if evidenceJSON != nil {
		if err := json.Unmarshal(evidenceJSON, &refund.EvidenceRefs); err != nil {
			return nil, fmt.Errorf("failed to unmarshal evidence_refs: %w", err)
		}
	}

	return refund, nil
}

// CreateWithTx inserts the refund inside the caller's transaction.
func (r *refundRepository) CreateWithTx(ctx context.Context, tx pgx.Tx, refund *model.RefundRequest) error {
	query := `
		INSERT INTO refund_requests (
			id, tenant_id, reference, order_id, transaction_id, vendor_id,
			requested_by, amount, currency, method, reason_category, reason,
			processing_fee, is_full_refund, vendor_liable, is_disputed,
			status, retry_count, evidence_refs, requested_at
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9, $10,
			$11, $12, $13, $14, $15, $16, $17, $18, $19, $20
		)
		RETURNING created_at, updated_at
	`

	evidenceJSON, err := json.Marshal(refund.EvidenceRefs)
	if err != nil {
		return fmt.Errorf("failed to marshal evidence_refs: %w", err)
	}

	err = tx.QueryRow(ctx, query,
		refund.ID,
		refund.TenantID,
		refund.Reference,
		refund.OrderID,
		refund.TransactionID,
		refund.VendorID,
		refund.RequestedBy,
		refund.Amount,
		refund.Currency,
		refund.Method,
		refund.ReasonCategory,
		refund.Reason,
		refund.ProcessingFee,
		refund.IsFullRefund,
		refund.VendorLiable,
		refund.IsDisputed,
		refund.Status,
		refund.RetryCount,
		evidenceJSON,
		refund.RequestedAt,
	).Scan(&refund.CreatedAt, &refund.UpdatedAt)

	if err != nil {
		return fmt.Errorf("failed to create refund request: %w", err)
	}

	return nil
}

func (r *refundRepository) GetByID(ctx context.Context, tenantID, id uuid.UUID) (*model.RefundRequest, error) {
	query := `SELECT` + refundColumns + `
		FROM refund_requests
		WHERE id = $1 AND tenant_id = $2
	`

	refund, err := scanRefund(r.pool.QueryRow(ctx, query, id, tenantID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, model.ErrRefundNotFound
		}
		return nil, fmt.Errorf("failed to get refund request: %w", err)
	}

	return refund, nil
}

// GetByIDForUpdate locks the refund row until tx ends.
func (r *refundRepository) GetByIDForUpdate(ctx context.Context, tx pgx.Tx, tenantID, id uuid.UUID) (*model.RefundRequest, error) {
	query := `SELECT` + refundColumns + `
		FROM refund_requests
		WHERE id = $1 AND tenant_id = $2
		FOR UPDATE
	`

	refund, err := scanRefund(tx.QueryRow(ctx, query, id, tenantID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, model.ErrRefundNotFound
		}
		return nil, fmt.Errorf("failed to lock refund request: %w", err)
	}

	return refund, nil
}

// LockByID locks a refund without scoping to a tenant. Only the periodic
// sweeps use it; request paths go through GetByIDForUpdate.
func (r *refundRepository) LockByID(ctx context.Context, tx pgx.Tx, id uuid.UUID) (*model.RefundRequest, error) {
	query := `SELECT` + refundColumns + `
		FROM refund_requests
		WHERE id = $1
		FOR UPDATE
	`

	refund, err := scanRefund(tx.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, model.ErrRefundNotFound
		}
		return nil, fmt.Errorf("failed to lock refund request: %w", err)
	}

	return refund, nil
}

func (r *refundRepository) ReferenceExists(ctx context.Context, tenantID uuid.UUID, reference string) (bool, error) {
	query := `SELECT EXISTS(SELECT 1 FROM refund_requests WHERE tenant_id = $1 AND reference = $2)`

	var exists bool
	if err := r.pool.QueryRow(ctx, query, tenantID, reference).Scan(&exists); err != nil {
		return false, fmt.Errorf("failed to check reference: %w", err)
	}

	return exists, nil
}

// SumForOrderWithTx reads both totals in one pass inside the caller's
// transaction so the eligibility check and the insert see the same state.
func (r *refundRepository) SumForOrderWithTx(ctx context.Context, tx pgx.Tx, orderID uuid.UUID) (int64, int64, error) {
	query := `
		SELECT
			COALESCE(SUM(amount) FILTER (WHERE status = 'completed'), 0),
			COALESCE(SUM(amount) FILTER (WHERE status = ANY($2)), 0)
		FROM refund_requests
		WHERE order_id = $1
	`

	var completed, pending int64
	err := tx.QueryRow(ctx, query, orderID, model.PendingStatuses).Scan(&completed, &pending)
	if err != nil {
		return 0, 0, fmt.Errorf("failed to sum refunds for order: %w", err)
	}

	return completed, pending, nil
}

func (r *refundRepository) UpdateStatusWithTx(ctx context.Context, tx pgx.Tx, id uuid.UUID, status string) error {
	query := `
		UPDATE refund_requests
		SET status = $1,
			processing_at = CASE WHEN $1 = 'processing' THEN NOW() ELSE processing_at END,
			completed_at = CASE WHEN $1 = 'completed' THEN NOW() ELSE completed_at END,
			failed_at = CASE WHEN $1 = 'failed' THEN NOW() ELSE failed_at END,
			updated_at = NOW()
		WHERE id = $2
	`

	result, err := tx.Exec(ctx, query, status, id)
	if err != nil {
		return fmt.Errorf("failed to update refund status: %w", err)
	}

	if result.RowsAffected() == 0 {
		return model.ErrRefundNotFound
	}

	return nil
}

func (r *refundRepository) MarkApprovedWithTx(ctx context.Context, tx pgx.Tx, id, approvedBy uuid.UUID) error {
	query := `
		UPDATE refund_requests
		SET status = 'approved',
			approved_by = $2,
			approved_at = NOW(),
			updated_at = NOW()
		WHERE id = $1
		AND status NOT IN ('approved', 'rejected', 'processing', 'completed', 'cancelled', 'failed')
	`

	result, err := tx.Exec(ctx, query, id, approvedBy)
	if err != nil {
		return fmt.Errorf("failed to approve refund: %w", err)
	}

	if result.RowsAffected() == 0 {
		return r.stateCheckWithTx(ctx, tx, id, "approve")
	}

	return nil
}

func (r *refundRepository) MarkRejectedWithTx(ctx context.Context, tx pgx.Tx, id, rejectedBy uuid.UUID) error {
	query := `
		UPDATE refund_requests
		SET status = 'rejected',
			rejected_by = $2,
			rejected_at = NOW(),
			updated_at = NOW()
		WHERE id = $1
		AND status NOT IN ('approved', 'rejected', 'processing', 'completed', 'cancelled', 'failed')
	`

	result, err := tx.Exec(ctx, query, id, rejectedBy)
	if err != nil {
		return fmt.Errorf("failed to reject refund: %w", err)
	}

	if result.RowsAffected() == 0 {
		return r.stateCheckWithTx(ctx, tx, id, "reject")
	}

	return nil
}

func (r *refundRepository) CancelWithTx(ctx context.Context, tx pgx.Tx, id uuid.UUID) error {
	query := `
		UPDATE refund_requests
		SET status = 'cancelled',
			updated_at = NOW()
		WHERE id = $1
		AND status IN ('pending', 'pending_review', 'under_investigation',
			'pending_manager', 'pending_finance', 'approved')
	`

	result, err := tx.Exec(ctx, query, id)
	if err != nil {
		return fmt.Errorf("failed to cancel refund: %w", err)
	}

	if result.RowsAffected() == 0 {
		return r.stateCheckWithTx(ctx, tx, id, "cancel")
	}

	return nil
}

func (r *refundRepository) SetDisputedWithTx(ctx context.Context, tx pgx.Tx, id uuid.UUID, disputed bool) error {
	query := `
		UPDATE refund_requests
		SET is_disputed = $2,
			status = CASE WHEN $2 THEN 'disputed' ELSE status END,
			updated_at = NOW()
		WHERE id = $1
	`

	result, err := tx.Exec(ctx, query, id, disputed)
	if err != nil {
		return fmt.Errorf("failed to set disputed flag: %w", err)
	}

	if result.RowsAffected() == 0 {
		return model.ErrRefundNotFound
	}

	return nil
}

// UpdateAmountForResolutionWithTx adjusts the amount per the dispute outcome
// and re-queues the refund for gateway processing. The caller recomputes the
// fee for the adjusted amount.
func (r *refundRepository) UpdateAmountForResolutionWithTx(ctx context.Context, tx pgx.Tx, id uuid.UUID, finalAmount, processingFee int64) error {
	query := `
		UPDATE refund_requests
		SET amount = $2,
			processing_fee = $3,
			status = 'approved',
			is_disputed = false,
			approved_at = NOW(),
			updated_at = NOW()
		WHERE id = $1
		AND status = 'disputed'
	`

	result, err := tx.Exec(ctx, query, id, finalAmount, processingFee)
	if err != nil {
		return fmt.Errorf("failed to apply dispute resolution: %w", err)
	}

	if result.RowsAffected() == 0 {
		return r.stateCheckWithTx(ctx, tx, id, "resolve dispute on")
	}

	return nil
}

// MarkProcessing is the approved -> processing compare-and-swap.
func (r *refundRepository) MarkProcessing(ctx context.Context, id uuid.UUID) error {
	query := `
		UPDATE refund_requests
		SET status = 'processing',
			processing_at = NOW(),
			updated_at = NOW()
		WHERE id = $1
		AND status = 'approved'
	`

	result, err := r.pool.Exec(ctx, query, id)
	if err != nil {
		return fmt.Errorf("failed to mark refund processing: %w", err)
	}

	if result.RowsAffected() == 0 {
		return r.stateCheck(ctx, id, "process")
	}

	return nil
}

func (r *refundRepository) CompleteWithTx(ctx context.Context, tx pgx.Tx, id uuid.UUID, gatewayRefundID string, response map[string]interface{}, finalAmount int64) error {
	query := `
		UPDATE refund_requests
		SET status = 'completed',
			gateway_refund_id = $2,
			gateway_response = $3,
			final_amount = $4,
			error_code = NULL,
			error_message = NULL,
			completed_at = NOW(),
			updated_at = NOW()
		WHERE id = $1
		AND status = 'processing'
	`

	responseJSON, err := json.Marshal(response)
	if err != nil {
		return fmt.Errorf("failed to marshal gateway response: %w", err)
	}

	result, err := tx.Exec(ctx, query, id, gatewayRefundID, responseJSON, finalAmount)
	if err != nil {
		return fmt.Errorf("failed to complete refund: %w", err)
	}

	if result.RowsAffected() == 0 {
		return r.stateCheckWithTx(ctx, tx, id, "complete")
	}

	return nil
}

func (r *refundRepository) FailWithTx(ctx context.Context, tx pgx.Tx, id uuid.UUID, errorCode, errorMessage string, response map[string]interface{}) error {
	query := `
		UPDATE refund_requests
		SET status = 'failed',
			error_code = $2,
			error_message = $3,
			gateway_response = $4,
			failed_at = NOW(),
			updated_at = NOW()
		WHERE id = $1
		AND status = 'processing'
	`

	responseJSON, err := json.Marshal(response)
	if err != nil {
		return fmt.Errorf("failed to marshal gateway response: %w", err)
	}

	result, err := tx.Exec(ctx, query, id, errorCode, errorMessage, responseJSON)
	if err != nil {
		return fmt.Errorf("failed to mark refund failed: %w", err)
	}

	if result.RowsAffected() == 0 {
		return r.stateCheckWithTx(ctx, tx, id, "fail")
	}

	return nil
}

// ResetForRetry is the failed -> approved compare-and-swap. The retry cap
// and error-code policy are enforced by the service before calling this.
func (r *refundRepository) ResetForRetry(ctx context.Context, id uuid.UUID) error {
	query := `
		UPDATE refund_requests
		SET status = 'approved',
			retry_count = retry_count + 1,
			updated_at = NOW()
		WHERE id = $1
		AND status = 'failed'
		AND retry_count < $2
	`

	result, err := r.pool.Exec(ctx, query, id, model.MaxRetryAttempts)
	if err != nil {
		return fmt.Errorf("failed to reset refund for retry: %w", err)
	}

	if result.RowsAffected() == 0 {
		return r.stateCheck(ctx, id, "retry")
	}

	return nil
}

func (r *refundRepository) AppendEvidence(ctx context.Context, tenantID, id uuid.UUID, objectRef string) error {
	query := `
		UPDATE refund_requests
		SET evidence_refs = COALESCE(evidence_refs, '[]'::jsonb) || to_jsonb($3::text),
			updated_at = NOW()
		WHERE id = $1 AND tenant_id = $2
	`

	result, err := r.pool.Exec(ctx, query, id, tenantID, objectRef)
	if err != nil {
		return fmt.Errorf("failed to append evidence: %w", err)
	}

	if result.RowsAffected() == 0 {
		return model.ErrRefundNotFound
	}

	return nil
}

func (r *refundRepository) List(ctx context.Context, tenantID uuid.UUID, q model.ListRefundsQuery) ([]*model.RefundRequest, int, error) {
	query := `SELECT` + refundColumns + `
		FROM refund_requests
		WHERE tenant_id = $1
	`

	args := []interface{}{tenantID}
	argIndex := 2

	if q.Status != "" {
		query += fmt.Sprintf(" AND status = $%d", argIndex)
		args = append(args, q.Status)
		argIndex++
	}

	if q.OrderID != "" {
		query += fmt.Sprintf(" AND order_id = $%d", argIndex)
		args = append(args, q.OrderID)
		argIndex++
	}

	countQuery := "SELECT COUNT(*) FROM (" + query + ") AS count_query"
	var total int
	if err := r.pool.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count refunds: %w", err)
	}

	query += " ORDER BY requested_at DESC"
	query += fmt.Sprintf(" LIMIT $%d OFFSET $%d", argIndex, argIndex+1)
	args = append(args, q.Limit, (q.Page-1)*q.Limit)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list refunds: %w", err)
	}
	defer rows.Close()

	var refunds []*model.RefundRequest
	for rows.Next() {
		refund, err := scanRefund(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to scan refund: %w", err)
		}
		refunds = append(refunds, refund)
	}

	return refunds, total, nil
}

// Stats computes the per-tenant aggregate in a single pass.
func (r *refundRepository) Stats(ctx context.Context, tenantID uuid.UUID) (*model.Stats, error) {
	query := `
		SELECT
			status,
			COUNT(*),
			COALESCE(SUM(amount), 0),
			COALESCE(SUM(processing_fee), 0),
			COALESCE(AVG(EXTRACT(EPOCH FROM (completed_at - requested_at)) / 3600.0)
				FILTER (WHERE status = 'completed'), 0)
		FROM refund_requests
		WHERE tenant_id = $1
		GROUP BY status
	`

	rows, err := r.pool.Query(ctx, query, tenantID)
	if err != nil {
		return nil, fmt.Errorf("failed to compute refund stats: %w", err)
	}
	defer rows.Close()

	stats := &model.Stats{
		CountByStatus:  make(map[string]int64),
		AmountByStatus: make(map[string]int64),
	}

	for rows.Next() {
		var status string
		var count, amount, fees int64
		var avgHours float64

		if err := rows.Scan(&status, &count, &amount, &fees, &avgHours); err != nil {
			return nil, fmt.Errorf("failed to scan stats row: %w", err)
		}

		stats.CountByStatus[status] = count
		stats.AmountByStatus[status] = amount
		stats.TotalCount += count
		stats.TotalAmount += amount
		stats.TotalFees += fees
		if status == model.StatusCompleted {
			stats.AvgCompletionHours = avgHours
		}
	}

	return stats, nil
}

// stateCheck distinguishes "not found" from "wrong status" after a guarded
// update matched no rows.
func (r *refundRepository) stateCheck(ctx context.Context, id uuid.UUID, operation string) error {
	var currentStatus string
	err := r.pool.QueryRow(ctx, `SELECT status FROM refund_requests WHERE id = $1`, id).Scan(&currentStatus)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.ErrRefundNotFound
		}
		return fmt.Errorf("failed to check refund status: %w", err)
	}

	return model.NewInvalidStateError(operation, currentStatus)
}

func (r *refundRepository) stateCheckWithTx(ctx context.Context, tx pgx.Tx, id uuid.UUID, operation string) error {
	var currentStatus string
	err := tx.QueryRow(ctx, `SELECT status FROM refund_requests WHERE id = $1`, id).Scan(&currentStatus)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.ErrRefundNotFound
		}
		return fmt.Errorf("failed to check refund status: %w", err)
	}

	return model.NewInvalidStateError(operation, currentStatus)
}
