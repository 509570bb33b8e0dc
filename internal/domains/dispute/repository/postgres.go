package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"refund-backend/internal/domains/dispute/model"
)

// =====================================================
// DISPUTE REPOSITORY IMPLEMENTATION
// =====================================================

type disputeRepository struct {
	pool *pgxpool.Pool
}

func NewDisputeRepository(pool *pgxpool.Pool) DisputeRepoInterface {
	return &disputeRepository{pool: pool}
}

const disputeColumns = `
	id, tenant_id, refund_id, raised_by, reason, evidence_refs, status,
	company_response, responded_by, responded_at,
	resolution_type, final_amount, resolution_notes, resolved_by, resolved_at,
	created_at, updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanDispute(row rowScanner) (*model.Dispute, error) {
	dispute := &model.Dispute{}
	var evidenceJSON []byte

	err := row.Scan(
		&dispute.ID,
		&dispute.TenantID,
		&dispute.RefundID,
		&dispute.RaisedBy,
		&dispute.Reason,
		&evidenceJSON,
		&dispute.Status,
		&dispute.CompanyResponse,
		&dispute.RespondedBy,
		&dispute.RespondedAt,
		&dispute.ResolutionType,
		&dispute.FinalAmount,
		&dispute.ResolutionNotes,
		&dispute.ResolvedBy,
		&dispute.ResolvedAt,
		&dispute.CreatedAt,
		&dispute.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if evidenceJSON != nil {
		if err := json.Unmarshal(evidenceJSON, &dispute.EvidenceRefs); err != nil {
			return nil, fmt.Errorf("failed to unmarshal evidence_refs: %w", err)
		}
	}

	return dispute, nil
}

func (r *disputeRepository) CreateWithTx(ctx context.Context, tx pgx.Tx, dispute *model.Dispute) error {
	query := `
		INSERT INTO disputes (
			id, tenant_id, refund_id, raised_by, reason, evidence_refs, status
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7
		)
		RETURNING created_at, updated_at
	`

	evidenceJSON, err := json.Marshal(dispute.EvidenceRefs)
	if err != nil {
		return fmt.Errorf("failed to marshal evidence_refs: %w", err)
	}

	err = tx.QueryRow(ctx, query,
		dispute.ID,
		dispute.TenantID,
		dispute.RefundID,
		dispute.RaisedBy,
		dispute.Reason,
		evidenceJSON,
		dispute.Status,
	).Scan(&dispute.CreatedAt, &dispute.UpdatedAt)

	if err != nil {
		return fmt.Errorf("failed to create dispute: %w", err)
	}

	return nil
}

func (r *disputeRepository) GetByID(ctx context.Context, tenantID, id uuid.UUID) (*model.Dispute, error) {
	query := `SELECT` + disputeColumns + `
		FROM disputes
		WHERE id = $1 AND tenant_id = $2
	`

	dispute, err := scanDispute(r.pool.QueryRow(ctx, query, id, tenantID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, model.ErrDisputeNotFound
		}
		return nil, fmt.Errorf("failed to get dispute: %w", err)
	}

	return dispute, nil
}

func (r *disputeRepository) GetByIDForUpdate(ctx context.Context, tx pgx.Tx, tenantID, id uuid.UUID) (*model.Dispute, error) {
	query := `SELECT` + disputeColumns + `
		FROM disputes
		WHERE id = $1 AND tenant_id = $2
		FOR UPDATE
	`

	dispute, err := scanDispute(tx.QueryRow(ctx, query, id, tenantID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, model.ErrDisputeNotFound
		}
		return nil, fmt.Errorf("failed to lock dispute: %w", err)
	}

	return dispute, nil
}

func (r *disputeRepository) HasActiveForRefundWithTx(ctx context.Context, tx pgx.Tx, refundID uuid.UUID) (bool, error) {
	query := `SELECT EXISTS(
		SELECT 1 FROM disputes
		WHERE refund_id = $1
		AND status = ANY($2)
	)`

	var exists bool
	if err := tx.QueryRow(ctx, query, refundID, model.ActiveStatuses).Scan(&exists); err != nil {
		return false, fmt.Errorf("failed to check active dispute: %w", err)
	}

	return exists, nil
}

// RespondWithTx records the company response and moves the dispute under
// review.
func (r *disputeRepository) RespondWithTx(ctx context.Context, tx pgx.Tx, id, respondedBy uuid.UUID, response string) error {
	query := `
		UPDATE disputes
		SET status = 'under_review',
			company_response = $2,
			responded_by = $3,
			responded_at = NOW(),
			updated_at = NOW()
		WHERE id = $1
		AND status = 'open'
	`

	result, err := tx.Exec(ctx, query, id, response, respondedBy)
	if err != nil {
		return fmt.Errorf("failed to record dispute response: %w", err)
	}

	if result.RowsAffected() == 0 {
		return r.stateCheckWithTx(ctx, tx, id, "respond to")
	}

	return nil
}

func (r *disputeRepository) EscalateWithTx(ctx context.Context, tx pgx.Tx, id uuid.UUID) error {
	query := `
		UPDATE disputes
		SET status = 'mediation',
			updated_at = NOW()
		WHERE id = $1
		AND status IN ('under_review', 'escalated')
	`

	result, err := tx.Exec(ctx, query, id)
	if err != nil {
		return fmt.Errorf("failed to escalate dispute: %w", err)
	}

	if result.RowsAffected() == 0 {
		return r.stateCheckWithTx(ctx, tx, id, "escalate")
	}

	return nil
}

func (r *disputeRepository) ResolveWithTx(ctx context.Context, tx pgx.Tx, id, resolvedBy uuid.UUID, resolutionType string, finalAmount *int64, notes string) error {
	query := `
		UPDATE disputes
		SET status = 'resolved',
			resolution_type = $2,
			final_amount = $3,
			resolution_notes = $4,
			resolved_by = $5,
			resolved_at = NOW(),
			updated_at = NOW()
		WHERE id = $1
		AND status != 'resolved'
	`

	result, err := tx.Exec(ctx, query, id, resolutionType, finalAmount, notes, resolvedBy)
	if err != nil {
		return fmt.Errorf("failed to resolve dispute: %w", err)
	}

	if result.RowsAffected() == 0 {
		return r.stateCheckWithTx(ctx, tx, id, "resolve")
	}

	return nil
}

func (r *disputeRepository) List(ctx context.Context, tenantID uuid.UUID, q model.ListDisputesQuery) ([]*model.Dispute, int, error) {
	query := `SELECT` + disputeColumns + `
		FROM disputes
		WHERE tenant_id = $1
	`

	args := []interface{}{tenantID}
	argIndex := 2

	if q.Status != "" {
		query += fmt.Sprintf(" AND status = $%d", argIndex)
		args = append(args, q.Status)
		argIndex++
	}

	countQuery := "SELECT COUNT(*) FROM (" + query + ") AS count_query"
	var total int
	if err := r.pool.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count disputes: %w", err)
	}

	query += " ORDER BY created_at DESC"
	query += fmt.Sprintf(" LIMIT $%d OFFSET $%d", argIndex, argIndex+1)
	args = append(args, q.Limit, (q.Page-1)*q.Limit)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list disputes: %w", err)
	}
	defer rows.Close()

	var disputes []*model.Dispute
	for rows.Next() {
		dispute, err := scanDispute(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to scan dispute: %w", err)
		}
		disputes = append(disputes, dispute)
	}

	return disputes, total, nil
}

func (r *disputeRepository) stateCheckWithTx(ctx context.Context, tx pgx.Tx, id uuid.UUID, operation string) error {
	var currentStatus string
	err := tx.QueryRow(ctx, `SELECT status FROM disputes WHERE id = $1`, id).Scan(&currentStatus)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.ErrDisputeNotFound
		}
		return fmt.Errorf("failed to check dispute status: %w", err)
	}

	return model.NewInvalidStateError(operation, currentStatus)
}
