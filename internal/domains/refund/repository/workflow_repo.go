package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"refund-backend/internal/domains/refund/model"
)

// =====================================================
// WORKFLOW STEP REPOSITORY IMPLEMENTATION
// =====================================================

type workflowRepository struct {
	pool *pgxpool.Pool
}

func NewWorkflowRepository(pool *pgxpool.Pool) WorkflowRepoInterface {
	return &workflowRepository{pool: pool}
}

const stepColumns = `
	id, refund_id, step_number, step_type, required_role,
	assignee_id, assigned_at, due_at, is_current,
	requires_documents, requires_verification,
	decision, decision_reason, decided_by, decided_at,
	escalated_from, escalated_at, escalation_reason, is_overdue,
	created_at, updated_at`

func scanStep(row rowScanner) (*model.WorkflowStep, error) {
	step := &model.WorkflowStep{}

	err := row.Scan(
		&step.ID,
		&step.RefundID,
		&step.StepNumber,
		&step.StepType,
		&step.RequiredRole,
		&step.AssigneeID,
		&step.AssignedAt,
		&step.DueAt,
		&step.IsCurrent,
		&step.RequiresDocuments,
		&step.RequiresVerification,
		&step.Decision,
		&step.DecisionReason,
		&step.DecidedBy,
		&step.DecidedAt,
		&step.EscalatedFrom,
		&step.EscalatedAt,
		&step.EscalationReason,
		&step.IsOverdue,
		&step.CreatedAt,
		&step.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	return step, nil
}

// CreateBatchWithTx inserts all steps of a workflow in one batch. Step 1 is
// inserted with is_current already set by the service.
func (r *workflowRepository) CreateBatchWithTx(ctx context.Context, tx pgx.Tx, steps []*model.WorkflowStep) error {
	query := `
		INSERT INTO workflow_steps (
			id, refund_id, step_number, step_type, required_role,
			assignee_id, assigned_at, due_at, is_current,
			requires_documents, requires_verification, decision
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12
		)
	`

	batch := &pgx.Batch{}
	for _, step := range steps {
		batch.Queue(query,
			step.ID,
			step.RefundID,
			step.StepNumber,
			step.StepType,
			step.RequiredRole,
			step.AssigneeID,
			step.AssignedAt,
			step.DueAt,
			step.IsCurrent,
			step.RequiresDocuments,
			step.RequiresVerification,
			step.Decision,
		)
	}

	results := tx.SendBatch(ctx, batch)
	defer results.Close()

	for range steps {
		if _, err := results.Exec(); err != nil {
			return fmt.Errorf("failed to create workflow step: %w", err)
		}
	}

	return nil
}

func (r *workflowRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.WorkflowStep, error) {
	query := `SELECT` + stepColumns + `
		FROM workflow_steps
		WHERE id = $1
	`

	step, err := scanStep(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, model.ErrStepNotFound
		}
		return nil, fmt.Errorf("failed to get workflow step: %w", err)
	}

	return step, nil
}

// GetCurrentForUpdate locks the current undecided step so concurrent
// decisions on the same refund serialize on the row lock.
func (r *workflowRepository) GetCurrentForUpdate(ctx context.Context, tx pgx.Tx, refundID uuid.UUID) (*model.WorkflowStep, error) {
	query := `SELECT` + stepColumns + `
		FROM workflow_steps
		WHERE refund_id = $1
		AND is_current = true
		AND decision IN ('pending', 'needs_info')
		FOR UPDATE
	`

	step, err := scanStep(tx.QueryRow(ctx, query, refundID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, model.ErrNoCurrentStep
		}
		return nil, fmt.Errorf("failed to lock current workflow step: %w", err)
	}

	return step, nil
}

func (r *workflowRepository) NextPendingWithTx(ctx context.Context, tx pgx.Tx, refundID uuid.UUID, afterNumber int) (*model.WorkflowStep, error) {
	query := `SELECT` + stepColumns + `
		FROM workflow_steps
		WHERE refund_id = $1
		AND step_number > $2
		AND decision = 'pending'
		ORDER BY step_number ASC
		LIMIT 1
	`

	step, err := scanStep(tx.QueryRow(ctx, query, refundID, afterNumber))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, model.ErrStepNotFound
		}
		return nil, fmt.Errorf("failed to find next workflow step: %w", err)
	}

	return step, nil
}

// DecideWithTx records the decision and retires the step from the current
// position. Deciding an already-decided step is rejected by the guard.
func (r *workflowRepository) DecideWithTx(ctx context.Context, tx pgx.Tx, id uuid.UUID, decision string, decidedBy uuid.UUID, reason *string) error {
	query := `
		UPDATE workflow_steps
		SET decision = $2,
			decision_reason = $3,
			decided_by = $4,
			decided_at = CASE WHEN $2 IN ('approved', 'rejected') THEN NOW() ELSE decided_at END,
			is_current = CASE WHEN $2 IN ('approved', 'rejected') THEN false ELSE is_current END,
			updated_at = NOW()
		WHERE id = $1
		AND decision IN ('pending', 'needs_info')
	`

	result, err := tx.Exec(ctx, query, id, decision, reason, decidedBy)
	if err != nil {
		return fmt.Errorf("failed to record step decision: %w", err)
	}

	if result.RowsAffected() == 0 {
		var current string
		err := tx.QueryRow(ctx, `SELECT decision FROM workflow_steps WHERE id = $1`, id).Scan(&current)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return model.ErrStepNotFound
			}
			return fmt.Errorf("failed to check step decision: %w", err)
		}
		return model.ErrStepAlreadyDecided
	}

	return nil
}

// ActivateWithTx makes the step current with a fresh due time.
func (r *workflowRepository) ActivateWithTx(ctx context.Context, tx pgx.Tx, id uuid.UUID, dueAt time.Time) error {
	query := `
		UPDATE workflow_steps
		SET is_current = true,
			assigned_at = NOW(),
			due_at = $2,
			is_overdue = false,
			updated_at = NOW()
		WHERE id = $1
		AND decision = 'pending'
	`

	result, err := tx.Exec(ctx, query, id, dueAt)
	if err != nil {
		return fmt.Errorf("failed to activate workflow step: %w", err)
	}

	if result.RowsAffected() == 0 {
		return model.ErrStepNotFound
	}

	return nil
}

// EscalateWithTx reassigns the step and resets its clock. The previous
// assignee is kept in escalated_from for the audit trail.
func (r *workflowRepository) EscalateWithTx(ctx context.Context, tx pgx.Tx, id, newAssignee uuid.UUID, newRole, reason string, dueAt time.Time) error {
	query := `
		UPDATE workflow_steps
		SET escalated_from = assignee_id,
			assignee_id = $2,
			required_role = $3,
			escalation_reason = $4,
			escalated_at = NOW(),
			assigned_at = NOW(),
			due_at = $5,
			is_overdue = false,
			updated_at = NOW()
		WHERE id = $1
		AND decision IN ('pending', 'needs_info')
	`

	result, err := tx.Exec(ctx, query, id, newAssignee, newRole, reason, dueAt)
	if err != nil {
		return fmt.Errorf("failed to escalate workflow step: %w", err)
	}

	if result.RowsAffected() == 0 {
		var decision string
		err := tx.QueryRow(ctx, `SELECT decision FROM workflow_steps WHERE id = $1`, id).Scan(&decision)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return model.ErrStepNotFound
			}
			return fmt.Errorf("failed to check step decision: %w", err)
		}
		return model.ErrCannotEscalate
	}

	return nil
}

func (r *workflowRepository) ListByRefund(ctx context.Context, refundID uuid.UUID) ([]*model.WorkflowStep, error) {
	query := `SELECT` + stepColumns + `
		FROM workflow_steps
		WHERE refund_id = $1
		ORDER BY step_number ASC
	`

	rows, err := r.pool.Query(ctx, query, refundID)
	if err != nil {
		return nil, fmt.Errorf("failed to list workflow steps: %w", err)
	}
	defer rows.Close()

	var steps []*model.WorkflowStep
	for rows.Next() {
		step, err := scanStep(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan workflow step: %w", err)
		}
		steps = append(steps, step)
	}

	return steps, nil
}

// ListOverdue returns current undecided steps past their due time, oldest
// first, for the periodic sweep. Steps of refunds that left the workflow
// (cancelled, disputed) are skipped.
func (r *workflowRepository) ListOverdue(ctx context.Context, limit int) ([]*model.WorkflowStep, error) {
	query := `SELECT` + stepColumns + `
		FROM workflow_steps
		WHERE is_current = true
		AND decision IN ('pending', 'needs_info')
		AND due_at < NOW()
		AND refund_id IN (
			SELECT id FROM refund_requests
			WHERE status IN ('pending_review', 'under_investigation',
				'pending_manager', 'pending_finance')
		)
		ORDER BY due_at ASC
		LIMIT $1
	`

	rows, err := r.pool.Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list overdue steps: %w", err)
	}
	defer rows.Close()

	var steps []*model.WorkflowStep
	for rows.Next() {
		step, err := scanStep(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan workflow step: %w", err)
		}
		steps = append(steps, step)
	}

	return steps, nil
}

// MarkOverdue is idempotent; re-flagging a flagged step changes nothing.
func (r *workflowRepository) MarkOverdue(ctx context.Context, id uuid.UUID) error {
	query := `
		UPDATE workflow_steps
		SET is_overdue = true,
			updated_at = NOW()
		WHERE id = $1
		AND is_overdue = false
	`

	if _, err := r.pool.Exec(ctx, query, id); err != nil {
		return fmt.Errorf("failed to mark step overdue: %w", err)
	}

	return nil
}
