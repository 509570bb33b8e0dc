package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"refund-backend/internal/domains/directory"
	"refund-backend/internal/domains/refund/model"
	repo "refund-backend/internal/domains/refund/repository"
	"refund-backend/internal/infrastructure/notify"
	"refund-backend/internal/shared"
	"refund-backend/pkg/database"
	"refund-backend/pkg/logger"
)

// =====================================================
// APPROVAL WORKFLOW SERVICE
// =====================================================

type approvalService struct {
	pool         database.TxBeginner
	refundRepo   repo.RefundRepoInterface
	workflowRepo repo.WorkflowRepoInterface
	directory    directory.Directory
	dispatcher   notify.Dispatcher
}

func NewApprovalService(
	pool database.TxBeginner,
	refundRepo repo.RefundRepoInterface,
	workflowRepo repo.WorkflowRepoInterface,
	dir directory.Directory,
	dispatcher notify.Dispatcher,
) ApprovalServiceInterface {
	return &approvalService{
		pool:         pool,
		refundRepo:   refundRepo,
		workflowRepo: workflowRepo,
		directory:    dir,
		dispatcher:   dispatcher,
	}
}

// =====================================================
// STEP DERIVATION
// =====================================================

type stepSpec struct {
	Type                 string
	Role                 string
	SLAHours             int
	RequiresDocuments    bool
	RequiresVerification bool
}

// deriveSteps maps the refund's approval level and amount onto the ordered
// chain of required steps. An empty result means the refund auto-approves.
func deriveSteps(refund *model.RefundRequest) []stepSpec {
	if !refund.RequiresApproval() {
		return nil
	}

	level := refund.ApprovalLevel()

	steps := []stepSpec{{
		Type:     model.StepInitialReview,
		Role:     model.RoleCustomerService,
		SLAHours: model.StepSLAHours[model.StepInitialReview],
	}}

	if level != model.ApprovalLevelLow || refund.Amount >= model.ThresholdManager {
		steps = append(steps, stepSpec{
			Type:     model.StepManagerApproval,
			Role:     model.RoleManager,
			SLAHours: model.StepSLAHours[model.StepManagerApproval],
		})
	}

	if refund.Amount >= model.ThresholdFinance || level == model.ApprovalLevelHigh || level == model.ApprovalLevelCritical {
		steps = append(steps, stepSpec{
			Type:                 model.StepFinanceApproval,
			Role:                 model.RoleFinanceManager,
			SLAHours:             model.StepSLAHours[model.StepFinanceApproval],
			RequiresDocuments:    true,
			RequiresVerification: refund.Amount >= model.ThresholdFinance,
		})
	}

	if refund.Amount >= model.ThresholdExecutive || level == model.ApprovalLevelCritical {
		steps = append(steps, stepSpec{
			Type:     model.StepExecutiveApproval,
			Role:     model.RoleExecutive,
			SLAHours: model.StepSLAHours[model.StepExecutiveApproval],
		})
	}

	return steps
}

// statusForStep is the refund status shown while a step type is current.
var statusForStep = map[string]string{
	model.StepInitialReview:     model.StatusPendingReview,
	model.StepManagerApproval:   model.StatusPendingManager,
	model.StepFinanceApproval:   model.StatusPendingFinance,
	model.StepExecutiveApproval: model.StatusUnderInvestigation,
}

// =====================================================
// INITIALIZATION
// =====================================================

func (s *approvalService) InitializeWithTx(ctx context.Context, tx pgx.Tx, refund *model.RefundRequest, actor shared.Actor) (string, []shared.Event, error) {
	specs := deriveSteps(refund)
	if len(specs) == 0 {
		event := shared.NewEvent(shared.EventRefundApproved, refund.TenantID.String(), map[string]interface{}{
			"refund_id":     refund.ID.String(),
			"reference":     refund.Reference,
			"auto_approved": true,
		})
		return model.StatusApproved, []shared.Event{event}, nil
	}

	now := time.Now().UTC()
	steps := make([]*model.WorkflowStep, 0, len(specs))

	for i, spec := range specs {
		assignee, err := s.directory.FindApproverByRole(ctx, refund.TenantID, spec.Role, actor.UserID)
		if err != nil {
			return "", nil, model.NewApproverNotFoundError(spec.Role)
		}

		steps = append(steps, &model.WorkflowStep{
			ID:                   uuid.New(),
			RefundID:             refund.ID,
			StepNumber:           i + 1,
			StepType:             spec.Type,
			RequiredRole:         spec.Role,
			AssigneeID:           assignee,
			AssignedAt:           now,
			DueAt:                now.Add(time.Duration(spec.SLAHours) * time.Hour),
			IsCurrent:            i == 0,
			RequiresDocuments:    spec.RequiresDocuments,
			RequiresVerification: spec.RequiresVerification,
			Decision:             model.DecisionPending,
		})
	}

	if err := s.workflowRepo.CreateBatchWithTx(ctx, tx, steps); err != nil {
		return "", nil, err
	}

	first := steps[0]
	event := shared.NewEvent(shared.EventStepAssigned, refund.TenantID.String(), map[string]interface{}{
		"refund_id":   refund.ID.String(),
		"step_id":     first.ID.String(),
		"step_type":   first.StepType,
		"assignee_id": first.AssigneeID.String(),
		"due_at":      first.DueAt,
	})

	return statusForStep[first.StepType], []shared.Event{event}, nil
}

// =====================================================
// DECISIONS
// =====================================================

// Decide records the decision on the refund's current step. Approval of the
// last step approves the refund; a rejection at any step rejects it;
// needs_info pauses the clock on nothing, the step simply stays current.
func (s *approvalService) Decide(ctx context.Context, tenantID, refundID uuid.UUID, actor shared.Actor, req model.DecideStepRequest) (*model.WorkflowStep, error) {
	if err := req.Validate(); err != nil {
		return nil, model.NewRefundError(model.ErrCodeInvalidRequest, "Invalid decision", err)
	}

	var events []shared.Event

	step, err := database.WithTransactionResult(ctx, s.pool, func(tx pgx.Tx) (*model.WorkflowStep, error) {
		refund, err := s.refundRepo.GetByIDForUpdate(ctx, tx, tenantID, refundID)
		if err != nil {
			return nil, err
		}
		if refund.IsTerminal() || refund.Status == model.StatusDisputed {
			return nil, model.NewInvalidStateError("decide on", refund.Status)
		}

		step, err := s.workflowRepo.GetCurrentForUpdate(ctx, tx, refundID)
		if err != nil {
			if errors.Is(err, model.ErrNoCurrentStep) {
				return nil, model.NewRefundError(model.ErrCodeNoCurrentStep, "Refund has no step awaiting a decision", err)
			}
			return nil, err
		}

		if actor.UserID != step.AssigneeID && actor.Role != step.RequiredRole && actor.Role != model.RoleAdmin {
			return nil, model.NewRefundError(
				model.ErrCodeInvalidRequest,
				fmt.Sprintf("Decision on this step requires role %s", step.RequiredRole),
				nil,
			)
		}

		var reason *string
		if req.Reason != "" {
			reason = &req.Reason
		}

		if err := s.workflowRepo.DecideWithTx(ctx, tx, step.ID, req.Decision, actor.UserID, reason); err != nil {
			return nil, err
		}
		step.Decision = req.Decision
		step.DecidedBy = &actor.UserID
		step.DecisionReason = reason

		switch req.Decision {
		case model.DecisionRejected:
			if err := s.refundRepo.MarkRejectedWithTx(ctx, tx, refundID, actor.UserID); err != nil {
				return nil, err
			}
			events = append(events, shared.NewEvent(shared.EventRefundRejected, tenantID.String(), map[string]interface{}{
				"refund_id":   refundID.String(),
				"reference":   refund.Reference,
				"rejected_by": actor.UserID.String(),
				"step_type":   step.StepType,
			}))

		case model.DecisionApproved:
			next, err := s.workflowRepo.NextPendingWithTx(ctx, tx, refundID, step.StepNumber)
			if err != nil {
				if errors.Is(err, model.ErrStepNotFound) {
					if err := s.refundRepo.MarkApprovedWithTx(ctx, tx, refundID, actor.UserID); err != nil {
						return nil, err
					}
					events = append(events, shared.NewEvent(shared.EventRefundApproved, tenantID.String(), map[string]interface{}{
						"refund_id":   refundID.String(),
						"reference":   refund.Reference,
						"approved_by": actor.UserID.String(),
					}))
					return step, nil
				}
				return nil, err
			}

			dueAt := time.Now().UTC().Add(time.Duration(model.StepSLAHours[next.StepType]) * time.Hour)
			if err := s.workflowRepo.ActivateWithTx(ctx, tx, next.ID, dueAt); err != nil {
				return nil, err
			}
			if status, ok := statusForStep[next.StepType]; ok {
				if err := s.refundRepo.UpdateStatusWithTx(ctx, tx, refundID, status); err != nil {
					return nil, err
				}
			}
			events = append(events, shared.NewEvent(shared.EventStepAssigned, tenantID.String(), map[string]interface{}{
				"refund_id":   refundID.String(),
				"step_id":     next.ID.String(),
				"step_type":   next.StepType,
				"assignee_id": next.AssigneeID.String(),
				"due_at":      dueAt,
			}))
		}

		return step, nil
	})
	if err != nil {
		return nil, err
	}

	s.dispatcher.Dispatch(ctx, events...)

	return step, nil
}

// =====================================================
// ESCALATION
// =====================================================

// Escalate reassigns the current step to a chosen user and resets its SLA
// clock. The role requirement stays what the step demands.
func (s *approvalService) Escalate(ctx context.Context, tenantID, refundID uuid.UUID, actor shared.Actor, req model.EscalateStepRequest) (*model.WorkflowStep, error) {
	if err := req.Validate(); err != nil {
		return nil, model.NewRefundError(model.ErrCodeInvalidRequest, "Invalid escalation request", err)
	}
	newAssignee, err := uuid.Parse(req.AssigneeID)
	if err != nil {
		return nil, model.NewRefundError(model.ErrCodeInvalidRequest, "Invalid assignee id", err)
	}

	var event shared.Event

	step, err := database.WithTransactionResult(ctx, s.pool, func(tx pgx.Tx) (*model.WorkflowStep, error) {
		refund, err := s.refundRepo.GetByIDForUpdate(ctx, tx, tenantID, refundID)
		if err != nil {
			return nil, err
		}
		if refund.IsTerminal() || refund.Status == model.StatusDisputed {
			return nil, model.NewInvalidStateError("escalate", refund.Status)
		}

		step, err := s.workflowRepo.GetCurrentForUpdate(ctx, tx, refundID)
		if err != nil {
			if errors.Is(err, model.ErrNoCurrentStep) {
				return nil, model.NewRefundError(model.ErrCodeNoCurrentStep, "Refund has no step to escalate", err)
			}
			return nil, err
		}

		dueAt := time.Now().UTC().Add(time.Duration(model.StepSLAHours[step.StepType]) * time.Hour)
		if err := s.workflowRepo.EscalateWithTx(ctx, tx, step.ID, newAssignee, step.RequiredRole, req.Reason, dueAt); err != nil {
			return nil, err
		}

		previous := step.AssigneeID
		step.EscalatedFrom = &previous
		step.AssigneeID = newAssignee
		step.DueAt = dueAt

		event = shared.NewEvent(shared.EventStepEscalated, tenantID.String(), map[string]interface{}{
			"refund_id":    refundID.String(),
			"step_id":      step.ID.String(),
			"step_type":    step.StepType,
			"assignee_id":  newAssignee.String(),
			"escalated_by": actor.UserID.String(),
			"reason":       req.Reason,
		})

		return step, nil
	})
	if err != nil {
		return nil, err
	}

	s.dispatcher.Dispatch(ctx, event)

	return step, nil
}

// =====================================================
// LISTING
// =====================================================

func (s *approvalService) ListSteps(ctx context.Context, tenantID, refundID uuid.UUID) ([]*model.WorkflowStep, error) {
	// Tenant scoping happens through the refund lookup.
	if _, err := s.refundRepo.GetByID(ctx, tenantID, refundID); err != nil {
		return nil, err
	}
	return s.workflowRepo.ListByRefund(ctx, refundID)
}

// =====================================================
// OVERDUE SWEEP
// =====================================================

// SweepOverdue flags steps past their due time and auto-escalates the ones
// past the grace window on top of it. Each escalation runs in its own
// transaction so one bad row cannot stall the sweep.
func (s *approvalService) SweepOverdue(ctx context.Context, limit int) (int, error) {
	steps, err := s.workflowRepo.ListOverdue(ctx, limit)
	if err != nil {
		return 0, err
	}

	touched := 0
	now := time.Now().UTC()

	for _, step := range steps {
		if !step.IsOverdue {
			if err := s.workflowRepo.MarkOverdue(ctx, step.ID); err != nil {
				logger.Error("Failed to mark workflow step overdue", err)
				continue
			}
			touched++
		}

		if !step.NeedsAutoEscalation(now) {
			continue
		}

		if err := s.autoEscalate(ctx, step); err != nil {
			logger.Error("Failed to auto-escalate workflow step", err)
			continue
		}
		touched++
	}

	return touched, nil
}

func (s *approvalService) autoEscalate(ctx context.Context, step *model.WorkflowStep) error {
	var event shared.Event
	escalated := false

	err := database.WithTransaction(ctx, s.pool, func(tx pgx.Tx) error {
		refund, err := s.refundRepo.LockByID(ctx, tx, step.RefundID)
		if err != nil {
			return err
		}
		// The refund may have moved on since the sweep listed the step.
		if refund.IsTerminal() || refund.Status == model.StatusDisputed {
			return nil
		}

		role := model.EscalationRoleFor(refund.ApprovalLevel())
		assignee, err := s.directory.FindApproverByRole(ctx, refund.TenantID, role, step.AssigneeID)
		if err != nil {
			return model.NewApproverNotFoundError(role)
		}

		dueAt := time.Now().UTC().Add(time.Duration(model.StepSLAHours[step.StepType]) * time.Hour)
		reason := fmt.Sprintf("Auto-escalated after %d hours past due", model.EscalationGraceHours)

		if err := s.workflowRepo.EscalateWithTx(ctx, tx, step.ID, assignee, role, reason, dueAt); err != nil {
			return err
		}

		escalated = true
		event = shared.NewEvent(shared.EventStepEscalated, refund.TenantID.String(), map[string]interface{}{
			"refund_id":   refund.ID.String(),
			"step_id":     step.ID.String(),
			"step_type":   step.StepType,
			"assignee_id": assignee.String(),
			"role":        role,
			"automatic":   true,
		})
		return nil
	})
	if err != nil {
		return err
	}

	if escalated {
		s.dispatcher.Dispatch(ctx, event)
	}

	return nil
}
