package service

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"refund-backend/internal/domains/dispute/model"
	repo "refund-backend/internal/domains/dispute/repository"
	refundModel "refund-backend/internal/domains/refund/model"
	refundRepo "refund-backend/internal/domains/refund/repository"
	"refund-backend/internal/infrastructure/notify"
	"refund-backend/internal/shared"
	"refund-backend/pkg/database"
	"refund-backend/pkg/logger"
)

// =====================================================
// DISPUTE SERVICE
// =====================================================

type DisputeServiceInterface interface {
	Create(ctx context.Context, tenantID uuid.UUID, actor shared.Actor, req model.CreateDisputeRequest) (*model.Dispute, error)
	Get(ctx context.Context, tenantID, id uuid.UUID) (*model.Dispute, error)
	List(ctx context.Context, tenantID uuid.UUID, query model.ListDisputesQuery) ([]*model.Dispute, int, error)
	Respond(ctx context.Context, tenantID, id uuid.UUID, actor shared.Actor, req model.RespondDisputeRequest) (*model.Dispute, error)
	Escalate(ctx context.Context, tenantID, id uuid.UUID, actor shared.Actor, req model.EscalateDisputeRequest) (*model.Dispute, error)
	// Resolve closes the dispute and feeds the outcome back into the
	// refund: full or partial re-approves it with the resolved amount, no
	// refund rejects it.
	Resolve(ctx context.Context, tenantID, id uuid.UUID, actor shared.Actor, req model.ResolveDisputeRequest) (*model.Dispute, error)
	Recommend(ctx context.Context, tenantID, id uuid.UUID) (*model.Recommendation, error)
}

type disputeService struct {
	pool        database.TxBeginner
	disputeRepo repo.DisputeRepoInterface
	refundRepo  refundRepo.RefundRepoInterface
	dispatcher  notify.Dispatcher
}

func NewDisputeService(
	pool database.TxBeginner,
	disputeRepo repo.DisputeRepoInterface,
	rRepo refundRepo.RefundRepoInterface,
	dispatcher notify.Dispatcher,
) DisputeServiceInterface {
	return &disputeService{
		pool:        pool,
		disputeRepo: disputeRepo,
		refundRepo:  rRepo,
		dispatcher:  dispatcher,
	}
}

// =====================================================
// CREATE
// =====================================================

// Create opens a dispute on a refund and freezes the refund in disputed
// status. The refund row lock serializes racing dispute attempts; the
// one-active rule is checked under that lock.
func (s *disputeService) Create(ctx context.Context, tenantID uuid.UUID, actor shared.Actor, req model.CreateDisputeRequest) (*model.Dispute, error) {
	if err := req.Validate(); err != nil {
		return nil, model.NewDisputeError(model.ErrCodeInvalidRequest, "Invalid dispute request", err)
	}

	refundID, err := uuid.Parse(req.RefundID)
	if err != nil {
		return nil, model.NewDisputeError(model.ErrCodeInvalidRequest, "Invalid refund id", err)
	}

	dispute, err := database.WithTransactionResult(ctx, s.pool, func(tx pgx.Tx) (*model.Dispute, error) {
		refund, err := s.refundRepo.GetByIDForUpdate(ctx, tx, tenantID, refundID)
		if err != nil {
			return nil, err
		}

		switch refund.Status {
		case refundModel.StatusCompleted, refundModel.StatusCancelled,
			refundModel.StatusProcessing, refundModel.StatusDisputed:
			return nil, model.NewRefundNotOpenError(refund.Status)
		}

		active, err := s.disputeRepo.HasActiveForRefundWithTx(ctx, tx, refundID)
		if err != nil {
			return nil, err
		}
		if active {
			return nil, model.NewAlreadyActiveError(refundID.String())
		}

		dispute := &model.Dispute{
			ID:           uuid.New(),
			TenantID:     tenantID,
			RefundID:     refundID,
			RaisedBy:     actor.UserID,
			Reason:       req.Reason,
			EvidenceRefs: req.EvidenceRefs,
			Status:       model.StatusOpen,
		}

		if err := s.disputeRepo.CreateWithTx(ctx, tx, dispute); err != nil {
			return nil, err
		}

		if err := s.refundRepo.SetDisputedWithTx(ctx, tx, refundID, true); err != nil {
			return nil, err
		}

		return dispute, nil
	})
	if err != nil {
		return nil, err
	}

	s.dispatcher.Dispatch(ctx, shared.NewEvent(shared.EventDisputeCreated, tenantID.String(), map[string]interface{}{
		"dispute_id": dispute.ID.String(),
		"refund_id":  refundID.String(),
		"raised_by":  actor.UserID.String(),
	}))

	logger.Info("Dispute opened", map[string]interface{}{
		"dispute_id": dispute.ID.String(),
		"refund_id":  refundID.String(),
		"tenant_id":  tenantID.String(),
	})

	return dispute, nil
}

// =====================================================
// READ OPERATIONS
// =====================================================

func (s *disputeService) Get(ctx context.Context, tenantID, id uuid.UUID) (*model.Dispute, error) {
	return s.disputeRepo.GetByID(ctx, tenantID, id)
}

func (s *disputeService) List(ctx context.Context, tenantID uuid.UUID, query model.ListDisputesQuery) ([]*model.Dispute, int, error) {
	query.Normalize()
	if err := query.Validate(); err != nil {
		return nil, 0, model.NewDisputeError(model.ErrCodeInvalidRequest, "Invalid list query", err)
	}
	return s.disputeRepo.List(ctx, tenantID, query)
}

// =====================================================
// RESPONSE AND ESCALATION
// =====================================================

func (s *disputeService) Respond(ctx context.Context, tenantID, id uuid.UUID, actor shared.Actor, req model.RespondDisputeRequest) (*model.Dispute, error) {
	if err := req.Validate(); err != nil {
		return nil, model.NewDisputeError(model.ErrCodeInvalidRequest, "Invalid response", err)
	}

	return database.WithTransactionResult(ctx, s.pool, func(tx pgx.Tx) (*model.Dispute, error) {
		dispute, err := s.disputeRepo.GetByIDForUpdate(ctx, tx, tenantID, id)
		if err != nil {
			return nil, err
		}
		if !dispute.CanReceiveResponse() {
			return nil, model.NewInvalidStateError("respond to", dispute.Status)
		}

		if err := s.disputeRepo.RespondWithTx(ctx, tx, id, actor.UserID, req.Response); err != nil {
			return nil, err
		}

		dispute.Status = model.StatusUnderReview
		dispute.CompanyResponse = &req.Response
		dispute.RespondedBy = &actor.UserID

		return dispute, nil
	})
}

func (s *disputeService) Escalate(ctx context.Context, tenantID, id uuid.UUID, actor shared.Actor, req model.EscalateDisputeRequest) (*model.Dispute, error) {
	if err := req.Validate(); err != nil {
		return nil, model.NewDisputeError(model.ErrCodeInvalidRequest, "Invalid escalation request", err)
	}

	dispute, err := database.WithTransactionResult(ctx, s.pool, func(tx pgx.Tx) (*model.Dispute, error) {
		dispute, err := s.disputeRepo.GetByIDForUpdate(ctx, tx, tenantID, id)
		if err != nil {
			return nil, err
		}
		if !dispute.CanBeEscalated() {
			return nil, model.NewInvalidStateError("escalate", dispute.Status)
		}

		if err := s.disputeRepo.EscalateWithTx(ctx, tx, id); err != nil {
			return nil, err
		}
		dispute.Status = model.StatusMediation

		return dispute, nil
	})
	if err != nil {
		return nil, err
	}

	s.dispatcher.Dispatch(ctx, shared.NewEvent(shared.EventDisputeEscalated, tenantID.String(), map[string]interface{}{
		"dispute_id":   id.String(),
		"refund_id":    dispute.RefundID.String(),
		"escalated_by": actor.UserID.String(),
		"reason":       req.Reason,
	}))

	return dispute, nil
}

// =====================================================
// RESOLUTION
// =====================================================

func (s *disputeService) Resolve(ctx context.Context, tenantID, id uuid.UUID, actor shared.Actor, req model.ResolveDisputeRequest) (*model.Dispute, error) {
	if err := req.Validate(); err != nil {
		return nil, model.NewDisputeError(model.ErrCodeInvalidRequest, "Invalid resolution", err)
	}

	dispute, err := database.WithTransactionResult(ctx, s.pool, func(tx pgx.Tx) (*model.Dispute, error) {
		dispute, err := s.disputeRepo.GetByIDForUpdate(ctx, tx, tenantID, id)
		if err != nil {
			return nil, err
		}
		if !dispute.CanBeResolved() {
			return nil, model.NewInvalidStateError("resolve", dispute.Status)
		}

		refund, err := s.refundRepo.GetByIDForUpdate(ctx, tx, tenantID, dispute.RefundID)
		if err != nil {
			return nil, err
		}

		var finalAmount *int64

		switch req.ResolutionType {
		case model.ResolutionFullRefund:
			amount := refund.Amount
			finalAmount = &amount
			fee := refundModel.FeeFor(refund.Method, amount)
			if err := s.refundRepo.UpdateAmountForResolutionWithTx(ctx, tx, refund.ID, amount, fee); err != nil {
				return nil, err
			}

		case model.ResolutionPartialRefund:
			if req.FinalAmount == nil || *req.FinalAmount <= 0 || *req.FinalAmount > refund.Amount {
				return nil, model.NewDisputeError(
					model.ErrCodeInvalidAmount,
					"Partial resolution requires a final amount between 1 and the disputed amount",
					model.ErrInvalidAmount,
				)
			}
			finalAmount = req.FinalAmount
			fee := refundModel.FeeFor(refund.Method, *req.FinalAmount)
			if err := s.refundRepo.UpdateAmountForResolutionWithTx(ctx, tx, refund.ID, *req.FinalAmount, fee); err != nil {
				return nil, err
			}

		case model.ResolutionNoRefund:
			if err := s.refundRepo.MarkRejectedWithTx(ctx, tx, refund.ID, actor.UserID); err != nil {
				return nil, err
			}
			if err := s.refundRepo.SetDisputedWithTx(ctx, tx, refund.ID, false); err != nil {
				return nil, err
			}
		}

		if err := s.disputeRepo.ResolveWithTx(ctx, tx, id, actor.UserID, req.ResolutionType, finalAmount, req.Notes); err != nil {
			return nil, err
		}

		dispute.Status = model.StatusResolved
		dispute.ResolutionType = &req.ResolutionType
		dispute.FinalAmount = finalAmount
		dispute.ResolvedBy = &actor.UserID

		return dispute, nil
	})
	if err != nil {
		return nil, err
	}

	s.dispatcher.Dispatch(ctx, shared.NewEvent(shared.EventDisputeResolved, tenantID.String(), map[string]interface{}{
		"dispute_id":      id.String(),
		"refund_id":       dispute.RefundID.String(),
		"resolution_type": req.ResolutionType,
		"resolved_by":     actor.UserID.String(),
	}))

	logger.Info("Dispute resolved", map[string]interface{}{
		"dispute_id":      id.String(),
		"resolution_type": req.ResolutionType,
	})

	return dispute, nil
}

// =====================================================
// RECOMMENDATION
// =====================================================

func (s *disputeService) Recommend(ctx context.Context, tenantID, id uuid.UUID) (*model.Recommendation, error) {
	dispute, err := s.disputeRepo.GetByID(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}

	refund, err := s.refundRepo.GetByID(ctx, tenantID, dispute.RefundID)
	if err != nil {
		return nil, err
	}

	recommendation := RecommendResolution(refund, dispute)
	return &recommendation, nil
}
