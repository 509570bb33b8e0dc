package service

import (
	"context"
	"crypto/rand"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	orderRepo "refund-backend/internal/domains/order/repository"
	"refund-backend/internal/domains/refund/model"
	repo "refund-backend/internal/domains/refund/repository"
	"refund-backend/internal/infrastructure/notify"
	"refund-backend/internal/shared"
	"refund-backend/pkg/database"
	"refund-backend/pkg/logger"
)

// =====================================================
// REFUND SERVICE IMPLEMENTATION
// =====================================================

type refundService struct {
	pool       database.TxBeginner
	refundRepo repo.RefundRepoInterface
	txnRepo    repo.TransactionRepoInterface
	orderRepo  orderRepo.OrderRepoInterface

	approvalService ApprovalServiceInterface
	liability       LiabilityRecorder
	settler         *settler
	dispatcher      notify.Dispatcher
}

func NewRefundService(
	pool database.TxBeginner,
	refundRepo repo.RefundRepoInterface,
	txnRepo repo.TransactionRepoInterface,
	ordRepo orderRepo.OrderRepoInterface,
	approvalService ApprovalServiceInterface,
	liability LiabilityRecorder,
	fund InsuranceFund,
	dispatcher notify.Dispatcher,
) RefundServiceInterface {
	return &refundService{
		pool:            pool,
		refundRepo:      refundRepo,
		txnRepo:         txnRepo,
		orderRepo:       ordRepo,
		approvalService: approvalService,
		liability:       liability,
		settler:         &settler{refundRepo: refundRepo, orderRepo: ordRepo, fund: fund},
		dispatcher:      dispatcher,
	}
}

// =====================================================
// CREATE REFUND REQUEST
// =====================================================

// Create validates eligibility against the source transaction and the
// order's refundable balance, computes the processing fee, then either
// auto-approves the refund or opens its approval workflow. The balance check
// and all inserts share one transaction so two concurrent requests cannot
// both claim the same remaining balance.
func (s *refundService) Create(ctx context.Context, tenantID uuid.UUID, actor shared.Actor, req model.CreateRefundRequest) (*model.RefundRequest, error) {
	if err := req.Validate(); err != nil {
		return nil, model.NewRefundError(model.ErrCodeInvalidRequest, "Invalid refund request", err)
	}

	orderID, err := uuid.Parse(req.OrderID)
	if err != nil {
		return nil, model.NewRefundError(model.ErrCodeInvalidRequest, "Invalid order id", err)
	}
	transactionID, err := uuid.Parse(req.TransactionID)
	if err != nil {
		return nil, model.NewRefundError(model.ErrCodeInvalidRequest, "Invalid transaction id", err)
	}

	txn, err := s.txnRepo.GetByID(ctx, tenantID, transactionID)
	if err != nil {
		return nil, err
	}
	if !txn.IsCompleted() {
		return nil, model.NewTxnNotCompletedError(txn.Status)
	}
	if txn.OrderID != orderID {
		return nil, model.NewRefundError(model.ErrCodeInvalidRequest, "Transaction does not belong to the order", nil)
	}
	if txn.Currency != req.Currency {
		return nil, model.NewRefundError(model.ErrCodeInvalidRequest, "Currency does not match the source transaction", nil)
	}

	order, err := s.orderRepo.GetByID(ctx, tenantID, orderID)
	if err != nil {
		return nil, err
	}

	reference, err := s.generateReference(ctx, tenantID)
	if err != nil {
		return nil, err
	}

	category := model.ReasonCategories[req.ReasonCategory]

	refund := &model.RefundRequest{
		ID:             uuid.New(),
		TenantID:       tenantID,
		Reference:      reference,
		OrderID:        orderID,
		TransactionID:  transactionID,
		VendorID:       order.VendorID,
		RequestedBy:    actor.UserID,
		Amount:         req.Amount,
		Currency:       req.Currency,
		Method:         req.Method,
		ReasonCategory: req.ReasonCategory,
		Reason:         req.Reason,
		ProcessingFee:  model.FeeFor(req.Method, req.Amount),
		IsFullRefund:   req.Amount >= txn.Amount,
		VendorLiable:   category.VendorImpact && order.HasVendor(),
		IsDisputed:     req.IsDisputed,
		Status:         model.StatusPending,
		RequestedAt:    time.Now().UTC(),
	}

	var events []shared.Event

	created, err := database.WithTransactionResult(ctx, s.pool, func(tx pgx.Tx) (*model.RefundRequest, error) {
		completed, pending, err := s.refundRepo.SumForOrderWithTx(ctx, tx, orderID)
		if err != nil {
			return nil, err
		}
		refundable := order.TotalAmount - completed - pending
		if req.Amount > refundable {
			return nil, model.NewExceedsRefundableError(req.Amount, refundable)
		}

		if err := s.refundRepo.CreateWithTx(ctx, tx, refund); err != nil {
			return nil, err
		}

		status, workflowEvents, err := s.approvalService.InitializeWithTx(ctx, tx, refund, actor)
		if err != nil {
			return nil, err
		}
		if status == model.StatusApproved {
			if err := s.refundRepo.MarkApprovedWithTx(ctx, tx, refund.ID, actor.UserID); err != nil {
				return nil, err
			}
		} else if status != refund.Status {
			if err := s.refundRepo.UpdateStatusWithTx(ctx, tx, refund.ID, status); err != nil {
				return nil, err
			}
		}
		refund.Status = status
		events = append(events, workflowEvents...)

		if refund.VendorLiable && s.liability != nil {
			err := s.liability.CreateForRefundWithTx(ctx, tx, LiabilityParams{
				TenantID:       tenantID,
				RefundID:       refund.ID,
				OrderID:        orderID,
				VendorID:       *order.VendorID,
				Amount:         refund.Amount,
				ReasonCategory: refund.ReasonCategory,
			})
			if err != nil {
				return nil, err
			}
		}

		return refund, nil
	})
	if err != nil {
		return nil, err
	}

	requested := shared.NewEvent(shared.EventRefundRequested, tenantID.String(), map[string]interface{}{
		"refund_id": created.ID.String(),
		"reference": created.Reference,
		"order_id":  orderID.String(),
		"amount":    created.Amount,
		"status":    created.Status,
	})
	s.dispatcher.Dispatch(ctx, append([]shared.Event{requested}, events...)...)

	logger.Info("Refund request created", map[string]interface{}{
		"refund_id": created.ID.String(),
		"reference": created.Reference,
		"tenant_id": tenantID.String(),
		"status":    created.Status,
		"amount":    created.Amount,
	})

	return created, nil
}

// =====================================================
// READ OPERATIONS
// =====================================================

func (s *refundService) Get(ctx context.Context, tenantID, id uuid.UUID) (*model.RefundRequest, error) {
	return s.refundRepo.GetByID(ctx, tenantID, id)
}

func (s *refundService) List(ctx context.Context, tenantID uuid.UUID, query model.ListRefundsQuery) ([]*model.RefundRequest, int, error) {
	query.Normalize()
	if err := query.Validate(); err != nil {
		return nil, 0, model.NewRefundError(model.ErrCodeInvalidRequest, "Invalid list query", err)
	}
	return s.refundRepo.List(ctx, tenantID, query)
}

func (s *refundService) Stats(ctx context.Context, tenantID uuid.UUID) (*model.Stats, error) {
	return s.refundRepo.Stats(ctx, tenantID)
}

// =====================================================
// CANCEL
// =====================================================

func (s *refundService) Cancel(ctx context.Context, tenantID, id uuid.UUID, actor shared.Actor, req model.CancelRefundRequest) (*model.RefundRequest, error) {
	if err := req.Validate(); err != nil {
		return nil, model.NewRefundError(model.ErrCodeInvalidRequest, "Invalid cancel request", err)
	}

	refund, err := database.WithTransactionResult(ctx, s.pool, func(tx pgx.Tx) (*model.RefundRequest, error) {
		refund, err := s.refundRepo.GetByIDForUpdate(ctx, tx, tenantID, id)
		if err != nil {
			return nil, err
		}

		if !refund.CanBeCancelled() {
			return nil, model.NewRefundError(
				model.ErrCodeCannotCancel,
				fmt.Sprintf("Cannot cancel a refund in status %s", refund.Status),
				model.ErrCannotCancel,
			)
		}

		if err := s.refundRepo.CancelWithTx(ctx, tx, refund.ID); err != nil {
			return nil, err
		}
		refund.Status = model.StatusCancelled

		return refund, nil
	})
	if err != nil {
		return nil, err
	}

	s.dispatcher.Dispatch(ctx, shared.NewEvent(shared.EventRefundCancelled, tenantID.String(), map[string]interface{}{
		"refund_id":    refund.ID.String(),
		"reference":    refund.Reference,
		"cancelled_by": actor.UserID.String(),
		"reason":       req.Reason,
	}))

	return refund, nil
}

// =====================================================
// EVIDENCE
// =====================================================

func (s *refundService) AttachEvidence(ctx context.Context, tenantID, id uuid.UUID, actor shared.Actor, req model.AttachEvidenceRequest) error {
	if err := req.Validate(); err != nil {
		return model.NewRefundError(model.ErrCodeInvalidRequest, "Invalid evidence reference", err)
	}

	if err := s.refundRepo.AppendEvidence(ctx, tenantID, id, req.ObjectRef); err != nil {
		return err
	}

	logger.Info("Evidence attached to refund", map[string]interface{}{
		"refund_id":   id.String(),
		"attached_by": actor.UserID.String(),
		"object_ref":  req.ObjectRef,
	})

	return nil
}

// =====================================================
// MANUAL COMPLETION
// =====================================================

// CompleteManual settles a manual-method refund that an operator disbursed
// outside the platform. The external reference takes the place of a gateway
// refund id.
func (s *refundService) CompleteManual(ctx context.Context, tenantID, id uuid.UUID, actor shared.Actor, req model.ManualCompleteRequest) (*model.RefundRequest, error) {
	if err := req.Validate(); err != nil {
		return nil, model.NewRefundError(model.ErrCodeInvalidRequest, "Invalid completion request", err)
	}

	var events []shared.Event

	refund, err := database.WithTransactionResult(ctx, s.pool, func(tx pgx.Tx) (*model.RefundRequest, error) {
		refund, err := s.refundRepo.GetByIDForUpdate(ctx, tx, tenantID, id)
		if err != nil {
			return nil, err
		}

		if refund.Method != model.MethodManual {
			return nil, model.NewRefundError(
				model.ErrCodeNotManualMethod,
				"Only manual-method refunds can be completed by an operator",
				model.ErrNotManualMethod,
			)
		}
		if !refund.CanBeProcessed() {
			return nil, model.NewInvalidStateError("complete", refund.Status)
		}

		if err := s.refundRepo.UpdateStatusWithTx(ctx, tx, refund.ID, model.StatusProcessing); err != nil {
			return nil, err
		}

		raw := map[string]interface{}{
			"source":             "manual",
			"external_reference": req.ExternalReference,
			"completed_by":       actor.UserID.String(),
		}
		if req.Notes != "" {
			raw["notes"] = req.Notes
		}

		events, err = s.settler.completeWithTx(ctx, tx, refund, req.ExternalReference, raw)
		if err != nil {
			return nil, err
		}
		refund.Status = model.StatusCompleted

		return refund, nil
	})
	if err != nil {
		return nil, err
	}

	s.dispatcher.Dispatch(ctx, events...)

	return refund, nil
}

// =====================================================
// REFERENCE GENERATION
// =====================================================

const referenceCharset = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

// generateReference retries on collision; the unique index on reference is
// the final arbiter if two requests race past the existence check.
func (s *refundService) generateReference(ctx context.Context, tenantID uuid.UUID) (string, error) {
	for attempt := 0; attempt < model.ReferenceAttempts; attempt++ {
		reference, err := randomReference()
		if err != nil {
			return "", err
		}

		exists, err := s.refundRepo.ReferenceExists(ctx, tenantID, reference)
		if err != nil {
			return "", err
		}
		if !exists {
			return reference, nil
		}
	}

	return "", model.NewRefundError(
		model.ErrCodeReferenceExhaust,
		fmt.Sprintf("Could not generate a unique reference in %d attempts", model.ReferenceAttempts),
		model.ErrReferenceExhausted,
	)
}

func randomReference() (string, error) {
	buf := make([]byte, 10)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("failed to generate reference: %w", err)
	}
	for i, b := range buf {
		buf[i] = referenceCharset[int(b)%len(referenceCharset)]
	}
	return "REF-" + string(buf), nil
}
