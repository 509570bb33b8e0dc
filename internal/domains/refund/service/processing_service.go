package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	orderRepo "refund-backend/internal/domains/order/repository"
	"refund-backend/internal/domains/refund/gateway"
	"refund-backend/internal/domains/refund/model"
	repo "refund-backend/internal/domains/refund/repository"
	"refund-backend/internal/infrastructure/notify"
	"refund-backend/internal/shared"
	"refund-backend/pkg/database"
	"refund-backend/pkg/logger"
)

// =====================================================
// GATEWAY PROCESSING SERVICE
// =====================================================

type processingService struct {
	pool       database.TxBeginner
	refundRepo repo.RefundRepoInterface
	txnRepo    repo.TransactionRepoInterface
	registry   *gateway.Registry
	settler    *settler
	dispatcher notify.Dispatcher
}

func NewProcessingService(
	pool database.TxBeginner,
	refundRepo repo.RefundRepoInterface,
	txnRepo repo.TransactionRepoInterface,
	ordRepo orderRepo.OrderRepoInterface,
	registry *gateway.Registry,
	fund InsuranceFund,
	dispatcher notify.Dispatcher,
) ProcessingServiceInterface {
	return &processingService{
		pool:       pool,
		refundRepo: refundRepo,
		txnRepo:    txnRepo,
		registry:   registry,
		settler:    &settler{refundRepo: refundRepo, orderRepo: ordRepo, fund: fund},
		dispatcher: dispatcher,
	}
}

// =====================================================
// PROCESS
// =====================================================

// Process pushes an approved refund through its gateway adapter. The refund
// is claimed with an approved -> processing compare-and-swap first, so only
// one caller reaches the gateway, and no database transaction is held open
// across the network call. The outcome, success or failure, is applied in a
// second transaction.
func (s *processingService) Process(ctx context.Context, tenantID, refundID uuid.UUID, actor shared.Actor) (*model.RefundRequest, error) {
	refund, err := s.refundRepo.GetByID(ctx, tenantID, refundID)
	if err != nil {
		return nil, err
	}
	if !refund.CanBeProcessed() {
		return nil, model.NewInvalidStateError("process", refund.Status)
	}
	// Manual refunds are disbursed by an operator out of band and settled
	// through the manual completion endpoint, never through an adapter.
	if refund.Method == model.MethodManual {
		return nil, model.NewRefundError(
			model.ErrCodeManualMethod,
			"Manual refunds are completed by an operator, not processed through a gateway",
			model.ErrManualMethod,
		)
	}

	txn, err := s.txnRepo.GetByID(ctx, tenantID, refund.TransactionID)
	if err != nil {
		return nil, err
	}

	// Resolve the adapter before claiming the refund; an unmapped method is
	// a configuration error and must not leave the refund stuck processing.
	adapter, err := s.resolveAdapter(refund, txn)
	if err != nil {
		return nil, err
	}

	if err := s.refundRepo.MarkProcessing(ctx, refundID); err != nil {
		return nil, err
	}

	logger.Info("Processing refund through gateway", map[string]interface{}{
		"refund_id": refundID.String(),
		"reference": refund.Reference,
		"adapter":   adapter.Name(),
		"amount":    refund.Amount - refund.ProcessingFee,
	})

	outcome := s.execute(ctx, adapter, refund, txn)

	return s.applyOutcome(ctx, tenantID, refundID, outcome)
}

// =====================================================
// RETRY
// =====================================================

func (s *processingService) Retry(ctx context.Context, tenantID, refundID uuid.UUID, actor shared.Actor) (*model.RefundRequest, error) {
	refund, err := s.refundRepo.GetByID(ctx, tenantID, refundID)
	if err != nil {
		return nil, err
	}

	if refund.Status != model.StatusFailed {
		return nil, model.NewInvalidStateError("retry", refund.Status)
	}
	if refund.RetryCount >= model.MaxRetryAttempts {
		return nil, model.NewRetryLimitExceededError()
	}
	if !refund.CanRetry() {
		code := ""
		if refund.ErrorCode != nil {
			code = *refund.ErrorCode
		}
		return nil, model.NewRefundError(
			model.ErrCodeRetryNotAllowed,
			fmt.Sprintf("Error %s is permanent, the refund cannot be retried", code),
			model.ErrRetryNotAllowed,
		)
	}

	if err := s.refundRepo.ResetForRetry(ctx, refundID); err != nil {
		return nil, err
	}

	return s.Process(ctx, tenantID, refundID, actor)
}

// =====================================================
// ADAPTER RESOLUTION
// =====================================================

// resolveAdapter routes original-rail methods back through the gateway that
// took the payment; every other method maps directly.
func (s *processingService) resolveAdapter(refund *model.RefundRequest, txn *model.Transaction) (gateway.Adapter, error) {
	switch refund.Method {
	case model.MethodOriginal, model.MethodGopay, model.MethodQRIS:
		gatewayName := txn.DetectGateway()
		if gatewayName == "" {
			return nil, model.NewUnknownGatewayError(txn.Reference)
		}
		return s.registry.ForGateway(gatewayName)
	default:
		return s.registry.ForMethod(refund.Method)
	}
}

// =====================================================
// EXECUTION
// =====================================================

// execute normalizes every adapter failure mode, including panics, into a
// failed outcome so the refund always lands in a recorded state.
func (s *processingService) execute(ctx context.Context, adapter gateway.Adapter, refund *model.RefundRequest, txn *model.Transaction) (outcome *gateway.Outcome) {
	defer func() {
		if p := recover(); p != nil {
			logger.Error("Gateway adapter panicked", fmt.Errorf("%v", p))
			outcome = gateway.FailureOutcome(gateway.ErrCodeSystemError, fmt.Sprintf("adapter panic: %v", p), nil)
		}
	}()

	result, err := adapter.Process(ctx, gateway.Request{
		RefundID:             refund.ID.String(),
		Reference:            refund.Reference,
		Amount:               refund.Amount - refund.ProcessingFee,
		Currency:             refund.Currency,
		Reason:               refund.Reason,
		SourceTransactionRef: txn.Reference,
	})
	if err != nil {
		logger.Error("Gateway adapter returned error", err)
		return gateway.FailureOutcome(gateway.ErrCodeSystemError, err.Error(), nil)
	}

	return result
}

// =====================================================
// OUTCOME APPLICATION
// =====================================================

func (s *processingService) applyOutcome(ctx context.Context, tenantID, refundID uuid.UUID, outcome *gateway.Outcome) (*model.RefundRequest, error) {
	var events []shared.Event

	refund, err := database.WithTransactionResult(ctx, s.pool, func(tx pgx.Tx) (*model.RefundRequest, error) {
		refund, err := s.refundRepo.GetByIDForUpdate(ctx, tx, tenantID, refundID)
		if err != nil {
			return nil, err
		}

		if outcome.Success {
			providerRef := ""
			if outcome.ProviderReference != nil {
				providerRef = *outcome.ProviderReference
			}

			events, err = s.settler.completeWithTx(ctx, tx, refund, providerRef, outcome.RawPayload)
			if err != nil {
				return nil, err
			}
			refund.Status = model.StatusCompleted
			return refund, nil
		}

		code := gateway.ErrCodeSystemError
		if outcome.ErrorCode != nil {
			code = *outcome.ErrorCode
		}
		message := ""
		if outcome.ErrorMessage != nil {
			message = *outcome.ErrorMessage
		}

		if err := s.refundRepo.FailWithTx(ctx, tx, refund.ID, code, message, outcome.RawPayload); err != nil {
			return nil, err
		}
		refund.Status = model.StatusFailed
		refund.ErrorCode = &code
		refund.ErrorMessage = &message

		events = append(events, shared.NewEvent(shared.EventRefundFailed, tenantID.String(), map[string]interface{}{
			"refund_id":   refundID.String(),
			"reference":   refund.Reference,
			"error_code":  code,
			"retry_count": refund.RetryCount,
			"retryable":   !model.NonRetryableErrorCodes[code],
		}))
		return refund, nil
	})
	if err != nil {
		return nil, err
	}

	s.dispatcher.Dispatch(ctx, events...)

	return refund, nil
}
