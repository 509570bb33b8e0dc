package service

import (
	"context"

	"github.com/jackc/pgx/v5"

	orderModel "refund-backend/internal/domains/order/model"
	orderRepo "refund-backend/internal/domains/order/repository"
	"refund-backend/internal/domains/refund/model"
	repo "refund-backend/internal/domains/refund/repository"
	"refund-backend/internal/shared"
)

// =====================================================
// SETTLEMENT
// =====================================================

// settler finalizes a refund whose money has confirmably moved: it marks the
// refund completed, reconciles the order payment status and draws the payout
// from the insurance fund, all inside the caller's transaction.
type settler struct {
	refundRepo repo.RefundRepoInterface
	orderRepo  orderRepo.OrderRepoInterface
	fund       InsuranceFund
}

func (s *settler) completeWithTx(ctx context.Context, tx pgx.Tx, refund *model.RefundRequest, providerRef string, raw map[string]interface{}) ([]shared.Event, error) {
	finalAmount := refund.Amount - refund.ProcessingFee

	if err := s.refundRepo.CompleteWithTx(ctx, tx, refund.ID, providerRef, raw, finalAmount); err != nil {
		return nil, err
	}

	order, err := s.orderRepo.GetByIDWithTx(ctx, tx, refund.TenantID, refund.OrderID)
	if err != nil {
		return nil, err
	}

	// The sum includes the refund just completed above.
	completed, _, err := s.refundRepo.SumForOrderWithTx(ctx, tx, refund.OrderID)
	if err != nil {
		return nil, err
	}

	paymentStatus := orderModel.PaymentStatusPartiallyRefunded
	if completed >= order.TotalAmount {
		paymentStatus = orderModel.PaymentStatusRefunded
	}
	if err := s.orderRepo.UpdatePaymentStatusWithTx(ctx, tx, order.ID, paymentStatus); err != nil {
		return nil, err
	}

	events := []shared.Event{
		shared.NewEvent(shared.EventRefundCompleted, refund.TenantID.String(), map[string]interface{}{
			"refund_id":    refund.ID.String(),
			"reference":    refund.Reference,
			"order_id":     refund.OrderID.String(),
			"amount":       refund.Amount,
			"final_amount": finalAmount,
		}),
	}

	if s.fund != nil {
		fundEvents, err := s.fund.WithdrawWithTx(ctx, tx, refund.TenantID, refund.ID, finalAmount)
		if err != nil {
			return nil, err
		}
		events = append(events, fundEvents...)
	}

	return events, nil
}
