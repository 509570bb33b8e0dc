package model

import (
	"time"

	"github.com/google/uuid"
)

// =====================================================
// INSURANCE FUND LEDGER
// =====================================================

// FundEntry is one append-only ledger row. BalanceBefore and BalanceAfter
// are captured at write time so the history audits without replay.
type FundEntry struct {
	ID            uuid.UUID  `json:"id"`
	TenantID      uuid.UUID  `json:"tenant_id"`
	EntryType     string     `json:"entry_type"`
	Amount        int64      `json:"amount"`
	BalanceBefore int64      `json:"balance_before"`
	BalanceAfter  int64      `json:"balance_after"`
	RefundID      *uuid.UUID `json:"refund_id,omitempty"`
	TransactionID *uuid.UUID `json:"transaction_id,omitempty"`
	Description   string     `json:"description,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
}

// FundStats summarizes fund activity for a tenant.
type FundStats struct {
	Balance            int64 `json:"balance"`
	TotalContributions int64 `json:"total_contributions"`
	TotalWithdrawals   int64 `json:"total_withdrawals"`
	ContributionCount  int64 `json:"contribution_count"`
	WithdrawalCount    int64 `json:"withdrawal_count"`
	LowBalance         bool  `json:"low_balance"`
}
