package model

import (
	"time"

	"github.com/google/uuid"
)

// =====================================================
// VENDOR LIABILITY ENTITY
// =====================================================

// VendorLiability is a claim against a vendor for a refund attributed to
// vendor fault. Amounts are integer minor units; RecoveredAmount never
// exceeds Amount.
type VendorLiability struct {
	ID       uuid.UUID `json:"id" db:"id"`
	TenantID uuid.UUID `json:"tenant_id" db:"tenant_id"`
	VendorID uuid.UUID `json:"vendor_id" db:"vendor_id"`
	RefundID uuid.UUID `json:"refund_id" db:"refund_id"`
	OrderID  uuid.UUID `json:"order_id" db:"order_id"`

	Amount          int64  `json:"amount" db:"amount"`
	RecoveredAmount int64  `json:"recovered_amount" db:"recovered_amount"`
	ReasonCategory  string `json:"reason_category" db:"reason_category"`

	Status    string  `json:"status" db:"status"`
	IsOverdue bool    `json:"is_overdue" db:"is_overdue"`
	Notes     *string `json:"notes,omitempty" db:"notes"`

	ClaimedAt      time.Time  `json:"claimed_at" db:"claimed_at"`
	DueAt          time.Time  `json:"due_at" db:"due_at"`
	AcknowledgedAt *time.Time `json:"acknowledged_at,omitempty" db:"acknowledged_at"`
	RecoveredAt    *time.Time `json:"recovered_at,omitempty" db:"recovered_at"`
	WrittenOffAt   *time.Time `json:"written_off_at,omitempty" db:"written_off_at"`

	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// Outstanding is the still-unrecovered balance.
func (l *VendorLiability) Outstanding() int64 {
	return l.Amount - l.RecoveredAmount
}

func (l *VendorLiability) IsOpen() bool {
	switch l.Status {
	case StatusPending, StatusAcknowledged, StatusDisputed, StatusPartiallyRecovered:
		return true
	}
	return false
}

// CanBeDisputed lets the vendor contest a claim before recovery starts.
func (l *VendorLiability) CanBeDisputed() bool {
	return l.Status == StatusPending || l.Status == StatusAcknowledged
}

// CanRecordRecovery allows payments against any open claim.
func (l *VendorLiability) CanRecordRecovery() bool {
	return l.IsOpen()
}

// CanBeAcknowledged is the vendor accepting the claim.
func (l *VendorLiability) CanBeAcknowledged() bool {
	return l.Status == StatusPending
}

// CanBeWrittenOff closes an open claim as unrecoverable.
func (l *VendorLiability) CanBeWrittenOff() bool {
	return l.IsOpen()
}

// CanBeWaived is the company absorbing the loss before recovery starts.
func (l *VendorLiability) CanBeWaived() bool {
	return l.Status == StatusPending || l.Status == StatusAcknowledged
}

// OverdueAt reports whether the claim blew its follow-up window.
func (l *VendorLiability) OverdueAt(now time.Time) bool {
	return l.IsOpen() && now.After(l.DueAt)
}
