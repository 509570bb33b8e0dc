package model

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// =====================================================
// ORDER (refund engine view)
// =====================================================
// Only the fields the refund engine reads or writes. Order lifecycle
// management lives elsewhere on the platform.

const (
	PaymentStatusPaid              = "paid"
	PaymentStatusPartiallyRefunded = "partially_refunded"
	PaymentStatusRefunded          = "refunded"
)

type Order struct {
	ID            uuid.UUID  `json:"id" db:"id"`
	TenantID      uuid.UUID  `json:"tenant_id" db:"tenant_id"`
	VendorID      *uuid.UUID `json:"vendor_id,omitempty" db:"vendor_id"`
	TotalAmount   int64      `json:"total_amount" db:"total_amount"`
	PaymentStatus string     `json:"payment_status" db:"payment_status"`
	CreatedAt     time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at" db:"updated_at"`
}

// HasVendor reports whether vendor liability can attach to this order.
func (o *Order) HasVendor() bool {
	return o.VendorID != nil
}

var ErrOrderNotFound = errors.New("order not found")
