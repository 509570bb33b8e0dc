package model

import (
	"time"

	"github.com/google/uuid"
)

// =====================================================
// DISPUTE ENTITY
// =====================================================

// Dispute is a customer's formal disagreement with a refund outcome. At most
// one active dispute exists per refund; resolving it feeds the outcome back
// into the refund's lifecycle.
type Dispute struct {
	ID       uuid.UUID `json:"id" db:"id"`
	TenantID uuid.UUID `json:"tenant_id" db:"tenant_id"`
	RefundID uuid.UUID `json:"refund_id" db:"refund_id"`

	RaisedBy uuid.UUID `json:"raised_by" db:"raised_by"`
	Reason   string    `json:"reason" db:"reason"`
	// Evidence object references supplied by the customer.
	EvidenceRefs []string `json:"evidence_refs,omitempty" db:"evidence_refs"`

	Status string `json:"status" db:"status"`

	// Company side
	CompanyResponse *string    `json:"company_response,omitempty" db:"company_response"`
	RespondedBy     *uuid.UUID `json:"responded_by,omitempty" db:"responded_by"`
	RespondedAt     *time.Time `json:"responded_at,omitempty" db:"responded_at"`

	// Resolution
	ResolutionType  *string    `json:"resolution_type,omitempty" db:"resolution_type"`
	FinalAmount     *int64     `json:"final_amount,omitempty" db:"final_amount"`
	ResolutionNotes *string    `json:"resolution_notes,omitempty" db:"resolution_notes"`
	ResolvedBy      *uuid.UUID `json:"resolved_by,omitempty" db:"resolved_by"`
	ResolvedAt      *time.Time `json:"resolved_at,omitempty" db:"resolved_at"`

	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

func (d *Dispute) IsActive() bool {
	return d.Status != StatusResolved
}

// CanReceiveResponse gates the company response to freshly opened disputes.
func (d *Dispute) CanReceiveResponse() bool {
	return d.Status == StatusOpen
}

// CanBeEscalated allows moving to mediation once the company has responded.
func (d *Dispute) CanBeEscalated() bool {
	return d.Status == StatusUnderReview || d.Status == StatusEscalated
}

// CanBeResolved accepts a resolution from any active state.
func (d *Dispute) CanBeResolved() bool {
	return d.IsActive()
}
