package model

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// =====================================================
// REFUND REQUEST ENTITY
// =====================================================

// RefundRequest is the central entity of the refund lifecycle. Amounts are
// integer minor units. Rows are never deleted, only moved to a terminal
// status.
type RefundRequest struct {
	ID        uuid.UUID `json:"id" db:"id"`
	TenantID  uuid.UUID `json:"tenant_id" db:"tenant_id"`
	Reference string    `json:"reference" db:"reference"`

	OrderID       uuid.UUID  `json:"order_id" db:"order_id"`
	TransactionID uuid.UUID  `json:"transaction_id" db:"transaction_id"`
	VendorID      *uuid.UUID `json:"vendor_id,omitempty" db:"vendor_id"`

	// Request details
	RequestedBy    uuid.UUID `json:"requested_by" db:"requested_by"`
	Amount         int64     `json:"amount" db:"amount"`
	Currency       string    `json:"currency" db:"currency"`
	Method         string    `json:"method" db:"method"`
	ReasonCategory string    `json:"reason_category" db:"reason_category"`
	Reason         string    `json:"reason" db:"reason"`

	// Computed at creation
	ProcessingFee int64 `json:"processing_fee" db:"processing_fee"`
	IsFullRefund  bool  `json:"is_full_refund" db:"is_full_refund"`
	VendorLiable  bool  `json:"vendor_liable" db:"vendor_liable"`
	IsDisputed    bool  `json:"is_disputed" db:"is_disputed"`

	Status string `json:"status" db:"status"`

	// Approval tracking
	ApprovedBy *uuid.UUID `json:"approved_by,omitempty" db:"approved_by"`
	ApprovedAt *time.Time `json:"approved_at,omitempty" db:"approved_at"`
	RejectedBy *uuid.UUID `json:"rejected_by,omitempty" db:"rejected_by"`
	RejectedAt *time.Time `json:"rejected_at,omitempty" db:"rejected_at"`

	// Gateway tracking
	GatewayRefundID *string                `json:"gateway_refund_id,omitempty" db:"gateway_refund_id"`
	GatewayResponse map[string]interface{} `json:"gateway_response,omitempty" db:"gateway_response"`
	FinalAmount     *int64                 `json:"final_amount,omitempty" db:"final_amount"`
	ErrorCode       *string                `json:"error_code,omitempty" db:"error_code"`
	ErrorMessage    *string                `json:"error_message,omitempty" db:"error_message"`
	RetryCount      int                    `json:"retry_count" db:"retry_count"`

	// Evidence object references issued by the storage collaborator.
	EvidenceRefs []string `json:"evidence_refs,omitempty" db:"evidence_refs"`

	// Timestamps
	RequestedAt  time.Time  `json:"requested_at" db:"requested_at"`
	ProcessingAt *time.Time `json:"processing_at,omitempty" db:"processing_at"`
	CompletedAt  *time.Time `json:"completed_at,omitempty" db:"completed_at"`
	FailedAt     *time.Time `json:"failed_at,omitempty" db:"failed_at"`
	CreatedAt    time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at" db:"updated_at"`
}

// ApprovalLevel resolves the risk tier from the reason category.
func (r *RefundRequest) ApprovalLevel() string {
	if cat, ok := ReasonCategories[r.ReasonCategory]; ok {
		return cat.ApprovalLevel
	}
	return ApprovalLevelMedium
}

// RequiresApproval decides between the workflow path and auto-approval.
func (r *RefundRequest) RequiresApproval() bool {
	if r.IsDisputed {
		return true
	}
	if r.Amount >= HighValueThreshold {
		return true
	}
	return r.ApprovalLevel() != ApprovalLevelLow
}

// CanRetry checks retry eligibility: failed status, below the attempt cap,
// and not a permanently failing error code.
func (r *RefundRequest) CanRetry() bool {
	if r.Status != StatusFailed {
		return false
	}
	if r.RetryCount >= MaxRetryAttempts {
		return false
	}
	if r.ErrorCode != nil && NonRetryableErrorCodes[*r.ErrorCode] {
		return false
	}
	return true
}

// CanBeCancelled allows cancellation only before money starts moving.
func (r *RefundRequest) CanBeCancelled() bool {
	switch r.Status {
	case StatusPending, StatusPendingReview, StatusUnderInvestigation,
		StatusPendingManager, StatusPendingFinance, StatusApproved:
		return true
	}
	return false
}

// CanBeProcessed gates the gateway path.
func (r *RefundRequest) CanBeProcessed() bool {
	return r.Status == StatusApproved
}

func (r *RefundRequest) IsTerminal() bool {
	switch r.Status {
	case StatusCompleted, StatusRejected, StatusCancelled:
		return true
	}
	return false
}

// =====================================================
// WORKFLOW STEP ENTITY
// =====================================================

// WorkflowStep is one required approval stage. Step numbers are contiguous
// from 1 and never reordered; at most one non-completed step per refund has
// IsCurrent set.
type WorkflowStep struct {
	ID       uuid.UUID `json:"id" db:"id"`
	RefundID uuid.UUID `json:"refund_id" db:"refund_id"`

	StepNumber   int    `json:"step_number" db:"step_number"`
	StepType     string `json:"step_type" db:"step_type"`
	RequiredRole string `json:"required_role" db:"required_role"`

	AssigneeID uuid.UUID `json:"assignee_id" db:"assignee_id"`
	AssignedAt time.Time `json:"assigned_at" db:"assigned_at"`
	DueAt      time.Time `json:"due_at" db:"due_at"`

	IsCurrent bool `json:"is_current" db:"is_current"`

	// Finance approval carries extra conditions checked by the approver.
	RequiresDocuments    bool `json:"requires_documents" db:"requires_documents"`
	RequiresVerification bool `json:"requires_verification" db:"requires_verification"`

	Decision       string     `json:"decision" db:"decision"`
	DecisionReason *string    `json:"decision_reason,omitempty" db:"decision_reason"`
	DecidedBy      *uuid.UUID `json:"decided_by,omitempty" db:"decided_by"`
	DecidedAt      *time.Time `json:"decided_at,omitempty" db:"decided_at"`

	EscalatedFrom    *uuid.UUID `json:"escalated_from,omitempty" db:"escalated_from"`
	EscalatedAt      *time.Time `json:"escalated_at,omitempty" db:"escalated_at"`
	EscalationReason *string    `json:"escalation_reason,omitempty" db:"escalation_reason"`
	IsOverdue        bool       `json:"is_overdue" db:"is_overdue"`

	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

func (s *WorkflowStep) IsDecided() bool {
	return s.Decision != DecisionPending && s.Decision != DecisionNeedsInfo
}

// CanBeEscalated rejects escalation of decided steps.
func (s *WorkflowStep) CanBeEscalated() bool {
	return !s.IsDecided()
}

// OverdueAt reports whether the step has blown its SLA at the given time.
func (s *WorkflowStep) OverdueAt(now time.Time) bool {
	return !s.IsDecided() && now.After(s.DueAt)
}

// NeedsAutoEscalation reports whether the step is past the grace window on
// top of its SLA.
func (s *WorkflowStep) NeedsAutoEscalation(now time.Time) bool {
	return s.OverdueAt(now) && now.After(s.DueAt.Add(EscalationGraceHours*time.Hour))
}

// =====================================================
// SOURCE TRANSACTION ENTITY
// =====================================================

// Transaction is the original payment a refund reverses. Only the fields
// the refund engine reads are modelled here.
type Transaction struct {
	ID        uuid.UUID              `json:"id" db:"id"`
	TenantID  uuid.UUID              `json:"tenant_id" db:"tenant_id"`
	OrderID   uuid.UUID              `json:"order_id" db:"order_id"`
	Reference string                 `json:"reference" db:"reference"`
	Gateway   *string                `json:"gateway,omitempty" db:"gateway"`
	Amount    int64                  `json:"amount" db:"amount"`
	Currency  string                 `json:"currency" db:"currency"`
	Status    string                 `json:"status" db:"status"`
	Metadata  map[string]interface{} `json:"metadata,omitempty" db:"metadata"`
	CreatedAt time.Time              `json:"created_at" db:"created_at"`
}

const TransactionStatusCompleted = "completed"

func (t *Transaction) IsCompleted() bool {
	return t.Status == TransactionStatusCompleted
}

// DetectGateway resolves which gateway processed the transaction: explicit
// column, then metadata, then the reference prefix convention.
func (t *Transaction) DetectGateway() string {
	if t.Gateway != nil && *t.Gateway != "" {
		return *t.Gateway
	}
	if t.Metadata != nil {
		if g, ok := t.Metadata["gateway"].(string); ok && g != "" {
			return g
		}
	}
	for prefix, gw := range GatewayReferencePrefixes {
		if strings.HasPrefix(t.Reference, prefix) {
			return gw
		}
	}
	return ""
}
