package model

import (
	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"
)

// =====================================================
// REQUEST DTOs
// =====================================================

type CreateRefundRequest struct {
	OrderID        string `json:"order_id"`
	TransactionID  string `json:"transaction_id"`
	Amount         int64  `json:"amount"`
	Currency       string `json:"currency"`
	Method         string `json:"method"`
	ReasonCategory string `json:"reason_category"`
	Reason         string `json:"reason"`
	IsDisputed     bool   `json:"is_disputed"`
}

func (r CreateRefundRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.OrderID, validation.Required, is.UUIDv4),
		validation.Field(&r.TransactionID, validation.Required, is.UUIDv4),
		validation.Field(&r.Amount, validation.Required, validation.Min(int64(MinRefundAmount))),
		validation.Field(&r.Currency, validation.Required, validation.Length(3, 3)),
		validation.Field(&r.Method, validation.Required, validation.In(toInterfaces(ValidMethods)...)),
		validation.Field(&r.ReasonCategory, validation.Required, validation.In(toInterfaces(ValidReasonCategories)...)),
		validation.Field(&r.Reason, validation.Required, validation.Length(5, 2000)),
	)
}

type DecideStepRequest struct {
	Decision string `json:"decision"`
	Reason   string `json:"reason"`
}

func (r DecideStepRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Decision, validation.Required, validation.In(toInterfaces(ValidDecisions)...)),
		validation.Field(&r.Reason, validation.Length(0, 2000)),
	)
}

type EscalateStepRequest struct {
	AssigneeID string `json:"assignee_id"`
	Reason     string `json:"reason"`
}

func (r EscalateStepRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.AssigneeID, validation.Required, is.UUIDv4),
		validation.Field(&r.Reason, validation.Required, validation.Length(3, 2000)),
	)
}

type CancelRefundRequest struct {
	Reason string `json:"reason"`
}

func (r CancelRefundRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Reason, validation.Length(0, 2000)),
	)
}

// ManualCompleteRequest closes a manual-method refund with the external
// disbursement reference.
type ManualCompleteRequest struct {
	ExternalReference string `json:"external_reference"`
	Notes             string `json:"notes"`
}

func (r ManualCompleteRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.ExternalReference, validation.Required, validation.Length(3, 255)),
		validation.Field(&r.Notes, validation.Length(0, 2000)),
	)
}

type AttachEvidenceRequest struct {
	ObjectRef string `json:"object_ref"`
}

func (r AttachEvidenceRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.ObjectRef, validation.Required, validation.Length(3, 512)),
	)
}

// EvidenceUploadURLRequest asks for a presigned upload slot. The client
// uploads directly to object storage and then attaches the returned key.
type EvidenceUploadURLRequest struct {
	Filename    string `json:"filename"`
	ContentType string `json:"content_type"`
}

func (r EvidenceUploadURLRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Filename, validation.Required, validation.Length(1, 255)),
		validation.Field(&r.ContentType, validation.Required, validation.Length(3, 128)),
	)
}

// ListRefundsQuery filters the paged refund listing.
type ListRefundsQuery struct {
	Status  string `form:"status"`
	OrderID string `form:"order_id"`
	Page    int    `form:"page"`
	Limit   int    `form:"limit"`
}

func (q *ListRefundsQuery) Normalize() {
	if q.Page < 1 {
		q.Page = 1
	}
	if q.Limit < 1 || q.Limit > 100 {
		q.Limit = 20
	}
}

func (q ListRefundsQuery) Validate() error {
	return validation.ValidateStruct(&q,
		validation.Field(&q.Status, validation.In(toInterfaces(ValidStatuses)...)),
		validation.Field(&q.OrderID, is.UUIDv4),
	)
}

// =====================================================
// STATISTICS
// =====================================================

// Stats is the per-tenant aggregate used by the reporting endpoint.
type Stats struct {
	TotalCount     int64            `json:"total_count"`
	TotalAmount    int64            `json:"total_amount"`
	TotalFees      int64            `json:"total_fees"`
	CountByStatus  map[string]int64 `json:"count_by_status"`
	AmountByStatus map[string]int64 `json:"amount_by_status"`
	// Average hours from request to completion, completed refunds only.
	AvgCompletionHours float64 `json:"avg_completion_hours"`
}

func toInterfaces(values []string) []interface{} {
	out := make([]interface{}, len(values))
	for i, v := range values {
		out[i] = v
	}
	return out
}
