package model

import (
	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"
	"github.com/shopspring/decimal"
)

// =====================================================
// REQUEST DTOs
// =====================================================

type CreateDisputeRequest struct {
	RefundID     string   `json:"refund_id"`
	Reason       string   `json:"reason"`
	EvidenceRefs []string `json:"evidence_refs"`
}

func (r CreateDisputeRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.RefundID, validation.Required, is.UUIDv4),
		validation.Field(&r.Reason, validation.Required, validation.Length(10, 4000)),
		validation.Field(&r.EvidenceRefs, validation.Length(0, 20)),
	)
}

type RespondDisputeRequest struct {
	Response string `json:"response"`
}

func (r RespondDisputeRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Response, validation.Required, validation.Length(10, 4000)),
	)
}

type EscalateDisputeRequest struct {
	Reason string `json:"reason"`
}

func (r EscalateDisputeRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Reason, validation.Length(0, 2000)),
	)
}

type ResolveDisputeRequest struct {
	ResolutionType string `json:"resolution_type"`
	// FinalAmount is required for partial refunds, ignored otherwise.
	FinalAmount *int64 `json:"final_amount,omitempty"`
	Notes       string `json:"notes"`
}

func (r ResolveDisputeRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.ResolutionType, validation.Required, validation.In(toInterfaces(ValidResolutions)...)),
		validation.Field(&r.Notes, validation.Length(0, 4000)),
	)
}

type ListDisputesQuery struct {
	Status string `form:"status"`
	Page   int    `form:"page"`
	Limit  int    `form:"limit"`
}

func (q *ListDisputesQuery) Normalize() {
	if q.Page < 1 {
		q.Page = 1
	}
	if q.Limit < 1 || q.Limit > 100 {
		q.Limit = 20
	}
}

func (q ListDisputesQuery) Validate() error {
	return validation.ValidateStruct(&q,
		validation.Field(&q.Status, validation.In(toInterfaces(ValidStatuses)...)),
	)
}

// =====================================================
// RESOLUTION RECOMMENDATION
// =====================================================

// Recommendation is an advisory resolution; the final call stays with the
// operator.
type Recommendation struct {
	ResolutionType    string          `json:"resolution_type"`
	RecommendedAmount int64           `json:"recommended_amount"`
	Confidence        decimal.Decimal `json:"confidence"`
	Rationale         []string        `json:"rationale"`
}

func toInterfaces(values []string) []interface{} {
	out := make([]interface{}, len(values))
	for i, v := range values {
		out[i] = v
	}
	return out
}
