package model

import (
	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"
	"github.com/shopspring/decimal"
)

// =====================================================
// REQUEST DTOs
// =====================================================

type RecordRecoveryRequest struct {
	Amount int64  `json:"amount"`
	Notes  string `json:"notes"`
}

func (r RecordRecoveryRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Amount, validation.Required, validation.Min(int64(1))),
		validation.Field(&r.Notes, validation.Length(0, 2000)),
	)
}

type WriteOffRequest struct {
	Reason string `json:"reason"`
}

func (r WriteOffRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Reason, validation.Required, validation.Length(5, 2000)),
	)
}

// DisputeClaimRequest records the vendor contesting the claim.
type DisputeClaimRequest struct {
	Reason string `json:"reason"`
}

func (r DisputeClaimRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Reason, validation.Required, validation.Length(5, 2000)),
	)
}

type WaiveRequest struct {
	Reason string `json:"reason"`
}

func (r WaiveRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Reason, validation.Required, validation.Length(5, 2000)),
	)
}

type ListLiabilitiesQuery struct {
	VendorID string `form:"vendor_id"`
	Status   string `form:"status"`
	Page     int    `form:"page"`
	Limit    int    `form:"limit"`
}

func (q *ListLiabilitiesQuery) Normalize() {
	if q.Page < 1 {
		q.Page = 1
	}
	if q.Limit < 1 || q.Limit > 100 {
		q.Limit = 20
	}
}

func (q ListLiabilitiesQuery) Validate() error {
	return validation.ValidateStruct(&q,
		validation.Field(&q.VendorID, is.UUIDv4),
		validation.Field(&q.Status, validation.In(toInterfaces(ValidStatuses)...)),
	)
}

// =====================================================
// VENDOR RISK PROFILE
// =====================================================

// VendorAggregates is the raw material for the risk score.
type VendorAggregates struct {
	ClaimCount      int64 `json:"claim_count"`
	TotalAmount     int64 `json:"total_amount"`
	RecoveredAmount int64 `json:"recovered_amount"`
	WrittenOffCount int64 `json:"written_off_count"`
}

// RiskProfile is the per-vendor exposure summary.
type RiskProfile struct {
	VendorID        string          `json:"vendor_id"`
	ClaimCount      int64           `json:"claim_count"`
	TotalAmount     int64           `json:"total_amount"`
	RecoveredAmount int64           `json:"recovered_amount"`
	Outstanding     int64           `json:"outstanding"`
	WrittenOffCount int64           `json:"written_off_count"`
	RecoveryRate    decimal.Decimal `json:"recovery_rate"`
	RiskScore       decimal.Decimal `json:"risk_score"`
}

func toInterfaces(values []string) []interface{} {
	out := make([]interface{}, len(values))
	for i, v := range values {
		out[i] = v
	}
	return out
}
