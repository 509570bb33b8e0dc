package model

import (
	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"
)

// =====================================================
// REQUEST DTOs
// =====================================================

// ContributeRequest records the fund levy for a settled payment. Amount is
// the payment amount; the contribution is derived from it.
type ContributeRequest struct {
	TransactionID string `json:"transaction_id"`
	Amount        int64  `json:"amount"`
	Description   string `json:"description"`
}

func (r ContributeRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.TransactionID, validation.Required, is.UUIDv4),
		validation.Field(&r.Amount, validation.Required, validation.Min(int64(1))),
		validation.Field(&r.Description, validation.Length(0, 500)),
	)
}

type ListEntriesQuery struct {
	EntryType string `form:"entry_type"`
	Page      int    `form:"page"`
	Limit     int    `form:"limit"`
}

func (q *ListEntriesQuery) Normalize() {
	if q.Page < 1 {
		q.Page = 1
	}
	if q.Limit < 1 || q.Limit > 100 {
		q.Limit = 20
	}
}

func (q ListEntriesQuery) Validate() error {
	return validation.ValidateStruct(&q,
		validation.Field(&q.EntryType, validation.In(toInterfaces(ValidEntryTypes)...)),
	)
}

func toInterfaces(values []string) []interface{} {
	out := make([]interface{}, len(values))
	for i, v := range values {
		out[i] = v
	}
	return out
}
