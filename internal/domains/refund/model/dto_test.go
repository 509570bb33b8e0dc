package model

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func validCreateRequest() CreateRefundRequest {
	return CreateRefundRequest{
		OrderID:        uuid.New().String(),
		TransactionID:  uuid.New().String(),
		Amount:         50_000,
		Currency:       "IDR",
		Method:         MethodOriginal,
		ReasonCategory: "damaged_product",
		Reason:         "Arrived with a cracked cover",
	}
}

func TestCreateRefundRequest_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*CreateRefundRequest)
		wantErr bool
	}{
		{name: "valid request", mutate: func(r *CreateRefundRequest) {}, wantErr: false},
		{name: "missing order id", mutate: func(r *CreateRefundRequest) { r.OrderID = "" }, wantErr: true},
		{name: "malformed transaction id", mutate: func(r *CreateRefundRequest) { r.TransactionID = "not-a-uuid" }, wantErr: true},
		{name: "dust amount", mutate: func(r *CreateRefundRequest) { r.Amount = MinRefundAmount - 1 }, wantErr: true},
		{name: "minimum amount accepted", mutate: func(r *CreateRefundRequest) { r.Amount = MinRefundAmount }, wantErr: false},
		{name: "bad currency length", mutate: func(r *CreateRefundRequest) { r.Currency = "RUPIAH" }, wantErr: true},
		{name: "unknown method", mutate: func(r *CreateRefundRequest) { r.Method = "carrier_pigeon" }, wantErr: true},
		{name: "unknown reason category", mutate: func(r *CreateRefundRequest) { r.ReasonCategory = "felt_like_it" }, wantErr: true},
		{name: "reason too short", mutate: func(r *CreateRefundRequest) { r.Reason = "bad" }, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := validCreateRequest()
			tt.mutate(&req)
			err := req.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestDecideStepRequest_Validate(t *testing.T) {
	for _, decision := range ValidDecisions {
		assert.NoError(t, DecideStepRequest{Decision: decision}.Validate())
	}
	assert.Error(t, DecideStepRequest{}.Validate())
	assert.Error(t, DecideStepRequest{Decision: DecisionPending}.Validate(),
		"pending is the initial state, not a decision")
}

func TestListRefundsQuery_Normalize(t *testing.T) {
	q := ListRefundsQuery{}
	q.Normalize()
	assert.Equal(t, 1, q.Page)
	assert.Equal(t, 20, q.Limit)

	q = ListRefundsQuery{Page: 3, Limit: 500}
	q.Normalize()
	assert.Equal(t, 3, q.Page)
	assert.Equal(t, 20, q.Limit, "oversized limit resets to the default")

	q = ListRefundsQuery{Page: 2, Limit: 50}
	q.Normalize()
	assert.Equal(t, 50, q.Limit)
}
