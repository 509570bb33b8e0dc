package service

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"refund-backend/internal/domains/liability/model"
)

func TestComputeRiskScore(t *testing.T) {
	tests := []struct {
		name     string
		agg      model.VendorAggregates
		wantRate string
		wantScor string
	}{
		{
			name:     "no claims means no risk",
			agg:      model.VendorAggregates{},
			wantRate: "1",
			wantScor: "0",
		},
		{
			name:     "fully recovered single claim scores volume only",
			agg:      model.VendorAggregates{ClaimCount: 1, TotalAmount: 100_000, RecoveredAmount: 100_000},
			wantRate: "1",
			wantScor: "5",
		},
		{
			name:     "nothing recovered takes the full exposure weight",
			agg:      model.VendorAggregates{ClaimCount: 2, TotalAmount: 500_000, RecoveredAmount: 0},
			wantRate: "0",
			wantScor: "50",
		},
		{
			name:     "half recovered splits the exposure weight",
			agg:      model.VendorAggregates{ClaimCount: 1, TotalAmount: 200_000, RecoveredAmount: 100_000},
			wantRate: "0.5",
			wantScor: "25",
		},
		{
			name:     "claim volume contribution caps at thirty",
			agg:      model.VendorAggregates{ClaimCount: 20, TotalAmount: 1_000_000, RecoveredAmount: 1_000_000},
			wantRate: "1",
			wantScor: "30",
		},
		{
			name:     "write-offs add ten points each",
			agg:      model.VendorAggregates{ClaimCount: 1, TotalAmount: 100_000, RecoveredAmount: 100_000, WrittenOffCount: 2},
			wantRate: "1",
			wantScor: "25",
		},
		{
			name:     "score caps at one hundred",
			agg:      model.VendorAggregates{ClaimCount: 20, TotalAmount: 1_000_000, RecoveredAmount: 0, WrittenOffCount: 10},
			wantRate: "0",
			wantScor: "100",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rate, score := ComputeRiskScore(&tt.agg)
			assert.True(t, rate.Equal(decimal.RequireFromString(tt.wantRate)),
				"recovery rate %s, want %s", rate, tt.wantRate)
			assert.True(t, score.Equal(decimal.RequireFromString(tt.wantScor)),
				"risk score %s, want %s", score, tt.wantScor)
		})
	}
}
