package gateway

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"refund-backend/internal/domains/refund/model"
)

func TestRegistry_Resolution(t *testing.T) {
	registry := NewRegistry()
	cash := NewCashAdapter()
	bank := NewBankTransferAdapter()

	registry.RegisterMethod(model.MethodCash, cash)
	registry.RegisterGateway(model.GatewayMidtrans, bank)

	adapter, err := registry.ForMethod(model.MethodCash)
	require.NoError(t, err)
	assert.Same(t, Adapter(cash), adapter)

	adapter, err = registry.ForGateway(model.GatewayMidtrans)
	require.NoError(t, err)
	assert.Same(t, Adapter(bank), adapter)
}

func TestRegistry_UnmappedIsConfigError(t *testing.T) {
	registry := NewRegistry()

	_, err := registry.ForMethod(model.MethodGopay)
	require.Error(t, err)
	var refundErr *model.RefundError
	require.True(t, errors.As(err, &refundErr))
	assert.Equal(t, model.ErrCodeNoAdapter, refundErr.Code)

	_, err = registry.ForGateway("stripe")
	require.Error(t, err)
	require.True(t, errors.As(err, &refundErr))
	assert.Equal(t, model.ErrCodeNoAdapter, refundErr.Code)
}

func TestLocalAdapters_StableReferences(t *testing.T) {
	ctx := context.Background()
	req := Request{
		RefundID:  "5f0c7c1e-0000-0000-0000-000000000000",
		Reference: "REF-8F3K2M1Q9Z",
		Amount:    150_000,
		Currency:  "IDR",
	}

	tests := []struct {
		name        string
		adapter     Adapter
		expectedRef string
	}{
		{name: "cash", adapter: NewCashAdapter(), expectedRef: "CASH-8F3K2M1Q9Z"},
		{name: "store credit", adapter: NewStoreCreditAdapter(), expectedRef: "CREDIT-8F3K2M1Q9Z"},
		{name: "bank transfer", adapter: NewBankTransferAdapter(), expectedRef: "BT-8F3K2M1Q9Z"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			first, err := tt.adapter.Process(ctx, req)
			require.NoError(t, err)
			require.True(t, first.Success)
			require.NotNil(t, first.ProviderReference)
			assert.Equal(t, tt.expectedRef, *first.ProviderReference)

			// Same reference on retry maps to the same payout.
			second, err := tt.adapter.Process(ctx, req)
			require.NoError(t, err)
			assert.Equal(t, *first.ProviderReference, *second.ProviderReference)
		})
	}
}

func TestLocalAdapters_RejectNonPositiveAmount(t *testing.T) {
	ctx := context.Background()
	for _, adapter := range []Adapter{
		NewCashAdapter(), NewStoreCreditAdapter(), NewBankTransferAdapter(),
	} {
		_, err := adapter.Process(ctx, Request{Reference: "REF-X", Amount: 0})
		assert.Error(t, err, "adapter %s accepted zero amount", adapter.Name())
	}
}

func TestOutcomeBuilders(t *testing.T) {
	success := SuccessOutcome("mt_refund_1", map[string]interface{}{"status": "ok"})
	assert.True(t, success.Success)
	require.NotNil(t, success.ProviderReference)
	assert.Equal(t, "mt_refund_1", *success.ProviderReference)
	assert.Nil(t, success.ErrorCode)

	failure := FailureOutcome(ErrCodeInsufficientFunds, "merchant balance too low", nil)
	assert.False(t, failure.Success)
	require.NotNil(t, failure.ErrorCode)
	assert.Equal(t, ErrCodeInsufficientFunds, *failure.ErrorCode)
	assert.Nil(t, failure.ProviderReference)

	// The normalized codes adapters emit line up with the retry policy.
	assert.True(t, model.NonRetryableErrorCodes[ErrCodeInsufficientFunds])
	assert.True(t, model.NonRetryableErrorCodes[ErrCodeInvalidAccount])
	assert.False(t, model.NonRetryableErrorCodes[ErrCodeGatewayTimeout])
	assert.False(t, model.NonRetryableErrorCodes[ErrCodeGatewayUnavailable])
}
