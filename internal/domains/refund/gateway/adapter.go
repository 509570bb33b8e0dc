package gateway

import (
	"context"
)

// =====================================================
// GATEWAY ADAPTER CONTRACT
// =====================================================

// Request carries everything an adapter needs to move money back to the
// customer. Reference is generated once per refund and reused across
// retries, so providers can deduplicate on it.
type Request struct {
	RefundID  string // refund request id
	Reference string // idempotency key, e.g. REF-8F3K2M1Q9Z
	Amount    int64  // minor units
	Currency  string
	Reason    string

	// SourceTransactionRef is the provider-side reference of the original
	// payment, required by gateways that refund against a transaction.
	SourceTransactionRef string
}

// Outcome is the normalized result every adapter returns. A declined or
// errored provider call is reported with Success=false rather than a Go
// error; adapters return a non-nil error only for request-building bugs.
type Outcome struct {
	Success           bool
	ProviderReference *string
	RawPayload        map[string]interface{}
	Fee               *int64
	ErrorCode         *string
	ErrorMessage      *string
}

// Adapter is one disbursement channel.
type Adapter interface {
	// Name identifies the adapter in logs and stored payloads.
	Name() string

	// Process executes the refund. Implementations must be safe to call
	// again with the same Reference.
	Process(ctx context.Context, req Request) (*Outcome, error)
}

// FailureOutcome builds a failed outcome with a normalized code.
func FailureOutcome(code, message string, raw map[string]interface{}) *Outcome {
	return &Outcome{
		Success:      false,
		RawPayload:   raw,
		ErrorCode:    &code,
		ErrorMessage: &message,
	}
}

// SuccessOutcome builds a successful outcome.
func SuccessOutcome(providerRef string, raw map[string]interface{}) *Outcome {
	return &Outcome{
		Success:           true,
		ProviderReference: &providerRef,
		RawPayload:        raw,
	}
}

// Normalized error codes shared by all adapters. The non-retryable subset
// is defined next to the retry policy in the refund model.
const (
	ErrCodeInsufficientFunds   = "INSUFFICIENT_FUNDS"
	ErrCodeInvalidAccount      = "INVALID_ACCOUNT"
	ErrCodeAccountClosed       = "ACCOUNT_CLOSED"
	ErrCodeInvalidRefundAmount = "INVALID_REFUND_AMOUNT"
	ErrCodeGatewayTimeout      = "GATEWAY_TIMEOUT"
	ErrCodeGatewayUnavailable  = "GATEWAY_UNAVAILABLE"
	ErrCodeSystemError         = "SYSTEM_ERROR"
)
