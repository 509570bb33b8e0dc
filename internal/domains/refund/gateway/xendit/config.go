package xendit

import (
	"fmt"
)

// =====================================================
// XENDIT CONFIGURATION
// =====================================================

type Config struct {
	APIKey string // secret API key, sent as Basic auth username
	APIUrl string // Xendit API base URL (e.g. https://api.xendit.co)
}

func NewConfig(apiKey, apiURL string) *Config {
	return &Config{
		APIKey: apiKey,
		APIUrl: apiURL,
	}
}

func (c *Config) Validate() error {
	if c.APIKey == "" {
		return fmt.Errorf("xendit APIKey is required")
	}
	if c.APIUrl == "" {
		return fmt.Errorf("xendit APIUrl is required")
	}
	return nil
}

// RefundURL returns the refund endpoint for a payment request.
func (c *Config) RefundURL(paymentRequestRef string) string {
	return fmt.Sprintf("%s/payment_requests/%s/refunds", c.APIUrl, paymentRequestRef)
}

// =====================================================
// XENDIT REFUND STATUSES AND FAILURE CODES
// =====================================================

const (
	RefundStatusSucceeded = "SUCCEEDED"
	RefundStatusPending   = "PENDING"
	RefundStatusFailed    = "FAILED"
)

const (
	FailureInsufficientBalance = "INSUFFICIENT_BALANCE"
	FailureAccountNotActive    = "DESTINATION_ACCOUNT_NOT_ACTIVE"
	FailureAccountClosed       = "DESTINATION_ACCOUNT_CLOSED"
	FailureMaxAmount           = "MAXIMUM_REFUND_AMOUNT_REACHED"
)
