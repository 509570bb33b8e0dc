package midtrans

import (
	"fmt"
)

// =====================================================
// MIDTRANS CONFIGURATION
// =====================================================

type Config struct {
	ServerKey string // server key, sent as Basic auth username
	APIUrl    string // Midtrans API base URL (e.g. https://api.sandbox.midtrans.com/v2)
}

func NewConfig(serverKey, apiURL string) *Config {
	return &Config{
		ServerKey: serverKey,
		APIUrl:    apiURL,
	}
}

func (c *Config) Validate() error {
	if c.ServerKey == "" {
		return fmt.Errorf("midtrans ServerKey is required")
	}
	if c.APIUrl == "" {
		return fmt.Errorf("midtrans APIUrl is required")
	}
	return nil
}

// RefundURL returns the refund endpoint for a source transaction.
func (c *Config) RefundURL(transactionRef string) string {
	return fmt.Sprintf("%s/%s/refund", c.APIUrl, transactionRef)
}

// =====================================================
// MIDTRANS STATUS CODES
// =====================================================

const (
	StatusCodeSuccess       = "200"
	StatusCodeAccepted      = "201"
	StatusCodeDenied        = "202"
	StatusCodeNotFound      = "404"
	StatusCodeInsufficient  = "412"
	StatusCodeInvalidAmount = "413"
	StatusCodeServerError   = "500"
)
