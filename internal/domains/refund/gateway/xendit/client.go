package xendit

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"refund-backend/internal/domains/refund/gateway"
)

// =====================================================
// XENDIT REFUND CLIENT
// =====================================================

// Client refunds payments captured through Xendit payment requests. The
// idempotency-key header carries our refund reference so repeated calls
// return the original refund object.
type Client struct {
	config     *Config
	httpClient *http.Client
}

func NewClient(config *Config) (*Client, error) {
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid xendit config: %w", err)
	}

	return &Client{
		config: config,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}, nil
}

var _ gateway.Adapter = (*Client)(nil)

func (c *Client) Name() string {
	return "xendit"
}

func (c *Client) Process(ctx context.Context, req gateway.Request) (*gateway.Outcome, error) {
	if req.SourceTransactionRef == "" {
		return nil, fmt.Errorf("source transaction ref is required")
	}
	if req.Amount <= 0 {
		return nil, fmt.Errorf("amount must be positive")
	}

	body := map[string]interface{}{
		"amount":   req.Amount,
		"currency": req.Currency,
		"reason":   "REQUESTED_BY_CUSTOMER",
		"metadata": map[string]interface{}{
			"refund_reference": req.Reference,
			"refund_id":        req.RefundID,
		},
	}

	bodyJSON, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	url := c.config.RefundURL(req.SourceTransactionRef)
	httpReq, err := http.NewRequestWithContext(ctx, "POST", url, bytes.NewReader(bodyJSON))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("idempotency-key", req.Reference)
	httpReq.SetBasicAuth(c.config.APIKey, "")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return gateway.FailureOutcome(
			gateway.ErrCodeGatewayTimeout,
			fmt.Sprintf("xendit call failed: %v", err),
			nil,
		), nil
	}
	defer resp.Body.Close()

	bodyBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return gateway.FailureOutcome(
			gateway.ErrCodeGatewayUnavailable,
			fmt.Sprintf("failed to read xendit response: %v", err),
			nil,
		), nil
	}

	var respData map[string]interface{}
	if err := json.Unmarshal(bodyBytes, &respData); err != nil {
		return gateway.FailureOutcome(
			gateway.ErrCodeGatewayUnavailable,
			fmt.Sprintf("failed to parse xendit response: %v", err),
			nil,
		), nil
	}

	status, _ := respData["status"].(string)
	if status != RefundStatusSucceeded && status != RefundStatusPending {
		failureCode, _ := respData["failure_code"].(string)
		message, _ := respData["message"].(string)
		code, message := mapFailureCode(failureCode, message)
		return gateway.FailureOutcome(code, message, respData), nil
	}

	providerRef, _ := respData["id"].(string)
	return gateway.SuccessOutcome(providerRef, respData), nil
}

// mapFailureCode normalizes Xendit failure codes into the shared adapter
// error codes.
func mapFailureCode(failureCode, message string) (string, string) {
	if message == "" {
		message = "xendit refund rejected"
	}

	switch failureCode {
	case FailureInsufficientBalance:
		return gateway.ErrCodeInsufficientFunds, message
	case FailureAccountNotActive:
		return gateway.ErrCodeInvalidAccount, message
	case FailureAccountClosed:
		return gateway.ErrCodeAccountClosed, message
	case FailureMaxAmount:
		return gateway.ErrCodeInvalidRefundAmount, message
	default:
		return gateway.ErrCodeGatewayUnavailable,
			fmt.Sprintf("[%s] %s", failureCode, message)
	}
}
