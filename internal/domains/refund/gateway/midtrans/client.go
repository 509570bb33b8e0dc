package midtrans

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
// MIDTRANS REFUND CLIENT
// =====================================================

// Client refunds card and e-wallet payments captured through Midtrans.
// The refund_key is our refund reference, which Midtrans deduplicates on.
type Client struct {
	config     *Config
	httpClient *http.Client
}

func NewClient(config *Config) (*Client, error) {
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid midtrans config: %w", err)
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
	return "midtrans"
}

func (c *Client) Process(ctx context.Context, req gateway.Request) (*gateway.Outcome, error) {
	if req.SourceTransactionRef == "" {
		return nil, fmt.Errorf("source transaction ref is required")
	}
	if req.Amount <= 0 {
		return nil, fmt.Errorf("amount must be positive")
	}

	body := map[string]interface{}{
		"refund_key": req.Reference,
		"amount":     req.Amount,
		"reason":     req.Reason,
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
	httpReq.Header.Set("Accept", "application/json")
	httpReq.SetBasicAuth(c.config.ServerKey, "")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return gateway.FailureOutcome(
			gateway.ErrCodeGatewayTimeout,
			fmt.Sprintf("midtrans call failed: %v", err),
			nil,
		), nil
	}
	defer resp.Body.Close()

	bodyBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return gateway.FailureOutcome(
			gateway.ErrCodeGatewayUnavailable,
			fmt.Sprintf("failed to read midtrans response: %v", err),
			nil,
		), nil
	}

	var respData map[string]interface{}
	if err := json.Unmarshal(bodyBytes, &respData); err != nil {
		return gateway.FailureOutcome(
			gateway.ErrCodeGatewayUnavailable,
			fmt.Sprintf("failed to parse midtrans response: %v", err),
			nil,
		), nil
	}

	statusCode, _ := respData["status_code"].(string)
	statusMessage, _ := respData["status_message"].(string)

	if statusCode != StatusCodeSuccess && statusCode != StatusCodeAccepted {
		code, message := mapStatusCode(statusCode, statusMessage)
		return gateway.FailureOutcome(code, message, respData), nil
	}

	providerRef, _ := respData["refund_key"].(string)
	if providerRef == "" {
		if id, ok := respData["transaction_id"].(string); ok {
			providerRef = id
		}
	}

	return gateway.SuccessOutcome(providerRef, respData), nil
}

// mapStatusCode normalizes Midtrans status codes into the shared adapter
// error codes.
func mapStatusCode(statusCode, statusMessage string) (string, string) {
	if statusMessage == "" {
		statusMessage = "midtrans refund rejected"
	}

	switch statusCode {
	case StatusCodeInsufficient:
		return gateway.ErrCodeInsufficientFunds, statusMessage
	case StatusCodeInvalidAmount:
		return gateway.ErrCodeInvalidRefundAmount, statusMessage
	case StatusCodeNotFound:
		return gateway.ErrCodeInvalidAccount, statusMessage
	case StatusCodeServerError:
		return gateway.ErrCodeGatewayUnavailable, statusMessage
	default:
		return gateway.ErrCodeGatewayUnavailable,
			fmt.Sprintf("[%s] %s", statusCode, statusMessage)
	}
}
