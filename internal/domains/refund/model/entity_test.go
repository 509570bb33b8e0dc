package model

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestFeeFor(t *testing.T) {
	tests := []struct {
		name     string
		method   string
		amount   int64
		expected int64
	}{
		{name: "original method takes 2.5 percent", method: MethodOriginal, amount: 100_000, expected: 2500},
		{name: "percentage fee truncates toward zero", method: MethodOriginal, amount: 39, expected: 0},
		{name: "gopay uses percentage fee", method: MethodGopay, amount: 200_000, expected: 5000},
		{name: "qris uses percentage fee", method: MethodQRIS, amount: 10_001, expected: 250},
		{name: "bank transfer is flat", method: MethodBankTransfer, amount: 10_000_000, expected: 5000},
		{name: "manual is flat", method: MethodManual, amount: 1000, expected: 10_000},
		{name: "cash is free", method: MethodCash, amount: 500_000, expected: 0},
		{name: "store credit is free", method: MethodStoreCredit, amount: 500_000, expected: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, FeeFor(tt.method, tt.amount))
		})
	}
}

func TestRefundRequest_ApprovalLevel(t *testing.T) {
	tests := []struct {
		name     string
		category string
		expected string
	}{
		{name: "damaged product is medium", category: "damaged_product", expected: ApprovalLevelMedium},
		{name: "customer changed mind is low", category: "customer_changed_mind", expected: ApprovalLevelLow},
		{name: "service failure is high", category: "service_failure", expected: ApprovalLevelHigh},
		{name: "fraudulent transaction is critical", category: "fraudulent_transaction", expected: ApprovalLevelCritical},
		{name: "unknown category defaults to medium", category: "surprise", expected: ApprovalLevelMedium},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := &RefundRequest{ReasonCategory: tt.category}
			assert.Equal(t, tt.expected, r.ApprovalLevel())
		})
	}
}

func TestRefundRequest_RequiresApproval(t *testing.T) {
	tests := []struct {
		name     string
		refund   RefundRequest
		expected bool
	}{
		{
			name:     "small low-risk refund auto-approves",
			refund:   RefundRequest{ReasonCategory: "customer_changed_mind", Amount: 50_000},
			expected: false,
		},
		{
			name:     "disputed refund always needs approval",
			refund:   RefundRequest{ReasonCategory: "customer_changed_mind", Amount: 50_000, IsDisputed: true},
			expected: true,
		},
		{
			name:     "high value forces workflow regardless of category",
			refund:   RefundRequest{ReasonCategory: "duplicate_order", Amount: HighValueThreshold},
			expected: true,
		},
		{
			name:     "just below high value stays auto for low category",
			refund:   RefundRequest{ReasonCategory: "duplicate_order", Amount: HighValueThreshold - 1},
			expected: false,
		},
		{
			name:     "medium category needs approval at any amount",
			refund:   RefundRequest{ReasonCategory: "wrong_item", Amount: 2000},
			expected: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.refund.RequiresApproval())
		})
	}
}

func TestRefundRequest_CanRetry(t *testing.T) {
	insufficientFunds := "INSUFFICIENT_FUNDS"
	timeout := "GATEWAY_TIMEOUT"

	tests := []struct {
		name     string
		refund   RefundRequest
		expected bool
	}{
		{
			name:     "failed refund under the cap retries",
			refund:   RefundRequest{Status: StatusFailed, RetryCount: 0},
			expected: true,
		},
		{
			name:     "transient error code retries",
			refund:   RefundRequest{Status: StatusFailed, RetryCount: 2, ErrorCode: &timeout},
			expected: true,
		},
		{
			name:     "retry cap reached",
			refund:   RefundRequest{Status: StatusFailed, RetryCount: MaxRetryAttempts},
			expected: false,
		},
		{
			name:     "non-retryable error code blocks retry",
			refund:   RefundRequest{Status: StatusFailed, RetryCount: 1, ErrorCode: &insufficientFunds},
			expected: false,
		},
		{
			name:     "only failed refunds retry",
			refund:   RefundRequest{Status: StatusProcessing, RetryCount: 0},
			expected: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.refund.CanRetry())
		})
	}
}

func TestRefundRequest_StatusGates(t *testing.T) {
	cancellable := []string{
		StatusPending, StatusPendingReview, StatusUnderInvestigation,
		StatusPendingManager, StatusPendingFinance, StatusApproved,
	}
	for _, status := range cancellable {
		r := &RefundRequest{Status: status}
		assert.True(t, r.CanBeCancelled(), "expected %s to be cancellable", status)
	}
	for _, status := range []string{StatusProcessing, StatusCompleted, StatusFailed, StatusRejected, StatusCancelled} {
		r := &RefundRequest{Status: status}
		assert.False(t, r.CanBeCancelled(), "expected %s not to be cancellable", status)
	}

	assert.True(t, (&RefundRequest{Status: StatusApproved}).CanBeProcessed())
	assert.False(t, (&RefundRequest{Status: StatusPending}).CanBeProcessed())
	assert.False(t, (&RefundRequest{Status: StatusFailed}).CanBeProcessed())

	for _, status := range []string{StatusCompleted, StatusRejected, StatusCancelled} {
		assert.True(t, (&RefundRequest{Status: status}).IsTerminal(), "expected %s to be terminal", status)
	}
	assert.False(t, (&RefundRequest{Status: StatusFailed}).IsTerminal())
}

func TestWorkflowStep_Overdue(t *testing.T) {
	due := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	step := WorkflowStep{DueAt: due, Decision: DecisionPending}

	assert.False(t, step.OverdueAt(due.Add(-time.Minute)))
	assert.True(t, step.OverdueAt(due.Add(time.Minute)))

	decided := WorkflowStep{DueAt: due, Decision: DecisionApproved}
	assert.False(t, decided.OverdueAt(due.Add(time.Hour)))

	needsInfo := WorkflowStep{DueAt: due, Decision: DecisionNeedsInfo}
	assert.True(t, needsInfo.OverdueAt(due.Add(time.Hour)), "needs_info keeps the clock running")
}

func TestWorkflowStep_NeedsAutoEscalation(t *testing.T) {
	due := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	grace := EscalationGraceHours * time.Hour
	step := WorkflowStep{DueAt: due, Decision: DecisionPending}

	assert.False(t, step.NeedsAutoEscalation(due.Add(time.Hour)), "overdue but inside the grace window")
	assert.False(t, step.NeedsAutoEscalation(due.Add(grace)))
	assert.True(t, step.NeedsAutoEscalation(due.Add(grace+time.Minute)))

	decided := WorkflowStep{DueAt: due, Decision: DecisionRejected}
	assert.False(t, decided.NeedsAutoEscalation(due.Add(grace+time.Hour)))
}

func TestWorkflowStep_CanBeEscalated(t *testing.T) {
	assert.True(t, (&WorkflowStep{Decision: DecisionPending}).CanBeEscalated())
	assert.True(t, (&WorkflowStep{Decision: DecisionNeedsInfo}).CanBeEscalated())
	assert.False(t, (&WorkflowStep{Decision: DecisionApproved}).CanBeEscalated())
	assert.False(t, (&WorkflowStep{Decision: DecisionRejected}).CanBeEscalated())
}

func TestEscalationRoleFor(t *testing.T) {
	assert.Equal(t, RoleManager, EscalationRoleFor(ApprovalLevelLow))
	assert.Equal(t, RoleFinanceManager, EscalationRoleFor(ApprovalLevelMedium))
	assert.Equal(t, RoleExecutive, EscalationRoleFor(ApprovalLevelHigh))
	assert.Equal(t, RoleAdmin, EscalationRoleFor(ApprovalLevelCritical))
	assert.Equal(t, RoleAdmin, EscalationRoleFor("nonsense"))
}

func TestTransaction_DetectGateway(t *testing.T) {
	midtrans := "midtrans"
	empty := ""

	tests := []struct {
		name     string
		txn      Transaction
		expected string
	}{
		{
			name:     "explicit column wins",
			txn:      Transaction{Gateway: &midtrans, Reference: "xendit_abc", Metadata: map[string]interface{}{"gateway": "xendit"}},
			expected: GatewayMidtrans,
		},
		{
			name:     "metadata used when column empty",
			txn:      Transaction{Gateway: &empty, Reference: "pay_123", Metadata: map[string]interface{}{"gateway": "xendit"}},
			expected: GatewayXendit,
		},
		{
			name:     "reference prefix as last resort",
			txn:      Transaction{Reference: "gopay_tx_991"},
			expected: GatewayGopay,
		},
		{
			name:     "non-string metadata gateway ignored",
			txn:      Transaction{Reference: "midtrans_77", Metadata: map[string]interface{}{"gateway": 42}},
			expected: GatewayMidtrans,
		},
		{
			name:     "unknown reference yields empty",
			txn:      Transaction{Reference: "stripe_abc"},
			expected: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.txn.DetectGateway())
		})
	}
}

func TestTransaction_IsCompleted(t *testing.T) {
	assert.True(t, (&Transaction{Status: TransactionStatusCompleted}).IsCompleted())
	assert.False(t, (&Transaction{Status: "pending"}).IsCompleted())
}
