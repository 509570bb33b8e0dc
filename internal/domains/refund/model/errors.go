package model

import (
	"errors"
	"fmt"
)

// =====================================================
// PREDEFINED ERRORS
// =====================================================

var (
	ErrRefundNotFound      = errors.New("refund request not found")
	ErrTransactionNotFound = errors.New("source transaction not found")
	ErrOrderNotFound       = errors.New("order not found")
	ErrStepNotFound        = errors.New("workflow step not found")
	ErrNoCurrentStep       = errors.New("refund has no current workflow step")
	ErrStepAlreadyDecided  = errors.New("workflow step already decided")
	ErrCannotEscalate      = errors.New("workflow step cannot be escalated")
	ErrExceedsRefundable   = errors.New("amount exceeds order refundable balance")
	ErrTxnNotCompleted     = errors.New("source transaction is not completed")
	ErrInvalidState        = errors.New("operation invalid for current refund status")
	ErrRetryNotAllowed     = errors.New("refund cannot be retried")
	ErrRetryLimitExceeded  = errors.New("refund retry limit exceeded")
	ErrCannotCancel        = errors.New("refund cannot be cancelled")
	ErrNotManualMethod     = errors.New("refund method is not manual")
	ErrManualMethod        = errors.New("manual refunds are settled by an operator")
	ErrNoAdapter           = errors.New("no gateway adapter mapped for method")
	ErrUnknownGateway      = errors.New("cannot determine source gateway")
	ErrReferenceExhausted  = errors.New("could not generate a unique refund reference")
	ErrApproverNotFound    = errors.New("no approver available for role")
)

// =====================================================
// CUSTOM REFUND ERROR
// =====================================================

// RefundError carries an internal code alongside the wrapped sentinel so
// handlers can map it onto an HTTP status and clients can branch on it.
type RefundError struct {
	Code    string
	Message string
	Err     error
}

func (e *RefundError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s (%v)", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *RefundError) Unwrap() error {
	return e.Err
}

func NewRefundError(code, message string, err error) *RefundError {
	return &RefundError{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// =====================================================
// ERROR CONSTRUCTORS
// =====================================================

func NewExceedsRefundableError(requested, refundable int64) *RefundError {
	return NewRefundError(
		ErrCodeExceedsRefundable,
		fmt.Sprintf("Requested amount %d exceeds refundable balance %d", requested, refundable),
		ErrExceedsRefundable,
	)
}

func NewTxnNotCompletedError(status string) *RefundError {
	return NewRefundError(
		ErrCodeTxnNotCompleted,
		fmt.Sprintf("Source transaction must be completed, current status: %s", status),
		ErrTxnNotCompleted,
	)
}

func NewInvalidStateError(operation, status string) *RefundError {
	return NewRefundError(
		ErrCodeInvalidState,
		fmt.Sprintf("Cannot %s a refund in status %s", operation, status),
		ErrInvalidState,
	)
}

func NewRetryLimitExceededError() *RefundError {
	return NewRefundError(
		ErrCodeRetryLimitExceeded,
		fmt.Sprintf("Refund retry limit exceeded (max %d attempts)", MaxRetryAttempts),
		ErrRetryLimitExceeded,
	)
}

func NewNoAdapterError(method string) *RefundError {
	return NewRefundError(
		ErrCodeNoAdapter,
		fmt.Sprintf("No gateway adapter registered for method %s", method),
		ErrNoAdapter,
	)
}

func NewUnknownGatewayError(reference string) *RefundError {
	return NewRefundError(
		ErrCodeUnknownGateway,
		fmt.Sprintf("Cannot determine source gateway for transaction %s", reference),
		ErrUnknownGateway,
	)
}

func NewApproverNotFoundError(role string) *RefundError {
	return NewRefundError(
		ErrCodeApproverNotFound,
		fmt.Sprintf("No approver available for role %s", role),
		ErrApproverNotFound,
	)
}
