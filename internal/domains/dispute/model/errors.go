package model

import (
	"errors"
	"fmt"
)

var (
	ErrDisputeNotFound  = errors.New("dispute not found")
	ErrAlreadyActive    = errors.New("refund already has an active dispute")
	ErrInvalidState     = errors.New("operation invalid for current dispute status")
	ErrRefundNotOpen    = errors.New("refund is not in a disputable state")
	ErrInvalidAmount    = errors.New("resolution amount is invalid")
	ErrResponseRequired = errors.New("dispute has no company response yet")
)

// DisputeError mirrors the refund error shape so the HTTP layer maps both
// the same way.
type DisputeError struct {
	Code    string
	Message string
	Err     error
}

func (e *DisputeError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s (%v)", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *DisputeError) Unwrap() error {
	return e.Err
}

func NewDisputeError(code, message string, err error) *DisputeError {
	return &DisputeError{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

func NewAlreadyActiveError(refundID string) *DisputeError {
	return NewDisputeError(
		ErrCodeAlreadyActive,
		fmt.Sprintf("Refund %s already has an active dispute", refundID),
		ErrAlreadyActive,
	)
}

func NewInvalidStateError(operation, status string) *DisputeError {
	return NewDisputeError(
		ErrCodeInvalidState,
		fmt.Sprintf("Cannot %s a dispute in status %s", operation, status),
		ErrInvalidState,
	)
}

func NewRefundNotOpenError(status string) *DisputeError {
	return NewDisputeError(
		ErrCodeRefundNotOpen,
		fmt.Sprintf("Refund in status %s cannot be disputed", status),
		ErrRefundNotOpen,
	)
}
