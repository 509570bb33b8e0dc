package model

import (
	"errors"
	"fmt"
)

var (
	ErrLiabilityNotFound = errors.New("vendor liability not found")
	ErrInvalidState      = errors.New("operation invalid for current liability status")
	ErrOverRecovery      = errors.New("recovery exceeds outstanding balance")
)

type LiabilityError struct {
	Code    string
	Message string
	Err     error
}

func (e *LiabilityError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s (%v)", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *LiabilityError) Unwrap() error {
	return e.Err
}

func NewLiabilityError(code, message string, err error) *LiabilityError {
	return &LiabilityError{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

func NewInvalidStateError(operation, status string) *LiabilityError {
	return NewLiabilityError(
		ErrCodeInvalidState,
		fmt.Sprintf("Cannot %s a liability in status %s", operation, status),
		ErrInvalidState,
	)
}

func NewOverRecoveryError(requested, outstanding int64) *LiabilityError {
	return NewLiabilityError(
		ErrCodeOverRecovery,
		fmt.Sprintf("Recovery of %d exceeds outstanding balance %d", requested, outstanding),
		ErrOverRecovery,
	)
}
