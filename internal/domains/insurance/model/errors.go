package model

import (
	"errors"
	"fmt"
)

var ErrInvalidAmount = errors.New("amount too small to produce a fund contribution")

type FundError struct {
	Code    string
	Message string
	Err     error
}

func (e *FundError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s (%v)", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *FundError) Unwrap() error {
	return e.Err
}

func NewFundError(code, message string, err error) *FundError {
	return &FundError{
		Code:    code,
		Message: message,
		Err:     err,
	}
}
