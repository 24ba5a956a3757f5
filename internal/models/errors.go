package models

import "errors"

// Common errors
var (
	ErrInvalidAmount         = errors.New("repayment amount must be greater than zero")
	ErrAmountExceedsBalance  = errors.New("repayment amount exceeds outstanding balance")
	ErrActionInFlight        = errors.New("another request for this action is already in flight")
	ErrLoanNotFound          = errors.New("loan not found")
	ErrSettlementIneligible  = errors.New("loan is not eligible for early settlement")
	ErrSettlementDisabled    = errors.New("early settlement is not available for this loan")
	ErrInvalidLoanStatus     = errors.New("invalid loan status")
	ErrInvalidRepaymentState = errors.New("invalid repayment status")
)
