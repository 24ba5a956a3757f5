// Package models defines the data structures for the repayment accounting engine.
package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// LoanStatus represents the lifecycle state of a loan.
type LoanStatus string

const (
	LoanStatusActive                 LoanStatus = "ACTIVE"
	LoanStatusPendingDischarge       LoanStatus = "PENDING_DISCHARGE"
	LoanStatusPendingEarlySettlement LoanStatus = "PENDING_EARLY_SETTLEMENT"
	LoanStatusDischarged             LoanStatus = "DISCHARGED"
	LoanStatusDefault                LoanStatus = "DEFAULT"
	LoanStatusCompleted              LoanStatus = "COMPLETED"
	LoanStatusPaid                   LoanStatus = "PAID"
	LoanStatusClosed                 LoanStatus = "CLOSED"
	LoanStatusSettled                LoanStatus = "SETTLED"
)

// ValidLoanStatuses returns all valid loan status values.
func ValidLoanStatuses() []LoanStatus {
	return []LoanStatus{
		LoanStatusActive,
		LoanStatusPendingDischarge,
		LoanStatusPendingEarlySettlement,
		LoanStatusDischarged,
		LoanStatusDefault,
		LoanStatusCompleted,
		LoanStatusPaid,
		LoanStatusClosed,
		LoanStatusSettled,
	}
}

// IsValid checks if the loan status is a known lifecycle state.
func (s LoanStatus) IsValid() bool {
	for _, valid := range ValidLoanStatuses() {
		if s == valid {
			return true
		}
	}
	return false
}

// IsTerminal reports whether the loan has reached a closed lifecycle state.
func (s LoanStatus) IsTerminal() bool {
	switch s {
	case LoanStatusDischarged, LoanStatusCompleted, LoanStatusPaid, LoanStatusClosed, LoanStatusSettled:
		return true
	}
	return false
}

// IsActiveLifecycle reports whether the loan still carries live obligations
// and belongs on the payment timeline.
func (s LoanStatus) IsActiveLifecycle() bool {
	switch s {
	case LoanStatusActive, LoanStatusPendingDischarge, LoanStatusDefault:
		return true
	}
	return false
}

// IsSettlementPending reports whether the debt is settled and awaiting
// administrative finalization. Progress and balance reporting special-case
// these states.
func (s LoanStatus) IsSettlementPending() bool {
	return s == LoanStatusPendingEarlySettlement || s == LoanStatusPendingDischarge
}

// NextPaymentInfo is the backend-supplied upcoming payment, when available.
type NextPaymentInfo struct {
	Amount  decimal.Decimal `json:"amount"`
	DueDate time.Time       `json:"due_date"`
}

// Loan represents one loan with its embedded repayment schedule. Records are
// created and mutated exclusively by the backend; this engine reads a
// snapshot and derives figures from it.
type Loan struct {
	ID                 int64            `json:"id"`
	Reference          string           `json:"reference"`
	PrincipalAmount    decimal.Decimal  `json:"principal_amount"`
	TotalAmount        decimal.Decimal  `json:"total_amount"`
	OutstandingBalance decimal.Decimal  `json:"outstanding_balance"`
	MonthlyPayment     decimal.Decimal  `json:"monthly_payment"`
	InterestRate       decimal.Decimal  `json:"interest_rate"`
	TermMonths         int              `json:"term_months"`
	DisbursedAt        time.Time        `json:"disbursed_at"`
	Status             LoanStatus       `json:"status"`
	NextPayment        *NextPaymentInfo `json:"next_payment,omitempty"`
	NextPaymentDue     *time.Time       `json:"next_payment_due,omitempty"`
	Repayments         []Repayment      `json:"repayments"`
}

// EarlySettlementCutoff returns the moment the loan was settled early, taken
// from the unique EARLY_SETTLEMENT repayment: its paid timestamp when
// recorded, otherwise its due date. Returns nil when the loan has no early
// settlement.
func (l *Loan) EarlySettlementCutoff() *time.Time {
	for i := range l.Repayments {
		r := &l.Repayments[i]
		if r.PaymentType != PaymentTypeEarlySettlement {
			continue
		}
		if r.PaidAt != nil {
			return r.PaidAt
		}
		due := r.DueDate
		return &due
	}
	return nil
}

// WalletSummary is the backend's independently computed loan aggregate, used
// for headline totals. It must agree with engine-derived sums within
// rounding.
type WalletSummary struct {
	TotalOutstanding decimal.Decimal `json:"total_outstanding"`
	TotalOverdue     decimal.Decimal `json:"total_overdue"`
	ActiveLoans      int             `json:"active_loans"`
	NextPaymentTotal decimal.Decimal `json:"next_payment_total"`
}
