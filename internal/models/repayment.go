package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// RepaymentStatus represents the collection state of one installment.
type RepaymentStatus string

const (
	RepaymentStatusPending   RepaymentStatus = "PENDING"
	RepaymentStatusPartial   RepaymentStatus = "PARTIAL"
	RepaymentStatusCompleted RepaymentStatus = "COMPLETED"
	RepaymentStatusCancelled RepaymentStatus = "CANCELLED"
)

// IsValid checks if the repayment status is a known value.
func (s RepaymentStatus) IsValid() bool {
	switch s {
	case RepaymentStatusPending, RepaymentStatusPartial, RepaymentStatusCompleted, RepaymentStatusCancelled:
		return true
	}
	return false
}

// PaymentType tags how an installment's collection happened. The zero value
// is an ordinary scheduled collection.
type PaymentType string

const (
	PaymentTypeOrdinary        PaymentType = ""
	PaymentTypePartial         PaymentType = "PARTIAL"
	PaymentTypeEarlySettlement PaymentType = "EARLY_SETTLEMENT"
)

// Repayment is one scheduled due-date obligation within a loan's schedule.
// At most one repayment per loan carries the EARLY_SETTLEMENT payment type;
// it marks the moment after which remaining PENDING installments are voided
// (represented as CANCELLED) rather than collected.
type Repayment struct {
	ID               int64            `json:"id"`
	Sequence         int              `json:"sequence"`
	DueDate          time.Time        `json:"due_date"`
	Amount           decimal.Decimal  `json:"amount"`
	Status           RepaymentStatus  `json:"status"`
	PaidAt           *time.Time       `json:"paid_at,omitempty"`
	ActualAmount     *decimal.Decimal `json:"actual_amount,omitempty"`
	PaymentType      PaymentType      `json:"payment_type,omitempty"`
	LateFeeAssessed  decimal.Decimal  `json:"late_fee_assessed"`
	LateFeeCollected decimal.Decimal  `json:"late_fee_collected"`

	// Optional backend precomputations. Derived by the classifier when absent.
	PrincipalPaid *decimal.Decimal `json:"principal_paid,omitempty"`
	LateFeesPaid  *decimal.Decimal `json:"late_fees_paid,omitempty"`
}

// IsCollected reports whether any money has been recorded against this
// installment.
func (r *Repayment) IsCollected() bool {
	return r.PaidAt != nil
}
