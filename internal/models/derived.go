package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// TimingStatus categorizes how an installment was (or was not) satisfied
// relative to its due date.
type TimingStatus string

const (
	TimingNone         TimingStatus = ""
	TimingEarly        TimingStatus = "early"
	TimingOnTime       TimingStatus = "on_time"
	TimingLate         TimingStatus = "late"
	TimingOverdue      TimingStatus = "overdue"
	TimingSettledEarly TimingStatus = "settled_early"
	TimingMissed       TimingStatus = "missed"
)

// OverdueBucket assigns an installment's unpaid amount to a past, current,
// or future calendar month.
type OverdueBucket string

const (
	BucketNone         OverdueBucket = ""
	BucketOverdue      OverdueBucket = "overdue"
	BucketCurrentMonth OverdueBucket = "current_month"
	BucketFuture       OverdueBucket = "future"
)

// Classification is the classifier's per-installment output. All downstream
// aggregation consumes this instead of re-deriving from the raw repayment.
type Classification struct {
	PaymentStatus     RepaymentStatus `json:"payment_status"`
	Timing            TimingStatus    `json:"timing"`
	Bucket            OverdueBucket   `json:"bucket"`
	PrincipalPaid     decimal.Decimal `json:"principal_paid"`
	LateFeesPaid      decimal.Decimal `json:"late_fees_paid"`
	LateFeesRemaining decimal.Decimal `json:"late_fees_remaining"`
	Outstanding       decimal.Decimal `json:"outstanding"`
}

// OverdueItem is one installment whose due date has passed without full
// collection.
type OverdueItem struct {
	Sequence    int             `json:"sequence"`
	DueDate     time.Time       `json:"due_date"`
	AmountDue   decimal.Decimal `json:"amount_due"`
	LateFees    decimal.Decimal `json:"late_fees"`
	DaysOverdue int             `json:"days_overdue"`
}

// OverdueInfo summarizes a loan's overdue installments. Not persisted.
type OverdueInfo struct {
	Items            []OverdueItem   `json:"items"`
	TotalPrincipal   decimal.Decimal `json:"total_principal"`
	TotalLateFees    decimal.Decimal `json:"total_late_fees"`
	TotalAmount      decimal.Decimal `json:"total_amount"`
	OldestDueDate    *time.Time      `json:"oldest_due_date,omitempty"`
	MaxDaysOverdue   int             `json:"max_days_overdue"`
	InstallmentCount int             `json:"installment_count"`
}

// HasOverdue reports whether any installment is overdue.
func (o *OverdueInfo) HasOverdue() bool {
	return o != nil && len(o.Items) > 0
}

// LoanProgress is the loan-level outstanding and completion view.
type LoanProgress struct {
	TotalPrincipalPaid decimal.Decimal `json:"total_principal_paid"`
	ProgressPercent    int             `json:"progress_percent"`
	OutstandingBalance decimal.Decimal `json:"outstanding_balance"`
	Complete           bool            `json:"complete"`
	NextPaymentAmount  decimal.Decimal `json:"next_payment_amount"`
	NextPaymentDue     *time.Time      `json:"next_payment_due,omitempty"`
	AmountDue          decimal.Decimal `json:"amount_due"`
}

// PerformanceScore answers: of the payments this borrower was responsible
// for, what fraction were handled on time? A loan with nothing to consider
// has no score (callers receive nil, never zero).
type PerformanceScore struct {
	Percent      int `json:"percent"`
	OnTime       int `json:"on_time"`
	Late         int `json:"late"`
	Overdue      int `json:"overdue"`
	SettledEarly int `json:"settled_early"`
	Missed       int `json:"missed"`
	Considered   int `json:"considered"`
}

// MonthBucket accumulates one calendar month of installments across all
// active loans for the payment-history chart.
type MonthBucket struct {
	Month                   string          `json:"month"`
	Scheduled               decimal.Decimal `json:"scheduled"`
	PrincipalPaid           decimal.Decimal `json:"principal_paid"`
	OverdueOutstanding      decimal.Decimal `json:"overdue_outstanding"`
	CurrentMonthOutstanding decimal.Decimal `json:"current_month_outstanding"`
	RegularOutstanding      decimal.Decimal `json:"regular_outstanding"`
	TotalLateFees           decimal.Decimal `json:"total_late_fees"`
	PaidLateFees            decimal.Decimal `json:"paid_late_fees"`
	UnpaidLateFees          decimal.Decimal `json:"unpaid_late_fees"`
}

// Timeline is the windowed month-bucketed dataset. TotalBuckets is the true
// bucket count before windowing so callers can show "showing N of M".
type Timeline struct {
	Buckets      []MonthBucket `json:"buckets"`
	TotalBuckets int           `json:"total_buckets"`
}

// EarlySettlementQuote is a point-in-time settlement computation from the
// backend. Quotes are never cached; every request recomputes and restamps.
type EarlySettlementQuote struct {
	QuoteID            uuid.UUID       `json:"quote_id"`
	LoanID             int64           `json:"loan_id"`
	RemainingPrincipal decimal.Decimal `json:"remaining_principal"`
	RemainingInterest  decimal.Decimal `json:"remaining_interest"`
	DiscountFactor     decimal.Decimal `json:"discount_factor"`
	DiscountAmount     decimal.Decimal `json:"discount_amount"`
	FeeAmount          decimal.Decimal `json:"fee_amount"`
	LateFees           decimal.Decimal `json:"late_fees"`
	LateFeesIncluded   bool            `json:"late_fees_included"`
	TotalAmount        decimal.Decimal `json:"total_amount"`
	QuotedAt           time.Time       `json:"quoted_at"`
}

// NetSavings is discount minus fee. May be negative; callers display it as a
// saving only when positive.
func (q *EarlySettlementQuote) NetSavings() decimal.Decimal {
	return q.DiscountAmount.Sub(q.FeeAmount)
}

// HasSavings reports whether the quote nets out in the borrower's favour.
func (q *EarlySettlementQuote) HasSavings() bool {
	return q.NetSavings().IsPositive()
}
