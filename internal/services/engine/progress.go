package engine

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/Malcan-Technologies/creditxpress-aws-sub003/internal/models"
)

var oneHundred = decimal.NewFromInt(100)

// Progress computes the loan-level outstanding and completion view: total
// principal collected, percent complete, reconciled outstanding balance, and
// the next amount the borrower owes.
func (e *Engine) Progress(loan *models.Loan, now time.Time) models.LoanProgress {
	classifications := e.ClassifyLoan(loan, now)

	totalPaid := decimal.Zero
	outstanding := decimal.Zero
	for _, cl := range classifications {
		totalPaid = totalPaid.Add(cl.PrincipalPaid)
		outstanding = outstanding.Add(cl.Outstanding)
	}

	progress := models.LoanProgress{
		TotalPrincipalPaid: totalPaid,
		ProgressPercent:    progressPercent(totalPaid, loan),
		OutstandingBalance: outstanding,
	}

	// Settled pending administrative finalization: showing a partial number
	// would mislead the borrower.
	if loan.Status.IsSettlementPending() {
		progress.ProgressPercent = 100
		progress.OutstandingBalance = decimal.Zero
		progress.Complete = true
		return progress
	}

	if loan.NextPayment != nil {
		progress.NextPaymentAmount = loan.NextPayment.Amount
		due := loan.NextPayment.DueDate
		progress.NextPaymentDue = &due
	} else {
		progress.NextPaymentAmount = loan.MonthlyPayment
		progress.NextPaymentDue = loan.NextPaymentDue
	}

	// Overdue obligations supersede the ordinary next-installment amount.
	if overdue := e.Overdue(loan, now); overdue.HasOverdue() {
		progress.AmountDue = overdue.TotalPrincipal.Add(overdue.TotalLateFees)
	} else {
		progress.AmountDue = progress.NextPaymentAmount
	}

	return progress
}

// progressPercent is the clamped, rounded share of principal collected. The
// denominator prefers the loan's total (principal+interest) and falls back
// to the bare principal when the backend omits it.
func progressPercent(totalPaid decimal.Decimal, loan *models.Loan) int {
	denom := loan.TotalAmount
	if !denom.IsPositive() {
		denom = loan.PrincipalAmount
	}
	if !denom.IsPositive() {
		return 0
	}
	pct := int(totalPaid.Div(denom).Mul(oneHundred).Round(0).IntPart())
	if pct < 0 {
		return 0
	}
	if pct > 100 {
		return 100
	}
	return pct
}
