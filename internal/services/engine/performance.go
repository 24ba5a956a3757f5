package engine

import (
	"math"
	"time"

	"github.com/Malcan-Technologies/creditxpress-aws-sub003/internal/models"
)

// Performance scores the share of a loan's obligations handled on time,
// without penalizing installments voided by a legitimate early settlement.
// Returns nil when the loan has no scored installments yet; an absent score
// is not a zero score.
//
// Considered installments are those the borrower was responsible for so far:
// COMPLETED, CANCELLED, and uncollected installments already past due.
// Not-yet-due pending installments and the settlement payoff record itself
// stay out of the denominator.
func (e *Engine) Performance(loan *models.Loan, now time.Time) *models.PerformanceScore {
	cutoff := loan.EarlySettlementCutoff()
	score := &models.PerformanceScore{}

	for _, r := range loan.Repayments {
		// The settlement record is a payoff action, not a scheduled
		// installment, and never enters the denominator.
		if r.PaymentType == models.PaymentTypeEarlySettlement {
			continue
		}

		cl := e.classifier.Classify(r, now, cutoff)

		switch r.Status {
		case models.RepaymentStatusCompleted:
			if cl.Timing == models.TimingLate {
				score.Late++
			} else {
				score.OnTime++
			}
			score.Considered++
		case models.RepaymentStatusCancelled:
			if cl.Timing == models.TimingSettledEarly {
				// Paid off in full before this installment fell due; the
				// borrower did not miss it.
				score.SettledEarly++
			} else {
				score.Missed++
			}
			score.Considered++
		default:
			// A pending or partial installment counts against the borrower
			// once its due date has passed.
			if cl.Timing == models.TimingOverdue {
				score.Overdue++
				score.Considered++
			}
		}
	}

	if score.Considered == 0 {
		return nil
	}

	score.Percent = int(math.Round(100 * float64(score.OnTime+score.SettledEarly) / float64(score.Considered)))
	return score
}
