package engine

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/Malcan-Technologies/creditxpress-aws-sub003/internal/models"
	"github.com/Malcan-Technologies/creditxpress-aws-sub003/internal/utils"
)

// Engine derives every dashboard figure for a borrower's loans from their
// raw repayment schedules.
type Engine struct {
	loc        *time.Location
	classifier *Classifier
}

// New creates an engine anchored to the business timezone.
func New(loc *time.Location) *Engine {
	return &Engine{
		loc:        loc,
		classifier: NewClassifier(loc),
	}
}

// ClassifyLoan runs the classifier across a loan's schedule once, in
// sequence order. Aggregations operate on this output rather than the raw
// repayments.
func (e *Engine) ClassifyLoan(loan *models.Loan, now time.Time) []models.Classification {
	cutoff := loan.EarlySettlementCutoff()
	out := make([]models.Classification, len(loan.Repayments))
	for i, r := range loan.Repayments {
		out[i] = e.classifier.Classify(r, now, cutoff)
	}
	return out
}

// Overdue lists the loan's installments whose due date has passed without
// full collection, with per-item and loan-level sums.
func (e *Engine) Overdue(loan *models.Loan, now time.Time) *models.OverdueInfo {
	info := &models.OverdueInfo{
		TotalPrincipal: decimal.Zero,
		TotalLateFees:  decimal.Zero,
		TotalAmount:    decimal.Zero,
	}

	classifications := e.ClassifyLoan(loan, now)
	for i, cl := range classifications {
		if cl.Bucket != models.BucketOverdue {
			continue
		}
		r := loan.Repayments[i]
		principalDue := cl.Outstanding.Sub(cl.LateFeesRemaining)
		if principalDue.IsNegative() {
			principalDue = decimal.Zero
		}
		daysOverdue := -utils.DaysUntil(r.DueDate, now, e.loc)
		if daysOverdue < 0 {
			daysOverdue = 0
		}

		due := r.DueDate
		info.Items = append(info.Items, models.OverdueItem{
			Sequence:    r.Sequence,
			DueDate:     due,
			AmountDue:   principalDue,
			LateFees:    cl.LateFeesRemaining,
			DaysOverdue: daysOverdue,
		})
		info.TotalPrincipal = info.TotalPrincipal.Add(principalDue)
		info.TotalLateFees = info.TotalLateFees.Add(cl.LateFeesRemaining)
		info.TotalAmount = info.TotalAmount.Add(cl.Outstanding)
		if info.OldestDueDate == nil || due.Before(*info.OldestDueDate) {
			info.OldestDueDate = &due
		}
		if daysOverdue > info.MaxDaysOverdue {
			info.MaxDaysOverdue = daysOverdue
		}
	}
	info.InstallmentCount = len(info.Items)
	return info
}
