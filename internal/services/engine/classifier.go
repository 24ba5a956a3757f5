// Package engine implements the loan repayment accounting engine: it
// classifies raw installment records and aggregates them into the derived
// figures the dashboard renders. All calculations are pure functions of a
// single loan's snapshot; one loan's data can never affect another's figures.
package engine

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/Malcan-Technologies/creditxpress-aws-sub003/internal/models"
	"github.com/Malcan-Technologies/creditxpress-aws-sub003/internal/utils"
)

// Classifier produces the per-installment classification every downstream
// aggregation consumes. Consolidating the derivations here keeps progress,
// performance, and timeline figures from drifting apart.
type Classifier struct {
	loc *time.Location
}

// NewClassifier creates a classifier anchored to the business timezone.
func NewClassifier(loc *time.Location) *Classifier {
	return &Classifier{loc: loc}
}

// Classify categorizes one repayment against a reference instant and, when
// the loan was settled early, the settlement cutoff.
//
// Conservation holds for every non-cancelled installment:
// principalPaid + lateFeesPaid + outstanding == scheduled + lateFeeAssessed.
func (c *Classifier) Classify(r models.Repayment, now time.Time, settlementCutoff *time.Time) models.Classification {
	principalPaid := c.principalPaid(r)
	lateFeesPaid := lateFeesPaid(r)

	lateFeesRemaining := r.LateFeeAssessed.Sub(lateFeesPaid)
	if lateFeesRemaining.IsNegative() {
		lateFeesRemaining = decimal.Zero
	}

	outstanding := r.Amount.Add(r.LateFeeAssessed).Sub(principalPaid).Sub(lateFeesPaid)
	if outstanding.IsNegative() {
		outstanding = decimal.Zero
	}
	// A cancelled installment is a voided obligation, not an unpaid one.
	if r.Status == models.RepaymentStatusCancelled {
		outstanding = decimal.Zero
	}

	return models.Classification{
		PaymentStatus:     r.Status,
		Timing:            c.timing(r, now, settlementCutoff),
		Bucket:            c.bucket(r, now, outstanding, lateFeesRemaining),
		PrincipalPaid:     principalPaid,
		LateFeesPaid:      lateFeesPaid,
		LateFeesRemaining: lateFeesRemaining,
		Outstanding:       outstanding,
	}
}

// principalPaid derives the principal collected against an installment. The
// EARLY_SETTLEMENT record is checked before any backend-supplied breakdown:
// its collected amount embeds fees and discount, so the per-field split is
// not meaningful for that one record.
func (c *Classifier) principalPaid(r models.Repayment) decimal.Decimal {
	if r.PaymentType == models.PaymentTypeEarlySettlement {
		if r.ActualAmount != nil {
			return *r.ActualAmount
		}
		return decimal.Zero
	}
	if r.PrincipalPaid != nil {
		return *r.PrincipalPaid
	}
	switch r.Status {
	case models.RepaymentStatusCompleted:
		return r.Amount
	case models.RepaymentStatusPartial, models.RepaymentStatusPending:
		if r.ActualAmount != nil {
			return *r.ActualAmount
		}
	}
	return decimal.Zero
}

func lateFeesPaid(r models.Repayment) decimal.Decimal {
	if r.LateFeesPaid != nil {
		return *r.LateFeesPaid
	}
	return r.LateFeeCollected
}

// bucket assigns unpaid amounts to a past, current, or future calendar month.
func (c *Classifier) bucket(r models.Repayment, now time.Time, outstanding, lateFeesRemaining decimal.Decimal) models.OverdueBucket {
	if !outstanding.IsPositive() {
		return models.BucketNone
	}
	switch utils.CompareMonth(r.DueDate, now, c.loc) {
	case -1:
		return models.BucketOverdue
	case 1:
		return models.BucketFuture
	}
	// Same calendar month: already past due, or carrying unpaid late fees,
	// counts as overdue rather than merely current.
	if utils.DaysUntil(r.DueDate, now, c.loc) < 0 || lateFeesRemaining.IsPositive() {
		return models.BucketOverdue
	}
	return models.BucketCurrentMonth
}

// timing categorizes the installment against its due date at day
// granularity in the business timezone.
func (c *Classifier) timing(r models.Repayment, now time.Time, settlementCutoff *time.Time) models.TimingStatus {
	if r.Status == models.RepaymentStatusCancelled {
		// Cancellation only happens when the loan was settled early. An
		// installment not yet due at settlement was paid off ahead of
		// schedule; one already due was simply never collected.
		if settlementCutoff != nil && utils.DaysBetween(*settlementCutoff, r.DueDate, c.loc) >= 0 {
			return models.TimingSettledEarly
		}
		return models.TimingMissed
	}

	if r.IsCollected() {
		switch days := utils.DaysBetween(r.PaidAt.In(c.loc), r.DueDate, c.loc); {
		case days > 0:
			return models.TimingEarly
		case days == 0:
			return models.TimingOnTime
		default:
			return models.TimingLate
		}
	}

	if utils.DaysUntil(r.DueDate, now, c.loc) < 0 {
		return models.TimingOverdue
	}
	return models.TimingNone
}
