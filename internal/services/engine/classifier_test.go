package engine

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"github.com/Malcan-Technologies/creditxpress-aws-sub003/internal/models"
)

// Fixed business timezone for tests; avoids depending on host tzdata.
var testLoc = time.FixedZone("MYT", 8*3600)

func d(v string) decimal.Decimal {
	return decimal.RequireFromString(v)
}

func dp(v string) *decimal.Decimal {
	x := d(v)
	return &x
}

func tp(t time.Time) *time.Time {
	return &t
}

func date(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 0, 0, 0, 0, testLoc)
}

// testNow is mid-August 2025 in the business timezone.
var testNow = time.Date(2025, time.August, 15, 12, 0, 0, 0, testLoc)

func TestClassify_CompletedOnTime(t *testing.T) {
	c := NewClassifier(testLoc)
	r := models.Repayment{
		Sequence: 1,
		DueDate:  date(2025, time.July, 1),
		Amount:   d("3500"),
		Status:   models.RepaymentStatusCompleted,
		PaidAt:   tp(date(2025, time.July, 1).Add(9 * time.Hour)),
	}

	cl := c.Classify(r, testNow, nil)

	assert.Equal(t, models.TimingOnTime, cl.Timing)
	assert.Equal(t, models.BucketNone, cl.Bucket)
	assert.True(t, cl.PrincipalPaid.Equal(d("3500")))
	assert.True(t, cl.Outstanding.IsZero())
}

func TestClassify_CompletedEarlyAndLate(t *testing.T) {
	c := NewClassifier(testLoc)
	due := date(2025, time.July, 10)

	early := models.Repayment{
		Amount: d("1000"), Status: models.RepaymentStatusCompleted,
		DueDate: due, PaidAt: tp(date(2025, time.July, 5)),
	}
	late := models.Repayment{
		Amount: d("1000"), Status: models.RepaymentStatusCompleted,
		DueDate: due, PaidAt: tp(date(2025, time.July, 12)),
	}

	assert.Equal(t, models.TimingEarly, c.Classify(early, testNow, nil).Timing)
	assert.Equal(t, models.TimingLate, c.Classify(late, testNow, nil).Timing)
}

func TestClassify_PartialWithLateFees(t *testing.T) {
	c := NewClassifier(testLoc)
	r := models.Repayment{
		DueDate:          date(2025, time.June, 1),
		Amount:           d("1000"),
		Status:           models.RepaymentStatusPartial,
		ActualAmount:     dp("400"),
		LateFeeAssessed:  d("50"),
		LateFeeCollected: d("20"),
	}

	cl := c.Classify(r, testNow, nil)

	assert.True(t, cl.PrincipalPaid.Equal(d("400")))
	assert.True(t, cl.LateFeesPaid.Equal(d("20")))
	assert.True(t, cl.LateFeesRemaining.Equal(d("30")))
	assert.True(t, cl.Outstanding.Equal(d("630")))
	assert.Equal(t, models.BucketOverdue, cl.Bucket)
}

// Conservation law: principalPaid + lateFeesPaid + outstanding equals
// scheduled + lateFeeAssessed for every non-cancelled installment.
func TestClassify_Conservation(t *testing.T) {
	c := NewClassifier(testLoc)
	cases := []models.Repayment{
		{DueDate: date(2025, time.May, 1), Amount: d("1200"), Status: models.RepaymentStatusCompleted, PaidAt: tp(date(2025, time.May, 1))},
		{DueDate: date(2025, time.June, 1), Amount: d("1200"), Status: models.RepaymentStatusPartial, ActualAmount: dp("700.55"), LateFeeAssessed: d("35.10"), LateFeeCollected: d("10")},
		{DueDate: date(2025, time.July, 1), Amount: d("1200"), Status: models.RepaymentStatusPending, LateFeeAssessed: d("35.10")},
		{DueDate: date(2025, time.September, 1), Amount: d("1200"), Status: models.RepaymentStatusPending},
		{DueDate: date(2025, time.June, 15), Amount: d("1200"), Status: models.RepaymentStatusPending, ActualAmount: dp("100")},
	}

	for _, r := range cases {
		cl := c.Classify(r, testNow, nil)
		left := cl.PrincipalPaid.Add(cl.LateFeesPaid).Add(cl.Outstanding)
		right := r.Amount.Add(r.LateFeeAssessed)
		assert.True(t, left.Equal(right), "conservation failed for seq due %s: %s != %s", r.DueDate, left, right)
	}
}

func TestClassify_Buckets(t *testing.T) {
	c := NewClassifier(testLoc)

	pending := func(due time.Time, assessed, collected string) models.Repayment {
		return models.Repayment{
			DueDate: due, Amount: d("1000"),
			Status:          models.RepaymentStatusPending,
			LateFeeAssessed: d(assessed), LateFeeCollected: d(collected),
		}
	}

	// Prior month.
	assert.Equal(t, models.BucketOverdue, c.Classify(pending(date(2025, time.July, 28), "0", "0"), testNow, nil).Bucket)
	// Same month, already past due.
	assert.Equal(t, models.BucketOverdue, c.Classify(pending(date(2025, time.August, 10), "0", "0"), testNow, nil).Bucket)
	// Same month, due today: not yet overdue.
	assert.Equal(t, models.BucketCurrentMonth, c.Classify(pending(date(2025, time.August, 15), "0", "0"), testNow, nil).Bucket)
	// Same month, due later but late fees accrued.
	assert.Equal(t, models.BucketOverdue, c.Classify(pending(date(2025, time.August, 28), "25", "0"), testNow, nil).Bucket)
	// Later month.
	assert.Equal(t, models.BucketFuture, c.Classify(pending(date(2025, time.September, 1), "0", "0"), testNow, nil).Bucket)
	// Fully collected never buckets.
	paid := models.Repayment{DueDate: date(2025, time.July, 1), Amount: d("1000"), Status: models.RepaymentStatusCompleted}
	assert.Equal(t, models.BucketNone, c.Classify(paid, testNow, nil).Bucket)
}

func TestClassify_PendingOverdueTiming(t *testing.T) {
	c := NewClassifier(testLoc)
	r := models.Repayment{
		DueDate: date(2025, time.August, 10),
		Amount:  d("3500"),
		Status:  models.RepaymentStatusPending,
	}

	cl := c.Classify(r, testNow, nil)

	assert.Equal(t, models.TimingOverdue, cl.Timing)
	assert.True(t, cl.Outstanding.Equal(d("3500")))
}

func TestClassify_CancelledSplitBySettlementCutoff(t *testing.T) {
	c := NewClassifier(testLoc)
	cutoff := date(2025, time.June, 20)

	wasOverdue := models.Repayment{
		DueDate: date(2025, time.June, 1), Amount: d("1000"),
		Status: models.RepaymentStatusCancelled,
	}
	notYetDue := models.Repayment{
		DueDate: date(2025, time.July, 1), Amount: d("1000"),
		Status: models.RepaymentStatusCancelled,
	}
	dueOnCutoff := models.Repayment{
		DueDate: cutoff, Amount: d("1000"),
		Status: models.RepaymentStatusCancelled,
	}

	assert.Equal(t, models.TimingMissed, c.Classify(wasOverdue, testNow, &cutoff).Timing)
	assert.Equal(t, models.TimingSettledEarly, c.Classify(notYetDue, testNow, &cutoff).Timing)
	assert.Equal(t, models.TimingSettledEarly, c.Classify(dueOnCutoff, testNow, &cutoff).Timing)
}

// Voided installments carry no outstanding; otherwise a settled loan could
// never reconcile to a zero balance.
func TestClassify_CancelledOutstandingIsZero(t *testing.T) {
	c := NewClassifier(testLoc)
	cutoff := date(2025, time.June, 20)
	r := models.Repayment{
		DueDate: date(2025, time.July, 1), Amount: d("1000"),
		Status: models.RepaymentStatusCancelled, LateFeeAssessed: d("50"),
	}

	cl := c.Classify(r, testNow, &cutoff)

	assert.True(t, cl.Outstanding.IsZero())
	assert.Equal(t, models.BucketNone, cl.Bucket)
}

func TestClassify_EarlySettlementPrincipalUsesActualAmount(t *testing.T) {
	c := NewClassifier(testLoc)
	// The collected amount embeds fees and discount; the backend-supplied
	// principal split is ignored for the settlement record.
	r := models.Repayment{
		DueDate:       date(2025, time.June, 20),
		Amount:        d("3000"),
		Status:        models.RepaymentStatusCompleted,
		PaymentType:   models.PaymentTypeEarlySettlement,
		ActualAmount:  dp("8230.50"),
		PrincipalPaid: dp("8000"),
		PaidAt:        tp(date(2025, time.June, 20)),
	}

	cl := c.Classify(r, testNow, nil)

	assert.True(t, cl.PrincipalPaid.Equal(d("8230.50")))
}

func TestClassify_SuppliedPrincipalPaidWins(t *testing.T) {
	c := NewClassifier(testLoc)
	r := models.Repayment{
		DueDate:       date(2025, time.July, 1),
		Amount:        d("1000"),
		Status:        models.RepaymentStatusCompleted,
		PrincipalPaid: dp("987.65"),
		PaidAt:        tp(date(2025, time.July, 1)),
	}

	cl := c.Classify(r, testNow, nil)

	assert.True(t, cl.PrincipalPaid.Equal(d("987.65")))
}
