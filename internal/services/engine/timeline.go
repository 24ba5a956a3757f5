package engine

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/Malcan-Technologies/creditxpress-aws-sub003/internal/models"
	"github.com/Malcan-Technologies/creditxpress-aws-sub003/internal/utils"
)

// timelineWindow is the number of month buckets the chart displays at once.
const timelineWindow = 12

// Timeline buckets every installment across the borrower's active loans into
// calendar months for the payment-history chart. When currentYearOnly is
// set, only buckets in the current calendar year (business timezone) are
// kept. The returned slice is windowed for display; TotalBuckets is the true
// count before windowing.
//
// Per bucket, principalPaid + the three outstanding categories + paid and
// unpaid late fees sum to scheduled + assessed late fees.
func (e *Engine) Timeline(loans []models.Loan, now time.Time, currentYearOnly bool) models.Timeline {
	byMonth := make(map[string]*models.MonthBucket)

	for i := range loans {
		loan := &loans[i]
		if !loan.Status.IsActiveLifecycle() {
			continue
		}
		classifications := e.ClassifyLoan(loan, now)
		for j, cl := range classifications {
			r := loan.Repayments[j]
			key := utils.MonthKey(r.DueDate, e.loc)
			bucket, ok := byMonth[key]
			if !ok {
				bucket = newMonthBucket(key)
				byMonth[key] = bucket
			}

			bucket.Scheduled = bucket.Scheduled.Add(r.Amount)
			bucket.TotalLateFees = bucket.TotalLateFees.Add(r.LateFeeAssessed)
			bucket.PrincipalPaid = bucket.PrincipalPaid.Add(cl.PrincipalPaid)
			bucket.PaidLateFees = bucket.PaidLateFees.Add(cl.LateFeesPaid)
			bucket.UnpaidLateFees = bucket.UnpaidLateFees.Add(cl.LateFeesRemaining)

			switch cl.Bucket {
			case models.BucketOverdue:
				bucket.OverdueOutstanding = bucket.OverdueOutstanding.Add(cl.Outstanding)
			case models.BucketCurrentMonth:
				bucket.CurrentMonthOutstanding = bucket.CurrentMonthOutstanding.Add(cl.Outstanding)
			case models.BucketFuture:
				bucket.RegularOutstanding = bucket.RegularOutstanding.Add(cl.Outstanding)
			}
		}
	}

	currentYear := utils.MonthKey(now, e.loc)[:4]
	buckets := make([]models.MonthBucket, 0, len(byMonth))
	for key, b := range byMonth {
		if currentYearOnly && key[:4] != currentYear {
			continue
		}
		buckets = append(buckets, *b)
	}
	sort.Slice(buckets, func(i, j int) bool {
		return buckets[i].Month < buckets[j].Month
	})

	return models.Timeline{
		Buckets:      windowBuckets(buckets, utils.MonthKey(now, e.loc)),
		TotalBuckets: len(buckets),
	}
}

// windowBuckets slices a 12-month display window. With more than 12 buckets
// and the current month present, the window starts at the current month,
// sliding back to stay 12 wide when fewer months remain at the tail;
// otherwise the first 12 buckets are shown.
func windowBuckets(buckets []models.MonthBucket, currentKey string) []models.MonthBucket {
	if len(buckets) <= timelineWindow {
		return buckets
	}
	start := 0
	for i, b := range buckets {
		if b.Month == currentKey {
			start = i
			break
		}
	}
	if start+timelineWindow > len(buckets) {
		start = len(buckets) - timelineWindow
	}
	return buckets[start : start+timelineWindow]
}

func newMonthBucket(key string) *models.MonthBucket {
	return &models.MonthBucket{
		Month:                   key,
		Scheduled:               decimal.Zero,
		PrincipalPaid:           decimal.Zero,
		OverdueOutstanding:      decimal.Zero,
		CurrentMonthOutstanding: decimal.Zero,
		RegularOutstanding:      decimal.Zero,
		TotalLateFees:           decimal.Zero,
		PaidLateFees:            decimal.Zero,
		UnpaidLateFees:          decimal.Zero,
	}
}
