// Package settlement implements early-settlement quoting: per-loan quote
// state, eligibility failure parsing, and submission of the settlement
// request.
package settlement

import (
	"regexp"
	"strings"
	"time"

	"github.com/Malcan-Technologies/creditxpress-aws-sub003/internal/utils"
)

var availableAfterPattern = regexp.MustCompile(`available after (\d{4}-\d{2}-\d{2})`)

// Ineligibility is a parsed quote refusal.
type Ineligibility struct {
	// Message is the raw backend text, surfaced when nothing more specific
	// was recognized.
	Message string `json:"message"`
	// AvailableOn is set when the refusal names a lock-in expiry date.
	AvailableOn *time.Time `json:"available_on,omitempty"`
	// DaysRemaining counts down to AvailableOn; never negative.
	DaysRemaining int `json:"days_remaining"`
	// Disabled marks the feature as administratively unavailable, a
	// terminal condition rather than a countdown.
	Disabled bool `json:"disabled"`
	// RetryableNow is set when the stated lock-in date has already passed
	// and the stale refusal can be retried immediately.
	RetryableNow bool `json:"retryable_now"`
}

// ParseIneligibility interprets a structured quote refusal. A message
// embedding "available after YYYY-MM-DD" yields the absolute date and a
// countdown; a disabled-feature message yields the terminal flag; anything
// else passes through verbatim.
func ParseIneligibility(message string, now time.Time, loc *time.Location) Ineligibility {
	result := Ineligibility{Message: message}

	if strings.Contains(strings.ToLower(message), "disabled") {
		result.Disabled = true
		return result
	}

	match := availableAfterPattern.FindStringSubmatch(message)
	if match == nil {
		return result
	}
	date, err := time.ParseInLocation("2006-01-02", match[1], loc)
	if err != nil {
		return result
	}

	result.AvailableOn = &date
	days := utils.DaysUntil(date, now, loc)
	if days <= 0 {
		result.RetryableNow = true
		return result
	}
	result.DaysRemaining = days
	return result
}
