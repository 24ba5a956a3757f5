package settlement

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/Malcan-Technologies/creditxpress-aws-sub003/internal/models"
	"github.com/Malcan-Technologies/creditxpress-aws-sub003/internal/services/api"
	"github.com/Malcan-Technologies/creditxpress-aws-sub003/internal/utils"
)

// State is the quote lifecycle for one loan.
type State string

const (
	StateIdle       State = "idle"
	StateChecking   State = "checking"
	StateQuoted     State = "quoted"
	StateIneligible State = "ineligible"
	StateError      State = "error"
)

// transitions is the closed transition table. A transition absent here is
// rejected, which is what makes the state machine testable in isolation:
// checking gates double-submission, and only an explicit cancel leaves a
// settled outcome.
var transitions = map[State][]State{
	StateIdle:       {StateChecking},
	StateChecking:   {StateQuoted, StateIneligible, StateError},
	StateQuoted:     {StateIdle},
	StateIneligible: {StateIdle, StateChecking},
	StateError:      {StateIdle, StateChecking},
}

func canTransition(from, to State) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// loanQuote is the per-loan quote state.
type loanQuote struct {
	state         State
	quote         *models.EarlySettlementQuote
	ineligibility *Ineligibility
	lastError     string
}

// Quoter drives the early-settlement quote state machine per loan. Quotes
// are never cached across requests: every check issues a fresh backend call
// and restamps the result.
type Quoter struct {
	client *api.Client
	loc    *time.Location
	log    *zap.Logger

	mu    sync.Mutex
	loans map[int64]*loanQuote
}

// NewQuoter creates a quoter over the backend client.
func NewQuoter(client *api.Client, loc *time.Location) *Quoter {
	return &Quoter{
		client: client,
		loc:    loc,
		log:    utils.GetLogger(),
		loans:  make(map[int64]*loanQuote),
	}
}

// StateOf returns the loan's current quote state.
func (q *Quoter) StateOf(loanID int64) State {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.entry(loanID).state
}

// Outcome returns the loan's quote or parsed ineligibility, whichever the
// last check produced.
func (q *Quoter) Outcome(loanID int64) (*models.EarlySettlementQuote, *Ineligibility) {
	q.mu.Lock()
	defer q.mu.Unlock()
	entry := q.entry(loanID)
	return entry.quote, entry.ineligibility
}

// LastError returns the failure text of the last check, empty unless the
// loan is in the error state.
func (q *Quoter) LastError(loanID int64) string {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.entry(loanID).lastError
}

// RequestQuote runs one check: idle/retryable → checking → quoted,
// ineligible, or error. A check already in flight for the loan is rejected
// with ErrActionInFlight.
func (q *Quoter) RequestQuote(ctx context.Context, loanID int64, now time.Time) (*models.EarlySettlementQuote, *Ineligibility, error) {
	if err := q.transition(loanID, StateChecking); err != nil {
		return nil, nil, err
	}

	quote, failure, err := q.client.SettlementQuote(ctx, loanID)
	if err != nil {
		q.settle(loanID, StateError, nil, nil, err.Error())
		return nil, nil, err
	}

	if failure != nil {
		parsed := ParseIneligibility(failure.Message, now, q.loc)
		q.settle(loanID, StateIneligible, nil, &parsed, "")
		q.log.Info("settlement quote refused",
			zap.Int64("loan_id", loanID),
			zap.Bool("disabled", parsed.Disabled),
			zap.Int("days_remaining", parsed.DaysRemaining),
		)
		return nil, &parsed, nil
	}

	quote.QuoteID = uuid.New()
	quote.QuotedAt = now
	q.settle(loanID, StateQuoted, quote, nil, "")
	q.log.Info("settlement quote issued",
		zap.Int64("loan_id", loanID),
		zap.String("quote_id", quote.QuoteID.String()),
		zap.String("total", quote.TotalAmount.String()),
	)
	return quote, nil, nil
}

// Cancel returns the loan to idle, discarding any quote. From quoted this is
// the only way out: the quoted amount stays read-only until the user
// explicitly cancels.
func (q *Quoter) Cancel(loanID int64) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	entry := q.entry(loanID)
	if entry.state == StateIdle {
		return nil
	}
	if !canTransition(entry.state, StateIdle) {
		return fmt.Errorf("cannot cancel quote while %s", entry.state)
	}
	q.loans[loanID] = &loanQuote{state: StateIdle}
	return nil
}

// Submit sends the early-settlement request for a quoted loan. The request
// places the loan into PENDING_EARLY_SETTLEMENT; it does not collect funds.
// The quote state resets to idle on success and the caller re-fetches loans.
func (q *Quoter) Submit(ctx context.Context, loanID int64) error {
	q.mu.Lock()
	entry := q.entry(loanID)
	if entry.state != StateQuoted {
		q.mu.Unlock()
		if entry.ineligibility != nil && entry.ineligibility.Disabled {
			return models.ErrSettlementDisabled
		}
		return models.ErrSettlementIneligible
	}
	q.mu.Unlock()

	if err := q.client.RequestSettlement(ctx, loanID); err != nil {
		return err
	}

	q.mu.Lock()
	q.loans[loanID] = &loanQuote{state: StateIdle}
	q.mu.Unlock()
	return nil
}

// entry returns the loan's state record, creating the idle default. Callers
// hold q.mu.
func (q *Quoter) entry(loanID int64) *loanQuote {
	if e, ok := q.loans[loanID]; ok {
		return e
	}
	e := &loanQuote{state: StateIdle}
	q.loans[loanID] = e
	return e
}

func (q *Quoter) transition(loanID int64, to State) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	entry := q.entry(loanID)
	if entry.state == StateChecking && to == StateChecking {
		return models.ErrActionInFlight
	}
	if !canTransition(entry.state, to) {
		return fmt.Errorf("invalid quote transition %s -> %s", entry.state, to)
	}
	entry.state = to
	return nil
}

func (q *Quoter) settle(loanID int64, to State, quote *models.EarlySettlementQuote, inel *Ineligibility, errMsg string) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.loans[loanID] = &loanQuote{
		state:         to,
		quote:         quote,
		ineligibility: inel,
		lastError:     errMsg,
	}
}
