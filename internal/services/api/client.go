// Package api implements the client for the lending backend. The engine is
// read-only over the snapshots this client fetches; the only mutations it
// issues are the borrower actions (repayment, settlement request), which
// return no loan body and require a re-fetch.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/Malcan-Technologies/creditxpress-aws-sub003/internal/config"
	"github.com/Malcan-Technologies/creditxpress-aws-sub003/internal/models"
	"github.com/Malcan-Technologies/creditxpress-aws-sub003/internal/utils"
)

// Client calls the lending backend.
type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
	log        *zap.Logger

	mu sync.Mutex
	// Per-resource loaded-or-loading guard: a second transactions fetch for
	// the same loan while one is in flight (or already cached) is a no-op.
	txnState map[int64]txnEntry
	// Per-target gate: no two mutating requests for the same action may be
	// in flight simultaneously.
	inProgress map[string]bool
}

type txnEntry struct {
	loading bool
	txns    []models.Transaction
}

// NewClient creates a backend client from configuration.
func NewClient(cfg *config.Config) *Client {
	return &Client{
		baseURL:    cfg.APIBaseURL,
		token:      cfg.APIToken,
		httpClient: &http.Client{Timeout: cfg.APITimeout},
		log:        utils.GetLogger(),
		txnState:   make(map[int64]txnEntry),
		inProgress: make(map[string]bool),
	}
}

// envelope is the backend's standard response wrapper.
type envelope struct {
	Success bool            `json:"success"`
	Message string          `json:"message,omitempty"`
	Data    json.RawMessage `json:"data,omitempty"`
	Error   string          `json:"error,omitempty"`
}

// FailureMessage returns whichever failure text the backend populated.
func (e *envelope) FailureMessage() string {
	if e.Error != "" {
		return e.Error
	}
	return e.Message
}

// Loans fetches the full loan+repayment snapshot. A snapshot carrying a
// status outside the known enums is rejected rather than silently
// misclassified downstream.
func (c *Client) Loans(ctx context.Context) ([]models.Loan, error) {
	var loans []models.Loan
	if err := c.get(ctx, "/api/loans", &loans); err != nil {
		return nil, fmt.Errorf("failed to fetch loans: %w", err)
	}
	if err := validateSnapshot(loans); err != nil {
		return nil, fmt.Errorf("backend sent malformed snapshot: %w", err)
	}
	return loans, nil
}

func validateSnapshot(loans []models.Loan) error {
	for i := range loans {
		if !loans[i].Status.IsValid() {
			return fmt.Errorf("loan %d: %w %q", loans[i].ID, models.ErrInvalidLoanStatus, loans[i].Status)
		}
		for _, r := range loans[i].Repayments {
			if !r.Status.IsValid() {
				return fmt.Errorf("loan %d repayment %d: %w %q", loans[i].ID, r.Sequence, models.ErrInvalidRepaymentState, r.Status)
			}
		}
	}
	return nil
}

// Wallet fetches the backend's independently computed loan summary.
func (c *Client) Wallet(ctx context.Context) (*models.WalletSummary, error) {
	var wallet models.WalletSummary
	if err := c.get(ctx, "/api/wallet", &wallet); err != nil {
		return nil, fmt.Errorf("failed to fetch wallet: %w", err)
	}
	return &wallet, nil
}

// Transactions fetches a loan's ledger movements. Concurrent or repeated
// calls for the same loan are deduplicated: while a fetch is in flight, or
// once one has completed, subsequent calls return the cached slice (nil
// while still loading) without issuing a request.
func (c *Client) Transactions(ctx context.Context, loanID int64) ([]models.Transaction, error) {
	c.mu.Lock()
	if entry, ok := c.txnState[loanID]; ok {
		c.mu.Unlock()
		return entry.txns, nil
	}
	c.txnState[loanID] = txnEntry{loading: true}
	c.mu.Unlock()

	var txns []models.Transaction
	err := c.get(ctx, fmt.Sprintf("/api/loans/%d/transactions", loanID), &txns)

	c.mu.Lock()
	if err != nil {
		// Allow a later retry rather than caching the failure.
		delete(c.txnState, loanID)
		c.mu.Unlock()
		return nil, fmt.Errorf("failed to fetch transactions for loan %d: %w", loanID, err)
	}
	c.txnState[loanID] = txnEntry{txns: txns}
	c.mu.Unlock()
	return txns, nil
}

// InvalidateTransactions clears the cached transactions for a loan so the
// next call re-fetches, used after a mutation.
func (c *Client) InvalidateTransactions(loanID int64) {
	c.mu.Lock()
	delete(c.txnState, loanID)
	c.mu.Unlock()
}

// QuoteFailure is the backend's structured ineligibility payload.
type QuoteFailure struct {
	Message string
}

// SettlementQuote requests a fresh early-settlement quote. Exactly one of
// the quote and the failure is non-nil on a nil error: a failure is the
// backend declining eligibility, not a transport problem.
func (c *Client) SettlementQuote(ctx context.Context, loanID int64) (*models.EarlySettlementQuote, *QuoteFailure, error) {
	body := map[string]int64{"loan_id": loanID}
	env, err := c.post(ctx, "/api/early-settlement/quote", body)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to request settlement quote: %w", err)
	}
	if !env.Success {
		return nil, &QuoteFailure{Message: env.FailureMessage()}, nil
	}

	var quote models.EarlySettlementQuote
	if err := json.Unmarshal(env.Data, &quote); err != nil {
		return nil, nil, fmt.Errorf("failed to decode settlement quote: %w", err)
	}
	quote.LoanID = loanID
	return &quote, nil, nil
}

// RequestSettlement submits the early-settlement request. It does not
// collect funds; on success the backend moves the loan into
// PENDING_EARLY_SETTLEMENT and the caller must re-fetch loans.
func (c *Client) RequestSettlement(ctx context.Context, loanID int64) error {
	key := fmt.Sprintf("settle:%d", loanID)
	if !c.acquire(key) {
		return models.ErrActionInFlight
	}
	defer c.release(key)

	env, err := c.post(ctx, "/api/early-settlement/request", map[string]int64{"loan_id": loanID})
	if err != nil {
		return fmt.Errorf("failed to submit settlement request: %w", err)
	}
	if !env.Success {
		return fmt.Errorf("settlement request rejected: %s", env.FailureMessage())
	}
	c.InvalidateTransactions(loanID)
	return nil
}

// RepayLoan submits a repayment. The loan status and amount are validated
// client-side before any request is issued.
func (c *Client) RepayLoan(ctx context.Context, loan *models.Loan, amount decimal.Decimal) error {
	if loan.Status.IsTerminal() {
		return models.ErrInvalidLoanStatus
	}
	if !amount.IsPositive() {
		return models.ErrInvalidAmount
	}
	if amount.GreaterThan(loan.OutstandingBalance) {
		return models.ErrAmountExceedsBalance
	}

	key := fmt.Sprintf("repay:%d", loan.ID)
	if !c.acquire(key) {
		return models.ErrActionInFlight
	}
	defer c.release(key)

	body := map[string]interface{}{
		"loan_id": loan.ID,
		"amount":  amount,
	}
	env, err := c.post(ctx, "/api/repay-loan", body)
	if err != nil {
		return fmt.Errorf("failed to submit repayment: %w", err)
	}
	if !env.Success {
		return fmt.Errorf("repayment rejected: %s", env.FailureMessage())
	}
	c.InvalidateTransactions(loan.ID)
	return nil
}

// acquire marks a mutating action in progress; returns false when one is
// already in flight for the same key.
func (c *Client) acquire(key string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.inProgress[key] {
		return false
	}
	c.inProgress[key] = true
	return true
}

func (c *Client) release(key string) {
	c.mu.Lock()
	delete(c.inProgress, key)
	c.mu.Unlock()
}

func (c *Client) get(ctx context.Context, path string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	env, err := c.do(req)
	if err != nil {
		return err
	}
	if !env.Success {
		return fmt.Errorf("backend error: %s", env.FailureMessage())
	}
	if out != nil && len(env.Data) > 0 {
		if err := json.Unmarshal(env.Data, out); err != nil {
			return fmt.Errorf("failed to decode response: %w", err)
		}
	}
	return nil
}

// post issues a mutating call and returns the raw envelope; callers decide
// whether a success=false envelope is an error or a structured outcome.
func (c *Client) post(ctx context.Context, path string, body interface{}) (*envelope, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	return c.do(req)
}

func (c *Client) do(req *http.Request) (*envelope, error) {
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	var env envelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		return nil, fmt.Errorf("backend returned status %d with unreadable body: %w", resp.StatusCode, err)
	}

	c.log.Debug("backend call",
		zap.String("method", req.Method),
		zap.String("path", req.URL.Path),
		zap.Int("status", resp.StatusCode),
		zap.Duration("elapsed", time.Since(start)),
	)

	if resp.StatusCode >= http.StatusInternalServerError {
		return nil, fmt.Errorf("backend returned status %d: %s", resp.StatusCode, env.FailureMessage())
	}
	return &env, nil
}
