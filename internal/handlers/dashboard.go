package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/Malcan-Technologies/creditxpress-aws-sub003/internal/config"
	"github.com/Malcan-Technologies/creditxpress-aws-sub003/internal/models"
	"github.com/Malcan-Technologies/creditxpress-aws-sub003/internal/services/api"
	"github.com/Malcan-Technologies/creditxpress-aws-sub003/internal/services/engine"
	"github.com/Malcan-Technologies/creditxpress-aws-sub003/internal/utils"
)

// walletTolerance is the rounding slack allowed between the backend's wallet
// aggregate and the engine's own sums.
var walletTolerance = decimal.NewFromFloat(0.01)

// Dashboard serves the derived loan figures.
type Dashboard struct {
	client *api.Client
	engine *engine.Engine
	loc    *time.Location
	cfg    *config.Config
	log    *zap.Logger
}

// NewDashboard creates the dashboard handler set.
func NewDashboard(client *api.Client, eng *engine.Engine, loc *time.Location, cfg *config.Config) *Dashboard {
	return &Dashboard{
		client: client,
		engine: eng,
		loc:    loc,
		cfg:    cfg,
		log:    utils.GetLogger(),
	}
}

// LoanSummary is one loan with every derived figure the dashboard renders.
type LoanSummary struct {
	Loan        models.Loan              `json:"loan"`
	Progress    models.LoanProgress      `json:"progress"`
	Performance *models.PerformanceScore `json:"performance"`
	Overdue     *models.OverdueInfo      `json:"overdue,omitempty"`

	// Display strings: currency symbol + formatted amount, never used for
	// further arithmetic.
	AmountDueDisplay   string `json:"amount_due_display"`
	OutstandingDisplay string `json:"outstanding_display"`
}

// Loans serves GET /api/loans: the full snapshot with derived figures. A
// fetch failure degrades to an empty list rather than a blocking error.
func (d *Dashboard) Loans(w http.ResponseWriter, r *http.Request) {
	loans, err := d.client.Loans(r.Context())
	if err != nil {
		d.log.Warn("loan fetch failed, serving empty snapshot", zap.Error(err))
		writeJSON(w, http.StatusOK, Response{Success: true, Data: []LoanSummary{}})
		return
	}

	now := time.Now().In(d.loc)
	summaries := make([]LoanSummary, 0, len(loans))
	for i := range loans {
		summaries = append(summaries, d.summarize(&loans[i], now))
	}
	writeJSON(w, http.StatusOK, Response{Success: true, Data: summaries})
}

func (d *Dashboard) summarize(loan *models.Loan, now time.Time) LoanSummary {
	progress := d.engine.Progress(loan, now)
	summary := LoanSummary{
		Loan:               *loan,
		Progress:           progress,
		Performance:        d.engine.Performance(loan, now),
		AmountDueDisplay:   d.display(progress.AmountDue),
		OutstandingDisplay: d.display(progress.OutstandingBalance),
	}
	if overdue := d.engine.Overdue(loan, now); overdue.HasOverdue() {
		summary.Overdue = overdue
	}
	return summary
}

func (d *Dashboard) display(amount decimal.Decimal) string {
	return d.cfg.CurrencySymbol + " " + utils.FormatCurrency(amount)
}

// Timeline serves GET /api/timeline, with ?year=current restricting to the
// current calendar year.
func (d *Dashboard) Timeline(w http.ResponseWriter, r *http.Request) {
	loans, err := d.client.Loans(r.Context())
	if err != nil {
		d.log.Warn("loan fetch failed, serving empty timeline", zap.Error(err))
		writeJSON(w, http.StatusOK, Response{Success: true, Data: models.Timeline{Buckets: []models.MonthBucket{}}})
		return
	}

	currentYearOnly := r.URL.Query().Get("year") == "current"
	timeline := d.engine.Timeline(loans, time.Now().In(d.loc), currentYearOnly)
	writeJSON(w, http.StatusOK, Response{Success: true, Data: timeline})
}

// Wallet serves GET /api/wallet: the backend's headline aggregate,
// cross-checked against the engine's own sums within rounding tolerance.
func (d *Dashboard) Wallet(w http.ResponseWriter, r *http.Request) {
	wallet, err := d.client.Wallet(r.Context())
	if err != nil {
		d.log.Warn("wallet fetch failed, serving empty summary", zap.Error(err))
		writeJSON(w, http.StatusOK, Response{Success: true, Data: models.WalletSummary{}})
		return
	}

	if loans, err := d.client.Loans(r.Context()); err == nil {
		d.crossCheckWallet(wallet, loans)
	}

	writeJSON(w, http.StatusOK, Response{Success: true, Data: wallet})
}

func (d *Dashboard) crossCheckWallet(wallet *models.WalletSummary, loans []models.Loan) {
	now := time.Now().In(d.loc)
	total := decimal.Zero
	for i := range loans {
		if !loans[i].Status.IsActiveLifecycle() {
			continue
		}
		total = total.Add(d.engine.Progress(&loans[i], now).OutstandingBalance)
	}
	if wallet.TotalOutstanding.Sub(total).Abs().GreaterThan(walletTolerance) {
		d.log.Warn("wallet aggregate disagrees with engine sums",
			zap.String("wallet_outstanding", wallet.TotalOutstanding.String()),
			zap.String("engine_outstanding", total.String()),
		)
	}
}

// Transactions serves GET /api/loans/{id}/transactions. Repeated requests
// for the same loan are deduplicated by the client-side guard.
func (d *Dashboard) Transactions(w http.ResponseWriter, r *http.Request) {
	loanID, err := pathLoanID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	txns, err := d.client.Transactions(r.Context(), loanID)
	if err != nil {
		d.log.Warn("transaction fetch failed, serving empty list",
			zap.Int64("loan_id", loanID),
			zap.Error(err),
		)
		txns = nil
	}
	if txns == nil {
		txns = []models.Transaction{}
	}
	writeJSON(w, http.StatusOK, Response{Success: true, Data: txns})
}

// RepayRequest is the repayment submission body.
type RepayRequest struct {
	Amount decimal.Decimal `json:"amount"`
}

// Repay serves POST /api/loans/{id}/repay. The amount is validated against
// the loan's outstanding balance before any backend request; on success the
// caller is told to re-fetch, no local state is assumed.
func (d *Dashboard) Repay(w http.ResponseWriter, r *http.Request) {
	loanID, err := pathLoanID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	var req RepayRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	loan, err := d.findLoan(r, loanID)
	if err != nil {
		writeError(w, http.StatusNotFound, err)
		return
	}

	if err := d.client.RepayLoan(r.Context(), loan, req.Amount); err != nil {
		switch err {
		case models.ErrInvalidAmount, models.ErrAmountExceedsBalance, models.ErrInvalidLoanStatus:
			writeError(w, http.StatusBadRequest, err)
		case models.ErrActionInFlight:
			writeError(w, http.StatusConflict, err)
		default:
			writeError(w, http.StatusBadGateway, err)
		}
		return
	}

	writeJSON(w, http.StatusOK, Response{Success: true, Message: "repayment submitted"})
}

func (d *Dashboard) findLoan(r *http.Request, loanID int64) (*models.Loan, error) {
	loans, err := d.client.Loans(r.Context())
	if err != nil {
		return nil, err
	}
	for i := range loans {
		if loans[i].ID == loanID {
			return &loans[i], nil
		}
	}
	return nil, models.ErrLoanNotFound
}

func pathLoanID(r *http.Request) (int64, error) {
	id, err := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	if err != nil {
		return 0, models.ErrLoanNotFound
	}
	return id, nil
}
