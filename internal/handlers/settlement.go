package handlers

import (
	"errors"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/Malcan-Technologies/creditxpress-aws-sub003/internal/models"
	"github.com/Malcan-Technologies/creditxpress-aws-sub003/internal/services/api"
	"github.com/Malcan-Technologies/creditxpress-aws-sub003/internal/services/settlement"
	"github.com/Malcan-Technologies/creditxpress-aws-sub003/internal/utils"
)

// Settlement serves the early-settlement quote flow.
type Settlement struct {
	quoter *settlement.Quoter
	poller *api.Poller
	loc    *time.Location
	log    *zap.Logger
}

// NewSettlement creates the settlement handler set.
func NewSettlement(quoter *settlement.Quoter, poller *api.Poller, loc *time.Location) *Settlement {
	return &Settlement{
		quoter: quoter,
		poller: poller,
		loc:    loc,
		log:    utils.GetLogger(),
	}
}

// QuoteResponse carries the quote state and whichever outcome the last check
// produced.
type QuoteResponse struct {
	State         settlement.State             `json:"state"`
	Quote         *models.EarlySettlementQuote `json:"quote,omitempty"`
	Ineligibility *settlement.Ineligibility    `json:"ineligibility,omitempty"`
	NetSavings    string                       `json:"net_savings,omitempty"`
	HasSavings    bool                         `json:"has_savings"`
	LastError     string                       `json:"last_error,omitempty"`
}

func (s *Settlement) quoteResponse(loanID int64) QuoteResponse {
	quote, inel := s.quoter.Outcome(loanID)
	resp := QuoteResponse{
		State:         s.quoter.StateOf(loanID),
		Quote:         quote,
		Ineligibility: inel,
		LastError:     s.quoter.LastError(loanID),
	}
	if quote != nil {
		resp.NetSavings = utils.FormatCurrency(quote.NetSavings())
		resp.HasSavings = quote.HasSavings()
	}
	return resp
}

// Quote serves POST /api/loans/{id}/settlement/quote: one fresh eligibility
// check and quote computation.
func (s *Settlement) Quote(w http.ResponseWriter, r *http.Request) {
	loanID, err := pathLoanID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	now := time.Now().In(s.loc)
	_, _, err = s.quoter.RequestQuote(r.Context(), loanID, now)
	if err != nil {
		if errors.Is(err, models.ErrActionInFlight) {
			writeError(w, http.StatusConflict, err)
			return
		}
		s.log.Warn("settlement quote failed",
			zap.Int64("loan_id", loanID),
			zap.Error(err),
		)
		writeJSON(w, http.StatusBadGateway, Response{
			Success: false,
			Error:   err.Error(),
			Data:    s.quoteResponse(loanID),
		})
		return
	}

	writeJSON(w, http.StatusOK, Response{Success: true, Data: s.quoteResponse(loanID)})
}

// State serves GET /api/loans/{id}/settlement: the current quote state
// without issuing a new check.
func (s *Settlement) State(w http.ResponseWriter, r *http.Request) {
	loanID, err := pathLoanID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	writeJSON(w, http.StatusOK, Response{Success: true, Data: s.quoteResponse(loanID)})
}

// Cancel serves POST /api/loans/{id}/settlement/cancel: back to idle,
// discarding the quote.
func (s *Settlement) Cancel(w http.ResponseWriter, r *http.Request) {
	loanID, err := pathLoanID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	if err := s.quoter.Cancel(loanID); err != nil {
		writeError(w, http.StatusConflict, err)
		return
	}
	writeJSON(w, http.StatusOK, Response{Success: true, Data: s.quoteResponse(loanID)})
}

// Request serves POST /api/loans/{id}/settlement/request: submits the
// settlement for a quoted loan. The loan moves to PENDING_EARLY_SETTLEMENT
// on the backend; callers re-fetch loans for the refreshed state.
func (s *Settlement) Request(w http.ResponseWriter, r *http.Request) {
	loanID, err := pathLoanID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	if err := s.quoter.Submit(r.Context(), loanID); err != nil {
		switch {
		case errors.Is(err, models.ErrSettlementIneligible), errors.Is(err, models.ErrSettlementDisabled):
			writeError(w, http.StatusConflict, err)
		case errors.Is(err, models.ErrActionInFlight):
			writeError(w, http.StatusConflict, err)
		default:
			writeError(w, http.StatusBadGateway, err)
		}
		return
	}

	// The loan is now awaiting administrative approval; begin polling until
	// it leaves the pending state.
	s.poller.Kick()

	writeJSON(w, http.StatusOK, Response{Success: true, Message: "settlement requested"})
}
