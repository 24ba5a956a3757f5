package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Malcan-Technologies/creditxpress-aws-sub003/internal/config"
	"github.com/Malcan-Technologies/creditxpress-aws-sub003/internal/services/api"
	"github.com/Malcan-Technologies/creditxpress-aws-sub003/internal/services/engine"
	"github.com/Malcan-Technologies/creditxpress-aws-sub003/internal/utils"
)

var testLoc = time.FixedZone("MYT", 8*3600)

// loansPayload is a snapshot with one active loan carrying an overdue
// installment.
func loansPayload() interface{} {
	return []map[string]interface{}{
		{
			"id":                  1,
			"reference":           "LN-0001",
			"principal_amount":    "10000",
			"total_amount":        "10500",
			"outstanding_balance": "3500",
			"monthly_payment":     "3500",
			"status":              "ACTIVE",
			"repayments": []map[string]interface{}{
				{"sequence": 1, "due_date": "2025-06-10T00:00:00+08:00", "amount": "3500", "status": "COMPLETED", "paid_at": "2025-06-10T09:00:00+08:00"},
				{"sequence": 2, "due_date": "2025-07-10T00:00:00+08:00", "amount": "3500", "status": "COMPLETED", "paid_at": "2025-07-09T09:00:00+08:00"},
				{"sequence": 3, "due_date": "2025-08-10T00:00:00+08:00", "amount": "3500", "status": "PENDING"},
			},
		},
	}
}

func newTestDashboard(t *testing.T, backend http.HandlerFunc) *Dashboard {
	t.Helper()
	srv := httptest.NewServer(backend)
	t.Cleanup(srv.Close)

	cfg := &config.Config{
		APIBaseURL:     srv.URL,
		APITimeout:     5 * time.Second,
		CurrencySymbol: "RM",
	}
	client := api.NewClient(cfg)
	return NewDashboard(client, engine.New(testLoc), testLoc, cfg)
}

func loanBackend(t *testing.T) http.HandlerFunc {
	t.Helper()
	return func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.URL.Path == "/api/loans":
			json.NewEncoder(w).Encode(map[string]interface{}{"success": true, "data": loansPayload()})
		case r.URL.Path == "/api/repay-loan":
			json.NewEncoder(w).Encode(map[string]interface{}{"success": true})
		default:
			http.NotFound(w, r)
		}
	}
}

func TestDashboard_LoansSummaries(t *testing.T) {
	d := newTestDashboard(t, loanBackend(t))

	rec := httptest.NewRecorder()
	d.Loans(rec, httptest.NewRequest(http.MethodGet, "/api/loans", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	var resp struct {
		Success bool          `json:"success"`
		Data    []LoanSummary `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.True(t, resp.Success)
	require.Len(t, resp.Data, 1)

	summary := resp.Data[0]
	assert.Equal(t, "LN-0001", summary.Loan.Reference)
	require.NotNil(t, summary.Performance)
	assert.NotNil(t, summary.Overdue)
	assert.True(t, strings.HasPrefix(summary.AmountDueDisplay, "RM "))
	assert.True(t, summary.Progress.OutstandingBalance.String() == "3500")
}

// A backend failure degrades to an empty snapshot, never a blocking error.
func TestDashboard_LoansDegradeOnFetchFailure(t *testing.T) {
	d := newTestDashboard(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		json.NewEncoder(w).Encode(map[string]interface{}{"success": false, "error": "down"})
	})

	rec := httptest.NewRecorder()
	d.Loans(rec, httptest.NewRequest(http.MethodGet, "/api/loans", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	var resp struct {
		Success bool          `json:"success"`
		Data    []LoanSummary `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.True(t, resp.Success)
	assert.Empty(t, resp.Data)
}

func TestDashboard_Timeline(t *testing.T) {
	d := newTestDashboard(t, loanBackend(t))

	rec := httptest.NewRecorder()
	d.Timeline(rec, httptest.NewRequest(http.MethodGet, "/api/timeline", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	var resp struct {
		Data struct {
			Buckets      []map[string]interface{} `json:"buckets"`
			TotalBuckets int                      `json:"total_buckets"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, 3, resp.Data.TotalBuckets)
	assert.Len(t, resp.Data.Buckets, 3)
}

func repayRequest(amount string) *http.Request {
	req := httptest.NewRequest(http.MethodPost, "/api/loans/1/repay", strings.NewReader(`{"amount": "`+amount+`"}`))
	return mux.SetURLVars(req, map[string]string{"id": "1"})
}

func TestDashboard_RepayValidation(t *testing.T) {
	d := newTestDashboard(t, loanBackend(t))

	rec := httptest.NewRecorder()
	d.Repay(rec, repayRequest("0"))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = httptest.NewRecorder()
	d.Repay(rec, repayRequest("99999"))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = httptest.NewRecorder()
	d.Repay(rec, repayRequest("500"))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestDashboard_RepayUnknownLoan(t *testing.T) {
	d := newTestDashboard(t, loanBackend(t))

	req := httptest.NewRequest(http.MethodPost, "/api/loans/42/repay", strings.NewReader(`{"amount": "500"}`))
	req = mux.SetURLVars(req, map[string]string{"id": "42"})
	rec := httptest.NewRecorder()
	d.Repay(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestMain(m *testing.M) {
	_ = utils.InitLogger("error")
	m.Run()
}
