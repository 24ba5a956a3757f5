package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// TransactionType categorizes a ledger movement on a loan.
type TransactionType string

const (
	TransactionTypeDisbursement TransactionType = "DISBURSEMENT"
	TransactionTypeRepayment    TransactionType = "REPAYMENT"
	TransactionTypeLateFee      TransactionType = "LATE_FEE"
	TransactionTypeSettlement   TransactionType = "SETTLEMENT"
)

// Transaction is one backend-recorded ledger movement, fetched per loan for
// the statement view.
type Transaction struct {
	ID        int64           `json:"id"`
	LoanID    int64           `json:"loan_id"`
	Amount    decimal.Decimal `json:"amount"`
	Type      TransactionType `json:"type"`
	Reference string          `json:"reference,omitempty"`
	Timestamp time.Time       `json:"timestamp"`
}
