package statement

import "errors"

// UnknownID is reported for BANKID/ACCTID when the statement does not carry them.
const UnknownID = "Unknown"

var (
	ErrMissingPostedDate = errors.New("transaction has no posted date")
	ErrMissingFitID      = errors.New("transaction has no FITID")
	ErrEmptyStatement    = errors.New("statement has no transactions")
)

// Transaction is one STMTTRN block as found in the statement.
type Transaction struct {
	Type        string  `json:"trnType"`
	PostedDate  string  `json:"dtPosted"` // YYYY-MM-DD or empty
	Amount      float64 `json:"amount"`
	FitID       string  `json:"fitId"`
	CheckNumber string  `json:"checkNum,omitempty"`
	Memo        string  `json:"memo"`
	Name        string  `json:"name,omitempty"`
}

// Document is the parsed statement. Transactions keep document order.
type Document struct {
	BankID        string        `json:"bankId"`
	AccountID     string        `json:"acctId"`
	LedgerBalance float64       `json:"ledgerBalance"`
	Transactions  []Transaction `json:"transactions"`
}

// UploadRow is a transaction ready to be stored, with the running balance
// attached.
type UploadRow struct {
	BankID      string  `json:"bankId"`
	AccountID   string  `json:"acctId"`
	Type        string  `json:"trnType"`
	PostedDate  string  `json:"dtPosted"`
	Amount      float64 `json:"amount"`
	FitID       string  `json:"fitId"`
	CheckNumber string  `json:"checkNum,omitempty"`
	Memo        string  `json:"memo"`
	Balance     float64 `json:"balance"`
	ProjectID   *string `json:"projectId,omitempty"`
}

// Validate checks the fields the store needs to key and order a row.
func (r UploadRow) Validate() error {
	if r.PostedDate == "" {
		return ErrMissingPostedDate
	}
	if r.FitID == "" {
		return ErrMissingFitID
	}
	return nil
}
