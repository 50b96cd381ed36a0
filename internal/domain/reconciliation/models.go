package reconciliation

import (
	"errors"
	"strings"
	"time"
)

// Domain errors
var (
	ErrTransactionNotFound = errors.New("transaction not found")
	ErrInvalidProject      = errors.New("project code is required")
	ErrInvalidStatus       = errors.New("invalid validation status")
	ErrInvalidType         = errors.New("type must be CREDIT or DEBIT")
	ErrInvalidRange        = errors.New("range start is after range end")
)

// ValidationStatus tracks whether a bank transaction was found in the ERP.
type ValidationStatus string

const (
	StatusPending     ValidationStatus = "PENDING"
	StatusValidated   ValidationStatus = "VALIDATED"
	StatusDiscrepancy ValidationStatus = "DISCREPANCY"
)

// IsValid checks if the status is one of the known values
func (s ValidationStatus) IsValid() bool {
	return s == StatusPending || s == StatusValidated || s == StatusDiscrepancy
}

// Direction filters by amount sign.
type Direction string

const (
	DirectionCredit Direction = "CREDIT"
	DirectionDebit  Direction = "DEBIT"
)

// IsValid checks if the direction is CREDIT or DEBIT
func (d Direction) IsValid() bool {
	return d == DirectionCredit || d == DirectionDebit
}

// Limits applied to List.
const (
	DefaultListLimit = 100
	MaxListLimit     = 500
)

// PostedDateLayout is the date format carried by upload rows.
const PostedDateLayout = "2006-01-02"

// StoredTransaction is an imported bank transaction and its reconciliation
// state.
type StoredTransaction struct {
	ID               int64            `json:"id"`
	BankID           string           `json:"bankId"`
	AccountID        string           `json:"acctId"`
	Type             string           `json:"trnType"`
	PostedDate       time.Time        `json:"dtPosted"`
	Amount           float64          `json:"amount"`
	FitID            string           `json:"fitId"`
	CheckNumber      string           `json:"checkNum,omitempty"`
	Memo             string           `json:"memo"`
	Balance          *float64         `json:"balance"`
	ProjectID        *string          `json:"projectId"`
	BatchID          string           `json:"batchId"`
	ValidationStatus ValidationStatus `json:"validationStatus"`
	ValidationNotes  string           `json:"validationNotes,omitempty"`
	ValidatedAt      *time.Time       `json:"validatedAt,omitempty"`
	CreatedAt        time.Time        `json:"createdAt"`
	UpdatedAt        time.Time        `json:"updatedAt"`
}

// InsertParams contains the fields for storing a new transaction
type InsertParams struct {
	BankID      string
	AccountID   string
	Type        string
	PostedDate  time.Time
	Amount      float64
	FitID       string
	CheckNumber string
	Memo        string
	Balance     *float64
	ProjectID   *string
	BatchID     string
}

// UploadResult summarizes a save.
type UploadResult struct {
	BatchID        string `json:"batchId"`
	TotalProcessed int    `json:"totalProcessed"`
	NewRecords     int    `json:"newRecords"`
	AlreadyExists  int    `json:"alreadyExists"`
	Rejected       int    `json:"rejected"`
}

// ListFilter narrows the stored transactions. Zero values mean "no filter".
type ListFilter struct {
	Skip      int
	Limit     int
	StartDate *time.Time
	EndDate   *time.Time
	MinAmount *float64
	MaxAmount *float64
	ProjectID string
	Search    string
	Direction Direction
	Status    ValidationStatus
}

// Validate checks the filter and applies defaults.
func (f *ListFilter) Validate() error {
	if f.Skip < 0 {
		f.Skip = 0
	}
	if f.Limit <= 0 {
		f.Limit = DefaultListLimit
	}
	if f.Limit > MaxListLimit {
		f.Limit = MaxListLimit
	}
	f.ProjectID = strings.TrimSpace(f.ProjectID)
	f.Search = strings.TrimSpace(f.Search)

	if f.Direction != "" && !f.Direction.IsValid() {
		return ErrInvalidType
	}
	if f.Status != "" && !f.Status.IsValid() {
		return ErrInvalidStatus
	}
	if f.StartDate != nil && f.EndDate != nil && f.StartDate.After(*f.EndDate) {
		return ErrInvalidRange
	}
	if f.MinAmount != nil && f.MaxAmount != nil && *f.MinAmount > *f.MaxAmount {
		return ErrInvalidRange
	}
	return nil
}

// Stats aggregates every transaction matching a filter, before paging.
type Stats struct {
	TotalSum      float64 `json:"totalSum"`
	Validated     int     `json:"validated"`
	Discrepancies int     `json:"discrepancies"`
	Associated    int     `json:"associated"`
	Total         int     `json:"total"`
}

// ListResult is one page of stored transactions.
type ListResult struct {
	Total int                  `json:"total"`
	Data  []*StoredTransaction `json:"data"`
	Skip  int                  `json:"skip"`
	Limit int                  `json:"limit"`
	Stats Stats                `json:"stats"`
}

// Movement is a realized payment recorded in the ERP. Dates are YYYYMMDD.
type Movement struct {
	RecordID  int64
	Amount    float64
	PayDate   string
	IssueDate string
}

// ValidationSummary holds status totals recounted after a validation run.
type ValidationSummary struct {
	Checked       int `json:"checked"`
	Validated     int `json:"validated"`
	Discrepancies int `json:"discrepancies"`
	Pending       int `json:"pending"`
}
