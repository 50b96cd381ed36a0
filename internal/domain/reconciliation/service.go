package reconciliation

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"mrk/internal/domain/project"
	"mrk/internal/domain/statement"
	"mrk/internal/domain/timeline"
	"mrk/internal/shared/logger"
)

const noteNoMatch = "No matching realized movement with the same amount and date."

// ImportResult describes an imported statement file.
type ImportResult struct {
	BankID        string  `json:"bankId"`
	AccountID     string  `json:"acctId"`
	LedgerBalance float64 `json:"ledgerBalance"`
	UploadResult
}

// Service contains the business logic for bank statement reconciliation
type Service struct {
	repo      Repository
	movements MovementRepository
	projects  ProjectDirectory
	clock     timeline.Clock
	newBatch  func() string
}

// NewService creates a new reconciliation service
func NewService(repo Repository, movements MovementRepository, projects ProjectDirectory, clock timeline.Clock) *Service {
	return &Service{
		repo:      repo,
		movements: movements,
		projects:  projects,
		clock:     clock,
		newBatch:  uuid.NewString,
	}
}

// Import decodes a Latin-1 OFX file, parses it and stores its transactions.
func (s *Service) Import(ctx context.Context, raw []byte) (*ImportResult, error) {
	text, err := statement.DecodeLatin1(raw)
	if err != nil {
		return nil, err
	}

	doc := statement.Parse(text)
	if len(doc.Transactions) == 0 {
		return nil, statement.ErrEmptyStatement
	}

	res, err := s.Save(ctx, statement.BuildUpload(doc))
	if err != nil {
		return nil, err
	}

	return &ImportResult{
		BankID:        doc.BankID,
		AccountID:     doc.AccountID,
		LedgerBalance: doc.LedgerBalance,
		UploadResult:  *res,
	}, nil
}

// Save stores rows whose FITID is not yet known. Rows missing a posted date
// or FITID are rejected; the rest of the batch still goes through.
func (s *Service) Save(ctx context.Context, rows []statement.UploadRow) (*UploadResult, error) {
	log := logger.FromContext(ctx)
	res := &UploadResult{
		BatchID:        s.newBatch(),
		TotalProcessed: len(rows),
	}
	seen := make(map[string]struct{}, len(rows))

	for _, row := range rows {
		params, err := insertParams(row, res.BatchID)
		if err != nil {
			res.Rejected++
			log.Warn().Err(err).Str("fit_id", row.FitID).Msg("rejected statement row")
			continue
		}

		if _, dup := seen[params.FitID]; dup {
			res.AlreadyExists++
			continue
		}
		seen[params.FitID] = struct{}{}

		exists, err := s.repo.ExistsByFitID(ctx, params.FitID)
		if err != nil {
			return nil, err
		}
		if exists {
			res.AlreadyExists++
			continue
		}

		if _, err := s.repo.Insert(ctx, params); err != nil {
			return nil, err
		}
		res.NewRecords++
	}

	log.Info().
		Str("batch_id", res.BatchID).
		Int("total", res.TotalProcessed).
		Int("new", res.NewRecords).
		Int("existing", res.AlreadyExists).
		Int("rejected", res.Rejected).
		Msg("statement rows saved")

	return res, nil
}

func insertParams(row statement.UploadRow, batchID string) (InsertParams, error) {
	if err := row.Validate(); err != nil {
		return InsertParams{}, err
	}
	posted, err := time.Parse(PostedDateLayout, row.PostedDate)
	if err != nil {
		return InsertParams{}, fmt.Errorf("invalid posted date %q: %w", row.PostedDate, err)
	}

	balance := row.Balance
	params := InsertParams{
		BankID:      row.BankID,
		AccountID:   row.AccountID,
		Type:        row.Type,
		PostedDate:  posted,
		Amount:      row.Amount,
		FitID:       row.FitID,
		CheckNumber: row.CheckNumber,
		Memo:        row.Memo,
		Balance:     &balance,
		BatchID:     batchID,
	}
	if row.ProjectID != nil {
		if code := strings.TrimSpace(*row.ProjectID); code != "" {
			params.ProjectID = &code
		}
	}
	return params, nil
}

// List returns one page of stored transactions with stats over every match.
func (s *Service) List(ctx context.Context, filter ListFilter) (*ListResult, error) {
	if err := filter.Validate(); err != nil {
		return nil, err
	}

	data, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, err
	}
	stats, err := s.repo.Stats(ctx, filter)
	if err != nil {
		return nil, err
	}
	if data == nil {
		data = []*StoredTransaction{}
	}

	stats.Total = total
	return &ListResult{
		Total: total,
		Data:  data,
		Skip:  filter.Skip,
		Limit: filter.Limit,
		Stats: *stats,
	}, nil
}

// Associate links a transaction to a project.
func (s *Service) Associate(ctx context.Context, id int64, projectCode string) error {
	code := strings.TrimSpace(projectCode)
	if code == "" {
		return ErrInvalidProject
	}

	tx, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, ErrTransactionNotFound) {
			return ErrTransactionNotFound
		}
		return err
	}
	if tx == nil {
		return ErrTransactionNotFound
	}

	return s.repo.SetProject(ctx, id, code)
}

// AutoMatch associates every unassociated transaction with the first project
// whose code appears in its memo, or whose name appears in it ignoring case.
// It returns the number of transactions associated.
func (s *Service) AutoMatch(ctx context.Context) (int, error) {
	pending, err := s.repo.ListUnassociated(ctx)
	if err != nil {
		return 0, err
	}
	if len(pending) == 0 {
		return 0, nil
	}

	projects, err := s.projects.ListCodesAndNames(ctx)
	if err != nil {
		return 0, fmt.Errorf("list projects: %w", err)
	}

	matched := 0
	for _, tx := range pending {
		code, ok := MatchProject(tx.Memo, projects)
		if !ok {
			continue
		}
		if err := s.repo.SetProject(ctx, tx.ID, code); err != nil {
			return matched, err
		}
		matched++
	}

	log := logger.FromContext(ctx)
	log.Info().
		Int("candidates", len(pending)).
		Int("matched", matched).
		Msg("auto-match finished")

	return matched, nil
}

// MatchProject finds the first project named in memo.
func MatchProject(memo string, projects []project.CodeName) (string, bool) {
	upperMemo := strings.ToUpper(memo)
	for _, p := range projects {
		code := strings.TrimSpace(p.Code)
		if code == "" {
			continue
		}
		if strings.Contains(memo, code) {
			return code, true
		}
		if name := strings.ToUpper(strings.TrimSpace(p.Name)); name != "" && strings.Contains(upperMemo, name) {
			return code, true
		}
	}
	return "", false
}

// ValidatePending checks every PENDING transaction against the realized
// movements: same absolute amount, paid or issued on the posted date.
func (s *Service) ValidatePending(ctx context.Context) (*ValidationSummary, error) {
	log := logger.FromContext(ctx)

	pending, err := s.repo.ListByStatus(ctx, StatusPending)
	if err != nil {
		return nil, err
	}
	summary := &ValidationSummary{Checked: len(pending)}
	if len(pending) == 0 {
		return summary, nil
	}

	for _, tx := range pending {
		amount := decimal.NewFromFloat(tx.Amount).Abs().Round(2).InexactFloat64()
		date := tx.PostedDate.Format("20060102")

		match, err := s.movements.FindMatch(ctx, amount, date)
		if err != nil {
			return nil, fmt.Errorf("find movement for transaction %d: %w", tx.ID, err)
		}

		status, notes := StatusDiscrepancy, noteNoMatch
		if match != nil {
			status = StatusValidated
			notes = fmt.Sprintf("Matched with realized movement record %d", match.RecordID)
		}

		if err := s.repo.UpdateValidation(ctx, tx.ID, status, notes, s.clock.Now()); err != nil {
			return nil, err
		}
	}

	counts, err := s.repo.CountByStatus(ctx)
	if err != nil {
		return nil, err
	}
	summary.Validated = counts[StatusValidated]
	summary.Discrepancies = counts[StatusDiscrepancy]
	summary.Pending = counts[StatusPending]

	log.Info().
		Int("checked", summary.Checked).
		Int("validated", summary.Validated).
		Int("discrepancies", summary.Discrepancies).
		Msg("pending transactions validated")

	return summary, nil
}
