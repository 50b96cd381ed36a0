package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"mrk/internal/domain/reconciliation"
)

// StatementRepository stores imported bank transactions.
type StatementRepository struct {
	db *DB
}

func NewStatementRepository(db *DB) *StatementRepository {
	return &StatementRepository{db: db}
}

const transactionColumns = `
	id, bank_id, acct_id, trn_type, dt_posted, amount, fitid, check_num, memo,
	balance, project_id, COALESCE(batch_id::text, ''), validation_status,
	validation_notes, validated_at, created_at, updated_at`

func (r *StatementRepository) ExistsByFitID(ctx context.Context, fitID string) (bool, error) {
	var exists bool
	err := r.db.QueryRowContext(ctx,
		`SELECT EXISTS(SELECT 1 FROM ofx_transactions WHERE fitid = $1)`, fitID,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check fitid: %w", err)
	}
	return exists, nil
}

func (r *StatementRepository) Insert(ctx context.Context, p reconciliation.InsertParams) (int64, error) {
	query := `
		INSERT INTO ofx_transactions (
			bank_id, acct_id, trn_type, dt_posted, amount, fitid, check_num, memo,
			balance, project_id, batch_id
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, NULLIF($11, '')::uuid)
		RETURNING id
	`

	var id int64
	err := r.db.QueryRowContext(ctx, query,
		p.BankID, p.AccountID, p.Type, p.PostedDate, p.Amount, p.FitID, p.CheckNumber, p.Memo,
		nullFloat(p.Balance), nullStringPtr(p.ProjectID), p.BatchID,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("failed to insert transaction: %w", err)
	}
	return id, nil
}

// whereClause builds the shared WHERE for List and Stats.
func whereClause(f reconciliation.ListFilter) (string, []any) {
	var (
		conds []string
		args  []any
	)
	add := func(cond string, arg any) {
		args = append(args, arg)
		conds = append(conds, fmt.Sprintf(cond, len(args)))
	}

	if f.StartDate != nil {
		add("dt_posted >= $%d", *f.StartDate)
	}
	if f.EndDate != nil {
		add("dt_posted <= $%d", *f.EndDate)
	}
	if f.MinAmount != nil {
		add("amount >= $%d", *f.MinAmount)
	}
	if f.MaxAmount != nil {
		add("amount <= $%d", *f.MaxAmount)
	}
	if f.ProjectID != "" {
		add("project_id = $%d", f.ProjectID)
	}
	if f.Search != "" {
		add("memo ILIKE $%d", "%"+escapeLike(f.Search)+"%")
	}
	switch f.Direction {
	case reconciliation.DirectionCredit:
		conds = append(conds, "amount > 0")
	case reconciliation.DirectionDebit:
		conds = append(conds, "amount < 0")
	}
	if f.Status != "" {
		add("validation_status = $%d", string(f.Status))
	}

	if len(conds) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}

func (r *StatementRepository) List(ctx context.Context, f reconciliation.ListFilter) ([]*reconciliation.StoredTransaction, int, error) {
	where, args := whereClause(f)

	var total int
	if err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM ofx_transactions"+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count transactions: %w", err)
	}

	query := fmt.Sprintf(
		"SELECT %s FROM ofx_transactions%s ORDER BY dt_posted DESC, id DESC OFFSET $%d LIMIT $%d",
		transactionColumns, where, len(args)+1, len(args)+2,
	)
	rows, err := r.db.QueryContext(ctx, query, append(args, f.Skip, f.Limit)...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list transactions: %w", err)
	}
	defer rows.Close()

	txs, err := scanTransactions(rows)
	if err != nil {
		return nil, 0, err
	}
	return txs, total, nil
}

func (r *StatementRepository) Stats(ctx context.Context, f reconciliation.ListFilter) (*reconciliation.Stats, error) {
	where, args := whereClause(f)
	query := `
		SELECT
			COALESCE(SUM(amount), 0),
			COUNT(*) FILTER (WHERE validation_status = 'VALIDATED'),
			COUNT(*) FILTER (WHERE validation_status = 'DISCREPANCY'),
			COUNT(*) FILTER (WHERE project_id IS NOT NULL),
			COUNT(*)
		FROM ofx_transactions` + where

	var s reconciliation.Stats
	err := r.db.QueryRowContext(ctx, query, args...).Scan(
		&s.TotalSum, &s.Validated, &s.Discrepancies, &s.Associated, &s.Total,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to compute transaction stats: %w", err)
	}
	return &s, nil
}

func (r *StatementRepository) GetByID(ctx context.Context, id int64) (*reconciliation.StoredTransaction, error) {
	rows, err := r.db.QueryContext(ctx, "SELECT "+transactionColumns+" FROM ofx_transactions WHERE id = $1", id)
	if err != nil {
		return nil, fmt.Errorf("failed to get transaction: %w", err)
	}
	defer rows.Close()

	txs, err := scanTransactions(rows)
	if err != nil {
		return nil, err
	}
	if len(txs) == 0 {
		return nil, reconciliation.ErrTransactionNotFound
	}
	return txs[0], nil
}

func (r *StatementRepository) SetProject(ctx context.Context, id int64, projectID string) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE ofx_transactions SET project_id = $1, updated_at = NOW() WHERE id = $2`,
		projectID, id,
	)
	if err != nil {
		return fmt.Errorf("failed to set project: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if n == 0 {
		return reconciliation.ErrTransactionNotFound
	}
	return nil
}

func (r *StatementRepository) ListUnassociated(ctx context.Context) ([]*reconciliation.StoredTransaction, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT "+transactionColumns+" FROM ofx_transactions WHERE project_id IS NULL ORDER BY id",
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list unassociated transactions: %w", err)
	}
	defer rows.Close()
	return scanTransactions(rows)
}

func (r *StatementRepository) ListByStatus(ctx context.Context, status reconciliation.ValidationStatus) ([]*reconciliation.StoredTransaction, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT "+transactionColumns+" FROM ofx_transactions WHERE validation_status = $1 ORDER BY id",
		string(status),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list transactions by status: %w", err)
	}
	defer rows.Close()
	return scanTransactions(rows)
}

func (r *StatementRepository) UpdateValidation(ctx context.Context, id int64, status reconciliation.ValidationStatus, notes string, at time.Time) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE ofx_transactions
		SET validation_status = $1, validation_notes = $2, validated_at = $3, updated_at = NOW()
		WHERE id = $4
	`, string(status), notes, at, id)
	if err != nil {
		return fmt.Errorf("failed to update validation: %w", err)
	}
	return nil
}

func (r *StatementRepository) CountByStatus(ctx context.Context) (map[reconciliation.ValidationStatus]int, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT validation_status, COUNT(*) FROM ofx_transactions GROUP BY validation_status`,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to count by status: %w", err)
	}
	defer rows.Close()

	counts := make(map[reconciliation.ValidationStatus]int)
	for rows.Next() {
		var (
			status string
			n      int
		)
		if err := rows.Scan(&status, &n); err != nil {
			return nil, fmt.Errorf("failed to scan status count: %w", err)
		}
		counts[reconciliation.ValidationStatus(status)] = n
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating status counts: %w", err)
	}
	return counts, nil
}

func scanTransactions(rows *sql.Rows) ([]*reconciliation.StoredTransaction, error) {
	var txs []*reconciliation.StoredTransaction
	for rows.Next() {
		var (
			t           reconciliation.StoredTransaction
			status      string
			balance     sql.NullFloat64
			projectID   sql.NullString
			validatedAt sql.NullTime
		)
		err := rows.Scan(
			&t.ID, &t.BankID, &t.AccountID, &t.Type, &t.PostedDate, &t.Amount, &t.FitID,
			&t.CheckNumber, &t.Memo, &balance, &projectID, &t.BatchID, &status,
			&t.ValidationNotes, &validatedAt, &t.CreatedAt, &t.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan transaction: %w", err)
		}

		t.ValidationStatus = reconciliation.ValidationStatus(status)
		if balance.Valid {
			t.Balance = &balance.Float64
		}
		if projectID.Valid {
			t.ProjectID = &projectID.String
		}
		if validatedAt.Valid {
			t.ValidatedAt = &validatedAt.Time
		}
		txs = append(txs, &t)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating transactions: %w", err)
	}
	return txs, nil
}

func nullFloat(v *float64) sql.NullFloat64 {
	if v == nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: *v, Valid: true}
}

func nullStringPtr(s *string) sql.NullString {
	if s == nil || *s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}
