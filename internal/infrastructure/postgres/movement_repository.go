package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"mrk/internal/domain/reconciliation"
)

// MovementRepository reads realized payments mirrored from the ERP.
type MovementRepository struct {
	db *DB
}

func NewMovementRepository(db *DB) *MovementRepository {
	return &MovementRepository{db: db}
}

func (r *MovementRepository) FindMatch(ctx context.Context, amount float64, date string) (*reconciliation.Movement, error) {
	query := `
		SELECT record_id, amount, pay_date, issue_date
		FROM realized_movements
		WHERE amount = $1 AND (pay_date = $2 OR issue_date = $2)
		ORDER BY record_id
		LIMIT 1
	`

	var m reconciliation.Movement
	err := r.db.QueryRowContext(ctx, query, amount, date).Scan(&m.RecordID, &m.Amount, &m.PayDate, &m.IssueDate)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find movement: %w", err)
	}
	return &m, nil
}
