package postgres

import (
	"context"
	"database/sql"
	"fmt"
)

// schemaStatements create the reconciliation tables and the ERP mirrors the
// service reads from. Every statement is idempotent.
var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS ofx_transactions (
		id                BIGSERIAL PRIMARY KEY,
		bank_id           VARCHAR(20)  NOT NULL DEFAULT '',
		acct_id           VARCHAR(50)  NOT NULL DEFAULT '',
		trn_type          VARCHAR(20)  NOT NULL DEFAULT '',
		dt_posted         DATE         NOT NULL,
		amount            NUMERIC(15,2) NOT NULL,
		fitid             VARCHAR(100) NOT NULL UNIQUE,
		check_num         VARCHAR(50)  NOT NULL DEFAULT '',
		memo              TEXT         NOT NULL DEFAULT '',
		balance           NUMERIC(15,2),
		project_id        VARCHAR(50),
		batch_id          UUID,
		validation_status VARCHAR(20)  NOT NULL DEFAULT 'PENDING',
		validation_notes  TEXT         NOT NULL DEFAULT '',
		validated_at      TIMESTAMPTZ,
		created_at        TIMESTAMPTZ  NOT NULL DEFAULT NOW(),
		updated_at        TIMESTAMPTZ  NOT NULL DEFAULT NOW()
	)`,
	`CREATE INDEX IF NOT EXISTS idx_ofx_transactions_dt_posted ON ofx_transactions (dt_posted DESC)`,
	`CREATE INDEX IF NOT EXISTS idx_ofx_transactions_project ON ofx_transactions (project_id)`,
	`CREATE INDEX IF NOT EXISTS idx_ofx_transactions_status ON ofx_transactions (validation_status)`,

	`CREATE TABLE IF NOT EXISTS projects (
		code        VARCHAR(50) PRIMARY KEY,
		description TEXT        NOT NULL DEFAULT '',
		start_date  VARCHAR(8)  NOT NULL DEFAULT '',
		end_date    VARCHAR(8)  NOT NULL DEFAULT '',
		closed_date VARCHAR(8)  NOT NULL DEFAULT '',
		coordinator TEXT        NOT NULL DEFAULT '',
		client      TEXT        NOT NULL DEFAULT '',
		budget      NUMERIC(15,2) NOT NULL DEFAULT 0
	)`,

	`CREATE TABLE IF NOT EXISTS realized_movements (
		record_id    BIGINT PRIMARY KEY,
		project_code VARCHAR(50)   NOT NULL DEFAULT '',
		amount       NUMERIC(15,2) NOT NULL,
		pay_date     VARCHAR(8)    NOT NULL DEFAULT '',
		issue_date   VARCHAR(8)    NOT NULL DEFAULT ''
	)`,
	`CREATE INDEX IF NOT EXISTS idx_realized_movements_amount ON realized_movements (amount)`,
	`CREATE INDEX IF NOT EXISTS idx_realized_movements_project ON realized_movements (project_code)`,

	`CREATE OR REPLACE FUNCTION notify_projects_changed() RETURNS trigger AS $$
	BEGIN
		PERFORM pg_notify('projects_changed', TG_OP);
		RETURN NULL;
	END;
	$$ LANGUAGE plpgsql`,
	`DROP TRIGGER IF EXISTS projects_changed ON projects`,
	`CREATE TRIGGER projects_changed
		AFTER INSERT OR UPDATE OR DELETE OR TRUNCATE ON projects
		FOR EACH STATEMENT EXECUTE FUNCTION notify_projects_changed()`,
}

// EnsureSchema creates any missing table or index in one transaction.
func EnsureSchema(ctx context.Context, db *DB) error {
	return db.WithTx(ctx, func(tx *sql.Tx) error {
		for _, stmt := range schemaStatements {
			if _, err := tx.ExecContext(ctx, stmt); err != nil {
				return fmt.Errorf("failed to apply schema: %w", err)
			}
		}
		return nil
	})
}
