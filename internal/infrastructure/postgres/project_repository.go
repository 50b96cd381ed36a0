package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"mrk/internal/domain/project"
)

// ProjectRepository reads the ERP project mirror with realized totals.
type ProjectRepository struct {
	db *DB
}

func NewProjectRepository(db *DB) *ProjectRepository {
	return &ProjectRepository{db: db}
}

const projectSelect = `
	SELECT p.code, p.description, p.start_date, p.end_date, p.closed_date,
	       p.coordinator, p.client, p.budget, COALESCE(m.realized, 0)
	FROM projects p
	LEFT JOIN (
		SELECT project_code, SUM(amount) AS realized
		FROM realized_movements
		GROUP BY project_code
	) m ON m.project_code = p.code`

func (r *ProjectRepository) List(ctx context.Context, f project.QueryFilter) ([]*project.Project, error) {
	var (
		conds []string
		args  []any
	)
	add := func(cond string, arg any) {
		args = append(args, arg)
		conds = append(conds, strings.ReplaceAll(cond, "$?", fmt.Sprintf("$%d", len(args))))
	}

	if s := strings.TrimSpace(f.Search); s != "" {
		add("(p.description ILIKE $? OR p.code ILIKE $? OR p.coordinator ILIKE $?)", "%"+escapeLike(s)+"%")
	}
	if c := strings.TrimSpace(f.Coordinator); c != "" {
		add("p.coordinator ILIKE $?", "%"+escapeLike(c)+"%")
	}
	if c := strings.TrimSpace(f.Client); c != "" {
		add("p.client ILIKE $?", "%"+escapeLike(c)+"%")
	}
	if f.StartFrom != "" {
		add("p.start_date >= $?", f.StartFrom)
	}
	if f.StartTo != "" {
		add("p.start_date <= $?", f.StartTo)
	}

	query := projectSelect
	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}
	query += " ORDER BY p.code"

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list projects: %w", err)
	}
	defer rows.Close()

	var projects []*project.Project
	for rows.Next() {
		p, err := scanProject(rows)
		if err != nil {
			return nil, err
		}
		projects = append(projects, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating projects: %w", err)
	}
	return projects, nil
}

func (r *ProjectRepository) GetByCode(ctx context.Context, code string) (*project.Project, error) {
	rows, err := r.db.QueryContext(ctx, projectSelect+" WHERE p.code = $1", code)
	if err != nil {
		return nil, fmt.Errorf("failed to get project: %w", err)
	}
	defer rows.Close()

	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return nil, fmt.Errorf("failed to get project: %w", err)
		}
		return nil, project.ErrProjectNotFound
	}
	return scanProject(rows)
}

func (r *ProjectRepository) ListCodesAndNames(ctx context.Context) ([]project.CodeName, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT code, description FROM projects ORDER BY code`)
	if err != nil {
		return nil, fmt.Errorf("failed to list project names: %w", err)
	}
	defer rows.Close()

	var out []project.CodeName
	for rows.Next() {
		var cn project.CodeName
		if err := rows.Scan(&cn.Code, &cn.Name); err != nil {
			return nil, fmt.Errorf("failed to scan project name: %w", err)
		}
		cn.Code = strings.TrimSpace(cn.Code)
		cn.Name = strings.TrimSpace(cn.Name)
		out = append(out, cn)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating project names: %w", err)
	}
	return out, nil
}

// scanProject reads one row and trims the fixed-width padding the ERP leaves
// on text columns.
func scanProject(rows *sql.Rows) (*project.Project, error) {
	var p project.Project
	err := rows.Scan(
		&p.Code, &p.Description, &p.StartDate, &p.EndDate, &p.ClosedDate,
		&p.Coordinator, &p.Client, &p.Budget, &p.Realized,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to scan project: %w", err)
	}

	for _, s := range []*string{&p.Code, &p.Description, &p.StartDate, &p.EndDate, &p.ClosedDate, &p.Coordinator, &p.Client} {
		*s = strings.TrimSpace(*s)
	}
	p.UsagePercent = UsagePercent(p.Realized, p.Budget)
	return &p, nil
}

// UsagePercent is realized over budget as a percentage, 0 without a budget.
func UsagePercent(realized, budget float64) float64 {
	if budget <= 0 {
		return 0
	}
	return realized / budget * 100
}
