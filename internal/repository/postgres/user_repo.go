package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/xela07ax/erp-approval-engine/internal/domain"
)

const userColumns = `id, tenant_id, email, username, password_hash, role, department_id, is_active, created_at, updated_at`

func scanUser(row pgx.Row) (*domain.User, error) {
	var u domain.User
	err := row.Scan(
		&u.ID, &u.TenantID, &u.Email, &u.Username, &u.PasswordHash,
		&u.Role, &u.DepartmentID, &u.IsActive, &u.CreatedAt, &u.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("postgres: failed to scan user: %w", err)
	}
	return &u, nil
}

// GetUserByUsername — логин-путь сервиса выпуска токенов.
func (r *Repo) GetUserByUsername(ctx context.Context, username string) (*domain.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE username = $1`
	return scanUser(r.pool.QueryRow(ctx, query, username))
}

// GetUser — точечная выборка (валидация делегата).
func (r *Repo) GetUser(ctx context.Context, tenantID, userID string) (*domain.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE tenant_id = $1 AND id = $2`
	return scanUser(r.pool.QueryRow(ctx, query, tenantID, userID))
}

// ApproversByRole возвращает активных пользователей с ролью шага.
// Для HOD выборка сужена до отдела, ADMIN всегда tenant-wide.
func (r *Repo) ApproversByRole(ctx context.Context, tenantID string, role domain.Role, departmentID *string) ([]domain.User, error) {
	query := `SELECT ` + userColumns + `
		FROM users
		WHERE tenant_id = $1 AND role = $2 AND is_active = TRUE`

	args := []any{tenantID, role}
	if role == domain.RoleHOD && departmentID != nil {
		query += ` AND department_id = $3`
		args = append(args, *departmentID)
	}
	query += ` ORDER BY username ASC`

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("postgres: failed to query approvers: %w", err)
	}
	defer rows.Close()

	results := make([]domain.User, 0)
	for rows.Next() {
		var u domain.User
		err := rows.Scan(
			&u.ID, &u.TenantID, &u.Email, &u.Username, &u.PasswordHash,
			&u.Role, &u.DepartmentID, &u.IsActive, &u.CreatedAt, &u.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("postgres: failed to scan user: %w", err)
		}
		results = append(results, u)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("postgres: rows iteration error: %w", err)
	}
	return results, nil
}
