package postgres

/*
Файл policy_repo.go отвечает за хранение правил маршрутизации согласования.
Долговременное хранение — здесь, мгновенная проверка на hot path — в
in-memory кэше пакета policy; слои разделены осознанно.
*/

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/xela07ax/erp-approval-engine/internal/domain"
)

const policyColumns = `id, tenant_id, department_id, feature, limit_amount, required_roles, is_active, created_at, updated_at`

func scanPolicy(row pgx.Row) (*domain.ApprovalPolicy, error) {
	var p domain.ApprovalPolicy
	var roles []string
	err := row.Scan(
		&p.ID, &p.TenantID, &p.DepartmentID, &p.Feature,
		&p.LimitAmount, &roles, &p.IsActive, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	p.RequiredRoles = make([]domain.Role, 0, len(roles))
	for _, r := range roles {
		p.RequiredRoles = append(p.RequiredRoles, domain.Role(r))
	}
	return &p, nil
}

// GetPolicyByID возвращает политику или nil, если ее нет.
func (r *Repo) GetPolicyByID(ctx context.Context, id string) (*domain.ApprovalPolicy, error) {
	query := `SELECT ` + policyColumns + ` FROM approval_policies WHERE id = $1`

	p, err := scanPolicy(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil // 404 разрулит хендлер
		}
		return nil, fmt.Errorf("postgres: failed to get policy: %w", err)
	}
	return p, nil
}

// PoliciesByTenant — все политики арендатора для загрузки снапшота в кэш.
// Порядок фиксирован: лимит по убыванию, при равенстве — ID по возрастанию
// (детерминированный tie-break, от него зависит очередность согласующих).
func (r *Repo) PoliciesByTenant(ctx context.Context, tenantID string) ([]domain.ApprovalPolicy, error) {
	query := `SELECT ` + policyColumns + `
		FROM approval_policies
		WHERE tenant_id = $1
		ORDER BY limit_amount DESC, id ASC`

	rows, err := r.pool.Query(ctx, query, tenantID)
	if err != nil {
		return nil, fmt.Errorf("postgres: failed to query policies: %w", err)
	}
	defer rows.Close()

	// Инициализируем пустой слайс, чтобы в JSON был [] вместо null
	results := make([]domain.ApprovalPolicy, 0)
	for rows.Next() {
		p, err := scanPolicy(rows)
		if err != nil {
			return nil, fmt.Errorf("postgres: failed to scan policy: %w", err)
		}
		results = append(results, *p)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("postgres: rows iteration error: %w", err)
	}
	return results, nil
}

// GetAllPolicies выполняет «холодную загрузку» всего набора политик при старте.
func (r *Repo) GetAllPolicies(ctx context.Context) ([]domain.ApprovalPolicy, error) {
	query := `SELECT ` + policyColumns + `
		FROM approval_policies
		ORDER BY tenant_id, limit_amount DESC, id ASC`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("postgres: failed to query policies: %w", err)
	}
	defer rows.Close()

	results := make([]domain.ApprovalPolicy, 0)
	for rows.Next() {
		p, err := scanPolicy(rows)
		if err != nil {
			return nil, fmt.Errorf("postgres: failed to scan policy: %w", err)
		}
		results = append(results, *p)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("postgres: rows iteration error: %w", err)
	}
	return results, nil
}

// UpsertPolicy создает или обновляет политику (id генерится в сервисе).
func (r *Repo) UpsertPolicy(ctx context.Context, p *domain.ApprovalPolicy) error {
	roles := make([]string, 0, len(p.RequiredRoles))
	for _, role := range p.RequiredRoles {
		roles = append(roles, string(role))
	}

	query := `
		INSERT INTO approval_policies (id, tenant_id, department_id, feature, limit_amount, required_roles, is_active)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (id) DO UPDATE
		SET department_id  = EXCLUDED.department_id,
		    feature        = EXCLUDED.feature,
		    limit_amount   = EXCLUDED.limit_amount,
		    required_roles = EXCLUDED.required_roles,
		    is_active      = EXCLUDED.is_active,
		    updated_at     = NOW()`

	_, err := r.pool.Exec(ctx, query,
		p.ID, p.TenantID, p.DepartmentID, p.Feature, p.LimitAmount, roles, p.IsActive,
	)
	if err != nil {
		return fmt.Errorf("postgres: failed to upsert policy: %w", err)
	}
	return nil
}
