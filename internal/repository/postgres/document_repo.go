package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/xela07ax/erp-approval-engine/internal/domain"
)

func scanDocument(row pgx.Row) (*domain.Document, error) {
	var d domain.Document
	err := row.Scan(
		&d.ID, &d.TenantID, &d.Type, &d.DocumentNo, &d.Amount,
		&d.DepartmentID, &d.Status, &d.CreatedBy, &d.CreatedAt, &d.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("postgres: failed to scan document: %w", err)
	}
	return &d, nil
}

// GetDocument возвращает документ или nil, если его нет.
func (r *Repo) GetDocument(ctx context.Context, docType domain.DocumentType, docID string) (*domain.Document, error) {
	query := `SELECT ` + documentColumns + ` FROM documents WHERE document_type = $1 AND id = $2`
	return scanDocument(r.pool.QueryRow(ctx, query, docType, docID))
}

// ListPending — документы арендатора в статусе PENDING_APPROVAL,
// опционально суженные до одного типа. Фильтрацию «кто может действовать»
// делает движок через валидатор полномочий.
func (r *Repo) ListPending(ctx context.Context, tenantID string, docType *domain.DocumentType) ([]domain.Document, error) {
	query := `SELECT ` + documentColumns + `
		FROM documents
		WHERE tenant_id = $1 AND status = 'PENDING_APPROVAL'`

	args := []any{tenantID}
	if docType != nil {
		query += ` AND document_type = $2`
		args = append(args, *docType)
	}
	query += ` ORDER BY created_at ASC LIMIT 200`

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("postgres: failed to query pending documents: %w", err)
	}
	defer rows.Close()

	results := make([]domain.Document, 0)
	for rows.Next() {
		var d domain.Document
		err := rows.Scan(
			&d.ID, &d.TenantID, &d.Type, &d.DocumentNo, &d.Amount,
			&d.DepartmentID, &d.Status, &d.CreatedBy, &d.CreatedAt, &d.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("postgres: failed to scan document: %w", err)
		}
		results = append(results, d)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("postgres: rows iteration error: %w", err)
	}
	return results, nil
}
