package postgres

/*
Файл workflow_repo.go — хранилище append-only журнала решений и документов.

Сериализация решений по документу строится на pg_advisory_xact_lock по хэшу
идентификатора: две конкурирующие попытки Decide на один документ выстроятся
в очередь на уровне БД независимо от количества инстансов движка, при этом
разные документы обрабатываются полностью параллельно.
*/

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/xela07ax/erp-approval-engine/internal/audit"
	"github.com/xela07ax/erp-approval-engine/internal/domain"
)

const recordColumns = `id, tenant_id, document_type, document_id, document_no, approver_id, action, comment, requested_amount, approved_amount, level, created_at`

const documentColumns = `id, tenant_id, document_type, document_no, amount, department_id, status, created_by, created_at, updated_at`

// decisionTx реализует audit.DecisionTx поверх открытой pgx-транзакции.
type decisionTx struct {
	tx pgx.Tx
}

// WithDocumentLock открывает транзакцию, берет advisory-блокировку по
// документу и выполняет fn. Commit только при отсутствии ошибки —
// журнал и статус документа фиксируются атомарно.
func (r *Repo) WithDocumentLock(ctx context.Context, documentID string, fn func(tx audit.DecisionTx) error) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("postgres: failed to begin decision tx: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck // no-op после Commit

	// Блокировка живет до конца транзакции, снимать руками не нужно
	if _, err := tx.Exec(ctx, `SELECT pg_advisory_xact_lock(hashtext($1))`, documentID); err != nil {
		return fmt.Errorf("postgres: failed to acquire document lock: %w", err)
	}

	if err := fn(&decisionTx{tx: tx}); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

func (t *decisionTx) Document(ctx context.Context, docType domain.DocumentType, docID string) (*domain.Document, error) {
	query := `SELECT ` + documentColumns + ` FROM documents WHERE document_type = $1 AND id = $2`
	return scanDocument(t.tx.QueryRow(ctx, query, docType, docID))
}

func (t *decisionTx) AppendRecord(ctx context.Context, rec *domain.ApprovalWorkflowRecord) error {
	query := `
		INSERT INTO approval_workflow_records
			(id, tenant_id, document_type, document_id, document_no, approver_id, action, comment, requested_amount, approved_amount, level, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`

	_, err := t.tx.Exec(ctx, query,
		rec.ID, rec.TenantID, rec.DocumentType, rec.DocumentID, rec.DocumentNo,
		rec.ApproverID, rec.Action, rec.Comment, rec.RequestedAmount, rec.ApprovedAmount,
		rec.Level, rec.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("postgres: failed to append workflow record: %w", err)
	}
	return nil
}

func (t *decisionTx) CountApproved(ctx context.Context, docType domain.DocumentType, docID string) (int, error) {
	return countApproved(ctx, t.tx, docType, docID)
}

func (t *decisionTx) SetDocumentStatus(ctx context.Context, docType domain.DocumentType, docID string, status domain.DocumentStatus) error {
	query := `UPDATE documents SET status = $1, updated_at = NOW() WHERE document_type = $2 AND id = $3`

	ct, err := t.tx.Exec(ctx, query, status, docType, docID)
	if err != nil {
		return fmt.Errorf("postgres: failed to update document status: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return fmt.Errorf("postgres: document %s/%s: %w", docType, docID, domain.ErrNotFound)
	}
	return nil
}

// queryRower покрывает и пул, и транзакцию.
type queryRower interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

func countApproved(ctx context.Context, q queryRower, docType domain.DocumentType, docID string) (int, error) {
	query := `
		SELECT COUNT(*) FROM approval_workflow_records
		WHERE document_type = $1 AND document_id = $2 AND action = 'APPROVED'`

	var count int
	if err := q.QueryRow(ctx, query, docType, docID).Scan(&count); err != nil {
		return 0, fmt.Errorf("postgres: failed to count approvals: %w", err)
	}
	return count, nil
}

// CountApproved — производный «текущий уровень» вне транзакции решения.
func (r *Repo) CountApproved(ctx context.Context, docType domain.DocumentType, docID string) (int, error) {
	return countApproved(ctx, r.pool, docType, docID)
}

// History возвращает журнал документа в порядке принятия решений.
func (r *Repo) History(ctx context.Context, docType domain.DocumentType, docID string) ([]domain.ApprovalWorkflowRecord, error) {
	query := `SELECT ` + recordColumns + `
		FROM approval_workflow_records
		WHERE document_type = $1 AND document_id = $2
		ORDER BY created_at ASC, level ASC`

	rows, err := r.pool.Query(ctx, query, docType, docID)
	if err != nil {
		return nil, fmt.Errorf("postgres: failed to query history: %w", err)
	}
	defer rows.Close()

	results := make([]domain.ApprovalWorkflowRecord, 0)
	for rows.Next() {
		var rec domain.ApprovalWorkflowRecord
		err := rows.Scan(
			&rec.ID, &rec.TenantID, &rec.DocumentType, &rec.DocumentID, &rec.DocumentNo,
			&rec.ApproverID, &rec.Action, &rec.Comment, &rec.RequestedAmount, &rec.ApprovedAmount,
			&rec.Level, &rec.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("postgres: failed to scan workflow record: %w", err)
		}
		results = append(results, rec)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("postgres: rows iteration error: %w", err)
	}
	return results, nil
}
