package audit

/*
Пакет audit реализует append-only журнал решений (Audit Trail).

Ключевой инвариант: «текущий уровень согласования» документа нигде не
хранится как отдельное поле — он всегда выводится как количество записей
с action = APPROVED. Поэтому запись решения и последующий пересчет обязаны
быть атомарными относительно других решений по тому же документу: все
операции одного решения выполняются внутри DecisionTx под per-document
блокировкой, которую обеспечивает хранилище.
*/

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/xela07ax/erp-approval-engine/internal/domain"
	"github.com/xela07ax/erp-approval-engine/internal/infra"
	"go.uber.org/zap"
)

// DecisionTx — атомарный контекст одного решения. Добавление строки журнала
// и смена статуса документа фиксируются вместе или никак.
type DecisionTx interface {
	Document(ctx context.Context, docType domain.DocumentType, docID string) (*domain.Document, error)
	AppendRecord(ctx context.Context, rec *domain.ApprovalWorkflowRecord) error
	CountApproved(ctx context.Context, docType domain.DocumentType, docID string) (int, error)
	SetDocumentStatus(ctx context.Context, docType domain.DocumentType, docID string, status domain.DocumentStatus) error
}

// Store определяет требования рекордера к хранилищу журнала.
type Store interface {
	// WithDocumentLock выполняет fn в транзакции, удерживающей
	// эксклюзивную блокировку по идентификатору документа. Решения по
	// одному документу сериализуются, разные документы идут параллельно.
	WithDocumentLock(ctx context.Context, documentID string, fn func(tx DecisionTx) error) error

	History(ctx context.Context, docType domain.DocumentType, docID string) ([]domain.ApprovalWorkflowRecord, error)
	CountApproved(ctx context.Context, docType domain.DocumentType, docID string) (int, error)
}

// Recorder — сервис журнала: собирает неизменяемые записи и пишет
// compliance-строку в лог на каждое зафиксированное решение.
type Recorder struct {
	store  Store
	logger *zap.Logger
}

func NewRecorder(store Store, logger *zap.Logger) *Recorder {
	return &Recorder{
		store:  store,
		logger: logger.Named("audit"),
	}
}

// NewRecord собирает запись журнала для решения. ID и таймстемп
// проставляются здесь, чтобы запись была полной до попадания в транзакцию.
func NewRecord(doc *domain.Document, approverID string, action domain.ApprovalAction, comment string, approved *float64, level int) *domain.ApprovalWorkflowRecord {
	return &domain.ApprovalWorkflowRecord{
		ID:              uuid.New().String(),
		TenantID:        doc.TenantID,
		DocumentType:    doc.Type,
		DocumentID:      doc.ID,
		DocumentNo:      doc.DocumentNo,
		ApproverID:      approverID,
		Action:          action,
		Comment:         comment,
		RequestedAmount: doc.Amount,
		ApprovedAmount:  approved,
		Level:           level,
		CreatedAt:       time.Now(),
	}
}

// InTx прокидывает per-document транзакцию хранилища.
func (r *Recorder) InTx(ctx context.Context, documentID string, fn func(tx DecisionTx) error) error {
	return r.store.WithDocumentLock(ctx, documentID, fn)
}

// Append фиксирует запись внутри транзакции решения.
func (r *Recorder) Append(ctx context.Context, tx DecisionTx, rec *domain.ApprovalWorkflowRecord) error {
	if !rec.Action.IsDecision() {
		return domain.ErrInvalidRequest
	}
	if err := tx.AppendRecord(ctx, rec); err != nil {
		return err
	}

	// Compliance-след: каждое решение оставляет строку и в журнале БД,
	// и в структурных логах. Trace-ID связывает запись с HTTP-запросом.
	r.logger.Info("decision recorded",
		zap.String("trace_id", infra.TraceID(ctx)),
		zap.String("record_id", rec.ID),
		zap.String("tenant_id", rec.TenantID),
		zap.String("document_type", string(rec.DocumentType)),
		zap.String("document_id", rec.DocumentID),
		zap.String("approver_id", rec.ApproverID),
		zap.String("action", string(rec.Action)),
		zap.Int("level", rec.Level),
	)
	return nil
}

// History возвращает упорядоченный журнал документа.
func (r *Recorder) History(ctx context.Context, docType domain.DocumentType, docID string) ([]domain.ApprovalWorkflowRecord, error) {
	return r.store.History(ctx, docType, docID)
}

// CountApproved — производный «текущий уровень» вне транзакции
// (для обогащения очереди pending).
func (r *Recorder) CountApproved(ctx context.Context, docType domain.DocumentType, docID string) (int, error) {
	return r.store.CountApproved(ctx, docType, docID)
}
