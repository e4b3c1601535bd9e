package workflow

/*
Файл engine.go — ядро машины состояний согласования.

Состояния документа: NONE -> PENDING_APPROVAL -> {FULLY_APPROVED | REJECTED |
RETURNED}. Внутри PENDING_APPROVAL уровни продвигаются через
PENDING_NEXT_APPROVAL — это не отдельный статус документа, а сигнал о том,
кого уведомлять следующим. Делегирование не меняет статус и не расходует
уровень.

Текущий уровень — всегда производная величина: количество записей APPROVED
в журнале. План маршрута пересчитывается на каждом вызове, а не
персистится при подаче: правки политик между подачей и решением осознанно
меняют оставшийся маршрут.
*/

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/xela07ax/erp-approval-engine/internal/audit"
	"github.com/xela07ax/erp-approval-engine/internal/domain"
	"github.com/xela07ax/erp-approval-engine/internal/notify"
	"github.com/xela07ax/erp-approval-engine/internal/policy"
	"go.uber.org/zap"
)

// autoApproveComment — фиксированный комментарий записи журнала, когда
// документ не накрыт ни одной политикой.
const autoApproveComment = "auto-approved — no policy required"

// DocumentReader — чтение документов вне транзакции решения.
type DocumentReader interface {
	GetDocument(ctx context.Context, docType domain.DocumentType, docID string) (*domain.Document, error)
	ListPending(ctx context.Context, tenantID string, docType *domain.DocumentType) ([]domain.Document, error)
}

// PendingFilter — фильтры очереди ожидающих решений.
type PendingFilter struct {
	DocumentType *domain.DocumentType
}

// Engine — оркестратор workflow: подача, обработка решений, продвижение
// уровней, терминальная развязка, делегирование.
type Engine struct {
	policies  PolicySource
	recorder  *audit.Recorder
	documents DocumentReader
	resolver  *Resolver
	authority *Authority
	directory Directory
	notifier  notify.Notifier
	metrics   *Metrics
	logger    *zap.Logger
}

func NewEngine(
	policies PolicySource,
	recorder *audit.Recorder,
	documents DocumentReader,
	resolver *Resolver,
	authority *Authority,
	directory Directory,
	notifier notify.Notifier,
	metrics *Metrics,
	logger *zap.Logger,
) *Engine {
	return &Engine{
		policies:  policies,
		recorder:  recorder,
		documents: documents,
		resolver:  resolver,
		authority: authority,
		directory: directory,
		notifier:  notifier,
		metrics:   metrics,
		logger:    logger.Named("engine"),
	}
}

// Submit подает документ на согласование.
// Ноль применимых политик — значимый случай: документ автоматически
// согласован одной записью журнала (уровень 1) без участия человека.
func (e *Engine) Submit(ctx context.Context, actor domain.Actor, docType domain.DocumentType, docID string) (*domain.SubmitResult, error) {
	doc, err := e.documents.GetDocument(ctx, docType, docID)
	if err != nil {
		return nil, err
	}
	if doc == nil {
		return nil, fmt.Errorf("document %s/%s: %w", docType, docID, domain.ErrNotFound)
	}

	if !e.authority.CanSubmit(actor, doc) {
		e.metrics.AuthDenied.Inc()
		return nil, fmt.Errorf("actor %s may not submit %s/%s: %w", actor.UserID, docType, docID, domain.ErrAuthorizationDenied)
	}

	policies, err := e.policies.ApplicablePolicies(ctx, doc.TenantID, doc.Type, doc.Amount, doc.DepartmentID)
	if err != nil {
		return nil, err
	}
	steps := policy.PlanSteps(policies)

	result := &domain.SubmitResult{
		WorkflowID:    uuid.New().String(),
		NextApprovers: []string{},
	}

	err = e.recorder.InTx(ctx, doc.ID, func(tx audit.DecisionTx) error {
		// Перечитываем под блокировкой: конкурентный Submit того же
		// документа должен увидеть уже измененный статус
		locked, err := tx.Document(ctx, docType, docID)
		if err != nil {
			return err
		}
		if locked == nil {
			return fmt.Errorf("document %s/%s: %w", docType, docID, domain.ErrNotFound)
		}
		if !locked.Submittable() {
			if locked.Status == domain.StatusPending {
				return fmt.Errorf("document %s/%s already pending approval: %w", docType, docID, domain.ErrInvalidRequest)
			}
			return fmt.Errorf("document %s/%s: %w", docType, docID, domain.ErrAlreadyFinalized)
		}

		if len(steps) == 0 {
			// Маршрут пуст — автосогласование одной записью
			rec := audit.NewRecord(locked, actor.UserID, domain.ActionApproved, autoApproveComment, &locked.Amount, 1)
			if err := e.recorder.Append(ctx, tx, rec); err != nil {
				return err
			}
			if err := tx.SetDocumentStatus(ctx, docType, docID, domain.StatusApproved); err != nil {
				return err
			}
			result.Status = domain.SubmitAutoApproved
			return nil
		}

		if err := tx.SetDocumentStatus(ctx, docType, docID, domain.StatusPending); err != nil {
			return err
		}
		result.Status = domain.SubmitPending
		return nil
	})
	if err != nil {
		return nil, err
	}

	e.metrics.SubmitTotal.WithLabelValues(string(docType), string(result.Status)).Inc()

	if result.Status == domain.SubmitAutoApproved {
		e.notifier.Notify(e.notification(notify.KindDecision, doc, []string{doc.CreatedBy}, 1, "auto-approved"))
		e.logger.Info("document auto-approved",
			zap.String("document_type", string(docType)),
			zap.String("document_id", docID),
		)
		return result, nil
	}

	// Раскрываем первый шаг и зовем согласующих
	result.NextApprovers = e.surfaceStep(ctx, doc, steps[0])
	e.logger.Info("document submitted",
		zap.String("document_type", string(docType)),
		zap.String("document_id", docID),
		zap.Int("total_steps", len(steps)),
	)
	return result, nil
}

// Decide обрабатывает решение согласующего по документу.
func (e *Engine) Decide(ctx context.Context, actor domain.Actor, docType domain.DocumentType, docID string, decision domain.ApprovalDecision) (*domain.DecideResult, error) {
	start := time.Now()

	if !decision.Action.IsDecision() {
		return nil, fmt.Errorf("unknown action %q: %w", decision.Action, domain.ErrInvalidRequest)
	}
	// Валидация до транзакции: никаких side effects при кривом входе
	if decision.Action == domain.ActionDelegated && decision.DelegateTo == "" {
		return nil, fmt.Errorf("delegate target is required: %w", domain.ErrInvalidRequest)
	}

	var (
		result   *domain.DecideResult
		doc      *domain.Document
		nextStep *domain.ApprovalStep
		delegate *domain.User
	)

	err := e.recorder.InTx(ctx, docID, func(tx audit.DecisionTx) error {
		var err error
		doc, err = tx.Document(ctx, docType, docID)
		if err != nil {
			return err
		}
		if doc == nil {
			return fmt.Errorf("document %s/%s: %w", docType, docID, domain.ErrNotFound)
		}
		// Терминальные статусы поглощающие: повторное решение — ошибка,
		// а не тихий повторный проход
		if doc.Status != domain.StatusPending {
			return fmt.Errorf("document %s/%s is not pending: %w", docType, docID, domain.ErrAlreadyFinalized)
		}

		// План пересчитывается на каждом решении (см. шапку файла)
		policies, err := e.policies.ApplicablePolicies(ctx, doc.TenantID, doc.Type, doc.Amount, doc.DepartmentID)
		if err != nil {
			return err
		}
		steps := policy.PlanSteps(policies)

		approvedCount, err := tx.CountApproved(ctx, docType, docID)
		if err != nil {
			return err
		}
		level := approvedCount + 1

		ok, err := e.authority.CanAct(ctx, actor, doc, decision.Action)
		if err != nil {
			return err
		}
		if !ok {
			e.metrics.AuthDenied.Inc()
			return fmt.Errorf("actor %s lacks authority over %s/%s: %w", actor.UserID, docType, docID, domain.ErrAuthorizationDenied)
		}

		// Уровневая проверка: текущий шаг требует конкретную роль
		var current domain.ApprovalStep
		if approvedCount < len(steps) {
			current = steps[approvedCount]
			if !e.authority.EligibleAtLevel(actor, current) {
				e.metrics.AuthDenied.Inc()
				return fmt.Errorf("level %d requires role %s: %w", level, current.Role, domain.ErrAuthorizationDenied)
			}
		}

		switch decision.Action {
		case domain.ActionDelegated:
			// Делегат: существует, активен, годен для текущего шага.
			// Уровень не расходуется, статус документа не меняется.
			delegate, err = e.directory.GetUser(ctx, doc.TenantID, decision.DelegateTo)
			if err != nil {
				return err
			}
			if delegate == nil || !delegate.IsActive {
				return fmt.Errorf("delegate %s not found or inactive: %w", decision.DelegateTo, domain.ErrInvalidRequest)
			}
			if delegate.Role != domain.RoleAdmin && delegate.Role != current.Role {
				return fmt.Errorf("delegate %s is not eligible for level %d: %w", delegate.ID, level, domain.ErrInvalidRequest)
			}

			rec := audit.NewRecord(doc, actor.UserID, domain.ActionDelegated, decision.Comment, nil, level)
			if err := e.recorder.Append(ctx, tx, rec); err != nil {
				return err
			}
			result = &domain.DecideResult{
				Status:        domain.DecideDelegated,
				NextApprovers: []string{delegate.ID},
			}
			return nil

		case domain.ActionRejected:
			rec := audit.NewRecord(doc, actor.UserID, domain.ActionRejected, decision.Comment, nil, level)
			if err := e.recorder.Append(ctx, tx, rec); err != nil {
				return err
			}
			if err := tx.SetDocumentStatus(ctx, docType, docID, domain.StatusRejected); err != nil {
				return err
			}
			final := domain.ActionRejected
			result = &domain.DecideResult{Status: domain.DecideRejected, FinalDecision: &final}
			return nil

		case domain.ActionReturned:
			rec := audit.NewRecord(doc, actor.UserID, domain.ActionReturned, decision.Comment, nil, level)
			if err := e.recorder.Append(ctx, tx, rec); err != nil {
				return err
			}
			if err := tx.SetDocumentStatus(ctx, docType, docID, domain.StatusReturned); err != nil {
				return err
			}
			final := domain.ActionReturned
			result = &domain.DecideResult{Status: domain.DecideReturned, FinalDecision: &final}
			return nil

		case domain.ActionApproved:
			approvedAmount := decision.ApprovedAmount
			if approvedAmount == nil {
				approvedAmount = &doc.Amount
			}
			rec := audit.NewRecord(doc, actor.UserID, domain.ActionApproved, decision.Comment, approvedAmount, level)
			if err := e.recorder.Append(ctx, tx, rec); err != nil {
				return err
			}

			if approvedCount+1 >= len(steps) {
				if err := tx.SetDocumentStatus(ctx, docType, docID, domain.StatusApproved); err != nil {
					return err
				}
				final := domain.ActionApproved
				result = &domain.DecideResult{Status: domain.DecideFullyApproved, FinalDecision: &final}
				return nil
			}

			next := steps[approvedCount+1]
			nextStep = &next
			result = &domain.DecideResult{Status: domain.DecidePendingNext}
			return nil
		}
		return fmt.Errorf("unknown action %q: %w", decision.Action, domain.ErrInvalidRequest)
	})

	status := "error"
	if err == nil && result != nil {
		status = string(result.Status)
	}
	e.metrics.DecideDuration.WithLabelValues(string(decision.Action), status).Observe(time.Since(start).Seconds())
	if err != nil {
		return nil, err
	}

	e.metrics.DecisionsTotal.WithLabelValues(string(docType), string(decision.Action)).Inc()

	// Уведомления — строго после коммита и строго fire-and-forget
	switch result.Status {
	case domain.DecideDelegated:
		e.notifier.Notify(e.notification(notify.KindDelegated, doc, []string{delegate.ID}, 0, decision.Comment))
	case domain.DecidePendingNext:
		result.NextApprovers = e.surfaceStep(ctx, doc, *nextStep)
	default:
		// Терминальная развязка — сообщаем автору документа
		e.notifier.Notify(e.notification(notify.KindDecision, doc, []string{doc.CreatedBy}, 0, string(result.Status)))
	}

	e.logger.Info("decision processed",
		zap.String("document_type", string(docType)),
		zap.String("document_id", docID),
		zap.String("action", string(decision.Action)),
		zap.String("status", string(result.Status)),
	)
	return result, nil
}

// GetPendingApprovals — очередь «ждут моего решения»: документы арендатора
// в PENDING_APPROVAL, на текущем шаге которых актор вправе действовать.
func (e *Engine) GetPendingApprovals(ctx context.Context, actor domain.Actor, filter PendingFilter) ([]domain.PendingApproval, error) {
	docs, err := e.documents.ListPending(ctx, actor.TenantID, filter.DocumentType)
	if err != nil {
		return nil, err
	}

	items := make([]domain.PendingApproval, 0)
	for i := range docs {
		doc := docs[i]

		policies, err := e.policies.ApplicablePolicies(ctx, doc.TenantID, doc.Type, doc.Amount, doc.DepartmentID)
		if err != nil {
			return nil, err
		}
		steps := policy.PlanSteps(policies)

		approvedCount, err := e.recorder.CountApproved(ctx, doc.Type, doc.ID)
		if err != nil {
			return nil, err
		}
		if approvedCount >= len(steps) {
			// Маршрут сократился правкой политик, документ добьет
			// ближайший Decide(APPROVED)
			continue
		}
		current := steps[approvedCount]

		if !e.authority.EligibleAtLevel(actor, current) {
			continue
		}
		ok, err := e.authority.CanAct(ctx, actor, &doc, domain.ActionApproved)
		if err != nil {
			return nil, err
		}
		if !ok {
			continue
		}

		items = append(items, domain.PendingApproval{
			Document:     doc,
			CurrentLevel: current.Level,
			TotalSteps:   len(steps),
			RequiredRole: current.Role,
		})
	}
	return items, nil
}

// GetHistory — упорядоченный журнал документа, гейтится read-проверкой.
func (e *Engine) GetHistory(ctx context.Context, actor domain.Actor, docType domain.DocumentType, docID string) ([]domain.ApprovalWorkflowRecord, error) {
	doc, err := e.documents.GetDocument(ctx, docType, docID)
	if err != nil {
		return nil, err
	}
	if doc == nil {
		return nil, fmt.Errorf("document %s/%s: %w", docType, docID, domain.ErrNotFound)
	}

	ok, err := e.authority.CanAct(ctx, actor, doc, domain.ActionRead)
	if err != nil {
		return nil, err
	}
	if !ok {
		e.metrics.AuthDenied.Inc()
		return nil, fmt.Errorf("actor %s may not read %s/%s: %w", actor.UserID, docType, docID, domain.ErrAuthorizationDenied)
	}

	return e.recorder.History(ctx, docType, docID)
}

// surfaceStep раскрывает шаг в получателей и уведомляет их. Пустой набор —
// ConfigurationGap: предупреждение в ops-канал, workflow не падает.
func (e *Engine) surfaceStep(ctx context.Context, doc *domain.Document, step domain.ApprovalStep) []string {
	approvers, err := e.resolver.Approvers(ctx, doc.TenantID, step, doc.DepartmentID)
	if err != nil {
		// Резолвер упал — шаг остается открытым, решение уже зафиксировано
		e.logger.Error("approver resolution failed",
			zap.String("document_id", doc.ID),
			zap.Int("level", step.Level),
			zap.Error(err),
		)
		return []string{}
	}

	if len(approvers) == 0 {
		e.metrics.ConfigGaps.Inc()
		e.notifier.Notify(e.notification(notify.KindConfigurationGap, doc, nil, step.Level,
			fmt.Sprintf("no active %s approver for level %d", step.Role, step.Level)))
		return []string{}
	}

	e.notifier.Notify(e.notification(notify.KindApprovalRequested, doc, approvers, step.Level, ""))
	return approvers
}

func (e *Engine) notification(kind notify.Kind, doc *domain.Document, recipients []string, level int, message string) notify.Notification {
	return notify.Notification{
		ID:           uuid.New().String(),
		Kind:         kind,
		TenantID:     doc.TenantID,
		DocumentType: doc.Type,
		DocumentID:   doc.ID,
		DocumentNo:   doc.DocumentNo,
		Recipients:   recipients,
		Level:        level,
		Message:      message,
		Timestamp:    time.Now(),
	}
}
