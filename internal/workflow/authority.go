package workflow

import (
	"context"

	"github.com/xela07ax/erp-approval-engine/internal/domain"
	"go.uber.org/zap"
)

// PolicySource — hot path чтение применимых политик. Реализуется кэшем
// пакета policy; валидатор и движок пересчитывают набор на каждый вызов,
// а не кэшируют план подачи (правки политик подхватываются на лету).
type PolicySource interface {
	ApplicablePolicies(ctx context.Context, tenantID string, feature domain.DocumentType, amount float64, department *string) ([]domain.ApprovalPolicy, error)
}

// Authority — валидатор полномочий. Решает, имеет ли актор право на
// действие над документом в его текущем состоянии.
//
// Иерархия ролей не кодируется наследованием: плоское перечисление плюс
// один явный short-circuit для ADMIN.
type Authority struct {
	policies PolicySource
	logger   *zap.Logger
}

func NewAuthority(policies PolicySource, logger *zap.Logger) *Authority {
	return &Authority{
		policies: policies,
		logger:   logger.Named("authority"),
	}
}

// CanAct проверяет полномочия актора на действие над документом.
// false — не сбой, а отказ: вызывающий обязан превратить его в
// AuthorizationDenied, а не в тихий no-op.
func (a *Authority) CanAct(ctx context.Context, actor domain.Actor, doc *domain.Document, action domain.ApprovalAction) (bool, error) {
	// Полномочия не пересекают границу арендатора
	if actor.TenantID != doc.TenantID {
		return false, nil
	}

	// ADMIN — явный short-circuit, всегда имеет полномочия
	if actor.Role == domain.RoleAdmin {
		return true, nil
	}

	if action == domain.ActionRead {
		return a.canRead(ctx, actor, doc)
	}

	// Основное правило: роль актора входит в required-набор хотя бы одной
	// применимой политики, и политика либо tenant-wide, либо его отдела
	policies, err := a.policies.ApplicablePolicies(ctx, doc.TenantID, doc.Type, doc.Amount, doc.DepartmentID)
	if err != nil {
		return false, err
	}
	for _, p := range policies {
		if !p.HasRole(actor.Role) {
			continue
		}
		if p.DepartmentID == nil || actor.SameDepartment(p.DepartmentID) {
			return true, nil
		}
	}

	// Расширение для HOD: согласование документа своего отдела разрешено,
	// даже если отдел документа не дошел до выборки политик (документы,
	// созданные до появления политики их отдела).
	if actor.Role == domain.RoleHOD && actor.SameDepartment(doc.DepartmentID) {
		return true, nil
	}

	return false, nil
}

// canRead — чтение не гейтится политиками, только write/approve.
func (a *Authority) canRead(ctx context.Context, actor domain.Actor, doc *domain.Document) (bool, error) {
	// Создатель всегда видит свой документ
	if actor.UserID == doc.CreatedBy {
		return true, nil
	}

	// HOD читает данные своего отдела без оглядки на политики
	if actor.Role == domain.RoleHOD {
		if doc.DepartmentID == nil || actor.SameDepartment(doc.DepartmentID) {
			return true, nil
		}
	}

	// Остальным — по тем же правилам, что и согласование
	return a.CanAct(ctx, actor, doc, domain.ActionApproved)
}

// EligibleAtLevel проверяет соответствие роли актора требуемой роли
// текущего шага. HOD не может закрыть шаг, требующий ADMIN, даже имея
// полномочия по какой-то из политик ниже по маршруту.
func (a *Authority) EligibleAtLevel(actor domain.Actor, step domain.ApprovalStep) bool {
	if actor.Role == domain.RoleAdmin {
		return true
	}
	return actor.Role == step.Role
}

// CanSubmit — подача документа: создатель, HOD его отдела или ADMIN.
// Точная проверка create-прав — дело внешнего коллаборатора, движок
// гейтит только очевидное.
func (a *Authority) CanSubmit(actor domain.Actor, doc *domain.Document) bool {
	if actor.TenantID != doc.TenantID {
		return false
	}
	if actor.Role == domain.RoleAdmin {
		return true
	}
	if actor.UserID == doc.CreatedBy {
		return true
	}
	return actor.Role == domain.RoleHOD && actor.SameDepartment(doc.DepartmentID)
}
