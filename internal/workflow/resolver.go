package workflow

import (
	"context"

	"github.com/xela07ax/erp-approval-engine/internal/domain"
	"go.uber.org/zap"
)

// Directory описывает требования резолвера к справочнику пользователей.
type Directory interface {
	ApproversByRole(ctx context.Context, tenantID string, role domain.Role, departmentID *string) ([]domain.User, error)
	GetUser(ctx context.Context, tenantID, userID string) (*domain.User, error)
}

// Resolver раскрывает шаг маршрута в набор пользователей, которые могут
// его закрыть. Пустой результат — не сбой workflow, а пробел конфигурации:
// шаг остается открытым, а предупреждение уходит в ops-канал.
type Resolver struct {
	directory Directory
	logger    *zap.Logger
}

func NewResolver(directory Directory, logger *zap.Logger) *Resolver {
	return &Resolver{
		directory: directory,
		logger:    logger.Named("resolver"),
	}
}

// Approvers возвращает ID активных пользователей с ролью шага.
// HOD-шаги сужены до отдела документа, ADMIN-шаги — tenant-wide
// независимо от отдела.
func (r *Resolver) Approvers(ctx context.Context, tenantID string, step domain.ApprovalStep, department *string) ([]string, error) {
	scope := department
	if step.Role == domain.RoleAdmin {
		scope = nil
	}

	users, err := r.directory.ApproversByRole(ctx, tenantID, step.Role, scope)
	if err != nil {
		return nil, err
	}

	ids := make([]string, 0, len(users))
	for _, u := range users {
		ids = append(ids, u.ID)
	}

	if len(ids) == 0 {
		r.logger.Warn("step resolved to empty approver set",
			zap.String("tenant_id", tenantID),
			zap.String("role", string(step.Role)),
			zap.Int("level", step.Level),
		)
	}
	return ids, nil
}
