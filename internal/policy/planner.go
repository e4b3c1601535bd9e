package policy

import (
	"sort"

	"github.com/xela07ax/erp-approval-engine/internal/domain"
)

// PlanSteps превращает набор применимых политик в упорядоченный маршрут
// согласования. Уровень 1 получает политика с наибольшим лимитом: первым
// подписывает тот, чьих полномочий хватает на самый крупный из перейденных
// порогов. Номера уровней непрерывны, начиная с 1.
//
// Роль шага — первая роль набора политики («любая из ролей» раскрывается
// резолвером согласующих, не планировщиком). Ноль политик — ноль шагов:
// документ проходит без участия человека.
func PlanSteps(policies []domain.ApprovalPolicy) []domain.ApprovalStep {
	if len(policies) == 0 {
		return nil
	}

	ordered := make([]domain.ApprovalPolicy, len(policies))
	copy(ordered, policies)
	// Stable + tie-break по ID: при равных лимитах очередность согласующих
	// не должна зависеть от порядка строк в хранилище
	sort.SliceStable(ordered, func(i, j int) bool {
		if ordered[i].LimitAmount != ordered[j].LimitAmount {
			return ordered[i].LimitAmount > ordered[j].LimitAmount
		}
		return ordered[i].ID < ordered[j].ID
	})

	steps := make([]domain.ApprovalStep, 0, len(ordered))
	for i, p := range ordered {
		role := domain.Role("")
		if len(p.RequiredRoles) > 0 {
			role = p.RequiredRoles[0]
		}
		steps = append(steps, domain.ApprovalStep{
			Level:       i + 1,
			Role:        role,
			LimitAmount: p.LimitAmount,
		})
	}
	return steps
}
