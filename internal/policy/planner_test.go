package policy

import (
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/xela07ax/erp-approval-engine/internal/domain"
)

func strPtr(s string) *string { return &s }

func TestPlanSteps_Empty(t *testing.T) {
	steps := PlanSteps(nil)
	require.Empty(t, steps, "ноль политик — ноль шагов, документ проходит сам")
}

func TestPlanSteps_OrderedByDescendingLimit(t *testing.T) {
	policies := []domain.ApprovalPolicy{
		{ID: "p-hod", LimitAmount: 100_000, RequiredRoles: []domain.Role{domain.RoleHOD}, IsActive: true},
		{ID: "p-admin", LimitAmount: 500_000, RequiredRoles: []domain.Role{domain.RoleAdmin}, IsActive: true},
	}

	steps := PlanSteps(policies)
	require.Len(t, steps, 2)

	// Самый высокий порог — первый уровень
	require.Equal(t, 1, steps[0].Level)
	require.Equal(t, domain.RoleAdmin, steps[0].Role)
	require.Equal(t, 500_000.0, steps[0].LimitAmount)

	require.Equal(t, 2, steps[1].Level)
	require.Equal(t, domain.RoleHOD, steps[1].Role)
}

func TestPlanSteps_LevelsContiguous(t *testing.T) {
	policies := []domain.ApprovalPolicy{
		{ID: "a", LimitAmount: 10, RequiredRoles: []domain.Role{domain.RoleEmployee}},
		{ID: "b", LimitAmount: 100, RequiredRoles: []domain.Role{domain.RoleHOD}},
		{ID: "c", LimitAmount: 1000, RequiredRoles: []domain.Role{domain.RoleAdmin}},
	}

	steps := PlanSteps(policies)
	require.Len(t, steps, 3)
	for i, s := range steps {
		require.Equal(t, i+1, s.Level, "номера уровней непрерывны с 1")
	}
}

func TestPlanSteps_TieBreakByPolicyID(t *testing.T) {
	// При равных лимитах порядок детерминирован: ID по возрастанию
	policies := []domain.ApprovalPolicy{
		{ID: "zzz", LimitAmount: 100, RequiredRoles: []domain.Role{domain.RoleHOD}},
		{ID: "aaa", LimitAmount: 100, RequiredRoles: []domain.Role{domain.RoleAdmin}},
	}

	steps := PlanSteps(policies)
	require.Len(t, steps, 2)
	require.Equal(t, domain.RoleAdmin, steps[0].Role, "aaa раньше zzz")
	require.Equal(t, domain.RoleHOD, steps[1].Role)
}

func TestPlanSteps_FirstRoleOfSet(t *testing.T) {
	// Политика с несколькими ролями: планировщик берет первую,
	// раскрытие «любой из» — дело резолвера
	policies := []domain.ApprovalPolicy{
		{ID: "multi", LimitAmount: 100, RequiredRoles: []domain.Role{domain.RoleHOD, domain.RoleAdmin}},
	}

	steps := PlanSteps(policies)
	require.Len(t, steps, 1)
	require.Equal(t, domain.RoleHOD, steps[0].Role)
}

func TestPlanSteps_DoesNotMutateInput(t *testing.T) {
	policies := []domain.ApprovalPolicy{
		{ID: "low", LimitAmount: 10},
		{ID: "high", LimitAmount: 1000},
	}

	PlanSteps(policies)
	require.Equal(t, "low", policies[0].ID, "входной слайс не переупорядочивается")
}
