package workflow

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/xela07ax/erp-approval-engine/internal/domain"
	"go.uber.org/zap"
)

// staticPolicies — источник политик с фильтрацией как в боевом кэше.
type staticPolicies struct {
	policies []domain.ApprovalPolicy
}

func (s *staticPolicies) ApplicablePolicies(_ context.Context, tenantID string, feature domain.DocumentType, amount float64, department *string) ([]domain.ApprovalPolicy, error) {
	matched := make([]domain.ApprovalPolicy, 0)
	for _, p := range s.policies {
		if p.TenantID == tenantID && p.Matches(feature, amount, department) {
			matched = append(matched, p)
		}
	}
	return matched, nil
}

func strPtr(s string) *string { return &s }

func testDoc(dept *string) *domain.Document {
	return &domain.Document{
		ID:           "doc-1",
		TenantID:     "t1",
		Type:         domain.DocInvoice,
		DocumentNo:   "INV-001",
		Amount:       150_000,
		DepartmentID: dept,
		Status:       domain.StatusPending,
		CreatedBy:    "creator-1",
	}
}

func hodPolicy(dept *string) domain.ApprovalPolicy {
	return domain.ApprovalPolicy{
		ID: "p-hod", TenantID: "t1", Feature: domain.DocInvoice,
		LimitAmount: 100_000, RequiredRoles: []domain.Role{domain.RoleHOD},
		DepartmentID: dept, IsActive: true,
	}
}

func TestAuthority_TenantBoundary(t *testing.T) {
	a := NewAuthority(&staticPolicies{}, zap.NewNop())

	// Даже ADMIN не пересекает границу арендатора
	actor := domain.Actor{TenantID: "t2", UserID: "u1", Role: domain.RoleAdmin}
	ok, err := a.CanAct(context.Background(), actor, testDoc(nil), domain.ActionApproved)
	require.NoError(t, err)
	require.False(t, ok)
}

func TestAuthority_AdminShortCircuit(t *testing.T) {
	// Ни одной политики — ADMIN все равно имеет полномочия
	a := NewAuthority(&staticPolicies{}, zap.NewNop())

	actor := domain.Actor{TenantID: "t1", UserID: "u1", Role: domain.RoleAdmin}
	ok, err := a.CanAct(context.Background(), actor, testDoc(nil), domain.ActionApproved)
	require.NoError(t, err)
	require.True(t, ok)
}

func TestAuthority_EmployeeNeverSatisfiesHODPolicy(t *testing.T) {
	deptD := strPtr("dept-d")
	a := NewAuthority(&staticPolicies{policies: []domain.ApprovalPolicy{hodPolicy(deptD)}}, zap.NewNop())

	// EMPLOYEE того же отдела — все равно отказ
	actor := domain.Actor{TenantID: "t1", UserID: "u1", Role: domain.RoleEmployee, DepartmentID: deptD}
	ok, err := a.CanAct(context.Background(), actor, testDoc(deptD), domain.ActionApproved)
	require.NoError(t, err)
	require.False(t, ok)
}

func TestAuthority_EmployeeForeignDepartmentDenied(t *testing.T) {
	deptD := strPtr("dept-d")
	a := NewAuthority(&staticPolicies{policies: []domain.ApprovalPolicy{hodPolicy(deptD)}}, zap.NewNop())

	actor := domain.Actor{TenantID: "t1", UserID: "u1", Role: domain.RoleEmployee, DepartmentID: strPtr("dept-x")}
	ok, err := a.CanAct(context.Background(), actor, testDoc(deptD), domain.ActionApproved)
	require.NoError(t, err)
	require.False(t, ok)
}

func TestAuthority_HODPolicyMatch(t *testing.T) {
	deptD := strPtr("dept-d")
	a := NewAuthority(&staticPolicies{policies: []domain.ApprovalPolicy{hodPolicy(deptD)}}, zap.NewNop())

	actor := domain.Actor{TenantID: "t1", UserID: "u1", Role: domain.RoleHOD, DepartmentID: deptD}
	ok, err := a.CanAct(context.Background(), actor, testDoc(deptD), domain.ActionApproved)
	require.NoError(t, err)
	require.True(t, ok)
}

func TestAuthority_HODSameDepartmentCarveOut(t *testing.T) {
	// Политики для отдела документа нет вообще, но HOD своего отдела
	// согласовывать может (документы старше своей политики)
	deptD := strPtr("dept-d")
	a := NewAuthority(&staticPolicies{}, zap.NewNop())

	actor := domain.Actor{TenantID: "t1", UserID: "u1", Role: domain.RoleHOD, DepartmentID: deptD}
	ok, err := a.CanAct(context.Background(), actor, testDoc(deptD), domain.ActionApproved)
	require.NoError(t, err)
	require.True(t, ok)
}

func TestAuthority_ReadCarveOuts(t *testing.T) {
	deptD := strPtr("dept-d")
	a := NewAuthority(&staticPolicies{}, zap.NewNop())
	doc := testDoc(deptD)

	// Чтение не гейтится политиками для HOD своего отдела
	hod := domain.Actor{TenantID: "t1", UserID: "u1", Role: domain.RoleHOD, DepartmentID: deptD}
	ok, err := a.CanAct(context.Background(), hod, doc, domain.ActionRead)
	require.NoError(t, err)
	require.True(t, ok)

	// Создатель всегда видит свой документ
	creator := domain.Actor{TenantID: "t1", UserID: "creator-1", Role: domain.RoleEmployee}
	ok, err = a.CanAct(context.Background(), creator, doc, domain.ActionRead)
	require.NoError(t, err)
	require.True(t, ok)

	// Посторонний сотрудник — нет
	stranger := domain.Actor{TenantID: "t1", UserID: "u9", Role: domain.RoleEmployee, DepartmentID: strPtr("dept-x")}
	ok, err = a.CanAct(context.Background(), stranger, doc, domain.ActionRead)
	require.NoError(t, err)
	require.False(t, ok)
}

func TestAuthority_EligibleAtLevel(t *testing.T) {
	a := NewAuthority(&staticPolicies{}, zap.NewNop())

	adminStep := domain.ApprovalStep{Level: 1, Role: domain.RoleAdmin}
	hodStep := domain.ApprovalStep{Level: 2, Role: domain.RoleHOD}

	hod := domain.Actor{TenantID: "t1", Role: domain.RoleHOD}
	admin := domain.Actor{TenantID: "t1", Role: domain.RoleAdmin}

	require.False(t, a.EligibleAtLevel(hod, adminStep), "HOD не закрывает ADMIN-шаг")
	require.True(t, a.EligibleAtLevel(hod, hodStep))
	require.True(t, a.EligibleAtLevel(admin, adminStep))
	require.True(t, a.EligibleAtLevel(admin, hodStep), "ADMIN годен на любой уровень")
}

func TestAuthority_CanSubmit(t *testing.T) {
	deptD := strPtr("dept-d")
	a := NewAuthority(&staticPolicies{}, zap.NewNop())
	doc := testDoc(deptD)

	require.True(t, a.CanSubmit(domain.Actor{TenantID: "t1", UserID: "creator-1", Role: domain.RoleEmployee}, doc))
	require.True(t, a.CanSubmit(domain.Actor{TenantID: "t1", UserID: "u2", Role: domain.RoleHOD, DepartmentID: deptD}, doc))
	require.True(t, a.CanSubmit(domain.Actor{TenantID: "t1", UserID: "u3", Role: domain.RoleAdmin}, doc))
	require.False(t, a.CanSubmit(domain.Actor{TenantID: "t1", UserID: "u4", Role: domain.RoleEmployee}, doc))
	require.False(t, a.CanSubmit(domain.Actor{TenantID: "t2", UserID: "creator-1", Role: domain.RoleAdmin}, doc))
}
