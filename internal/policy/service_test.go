package policy

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/xela07ax/erp-approval-engine/internal/domain"
	"go.uber.org/zap"
)

type fakeAdminRepo struct {
	byTenant map[string][]domain.ApprovalPolicy
	upserts  int
}

func (f *fakeAdminRepo) UpsertPolicy(_ context.Context, _ *domain.ApprovalPolicy) error {
	f.upserts++
	return nil
}

func (f *fakeAdminRepo) GetPolicyByID(_ context.Context, _ string) (*domain.ApprovalPolicy, error) {
	return nil, nil
}

func (f *fakeAdminRepo) PoliciesByTenant(_ context.Context, tenantID string) ([]domain.ApprovalPolicy, error) {
	return f.byTenant[tenantID], nil
}

func TestService_Upsert_RequiresAdmin(t *testing.T) {
	repo := &fakeAdminRepo{}
	svc := NewService(repo, nil, zap.NewNop())

	for _, role := range []domain.Role{domain.RoleEmployee, domain.RoleHOD} {
		actor := domain.Actor{TenantID: "t1", UserID: "u1", Role: role}
		_, err := svc.Upsert(context.Background(), actor, &domain.ApprovalPolicy{
			Feature: domain.DocInvoice, LimitAmount: 100_000,
			RequiredRoles: []domain.Role{domain.RoleHOD}, IsActive: true,
		})
		require.ErrorIs(t, err, domain.ErrAuthorizationDenied, "role %s", role)
	}
	require.Zero(t, repo.upserts, "до хранилища доходить не должно")
}

func TestService_Upsert_Validation(t *testing.T) {
	repo := &fakeAdminRepo{}
	svc := NewService(repo, nil, zap.NewNop())
	admin := domain.Actor{TenantID: "t1", UserID: "u1", Role: domain.RoleAdmin}

	// Активная политика без ролей невалидна
	_, err := svc.Upsert(context.Background(), admin, &domain.ApprovalPolicy{
		Feature: domain.DocInvoice, LimitAmount: 100_000, IsActive: true,
	})
	require.ErrorIs(t, err, domain.ErrInvalidRequest)

	// Отрицательный лимит невалиден
	_, err = svc.Upsert(context.Background(), admin, &domain.ApprovalPolicy{
		Feature: domain.DocInvoice, LimitAmount: -1,
		RequiredRoles: []domain.Role{domain.RoleHOD}, IsActive: true,
	})
	require.ErrorIs(t, err, domain.ErrInvalidRequest)
	require.Zero(t, repo.upserts)
}

func TestService_List(t *testing.T) {
	repo := &fakeAdminRepo{byTenant: map[string][]domain.ApprovalPolicy{
		"t1": {{ID: "p1", TenantID: "t1"}},
		"t2": {{ID: "p2", TenantID: "t2"}},
	}}
	svc := NewService(repo, nil, zap.NewNop())

	// Листинг всегда в границах арендатора актора
	got, err := svc.List(context.Background(), domain.Actor{TenantID: "t1", Role: domain.RoleAdmin})
	require.NoError(t, err)
	require.Len(t, got, 1)
	require.Equal(t, "p1", got[0].ID)

	_, err = svc.List(context.Background(), domain.Actor{TenantID: "t1", Role: domain.RoleHOD})
	require.ErrorIs(t, err, domain.ErrAuthorizationDenied)
}
