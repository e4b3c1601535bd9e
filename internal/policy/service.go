package policy

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/xela07ax/erp-approval-engine/internal/domain"
	"github.com/xela07ax/erp-approval-engine/internal/infra"
	"go.uber.org/zap"
)

// AdminRepository — требования админского сервиса к хранилищу политик.
type AdminRepository interface {
	UpsertPolicy(ctx context.Context, p *domain.ApprovalPolicy) error
	GetPolicyByID(ctx context.Context, id string) (*domain.ApprovalPolicy, error)
	PoliciesByTenant(ctx context.Context, tenantID string) ([]domain.ApprovalPolicy, error)
}

// Service — админская поверхность управления политиками.
// Любое изменение рассылает сигнал инвалидации: каждый инстанс движка
// перечитает свой MemoStore.
type Service struct {
	repo   AdminRepository
	rdb    *redis.Client
	logger *zap.Logger
}

func NewService(repo AdminRepository, rdb *redis.Client, logger *zap.Logger) *Service {
	return &Service{
		repo:   repo,
		rdb:    rdb,
		logger: logger.Named("policy-admin"),
	}
}

// Upsert сохраняет политику. Доступно только ADMIN — нарушение фатально
// для вызова (AuthorizationDenied), а не предупреждение.
func (s *Service) Upsert(ctx context.Context, actor domain.Actor, p *domain.ApprovalPolicy) (*domain.ApprovalPolicy, error) {
	if actor.Role != domain.RoleAdmin {
		return nil, fmt.Errorf("policy upsert requires ADMIN: %w", domain.ErrAuthorizationDenied)
	}

	// Политика всегда живет в границах арендатора актора
	p.TenantID = actor.TenantID
	if p.ID == "" {
		p.ID = uuid.New().String()
	}
	if err := p.Validate(); err != nil {
		return nil, fmt.Errorf("policy validation failed: %w", err)
	}

	if err := s.repo.UpsertPolicy(ctx, p); err != nil {
		return nil, err
	}
	s.logger.Info("policy upserted",
		zap.String("policy_id", p.ID),
		zap.String("tenant_id", p.TenantID),
		zap.String("feature", string(p.Feature)),
		zap.Float64("limit_amount", p.LimitAmount),
	)

	if err := s.notifyUpdate(ctx); err != nil {
		// Кэш догонит на следующем сигнале или рестарте, решение не откатываем
		s.logger.Warn("policy update signal failed", zap.Error(err))
	}

	stored, err := s.repo.GetPolicyByID(ctx, p.ID)
	if err != nil {
		return nil, err
	}
	if stored == nil {
		return p, nil
	}
	return stored, nil
}

// List возвращает все политики арендатора актора (для админки).
func (s *Service) List(ctx context.Context, actor domain.Actor) ([]domain.ApprovalPolicy, error) {
	if actor.Role != domain.RoleAdmin {
		return nil, fmt.Errorf("policy listing requires ADMIN: %w", domain.ErrAuthorizationDenied)
	}
	return s.repo.PoliciesByTenant(ctx, actor.TenantID)
}

// notifyUpdate отправляет широковещательный сигнал в Redis.
// Сигнал простой ("refresh") — подписчики сами перечитают таблицу.
func (s *Service) notifyUpdate(ctx context.Context) error {
	return s.rdb.Publish(ctx, infra.RedisChanPolicyUpdate, "refresh").Err()
}
