package policy

import (
	"context"
	"sort"
	"sync"

	"github.com/redis/go-redis/v9"
	"github.com/xela07ax/erp-approval-engine/internal/domain"
	"github.com/xela07ax/erp-approval-engine/internal/infra"
	"go.uber.org/zap"
)

// Repository описывает требования кэша к хранилищу политик.
type Repository interface {
	PoliciesByTenant(ctx context.Context, tenantID string) ([]domain.ApprovalPolicy, error)
	GetAllPolicies(ctx context.Context) ([]domain.ApprovalPolicy, error)
}

// MemoStore — потокобезопасный in-memory кэш политик. Источник правды —
// PostgreSQL, но hot path (каждый Submit/Decide пересчитывает применимые
// политики заново) ходит только в память. Инвалидация — сигнал в Redis
// Pub/Sub от админского Upsert, по нему кэш перечитывает снапшот целиком.
type MemoStore struct {
	mu sync.RWMutex
	// Снапшот политик по арендатору
	tenants map[string][]domain.ApprovalPolicy

	repo   Repository
	rdb    *redis.Client
	logger *zap.Logger
}

func NewMemoStore(repo Repository, rdb *redis.Client, logger *zap.Logger) *MemoStore {
	return &MemoStore{
		tenants: make(map[string][]domain.ApprovalPolicy),
		repo:    repo,
		rdb:     rdb,
		logger:  logger.Named("policy-cache"),
	}
}

// ApplicablePolicies возвращает упорядоченный набор применимых политик:
// активные, с limit <= amount, tenant-wide либо совпадающие по отделу.
// Порядок: лимит по убыванию, при равенстве — ID политики по возрастанию.
// Пустой результат значим: документ проходит без единого шага согласования.
func (m *MemoStore) ApplicablePolicies(ctx context.Context, tenantID string, feature domain.DocumentType, amount float64, department *string) ([]domain.ApprovalPolicy, error) {
	snapshot, err := m.tenantSnapshot(ctx, tenantID)
	if err != nil {
		return nil, err
	}

	matched := make([]domain.ApprovalPolicy, 0)
	for _, p := range snapshot {
		if p.Matches(feature, amount, department) {
			matched = append(matched, p)
		}
	}

	sort.SliceStable(matched, func(i, j int) bool {
		if matched[i].LimitAmount != matched[j].LimitAmount {
			return matched[i].LimitAmount > matched[j].LimitAmount
		}
		return matched[i].ID < matched[j].ID
	})
	return matched, nil
}

// tenantSnapshot отдает политику арендатора из памяти; при первом обращении
// лениво поднимает снапшот из БД, чтобы пустой кэш не превратился в
// «политик нет — всё согласовано автоматически».
func (m *MemoStore) tenantSnapshot(ctx context.Context, tenantID string) ([]domain.ApprovalPolicy, error) {
	m.mu.RLock()
	snapshot, ok := m.tenants[tenantID]
	m.mu.RUnlock()
	if ok {
		return snapshot, nil
	}

	loaded, err := m.repo.PoliciesByTenant(ctx, tenantID)
	if err != nil {
		return nil, err
	}

	m.mu.Lock()
	m.tenants[tenantID] = loaded
	m.mu.Unlock()
	return loaded, nil
}

// Refresh выполняет «холодную загрузку» всех политик из PostgreSQL в память.
func (m *MemoStore) Refresh(ctx context.Context) error {
	all, err := m.repo.GetAllPolicies(ctx)
	if err != nil {
		return err
	}

	fresh := make(map[string][]domain.ApprovalPolicy)
	for _, p := range all {
		fresh[p.TenantID] = append(fresh[p.TenantID], p)
	}

	m.mu.Lock()
	m.tenants = fresh
	m.mu.Unlock()

	m.logger.Info("policy cache refreshed",
		zap.Int("tenants", len(fresh)),
		zap.Int("policies", len(all)),
	)
	return nil
}

// StartListener подписывается на сигнал обновления политик и перечитывает
// кэш. Канал должен совпадать с тем, что публикует админский сервис.
func (m *MemoStore) StartListener(ctx context.Context) {
	pubsub := m.rdb.Subscribe(ctx, infra.RedisChanPolicyUpdate)
	defer pubsub.Close()

	ch := pubsub.Channel()
	m.logger.Info("policy update listener started")

	for {
		select {
		case _, ok := <-ch:
			if !ok {
				m.logger.Warn("policy update channel closed")
				return
			}
			if err := m.Refresh(ctx); err != nil {
				m.logger.Error("policy cache refresh failed", zap.Error(err))
			}
		case <-ctx.Done():
			m.logger.Info("policy update listener stopping by context...")
			return
		}
	}
}
