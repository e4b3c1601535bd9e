package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/avast/retry-go/v5"
	"github.com/redis/go-redis/v9"
	"github.com/sony/gobreaker"
	"github.com/xela07ax/erp-approval-engine/internal/infra"
	"golang.org/x/time/rate"
)

// RedisSender публикует уведомления в Pub/Sub каналы: решения — в общий
// канал трансляции, ConfigurationGap — в канал ops-предупреждений.
type RedisSender struct {
	rdb *redis.Client
}

func NewRedisSender(rdb *redis.Client) *RedisSender {
	return &RedisSender{rdb: rdb}
}

func (s *RedisSender) Send(ctx context.Context, n Notification) error {
	payload, err := json.Marshal(n)
	if err != nil {
		return fmt.Errorf("notify: marshal failed: %w", err)
	}

	channel := infra.RedisChanDecisions
	if n.Kind == KindConfigurationGap {
		channel = infra.RedisChanOpsAlerts
	}
	if err := s.rdb.Publish(ctx, channel, payload).Err(); err != nil {
		return fmt.Errorf("notify: redis publish failed: %w", err)
	}

	// Дублируем в точечный канал документа: подписчики, следящие за одним
	// документом, не фильтруют общий поток
	if n.Kind != KindConfigurationGap {
		docChannel := infra.GetDocumentChannel(string(n.DocumentType), n.DocumentID)
		if err := s.rdb.Publish(ctx, docChannel, payload).Err(); err != nil {
			return fmt.Errorf("notify: redis publish failed: %w", err)
		}
	}
	return nil
}

// WebhookSender доставляет уведомления во внешний HTTP-эндпоинт
// (почтовый шлюз, мессенджер-бот). Внешняя сеть — значит обязательная
// обвязка надежности: rate limiter, ретраи с бэкоффом и Circuit Breaker.
type WebhookSender struct {
	url     string
	client  *http.Client
	cb      *gobreaker.CircuitBreaker
	limiter *rate.Limiter
}

func NewWebhookSender(cfg infra.NotifyConfig) *WebhookSender {
	cb := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "notify-webhook",
		MaxRequests: cfg.CBMaxRequests,
		Interval:    cfg.CBInterval,
		Timeout:     cfg.CBTimeout, // время, через которое CB попробует закрыться
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			// Более 5 ошибок подряд — открываемся и перестаем дергать шлюз
			return counts.ConsecutiveFailures > 5
		},
	})

	return &WebhookSender{
		url:     cfg.WebhookURL,
		client:  &http.Client{Timeout: cfg.RequestTimeout},
		cb:      cb,
		limiter: rate.NewLimiter(rate.Limit(cfg.RatePerSecond), cfg.RateBurst),
	}
}

func (s *WebhookSender) Send(ctx context.Context, n Notification) error {
	// 1. Rate Limiter
	if err := s.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("notify: rate limit exceeded: %w", err)
	}

	payload, err := json.Marshal(n)
	if err != nil {
		return fmt.Errorf("notify: marshal failed: %w", err)
	}

	// 2. Circuit Breaker поверх ретраев
	_, err = s.cb.Execute(func() (interface{}, error) {
		r := retry.New(
			retry.Context(ctx),
			retry.Attempts(3),
		)
		return nil, r.Do(func() error {
			return s.post(ctx, payload)
		})
	})
	return err
}

func (s *WebhookSender) post(ctx context.Context, payload []byte) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.url, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return fmt.Errorf("notify: webhook returned %d", resp.StatusCode)
	}
	return nil
}

// Fanout рассылает уведомление всем сконфигурированным транспортам.
// Ошибка одного транспорта не мешает остальным.
type Fanout struct {
	senders []Sender
}

func NewFanout(senders ...Sender) *Fanout {
	return &Fanout{senders: senders}
}

func (f *Fanout) Send(ctx context.Context, n Notification) error {
	var lastErr error
	for _, s := range f.senders {
		if err := s.Send(ctx, n); err != nil {
			lastErr = err
		}
	}
	return lastErr
}
