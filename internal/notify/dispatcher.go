package notify

/*
Файл dispatcher.go реализует fire-and-forget диспетчер уведомлений.

Ключевые особенности архитектуры:
- Non-blocking: движок кладет уведомление в буферизованный канал и сразу
  возвращается. Задержки и сбои доставки не влияют на фиксацию решения —
  долговечность журнала приоритетнее уведомления.
- Load Shedding: при переполненном буфере событие не блокирует Hot Path,
  а сбрасывается с ошибкой в логе.
- Drain Pattern & Graceful Shutdown: при остановке сервиса воркер вычитывает
  остатки канала до конца. Завершение горутины происходит исключительно
  через закрытие входного канала.
*/

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
)

// Sender определяет, куда физически уходят уведомления.
type Sender interface {
	Send(ctx context.Context, n Notification) error
}

// Notifier — контракт для движка workflow.
type Notifier interface {
	Notify(n Notification)
}

type Dispatcher struct {
	ch     chan Notification
	sender Sender
	logger *zap.Logger
	wg     sync.WaitGroup

	// Защита на случай, если кто-то вызовет Notify после остановки
	isClosed int32 // атомарный флаг (0 - открыт, 1 - закрыт)

	// Метрики опциональны (Null Object — nil просто не трогаем)
	bufferFill prometheus.Gauge
	failures   prometheus.Counter
}

func NewDispatcher(sender Sender, logger *zap.Logger, bufferSize int, bufferFill prometheus.Gauge, failures prometheus.Counter) *Dispatcher {
	if bufferSize <= 0 {
		bufferSize = 10000
	}
	return &Dispatcher{
		ch:         make(chan Notification, bufferSize),
		sender:     sender,
		logger:     logger.Named("notify"),
		bufferFill: bufferFill,
		failures:   failures,
	}
}

func (d *Dispatcher) Start() {
	d.wg.Add(1)
	go d.worker()
}

// Stop «запирает» вход в канал и ждет, пока воркер всё доставит.
func (d *Dispatcher) Stop() {
	// 1. Сначала ставим флаг
	atomic.StoreInt32(&d.isClosed, 1)

	// 2. Даем крошечную паузу, чтобы текущие Notify успели проскочить
	time.Sleep(10 * time.Millisecond)

	// 3. Закрываем канал (Drain Pattern): воркер вычитает остатки и выйдет
	d.logger.Info("stopping dispatcher: closing channel and draining buffer...")
	close(d.ch)
	d.wg.Wait()
	d.logger.Info("dispatcher stopped gracefully")
}

// Notify ставит уведомление в очередь доставки. Никогда не блокирует
// и никогда не возвращает ошибку вызывающему.
func (d *Dispatcher) Notify(n Notification) {
	if n.Timestamp.IsZero() {
		n.Timestamp = time.Now()
	}

	// Атомарно проверяем, не остановлен ли диспетчер
	if atomic.LoadInt32(&d.isClosed) == 1 {
		d.logger.Warn("notification dropped: dispatcher is stopping",
			zap.String("kind", string(n.Kind)),
			zap.String("document_id", n.DocumentID),
		)
		return
	}

	select {
	case d.ch <- n:
		if d.bufferFill != nil {
			d.bufferFill.Set(float64(len(d.ch)))
		}
	default:
		// Буфер переполнен (Backpressure) — сбрасываем, но оставляем след
		d.logger.Error("notify_buffer_overflow",
			zap.String("kind", string(n.Kind)),
			zap.String("tenant_id", n.TenantID),
			zap.String("document_id", n.DocumentID),
		)
		if d.failures != nil {
			d.failures.Inc()
		}
	}
}

func (d *Dispatcher) worker() {
	defer d.wg.Done()

	for n := range d.ch {
		if d.bufferFill != nil {
			d.bufferFill.Set(float64(len(d.ch)))
		}

		// Используем Background: основной контекст запроса давно завершен,
		// а при остановке сервиса надо дослать хвост буфера
		if err := d.sender.Send(context.Background(), n); err != nil {
			// Сбой доставки глотаем: уведомление не должно блокировать
			// и тем более откатывать зафиксированное решение
			d.logger.Error("notification delivery failed",
				zap.String("kind", string(n.Kind)),
				zap.String("document_id", n.DocumentID),
				zap.Error(err),
			)
			if d.failures != nil {
				d.failures.Inc()
			}
		}
	}
	d.logger.Info("notify worker finished")
}
