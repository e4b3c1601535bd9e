package notify

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/xela07ax/erp-approval-engine/internal/domain"
	"go.uber.org/zap"
)

// captureSender копит доставленные уведомления; опционально притормаживает
// и сбоит для проверки drain и устойчивости воркера.
type captureSender struct {
	mu    sync.Mutex
	sent  []Notification
	delay time.Duration
	fail  map[string]bool // ID уведомлений, на которых Send падает
}

func (c *captureSender) Send(_ context.Context, n Notification) error {
	if c.delay > 0 {
		time.Sleep(c.delay)
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.fail[n.ID] {
		return errors.New("sender down")
	}
	c.sent = append(c.sent, n)
	return nil
}

func (c *captureSender) count() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.sent)
}

func note(id string) Notification {
	return Notification{
		ID:           id,
		Kind:         KindDecision,
		TenantID:     "t1",
		DocumentType: domain.DocInvoice,
		DocumentID:   "d1",
	}
}

func TestDispatcher_Delivers(t *testing.T) {
	sender := &captureSender{}
	d := NewDispatcher(sender, zap.NewNop(), 16, nil, nil)
	d.Start()

	d.Notify(note("n1"))
	d.Notify(note("n2"))
	d.Stop()

	require.Equal(t, 2, sender.count())
}

func TestDispatcher_StopDrainsBuffer(t *testing.T) {
	// Медленный sender: к моменту Stop часть буфера еще не вычитана,
	// но drain обязан дослать всё
	sender := &captureSender{delay: 5 * time.Millisecond}
	d := NewDispatcher(sender, zap.NewNop(), 64, nil, nil)
	d.Start()

	for i := 0; i < 20; i++ {
		d.Notify(note("n"))
	}
	d.Stop()

	require.Equal(t, 20, sender.count())
}

func TestDispatcher_NotifyAfterStop(t *testing.T) {
	sender := &captureSender{}
	d := NewDispatcher(sender, zap.NewNop(), 16, nil, nil)
	d.Start()
	d.Stop()

	// Не паникует и не доставляет: канал уже закрыт, событие сброшено
	require.NotPanics(t, func() {
		d.Notify(note("late"))
	})
	require.Equal(t, 0, sender.count())
}

func TestDispatcher_SenderFailureDoesNotStopWorker(t *testing.T) {
	sender := &captureSender{fail: map[string]bool{"bad": true}}
	d := NewDispatcher(sender, zap.NewNop(), 16, nil, nil)
	d.Start()

	d.Notify(note("bad"))
	d.Notify(note("good"))
	d.Stop()

	require.Equal(t, 1, sender.count())
	require.Equal(t, "good", sender.sent[0].ID)
}
