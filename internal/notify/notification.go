package notify

import (
	"time"

	"github.com/xela07ax/erp-approval-engine/internal/domain"
)

// Kind — тип уведомления.
type Kind string

const (
	// KindApprovalRequested — документ ждет решения получателей.
	KindApprovalRequested Kind = "APPROVAL_REQUESTED"
	// KindDelegated — текущий шаг переназначен на делегата.
	KindDelegated Kind = "DELEGATED"
	// KindDecision — по документу принято решение (терминальное или очередной уровень).
	KindDecision Kind = "DECISION"
	// KindConfigurationGap — ops-предупреждение: на шаге нет ни одного
	// активного согласующего. Workflow при этом не падает, шаг остается
	// открытым до появления пользователя с нужной ролью.
	KindConfigurationGap Kind = "CONFIGURATION_GAP"
)

// Notification — единица работы диспетчера. Движок никогда не ждет
// результата доставки: аудит и переход статуса важнее уведомления.
type Notification struct {
	ID           string              `json:"id"`
	Kind         Kind                `json:"kind"`
	TenantID     string              `json:"tenant_id"`
	DocumentType domain.DocumentType `json:"document_type"`
	DocumentID   string              `json:"document_id"`
	DocumentNo   string              `json:"document_no"`
	Recipients   []string            `json:"recipients"`
	Level        int                 `json:"level,omitempty"`
	Message      string              `json:"message,omitempty"`
	Timestamp    time.Time           `json:"timestamp"`
}
