package domain

import "time"

// ApprovalAction — действие, зафиксированное одной записью журнала.
type ApprovalAction string

const (
	ActionApproved  ApprovalAction = "APPROVED"
	ActionRejected  ApprovalAction = "REJECTED"
	ActionReturned  ApprovalAction = "RETURNED"
	ActionDelegated ApprovalAction = "DELEGATED"

	// ActionRead — не решение, а вид доступа для проверки полномочий
	// (чтение истории/очереди). В журнал не пишется.
	ActionRead ApprovalAction = "READ"
)

// IsDecision отличает решения (пишутся в журнал) от чтения.
func (a ApprovalAction) IsDecision() bool {
	switch a {
	case ActionApproved, ActionRejected, ActionReturned, ActionDelegated:
		return true
	}
	return false
}

// ApprovalWorkflowRecord — одна строка append-only журнала решений.
// Запись неизменяема: текущий уровень согласования документа всегда
// вычисляется как количество записей APPROVED, отдельного мутабельного
// счетчика нет — это убирает целый класс багов рассинхронизации.
type ApprovalWorkflowRecord struct {
	ID           string         `json:"id"`
	TenantID     string         `json:"tenant_id"`
	DocumentType DocumentType   `json:"document_type"`
	DocumentID   string         `json:"document_id"`
	DocumentNo   string         `json:"document_no"` // человекочитаемый номер
	ApproverID   string         `json:"approver_id"`
	Action       ApprovalAction `json:"action"`
	Comment      string         `json:"comment,omitempty"`

	RequestedAmount float64  `json:"requested_amount"`
	ApprovedAmount  *float64 `json:"approved_amount,omitempty"`

	Level     int       `json:"level"`
	CreatedAt time.Time `json:"created_at"`
}

// SubmitStatus — исход подачи документа на согласование.
type SubmitStatus string

const (
	SubmitAutoApproved SubmitStatus = "AUTO_APPROVED"
	SubmitPending      SubmitStatus = "PENDING_APPROVAL"
)

// DecideStatus — исход обработки решения согласующего.
type DecideStatus string

const (
	DecideFullyApproved DecideStatus = "FULLY_APPROVED"
	DecidePendingNext   DecideStatus = "PENDING_NEXT_APPROVAL"
	DecideRejected      DecideStatus = "REJECTED"
	DecideReturned      DecideStatus = "RETURNED"
	DecideDelegated     DecideStatus = "DELEGATED"
)

// ApprovalDecision — входные данные решения согласующего.
type ApprovalDecision struct {
	Action         ApprovalAction `json:"action"`
	Comment        string         `json:"comment,omitempty"`
	ApprovedAmount *float64       `json:"approved_amount,omitempty"` // override суммы
	DelegateTo     string         `json:"delegate_to,omitempty"`     // обязателен для DELEGATED
}

// SubmitResult — ответ операции Submit.
type SubmitResult struct {
	WorkflowID    string       `json:"workflow_id"`
	Status        SubmitStatus `json:"status"`
	NextApprovers []string     `json:"next_approvers"`
}

// DecideResult — ответ операции Decide.
type DecideResult struct {
	Status        DecideStatus    `json:"status"`
	NextApprovers []string        `json:"next_approvers,omitempty"`
	FinalDecision *ApprovalAction `json:"final_decision,omitempty"`
}

// PendingApproval — обогащенный элемент очереди «ждут моего решения».
type PendingApproval struct {
	Document     Document `json:"document"`
	CurrentLevel int      `json:"current_level"` // уровень, который предстоит закрыть
	TotalSteps   int      `json:"total_steps"`
	RequiredRole Role     `json:"required_role"`
}
