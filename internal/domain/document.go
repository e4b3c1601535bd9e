package domain

import "time"

// DocumentStatus — жизненный цикл документа, видимый снаружи.
// Движок согласования — единственный писатель переходов между статусами;
// остальные поля документа для него read-only.
type DocumentStatus string

const (
	StatusDraft    DocumentStatus = "DRAFT"
	StatusPending  DocumentStatus = "PENDING_APPROVAL"
	StatusApproved DocumentStatus = "APPROVED"
	StatusRejected DocumentStatus = "REJECTED"
	StatusReturned DocumentStatus = "RETURNED"
)

// Document — проекция финансового документа, принадлежащего внешнему
// коллаборатору (requisition, purchase order, invoice, payment).
type Document struct {
	ID           string         `json:"id"`
	TenantID     string         `json:"tenant_id"`
	Type         DocumentType   `json:"document_type"`
	DocumentNo   string         `json:"document_no"`
	Amount       float64        `json:"amount"`
	DepartmentID *string        `json:"department_id,omitempty"`
	Status       DocumentStatus `json:"status"`
	CreatedBy    string         `json:"created_by"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Submittable сообщает, можно ли подать документ на согласование.
// RETURNED — терминал конкретного прогона workflow, но бизнес-документ
// может зайти на новый круг через Submit.
func (d *Document) Submittable() bool {
	return d.Status == StatusDraft || d.Status == StatusReturned
}

// Finalized — из этих статусов переходов не определено.
func (d *Document) Finalized() bool {
	switch d.Status {
	case StatusApproved, StatusRejected, StatusReturned:
		return true
	}
	return false
}
