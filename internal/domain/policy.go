package domain

import (
	"time"
)

// Role — плоское перечисление ролей арендатора.
// Иерархия не кодируется наследованием: ADMIN обрабатывается
// явным short-circuit в валидаторе полномочий.
type Role string

const (
	RoleAdmin    Role = "ADMIN"
	RoleHOD      Role = "HOD" // Head of Department
	RoleEmployee Role = "EMPLOYEE"
)

// DocumentType метка финансового документа (feature в терминах политики)
type DocumentType string

const (
	DocRequisition   DocumentType = "REQUISITION"
	DocPurchaseOrder DocumentType = "PURCHASE_ORDER"
	DocInvoice       DocumentType = "INVOICE"
	DocPayment       DocumentType = "PAYMENT"
)

// ApprovalPolicy — правило маршрутизации согласования.
// Политика «срабатывает», когда сумма документа достигает LimitAmount
// (сопоставление amount >= limit). DepartmentID == nil означает правило
// уровня всего арендатора.
type ApprovalPolicy struct {
	ID           string       `json:"id"`
	TenantID     string       `json:"tenant_id"`
	DepartmentID *string      `json:"department_id,omitempty"` // nil = tenant-wide
	Feature      DocumentType `json:"feature"`
	LimitAmount  float64      `json:"limit_amount"`
	// RequiredRoles — «любая из этих ролей» закрывает шаг.
	// Планировщик берет первую роль, раскрытие набора — дело резолвера.
	RequiredRoles []Role `json:"required_roles"`
	IsActive      bool   `json:"is_active"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Validate проверяет инварианты политики перед сохранением.
func (p *ApprovalPolicy) Validate() error {
	if p.TenantID == "" || p.Feature == "" {
		return ErrInvalidRequest
	}
	if p.LimitAmount < 0 {
		return ErrInvalidRequest
	}
	if p.IsActive && len(p.RequiredRoles) == 0 {
		return ErrInvalidRequest
	}
	return nil
}

// Matches сообщает, применима ли политика к документу с данными атрибутами.
// Сопоставление по сумме — пороговое: правило включается, когда сумма
// документа перешагнула лимит.
func (p *ApprovalPolicy) Matches(feature DocumentType, amount float64, department *string) bool {
	if !p.IsActive || p.Feature != feature {
		return false
	}
	if p.LimitAmount > amount {
		return false
	}
	// nil — правило действует на весь арендатор
	if p.DepartmentID == nil {
		return true
	}
	return department != nil && *p.DepartmentID == *department
}

// HasRole проверяет вхождение роли в набор требуемых.
func (p *ApprovalPolicy) HasRole(role Role) bool {
	for _, r := range p.RequiredRoles {
		if r == role {
			return true
		}
	}
	return false
}

// ApprovalStep — производный (не персистентный) артефакт планирования.
// Уровень 1 — шаг с самым высоким порогом: первым подписывает тот,
// чьих полномочий хватает на наибольший из перейденных лимитов.
type ApprovalStep struct {
	Level       int     `json:"level"`
	Role        Role    `json:"role"`
	LimitAmount float64 `json:"limit_amount"`
}
