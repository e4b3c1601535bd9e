package domain

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Actor — security-контекст вызывающего. Поставляется слоем аутентификации
// на каждый вызов; движок его не кэширует за пределами запроса.
type Actor struct {
	TenantID     string  `json:"tenant_id"`
	UserID       string  `json:"user_id"`
	Role         Role    `json:"role"`
	DepartmentID *string `json:"department_id,omitempty"`
}

// SameDepartment проверяет совпадение отдела актора с данным.
func (a Actor) SameDepartment(department *string) bool {
	if a.DepartmentID == nil || department == nil {
		return false
	}
	return *a.DepartmentID == *department
}

// ActorClaims — полезная нагрузка RS256-токена, из которой собирается Actor.
type ActorClaims struct {
	TenantID     string  `json:"tenant_id"`
	Role         Role    `json:"role"`
	DepartmentID *string `json:"department_id,omitempty"`
	jwt.RegisteredClaims
}

// Actor конвертирует claims в security-контекст запроса.
func (c *ActorClaims) Actor() Actor {
	return Actor{
		TenantID:     c.TenantID,
		UserID:       c.Subject,
		Role:         c.Role,
		DepartmentID: c.DepartmentID,
	}
}

// Secure Token Issuing
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type TokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"` // Всегда "Bearer"
	ExpiresIn   int64  `json:"expires_in"`
}

// User — запись справочника пользователей (user directory).
// Резолвер согласующих читает отсюда роли/отделы/активность.
type User struct {
	ID           string  `json:"id"`
	TenantID     string  `json:"tenant_id"`
	Email        string  `json:"email"`
	Username     string  `json:"username"`
	PasswordHash string  `json:"-"` // Никогда не отправляем на фронт
	Role         Role    `json:"role"`
	DepartmentID *string `json:"department_id,omitempty"`
	IsActive     bool    `json:"is_active"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
