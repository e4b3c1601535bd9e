package handler

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/xela07ax/erp-approval-engine/internal/domain"
	"github.com/xela07ax/erp-approval-engine/internal/infra/auth"
)

// PolicyService — админская поверхность управления политиками.
type PolicyService interface {
	Upsert(ctx context.Context, actor domain.Actor, p *domain.ApprovalPolicy) (*domain.ApprovalPolicy, error)
	List(ctx context.Context, actor domain.Actor) ([]domain.ApprovalPolicy, error)
}

type PolicyHandler struct {
	service PolicyService
}

func NewPolicyHandler(s PolicyService) *PolicyHandler {
	return &PolicyHandler{service: s}
}

// List возвращает все политики арендатора (только ADMIN).
// GET /v1/policies
func (h *PolicyHandler) List(w http.ResponseWriter, r *http.Request) {
	actor, ok := auth.ActorFromContext(r.Context())
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	policies, err := h.service.List(r.Context(), actor)
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, policies)
}

// Upsert создает или обновляет политику (только ADMIN).
// PUT /v1/policies
func (h *PolicyHandler) Upsert(w http.ResponseWriter, r *http.Request) {
	actor, ok := auth.ActorFromContext(r.Context())
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	var p domain.ApprovalPolicy
	if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	stored, err := h.service.Upsert(r.Context(), actor, &p)
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, stored)
}
