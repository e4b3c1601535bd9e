package handler

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/xela07ax/erp-approval-engine/internal/domain"
	"github.com/xela07ax/erp-approval-engine/internal/infra/auth"
	"github.com/xela07ax/erp-approval-engine/internal/workflow"
)

// WorkflowService описывает, что хендлеру нужно от движка.
type WorkflowService interface {
	Submit(ctx context.Context, actor domain.Actor, docType domain.DocumentType, docID string) (*domain.SubmitResult, error)
	Decide(ctx context.Context, actor domain.Actor, docType domain.DocumentType, docID string, decision domain.ApprovalDecision) (*domain.DecideResult, error)
	GetPendingApprovals(ctx context.Context, actor domain.Actor, filter workflow.PendingFilter) ([]domain.PendingApproval, error)
	GetHistory(ctx context.Context, actor domain.Actor, docType domain.DocumentType, docID string) ([]domain.ApprovalWorkflowRecord, error)
}

type ApprovalHandler struct {
	service WorkflowService
}

func NewApprovalHandler(s WorkflowService) *ApprovalHandler {
	return &ApprovalHandler{service: s}
}

// Submit — POST /v1/approvals/{docType}/{id}/submit
func (h *ApprovalHandler) Submit(w http.ResponseWriter, r *http.Request) {
	actor, ok := auth.ActorFromContext(r.Context())
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	docType := domain.DocumentType(chi.URLParam(r, "docType"))
	docID := chi.URLParam(r, "id")

	result, err := h.service.Submit(r.Context(), actor, docType, docID)
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, result)
}

// Decide — POST /v1/approvals/{docType}/{id}/decide
func (h *ApprovalHandler) Decide(w http.ResponseWriter, r *http.Request) {
	actor, ok := auth.ActorFromContext(r.Context())
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	docType := domain.DocumentType(chi.URLParam(r, "docType"))
	docID := chi.URLParam(r, "id")

	var decision domain.ApprovalDecision
	if err := json.NewDecoder(r.Body).Decode(&decision); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	result, err := h.service.Decide(r.Context(), actor, docType, docID, decision)
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, result)
}

// Pending — GET /v1/approvals/pending?document_type=INVOICE
func (h *ApprovalHandler) Pending(w http.ResponseWriter, r *http.Request) {
	actor, ok := auth.ActorFromContext(r.Context())
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	var filter workflow.PendingFilter
	if dt := r.URL.Query().Get("document_type"); dt != "" {
		t := domain.DocumentType(dt)
		filter.DocumentType = &t
	}

	items, err := h.service.GetPendingApprovals(r.Context(), actor, filter)
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, items)
}

// History — GET /v1/approvals/{docType}/{id}/history
func (h *ApprovalHandler) History(w http.ResponseWriter, r *http.Request) {
	actor, ok := auth.ActorFromContext(r.Context())
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	docType := domain.DocumentType(chi.URLParam(r, "docType"))
	docID := chi.URLParam(r, "id")

	records, err := h.service.GetHistory(r.Context(), actor, docType, docID)
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, records)
}
