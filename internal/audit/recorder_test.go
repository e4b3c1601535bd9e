package audit

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/xela07ax/erp-approval-engine/internal/domain"
	"go.uber.org/zap"
)

type captureTx struct {
	appended []*domain.ApprovalWorkflowRecord
}

func (c *captureTx) Document(_ context.Context, _ domain.DocumentType, _ string) (*domain.Document, error) {
	return nil, nil
}

func (c *captureTx) AppendRecord(_ context.Context, rec *domain.ApprovalWorkflowRecord) error {
	c.appended = append(c.appended, rec)
	return nil
}

func (c *captureTx) CountApproved(_ context.Context, _ domain.DocumentType, _ string) (int, error) {
	return len(c.appended), nil
}

func (c *captureTx) SetDocumentStatus(_ context.Context, _ domain.DocumentType, _ string, _ domain.DocumentStatus) error {
	return nil
}

func sampleDoc() *domain.Document {
	return &domain.Document{
		ID:         "d1",
		TenantID:   "t1",
		Type:       domain.DocPayment,
		DocumentNo: "PAY-001",
		Amount:     75_000,
		Status:     domain.StatusPending,
		CreatedBy:  "emp-1",
	}
}

func TestNewRecord(t *testing.T) {
	approved := 70_000.0
	rec := NewRecord(sampleDoc(), "hod-1", domain.ActionApproved, "partial", &approved, 2)

	// Запись собирается полной до попадания в транзакцию
	require.NotEmpty(t, rec.ID)
	require.False(t, rec.CreatedAt.IsZero())
	require.Equal(t, "t1", rec.TenantID)
	require.Equal(t, domain.DocPayment, rec.DocumentType)
	require.Equal(t, "d1", rec.DocumentID)
	require.Equal(t, "PAY-001", rec.DocumentNo)
	require.Equal(t, "hod-1", rec.ApproverID)
	require.Equal(t, 75_000.0, rec.RequestedAmount)
	require.Equal(t, 70_000.0, *rec.ApprovedAmount)
	require.Equal(t, 2, rec.Level)
}

func TestRecorder_Append_RejectsNonDecision(t *testing.T) {
	tx := &captureTx{}
	r := NewRecorder(nil, zap.NewNop())

	// READ — вид доступа, в журнал не пишется
	rec := NewRecord(sampleDoc(), "hod-1", domain.ActionRead, "", nil, 1)
	err := r.Append(context.Background(), tx, rec)
	require.ErrorIs(t, err, domain.ErrInvalidRequest)
	require.Empty(t, tx.appended)

	rec = NewRecord(sampleDoc(), "hod-1", domain.ActionRejected, "no", nil, 1)
	require.NoError(t, r.Append(context.Background(), tx, rec))
	require.Len(t, tx.appended, 1)
}
