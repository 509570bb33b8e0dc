package service

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"refund-backend/internal/domains/refund/gateway"
	"refund-backend/internal/domains/refund/model"
	"refund-backend/internal/infrastructure/notify"
	"refund-backend/internal/shared"
	"refund-backend/pkg/database/databasetest"
)

func (f *fakeRefundRepo) GetByID(ctx context.Context, tenantID, id uuid.UUID) (*model.RefundRequest, error) {
	if f.refund == nil {
		return nil, model.ErrRefundNotFound
	}
	return f.refund, nil
}

func (f *fakeRefundRepo) MarkProcessing(ctx context.Context, id uuid.UUID) error {
	f.statusUpdates = append(f.statusUpdates, model.StatusProcessing)
	return nil
}

func TestProcess_ManualMethodIsOperatorSettled(t *testing.T) {
	tenantID := uuid.New()
	refunds := &fakeRefundRepo{refund: &model.RefundRequest{
		ID:       uuid.New(),
		TenantID: tenantID,
		Method:   model.MethodManual,
		Status:   model.StatusApproved,
		Amount:   50_000,
	}}

	svc := &processingService{
		pool:       &databasetest.Beginner{},
		refundRepo: refunds,
		registry:   gateway.NewRegistry(),
		dispatcher: notify.NopDispatcher{},
	}

	actor := shared.Actor{UserID: uuid.New(), Role: model.RoleFinanceManager}
	processed, err := svc.Process(context.Background(), tenantID, refunds.refund.ID, actor)
	require.Error(t, err)
	assert.Nil(t, processed)
	assert.True(t, errors.Is(err, model.ErrManualMethod))

	var refundErr *model.RefundError
	require.True(t, errors.As(err, &refundErr))
	assert.Equal(t, model.ErrCodeManualMethod, refundErr.Code)

	assert.Empty(t, refunds.statusUpdates, "a manual refund must stay approved until the operator settles it")
}
