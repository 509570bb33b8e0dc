package service

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"refund-backend/internal/domains/dispute/model"
	repo "refund-backend/internal/domains/dispute/repository"
	refundModel "refund-backend/internal/domains/refund/model"
	refundRepo "refund-backend/internal/domains/refund/repository"
	"refund-backend/internal/infrastructure/notify"
	"refund-backend/internal/shared"
	"refund-backend/pkg/database/databasetest"
)

// Fakes embed the repository interfaces so only the methods exercised by
// Create need implementations.

type fakeDisputeRepo struct {
	repo.DisputeRepoInterface

	hasActive bool
	created   *model.Dispute
}

func (f *fakeDisputeRepo) HasActiveForRefundWithTx(ctx context.Context, tx pgx.Tx, refundID uuid.UUID) (bool, error) {
	return f.hasActive, nil
}

func (f *fakeDisputeRepo) CreateWithTx(ctx context.Context, tx pgx.Tx, dispute *model.Dispute) error {
	f.created = dispute
	return nil
}

type fakeRefundRepo struct {
	refundRepo.RefundRepoInterface

	refund   *refundModel.RefundRequest
	disputed *bool
}

func (f *fakeRefundRepo) GetByIDForUpdate(ctx context.Context, tx pgx.Tx, tenantID, id uuid.UUID) (*refundModel.RefundRequest, error) {
	if f.refund == nil {
		return nil, refundModel.ErrRefundNotFound
	}
	return f.refund, nil
}

func (f *fakeRefundRepo) SetDisputedWithTx(ctx context.Context, tx pgx.Tx, id uuid.UUID, disputed bool) error {
	f.disputed = &disputed
	return nil
}

type createDisputeFixture struct {
	tenantID uuid.UUID
	refundID uuid.UUID
	actor    shared.Actor
	disputes *fakeDisputeRepo
	refunds  *fakeRefundRepo
	service  *disputeService
	req      model.CreateDisputeRequest
}

func newCreateDisputeFixture(refundStatus string, hasActive bool) *createDisputeFixture {
	tenantID := uuid.New()
	refundID := uuid.New()

	disputes := &fakeDisputeRepo{hasActive: hasActive}
	refunds := &fakeRefundRepo{refund: &refundModel.RefundRequest{
		ID:       refundID,
		TenantID: tenantID,
		Status:   refundStatus,
	}}

	return &createDisputeFixture{
		tenantID: tenantID,
		refundID: refundID,
		actor:    shared.Actor{UserID: uuid.New(), Role: refundModel.RoleCustomerService},
		disputes: disputes,
		refunds:  refunds,
		service: &disputeService{
			pool:        &databasetest.Beginner{},
			disputeRepo: disputes,
			refundRepo:  refunds,
			dispatcher:  notify.NopDispatcher{},
		},
		req: model.CreateDisputeRequest{
			RefundID: refundID.String(),
			Reason:   "The rejected amount does not match the receipt",
		},
	}
}

func TestCreateDispute_RejectsSecondActiveDispute(t *testing.T) {
	fx := newCreateDisputeFixture(refundModel.StatusPendingReview, true)

	dispute, err := fx.service.Create(context.Background(), fx.tenantID, fx.actor, fx.req)
	require.Error(t, err)
	assert.Nil(t, dispute)
	assert.True(t, errors.Is(err, model.ErrAlreadyActive))

	var disputeErr *model.DisputeError
	require.True(t, errors.As(err, &disputeErr))
	assert.Equal(t, model.ErrCodeAlreadyActive, disputeErr.Code)

	assert.Nil(t, fx.disputes.created, "no second dispute row may be inserted")
	assert.Nil(t, fx.refunds.disputed)
}

func TestCreateDispute_RejectsRefundNotOpen(t *testing.T) {
	closed := []string{
		refundModel.StatusCompleted,
		refundModel.StatusCancelled,
		refundModel.StatusProcessing,
		refundModel.StatusDisputed,
	}

	for _, status := range closed {
		t.Run(status, func(t *testing.T) {
			fx := newCreateDisputeFixture(status, false)

			_, err := fx.service.Create(context.Background(), fx.tenantID, fx.actor, fx.req)
			require.Error(t, err)

			var disputeErr *model.DisputeError
			require.True(t, errors.As(err, &disputeErr))
			assert.Equal(t, model.ErrCodeRefundNotOpen, disputeErr.Code)
		})
	}
}

func TestCreateDispute_OpensDisputeAndFreezesRefund(t *testing.T) {
	fx := newCreateDisputeFixture(refundModel.StatusRejected, false)

	dispute, err := fx.service.Create(context.Background(), fx.tenantID, fx.actor, fx.req)
	require.NoError(t, err)

	require.NotNil(t, fx.disputes.created)
	assert.Equal(t, model.StatusOpen, dispute.Status)
	assert.Equal(t, fx.refundID, dispute.RefundID)
	assert.Equal(t, fx.actor.UserID, dispute.RaisedBy)

	require.NotNil(t, fx.refunds.disputed)
	assert.True(t, *fx.refunds.disputed, "the refund must be flagged disputed")
}
