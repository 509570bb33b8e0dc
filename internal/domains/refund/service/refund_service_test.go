package service

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	orderModel "refund-backend/internal/domains/order/model"
	orderRepo "refund-backend/internal/domains/order/repository"
	"refund-backend/internal/domains/refund/model"
	repo "refund-backend/internal/domains/refund/repository"
	"refund-backend/internal/infrastructure/notify"
	"refund-backend/internal/shared"
	"refund-backend/pkg/database/databasetest"
)

// =====================================================
// FAKES
// =====================================================
// Fakes embed the repository interfaces so only the methods a test path
// touches need implementations.

type fakeRefundRepo struct {
	repo.RefundRepoInterface

	collisions int // ReferenceExists answers true this many times
	refChecks  int

	completed int64
	pending   int64

	refund *model.RefundRequest // returned by GetByIDForUpdate

	created       *model.RefundRequest
	approved      bool
	rejected      bool
	statusUpdates []string
}

func (f *fakeRefundRepo) GetByIDForUpdate(ctx context.Context, tx pgx.Tx, tenantID, id uuid.UUID) (*model.RefundRequest, error) {
	if f.refund == nil {
		return nil, model.ErrRefundNotFound
	}
	return f.refund, nil
}

func (f *fakeRefundRepo) MarkRejectedWithTx(ctx context.Context, tx pgx.Tx, id, rejectedBy uuid.UUID) error {
	f.rejected = true
	return nil
}

func (f *fakeRefundRepo) ReferenceExists(ctx context.Context, tenantID uuid.UUID, reference string) (bool, error) {
	f.refChecks++
	return f.refChecks <= f.collisions, nil
}

func (f *fakeRefundRepo) SumForOrderWithTx(ctx context.Context, tx pgx.Tx, orderID uuid.UUID) (int64, int64, error) {
	return f.completed, f.pending, nil
}

func (f *fakeRefundRepo) CreateWithTx(ctx context.Context, tx pgx.Tx, refund *model.RefundRequest) error {
	f.created = refund
	return nil
}

func (f *fakeRefundRepo) MarkApprovedWithTx(ctx context.Context, tx pgx.Tx, id, approvedBy uuid.UUID) error {
	f.approved = true
	return nil
}

func (f *fakeRefundRepo) UpdateStatusWithTx(ctx context.Context, tx pgx.Tx, id uuid.UUID, status string) error {
	f.statusUpdates = append(f.statusUpdates, status)
	return nil
}

type fakeTransactionRepo struct {
	txn *model.Transaction
}

func (f *fakeTransactionRepo) GetByID(ctx context.Context, tenantID, id uuid.UUID) (*model.Transaction, error) {
	if f.txn == nil {
		return nil, model.ErrTransactionNotFound
	}
	return f.txn, nil
}

type fakeOrderRepo struct {
	orderRepo.OrderRepoInterface

	order *orderModel.Order
}

func (f *fakeOrderRepo) GetByID(ctx context.Context, tenantID, id uuid.UUID) (*orderModel.Order, error) {
	if f.order == nil {
		return nil, orderModel.ErrOrderNotFound
	}
	return f.order, nil
}

type fakeApprovalService struct {
	ApprovalServiceInterface

	status string
}

func (f *fakeApprovalService) InitializeWithTx(ctx context.Context, tx pgx.Tx, refund *model.RefundRequest, actor shared.Actor) (string, []shared.Event, error) {
	return f.status, nil, nil
}

type createFixture struct {
	tenantID uuid.UUID
	actor    shared.Actor
	beginner *databasetest.Beginner
	repo     *fakeRefundRepo
	service  *refundService
	req      model.CreateRefundRequest
}

func newCreateFixture(txnAmount, orderTotal, completed, pending int64) *createFixture {
	tenantID := uuid.New()
	orderID := uuid.New()
	txnID := uuid.New()

	refundRepo := &fakeRefundRepo{completed: completed, pending: pending}
	beginner := &databasetest.Beginner{}

	svc := &refundService{
		pool:       beginner,
		refundRepo: refundRepo,
		txnRepo: &fakeTransactionRepo{txn: &model.Transaction{
			ID:       txnID,
			TenantID: tenantID,
			OrderID:  orderID,
			Amount:   txnAmount,
			Currency: "IDR",
			Status:   model.TransactionStatusCompleted,
		}},
		orderRepo: &fakeOrderRepo{order: &orderModel.Order{
			ID:          orderID,
			TenantID:    tenantID,
			TotalAmount: orderTotal,
		}},
		approvalService: &fakeApprovalService{status: model.StatusPendingReview},
		dispatcher:      notify.NopDispatcher{},
	}

	return &createFixture{
		tenantID: tenantID,
		actor:    shared.Actor{UserID: uuid.New(), Role: model.RoleCustomerService},
		beginner: beginner,
		repo:     refundRepo,
		service:  svc,
		req: model.CreateRefundRequest{
			OrderID:        orderID.String(),
			TransactionID:  txnID.String(),
			Currency:       "IDR",
			Method:         model.MethodOriginal,
			ReasonCategory: "customer_changed_mind",
			Reason:         "Customer no longer wants the item",
		},
	}
}

// =====================================================
// CREATE
// =====================================================

func TestCreate_RejectsAmountOverRefundableBalance(t *testing.T) {
	// 100k order, 50k already refunded, 30k still in flight: 20k remains.
	fx := newCreateFixture(100_000, 100_000, 50_000, 30_000)
	fx.req.Amount = 25_000

	created, err := fx.service.Create(context.Background(), fx.tenantID, fx.actor, fx.req)
	require.Error(t, err)
	assert.Nil(t, created)
	assert.True(t, errors.Is(err, model.ErrExceedsRefundable))

	var refundErr *model.RefundError
	require.True(t, errors.As(err, &refundErr))
	assert.Equal(t, model.ErrCodeExceedsRefundable, refundErr.Code)

	assert.Nil(t, fx.repo.created, "nothing may be inserted once the balance check fails")
	assert.Equal(t, 0, fx.beginner.Committed)
	assert.Equal(t, 1, fx.beginner.RolledBack)
}

func TestCreate_ExactRemainingBalanceIsAccepted(t *testing.T) {
	fx := newCreateFixture(100_000, 100_000, 50_000, 30_000)
	fx.req.Amount = 20_000

	created, err := fx.service.Create(context.Background(), fx.tenantID, fx.actor, fx.req)
	require.NoError(t, err)
	require.NotNil(t, fx.repo.created)
	assert.Equal(t, int64(20_000), created.Amount)
	assert.Equal(t, 1, fx.beginner.Committed)
}

func TestCreate_FullRefundFollowsSourceTransaction(t *testing.T) {
	tests := []struct {
		name       string
		txnAmount  int64
		orderTotal int64
		amount     int64
		wantFull   bool
	}{
		{
			// A partial capture refunded in full is a full refund even
			// though the order total is larger.
			name:       "full against a partial capture",
			txnAmount:  60_000,
			orderTotal: 100_000,
			amount:     60_000,
			wantFull:   true,
		},
		{
			name:       "partial against the transaction",
			txnAmount:  60_000,
			orderTotal: 100_000,
			amount:     40_000,
			wantFull:   false,
		},
		{
			name:       "full order, full transaction",
			txnAmount:  100_000,
			orderTotal: 100_000,
			amount:     100_000,
			wantFull:   true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fx := newCreateFixture(tt.txnAmount, tt.orderTotal, 0, 0)
			fx.req.Amount = tt.amount

			created, err := fx.service.Create(context.Background(), fx.tenantID, fx.actor, fx.req)
			require.NoError(t, err)
			assert.Equal(t, tt.wantFull, created.IsFullRefund)
		})
	}
}

// =====================================================
// REFERENCE GENERATION
// =====================================================

func TestGenerateReference_RetriesOnCollision(t *testing.T) {
	refundRepo := &fakeRefundRepo{collisions: 2}
	svc := &refundService{refundRepo: refundRepo}

	reference, err := svc.generateReference(context.Background(), uuid.New())
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(reference, "REF-"))
	assert.Equal(t, 3, refundRepo.refChecks, "two collisions then a fresh reference")
}

func TestGenerateReference_GivesUpAfterAttemptCap(t *testing.T) {
	refundRepo := &fakeRefundRepo{collisions: model.ReferenceAttempts + 1}
	svc := &refundService{refundRepo: refundRepo}

	reference, err := svc.generateReference(context.Background(), uuid.New())
	require.Error(t, err)
	assert.Empty(t, reference)
	assert.True(t, errors.Is(err, model.ErrReferenceExhausted))
	assert.Equal(t, model.ReferenceAttempts, refundRepo.refChecks)
}

func TestRandomReference(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		ref, err := randomReference()
		require.NoError(t, err)

		assert.Len(t, ref, 14)
		require.True(t, strings.HasPrefix(ref, "REF-"))
		for _, c := range ref[4:] {
			assert.Contains(t, referenceCharset, string(c))
		}

		assert.False(t, seen[ref], "duplicate reference %s in 100 draws", ref)
		seen[ref] = true
	}
}
