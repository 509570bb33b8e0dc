package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"refund-backend/internal/domains/insurance/model"
	"refund-backend/internal/infrastructure/notify"
	"refund-backend/internal/shared"
)

type fakeFundRepo struct {
	balance   int64
	entries   []*model.FundEntry
	lockErr   error
	insertErr error
}

func (r *fakeFundRepo) BalanceForUpdateWithTx(ctx context.Context, tx pgx.Tx, tenantID uuid.UUID) (int64, error) {
	if r.lockErr != nil {
		return 0, r.lockErr
	}
	return r.balance, nil
}

func (r *fakeFundRepo) SetBalanceWithTx(ctx context.Context, tx pgx.Tx, tenantID uuid.UUID, balance int64) error {
	r.balance = balance
	return nil
}

func (r *fakeFundRepo) InsertEntryWithTx(ctx context.Context, tx pgx.Tx, entry *model.FundEntry) error {
	if r.insertErr != nil {
		return r.insertErr
	}
	r.entries = append(r.entries, entry)
	return nil
}

func (r *fakeFundRepo) Balance(ctx context.Context, tenantID uuid.UUID) (int64, error) {
	return r.balance, nil
}

func (r *fakeFundRepo) ListEntries(ctx context.Context, tenantID uuid.UUID, query model.ListEntriesQuery) ([]*model.FundEntry, int, error) {
	return r.entries, len(r.entries), nil
}

func (r *fakeFundRepo) Stats(ctx context.Context, tenantID uuid.UUID) (*model.FundStats, error) {
	return &model.FundStats{Balance: r.balance}, nil
}

type fakeCache struct {
	values map[string]int64
}

func newFakeCache() *fakeCache {
	return &fakeCache{values: make(map[string]int64)}
}

func (c *fakeCache) Get(ctx context.Context, key string, dest interface{}) (bool, error) {
	v, ok := c.values[key]
	if !ok {
		return false, nil
	}
	if p, ok := dest.(*int64); ok {
		*p = v
	}
	return true, nil
}

func (c *fakeCache) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	if v, ok := value.(int64); ok {
		c.values[key] = v
	}
	return nil
}

func (c *fakeCache) Delete(ctx context.Context, keys ...string) error {
	for _, key := range keys {
		delete(c.values, key)
	}
	return nil
}

func (c *fakeCache) Ping(ctx context.Context) error { return nil }

func (c *fakeCache) Exists(ctx context.Context, key string) (bool, error) {
	_, ok := c.values[key]
	return ok, nil
}

func (c *fakeCache) Increment(ctx context.Context, key string) (int64, error) {
	c.values[key]++
	return c.values[key], nil
}

func (c *fakeCache) Expire(ctx context.Context, key string, ttl time.Duration) error { return nil }

func newTestFundService(repo *fakeFundRepo, cache *fakeCache) FundServiceInterface {
	return NewFundService(nil, repo, cache, notify.NopDispatcher{})
}

func TestFundService_WithdrawWithTx(t *testing.T) {
	ctx := context.Background()
	tenantID := uuid.New()
	refundID := uuid.New()

	repo := &fakeFundRepo{balance: 10_000_000}
	svc := newTestFundService(repo, newFakeCache())

	events, err := svc.WithdrawWithTx(ctx, nil, tenantID, refundID, 2_000_000)
	require.NoError(t, err)
	assert.Empty(t, events, "healthy balance raises no alert")
	assert.Equal(t, int64(8_000_000), repo.balance)

	require.Len(t, repo.entries, 1)
	entry := repo.entries[0]
	assert.Equal(t, model.EntryTypeWithdrawal, entry.EntryType)
	assert.Equal(t, int64(2_000_000), entry.Amount)
	assert.Equal(t, int64(10_000_000), entry.BalanceBefore)
	assert.Equal(t, int64(8_000_000), entry.BalanceAfter)
	require.NotNil(t, entry.RefundID)
	assert.Equal(t, refundID, *entry.RefundID)
}

func TestFundService_WithdrawWithTx_LowBalanceAlert(t *testing.T) {
	ctx := context.Background()
	tenantID := uuid.New()

	repo := &fakeFundRepo{balance: 6_000_000}
	svc := newTestFundService(repo, newFakeCache())

	events, err := svc.WithdrawWithTx(ctx, nil, tenantID, uuid.New(), 1_500_000)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, shared.EventFundLowBalance, events[0].Name)
	assert.Equal(t, int64(4_500_000), repo.balance)
}

func TestFundService_WithdrawWithTx_AllowsNegativeBalance(t *testing.T) {
	ctx := context.Background()
	repo := &fakeFundRepo{balance: 100_000}
	svc := newTestFundService(repo, newFakeCache())

	events, err := svc.WithdrawWithTx(ctx, nil, uuid.New(), uuid.New(), 300_000)
	require.NoError(t, err)
	require.Len(t, events, 1, "negative balance is certainly below the threshold")
	assert.Equal(t, int64(-200_000), repo.balance)
	assert.Equal(t, int64(-200_000), repo.entries[0].BalanceAfter)
}

func TestFundService_WithdrawWithTx_InvalidatesBalanceCache(t *testing.T) {
	ctx := context.Background()
	tenantID := uuid.New()

	repo := &fakeFundRepo{balance: 10_000_000}
	cache := newFakeCache()
	svc := newTestFundService(repo, cache)

	// Warm the cache, then withdraw; the next read must hit the repo.
	balance, err := svc.Balance(ctx, tenantID)
	require.NoError(t, err)
	assert.Equal(t, int64(10_000_000), balance)

	_, err = svc.WithdrawWithTx(ctx, nil, tenantID, uuid.New(), 4_000_000)
	require.NoError(t, err)

	balance, err = svc.Balance(ctx, tenantID)
	require.NoError(t, err)
	assert.Equal(t, int64(6_000_000), balance)
}

func TestFundService_WithdrawWithTx_PropagatesRepoErrors(t *testing.T) {
	ctx := context.Background()
	lockFailed := errors.New("lock failed")

	svc := newTestFundService(&fakeFundRepo{lockErr: lockFailed}, newFakeCache())
	_, err := svc.WithdrawWithTx(ctx, nil, uuid.New(), uuid.New(), 1000)
	assert.ErrorIs(t, err, lockFailed)

	insertFailed := errors.New("insert failed")
	svc = newTestFundService(&fakeFundRepo{balance: 1000, insertErr: insertFailed}, newFakeCache())
	_, err = svc.WithdrawWithTx(ctx, nil, uuid.New(), uuid.New(), 1000)
	assert.ErrorIs(t, err, insertFailed)
}

func TestFundService_Contribute_Validation(t *testing.T) {
	ctx := context.Background()
	svc := newTestFundService(&fakeFundRepo{}, newFakeCache())
	actor := shared.Actor{UserID: uuid.New(), Role: "finance_manager"}

	// Missing transaction ID never reaches the database.
	_, err := svc.Contribute(ctx, uuid.New(), actor, model.ContributeRequest{Amount: 100_000})
	require.Error(t, err)
	var fundErr *model.FundError
	require.True(t, errors.As(err, &fundErr))
	assert.Equal(t, model.ErrCodeInvalidRequest, fundErr.Code)

	// A payment too small to produce a single minor unit of levy.
	_, err = svc.Contribute(ctx, uuid.New(), actor, model.ContributeRequest{
		TransactionID: uuid.New().String(),
		Amount:        39,
	})
	require.Error(t, err)
	require.True(t, errors.As(err, &fundErr))
	assert.Equal(t, model.ErrCodeInvalidAmount, fundErr.Code)
	assert.ErrorIs(t, err, model.ErrInvalidAmount)
}

func TestFundService_Balance_CachesReads(t *testing.T) {
	ctx := context.Background()
	tenantID := uuid.New()

	repo := &fakeFundRepo{balance: 750_000}
	svc := newTestFundService(repo, newFakeCache())

	balance, err := svc.Balance(ctx, tenantID)
	require.NoError(t, err)
	assert.Equal(t, int64(750_000), balance)

	// A stale cache masks direct repo changes until invalidation.
	repo.balance = 999
	balance, err = svc.Balance(ctx, tenantID)
	require.NoError(t, err)
	assert.Equal(t, int64(750_000), balance)
}
