package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"refund-backend/internal/domains/insurance/model"
	repo "refund-backend/internal/domains/insurance/repository"
	"refund-backend/internal/infrastructure/notify"
	"refund-backend/internal/shared"
	"refund-backend/pkg/cache"
	"refund-backend/pkg/database"
	"refund-backend/pkg/logger"
)

// =====================================================
// INSURANCE FUND SERVICE
// =====================================================

const balanceCacheTTL = 30 * time.Second

type FundServiceInterface interface {
	// WithdrawWithTx debits the fund inside the refund completion
	// transaction and returns a low-balance event when the fund drops
	// below the alert threshold. The balance may go negative; the fund
	// absorbs the shortfall until contributions catch up.
	WithdrawWithTx(ctx context.Context, tx pgx.Tx, tenantID, refundID uuid.UUID, amount int64) ([]shared.Event, error)

	// Contribute records the levy for a settled payment.
	Contribute(ctx context.Context, tenantID uuid.UUID, actor shared.Actor, req model.ContributeRequest) (*model.FundEntry, error)

	Balance(ctx context.Context, tenantID uuid.UUID) (int64, error)
	ListEntries(ctx context.Context, tenantID uuid.UUID, query model.ListEntriesQuery) ([]*model.FundEntry, int, error)
	Stats(ctx context.Context, tenantID uuid.UUID) (*model.FundStats, error)
}

type fundService struct {
	pool       database.TxBeginner
	fundRepo   repo.FundRepoInterface
	cache      cache.Cache
	dispatcher notify.Dispatcher
}

func NewFundService(
	pool database.TxBeginner,
	fundRepo repo.FundRepoInterface,
	cacheClient cache.Cache,
	dispatcher notify.Dispatcher,
) FundServiceInterface {
	return &fundService{
		pool:       pool,
		fundRepo:   fundRepo,
		cache:      cacheClient,
		dispatcher: dispatcher,
	}
}

func balanceCacheKey(tenantID uuid.UUID) string {
	return fmt.Sprintf("insurance_fund:balance:%s", tenantID)
}

// =====================================================
// LEDGER WRITES
// =====================================================

func (s *fundService) WithdrawWithTx(ctx context.Context, tx pgx.Tx, tenantID, refundID uuid.UUID, amount int64) ([]shared.Event, error) {
	balance, err := s.fundRepo.BalanceForUpdateWithTx(ctx, tx, tenantID)
	if err != nil {
		return nil, err
	}

	newBalance := balance - amount
	entry := &model.FundEntry{
		ID:            uuid.New(),
		TenantID:      tenantID,
		EntryType:     model.EntryTypeWithdrawal,
		Amount:        amount,
		BalanceBefore: balance,
		BalanceAfter:  newBalance,
		RefundID:      &refundID,
		Description:   "Refund payout",
	}

	if err := s.fundRepo.InsertEntryWithTx(ctx, tx, entry); err != nil {
		return nil, err
	}
	if err := s.fundRepo.SetBalanceWithTx(ctx, tx, tenantID, newBalance); err != nil {
		return nil, err
	}

	s.invalidateBalance(ctx, tenantID)

	var events []shared.Event
	if newBalance < model.LowBalanceThreshold {
		events = append(events, shared.NewEvent(shared.EventFundLowBalance, tenantID.String(), map[string]interface{}{
			"balance":   newBalance,
			"threshold": model.LowBalanceThreshold,
			"refund_id": refundID.String(),
		}))
	}

	return events, nil
}

func (s *fundService) Contribute(ctx context.Context, tenantID uuid.UUID, actor shared.Actor, req model.ContributeRequest) (*model.FundEntry, error) {
	if err := req.Validate(); err != nil {
		return nil, model.NewFundError(model.ErrCodeInvalidRequest, "Invalid contribution request", err)
	}

	contribution := model.ContributionFor(req.Amount)
	if contribution < 1 {
		return nil, model.NewFundError(model.ErrCodeInvalidAmount, "Payment amount too small to produce a contribution", model.ErrInvalidAmount)
	}

	transactionID, err := uuid.Parse(req.TransactionID)
	if err != nil {
		return nil, model.NewFundError(model.ErrCodeInvalidRequest, "Invalid transaction ID", err)
	}

	entry, err := database.WithTransactionResult(ctx, s.pool, func(tx pgx.Tx) (*model.FundEntry, error) {
		balance, err := s.fundRepo.BalanceForUpdateWithTx(ctx, tx, tenantID)
		if err != nil {
			return nil, err
		}

		entry := &model.FundEntry{
			ID:            uuid.New(),
			TenantID:      tenantID,
			EntryType:     model.EntryTypeContribution,
			Amount:        contribution,
			BalanceBefore: balance,
			BalanceAfter:  balance + contribution,
			TransactionID: &transactionID,
			Description:   req.Description,
		}

		if err := s.fundRepo.InsertEntryWithTx(ctx, tx, entry); err != nil {
			return nil, err
		}
		if err := s.fundRepo.SetBalanceWithTx(ctx, tx, tenantID, entry.BalanceAfter); err != nil {
			return nil, err
		}

		return entry, nil
	})
	if err != nil {
		return nil, err
	}

	s.invalidateBalance(ctx, tenantID)

	logger.Info("Insurance fund contribution recorded", map[string]interface{}{
		"tenant_id":      tenantID.String(),
		"transaction_id": req.TransactionID,
		"amount":         contribution,
		"balance":        entry.BalanceAfter,
		"recorded_by":    actor.UserID.String(),
	})

	return entry, nil
}

// =====================================================
// READ OPERATIONS
// =====================================================

func (s *fundService) Balance(ctx context.Context, tenantID uuid.UUID) (int64, error) {
	key := balanceCacheKey(tenantID)

	var cached int64
	if found, err := s.cache.Get(ctx, key, &cached); err == nil && found {
		return cached, nil
	}

	balance, err := s.fundRepo.Balance(ctx, tenantID)
	if err != nil {
		return 0, err
	}

	if err := s.cache.Set(ctx, key, balance, balanceCacheTTL); err != nil {
		logger.Warn("Failed to cache fund balance", map[string]interface{}{"error": err.Error()})
	}

	return balance, nil
}

func (s *fundService) ListEntries(ctx context.Context, tenantID uuid.UUID, query model.ListEntriesQuery) ([]*model.FundEntry, int, error) {
	query.Normalize()
	if err := query.Validate(); err != nil {
		return nil, 0, model.NewFundError(model.ErrCodeInvalidRequest, "Invalid list query", err)
	}
	return s.fundRepo.ListEntries(ctx, tenantID, query)
}

func (s *fundService) Stats(ctx context.Context, tenantID uuid.UUID) (*model.FundStats, error) {
	return s.fundRepo.Stats(ctx, tenantID)
}

func (s *fundService) invalidateBalance(ctx context.Context, tenantID uuid.UUID) {
	if err := s.cache.Delete(ctx, balanceCacheKey(tenantID)); err != nil {
		logger.Warn("Failed to invalidate fund balance cache", map[string]interface{}{"error": err.Error()})
	}
}
