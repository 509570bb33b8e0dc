package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"refund-backend/internal/domains/liability/model"
	repo "refund-backend/internal/domains/liability/repository"
	refundService "refund-backend/internal/domains/refund/service"
	"refund-backend/internal/infrastructure/notify"
	"refund-backend/internal/shared"
	"refund-backend/pkg/database"
	"refund-backend/pkg/logger"
)

// =====================================================
// VENDOR LIABILITY SERVICE
// =====================================================

type LiabilityServiceInterface interface {
	// CreateForRefundWithTx opens a claim inside the refund-creation
	// transaction. Satisfies the refund service's LiabilityRecorder.
	CreateForRefundWithTx(ctx context.Context, tx pgx.Tx, params refundService.LiabilityParams) error

	Get(ctx context.Context, tenantID, id uuid.UUID) (*model.VendorLiability, error)
	List(ctx context.Context, tenantID uuid.UUID, query model.ListLiabilitiesQuery) ([]*model.VendorLiability, int, error)

	Acknowledge(ctx context.Context, tenantID, id uuid.UUID, actor shared.Actor) (*model.VendorLiability, error)
	Dispute(ctx context.Context, tenantID, id uuid.UUID, actor shared.Actor, req model.DisputeClaimRequest) (*model.VendorLiability, error)
	RecordRecovery(ctx context.Context, tenantID, id uuid.UUID, actor shared.Actor, req model.RecordRecoveryRequest) (*model.VendorLiability, error)
	WriteOff(ctx context.Context, tenantID, id uuid.UUID, actor shared.Actor, req model.WriteOffRequest) (*model.VendorLiability, error)
	Waive(ctx context.Context, tenantID, id uuid.UUID, actor shared.Actor, req model.WaiveRequest) (*model.VendorLiability, error)

	RiskProfile(ctx context.Context, tenantID, vendorID uuid.UUID) (*model.RiskProfile, error)

	// SweepOverdue flags open claims past the follow-up window.
	SweepOverdue(ctx context.Context, limit int) (int, error)
}

type liabilityService struct {
	pool          database.TxBeginner
	liabilityRepo repo.LiabilityRepoInterface
	dispatcher    notify.Dispatcher
}

func NewLiabilityService(
	pool database.TxBeginner,
	liabilityRepo repo.LiabilityRepoInterface,
	dispatcher notify.Dispatcher,
) LiabilityServiceInterface {
	return &liabilityService{
		pool:          pool,
		liabilityRepo: liabilityRepo,
		dispatcher:    dispatcher,
	}
}

// =====================================================
// CLAIM CREATION
// =====================================================

func (s *liabilityService) CreateForRefundWithTx(ctx context.Context, tx pgx.Tx, params refundService.LiabilityParams) error {
	now := time.Now().UTC()

	liability := &model.VendorLiability{
		ID:             uuid.New(),
		TenantID:       params.TenantID,
		VendorID:       params.VendorID,
		RefundID:       params.RefundID,
		OrderID:        params.OrderID,
		Amount:         params.Amount,
		ReasonCategory: params.ReasonCategory,
		Status:         model.StatusPending,
		ClaimedAt:      now,
		DueAt:          now.Add(model.ClaimFollowUpDays * 24 * time.Hour),
	}

	if err := s.liabilityRepo.CreateWithTx(ctx, tx, liability); err != nil {
		return err
	}

	logger.Info("Vendor liability claim opened", map[string]interface{}{
		"liability_id": liability.ID.String(),
		"vendor_id":    params.VendorID.String(),
		"refund_id":    params.RefundID.String(),
		"amount":       params.Amount,
	})

	return nil
}

// =====================================================
// READ OPERATIONS
// =====================================================

func (s *liabilityService) Get(ctx context.Context, tenantID, id uuid.UUID) (*model.VendorLiability, error) {
	return s.liabilityRepo.GetByID(ctx, tenantID, id)
}

func (s *liabilityService) List(ctx context.Context, tenantID uuid.UUID, query model.ListLiabilitiesQuery) ([]*model.VendorLiability, int, error) {
	query.Normalize()
	if err := query.Validate(); err != nil {
		return nil, 0, model.NewLiabilityError(model.ErrCodeInvalidRequest, "Invalid list query", err)
	}
	return s.liabilityRepo.List(ctx, tenantID, query)
}

// =====================================================
// TRANSITIONS
// =====================================================

func (s *liabilityService) Acknowledge(ctx context.Context, tenantID, id uuid.UUID, actor shared.Actor) (*model.VendorLiability, error) {
	return database.WithTransactionResult(ctx, s.pool, func(tx pgx.Tx) (*model.VendorLiability, error) {
		liability, err := s.liabilityRepo.GetByIDForUpdate(ctx, tx, tenantID, id)
		if err != nil {
			return nil, err
		}
		if !liability.CanBeAcknowledged() {
			return nil, model.NewInvalidStateError("acknowledge", liability.Status)
		}

		if err := s.liabilityRepo.AcknowledgeWithTx(ctx, tx, id); err != nil {
			return nil, err
		}
		liability.Status = model.StatusAcknowledged

		return liability, nil
	})
}

// Dispute records the vendor contesting the claim. A disputed claim stays
// open: recovery and write-off remain available while the disagreement is
// worked out offline.
func (s *liabilityService) Dispute(ctx context.Context, tenantID, id uuid.UUID, actor shared.Actor, req model.DisputeClaimRequest) (*model.VendorLiability, error) {
	if err := req.Validate(); err != nil {
		return nil, model.NewLiabilityError(model.ErrCodeInvalidRequest, "Invalid dispute request", err)
	}

	return database.WithTransactionResult(ctx, s.pool, func(tx pgx.Tx) (*model.VendorLiability, error) {
		liability, err := s.liabilityRepo.GetByIDForUpdate(ctx, tx, tenantID, id)
		if err != nil {
			return nil, err
		}
		if !liability.CanBeDisputed() {
			return nil, model.NewInvalidStateError("dispute", liability.Status)
		}

		if err := s.liabilityRepo.DisputeWithTx(ctx, tx, id, req.Reason); err != nil {
			return nil, err
		}
		liability.Status = model.StatusDisputed

		logger.Info("Vendor liability disputed", map[string]interface{}{
			"liability_id": id.String(),
			"disputed_by":  actor.UserID.String(),
		})

		return liability, nil
	})
}

// RecordRecovery applies a vendor payment against the claim. Full recovery
// closes it; anything less leaves it partially recovered.
func (s *liabilityService) RecordRecovery(ctx context.Context, tenantID, id uuid.UUID, actor shared.Actor, req model.RecordRecoveryRequest) (*model.VendorLiability, error) {
	if err := req.Validate(); err != nil {
		return nil, model.NewLiabilityError(model.ErrCodeInvalidRequest, "Invalid recovery request", err)
	}

	return database.WithTransactionResult(ctx, s.pool, func(tx pgx.Tx) (*model.VendorLiability, error) {
		liability, err := s.liabilityRepo.GetByIDForUpdate(ctx, tx, tenantID, id)
		if err != nil {
			return nil, err
		}
		if !liability.CanRecordRecovery() {
			return nil, model.NewInvalidStateError("record recovery on", liability.Status)
		}
		if req.Amount > liability.Outstanding() {
			return nil, model.NewOverRecoveryError(req.Amount, liability.Outstanding())
		}

		newStatus := model.StatusPartiallyRecovered
		if liability.RecoveredAmount+req.Amount == liability.Amount {
			newStatus = model.StatusRecovered
		}

		if err := s.liabilityRepo.ApplyRecoveryWithTx(ctx, tx, id, req.Amount, newStatus); err != nil {
			return nil, err
		}

		liability.RecoveredAmount += req.Amount
		liability.Status = newStatus

		logger.Info("Vendor recovery recorded", map[string]interface{}{
			"liability_id": id.String(),
			"amount":       req.Amount,
			"status":       newStatus,
			"recorded_by":  actor.UserID.String(),
		})

		return liability, nil
	})
}

func (s *liabilityService) WriteOff(ctx context.Context, tenantID, id uuid.UUID, actor shared.Actor, req model.WriteOffRequest) (*model.VendorLiability, error) {
	if err := req.Validate(); err != nil {
		return nil, model.NewLiabilityError(model.ErrCodeInvalidRequest, "Invalid write-off request", err)
	}

	return database.WithTransactionResult(ctx, s.pool, func(tx pgx.Tx) (*model.VendorLiability, error) {
		liability, err := s.liabilityRepo.GetByIDForUpdate(ctx, tx, tenantID, id)
		if err != nil {
			return nil, err
		}
		if !liability.CanBeWrittenOff() {
			return nil, model.NewInvalidStateError("write off", liability.Status)
		}

		if err := s.liabilityRepo.WriteOffWithTx(ctx, tx, id, req.Reason); err != nil {
			return nil, err
		}
		liability.Status = model.StatusWrittenOff

		return liability, nil
	})
}

func (s *liabilityService) Waive(ctx context.Context, tenantID, id uuid.UUID, actor shared.Actor, req model.WaiveRequest) (*model.VendorLiability, error) {
	if err := req.Validate(); err != nil {
		return nil, model.NewLiabilityError(model.ErrCodeInvalidRequest, "Invalid waive request", err)
	}

	return database.WithTransactionResult(ctx, s.pool, func(tx pgx.Tx) (*model.VendorLiability, error) {
		liability, err := s.liabilityRepo.GetByIDForUpdate(ctx, tx, tenantID, id)
		if err != nil {
			return nil, err
		}
		if !liability.CanBeWaived() {
			return nil, model.NewInvalidStateError("waive", liability.Status)
		}

		if err := s.liabilityRepo.WaiveWithTx(ctx, tx, id, req.Reason); err != nil {
			return nil, err
		}
		liability.Status = model.StatusWaived

		return liability, nil
	})
}

// =====================================================
// RISK PROFILE
// =====================================================

func (s *liabilityService) RiskProfile(ctx context.Context, tenantID, vendorID uuid.UUID) (*model.RiskProfile, error) {
	agg, err := s.liabilityRepo.VendorAggregates(ctx, tenantID, vendorID)
	if err != nil {
		return nil, err
	}

	rate, score := ComputeRiskScore(agg)

	return &model.RiskProfile{
		VendorID:        vendorID.String(),
		ClaimCount:      agg.ClaimCount,
		TotalAmount:     agg.TotalAmount,
		RecoveredAmount: agg.RecoveredAmount,
		Outstanding:     agg.TotalAmount - agg.RecoveredAmount,
		WrittenOffCount: agg.WrittenOffCount,
		RecoveryRate:    rate,
		RiskScore:       score,
	}, nil
}

// ComputeRiskScore weighs unrecovered exposure, claim volume and write-off
// history into a 0-100 score. A vendor with no claims scores zero.
func ComputeRiskScore(agg *model.VendorAggregates) (recoveryRate, score decimal.Decimal) {
	if agg.ClaimCount == 0 || agg.TotalAmount == 0 {
		return decimal.NewFromInt(1), decimal.Zero
	}

	recoveryRate = decimal.NewFromInt(agg.RecoveredAmount).
		Div(decimal.NewFromInt(agg.TotalAmount))

	exposure := decimal.NewFromInt(1).Sub(recoveryRate).
		Mul(decimal.NewFromInt(model.RiskWeightRecovery))

	volume := agg.ClaimCount * model.RiskWeightPerClaim
	if volume > model.RiskClaimCap {
		volume = model.RiskClaimCap
	}

	score = exposure.
		Add(decimal.NewFromInt(volume)).
		Add(decimal.NewFromInt(agg.WrittenOffCount * model.RiskWeightPerWriteOff))

	maxScore := decimal.NewFromInt(model.RiskScoreMax)
	if score.GreaterThan(maxScore) {
		score = maxScore
	}

	return recoveryRate, score
}

// =====================================================
// OVERDUE SWEEP
// =====================================================

func (s *liabilityService) SweepOverdue(ctx context.Context, limit int) (int, error) {
	liabilities, err := s.liabilityRepo.ListOverdue(ctx, limit)
	if err != nil {
		return 0, err
	}

	flagged := 0
	for _, liability := range liabilities {
		if err := s.liabilityRepo.MarkOverdue(ctx, liability.ID); err != nil {
			logger.Error("Failed to mark liability overdue", err)
			continue
		}
		flagged++

		s.dispatcher.Dispatch(ctx, shared.NewEvent(shared.EventLiabilityOverdue, liability.TenantID.String(), map[string]interface{}{
			"liability_id": liability.ID.String(),
			"vendor_id":    liability.VendorID.String(),
			"refund_id":    liability.RefundID.String(),
			"outstanding":  liability.Outstanding(),
			"due_at":       liability.DueAt,
		}))
	}

	return flagged, nil
}
