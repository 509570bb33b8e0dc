package job

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/hibiken/asynq"

	"refund-backend/internal/config"
	"refund-backend/internal/domains/liability/service"
	"refund-backend/internal/shared"
	"refund-backend/pkg/logger"
)

// ================================================
// OVERDUE CLAIM SWEEP JOB HANDLER
// ================================================

type SweepOverdueClaimsHandler struct {
	liabilityService service.LiabilityServiceInterface
	jobConfig        config.JobConfig
}

func NewSweepOverdueClaimsHandler(
	liabilityService service.LiabilityServiceInterface,
	jobConfig config.JobConfig,
) *SweepOverdueClaimsHandler {
	return &SweepOverdueClaimsHandler{
		liabilityService: liabilityService,
		jobConfig:        jobConfig,
	}
}

func (h *SweepOverdueClaimsHandler) ProcessTask(ctx context.Context, t *asynq.Task) error {
	var payload shared.SweepPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		logger.Error("Failed to unmarshal sweep_overdue_claims payload, using configured limit", err)
	}

	limit := payload.Limit
	if limit <= 0 {
		limit = h.jobConfig.OverdueLiabilityLimit
	}

	flagged, err := h.liabilityService.SweepOverdue(ctx, limit)
	if err != nil {
		return fmt.Errorf("sweep overdue claims: %w", err)
	}

	logger.Info("Completed overdue claim sweep", map[string]interface{}{
		"limit":   limit,
		"flagged": flagged,
	})

	return nil
}
