package job

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/hibiken/asynq"

	"refund-backend/internal/config"
	"refund-backend/internal/domains/refund/service"
	"refund-backend/internal/shared"
	"refund-backend/pkg/logger"
)

// ================================================
// OVERDUE STEP SWEEP JOB HANDLER
// ================================================

type SweepOverdueStepsHandler struct {
	approvalService service.ApprovalServiceInterface
	jobConfig       config.JobConfig
}

func NewSweepOverdueStepsHandler(
	approvalService service.ApprovalServiceInterface,
	jobConfig config.JobConfig,
) *SweepOverdueStepsHandler {
	return &SweepOverdueStepsHandler{
		approvalService: approvalService,
		jobConfig:       jobConfig,
	}
}

func (h *SweepOverdueStepsHandler) ProcessTask(ctx context.Context, t *asynq.Task) error {
	var payload shared.SweepPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		logger.Error("Failed to unmarshal sweep_overdue_steps payload, using configured limit", err)
	}

	limit := payload.Limit
	if limit <= 0 {
		limit = h.jobConfig.OverdueStepLimit
	}

	touched, err := h.approvalService.SweepOverdue(ctx, limit)
	if err != nil {
		return fmt.Errorf("sweep overdue steps: %w", err)
	}

	logger.Info("Completed overdue step sweep", map[string]interface{}{
		"limit":   limit,
		"touched": touched,
	})

	return nil
}
