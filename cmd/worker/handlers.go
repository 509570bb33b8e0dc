package main

import (
	"github.com/hibiken/asynq"

	liabilityJob "refund-backend/internal/domains/liability/job"
	refundJob "refund-backend/internal/domains/refund/job"
	"refund-backend/internal/infrastructure/notify"
	"refund-backend/internal/shared"
	"refund-backend/pkg/container"
)

// HandlerRegistry holds all job handlers
type HandlerRegistry struct {
	dispatchEvent *notify.DispatchEventHandler
	sweepSteps    *refundJob.SweepOverdueStepsHandler
	sweepClaims   *liabilityJob.SweepOverdueClaimsHandler
}

// initializeHandlers creates all job handlers with their dependencies
func initializeHandlers(c *container.Container) *HandlerRegistry {
	return &HandlerRegistry{
		dispatchEvent: notify.NewDispatchEventHandler(),
		sweepSteps:    refundJob.NewSweepOverdueStepsHandler(c.ApprovalService, c.Config.Job),
		sweepClaims:   liabilityJob.NewSweepOverdueClaimsHandler(c.LiabilityService, c.Config.Job),
	}
}

// RegisterHandlers registers all handlers with the mux
func (h *HandlerRegistry) RegisterHandlers(mux *asynq.ServeMux) {
	mux.HandleFunc(shared.TypeDispatchEvent, h.dispatchEvent.ProcessTask)
	mux.HandleFunc(shared.TypeSweepOverdueSteps, h.sweepSteps.ProcessTask)
	mux.HandleFunc(shared.TypeSweepOverdueLiability, h.sweepClaims.ProcessTask)
}
