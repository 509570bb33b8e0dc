package queue

import (
	"encoding/json"
	"time"

	"github.com/hibiken/asynq"

	"refund-backend/internal/config"
	"refund-backend/internal/shared"
	"refund-backend/pkg/logger"
)

type Scheduler struct {
	scheduler *asynq.Scheduler
	jobConfig config.JobConfig
}

func NewScheduler(redisAddress string, jobConfig config.JobConfig) *Scheduler {
	scheduler := asynq.NewScheduler(
		asynq.RedisClientOpt{Addr: redisAddress},
		&asynq.SchedulerOpts{
			Location: time.UTC,
			LogLevel: asynq.InfoLevel,
		},
	)

	return &Scheduler{
		scheduler: scheduler,
		jobConfig: jobConfig,
	}
}

func (s *Scheduler) RegisterSweepJobs() error {
	if err := s.registerSweepOverdueStepsJob(); err != nil {
		return err
	}

	if err := s.registerSweepOverdueClaimsJob(); err != nil {
		return err
	}

	return nil
}

// ================================================
// JOB 1: Sweep Overdue Approval Steps (Hourly)
// ================================================
// Hourly is enough: the SLA windows are 24h and up, so an hour of drift
// on the overdue flag and auto-escalation is acceptable.
func (s *Scheduler) registerSweepOverdueStepsJob() error {
	payload, err := json.Marshal(shared.SweepPayload{Limit: s.jobConfig.OverdueStepLimit})
	if err != nil {
		return err
	}

	task := asynq.NewTask(shared.TypeSweepOverdueSteps, payload)

	_, err = s.scheduler.Register(
		"0 * * * *", // Hourly at minute 0
		task,
		asynq.Queue(shared.QueueDefault),
		asynq.MaxRetry(2),
		asynq.Timeout(10*time.Minute),
	)

	if err != nil {
		logger.Error("Failed to register SweepOverdueSteps job", err)
		return err
	}

	logger.Info("✓ Registered SweepOverdueSteps: hourly", map[string]interface{}{})
	return nil
}

// ================================================
// JOB 2: Sweep Overdue Vendor Claims (Daily at 2 AM)
// ================================================
// Claims age in days, not hours. One pass at a low-traffic time flags
// everything past the follow-up window.
func (s *Scheduler) registerSweepOverdueClaimsJob() error {
	payload, err := json.Marshal(shared.SweepPayload{Limit: s.jobConfig.OverdueLiabilityLimit})
	if err != nil {
		return err
	}

	task := asynq.NewTask(shared.TypeSweepOverdueLiability, payload)

	_, err = s.scheduler.Register(
		"0 2 * * *", // Daily at 2 AM
		task,
		asynq.Queue(shared.QueueDefault),
		asynq.MaxRetry(2),
		asynq.Timeout(10*time.Minute),
	)

	if err != nil {
		logger.Error("Failed to register SweepOverdueClaims job", err)
		return err
	}

	logger.Info("✓ Registered SweepOverdueClaims: daily at 2 AM", map[string]interface{}{})
	return nil
}

func (s *Scheduler) Start() error {
	return s.scheduler.Run()
}

func (s *Scheduler) Shutdown() {
	s.scheduler.Shutdown()
}
