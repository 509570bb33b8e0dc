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

	"refund-backend/internal/domains/refund/model"
	repo "refund-backend/internal/domains/refund/repository"
	"refund-backend/internal/infrastructure/notify"
	"refund-backend/internal/shared"
	"refund-backend/pkg/database/databasetest"
)

func stepTypes(specs []stepSpec) []string {
	var types []string
	for _, s := range specs {
		types = append(types, s.Type)
	}
	return types
}

func TestDeriveSteps(t *testing.T) {
	tests := []struct {
		name     string
		refund   model.RefundRequest
		expected []string
	}{
		{
			name:     "small low-risk refund needs no steps",
			refund:   model.RefundRequest{ReasonCategory: "customer_changed_mind", Amount: 50_000},
			expected: nil,
		},
		{
			name:     "medium category gets review and manager",
			refund:   model.RefundRequest{ReasonCategory: "damaged_product", Amount: 50_000},
			expected: []string{model.StepInitialReview, model.StepManagerApproval},
		},
		{
			name:     "disputed low-risk refund still gets a review chain",
			refund:   model.RefundRequest{ReasonCategory: "customer_changed_mind", Amount: 50_000, IsDisputed: true},
			expected: []string{model.StepInitialReview},
		},
		{
			name:     "manager threshold adds manager step for low level",
			refund:   model.RefundRequest{ReasonCategory: "late_delivery", Amount: model.ThresholdManager, IsDisputed: true},
			expected: []string{model.StepInitialReview, model.StepManagerApproval},
		},
		{
			name:     "finance threshold adds finance step",
			refund:   model.RefundRequest{ReasonCategory: "damaged_product", Amount: 2_500_000},
			expected: []string{model.StepInitialReview, model.StepManagerApproval, model.StepFinanceApproval},
		},
		{
			name:     "high level forces finance even below threshold",
			refund:   model.RefundRequest{ReasonCategory: "service_failure", Amount: 50_000},
			expected: []string{model.StepInitialReview, model.StepManagerApproval, model.StepFinanceApproval},
		},
		{
			name:     "executive threshold appends executive step",
			refund:   model.RefundRequest{ReasonCategory: "damaged_product", Amount: model.ThresholdExecutive},
			expected: []string{model.StepInitialReview, model.StepManagerApproval, model.StepFinanceApproval, model.StepExecutiveApproval},
		},
		{
			name:     "critical category escalates to executive at any amount",
			refund:   model.RefundRequest{ReasonCategory: "fraudulent_transaction", Amount: 20_000},
			expected: []string{model.StepInitialReview, model.StepManagerApproval, model.StepFinanceApproval, model.StepExecutiveApproval},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, stepTypes(deriveSteps(&tt.refund)))
		})
	}
}

func TestDeriveSteps_FinanceConditions(t *testing.T) {
	// Finance always requires documents; verification only above the amount
	// threshold.
	highValue := model.RefundRequest{ReasonCategory: "damaged_product", Amount: model.ThresholdFinance}
	specs := deriveSteps(&highValue)
	require.Len(t, specs, 3)
	finance := specs[2]
	assert.Equal(t, model.StepFinanceApproval, finance.Type)
	assert.True(t, finance.RequiresDocuments)
	assert.True(t, finance.RequiresVerification)

	highLevel := model.RefundRequest{ReasonCategory: "service_failure", Amount: 50_000}
	specs = deriveSteps(&highLevel)
	require.Len(t, specs, 3)
	finance = specs[2]
	assert.True(t, finance.RequiresDocuments)
	assert.False(t, finance.RequiresVerification)
}

func TestDeriveSteps_RolesAndSLAs(t *testing.T) {
	refund := model.RefundRequest{ReasonCategory: "fraudulent_transaction", Amount: model.ThresholdExecutive}
	specs := deriveSteps(&refund)
	require.Len(t, specs, 4)

	expectedRoles := []string{
		model.RoleCustomerService,
		model.RoleManager,
		model.RoleFinanceManager,
		model.RoleExecutive,
	}
	for i, spec := range specs {
		assert.Equal(t, expectedRoles[i], spec.Role)
		assert.Equal(t, model.StepSLAHours[spec.Type], spec.SLAHours)
	}
}

func TestStatusForStep(t *testing.T) {
	assert.Equal(t, model.StatusPendingReview, statusForStep[model.StepInitialReview])
	assert.Equal(t, model.StatusPendingManager, statusForStep[model.StepManagerApproval])
	assert.Equal(t, model.StatusPendingFinance, statusForStep[model.StepFinanceApproval])
	assert.Equal(t, model.StatusUnderInvestigation, statusForStep[model.StepExecutiveApproval])
}

// =====================================================
// DECIDE
// =====================================================

type fakeWorkflowRepo struct {
	repo.WorkflowRepoInterface

	current *model.WorkflowStep
	next    *model.WorkflowStep

	decided   bool
	activated *uuid.UUID
}

func (f *fakeWorkflowRepo) GetCurrentForUpdate(ctx context.Context, tx pgx.Tx, refundID uuid.UUID) (*model.WorkflowStep, error) {
	if f.current == nil {
		return nil, model.ErrNoCurrentStep
	}
	return f.current, nil
}

func (f *fakeWorkflowRepo) NextPendingWithTx(ctx context.Context, tx pgx.Tx, refundID uuid.UUID, afterNumber int) (*model.WorkflowStep, error) {
	if f.next == nil {
		return nil, model.ErrStepNotFound
	}
	return f.next, nil
}

func (f *fakeWorkflowRepo) DecideWithTx(ctx context.Context, tx pgx.Tx, id uuid.UUID, decision string, decidedBy uuid.UUID, reason *string) error {
	f.decided = true
	return nil
}

func (f *fakeWorkflowRepo) ActivateWithTx(ctx context.Context, tx pgx.Tx, id uuid.UUID, dueAt time.Time) error {
	f.activated = &id
	return nil
}

type decideFixture struct {
	tenantID uuid.UUID
	refundID uuid.UUID
	actor    shared.Actor
	refunds  *fakeRefundRepo
	steps    *fakeWorkflowRepo
	service  *approvalService
}

func newDecideFixture(currentType string, next *model.WorkflowStep) *decideFixture {
	tenantID := uuid.New()
	refundID := uuid.New()
	assignee := uuid.New()

	refunds := &fakeRefundRepo{refund: &model.RefundRequest{
		ID:       refundID,
		TenantID: tenantID,
		Status:   statusForStep[currentType],
	}}
	steps := &fakeWorkflowRepo{
		current: &model.WorkflowStep{
			ID:           uuid.New(),
			RefundID:     refundID,
			StepNumber:   1,
			StepType:     currentType,
			RequiredRole: model.RoleCustomerService,
			AssigneeID:   assignee,
			IsCurrent:    true,
			Decision:     model.DecisionPending,
		},
		next: next,
	}

	return &decideFixture{
		tenantID: tenantID,
		refundID: refundID,
		actor:    shared.Actor{UserID: assignee, Role: model.RoleCustomerService},
		refunds:  refunds,
		steps:    steps,
		service: &approvalService{
			pool:         &databasetest.Beginner{},
			refundRepo:   refunds,
			workflowRepo: steps,
			dispatcher:   notify.NopDispatcher{},
		},
	}
}

func TestDecide_ApprovingIntermediateStepActivatesNext(t *testing.T) {
	next := &model.WorkflowStep{
		ID:           uuid.New(),
		StepNumber:   2,
		StepType:     model.StepManagerApproval,
		RequiredRole: model.RoleManager,
		AssigneeID:   uuid.New(),
		Decision:     model.DecisionPending,
	}
	fx := newDecideFixture(model.StepInitialReview, next)

	step, err := fx.service.Decide(context.Background(), fx.tenantID, fx.refundID, fx.actor, model.DecideStepRequest{
		Decision: model.DecisionApproved,
	})
	require.NoError(t, err)

	assert.Equal(t, model.DecisionApproved, step.Decision)
	require.NotNil(t, fx.steps.activated, "the next step must become current")
	assert.Equal(t, next.ID, *fx.steps.activated)
	assert.Contains(t, fx.refunds.statusUpdates, model.StatusPendingManager)
	assert.False(t, fx.refunds.approved)
	assert.False(t, fx.refunds.rejected)
}

func TestDecide_ApprovingLastStepApprovesRefund(t *testing.T) {
	fx := newDecideFixture(model.StepInitialReview, nil)

	step, err := fx.service.Decide(context.Background(), fx.tenantID, fx.refundID, fx.actor, model.DecideStepRequest{
		Decision: model.DecisionApproved,
	})
	require.NoError(t, err)

	assert.Equal(t, model.DecisionApproved, step.Decision)
	assert.True(t, fx.refunds.approved, "approving the final step finalizes the refund")
	assert.Nil(t, fx.steps.activated)
	assert.False(t, fx.refunds.rejected)
}

func TestDecide_RejectionIsTerminal(t *testing.T) {
	next := &model.WorkflowStep{
		ID:         uuid.New(),
		StepNumber: 2,
		StepType:   model.StepManagerApproval,
		AssigneeID: uuid.New(),
		Decision:   model.DecisionPending,
	}
	fx := newDecideFixture(model.StepInitialReview, next)

	reason := "Receipt does not match the order"
	step, err := fx.service.Decide(context.Background(), fx.tenantID, fx.refundID, fx.actor, model.DecideStepRequest{
		Decision: model.DecisionRejected,
		Reason:   reason,
	})
	require.NoError(t, err)

	assert.Equal(t, model.DecisionRejected, step.Decision)
	assert.True(t, fx.refunds.rejected)
	assert.Nil(t, fx.steps.activated, "a rejection must not advance the chain")
	assert.False(t, fx.refunds.approved)
}

func TestDecide_RejectsTerminalRefund(t *testing.T) {
	fx := newDecideFixture(model.StepInitialReview, nil)
	fx.refunds.refund.Status = model.StatusCompleted

	_, err := fx.service.Decide(context.Background(), fx.tenantID, fx.refundID, fx.actor, model.DecideStepRequest{
		Decision: model.DecisionApproved,
	})
	require.Error(t, err)

	var refundErr *model.RefundError
	require.True(t, errors.As(err, &refundErr))
	assert.Equal(t, model.ErrCodeInvalidState, refundErr.Code)
	assert.False(t, fx.steps.decided)
}
