package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"refund-backend/internal/domains/dispute/model"
	"refund-backend/internal/domains/dispute/service"
	refundModel "refund-backend/internal/domains/refund/model"
	"refund-backend/internal/shared/middleware"
	"refund-backend/internal/shared/response"
)

type DisputeHandler struct {
	disputeService service.DisputeServiceInterface
}

func NewDisputeHandler(disputeService service.DisputeServiceInterface) *DisputeHandler {
	return &DisputeHandler{disputeService: disputeService}
}

func disputeID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.ErrorResponse(c, http.StatusBadRequest, model.ErrCodeInvalidRequest, "Invalid dispute id")
		return uuid.Nil, false
	}
	return id, true
}

func mapDisputeError(err error) (int, string) {
	var disputeErr *model.DisputeError
	if errors.As(err, &disputeErr) {
		switch disputeErr.Code {
		case model.ErrCodeInvalidRequest, model.ErrCodeInvalidAmount:
			return http.StatusBadRequest, disputeErr.Code
		case model.ErrCodeNotFound:
			return http.StatusNotFound, disputeErr.Code
		case model.ErrCodeAlreadyActive, model.ErrCodeInvalidState,
			model.ErrCodeRefundNotOpen, model.ErrCodeMissingResponse:
			return http.StatusConflict, disputeErr.Code
		default:
			return http.StatusInternalServerError, disputeErr.Code
		}
	}

	switch {
	case errors.Is(err, model.ErrDisputeNotFound):
		return http.StatusNotFound, model.ErrCodeNotFound
	case errors.Is(err, refundModel.ErrRefundNotFound):
		return http.StatusNotFound, refundModel.ErrCodeRefundNotFound
	}

	return http.StatusInternalServerError, refundModel.ErrCodeInternalError
}

// Create handles POST /api/v1/disputes
func (h *DisputeHandler) Create(c *gin.Context) {
	var req model.CreateDisputeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ErrorResponse(c, http.StatusBadRequest, model.ErrCodeInvalidRequest, err.Error())
		return
	}

	dispute, err := h.disputeService.Create(c.Request.Context(), middleware.TenantID(c), middleware.Actor(c), req)
	if err != nil {
		status, code := mapDisputeError(err)
		response.ErrorResponse(c, status, code, err.Error())
		return
	}

	response.Success(c, http.StatusCreated, dispute)
}

// Get handles GET /api/v1/disputes/:id
func (h *DisputeHandler) Get(c *gin.Context) {
	id, ok := disputeID(c)
	if !ok {
		return
	}

	dispute, err := h.disputeService.Get(c.Request.Context(), middleware.TenantID(c), id)
	if err != nil {
		status, code := mapDisputeError(err)
		response.ErrorResponse(c, status, code, err.Error())
		return
	}

	response.Success(c, http.StatusOK, dispute)
}

// List handles GET /api/v1/disputes
func (h *DisputeHandler) List(c *gin.Context) {
	var query model.ListDisputesQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		response.ErrorResponse(c, http.StatusBadRequest, model.ErrCodeInvalidRequest, err.Error())
		return
	}

	disputes, total, err := h.disputeService.List(c.Request.Context(), middleware.TenantID(c), query)
	if err != nil {
		status, code := mapDisputeError(err)
		response.ErrorResponse(c, status, code, err.Error())
		return
	}

	query.Normalize()
	response.SuccessWithMeta(c, http.StatusOK, disputes, &response.Meta{
		Page:  query.Page,
		Limit: query.Limit,
		Total: total,
	})
}

// Respond handles POST /api/v1/disputes/:id/respond
func (h *DisputeHandler) Respond(c *gin.Context) {
	id, ok := disputeID(c)
	if !ok {
		return
	}

	var req model.RespondDisputeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ErrorResponse(c, http.StatusBadRequest, model.ErrCodeInvalidRequest, err.Error())
		return
	}

	dispute, err := h.disputeService.Respond(c.Request.Context(), middleware.TenantID(c), id, middleware.Actor(c), req)
	if err != nil {
		status, code := mapDisputeError(err)
		response.ErrorResponse(c, status, code, err.Error())
		return
	}

	response.Success(c, http.StatusOK, dispute)
}

// Escalate handles POST /api/v1/disputes/:id/escalate
func (h *DisputeHandler) Escalate(c *gin.Context) {
	id, ok := disputeID(c)
	if !ok {
		return
	}

	var req model.EscalateDisputeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ErrorResponse(c, http.StatusBadRequest, model.ErrCodeInvalidRequest, err.Error())
		return
	}

	dispute, err := h.disputeService.Escalate(c.Request.Context(), middleware.TenantID(c), id, middleware.Actor(c), req)
	if err != nil {
		status, code := mapDisputeError(err)
		response.ErrorResponse(c, status, code, err.Error())
		return
	}

	response.Success(c, http.StatusOK, dispute)
}

// Resolve handles POST /api/v1/disputes/:id/resolve
func (h *DisputeHandler) Resolve(c *gin.Context) {
	id, ok := disputeID(c)
	if !ok {
		return
	}

	var req model.ResolveDisputeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ErrorResponse(c, http.StatusBadRequest, model.ErrCodeInvalidRequest, err.Error())
		return
	}

	dispute, err := h.disputeService.Resolve(c.Request.Context(), middleware.TenantID(c), id, middleware.Actor(c), req)
	if err != nil {
		status, code := mapDisputeError(err)
		response.ErrorResponse(c, status, code, err.Error())
		return
	}

	response.Success(c, http.StatusOK, dispute)
}

// Recommend handles GET /api/v1/disputes/:id/recommendation
func (h *DisputeHandler) Recommend(c *gin.Context) {
	id, ok := disputeID(c)
	if !ok {
		return
	}

	recommendation, err := h.disputeService.Recommend(c.Request.Context(), middleware.TenantID(c), id)
	if err != nil {
		status, code := mapDisputeError(err)
		response.ErrorResponse(c, status, code, err.Error())
		return
	}

	response.Success(c, http.StatusOK, recommendation)
}

// RegisterRoutes wires the dispute surface under the authenticated group.
func (h *DisputeHandler) RegisterRoutes(rg *gin.RouterGroup) {
	disputes := rg.Group("/disputes")
	{
		disputes.POST("", h.Create)
		disputes.GET("", h.List)
		disputes.GET("/:id", h.Get)
		disputes.POST("/:id/respond", h.Respond)
		disputes.GET("/:id/recommendation", h.Recommend)

		resolution := disputes.Group("")
		resolution.Use(middleware.RequireRole(refundModel.RoleManager, refundModel.RoleFinanceManager))
		{
			resolution.POST("/:id/escalate", h.Escalate)
			resolution.POST("/:id/resolve", h.Resolve)
		}
	}
}
