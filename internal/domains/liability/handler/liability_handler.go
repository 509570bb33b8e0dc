package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"refund-backend/internal/domains/liability/model"
	"refund-backend/internal/domains/liability/service"
	refundModel "refund-backend/internal/domains/refund/model"
	"refund-backend/internal/shared/middleware"
	"refund-backend/internal/shared/response"
)

// =====================================================
// VENDOR LIABILITY HANDLER
// =====================================================

type LiabilityHandler struct {
	liabilityService service.LiabilityServiceInterface
}

func NewLiabilityHandler(liabilityService service.LiabilityServiceInterface) *LiabilityHandler {
	return &LiabilityHandler{liabilityService: liabilityService}
}

func (h *LiabilityHandler) RegisterRoutes(rg *gin.RouterGroup) {
	liabilities := rg.Group("/liabilities")
	{
		liabilities.GET("", h.List)
		liabilities.GET("/:id", h.Get)
		liabilities.POST("/:id/acknowledge", h.Acknowledge)
		liabilities.POST("/:id/dispute", h.Dispute)

		finance := liabilities.Group("")
		finance.Use(middleware.RequireRole(refundModel.RoleFinanceManager))
		{
			finance.POST("/:id/recover", h.RecordRecovery)
			finance.POST("/:id/write-off", h.WriteOff)
			finance.POST("/:id/waive", h.Waive)
		}
	}

	rg.GET("/vendors/:vendor_id/risk", h.RiskProfile)
}

func liabilityID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.ErrorResponse(c, http.StatusBadRequest, model.ErrCodeInvalidRequest, "Invalid liability ID")
		return uuid.Nil, false
	}
	return id, true
}

func (h *LiabilityHandler) List(c *gin.Context) {
	var query model.ListLiabilitiesQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		response.ErrorResponse(c, http.StatusBadRequest, model.ErrCodeInvalidRequest, "Invalid query parameters")
		return
	}
	query.Normalize()

	liabilities, total, err := h.liabilityService.List(c.Request.Context(), middleware.TenantID(c), query)
	if err != nil {
		mapLiabilityError(c, err)
		return
	}

	response.SuccessWithMeta(c, http.StatusOK, liabilities, &response.Meta{
		Page:  query.Page,
		Limit: query.Limit,
		Total: total,
	})
}

func (h *LiabilityHandler) Get(c *gin.Context) {
	id, ok := liabilityID(c)
	if !ok {
		return
	}

	liability, err := h.liabilityService.Get(c.Request.Context(), middleware.TenantID(c), id)
	if err != nil {
		mapLiabilityError(c, err)
		return
	}

	response.Success(c, http.StatusOK, liability)
}

func (h *LiabilityHandler) Acknowledge(c *gin.Context) {
	id, ok := liabilityID(c)
	if !ok {
		return
	}

	liability, err := h.liabilityService.Acknowledge(c.Request.Context(), middleware.TenantID(c), id, middleware.Actor(c))
	if err != nil {
		mapLiabilityError(c, err)
		return
	}

	response.Success(c, http.StatusOK, liability)
}

func (h *LiabilityHandler) Dispute(c *gin.Context) {
	id, ok := liabilityID(c)
	if !ok {
		return
	}

	var req model.DisputeClaimRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ErrorResponse(c, http.StatusBadRequest, model.ErrCodeInvalidRequest, "Invalid request body")
		return
	}

	liability, err := h.liabilityService.Dispute(c.Request.Context(), middleware.TenantID(c), id, middleware.Actor(c), req)
	if err != nil {
		mapLiabilityError(c, err)
		return
	}

	response.Success(c, http.StatusOK, liability)
}

func (h *LiabilityHandler) RecordRecovery(c *gin.Context) {
	id, ok := liabilityID(c)
	if !ok {
		return
	}

	var req model.RecordRecoveryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ErrorResponse(c, http.StatusBadRequest, model.ErrCodeInvalidRequest, "Invalid request body")
		return
	}

	liability, err := h.liabilityService.RecordRecovery(c.Request.Context(), middleware.TenantID(c), id, middleware.Actor(c), req)
	if err != nil {
		mapLiabilityError(c, err)
		return
	}

	response.Success(c, http.StatusOK, liability)
}

func (h *LiabilityHandler) WriteOff(c *gin.Context) {
	id, ok := liabilityID(c)
	if !ok {
		return
	}

	var req model.WriteOffRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ErrorResponse(c, http.StatusBadRequest, model.ErrCodeInvalidRequest, "Invalid request body")
		return
	}

	liability, err := h.liabilityService.WriteOff(c.Request.Context(), middleware.TenantID(c), id, middleware.Actor(c), req)
	if err != nil {
		mapLiabilityError(c, err)
		return
	}

	response.Success(c, http.StatusOK, liability)
}

func (h *LiabilityHandler) Waive(c *gin.Context) {
	id, ok := liabilityID(c)
	if !ok {
		return
	}

	var req model.WaiveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ErrorResponse(c, http.StatusBadRequest, model.ErrCodeInvalidRequest, "Invalid request body")
		return
	}

	liability, err := h.liabilityService.Waive(c.Request.Context(), middleware.TenantID(c), id, middleware.Actor(c), req)
	if err != nil {
		mapLiabilityError(c, err)
		return
	}

	response.Success(c, http.StatusOK, liability)
}

func (h *LiabilityHandler) RiskProfile(c *gin.Context) {
	vendorID, err := uuid.Parse(c.Param("vendor_id"))
	if err != nil {
		response.ErrorResponse(c, http.StatusBadRequest, model.ErrCodeInvalidRequest, "Invalid vendor ID")
		return
	}

	profile, err := h.liabilityService.RiskProfile(c.Request.Context(), middleware.TenantID(c), vendorID)
	if err != nil {
		mapLiabilityError(c, err)
		return
	}

	response.Success(c, http.StatusOK, profile)
}

func mapLiabilityError(c *gin.Context, err error) {
	var liabilityErr *model.LiabilityError
	if errors.As(err, &liabilityErr) {
		switch liabilityErr.Code {
		case model.ErrCodeInvalidRequest:
			response.ErrorResponse(c, http.StatusBadRequest, liabilityErr.Code, liabilityErr.Message)
		case model.ErrCodeNotFound:
			response.ErrorResponse(c, http.StatusNotFound, liabilityErr.Code, liabilityErr.Message)
		case model.ErrCodeInvalidState, model.ErrCodeOverRecovery:
			response.ErrorResponse(c, http.StatusConflict, liabilityErr.Code, liabilityErr.Message)
		default:
			response.ErrorResponse(c, http.StatusInternalServerError, liabilityErr.Code, liabilityErr.Message)
		}
		return
	}

	switch {
	case errors.Is(err, model.ErrLiabilityNotFound):
		response.ErrorResponse(c, http.StatusNotFound, model.ErrCodeNotFound, "Vendor liability not found")
	case errors.Is(err, model.ErrInvalidState):
		response.ErrorResponse(c, http.StatusConflict, model.ErrCodeInvalidState, "Operation invalid for current liability status")
	case errors.Is(err, model.ErrOverRecovery):
		response.ErrorResponse(c, http.StatusConflict, model.ErrCodeOverRecovery, "Recovery exceeds outstanding balance")
	default:
		response.ErrorResponse(c, http.StatusInternalServerError, "LIA500", "Internal server error")
	}
}
