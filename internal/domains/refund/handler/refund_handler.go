package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"refund-backend/internal/domains/refund/model"
	"refund-backend/internal/domains/refund/service"
	"refund-backend/internal/infrastructure/storage"
	"refund-backend/internal/shared/middleware"
	"refund-backend/internal/shared/response"
)

type RefundHandler struct {
	refundService     service.RefundServiceInterface
	approvalService   service.ApprovalServiceInterface
	processingService service.ProcessingServiceInterface
	evidence          *storage.EvidenceStorage
}

func NewRefundHandler(
	refundService service.RefundServiceInterface,
	approvalService service.ApprovalServiceInterface,
	processingService service.ProcessingServiceInterface,
	evidence *storage.EvidenceStorage,
) *RefundHandler {
	return &RefundHandler{
		refundService:     refundService,
		approvalService:   approvalService,
		processingService: processingService,
		evidence:          evidence,
	}
}

// refundID parses the :id path parameter.
func refundID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.ErrorResponse(c, http.StatusBadRequest, model.ErrCodeInvalidRequest, "Invalid refund id")
		return uuid.Nil, false
	}
	return id, true
}

// =====================================================
// LIFECYCLE ENDPOINTS
// =====================================================

// Create handles POST /api/v1/refunds
func (h *RefundHandler) Create(c *gin.Context) {
	var req model.CreateRefundRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ErrorResponse(c, http.StatusBadRequest, model.ErrCodeInvalidRequest, err.Error())
		return
	}

	refund, err := h.refundService.Create(c.Request.Context(), middleware.TenantID(c), middleware.Actor(c), req)
	if err != nil {
		status, code := mapRefundError(err)
		response.ErrorResponse(c, status, code, err.Error())
		return
	}

	response.Success(c, http.StatusCreated, refund)
}

// Get handles GET /api/v1/refunds/:id
func (h *RefundHandler) Get(c *gin.Context) {
	id, ok := refundID(c)
	if !ok {
		return
	}

	refund, err := h.refundService.Get(c.Request.Context(), middleware.TenantID(c), id)
	if err != nil {
		status, code := mapRefundError(err)
		response.ErrorResponse(c, status, code, err.Error())
		return
	}

	response.Success(c, http.StatusOK, refund)
}

// List handles GET /api/v1/refunds
func (h *RefundHandler) List(c *gin.Context) {
	var query model.ListRefundsQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		response.ErrorResponse(c, http.StatusBadRequest, model.ErrCodeInvalidRequest, err.Error())
		return
	}

	refunds, total, err := h.refundService.List(c.Request.Context(), middleware.TenantID(c), query)
	if err != nil {
		status, code := mapRefundError(err)
		response.ErrorResponse(c, status, code, err.Error())
		return
	}

	query.Normalize()
	response.SuccessWithMeta(c, http.StatusOK, refunds, &response.Meta{
		Page:  query.Page,
		Limit: query.Limit,
		Total: total,
	})
}

// Stats handles GET /api/v1/refunds/stats
func (h *RefundHandler) Stats(c *gin.Context) {
	stats, err := h.refundService.Stats(c.Request.Context(), middleware.TenantID(c))
	if err != nil {
		status, code := mapRefundError(err)
		response.ErrorResponse(c, status, code, err.Error())
		return
	}

	response.Success(c, http.StatusOK, stats)
}

// Cancel handles POST /api/v1/refunds/:id/cancel
func (h *RefundHandler) Cancel(c *gin.Context) {
	id, ok := refundID(c)
	if !ok {
		return
	}

	var req model.CancelRefundRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ErrorResponse(c, http.StatusBadRequest, model.ErrCodeInvalidRequest, err.Error())
		return
	}

	refund, err := h.refundService.Cancel(c.Request.Context(), middleware.TenantID(c), id, middleware.Actor(c), req)
	if err != nil {
		status, code := mapRefundError(err)
		response.ErrorResponse(c, status, code, err.Error())
		return
	}

	response.Success(c, http.StatusOK, refund)
}

// AttachEvidence handles POST /api/v1/refunds/:id/evidence
func (h *RefundHandler) AttachEvidence(c *gin.Context) {
	id, ok := refundID(c)
	if !ok {
		return
	}

	var req model.AttachEvidenceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ErrorResponse(c, http.StatusBadRequest, model.ErrCodeInvalidRequest, err.Error())
		return
	}

	if err := h.refundService.AttachEvidence(c.Request.Context(), middleware.TenantID(c), id, middleware.Actor(c), req); err != nil {
		status, code := mapRefundError(err)
		response.ErrorResponse(c, status, code, err.Error())
		return
	}

	response.Success(c, http.StatusOK, gin.H{"attached": true})
}

// EvidenceUploadURL handles POST /api/v1/refunds/:id/evidence/upload-url
func (h *RefundHandler) EvidenceUploadURL(c *gin.Context) {
	id, ok := refundID(c)
	if !ok {
		return
	}

	var req model.EvidenceUploadURLRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ErrorResponse(c, http.StatusBadRequest, model.ErrCodeInvalidRequest, err.Error())
		return
	}
	if err := req.Validate(); err != nil {
		response.ErrorResponse(c, http.StatusBadRequest, model.ErrCodeInvalidRequest, err.Error())
		return
	}

	tenantID := middleware.TenantID(c)

	// The refund must exist in this tenant before we hand out a slot.
	if _, err := h.refundService.Get(c.Request.Context(), tenantID, id); err != nil {
		status, code := mapRefundError(err)
		response.ErrorResponse(c, status, code, err.Error())
		return
	}

	key := storage.ObjectKey(tenantID, id, req.Filename)
	uploadURL, err := h.evidence.PresignUpload(c.Request.Context(), key)
	if err != nil {
		response.ErrorResponse(c, http.StatusInternalServerError, model.ErrCodeInternalError, "Failed to create upload URL")
		return
	}

	response.Success(c, http.StatusOK, gin.H{
		"upload_url": uploadURL,
		"object_key": key,
	})
}

// =====================================================
// PROCESSING ENDPOINTS
// =====================================================

// Process handles POST /api/v1/refunds/:id/process
func (h *RefundHandler) Process(c *gin.Context) {
	id, ok := refundID(c)
	if !ok {
		return
	}

	refund, err := h.processingService.Process(c.Request.Context(), middleware.TenantID(c), id, middleware.Actor(c))
	if err != nil {
		status, code := mapRefundError(err)
		response.ErrorResponse(c, status, code, err.Error())
		return
	}

	response.Success(c, http.StatusOK, refund)
}

// Retry handles POST /api/v1/refunds/:id/retry
func (h *RefundHandler) Retry(c *gin.Context) {
	id, ok := refundID(c)
	if !ok {
		return
	}

	refund, err := h.processingService.Retry(c.Request.Context(), middleware.TenantID(c), id, middleware.Actor(c))
	if err != nil {
		status, code := mapRefundError(err)
		response.ErrorResponse(c, status, code, err.Error())
		return
	}

	response.Success(c, http.StatusOK, refund)
}

// CompleteManual handles POST /api/v1/refunds/:id/complete-manual
func (h *RefundHandler) CompleteManual(c *gin.Context) {
	id, ok := refundID(c)
	if !ok {
		return
	}

	var req model.ManualCompleteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ErrorResponse(c, http.StatusBadRequest, model.ErrCodeInvalidRequest, err.Error())
		return
	}

	refund, err := h.refundService.CompleteManual(c.Request.Context(), middleware.TenantID(c), id, middleware.Actor(c), req)
	if err != nil {
		status, code := mapRefundError(err)
		response.ErrorResponse(c, status, code, err.Error())
		return
	}

	response.Success(c, http.StatusOK, refund)
}

// =====================================================
// WORKFLOW ENDPOINTS
// =====================================================

// ListSteps handles GET /api/v1/refunds/:id/steps
func (h *RefundHandler) ListSteps(c *gin.Context) {
	id, ok := refundID(c)
	if !ok {
		return
	}

	steps, err := h.approvalService.ListSteps(c.Request.Context(), middleware.TenantID(c), id)
	if err != nil {
		status, code := mapRefundError(err)
		response.ErrorResponse(c, status, code, err.Error())
		return
	}

	response.Success(c, http.StatusOK, steps)
}

// Decide handles POST /api/v1/refunds/:id/steps/decision
func (h *RefundHandler) Decide(c *gin.Context) {
	id, ok := refundID(c)
	if !ok {
		return
	}

	var req model.DecideStepRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ErrorResponse(c, http.StatusBadRequest, model.ErrCodeInvalidRequest, err.Error())
		return
	}

	step, err := h.approvalService.Decide(c.Request.Context(), middleware.TenantID(c), id, middleware.Actor(c), req)
	if err != nil {
		status, code := mapRefundError(err)
		response.ErrorResponse(c, status, code, err.Error())
		return
	}

	response.Success(c, http.StatusOK, step)
}

// Escalate handles POST /api/v1/refunds/:id/steps/escalate
func (h *RefundHandler) Escalate(c *gin.Context) {
	id, ok := refundID(c)
	if !ok {
		return
	}

	var req model.EscalateStepRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ErrorResponse(c, http.StatusBadRequest, model.ErrCodeInvalidRequest, err.Error())
		return
	}

	step, err := h.approvalService.Escalate(c.Request.Context(), middleware.TenantID(c), id, middleware.Actor(c), req)
	if err != nil {
		status, code := mapRefundError(err)
		response.ErrorResponse(c, status, code, err.Error())
		return
	}

	response.Success(c, http.StatusOK, step)
}

// RegisterRoutes wires the refund surface under the authenticated group.
func (h *RefundHandler) RegisterRoutes(rg *gin.RouterGroup) {
	refunds := rg.Group("/refunds")
	{
		refunds.POST("", h.Create)
		refunds.GET("", h.List)
		refunds.GET("/stats", h.Stats)
		refunds.GET("/:id", h.Get)
		refunds.POST("/:id/cancel", h.Cancel)
		refunds.POST("/:id/evidence", h.AttachEvidence)
		refunds.POST("/:id/evidence/upload-url", h.EvidenceUploadURL)
		refunds.GET("/:id/steps", h.ListSteps)
		refunds.POST("/:id/steps/decision", h.Decide)
		refunds.POST("/:id/steps/escalate", h.Escalate)

		processing := refunds.Group("")
		processing.Use(middleware.RequireRole(model.RoleFinanceManager))
		{
			processing.POST("/:id/process", h.Process)
			processing.POST("/:id/retry", h.Retry)
			processing.POST("/:id/complete-manual", h.CompleteManual)
		}
	}
}
