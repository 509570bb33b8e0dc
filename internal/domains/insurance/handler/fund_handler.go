package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"refund-backend/internal/domains/insurance/model"
	"refund-backend/internal/domains/insurance/service"
	refundModel "refund-backend/internal/domains/refund/model"
	"refund-backend/internal/shared/middleware"
	"refund-backend/internal/shared/response"
)

// =====================================================
// INSURANCE FUND HANDLER
// =====================================================

type FundHandler struct {
	fundService service.FundServiceInterface
}

func NewFundHandler(fundService service.FundServiceInterface) *FundHandler {
	return &FundHandler{fundService: fundService}
}

func (h *FundHandler) RegisterRoutes(rg *gin.RouterGroup) {
	fund := rg.Group("/insurance-fund")
	{
		fund.GET("/balance", h.Balance)
		fund.GET("/transactions", h.ListEntries)
		fund.GET("/stats", h.Stats)

		finance := fund.Group("")
		finance.Use(middleware.RequireRole(refundModel.RoleFinanceManager))
		{
			finance.POST("/contributions", h.Contribute)
		}
	}
}

func (h *FundHandler) Balance(c *gin.Context) {
	balance, err := h.fundService.Balance(c.Request.Context(), middleware.TenantID(c))
	if err != nil {
		mapFundError(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{
		"balance":     balance,
		"low_balance": balance < model.LowBalanceThreshold,
	})
}

func (h *FundHandler) ListEntries(c *gin.Context) {
	var query model.ListEntriesQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		response.ErrorResponse(c, http.StatusBadRequest, model.ErrCodeInvalidRequest, "Invalid query parameters")
		return
	}
	query.Normalize()

	entries, total, err := h.fundService.ListEntries(c.Request.Context(), middleware.TenantID(c), query)
	if err != nil {
		mapFundError(c, err)
		return
	}

	response.SuccessWithMeta(c, http.StatusOK, entries, &response.Meta{
		Page:  query.Page,
		Limit: query.Limit,
		Total: total,
	})
}

func (h *FundHandler) Stats(c *gin.Context) {
	stats, err := h.fundService.Stats(c.Request.Context(), middleware.TenantID(c))
	if err != nil {
		mapFundError(c, err)
		return
	}

	response.Success(c, http.StatusOK, stats)
}

func (h *FundHandler) Contribute(c *gin.Context) {
	var req model.ContributeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ErrorResponse(c, http.StatusBadRequest, model.ErrCodeInvalidRequest, "Invalid request body")
		return
	}

	entry, err := h.fundService.Contribute(c.Request.Context(), middleware.TenantID(c), middleware.Actor(c), req)
	if err != nil {
		mapFundError(c, err)
		return
	}

	response.Success(c, http.StatusCreated, entry)
}

func mapFundError(c *gin.Context, err error) {
	var fundErr *model.FundError
	if errors.As(err, &fundErr) {
		switch fundErr.Code {
		case model.ErrCodeInvalidRequest:
			response.ErrorResponse(c, http.StatusBadRequest, fundErr.Code, fundErr.Message)
		case model.ErrCodeInvalidAmount:
			response.ErrorResponse(c, http.StatusUnprocessableEntity, fundErr.Code, fundErr.Message)
		default:
			response.ErrorResponse(c, http.StatusInternalServerError, fundErr.Code, fundErr.Message)
		}
		return
	}

	response.ErrorResponse(c, http.StatusInternalServerError, "INS500", "Internal server error")
}
