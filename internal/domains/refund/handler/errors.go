package handler

import (
	"errors"
	"net/http"

	orderModel "refund-backend/internal/domains/order/model"
	"refund-backend/internal/domains/refund/model"
)

// mapRefundError translates domain errors onto HTTP statuses. Validation
// problems are 400, eligibility rejections 422, state conflicts 409, missing
// entities 404 and gateway trouble 502; anything unrecognized is a 500.
func mapRefundError(err error) (int, string) {
	var refundErr *model.RefundError
	if errors.As(err, &refundErr) {
		switch refundErr.Code {
		case model.ErrCodeInvalidRequest, model.ErrCodeInvalidMethod,
			model.ErrCodeInvalidCategory, model.ErrCodeAmountTooSmall:
			return http.StatusBadRequest, refundErr.Code

		case model.ErrCodeExceedsRefundable, model.ErrCodeTxnNotCompleted:
			return http.StatusUnprocessableEntity, refundErr.Code

		case model.ErrCodeOrderNotFound, model.ErrCodeTxnNotFound,
			model.ErrCodeRefundNotFound, model.ErrCodeStepNotFound:
			return http.StatusNotFound, refundErr.Code

		case model.ErrCodeInvalidState, model.ErrCodeNoCurrentStep,
			model.ErrCodeStepCompleted, model.ErrCodeCannotEscalate,
			model.ErrCodeRetryNotAllowed, model.ErrCodeRetryLimitExceeded,
			model.ErrCodeCannotCancel, model.ErrCodeNotManualMethod,
			model.ErrCodeManualMethod, model.ErrCodeReferenceExists:
			return http.StatusConflict, refundErr.Code

		case model.ErrCodeNoAdapter, model.ErrCodeGatewayFailed,
			model.ErrCodeGatewayTimeout, model.ErrCodeUnknownGateway:
			return http.StatusBadGateway, refundErr.Code

		case model.ErrCodeApproverNotFound:
			return http.StatusUnprocessableEntity, refundErr.Code

		default:
			return http.StatusInternalServerError, refundErr.Code
		}
	}

	switch {
	case errors.Is(err, model.ErrRefundNotFound):
		return http.StatusNotFound, model.ErrCodeRefundNotFound
	case errors.Is(err, model.ErrTransactionNotFound):
		return http.StatusNotFound, model.ErrCodeTxnNotFound
	case errors.Is(err, orderModel.ErrOrderNotFound):
		return http.StatusNotFound, model.ErrCodeOrderNotFound
	case errors.Is(err, model.ErrStepNotFound):
		return http.StatusNotFound, model.ErrCodeStepNotFound
	case errors.Is(err, model.ErrNoCurrentStep):
		return http.StatusConflict, model.ErrCodeNoCurrentStep
	case errors.Is(err, model.ErrStepAlreadyDecided):
		return http.StatusConflict, model.ErrCodeStepCompleted
	case errors.Is(err, model.ErrCannotEscalate):
		return http.StatusConflict, model.ErrCodeCannotEscalate
	}

	return http.StatusInternalServerError, model.ErrCodeInternalError
}
