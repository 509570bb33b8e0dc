package model

// =====================================================
// DISPUTE STATUS
// =====================================================
const (
	StatusOpen        = "open"
	StatusUnderReview = "under_review"
	StatusMediation   = "mediation"
	StatusResolved    = "resolved"
	StatusEscalated   = "escalated"
)

var ValidStatuses = []string{
	StatusOpen,
	StatusUnderReview,
	StatusMediation,
	StatusResolved,
	StatusEscalated,
}

// ActiveStatuses are the states that block opening another dispute on the
// same refund.
var ActiveStatuses = []string{
	StatusOpen,
	StatusUnderReview,
	StatusMediation,
	StatusEscalated,
}

// =====================================================
// RESOLUTION TYPES
// =====================================================
const (
	ResolutionFullRefund    = "full_refund"
	ResolutionPartialRefund = "partial_refund"
	ResolutionNoRefund      = "no_refund"
)

var ValidResolutions = []string{
	ResolutionFullRefund,
	ResolutionPartialRefund,
	ResolutionNoRefund,
}

// =====================================================
// INTERNAL ERROR CODES
// =====================================================
const (
	ErrCodeInvalidRequest  = "DSP001"
	ErrCodeNotFound        = "DSP002"
	ErrCodeAlreadyActive   = "DSP003"
	ErrCodeInvalidState    = "DSP004"
	ErrCodeRefundNotOpen   = "DSP005"
	ErrCodeInvalidAmount   = "DSP006"
	ErrCodeMissingResponse = "DSP007"
)
