package model

// =====================================================
// REFUND STATUS
// =====================================================
const (
	StatusPending            = "pending"
	StatusPendingReview      = "pending_review"
	StatusUnderInvestigation = "under_investigation"
	StatusPendingManager     = "pending_manager"
	StatusPendingFinance     = "pending_finance"
	StatusApproved           = "approved"
	StatusRejected           = "rejected"
	StatusProcessing         = "processing"
	StatusCompleted          = "completed"
	StatusFailed             = "failed"
	StatusDisputed           = "disputed"
	StatusCancelled          = "cancelled"
)

var ValidStatuses = []string{
	StatusPending,
	StatusPendingReview,
	StatusUnderInvestigation,
	StatusPendingManager,
	StatusPendingFinance,
	StatusApproved,
	StatusRejected,
	StatusProcessing,
	StatusCompleted,
	StatusFailed,
	StatusDisputed,
	StatusCancelled,
}

// PendingStatuses are the states that count against an order's refundable
// balance together with completed refunds.
var PendingStatuses = []string{
	StatusPending,
	StatusPendingReview,
	StatusUnderInvestigation,
	StatusPendingManager,
	StatusPendingFinance,
	StatusApproved,
	StatusProcessing,
}

// =====================================================
// REFUND METHOD
// =====================================================
const (
	MethodOriginal     = "original_method"
	MethodBankTransfer = "bank_transfer"
	MethodCash         = "cash"
	MethodStoreCredit  = "store_credit"
	MethodManual       = "manual"
	MethodGopay        = "gopay"
	MethodQRIS         = "qris"
)

var ValidMethods = []string{
	MethodOriginal,
	MethodBankTransfer,
	MethodCash,
	MethodStoreCredit,
	MethodManual,
	MethodGopay,
	MethodQRIS,
}

// =====================================================
// PROCESSING FEES (minor units / basis points)
// =====================================================
const (
	// Percentage fee for refunds routed back through the original gateway,
	// in basis points (250 = 2.5%).
	FeeOriginalMethodBps = 250

	FeeBankTransferFlat = 5000
	FeeManualFlat       = 10000
)

// FeeFor returns the processing fee for a method, truncating percentage
// fees to whole minor units.
func FeeFor(method string, amount int64) int64 {
	switch method {
	case MethodOriginal, MethodGopay, MethodQRIS:
		return amount * FeeOriginalMethodBps / 10000
	case MethodBankTransfer:
		return FeeBankTransferFlat
	case MethodManual:
		return FeeManualFlat
	default:
		// cash and store credit carry no fee
		return 0
	}
}

// =====================================================
// APPROVAL LEVELS
// =====================================================
const (
	ApprovalLevelLow      = "low"
	ApprovalLevelMedium   = "medium"
	ApprovalLevelHigh     = "high"
	ApprovalLevelCritical = "critical"
)

// ReasonCategory drives which approval steps a refund needs and whether the
// vendor is on the hook for the loss.
type ReasonCategory struct {
	ApprovalLevel string
	VendorImpact  bool
}

var ReasonCategories = map[string]ReasonCategory{
	"damaged_product":        {ApprovalLevel: ApprovalLevelMedium, VendorImpact: true},
	"wrong_item":             {ApprovalLevel: ApprovalLevelMedium, VendorImpact: true},
	"not_as_described":       {ApprovalLevel: ApprovalLevelMedium, VendorImpact: true},
	"quality_issue":          {ApprovalLevel: ApprovalLevelMedium, VendorImpact: true},
	"late_delivery":          {ApprovalLevel: ApprovalLevelLow, VendorImpact: true},
	"customer_changed_mind":  {ApprovalLevel: ApprovalLevelLow, VendorImpact: false},
	"duplicate_order":        {ApprovalLevel: ApprovalLevelLow, VendorImpact: false},
	"fraudulent_transaction": {ApprovalLevel: ApprovalLevelCritical, VendorImpact: false},
	"service_failure":        {ApprovalLevel: ApprovalLevelHigh, VendorImpact: false},
	"other":                  {ApprovalLevel: ApprovalLevelMedium, VendorImpact: false},
}

// ValidReasonCategories is derived once for DTO validation.
var ValidReasonCategories = func() []string {
	keys := make([]string, 0, len(ReasonCategories))
	for k := range ReasonCategories {
		keys = append(keys, k)
	}
	return keys
}()

// =====================================================
// WORKFLOW STEPS
// =====================================================
const (
	StepInitialReview     = "initial_review"
	StepManagerApproval   = "manager_approval"
	StepFinanceApproval   = "finance_approval"
	StepExecutiveApproval = "executive_approval"
)

const (
	DecisionPending   = "pending"
	DecisionApproved  = "approved"
	DecisionRejected  = "rejected"
	DecisionNeedsInfo = "needs_info"
)

var ValidDecisions = []string{
	DecisionApproved,
	DecisionRejected,
	DecisionNeedsInfo,
}

// Approver roles per step.
const (
	RoleCustomerService = "customer_service"
	RoleManager         = "manager"
	RoleFinanceManager  = "finance_manager"
	RoleExecutive       = "executive"
	RoleAdmin           = "admin"
)

// SLA hours per step type.
var StepSLAHours = map[string]int{
	StepInitialReview:     24,
	StepManagerApproval:   48,
	StepFinanceApproval:   72,
	StepExecutiveApproval: 96,
}

// EscalationRoleByLevel maps an approval level to the role that takes over
// when a step goes stale past the grace window.
var EscalationRoleByLevel = map[string]string{
	ApprovalLevelLow:    RoleManager,
	ApprovalLevelMedium: RoleFinanceManager,
	ApprovalLevelHigh:   RoleExecutive,
}

// EscalationRoleFor falls back to admin for unmapped levels.
func EscalationRoleFor(level string) string {
	if role, ok := EscalationRoleByLevel[level]; ok {
		return role
	}
	return RoleAdmin
}

// =====================================================
// AMOUNT THRESHOLDS (minor units)
// =====================================================
const (
	// MinRefundAmount rejects dust requests at validation time.
	MinRefundAmount = 1000

	// ThresholdManager forces a manager step.
	ThresholdManager = 250_000

	// ThresholdFinance forces a finance step and disables auto-approval.
	ThresholdFinance = 1_000_000

	// ThresholdExecutive forces an executive step.
	ThresholdExecutive = 5_000_000

	// HighValueThreshold: refunds at or above this always go through a
	// workflow regardless of reason category.
	HighValueThreshold = 1_000_000
)

// =====================================================
// RETRY POLICY
// =====================================================
const (
	MaxRetryAttempts = 3

	// EscalationGraceHours past the due time before an overdue step is
	// auto-escalated.
	EscalationGraceHours = 48

	// ReferenceAttempts bounds collision-checked reference generation.
	ReferenceAttempts = 5
)

// NonRetryableErrorCodes will never succeed on retry; operator action is
// required instead.
var NonRetryableErrorCodes = map[string]bool{
	"INSUFFICIENT_FUNDS":    true,
	"INVALID_ACCOUNT":       true,
	"ACCOUNT_CLOSED":        true,
	"INVALID_REFUND_AMOUNT": true,
}

// =====================================================
// GATEWAYS
// =====================================================
const (
	GatewayMidtrans = "midtrans"
	GatewayXendit   = "xendit"
	GatewayGopay    = "gopay"
)

// GatewayReferencePrefixes detects the source gateway from a transaction
// reference when metadata does not record it.
var GatewayReferencePrefixes = map[string]string{
	"midtrans_": GatewayMidtrans,
	"xendit_":   GatewayXendit,
	"gopay_":    GatewayGopay,
}

// =====================================================
// INTERNAL ERROR CODES
// =====================================================
const (
	// Validation errors (REF001-REF009)
	ErrCodeInvalidRequest  = "REF001"
	ErrCodeInvalidMethod   = "REF002"
	ErrCodeInvalidCategory = "REF003"
	ErrCodeAmountTooSmall  = "REF004"

	// Eligibility errors (REF010-REF019)
	ErrCodeExceedsRefundable = "REF010"
	ErrCodeTxnNotCompleted   = "REF011"
	ErrCodeOrderNotFound     = "REF012"
	ErrCodeTxnNotFound       = "REF013"
	ErrCodeRefundNotFound    = "REF014"
	ErrCodeStepNotFound      = "REF015"
	ErrCodeApproverNotFound  = "REF016"

	// State errors (REF020-REF039)
	ErrCodeInvalidState       = "REF020"
	ErrCodeNoCurrentStep      = "REF021"
	ErrCodeStepCompleted      = "REF022"
	ErrCodeCannotEscalate     = "REF023"
	ErrCodeRetryNotAllowed    = "REF024"
	ErrCodeRetryLimitExceeded = "REF025"
	ErrCodeCannotCancel       = "REF026"
	ErrCodeNotManualMethod    = "REF027"
	ErrCodeManualMethod       = "REF028"

	// Gateway errors (REF040-REF059)
	ErrCodeNoAdapter       = "REF040"
	ErrCodeGatewayFailed   = "REF041"
	ErrCodeGatewayTimeout  = "REF042"
	ErrCodeUnknownGateway  = "REF043"
	ErrCodeReferenceExists = "REF044"

	// System errors (REF060+)
	ErrCodeInternalError    = "REF060"
	ErrCodeReferenceExhaust = "REF061"
)
