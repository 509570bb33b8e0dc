package model

// =====================================================
// LIABILITY STATUS
// =====================================================
const (
	StatusPending            = "pending"
	StatusAcknowledged       = "acknowledged"
	StatusDisputed           = "disputed"
	StatusPartiallyRecovered = "partially_recovered"
	StatusRecovered          = "recovered"
	StatusWrittenOff         = "written_off"
	StatusWaived             = "waived"
)

var ValidStatuses = []string{
	StatusPending,
	StatusAcknowledged,
	StatusDisputed,
	StatusPartiallyRecovered,
	StatusRecovered,
	StatusWrittenOff,
	StatusWaived,
}

// OpenStatuses still carry an outstanding balance. A disputed claim stays
// open: the vendor contests it but recovery or write-off can still land.
var OpenStatuses = []string{
	StatusPending,
	StatusAcknowledged,
	StatusDisputed,
	StatusPartiallyRecovered,
}

// =====================================================
// POLICY
// =====================================================
const (
	// ClaimFollowUpDays is how long a vendor has to settle before the
	// claim is flagged for follow-up.
	ClaimFollowUpDays = 45
)

// Risk score weights. The score is 0-100: unrecovered exposure dominates,
// claim volume and write-off history add on top.
const (
	RiskWeightRecovery    = 40
	RiskWeightPerClaim    = 5
	RiskClaimCap          = 30
	RiskWeightPerWriteOff = 10
	RiskScoreMax          = 100
)

// =====================================================
// INTERNAL ERROR CODES
// =====================================================
const (
	ErrCodeInvalidRequest = "LIA001"
	ErrCodeNotFound       = "LIA002"
	ErrCodeInvalidState   = "LIA003"
	ErrCodeOverRecovery   = "LIA004"
)
