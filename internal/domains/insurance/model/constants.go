package model

// =====================================================
// LEDGER ENTRY TYPES
// =====================================================
const (
	EntryTypeContribution = "contribution"
	EntryTypeWithdrawal   = "withdrawal"
)

var ValidEntryTypes = []string{
	EntryTypeContribution,
	EntryTypeWithdrawal,
}

// =====================================================
// POLICY
// =====================================================
const (
	// ContributionRateBps is the fund levy on settled payments, in basis
	// points. 250 bps = 2.5%.
	ContributionRateBps = 250
	BpsDivisor          = 10000

	// LowBalanceThreshold triggers an alert event when the fund drops
	// below it after a withdrawal.
	LowBalanceThreshold int64 = 5000000
)

// ContributionFor returns the fund levy for a settled payment amount,
// truncated toward zero.
func ContributionFor(transactionAmount int64) int64 {
	return transactionAmount * ContributionRateBps / BpsDivisor
}

// =====================================================
// INTERNAL ERROR CODES
// =====================================================
const (
	ErrCodeInvalidRequest = "INS001"
	ErrCodeInvalidAmount  = "INS002"
)
