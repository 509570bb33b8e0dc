package service

import (
	"github.com/shopspring/decimal"

	"refund-backend/internal/domains/dispute/model"
	refundModel "refund-backend/internal/domains/refund/model"
)

// =====================================================
// RESOLUTION RECOMMENDATION
// =====================================================

var (
	confidenceFloor = decimal.NewFromFloat(0.10)
	confidenceCeil  = decimal.NewFromFloat(0.95)

	evidenceWeight    = decimal.NewFromFloat(0.05)
	highValueDiscount = decimal.NewFromFloat(0.20)

	partialShare = decimal.NewFromFloat(0.5)
)

// RecommendResolution scores an advisory outcome from the refund's reason
// category and the dispute's evidence. High-value refunds get their
// confidence discounted: a human should look harder, not trust the heuristic
// more.
func RecommendResolution(refund *refundModel.RefundRequest, dispute *model.Dispute) model.Recommendation {
	category := refundModel.ReasonCategories[refund.ReasonCategory]

	var (
		resolutionType string
		confidence     decimal.Decimal
		rationale      []string
	)

	switch {
	case category.VendorImpact:
		resolutionType = model.ResolutionFullRefund
		confidence = decimal.NewFromFloat(0.75)
		rationale = append(rationale, "vendor-fault reason category favors the customer")

	case category.ApprovalLevel == refundModel.ApprovalLevelCritical:
		resolutionType = model.ResolutionNoRefund
		confidence = decimal.NewFromFloat(0.85)
		rationale = append(rationale, "critical-risk reason category requires fraud review before payout")

	default:
		resolutionType = model.ResolutionPartialRefund
		confidence = decimal.NewFromFloat(0.55)
		rationale = append(rationale, "customer-initiated reason suggests splitting the difference")
	}

	// Customer evidence pushes toward the customer's side.
	evidenceCount := len(dispute.EvidenceRefs)
	if evidenceCount > 4 {
		evidenceCount = 4
	}
	if evidenceCount > 0 {
		boost := evidenceWeight.Mul(decimal.NewFromInt(int64(evidenceCount)))
		if resolutionType == model.ResolutionNoRefund {
			confidence = confidence.Sub(boost)
			rationale = append(rationale, "customer evidence weakens the denial")
		} else {
			confidence = confidence.Add(boost)
			rationale = append(rationale, "customer evidence supports the claim")
		}
	}

	if refund.Amount >= refundModel.HighValueThreshold {
		confidence = confidence.Sub(highValueDiscount)
		rationale = append(rationale, "high-value refund needs closer human review")
	}

	if confidence.LessThan(confidenceFloor) {
		confidence = confidenceFloor
	}
	if confidence.GreaterThan(confidenceCeil) {
		confidence = confidenceCeil
	}

	var amount int64
	switch resolutionType {
	case model.ResolutionFullRefund:
		amount = refund.Amount
	case model.ResolutionPartialRefund:
		amount = decimal.NewFromInt(refund.Amount).Mul(partialShare).IntPart()
	}

	return model.Recommendation{
		ResolutionType:    resolutionType,
		RecommendedAmount: amount,
		Confidence:        confidence,
		Rationale:         rationale,
	}
}
