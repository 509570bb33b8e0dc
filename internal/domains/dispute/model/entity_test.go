package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDispute_StatusGates(t *testing.T) {
	for _, status := range []string{StatusOpen, StatusUnderReview, StatusMediation, StatusEscalated} {
		d := Dispute{Status: status}
		assert.True(t, d.IsActive(), "expected %s to be active", status)
		assert.True(t, d.CanBeResolved(), "expected %s to accept a resolution", status)
	}

	resolved := Dispute{Status: StatusResolved}
	assert.False(t, resolved.IsActive())
	assert.False(t, resolved.CanBeResolved())

	assert.True(t, (&Dispute{Status: StatusOpen}).CanReceiveResponse())
	assert.False(t, (&Dispute{Status: StatusUnderReview}).CanReceiveResponse(),
		"only one company response per dispute")

	assert.False(t, (&Dispute{Status: StatusOpen}).CanBeEscalated(),
		"escalation waits for the company response")
	assert.True(t, (&Dispute{Status: StatusUnderReview}).CanBeEscalated())
	assert.True(t, (&Dispute{Status: StatusEscalated}).CanBeEscalated())
	assert.False(t, (&Dispute{Status: StatusResolved}).CanBeEscalated())
}
