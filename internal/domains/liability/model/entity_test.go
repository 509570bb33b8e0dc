package model

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestVendorLiability_Outstanding(t *testing.T) {
	l := VendorLiability{Amount: 100_000, RecoveredAmount: 30_000}
	assert.Equal(t, int64(70_000), l.Outstanding())

	settled := VendorLiability{Amount: 100_000, RecoveredAmount: 100_000}
	assert.Equal(t, int64(0), settled.Outstanding())
}

func TestVendorLiability_StatusGates(t *testing.T) {
	open := []string{StatusPending, StatusAcknowledged, StatusDisputed, StatusPartiallyRecovered}
	closed := []string{StatusRecovered, StatusWrittenOff, StatusWaived}

	for _, status := range open {
		l := VendorLiability{Status: status}
		assert.True(t, l.IsOpen(), "expected %s to be open", status)
		assert.True(t, l.CanRecordRecovery(), "expected %s to accept recoveries", status)
		assert.True(t, l.CanBeWrittenOff(), "expected %s to be writable off", status)
	}
	for _, status := range closed {
		l := VendorLiability{Status: status}
		assert.False(t, l.IsOpen(), "expected %s to be closed", status)
		assert.False(t, l.CanRecordRecovery())
		assert.False(t, l.CanBeWrittenOff())
	}

	assert.True(t, (&VendorLiability{Status: StatusPending}).CanBeAcknowledged())
	assert.False(t, (&VendorLiability{Status: StatusAcknowledged}).CanBeAcknowledged())

	assert.True(t, (&VendorLiability{Status: StatusPending}).CanBeDisputed())
	assert.True(t, (&VendorLiability{Status: StatusAcknowledged}).CanBeDisputed())
	assert.False(t, (&VendorLiability{Status: StatusDisputed}).CanBeDisputed())
	assert.False(t, (&VendorLiability{Status: StatusPartiallyRecovered}).CanBeDisputed(),
		"a claim under recovery can no longer be contested")

	assert.True(t, (&VendorLiability{Status: StatusPending}).CanBeWaived())
	assert.True(t, (&VendorLiability{Status: StatusAcknowledged}).CanBeWaived())
	assert.False(t, (&VendorLiability{Status: StatusPartiallyRecovered}).CanBeWaived(),
		"waiving is blocked once recovery has started")
}

func TestVendorLiability_OverdueAt(t *testing.T) {
	due := time.Date(2026, 4, 15, 0, 0, 0, 0, time.UTC)

	open := VendorLiability{Status: StatusAcknowledged, DueAt: due}
	assert.False(t, open.OverdueAt(due.Add(-time.Hour)))
	assert.True(t, open.OverdueAt(due.Add(time.Hour)))

	recovered := VendorLiability{Status: StatusRecovered, DueAt: due}
	assert.False(t, recovered.OverdueAt(due.Add(time.Hour)))
}
