package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestContributionFor(t *testing.T) {
	tests := []struct {
		name     string
		amount   int64
		expected int64
	}{
		{name: "2.5 percent of a round amount", amount: 100_000, expected: 2500},
		{name: "truncates to whole minor units", amount: 39, expected: 0},
		{name: "one minor unit at the boundary", amount: 40, expected: 1},
		{name: "large payment", amount: 10_000_000, expected: 250_000},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, ContributionFor(tt.amount))
		})
	}
}
