package database

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestAvgDuration(t *testing.T) {
	tests := []struct {
		name  string
		total time.Duration
		count int64
		want  time.Duration
	}{
		{name: "no acquires yet", total: 0, count: 0, want: 0},
		{name: "single acquire", total: 40 * time.Millisecond, count: 1, want: 40 * time.Millisecond},
		{name: "averages across acquires", total: 300 * time.Millisecond, count: 4, want: 75 * time.Millisecond},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, avgDuration(tt.total, tt.count))
		})
	}
}

func TestStats_RequiresPool(t *testing.T) {
	db := &PostgresDB{}

	stats, err := db.Stats()
	assert.Error(t, err)
	assert.Nil(t, stats)
}

func TestClose_NilPoolIsNoop(t *testing.T) {
	db := &PostgresDB{}

	assert.NotPanics(t, func() {
		db.Close()
		db.Close()
	})
}
