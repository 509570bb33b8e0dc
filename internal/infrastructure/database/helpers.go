package database

import (
	"fmt"
	"log"
	"time"
)

// PoolStats is a point-in-time snapshot of the connection pool, exposed by
// the diagnostics endpoint.
type PoolStats struct {
	TotalConns    int32 `json:"total_connections"`
	IdleConns     int32 `json:"idle_connections"`
	AcquiredConns int32 `json:"acquired_connections"`
	MaxConns      int32 `json:"max_connections"`

	// Lifetime counters, monotonically increasing.
	AcquireCount         int64         `json:"acquire_count"`
	EmptyAcquireCount    int64         `json:"empty_acquire_count"`
	CanceledAcquireCount int64         `json:"canceled_acquire_count"`
	AvgAcquireDuration   time.Duration `json:"avg_acquire_duration_ns"`
}

// Stats snapshots the pool counters.
func (db *PostgresDB) Stats() (*PoolStats, error) {
	if db.Pool == nil {
		return nil, fmt.Errorf("database pool is not initialized")
	}

	raw := db.Pool.Stat()
	return &PoolStats{
		TotalConns:           raw.TotalConns(),
		IdleConns:            raw.IdleConns(),
		AcquiredConns:        raw.AcquiredConns(),
		MaxConns:             raw.MaxConns(),
		AcquireCount:         raw.AcquireCount(),
		EmptyAcquireCount:    raw.EmptyAcquireCount(),
		CanceledAcquireCount: raw.CanceledAcquireCount(),
		AvgAcquireDuration:   avgDuration(raw.AcquireDuration(), raw.AcquireCount()),
	}, nil
}

func avgDuration(total time.Duration, count int64) time.Duration {
	if count == 0 {
		return 0
	}
	return total / time.Duration(count)
}

// Close shuts the pool down and marks it unusable. Safe to call twice.
func (db *PostgresDB) Close() {
	if db.Pool == nil {
		return
	}

	log.Println("[DATABASE] Closing database connection pool...")
	db.Pool.Close()
	db.Pool = nil
	log.Println("[DATABASE] Connection pool closed")
}
