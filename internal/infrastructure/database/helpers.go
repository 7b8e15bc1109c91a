package database

import (
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
)

// Close đóng pool. Gọi nhiều lần vẫn an toàn.
func (db *PostgresDB) Close() error {
	if db.Pool == nil {
		return nil
	}

	log.Info().Msg("[DATABASE] Closing database connection pool...")
	db.Pool.Close()
	db.Pool = nil
	log.Info().Msg("[DATABASE] Connection pool closed successfully")
	return nil
}

// PoolStats là snapshot pool statistics, trả ra ở /health
type PoolStats struct {
	TotalConns         int32         `json:"total_conns"`
	MaxConns           int32         `json:"max_conns"`
	AcquiredConns      int32         `json:"acquired_conns"`
	IdleConns          int32         `json:"idle_conns"`
	AcquireCount       int64         `json:"acquire_count"`
	EmptyAcquireCount  int64         `json:"empty_acquire_count"`
	AvgAcquireDuration time.Duration `json:"avg_acquire_duration_ns"`
}

func (db *PostgresDB) Stats() (*PoolStats, error) {
	if db.Pool == nil {
		return nil, fmt.Errorf("database pool is not initialized")
	}

	raw := db.Pool.Stat()
	return &PoolStats{
		TotalConns:         raw.TotalConns(),
		MaxConns:           raw.MaxConns(),
		AcquiredConns:      raw.AcquiredConns(),
		IdleConns:          raw.IdleConns(),
		AcquireCount:       raw.AcquireCount(),
		EmptyAcquireCount:  raw.EmptyAcquireCount(),
		AvgAcquireDuration: calculateAvgDuration(raw.AcquireDuration(), raw.AcquireCount()),
	}, nil
}

func calculateAvgDuration(totalDuration time.Duration, count int64) time.Duration {
	if count == 0 {
		return 0
	}
	return totalDuration / time.Duration(count)
}
