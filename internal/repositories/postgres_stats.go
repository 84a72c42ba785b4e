package repositories

import (
	"context"
	"fmt"
	"time"

	"github.com/cliptube/backend/internal/db"
	"github.com/cliptube/backend/internal/models"
)

// PostgresStatsRepository computes platform-wide totals for the dashboard.
type PostgresStatsRepository struct {
	pool db.Pool
}

// NewPostgresStatsRepository constructs a stats repository backed by PostgreSQL.
func NewPostgresStatsRepository(pool db.Pool) *PostgresStatsRepository {
	return &PostgresStatsRepository{pool: pool}
}

// Totals counts the core entity tables in a single round trip.
func (r *PostgresStatsRepository) Totals(ctx context.Context) (models.Stats, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return models.Stats{}, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	row := conn.QueryRow(ctx, `
        SELECT
            (SELECT COUNT(*) FROM users),
            (SELECT COUNT(*) FROM videos),
            (SELECT COUNT(*) FROM tweets),
            (SELECT COUNT(*) FROM comments),
            (SELECT COUNT(*) FROM likes)
    `)

	var stats models.Stats
	if err := row.Scan(&stats.Users, &stats.Videos, &stats.Tweets, &stats.Comments, &stats.Likes); err != nil {
		return models.Stats{}, fmt.Errorf("select totals: %w", err)
	}

	stats.FetchedAt = time.Now().UTC()
	return stats, nil
}
