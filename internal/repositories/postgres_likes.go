package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/cliptube/backend/internal/db"
	"github.com/cliptube/backend/internal/models"
)

// LikeTarget identifies what a like attaches to. Exactly one target per like.
type LikeTarget struct {
	VideoID   string
	CommentID string
	TweetID   string
}

func (t LikeTarget) valid() bool {
	set := 0
	for _, id := range []string{t.VideoID, t.CommentID, t.TweetID} {
		if id != "" {
			set++
		}
	}
	return set == 1
}

// PostgresLikeRepository provides PostgreSQL-backed persistence for likes.
type PostgresLikeRepository struct {
	pool db.Pool
}

// NewPostgresLikeRepository constructs a like repository backed by PostgreSQL.
func NewPostgresLikeRepository(pool db.Pool) *PostgresLikeRepository {
	return &PostgresLikeRepository{pool: pool}
}

// Toggle flips the like state for the user on the target. It returns true
// when the call created a like and false when it removed one.
func (r *PostgresLikeRepository) Toggle(ctx context.Context, like models.Like) (bool, error) {
	target := LikeTarget{VideoID: like.VideoID, CommentID: like.CommentID, TweetID: like.TweetID}
	if !target.valid() {
		return false, fmt.Errorf("like must reference exactly one target")
	}

	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return false, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	tag, err := conn.Exec(ctx, `
        DELETE FROM likes
        WHERE liked_by = $1
          AND video_id IS NOT DISTINCT FROM $2
          AND comment_id IS NOT DISTINCT FROM $3
          AND tweet_id IS NOT DISTINCT FROM $4
    `, like.LikedBy, nullable(like.VideoID), nullable(like.CommentID), nullable(like.TweetID))
	if err != nil {
		return false, fmt.Errorf("delete like: %w", err)
	}
	if tag.RowsAffected() > 0 {
		return false, nil
	}

	_, err = conn.Exec(ctx, `
        INSERT INTO likes (id, video_id, comment_id, tweet_id, liked_by, created_at)
        VALUES ($1, $2, $3, $4, $5, $6)
    `, like.ID, nullable(like.VideoID), nullable(like.CommentID), nullable(like.TweetID), like.LikedBy, time.Now().UTC())
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) {
			switch pgErr.Code {
			case "23505":
				// A concurrent toggle won the insert race; treat as liked.
				return true, nil
			case "23503":
				return false, ErrNotFound
			}
		}
		return false, fmt.Errorf("insert like: %w", err)
	}

	return true, nil
}

// ListLikedVideos returns the videos a user has liked, newest like first.
func (r *PostgresLikeRepository) ListLikedVideos(ctx context.Context, userID string) ([]models.Video, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	rows, err := conn.Query(ctx, `
        SELECT `+videoColumnsWith(`v`)+`
        FROM likes l
        JOIN videos v ON v.id = l.video_id
        WHERE l.liked_by = $1 AND l.video_id IS NOT NULL
        ORDER BY l.created_at DESC
    `, userID)
	if err != nil {
		return nil, fmt.Errorf("query liked videos: %w", err)
	}
	defer rows.Close()

	var videos []models.Video
	for rows.Next() {
		var video models.Video
		if err := rows.Scan(videoScanDest(&video)...); err != nil {
			return nil, fmt.Errorf("scan liked video: %w", err)
		}
		videos = append(videos, video)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate liked videos: %w", err)
	}

	return videos, nil
}

func nullable(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
