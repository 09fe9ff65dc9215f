package dao

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// RowQuerier is the part of *pgxpool.Pool the atomic counter uses.
type RowQuerier interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// The conflict branch only updates when the window expired or the count is
// still under the limit; a denied hit matches no row and returns nothing.
const hitRateLimitSQL = `
INSERT INTO rate_limits (id, principal_id, endpoint, request_count, window_start, created_at, updated_at)
VALUES ($1, $2, $3, 1, $4, $4, $4)
ON CONFLICT (principal_id, endpoint) DO UPDATE SET
	request_count = CASE WHEN rate_limits.window_start < $5 THEN 1 ELSE rate_limits.request_count + 1 END,
	window_start  = CASE WHEN rate_limits.window_start < $5 THEN $4 ELSE rate_limits.window_start END,
	updated_at    = $4
WHERE rate_limits.window_start < $5 OR rate_limits.request_count < $6
RETURNING request_count`

// AtomicRateLimitDAO performs check-and-increment in one statement against
// the same rate_limits table the gorm DAO migrates.
type AtomicRateLimitDAO struct {
	DB RowQuerier
}

func NewAtomicRateLimitDAO(db RowQuerier) *AtomicRateLimitDAO {
	return &AtomicRateLimitDAO{DB: db}
}

func (dao *AtomicRateLimitDAO) Hit(ctx context.Context, principalID, endpoint string, max int, window time.Duration, now time.Time) (int, bool, error) {
	expiredBefore := now.Add(-window)
	var count int
	err := dao.DB.QueryRow(ctx, hitRateLimitSQL,
		uuid.New().String(), principalID, endpoint, now, expiredBefore, max,
	).Scan(&count)
	if errors.Is(err, pgx.ErrNoRows) {
		return max, false, nil
	}
	if err != nil {
		return 0, false, err
	}
	return count, true, nil
}
