// folio/sources/psql/dao/dao.rate_limit.go
package dao

import (
	"context"
	"errors"
	"time"

	"folio/folio/sources/psql/models"

	"gorm.io/gorm"
)

// RateLimitDAO keeps fixed-window counters with separate read and write
// statements. Concurrent hits for the same key can overshoot the limit by a
// few requests; AtomicRateLimitDAO closes that gap on postgres.
type RateLimitDAO struct {
	DB *gorm.DB
}

func NewRateLimitDAO(db *gorm.DB) *RateLimitDAO {
	return &RateLimitDAO{DB: db}
}

// Hit records one request for (principalID, endpoint) and returns the count
// inside the current window and whether the request may proceed. A denied
// request leaves the row untouched.
func (dao *RateLimitDAO) Hit(ctx context.Context, principalID, endpoint string, max int, window time.Duration, now time.Time) (int, bool, error) {
	var rec models.RateLimit
	err := dao.DB.WithContext(ctx).
		Where("principal_id = ? AND endpoint = ?", principalID, endpoint).
		First(&rec).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		rec = models.RateLimit{
			PrincipalID:  principalID,
			Endpoint:     endpoint,
			RequestCount: 1,
			WindowStart:  now,
		}
		if err := dao.DB.WithContext(ctx).Create(&rec).Error; err != nil {
			return 0, false, err
		}
		return 1, true, nil
	}
	if err != nil {
		return 0, false, err
	}

	if now.Sub(rec.WindowStart) > window {
		err := dao.DB.WithContext(ctx).
			Model(&models.RateLimit{}).
			Where("id = ?", rec.ID).
			Updates(map[string]interface{}{
				"request_count": 1,
				"window_start":  now,
				"updated_at":    now,
			}).Error
		if err != nil {
			return 0, false, err
		}
		return 1, true, nil
	}

	if rec.RequestCount >= max {
		return rec.RequestCount, false, nil
	}

	err = dao.DB.WithContext(ctx).
		Model(&models.RateLimit{}).
		Where("id = ?", rec.ID).
		Updates(map[string]interface{}{
			"request_count": gorm.Expr("request_count + ?", 1),
			"updated_at":    now,
		}).Error
	if err != nil {
		return 0, false, err
	}
	return rec.RequestCount + 1, true, nil
}

// Get returns the counter row, or nil when none exists.
func (dao *RateLimitDAO) Get(ctx context.Context, principalID, endpoint string) (*models.RateLimit, error) {
	var rec models.RateLimit
	err := dao.DB.WithContext(ctx).
		Where("principal_id = ? AND endpoint = ?", principalID, endpoint).
		First(&rec).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

// PurgeBefore deletes counters whose window started before cutoff.
func (dao *RateLimitDAO) PurgeBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	res := dao.DB.WithContext(ctx).
		Where("window_start < ?", cutoff).
		Delete(&models.RateLimit{})
	return res.RowsAffected, res.Error
}
