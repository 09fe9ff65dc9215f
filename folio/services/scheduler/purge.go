// Package scheduler runs periodic maintenance jobs.
package scheduler

import (
	"context"
	"time"

	"folio/folio/utils/logging"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

const purgeTimeout = 30 * time.Second

// Purger deletes rate-limit counters whose window started before cutoff.
type Purger interface {
	PurgeBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

// PurgeJob removes counters whose window ended more than one window ago.
// It implements cron.Job.
type PurgeJob struct {
	purger Purger
	window time.Duration
	now    func() time.Time
}

func NewPurgeJob(purger Purger, window time.Duration) *PurgeJob {
	return &PurgeJob{purger: purger, window: window, now: func() time.Time { return time.Now().UTC() }}
}

// Cutoff is the oldest window start that is kept.
func (j *PurgeJob) Cutoff() time.Time {
	return j.now().Add(-2 * j.window)
}

func (j *PurgeJob) Run() {
	ctx, cancel := context.WithTimeout(context.Background(), purgeTimeout)
	defer cancel()
	defer logging.LogDuration(ctx, "rate_limit_purge")()

	cutoff := j.Cutoff()
	n, err := j.purger.PurgeBefore(ctx, cutoff)
	if err != nil {
		logging.ErrorLogger.Error("rate limit purge failed", zap.Time("cutoff", cutoff), zap.Error(err))
		return
	}
	logging.AppLogger.Info("rate limit purge", zap.Int64("deleted", n), zap.Time("cutoff", cutoff))
}

// Start schedules job on a new cron and starts it. Stop the returned cron on
// shutdown.
func Start(schedule string, job cron.Job) (*cron.Cron, error) {
	c := cron.New(cron.WithChain(cron.Recover(cron.DefaultLogger), cron.SkipIfStillRunning(cron.DefaultLogger)))
	if _, err := c.AddJob(schedule, job); err != nil {
		return nil, err
	}
	c.Start()
	return c, nil
}
