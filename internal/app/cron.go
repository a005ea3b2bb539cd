package app

import (
	"context"
	"errors"
	"time"

	"github.com/mx-space/publisher/internal/modules/content/post"
	pkgcron "github.com/mx-space/publisher/internal/pkg/cron"
	"github.com/mx-space/publisher/internal/pkg/tenant"
	"go.uber.org/zap"
)

const promoteJob = "promote_scheduled_posts"

// registerCronJobs registers all scheduled background jobs.
func registerCronJobs(sched *pkgcron.Scheduler, lookup *tenant.Lookup, posts *post.Service, logger *zap.Logger) {
	cronLogger := logger.Named("CronService")

	sched.Register(pkgcron.Job{
		Name:     promoteJob,
		Interval: time.Minute,
		Fn: func(ctx context.Context) error {
			ids, err := lookup.Active(ctx)
			if err != nil {
				return err
			}
			now := time.Now()
			var errs []error
			for _, id := range ids {
				n, err := posts.PromoteDue(ctx, id, now)
				if err != nil {
					errs = append(errs, err)
					continue
				}
				if n > 0 {
					cronLogger.Info("scheduled posts published", zap.Stringer("tenant", id), zap.Int64("count", n))
				}
			}
			return errors.Join(errs...)
		},
	})
}
