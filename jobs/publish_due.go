package jobs

import (
	"context"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"

	jobmetrics "github.com/LevyMwanawasaMedicalUniversity/lmmuwebsite-sub002/internal/jobs"
)

// DuePublisher publishes every scheduled post whose publish time has passed.
type DuePublisher interface {
	PublishDue(ctx context.Context, now time.Time) (int64, error)
}

// NewBlogPublishDueHandler builds the handler for TaskBlogPublishDue.
func NewBlogPublishDueHandler(publisher DuePublisher, metrics *jobmetrics.Metrics, logger *slog.Logger) asynq.HandlerFunc {
	return func(ctx context.Context, t *asynq.Task) error {
		tracker := metrics.Track(TaskBlogPublishDue)
		published, err := publisher.PublishDue(ctx, time.Now())
		if err != nil {
			if logger != nil {
				logger.Error("publish due posts", slog.Any("error", err))
			}
			return tracker.End(err)
		}
		if logger != nil && published > 0 {
			logger.Info("published scheduled posts", slog.Int64("count", published))
		}
		return tracker.End(nil)
	}
}
