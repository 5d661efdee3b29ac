package jobs

import (
	"context"
	"log/slog"

	"github.com/hibiken/asynq"

	jobmetrics "github.com/LevyMwanawasaMedicalUniversity/lmmuwebsite-sub002/internal/jobs"
)

// SitemapRefresher rebuilds the sitemap and stores the result.
type SitemapRefresher interface {
	Refresh(ctx context.Context) error
}

// NewSitemapRefreshHandler builds the handler for TaskSitemapRefresh.
func NewSitemapRefreshHandler(refresher SitemapRefresher, metrics *jobmetrics.Metrics, logger *slog.Logger) asynq.HandlerFunc {
	return func(ctx context.Context, t *asynq.Task) error {
		tracker := metrics.Track(TaskSitemapRefresh)
		if err := refresher.Refresh(ctx); err != nil {
			if logger != nil {
				logger.Error("refresh sitemap", slog.Any("error", err))
			}
			return tracker.End(err)
		}
		return tracker.End(nil)
	}
}
