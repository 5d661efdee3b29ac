package jobs

import "github.com/hibiken/asynq"

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskBlogPublishDue publishes scheduled posts whose time has passed.
	TaskBlogPublishDue = "blog:publish_due"
	// TaskSitemapRefresh regenerates the public sitemap.
	TaskSitemapRefresh = "site:sitemap_refresh"
)

// NewBlogPublishDueTask constructs the periodic publish task.
func NewBlogPublishDueTask() *asynq.Task {
	return asynq.NewTask(TaskBlogPublishDue, nil)
}

// NewSitemapRefreshTask constructs the sitemap rebuild task.
func NewSitemapRefreshTask() *asynq.Task {
	return asynq.NewTask(TaskSitemapRefresh, nil)
}
