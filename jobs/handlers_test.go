package jobs

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakePublisher struct {
	published int64
	err       error
	calledAt  time.Time
}

func (f *fakePublisher) PublishDue(ctx context.Context, now time.Time) (int64, error) {
	f.calledAt = now
	return f.published, f.err
}

type fakeRefresher struct {
	calls int
	err   error
}

func (f *fakeRefresher) Refresh(ctx context.Context) error {
	f.calls++
	return f.err
}

func TestBlogPublishDueHandler(t *testing.T) {
	publisher := &fakePublisher{published: 3}
	handler := NewBlogPublishDueHandler(publisher, nil, nil)

	err := handler(context.Background(), NewBlogPublishDueTask())
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now(), publisher.calledAt, time.Minute)
}

func TestBlogPublishDueHandlerPropagatesError(t *testing.T) {
	publisher := &fakePublisher{err: errors.New("db down")}
	handler := NewBlogPublishDueHandler(publisher, nil, nil)

	err := handler(context.Background(), NewBlogPublishDueTask())
	assert.Error(t, err)
}

func TestSitemapRefreshHandler(t *testing.T) {
	refresher := &fakeRefresher{}
	handler := NewSitemapRefreshHandler(refresher, nil, nil)

	require.NoError(t, handler(context.Background(), NewSitemapRefreshTask()))
	assert.Equal(t, 1, refresher.calls)

	refresher.err = errors.New("cache down")
	assert.Error(t, handler(context.Background(), NewSitemapRefreshTask()))
}
