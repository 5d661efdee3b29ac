package site

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/LevyMwanawasaMedicalUniversity/lmmuwebsite-sub002/internal/academics"
	"github.com/LevyMwanawasaMedicalUniversity/lmmuwebsite-sub002/internal/blog"
	"github.com/LevyMwanawasaMedicalUniversity/lmmuwebsite-sub002/internal/facilities"
)

// Stub repositories embed their interface and override only what the
// sitemap path touches.

type stubBlogRepo struct {
	blog.Repository
	posts []blog.Post
	err   error
}

func (s *stubBlogRepo) ListPosts(ctx context.Context, filter blog.PostFilter) ([]blog.Post, int, error) {
	if s.err != nil {
		return nil, 0, s.err
	}
	return s.posts, len(s.posts), nil
}

type stubSchoolRepo struct {
	academics.Repository
	schools []academics.School
}

func (s *stubSchoolRepo) ListSchools(ctx context.Context) ([]academics.School, error) {
	return s.schools, nil
}

type stubFacilityRepo struct {
	facilities.Repository
	facilities []facilities.Facility
}

func (s *stubFacilityRepo) List(ctx context.Context) ([]facilities.Facility, error) {
	return s.facilities, nil
}

func newBuilder(t *testing.T, blogRepo blog.Repository, withCache bool) (*SitemapBuilder, *redis.Client) {
	t.Helper()
	var cache *redis.Client
	if withCache {
		mr := miniredis.RunT(t)
		cache = redis.NewClient(&redis.Options{Addr: mr.Addr()})
	}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	newsSvc := blog.NewService(blogRepo, logger)
	schoolSvc := academics.NewService(&stubSchoolRepo{schools: []academics.School{
		{ID: 1, Name: "School of Medicine", Slug: "school-of-medicine", UpdatedAt: time.Date(2026, 1, 2, 0, 0, 0, 0, time.UTC)},
	}})
	facilitySvc := facilities.NewService(&stubFacilityRepo{facilities: []facilities.Facility{
		{ID: 1, Name: "Main Library", Slug: "main-library", UpdatedAt: time.Date(2026, 2, 3, 0, 0, 0, 0, time.UTC)},
	}})
	return NewSitemapBuilder("https://www.lmmu.ac.zm", newsSvc, schoolSvc, facilitySvc, cache), cache
}

func TestSitemapBuildIncludesAllSections(t *testing.T) {
	published := time.Date(2026, 3, 14, 10, 0, 0, 0, time.UTC)
	builder, _ := newBuilder(t, &stubBlogRepo{posts: []blog.Post{
		{ID: 1, Slug: "graduation-2026", Status: blog.StatusPublished, PublishedAt: &published},
	}}, false)

	data, err := builder.Build(context.Background())
	require.NoError(t, err)

	body := string(data)
	assert.Contains(t, body, "<?xml")
	assert.Contains(t, body, "https://www.lmmu.ac.zm/news/graduation-2026")
	assert.Contains(t, body, "<lastmod>2026-03-14</lastmod>")
	assert.Contains(t, body, "https://www.lmmu.ac.zm/schools/school-of-medicine")
	assert.Contains(t, body, "https://www.lmmu.ac.zm/facilities/main-library")
	assert.Contains(t, body, "https://www.lmmu.ac.zm/about")
}

func TestSitemapBuildAbortsOnSectionFailure(t *testing.T) {
	builder, _ := newBuilder(t, &stubBlogRepo{err: errors.New("db down")}, false)

	_, err := builder.Build(context.Background())
	require.Error(t, err)
	assert.True(t, strings.Contains(err.Error(), "sitemap news"))
}

func TestSitemapRefreshAndCachedRoundTrip(t *testing.T) {
	builder, cache := newBuilder(t, &stubBlogRepo{}, true)

	require.NoError(t, builder.Refresh(context.Background()))

	stored, err := cache.Get(context.Background(), sitemapCacheKey).Bytes()
	require.NoError(t, err)
	assert.Contains(t, string(stored), "urlset")

	cached, err := builder.Cached(context.Background())
	require.NoError(t, err)
	assert.Equal(t, stored, cached)
}
