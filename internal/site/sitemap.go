package site

import (
	"context"
	"encoding/xml"
	"fmt"
	"sort"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"

	"github.com/LevyMwanawasaMedicalUniversity/lmmuwebsite-sub002/internal/academics"
	"github.com/LevyMwanawasaMedicalUniversity/lmmuwebsite-sub002/internal/blog"
	"github.com/LevyMwanawasaMedicalUniversity/lmmuwebsite-sub002/internal/facilities"
)

const sitemapCacheKey = "lmmu:sitemap"

// sitemapURL is a single <url> element.
type sitemapURL struct {
	Loc     string `xml:"loc"`
	LastMod string `xml:"lastmod,omitempty"`
}

type urlSet struct {
	XMLName xml.Name     `xml:"urlset"`
	Xmlns   string       `xml:"xmlns,attr"`
	URLs    []sitemapURL `xml:"url"`
}

// SitemapBuilder renders the public sitemap from published content and
// keeps the result cached.
type SitemapBuilder struct {
	baseURL    string
	news       *blog.Service
	academics  *academics.Service
	facilities *facilities.Service
	cache      *redis.Client
}

// NewSitemapBuilder builds a SitemapBuilder.
func NewSitemapBuilder(baseURL string, news *blog.Service, acad *academics.Service, fac *facilities.Service, cache *redis.Client) *SitemapBuilder {
	return &SitemapBuilder{baseURL: baseURL, news: news, academics: acad, facilities: fac, cache: cache}
}

// Build assembles the sitemap XML. Each content section loads
// concurrently; any failure aborts the whole build.
func (b *SitemapBuilder) Build(ctx context.Context) ([]byte, error) {
	static := []sitemapURL{
		{Loc: b.baseURL + "/"},
		{Loc: b.baseURL + "/about"},
		{Loc: b.baseURL + "/contact"},
		{Loc: b.baseURL + "/news"},
		{Loc: b.baseURL + "/schools"},
		{Loc: b.baseURL + "/facilities"},
	}

	var newsURLs, schoolURLs, facilityURLs []sitemapURL
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		posts, err := b.news.LatestPublished(gctx, 1000)
		if err != nil {
			return fmt.Errorf("sitemap news: %w", err)
		}
		for _, p := range posts {
			u := sitemapURL{Loc: b.baseURL + "/news/" + p.Slug}
			if p.PublishedAt != nil {
				u.LastMod = p.PublishedAt.Format("2006-01-02")
			}
			newsURLs = append(newsURLs, u)
		}
		return nil
	})
	g.Go(func() error {
		schools, err := b.academics.ListSchools(gctx)
		if err != nil {
			return fmt.Errorf("sitemap schools: %w", err)
		}
		for _, s := range schools {
			schoolURLs = append(schoolURLs, sitemapURL{Loc: b.baseURL + "/schools/" + s.Slug, LastMod: s.UpdatedAt.Format("2006-01-02")})
		}
		return nil
	})
	g.Go(func() error {
		list, err := b.facilities.List(gctx)
		if err != nil {
			return fmt.Errorf("sitemap facilities: %w", err)
		}
		for _, f := range list {
			facilityURLs = append(facilityURLs, sitemapURL{Loc: b.baseURL + "/facilities/" + f.Slug, LastMod: f.UpdatedAt.Format("2006-01-02")})
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	set := urlSet{Xmlns: "http://www.sitemaps.org/schemas/sitemap/0.9"}
	set.URLs = append(set.URLs, static...)
	generated := append(append(newsURLs, schoolURLs...), facilityURLs...)
	sort.Slice(generated, func(i, j int) bool { return generated[i].Loc < generated[j].Loc })
	set.URLs = append(set.URLs, generated...)

	out, err := xml.MarshalIndent(set, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal sitemap: %w", err)
	}
	return append([]byte(xml.Header), out...), nil
}

// Refresh rebuilds the sitemap and stores it in the cache.
func (b *SitemapBuilder) Refresh(ctx context.Context) error {
	data, err := b.Build(ctx)
	if err != nil {
		return err
	}
	if b.cache == nil {
		return nil
	}
	return b.cache.Set(ctx, sitemapCacheKey, data, 24*time.Hour).Err()
}

// Cached returns the cached sitemap, rebuilding on a miss.
func (b *SitemapBuilder) Cached(ctx context.Context) ([]byte, error) {
	if b.cache != nil {
		if data, err := b.cache.Get(ctx, sitemapCacheKey).Bytes(); err == nil {
			return data, nil
		}
	}
	data, err := b.Build(ctx)
	if err != nil {
		return nil, err
	}
	if b.cache != nil {
		_ = b.cache.Set(ctx, sitemapCacheKey, data, 24*time.Hour).Err()
	}
	return data, nil
}
