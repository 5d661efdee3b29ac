package blog

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/LevyMwanawasaMedicalUniversity/lmmuwebsite-sub002/internal/shared"
)

// Service contains blog business rules.
type Service struct {
	repo   Repository
	logger *slog.Logger
}

// NewService builds a Service.
func NewService(repo Repository, logger *slog.Logger) *Service {
	return &Service{repo: repo, logger: logger}
}

// PostInput carries post create/update fields.
type PostInput struct {
	Title      string
	Excerpt    string
	Body       string
	CategoryID *int64
	TagIDs     []int64
	PublishAt  *time.Time
	PublishNow bool
}

const maxSlugAttempts = 50

// CreatePost stores a new draft (or immediately published) post. The slug
// derives from the title; collisions get a numeric suffix.
func (s *Service) CreatePost(ctx context.Context, authorID int64, in PostInput) (*Post, error) {
	title := strings.TrimSpace(in.Title)
	if title == "" {
		return nil, fmt.Errorf("%w: title is required", shared.ErrValidation)
	}
	slug, err := s.uniqueSlug(ctx, title, 0)
	if err != nil {
		return nil, err
	}

	post := &Post{
		Title:      title,
		Slug:       slug,
		Excerpt:    strings.TrimSpace(in.Excerpt),
		Body:       in.Body,
		Status:     StatusDraft,
		CategoryID: in.CategoryID,
		AuthorID:   authorID,
		PublishAt:  in.PublishAt,
	}
	if in.PublishNow {
		post.Status = StatusPublished
		now := time.Now()
		post.PublishedAt = &now
		post.PublishAt = nil
	}

	id, err := s.repo.CreatePost(ctx, post, in.TagIDs)
	if err != nil {
		return nil, err
	}
	if in.PublishNow {
		if err := s.repo.MarkPublished(ctx, id, *post.PublishedAt); err != nil {
			s.logger.Warn("mark published after create", slog.Int64("post_id", id), slog.Any("error", err))
		}
	}
	return s.repo.FindPost(ctx, id)
}

// UpdatePost rewrites a post's fields. A changed title regenerates the slug.
func (s *Service) UpdatePost(ctx context.Context, id int64, in PostInput) (*Post, error) {
	post, err := s.repo.FindPost(ctx, id)
	if err != nil {
		return nil, err
	}

	title := strings.TrimSpace(in.Title)
	if title == "" {
		return nil, fmt.Errorf("%w: title is required", shared.ErrValidation)
	}
	if title != post.Title {
		slug, err := s.uniqueSlug(ctx, title, id)
		if err != nil {
			return nil, err
		}
		post.Slug = slug
	}
	post.Title = title
	post.Excerpt = strings.TrimSpace(in.Excerpt)
	post.Body = in.Body
	post.CategoryID = in.CategoryID
	post.PublishAt = in.PublishAt
	if in.PublishNow && post.Status != StatusPublished {
		post.Status = StatusPublished
		now := time.Now()
		post.PublishedAt = &now
		post.PublishAt = nil
	}

	if err := s.repo.UpdatePost(ctx, post); err != nil {
		return nil, err
	}
	if err := s.repo.ReplacePostTags(ctx, id, in.TagIDs); err != nil {
		return nil, err
	}
	return s.repo.FindPost(ctx, id)
}

// PublishPost moves a draft to published immediately.
func (s *Service) PublishPost(ctx context.Context, id int64) error {
	return s.repo.MarkPublished(ctx, id, time.Now())
}

// DeletePost removes a post along with its tag links and image records.
func (s *Service) DeletePost(ctx context.Context, id int64) error {
	return s.repo.DeletePost(ctx, id)
}

// GetPost fetches a post for the admin screens.
func (s *Service) GetPost(ctx context.Context, id int64) (*Post, error) {
	return s.repo.FindPost(ctx, id)
}

// ListAdminPosts lists posts of any status for the admin table.
func (s *Service) ListAdminPosts(ctx context.Context, page int) ([]Post, shared.Pagination, error) {
	posts, total, err := s.repo.ListPosts(ctx, PostFilter{Page: page, PerPage: 20})
	if err != nil {
		return nil, shared.Pagination{}, err
	}
	return posts, shared.NewPagination(page, 20, total), nil
}

// ListPublished lists published posts for the public news pages.
func (s *Service) ListPublished(ctx context.Context, categorySlug, tagSlug string, page int) ([]Post, shared.Pagination, error) {
	posts, total, err := s.repo.ListPosts(ctx, PostFilter{
		Status:       StatusPublished,
		CategorySlug: categorySlug,
		TagSlug:      tagSlug,
		Page:         page,
		PerPage:      10,
	})
	if err != nil {
		return nil, shared.Pagination{}, err
	}
	return posts, shared.NewPagination(page, 10, total), nil
}

// LatestPublished returns the newest published posts for the home page.
func (s *Service) LatestPublished(ctx context.Context, limit int) ([]Post, error) {
	posts, _, err := s.repo.ListPosts(ctx, PostFilter{Status: StatusPublished, Page: 1, PerPage: limit})
	return posts, err
}

// GetPublishedBySlug serves the public article page. Drafts read as absent.
func (s *Service) GetPublishedBySlug(ctx context.Context, slug string) (*Post, error) {
	post, err := s.repo.FindPostBySlug(ctx, slug)
	if err != nil {
		return nil, err
	}
	if !post.Published() {
		return nil, shared.ErrNotFound
	}
	return post, nil
}

// PublishDue flips every scheduled post whose publish time has passed.
func (s *Service) PublishDue(ctx context.Context, now time.Time) (int64, error) {
	return s.repo.PublishDue(ctx, now)
}

func (s *Service) ListCategories(ctx context.Context) ([]Category, error) {
	return s.repo.ListCategories(ctx)
}

func (s *Service) CreateCategory(ctx context.Context, name, description string) (int64, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return 0, fmt.Errorf("%w: name is required", shared.ErrValidation)
	}
	return s.repo.CreateCategory(ctx, name, shared.Slugify(name), strings.TrimSpace(description))
}

func (s *Service) DeleteCategory(ctx context.Context, id int64) error {
	return s.repo.DeleteCategory(ctx, id)
}

func (s *Service) ListTags(ctx context.Context) ([]Tag, error) {
	return s.repo.ListTags(ctx)
}

func (s *Service) CreateTag(ctx context.Context, name string) (int64, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return 0, fmt.Errorf("%w: name is required", shared.ErrValidation)
	}
	return s.repo.CreateTag(ctx, name, shared.Slugify(name))
}

func (s *Service) DeleteTag(ctx context.Context, id int64) error {
	return s.repo.DeleteTag(ctx, id)
}

func (s *Service) ListImages(ctx context.Context, postID int64) ([]Image, error) {
	return s.repo.ListImages(ctx, postID)
}

// AttachImage records image metadata under a fresh object name.
func (s *Service) AttachImage(ctx context.Context, postID int64, altText, mimeType string, sizeBytes int64) (*Image, error) {
	if _, err := s.repo.FindPost(ctx, postID); err != nil {
		return nil, err
	}
	img := &Image{
		PostID:     postID,
		ObjectName: uuid.NewString(),
		AltText:    strings.TrimSpace(altText),
		MimeType:   mimeType,
		SizeBytes:  sizeBytes,
	}
	id, err := s.repo.AddImage(ctx, img)
	if err != nil {
		return nil, err
	}
	img.ID = id
	return img, nil
}

func (s *Service) DeleteImage(ctx context.Context, id int64) error {
	return s.repo.DeleteImage(ctx, id)
}

// uniqueSlug derives a slug from title and probes until it is free.
func (s *Service) uniqueSlug(ctx context.Context, title string, excludeID int64) (string, error) {
	base := shared.Slugify(title)
	if base == "" {
		base = "post"
	}
	for attempt := 1; attempt <= maxSlugAttempts; attempt++ {
		candidate := shared.NextSlug(base, attempt)
		taken, err := s.repo.SlugExists(ctx, candidate, excludeID)
		if err != nil {
			return "", err
		}
		if !taken {
			return candidate, nil
		}
	}
	// Collision space exhausted; fall back to a random suffix.
	return base + "-" + uuid.NewString()[:8], nil
}
