package blog

import (
	"context"
	"io"
	"log/slog"
	"sort"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/LevyMwanawasaMedicalUniversity/lmmuwebsite-sub002/internal/shared"
)

type mockRepository struct {
	posts      map[int64]*Post
	postTags   map[int64][]int64
	categories map[int64]*Category
	tags       map[int64]*Tag
	images     map[int64]*Image
	nextID     int64
}

func newMockRepository() *mockRepository {
	return &mockRepository{
		posts:      make(map[int64]*Post),
		postTags:   make(map[int64][]int64),
		categories: make(map[int64]*Category),
		tags:       make(map[int64]*Tag),
		images:     make(map[int64]*Image),
		nextID:     1,
	}
}

func (m *mockRepository) id() int64 {
	id := m.nextID
	m.nextID++
	return id
}

func (m *mockRepository) ListPosts(ctx context.Context, filter PostFilter) ([]Post, int, error) {
	var out []Post
	for _, p := range m.posts {
		if filter.Status != "" && p.Status != filter.Status {
			continue
		}
		out = append(out, m.withTags(*p))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	total := len(out)
	if filter.PerPage > 0 && len(out) > filter.PerPage {
		out = out[:filter.PerPage]
	}
	return out, total, nil
}

func (m *mockRepository) withTags(p Post) Post {
	for _, tagID := range m.postTags[p.ID] {
		if t, ok := m.tags[tagID]; ok {
			p.Tags = append(p.Tags, *t)
		}
	}
	return p
}

func (m *mockRepository) FindPost(ctx context.Context, id int64) (*Post, error) {
	p, ok := m.posts[id]
	if !ok {
		return nil, shared.ErrNotFound
	}
	found := m.withTags(*p)
	return &found, nil
}

func (m *mockRepository) FindPostBySlug(ctx context.Context, slug string) (*Post, error) {
	for _, p := range m.posts {
		if p.Slug == slug {
			found := m.withTags(*p)
			return &found, nil
		}
	}
	return nil, shared.ErrNotFound
}

func (m *mockRepository) SlugExists(ctx context.Context, slug string, excludeID int64) (bool, error) {
	for id, p := range m.posts {
		if id != excludeID && p.Slug == slug {
			return true, nil
		}
	}
	return false, nil
}

func (m *mockRepository) CreatePost(ctx context.Context, post *Post, tagIDs []int64) (int64, error) {
	stored := *post
	stored.ID = m.id()
	stored.CreatedAt = time.Now()
	stored.UpdatedAt = stored.CreatedAt
	m.posts[stored.ID] = &stored
	m.attachTags(stored.ID, tagIDs)
	return stored.ID, nil
}

func (m *mockRepository) attachTags(postID int64, tagIDs []int64) {
	m.postTags[postID] = nil
	for _, tagID := range tagIDs {
		if _, ok := m.tags[tagID]; !ok {
			continue // unknown ids are skipped, not errors
		}
		m.postTags[postID] = append(m.postTags[postID], tagID)
	}
}

func (m *mockRepository) UpdatePost(ctx context.Context, post *Post) error {
	stored, ok := m.posts[post.ID]
	if !ok {
		return shared.ErrNotFound
	}
	updated := *post
	updated.CreatedAt = stored.CreatedAt
	updated.UpdatedAt = time.Now()
	m.posts[post.ID] = &updated
	return nil
}

func (m *mockRepository) DeletePost(ctx context.Context, id int64) error {
	if _, ok := m.posts[id]; !ok {
		return shared.ErrNotFound
	}
	delete(m.posts, id)
	delete(m.postTags, id)
	for imgID, img := range m.images {
		if img.PostID == id {
			delete(m.images, imgID)
		}
	}
	return nil
}

func (m *mockRepository) ReplacePostTags(ctx context.Context, postID int64, tagIDs []int64) error {
	if _, ok := m.posts[postID]; !ok {
		return shared.ErrNotFound
	}
	m.attachTags(postID, tagIDs)
	return nil
}

func (m *mockRepository) PublishDue(ctx context.Context, now time.Time) (int64, error) {
	var n int64
	for _, p := range m.posts {
		if p.Status == StatusDraft && p.PublishAt != nil && !p.PublishAt.After(now) {
			p.Status = StatusPublished
			at := now
			p.PublishedAt = &at
			n++
		}
	}
	return n, nil
}

func (m *mockRepository) MarkPublished(ctx context.Context, id int64, at time.Time) error {
	p, ok := m.posts[id]
	if !ok {
		return shared.ErrNotFound
	}
	p.Status = StatusPublished
	p.PublishedAt = &at
	return nil
}

func (m *mockRepository) ListCategories(ctx context.Context) ([]Category, error) {
	var out []Category
	for _, c := range m.categories {
		out = append(out, *c)
	}
	return out, nil
}

func (m *mockRepository) CreateCategory(ctx context.Context, name, slug, description string) (int64, error) {
	for _, c := range m.categories {
		if c.Name == name {
			return 0, shared.ErrDuplicate
		}
	}
	c := &Category{ID: m.id(), Name: name, Slug: slug, Description: description}
	m.categories[c.ID] = c
	return c.ID, nil
}

func (m *mockRepository) DeleteCategory(ctx context.Context, id int64) error {
	if _, ok := m.categories[id]; !ok {
		return shared.ErrNotFound
	}
	for _, p := range m.posts {
		if p.CategoryID != nil && *p.CategoryID == id {
			p.CategoryID = nil
		}
	}
	delete(m.categories, id)
	return nil
}

func (m *mockRepository) ListTags(ctx context.Context) ([]Tag, error) {
	var out []Tag
	for _, t := range m.tags {
		out = append(out, *t)
	}
	return out, nil
}

func (m *mockRepository) CreateTag(ctx context.Context, name, slug string) (int64, error) {
	for _, t := range m.tags {
		if t.Name == name {
			return 0, shared.ErrDuplicate
		}
	}
	t := &Tag{ID: m.id(), Name: name, Slug: slug}
	m.tags[t.ID] = t
	return t.ID, nil
}

func (m *mockRepository) DeleteTag(ctx context.Context, id int64) error {
	if _, ok := m.tags[id]; !ok {
		return shared.ErrNotFound
	}
	delete(m.tags, id)
	for postID, tagIDs := range m.postTags {
		kept := tagIDs[:0]
		for _, tagID := range tagIDs {
			if tagID != id {
				kept = append(kept, tagID)
			}
		}
		m.postTags[postID] = kept
	}
	return nil
}

func (m *mockRepository) ListImages(ctx context.Context, postID int64) ([]Image, error) {
	var out []Image
	for _, img := range m.images {
		if img.PostID == postID {
			out = append(out, *img)
		}
	}
	return out, nil
}

func (m *mockRepository) AddImage(ctx context.Context, img *Image) (int64, error) {
	stored := *img
	stored.ID = m.id()
	m.images[stored.ID] = &stored
	return stored.ID, nil
}

func (m *mockRepository) DeleteImage(ctx context.Context, id int64) error {
	if _, ok := m.images[id]; !ok {
		return shared.ErrNotFound
	}
	delete(m.images, id)
	return nil
}

func newTestService(repo Repository) *Service {
	return NewService(repo, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestCreatePostGeneratesSlug(t *testing.T) {
	repo := newMockRepository()
	svc := newTestService(repo)

	post, err := svc.CreatePost(context.Background(), 1, PostInput{Title: "LMMU Open Day"})
	require.NoError(t, err)
	assert.Equal(t, "lmmu-open-day", post.Slug)
	assert.Equal(t, StatusDraft, post.Status)
	assert.Nil(t, post.PublishedAt)
}

func TestCreatePostSuffixesDuplicateSlug(t *testing.T) {
	repo := newMockRepository()
	svc := newTestService(repo)

	first, err := svc.CreatePost(context.Background(), 1, PostInput{Title: "Open Day"})
	require.NoError(t, err)
	second, err := svc.CreatePost(context.Background(), 1, PostInput{Title: "Open Day"})
	require.NoError(t, err)

	assert.Equal(t, "open-day", first.Slug)
	assert.Equal(t, "open-day-2", second.Slug)
}

func TestCreatePostRejectsEmptyTitle(t *testing.T) {
	svc := newTestService(newMockRepository())

	_, err := svc.CreatePost(context.Background(), 1, PostInput{Title: "   "})
	assert.ErrorIs(t, err, shared.ErrValidation)
}

func TestCreatePostPublishNow(t *testing.T) {
	repo := newMockRepository()
	svc := newTestService(repo)

	post, err := svc.CreatePost(context.Background(), 1, PostInput{Title: "Breaking", PublishNow: true})
	require.NoError(t, err)
	assert.Equal(t, StatusPublished, post.Status)
	require.NotNil(t, post.PublishedAt)
}

func TestCreatePostSkipsUnknownTags(t *testing.T) {
	repo := newMockRepository()
	svc := newTestService(repo)
	tagID, err := svc.CreateTag(context.Background(), "events")
	require.NoError(t, err)

	post, err := svc.CreatePost(context.Background(), 1, PostInput{Title: "With tags", TagIDs: []int64{tagID, 999}})
	require.NoError(t, err)
	require.Len(t, post.Tags, 1)
	assert.Equal(t, "events", post.Tags[0].Name)
}

func TestUpdatePostRegeneratesSlugOnTitleChange(t *testing.T) {
	repo := newMockRepository()
	svc := newTestService(repo)
	post, err := svc.CreatePost(context.Background(), 1, PostInput{Title: "Old Title"})
	require.NoError(t, err)

	updated, err := svc.UpdatePost(context.Background(), post.ID, PostInput{Title: "New Title"})
	require.NoError(t, err)
	assert.Equal(t, "new-title", updated.Slug)

	same, err := svc.UpdatePost(context.Background(), post.ID, PostInput{Title: "New Title", Body: "changed"})
	require.NoError(t, err)
	assert.Equal(t, "new-title", same.Slug, "unchanged title keeps its slug")
}

func TestDraftsHiddenFromPublicReads(t *testing.T) {
	repo := newMockRepository()
	svc := newTestService(repo)
	draft, err := svc.CreatePost(context.Background(), 1, PostInput{Title: "Draft only"})
	require.NoError(t, err)

	_, err = svc.GetPublishedBySlug(context.Background(), draft.Slug)
	assert.ErrorIs(t, err, shared.ErrNotFound)

	posts, _, err := svc.ListPublished(context.Background(), "", "", 1)
	require.NoError(t, err)
	assert.Empty(t, posts)

	require.NoError(t, svc.PublishPost(context.Background(), draft.ID))

	found, err := svc.GetPublishedBySlug(context.Background(), draft.Slug)
	require.NoError(t, err)
	assert.Equal(t, draft.ID, found.ID)
}

func TestPublishDueFlipsOnlyRipeScheduledDrafts(t *testing.T) {
	repo := newMockRepository()
	svc := newTestService(repo)

	past := time.Now().Add(-time.Hour)
	future := time.Now().Add(time.Hour)
	ripe, err := svc.CreatePost(context.Background(), 1, PostInput{Title: "Ripe", PublishAt: &past})
	require.NoError(t, err)
	green, err := svc.CreatePost(context.Background(), 1, PostInput{Title: "Green", PublishAt: &future})
	require.NoError(t, err)

	n, err := svc.PublishDue(context.Background(), time.Now())
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	ripeNow, err := svc.GetPost(context.Background(), ripe.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusPublished, ripeNow.Status)

	greenNow, err := svc.GetPost(context.Background(), green.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusDraft, greenNow.Status)
}

func TestDeleteCategoryDetachesPosts(t *testing.T) {
	repo := newMockRepository()
	svc := newTestService(repo)
	catID, err := svc.CreateCategory(context.Background(), "Events", "")
	require.NoError(t, err)
	post, err := svc.CreatePost(context.Background(), 1, PostInput{Title: "Categorised", CategoryID: &catID})
	require.NoError(t, err)

	require.NoError(t, svc.DeleteCategory(context.Background(), catID))

	after, err := svc.GetPost(context.Background(), post.ID)
	require.NoError(t, err)
	assert.Nil(t, after.CategoryID)
}

func TestDeleteTagDetachesFromPosts(t *testing.T) {
	repo := newMockRepository()
	svc := newTestService(repo)
	tagID, err := svc.CreateTag(context.Background(), "sports")
	require.NoError(t, err)
	post, err := svc.CreatePost(context.Background(), 1, PostInput{Title: "Tagged", TagIDs: []int64{tagID}})
	require.NoError(t, err)
	require.Len(t, post.Tags, 1)

	require.NoError(t, svc.DeleteTag(context.Background(), tagID))

	after, err := svc.GetPost(context.Background(), post.ID)
	require.NoError(t, err)
	assert.Empty(t, after.Tags)
}

func TestCategoryAndTagDuplicateNames(t *testing.T) {
	svc := newTestService(newMockRepository())

	_, err := svc.CreateCategory(context.Background(), "Events", "")
	require.NoError(t, err)
	_, err = svc.CreateCategory(context.Background(), "Events", "")
	assert.ErrorIs(t, err, shared.ErrDuplicate)

	_, err = svc.CreateTag(context.Background(), "sports")
	require.NoError(t, err)
	_, err = svc.CreateTag(context.Background(), "sports")
	assert.ErrorIs(t, err, shared.ErrDuplicate)
}

func TestAttachImageAssignsObjectName(t *testing.T) {
	repo := newMockRepository()
	svc := newTestService(repo)
	post, err := svc.CreatePost(context.Background(), 1, PostInput{Title: "Illustrated"})
	require.NoError(t, err)

	img, err := svc.AttachImage(context.Background(), post.ID, "campus aerial view", "image/jpeg", 12345)
	require.NoError(t, err)
	assert.NotEmpty(t, img.ObjectName)

	_, err = svc.AttachImage(context.Background(), 999, "", "image/png", 1)
	assert.ErrorIs(t, err, shared.ErrNotFound)
}
