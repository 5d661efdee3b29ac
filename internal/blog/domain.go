package blog

import "time"

// Post statuses.
const (
	StatusDraft     = "draft"
	StatusPublished = "published"
)

// Post is a news/blog article.
type Post struct {
	ID           int64
	Title        string
	Slug         string
	Excerpt      string
	Body         string
	Status       string
	CategoryID   *int64
	CategoryName string
	CoverImageID *int64
	AuthorID     int64
	AuthorName   string
	PublishAt    *time.Time
	PublishedAt  *time.Time
	CreatedAt    time.Time
	UpdatedAt    time.Time
	Tags         []Tag
}

// Published reports whether the post is visible to the public site.
func (p Post) Published() bool {
	return p.Status == StatusPublished
}

// Category groups posts; a post belongs to at most one category.
type Category struct {
	ID          int64
	Name        string
	Slug        string
	Description string
	PostCount   int
	CreatedAt   time.Time
}

// Tag labels posts; a post may carry many tags.
type Tag struct {
	ID   int64
	Name string
	Slug string
}

// Image records an uploaded object attached to a post. Only the metadata
// lives here; the bytes are stored under the object name elsewhere.
type Image struct {
	ID         int64
	PostID     int64
	ObjectName string
	AltText    string
	MimeType   string
	SizeBytes  int64
	CreatedAt  time.Time
}
