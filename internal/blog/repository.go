package blog

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/LevyMwanawasaMedicalUniversity/lmmuwebsite-sub002/internal/platform/db"
	"github.com/LevyMwanawasaMedicalUniversity/lmmuwebsite-sub002/internal/shared"
)

// Repository abstracts blog persistence.
type Repository interface {
	ListPosts(ctx context.Context, filter PostFilter) ([]Post, int, error)
	FindPost(ctx context.Context, id int64) (*Post, error)
	FindPostBySlug(ctx context.Context, slug string) (*Post, error)
	SlugExists(ctx context.Context, slug string, excludeID int64) (bool, error)
	CreatePost(ctx context.Context, post *Post, tagIDs []int64) (int64, error)
	UpdatePost(ctx context.Context, post *Post) error
	DeletePost(ctx context.Context, id int64) error
	ReplacePostTags(ctx context.Context, postID int64, tagIDs []int64) error
	PublishDue(ctx context.Context, now time.Time) (int64, error)
	MarkPublished(ctx context.Context, id int64, at time.Time) error

	ListCategories(ctx context.Context) ([]Category, error)
	CreateCategory(ctx context.Context, name, slug, description string) (int64, error)
	DeleteCategory(ctx context.Context, id int64) error

	ListTags(ctx context.Context) ([]Tag, error)
	CreateTag(ctx context.Context, name, slug string) (int64, error)
	DeleteTag(ctx context.Context, id int64) error

	ListImages(ctx context.Context, postID int64) ([]Image, error)
	AddImage(ctx context.Context, img *Image) (int64, error)
	DeleteImage(ctx context.Context, id int64) error
}

// PostFilter narrows post listings.
type PostFilter struct {
	Status       string
	CategorySlug string
	TagSlug      string
	Page         int
	PerPage      int
}

// PGRepository implements Repository using PostgreSQL.
type PGRepository struct {
	pool *pgxpool.Pool
}

// NewPGRepository builds a postgres-backed repository.
func NewPGRepository(pool *pgxpool.Pool) *PGRepository {
	return &PGRepository{pool: pool}
}

const postColumns = `p.id, p.title, p.slug, p.excerpt, p.body, p.status, p.category_id,
	COALESCE(c.name, ''), p.cover_image_id, p.author_id, COALESCE(u.username, ''),
	p.publish_at, p.published_at, p.created_at, p.updated_at`

func (r *PGRepository) ListPosts(ctx context.Context, filter PostFilter) ([]Post, int, error) {
	where := " WHERE 1=1"
	args := []any{}
	if filter.Status != "" {
		args = append(args, filter.Status)
		where += fmt.Sprintf(" AND p.status = $%d", len(args))
	}
	if filter.CategorySlug != "" {
		args = append(args, filter.CategorySlug)
		where += fmt.Sprintf(" AND c.slug = $%d", len(args))
	}
	if filter.TagSlug != "" {
		args = append(args, filter.TagSlug)
		where += fmt.Sprintf(" AND EXISTS (SELECT 1 FROM post_tags pt JOIN tags t ON t.id = pt.tag_id WHERE pt.post_id = p.id AND t.slug = $%d)", len(args))
	}

	from := ` FROM posts p LEFT JOIN categories c ON c.id = p.category_id LEFT JOIN users u ON u.id = p.author_id`

	var total int
	if err := r.pool.QueryRow(ctx, "SELECT COUNT(*)"+from+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count posts: %w", err)
	}

	perPage := filter.PerPage
	if perPage <= 0 {
		perPage = 20
	}
	page := filter.Page
	if page <= 0 {
		page = 1
	}
	args = append(args, perPage, (page-1)*perPage)
	query := "SELECT " + postColumns + from + where +
		fmt.Sprintf(" ORDER BY COALESCE(p.published_at, p.created_at) DESC LIMIT $%d OFFSET $%d", len(args)-1, len(args))

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list posts: %w", err)
	}
	defer rows.Close()

	var posts []Post
	for rows.Next() {
		var p Post
		if err := scanPost(rows, &p); err != nil {
			return nil, 0, err
		}
		posts = append(posts, p)
	}
	return posts, total, rows.Err()
}

func (r *PGRepository) FindPost(ctx context.Context, id int64) (*Post, error) {
	return r.findPost(ctx, "p.id = $1", id)
}

func (r *PGRepository) FindPostBySlug(ctx context.Context, slug string) (*Post, error) {
	return r.findPost(ctx, "p.slug = $1", slug)
}

func (r *PGRepository) findPost(ctx context.Context, cond string, arg any) (*Post, error) {
	query := "SELECT " + postColumns + ` FROM posts p
		LEFT JOIN categories c ON c.id = p.category_id
		LEFT JOIN users u ON u.id = p.author_id
		WHERE ` + cond

	var p Post
	row := r.pool.QueryRow(ctx, query, arg)
	if err := scanPost(row, &p); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, shared.ErrNotFound
		}
		return nil, fmt.Errorf("find post: %w", err)
	}

	tagRows, err := r.pool.Query(ctx, `SELECT t.id, t.name, t.slug FROM tags t
		JOIN post_tags pt ON pt.tag_id = t.id WHERE pt.post_id = $1 ORDER BY t.name`, p.ID)
	if err != nil {
		return nil, fmt.Errorf("post tags: %w", err)
	}
	defer tagRows.Close()
	for tagRows.Next() {
		var t Tag
		if err := tagRows.Scan(&t.ID, &t.Name, &t.Slug); err != nil {
			return nil, err
		}
		p.Tags = append(p.Tags, t)
	}
	return &p, tagRows.Err()
}

func (r *PGRepository) SlugExists(ctx context.Context, slug string, excludeID int64) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM posts WHERE slug = $1 AND id <> $2)`, slug, excludeID).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("slug exists: %w", err)
	}
	return exists, nil
}

func (r *PGRepository) CreatePost(ctx context.Context, post *Post, tagIDs []int64) (int64, error) {
	var id int64
	err := db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		err := tx.QueryRow(ctx, `INSERT INTO posts (title, slug, excerpt, body, status, category_id, author_id, publish_at, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, NOW(), NOW()) RETURNING id`,
			post.Title, post.Slug, post.Excerpt, post.Body, post.Status, post.CategoryID, post.AuthorID, post.PublishAt).Scan(&id)
		if err != nil {
			return translateUnique(err)
		}
		return insertPostTags(ctx, tx, id, tagIDs)
	})
	if err != nil {
		return 0, err
	}
	return id, nil
}

func (r *PGRepository) UpdatePost(ctx context.Context, post *Post) error {
	tag, err := r.pool.Exec(ctx, `UPDATE posts SET
			title = $2, slug = $3, excerpt = $4, body = $5, status = $6,
			category_id = $7, cover_image_id = $8, publish_at = $9, updated_at = NOW()
		WHERE id = $1`,
		post.ID, post.Title, post.Slug, post.Excerpt, post.Body, post.Status,
		post.CategoryID, post.CoverImageID, post.PublishAt)
	if err != nil {
		return translateUnique(err)
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

func (r *PGRepository) DeletePost(ctx context.Context, id int64) error {
	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `DELETE FROM post_tags WHERE post_id = $1`, id); err != nil {
			return fmt.Errorf("delete post tags: %w", err)
		}
		if _, err := tx.Exec(ctx, `DELETE FROM post_images WHERE post_id = $1`, id); err != nil {
			return fmt.Errorf("delete post images: %w", err)
		}
		tag, err := tx.Exec(ctx, `DELETE FROM posts WHERE id = $1`, id)
		if err != nil {
			return fmt.Errorf("delete post: %w", err)
		}
		if tag.RowsAffected() == 0 {
			return shared.ErrNotFound
		}
		return nil
	})
}

func (r *PGRepository) ReplacePostTags(ctx context.Context, postID int64, tagIDs []int64) error {
	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		var exists bool
		if err := tx.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM posts WHERE id = $1)`, postID).Scan(&exists); err != nil {
			return fmt.Errorf("check post: %w", err)
		}
		if !exists {
			return shared.ErrNotFound
		}
		if _, err := tx.Exec(ctx, `DELETE FROM post_tags WHERE post_id = $1`, postID); err != nil {
			return fmt.Errorf("clear post tags: %w", err)
		}
		return insertPostTags(ctx, tx, postID, tagIDs)
	})
}

// insertPostTags attaches tags, skipping ids that do not resolve to a tag.
func insertPostTags(ctx context.Context, tx pgx.Tx, postID int64, tagIDs []int64) error {
	for _, tagID := range tagIDs {
		_, err := tx.Exec(ctx, `INSERT INTO post_tags (post_id, tag_id)
			SELECT $1, id FROM tags WHERE id = $2
			ON CONFLICT (post_id, tag_id) DO NOTHING`, postID, tagID)
		if err != nil {
			return fmt.Errorf("attach tag %d: %w", tagID, err)
		}
	}
	return nil
}

func (r *PGRepository) PublishDue(ctx context.Context, now time.Time) (int64, error) {
	tag, err := r.pool.Exec(ctx, `UPDATE posts SET status = $1, published_at = $2, updated_at = NOW()
		WHERE status = $3 AND publish_at IS NOT NULL AND publish_at <= $2`,
		StatusPublished, now, StatusDraft)
	if err != nil {
		return 0, fmt.Errorf("publish due posts: %w", err)
	}
	return tag.RowsAffected(), nil
}

func (r *PGRepository) MarkPublished(ctx context.Context, id int64, at time.Time) error {
	tag, err := r.pool.Exec(ctx, `UPDATE posts SET status = $2, published_at = $3, updated_at = NOW() WHERE id = $1`,
		id, StatusPublished, at)
	if err != nil {
		return fmt.Errorf("mark published: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

func (r *PGRepository) ListCategories(ctx context.Context) ([]Category, error) {
	rows, err := r.pool.Query(ctx, `SELECT c.id, c.name, c.slug, c.description,
			(SELECT COUNT(*) FROM posts p WHERE p.category_id = c.id), c.created_at
		FROM categories c ORDER BY c.name`)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	defer rows.Close()

	var categories []Category
	for rows.Next() {
		var c Category
		if err := rows.Scan(&c.ID, &c.Name, &c.Slug, &c.Description, &c.PostCount, &c.CreatedAt); err != nil {
			return nil, err
		}
		categories = append(categories, c)
	}
	return categories, rows.Err()
}

func (r *PGRepository) CreateCategory(ctx context.Context, name, slug, description string) (int64, error) {
	var id int64
	err := r.pool.QueryRow(ctx, `INSERT INTO categories (name, slug, description, created_at)
		VALUES ($1, $2, $3, NOW()) RETURNING id`, name, slug, description).Scan(&id)
	if err != nil {
		return 0, translateUnique(err)
	}
	return id, nil
}

// DeleteCategory detaches the category from its posts before removing it.
func (r *PGRepository) DeleteCategory(ctx context.Context, id int64) error {
	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `UPDATE posts SET category_id = NULL, updated_at = NOW() WHERE category_id = $1`, id); err != nil {
			return fmt.Errorf("detach category: %w", err)
		}
		tag, err := tx.Exec(ctx, `DELETE FROM categories WHERE id = $1`, id)
		if err != nil {
			return fmt.Errorf("delete category: %w", err)
		}
		if tag.RowsAffected() == 0 {
			return shared.ErrNotFound
		}
		return nil
	})
}

func (r *PGRepository) ListTags(ctx context.Context) ([]Tag, error) {
	rows, err := r.pool.Query(ctx, `SELECT id, name, slug FROM tags ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("list tags: %w", err)
	}
	defer rows.Close()

	var tags []Tag
	for rows.Next() {
		var t Tag
		if err := rows.Scan(&t.ID, &t.Name, &t.Slug); err != nil {
			return nil, err
		}
		tags = append(tags, t)
	}
	return tags, rows.Err()
}

func (r *PGRepository) CreateTag(ctx context.Context, name, slug string) (int64, error) {
	var id int64
	err := r.pool.QueryRow(ctx, `INSERT INTO tags (name, slug) VALUES ($1, $2) RETURNING id`, name, slug).Scan(&id)
	if err != nil {
		return 0, translateUnique(err)
	}
	return id, nil
}

func (r *PGRepository) DeleteTag(ctx context.Context, id int64) error {
	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `DELETE FROM post_tags WHERE tag_id = $1`, id); err != nil {
			return fmt.Errorf("detach tag: %w", err)
		}
		tag, err := tx.Exec(ctx, `DELETE FROM tags WHERE id = $1`, id)
		if err != nil {
			return fmt.Errorf("delete tag: %w", err)
		}
		if tag.RowsAffected() == 0 {
			return shared.ErrNotFound
		}
		return nil
	})
}

func (r *PGRepository) ListImages(ctx context.Context, postID int64) ([]Image, error) {
	rows, err := r.pool.Query(ctx, `SELECT id, post_id, object_name, alt_text, mime_type, size_bytes, created_at
		FROM post_images WHERE post_id = $1 ORDER BY created_at`, postID)
	if err != nil {
		return nil, fmt.Errorf("list images: %w", err)
	}
	defer rows.Close()

	var images []Image
	for rows.Next() {
		var img Image
		if err := rows.Scan(&img.ID, &img.PostID, &img.ObjectName, &img.AltText, &img.MimeType, &img.SizeBytes, &img.CreatedAt); err != nil {
			return nil, err
		}
		images = append(images, img)
	}
	return images, rows.Err()
}

func (r *PGRepository) AddImage(ctx context.Context, img *Image) (int64, error) {
	var id int64
	err := r.pool.QueryRow(ctx, `INSERT INTO post_images (post_id, object_name, alt_text, mime_type, size_bytes, created_at)
		VALUES ($1, $2, $3, $4, $5, NOW()) RETURNING id`,
		img.PostID, img.ObjectName, img.AltText, img.MimeType, img.SizeBytes).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("add image: %w", err)
	}
	return id, nil
}

func (r *PGRepository) DeleteImage(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM post_images WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete image: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

func translateUnique(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return shared.ErrDuplicate
	}
	return err
}

func scanPost(row pgx.Row, p *Post) error {
	return row.Scan(&p.ID, &p.Title, &p.Slug, &p.Excerpt, &p.Body, &p.Status,
		&p.CategoryID, &p.CategoryName, &p.CoverImageID, &p.AuthorID, &p.AuthorName,
		&p.PublishAt, &p.PublishedAt, &p.CreatedAt, &p.UpdatedAt)
}
