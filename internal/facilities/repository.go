package facilities

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/LevyMwanawasaMedicalUniversity/lmmuwebsite-sub002/internal/shared"
)

// Repository abstracts facility persistence.
type Repository interface {
	List(ctx context.Context) ([]Facility, error)
	Find(ctx context.Context, id int64) (*Facility, error)
	FindBySlug(ctx context.Context, slug string) (*Facility, error)
	Create(ctx context.Context, f *Facility) (int64, error)
	Update(ctx context.Context, f *Facility) error
	Delete(ctx context.Context, id int64) error
}

// PGRepository implements Repository using PostgreSQL.
type PGRepository struct {
	pool *pgxpool.Pool
}

// NewPGRepository builds a postgres-backed repository.
func NewPGRepository(pool *pgxpool.Pool) *PGRepository {
	return &PGRepository{pool: pool}
}

const facilityColumns = `id, name, slug, summary, description, location, created_at, updated_at`

func (r *PGRepository) List(ctx context.Context) ([]Facility, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+facilityColumns+` FROM facilities ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("list facilities: %w", err)
	}
	defer rows.Close()

	var facilities []Facility
	for rows.Next() {
		var f Facility
		if err := scanFacility(rows, &f); err != nil {
			return nil, err
		}
		facilities = append(facilities, f)
	}
	return facilities, rows.Err()
}

func (r *PGRepository) Find(ctx context.Context, id int64) (*Facility, error) {
	return r.find(ctx, "id = $1", id)
}

func (r *PGRepository) FindBySlug(ctx context.Context, slug string) (*Facility, error) {
	return r.find(ctx, "slug = $1", slug)
}

func (r *PGRepository) find(ctx context.Context, cond string, arg any) (*Facility, error) {
	var f Facility
	err := scanFacility(r.pool.QueryRow(ctx, `SELECT `+facilityColumns+` FROM facilities WHERE `+cond, arg), &f)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, shared.ErrNotFound
		}
		return nil, fmt.Errorf("find facility: %w", err)
	}
	return &f, nil
}

func (r *PGRepository) Create(ctx context.Context, f *Facility) (int64, error) {
	var id int64
	err := r.pool.QueryRow(ctx, `INSERT INTO facilities (name, slug, summary, description, location, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, NOW(), NOW()) RETURNING id`,
		f.Name, f.Slug, f.Summary, f.Description, f.Location).Scan(&id)
	if err != nil {
		return 0, translateUnique(err)
	}
	return id, nil
}

func (r *PGRepository) Update(ctx context.Context, f *Facility) error {
	tag, err := r.pool.Exec(ctx, `UPDATE facilities SET name = $2, slug = $3, summary = $4, description = $5, location = $6, updated_at = NOW()
		WHERE id = $1`, f.ID, f.Name, f.Slug, f.Summary, f.Description, f.Location)
	if err != nil {
		return translateUnique(err)
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

func (r *PGRepository) Delete(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM facilities WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete facility: %w", err)
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

func scanFacility(row pgx.Row, f *Facility) error {
	return row.Scan(&f.ID, &f.Name, &f.Slug, &f.Summary, &f.Description, &f.Location, &f.CreatedAt, &f.UpdatedAt)
}
