package academics

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/LevyMwanawasaMedicalUniversity/lmmuwebsite-sub002/internal/platform/db"
	"github.com/LevyMwanawasaMedicalUniversity/lmmuwebsite-sub002/internal/shared"
)

// Repository abstracts academics persistence.
type Repository interface {
	ListSchools(ctx context.Context) ([]School, error)
	FindSchool(ctx context.Context, id int64) (*School, error)
	FindSchoolBySlug(ctx context.Context, slug string) (*School, error)
	CreateSchool(ctx context.Context, s *School) (int64, error)
	UpdateSchool(ctx context.Context, s *School) error
	DeleteSchool(ctx context.Context, id int64) error

	ListProgrammes(ctx context.Context, schoolID int64) ([]Programme, error)
	FindProgramme(ctx context.Context, id int64) (*Programme, error)
	CreateProgramme(ctx context.Context, p *Programme) (int64, error)
	UpdateProgramme(ctx context.Context, p *Programme) error
	DeleteProgramme(ctx context.Context, id int64) error
}

// PGRepository implements Repository using PostgreSQL.
type PGRepository struct {
	pool *pgxpool.Pool
}

// NewPGRepository builds a postgres-backed repository.
func NewPGRepository(pool *pgxpool.Pool) *PGRepository {
	return &PGRepository{pool: pool}
}

func (r *PGRepository) ListSchools(ctx context.Context) ([]School, error) {
	rows, err := r.pool.Query(ctx, `SELECT id, name, slug, description, created_at, updated_at
		FROM schools ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("list schools: %w", err)
	}
	defer rows.Close()

	var schools []School
	for rows.Next() {
		var s School
		if err := rows.Scan(&s.ID, &s.Name, &s.Slug, &s.Description, &s.CreatedAt, &s.UpdatedAt); err != nil {
			return nil, err
		}
		schools = append(schools, s)
	}
	return schools, rows.Err()
}

func (r *PGRepository) FindSchool(ctx context.Context, id int64) (*School, error) {
	return r.findSchool(ctx, "id = $1", id)
}

func (r *PGRepository) FindSchoolBySlug(ctx context.Context, slug string) (*School, error) {
	return r.findSchool(ctx, "slug = $1", slug)
}

func (r *PGRepository) findSchool(ctx context.Context, cond string, arg any) (*School, error) {
	var s School
	err := r.pool.QueryRow(ctx, `SELECT id, name, slug, description, created_at, updated_at
		FROM schools WHERE `+cond, arg).
		Scan(&s.ID, &s.Name, &s.Slug, &s.Description, &s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, shared.ErrNotFound
		}
		return nil, fmt.Errorf("find school: %w", err)
	}
	programmes, err := r.ListProgrammes(ctx, s.ID)
	if err != nil {
		return nil, err
	}
	s.Programmes = programmes
	return &s, nil
}

func (r *PGRepository) CreateSchool(ctx context.Context, s *School) (int64, error) {
	var id int64
	err := r.pool.QueryRow(ctx, `INSERT INTO schools (name, slug, description, created_at, updated_at)
		VALUES ($1, $2, $3, NOW(), NOW()) RETURNING id`, s.Name, s.Slug, s.Description).Scan(&id)
	if err != nil {
		return 0, translateUnique(err)
	}
	return id, nil
}

func (r *PGRepository) UpdateSchool(ctx context.Context, s *School) error {
	tag, err := r.pool.Exec(ctx, `UPDATE schools SET name = $2, slug = $3, description = $4, updated_at = NOW()
		WHERE id = $1`, s.ID, s.Name, s.Slug, s.Description)
	if err != nil {
		return translateUnique(err)
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// DeleteSchool removes the school and its programmes together.
func (r *PGRepository) DeleteSchool(ctx context.Context, id int64) error {
	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `DELETE FROM programmes WHERE school_id = $1`, id); err != nil {
			return fmt.Errorf("delete programmes: %w", err)
		}
		tag, err := tx.Exec(ctx, `DELETE FROM schools WHERE id = $1`, id)
		if err != nil {
			return fmt.Errorf("delete school: %w", err)
		}
		if tag.RowsAffected() == 0 {
			return shared.ErrNotFound
		}
		return nil
	})
}

func (r *PGRepository) ListProgrammes(ctx context.Context, schoolID int64) ([]Programme, error) {
	query := `SELECT p.id, p.school_id, s.name, p.name, p.slug, p.level, p.duration_years, p.description, p.created_at, p.updated_at
		FROM programmes p JOIN schools s ON s.id = p.school_id`
	args := []any{}
	if schoolID > 0 {
		query += ` WHERE p.school_id = $1`
		args = append(args, schoolID)
	}
	query += ` ORDER BY p.name`

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list programmes: %w", err)
	}
	defer rows.Close()

	var programmes []Programme
	for rows.Next() {
		var p Programme
		if err := rows.Scan(&p.ID, &p.SchoolID, &p.SchoolName, &p.Name, &p.Slug, &p.Level, &p.DurationYears, &p.Description, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, err
		}
		programmes = append(programmes, p)
	}
	return programmes, rows.Err()
}

func (r *PGRepository) FindProgramme(ctx context.Context, id int64) (*Programme, error) {
	var p Programme
	err := r.pool.QueryRow(ctx, `SELECT p.id, p.school_id, s.name, p.name, p.slug, p.level, p.duration_years, p.description, p.created_at, p.updated_at
		FROM programmes p JOIN schools s ON s.id = p.school_id WHERE p.id = $1`, id).
		Scan(&p.ID, &p.SchoolID, &p.SchoolName, &p.Name, &p.Slug, &p.Level, &p.DurationYears, &p.Description, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, shared.ErrNotFound
		}
		return nil, fmt.Errorf("find programme: %w", err)
	}
	return &p, nil
}

func (r *PGRepository) CreateProgramme(ctx context.Context, p *Programme) (int64, error) {
	var id int64
	err := r.pool.QueryRow(ctx, `INSERT INTO programmes (school_id, name, slug, level, duration_years, description, created_at, updated_at)
		SELECT id, $2, $3, $4, $5, $6, NOW(), NOW() FROM schools WHERE id = $1 RETURNING id`,
		p.SchoolID, p.Name, p.Slug, p.Level, p.DurationYears, p.Description).Scan(&id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, shared.ErrNotFound
		}
		return 0, translateUnique(err)
	}
	return id, nil
}

func (r *PGRepository) UpdateProgramme(ctx context.Context, p *Programme) error {
	tag, err := r.pool.Exec(ctx, `UPDATE programmes SET name = $2, slug = $3, level = $4, duration_years = $5, description = $6, updated_at = NOW()
		WHERE id = $1`, p.ID, p.Name, p.Slug, p.Level, p.DurationYears, p.Description)
	if err != nil {
		return translateUnique(err)
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

func (r *PGRepository) DeleteProgramme(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM programmes WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete programme: %w", err)
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
