package authz

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/LevyMwanawasaMedicalUniversity/lmmuwebsite-sub002/internal/shared"
)

// Repository defines the reads the resolver needs. Every call hits current
// edge state; nothing is cached between requests.
type Repository interface {
	// UserRoleLabel returns the flat role label for the user, or
	// shared.ErrNotFound when no such user exists.
	UserRoleLabel(ctx context.Context, userID int64) (string, error)
	// HasDirectGrant reports whether a user_permissions edge exists for the
	// named capability.
	HasDirectGrant(ctx context.Context, userID int64, capability string) (bool, error)
	// HasRoleGrant reports whether any of the user's assigned roles carries
	// the named capability.
	HasRoleGrant(ctx context.Context, userID int64, capability string) (bool, error)
	// DirectGrants lists capabilities granted straight to the user.
	DirectGrants(ctx context.Context, userID int64) ([]Grant, error)
	// RoleGrants lists capabilities inherited through the user's roles,
	// annotated with the originating role name.
	RoleGrants(ctx context.Context, userID int64) ([]Grant, error)
}

// PGRepository implements Repository against PostgreSQL.
type PGRepository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a PGRepository.
func NewRepository(pool *pgxpool.Pool) *PGRepository {
	return &PGRepository{pool: pool}
}

func (r *PGRepository) UserRoleLabel(ctx context.Context, userID int64) (string, error) {
	var label string
	err := r.pool.QueryRow(ctx, `SELECT role FROM users WHERE id = $1`, userID).Scan(&label)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", shared.ErrNotFound
		}
		return "", err
	}
	return label, nil
}

func (r *PGRepository) HasDirectGrant(ctx context.Context, userID int64, capability string) (bool, error) {
	const query = `
		SELECT EXISTS (
			SELECT 1
			FROM user_permissions up
			JOIN permissions p ON p.id = up.permission_id
			WHERE up.user_id = $1 AND p.name = $2
		)`
	var exists bool
	if err := r.pool.QueryRow(ctx, query, userID, capability).Scan(&exists); err != nil {
		return false, err
	}
	return exists, nil
}

func (r *PGRepository) HasRoleGrant(ctx context.Context, userID int64, capability string) (bool, error) {
	const query = `
		SELECT EXISTS (
			SELECT 1
			FROM user_roles ur
			JOIN role_permissions rp ON rp.role_id = ur.role_id
			JOIN permissions p ON p.id = rp.permission_id
			WHERE ur.user_id = $1 AND p.name = $2
		)`
	var exists bool
	if err := r.pool.QueryRow(ctx, query, userID, capability).Scan(&exists); err != nil {
		return false, err
	}
	return exists, nil
}

func (r *PGRepository) DirectGrants(ctx context.Context, userID int64) ([]Grant, error) {
	const query = `
		SELECT p.name, p.description
		FROM user_permissions up
		JOIN permissions p ON p.id = up.permission_id
		WHERE up.user_id = $1
		ORDER BY p.name`
	rows, err := r.pool.Query(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var grants []Grant
	for rows.Next() {
		var g Grant
		if err := rows.Scan(&g.Name, &g.Description); err != nil {
			return nil, err
		}
		grants = append(grants, g)
	}
	return grants, rows.Err()
}

func (r *PGRepository) RoleGrants(ctx context.Context, userID int64) ([]Grant, error) {
	const query = `
		SELECT p.name, p.description, r.name
		FROM user_roles ur
		JOIN roles r ON r.id = ur.role_id
		JOIN role_permissions rp ON rp.role_id = ur.role_id
		JOIN permissions p ON p.id = rp.permission_id
		WHERE ur.user_id = $1
		ORDER BY p.name, r.name`
	rows, err := r.pool.Query(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var grants []Grant
	for rows.Next() {
		var g Grant
		if err := rows.Scan(&g.Name, &g.Description, &g.RoleName); err != nil {
			return nil, err
		}
		grants = append(grants, g)
	}
	return grants, rows.Err()
}
