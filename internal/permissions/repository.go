package permissions

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/LevyMwanawasaMedicalUniversity/lmmuwebsite-sub002/internal/platform/db"
	"github.com/LevyMwanawasaMedicalUniversity/lmmuwebsite-sub002/internal/shared"
)

// Repository provides PostgreSQL backed persistence for permissions.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// ListPermissions returns all permissions ordered by name.
func (r *Repository) ListPermissions(ctx context.Context) ([]Permission, error) {
	rows, err := r.pool.Query(ctx, `SELECT id, name, description FROM permissions ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var perms []Permission
	for rows.Next() {
		var p Permission
		if err := rows.Scan(&p.ID, &p.Name, &p.Description); err != nil {
			return nil, err
		}
		perms = append(perms, p)
	}
	return perms, rows.Err()
}

// GetPermission fetches a permission by ID.
func (r *Repository) GetPermission(ctx context.Context, id int64) (Permission, error) {
	var p Permission
	err := r.pool.QueryRow(ctx, `SELECT id, name, description FROM permissions WHERE id = $1`, id).
		Scan(&p.ID, &p.Name, &p.Description)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Permission{}, shared.ErrNotFound
		}
		return Permission{}, err
	}
	return p, nil
}

// CreatePermission inserts a new permission, optionally attaching it to an
// initial set of roles in the same transaction.
func (r *Repository) CreatePermission(ctx context.Context, name, description string, roleIDs []int64) (Permission, error) {
	var p Permission
	err := db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		err := tx.QueryRow(ctx,
			`INSERT INTO permissions (name, description) VALUES ($1, $2)
			 RETURNING id, name, description`, name, description).
			Scan(&p.ID, &p.Name, &p.Description)
		if err != nil {
			return translateUnique(err)
		}
		return insertPermissionRoles(ctx, tx, p.ID, roleIDs)
	})
	if err != nil {
		return Permission{}, err
	}
	return p, nil
}

// UpdatePermission applies a partial update.
func (r *Repository) UpdatePermission(ctx context.Context, id int64, in UpdateInput) (Permission, error) {
	var p Permission
	err := r.pool.QueryRow(ctx,
		`UPDATE permissions
		 SET name = COALESCE($2, name),
		     description = COALESCE($3, description)
		 WHERE id = $1
		 RETURNING id, name, description`,
		id, in.Name, in.Description).
		Scan(&p.ID, &p.Name, &p.Description)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Permission{}, shared.ErrNotFound
		}
		return Permission{}, translateUnique(err)
	}
	return p, nil
}

// DeletePermission removes a permission together with every edge referencing
// it. Deleting a permission no edge references is not an error.
func (r *Repository) DeletePermission(ctx context.Context, id int64) error {
	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `DELETE FROM role_permissions WHERE permission_id = $1`, id); err != nil {
			return err
		}
		if _, err := tx.Exec(ctx, `DELETE FROM user_permissions WHERE permission_id = $1`, id); err != nil {
			return err
		}
		tag, err := tx.Exec(ctx, `DELETE FROM permissions WHERE id = $1`, id)
		if err != nil {
			return err
		}
		if tag.RowsAffected() == 0 {
			return shared.ErrNotFound
		}
		return nil
	})
}

// ReplaceRoles swaps the set of roles carrying this permission wholesale.
func (r *Repository) ReplaceRoles(ctx context.Context, permissionID int64, roleIDs []int64) error {
	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		var exists bool
		if err := tx.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM permissions WHERE id = $1)`, permissionID).Scan(&exists); err != nil {
			return err
		}
		if !exists {
			return shared.ErrNotFound
		}
		if _, err := tx.Exec(ctx, `DELETE FROM role_permissions WHERE permission_id = $1`, permissionID); err != nil {
			return err
		}
		return insertPermissionRoles(ctx, tx, permissionID, roleIDs)
	})
}

// ListRoles returns the roles carrying a permission, by name.
func (r *Repository) ListRoles(ctx context.Context, permissionID int64) ([]RoleRef, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT ro.id, ro.name
		 FROM role_permissions rp
		 JOIN roles ro ON ro.id = rp.role_id
		 WHERE rp.permission_id = $1
		 ORDER BY ro.name`, permissionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var refs []RoleRef
	for rows.Next() {
		var ref RoleRef
		if err := rows.Scan(&ref.ID, &ref.Name); err != nil {
			return nil, err
		}
		refs = append(refs, ref)
	}
	return refs, rows.Err()
}

func insertPermissionRoles(ctx context.Context, tx pgx.Tx, permissionID int64, roleIDs []int64) error {
	for _, roleID := range roleIDs {
		_, err := tx.Exec(ctx,
			`INSERT INTO role_permissions (role_id, permission_id)
			 SELECT id, $1 FROM roles WHERE id = $2
			 ON CONFLICT (role_id, permission_id) DO NOTHING`,
			permissionID, roleID)
		if err != nil {
			return err
		}
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
