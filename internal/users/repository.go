package users

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/LevyMwanawasaMedicalUniversity/lmmuwebsite-sub002/internal/authz"
	"github.com/LevyMwanawasaMedicalUniversity/lmmuwebsite-sub002/internal/platform/db"
	"github.com/LevyMwanawasaMedicalUniversity/lmmuwebsite-sub002/internal/shared"
)

const userColumns = `id, username, email, role, is_active, created_at, updated_at`

// Repository provides PostgreSQL backed persistence for user administration.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

func scanUser(row pgx.Row) (User, error) {
	var u User
	err := row.Scan(&u.ID, &u.Username, &u.Email, &u.RoleLabel, &u.IsActive, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return User{}, shared.ErrNotFound
		}
		return User{}, err
	}
	return u, nil
}

// ListUsers returns all users ordered by username.
func (r *Repository) ListUsers(ctx context.Context) ([]User, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+userColumns+` FROM users ORDER BY username`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var users []User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

// GetUser fetches a user by ID.
func (r *Repository) GetUser(ctx context.Context, id int64) (User, error) {
	return scanUser(r.pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id))
}

// CreateUser inserts a new account. Username or email collisions yield
// shared.ErrDuplicate.
func (r *Repository) CreateUser(ctx context.Context, username, email, passwordHash, roleLabel string) (User, error) {
	u, err := scanUser(r.pool.QueryRow(ctx,
		`INSERT INTO users (username, email, password_hash, role, is_active)
		 VALUES ($1, $2, $3, $4, TRUE)
		 RETURNING `+userColumns, username, email, passwordHash, roleLabel))
	if err != nil {
		return User{}, translateUnique(err)
	}
	return u, nil
}

// UpdateUser applies a partial update. Demoting the last remaining superuser
// is rejected inside the same transaction so two concurrent demotions cannot
// both slip through.
func (r *Repository) UpdateUser(ctx context.Context, id int64, in UpdateInput) (User, error) {
	var updated User
	err := db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		current, err := scanUser(tx.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1 FOR UPDATE`, id))
		if err != nil {
			return err
		}
		if in.RoleLabel != nil &&
			authz.AuthorityFromLabel(current.RoleLabel) == authz.AuthoritySuper &&
			authz.AuthorityFromLabel(*in.RoleLabel) != authz.AuthoritySuper {
			if err := ensureAnotherSuperuser(ctx, tx, id); err != nil {
				return err
			}
		}
		updated, err = scanUser(tx.QueryRow(ctx,
			`UPDATE users
			 SET username = COALESCE($2, username),
			     email = COALESCE($3, email),
			     role = COALESCE($4, role),
			     is_active = COALESCE($5, is_active),
			     updated_at = now()
			 WHERE id = $1
			 RETURNING `+userColumns,
			id, in.Username, in.Email, in.RoleLabel, in.IsActive))
		if err != nil {
			return translateUnique(err)
		}
		return nil
	})
	if err != nil {
		return User{}, err
	}
	return updated, nil
}

// UpdatePasswordHash replaces the stored credential hash.
func (r *Repository) UpdatePasswordHash(ctx context.Context, id int64, passwordHash string) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE users SET password_hash = $2, updated_at = now() WHERE id = $1`, id, passwordHash)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// DeleteUser removes an account and its role/permission edges atomically.
// Deleting the last remaining superuser is rejected.
func (r *Repository) DeleteUser(ctx context.Context, id int64) error {
	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		current, err := scanUser(tx.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1 FOR UPDATE`, id))
		if err != nil {
			return err
		}
		if authz.AuthorityFromLabel(current.RoleLabel) == authz.AuthoritySuper {
			if err := ensureAnotherSuperuser(ctx, tx, id); err != nil {
				return err
			}
		}
		if _, err := tx.Exec(ctx, `DELETE FROM user_roles WHERE user_id = $1`, id); err != nil {
			return err
		}
		if _, err := tx.Exec(ctx, `DELETE FROM user_permissions WHERE user_id = $1`, id); err != nil {
			return err
		}
		_, err = tx.Exec(ctx, `DELETE FROM users WHERE id = $1`, id)
		return err
	})
}

// ReplaceRoles swaps the user's assigned roles wholesale inside one
// transaction: a concurrent capability check sees the old set or the new
// one, never a torn mixture.
func (r *Repository) ReplaceRoles(ctx context.Context, userID int64, roleIDs []int64) error {
	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		var exists bool
		if err := tx.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM users WHERE id = $1)`, userID).Scan(&exists); err != nil {
			return err
		}
		if !exists {
			return shared.ErrNotFound
		}
		if _, err := tx.Exec(ctx, `DELETE FROM user_roles WHERE user_id = $1`, userID); err != nil {
			return err
		}
		for _, roleID := range roleIDs {
			_, err := tx.Exec(ctx,
				`INSERT INTO user_roles (user_id, role_id)
				 SELECT $1, id FROM roles WHERE id = $2
				 ON CONFLICT (user_id, role_id) DO NOTHING`, userID, roleID)
			if err != nil {
				return err
			}
		}
		return nil
	})
}

// ReplaceDirectPermissions swaps the user's direct grants wholesale.
func (r *Repository) ReplaceDirectPermissions(ctx context.Context, userID int64, permissionIDs []int64) error {
	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		var exists bool
		if err := tx.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM users WHERE id = $1)`, userID).Scan(&exists); err != nil {
			return err
		}
		if !exists {
			return shared.ErrNotFound
		}
		if _, err := tx.Exec(ctx, `DELETE FROM user_permissions WHERE user_id = $1`, userID); err != nil {
			return err
		}
		for _, permissionID := range permissionIDs {
			_, err := tx.Exec(ctx,
				`INSERT INTO user_permissions (user_id, permission_id)
				 SELECT $1, id FROM permissions WHERE id = $2
				 ON CONFLICT (user_id, permission_id) DO NOTHING`, userID, permissionID)
			if err != nil {
				return err
			}
		}
		return nil
	})
}

// ListRoles returns the roles assigned to a user, by name.
func (r *Repository) ListRoles(ctx context.Context, userID int64) ([]RoleRef, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT ro.id, ro.name
		 FROM user_roles ur
		 JOIN roles ro ON ro.id = ur.role_id
		 WHERE ur.user_id = $1
		 ORDER BY ro.name`, userID)
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

// ListDirectPermissions returns the permissions granted straight to a user.
func (r *Repository) ListDirectPermissions(ctx context.Context, userID int64) ([]PermissionRef, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT p.id, p.name
		 FROM user_permissions up
		 JOIN permissions p ON p.id = up.permission_id
		 WHERE up.user_id = $1
		 ORDER BY p.name`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var refs []PermissionRef
	for rows.Next() {
		var ref PermissionRef
		if err := rows.Scan(&ref.ID, &ref.Name); err != nil {
			return nil, err
		}
		refs = append(refs, ref)
	}
	return refs, rows.Err()
}

func ensureAnotherSuperuser(ctx context.Context, tx pgx.Tx, excludeID int64) error {
	var remaining int
	err := tx.QueryRow(ctx,
		`SELECT COUNT(*) FROM users WHERE role = $1 AND id <> $2`,
		authz.RoleLabelSuper, excludeID).Scan(&remaining)
	if err != nil {
		return err
	}
	if remaining == 0 {
		return shared.ErrLastAdmin
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
