package users

import "time"

// User is an account managed through the admin area. RoleLabel is the legacy
// flat label; the reserved superuser value grants unconditional access and is
// interpreted by the authz package only.
type User struct {
	ID        int64
	Username  string
	Email     string
	RoleLabel string
	IsActive  bool
	CreatedAt time.Time
	UpdatedAt time.Time
}

// RoleRef references a role assigned to a user.
type RoleRef struct {
	ID   int64
	Name string
}

// PermissionRef references a permission granted directly to a user.
type PermissionRef struct {
	ID   int64
	Name string
}

// CreateInput carries the fields for a new account.
type CreateInput struct {
	Username  string
	Email     string
	Password  string
	RoleLabel string
}

// UpdateInput carries a partial user update. Nil fields keep prior values.
type UpdateInput struct {
	Username  *string
	Email     *string
	RoleLabel *string
	IsActive  *bool
}
