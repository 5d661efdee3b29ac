package roles

import "time"

// Role is a named, independently administrable bundle of permissions.
type Role struct {
	ID          int64
	Name        string
	Description string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// PermissionRef references a permission attached to a role.
type PermissionRef struct {
	ID   int64
	Name string
}

// UpdateInput carries a partial role update. Nil fields keep prior values.
type UpdateInput struct {
	Name        *string
	Description *string
}
