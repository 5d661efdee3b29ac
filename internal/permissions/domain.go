package permissions

// Permission is a named atomic capability.
type Permission struct {
	ID          int64
	Name        string
	Description string
}

// RoleRef references a role carrying the permission.
type RoleRef struct {
	ID   int64
	Name string
}

// UpdateInput carries a partial permission update. Nil fields keep prior
// values.
type UpdateInput struct {
	Name        *string
	Description *string
}
