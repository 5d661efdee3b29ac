package permissions

import (
	"context"
	"errors"
	"strings"
)

// RepositoryPort defines data access methods for permissions.
type RepositoryPort interface {
	ListPermissions(ctx context.Context) ([]Permission, error)
	GetPermission(ctx context.Context, id int64) (Permission, error)
	CreatePermission(ctx context.Context, name, description string, roleIDs []int64) (Permission, error)
	UpdatePermission(ctx context.Context, id int64, in UpdateInput) (Permission, error)
	DeletePermission(ctx context.Context, id int64) error
	ReplaceRoles(ctx context.Context, permissionID int64, roleIDs []int64) error
	ListRoles(ctx context.Context, permissionID int64) ([]RoleRef, error)
}

// Service handles permission business logic.
type Service struct {
	repo RepositoryPort
}

// NewService builds Service instance.
func NewService(repo RepositoryPort) *Service {
	return &Service{repo: repo}
}

// ListPermissions returns all permissions.
func (s *Service) ListPermissions(ctx context.Context) ([]Permission, error) {
	return s.repo.ListPermissions(ctx)
}

// GetPermission fetches a permission by ID.
func (s *Service) GetPermission(ctx context.Context, id int64) (Permission, error) {
	return s.repo.GetPermission(ctx, id)
}

// CreatePermission inserts a new permission with optional initial role edges.
func (s *Service) CreatePermission(ctx context.Context, name, description string, roleIDs []int64) (Permission, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return Permission{}, errors.New("permissions: name required")
	}
	return s.repo.CreatePermission(ctx, name, strings.TrimSpace(description), roleIDs)
}

// UpdatePermission applies a partial update; omitted fields keep prior values.
func (s *Service) UpdatePermission(ctx context.Context, id int64, in UpdateInput) (Permission, error) {
	if in.Name != nil {
		trimmed := strings.TrimSpace(*in.Name)
		if trimmed == "" {
			return Permission{}, errors.New("permissions: name required")
		}
		in.Name = &trimmed
	}
	if in.Description != nil {
		trimmed := strings.TrimSpace(*in.Description)
		in.Description = &trimmed
	}
	return s.repo.UpdatePermission(ctx, id, in)
}

// DeletePermission removes a permission and every edge referencing it.
func (s *Service) DeletePermission(ctx context.Context, id int64) error {
	return s.repo.DeletePermission(ctx, id)
}

// ReplaceRoles replaces the set of roles carrying this permission wholesale.
func (s *Service) ReplaceRoles(ctx context.Context, permissionID int64, roleIDs []int64) error {
	return s.repo.ReplaceRoles(ctx, permissionID, roleIDs)
}

// ListRoles returns the roles carrying a permission.
func (s *Service) ListRoles(ctx context.Context, permissionID int64) ([]RoleRef, error) {
	return s.repo.ListRoles(ctx, permissionID)
}
