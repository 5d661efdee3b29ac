package roles

import (
	"context"
	"errors"
	"strings"
)

// RepositoryPort defines data access methods for roles.
type RepositoryPort interface {
	ListRoles(ctx context.Context) ([]Role, error)
	GetRole(ctx context.Context, id int64) (Role, error)
	CreateRole(ctx context.Context, name, description string, permissionIDs []int64) (Role, error)
	UpdateRole(ctx context.Context, id int64, in UpdateInput) (Role, error)
	DeleteRole(ctx context.Context, id int64) error
	ReplacePermissions(ctx context.Context, roleID int64, permissionIDs []int64) error
	ListPermissions(ctx context.Context, roleID int64) ([]PermissionRef, error)
}

// Service handles role business logic.
type Service struct {
	repo RepositoryPort
}

// NewService builds Service instance.
func NewService(repo RepositoryPort) *Service {
	return &Service{repo: repo}
}

// ListRoles returns all roles.
func (s *Service) ListRoles(ctx context.Context) ([]Role, error) {
	return s.repo.ListRoles(ctx)
}

// GetRole fetches a role by ID.
func (s *Service) GetRole(ctx context.Context, id int64) (Role, error) {
	return s.repo.GetRole(ctx, id)
}

// CreateRole inserts a new role with an optional initial permission set.
func (s *Service) CreateRole(ctx context.Context, name, description string, permissionIDs []int64) (Role, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return Role{}, errors.New("roles: name required")
	}
	return s.repo.CreateRole(ctx, name, strings.TrimSpace(description), permissionIDs)
}

// UpdateRole applies a partial update; omitted fields keep prior values.
func (s *Service) UpdateRole(ctx context.Context, id int64, in UpdateInput) (Role, error) {
	if in.Name != nil {
		trimmed := strings.TrimSpace(*in.Name)
		if trimmed == "" {
			return Role{}, errors.New("roles: name required")
		}
		in.Name = &trimmed
	}
	if in.Description != nil {
		trimmed := strings.TrimSpace(*in.Description)
		in.Description = &trimmed
	}
	return s.repo.UpdateRole(ctx, id, in)
}

// DeleteRole removes a role and every edge referencing it.
func (s *Service) DeleteRole(ctx context.Context, id int64) error {
	return s.repo.DeleteRole(ctx, id)
}

// ReplacePermissions replaces the role's permission set wholesale.
func (s *Service) ReplacePermissions(ctx context.Context, roleID int64, permissionIDs []int64) error {
	return s.repo.ReplacePermissions(ctx, roleID, permissionIDs)
}

// ListPermissions returns the permissions attached to a role.
func (s *Service) ListPermissions(ctx context.Context, roleID int64) ([]PermissionRef, error) {
	return s.repo.ListPermissions(ctx, roleID)
}
