package users

import (
	"context"
	"errors"
	"strings"

	"golang.org/x/crypto/bcrypt"
)

// RepositoryPort defines data access methods for user administration.
type RepositoryPort interface {
	ListUsers(ctx context.Context) ([]User, error)
	GetUser(ctx context.Context, id int64) (User, error)
	CreateUser(ctx context.Context, username, email, passwordHash, roleLabel string) (User, error)
	UpdateUser(ctx context.Context, id int64, in UpdateInput) (User, error)
	UpdatePasswordHash(ctx context.Context, id int64, passwordHash string) error
	DeleteUser(ctx context.Context, id int64) error
	ReplaceRoles(ctx context.Context, userID int64, roleIDs []int64) error
	ReplaceDirectPermissions(ctx context.Context, userID int64, permissionIDs []int64) error
	ListRoles(ctx context.Context, userID int64) ([]RoleRef, error)
	ListDirectPermissions(ctx context.Context, userID int64) ([]PermissionRef, error)
}

// Service handles user administration business logic.
type Service struct {
	repo RepositoryPort
}

// NewService builds Service instance.
func NewService(repo RepositoryPort) *Service {
	return &Service{repo: repo}
}

// ListUsers returns all users.
func (s *Service) ListUsers(ctx context.Context) ([]User, error) {
	return s.repo.ListUsers(ctx)
}

// GetUser fetches a user by ID.
func (s *Service) GetUser(ctx context.Context, id int64) (User, error) {
	return s.repo.GetUser(ctx, id)
}

// CreateUser registers a new account with a bcrypt-hashed credential.
func (s *Service) CreateUser(ctx context.Context, in CreateInput) (User, error) {
	in.Username = strings.TrimSpace(in.Username)
	in.Email = strings.TrimSpace(in.Email)
	if in.Username == "" || in.Email == "" {
		return User{}, errors.New("users: username and email required")
	}
	if len(in.Password) < 8 {
		return User{}, errors.New("users: password too short")
	}
	roleLabel := strings.TrimSpace(in.RoleLabel)
	if roleLabel == "" {
		roleLabel = "user"
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return User{}, err
	}
	return s.repo.CreateUser(ctx, in.Username, in.Email, string(hash), roleLabel)
}

// UpdateUser applies a partial update; omitted fields keep prior values.
func (s *Service) UpdateUser(ctx context.Context, id int64, in UpdateInput) (User, error) {
	if in.Username != nil {
		trimmed := strings.TrimSpace(*in.Username)
		if trimmed == "" {
			return User{}, errors.New("users: username required")
		}
		in.Username = &trimmed
	}
	if in.Email != nil {
		trimmed := strings.TrimSpace(*in.Email)
		if trimmed == "" {
			return User{}, errors.New("users: email required")
		}
		in.Email = &trimmed
	}
	if in.RoleLabel != nil {
		trimmed := strings.TrimSpace(*in.RoleLabel)
		in.RoleLabel = &trimmed
	}
	return s.repo.UpdateUser(ctx, id, in)
}

// SetPassword replaces the account credential.
func (s *Service) SetPassword(ctx context.Context, id int64, password string) error {
	if len(password) < 8 {
		return errors.New("users: password too short")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	return s.repo.UpdatePasswordHash(ctx, id, string(hash))
}

// DeleteUser removes an account and its edges.
func (s *Service) DeleteUser(ctx context.Context, id int64) error {
	return s.repo.DeleteUser(ctx, id)
}

// ReplaceRoles replaces the user's assigned roles wholesale.
func (s *Service) ReplaceRoles(ctx context.Context, userID int64, roleIDs []int64) error {
	return s.repo.ReplaceRoles(ctx, userID, roleIDs)
}

// ReplaceDirectPermissions replaces the user's direct grants wholesale.
func (s *Service) ReplaceDirectPermissions(ctx context.Context, userID int64, permissionIDs []int64) error {
	return s.repo.ReplaceDirectPermissions(ctx, userID, permissionIDs)
}

// ListRoles returns the roles assigned to a user.
func (s *Service) ListRoles(ctx context.Context, userID int64) ([]RoleRef, error) {
	return s.repo.ListRoles(ctx, userID)
}

// ListDirectPermissions returns the user's direct grants.
func (s *Service) ListDirectPermissions(ctx context.Context, userID int64) ([]PermissionRef, error) {
	return s.repo.ListDirectPermissions(ctx, userID)
}
