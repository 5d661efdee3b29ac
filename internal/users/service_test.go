package users

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/LevyMwanawasaMedicalUniversity/lmmuwebsite-sub002/internal/authz"
	"github.com/LevyMwanawasaMedicalUniversity/lmmuwebsite-sub002/internal/shared"
)

type storedUser struct {
	User
	passwordHash string
}

type mockRepository struct {
	users      map[int64]*storedUser
	roles      map[int64]map[int64]string // user id -> role id -> role name
	direct     map[int64]map[int64]string // user id -> permission id -> name
	knownRoles map[int64]string
	knownPerms map[int64]string
	nextID     int64
}

func newMockRepository() *mockRepository {
	return &mockRepository{
		users:      make(map[int64]*storedUser),
		roles:      make(map[int64]map[int64]string),
		direct:     make(map[int64]map[int64]string),
		knownRoles: make(map[int64]string),
		knownPerms: make(map[int64]string),
		nextID:     1,
	}
}

func (m *mockRepository) taken(username, email string, excludeID int64) bool {
	for id, u := range m.users {
		if id == excludeID {
			continue
		}
		if u.Username == username || u.Email == email {
			return true
		}
	}
	return false
}

func (m *mockRepository) superuserCount(excludeID int64) int {
	n := 0
	for id, u := range m.users {
		if id != excludeID && authz.AuthorityFromLabel(u.RoleLabel) == authz.AuthoritySuper {
			n++
		}
	}
	return n
}

func (m *mockRepository) ListUsers(ctx context.Context) ([]User, error) {
	out := make([]User, 0, len(m.users))
	for _, u := range m.users {
		out = append(out, u.User)
	}
	return out, nil
}

func (m *mockRepository) GetUser(ctx context.Context, id int64) (User, error) {
	u, ok := m.users[id]
	if !ok {
		return User{}, shared.ErrNotFound
	}
	return u.User, nil
}

func (m *mockRepository) CreateUser(ctx context.Context, username, email, passwordHash, roleLabel string) (User, error) {
	if m.taken(username, email, 0) {
		return User{}, shared.ErrDuplicate
	}
	u := &storedUser{
		User:         User{ID: m.nextID, Username: username, Email: email, RoleLabel: roleLabel, IsActive: true},
		passwordHash: passwordHash,
	}
	m.users[u.ID] = u
	m.nextID++
	return u.User, nil
}

func (m *mockRepository) UpdateUser(ctx context.Context, id int64, in UpdateInput) (User, error) {
	u, ok := m.users[id]
	if !ok {
		return User{}, shared.ErrNotFound
	}
	if in.RoleLabel != nil &&
		authz.AuthorityFromLabel(u.RoleLabel) == authz.AuthoritySuper &&
		authz.AuthorityFromLabel(*in.RoleLabel) != authz.AuthoritySuper &&
		m.superuserCount(id) == 0 {
		return User{}, shared.ErrLastAdmin
	}
	if in.Username != nil {
		if m.taken(*in.Username, "", id) {
			return User{}, shared.ErrDuplicate
		}
		u.Username = *in.Username
	}
	if in.Email != nil {
		u.Email = *in.Email
	}
	if in.RoleLabel != nil {
		u.RoleLabel = *in.RoleLabel
	}
	if in.IsActive != nil {
		u.IsActive = *in.IsActive
	}
	return u.User, nil
}

func (m *mockRepository) UpdatePasswordHash(ctx context.Context, id int64, passwordHash string) error {
	u, ok := m.users[id]
	if !ok {
		return shared.ErrNotFound
	}
	u.passwordHash = passwordHash
	return nil
}

func (m *mockRepository) DeleteUser(ctx context.Context, id int64) error {
	u, ok := m.users[id]
	if !ok {
		return shared.ErrNotFound
	}
	if authz.AuthorityFromLabel(u.RoleLabel) == authz.AuthoritySuper && m.superuserCount(id) == 0 {
		return shared.ErrLastAdmin
	}
	delete(m.users, id)
	delete(m.roles, id)
	delete(m.direct, id)
	return nil
}

func (m *mockRepository) ReplaceRoles(ctx context.Context, userID int64, roleIDs []int64) error {
	if _, ok := m.users[userID]; !ok {
		return shared.ErrNotFound
	}
	m.roles[userID] = make(map[int64]string)
	for _, id := range roleIDs {
		if name, known := m.knownRoles[id]; known {
			m.roles[userID][id] = name
		}
	}
	return nil
}

func (m *mockRepository) ReplaceDirectPermissions(ctx context.Context, userID int64, permissionIDs []int64) error {
	if _, ok := m.users[userID]; !ok {
		return shared.ErrNotFound
	}
	m.direct[userID] = make(map[int64]string)
	for _, id := range permissionIDs {
		if name, known := m.knownPerms[id]; known {
			m.direct[userID][id] = name
		}
	}
	return nil
}

func (m *mockRepository) ListRoles(ctx context.Context, userID int64) ([]RoleRef, error) {
	var refs []RoleRef
	for id, name := range m.roles[userID] {
		refs = append(refs, RoleRef{ID: id, Name: name})
	}
	return refs, nil
}

func (m *mockRepository) ListDirectPermissions(ctx context.Context, userID int64) ([]PermissionRef, error) {
	var refs []PermissionRef
	for id, name := range m.direct[userID] {
		refs = append(refs, PermissionRef{ID: id, Name: name})
	}
	return refs, nil
}

func strptr(s string) *string { return &s }

func TestCreateUserHashesPassword(t *testing.T) {
	repo := newMockRepository()
	svc := NewService(repo)

	u, err := svc.CreateUser(context.Background(), CreateInput{
		Username: "mchanda",
		Email:    "mchanda@lmmu.ac.zm",
		Password: "correct horse",
	})
	require.NoError(t, err)
	assert.Equal(t, "user", u.RoleLabel, "label defaults to the standard class")

	stored := repo.users[u.ID]
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(stored.passwordHash), []byte("correct horse")))
}

func TestCreateUserRejectsShortPassword(t *testing.T) {
	svc := NewService(newMockRepository())
	_, err := svc.CreateUser(context.Background(), CreateInput{
		Username: "x", Email: "x@lmmu.ac.zm", Password: "short",
	})
	assert.Error(t, err)
}

func TestCreateUserDuplicate(t *testing.T) {
	svc := NewService(newMockRepository())
	ctx := context.Background()

	_, err := svc.CreateUser(ctx, CreateInput{Username: "mchanda", Email: "mchanda@lmmu.ac.zm", Password: "longenough"})
	require.NoError(t, err)

	_, err = svc.CreateUser(ctx, CreateInput{Username: "mchanda", Email: "other@lmmu.ac.zm", Password: "longenough"})
	assert.ErrorIs(t, err, shared.ErrDuplicate)
}

func TestUpdateUserPartial(t *testing.T) {
	svc := NewService(newMockRepository())
	ctx := context.Background()

	u, err := svc.CreateUser(ctx, CreateInput{Username: "mchanda", Email: "mchanda@lmmu.ac.zm", Password: "longenough"})
	require.NoError(t, err)

	updated, err := svc.UpdateUser(ctx, u.ID, UpdateInput{Email: strptr("new@lmmu.ac.zm")})
	require.NoError(t, err)
	assert.Equal(t, "mchanda", updated.Username)
	assert.Equal(t, "new@lmmu.ac.zm", updated.Email)
}

func TestLastAdminCannotBeDemoted(t *testing.T) {
	svc := NewService(newMockRepository())
	ctx := context.Background()

	admin, err := svc.CreateUser(ctx, CreateInput{Username: "root", Email: "root@lmmu.ac.zm", Password: "longenough", RoleLabel: "admin"})
	require.NoError(t, err)

	_, err = svc.UpdateUser(ctx, admin.ID, UpdateInput{RoleLabel: strptr("user")})
	assert.ErrorIs(t, err, shared.ErrLastAdmin)

	// With a second superuser present the demotion goes through.
	_, err = svc.CreateUser(ctx, CreateInput{Username: "root2", Email: "root2@lmmu.ac.zm", Password: "longenough", RoleLabel: "admin"})
	require.NoError(t, err)
	_, err = svc.UpdateUser(ctx, admin.ID, UpdateInput{RoleLabel: strptr("user")})
	assert.NoError(t, err)
}

func TestLastAdminCannotBeDeleted(t *testing.T) {
	svc := NewService(newMockRepository())
	ctx := context.Background()

	admin, err := svc.CreateUser(ctx, CreateInput{Username: "root", Email: "root@lmmu.ac.zm", Password: "longenough", RoleLabel: "admin"})
	require.NoError(t, err)

	assert.ErrorIs(t, svc.DeleteUser(ctx, admin.ID), shared.ErrLastAdmin)
}

func TestReplaceRolesWholesale(t *testing.T) {
	repo := newMockRepository()
	repo.knownRoles[1] = "editor"
	repo.knownRoles[2] = "publisher"
	svc := NewService(repo)
	ctx := context.Background()

	u, err := svc.CreateUser(ctx, CreateInput{Username: "mchanda", Email: "mchanda@lmmu.ac.zm", Password: "longenough"})
	require.NoError(t, err)

	require.NoError(t, svc.ReplaceRoles(ctx, u.ID, []int64{1, 2, 999}))
	refs, err := svc.ListRoles(ctx, u.ID)
	require.NoError(t, err)
	assert.Len(t, refs, 2, "unknown role id is skipped")

	// Emptying the set removes every assignment.
	require.NoError(t, svc.ReplaceRoles(ctx, u.ID, nil))
	refs, err = svc.ListRoles(ctx, u.ID)
	require.NoError(t, err)
	assert.Empty(t, refs)
}

func TestReplaceDirectPermissions(t *testing.T) {
	repo := newMockRepository()
	repo.knownPerms[10] = "blog.publish"
	svc := NewService(repo)
	ctx := context.Background()

	u, err := svc.CreateUser(ctx, CreateInput{Username: "mchanda", Email: "mchanda@lmmu.ac.zm", Password: "longenough"})
	require.NoError(t, err)

	require.NoError(t, svc.ReplaceDirectPermissions(ctx, u.ID, []int64{10, 10}))
	refs, err := svc.ListDirectPermissions(ctx, u.ID)
	require.NoError(t, err)
	assert.Len(t, refs, 1, "intra-batch duplicate collapses")

	assert.ErrorIs(t, svc.ReplaceDirectPermissions(ctx, 404, []int64{10}), shared.ErrNotFound)
}

func TestSetPassword(t *testing.T) {
	repo := newMockRepository()
	svc := NewService(repo)
	ctx := context.Background()

	u, err := svc.CreateUser(ctx, CreateInput{Username: "mchanda", Email: "mchanda@lmmu.ac.zm", Password: "longenough"})
	require.NoError(t, err)

	require.NoError(t, svc.SetPassword(ctx, u.ID, "a new password"))
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(repo.users[u.ID].passwordHash), []byte("a new password")))

	assert.Error(t, svc.SetPassword(ctx, u.ID, "short"))
}
