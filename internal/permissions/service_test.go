package permissions

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/LevyMwanawasaMedicalUniversity/lmmuwebsite-sub002/internal/shared"
)

type mockRepository struct {
	perms      map[int64]*Permission
	roleEdges  map[int64]map[int64]string // permission id -> role id -> role name
	knownRoles map[int64]string
	nextID     int64
}

func newMockRepository() *mockRepository {
	return &mockRepository{
		perms:      make(map[int64]*Permission),
		roleEdges:  make(map[int64]map[int64]string),
		knownRoles: make(map[int64]string),
		nextID:     1,
	}
}

func (m *mockRepository) nameTaken(name string, excludeID int64) bool {
	for id, p := range m.perms {
		if id != excludeID && p.Name == name {
			return true
		}
	}
	return false
}

func (m *mockRepository) ListPermissions(ctx context.Context) ([]Permission, error) {
	out := make([]Permission, 0, len(m.perms))
	for _, p := range m.perms {
		out = append(out, *p)
	}
	return out, nil
}

func (m *mockRepository) GetPermission(ctx context.Context, id int64) (Permission, error) {
	p, ok := m.perms[id]
	if !ok {
		return Permission{}, shared.ErrNotFound
	}
	return *p, nil
}

func (m *mockRepository) CreatePermission(ctx context.Context, name, description string, roleIDs []int64) (Permission, error) {
	if m.nameTaken(name, 0) {
		return Permission{}, shared.ErrDuplicate
	}
	p := &Permission{ID: m.nextID, Name: name, Description: description}
	m.perms[p.ID] = p
	m.nextID++
	m.attach(p.ID, roleIDs)
	return *p, nil
}

func (m *mockRepository) UpdatePermission(ctx context.Context, id int64, in UpdateInput) (Permission, error) {
	p, ok := m.perms[id]
	if !ok {
		return Permission{}, shared.ErrNotFound
	}
	if in.Name != nil {
		if m.nameTaken(*in.Name, id) {
			return Permission{}, shared.ErrDuplicate
		}
		p.Name = *in.Name
	}
	if in.Description != nil {
		p.Description = *in.Description
	}
	return *p, nil
}

func (m *mockRepository) DeletePermission(ctx context.Context, id int64) error {
	if _, ok := m.perms[id]; !ok {
		return shared.ErrNotFound
	}
	delete(m.perms, id)
	delete(m.roleEdges, id)
	return nil
}

func (m *mockRepository) ReplaceRoles(ctx context.Context, permissionID int64, roleIDs []int64) error {
	if _, ok := m.perms[permissionID]; !ok {
		return shared.ErrNotFound
	}
	m.roleEdges[permissionID] = nil
	m.attach(permissionID, roleIDs)
	return nil
}

func (m *mockRepository) ListRoles(ctx context.Context, permissionID int64) ([]RoleRef, error) {
	var refs []RoleRef
	for id, name := range m.roleEdges[permissionID] {
		refs = append(refs, RoleRef{ID: id, Name: name})
	}
	return refs, nil
}

func (m *mockRepository) attach(permissionID int64, roleIDs []int64) {
	if m.roleEdges[permissionID] == nil {
		m.roleEdges[permissionID] = make(map[int64]string)
	}
	for _, id := range roleIDs {
		name, known := m.knownRoles[id]
		if !known {
			continue
		}
		m.roleEdges[permissionID][id] = name
	}
}

func strptr(s string) *string { return &s }

func TestCreatePermissionRejectsDuplicateName(t *testing.T) {
	svc := NewService(newMockRepository())
	ctx := context.Background()

	_, err := svc.CreatePermission(ctx, "blog.edit", "Edit blog posts", nil)
	require.NoError(t, err)

	_, err = svc.CreatePermission(ctx, "blog.edit", "", nil)
	assert.ErrorIs(t, err, shared.ErrDuplicate)

	// Case-sensitive uniqueness: a different casing is a distinct name.
	_, err = svc.CreatePermission(ctx, "Blog.Edit", "", nil)
	assert.NoError(t, err)
}

func TestCreatePermissionWithInitialRoles(t *testing.T) {
	repo := newMockRepository()
	repo.knownRoles[5] = "editor"
	svc := NewService(repo)
	ctx := context.Background()

	p, err := svc.CreatePermission(ctx, "blog.publish", "", []int64{5, 5, 404})
	require.NoError(t, err)

	refs, err := svc.ListRoles(ctx, p.ID)
	require.NoError(t, err)
	require.Len(t, refs, 1)
	assert.Equal(t, "editor", refs[0].Name)
}

func TestUpdatePermissionPartial(t *testing.T) {
	svc := NewService(newMockRepository())
	ctx := context.Background()

	p, err := svc.CreatePermission(ctx, "blog.view", "old", nil)
	require.NoError(t, err)

	updated, err := svc.UpdatePermission(ctx, p.ID, UpdateInput{Description: strptr("new")})
	require.NoError(t, err)
	assert.Equal(t, "blog.view", updated.Name)
	assert.Equal(t, "new", updated.Description)
}

func TestUpdatePermissionRenameCollision(t *testing.T) {
	svc := NewService(newMockRepository())
	ctx := context.Background()

	_, err := svc.CreatePermission(ctx, "blog.view", "", nil)
	require.NoError(t, err)
	other, err := svc.CreatePermission(ctx, "blog.edit", "", nil)
	require.NoError(t, err)

	_, err = svc.UpdatePermission(ctx, other.ID, UpdateInput{Name: strptr("blog.view")})
	assert.ErrorIs(t, err, shared.ErrDuplicate)
}

func TestReplaceRolesWholesale(t *testing.T) {
	repo := newMockRepository()
	repo.knownRoles[1] = "editor"
	repo.knownRoles[2] = "publisher"
	svc := NewService(repo)
	ctx := context.Background()

	p, err := svc.CreatePermission(ctx, "blog.publish", "", []int64{1})
	require.NoError(t, err)

	require.NoError(t, svc.ReplaceRoles(ctx, p.ID, []int64{2}))
	refs, err := svc.ListRoles(ctx, p.ID)
	require.NoError(t, err)
	require.Len(t, refs, 1)
	assert.Equal(t, "publisher", refs[0].Name)
}

func TestDeletePermissionWithoutEdges(t *testing.T) {
	svc := NewService(newMockRepository())
	ctx := context.Background()

	p, err := svc.CreatePermission(ctx, "orphan.capability", "", nil)
	require.NoError(t, err)

	// Zero referencing edges is fine.
	assert.NoError(t, svc.DeletePermission(ctx, p.ID))
	assert.ErrorIs(t, svc.DeletePermission(ctx, p.ID), shared.ErrNotFound)
}

func TestUpdatePermissionUnknown(t *testing.T) {
	svc := NewService(newMockRepository())
	_, err := svc.UpdatePermission(context.Background(), 99, UpdateInput{Name: strptr("x")})
	assert.ErrorIs(t, err, shared.ErrNotFound)
}
