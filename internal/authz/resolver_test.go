package authz

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/LevyMwanawasaMedicalUniversity/lmmuwebsite-sub002/internal/shared"
)

// mockRepository models the six tables in memory.
type mockRepository struct {
	labels      map[int64]string             // user id -> flat role label
	direct      map[int64]map[string]string  // user id -> capability name -> description
	userRoles   map[int64][]string           // user id -> role names
	rolePerms   map[string]map[string]string // role name -> capability name -> description

	// Error injection
	labelError error
	grantError error
}

func newMockRepository() *mockRepository {
	return &mockRepository{
		labels:    make(map[int64]string),
		direct:    make(map[int64]map[string]string),
		userRoles: make(map[int64][]string),
		rolePerms: make(map[string]map[string]string),
	}
}

func (m *mockRepository) addUser(id int64, label string) {
	m.labels[id] = label
}

func (m *mockRepository) grantDirect(userID int64, name, description string) {
	if m.direct[userID] == nil {
		m.direct[userID] = make(map[string]string)
	}
	m.direct[userID][name] = description
}

func (m *mockRepository) assignRole(userID int64, role string) {
	m.userRoles[userID] = append(m.userRoles[userID], role)
}

func (m *mockRepository) grantToRole(role, name, description string) {
	if m.rolePerms[role] == nil {
		m.rolePerms[role] = make(map[string]string)
	}
	m.rolePerms[role][name] = description
}

func (m *mockRepository) UserRoleLabel(ctx context.Context, userID int64) (string, error) {
	if m.labelError != nil {
		return "", m.labelError
	}
	label, ok := m.labels[userID]
	if !ok {
		return "", shared.ErrNotFound
	}
	return label, nil
}

func (m *mockRepository) HasDirectGrant(ctx context.Context, userID int64, capability string) (bool, error) {
	if m.grantError != nil {
		return false, m.grantError
	}
	_, ok := m.direct[userID][capability]
	return ok, nil
}

func (m *mockRepository) HasRoleGrant(ctx context.Context, userID int64, capability string) (bool, error) {
	if m.grantError != nil {
		return false, m.grantError
	}
	for _, role := range m.userRoles[userID] {
		if _, ok := m.rolePerms[role][capability]; ok {
			return true, nil
		}
	}
	return false, nil
}

func (m *mockRepository) DirectGrants(ctx context.Context, userID int64) ([]Grant, error) {
	if m.grantError != nil {
		return nil, m.grantError
	}
	var grants []Grant
	for name, desc := range m.direct[userID] {
		grants = append(grants, Grant{Name: name, Description: desc})
	}
	return grants, nil
}

func (m *mockRepository) RoleGrants(ctx context.Context, userID int64) ([]Grant, error) {
	if m.grantError != nil {
		return nil, m.grantError
	}
	var grants []Grant
	for _, role := range m.userRoles[userID] {
		for name, desc := range m.rolePerms[role] {
			grants = append(grants, Grant{Name: name, Description: desc, RoleName: role})
		}
	}
	return grants, nil
}

func TestAuthorityFromLabel(t *testing.T) {
	assert.Equal(t, AuthoritySuper, AuthorityFromLabel("admin"))
	assert.Equal(t, AuthorityStandard, AuthorityFromLabel("user"))
	assert.Equal(t, AuthorityStandard, AuthorityFromLabel(""))
	// The match is case-sensitive by design.
	assert.Equal(t, AuthorityStandard, AuthorityFromLabel("Admin"))
	assert.Equal(t, AuthorityStandard, AuthorityFromLabel("ADMIN"))
}

func TestHasCapabilitySuperuserHoldsEverything(t *testing.T) {
	repo := newMockRepository()
	repo.addUser(1, "admin")
	svc := NewService(repo, nil)

	ctx := context.Background()
	assert.True(t, svc.HasCapability(ctx, 1, "manage_permissions"))
	assert.True(t, svc.HasCapability(ctx, 1, "blog.publish"))
	// Including names with zero rows in the permission table.
	assert.True(t, svc.HasCapability(ctx, 1, "no_such_capability_anywhere"))
}

func TestHasCapabilitySuperuserSkipsEdgeTables(t *testing.T) {
	repo := newMockRepository()
	repo.addUser(1, "admin")
	// Edge reads would fail; a superuser check must never reach them.
	repo.grantError = errors.New("edge tables unreachable")
	svc := NewService(repo, nil)

	assert.True(t, svc.HasCapability(context.Background(), 1, "users.edit"))
}

func TestHasCapabilityViaRole(t *testing.T) {
	repo := newMockRepository()
	repo.addUser(2, "user")
	repo.assignRole(2, "editor")
	repo.grantToRole("editor", "edit_own_posts", "Edit own posts")
	svc := NewService(repo, nil)

	ctx := context.Background()
	assert.True(t, svc.HasCapability(ctx, 2, "edit_own_posts"))
	assert.False(t, svc.HasCapability(ctx, 2, "manage_users"))
}

func TestHasCapabilityViaDirectGrant(t *testing.T) {
	repo := newMockRepository()
	repo.addUser(3, "user")
	repo.grantDirect(3, "facilities.edit", "")
	svc := NewService(repo, nil)

	assert.True(t, svc.HasCapability(context.Background(), 3, "facilities.edit"))
}

func TestHasCapabilityFailsClosed(t *testing.T) {
	repo := newMockRepository()
	repo.addUser(4, "user")
	repo.grantDirect(4, "blog.edit", "")
	svc := NewService(repo, nil)
	ctx := context.Background()

	// Unknown and invalid users.
	assert.False(t, svc.HasCapability(ctx, 999, "blog.edit"))
	assert.False(t, svc.HasCapability(ctx, 0, "blog.edit"))
	assert.False(t, svc.HasCapability(ctx, -1, "blog.edit"))
	assert.False(t, svc.HasCapability(ctx, 4, ""))

	// Storage failure on the label read denies.
	repo.labelError = errors.New("connection refused")
	assert.False(t, svc.HasCapability(ctx, 4, "blog.edit"))
	repo.labelError = nil

	// Storage failure on the edge read denies too.
	repo.grantError = errors.New("timeout")
	assert.False(t, svc.HasCapability(ctx, 4, "blog.edit"))
}

func TestEffectiveCapabilitiesWildcardSentinel(t *testing.T) {
	repo := newMockRepository()
	repo.addUser(1, "admin")
	svc := NewService(repo, nil)

	caps := svc.EffectiveCapabilities(context.Background(), 1)
	require.Len(t, caps, 1)
	assert.True(t, caps[0].Wildcard)
	assert.Equal(t, SourceRole, caps[0].Source)
	assert.Equal(t, RoleLabelSuper, caps[0].RoleName)
}

func TestEffectiveCapabilitiesUnionAndOrder(t *testing.T) {
	repo := newMockRepository()
	repo.addUser(2, "user")
	repo.grantDirect(2, "facilities.edit", "Edit facilities")
	repo.assignRole(2, "editor")
	repo.grantToRole("editor", "edit_own_posts", "Edit own posts")
	repo.grantToRole("editor", "blog.view", "View blog admin")
	svc := NewService(repo, nil)

	caps := svc.EffectiveCapabilities(context.Background(), 2)
	require.Len(t, caps, 3)
	assert.Equal(t, "blog.view", caps[0].Name)
	assert.Equal(t, "edit_own_posts", caps[1].Name)
	assert.Equal(t, "facilities.edit", caps[2].Name)

	assert.Equal(t, SourceRole, caps[0].Source)
	assert.Equal(t, "editor", caps[0].RoleName)
	assert.Equal(t, SourceDirect, caps[2].Source)
	assert.Empty(t, caps[2].RoleName)
}

func TestEffectiveCapabilitiesDedupPrefersDirect(t *testing.T) {
	repo := newMockRepository()
	repo.addUser(3, "user")
	repo.grantDirect(3, "publish_posts", "Publish posts")
	repo.assignRole(3, "editor")
	repo.grantToRole("editor", "publish_posts", "Publish posts")
	svc := NewService(repo, nil)

	caps := svc.EffectiveCapabilities(context.Background(), 3)
	require.Len(t, caps, 1)
	assert.Equal(t, "publish_posts", caps[0].Name)
	assert.Equal(t, SourceDirect, caps[0].Source)
}

func TestEffectiveCapabilitiesReflectsEdgeChanges(t *testing.T) {
	repo := newMockRepository()
	repo.addUser(5, "user")
	repo.assignRole(5, "editor")
	repo.grantToRole("editor", "edit_own_posts", "")
	repo.grantToRole("editor", "blog.view", "")
	svc := NewService(repo, nil)
	ctx := context.Background()

	caps := svc.EffectiveCapabilities(ctx, 5)
	require.Len(t, caps, 2)

	// Replace the role's permission set wholesale; the next read must show
	// exactly the new list.
	repo.rolePerms["editor"] = map[string]string{"blog.publish": ""}
	caps = svc.EffectiveCapabilities(ctx, 5)
	require.Len(t, caps, 1)
	assert.Equal(t, "blog.publish", caps[0].Name)

	// Removing every role empties the role-derived set.
	repo.userRoles[5] = nil
	assert.Empty(t, svc.EffectiveCapabilities(ctx, 5))
	assert.False(t, svc.HasCapability(ctx, 5, "blog.publish"))
}

func TestRoleDeletionKeepsDirectGrants(t *testing.T) {
	repo := newMockRepository()
	repo.addUser(6, "user")
	repo.grantDirect(6, "facilities.edit", "")
	repo.assignRole(6, "editor")
	repo.grantToRole("editor", "edit_own_posts", "")
	svc := NewService(repo, nil)
	ctx := context.Background()

	// Deleting the role cascades its edges away.
	delete(repo.rolePerms, "editor")
	repo.userRoles[6] = nil

	assert.False(t, svc.HasCapability(ctx, 6, "edit_own_posts"))
	assert.True(t, svc.HasCapability(ctx, 6, "facilities.edit"))
}

func TestEffectiveCapabilitiesFailsClosed(t *testing.T) {
	repo := newMockRepository()
	repo.addUser(7, "user")
	repo.grantDirect(7, "blog.view", "")
	svc := NewService(repo, nil)
	ctx := context.Background()

	repo.grantError = errors.New("pool exhausted")
	assert.Empty(t, svc.EffectiveCapabilities(ctx, 7))

	repo.grantError = nil
	repo.labelError = errors.New("connection reset")
	assert.Empty(t, svc.EffectiveCapabilities(ctx, 7))

	assert.Empty(t, svc.EffectiveCapabilities(ctx, 0))
}

func TestIsSuperUser(t *testing.T) {
	repo := newMockRepository()
	repo.addUser(1, "admin")
	repo.addUser(2, "user")
	svc := NewService(repo, nil)
	ctx := context.Background()

	assert.True(t, svc.IsSuperUser(ctx, 1))
	assert.False(t, svc.IsSuperUser(ctx, 2))
	assert.False(t, svc.IsSuperUser(ctx, 404))

	repo.labelError = errors.New("unreachable")
	assert.False(t, svc.IsSuperUser(ctx, 1))
}
