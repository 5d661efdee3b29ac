// Package authz resolves what a user is allowed to do. Effective capabilities
// are the union of permissions granted directly to the user and permissions
// inherited through assigned roles. Accounts carrying the legacy superuser
// role label hold every capability implicitly, without grant rows.
package authz

// RoleLabelSuper is the reserved flat role label that marks an account as a
// superuser. The comparison lives here and nowhere else.
const RoleLabelSuper = "admin"

// Authority classifies an account by its flat role label.
type Authority int

const (
	// AuthorityStandard accounts hold only explicitly granted capabilities.
	AuthorityStandard Authority = iota
	// AuthoritySuper accounts hold every capability implicitly.
	AuthoritySuper
)

// AuthorityFromLabel derives the authority class from a flat role label.
// The match is exact and case-sensitive.
func AuthorityFromLabel(label string) Authority {
	if label == RoleLabelSuper {
		return AuthoritySuper
	}
	return AuthorityStandard
}

// CapabilitySource tells where an effective capability came from.
type CapabilitySource string

const (
	// SourceDirect marks a capability granted straight to the user.
	SourceDirect CapabilitySource = "direct"
	// SourceRole marks a capability inherited through an assigned role.
	SourceRole CapabilitySource = "role"
)

// EffectiveCapability is one entry of a user's resolved capability set.
type EffectiveCapability struct {
	Name        string
	Description string
	Source      CapabilitySource
	// RoleName names the originating role when Source is SourceRole.
	RoleName string
	// Wildcard marks the superuser sentinel. Callers must treat it as
	// authority over everything, never as a capability literally named
	// after the superuser label.
	Wildcard bool
}

// WildcardCapability is the sentinel returned for superuser accounts in
// place of an enumeration of every named capability.
func WildcardCapability() EffectiveCapability {
	return EffectiveCapability{
		Name:     "*",
		Source:   SourceRole,
		RoleName: RoleLabelSuper,
		Wildcard: true,
	}
}

// Grant is a raw permission row reachable by a user, before deduplication.
type Grant struct {
	Name        string
	Description string
	// RoleName is set for role-inherited grants and empty for direct ones.
	RoleName string
}
