package authz

import (
	"context"
	"errors"
	"log/slog"
	"sort"

	"github.com/LevyMwanawasaMedicalUniversity/lmmuwebsite-sub002/internal/shared"
)

// Service answers "can this user do X" and "what can this user do". It is
// request-scoped and stateless: every query starts a fresh read against the
// store. Storage failures collapse to deny, never to a propagated error that
// a guard could misread as "allowed".
type Service struct {
	repo   Repository
	logger *slog.Logger
}

// NewService constructs a Service. logger may be nil.
func NewService(repo Repository, logger *slog.Logger) *Service {
	return &Service{repo: repo, logger: logger}
}

// IsSuperAuthority reports whether the given flat role label marks a
// superuser. Pure; no I/O.
func (s *Service) IsSuperAuthority(label string) bool {
	return AuthorityFromLabel(label) == AuthoritySuper
}

// IsSuperUser reads the user's current flat role label and reports whether
// the account is a superuser. Fails closed on missing users and on storage
// errors.
func (s *Service) IsSuperUser(ctx context.Context, userID int64) bool {
	if userID <= 0 {
		return false
	}
	label, err := s.repo.UserRoleLabel(ctx, userID)
	if err != nil {
		s.denyOnError(ctx, "load role label", userID, err)
		return false
	}
	return AuthorityFromLabel(label) == AuthoritySuper
}

// HasCapability reports whether the user holds the named capability, either
// implicitly (superuser), by direct grant, or through an assigned role.
// The checks short-circuit in that order; a superuser check never touches
// the edge tables, which may legitimately hold no rows for such accounts.
func (s *Service) HasCapability(ctx context.Context, userID int64, capability string) bool {
	if userID <= 0 || capability == "" {
		return false
	}

	label, err := s.repo.UserRoleLabel(ctx, userID)
	if err != nil {
		s.denyOnError(ctx, "load role label", userID, err)
		return false
	}
	if AuthorityFromLabel(label) == AuthoritySuper {
		return true
	}

	direct, err := s.repo.HasDirectGrant(ctx, userID, capability)
	if err != nil {
		s.denyOnError(ctx, "check direct grant", userID, err)
		return false
	}
	if direct {
		return true
	}

	inherited, err := s.repo.HasRoleGrant(ctx, userID, capability)
	if err != nil {
		s.denyOnError(ctx, "check role grant", userID, err)
		return false
	}
	return inherited
}

// EffectiveCapabilities resolves the user's full capability set. For a
// superuser the result is exactly the wildcard sentinel. Otherwise direct
// and role-inherited grants are merged, deduplicated by capability name
// with direct winning, and sorted by name. Storage failures yield an empty
// set (deny everything) rather than an error.
func (s *Service) EffectiveCapabilities(ctx context.Context, userID int64) []EffectiveCapability {
	if userID <= 0 {
		return nil
	}

	label, err := s.repo.UserRoleLabel(ctx, userID)
	if err != nil {
		s.denyOnError(ctx, "load role label", userID, err)
		return nil
	}
	if AuthorityFromLabel(label) == AuthoritySuper {
		return []EffectiveCapability{WildcardCapability()}
	}

	direct, err := s.repo.DirectGrants(ctx, userID)
	if err != nil {
		s.denyOnError(ctx, "list direct grants", userID, err)
		return nil
	}
	inherited, err := s.repo.RoleGrants(ctx, userID)
	if err != nil {
		s.denyOnError(ctx, "list role grants", userID, err)
		return nil
	}

	byName := make(map[string]EffectiveCapability, len(direct)+len(inherited))
	for _, g := range inherited {
		if _, seen := byName[g.Name]; seen {
			continue
		}
		byName[g.Name] = EffectiveCapability{
			Name:        g.Name,
			Description: g.Description,
			Source:      SourceRole,
			RoleName:    g.RoleName,
		}
	}
	for _, g := range direct {
		byName[g.Name] = EffectiveCapability{
			Name:        g.Name,
			Description: g.Description,
			Source:      SourceDirect,
		}
	}

	caps := make([]EffectiveCapability, 0, len(byName))
	for _, c := range byName {
		caps = append(caps, c)
	}
	sort.Slice(caps, func(i, j int) bool { return caps[i].Name < caps[j].Name })
	return caps
}

// denyOnError records why a check fell back to deny. A missing user is a
// legitimate false and stays quiet; infrastructure failures are logged so
// they remain distinguishable from real denials.
func (s *Service) denyOnError(ctx context.Context, op string, userID int64, err error) {
	if errors.Is(err, shared.ErrNotFound) {
		return
	}
	if s.logger != nil {
		s.logger.WarnContext(ctx, "authz denied on storage failure",
			slog.String("op", op),
			slog.Int64("user_id", userID),
			slog.Any("error", err))
	}
}
