package authz

import (
	"net/http"
	"strconv"
	"strings"

	"log/slog"

	"github.com/LevyMwanawasaMedicalUniversity/lmmuwebsite-sub002/internal/shared"
)

// DenialCounter records rejected authorization checks.
type DenialCounter interface {
	CountAuthzDenial(capability string)
}

// Middleware wires authorization guards for HTTP handlers. A false answer
// from the resolver rejects the request before any mutation runs. Denials
// are an expected outcome and are not logged as errors.
type Middleware struct {
	Service *Service
	Logger  *slog.Logger
	Denials DenialCounter
}

func (m Middleware) deny(w http.ResponseWriter, capability string) {
	if m.Denials != nil {
		m.Denials.CountAuthzDenial(capability)
	}
	http.Error(w, http.StatusText(http.StatusForbidden), http.StatusForbidden)
}

// RequireAny lets the request through when the current user holds at least
// one of the named capabilities.
func (m Middleware) RequireAny(capabilities ...string) func(http.Handler) http.Handler {
	required := compact(capabilities)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if len(required) == 0 {
				next.ServeHTTP(w, r)
				return
			}
			userID, label, ok := m.currentUser(r)
			if !ok {
				m.deny(w, required[0])
				return
			}
			// The session label only decides whether to try the superuser
			// path; the grant itself still comes from a fresh read.
			if m.Service.IsSuperAuthority(label) && m.Service.IsSuperUser(r.Context(), userID) {
				next.ServeHTTP(w, r)
				return
			}
			for _, c := range required {
				if m.Service.HasCapability(r.Context(), userID, c) {
					next.ServeHTTP(w, r)
					return
				}
			}
			m.deny(w, required[0])
		})
	}
}

// RequireAll lets the request through only when the current user holds every
// named capability.
func (m Middleware) RequireAll(capabilities ...string) func(http.Handler) http.Handler {
	required := compact(capabilities)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if len(required) == 0 {
				next.ServeHTTP(w, r)
				return
			}
			userID, label, ok := m.currentUser(r)
			if !ok {
				m.deny(w, required[0])
				return
			}
			if m.Service.IsSuperAuthority(label) && m.Service.IsSuperUser(r.Context(), userID) {
				next.ServeHTTP(w, r)
				return
			}
			for _, c := range required {
				if !m.Service.HasCapability(r.Context(), userID, c) {
					m.deny(w, c)
					return
				}
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RequireSuperAuthority guards operations reserved for superuser accounts,
// such as user, role and permission administration.
func (m Middleware) RequireSuperAuthority() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			userID, _, ok := m.currentUser(r)
			if !ok {
				m.deny(w, "super_authority")
				return
			}
			if !m.Service.IsSuperUser(r.Context(), userID) {
				m.deny(w, "super_authority")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func (m Middleware) currentUser(r *http.Request) (int64, string, bool) {
	sess := shared.SessionFromContext(r.Context())
	if sess == nil {
		return 0, "", false
	}
	raw := strings.TrimSpace(sess.User())
	if raw == "" {
		return 0, "", false
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		if m.Logger != nil {
			m.Logger.Error("authz parse user id", slog.String("value", raw))
		}
		return 0, "", false
	}
	return id, sess.RoleLabel(), true
}

// compact drops empty entries and duplicates while preserving the exact,
// case-sensitive capability names.
func compact(capabilities []string) []string {
	seen := make(map[string]struct{}, len(capabilities))
	out := make([]string, 0, len(capabilities))
	for _, c := range capabilities {
		c = strings.TrimSpace(c)
		if c == "" {
			continue
		}
		if _, dup := seen[c]; dup {
			continue
		}
		seen[c] = struct{}{}
		out = append(out, c)
	}
	return out
}
