package auth

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
)

// Gate builds authorization middleware bound to a token resolver.
type Gate struct {
	resolver TokenResolver
}

func NewGate(resolver TokenResolver) *Gate {
	return &Gate{resolver: resolver}
}

// Require allows any of the given roles. With no roles listed, any
// authenticated subject passes.
func (g *Gate) Require(roles ...Role) func(http.Handler) http.Handler {
	return g.middleware("", roles)
}

// RequireSelf additionally checks that the URL parameter named by selfParam
// equals the token subject's id. Admins bypass the self check.
func (g *Gate) RequireSelf(selfParam string, roles ...Role) func(http.Handler) http.Handler {
	return g.middleware(selfParam, roles)
}

func (g *Gate) middleware(selfParam string, roles []Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, ok := TokenFromHeader(r.Header.Get("Authorization"))
			if !ok {
				unauthorized(w, "missing or malformed bearer token")
				return
			}

			id, ok := g.resolver.Lookup(token)
			if !ok {
				unauthorized(w, "unknown or expired session token")
				return
			}

			if len(roles) > 0 && !roleAllowed(id.Role, roles) {
				unauthorized(w, "insufficient role for this operation")
				return
			}

			if selfParam != "" && id.Role != RoleAdmin {
				if chi.URLParam(r, selfParam) != id.SubjectID {
					unauthorized(w, "token does not match the addressed subject")
					return
				}
			}

			next.ServeHTTP(w, r.WithContext(WithIdentity(r.Context(), id)))
		})
	}
}

func roleAllowed(role Role, allowed []Role) bool {
	for _, a := range allowed {
		if role == a {
			return true
		}
	}
	return false
}

func unauthorized(w http.ResponseWriter, details string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	_ = json.NewEncoder(w).Encode(map[string]string{
		"error":   "unauthorized",
		"details": details,
	})
}
