package server

import (
	"fmt"
	"net/http"
	"strings"

	"docindex/internal/auth"
	"docindex/internal/cache"
)

const (
	authCookieName = "docindex_auth"

	credentialSourceCookie = "cookie"
	credentialSourceBearer = "bearer"
	credentialSourceToken  = "token"
)

type presentedCredential struct {
	value  string
	source string
}

// requestCredentials returns the credentials presented by cookie and bearer
// header, in that order.
func requestCredentials(r *http.Request) []presentedCredential {
	if r == nil {
		return nil
	}
	var out []presentedCredential
	if cookie, err := r.Cookie(authCookieName); err == nil {
		if cookie.Value != "" {
			out = append(out, presentedCredential{value: cookie.Value, source: credentialSourceCookie})
		}
	}
	if value, ok := bearerToken(r.Header.Get("Authorization")); ok {
		out = append(out, presentedCredential{value: value, source: credentialSourceBearer})
	}
	return out
}

func bearerToken(header string) (string, bool) {
	header = strings.TrimSpace(header)
	const prefix = "bearer "
	if len(header) <= len(prefix) || !strings.EqualFold(header[:len(prefix)], prefix) {
		return "", false
	}
	value := strings.TrimSpace(header[len(prefix):])
	return value, value != ""
}

// requestRole resolves the caller's role from cookie or bearer credentials.
// The highest role granted by any presented credential wins.
func (s *Server) requestRole(r *http.Request) authPrincipal {
	best := authPrincipal{Role: auth.RoleGuest}
	for _, cred := range requestCredentials(r) {
		role := s.resolver.Resolve(cred.value)
		if role > best.Role {
			best = authPrincipal{Role: role, Source: cred.source}
		}
	}
	return best
}

// deliveryRole resolves the caller's role on the file delivery path, where
// the token query parameter is accepted as well.
func (s *Server) deliveryRole(r *http.Request) authPrincipal {
	principal := s.requestRole(r)
	if principal.Role.AtLeast(auth.RoleTeam) {
		return principal
	}
	token := r.URL.Query().Get(cache.TokenParam)
	if token == "" {
		return principal
	}
	if role := s.resolver.Resolve(token); role > principal.Role {
		return authPrincipal{Role: role, Source: credentialSourceToken}
	}
	return principal
}

// withRole rejects callers below min: guests get 401, others 403.
func (s *Server) withRole(min auth.Role, next http.HandlerFunc) http.HandlerFunc {
	return s.withResolvedRole(min, s.requestRole, next)
}

func (s *Server) withDeliveryRole(min auth.Role, next http.HandlerFunc) http.HandlerFunc {
	return s.withResolvedRole(min, s.deliveryRole, next)
}

func (s *Server) withResolvedRole(min auth.Role, resolve func(*http.Request) authPrincipal, next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		principal := resolve(r)
		if !principal.Role.AtLeast(min) {
			s.writeAuthError(w, r, principal.Role, min)
			return
		}
		next.ServeHTTP(w, r.WithContext(contextWithAuthPrincipal(r.Context(), principal)))
	}
}

func (s *Server) writeAuthError(w http.ResponseWriter, r *http.Request, have, need auth.Role) {
	if have == auth.RoleGuest {
		s.writeErrorReq(w, r, http.StatusUnauthorized, unauthorized(fmt.Errorf("unauthorized")))
		return
	}
	s.writeErrorReq(w, r, http.StatusForbidden, forbidden(fmt.Errorf("%s role required", need)))
}
