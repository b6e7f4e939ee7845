package server

import (
	"fmt"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"docindex/internal/api"
	"docindex/internal/auth"
)

const authCookieTTL = 30 * 24 * time.Hour

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req api.LoginRequest
	if !s.decodeJSONReq(w, r, &req) {
		return
	}

	now := time.Now().UTC()
	limiterKey := loginAttemptKey(r)
	if allowed, retryAfter := s.loginLimiter.Allow(limiterKey, now); !allowed {
		w.Header().Set("Retry-After", strconv.Itoa(retryAfterSeconds(retryAfter)))
		s.writeErrorReq(w, r, http.StatusTooManyRequests, tooManyRequests(fmt.Errorf("too many login attempts; retry later")))
		return
	}

	password := req.Password
	role := s.resolver.Resolve(password)
	if role == auth.RoleGuest {
		if blocked := s.loginLimiter.RegisterFailure(limiterKey, now); blocked {
			s.log().Warn("login blocked", "client", limiterKey)
		}
		s.metrics.loginFailed()
		s.writeErrorReq(w, r, http.StatusUnauthorized, unauthorized(fmt.Errorf("invalid credentials")))
		return
	}
	s.loginLimiter.Reset(limiterKey)

	http.SetCookie(w, &http.Cookie{
		Name:     authCookieName,
		Value:    password,
		Path:     "/",
		HttpOnly: true,
		Secure:   true,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   int(authCookieTTL / time.Second),
		Expires:  now.Add(authCookieTTL),
	})

	s.log().Info("login", "level", role.String(), "client", limiterKey)
	s.writeJSON(w, http.StatusOK, api.LoginResponse{Success: true, Level: role.String()})
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, &http.Cookie{
		Name:     authCookieName,
		Value:    "",
		Path:     "/",
		HttpOnly: true,
		Secure:   true,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   -1,
		Expires:  time.Unix(0, 0).UTC(),
	})
	s.writeJSON(w, http.StatusOK, api.SuccessResponse{Success: true})
}

func (s *Server) handleMe(w http.ResponseWriter, r *http.Request) {
	principal := s.requestRole(r)
	s.writeJSON(w, http.StatusOK, api.MeResponse{
		Authenticated: principal.Role != auth.RoleGuest,
		Level:         principal.Role.String(),
	})
}

func loginAttemptKey(r *http.Request) string {
	ip := requestClientIP(r)
	if ip == "" {
		return "<unknown>"
	}
	return ip
}

func retryAfterSeconds(d time.Duration) int {
	seconds := int((d + time.Second - 1) / time.Second)
	if seconds < 1 {
		return 1
	}
	return seconds
}

func requestClientIP(r *http.Request) string {
	if r == nil {
		return ""
	}
	remote := strings.TrimSpace(r.RemoteAddr)
	if remote == "" {
		return ""
	}
	host, _, err := net.SplitHostPort(remote)
	if err == nil {
		return strings.TrimSpace(host)
	}
	return remote
}
