package server

import (
	"net/http"

	"docindex/internal/auth"
)

func (s *Server) routes() http.Handler {
	mux := http.NewServeMux()

	// Health check, metrics and info.
	mux.HandleFunc("GET /health", s.handleHealth)
	if s.metrics != nil {
		mux.Handle("GET /metrics", s.metrics.Handler())
	}
	mux.HandleFunc("GET /api/info", s.withRole(auth.RoleAdmin, s.handleInfo))

	// Session.
	mux.HandleFunc("POST /api/login", s.handleLogin)
	mux.HandleFunc("POST /api/logout", s.handleLogout)
	mux.HandleFunc("GET /api/me", s.handleMe)

	// Search.
	mux.HandleFunc("GET /api/search", s.withRole(auth.RoleTeam, s.handleSearch))

	// Files.
	mux.HandleFunc("GET /api/file/{id}", s.withDeliveryRole(auth.RoleTeam, s.handleGetFile))
	mux.HandleFunc("POST /api/upload", s.withRole(auth.RoleAdmin, s.handleUpload))
	mux.HandleFunc("PATCH /api/file/{id}/tags", s.withRole(auth.RoleAdmin, s.handleReplaceTags))
	mux.HandleFunc("DELETE /api/file/{id}", s.withRole(auth.RoleAdmin, s.handleDeleteFile))

	// Telegram bot webhook.
	mux.HandleFunc("POST /api/telegram", s.handleTelegram)

	return s.withRequestLogging(mux)
}
