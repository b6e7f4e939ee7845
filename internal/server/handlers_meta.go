package server

import (
	"net/http"

	"docindex/internal/api"
)

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, api.HealthResponse{Status: "ok"})
}

func (s *Server) handleInfo(w http.ResponseWriter, r *http.Request) {
	info, err := s.files.Info(r.Context())
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}

	s.writeJSON(w, http.StatusOK, api.InfoResponse{
		SchemaVersion: info.SchemaVersion,
		TotalFiles:    info.TotalFiles,
		TotalTags:     info.TotalTags,
		DistinctTags:  info.DistinctTags,
		TotalBytes:    info.TotalBytes,
	})
}
