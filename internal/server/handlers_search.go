package server

import (
	"net/http"

	"docindex/internal/api"
	"docindex/internal/models"
	"docindex/internal/store"
)

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("q")

	files, err := s.files.Search(r.Context(), query, store.MaxSearchLimit)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	s.metrics.search("api")

	s.writeJSON(w, http.StatusOK, toFileResponses(files))
}

func toFileResponses(files []models.File) []api.FileResponse {
	out := make([]api.FileResponse, 0, len(files))
	for _, file := range files {
		tags := file.Tags
		if tags == nil {
			tags = []string{}
		}
		out = append(out, api.FileResponse{
			ID:        file.ID,
			Filename:  file.Filename,
			Size:      file.Size,
			CreatedAt: file.CreatedAt,
			Tags:      tags,
		})
	}
	return out
}
