package server

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"docindex/internal/api"
	"docindex/internal/cache"
	"docindex/internal/models"
)

func (s *Server) handleGetFile(w http.ResponseWriter, r *http.Request) {
	id, ok := s.pathIDOrBadRequest(w, r)
	if !ok {
		return
	}

	key := cache.KeyForURL(r.URL)
	if entry := s.cachedFile(r.Context(), id, key); entry != nil {
		s.writeFileHeaders(w, entry.ContentType, entry.ContentDisposition, int64(len(entry.Body)))
		w.Header().Set("X-Cache", "HIT")
		w.WriteHeader(http.StatusOK)
		if r.Method != http.MethodHead {
			_, _ = w.Write(entry.Body)
		}
		return
	}

	content, err := s.files.Open(r.Context(), id)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	defer content.Reader.Close()

	disposition := contentDisposition(content.Filename)
	if s.cache == nil || content.Size > s.cacheMaxObjectBytes {
		s.writeFileHeaders(w, content.ContentType, disposition, content.Size)
		w.WriteHeader(http.StatusOK)
		if r.Method == http.MethodHead {
			return
		}
		if _, err := io.Copy(w, content.Reader); err != nil {
			s.log().Warn("stream file", "id", id, "error", err)
		}
		return
	}

	body, err := io.ReadAll(io.LimitReader(content.Reader, s.cacheMaxObjectBytes+1))
	if err != nil {
		s.writeErrorReq(w, r, http.StatusInternalServerError, blobFailure(fmt.Errorf("read blob: %w", err)))
		return
	}
	cacheable := int64(len(body)) <= s.cacheMaxObjectBytes

	size := int64(len(body))
	if !cacheable {
		size = content.Size
	}
	s.writeFileHeaders(w, content.ContentType, disposition, size)
	w.Header().Set("X-Cache", "MISS")
	w.WriteHeader(http.StatusOK)
	if r.Method != http.MethodHead {
		if _, err := w.Write(body); err != nil {
			s.log().Warn("write file", "id", id, "error", err)
			return
		}
		if !cacheable {
			if _, err := io.Copy(w, content.Reader); err != nil {
				s.log().Warn("stream file", "id", id, "error", err)
			}
		}
	}

	if cacheable {
		entry := &cache.Entry{Body: body, ContentType: content.ContentType, ContentDisposition: disposition}
		s.goBackground(r.Context(), "cache file response", func(ctx context.Context) error {
			return s.cache.Set(ctx, key, entry, s.cacheTTL)
		})
	}
}

// cachedFile returns a cached response or nil. Cache errors count as misses.
// A hit is only served while the index row exists; a cache write that landed
// after a delete is dropped here.
func (s *Server) cachedFile(ctx context.Context, id, key string) *cache.Entry {
	if s.cache == nil {
		return nil
	}
	entry, err := s.cache.Get(ctx, key)
	if err != nil {
		s.metrics.cacheLookup("error")
		s.log().Warn("cache read failed", "key", key, "error", err)
		return nil
	}
	if entry == nil {
		s.metrics.cacheLookup("miss")
		return nil
	}

	exists, err := s.files.Exists(ctx, id)
	if err != nil {
		s.metrics.cacheLookup("error")
		s.log().Warn("cache entry check failed", "id", id, "error", err)
		return nil
	}
	if !exists {
		s.metrics.cacheLookup("stale")
		if err := s.cache.Delete(ctx, key); err != nil {
			s.log().Warn("drop stale cache entry", "key", key, "error", err)
		}
		return nil
	}

	s.metrics.cacheLookup("hit")
	return entry
}

func (s *Server) writeFileHeaders(w http.ResponseWriter, contentType, disposition string, size int64) {
	if contentType == "" {
		contentType = fallbackContentType
	}
	h := w.Header()
	h.Set("Content-Type", contentType)
	h.Set("Content-Disposition", disposition)
	h.Set("Cache-Control", "public, max-age="+strconv.Itoa(int(s.cacheTTL.Seconds())))
	h.Set("X-Content-Type-Options", "nosniff")
	if size >= 0 {
		h.Set("Content-Length", strconv.FormatInt(size, 10))
	}
}

func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.uploadMaxBytes)
	if err := r.ParseMultipartForm(s.multipartMaxMemory); err != nil {
		s.writeErrorReq(w, r, http.StatusBadRequest, classifyMultipartError(err))
		return
	}
	defer func() {
		if r.MultipartForm != nil {
			_ = r.MultipartForm.RemoveAll()
		}
	}()

	file, header, err := r.FormFile("file")
	if err != nil {
		s.writeErrorReq(w, r, http.StatusBadRequest, badRequestCode(fmt.Errorf("file is required"), ErrCodeMissingRequired))
		return
	}
	defer file.Close()

	buffered := bufio.NewReaderSize(file, sniffLen)
	contentType := resolveUploadContentType(header.Header.Get("Content-Type"), buffered)

	uploaded, err := s.files.Upload(r.Context(), UploadInput{
		Filename:    header.Filename,
		ContentType: contentType,
		Tags:        models.SplitTagString(r.FormValue("tags")),
	}, buffered)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}

	s.metrics.uploaded(uploaded.Size)
	s.log().Info("file uploaded", "id", uploaded.ID, "filename", uploaded.Filename, "size", uploaded.Size, "content_type", contentType, "auth_source", authSource(r))
	s.writeJSON(w, http.StatusOK, api.UploadResponse{Success: true, ID: uploaded.ID})
}

func (s *Server) handleReplaceTags(w http.ResponseWriter, r *http.Request) {
	id, ok := s.pathIDOrBadRequest(w, r)
	if !ok {
		return
	}

	var req struct {
		Tags json.RawMessage `json:"tags"`
	}
	if !s.decodeJSONReq(w, r, &req) {
		return
	}
	tags, err := parseTagValues(req.Tags)
	if err != nil {
		s.writeErrorReq(w, r, http.StatusBadRequest, badRequestCode(err, ErrCodeInvalidTags))
		return
	}

	stored, err := s.files.ReplaceTags(r.Context(), id, tags)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}

	s.writeJSON(w, http.StatusOK, api.TagsResponse{Success: true, Tags: stored})
}

func (s *Server) handleDeleteFile(w http.ResponseWriter, r *http.Request) {
	id, ok := s.pathIDOrBadRequest(w, r)
	if !ok {
		return
	}

	if err := s.files.Delete(r.Context(), id); err != nil {
		s.writeServiceError(w, r, err)
		return
	}

	s.log().Info("file deleted", "id", id, "auth_source", authSource(r))
	s.writeJSON(w, http.StatusOK, api.SuccessResponse{Success: true})
}

// parseTagValues accepts a JSON array whose elements are strings, numbers or
// booleans, and renders each element as text.
func parseTagValues(raw json.RawMessage) ([]string, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || trimmed[0] != '[' {
		return nil, fmt.Errorf("tags must be an array")
	}

	var items []json.RawMessage
	if err := json.Unmarshal(trimmed, &items); err != nil {
		return nil, fmt.Errorf("tags must be an array")
	}

	out := make([]string, 0, len(items))
	for _, item := range items {
		dec := json.NewDecoder(bytes.NewReader(item))
		dec.UseNumber()
		var value any
		if err := dec.Decode(&value); err != nil {
			return nil, fmt.Errorf("invalid tag value")
		}
		switch v := value.(type) {
		case string:
			out = append(out, v)
		case json.Number:
			out = append(out, v.String())
		case bool:
			out = append(out, strconv.FormatBool(v))
		default:
			return nil, fmt.Errorf("tags must contain only strings, numbers or booleans")
		}
	}
	return out, nil
}

func classifyMultipartError(err error) error {
	var maxBytesErr *http.MaxBytesError
	if errors.As(err, &maxBytesErr) {
		return badRequestCode(fmt.Errorf("upload too large"), ErrCodeRequestTooLarge)
	}
	if errors.Is(err, http.ErrNotMultipart) || strings.Contains(strings.ToLower(err.Error()), "multipart") {
		return badRequest(fmt.Errorf("multipart form data required"))
	}
	return badRequest(fmt.Errorf("invalid upload: %w", err))
}
