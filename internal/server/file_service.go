package server

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"docindex/internal/blobstore"
	"docindex/internal/cache"
	"docindex/internal/models"
	"docindex/internal/store"
)

const (
	fallbackContentType = "application/octet-stream"

	// telegramSearchLimit caps bridge replies; the API uses store.MaxSearchLimit.
	telegramSearchLimit = 10
)

var errFileNotFound = errors.New("file not found")

// FileService orchestrates the index store, blob store and response cache.
type FileService struct {
	store     store.FileStore
	blobs     blobstore.BlobStore
	responses cache.ResponseCache
	logger    *slog.Logger
	now       func() time.Time
}

// UploadInput describes one uploaded file.
type UploadInput struct {
	Filename    string
	ContentType string
	Tags        []string
}

// FileContent is an opened file ready to be served.
type FileContent struct {
	Reader      io.ReadCloser
	Size        int64
	ContentType string
	Filename    string
}

// NewFileService constructs a FileService. responses may be nil.
func NewFileService(fileStore store.FileStore, blobs blobstore.BlobStore, responses cache.ResponseCache, logger *slog.Logger) *FileService {
	if logger == nil {
		logger = slog.Default()
	}
	return &FileService{
		store:     fileStore,
		blobs:     blobs,
		responses: responses,
		logger:    logger,
		now:       time.Now,
	}
}

// Search returns files whose filename or tags contain query, newest first.
func (s *FileService) Search(ctx context.Context, query string, limit int) ([]models.File, error) {
	if s == nil || s.store == nil {
		return nil, internalError(fmt.Errorf("file service is not configured"))
	}
	files, err := s.store.SearchFiles(ctx, strings.TrimSpace(query), limit)
	if err != nil {
		return nil, storeFailure(fmt.Errorf("search files: %w", err))
	}
	return files, nil
}

// Upload writes the blob first, then the index rows in one transaction. A
// failed index write leaves the blob behind; it is logged, not removed.
func (s *FileService) Upload(ctx context.Context, in UploadInput, content io.Reader) (models.File, error) {
	var zero models.File
	if s == nil || s.store == nil || s.blobs == nil {
		return zero, internalError(fmt.Errorf("file service is not configured"))
	}
	if content == nil {
		return zero, badRequestCode(fmt.Errorf("file is required"), ErrCodeMissingRequired)
	}
	filename := strings.TrimSpace(in.Filename)
	if filename == "" {
		return zero, badRequestCode(fmt.Errorf("filename is required"), ErrCodeMissingRequired)
	}

	id := store.NewFileID()
	put, err := s.blobs.Put(ctx, id, content, in.ContentType)
	if err != nil {
		return zero, blobFailure(fmt.Errorf("store blob: %w", err))
	}

	file := &models.File{
		ID:         id,
		Filename:   filename,
		StorageKey: id,
		Size:       put.SizeBytes,
		CreatedAt:  s.now().UTC().UnixMilli(),
	}
	if err := s.store.CreateFileWithTags(ctx, file, in.Tags); err != nil {
		s.logger.Error("index write failed after blob put; blob orphaned", "id", id, "error", err)
		return zero, storeFailure(fmt.Errorf("index file: %w", err))
	}

	return *file, nil
}

// ReplaceTags replaces a file's tag set and returns the stored tags.
func (s *FileService) ReplaceTags(ctx context.Context, id string, tags []string) ([]string, error) {
	if s == nil || s.store == nil {
		return nil, internalError(fmt.Errorf("file service is not configured"))
	}
	if !store.ValidFileID(id) {
		return nil, notFound(errFileNotFound)
	}

	stored, err := s.store.ReplaceTags(ctx, id, tags)
	if errors.Is(err, store.ErrNotFound) {
		return nil, notFound(errFileNotFound)
	}
	if err != nil {
		return nil, storeFailure(fmt.Errorf("replace tags: %w", err))
	}

	s.invalidate(ctx, id)
	return stored, nil
}

// Delete removes the blob, then the tag rows, then the file row. Each step
// stands alone: a later failure leaves the earlier steps applied. The cached
// response is dropped as soon as the blob is gone. Unknown ids succeed.
func (s *FileService) Delete(ctx context.Context, id string) error {
	if s == nil || s.store == nil || s.blobs == nil {
		return internalError(fmt.Errorf("file service is not configured"))
	}
	if !store.ValidFileID(id) {
		return nil
	}

	if err := s.blobs.Delete(ctx, id); err != nil {
		return blobFailure(fmt.Errorf("delete blob: %w", err))
	}
	s.invalidate(ctx, id)

	if err := s.store.DeleteFileTags(ctx, id); err != nil {
		return storeFailure(fmt.Errorf("delete tags: %w", err))
	}
	if err := s.store.DeleteFileRow(ctx, id); err != nil {
		return storeFailure(fmt.Errorf("delete file row: %w", err))
	}
	return nil
}

// Exists reports whether the index still holds a row for id.
func (s *FileService) Exists(ctx context.Context, id string) (bool, error) {
	if s == nil || s.store == nil {
		return false, internalError(fmt.Errorf("file service is not configured"))
	}
	if !store.ValidFileID(id) {
		return false, nil
	}
	exists, err := s.store.FileExists(ctx, id)
	if err != nil {
		return false, storeFailure(fmt.Errorf("check file: %w", err))
	}
	return exists, nil
}

// Open looks up the index row and opens its blob. A missing row and a
// missing blob both return the same not-found error.
func (s *FileService) Open(ctx context.Context, id string) (*FileContent, error) {
	if s == nil || s.store == nil || s.blobs == nil {
		return nil, internalError(fmt.Errorf("file service is not configured"))
	}
	if !store.ValidFileID(id) {
		return nil, notFound(errFileNotFound)
	}

	file, err := s.store.GetFile(ctx, id)
	if err != nil {
		return nil, storeFailure(fmt.Errorf("get file: %w", err))
	}
	if file == nil {
		return nil, notFound(errFileNotFound)
	}

	obj, err := s.blobs.Open(ctx, file.StorageKey)
	if errors.Is(err, blobstore.ErrNotFound) {
		s.logger.Warn("index row without blob", "id", id)
		return nil, notFound(errFileNotFound)
	}
	if err != nil {
		return nil, blobFailure(fmt.Errorf("open blob: %w", err))
	}

	contentType := strings.TrimSpace(obj.ContentType)
	if contentType == "" {
		contentType = fallbackContentType
	}
	return &FileContent{
		Reader:      obj.Reader,
		Size:        obj.SizeBytes,
		ContentType: contentType,
		Filename:    file.Filename,
	}, nil
}

// Info summarizes the index.
func (s *FileService) Info(ctx context.Context) (*store.IndexInfo, error) {
	if s == nil || s.store == nil {
		return nil, internalError(fmt.Errorf("file service is not configured"))
	}
	info, err := s.store.StoreInfo(ctx)
	if err != nil {
		return nil, storeFailure(fmt.Errorf("store info: %w", err))
	}
	return info, nil
}

func (s *FileService) invalidate(ctx context.Context, id string) {
	if s.responses == nil {
		return
	}
	if err := s.responses.Delete(ctx, fileCacheKey(id)); err != nil {
		s.logger.Warn("cache invalidation failed", "id", id, "error", err)
	}
}

func fileCacheKey(id string) string {
	return cache.KeyForPath("/api/file/" + id)
}
