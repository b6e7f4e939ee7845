package store

import (
	"context"
	"errors"

	"docindex/internal/models"
)

// ErrNotFound is returned when an operation targets a missing file row.
var ErrNotFound = errors.New("file not found")

const (
	// MaxSearchLimit caps the number of rows SearchFiles returns.
	MaxSearchLimit = 50
)

// FileStore abstracts the metadata index.
type FileStore interface {
	CreateFileWithTags(ctx context.Context, file *models.File, tags []string) error
	GetFile(ctx context.Context, id string) (*models.File, error)
	FileExists(ctx context.Context, id string) (bool, error)
	SearchFiles(ctx context.Context, query string, limit int) ([]models.File, error)
	ReplaceTags(ctx context.Context, id string, tags []string) ([]string, error)
	ListTags(ctx context.Context, id string) ([]string, error)
	ListTagsForFiles(ctx context.Context, ids []string) (map[string][]string, error)
	DeleteFileTags(ctx context.Context, id string) error
	DeleteFileRow(ctx context.Context, id string) error
	StoreInfo(ctx context.Context) (*IndexInfo, error)
}

var _ FileStore = (*Store)(nil)
