package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"docindex/internal/models"
)

const fileColumns = "id, filename, storage_key, size, created_at"

// CreateFileWithTags inserts one file row and its tag rows in one transaction.
func (s *Store) CreateFileWithTags(ctx context.Context, file *models.File, tags []string) (err error) {
	if file == nil {
		return fmt.Errorf("file is required")
	}
	if strings.TrimSpace(file.ID) == "" {
		return fmt.Errorf("file id is required")
	}
	if file.StorageKey == "" {
		file.StorageKey = file.ID
	}
	if file.CreatedAt == 0 {
		file.CreatedAt = time.Now().UTC().UnixMilli()
	}
	tags = models.NormalizeTags(tags)

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO files (id, filename, storage_key, size, created_at)
		VALUES (?, ?, ?, ?, ?)
	`, file.ID, file.Filename, file.StorageKey, file.Size, file.CreatedAt); err != nil {
		return err
	}
	if err := insertTags(ctx, tx, file.ID, tags); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return err
	}
	file.Tags = tags
	return nil
}

// GetFile returns one file with its tags, or nil when absent.
func (s *Store) GetFile(ctx context.Context, id string) (*models.File, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+fileColumns+` FROM files WHERE id = ?`, id)
	file, err := scanFile(row)
	if err != nil || file == nil {
		return file, err
	}

	tags, err := s.ListTags(ctx, id)
	if err != nil {
		return nil, err
	}
	file.Tags = tags
	return file, nil
}

// FileExists checks whether a file row exists.
func (s *Store) FileExists(ctx context.Context, id string) (bool, error) {
	var exists int
	err := s.db.QueryRowContext(ctx, "SELECT 1 FROM files WHERE id = ? LIMIT 1", id).Scan(&exists)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// SearchFiles returns files whose filename or any tag contains query, newest
// first. Each file appears once and carries its full tag set. An empty query
// matches every file.
func (s *Store) SearchFiles(ctx context.Context, query string, limit int) ([]models.File, error) {
	if limit <= 0 || limit > MaxSearchLimit {
		limit = MaxSearchLimit
	}
	pattern := "%" + escapeLike(strings.TrimSpace(query)) + "%"

	rows, err := s.db.QueryContext(ctx, `
		SELECT `+fileColumns+`
		FROM files f
		WHERE f.filename LIKE ? ESCAPE '\'
		   OR EXISTS (
		     SELECT 1 FROM file_tags t
		     WHERE t.file_id = f.id AND t.tag LIKE ? ESCAPE '\'
		   )
		ORDER BY f.created_at DESC, f.id DESC
		LIMIT ?
	`, pattern, pattern, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	files := []models.File{}
	for rows.Next() {
		file, err := scanFile(rows)
		if err != nil {
			return nil, err
		}
		if file == nil {
			continue
		}
		files = append(files, *file)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	ids := make([]string, 0, len(files))
	for _, f := range files {
		ids = append(ids, f.ID)
	}
	tagMap, err := s.ListTagsForFiles(ctx, ids)
	if err != nil {
		return nil, err
	}
	for i := range files {
		tags := tagMap[files[i].ID]
		if tags == nil {
			tags = []string{}
		}
		files[i].Tags = tags
	}

	return files, nil
}

// ReplaceTags replaces the full tag set of one file in a single transaction
// and returns the stored set. Missing files return ErrNotFound.
func (s *Store) ReplaceTags(ctx context.Context, id string, tags []string) (_ []string, err error) {
	tags = models.NormalizeTags(tags)

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	var exists int
	err = tx.QueryRowContext(ctx, "SELECT 1 FROM files WHERE id = ? LIMIT 1", id).Scan(&exists)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	if _, err := tx.ExecContext(ctx, "DELETE FROM file_tags WHERE file_id = ?", id); err != nil {
		return nil, err
	}
	if err := insertTags(ctx, tx, id, tags); err != nil {
		return nil, err
	}
	stored, err := listTags(ctx, tx, id)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return stored, nil
}

// ListTags lists tags for one file in insertion order.
func (s *Store) ListTags(ctx context.Context, id string) ([]string, error) {
	return listTags(ctx, s.db, id)
}

// ListTagsForFiles lists tags for many files, keyed by file id.
func (s *Store) ListTagsForFiles(ctx context.Context, ids []string) (map[string][]string, error) {
	tags := make(map[string][]string)
	if len(ids) == 0 {
		return tags, nil
	}

	query := fmt.Sprintf("SELECT file_id, tag FROM file_tags WHERE file_id IN (%s) ORDER BY rowid ASC", placeholders(len(ids)))
	args := make([]any, 0, len(ids))
	for _, id := range ids {
		args = append(args, id)
	}
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var fileID, tag string
		if err := rows.Scan(&fileID, &tag); err != nil {
			return nil, err
		}
		tags[fileID] = append(tags[fileID], tag)
	}
	return tags, rows.Err()
}

// DeleteFileTags deletes every tag row of one file.
func (s *Store) DeleteFileTags(ctx context.Context, id string) error {
	_, err := s.db.ExecContext(ctx, "DELETE FROM file_tags WHERE file_id = ?", id)
	return err
}

// DeleteFileRow deletes one file row. Tag rows must be deleted first.
func (s *Store) DeleteFileRow(ctx context.Context, id string) error {
	_, err := s.db.ExecContext(ctx, "DELETE FROM files WHERE id = ?", id)
	return err
}

type queryer interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func listTags(ctx context.Context, q queryer, id string) ([]string, error) {
	rows, err := q.QueryContext(ctx, "SELECT tag FROM file_tags WHERE file_id = ? ORDER BY rowid ASC", id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	tags := []string{}
	for rows.Next() {
		var tag string
		if err := rows.Scan(&tag); err != nil {
			return nil, err
		}
		tags = append(tags, tag)
	}
	return tags, rows.Err()
}

func scanFile(row rowScanner) (*models.File, error) {
	var file models.File
	err := row.Scan(&file.ID, &file.Filename, &file.StorageKey, &file.Size, &file.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &file, nil
}

func insertTags(ctx context.Context, tx *sql.Tx, id string, tags []string) error {
	if len(tags) == 0 {
		return nil
	}
	_, err := tx.ExecContext(ctx, "INSERT OR IGNORE INTO file_tags (file_id, tag) VALUES "+tagValues(len(tags)), tagArgs(id, tags)...)
	return err
}

func tagValues(count int) string {
	values := make([]string, count)
	for i := 0; i < count; i++ {
		values[i] = "(?, ?)"
	}
	return strings.Join(values, ",")
}

func tagArgs(id string, tags []string) []any {
	args := make([]any, 0, len(tags)*2)
	for _, tag := range tags {
		args = append(args, id, tag)
	}
	return args
}

func placeholders(count int) string {
	if count <= 0 {
		return ""
	}
	return strings.TrimRight(strings.Repeat("?,", count), ",")
}

// escapeLike escapes LIKE wildcards so query matches as a literal substring.
func escapeLike(value string) string {
	replacer := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return replacer.Replace(value)
}
