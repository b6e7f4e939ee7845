package store

import (
	"context"
	"database/sql"
)

// IndexInfo summarizes the contents of the index database.
type IndexInfo struct {
	SchemaVersion int
	TotalFiles    int
	TotalTags     int
	DistinctTags  int
	TotalBytes    int64
}

// StoreInfo returns schema version and row counts.
func (s *Store) StoreInfo(ctx context.Context) (*IndexInfo, error) {
	info := &IndexInfo{}

	var version sql.NullInt64
	if err := s.db.QueryRowContext(ctx, "SELECT MAX(version) FROM schema_migrations").Scan(&version); err != nil {
		return nil, err
	}
	info.SchemaVersion = int(version.Int64)

	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*), COALESCE(SUM(size), 0) FROM files").Scan(&info.TotalFiles, &info.TotalBytes); err != nil {
		return nil, err
	}
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*), COUNT(DISTINCT tag) FROM file_tags").Scan(&info.TotalTags, &info.DistinctTags); err != nil {
		return nil, err
	}

	return info, nil
}
