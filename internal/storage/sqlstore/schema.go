package sqlstore

import (
	"context"
	"fmt"
)

// schema is valid for both SQLite and MySQL. SQLite maps the declared types
// onto its own affinities.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS projects (
		id VARCHAR(128) NOT NULL PRIMARY KEY,
		version BIGINT NOT NULL,
		status VARCHAR(32) NOT NULL,
		data LONGTEXT NOT NULL,
		created_at VARCHAR(40) NOT NULL,
		updated_at VARCHAR(40) NOT NULL
	)`,
}

func (s *Store) migrate(ctx context.Context) error {
	for _, stmt := range schema {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
	}
	return nil
}
