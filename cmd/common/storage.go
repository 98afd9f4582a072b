package common

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/jonesrussell/socialcrawl/internal/database"
)

// OpenDatabase connects to the configured store and applies the schema.
// This consolidates the duplicate connect-then-migrate sequence across
// commands.
func OpenDatabase(ctx context.Context, deps CommandDeps) (*sqlx.DB, error) {
	db, err := database.Connect(deps.Config.Database)
	if err != nil {
		return nil, fmt.Errorf("connect database: %w", err)
	}

	if migrateErr := database.Migrate(ctx, db); migrateErr != nil {
		db.Close()
		return nil, fmt.Errorf("migrate database: %w", migrateErr)
	}

	return db, nil
}
