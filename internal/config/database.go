package config

import (
	"fmt"
	"log"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq" // PostgreSQL driver
)

// SetupDatabase initializes the database connection
func SetupDatabase(cfg *Config) (*sqlx.DB, error) {
	db, err := sqlx.Connect("postgres", cfg.Database.GetDSN())
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// Test the connection
	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	// Set connection pool settings
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)

	// Create tables if they don't exist
	if err := createTables(db); err != nil {
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}

	return db, nil
}

// createTables creates the necessary tables in the database
func createTables(db *sqlx.DB) error {
	// Create ideas table. vote_count is a materialized projection of the
	// idea_votes ledger, maintained inside the vote-commit transaction.
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS ideas (
			id VARCHAR(36) PRIMARY KEY,
			title VARCHAR(200) NOT NULL,
			description VARCHAR(1000) NOT NULL,
			content TEXT NOT NULL DEFAULT '',
			language VARCHAR(16) NOT NULL DEFAULT '',
			author_id VARCHAR(36) NOT NULL,
			status VARCHAR(12) NOT NULL,
			vote_count INTEGER NOT NULL DEFAULT 0 CHECK (vote_count >= 0),
			adopted_by VARCHAR(36),
			adopted_at TIMESTAMP,
			project_ref VARCHAR(36),
			created_at TIMESTAMP NOT NULL,
			updated_at TIMESTAMP NOT NULL
		)
	`)
	if err != nil {
		return err
	}

	// Create idea_votes ledger table. The composite primary key is the
	// double-vote guard: concurrent duplicate votes collide here, not in
	// application code.
	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS idea_votes (
			idea_id VARCHAR(36) NOT NULL REFERENCES ideas(id) ON DELETE CASCADE,
			voter_id VARCHAR(36) NOT NULL,
			weight SMALLINT NOT NULL CHECK (weight IN (1, 2)),
			created_at TIMESTAMP NOT NULL,
			PRIMARY KEY (idea_id, voter_id)
		)
	`)
	if err != nil {
		return err
	}

	// Create indexes for better performance
	indexes := []string{
		"CREATE INDEX IF NOT EXISTS idx_ideas_status ON ideas(status)",
		"CREATE INDEX IF NOT EXISTS idx_ideas_author ON ideas(author_id, created_at)",
		"CREATE INDEX IF NOT EXISTS idx_idea_votes_voter_day ON idea_votes(voter_id, created_at)",
	}

	for _, idx := range indexes {
		_, err = db.Exec(idx)
		if err != nil {
			log.Printf("Warning: Failed to create index: %v", err)
			// Don't return error here, indexes are not critical
		}
	}

	return nil
}
