package database

import (
	"context"
	"database/sql"
	"fmt"
)

var schema = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id            CHAR(36)     NOT NULL PRIMARY KEY,
		username      VARCHAR(100) NOT NULL,
		password_hash VARCHAR(255) NOT NULL,
		created_at    DATETIME(6)  NOT NULL,
		updated_at    DATETIME(6)  NOT NULL,
		UNIQUE KEY uq_users_username (username)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
	`CREATE TABLE IF NOT EXISTS posts (
		id         CHAR(36)      NOT NULL PRIMARY KEY,
		title      VARCHAR(255)  NOT NULL,
		content    MEDIUMTEXT    NOT NULL,
		author     VARCHAR(100)  NOT NULL DEFAULT 'Admin',
		tags       JSON          NULL,
		image_url  VARCHAR(1024) NOT NULL DEFAULT '',
		created_at DATETIME(6)   NOT NULL,
		updated_at DATETIME(6)   NOT NULL,
		KEY idx_posts_created (created_at)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
	`CREATE TABLE IF NOT EXISTS education (
		id             CHAR(36)     NOT NULL PRIMARY KEY,
		institution    VARCHAR(255) NOT NULL,
		degree         VARCHAR(255) NOT NULL,
		field_of_study VARCHAR(255) NOT NULL DEFAULT '',
		start_date     VARCHAR(64)  NOT NULL DEFAULT '',
		end_date       VARCHAR(64)  NOT NULL DEFAULT '',
		description    TEXT         NOT NULL,
		created_at     DATETIME(6)  NOT NULL,
		updated_at     DATETIME(6)  NOT NULL,
		KEY idx_education_created (created_at)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
	`CREATE TABLE IF NOT EXISTS experience (
		id          CHAR(36)     NOT NULL PRIMARY KEY,
		company     VARCHAR(255) NOT NULL,
		position    VARCHAR(255) NOT NULL,
		start_date  VARCHAR(64)  NOT NULL,
		end_date    VARCHAR(64)  NOT NULL DEFAULT '',
		description TEXT         NOT NULL,
		created_at  DATETIME(6)  NOT NULL,
		updated_at  DATETIME(6)  NOT NULL,
		KEY idx_experience_created (created_at)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
}

// EnsureSchema creates the tables the MySQL stores use. It is safe to run on
// every start.
func EnsureSchema(ctx context.Context, db *sql.DB) error {
	for _, stmt := range schema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("ensure schema: %w", err)
		}
	}
	return nil
}
