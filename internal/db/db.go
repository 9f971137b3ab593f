package db

import (
	"fmt"
	"log"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
)

// Connect initializes the database connection and runs migrations.
func Connect(dsn string) (*sqlx.DB, error) {
	db, err := sqlx.Connect("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("connect db: %w", err)
	}

	if err := Migrate(db); err != nil {
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return db, nil
}

// Parent references (posts.group_id, comments.post_id) are plain
// columns, not foreign keys: deleting a group or post leaves its
// children orphaned rather than failing the delete.
var migrations = []string{
	`CREATE TABLE IF NOT EXISTS groups (
        id SERIAL PRIMARY KEY,
        name TEXT NOT NULL,
        image_url TEXT NOT NULL DEFAULT '',
        description TEXT NOT NULL DEFAULT '',
        is_public BOOLEAN NOT NULL DEFAULT TRUE,
        password TEXT NOT NULL,
        like_count INTEGER NOT NULL DEFAULT 0,
        post_count INTEGER NOT NULL DEFAULT 0,
        badges TEXT NOT NULL DEFAULT '',
        created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
    );`,
	`CREATE TABLE IF NOT EXISTS posts (
        id SERIAL PRIMARY KEY,
        group_id INT NOT NULL,
        nickname TEXT NOT NULL,
        title TEXT NOT NULL,
        content TEXT NOT NULL,
        post_password TEXT NOT NULL,
        image_url TEXT NOT NULL DEFAULT '',
        tags TEXT NOT NULL DEFAULT '',
        location TEXT NOT NULL DEFAULT '',
        moment TEXT,
        is_public BOOLEAN NOT NULL DEFAULT TRUE,
        like_count INTEGER NOT NULL DEFAULT 0,
        comment_count INTEGER NOT NULL DEFAULT 0,
        created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
    );`,
	`CREATE TABLE IF NOT EXISTS comments (
        id SERIAL PRIMARY KEY,
        post_id INT NOT NULL,
        nickname TEXT NOT NULL,
        content TEXT NOT NULL,
        password TEXT NOT NULL,
        created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
    );`,
	`CREATE INDEX IF NOT EXISTS idx_posts_group_id ON posts(group_id);`,
	`CREATE INDEX IF NOT EXISTS idx_comments_post_id ON comments(post_id);`,
}

// Migrate applies the schema statements in order.
func Migrate(db *sqlx.DB) error {
	for _, m := range migrations {
		if _, err := db.Exec(m); err != nil {
			return err
		}
	}
	log.Println("database migrations applied")
	return nil
}
