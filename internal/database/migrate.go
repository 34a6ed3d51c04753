package database

import (
	"context"
	"database/sql"
)

// migrations are idempotent; every statement uses IF NOT EXISTS so the
// server can apply them on each startup.
var migrations = []string{
	`CREATE TABLE IF NOT EXISTS rooms (
		id         CHAR(36)     NOT NULL PRIMARY KEY,
		name       VARCHAR(190) NOT NULL,
		capacity   INT UNSIGNED NOT NULL DEFAULT 0,
		is_active  TINYINT(1)   NOT NULL DEFAULT 1,
		created_at DATETIME     NOT NULL,
		updated_at DATETIME     NOT NULL,
		UNIQUE KEY uq_rooms_name (name)
	)`,
	`CREATE TABLE IF NOT EXISTS reservations (
		id           CHAR(36)    NOT NULL PRIMARY KEY,
		room_id      CHAR(36)    NOT NULL,
		requester_id CHAR(36)    NOT NULL,
		start_at     DATETIME    NOT NULL,
		end_at       DATETIME    NOT NULL,
		status       ENUM('PENDING','CONFIRMED','CANCELLED') NOT NULL,
		created_at   DATETIME    NOT NULL,
		updated_at   DATETIME    NOT NULL,
		KEY idx_reservations_room_window (room_id, start_at, end_at),
		KEY idx_reservations_requester (requester_id),
		CONSTRAINT fk_reservations_room FOREIGN KEY (room_id) REFERENCES rooms (id)
	)`,
	`CREATE TABLE IF NOT EXISTS users (
		id            CHAR(36)     NOT NULL PRIMARY KEY,
		email         VARCHAR(190) NOT NULL,
		password_hash VARCHAR(100) NOT NULL,
		role          ENUM('ADMIN','MEMBER') NOT NULL DEFAULT 'MEMBER',
		is_active     TINYINT(1)   NOT NULL DEFAULT 1,
		created_at    DATETIME     NOT NULL,
		updated_at    DATETIME     NOT NULL,
		UNIQUE KEY uq_users_email (email)
	)`,
	`CREATE TABLE IF NOT EXISTS refresh_tokens (
		id         BIGINT UNSIGNED NOT NULL AUTO_INCREMENT PRIMARY KEY,
		user_id    CHAR(36)  NOT NULL,
		token_hash CHAR(64)  NOT NULL,
		expires_at DATETIME  NOT NULL,
		revoked_at DATETIME  NULL,
		UNIQUE KEY uq_refresh_tokens_hash (token_hash),
		KEY idx_refresh_tokens_user (user_id)
	)`,
}

// Migrate applies the schema statements in order.
func Migrate(ctx context.Context, db *sql.DB) error {
	for _, stmt := range migrations {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}
