package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/go-sql-driver/mysql"
)

// Open connects to MySQL and verifies the connection.
func Open(user, pass, host, port, name string) (*sql.DB, error) {
	auth := user
	if pass != "" {
		auth = fmt.Sprintf("%s:%s", user, pass)
	}
	// parseTime=true -> DATETIME -> time.Time | loc=UTC keeps times consistent
	dsn := fmt.Sprintf("%s@tcp(%s:%s)/%s?charset=utf8mb4&parseTime=true&loc=UTC",
		auth, host, port, name)

	db, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, err
	}

	// Pool settings
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(25)
	db.SetConnMaxLifetime(30 * time.Minute)

	// Ping with timeout
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		return nil, err
	}
	return db, nil
}

// EnsureSchema creates the application tables when they do not exist yet.
// The unique index on users.email is the authoritative guard against two
// concurrent registrations racing the same address; application-level
// existence checks are only a fast path.
func EnsureSchema(ctx context.Context, db *sql.DB) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS users (
			id BIGINT UNSIGNED AUTO_INCREMENT PRIMARY KEY,
			email VARCHAR(255) NOT NULL,
			username VARCHAR(100) NOT NULL,
			password_hash VARCHAR(100) NOT NULL,
			profile_image TEXT NULL,
			quit_date DATETIME NULL,
			cigarettes_per_day INT NOT NULL DEFAULT 0,
			price_per_pack DOUBLE NOT NULL DEFAULT 0,
			cigarettes_per_pack INT NOT NULL DEFAULT 0,
			age INT NULL,
			smoking_years INT NOT NULL DEFAULT 0,
			preexisting_conditions TEXT NULL,
			body_weight DOUBLE NULL,
			sport_activity VARCHAR(100) NULL,
			created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
			updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP,
			UNIQUE KEY uq_users_email (email),
			KEY ix_users_username (username)
		) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
		`CREATE TABLE IF NOT EXISTS health_milestones (
			id BIGINT UNSIGNED AUTO_INCREMENT PRIMARY KEY,
			user_id BIGINT UNSIGNED NOT NULL,
			metric_name VARCHAR(100) NOT NULL,
			current_value DOUBLE NOT NULL,
			max_value DOUBLE NOT NULL,
			unit VARCHAR(20) NOT NULL,
			description TEXT NULL,
			is_permanent_damage TINYINT(1) NOT NULL DEFAULT 0,
			expected_recovery VARCHAR(50) NULL,
			achievement_date DATETIME NULL,
			recovery_start_date DATETIME NULL,
			last_updated DATETIME NOT NULL,
			UNIQUE KEY uq_milestone_user_metric (user_id, metric_name),
			CONSTRAINT fk_milestone_user FOREIGN KEY (user_id) REFERENCES users(id)
		) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
	}
	for _, s := range stmts {
		if _, err := db.ExecContext(ctx, s); err != nil {
			return fmt.Errorf("ensure schema: %w", err)
		}
	}
	return nil
}
