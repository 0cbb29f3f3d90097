package database

import (
	"context"
	"fmt"
	"time"

	_ "github.com/go-sql-driver/mysql"
	"github.com/jmoiron/sqlx"
)

// Open connects to MySQL and verifies the connection.
func Open(user, pass, host, port, name string) (*sqlx.DB, error) {
	auth := user
	if pass != "" {
		auth = fmt.Sprintf("%s:%s", user, pass)
	}
	// parseTime=true -> DATETIME -> time.Time | loc=UTC keeps tee times consistent
	dsn := fmt.Sprintf("%s@tcp(%s:%s)/%s?charset=utf8mb4&parseTime=true&loc=UTC",
		auth, host, port, name)

	db, err := sqlx.Open("mysql", dsn)
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
		_ = db.Close()
		return nil, err
	}
	return db, nil
}

var schema = []string{
	`CREATE TABLE IF NOT EXISTS courses (
		id BIGINT AUTO_INCREMENT PRIMARY KEY,
		name VARCHAR(200) NOT NULL,
		slug VARCHAR(200) NOT NULL UNIQUE,
		currency CHAR(3) NOT NULL DEFAULT 'EUR',
		kickback_percent DECIMAL(5,2) NULL,
		timezone VARCHAR(64) NOT NULL DEFAULT 'Europe/Madrid',
		created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
	)`,
	`CREATE TABLE IF NOT EXISTS course_add_ons (
		id BIGINT AUTO_INCREMENT PRIMARY KEY,
		course_id BIGINT NOT NULL,
		name VARCHAR(200) NOT NULL,
		price_cents BIGINT NOT NULL,
		currency CHAR(3) NOT NULL DEFAULT 'EUR',
		per_player BOOLEAN NOT NULL DEFAULT FALSE,
		active BOOLEAN NOT NULL DEFAULT TRUE,
		FOREIGN KEY (course_id) REFERENCES courses(id) ON DELETE CASCADE
	)`,
	`CREATE TABLE IF NOT EXISTS course_rate_periods (
		id BIGINT AUTO_INCREMENT PRIMARY KEY,
		course_id BIGINT NOT NULL,
		name VARCHAR(200) NOT NULL,
		valid_from DATE NOT NULL,
		valid_to DATE NOT NULL,
		rack_rate DECIMAL(10,2) NOT NULL,
		is_early_bird BOOLEAN NOT NULL DEFAULT FALSE,
		is_twilight BOOLEAN NOT NULL DEFAULT FALSE,
		includes_lunch BOOLEAN NOT NULL DEFAULT FALSE,
		FOREIGN KEY (course_id) REFERENCES courses(id) ON DELETE CASCADE
	)`,
	`CREATE TABLE IF NOT EXISTS provider_links (
		id BIGINT AUTO_INCREMENT PRIMARY KEY,
		course_id BIGINT NOT NULL,
		provider_code VARCHAR(200) NOT NULL,
		UNIQUE KEY uniq_course_provider (course_id, provider_code),
		FOREIGN KEY (course_id) REFERENCES courses(id) ON DELETE CASCADE
	)`,
	`CREATE TABLE IF NOT EXISTS bookings (
		id CHAR(36) PRIMARY KEY,
		order_id CHAR(36) NOT NULL,
		course_id BIGINT NOT NULL,
		tee_time DATETIME NOT NULL,
		players INT NOT NULL,
		holes INT NOT NULL,
		first_name VARCHAR(100) NOT NULL,
		last_name VARCHAR(100) NOT NULL,
		email VARCHAR(255) NOT NULL,
		phone VARCHAR(50) NULL,
		status VARCHAR(20) NOT NULL,
		payment_status VARCHAR(20) NOT NULL,
		payment_reference VARCHAR(255) NULL UNIQUE,
		total_cents BIGINT NOT NULL,
		currency CHAR(3) NOT NULL,
		provider_sync_status VARCHAR(20) NOT NULL,
		provider_sync_error TEXT NULL,
		provider_booking_id VARCHAR(255) NULL,
		created_at DATETIME NOT NULL,
		updated_at DATETIME NOT NULL,
		KEY idx_bookings_order (order_id),
		FOREIGN KEY (course_id) REFERENCES courses(id)
	)`,
}

// Migrate creates the tables the service needs when they do not exist.
func Migrate(ctx context.Context, db *sqlx.DB) error {
	for _, stmt := range schema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
	}
	return nil
}
