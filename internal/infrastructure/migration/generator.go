package migration

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"techhive/internal/shared/logger"
)

// Generator handles creation of new migration files
type Generator struct {
	scriptsPath string
	logger      logger.Interface
}

// NewGenerator creates a new migration generator
func NewGenerator(scriptsPath string) *Generator {
	return &Generator{
		scriptsPath: scriptsPath,
		logger:      logger.NewLogger().With("component", "migration.generator"),
	}
}

// CreateMigration creates a new migration file pair (up and down)
func (g *Generator) CreateMigration(name string) error {
	g.logger.Infow("creating new migration", "name", name)

	timestamp := time.Now().Format("20060102150405")

	upFileName := fmt.Sprintf("%s_%s.up.sql", timestamp, name)
	downFileName := fmt.Sprintf("%s_%s.down.sql", timestamp, name)

	upFilePath := filepath.Join(g.scriptsPath, upFileName)
	downFilePath := filepath.Join(g.scriptsPath, downFileName)

	if err := os.MkdirAll(g.scriptsPath, 0755); err != nil {
		return fmt.Errorf("failed to create scripts directory: %w", err)
	}

	upContent := g.generateUpMigrationTemplate(name)
	if err := g.writeFile(upFilePath, upContent); err != nil {
		return fmt.Errorf("failed to create up migration file: %w", err)
	}

	downContent := g.generateDownMigrationTemplate(name)
	if err := g.writeFile(downFilePath, downContent); err != nil {
		return fmt.Errorf("failed to create down migration file: %w", err)
	}

	g.logger.Infow("migration files created successfully",
		"up_file", upFilePath,
		"down_file", downFilePath)

	return nil
}

// writeFile writes content to a file
func (g *Generator) writeFile(filePath, content string) error {
	file, err := os.Create(filePath)
	if err != nil {
		return err
	}
	defer file.Close()

	_, err = file.WriteString(content)
	return err
}

// generateUpMigrationTemplate generates a template for up migration
func (g *Generator) generateUpMigrationTemplate(name string) string {
	return fmt.Sprintf(`-- Migration: %s
-- Created: %s
-- Description: Add description here

-- Add your SQL statements here
-- Example:
-- CREATE TABLE example_table (
--     id BIGINT UNSIGNED AUTO_INCREMENT PRIMARY KEY,
--     name VARCHAR(255) NOT NULL,
--     created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
--     updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP
-- );

`, name, time.Now().Format("2006-01-02 15:04:05"))
}

// generateDownMigrationTemplate generates a template for down migration
func (g *Generator) generateDownMigrationTemplate(name string) string {
	return fmt.Sprintf(`-- Rollback Migration: %s
-- Created: %s
-- Description: Add rollback description here

-- Add your rollback SQL statements here
-- Example:
-- DROP TABLE IF EXISTS example_table;

`, name, time.Now().Format("2006-01-02 15:04:05"))
}

// CreateBillingTablesMigration creates the initial billing schema migration
func (g *Generator) CreateBillingTablesMigration() error {
	g.logger.Infow("creating initial billing tables migration")

	// Fixed timestamp keeps the initial migration first
	timestamp := "000001"
	name := "create_billing_tables"

	upFileName := fmt.Sprintf("%s_%s.up.sql", timestamp, name)
	downFileName := fmt.Sprintf("%s_%s.down.sql", timestamp, name)

	upFilePath := filepath.Join(g.scriptsPath, upFileName)
	downFilePath := filepath.Join(g.scriptsPath, downFileName)

	if err := os.MkdirAll(g.scriptsPath, 0755); err != nil {
		return fmt.Errorf("failed to create scripts directory: %w", err)
	}

	if err := g.writeFile(upFilePath, billingTablesUpMigration); err != nil {
		return fmt.Errorf("failed to create billing tables up migration: %w", err)
	}

	if err := g.writeFile(downFilePath, billingTablesDownMigration); err != nil {
		return fmt.Errorf("failed to create billing tables down migration: %w", err)
	}

	g.logger.Infow("billing tables migration created successfully",
		"up_file", upFilePath,
		"down_file", downFilePath)

	return nil
}

const billingTablesUpMigration = `-- Migration: Create billing tables
-- Created: Initial migration
-- Description: Plans, subscriptions, payment ledger and webhook event log

CREATE TABLE IF NOT EXISTS plans (
    id BIGINT UNSIGNED AUTO_INCREMENT PRIMARY KEY,
    sid VARCHAR(50) NOT NULL UNIQUE,
    name VARCHAR(100) NOT NULL,
    description VARCHAR(500),
    price_kobo BIGINT NOT NULL,
    currency VARCHAR(10) NOT NULL DEFAULT 'NGN',
    billing_cycle VARCHAR(20) NOT NULL,
    paystack_plan_code VARCHAR(64) NULL,
    features JSON,
    is_active BOOLEAN NOT NULL DEFAULT TRUE,
    version INT NOT NULL DEFAULT 1,
    created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
    updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP,
    deleted_at TIMESTAMP NULL,
    INDEX idx_plans_paystack_plan_code (paystack_plan_code),
    INDEX idx_plans_deleted_at (deleted_at)
) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4 COLLATE=utf8mb4_unicode_ci;

CREATE TABLE IF NOT EXISTS subscriptions (
    id BIGINT UNSIGNED AUTO_INCREMENT PRIMARY KEY,
    sid VARCHAR(50) NOT NULL UNIQUE,
    reference VARCHAR(64) NOT NULL UNIQUE,
    user_id BIGINT UNSIGNED NOT NULL,
    user_email VARCHAR(255) NOT NULL,
    plan_id BIGINT UNSIGNED NOT NULL,
    status VARCHAR(20) NOT NULL,
    paystack_subscription_code VARCHAR(64) NULL,
    paystack_customer_code VARCHAR(64) NULL,
    authorization_code VARCHAR(64) NULL,
    card_last4 VARCHAR(4) NOT NULL DEFAULT '',
    card_type VARCHAR(20) NOT NULL DEFAULT '',
    card_bank VARCHAR(100) NOT NULL DEFAULT '',
    card_exp_month VARCHAR(2) NOT NULL DEFAULT '',
    card_exp_year VARCHAR(4) NOT NULL DEFAULT '',
    trial_start TIMESTAMP NULL,
    trial_end TIMESTAMP NULL,
    current_period_start TIMESTAMP NULL,
    current_period_end TIMESTAMP NULL,
    next_billing_date TIMESTAMP NULL,
    auto_renew BOOLEAN NOT NULL DEFAULT TRUE,
    cancel_at_period_end BOOLEAN NOT NULL DEFAULT FALSE,
    cancelled_at TIMESTAMP NULL,
    cancel_reason VARCHAR(500) NULL,
    expires_at TIMESTAMP NULL,
    payment_failed_at TIMESTAMP NULL,
    retry_count INT NOT NULL DEFAULT 0,
    last_retry_at TIMESTAMP NULL,
    version INT NOT NULL DEFAULT 1,
    created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
    updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP,
    deleted_at TIMESTAMP NULL,
    INDEX idx_subscriptions_user_email (user_email),
    INDEX idx_user_subscription (user_id),
    INDEX idx_plan_subscription (plan_id),
    INDEX idx_status (status),
    INDEX idx_subscriptions_trial_end (trial_end),
    INDEX idx_subscriptions_current_period_end (current_period_end),
    INDEX idx_subscriptions_payment_failed_at (payment_failed_at),
    INDEX idx_subscriptions_paystack_subscription_code (paystack_subscription_code),
    INDEX idx_subscriptions_deleted_at (deleted_at)
) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4 COLLATE=utf8mb4_unicode_ci;

CREATE TABLE IF NOT EXISTS payment_transactions (
    id BIGINT UNSIGNED AUTO_INCREMENT PRIMARY KEY,
    sid VARCHAR(50) NOT NULL UNIQUE,
    reference VARCHAR(64) NOT NULL UNIQUE,
    subscription_id BIGINT UNSIGNED NOT NULL,
    user_id BIGINT UNSIGNED NOT NULL,
    type VARCHAR(20) NOT NULL,
    status VARCHAR(20) NOT NULL,
    amount_kobo BIGINT NOT NULL,
    currency VARCHAR(10) NOT NULL DEFAULT 'NGN',
    gateway_reference VARCHAR(128) NULL,
    channel VARCHAR(20) NOT NULL DEFAULT '',
    failure_reason VARCHAR(500) NULL,
    raw_response JSON,
    paid_at TIMESTAMP NULL,
    retry_of BIGINT UNSIGNED NULL,
    created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
    updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP,
    INDEX idx_txn_subscription (subscription_id),
    INDEX idx_txn_user (user_id),
    INDEX idx_txn_status (status),
    INDEX idx_payment_transactions_gateway_reference (gateway_reference),
    INDEX idx_payment_transactions_retry_of (retry_of)
) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4 COLLATE=utf8mb4_unicode_ci;

CREATE TABLE IF NOT EXISTS webhook_events (
    id BIGINT UNSIGNED AUTO_INCREMENT PRIMARY KEY,
    event_key VARCHAR(128) NOT NULL UNIQUE,
    event_type VARCHAR(64) NOT NULL,
    payload JSON,
    status VARCHAR(20) NOT NULL,
    error_message VARCHAR(1000) NULL,
    processed_at TIMESTAMP NULL,
    received_at TIMESTAMP NOT NULL,
    INDEX idx_webhook_events_event_type (event_type),
    INDEX idx_webhook_events_status (status)
) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4 COLLATE=utf8mb4_unicode_ci;
`

const billingTablesDownMigration = `-- Rollback Migration: Create billing tables
-- Created: Initial migration rollback
-- Description: Drop the billing tables

DROP TABLE IF EXISTS webhook_events;
DROP TABLE IF EXISTS payment_transactions;
DROP TABLE IF EXISTS subscriptions;
DROP TABLE IF EXISTS plans;
`
