package db

import (
	"fmt"

	"gorm.io/gorm"
)

var migrationStatements = []string{
	`CREATE EXTENSION IF NOT EXISTS "uuid-ossp";`,
	`DO $$
	BEGIN
		IF NOT EXISTS (SELECT 1 FROM pg_type WHERE typname = 'visit_status') THEN
			CREATE TYPE visit_status AS ENUM ('PLANNED', 'COMPLETED', 'CANCELLED');
		END IF;
	END
	$$;`,
	`CREATE TABLE IF NOT EXISTS clients (
		id UUID PRIMARY KEY DEFAULT uuid_generate_v4(),
		name VARCHAR(255) NOT NULL,
		address VARCHAR(255) NOT NULL DEFAULT '',
		postal_code VARCHAR(16) NOT NULL DEFAULT '',
		city VARCHAR(128) NOT NULL DEFAULT '',
		phone VARCHAR(32) NOT NULL DEFAULT '',
		tag VARCHAR(64) NOT NULL DEFAULT '',
		monthly_invoice BOOLEAN NOT NULL DEFAULT FALSE,
		active BOOLEAN NOT NULL DEFAULT TRUE,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);`,
	`CREATE TABLE IF NOT EXISTS workers (
		id UUID PRIMARY KEY DEFAULT uuid_generate_v4(),
		name VARCHAR(255) NOT NULL,
		phone VARCHAR(32),
		active BOOLEAN NOT NULL DEFAULT TRUE,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);`,
	`CREATE TABLE IF NOT EXISTS contracts (
		id UUID PRIMARY KEY DEFAULT uuid_generate_v4(),
		client_id UUID NOT NULL REFERENCES clients(id),
		frequency VARCHAR(16) NOT NULL DEFAULT 'monthly',
		price_inc NUMERIC(12,2) NOT NULL DEFAULT 0,
		tax_pct NUMERIC(5,2) NOT NULL DEFAULT 21,
		last_visit DATE,
		next_visit DATE,
		active BOOLEAN NOT NULL DEFAULT TRUE,
		ended_at TIMESTAMPTZ,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);`,
	`CREATE TABLE IF NOT EXISTS visits (
		id UUID PRIMARY KEY DEFAULT uuid_generate_v4(),
		contract_id UUID NOT NULL REFERENCES contracts(id),
		worker_id UUID REFERENCES workers(id),
		date DATE NOT NULL,
		week_number INT NOT NULL,
		status visit_status NOT NULL DEFAULT 'PLANNED',
		comment TEXT,
		cancel_reason TEXT,
		invoiced BOOLEAN NOT NULL DEFAULT FALSE,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);`,
	`CREATE INDEX IF NOT EXISTS idx_contracts_client_id ON contracts (client_id);`,
	`CREATE INDEX IF NOT EXISTS idx_visits_contract_id ON visits (contract_id);`,
	`CREATE INDEX IF NOT EXISTS idx_visits_worker_id ON visits (worker_id) WHERE worker_id IS NOT NULL;`,
	`CREATE INDEX IF NOT EXISTS idx_visits_date ON visits (date);`,
	`CREATE INDEX IF NOT EXISTS idx_visits_status ON visits (status);`,
	`CREATE INDEX IF NOT EXISTS idx_visits_week_number ON visits (week_number);`,
}

func runMigrations(db *gorm.DB) error {
	for i, stmt := range migrationStatements {
		if err := db.Exec(stmt).Error; err != nil {
			return fmt.Errorf("migration %d failed: %w", i+1, err)
		}
	}
	return nil
}
