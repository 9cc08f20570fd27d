package db

import (
	"fmt"

	"gorm.io/gorm"
)

var migrationStatements = []string{
	`CREATE EXTENSION IF NOT EXISTS "uuid-ossp";`,
	`DO $$
	BEGIN
		IF NOT EXISTS (SELECT 1 FROM pg_type WHERE typname = 'user_role') THEN
			CREATE TYPE user_role AS ENUM ('STAFF', 'MANAGER', 'ADMIN');
		END IF;
		IF NOT EXISTS (SELECT 1 FROM pg_type WHERE typname = 'account_status') THEN
			CREATE TYPE account_status AS ENUM ('PENDING', 'APPROVED', 'REJECTED', 'SUSPENDED');
		END IF;
	END
	$$;`,
	`CREATE TABLE IF NOT EXISTS organizations (
		id UUID PRIMARY KEY DEFAULT uuid_generate_v4(),
		name VARCHAR(255) NOT NULL,
		type VARCHAR(64) NOT NULL DEFAULT 'TENANT',
		address TEXT,
		phone VARCHAR(64),
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);`,
	`CREATE TABLE IF NOT EXISTS custom_roles (
		id UUID PRIMARY KEY DEFAULT uuid_generate_v4(),
		org_id UUID NOT NULL REFERENCES organizations(id),
		name VARCHAR(128) NOT NULL,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);`,
	`DO $$
	BEGIN
		IF NOT EXISTS (SELECT 1 FROM information_schema.columns WHERE table_name = 'custom_roles' AND column_name = 'is_supervisor') THEN
			ALTER TABLE custom_roles ADD COLUMN is_supervisor BOOLEAN NOT NULL DEFAULT FALSE;
			UPDATE custom_roles SET is_supervisor = TRUE WHERE name ILIKE '%supervisor%';
		END IF;
	END
	$$;`,
	`CREATE TABLE IF NOT EXISTS users (
		id UUID PRIMARY KEY DEFAULT uuid_generate_v4(),
		org_id UUID NOT NULL REFERENCES organizations(id),
		email VARCHAR(255) NOT NULL,
		full_name VARCHAR(255) NOT NULL DEFAULT '',
		role user_role NOT NULL DEFAULT 'STAFF',
		is_admin BOOLEAN NOT NULL DEFAULT FALSE,
		status account_status NOT NULL DEFAULT 'PENDING',
		custom_role_id UUID REFERENCES custom_roles(id),
		page_access JSONB NOT NULL DEFAULT '{}'::jsonb,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);`,
	`CREATE UNIQUE INDEX IF NOT EXISTS uq_users_email ON users (lower(email));`,
	`CREATE INDEX IF NOT EXISTS idx_users_org_id ON users (org_id);`,
	`CREATE TABLE IF NOT EXISTS vehicles (
		id UUID PRIMARY KEY DEFAULT uuid_generate_v4(),
		org_id UUID NOT NULL REFERENCES organizations(id),
		plate_number VARCHAR(32) NOT NULL,
		name VARCHAR(255) NOT NULL DEFAULT '',
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);`,
	`CREATE INDEX IF NOT EXISTS idx_vehicles_org_id ON vehicles (org_id);`,
	`CREATE TABLE IF NOT EXISTS vehicle_locations (
		id UUID PRIMARY KEY DEFAULT uuid_generate_v4(),
		vehicle_id UUID NOT NULL REFERENCES vehicles(id) ON DELETE CASCADE,
		recorded_at TIMESTAMPTZ NOT NULL,
		latitude DOUBLE PRECISION NOT NULL,
		longitude DOUBLE PRECISION NOT NULL,
		metadata JSONB
	);`,
	`CREATE INDEX IF NOT EXISTS idx_vehicle_locations_vehicle_time ON vehicle_locations (vehicle_id, recorded_at);`,
	`CREATE TABLE IF NOT EXISTS audit_logs (
		id UUID PRIMARY KEY DEFAULT uuid_generate_v4(),
		org_id UUID NOT NULL REFERENCES organizations(id),
		user_id UUID NOT NULL REFERENCES users(id),
		action VARCHAR(64) NOT NULL,
		entity_type VARCHAR(64) NOT NULL,
		entity_id UUID,
		details JSONB,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);`,
	`CREATE INDEX IF NOT EXISTS idx_audit_logs_org_created ON audit_logs (org_id, created_at DESC);`,
}

func runMigrations(db *gorm.DB) error {
	for i, stmt := range migrationStatements {
		if err := db.Exec(stmt).Error; err != nil {
			return fmt.Errorf("migration %d failed: %w", i+1, err)
		}
	}
	return nil
}
