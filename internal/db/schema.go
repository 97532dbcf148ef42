package db

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

const schema = `
CREATE TABLE IF NOT EXISTS specialties (
	id   SERIAL PRIMARY KEY,
	name TEXT NOT NULL UNIQUE
);

CREATE TABLE IF NOT EXISTS blood_types (
	id   SERIAL PRIMARY KEY,
	name TEXT NOT NULL UNIQUE
);

CREATE TABLE IF NOT EXISTS insurance_types (
	id   SERIAL PRIMARY KEY,
	name TEXT NOT NULL UNIQUE
);

CREATE TABLE IF NOT EXISTS patients (
	rut               TEXT PRIMARY KEY,
	first_name        TEXT NOT NULL,
	last_name         TEXT NOT NULL,
	email             TEXT NOT NULL,
	phone             BIGINT NOT NULL,
	birth_date        TEXT NOT NULL,
	blood_type_id     INT NOT NULL REFERENCES blood_types(id),
	insurance_type_id INT NOT NULL REFERENCES insurance_types(id),
	rhesus            TEXT NOT NULL CHECK (rhesus IN ('+', '-')),
	password_hash     TEXT NOT NULL,
	session_token     TEXT
);

CREATE TABLE IF NOT EXISTS employees (
	rut           TEXT PRIMARY KEY,
	first_name    TEXT NOT NULL,
	last_name     TEXT NOT NULL,
	email         TEXT NOT NULL,
	phone         BIGINT NOT NULL,
	role          TEXT NOT NULL CHECK (role IN ('medic', 'admin')),
	specialty_id  INT REFERENCES specialties(id),
	password_hash TEXT NOT NULL,
	session_token TEXT
);

CREATE TABLE IF NOT EXISTS schedules (
	id        SERIAL PRIMARY KEY,
	medic_rut TEXT NOT NULL UNIQUE REFERENCES employees(rut) ON DELETE CASCADE
);

CREATE TABLE IF NOT EXISTS time_slots (
	id          SERIAL PRIMARY KEY,
	schedule_id INT NOT NULL REFERENCES schedules(id) ON DELETE CASCADE,
	day         TEXT NOT NULL CHECK (day IN ('mo', 'tu', 'we', 'th', 'fr', 'sa', 'su')),
	start_time  TEXT NOT NULL,
	end_time    TEXT NOT NULL,
	active      BOOLEAN NOT NULL DEFAULT TRUE
);

CREATE TABLE IF NOT EXISTS appointments (
	id           SERIAL PRIMARY KEY,
	patient_rut  TEXT NOT NULL REFERENCES patients(rut) ON DELETE CASCADE,
	time_slot_id INT NOT NULL REFERENCES time_slots(id),
	date         TEXT NOT NULL,
	description  TEXT NOT NULL DEFAULT '',
	confirmed    BOOLEAN NOT NULL DEFAULT FALSE,
	UNIQUE (time_slot_id, date)
);
`

// ApplySchema creates all tables if they do not exist yet. The unique
// (time_slot_id, date) constraint backs the booking path against races the
// Redis lock does not cover.
func ApplySchema(ctx context.Context, pool *pgxpool.Pool) error {
	if _, err := pool.Exec(ctx, schema); err != nil {
		return fmt.Errorf("apply schema: %w", err)
	}
	return nil
}
