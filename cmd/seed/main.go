package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/jackc/pgx/v5/pgxpool"
	"golang.org/x/crypto/bcrypt"

	"github.com/medagenda/clinic-backend/internal/db"
	"github.com/medagenda/clinic-backend/internal/rut"
)

// Every seeded account gets the same password so the simulator and manual
// testing can log in.
const seedPassword = "password123"

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)
	log.Println("seed starting")

	dsn := os.Getenv("POSTGRES_DSN")
	if dsn == "" {
		log.Fatal("POSTGRES_DSN is required")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pool, err := db.ConnectPostgres(ctx, dsn)
	if err != nil {
		log.Fatalf("connect postgres: %v", err)
	}
	defer pool.Close()

	if err := db.ApplySchema(context.Background(), pool); err != nil {
		log.Fatalf("apply schema: %v", err)
	}
	log.Println("schema applied")

	gofakeit.Seed(time.Now().UnixNano())

	hash, err := bcrypt.GenerateFromPassword([]byte(seedPassword), bcrypt.DefaultCost)
	if err != nil {
		log.Fatalf("hash seed password: %v", err)
	}

	if err := seedReferenceTables(context.Background(), pool); err != nil {
		log.Fatalf("seed reference tables: %v", err)
	}
	if err := seedAdmin(context.Background(), pool, string(hash)); err != nil {
		log.Fatalf("seed admin: %v", err)
	}
	if err := seedMedics(context.Background(), pool, 20, string(hash)); err != nil {
		log.Fatalf("seed medics: %v", err)
	}
	if err := seedPatients(context.Background(), pool, 500, string(hash)); err != nil {
		log.Fatalf("seed patients: %v", err)
	}

	log.Println("seed complete")
}

var specialties = []string{
	"Dermatology",
	"Cardiology",
	"General Practice",
	"Orthopedics",
	"Endocrinology",
	"Neurology",
	"Pediatrics",
	"Psychiatry",
	"Ophthalmology",
	"ENT",
}

var bloodTypes = []string{"A", "B", "AB", "O"}

var insuranceTypes = []string{"Fonasa", "Isapre", "Private", "None"}

func seedReferenceTables(ctx context.Context, pool *pgxpool.Pool) error {
	tx, err := pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	for table, names := range map[string][]string{
		"specialties":     specialties,
		"blood_types":     bloodTypes,
		"insurance_types": insuranceTypes,
	} {
		for _, name := range names {
			_, err := tx.Exec(ctx, fmt.Sprintf(`
				INSERT INTO %s (name) VALUES ($1) ON CONFLICT (name) DO NOTHING
			`, table), name)
			if err != nil {
				return err
			}
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return err
	}
	log.Println("reference tables seeded")
	return nil
}

func seedAdmin(ctx context.Context, pool *pgxpool.Pool, hash string) error {
	_, err := pool.Exec(ctx, `
		INSERT INTO employees (rut, first_name, last_name, email, phone, role, specialty_id, password_hash)
		VALUES ($1, $2, $3, $4, $5, 'admin', NULL, $6)
		ON CONFLICT (rut) DO NOTHING
	`, rut.Format(14000000), "Clinic", "Admin", "admin@medagenda.example", 900000000, hash)
	if err != nil {
		return err
	}
	log.Println("admin seeded")
	return nil
}

func seedMedics(ctx context.Context, pool *pgxpool.Pool, count int, hash string) error {
	log.Printf("seeding %d medics", count)

	tx, err := pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	for i := 0; i < count; i++ {
		medicRut := rut.Format(18000000 + i)

		_, err := tx.Exec(ctx, `
			INSERT INTO employees (rut, first_name, last_name, email, phone, role, specialty_id, password_hash)
			VALUES ($1, $2, $3, $4, $5, 'medic', $6, $7)
			ON CONFLICT (rut) DO NOTHING
		`, medicRut, gofakeit.FirstName(), gofakeit.LastName(), gofakeit.Email(),
			900000000+gofakeit.Number(1, 99999999), gofakeit.Number(1, len(specialties)), hash)
		if err != nil {
			return err
		}

		var scheduleID int
		err = tx.QueryRow(ctx, `
			INSERT INTO schedules (medic_rut) VALUES ($1)
			ON CONFLICT (medic_rut) DO UPDATE SET medic_rut = EXCLUDED.medic_rut
			RETURNING id
		`, medicRut).Scan(&scheduleID)
		if err != nil {
			return err
		}

		// weekday mornings in half-hour blocks
		for _, day := range []string{"mo", "tu", "we", "th", "fr"} {
			for hour := 9; hour < 12; hour++ {
				for _, half := range []int{0, 30} {
					start := fmt.Sprintf("%02d:%02d", hour, half)
					end := fmt.Sprintf("%02d:00", hour+1)
					if half == 0 {
						end = fmt.Sprintf("%02d:30", hour)
					}
					_, err := tx.Exec(ctx, `
						INSERT INTO time_slots (schedule_id, day, start_time, end_time, active)
						VALUES ($1, $2, $3, $4, TRUE)
					`, scheduleID, day, start, end)
					if err != nil {
						return err
					}
				}
			}
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return err
	}
	log.Println("medics seeded")
	return nil
}

func seedPatients(ctx context.Context, pool *pgxpool.Pool, count int, hash string) error {
	log.Printf("seeding %d patients", count)

	const batchSize = 100

	for offset := 0; offset < count; offset += batchSize {
		end := offset + batchSize
		if end > count {
			end = count
		}

		tx, err := pool.Begin(ctx)
		if err != nil {
			return err
		}

		for i := offset; i < end; i++ {
			birth := gofakeit.DateRange(
				time.Date(1940, 1, 1, 0, 0, 0, 0, time.UTC),
				time.Date(2008, 12, 31, 0, 0, 0, 0, time.UTC),
			).Format("2006-01-02")

			rhesus := "+"
			if gofakeit.Bool() {
				rhesus = "-"
			}

			_, err := tx.Exec(ctx, `
				INSERT INTO patients (rut, first_name, last_name, email, phone, birth_date,
				                      blood_type_id, insurance_type_id, rhesus, password_hash)
				VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
				ON CONFLICT (rut) DO NOTHING
			`, rut.Format(10000000+i), gofakeit.FirstName(), gofakeit.LastName(), gofakeit.Email(),
				900000000+gofakeit.Number(1, 99999999), birth,
				gofakeit.Number(1, len(bloodTypes)), gofakeit.Number(1, len(insuranceTypes)), rhesus, hash)
			if err != nil {
				_ = tx.Rollback(ctx)
				return err
			}
		}

		if err := tx.Commit(ctx); err != nil {
			return err
		}

		log.Printf("patients seeded: %d/%d", end, count)
	}

	log.Println("patients seeded")
	return nil
}
