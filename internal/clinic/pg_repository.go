package clinic

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/medagenda/clinic-backend/internal/auth"
)

type PgRepository struct {
	pool *pgxpool.Pool
}

func NewPgRepository(pool *pgxpool.Pool) *PgRepository {
	return &PgRepository{pool: pool}
}

func scanPatient(row pgx.Row) (*Patient, error) {
	var p Patient
	err := row.Scan(&p.Rut, &p.FirstName, &p.LastName, &p.Email, &p.Phone,
		&p.BirthDate, &p.BloodTypeID, &p.InsuranceTypeID, &p.Rhesus, &p.PasswordHash)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrPatientNotFound
		}
		return nil, err
	}
	return &p, nil
}

func scanEmployee(row pgx.Row) (*Employee, error) {
	var e Employee
	var role string
	err := row.Scan(&e.Rut, &e.FirstName, &e.LastName, &e.Email, &e.Phone,
		&role, &e.SpecialtyID, &e.PasswordHash)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrEmployeeNotFound
		}
		return nil, err
	}
	e.Role = auth.Role(role)
	return &e, nil
}

func (r *PgRepository) GetPatient(ctx context.Context, rut string) (*Patient, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT rut, first_name, last_name, email, phone, birth_date,
		       blood_type_id, insurance_type_id, rhesus, password_hash
		FROM patients
		WHERE rut = $1
	`, rut)
	return scanPatient(row)
}

func (r *PgRepository) CreatePatient(ctx context.Context, p Patient) (*Patient, error) {
	row := r.pool.QueryRow(ctx, `
		INSERT INTO patients (rut, first_name, last_name, email, phone, birth_date,
		                      blood_type_id, insurance_type_id, rhesus, password_hash)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING rut, first_name, last_name, email, phone, birth_date,
		          blood_type_id, insurance_type_id, rhesus, password_hash
	`, p.Rut, p.FirstName, p.LastName, p.Email, p.Phone, p.BirthDate,
		p.BloodTypeID, p.InsuranceTypeID, p.Rhesus, p.PasswordHash)
	return scanPatient(row)
}

func (r *PgRepository) UpdatePatient(ctx context.Context, p Patient) (int64, error) {
	tag, err := r.pool.Exec(ctx, `
		UPDATE patients
		SET first_name = $2,
		    last_name = $3,
		    email = $4,
		    phone = $5,
		    birth_date = $6,
		    blood_type_id = $7,
		    insurance_type_id = $8,
		    rhesus = $9,
		    password_hash = $10
		WHERE rut = $1
		  AND (first_name, last_name, email, phone, birth_date,
		       blood_type_id, insurance_type_id, rhesus, password_hash)
		      IS DISTINCT FROM ($2, $3, $4, $5, $6, $7, $8, $9, $10)
	`, p.Rut, p.FirstName, p.LastName, p.Email, p.Phone, p.BirthDate,
		p.BloodTypeID, p.InsuranceTypeID, p.Rhesus, p.PasswordHash)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

func (r *PgRepository) DeletePatient(ctx context.Context, rut string) error {
	_, err := r.pool.Exec(ctx, `
		DELETE FROM patients
		WHERE rut = $1
	`, rut)
	return err
}

func (r *PgRepository) GetEmployee(ctx context.Context, rut string) (*Employee, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT rut, first_name, last_name, email, phone, role, specialty_id, password_hash
		FROM employees
		WHERE rut = $1
	`, rut)
	return scanEmployee(row)
}

func (r *PgRepository) ListMedics(ctx context.Context) ([]Employee, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT rut, first_name, last_name, email, phone, role, specialty_id, password_hash
		FROM employees
		WHERE role = 'medic'
		ORDER BY last_name, first_name
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []Employee
	for rows.Next() {
		e, err := scanEmployee(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *e)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

func (r *PgRepository) CreateEmployee(ctx context.Context, e Employee) (*Employee, error) {
	row := r.pool.QueryRow(ctx, `
		INSERT INTO employees (rut, first_name, last_name, email, phone, role, specialty_id, password_hash)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING rut, first_name, last_name, email, phone, role, specialty_id, password_hash
	`, e.Rut, e.FirstName, e.LastName, e.Email, e.Phone, string(e.Role), e.SpecialtyID, e.PasswordHash)
	return scanEmployee(row)
}

func (r *PgRepository) UpdateEmployee(ctx context.Context, e Employee) (int64, error) {
	tag, err := r.pool.Exec(ctx, `
		UPDATE employees
		SET first_name = $2,
		    last_name = $3,
		    email = $4,
		    phone = $5,
		    specialty_id = $6,
		    password_hash = $7
		WHERE rut = $1
		  AND (first_name, last_name, email, phone, specialty_id, password_hash)
		      IS DISTINCT FROM ($2, $3, $4, $5, $6, $7)
	`, e.Rut, e.FirstName, e.LastName, e.Email, e.Phone, e.SpecialtyID, e.PasswordHash)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

func (r *PgRepository) SpecialtyExists(ctx context.Context, id int) (bool, error) {
	return r.rowExists(ctx, "specialties", id)
}

func (r *PgRepository) BloodTypeExists(ctx context.Context, id int) (bool, error) {
	return r.rowExists(ctx, "blood_types", id)
}

func (r *PgRepository) InsuranceTypeExists(ctx context.Context, id int) (bool, error) {
	return r.rowExists(ctx, "insurance_types", id)
}

func (r *PgRepository) TimeSlotExists(ctx context.Context, id int) (bool, error) {
	return r.rowExists(ctx, "time_slots", id)
}

func (r *PgRepository) rowExists(ctx context.Context, table string, id int) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx,
		fmt.Sprintf(`SELECT EXISTS (SELECT 1 FROM %s WHERE id = $1)`, table), id).Scan(&exists)
	if err != nil {
		return false, err
	}
	return exists, nil
}
