package appointment

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

type PgRepository struct {
	pool *pgxpool.Pool
}

func NewPgRepository(pool *pgxpool.Pool) *PgRepository {
	return &PgRepository{pool: pool}
}

func scanAppointment(row pgx.Row) (*Appointment, error) {
	var a Appointment
	err := row.Scan(&a.ID, &a.PatientRut, &a.TimeSlotID, &a.Date, &a.Description, &a.Confirmed)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrAppointmentNotFound
		}
		return nil, err
	}
	return &a, nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

func (r *PgRepository) GetAppointment(ctx context.Context, id int) (*Appointment, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT id, patient_rut, time_slot_id, date, description, confirmed
		FROM appointments
		WHERE id = $1
	`, id)
	return scanAppointment(row)
}

func (r *PgRepository) ListByPatient(ctx context.Context, patientRut string) ([]Appointment, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, patient_rut, time_slot_id, date, description, confirmed
		FROM appointments
		WHERE patient_rut = $1
		ORDER BY date
	`, patientRut)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectAppointments(rows)
}

func (r *PgRepository) ListByMedic(ctx context.Context, medicRut string) ([]Appointment, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT a.id, a.patient_rut, a.time_slot_id, a.date, a.description, a.confirmed
		FROM appointments a
		JOIN time_slots t ON t.id = a.time_slot_id
		JOIN schedules s ON s.id = t.schedule_id
		WHERE s.medic_rut = $1
		ORDER BY a.date
	`, medicRut)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectAppointments(rows)
}

func collectAppointments(rows pgx.Rows) ([]Appointment, error) {
	var result []Appointment
	for rows.Next() {
		a, err := scanAppointment(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *a)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

func (r *PgRepository) GetSlotInfo(ctx context.Context, slotID int) (*SlotInfo, error) {
	var s SlotInfo
	err := r.pool.QueryRow(ctx, `
		SELECT t.id, t.day, t.start_time, t.end_time, t.active, s.medic_rut
		FROM time_slots t
		JOIN schedules s ON s.id = t.schedule_id
		WHERE t.id = $1
	`, slotID).Scan(&s.ID, &s.Day, &s.Start, &s.End, &s.Active, &s.MedicRut)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrSlotNotFound
		}
		return nil, err
	}
	return &s, nil
}

func (r *PgRepository) ListBookedOnDate(ctx context.Context, date, patientRut, medicRut string, excludeID int) ([]Booked, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT a.id, a.patient_rut, s.medic_rut, t.start_time, t.end_time
		FROM appointments a
		JOIN time_slots t ON t.id = a.time_slot_id
		JOIN schedules s ON s.id = t.schedule_id
		WHERE a.date = $1
		  AND a.id <> $4
		  AND (a.patient_rut = $2 OR s.medic_rut = $3)
	`, date, patientRut, medicRut, excludeID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []Booked
	for rows.Next() {
		var b Booked
		if err := rows.Scan(&b.AppointmentID, &b.PatientRut, &b.MedicRut, &b.Start, &b.End); err != nil {
			return nil, err
		}
		result = append(result, b)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

func (r *PgRepository) CreateAppointment(ctx context.Context, a Appointment) (*Appointment, error) {
	row := r.pool.QueryRow(ctx, `
		INSERT INTO appointments (patient_rut, time_slot_id, date, description, confirmed)
		VALUES ($1, $2, $3, $4, false)
		RETURNING id, patient_rut, time_slot_id, date, description, confirmed
	`, a.PatientRut, a.TimeSlotID, a.Date, a.Description)

	created, err := scanAppointment(row)
	if err != nil {
		if isUniqueViolation(err) {
			// A concurrent writer committed first; the constraint is the
			// authoritative tie-breaker.
			return nil, ErrSlotDateTaken
		}
		return nil, fmt.Errorf("insert appointment: %w", err)
	}
	return created, nil
}

func (r *PgRepository) UpdateAppointment(ctx context.Context, a Appointment) (int64, error) {
	tag, err := r.pool.Exec(ctx, `
		UPDATE appointments
		SET patient_rut = $2,
		    time_slot_id = $3,
		    date = $4,
		    description = $5,
		    confirmed = $6
		WHERE id = $1
		  AND (patient_rut, time_slot_id, date, description, confirmed)
		      IS DISTINCT FROM ($2, $3, $4, $5, $6)
	`, a.ID, a.PatientRut, a.TimeSlotID, a.Date, a.Description, a.Confirmed)
	if err != nil {
		if isUniqueViolation(err) {
			return 0, ErrSlotDateTaken
		}
		return 0, err
	}
	return tag.RowsAffected(), nil
}

func (r *PgRepository) DeleteAppointment(ctx context.Context, id int) error {
	_, err := r.pool.Exec(ctx, `
		DELETE FROM appointments
		WHERE id = $1
	`, id)
	return err
}

func (r *PgRepository) GetPatientContact(ctx context.Context, rut string) (string, string, error) {
	var email, name string
	err := r.pool.QueryRow(ctx, `
		SELECT email, first_name || ' ' || last_name
		FROM patients
		WHERE rut = $1
	`, rut).Scan(&email, &name)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", "", ErrPatientNotFound
		}
		return "", "", err
	}
	return email, name, nil
}

func (r *PgRepository) ListConfirmedOnDate(ctx context.Context, date string) ([]Reminder, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT a.id,
		       p.email,
		       p.first_name || ' ' || p.last_name,
		       e.first_name || ' ' || e.last_name,
		       a.date,
		       t.start_time
		FROM appointments a
		JOIN patients p ON p.rut = a.patient_rut
		JOIN time_slots t ON t.id = a.time_slot_id
		JOIN schedules s ON s.id = t.schedule_id
		JOIN employees e ON e.rut = s.medic_rut
		WHERE a.date = $1
		  AND a.confirmed
		ORDER BY t.start_time
	`, date)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []Reminder
	for rows.Next() {
		var rem Reminder
		if err := rows.Scan(&rem.AppointmentID, &rem.PatientEmail, &rem.PatientName, &rem.MedicName, &rem.Date, &rem.Start); err != nil {
			return nil, err
		}
		result = append(result, rem)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}
