package schedule

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type PgRepository struct {
	pool *pgxpool.Pool
}

func NewPgRepository(pool *pgxpool.Pool) *PgRepository {
	return &PgRepository{pool: pool}
}

func scanSlot(row pgx.Row) (*TimeSlot, error) {
	var s TimeSlot
	err := row.Scan(&s.ID, &s.ScheduleID, &s.Day, &s.Start, &s.End, &s.Active)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrSlotNotFound
		}
		return nil, err
	}
	return &s, nil
}

func (r *PgRepository) GetScheduleByMedic(ctx context.Context, medicRut string) (*Schedule, error) {
	var s Schedule
	err := r.pool.QueryRow(ctx, `
		SELECT id, medic_rut
		FROM schedules
		WHERE medic_rut = $1
	`, medicRut).Scan(&s.ID, &s.MedicRut)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrScheduleNotFound
		}
		return nil, err
	}
	return &s, nil
}

func (r *PgRepository) CreateSchedule(ctx context.Context, medicRut string) (*Schedule, error) {
	var s Schedule
	err := r.pool.QueryRow(ctx, `
		INSERT INTO schedules (medic_rut)
		VALUES ($1)
		RETURNING id, medic_rut
	`, medicRut).Scan(&s.ID, &s.MedicRut)
	if err != nil {
		return nil, fmt.Errorf("insert schedule: %w", err)
	}
	return &s, nil
}

func (r *PgRepository) GetSlot(ctx context.Context, id int) (*TimeSlot, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT id, schedule_id, day, start_time, end_time, active
		FROM time_slots
		WHERE id = $1
	`, id)
	return scanSlot(row)
}

func (r *PgRepository) ListSlots(ctx context.Context, scheduleID int) ([]TimeSlot, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, schedule_id, day, start_time, end_time, active
		FROM time_slots
		WHERE schedule_id = $1
		ORDER BY day, start_time
	`, scheduleID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectSlots(rows)
}

func (r *PgRepository) ListActiveSlotsOnDay(ctx context.Context, scheduleID int, day string) ([]TimeSlot, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, schedule_id, day, start_time, end_time, active
		FROM time_slots
		WHERE schedule_id = $1
		  AND day = $2
		  AND active
	`, scheduleID, day)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectSlots(rows)
}

func collectSlots(rows pgx.Rows) ([]TimeSlot, error) {
	var result []TimeSlot
	for rows.Next() {
		s, err := scanSlot(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *s)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

func (r *PgRepository) CreateSlot(ctx context.Context, slot TimeSlot) (*TimeSlot, error) {
	row := r.pool.QueryRow(ctx, `
		INSERT INTO time_slots (schedule_id, day, start_time, end_time, active)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, schedule_id, day, start_time, end_time, active
	`, slot.ScheduleID, slot.Day, slot.Start, slot.End, slot.Active)
	return scanSlot(row)
}

func (r *PgRepository) UpdateSlot(ctx context.Context, slot TimeSlot) (int64, error) {
	tag, err := r.pool.Exec(ctx, `
		UPDATE time_slots
		SET day = $2,
		    start_time = $3,
		    end_time = $4,
		    active = $5
		WHERE id = $1
		  AND (day, start_time, end_time, active) IS DISTINCT FROM ($2, $3, $4, $5)
	`, slot.ID, slot.Day, slot.Start, slot.End, slot.Active)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

func (r *PgRepository) DeleteSlot(ctx context.Context, id int) error {
	_, err := r.pool.Exec(ctx, `
		DELETE FROM time_slots
		WHERE id = $1
	`, id)
	return err
}

func (r *PgRepository) CountAppointmentsForSlot(ctx context.Context, slotID int) (int, error) {
	var count int
	err := r.pool.QueryRow(ctx, `
		SELECT count(*)
		FROM appointments
		WHERE time_slot_id = $1
	`, slotID).Scan(&count)
	if err != nil {
		return 0, err
	}
	return count, nil
}
