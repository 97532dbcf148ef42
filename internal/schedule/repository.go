package schedule

import "context"

// Repository contains all DB interactions needed by the scheduling service.
type Repository interface {
	GetScheduleByMedic(ctx context.Context, medicRut string) (*Schedule, error)
	CreateSchedule(ctx context.Context, medicRut string) (*Schedule, error)

	GetSlot(ctx context.Context, id int) (*TimeSlot, error)
	ListSlots(ctx context.Context, scheduleID int) ([]TimeSlot, error)
	ListActiveSlotsOnDay(ctx context.Context, scheduleID int, day string) ([]TimeSlot, error)

	CreateSlot(ctx context.Context, slot TimeSlot) (*TimeSlot, error)
	// UpdateSlot persists every mutable field of the slot and reports the
	// affected row count so a no-op can be told apart from a missing row.
	UpdateSlot(ctx context.Context, slot TimeSlot) (int64, error)
	DeleteSlot(ctx context.Context, id int) error

	CountAppointmentsForSlot(ctx context.Context, slotID int) (int, error)
}
