package appointment

import "context"

// Repository contains all DB interactions needed by the appointment service.
type Repository interface {
	GetAppointment(ctx context.Context, id int) (*Appointment, error)
	ListByPatient(ctx context.Context, patientRut string) ([]Appointment, error)
	ListByMedic(ctx context.Context, medicRut string) ([]Appointment, error)

	// GetSlotInfo resolves a slot together with its medic via the slot's
	// schedule.
	GetSlotInfo(ctx context.Context, slotID int) (*SlotInfo, error)

	// ListBookedOnDate returns every appointment on the date that involves
	// either the patient or the medic, with its slot's time range, excluding
	// the appointment being updated (0 for creations).
	ListBookedOnDate(ctx context.Context, date, patientRut, medicRut string, excludeID int) ([]Booked, error)

	// CreateAppointment inserts the row; the (time_slot_id, date) uniqueness
	// constraint returns ErrSlotDateTaken when a concurrent writer won.
	CreateAppointment(ctx context.Context, a Appointment) (*Appointment, error)
	// UpdateAppointment persists every mutable field and reports the affected
	// row count so a no-op can be told apart from a missing row.
	UpdateAppointment(ctx context.Context, a Appointment) (int64, error)
	DeleteAppointment(ctx context.Context, id int) error

	GetPatientContact(ctx context.Context, rut string) (email, name string, err error)

	// Reminder worker
	ListConfirmedOnDate(ctx context.Context, date string) ([]Reminder, error)
}
