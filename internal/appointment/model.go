package appointment

// Appointment books a patient into a medic's recurring slot on a concrete
// date. Confirmed starts false and only ever moves to true.
type Appointment struct {
	ID          int
	PatientRut  string
	TimeSlotID  int
	Date        string // YYYY-MM-DD
	Description string
	Confirmed   bool
}

// SlotInfo is a time slot joined with its owning medic, resolved through the
// slot's schedule.
type SlotInfo struct {
	ID       int
	Day      string
	Start    string
	End      string
	Active   bool
	MedicRut string
}

// Booked is an existing appointment's occupancy on a date, used by the
// conflict checker.
type Booked struct {
	AppointmentID int
	PatientRut    string
	MedicRut      string
	Start         string
	End           string
}

// BookRequest carries a validated booking body.
type BookRequest struct {
	PatientRut  string
	TimeSlotID  int
	Date        string
	Description string
}

// Patch carries the fields of a partial appointment update; nil means
// untouched.
type Patch struct {
	TimeSlotID  *int
	Date        *string
	Description *string
	Confirmed   *bool
}

// Reminder is one row of tomorrow's confirmed appointments, hydrated for the
// reminder worker.
type Reminder struct {
	AppointmentID int
	PatientEmail  string
	PatientName   string
	MedicName     string
	Date          string
	Start         string
}
