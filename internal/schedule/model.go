package schedule

// Schedule is a medic's container of weekly availability slots. Exactly one
// per medic.
type Schedule struct {
	ID       int
	MedicRut string
}

// TimeSlot is a recurring weekly availability window. Times are HH:MM on a
// 24-hour clock; Day is one of mo..su. Inactive slots keep their history but
// neither collide with new slots nor accept bookings.
type TimeSlot struct {
	ID         int
	ScheduleID int
	Day        string
	Start      string
	End        string
	Active     bool
}

// CreateSlotRequest carries a validated slot creation body. A nil Active
// means the caller left it out and the slot starts active.
type CreateSlotRequest struct {
	Day    string
	Start  string
	End    string
	Active *bool
}

// SlotPatch carries the fields of a partial slot update; nil means untouched.
type SlotPatch struct {
	Day    *string
	Start  *string
	End    *string
	Active *bool
}
