package appointment

import "errors"

var (
	ErrAppointmentNotFound = errors.New("appointment not found")
	ErrSlotNotFound        = errors.New("time slot not found")
	ErrPatientNotFound     = errors.New("patient not found")

	ErrSlotInactive      = errors.New("time slot is not active")
	ErrDayMismatch       = errors.New("appointment date and slot day do not match")
	ErrSlotStarted       = errors.New("time slot has already started")
	ErrOverlap           = errors.New("appointment overlaps with another")
	ErrMedicReassignment = errors.New("appointment cannot move to a different medic")
	ErrConfirmationFinal = errors.New("confirmation can only move from false to true once")
	ErrSlotDateTaken     = errors.New("slot is already booked for that date")
	ErrBookingInProgress = errors.New("slot is currently being booked, please retry")

	ErrNotOwner = errors.New("subject may not act on this appointment")

	ErrNoChange = errors.New("update changes nothing")
)
