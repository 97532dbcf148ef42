package schedule

import "errors"

var (
	ErrScheduleNotFound    = errors.New("schedule not found")
	ErrSlotNotFound        = errors.New("time slot not found")
	ErrInvalidTimeRange    = errors.New("slot start must come before its end")
	ErrSlotOverlap         = errors.New("time slot overlaps with another on the same day")
	ErrSlotHasAppointments = errors.New("time slot has appointments attached")
	ErrNoChange            = errors.New("update changes nothing")
)
