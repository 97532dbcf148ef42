package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/medagenda/clinic-backend/internal/appointment"
	"github.com/medagenda/clinic-backend/internal/clinic"
	redisclient "github.com/medagenda/clinic-backend/internal/redis"
	"github.com/medagenda/clinic-backend/internal/schedule"
	"github.com/medagenda/clinic-backend/internal/validate"
)

type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if body != nil {
		_ = json.NewEncoder(w).Encode(body)
	}
}

func writeError(w http.ResponseWriter, status int, code, details string) {
	writeJSON(w, status, ErrorResponse{Error: code, Details: details})
}

// writeServiceError maps domain sentinels to the response contract. Handlers
// deal with request shape; every business failure funnels through here.
func writeServiceError(w http.ResponseWriter, err error) {
	var fail *validate.Fail
	if errors.As(err, &fail) {
		writeError(w, fail.Status, failCode(fail.Status), fail.Message)
		return
	}

	switch {
	case errors.Is(err, clinic.ErrNoChange),
		errors.Is(err, schedule.ErrNoChange),
		errors.Is(err, appointment.ErrNoChange):
		// 304 carries no body
		w.WriteHeader(http.StatusNotModified)

	case errors.Is(err, clinic.ErrBadCredentials):
		writeError(w, http.StatusUnauthorized, "bad_credentials", err.Error())
	case errors.Is(err, appointment.ErrNotOwner):
		writeError(w, http.StatusUnauthorized, "not_allowed", err.Error())

	case errors.Is(err, clinic.ErrPatientNotFound),
		errors.Is(err, appointment.ErrPatientNotFound):
		writeError(w, http.StatusNotFound, "patient_not_found", err.Error())
	case errors.Is(err, clinic.ErrEmployeeNotFound):
		writeError(w, http.StatusNotFound, "medic_not_found", err.Error())
	case errors.Is(err, schedule.ErrScheduleNotFound):
		writeError(w, http.StatusNotFound, "schedule_not_found", err.Error())
	case errors.Is(err, schedule.ErrSlotNotFound),
		errors.Is(err, appointment.ErrSlotNotFound):
		writeError(w, http.StatusNotFound, "slot_not_found", err.Error())
	case errors.Is(err, appointment.ErrAppointmentNotFound):
		writeError(w, http.StatusNotFound, "appointment_not_found", err.Error())

	case errors.Is(err, schedule.ErrInvalidTimeRange):
		writeError(w, http.StatusBadRequest, "invalid_time_range", err.Error())

	case errors.Is(err, clinic.ErrDuplicateRut):
		writeError(w, http.StatusConflict, "duplicate_rut", err.Error())
	case errors.Is(err, schedule.ErrSlotOverlap):
		writeError(w, http.StatusConflict, "slot_overlap", err.Error())
	case errors.Is(err, schedule.ErrSlotHasAppointments):
		writeError(w, http.StatusConflict, "slot_has_appointments", err.Error())
	case errors.Is(err, appointment.ErrSlotInactive):
		writeError(w, http.StatusConflict, "slot_inactive", err.Error())
	case errors.Is(err, appointment.ErrDayMismatch):
		writeError(w, http.StatusConflict, "day_mismatch", err.Error())
	case errors.Is(err, appointment.ErrSlotStarted):
		writeError(w, http.StatusConflict, "slot_started", err.Error())
	case errors.Is(err, appointment.ErrOverlap):
		writeError(w, http.StatusConflict, "appointment_overlap", err.Error())
	case errors.Is(err, appointment.ErrMedicReassignment):
		writeError(w, http.StatusConflict, "medic_reassignment", err.Error())
	case errors.Is(err, appointment.ErrConfirmationFinal):
		writeError(w, http.StatusConflict, "confirmation_final", err.Error())
	case errors.Is(err, appointment.ErrSlotDateTaken):
		writeError(w, http.StatusConflict, "slot_date_taken", err.Error())
	case errors.Is(err, appointment.ErrBookingInProgress),
		errors.Is(err, redisclient.ErrLockNotAcquired):
		writeError(w, http.StatusConflict, "booking_in_progress", "slot is currently being booked, please retry shortly")

	default:
		writeError(w, http.StatusInternalServerError, "internal_error", err.Error())
	}
}

func failCode(status int) string {
	switch status {
	case http.StatusBadRequest:
		return "validation_failed"
	case http.StatusNotFound:
		return "not_found"
	default:
		return "internal_error"
	}
}

func decodeBody(w http.ResponseWriter, r *http.Request) (map[string]any, bool) {
	var body map[string]any
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request_body", "could not parse JSON")
		return nil, false
	}
	return body, true
}
