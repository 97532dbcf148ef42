package api

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/medagenda/clinic-backend/internal/appointment"
	"github.com/medagenda/clinic-backend/internal/auth"
)

func bookAppointmentHandler(svc *appointment.Service, schemas *Schemas) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, ok := auth.IdentityFrom(r.Context())
		if !ok {
			writeError(w, http.StatusUnauthorized, "unauthenticated", "no session")
			return
		}
		body, ok := decodeBody(w, r)
		if !ok {
			return
		}
		// patients book for themselves; the field may be left off
		if _, present := body["patient_rut"]; !present && actor.Role == auth.RolePatient {
			body["patient_rut"] = actor.SubjectID
		}
		values, fail := schemas.Appointment.Validate(r.Context(), body)
		if fail != nil {
			writeServiceError(w, fail)
			return
		}

		req := appointment.BookRequest{
			PatientRut:  strField(values, "patient_rut"),
			TimeSlotID:  intField(values, "time_slot_id"),
			Date:        strField(values, "date"),
			Description: strField(values, "description"),
		}
		created, err := svc.Book(r.Context(), actor, req)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, toAppointmentResponse(created))
	}
}

func getAppointmentHandler(svc *appointment.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, id, ok := appointmentRequest(w, r)
		if !ok {
			return
		}
		appt, err := svc.Get(r.Context(), actor, id)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, toAppointmentResponse(appt))
	}
}

func updateAppointmentHandler(svc *appointment.Service, schemas *Schemas) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, id, ok := appointmentRequest(w, r)
		if !ok {
			return
		}
		body, ok := decodeBody(w, r)
		if !ok {
			return
		}
		// an appointment never changes hands
		if _, present := body["patient_rut"]; present {
			writeError(w, http.StatusBadRequest, "immutable_field", "patient_rut cannot be changed")
			return
		}
		values, fail := schemas.Appointment.ValidatePartial(r.Context(), body, nil)
		if fail != nil {
			writeServiceError(w, fail)
			return
		}

		patch := appointment.Patch{
			TimeSlotID:  intPtrField(values, "time_slot_id"),
			Date:        strPtrField(values, "date"),
			Description: strPtrField(values, "description"),
			Confirmed:   boolPtrField(values, "confirmed"),
		}
		updated, err := svc.Update(r.Context(), actor, id, patch)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, toAppointmentResponse(updated))
	}
}

func cancelAppointmentHandler(svc *appointment.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, id, ok := appointmentRequest(w, r)
		if !ok {
			return
		}
		if err := svc.Cancel(r.Context(), actor, id); err != nil {
			writeServiceError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func listPatientAppointmentsHandler(svc *appointment.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, ok := auth.IdentityFrom(r.Context())
		if !ok {
			writeError(w, http.StatusUnauthorized, "unauthenticated", "no session")
			return
		}
		appts, err := svc.ListForPatient(r.Context(), actor, chi.URLParam(r, "rut"))
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, toAppointmentList(appts))
	}
}

func listMedicAppointmentsHandler(svc *appointment.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, ok := auth.IdentityFrom(r.Context())
		if !ok {
			writeError(w, http.StatusUnauthorized, "unauthenticated", "no session")
			return
		}
		appts, err := svc.ListForMedic(r.Context(), actor, chi.URLParam(r, "rut"))
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, toAppointmentList(appts))
	}
}

func toAppointmentList(appts []appointment.Appointment) []AppointmentResponse {
	resp := make([]AppointmentResponse, 0, len(appts))
	for i := range appts {
		resp = append(resp, toAppointmentResponse(&appts[i]))
	}
	return resp
}

func appointmentRequest(w http.ResponseWriter, r *http.Request) (auth.Identity, int, bool) {
	actor, ok := auth.IdentityFrom(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthenticated", "no session")
		return auth.Identity{}, 0, false
	}
	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil || id <= 0 {
		writeError(w, http.StatusBadRequest, "invalid_appointment_id", "id must be a positive integer")
		return auth.Identity{}, 0, false
	}
	return actor, id, true
}
