package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/medagenda/clinic-backend/internal/clinic"
)

func createMedicHandler(svc *clinic.Service, schemas *Schemas) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		body, ok := decodeBody(w, r)
		if !ok {
			return
		}
		values, fail := schemas.Medic.Validate(r.Context(), body)
		if fail != nil {
			writeServiceError(w, fail)
			return
		}

		e := clinic.Employee{
			Rut:         strField(values, "rut"),
			FirstName:   strField(values, "first_name"),
			LastName:    strField(values, "last_name"),
			Email:       strField(values, "email"),
			Phone:       intField(values, "phone"),
			SpecialtyID: intPtrField(values, "specialty_id"),
		}
		created, err := svc.CreateMedic(r.Context(), e, strField(values, "password"))
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, toMedicResponse(created))
	}
}

func getMedicHandler(svc *clinic.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		e, err := svc.GetMedic(r.Context(), chi.URLParam(r, "rut"))
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, toMedicResponse(e))
	}
}

func listMedicsHandler(svc *clinic.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		medics, err := svc.ListMedics(r.Context())
		if err != nil {
			writeServiceError(w, err)
			return
		}
		resp := make([]MedicResponse, 0, len(medics))
		for i := range medics {
			resp = append(resp, toMedicResponse(&medics[i]))
		}
		writeJSON(w, http.StatusOK, resp)
	}
}

func updateMedicHandler(svc *clinic.Service, schemas *Schemas) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		body, ok := decodeBody(w, r)
		if !ok {
			return
		}
		if _, present := body["rut"]; present {
			writeError(w, http.StatusBadRequest, "immutable_field", "rut cannot be changed")
			return
		}
		values, fail := schemas.Medic.ValidatePartial(r.Context(), body, nil)
		if fail != nil {
			writeServiceError(w, fail)
			return
		}

		patch := clinic.EmployeePatch{
			FirstName:   strPtrField(values, "first_name"),
			LastName:    strPtrField(values, "last_name"),
			Email:       strPtrField(values, "email"),
			Phone:       intPtrField(values, "phone"),
			SpecialtyID: intPtrField(values, "specialty_id"),
			Password:    strPtrField(values, "password"),
		}
		updated, err := svc.UpdateMedic(r.Context(), chi.URLParam(r, "rut"), patch)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, toMedicResponse(updated))
	}
}
