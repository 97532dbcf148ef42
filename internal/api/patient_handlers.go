package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/medagenda/clinic-backend/internal/clinic"
)

func registerPatientHandler(svc *clinic.Service, schemas *Schemas) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		body, ok := decodeBody(w, r)
		if !ok {
			return
		}
		values, fail := schemas.Patient.Validate(r.Context(), body)
		if fail != nil {
			writeServiceError(w, fail)
			return
		}

		p := clinic.Patient{
			Rut:             strField(values, "rut"),
			FirstName:       strField(values, "first_name"),
			LastName:        strField(values, "last_name"),
			Email:           strField(values, "email"),
			Phone:           intField(values, "phone"),
			BirthDate:       strField(values, "birth_date"),
			BloodTypeID:     intField(values, "blood_type_id"),
			InsuranceTypeID: intField(values, "insurance_type_id"),
			Rhesus:          strField(values, "rhesus"),
		}
		created, err := svc.RegisterPatient(r.Context(), p, strField(values, "password"))
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, toPatientResponse(created))
	}
}

func getPatientHandler(svc *clinic.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		p, err := svc.GetPatient(r.Context(), chi.URLParam(r, "rut"))
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, toPatientResponse(p))
	}
}

func updatePatientHandler(svc *clinic.Service, schemas *Schemas) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		body, ok := decodeBody(w, r)
		if !ok {
			return
		}
		// rut is the identity, it never changes
		if _, present := body["rut"]; present {
			writeError(w, http.StatusBadRequest, "immutable_field", "rut cannot be changed")
			return
		}
		values, fail := schemas.Patient.ValidatePartial(r.Context(), body, nil)
		if fail != nil {
			writeServiceError(w, fail)
			return
		}

		patch := clinic.PatientPatch{
			FirstName:       strPtrField(values, "first_name"),
			LastName:        strPtrField(values, "last_name"),
			Email:           strPtrField(values, "email"),
			Phone:           intPtrField(values, "phone"),
			BirthDate:       strPtrField(values, "birth_date"),
			BloodTypeID:     intPtrField(values, "blood_type_id"),
			InsuranceTypeID: intPtrField(values, "insurance_type_id"),
			Rhesus:          strPtrField(values, "rhesus"),
			Password:        strPtrField(values, "password"),
		}
		updated, err := svc.UpdatePatient(r.Context(), chi.URLParam(r, "rut"), patch)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, toPatientResponse(updated))
	}
}

func deletePatientHandler(svc *clinic.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := svc.DeletePatient(r.Context(), chi.URLParam(r, "rut")); err != nil {
			writeServiceError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}
