package api

import (
	"net/http"

	"github.com/medagenda/clinic-backend/internal/auth"
	"github.com/medagenda/clinic-backend/internal/clinic"
)

func loginHandler(svc *clinic.Service, schemas *Schemas) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		body, ok := decodeBody(w, r)
		if !ok {
			return
		}
		creds, fail := schemas.Login.Validate(r.Context(), body)
		if fail != nil {
			writeServiceError(w, fail)
			return
		}

		token, role, err := svc.Login(r.Context(), strField(creds, "rut"), strField(creds, "password"))
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, TokenResponse{Token: token, Role: string(role)})
	}
}

func logoutHandler(svc *clinic.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := auth.IdentityFrom(r.Context())
		if !ok {
			writeError(w, http.StatusUnauthorized, "unauthenticated", "no session")
			return
		}
		if err := svc.Logout(r.Context(), id.Token); err != nil {
			writeServiceError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}
