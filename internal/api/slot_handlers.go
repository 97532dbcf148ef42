package api

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/medagenda/clinic-backend/internal/schedule"
)

func listSlotsHandler(svc *schedule.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		slots, err := svc.ListSlots(r.Context(), chi.URLParam(r, "rut"))
		if err != nil {
			writeServiceError(w, err)
			return
		}
		resp := make([]SlotResponse, 0, len(slots))
		for i := range slots {
			resp = append(resp, toSlotResponse(&slots[i]))
		}
		writeJSON(w, http.StatusOK, resp)
	}
}

func createSlotHandler(svc *schedule.Service, schemas *Schemas) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		body, ok := decodeBody(w, r)
		if !ok {
			return
		}
		values, fail := schemas.Slot.Validate(r.Context(), body)
		if fail != nil {
			writeServiceError(w, fail)
			return
		}

		req := schedule.CreateSlotRequest{
			Day:    strField(values, "day"),
			Start:  strField(values, "start"),
			End:    strField(values, "end"),
			Active: boolPtrField(values, "active"),
		}
		created, err := svc.CreateSlot(r.Context(), chi.URLParam(r, "rut"), req)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, toSlotResponse(created))
	}
}

func updateSlotHandler(svc *schedule.Service, schemas *Schemas) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		slotID, ok := slotIDParam(w, r)
		if !ok {
			return
		}
		body, ok := decodeBody(w, r)
		if !ok {
			return
		}
		values, fail := schemas.Slot.ValidatePartial(r.Context(), body, nil)
		if fail != nil {
			writeServiceError(w, fail)
			return
		}

		patch := schedule.SlotPatch{
			Day:    strPtrField(values, "day"),
			Start:  strPtrField(values, "start"),
			End:    strPtrField(values, "end"),
			Active: boolPtrField(values, "active"),
		}
		updated, err := svc.UpdateSlot(r.Context(), chi.URLParam(r, "rut"), slotID, patch)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, toSlotResponse(updated))
	}
}

func deleteSlotHandler(svc *schedule.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		slotID, ok := slotIDParam(w, r)
		if !ok {
			return
		}
		if err := svc.DeleteSlot(r.Context(), chi.URLParam(r, "rut"), slotID); err != nil {
			writeServiceError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func slotIDParam(w http.ResponseWriter, r *http.Request) (int, bool) {
	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil || id <= 0 {
		writeError(w, http.StatusBadRequest, "invalid_slot_id", "id must be a positive integer")
		return 0, false
	}
	return id, true
}
