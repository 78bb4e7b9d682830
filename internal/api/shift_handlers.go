package api

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/hackgods/hospital-shift-booking/internal/account"
	"github.com/hackgods/hospital-shift-booking/internal/shift"
)

const dateLayout = "2006-01-02"

func createShiftHandler(svc ShiftService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, _ := ActorFromContext(r.Context())

		var req CreateShiftRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request_body", "could not parse JSON")
			return
		}

		doctorID, err := uuid.Parse(req.DoctorID)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_doctor_id", "doctorId must be a valid UUID")
			return
		}

		date, err := time.Parse(dateLayout, req.Date)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_date", "date must be formatted YYYY-MM-DD")
			return
		}

		ws, err := svc.CreateShift(r.Context(), actor, doctorID, date, req.TimeSlot)
		if err != nil {
			writeServiceError(w, err)
			return
		}

		writeJSON(w, http.StatusCreated, newWorkShiftResponse(ws))
	}
}

func listShiftsHandler(svc ShiftService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, _ := ActorFromContext(r.Context())
		q := r.URL.Query()

		var f shift.Filter

		// Doctors only ever see their own shifts.
		if actor.Role == account.RoleDoctor {
			f.DoctorID = &actor.ID
		} else if raw := q.Get("doctorId"); raw != "" {
			id, err := uuid.Parse(raw)
			if err != nil {
				writeError(w, http.StatusBadRequest, "invalid_doctor_id", "doctorId must be a valid UUID")
				return
			}
			f.DoctorID = &id
		}

		if raw := q.Get("available"); raw != "" {
			reserved := raw != "true"
			f.Reserved = &reserved
		}

		hasRange := false
		if raw := q.Get("startDate"); raw != "" {
			from, err := time.Parse(dateLayout, raw)
			if err != nil {
				writeError(w, http.StatusBadRequest, "invalid_date", "startDate must be formatted YYYY-MM-DD")
				return
			}
			f.From = &from
			hasRange = true
		}
		if raw := q.Get("endDate"); raw != "" {
			to, err := time.Parse(dateLayout, raw)
			if err != nil {
				writeError(w, http.StatusBadRequest, "invalid_date", "endDate must be formatted YYYY-MM-DD")
				return
			}
			f.To = &to
			hasRange = true
		}
		if !hasRange {
			// No range requested: show today's shifts.
			today := shift.DateOnly(time.Now())
			f.From = &today
			f.To = &today
		}

		shifts, err := svc.ListShifts(r.Context(), f)
		if err != nil {
			writeServiceError(w, err)
			return
		}

		resp := make([]WorkShiftResponse, 0, len(shifts))
		for i := range shifts {
			resp = append(resp, newWorkShiftResponse(&shifts[i]))
		}

		writeJSON(w, http.StatusOK, resp)
	}
}

func getShiftHandler(svc ShiftService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := uuid.Parse(chi.URLParam(r, "id"))
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_shift_id", "id must be a valid UUID")
			return
		}

		ws, err := svc.GetShift(r.Context(), id)
		if err != nil {
			writeServiceError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, newWorkShiftResponse(ws))
	}
}

func updateShiftHandler(svc ShiftService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, _ := ActorFromContext(r.Context())

		id, err := uuid.Parse(chi.URLParam(r, "id"))
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_shift_id", "id must be a valid UUID")
			return
		}

		var req UpdateShiftRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request_body", "could not parse JSON")
			return
		}

		var date *time.Time
		if req.Date != nil {
			parsed, err := time.Parse(dateLayout, *req.Date)
			if err != nil {
				writeError(w, http.StatusBadRequest, "invalid_date", "date must be formatted YYYY-MM-DD")
				return
			}
			date = &parsed
		}

		ws, err := svc.UpdateShiftTiming(r.Context(), actor, id, date, req.TimeSlot)
		if err != nil {
			writeServiceError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, newWorkShiftResponse(ws))
	}
}

func deleteShiftHandler(svc ShiftService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, _ := ActorFromContext(r.Context())

		id, err := uuid.Parse(chi.URLParam(r, "id"))
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_shift_id", "id must be a valid UUID")
			return
		}

		if err := svc.DeleteShift(r.Context(), actor, id); err != nil {
			writeServiceError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, MessageResponse{Message: "work shift deleted"})
	}
}
