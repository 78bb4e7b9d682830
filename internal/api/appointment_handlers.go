package api

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/hackgods/hospital-shift-booking/internal/appointment"
)

func createAppointmentHandler(svc BookingService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, _ := ActorFromContext(r.Context())

		var req CreateAppointmentRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request_body", "could not parse JSON")
			return
		}

		shiftID, err := uuid.Parse(req.WorkShiftID)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_shift_id", "workShiftId must be a valid UUID")
			return
		}

		appt, err := svc.Book(r.Context(), shiftID, req.Notes, actor)
		if err != nil {
			writeServiceError(w, err)
			return
		}

		writeJSON(w, http.StatusCreated, newAppointmentResponse(appt))
	}
}

func listAppointmentsHandler(svc BookingService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, _ := ActorFromContext(r.Context())

		var f appointment.Filter
		if raw := r.URL.Query().Get("date"); raw != "" {
			day, err := time.Parse(dateLayout, raw)
			if err != nil {
				writeError(w, http.StatusBadRequest, "invalid_date", "date must be formatted YYYY-MM-DD")
				return
			}
			from := day
			to := day.Add(24*time.Hour - time.Nanosecond)
			f.From = &from
			f.To = &to
		}

		appts, err := svc.ListForActor(r.Context(), actor, f)
		if err != nil {
			writeServiceError(w, err)
			return
		}

		resp := make([]AppointmentResponse, 0, len(appts))
		for i := range appts {
			resp = append(resp, newAppointmentResponse(&appts[i]))
		}

		writeJSON(w, http.StatusOK, resp)
	}
}

func getAppointmentHandler(svc BookingService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, _ := ActorFromContext(r.Context())

		id, err := uuid.Parse(chi.URLParam(r, "id"))
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_appointment_id", "id must be a valid UUID")
			return
		}

		appt, err := svc.GetAppointment(r.Context(), id, actor)
		if err != nil {
			writeServiceError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, newAppointmentResponse(appt))
	}
}

func updateAppointmentStatusHandler(svc BookingService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, _ := ActorFromContext(r.Context())

		id, err := uuid.Parse(chi.URLParam(r, "id"))
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_appointment_id", "id must be a valid UUID")
			return
		}

		var req UpdateAppointmentStatusRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request_body", "could not parse JSON")
			return
		}

		status, ok := appointment.ParseStatus(req.Status)
		if !ok {
			writeError(w, http.StatusBadRequest, "invalid_status", "status must be one of: Accepted, Rejected, Done")
			return
		}

		appt, err := svc.AdvanceStatus(r.Context(), id, status, actor)
		if err != nil {
			writeServiceError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, newAppointmentResponse(appt))
	}
}

func deleteAppointmentHandler(svc BookingService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, _ := ActorFromContext(r.Context())

		id, err := uuid.Parse(chi.URLParam(r, "id"))
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_appointment_id", "id must be a valid UUID")
			return
		}

		if err := svc.Cancel(r.Context(), id, actor); err != nil {
			writeServiceError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, MessageResponse{Message: "appointment cancelled"})
	}
}
