package api

import (
	"errors"
	"net/http"

	"github.com/hackgods/hospital-shift-booking/internal/account"
	"github.com/hackgods/hospital-shift-booking/internal/appointment"
	"github.com/hackgods/hospital-shift-booking/internal/booking"
	redisclient "github.com/hackgods/hospital-shift-booking/internal/redis"
	"github.com/hackgods/hospital-shift-booking/internal/shift"
)

// writeServiceError maps core errors onto the stable status/code contract the
// front-ends rely on: 404 not-found, 403 forbidden, 400 conflict/invalid.
func writeServiceError(w http.ResponseWriter, err error) {
	switch {
	// Not found.
	case errors.Is(err, shift.ErrShiftNotFound):
		writeError(w, http.StatusNotFound, "shift_not_found", err.Error())
	case errors.Is(err, shift.ErrDoctorNotFound):
		writeError(w, http.StatusNotFound, "doctor_not_found", err.Error())
	case errors.Is(err, appointment.ErrAppointmentNotFound):
		writeError(w, http.StatusNotFound, "appointment_not_found", err.Error())
	case errors.Is(err, account.ErrAccountNotFound):
		writeError(w, http.StatusNotFound, "account_not_found", err.Error())

	// Forbidden.
	case errors.Is(err, shift.ErrNotAdmin):
		writeError(w, http.StatusForbidden, "admin_only", err.Error())
	case errors.Is(err, shift.ErrEditWindowClosed):
		writeError(w, http.StatusForbidden, "edit_window_closed", err.Error())
	case errors.Is(err, booking.ErrNotPatient):
		writeError(w, http.StatusForbidden, "patient_only", err.Error())
	case errors.Is(err, booking.ErrNotShiftDoctor):
		writeError(w, http.StatusForbidden, "wrong_doctor", err.Error())
	case errors.Is(err, booking.ErrNotAppointmentPatient):
		writeError(w, http.StatusForbidden, "wrong_patient", err.Error())
	case errors.Is(err, booking.ErrNotAuthorized):
		writeError(w, http.StatusForbidden, "forbidden", err.Error())

	// Conflicts and invalid state/input.
	case errors.Is(err, shift.ErrSlotTaken):
		writeError(w, http.StatusBadRequest, "slot_taken", err.Error())
	case errors.Is(err, shift.ErrShiftReserved):
		writeError(w, http.StatusBadRequest, "shift_reserved", err.Error())
	case errors.Is(err, booking.ErrInvalidTransition):
		writeError(w, http.StatusBadRequest, "invalid_status_transition", err.Error())
	case errors.Is(err, booking.ErrNotPending):
		writeError(w, http.StatusBadRequest, "appointment_not_pending", err.Error())
	case errors.Is(err, shift.ErrInvalidTimeSlot):
		writeError(w, http.StatusBadRequest, "invalid_time_slot", err.Error())
	case errors.Is(err, shift.ErrInvalidDate):
		writeError(w, http.StatusBadRequest, "invalid_date", err.Error())
	case errors.Is(err, booking.ErrShiftBeingBooked),
		errors.Is(err, redisclient.ErrLockNotAcquired):
		writeError(w, http.StatusBadRequest, "shift_being_booked", "shift is currently being booked, please retry shortly")

	default:
		writeError(w, http.StatusInternalServerError, "internal_error", err.Error())
	}
}
