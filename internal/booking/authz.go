package booking

import (
	"github.com/google/uuid"

	"github.com/hackgods/hospital-shift-booking/internal/account"
	"github.com/hackgods/hospital-shift-booking/internal/appointment"
	"github.com/hackgods/hospital-shift-booking/internal/shift"
)

// Authorization predicates for every coordinator operation, kept in one place
// so the state machine can be tested without them and vice versa.

// canBook allows a patient to book for themselves.
func canBook(actor account.Actor, patientID uuid.UUID) error {
	if actor.Role != account.RolePatient || actor.ID != patientID {
		return ErrNotPatient
	}
	return nil
}

// canAdvance allows only the doctor who owns the referenced shift.
func canAdvance(actor account.Actor, ws *shift.WorkShift) error {
	if actor.Role != account.RoleDoctor || actor.ID != ws.DoctorID {
		return ErrNotShiftDoctor
	}
	return nil
}

// canCancel allows only the patient who created the appointment.
func canCancel(actor account.Actor, a *appointment.Appointment) error {
	if actor.ID != a.PatientID {
		return ErrNotAppointmentPatient
	}
	return nil
}

// canView allows the owning patient, the shift's doctor, or an admin.
func canView(actor account.Actor, a *appointment.Appointment, ws *shift.WorkShift) error {
	if actor.Role == account.RoleAdmin {
		return nil
	}
	if actor.ID == a.PatientID {
		return nil
	}
	if ws != nil && actor.ID == ws.DoctorID {
		return nil
	}
	return ErrNotAuthorized
}
