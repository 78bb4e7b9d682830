package api

import (
	"time"

	"github.com/google/uuid"

	"github.com/hackgods/hospital-shift-booking/internal/appointment"
	"github.com/hackgods/hospital-shift-booking/internal/shift"
)

// JSON field names follow the original front-end contract (camelCase).

type CreateShiftRequest struct {
	DoctorID string `json:"doctorId"`
	Date     string `json:"date"`
	TimeSlot string `json:"timeSlot"`
}

type UpdateShiftRequest struct {
	Date     *string `json:"date,omitempty"`
	TimeSlot *string `json:"timeSlot,omitempty"`
}

type WorkShiftResponse struct {
	ID            uuid.UUID  `json:"id"`
	DoctorID      uuid.UUID  `json:"doctorId"`
	Date          string     `json:"date"`
	TimeSlot      string     `json:"timeSlot"`
	IsReserved    bool       `json:"isReserved"`
	AppointmentID *uuid.UUID `json:"appointmentId,omitempty"`
	CreatedAt     time.Time  `json:"createdAt"`
}

func newWorkShiftResponse(ws *shift.WorkShift) WorkShiftResponse {
	return WorkShiftResponse{
		ID:            ws.ID,
		DoctorID:      ws.DoctorID,
		Date:          ws.Date.Format("2006-01-02"),
		TimeSlot:      ws.TimeSlot,
		IsReserved:    ws.IsReserved,
		AppointmentID: ws.AppointmentID,
		CreatedAt:     ws.CreatedAt,
	}
}

type CreateAppointmentRequest struct {
	WorkShiftID string  `json:"workShiftId"`
	Notes       *string `json:"notes,omitempty"`
}

type UpdateAppointmentStatusRequest struct {
	Status string `json:"status"`
}

type AppointmentResponse struct {
	ID          uuid.UUID `json:"id"`
	WorkShiftID uuid.UUID `json:"workShiftId"`
	PatientID   uuid.UUID `json:"patientId"`
	Status      string    `json:"status"`
	RequestDate time.Time `json:"requestDate"`
	Notes       *string   `json:"notes,omitempty"`
}

func newAppointmentResponse(a *appointment.Appointment) AppointmentResponse {
	return AppointmentResponse{
		ID:          a.ID,
		WorkShiftID: a.WorkShiftID,
		PatientID:   a.PatientID,
		Status:      string(a.Status),
		RequestDate: a.RequestDate,
		Notes:       a.Notes,
	}
}

type MessageResponse struct {
	Message string `json:"message"`
}

type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}
