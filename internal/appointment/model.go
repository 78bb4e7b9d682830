package appointment

import (
	"time"

	"github.com/google/uuid"
)

type Status string

const (
	StatusPending  Status = "Pending"
	StatusAccepted Status = "Accepted"
	StatusRejected Status = "Rejected"
	StatusDone     Status = "Done"
)

// ParseStatus maps a raw status string onto a known Status.
func ParseStatus(s string) (Status, bool) {
	switch Status(s) {
	case StatusPending, StatusAccepted, StatusRejected, StatusDone:
		return Status(s), true
	}
	return "", false
}

// Terminal reports whether no further transition leaves the status.
func (s Status) Terminal() bool {
	return s == StatusRejected || s == StatusDone
}

// transitions is the whole appointment state machine. Pending additionally
// admits patient cancellation, which is a deletion rather than a status.
var transitions = map[Status][]Status{
	StatusPending:  {StatusAccepted, StatusRejected},
	StatusAccepted: {StatusDone},
}

// CanTransition reports whether from -> to is a legal status change.
func CanTransition(from, to Status) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// Appointment is a patient's request to occupy a work shift.
type Appointment struct {
	ID          uuid.UUID
	WorkShiftID uuid.UUID
	PatientID   uuid.UUID
	Status      Status
	RequestDate time.Time
	Notes       *string
	UpdatedAt   time.Time
}

// Filter narrows List results. Nil fields match everything. DoctorID filters on
// the doctor owning the referenced work shift.
type Filter struct {
	PatientID *uuid.UUID
	DoctorID  *uuid.UUID
	From      *time.Time
	To        *time.Time
}
