package appointment

import (
	"context"
	"errors"

	"github.com/google/uuid"
)

var ErrAppointmentNotFound = errors.New("appointment not found")

// Repository contains all DB interactions on appointments. These are dumb
// reads and writes; transition legality and authorization live in the
// reservation coordinator.
type Repository interface {
	Create(ctx context.Context, a *Appointment) error
	GetByID(ctx context.Context, id uuid.UUID) (*Appointment, error)
	List(ctx context.Context, f Filter) ([]Appointment, error)

	// UpdateStatus writes the new status only when the current status still
	// matches from, so racing doctors cannot double-advance.
	UpdateStatus(ctx context.Context, id uuid.UUID, from, to Status) (*Appointment, error)

	// DeleteIfStatus deletes the appointment only while its status still
	// matches from, the same guard as UpdateStatus. ErrAppointmentNotFound
	// when the guard misses.
	DeleteIfStatus(ctx context.Context, id uuid.UUID, from Status) error
}
