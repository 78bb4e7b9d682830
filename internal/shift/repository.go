package shift

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

var (
	ErrShiftNotFound = errors.New("work shift not found")
	// ErrSlotTaken means another shift for the same doctor already occupies the
	// (date, time slot) pair.
	ErrSlotTaken = errors.New("doctor already has a shift for this slot")
	// ErrShiftReserved means a reservation write lost its compare-and-set: the
	// shift was already reserved.
	ErrShiftReserved = errors.New("work shift is already reserved")
	// ErrShiftNotReserved means Release found nothing to release.
	ErrShiftNotReserved = errors.New("work shift is not reserved")
)

// Repository contains all DB interactions on work shifts.
//
// Reserve, Release and Reaffirm are reservation-flag writes. They exist for the
// reservation coordinator only; handlers never touch them, which is what keeps
// IsReserved a coordinator-maintained derived field.
type Repository interface {
	Create(ctx context.Context, s *WorkShift) error
	GetByID(ctx context.Context, id uuid.UUID) (*WorkShift, error)
	List(ctx context.Context, f Filter) ([]WorkShift, error)
	UpdateTiming(ctx context.Context, id uuid.UUID, date time.Time, timeSlot string) (*WorkShift, error)
	Delete(ctx context.Context, id uuid.UUID) error

	// Reserve flips is_reserved false->true and records the reserving
	// appointment in one compare-and-set; it fails with ErrShiftReserved when
	// the shift is already taken.
	Reserve(ctx context.Context, shiftID, appointmentID uuid.UUID) (*WorkShift, error)
	// Release clears the reservation. ErrShiftNotReserved when already clear.
	Release(ctx context.Context, shiftID uuid.UUID) (*WorkShift, error)
	// Reaffirm unconditionally re-asserts the reservation fields.
	Reaffirm(ctx context.Context, shiftID, appointmentID uuid.UUID) error
}
